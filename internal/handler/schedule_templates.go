package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cloudrad-dev/schedule-manager/backend/internal/domain"
	"github.com/cloudrad-dev/schedule-manager/backend/internal/scheduler"
	"github.com/cloudrad-dev/schedule-manager/backend/internal/utils"
)

type templateDayRequest struct {
	DayOfWeek int32  `json:"dayOfWeek" validate:"min=0,max=6"`
	ShiftID   *int64 `json:"shiftID"`
	Notes     string `json:"notes"`
}

func templateDaysFromRequest(reqDays []templateDayRequest) []domain.TemplateDay {
	days := make([]domain.TemplateDay, len(reqDays))
	for i, d := range reqDays {
		days[i] = domain.TemplateDay{
			DayOfWeek: d.DayOfWeek,
			ShiftID:   d.ShiftID,
			Notes:     d.Notes,
		}
	}
	return days
}

func (h *Handler) GetAllScheduleTemplates(w http.ResponseWriter, r *http.Request) {
	department := r.URL.Query().Get("department")
	activeOnly := r.URL.Query().Get("activeOnly") == "true"

	templates, err := h.repository.GetAllScheduleTemplates(department, activeOnly)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "templates retrieved", templates)
}

func (h *Handler) CreateScheduleTemplate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string               `json:"name" validate:"required"`
		Description string               `json:"description"`
		Department  string               `json:"department"`
		IsActive    *bool                `json:"isActive"`
		Days        []templateDayRequest `json:"days" validate:"required,min=1,dive"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	template := &domain.ScheduleTemplate{
		Name:        req.Name,
		Description: req.Description,
		Department:  req.Department,
		IsActive:    true,
		Days:        templateDaysFromRequest(req.Days),
	}
	if req.IsActive != nil {
		template.IsActive = *req.IsActive
	}

	if err := utils.ValidateTemplateDays(template.Days); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.CreateScheduleTemplate(template); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "template created", template)
}

func (h *Handler) GetScheduleTemplate(w http.ResponseWriter, r *http.Request) {
	template := r.Context().Value(ScheduleTemplateCtx).(*domain.ScheduleTemplate)
	h.successResponse(w, r, "template retrieved", template)
}

func (h *Handler) UpdateScheduleTemplate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        *string              `json:"name"`
		Description *string              `json:"description"`
		Department  *string              `json:"department"`
		IsActive    *bool                `json:"isActive"`
		Days        []templateDayRequest `json:"days" validate:"omitempty,min=1,dive"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	template := r.Context().Value(ScheduleTemplateCtx).(*domain.ScheduleTemplate)

	if req.Name != nil {
		template.Name = *req.Name
	}
	if req.Description != nil {
		template.Description = *req.Description
	}
	if req.Department != nil {
		template.Department = *req.Department
	}
	if req.IsActive != nil {
		template.IsActive = *req.IsActive
	}

	replaceDays := req.Days != nil
	if replaceDays {
		template.Days = templateDaysFromRequest(req.Days)
		if err := utils.ValidateTemplateDays(template.Days); err != nil {
			h.badRequest(w, r, err)
			return
		}
	}

	if err := h.repository.UpdateScheduleTemplate(template, replaceDays); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "failed to update the template, please try again")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "template updated", template)
}

func (h *Handler) DeleteScheduleTemplate(w http.ResponseWriter, r *http.Request) {
	template := r.Context().Value(ScheduleTemplateCtx).(*domain.ScheduleTemplate)

	if err := h.repository.DeleteScheduleTemplate(template.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "template deleted", nil)
}

// ApplyScheduleTemplate books the template's weekly pattern for a cohort of
// users, starting from the anchor date. Users already committed on a target
// date are skipped and reported rather than failing the whole batch.
func (h *Handler) ApplyScheduleTemplate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserIDs   []int64 `json:"userIDs" validate:"required,min=1"`
		StartDate string  `json:"startDate" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		h.badRequest(w, r, fmt.Errorf("startDate must be a date in the form %s", dateLayout))
		return
	}

	template := r.Context().Value(ScheduleTemplateCtx).(*domain.ScheduleTemplate)

	users, err := h.repository.GetUsersByIDs(req.UserIDs)
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	shiftIDs := make([]int64, 0, len(template.Days))
	for _, day := range template.Days {
		if day.ShiftID != nil {
			shiftIDs = append(shiftIDs, *day.ShiftID)
		}
	}

	shifts, err := h.repository.GetShiftsByIDs(shiftIDs)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	actor, err := h.actor(r)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	result, err := h.scheduler.ApplyTemplate(r.Context(), scheduler.ApplyTemplateCommand{
		Template:  template,
		Shifts:    shifts,
		Users:     users,
		StartDate: startDate,
	}, actor)
	if err != nil {
		h.schedulerError(w, r, err)
		return
	}

	h.notifyAssignedEvents(r, users, result.CreatedEvents)

	h.successResponse(w, r, "template applied", result)
}
