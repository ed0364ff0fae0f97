package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/cloudrad-dev/schedule-manager/backend/internal/domain"
	"github.com/cloudrad-dev/schedule-manager/backend/internal/utils"
	"github.com/jackc/pgx/v5/pgconn"
)

func (h *Handler) GetAllShifts(w http.ResponseWriter, r *http.Request) {
	shiftType := r.URL.Query().Get("type")
	search := r.URL.Query().Get("search")

	shifts, err := h.repository.ListShifts(shiftType, search)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "shifts retrieved", shifts)
}

func (h *Handler) CreateShift(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name" validate:"required"`
		ShiftType   string `json:"shiftType" validate:"required,oneof=morning evening night on_call split custom"`
		StartTime   string `json:"startTime" validate:"required"`
		EndTime     string `json:"endTime" validate:"required"`
		Color       string `json:"color"`
		Description string `json:"description"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := utils.ValidateShiftTimes(req.StartTime, req.EndTime); err != nil {
		h.badRequest(w, r, err)
		return
	}

	shift := &domain.Shift{
		Name:        req.Name,
		ShiftType:   domain.ShiftType(req.ShiftType),
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Color:       req.Color,
		Description: req.Description,
	}

	if err := h.repository.CreateShift(shift); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "shifts_name_key":
			h.badRequest(w, r, errors.New("a shift with this name already exists"))
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "shift created", shift)
}

func (h *Handler) GetShift(w http.ResponseWriter, r *http.Request) {
	shift := r.Context().Value(ShiftCtx).(*domain.Shift)
	h.successResponse(w, r, "shift retrieved", shift)
}

func (h *Handler) UpdateShift(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        *string `json:"name"`
		ShiftType   *string `json:"shiftType" validate:"omitempty,oneof=morning evening night on_call split custom"`
		StartTime   *string `json:"startTime"`
		EndTime     *string `json:"endTime"`
		Color       *string `json:"color"`
		Description *string `json:"description"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	shift := r.Context().Value(ShiftCtx).(*domain.Shift)

	if req.Name != nil {
		shift.Name = *req.Name
	}
	if req.ShiftType != nil {
		shift.ShiftType = domain.ShiftType(*req.ShiftType)
	}
	if req.StartTime != nil {
		shift.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		shift.EndTime = *req.EndTime
	}
	if req.Color != nil {
		shift.Color = *req.Color
	}
	if req.Description != nil {
		shift.Description = *req.Description
	}

	if err := utils.ValidateShiftTimes(shift.StartTime, shift.EndTime); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.UpdateShift(shift); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "failed to update the shift, please try again")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "shift updated", shift)
}

// DeleteShift refuses to remove a shift that schedule events still reference.
func (h *Handler) DeleteShift(w http.ResponseWriter, r *http.Request) {
	shift := r.Context().Value(ShiftCtx).(*domain.Shift)

	inUse, err := h.repository.CheckShiftInUse(shift.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if inUse {
		h.errorResponse(w, r, "shift is referenced by existing schedule events")
		return
	}

	if err := h.repository.DeleteShift(shift.ID); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "schedule_events_shift_id_fkey":
			// an event was created between the check and the delete
			h.errorResponse(w, r, "shift is referenced by existing schedule events")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "shift deleted", nil)
}
