package handler

import (
	"math"
	"net/http"
	"time"

	"github.com/cloudrad-dev/schedule-manager/backend/internal/domain"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) GetDepartmentSchedule(w http.ResponseWriter, r *http.Request) {
	department := chi.URLParam(r, "department")

	startDate, endDate, err := dateWindow(r, 7)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	events, err := h.repository.ListDepartmentEventsInRange(department, startDate, endDate)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "department schedule retrieved", events)
}

// GetDepartmentToday answers who is on duty in the department right now.
func (h *Handler) GetDepartmentToday(w http.ResponseWriter, r *http.Request) {
	department := chi.URLParam(r, "department")

	today := truncateToDate(time.Now())

	events, err := h.repository.ListDepartmentEventsInRange(department, today, today)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	userIDs := make([]int64, 0, len(events))
	seen := make(map[int64]bool)
	for _, event := range events {
		if !seen[event.UserID] {
			seen[event.UserID] = true
			userIDs = append(userIDs, event.UserID)
		}
	}

	staff, err := h.repository.GetUsersByDepartment(department)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "today's department schedule retrieved", map[string]any{
		"date":        today.Format(dateLayout),
		"events":      events,
		"onDutyCount": len(userIDs),
		"staffCount":  len(staff),
	})
}

type departmentStatistics struct {
	Department      string                   `json:"department"`
	StartDate       string                   `json:"startDate"`
	EndDate         string                   `json:"endDate"`
	TotalEvents     int                      `json:"totalEvents"`
	TotalHours      float64                  `json:"totalHours"`
	UserCount       int                      `json:"userCount"`
	AvgHoursPerUser float64                  `json:"avgHoursPerUser"`
	ByType          map[domain.EventType]int `json:"byType"`
}

func (h *Handler) GetDepartmentStatistics(w http.ResponseWriter, r *http.Request) {
	department := chi.URLParam(r, "department")

	startDate, endDate, err := dateWindow(r, 30)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	events, err := h.repository.ListDepartmentEventsInRange(department, startDate, endDate)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	stats := departmentStatistics{
		Department: department,
		StartDate:  startDate.Format(dateLayout),
		EndDate:    endDate.Format(dateLayout),
		ByType:     make(map[domain.EventType]int),
	}

	seen := make(map[int64]bool)
	for _, event := range events {
		stats.TotalEvents++
		stats.TotalHours += event.DurationHours()
		stats.ByType[event.EventType]++
		if !seen[event.UserID] {
			seen[event.UserID] = true
			stats.UserCount++
		}
	}

	if stats.UserCount > 0 {
		stats.AvgHoursPerUser = math.Round(stats.TotalHours/float64(stats.UserCount)*100) / 100
	}

	h.successResponse(w, r, "department statistics retrieved", stats)
}
