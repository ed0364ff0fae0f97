package handler

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cloudrad-dev/schedule-manager/backend/internal/domain"
	"github.com/cloudrad-dev/schedule-manager/backend/internal/repository"
	"github.com/cloudrad-dev/schedule-manager/backend/internal/scheduler"
)

func (h *Handler) GetAllScheduleEvents(w http.ResponseWriter, r *http.Request) {
	filter, err := h.scopedEventFilter(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	page := intQueryParam(r, "page", 1)
	pageSize := intQueryParam(r, "pageSize", 50)
	if pageSize > 200 {
		pageSize = 200
	}

	events, total, err := h.repository.ListScheduleEvents(filter, page, pageSize)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "schedule events retrieved", map[string]any{
		"events":   events,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
}

func eventFilterFromQuery(r *http.Request) (repository.ScheduleEventFilter, error) {
	filter := repository.ScheduleEventFilter{
		EventType:  r.URL.Query().Get("eventType"),
		Department: r.URL.Query().Get("department"),
		Status:     r.URL.Query().Get("status"),
	}

	if userID, ok := int64QueryParam(r, "userID"); ok {
		filter.UserID = &userID
	}

	if startDate, ok, err := dateQueryParam(r, "startDate"); err != nil {
		return filter, err
	} else if ok {
		filter.StartDate = &startDate
	}

	if endDate, ok, err := dateQueryParam(r, "endDate"); err != nil {
		return filter, err
	} else if ok {
		filter.EndDate = &endDate
	}

	return filter, nil
}

// scopedEventFilter narrows the query filter to the requester's own events
// unless they are an administrator.
func (h *Handler) scopedEventFilter(r *http.Request) (repository.ScheduleEventFilter, error) {
	filter, err := eventFilterFromQuery(r)
	if err != nil {
		return filter, err
	}

	actor, err := h.actor(r)
	if err != nil {
		return filter, err
	}

	if !actor.IsAdmin {
		filter.UserID = &actor.UserID
	}

	return filter, nil
}

func (h *Handler) CreateScheduleEvent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID      int64  `json:"userID" validate:"required"`
		Title       string `json:"title" validate:"required"`
		EventType   string `json:"eventType" validate:"required,oneof=shift on_call meeting training vacation sick_leave conference"`
		Description string `json:"description"`
		StartDate   string `json:"startDate" validate:"required"`
		EndDate     string `json:"endDate" validate:"required"`
		StartTime   string `json:"startTime"`
		EndTime     string `json:"endTime"`
		AllDay      bool   `json:"allDay"`
		ShiftID     *int64 `json:"shiftID"`
		PatientID   *int64 `json:"patientID"`
		Location    string `json:"location"`
		Color       string `json:"color"`
		Department  string `json:"department"`
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
	endDate, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		h.badRequest(w, r, fmt.Errorf("endDate must be a date in the form %s", dateLayout))
		return
	}

	actor, err := h.actor(r)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	event, err := h.scheduler.CreateEvent(r.Context(), scheduler.CreateEventCommand{
		UserID:      req.UserID,
		Title:       req.Title,
		EventType:   domain.EventType(req.EventType),
		Description: req.Description,
		StartDate:   startDate,
		EndDate:     endDate,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		AllDay:      req.AllDay,
		ShiftID:     req.ShiftID,
		PatientID:   req.PatientID,
		Location:    req.Location,
		Color:       req.Color,
		Department:  req.Department,
	}, actor)
	if err != nil {
		h.schedulerError(w, r, err)
		return
	}

	h.successResponse(w, r, "schedule event created", event)
}

func (h *Handler) GetScheduleEvent(w http.ResponseWriter, r *http.Request) {
	event := r.Context().Value(ScheduleEventCtx).(*domain.ScheduleEvent)
	h.successResponse(w, r, "schedule event retrieved", event)
}

func (h *Handler) UpdateScheduleEvent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID      *int64  `json:"userID"`
		Title       *string `json:"title"`
		EventType   *string `json:"eventType" validate:"omitempty,oneof=shift on_call meeting training vacation sick_leave conference"`
		Description *string `json:"description"`
		StartDate   *string `json:"startDate"`
		EndDate     *string `json:"endDate"`
		StartTime   *string `json:"startTime"`
		EndTime     *string `json:"endTime"`
		AllDay      *bool   `json:"allDay"`
		ShiftID     *int64  `json:"shiftID"`
		PatientID   *int64  `json:"patientID"`
		Status      *string `json:"status" validate:"omitempty,oneof=scheduled confirmed completed cancelled"`
		Location    *string `json:"location"`
		Color       *string `json:"color"`
		Department  *string `json:"department"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	patch := scheduler.EventPatch{
		UserID:      req.UserID,
		Title:       req.Title,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		AllDay:      req.AllDay,
		ShiftID:     req.ShiftID,
		PatientID:   req.PatientID,
		Location:    req.Location,
		Color:       req.Color,
		Department:  req.Department,
	}

	if req.EventType != nil {
		eventType := domain.EventType(*req.EventType)
		patch.EventType = &eventType
	}
	if req.Status != nil {
		status := domain.EventStatus(*req.Status)
		patch.Status = &status
	}
	if req.StartDate != nil {
		startDate, err := time.Parse(dateLayout, *req.StartDate)
		if err != nil {
			h.badRequest(w, r, fmt.Errorf("startDate must be a date in the form %s", dateLayout))
			return
		}
		patch.StartDate = &startDate
	}
	if req.EndDate != nil {
		endDate, err := time.Parse(dateLayout, *req.EndDate)
		if err != nil {
			h.badRequest(w, r, fmt.Errorf("endDate must be a date in the form %s", dateLayout))
			return
		}
		patch.EndDate = &endDate
	}

	actor, err := h.actor(r)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	event := r.Context().Value(ScheduleEventCtx).(*domain.ScheduleEvent)

	updated, err := h.scheduler.UpdateEvent(r.Context(), event.ID, patch, actor)
	if err != nil {
		h.schedulerError(w, r, err)
		return
	}

	h.successResponse(w, r, "schedule event updated", updated)
}

func (h *Handler) DeleteScheduleEvent(w http.ResponseWriter, r *http.Request) {
	event := r.Context().Value(ScheduleEventCtx).(*domain.ScheduleEvent)

	actor, err := h.actor(r)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if err := h.scheduler.DeleteEvent(r.Context(), event.ID, actor); err != nil {
		h.schedulerError(w, r, err)
		return
	}

	h.successResponse(w, r, "schedule event deleted", nil)
}

func (h *Handler) BulkCreateScheduleEvents(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserIDs   []int64 `json:"userIDs" validate:"required,min=1"`
		ShiftID   int64   `json:"shiftID" validate:"required"`
		EventType string  `json:"eventType" validate:"omitempty,oneof=shift on_call meeting training vacation sick_leave conference"`
		StartDate string  `json:"startDate" validate:"required"`
		EndDate   string  `json:"endDate" validate:"required"`
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
	endDate, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		h.badRequest(w, r, fmt.Errorf("endDate must be a date in the form %s", dateLayout))
		return
	}

	users, err := h.repository.GetUsersByIDs(req.UserIDs)
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	shift, err := h.repository.GetShiftByID(req.ShiftID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "shift not found")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	actor, err := h.actor(r)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	result, err := h.scheduler.BulkCreate(r.Context(), scheduler.BulkCreateCommand{
		Users:     users,
		Shift:     shift,
		EventType: domain.EventType(req.EventType),
		StartDate: startDate,
		EndDate:   endDate,
	}, actor)
	if err != nil {
		h.schedulerError(w, r, err)
		return
	}

	h.notifyAssignedEvents(r, users, result.CreatedEvents)

	h.successResponse(w, r, "bulk creation finished", result)
}

// notifyAssignedEvents queues one assignment mail per created event. Mail
// failures are logged and do not fail the request; the events are already
// committed.
func (h *Handler) notifyAssignedEvents(r *http.Request, users []*domain.User, events []*domain.ScheduleEvent) {
	usersByID := make(map[int64]*domain.User, len(users))
	for _, user := range users {
		usersByID[user.ID] = user
	}

	for _, event := range events {
		user := usersByID[event.UserID]
		if user == nil {
			continue
		}

		err := h.publishMail(domain.MailMessage{
			Type: "schedule_assigned",
			To:   user.Email,
			Data: domain.ScheduleAssignedMailData{
				FullName:  user.FullName,
				Title:     event.Title,
				StartDate: event.StartDate.Format(dateLayout),
				EndDate:   event.EndDate.Format(dateLayout),
				StartTime: event.StartTime,
				EndTime:   event.EndTime,
			},
		})
		if err != nil {
			h.logInternalServerError(r, err)
		}
	}
}

// CheckAvailability answers whether each requested user is free over the
// window. Accepts a single userID or a comma-separated userIDs cohort.
func (h *Handler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	userIDs, err := userIDsFromQuery(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	startDate, endDate, err := dateWindow(r, 0)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	var excludeEventID int64
	if id, ok := int64QueryParam(r, "excludeEventID"); ok {
		excludeEventID = id
	}

	type userAvailability struct {
		UserID    int64 `json:"userID"`
		Available bool  `json:"available"`
		Conflicts int   `json:"conflicts"`
	}

	results := make([]userAvailability, 0, len(userIDs))
	for _, userID := range userIDs {
		conflicts, err := h.scheduler.FindConflicts(r.Context(), userID, startDate, endDate, excludeEventID)
		if err != nil {
			h.internalServerError(w, r, err)
			return
		}
		results = append(results, userAvailability{
			UserID:    userID,
			Available: len(conflicts) == 0,
			Conflicts: len(conflicts),
		})
	}

	h.successResponse(w, r, "availability checked", map[string]any{
		"startDate": startDate.Format(dateLayout),
		"endDate":   endDate.Format(dateLayout),
		"users":     results,
	})
}

func userIDsFromQuery(r *http.Request) ([]int64, error) {
	if userID, ok := int64QueryParam(r, "userID"); ok {
		return []int64{userID}, nil
	}

	raw := r.URL.Query().Get("userIDs")
	if raw == "" {
		return nil, errors.New("userID or userIDs is required")
	}

	parts := strings.Split(raw, ",")
	userIDs := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, errors.New("userIDs must be a comma-separated list of ids")
		}
		userIDs = append(userIDs, id)
	}

	return userIDs, nil
}

func (h *Handler) CheckConflicts(w http.ResponseWriter, r *http.Request) {
	userID, ok := int64QueryParam(r, "userID")
	if !ok {
		h.badRequest(w, r, errors.New("userID is required"))
		return
	}

	startDate, endDate, err := dateWindow(r, 0)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	var excludeEventID int64
	if id, ok := int64QueryParam(r, "excludeEventID"); ok {
		excludeEventID = id
	}

	conflicts, err := h.scheduler.FindConflicts(r.Context(), userID, startDate, endDate, excludeEventID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "conflicts checked", map[string]any{
		"conflicts": conflicts,
		"count":     len(conflicts),
	})
}

// GetCalendar returns the requester's active events in a month, grouped by
// day. Admins may pass userID to view someone else's calendar.
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	userID := actor.UserID
	if id, ok := int64QueryParam(r, "userID"); ok {
		if id != actor.UserID && !actor.IsAdmin {
			h.errorResponse(w, r, "permission denied")
			return
		}
		userID = id
	}

	now := time.Now()
	month := now.Month()
	year := now.Year()
	if raw := r.URL.Query().Get("month"); raw != "" {
		t, err := time.Parse("2006-01", raw)
		if err != nil {
			h.badRequest(w, r, errors.New("month must be in the form 2006-01"))
			return
		}
		month = t.Month()
		year = t.Year()
	}

	startDate := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	endDate := startDate.AddDate(0, 1, -1)

	events, err := h.repository.ListUserEventsInRange(userID, startDate, endDate)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	byDay := make(map[string][]*domain.ScheduleEvent)
	for _, event := range events {
		from := event.StartDate
		if from.Before(startDate) {
			from = startDate
		}
		to := event.EndDate
		if to.After(endDate) {
			to = endDate
		}
		for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
			key := d.Format(dateLayout)
			byDay[key] = append(byDay[key], event)
		}
	}

	h.successResponse(w, r, "calendar retrieved", map[string]any{
		"month": startDate.Format("2006-01"),
		"days":  byDay,
	})
}

func (h *Handler) GetScheduleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repository.GetScheduleStatistics(truncateToDate(time.Now()))
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "schedule statistics retrieved", stats)
}

// ExportScheduleEvents streams the filtered events as CSV instead of the
// usual JSON envelope.
func (h *Handler) ExportScheduleEvents(w http.ResponseWriter, r *http.Request) {
	filter, err := h.scopedEventFilter(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	events, _, err := h.repository.ListScheduleEvents(filter, 1, 10000)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="schedule-events.csv"`)

	writer := csv.NewWriter(w)
	header := []string{"id", "user_id", "title", "event_type", "start_date", "end_date", "start_time", "end_time", "all_day", "status", "department", "duration_hours"}
	if err := writer.Write(header); err != nil {
		h.logInternalServerError(r, err)
		return
	}

	for _, event := range events {
		record := []string{
			strconv.FormatInt(event.ID, 10),
			strconv.FormatInt(event.UserID, 10),
			event.Title,
			string(event.EventType),
			event.StartDate.Format(dateLayout),
			event.EndDate.Format(dateLayout),
			event.StartTime,
			event.EndTime,
			strconv.FormatBool(event.AllDay),
			string(event.Status),
			event.Department,
			strconv.FormatFloat(event.DurationHours(), 'f', 2, 64),
		}
		if err := writer.Write(record); err != nil {
			h.logInternalServerError(r, err)
			return
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		h.logInternalServerError(r, err)
	}
}
