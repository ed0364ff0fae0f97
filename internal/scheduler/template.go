package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudrad-dev/schedule-manager/backend/internal/domain"
)

const skipReasonConflict = "Schedule conflict"

// SkippedUser records one (user, date) pair that could not be booked.
type SkippedUser struct {
	UserID   int64  `json:"userID"`
	UserName string `json:"userName"`
	Date     string `json:"date"`
	Reason   string `json:"reason"`
}

type ApplyTemplateCommand struct {
	Template  *domain.ScheduleTemplate
	Shifts    map[int64]*domain.Shift // resolved shifts for the template days
	Users     []*domain.User
	StartDate time.Time
}

type ApplyTemplateResult struct {
	CreatedEvents []*domain.ScheduleEvent `json:"createdEvents"`
	SkippedUsers  []SkippedUser           `json:"skippedUsers"`
	CreatedCount  int                     `json:"createdCount"`
	SkippedCount  int                     `json:"skippedCount"`
}

// ApplyTemplate expands each template day into one single-day shift event per
// user, dated at the first occurrence of that weekday on or after StartDate.
// Users with a conflicting commitment on that date are skipped and reported;
// per-pair conflicts never abort the batch. Missing shift resolutions are a
// fatal precondition failure.
func (s *Scheduler) ApplyTemplate(ctx context.Context, cmd ApplyTemplateCommand, actor Actor) (*ApplyTemplateResult, error) {
	if !actor.IsAdmin {
		return nil, ErrPermissionDenied
	}
	if len(cmd.Users) == 0 {
		return nil, errors.New("no users to apply the template to")
	}

	for _, day := range cmd.Template.Days {
		if day.ShiftID != nil && cmd.Shifts[*day.ShiftID] == nil {
			return nil, fmt.Errorf("shift %d referenced by the template is not resolved", *day.ShiftID)
		}
	}

	result := &ApplyTemplateResult{
		CreatedEvents: make([]*domain.ScheduleEvent, 0),
		SkippedUsers:  make([]SkippedUser, 0),
	}

	for _, user := range cmd.Users {
		for _, day := range cmd.Template.Days {
			if day.ShiftID == nil {
				// template days without a shift generate nothing
				continue
			}

			shift := cmd.Shifts[*day.ShiftID]
			eventDate := nextOccurrence(cmd.StartDate, day.DayOfWeek)

			event := s.shiftEvent(user, shift, domain.EventTypeShift, eventDate, eventDate, actor)
			if err := s.createChecked(ctx, event); err != nil {
				var conflictErr *ConflictError
				if errors.As(err, &conflictErr) {
					result.SkippedUsers = append(result.SkippedUsers, SkippedUser{
						UserID:   user.ID,
						UserName: user.FullName,
						Date:     eventDate.Format("2006-01-02"),
						Reason:   skipReasonConflict,
					})
					continue
				}
				return nil, err
			}

			result.CreatedEvents = append(result.CreatedEvents, event)
		}
	}

	result.CreatedCount = len(result.CreatedEvents)
	result.SkippedCount = len(result.SkippedUsers)
	return result, nil
}

type BulkCreateCommand struct {
	Users     []*domain.User
	Shift     *domain.Shift
	EventType domain.EventType
	StartDate time.Time
	EndDate   time.Time
}

type BulkCreateResult struct {
	CreatedEvents []*domain.ScheduleEvent `json:"createdEvents"`
	SkippedUsers  []SkippedUser           `json:"skippedUsers"`
	CreatedCount  int                     `json:"createdCount"`
	SkippedCount  int                     `json:"skippedCount"`
}

// BulkCreate books one identical shift event spanning [StartDate, EndDate]
// for every user in the cohort. Users with any active commitment inside the
// span are skipped and reported.
func (s *Scheduler) BulkCreate(ctx context.Context, cmd BulkCreateCommand, actor Actor) (*BulkCreateResult, error) {
	if !actor.IsAdmin {
		return nil, ErrPermissionDenied
	}
	if cmd.EndDate.Before(cmd.StartDate) {
		return nil, ErrInvalidRange
	}
	if cmd.Shift == nil {
		return nil, errors.New("shift is required for bulk creation")
	}

	eventType := cmd.EventType
	if eventType == "" {
		eventType = domain.EventTypeShift
	}

	result := &BulkCreateResult{
		CreatedEvents: make([]*domain.ScheduleEvent, 0),
		SkippedUsers:  make([]SkippedUser, 0),
	}

	for _, user := range cmd.Users {
		event := s.shiftEvent(user, cmd.Shift, eventType, cmd.StartDate, cmd.EndDate, actor)
		if err := s.createChecked(ctx, event); err != nil {
			var conflictErr *ConflictError
			if errors.As(err, &conflictErr) {
				result.SkippedUsers = append(result.SkippedUsers, SkippedUser{
					UserID:   user.ID,
					UserName: user.FullName,
					Date:     cmd.StartDate.Format("2006-01-02"),
					Reason:   skipReasonConflict,
				})
				continue
			}
			return nil, err
		}

		result.CreatedEvents = append(result.CreatedEvents, event)
	}

	result.CreatedCount = len(result.CreatedEvents)
	result.SkippedCount = len(result.SkippedUsers)
	return result, nil
}

func (s *Scheduler) shiftEvent(user *domain.User, shift *domain.Shift, eventType domain.EventType, startDate, endDate time.Time, actor Actor) *domain.ScheduleEvent {
	return &domain.ScheduleEvent{
		UserID:     user.ID,
		Title:      fmt.Sprintf("%s - %s", shift.Name, user.FullName),
		EventType:  eventType,
		StartDate:  startDate,
		EndDate:    endDate,
		StartTime:  shift.StartTime,
		EndTime:    shift.EndTime,
		ShiftID:    &shift.ID,
		Status:     domain.EventStatusScheduled,
		Color:      shift.Color,
		Department: user.Department,
		CreatedBy:  &actor.UserID,
	}
}
