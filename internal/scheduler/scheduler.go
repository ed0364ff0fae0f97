package scheduler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cloudrad-dev/schedule-manager/backend/internal/domain"
)

// Store is the persistence surface the scheduler needs. LockUserScheduleEvents
// must serialize concurrent check-then-insert sequences for the same user
// before returning the user's active events (a transaction-scoped per-user
// lock, not row locks, since the calendar may be empty); it is only
// meaningful inside InTransaction.
type Store interface {
	InTransaction(ctx context.Context, fn func(tx Store) error) error
	GetScheduleEventByID(ctx context.Context, id int64) (*domain.ScheduleEvent, error)
	ListActiveUserScheduleEvents(ctx context.Context, userID int64) ([]*domain.ScheduleEvent, error)
	LockUserScheduleEvents(ctx context.Context, userID int64) ([]*domain.ScheduleEvent, error)
	InsertScheduleEvent(ctx context.Context, event *domain.ScheduleEvent) error
	UpdateScheduleEvent(ctx context.Context, event *domain.ScheduleEvent) error
	DeleteScheduleEvent(ctx context.Context, id int64) error
}

// Actor identifies who is performing an operation. Permissions are threaded
// explicitly instead of being read from ambient request state.
type Actor struct {
	UserID  int64
	IsAdmin bool
}

type Scheduler struct {
	store      Store
	strictness Strictness
}

func New(store Store, strictness Strictness) *Scheduler {
	return &Scheduler{
		store:      store,
		strictness: strictness,
	}
}

type CreateEventCommand struct {
	UserID      int64
	Title       string
	EventType   domain.EventType
	Description string
	StartDate   time.Time
	EndDate     time.Time
	StartTime   string
	EndTime     string
	AllDay      bool
	ShiftID     *int64
	PatientID   *int64
	Location    string
	Color       string
	Department  string
}

// CreateEvent persists a new schedule event with status scheduled after
// verifying that the user has no active event overlapping the date range.
// The conflict check and the insert run in one transaction holding the
// user's scheduling lock.
func (s *Scheduler) CreateEvent(ctx context.Context, cmd CreateEventCommand, actor Actor) (*domain.ScheduleEvent, error) {
	if !actor.IsAdmin && cmd.UserID != actor.UserID {
		return nil, ErrPermissionDenied
	}
	if cmd.EndDate.Before(cmd.StartDate) {
		return nil, ErrInvalidRange
	}
	if err := validateClocks(cmd.StartTime, cmd.EndTime); err != nil {
		return nil, err
	}

	event := &domain.ScheduleEvent{
		UserID:      cmd.UserID,
		Title:       cmd.Title,
		EventType:   cmd.EventType,
		Description: cmd.Description,
		StartDate:   cmd.StartDate,
		EndDate:     cmd.EndDate,
		StartTime:   cmd.StartTime,
		EndTime:     cmd.EndTime,
		AllDay:      cmd.AllDay,
		ShiftID:     cmd.ShiftID,
		Status:      domain.EventStatusScheduled,
		Location:    cmd.Location,
		Color:       cmd.Color,
		PatientID:   cmd.PatientID,
		Department:  cmd.Department,
		CreatedBy:   &actor.UserID,
	}

	if err := s.createChecked(ctx, event); err != nil {
		return nil, err
	}

	return event, nil
}

// createChecked runs the check-then-insert sequence for one event inside a
// transaction. A ConflictError from here is terminal for this event; no
// retries are attempted.
func (s *Scheduler) createChecked(ctx context.Context, event *domain.ScheduleEvent) error {
	return s.store.InTransaction(ctx, func(tx Store) error {
		active, err := tx.LockUserScheduleEvents(ctx, event.UserID)
		if err != nil {
			return err
		}

		conflicts := filterConflicts(active, eventSpan(event), s.strictness, 0)
		if len(conflicts) > 0 {
			return &ConflictError{Conflicts: conflicts}
		}

		return tx.InsertScheduleEvent(ctx, event)
	})
}

// EventPatch is a partial update. Nil fields are left untouched; unknown
// fields are rejected at the HTTP boundary before a patch is built.
type EventPatch struct {
	UserID      *int64
	Title       *string
	EventType   *domain.EventType
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
	StartTime   *string
	EndTime     *string
	AllDay      *bool
	ShiftID     *int64
	PatientID   *int64
	Status      *domain.EventStatus
	Location    *string
	Color       *string
	Department  *string
}

// UpdateEvent applies a patch to an existing event. When the owning user or
// the date range changes, the no-overlap invariant is revalidated excluding
// the event itself; on conflict nothing is persisted. A patch that writes
// the current status back is a no-op, so idempotent updates never fail.
func (s *Scheduler) UpdateEvent(ctx context.Context, eventID int64, patch EventPatch, actor Actor) (*domain.ScheduleEvent, error) {
	var updated *domain.ScheduleEvent

	err := s.store.InTransaction(ctx, func(tx Store) error {
		event, err := tx.GetScheduleEventByID(ctx, eventID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		if !actor.IsAdmin && event.UserID != actor.UserID {
			return ErrPermissionDenied
		}

		next := *event
		applyPatch(&next, patch)

		if next.EndDate.Before(next.StartDate) {
			return ErrInvalidRange
		}
		if err := validateClocks(next.StartTime, next.EndTime); err != nil {
			return err
		}

		if next.Status != event.Status && !validTransition(event.Status, next.Status) {
			return &TransitionError{From: event.Status, To: next.Status}
		}

		// under date_time strictness a time-of-day or all-day change can
		// create an overlap on its own, so it triggers revalidation too
		timesChanged := next.StartTime != event.StartTime ||
			next.EndTime != event.EndTime ||
			next.AllDay != event.AllDay

		needsCheck := next.UserID != event.UserID ||
			!next.SameDates(event.StartDate, event.EndDate) ||
			(!event.Status.IsActive() && next.Status.IsActive()) ||
			(s.strictness == StrictnessDateTime && timesChanged)

		if needsCheck && next.Status.IsActive() {
			active, err := tx.LockUserScheduleEvents(ctx, next.UserID)
			if err != nil {
				return err
			}

			conflicts := filterConflicts(active, eventSpan(&next), s.strictness, event.ID)
			if len(conflicts) > 0 {
				return &ConflictError{Conflicts: conflicts}
			}
		}

		if err := tx.UpdateScheduleEvent(ctx, &next); err != nil {
			return err
		}

		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteEvent removes an event. Only the owning user or an administrator may
// delete; there are no cascade effects on other events.
func (s *Scheduler) DeleteEvent(ctx context.Context, eventID int64, actor Actor) error {
	return s.store.InTransaction(ctx, func(tx Store) error {
		event, err := tx.GetScheduleEventByID(ctx, eventID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		if !actor.IsAdmin && event.UserID != actor.UserID {
			return ErrPermissionDenied
		}

		return tx.DeleteScheduleEvent(ctx, event.ID)
	})
}

// FindConflicts returns the user's active events whose date ranges overlap
// [startDate, endDate], excluding excludeEventID if nonzero.
func (s *Scheduler) FindConflicts(ctx context.Context, userID int64, startDate, endDate time.Time, excludeEventID int64) ([]*domain.ScheduleEvent, error) {
	active, err := s.store.ListActiveUserScheduleEvents(ctx, userID)
	if err != nil {
		return nil, err
	}

	candidate := span{startDate: startDate, endDate: endDate, allDay: true}
	return filterConflicts(active, candidate, StrictnessDate, excludeEventID), nil
}

// HasConflict reports whether the user has any active commitment in the
// range. This is a date-granularity check regardless of strictness, matching
// what template application and bulk creation rely on.
func (s *Scheduler) HasConflict(ctx context.Context, userID int64, startDate, endDate time.Time, excludeEventID int64) (bool, error) {
	conflicts, err := s.FindConflicts(ctx, userID, startDate, endDate, excludeEventID)
	if err != nil {
		return false, err
	}
	return len(conflicts) > 0, nil
}

func applyPatch(event *domain.ScheduleEvent, patch EventPatch) {
	if patch.UserID != nil {
		event.UserID = *patch.UserID
	}
	if patch.Title != nil {
		event.Title = *patch.Title
	}
	if patch.EventType != nil {
		event.EventType = *patch.EventType
	}
	if patch.Description != nil {
		event.Description = *patch.Description
	}
	if patch.StartDate != nil {
		event.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		event.EndDate = *patch.EndDate
	}
	if patch.StartTime != nil {
		event.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		event.EndTime = *patch.EndTime
	}
	if patch.AllDay != nil {
		event.AllDay = *patch.AllDay
	}
	if patch.ShiftID != nil {
		event.ShiftID = patch.ShiftID
	}
	if patch.PatientID != nil {
		event.PatientID = patch.PatientID
	}
	if patch.Status != nil {
		event.Status = *patch.Status
	}
	if patch.Location != nil {
		event.Location = *patch.Location
	}
	if patch.Color != nil {
		event.Color = *patch.Color
	}
	if patch.Department != nil {
		event.Department = *patch.Department
	}
}

// validateClocks rejects malformed time-of-day strings before they reach the
// database. Empty clocks are allowed; all-day events carry them.
func validateClocks(startTime, endTime string) error {
	for _, clock := range []string{startTime, endTime} {
		if clock == "" {
			continue
		}
		if _, err := time.Parse("15:04:05", clock); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidClock, clock)
		}
	}
	return nil
}

func validTransition(from, to domain.EventStatus) bool {
	switch from {
	case domain.EventStatusScheduled:
		return to == domain.EventStatusConfirmed || to == domain.EventStatusCancelled
	case domain.EventStatusConfirmed:
		return to == domain.EventStatusCompleted || to == domain.EventStatusCancelled
	default:
		return false
	}
}
