package scheduler

import (
	"errors"
	"fmt"

	"github.com/cloudrad-dev/schedule-manager/backend/internal/domain"
)

var (
	ErrInvalidRange     = errors.New("end date cannot be before start date")
	ErrInvalidClock     = errors.New("time of day must be in HH:MM:SS form")
	ErrNotFound         = errors.New("schedule event not found")
	ErrPermissionDenied = errors.New("not allowed to operate on this schedule event")
)

// ConflictError carries the overlapping events that blocked a write. Callers
// decide whether to reject the request or skip-and-report.
type ConflictError struct {
	Conflicts []*domain.ScheduleEvent
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("user has %d conflicting schedule events during this time", len(e.Conflicts))
}

// TransitionError reports a status change outside
// scheduled -> confirmed -> completed, with cancellation allowed from
// scheduled and confirmed.
type TransitionError struct {
	From domain.EventStatus
	To   domain.EventStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot change event status from %s to %s", e.From, e.To)
}
