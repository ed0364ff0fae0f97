package scheduler

import (
	"fmt"
	"time"

	"github.com/cloudrad-dev/schedule-manager/backend/internal/domain"
)

// Strictness selects how conflicts are detected. The original system checked
// date ranges only, so two events on the same day always conflict even when
// their times of day do not touch; template application and bulk creation
// rely on that exclusion. StrictnessDateTime refines same-date candidates by
// time-of-day interval overlap.
type Strictness string

const (
	StrictnessDate     Strictness = "date"
	StrictnessDateTime Strictness = "date_time"
)

func ParseStrictness(s string) (Strictness, error) {
	switch Strictness(s) {
	case StrictnessDate, StrictnessDateTime:
		return Strictness(s), nil
	default:
		return "", fmt.Errorf("unknown conflict strictness %q", s)
	}
}

// span is the date/time window a candidate write wants to occupy.
type span struct {
	startDate time.Time
	endDate   time.Time
	startTime string
	endTime   string
	allDay    bool
}

func eventSpan(e *domain.ScheduleEvent) span {
	return span{
		startDate: e.StartDate,
		endDate:   e.EndDate,
		startTime: e.StartTime,
		endTime:   e.EndTime,
		allDay:    e.AllDay,
	}
}

// datesOverlap is the closed-interval overlap test: [a1,b1] and [a2,b2]
// overlap iff a1 <= b2 and a2 <= b1. Single-day events (a == b) degenerate
// correctly.
func datesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !bStart.After(aEnd)
}

func clocksOverlap(aStart, aEnd, bStart, bEnd string) bool {
	as, err := time.Parse("15:04:05", aStart)
	if err != nil {
		return true
	}
	ae, err := time.Parse("15:04:05", aEnd)
	if err != nil {
		return true
	}
	bs, err := time.Parse("15:04:05", bStart)
	if err != nil {
		return true
	}
	be, err := time.Parse("15:04:05", bEnd)
	if err != nil {
		return true
	}

	// an end at or before the start wraps past midnight
	if !ae.After(as) {
		ae = ae.Add(24 * time.Hour)
	}
	if !be.After(bs) {
		be = be.Add(24 * time.Hour)
	}

	return as.Before(be) && bs.Before(ae)
}

// conflictsWith reports whether an existing active event blocks the
// candidate span under the given strictness.
func conflictsWith(event *domain.ScheduleEvent, candidate span, strictness Strictness) bool {
	if !datesOverlap(event.StartDate, event.EndDate, candidate.startDate, candidate.endDate) {
		return false
	}

	if strictness == StrictnessDate {
		return true
	}

	// all-day commitments occupy the whole day
	if event.AllDay || candidate.allDay {
		return true
	}

	// only two single-day entries can be separated by time of day; anything
	// spanning multiple days overlaps continuously
	singleDayEvent := event.StartDate.Equal(event.EndDate)
	singleDayCandidate := candidate.startDate.Equal(candidate.endDate)
	if !singleDayEvent || !singleDayCandidate {
		return true
	}

	return clocksOverlap(event.StartTime, event.EndTime, candidate.startTime, candidate.endTime)
}

// filterConflicts evaluates the availability predicate over a user's active
// events: it keeps events with status scheduled or confirmed whose span
// blocks the candidate, excluding excludeEventID (used when revalidating an
// update against itself; 0 excludes nothing).
func filterConflicts(events []*domain.ScheduleEvent, candidate span, strictness Strictness, excludeEventID int64) []*domain.ScheduleEvent {
	conflicts := make([]*domain.ScheduleEvent, 0)
	for _, event := range events {
		if excludeEventID != 0 && event.ID == excludeEventID {
			continue
		}
		if !event.Status.IsActive() {
			continue
		}
		if conflictsWith(event, candidate, strictness) {
			conflicts = append(conflicts, event)
		}
	}
	return conflicts
}

// mondayIndexedWeekday maps time.Weekday (Sunday=0) onto the template
// convention 0=Monday .. 6=Sunday.
func mondayIndexedWeekday(d time.Time) int32 {
	return int32((int(d.Weekday()) + 6) % 7)
}

// nextOccurrence returns the first date on or after anchor that falls on the
// given weekday (0=Monday .. 6=Sunday).
func nextOccurrence(anchor time.Time, dayOfWeek int32) time.Time {
	delta := (dayOfWeek - mondayIndexedWeekday(anchor) + 7) % 7
	return anchor.AddDate(0, 0, int(delta))
}
