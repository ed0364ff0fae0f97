package domain

import (
	"math"
	"time"
)

type EventType string

const (
	EventTypeShift      EventType = "shift"
	EventTypeOnCall     EventType = "on_call"
	EventTypeMeeting    EventType = "meeting"
	EventTypeTraining   EventType = "training"
	EventTypeVacation   EventType = "vacation"
	EventTypeSickLeave  EventType = "sick_leave"
	EventTypeConference EventType = "conference"
)

type EventStatus string

const (
	EventStatusScheduled EventStatus = "scheduled"
	EventStatusConfirmed EventStatus = "confirmed"
	EventStatusCancelled EventStatus = "cancelled"
	EventStatusCompleted EventStatus = "completed"
)

// IsActive reports whether events with this status participate in conflict
// detection. Cancelled and completed events never block new bookings.
func (s EventStatus) IsActive() bool {
	return s == EventStatusScheduled || s == EventStatusConfirmed
}

// ScheduleEvent is a concrete calendar commitment for one user over an
// inclusive date range. StartDate and EndDate carry the date only; times of
// day live in StartTime/EndTime as "15:04:05" strings and are ignored when
// AllDay is set.
type ScheduleEvent struct {
	ID          int64       `json:"id"`
	UserID      int64       `json:"userID"`
	Title       string      `json:"title"`
	EventType   EventType   `json:"eventType"`
	Description string      `json:"description"`
	StartDate   time.Time   `json:"startDate"`
	EndDate     time.Time   `json:"endDate"`
	StartTime   string      `json:"startTime"`
	EndTime     string      `json:"endTime"`
	AllDay      bool        `json:"allDay"`
	ShiftID     *int64      `json:"shiftID"`
	Status      EventStatus `json:"status"`
	Location    string      `json:"location"`
	Color       string      `json:"color"`
	PatientID   *int64      `json:"patientID"`
	Department  string      `json:"department"`
	CreatedBy   *int64      `json:"createdBy"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
	Version     int32       `json:"-"`
}

const allDayNominalHours = 8.0

// DurationHours computes the total hours of the event, rounded to two
// decimal places. All-day events count as a standard work day. A same-day
// event whose end time is before its start time crosses midnight.
func (e *ScheduleEvent) DurationHours() float64 {
	if e.AllDay {
		return allDayNominalHours
	}

	startClock, err := time.Parse("15:04:05", e.StartTime)
	if err != nil {
		return 0
	}
	endClock, err := time.Parse("15:04:05", e.EndTime)
	if err != nil {
		return 0
	}

	start := combineDateTime(e.StartDate, startClock)
	end := combineDateTime(e.EndDate, endClock)

	if e.EndDate.Equal(e.StartDate) && endClock.Before(startClock) {
		end = end.Add(24 * time.Hour)
	}

	hours := end.Sub(start).Hours()
	return math.Round(hours*100) / 100
}

// SameDates reports whether the event covers exactly the given date range.
func (e *ScheduleEvent) SameDates(startDate, endDate time.Time) bool {
	return e.StartDate.Equal(startDate) && e.EndDate.Equal(endDate)
}

func combineDateTime(date time.Time, clock time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), 0, time.UTC)
}
