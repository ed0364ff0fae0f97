package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(yearMonthDay ...int) time.Time {
	return time.Date(yearMonthDay[0], time.Month(yearMonthDay[1]), yearMonthDay[2], 0, 0, 0, 0, time.UTC)
}

func TestScheduleEventDurationHours(t *testing.T) {
	event := &ScheduleEvent{
		StartDate: day(2024, 3, 4),
		EndDate:   day(2024, 3, 4),
		StartTime: "08:00:00",
		EndTime:   "16:00:00",
	}
	assert.Equal(t, 8.0, event.DurationHours())

	// night shift crossing midnight on a single-day event
	event.StartTime = "22:00:00"
	event.EndTime = "06:00:00"
	assert.Equal(t, 8.0, event.DurationHours())

	// multi-day range counts calendar time between the endpoints
	event.StartTime = "08:00:00"
	event.EndTime = "16:00:00"
	event.EndDate = day(2024, 3, 5)
	assert.Equal(t, 32.0, event.DurationHours())

	// rounding to two decimals
	event.EndDate = day(2024, 3, 4)
	event.StartTime = "09:00:00"
	event.EndTime = "09:10:00"
	assert.Equal(t, 0.17, event.DurationHours())
}

func TestScheduleEventDurationHoursAllDay(t *testing.T) {
	event := &ScheduleEvent{
		StartDate: day(2024, 3, 4),
		EndDate:   day(2024, 3, 8),
		AllDay:    true,
	}
	assert.Equal(t, 8.0, event.DurationHours())
}

func TestScheduleEventDurationHoursUnparseableTimes(t *testing.T) {
	event := &ScheduleEvent{
		StartDate: day(2024, 3, 4),
		EndDate:   day(2024, 3, 4),
	}
	assert.Equal(t, 0.0, event.DurationHours())
}

func TestEventStatusIsActive(t *testing.T) {
	assert.True(t, EventStatusScheduled.IsActive())
	assert.True(t, EventStatusConfirmed.IsActive())
	assert.False(t, EventStatusCancelled.IsActive())
	assert.False(t, EventStatusCompleted.IsActive())
}

func TestShiftDurationHours(t *testing.T) {
	shift := &Shift{StartTime: "08:00:00", EndTime: "16:00:00"}
	hours, err := shift.DurationHours()
	assert.NoError(t, err)
	assert.Equal(t, 8.0, hours)

	// wrapping shift
	shift = &Shift{StartTime: "16:00:00", EndTime: "00:00:00"}
	hours, err = shift.DurationHours()
	assert.NoError(t, err)
	assert.Equal(t, 8.0, hours)

	shift = &Shift{StartTime: "bad", EndTime: "16:00:00"}
	_, err = shift.DurationHours()
	assert.Error(t, err)
}
