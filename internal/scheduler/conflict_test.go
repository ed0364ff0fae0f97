package scheduler

import (
	"testing"

	"github.com/cloudrad-dev/schedule-manager/backend/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestDatesOverlap(t *testing.T) {
	a1, b1 := date(2024, 3, 4), date(2024, 3, 6)

	assert.True(t, datesOverlap(a1, b1, date(2024, 3, 6), date(2024, 3, 8)), "shared boundary day overlaps")
	assert.True(t, datesOverlap(a1, b1, date(2024, 3, 1), date(2024, 3, 4)))
	assert.True(t, datesOverlap(a1, b1, date(2024, 3, 5), date(2024, 3, 5)), "single day inside the range")
	assert.True(t, datesOverlap(a1, b1, date(2024, 3, 1), date(2024, 3, 10)), "containing range")
	assert.False(t, datesOverlap(a1, b1, date(2024, 3, 7), date(2024, 3, 8)))
	assert.False(t, datesOverlap(a1, b1, date(2024, 3, 1), date(2024, 3, 3)))

	// two single-day events on the same date
	d := date(2024, 3, 4)
	assert.True(t, datesOverlap(d, d, d, d))
}

func TestClocksOverlap(t *testing.T) {
	assert.True(t, clocksOverlap("08:00:00", "16:00:00", "15:00:00", "17:00:00"))
	assert.False(t, clocksOverlap("08:00:00", "16:00:00", "16:00:00", "23:00:00"), "touching endpoints do not overlap")
	assert.False(t, clocksOverlap("08:00:00", "12:00:00", "13:00:00", "17:00:00"))

	// 22:00-06:00 wraps past midnight and covers the evening
	assert.True(t, clocksOverlap("22:00:00", "06:00:00", "23:00:00", "23:30:00"))

	// unparseable times fall back to conflicting
	assert.True(t, clocksOverlap("not-a-time", "16:00:00", "08:00:00", "09:00:00"))
}

func TestConflictsWithDateStrictness(t *testing.T) {
	event := &domain.ScheduleEvent{
		StartDate: date(2024, 3, 4),
		EndDate:   date(2024, 3, 4),
		StartTime: "08:00:00",
		EndTime:   "12:00:00",
		Status:    domain.EventStatusScheduled,
	}

	// disjoint times on the same day still conflict at date granularity
	candidate := span{
		startDate: date(2024, 3, 4),
		endDate:   date(2024, 3, 4),
		startTime: "13:00:00",
		endTime:   "17:00:00",
	}
	assert.True(t, conflictsWith(event, candidate, StrictnessDate))
	assert.False(t, conflictsWith(event, candidate, StrictnessDateTime))

	candidate.startTime = "11:00:00"
	assert.True(t, conflictsWith(event, candidate, StrictnessDateTime))
}

func TestConflictsWithDateTimeStrictnessAllDay(t *testing.T) {
	event := &domain.ScheduleEvent{
		StartDate: date(2024, 3, 4),
		EndDate:   date(2024, 3, 4),
		AllDay:    true,
		Status:    domain.EventStatusScheduled,
	}

	candidate := span{
		startDate: date(2024, 3, 4),
		endDate:   date(2024, 3, 4),
		startTime: "13:00:00",
		endTime:   "17:00:00",
	}
	assert.True(t, conflictsWith(event, candidate, StrictnessDateTime), "all-day events occupy the whole day")
}

func TestConflictsWithDateTimeStrictnessMultiDay(t *testing.T) {
	event := &domain.ScheduleEvent{
		StartDate: date(2024, 3, 4),
		EndDate:   date(2024, 3, 6),
		StartTime: "08:00:00",
		EndTime:   "16:00:00",
		Status:    domain.EventStatusScheduled,
	}

	candidate := span{
		startDate: date(2024, 3, 6),
		endDate:   date(2024, 3, 6),
		startTime: "20:00:00",
		endTime:   "22:00:00",
	}
	assert.True(t, conflictsWith(event, candidate, StrictnessDateTime), "multi-day spans are not separated by time of day")
}

func TestFilterConflicts(t *testing.T) {
	events := []*domain.ScheduleEvent{
		{ID: 1, StartDate: date(2024, 3, 4), EndDate: date(2024, 3, 4), Status: domain.EventStatusScheduled},
		{ID: 2, StartDate: date(2024, 3, 4), EndDate: date(2024, 3, 4), Status: domain.EventStatusCancelled},
		{ID: 3, StartDate: date(2024, 3, 4), EndDate: date(2024, 3, 4), Status: domain.EventStatusCompleted},
		{ID: 4, StartDate: date(2024, 3, 5), EndDate: date(2024, 3, 5), Status: domain.EventStatusConfirmed},
	}

	candidate := span{startDate: date(2024, 3, 4), endDate: date(2024, 3, 5), allDay: true}

	conflicts := filterConflicts(events, candidate, StrictnessDate, 0)
	ids := make([]int64, 0, len(conflicts))
	for _, c := range conflicts {
		ids = append(ids, c.ID)
	}
	assert.ElementsMatch(t, []int64{1, 4}, ids, "cancelled and completed events never block")

	conflicts = filterConflicts(events, candidate, StrictnessDate, 1)
	assert.Len(t, conflicts, 1)
	assert.Equal(t, int64(4), conflicts[0].ID)
}

func TestParseStrictness(t *testing.T) {
	s, err := ParseStrictness("date")
	assert.NoError(t, err)
	assert.Equal(t, StrictnessDate, s)

	s, err = ParseStrictness("date_time")
	assert.NoError(t, err)
	assert.Equal(t, StrictnessDateTime, s)

	_, err = ParseStrictness("hourly")
	assert.Error(t, err)
}
