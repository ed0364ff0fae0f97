package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/cloudrad-dev/schedule-manager/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	morningShift = &domain.Shift{
		ID:        10,
		Name:      "Morning",
		ShiftType: domain.ShiftTypeMorning,
		StartTime: "08:00:00",
		EndTime:   "16:00:00",
		Color:     "#4CAF50",
	}
	eveningShift = &domain.Shift{
		ID:        11,
		Name:      "Evening",
		ShiftType: domain.ShiftTypeEvening,
		StartTime: "16:00:00",
		EndTime:   "00:00:00",
	}
)

func testUsers() []*domain.User {
	return []*domain.User{
		{ID: 2, FullName: "Jane Doe", Email: "jane@example.com", Department: "Radiology"},
		{ID: 3, FullName: "John Roe", Email: "john@example.com", Department: "Radiology"},
	}
}

func weekdayTemplate(days ...domain.TemplateDay) *domain.ScheduleTemplate {
	return &domain.ScheduleTemplate{
		ID:         1,
		Name:       "Radiology standard week",
		Department: "Radiology",
		IsActive:   true,
		Days:       days,
	}
}

func shiftsByID(shifts ...*domain.Shift) map[int64]*domain.Shift {
	m := make(map[int64]*domain.Shift, len(shifts))
	for _, shift := range shifts {
		m[shift.ID] = shift
	}
	return m
}

func TestApplyTemplateCreatesEventsPerUserAndDay(t *testing.T) {
	s := New(newMemStore(), StrictnessDate)
	ctx := context.Background()

	template := weekdayTemplate(
		domain.TemplateDay{DayOfWeek: 0, ShiftID: &morningShift.ID},
		domain.TemplateDay{DayOfWeek: 2, ShiftID: &eveningShift.ID},
	)

	// 2024-03-04 is a Monday
	result, err := s.ApplyTemplate(ctx, ApplyTemplateCommand{
		Template:  template,
		Shifts:    shiftsByID(morningShift, eveningShift),
		Users:     testUsers(),
		StartDate: date(2024, 3, 4),
	}, admin)
	require.NoError(t, err)

	assert.Equal(t, 4, result.CreatedCount)
	assert.Equal(t, 0, result.SkippedCount)

	dates := make(map[string]int)
	for _, event := range result.CreatedEvents {
		dates[event.StartDate.Format("2006-01-02")]++
		assert.Equal(t, domain.EventTypeShift, event.EventType)
		assert.Equal(t, domain.EventStatusScheduled, event.Status)
		assert.Equal(t, "Radiology", event.Department)
	}
	assert.Equal(t, 2, dates["2024-03-04"])
	assert.Equal(t, 2, dates["2024-03-06"])
}

func TestApplyTemplateMidweekAnchorRollsForward(t *testing.T) {
	s := New(newMemStore(), StrictnessDate)
	ctx := context.Background()

	template := weekdayTemplate(
		domain.TemplateDay{DayOfWeek: 0, ShiftID: &morningShift.ID},
		domain.TemplateDay{DayOfWeek: 2, ShiftID: &morningShift.ID},
	)

	// 2024-03-06 is a Wednesday: Monday rolls to the next week, Wednesday
	// lands on the anchor itself
	result, err := s.ApplyTemplate(ctx, ApplyTemplateCommand{
		Template:  template,
		Shifts:    shiftsByID(morningShift),
		Users:     testUsers()[:1],
		StartDate: date(2024, 3, 6),
	}, admin)
	require.NoError(t, err)
	require.Equal(t, 2, result.CreatedCount)

	dates := make([]string, 0, 2)
	for _, event := range result.CreatedEvents {
		dates = append(dates, event.StartDate.Format("2006-01-02"))
	}
	assert.Contains(t, dates, "2024-03-11")
	assert.Contains(t, dates, "2024-03-06")
}

func TestApplyTemplateSkipsConflictedUsers(t *testing.T) {
	s := New(newMemStore(), StrictnessDate)
	ctx := context.Background()

	// John already has a commitment on the target Monday
	_, err := s.CreateEvent(ctx, newCommand(3, date(2024, 3, 4), date(2024, 3, 4)), admin)
	require.NoError(t, err)

	template := weekdayTemplate(domain.TemplateDay{DayOfWeek: 0, ShiftID: &morningShift.ID})

	result, err := s.ApplyTemplate(ctx, ApplyTemplateCommand{
		Template:  template,
		Shifts:    shiftsByID(morningShift),
		Users:     testUsers(),
		StartDate: date(2024, 3, 4),
	}, admin)
	require.NoError(t, err)

	assert.Equal(t, 1, result.CreatedCount)
	require.Equal(t, 1, result.SkippedCount)
	skipped := result.SkippedUsers[0]
	assert.Equal(t, int64(3), skipped.UserID)
	assert.Equal(t, "John Roe", skipped.UserName)
	assert.Equal(t, "2024-03-04", skipped.Date)
	assert.Equal(t, "Schedule conflict", skipped.Reason)
}

func TestApplyTemplateSkipsDaysWithoutShift(t *testing.T) {
	s := New(newMemStore(), StrictnessDate)
	ctx := context.Background()

	template := weekdayTemplate(
		domain.TemplateDay{DayOfWeek: 0, ShiftID: &morningShift.ID},
		domain.TemplateDay{DayOfWeek: 1, Notes: "no coverage"},
	)

	result, err := s.ApplyTemplate(ctx, ApplyTemplateCommand{
		Template:  template,
		Shifts:    shiftsByID(morningShift),
		Users:     testUsers()[:1],
		StartDate: date(2024, 3, 4),
	}, admin)
	require.NoError(t, err)
	assert.Equal(t, 1, result.CreatedCount)
}

func TestApplyTemplateUnresolvedShiftIsFatal(t *testing.T) {
	s := New(newMemStore(), StrictnessDate)
	ctx := context.Background()

	template := weekdayTemplate(domain.TemplateDay{DayOfWeek: 0, ShiftID: &eveningShift.ID})

	_, err := s.ApplyTemplate(ctx, ApplyTemplateCommand{
		Template:  template,
		Shifts:    shiftsByID(morningShift),
		Users:     testUsers(),
		StartDate: date(2024, 3, 4),
	}, admin)
	assert.Error(t, err)
}

func TestApplyTemplateRequiresAdmin(t *testing.T) {
	s := New(newMemStore(), StrictnessDate)
	ctx := context.Background()

	template := weekdayTemplate(domain.TemplateDay{DayOfWeek: 0, ShiftID: &morningShift.ID})

	_, err := s.ApplyTemplate(ctx, ApplyTemplateCommand{
		Template:  template,
		Shifts:    shiftsByID(morningShift),
		Users:     testUsers(),
		StartDate: date(2024, 3, 4),
	}, staff)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestApplyTemplateRequiresUsers(t *testing.T) {
	s := New(newMemStore(), StrictnessDate)
	ctx := context.Background()

	template := weekdayTemplate(domain.TemplateDay{DayOfWeek: 0, ShiftID: &morningShift.ID})

	_, err := s.ApplyTemplate(ctx, ApplyTemplateCommand{
		Template:  template,
		Shifts:    shiftsByID(morningShift),
		Users:     nil,
		StartDate: date(2024, 3, 4),
	}, admin)
	assert.Error(t, err)
}

func TestBulkCreateSkipsBusyUsers(t *testing.T) {
	s := New(newMemStore(), StrictnessDate)
	ctx := context.Background()

	// John is busy in the middle of the span
	_, err := s.CreateEvent(ctx, newCommand(3, date(2024, 3, 5), date(2024, 3, 5)), admin)
	require.NoError(t, err)

	result, err := s.BulkCreate(ctx, BulkCreateCommand{
		Users:     testUsers(),
		Shift:     morningShift,
		StartDate: date(2024, 3, 4),
		EndDate:   date(2024, 3, 8),
	}, admin)
	require.NoError(t, err)

	assert.Equal(t, 1, result.CreatedCount)
	require.Equal(t, 1, result.SkippedCount)
	assert.Equal(t, int64(3), result.SkippedUsers[0].UserID)

	created := result.CreatedEvents[0]
	assert.Equal(t, int64(2), created.UserID)
	assert.Equal(t, "Morning - Jane Doe", created.Title)
	assert.True(t, created.StartDate.Equal(date(2024, 3, 4)))
	assert.True(t, created.EndDate.Equal(date(2024, 3, 8)))
}

func TestBulkCreateInvalidRange(t *testing.T) {
	s := New(newMemStore(), StrictnessDate)
	ctx := context.Background()

	_, err := s.BulkCreate(ctx, BulkCreateCommand{
		Users:     testUsers(),
		Shift:     morningShift,
		StartDate: date(2024, 3, 8),
		EndDate:   date(2024, 3, 4),
	}, admin)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestBulkCreateRequiresShift(t *testing.T) {
	s := New(newMemStore(), StrictnessDate)
	ctx := context.Background()

	_, err := s.BulkCreate(ctx, BulkCreateCommand{
		Users:     testUsers(),
		StartDate: date(2024, 3, 4),
		EndDate:   date(2024, 3, 8),
	}, admin)
	assert.Error(t, err)
}

func TestNextOccurrence(t *testing.T) {
	monday := date(2024, 3, 4)
	wednesday := date(2024, 3, 6)

	// anchor on the weekday itself stays put
	assert.True(t, nextOccurrence(monday, 0).Equal(monday))
	// Monday from a Wednesday anchor is next week's Monday
	assert.True(t, nextOccurrence(wednesday, 0).Equal(date(2024, 3, 11)))
	// Sunday is index 6
	assert.True(t, nextOccurrence(monday, 6).Equal(date(2024, 3, 10)))

	var d time.Weekday = nextOccurrence(wednesday, 4).Weekday()
	assert.Equal(t, time.Friday, d)
}
