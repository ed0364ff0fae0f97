package seed

import (
	"log/slog"

	"github.com/cloudrad-dev/schedule-manager/backend/internal/domain"
	"github.com/cloudrad-dev/schedule-manager/backend/internal/repository"
)

var demoShifts = []domain.Shift{
	{
		Name:        "Morning",
		ShiftType:   domain.ShiftTypeMorning,
		StartTime:   "08:00:00",
		EndTime:     "16:00:00",
		Color:       "#4CAF50",
		Description: "Standard day shift",
	},
	{
		Name:        "Evening",
		ShiftType:   domain.ShiftTypeEvening,
		StartTime:   "16:00:00",
		EndTime:     "00:00:00",
		Color:       "#FF9800",
		Description: "Evening coverage until midnight",
	},
	{
		Name:        "Night",
		ShiftType:   domain.ShiftTypeNight,
		StartTime:   "00:00:00",
		EndTime:     "08:00:00",
		Color:       "#3F51B5",
		Description: "Overnight coverage",
	},
	{
		Name:        "On-call",
		ShiftType:   domain.ShiftTypeOnCall,
		StartTime:   "18:00:00",
		EndTime:     "08:00:00",
		Color:       "#9C27B0",
		Description: "On-call from evening to next morning",
	},
}

// SeedDemoShifts inserts the standard shift catalog and returns it with
// database ids filled in.
func SeedDemoShifts(r *repository.Repository) []*domain.Shift {
	created := make([]*domain.Shift, 0, len(demoShifts))

	for i := range demoShifts {
		shift := demoShifts[i]
		if err := r.CreateShift(&shift); err != nil {
			slog.Error("failed to insert shift", "name", shift.Name, "error", err)
			continue
		}
		created = append(created, &shift)
	}

	slog.Info("demo shifts inserted", "count", len(created))
	return created
}

// SeedDemoTemplate builds a Monday-to-Friday radiology week: morning cover on
// weekdays, evening cover on Monday, Wednesday and Friday.
func SeedDemoTemplate(r *repository.Repository, shifts []*domain.Shift) {
	var morning, evening *domain.Shift
	for _, shift := range shifts {
		switch shift.ShiftType {
		case domain.ShiftTypeMorning:
			morning = shift
		case domain.ShiftTypeEvening:
			evening = shift
		}
	}

	if morning == nil || evening == nil {
		slog.Error("demo template needs morning and evening shifts")
		return
	}

	template := &domain.ScheduleTemplate{
		Name:        "Radiology standard week",
		Description: "Weekday morning coverage with evening cover on Monday, Wednesday and Friday",
		Department:  "Radiology",
		IsActive:    true,
		Days: []domain.TemplateDay{
			{DayOfWeek: 0, ShiftID: &morning.ID},
			{DayOfWeek: 1, ShiftID: &morning.ID},
			{DayOfWeek: 2, ShiftID: &morning.ID, Notes: "mid-week staff meeting at 12:00"},
			{DayOfWeek: 3, ShiftID: &morning.ID},
			{DayOfWeek: 4, ShiftID: &morning.ID},
			{DayOfWeek: 5, ShiftID: &evening.ID},
		},
	}

	if err := r.CreateScheduleTemplate(template); err != nil {
		slog.Error("failed to insert demo template", "error", err)
		return
	}

	slog.Info("demo template inserted", "id", template.ID)
}
