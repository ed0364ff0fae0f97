package domain

import (
	"time"
)

// TemplateDay maps one day of the week (0=Monday .. 6=Sunday) to an optional
// shift. A template holds at most one entry per weekday.
type TemplateDay struct {
	ID        int64  `json:"id"`
	DayOfWeek int32  `json:"dayOfWeek"`
	ShiftID   *int64 `json:"shiftID"`
	Notes     string `json:"notes"`
}

// ScheduleTemplate is a named weekly pattern that the template application
// engine expands into dated schedule events.
type ScheduleTemplate struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Department  string        `json:"department"`
	IsActive    bool          `json:"isActive"`
	Days        []TemplateDay `json:"days"`
	CreatedAt   time.Time     `json:"createdAt"`
	Version     int32         `json:"-"`
}
