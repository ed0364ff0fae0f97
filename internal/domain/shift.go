package domain

import (
	"time"
)

type ShiftType string

const (
	ShiftTypeMorning ShiftType = "morning"
	ShiftTypeEvening ShiftType = "evening"
	ShiftTypeNight   ShiftType = "night"
	ShiftTypeOnCall  ShiftType = "on_call"
	ShiftTypeSplit   ShiftType = "split"
	ShiftTypeCustom  ShiftType = "custom"
)

// Shift is a named time-of-day template, e.g. "Morning Shift" 08:00-16:00.
// Times are wall-clock "15:04:05" strings; a shift whose end is at or before
// its start wraps past midnight.
type Shift struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	ShiftType   ShiftType `json:"shiftType"`
	StartTime   string    `json:"startTime"`
	EndTime     string    `json:"endTime"`
	Color       string    `json:"color"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	Version     int32     `json:"-"`
}

// DurationHours returns the shift length in hours, treating an end time at
// or before the start time as crossing midnight.
func (s *Shift) DurationHours() (float64, error) {
	start, err := time.Parse("15:04:05", s.StartTime)
	if err != nil {
		return 0, err
	}
	end, err := time.Parse("15:04:05", s.EndTime)
	if err != nil {
		return 0, err
	}

	if !end.After(start) {
		end = end.Add(24 * time.Hour)
	}

	return end.Sub(start).Hours(), nil
}
