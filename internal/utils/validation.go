package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/cloudrad-dev/schedule-manager/backend/internal/domain"
)

const clockLayout = "15:04:05"

// ValidateClock checks a time-of-day string in HH:MM:SS form.
func ValidateClock(clock string) error {
	if _, err := time.Parse(clockLayout, clock); err != nil {
		return fmt.Errorf("%q is not a valid time of day, expected HH:MM:SS", clock)
	}
	return nil
}

// ValidateShiftTimes checks a shift's start and end times. An end time at or
// before the start time is allowed and means the shift wraps past midnight,
// so a shift can never be longer than 24 hours.
func ValidateShiftTimes(startTime, endTime string) error {
	if err := ValidateClock(startTime); err != nil {
		return err
	}
	if err := ValidateClock(endTime); err != nil {
		return err
	}
	return nil
}

// ValidateTemplateDays checks that every day index is a weekday (0 = Monday
// through 6 = Sunday) and that no day appears twice.
func ValidateTemplateDays(days []domain.TemplateDay) error {
	if len(days) == 0 {
		return errors.New("a template needs at least one day")
	}

	seen := make(map[int32]bool, len(days))
	for _, day := range days {
		if day.DayOfWeek < 0 || day.DayOfWeek > 6 {
			return fmt.Errorf("day of week %d is out of range, expected 0 (Monday) to 6 (Sunday)", day.DayOfWeek)
		}
		if seen[day.DayOfWeek] {
			return fmt.Errorf("day of week %d appears more than once", day.DayOfWeek)
		}
		seen[day.DayOfWeek] = true
	}

	return nil
}
