package utils

import (
	"testing"

	"github.com/cloudrad-dev/schedule-manager/backend/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestValidateClock(t *testing.T) {
	assert.NoError(t, ValidateClock("08:00:00"))
	assert.NoError(t, ValidateClock("23:59:59"))
	assert.Error(t, ValidateClock("8:00"))
	assert.Error(t, ValidateClock("25:00:00"))
	assert.Error(t, ValidateClock(""))
}

func TestValidateShiftTimes(t *testing.T) {
	assert.NoError(t, ValidateShiftTimes("08:00:00", "16:00:00"))
	// wrapping past midnight is allowed
	assert.NoError(t, ValidateShiftTimes("22:00:00", "06:00:00"))
	assert.Error(t, ValidateShiftTimes("08:00", "16:00:00"))
	assert.Error(t, ValidateShiftTimes("08:00:00", "sixteen"))
}

func TestValidateTemplateDays(t *testing.T) {
	shiftID := int64(1)

	assert.NoError(t, ValidateTemplateDays([]domain.TemplateDay{
		{DayOfWeek: 0, ShiftID: &shiftID},
		{DayOfWeek: 6},
	}))

	assert.Error(t, ValidateTemplateDays(nil), "empty day set")

	assert.Error(t, ValidateTemplateDays([]domain.TemplateDay{
		{DayOfWeek: 7, ShiftID: &shiftID},
	}), "out of range day")

	assert.Error(t, ValidateTemplateDays([]domain.TemplateDay{
		{DayOfWeek: 3, ShiftID: &shiftID},
		{DayOfWeek: 3},
	}), "duplicate day")
}

func TestGenerateRandomOTP(t *testing.T) {
	otp := GenerateRandomOTP()
	assert.Len(t, otp, 6)
}

func TestGenerateRandomPassword(t *testing.T) {
	password := GenerateRandomPassword(12)
	assert.Len(t, password, 12)
}

func TestGenerateRandomUser(t *testing.T) {
	user, err := GenerateRandomUser("secret", "cloudrad.example.com")
	assert.NoError(t, err)
	assert.NotEmpty(t, user.Username)
	assert.NotEmpty(t, user.FullName)
	assert.Contains(t, user.Email, "@cloudrad.example.com")
	assert.NotEmpty(t, user.Department)
}
