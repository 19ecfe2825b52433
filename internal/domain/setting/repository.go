package setting

import (
	"context"
	"errors"
)

// KeyMonthlyWorkingDays is the monthly working-days display target.
const KeyMonthlyWorkingDays = "monthly_working_days"

var ErrSettingNotFound = errors.New("setting not found")

// SettingRepository reads application settings stored as key/value rows.
type SettingRepository interface {
	// GetInt returns ErrSettingNotFound when the key is missing.
	GetInt(ctx context.Context, key string) (int, error)
}
