package domain

import "time"

// StreakState counts login days, 1:1 with UserAccount. LastLoginDate is a
// UTC calendar-date string ("2006-01-02") and advances at most once per day.
type StreakState struct {
	UID string `gorm:"primaryKey;size:128"`

	TotalDays     int    `gorm:"default:0"`
	UnclaimedDays int    `gorm:"default:0"`
	LastLoginDate string `gorm:"size:10"`
	LastClaimAt   *time.Time

	UpdatedAt time.Time
}
