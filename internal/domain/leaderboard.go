package domain

import "time"

// LeaderboardEntry is the denormalized per-user leaderboard row, rewritten
// transactionally whenever the user's best score changes.
type LeaderboardEntry struct {
	UID      string `gorm:"primaryKey;size:128"`
	Username string `gorm:"size:32"`

	MaxScore int64 `gorm:"index:idx_leaderboard_score,sort:desc"`
	Rank     int64

	UpdatedAt time.Time
}
