package domain

import (
	"time"
)

// UserAccount is the root economy document for one player. Created on first
// authentication, mutated by every economy operation, never deleted.
type UserAccount struct {
	UID      string `gorm:"primaryKey;size:128"`
	Username string `gorm:"size:32;uniqueIndex"`

	Currency        float64 `gorm:"default:0"`
	PremiumCurrency int64   `gorm:"default:0"`

	EnergyCurrent        int   `gorm:"default:5"`
	EnergyMax            int   `gorm:"default:5"`
	EnergyRegenPeriodSec int64 `gorm:"default:600"`
	EnergyUpdatedAt      time.Time

	// Merged stat vector (base + equipped items + active consumables),
	// serialized as one JSON blob. Reads are O(1), recomputed in full on
	// every equipment change.
	StatsJSON string `gorm:"type:text;default:'{}'"`

	HasElitePass       bool `gorm:"default:false"`
	ElitePassExpiresAt *time.Time

	MaxScore int64 `gorm:"default:0"`
	Rank     int64 `gorm:"default:0"`

	SessionsPlayed           int64 `gorm:"default:0"`
	CumulativeCurrencyEarned int64 `gorm:"default:0"`
	MaxCombo                 int   `gorm:"default:0"`
	TotalPlaytimeSec         int64 `gorm:"default:0"`
	PowerUpsCollected        int64 `gorm:"default:0"`
	ReferralCount            int   `gorm:"default:0"`
	ItemsPurchasedCount      int   `gorm:"default:0"`

	ReferralCode  string `gorm:"size:36;uniqueIndex"`
	ReferredByUID string `gorm:"size:128;index"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Privileged reports whether the user currently holds an active elite pass.
// An expired pass that has not been swept yet does not count.
func (u *UserAccount) Privileged(now time.Time) bool {
	if !u.HasElitePass {
		return false
	}
	if u.ElitePassExpiresAt != nil && !u.ElitePassExpiresAt.After(now) {
		return false
	}
	return true
}
