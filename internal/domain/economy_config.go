package domain

import "time"

// EconomyConfig is the single global rates row, hot-read on nearly every
// operation and never mutated by the economy core.
type EconomyConfig struct {
	ID int `gorm:"primaryKey"`

	EnergyMax            int   `gorm:"default:5"`
	EnergyRegenPeriodSec int64 `gorm:"default:600"`
	AdEnergyRefill       int   `gorm:"default:1"`

	AutopilotRatePerHour      float64 `gorm:"default:10"`
	AutopilotEliteRatePerHour float64 `gorm:"default:25"`
	AutopilotCapHours         float64 `gorm:"default:12"`

	StreakRewardPerDay float64 `gorm:"default:50"`
	ReferralBonus      float64 `gorm:"default:100"`

	ElitePassPricePremium int64 `gorm:"default:100"`
	ElitePassDurationDays int   `gorm:"default:30"`

	UpdatedAt time.Time
}

// ConfigSnapshot is the read-only copy of EconomyConfig handed into each
// transaction, so the core never reads global mutable state directly.
type ConfigSnapshot struct {
	EnergyMax            int
	EnergyRegenPeriodSec int64
	AdEnergyRefill       int

	AutopilotRatePerHour      float64
	AutopilotEliteRatePerHour float64
	AutopilotCapHours         float64

	StreakRewardPerDay float64
	ReferralBonus      float64

	ElitePassPricePremium int64
	ElitePassDurationDays int
}

func (c *EconomyConfig) Snapshot() ConfigSnapshot {
	return ConfigSnapshot{
		EnergyMax:                 c.EnergyMax,
		EnergyRegenPeriodSec:      c.EnergyRegenPeriodSec,
		AdEnergyRefill:            c.AdEnergyRefill,
		AutopilotRatePerHour:      c.AutopilotRatePerHour,
		AutopilotEliteRatePerHour: c.AutopilotEliteRatePerHour,
		AutopilotCapHours:         c.AutopilotCapHours,
		StreakRewardPerDay:        c.StreakRewardPerDay,
		ReferralBonus:             c.ReferralBonus,
		ElitePassPricePremium:     c.ElitePassPricePremium,
		ElitePassDurationDays:     c.ElitePassDurationDays,
	}
}

// RateFor returns the hourly autopilot rate for the user's tier.
func (s ConfigSnapshot) RateFor(privileged bool) float64 {
	if privileged {
		return s.AutopilotEliteRatePerHour
	}
	return s.AutopilotRatePerHour
}
