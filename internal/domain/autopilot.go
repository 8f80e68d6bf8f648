package domain

import "time"

// AutopilotState holds the passively-accruing wallet, 1:1 with UserAccount.
// Wallet is monotonically non-decreasing between claims; for non-privileged
// users it never exceeds rate*capHours (2-decimal truncated).
type AutopilotState struct {
	UID string `gorm:"primaryKey;size:128"`

	Wallet float64 `gorm:"default:0"`
	IsOn   bool    `gorm:"default:false"`

	// Start of the current accrual window. Nil until activation (set lazily
	// to the last claim time on first observation for privileged users).
	ActivationDate *time.Time

	LastClaimedAt time.Time
	TotalEarned   float64 `gorm:"default:0"`

	UpdatedAt time.Time
}

// WindowStart is the point accrual is measured from: the later of the last
// claim and the activation date.
func (a *AutopilotState) WindowStart() time.Time {
	if a.ActivationDate != nil && a.ActivationDate.After(a.LastClaimedAt) {
		return *a.ActivationDate
	}
	return a.LastClaimedAt
}
