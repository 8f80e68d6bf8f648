package domain

import "time"

// Idempotency scopes. One record per (scope, token); presence means the
// operation was already applied.
const (
	IdemScopeEnergySpend = "energy_spend"
	IdemScopeAdEnergy    = "ad_energy"
	IdemScopeAdPurchase  = "ad_purchase"
	IdemScopePurchase    = "purchase"
	IdemScopeSession     = "session"
)

// IdempotencyRecord is a write-once dedup marker committed atomically with
// the state mutation it guards.
type IdempotencyRecord struct {
	Scope string `gorm:"primaryKey;size:32"`
	Token string `gorm:"primaryKey;size:128"`

	UID string `gorm:"size:128;index"`

	// Serialized prior result, returned verbatim on retry where the
	// operation replays its response (purchase, session submit).
	ResultJSON string `gorm:"type:text"`

	CreatedAt time.Time
}
