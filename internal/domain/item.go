package domain

// Purchase methods accepted by the item purchase operation.
const (
	PurchaseMethodGet     = "GET"
	PurchaseMethodAd      = "AD"
	PurchaseMethodPremium = "PREMIUM"
)

// ItemDefinition is one entry of the shared item catalog. Read-only from the
// economy core's perspective.
type ItemDefinition struct {
	ItemID string `gorm:"primaryKey;size:64"`
	Name   string `gorm:"size:64"`

	PriceGet     float64 `gorm:"default:0"`
	PricePremium int64   `gorm:"default:0"`

	AllowGet     bool `gorm:"default:true"`
	AllowAd      bool `gorm:"default:false"`
	AllowPremium bool `gorm:"default:false"`

	// Minimum referral count required to unlock the item. Zero means open.
	RequiredReferrals int `gorm:"default:0"`

	Consumable  bool  `gorm:"default:false"`
	DurationSec int64 `gorm:"default:0"`

	// Per-item stat delta vector, serialized JSON object of stat -> delta.
	StatDeltasJSON string `gorm:"type:text;default:'{}'"`
}
