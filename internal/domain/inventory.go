package domain

import (
	"encoding/json"
	"time"
)

// MaxLoadoutSlots bounds the equipped set.
const MaxLoadoutSlots = 6

// InventoryItem is one owned (non-consumable) item per user. Immutable once
// owned; re-purchase of an owned item is rejected.
type InventoryItem struct {
	UID    string `gorm:"primaryKey;size:128"`
	ItemID string `gorm:"primaryKey;size:64"`

	Owned      bool `gorm:"default:true"`
	Equipped   bool `gorm:"default:false"`
	Quantity   int  `gorm:"default:1"`
	AcquiredAt time.Time
}

// ActiveConsumable is a time-limited effect per user and item. Repeated
// purchase while active extends ExpiresAt from the later of now and the
// previous expiry (stacking, not refreshing). Deleted by lazy cleanup once
// expired.
type ActiveConsumable struct {
	UID    string `gorm:"primaryKey;size:128"`
	ItemID string `gorm:"primaryKey;size:64"`

	Active          bool `gorm:"default:true"`
	ExpiresAt       time.Time
	LastActivatedAt time.Time
}

// Loadout is the single document holding the ordered equipped item ids.
type Loadout struct {
	UID string `gorm:"primaryKey;size:128"`

	ItemIDsJSON string `gorm:"type:text;default:'[]'"`

	UpdatedAt time.Time
}

func (l *Loadout) Items() []string {
	var ids []string
	if err := json.Unmarshal([]byte(l.ItemIDsJSON), &ids); err != nil {
		return nil
	}
	return ids
}

func (l *Loadout) SetItems(ids []string) {
	if ids == nil {
		ids = []string{}
	}
	raw, _ := json.Marshal(ids)
	l.ItemIDsJSON = string(raw)
}

func (l *Loadout) Contains(itemID string) bool {
	for _, id := range l.Items() {
		if id == itemID {
			return true
		}
	}
	return false
}
