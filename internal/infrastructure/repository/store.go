package repository

import (
	"context"
	"time"

	"economy-service/internal/domain"

	"gorm.io/gorm"
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Atomic runs fn as one read-all-then-write-all transaction. The underlying
// runner retries transient serialization conflicts; business errors abort
// with no partial writes.
func (s *Store) Atomic(ctx context.Context, fn func(tx *Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(g *gorm.DB) error {
		tx := &Tx{db: g}
		if err := fn(tx); err != nil {
			return err
		}
		return tx.flush()
	})
}

// TopEntries reads the denormalized leaderboard page. Plain read, no
// transaction needed.
func (s *Store) TopEntries(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	var entries []domain.LeaderboardEntry
	err := s.db.WithContext(ctx).
		Order("max_score desc").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (s *Store) Entry(ctx context.Context, uid string) (*domain.LeaderboardEntry, error) {
	var entry domain.LeaderboardEntry
	err := s.db.WithContext(ctx).Where("uid = ?", uid).First(&entry).Error
	return &entry, err
}

// ExpireElitePasses is the global housekeeping sweep for subscriptions of
// users who never open the app; the lazy path handles active users.
func (s *Store) ExpireElitePasses(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&domain.UserAccount{}).
		Where("has_elite_pass = ? AND elite_pass_expires_at IS NOT NULL AND elite_pass_expires_at <= ?", true, now).
		Update("has_elite_pass", false)
	return res.RowsAffected, res.Error
}

// PurgeExpiredConsumables removes consumable rows that expired before the
// cutoff. Stat blobs of the affected users are corrected lazily on their
// next settlement or equipment change.
func (s *Store) PurgeExpiredConsumables(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at <= ?", cutoff).
		Delete(&domain.ActiveConsumable{})
	return res.RowsAffected, res.Error
}

// SeedDefaults creates the global config row and a starter catalog when the
// tables are empty, so a fresh deploy is playable.
func (s *Store) SeedDefaults(ctx context.Context) error {
	db := s.db.WithContext(ctx)

	cfg := domain.EconomyConfig{ID: 1}
	if err := db.FirstOrCreate(&cfg, domain.EconomyConfig{ID: 1}).Error; err != nil {
		return err
	}

	var count int64
	if err := db.Model(&domain.ItemDefinition{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	items := []domain.ItemDefinition{
		{ItemID: "rocket_skates", Name: "Rocket Skates", PriceGet: 30, AllowGet: true, StatDeltasJSON: `{"speed": 0.5}`},
		{ItemID: "lucky_charm", Name: "Lucky Charm", PriceGet: 120, AllowGet: true, StatDeltasJSON: `{"luck": 2}`},
		{ItemID: "coin_magnet", Name: "Coin Magnet", PriceGet: 0, AllowAd: true, StatDeltasJSON: `{"coinBonus": 0.1}`},
		{ItemID: "golden_gloves", Name: "Golden Gloves", PricePremium: 40, AllowGet: false, AllowPremium: true, StatDeltasJSON: `{"power": 1}`},
		{ItemID: "mentor_badge", Name: "Mentor Badge", PriceGet: 200, AllowGet: true, RequiredReferrals: 3, StatDeltasJSON: `{"scoreBonus": 0.05}`},
		{ItemID: "double_score", Name: "Double Score", PriceGet: 60, AllowGet: true, AllowPremium: true, PricePremium: 10, Consumable: true, DurationSec: 3600, StatDeltasJSON: `{"scoreBonus": 1}`},
		{ItemID: "energy_drink", Name: "Energy Drink", PriceGet: 40, AllowGet: true, AllowAd: true, Consumable: true, DurationSec: 1800, StatDeltasJSON: `{"speed": 0.25}`},
	}
	return db.Create(&items).Error
}
