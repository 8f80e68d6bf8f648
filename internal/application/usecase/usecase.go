// Package usecase orchestrates every public economy operation as one strict
// read-phase-then-write-phase transaction over the store, composing the lazy
// accrual math, the idempotency guard and the stat aggregation engine.
package usecase

import (
	"errors"
	"time"

	"economy-service/internal/domain"
	"economy-service/internal/infrastructure/cache"
	"economy-service/internal/infrastructure/repository"
	"economy-service/internal/stats"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
)

type EconomyUseCase struct {
	store *repository.Store
	lb    *cache.LeaderboardCache

	// Injected clock; tests pin it.
	now func() time.Time
}

func NewEconomyUseCase(store *repository.Store, lb *cache.LeaderboardCache) *EconomyUseCase {
	return &EconomyUseCase{
		store: store,
		lb:    lb,
		now:   time.Now,
	}
}

func (uc *EconomyUseCase) nowUTC() time.Time {
	return uc.now().UTC()
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

var (
	errUserMissing   = status.Error(codes.FailedPrecondition, "User account is not initialized")
	errConfigMissing = status.Error(codes.FailedPrecondition, "Economy config is missing")
)

func millisOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// recomputeStatsBlob rebuilds the merged stat vector from the full equipped
// set plus the given unexpired consumables. Always a full recompute; partial
// updates drift.
func recomputeStatsBlob(tx *repository.Tx, loadout *domain.Loadout, consumables []domain.ActiveConsumable, now time.Time) (string, error) {
	ids := loadout.Items()
	for _, c := range consumables {
		if c.ExpiresAt.After(now) {
			ids = append(ids, c.ItemID)
		}
	}

	defs, err := tx.Items(ids)
	if err != nil {
		return "", err
	}
	byID := make(map[string]domain.ItemDefinition, len(defs))
	for _, d := range defs {
		byID[d.ItemID] = d
	}

	deltas := make([]stats.Vector, 0, len(ids))
	for _, id := range ids {
		if d, ok := byID[id]; ok {
			deltas = append(deltas, stats.Decode(d.StatDeltasJSON))
		}
	}
	return stats.Encode(stats.Merge(stats.DefaultBase(), deltas...)), nil
}
