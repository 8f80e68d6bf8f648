package jobs

import (
	"context"
	"log"
	"time"

	"economy-service/internal/infrastructure/repository"
)

// Sweeper runs the periodic housekeeping passes that the lazy settlement
// path cannot cover: accounts that never come back online.
type Sweeper struct {
	store    *repository.Store
	interval time.Duration
}

func NewSweeper(store *repository.Store, interval time.Duration) *Sweeper {
	return &Sweeper{store: store, interval: interval}
}

// Run blocks until ctx is cancelled, sweeping once per interval.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	now := time.Now().UTC()

	if n, err := s.store.ExpireElitePasses(ctx, now); err != nil {
		log.Printf("sweeper: elite pass expiry failed: %v", err)
	} else if n > 0 {
		log.Printf("sweeper: lapsed %d elite passes", n)
	}

	// Keep rows around for a grace day so a settlement racing the sweep
	// still sees its own expiry set.
	cutoff := now.Add(-24 * time.Hour)
	if n, err := s.store.PurgeExpiredConsumables(ctx, cutoff); err != nil {
		log.Printf("sweeper: consumable purge failed: %v", err)
	} else if n > 0 {
		log.Printf("sweeper: purged %d expired consumables", n)
	}
}
