package usecase

import (
	"context"
	"encoding/json"
	"log"
)

const leaderboardPageSize = 50

type LeaderboardRow struct {
	UID      string `json:"uid"`
	Username string `json:"username"`
	MaxScore int64  `json:"maxScore"`
	Rank     int64  `json:"rank"`
}

type LeaderboardResult struct {
	Entries []LeaderboardRow `json:"entries"`
	Me      *LeaderboardRow  `json:"me"`
}

// Leaderboard reads the denormalized top page (redis-cached) plus the
// caller's own row.
func (uc *EconomyUseCase) Leaderboard(ctx context.Context, uid string) (*LeaderboardResult, error) {
	rows, err := uc.topRows(ctx)
	if err != nil {
		return nil, err
	}

	res := &LeaderboardResult{Entries: rows}
	if entry, err := uc.store.Entry(ctx, uid); err == nil {
		res.Me = &LeaderboardRow{
			UID:      entry.UID,
			Username: entry.Username,
			MaxScore: entry.MaxScore,
			Rank:     entry.Rank,
		}
	}
	return res, nil
}

func (uc *EconomyUseCase) topRows(ctx context.Context) ([]LeaderboardRow, error) {
	if uc.lb != nil {
		if raw, err := uc.lb.GetTop(ctx); err == nil {
			var cached []LeaderboardRow
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		}
	}

	entries, err := uc.store.TopEntries(ctx, leaderboardPageSize)
	if err != nil {
		return nil, err
	}
	rows := make([]LeaderboardRow, 0, len(entries))
	for i, e := range entries {
		rows = append(rows, LeaderboardRow{
			UID:      e.UID,
			Username: e.Username,
			MaxScore: e.MaxScore,
			// Positions within the page beat the stored rank when entries
			// moved since their last write.
			Rank: int64(i + 1),
		})
	}

	if uc.lb != nil {
		if raw, err := json.Marshal(rows); err == nil {
			if err := uc.lb.SetTop(ctx, raw); err != nil {
				log.Printf("leaderboard cache set failed: %v", err)
			}
		}
	}
	return rows, nil
}
