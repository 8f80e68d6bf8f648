package usecase

import (
	"context"

	"economy-service/internal/infrastructure/repository"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type StreakClaimResult struct {
	Granted      float64 `json:"granted"`
	RewardPerDay float64 `json:"rewardPerDay"`
	// Always zero after a successful claim; kept in the shape so clients
	// can clear their badge without a second status call.
	UnclaimedDays int     `json:"unclaimedDays"`
	NewCurrency   float64 `json:"newCurrency"`
}

// ClaimStreak converts the unclaimed day backlog into currency. TotalDays is
// the lifetime counter and is never reset by a claim.
func (uc *EconomyUseCase) ClaimStreak(ctx context.Context, uid string) (*StreakClaimResult, error) {
	now := uc.nowUTC()

	var out *StreakClaimResult
	err := uc.store.Atomic(ctx, func(tx *repository.Tx) error {
		s, err := uc.settleAll(tx, uid, now)
		if err != nil {
			return err
		}

		if s.streak.UnclaimedDays <= 0 {
			return status.Error(codes.FailedPrecondition, "No streak days to claim")
		}

		days := s.streak.UnclaimedDays
		granted := s.cfg.StreakRewardPerDay * float64(days)
		s.user.Currency += granted
		s.streak.UnclaimedDays = 0
		claimAt := now
		s.streak.LastClaimAt = &claimAt

		s.stageWrites(tx)
		out = &StreakClaimResult{
			Granted:      granted,
			RewardPerDay: s.cfg.StreakRewardPerDay,
			NewCurrency:  s.user.Currency,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
