package usecase

import (
	"context"

	"economy-service/internal/accrual"
	"economy-service/internal/domain"
	"economy-service/internal/infrastructure/repository"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type EnergyResult struct {
	AlreadyProcessed   bool   `json:"alreadyProcessed"`
	EnergyCurrent      int    `json:"energyCurrent"`
	EnergyMax          int    `json:"energyMax"`
	RegenPeriodSec     int64  `json:"regenPeriodSec"`
	NextEnergyAtMillis *int64 `json:"nextEnergyAtMillis"`
}

// SpendEnergy burns one energy for a play session. The session id is the
// idempotency token: a client retrying after a timeout gets the settled
// state back without spending twice.
func (uc *EconomyUseCase) SpendEnergy(ctx context.Context, uid, sessionID string) (*EnergyResult, error) {
	if sessionID == "" {
		return nil, status.Error(codes.InvalidArgument, "sessionId is required")
	}
	now := uc.nowUTC()

	var out *EnergyResult
	err := uc.store.Atomic(ctx, func(tx *repository.Tx) error {
		_, idemErr := tx.Idempotency(domain.IdemScopeEnergySpend, sessionID)
		if idemErr != nil && !isNotFound(idemErr) {
			return idemErr
		}
		replay := idemErr == nil

		s, err := uc.settleAll(tx, uid, now)
		if err != nil {
			return err
		}

		if !replay {
			if s.user.EnergyCurrent <= 0 {
				return status.Error(codes.FailedPrecondition, "Not enough energy")
			}
			// Spending off a full bar starts regeneration now, not at the
			// stale timestamp from when the bar filled.
			if s.user.EnergyCurrent == s.user.EnergyMax {
				s.user.EnergyUpdatedAt = now
			}
			s.user.EnergyCurrent--

			tx.StageCreate(&domain.IdempotencyRecord{
				Scope:     domain.IdemScopeEnergySpend,
				Token:     sessionID,
				UID:       uid,
				CreatedAt: now,
			})
		}

		s.stageWrites(tx)
		out = uc.energyResult(s.user, replay)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GrantEnergy applies a one-time ad-reward refill. A replayed ad token is
// rejected outright rather than echoing a prior result; the client must
// fetch a fresh token from the ad network.
func (uc *EconomyUseCase) GrantEnergy(ctx context.Context, uid, adToken string) (*EnergyResult, error) {
	if adToken == "" {
		return nil, status.Error(codes.InvalidArgument, "adToken is required")
	}
	now := uc.nowUTC()

	var out *EnergyResult
	err := uc.store.Atomic(ctx, func(tx *repository.Tx) error {
		_, idemErr := tx.Idempotency(domain.IdemScopeAdEnergy, adToken)
		if idemErr == nil {
			return status.Error(codes.AlreadyExists, "Ad reward already claimed")
		}
		if !isNotFound(idemErr) {
			return idemErr
		}

		s, err := uc.settleAll(tx, uid, now)
		if err != nil {
			return err
		}

		s.user.EnergyCurrent += s.cfg.AdEnergyRefill
		if s.user.EnergyCurrent >= s.user.EnergyMax {
			s.user.EnergyCurrent = s.user.EnergyMax
			s.user.EnergyUpdatedAt = now
		}

		tx.StageCreate(&domain.IdempotencyRecord{
			Scope:     domain.IdemScopeAdEnergy,
			Token:     adToken,
			UID:       uid,
			CreatedAt: now,
		})
		s.stageWrites(tx)
		out = uc.energyResult(s.user, false)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (uc *EconomyUseCase) energyResult(user *domain.UserAccount, replay bool) *EnergyResult {
	res := &EnergyResult{
		AlreadyProcessed: replay,
		EnergyCurrent:    user.EnergyCurrent,
		EnergyMax:        user.EnergyMax,
		RegenPeriodSec:   user.EnergyRegenPeriodSec,
	}
	if next := accrual.NextEnergyAt(user.EnergyCurrent, user.EnergyMax, user.EnergyRegenPeriodSec, user.EnergyUpdatedAt); !next.IsZero() {
		ms := next.UnixMilli()
		res.NextEnergyAtMillis = &ms
	}
	return res
}
