package usecase

import (
	"context"

	"economy-service/internal/accrual"
	"economy-service/internal/coerce"
	"economy-service/internal/infrastructure/repository"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type AutopilotStatus struct {
	IsPrivileged      bool    `json:"isPrivileged"`
	IsAccrualOn       bool    `json:"isAccrualOn"`
	Wallet            float64 `json:"wallet"`
	Currency          float64 `json:"currency"`
	RatePerHour       float64 `json:"ratePerHour"`
	CapHours          float64 `json:"capHours"`
	ActivationMillis  int64   `json:"activationMillis"`
	LastClaimedMillis int64   `json:"lastClaimedMillis"`
	TimeToCapSeconds  *int64  `json:"timeToCapSeconds"`
	IsClaimReady      bool    `json:"isClaimReady"`
}

// SettleAndGetStatus applies all pending lazy accrual (energy, wallet,
// streak, consumable expiry, pass lapse) and returns the autopilot snapshot.
// Calling it twice with no elapsed time changes nothing.
func (uc *EconomyUseCase) SettleAndGetStatus(ctx context.Context, uid string) (*AutopilotStatus, error) {
	now := uc.nowUTC()

	var out *AutopilotStatus
	err := uc.store.Atomic(ctx, func(tx *repository.Tx) error {
		s, err := uc.settleAll(tx, uid, now)
		if err != nil {
			return err
		}
		s.stageWrites(tx)
		out = uc.autopilotStatus(s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (uc *EconomyUseCase) autopilotStatus(s *settled) *AutopilotStatus {
	now := uc.nowUTC()
	st := &AutopilotStatus{
		IsPrivileged:      s.privileged,
		IsAccrualOn:       s.auto.IsOn,
		Wallet:            s.auto.Wallet,
		Currency:          s.user.Currency,
		RatePerHour:       s.cfg.RateFor(s.privileged),
		CapHours:          s.cfg.AutopilotCapHours,
		LastClaimedMillis: millisOrZero(s.auto.LastClaimedAt),
	}
	if s.auto.ActivationDate != nil {
		st.ActivationMillis = s.auto.ActivationDate.UnixMilli()
	}
	if s.auto.IsOn {
		secs, hasCap := accrual.TimeToCapSeconds(s.auto.WindowStart(), now, s.cfg.AutopilotCapHours, s.privileged)
		if hasCap {
			st.TimeToCapSeconds = &secs
			st.IsClaimReady = secs == 0 && s.auto.Wallet > 0
		} else {
			st.IsClaimReady = s.auto.Wallet > 0
		}
	}
	return st
}

type ToggleResult struct {
	IsAccrualOn bool `json:"isAccrualOn"`
}

// ToggleAccrual switches the autopilot on or off. Turning it on opens a new
// accrual window at now; turning it off settles first so nothing earned is
// lost, then freezes the wallet until claim.
func (uc *EconomyUseCase) ToggleAccrual(ctx context.Context, uid string, on bool) (*ToggleResult, error) {
	now := uc.nowUTC()

	var out *ToggleResult
	err := uc.store.Atomic(ctx, func(tx *repository.Tx) error {
		s, err := uc.settleAll(tx, uid, now)
		if err != nil {
			return err
		}

		if on && !s.auto.IsOn {
			s.auto.IsOn = true
			start := now
			s.auto.ActivationDate = &start
		} else if !on && s.auto.IsOn {
			s.auto.IsOn = false
			s.auto.ActivationDate = nil
		}

		s.stageWrites(tx)
		out = &ToggleResult{IsAccrualOn: s.auto.IsOn}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

type ClaimResult struct {
	Claimed       float64 `json:"claimed"`
	CurrencyAfter float64 `json:"currencyAfter"`
}

// ClaimAccrual moves the settled wallet into the spendable balance. Split
// into two sequential transactions (settle, then claim) because the store
// forbids reads after writes inside one transaction.
func (uc *EconomyUseCase) ClaimAccrual(ctx context.Context, uid string) (*ClaimResult, error) {
	if _, err := uc.SettleAndGetStatus(ctx, uid); err != nil {
		return nil, err
	}

	now := uc.nowUTC()
	var out *ClaimResult
	err := uc.store.Atomic(ctx, func(tx *repository.Tx) error {
		user, err := tx.User(uid)
		if err != nil {
			if isNotFound(err) {
				return errUserMissing
			}
			return err
		}
		cfg, err := tx.Config()
		if err != nil {
			return err
		}
		auto, err := tx.Autopilot(uid)
		if err != nil {
			if isNotFound(err) {
				return status.Error(codes.FailedPrecondition, "Nothing to claim")
			}
			return err
		}

		privileged := user.Privileged(now)
		if !privileged {
			secs, _ := accrual.TimeToCapSeconds(auto.WindowStart(), now, cfg.AutopilotCapHours, false)
			if secs > 0 {
				return status.Error(codes.FailedPrecondition, "Claim is not ready yet")
			}
		}
		if auto.Wallet <= 0 {
			return status.Error(codes.FailedPrecondition, "Nothing to claim")
		}

		claimed := coerce.Truncate2(auto.Wallet)
		user.Currency += claimed
		auto.TotalEarned += claimed
		auto.Wallet = 0
		auto.LastClaimedAt = now
		auto.ActivationDate = nil

		tx.StageSave(user)
		tx.StageSave(auto)
		out = &ClaimResult{Claimed: claimed, CurrencyAfter: user.Currency}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
