package usecase

import (
	"context"
	"encoding/json"

	"economy-service/internal/domain"
	"economy-service/internal/infrastructure/repository"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type ElitePassResult struct {
	HasElitePass        bool  `json:"hasElitePass"`
	ExpiresAtMillis     int64 `json:"expiresAtMillis"`
	PremiumCurrencyLeft int64 `json:"premiumCurrencyLeft"`
}

// PurchaseElitePass buys or extends the elevated tier with premium currency.
// An active pass extends from its current expiry, a lapsed one restarts from
// now. The purchase id makes the charge retry-safe.
func (uc *EconomyUseCase) PurchaseElitePass(ctx context.Context, uid, purchaseID string) (*ElitePassResult, error) {
	now := uc.nowUTC()

	var out *ElitePassResult
	err := uc.store.Atomic(ctx, func(tx *repository.Tx) error {
		if purchaseID != "" {
			rec, err := tx.Idempotency(domain.IdemScopePurchase, purchaseID)
			if err == nil {
				var prior ElitePassResult
				if err := json.Unmarshal([]byte(rec.ResultJSON), &prior); err != nil {
					return status.Error(codes.Internal, "corrupt purchase record")
				}
				out = &prior
				return nil
			}
			if !isNotFound(err) {
				return err
			}
		}

		s, err := uc.settleAll(tx, uid, now)
		if err != nil {
			return err
		}

		if s.user.PremiumCurrency < s.cfg.ElitePassPricePremium {
			return status.Error(codes.FailedPrecondition, "Insufficient premium balance")
		}
		s.user.PremiumCurrency -= s.cfg.ElitePassPricePremium

		base := now
		if s.user.HasElitePass && s.user.ElitePassExpiresAt != nil && s.user.ElitePassExpiresAt.After(now) {
			base = *s.user.ElitePassExpiresAt
		}
		expires := base.AddDate(0, 0, s.cfg.ElitePassDurationDays)
		s.user.HasElitePass = true
		s.user.ElitePassExpiresAt = &expires

		res := &ElitePassResult{
			HasElitePass:        true,
			ExpiresAtMillis:     expires.UnixMilli(),
			PremiumCurrencyLeft: s.user.PremiumCurrency,
		}

		s.stageWrites(tx)
		if purchaseID != "" {
			raw, _ := json.Marshal(res)
			tx.StageCreate(&domain.IdempotencyRecord{
				Scope:      domain.IdemScopePurchase,
				Token:      purchaseID,
				UID:        uid,
				ResultJSON: string(raw),
				CreatedAt:  now,
			})
		}
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
