package usecase

import (
	"context"
	"encoding/json"
	"log"

	"economy-service/internal/domain"
	"economy-service/internal/infrastructure/repository"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type SessionTelemetry struct {
	MaxCombo          int   `json:"maxCombo"`
	PlaytimeSec       int64 `json:"playtimeSec"`
	PowerUpsCollected int64 `json:"powerUpsCollected"`
}

type SessionRequest struct {
	SessionID      string           `json:"sessionId"`
	EarnedCurrency float64          `json:"earnedCurrency"`
	EarnedScore    int64            `json:"earnedScore"`
	Telemetry      SessionTelemetry `json:"telemetry"`
}

type SessionResult struct {
	AlreadyProcessed bool    `json:"alreadyProcessed"`
	Currency         float64 `json:"currency"`
	MaxScore         int64   `json:"maxScore"`
}

// SubmitSessionResult settles a finished play session: currency grant,
// aggregate counters, best-score/rank bookkeeping and, on the player's first
// session, the referral bonus. The referrer's documents are read and written
// inside the same transaction, so the bonus can never be half-applied.
func (uc *EconomyUseCase) SubmitSessionResult(ctx context.Context, uid string, req SessionRequest) (*SessionResult, error) {
	if req.SessionID == "" {
		return nil, status.Error(codes.InvalidArgument, "sessionId is required")
	}
	if req.EarnedCurrency < 0 || req.EarnedScore < 0 {
		return nil, status.Error(codes.InvalidArgument, "earned amounts cannot be negative")
	}
	now := uc.nowUTC()

	var out *SessionResult
	var rankChanged bool
	err := uc.store.Atomic(ctx, func(tx *repository.Tx) error {
		rec, idemErr := tx.Idempotency(domain.IdemScopeSession, req.SessionID)
		if idemErr == nil {
			var prior SessionResult
			if err := json.Unmarshal([]byte(rec.ResultJSON), &prior); err != nil {
				return status.Error(codes.Internal, "corrupt session record")
			}
			prior.AlreadyProcessed = true
			out = &prior
			return nil
		}
		if !isNotFound(idemErr) {
			return idemErr
		}

		s, err := uc.settleAll(tx, uid, now)
		if err != nil {
			return err
		}

		// First finished session triggers the referral bonus; the referrer
		// is pulled into this transaction, not credited asynchronously.
		var referrer *domain.UserAccount
		if s.user.SessionsPlayed == 0 && s.user.ReferredByUID != "" {
			ref, refErr := tx.User(s.user.ReferredByUID)
			if refErr == nil {
				referrer = ref
			} else if !isNotFound(refErr) {
				return refErr
			}
		}

		s.user.Currency += req.EarnedCurrency
		s.user.CumulativeCurrencyEarned += int64(req.EarnedCurrency)
		s.user.SessionsPlayed++
		s.user.TotalPlaytimeSec += req.Telemetry.PlaytimeSec
		s.user.PowerUpsCollected += req.Telemetry.PowerUpsCollected
		if req.Telemetry.MaxCombo > s.user.MaxCombo {
			s.user.MaxCombo = req.Telemetry.MaxCombo
		}

		if req.EarnedScore > s.user.MaxScore {
			s.user.MaxScore = req.EarnedScore

			// Rank is denormalized from a count aggregation, still in the
			// read phase.
			above, err := tx.CountUsersWithScoreAbove(req.EarnedScore)
			if err != nil {
				return err
			}
			s.user.Rank = above + 1
			rankChanged = true

			tx.StageUpsert(&domain.LeaderboardEntry{
				UID:       uid,
				Username:  s.user.Username,
				MaxScore:  s.user.MaxScore,
				Rank:      s.user.Rank,
				UpdatedAt: now,
			})
		}

		if referrer != nil {
			referrer.Currency += s.cfg.ReferralBonus
			referrer.ReferralCount++
			tx.StageSave(referrer)
		}

		res := &SessionResult{
			Currency: s.user.Currency,
			MaxScore: s.user.MaxScore,
		}
		raw, _ := json.Marshal(res)
		tx.StageCreate(&domain.IdempotencyRecord{
			Scope:      domain.IdemScopeSession,
			Token:      req.SessionID,
			UID:        uid,
			ResultJSON: string(raw),
			CreatedAt:  now,
		})

		s.stageWrites(tx)
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Best effort: a stale cached page just ages out via TTL.
	if rankChanged && uc.lb != nil {
		if err := uc.lb.Invalidate(ctx); err != nil {
			log.Printf("leaderboard cache invalidate failed: %v", err)
		}
	}
	return out, nil
}
