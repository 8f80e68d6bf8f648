package usecase

import (
	"context"
	"regexp"

	"economy-service/internal/accrual"
	"economy-service/internal/domain"
	"economy-service/internal/infrastructure/repository"
	"economy-service/internal/stats"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]{3,16}$`)

type RegisterRequest struct {
	Username     string `json:"username"`
	ReferralCode string `json:"referralCode,omitempty"`
}

type RegisterResult struct {
	UID          string `json:"uid"`
	Username     string `json:"username"`
	ReferralCode string `json:"referralCode"`
	Created      bool   `json:"created"`
}

// Register creates the economy documents for a freshly authenticated
// identity. Registering an existing account is a no-op that returns the
// current identity, so the client can call it on every cold start.
func (uc *EconomyUseCase) Register(ctx context.Context, uid string, req RegisterRequest) (*RegisterResult, error) {
	now := uc.nowUTC()

	var out *RegisterResult
	err := uc.store.Atomic(ctx, func(tx *repository.Tx) error {
		existing, err := tx.User(uid)
		if err == nil {
			out = &RegisterResult{
				UID:          existing.UID,
				Username:     existing.Username,
				ReferralCode: existing.ReferralCode,
			}
			return nil
		}
		if !isNotFound(err) {
			return err
		}

		if !usernameRe.MatchString(req.Username) {
			return status.Error(codes.InvalidArgument, "Username must be 3-16 characters (letters, digits, underscore)")
		}
		if _, err := tx.UserByUsername(req.Username); err == nil {
			return status.Error(codes.AlreadyExists, "Username is already taken")
		} else if !isNotFound(err) {
			return err
		}

		referredBy := ""
		if req.ReferralCode != "" {
			referrer, refErr := tx.UserByReferralCode(req.ReferralCode)
			if refErr != nil {
				if isNotFound(refErr) {
					return status.Error(codes.NotFound, "Referral code not found")
				}
				return refErr
			}
			if referrer.UID == uid {
				return status.Error(codes.InvalidArgument, "Cannot refer yourself")
			}
			referredBy = referrer.UID
		}

		cfg, err := tx.Config()
		if err != nil {
			if isNotFound(err) {
				return errConfigMissing
			}
			return err
		}

		user := &domain.UserAccount{
			UID:                  uid,
			Username:             req.Username,
			EnergyCurrent:        cfg.EnergyMax,
			EnergyMax:            cfg.EnergyMax,
			EnergyRegenPeriodSec: cfg.EnergyRegenPeriodSec,
			EnergyUpdatedAt:      now,
			StatsJSON:            stats.Encode(stats.DefaultBase()),
			ReferralCode:         uuid.NewString(),
			ReferredByUID:        referredBy,
			CreatedAt:            now,
		}
		tx.StageCreate(user)
		tx.StageCreate(&domain.AutopilotState{UID: uid, LastClaimedAt: now})
		tx.StageCreate(&domain.StreakState{
			UID:           uid,
			TotalDays:     1,
			LastLoginDate: accrual.DayKey(now),
		})
		tx.StageCreate(&domain.Loadout{UID: uid, ItemIDsJSON: "[]"})

		out = &RegisterResult{
			UID:          uid,
			Username:     user.Username,
			ReferralCode: user.ReferralCode,
			Created:      true,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
