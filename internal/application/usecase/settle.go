package usecase

import (
	"time"

	"economy-service/internal/accrual"
	"economy-service/internal/domain"
	"economy-service/internal/infrastructure/repository"
)

// settled carries everything the per-user settlement read and computed. The
// structs are mutated in memory only; stageWrites persists them. Reads and
// writes stay in separate phases that way, which the store requires.
type settled struct {
	user   *domain.UserAccount
	auto   *domain.AutopilotState
	streak *domain.StreakState
	cfg    domain.ConfigSnapshot

	privileged bool
	active     []domain.ActiveConsumable
	expired    []domain.ActiveConsumable
	loadout    *domain.Loadout
}

// settleAll performs the read phase of lazy settlement for one user: elite
// pass lapse, energy ticks, autopilot wallet, streak day observation and
// consumable expiry. Nothing is staged; callers do further reads of their
// own, then call stageWrites.
func (uc *EconomyUseCase) settleAll(tx *repository.Tx, uid string, now time.Time) (*settled, error) {
	user, err := tx.User(uid)
	if err != nil {
		if isNotFound(err) {
			return nil, errUserMissing
		}
		return nil, err
	}

	cfg, err := tx.Config()
	if err != nil {
		if isNotFound(err) {
			return nil, errConfigMissing
		}
		return nil, err
	}

	auto, err := tx.Autopilot(uid)
	if err != nil {
		if !isNotFound(err) {
			return nil, err
		}
		auto = &domain.AutopilotState{UID: uid, LastClaimedAt: now}
	}

	streak, err := tx.Streak(uid)
	if err != nil {
		if !isNotFound(err) {
			return nil, err
		}
		streak = &domain.StreakState{UID: uid}
	}

	consumables, err := tx.ActiveConsumables(uid)
	if err != nil {
		return nil, err
	}

	s := &settled{user: user, auto: auto, streak: streak, cfg: cfg}

	// Elite pass lapses lazily; the global sweep only covers dormant users.
	if user.HasElitePass && user.ElitePassExpiresAt != nil && !user.ElitePassExpiresAt.After(now) {
		user.HasElitePass = false
	}
	s.privileged = user.Privileged(now)

	// Energy ticks.
	user.EnergyCurrent, user.EnergyUpdatedAt = accrual.Energy(
		user.EnergyCurrent, user.EnergyMax, user.EnergyRegenPeriodSec,
		user.EnergyUpdatedAt, now,
	)

	// Autopilot wallet. Settlement never advances the claim timestamp, so
	// settling twice is a no-op.
	if auto.IsOn {
		if auto.ActivationDate == nil && s.privileged {
			start := auto.LastClaimedAt
			auto.ActivationDate = &start
		}
		w := accrual.Wallet(auto.WindowStart(), now, s.cfg.RateFor(s.privileged), cfg.AutopilotCapHours, s.privileged)
		if w > auto.Wallet {
			auto.Wallet = w
		}
	}

	// Streak day observation.
	newDate, firstEver, newDay := accrual.ObserveStreakDay(streak.LastLoginDate, now)
	switch {
	case firstEver:
		streak.TotalDays = 1
		streak.LastLoginDate = newDate
	case newDay:
		streak.TotalDays++
		streak.UnclaimedDays++
		streak.LastLoginDate = newDate
	}

	// Consumable expiry split.
	for _, c := range consumables {
		if c.ExpiresAt.After(now) {
			s.active = append(s.active, c)
		} else {
			s.expired = append(s.expired, c)
		}
	}

	// Expired consumables invalidate the merged stat blob; rebuild it from
	// the post-cleanup set.
	if len(s.expired) > 0 {
		loadout, err := tx.Loadout(uid)
		if err != nil {
			if !isNotFound(err) {
				return nil, err
			}
			loadout = &domain.Loadout{UID: uid, ItemIDsJSON: "[]"}
		}
		s.loadout = loadout
		blob, err := recomputeStatsBlob(tx, loadout, s.active, now)
		if err != nil {
			return nil, err
		}
		user.StatsJSON = blob
	}

	return s, nil
}

// stageWrites stages every document the settlement touched. Autopilot and
// streak rows may not exist yet for accounts predating those features, so
// they go through the upsert path.
func (s *settled) stageWrites(tx *repository.Tx) {
	tx.StageSave(s.user)
	tx.StageUpsert(s.auto)
	tx.StageUpsert(s.streak)
	for i := range s.expired {
		tx.StageDelete(&domain.ActiveConsumable{UID: s.expired[i].UID, ItemID: s.expired[i].ItemID})
	}
}
