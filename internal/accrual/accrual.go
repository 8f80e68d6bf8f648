// Package accrual contains the pure lazy-accrual math. Nothing here touches
// storage; callers read state, call in, and persist the result inside the
// same transaction. Calling any function twice with the same inputs yields
// the same outputs.
package accrual

import (
	"time"

	"economy-service/internal/coerce"
)

// Energy applies whole regeneration ticks elapsed since updatedAt. The
// returned timestamp only advances by periods actually consumed, so a user
// who checks early keeps the fractional progress toward the next tick. At
// the cap the timestamp snaps to now: a full user accrues nothing.
func Energy(current, max int, periodSec int64, updatedAt, now time.Time) (int, time.Time) {
	if periodSec <= 0 || max <= 0 {
		return current, now
	}
	if current >= max {
		return current, now
	}
	if updatedAt.IsZero() || now.Before(updatedAt) {
		return current, now
	}

	period := time.Duration(periodSec) * time.Second
	ticks := int(now.Sub(updatedAt) / period)
	if ticks <= 0 {
		return current, updatedAt
	}
	if current+ticks >= max {
		return max, now
	}
	return current + ticks, updatedAt.Add(time.Duration(ticks) * period)
}

// NextEnergyAt returns when the next tick lands, or the zero time when the
// user is already full.
func NextEnergyAt(current, max int, periodSec int64, updatedAt time.Time) time.Time {
	if current >= max || periodSec <= 0 {
		return time.Time{}
	}
	return updatedAt.Add(time.Duration(periodSec) * time.Second)
}

// Wallet computes the autopilot wallet value for the window starting at
// windowStart. Accrual is continuous, truncated to 2 decimals, and for
// non-privileged users capped at ratePerHour*capHours truncated the same
// way. The function never rounds up and never advances the window.
func Wallet(windowStart, now time.Time, ratePerHour, capHours float64, privileged bool) float64 {
	if ratePerHour <= 0 || windowStart.IsZero() || !now.After(windowStart) {
		return 0
	}
	elapsedHours := now.Sub(windowStart).Hours()
	potential := coerce.Truncate2(ratePerHour * elapsedHours)
	if privileged {
		return potential
	}
	cap := coerce.Truncate2(ratePerHour * capHours)
	if potential > cap {
		return cap
	}
	return potential
}

// TimeToCapSeconds reports how long until a non-privileged wallet hits its
// cap, clamped at zero. Privileged users have no cap; callers pass their
// status through and should treat the second return as "has cap".
func TimeToCapSeconds(windowStart, now time.Time, capHours float64, privileged bool) (int64, bool) {
	if privileged {
		return 0, false
	}
	capAt := windowStart.Add(time.Duration(capHours * float64(time.Hour)))
	remaining := int64(capAt.Sub(now).Seconds())
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

// DayKey returns the UTC calendar-date string streak counting is keyed by.
// UTC, never client-local time, so a timezone change cannot double-count a
// day.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// ObserveStreakDay advances the streak for an observation at now.
// firstEver marks the implicit day 1, which never yields a claimable day.
// newDay is true when the observation falls on a fresh UTC date.
func ObserveStreakDay(lastLoginDate string, now time.Time) (newDate string, firstEver, newDay bool) {
	key := DayKey(now)
	if lastLoginDate == "" {
		return key, true, false
	}
	// Date strings compare lexicographically; an observation on or before
	// the recorded date is a no-op (guards against clock skew replays).
	if key <= lastLoginDate {
		return lastLoginDate, false, false
	}
	return key, false, true
}
