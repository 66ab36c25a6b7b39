package model

import (
	"math"
	"time"
)

const (
	// BaseXP is the per-completion base before the difficulty multiplier.
	BaseXP = 10

	// StreakBonusCap bounds the streak contribution to the gain.
	StreakBonusCap = 10

	streakBonusRate = 0.5

	Day  = 24 * time.Hour
	Week = 7 * Day
)

// ComputeXPGain returns round(base*difficulty + 0.5*min(streak, 10)).
// Halves round up, so a 10.5 gain becomes 11. A non-positive base means
// BaseXP and a negative streak earns no bonus.
func ComputeXPGain(base, difficulty, streak int) int {
	if base <= 0 {
		base = BaseXP
	}
	bonus := streak
	if bonus > StreakBonusCap {
		bonus = StreakBonusCap
	}
	if bonus < 0 {
		bonus = 0
	}
	raw := float64(base*difficulty) + streakBonusRate*float64(bonus)
	return int(math.Floor(raw + 0.5))
}

// WeeklyCompletionCount counts history entries inside [now-7d, now].
func WeeklyCompletionCount(history []time.Time, now time.Time) int {
	weekAgo := now.Add(-Week)
	count := 0
	for _, at := range history {
		if at.Before(weekAgo) || at.After(now) {
			continue
		}
		count++
	}
	return count
}

// ElapsedDays is floor((now-last)/24h). Calendar dates are ignored: two
// instants 23h apart on different dates are zero days apart.
func ElapsedDays(last, now time.Time) int {
	return int(math.Floor(float64(now.Sub(last)) / float64(Day)))
}

// NextStreak applies one completion at now to a streak last extended at last.
func NextStreak(streak int, last *time.Time, now time.Time) int {
	if last == nil {
		return 1
	}
	switch diff := ElapsedDays(*last, now); {
	case diff == 1:
		return streak + 1
	case diff > 1:
		return 1
	default:
		// Same day, or a clock that moved backwards.
		return streak
	}
}

// WeeklyProgress is weekCount/targetDays clamped to [0,1]. A non-positive
// target is read as DefaultTargetDays.
func WeeklyProgress(weekCount, targetDays int) float64 {
	if targetDays <= 0 {
		targetDays = DefaultTargetDays
	}
	if weekCount <= 0 {
		return 0
	}
	p := float64(weekCount) / float64(targetDays)
	if p > 1 {
		return 1
	}
	return p
}
