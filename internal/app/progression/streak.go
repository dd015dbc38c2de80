package progression

import (
	"time"

	"github.com/tendlog/tend/internal/domain"
)

// ─── Streak Tracker ─────────────────────────────────────────────────────────
// State machine over (lastLogDate, currentStreak, longestStreak).
// A gap of exactly one day continues the streak; two or more days always
// reset to 1. Streaks never decrement gradually.

// StreakResult reports one streak transition.
type StreakResult struct {
	CurrentStreak int   `json:"current_streak"`
	LongestStreak int   `json:"longest_streak"`
	BonusXP       int64 `json:"bonus_xp"`
	// Extended is false when today was already logged — a second
	// same-day activity neither increments the streak nor re-earns
	// the bonus.
	Extended bool `json:"extended"`
}

// AdvanceStreak applies a qualifying activity on `today` to the given
// progress snapshot. Pure: returns the updated snapshot and the
// transition outcome; the caller persists and appends the bonus entry
// (subject to the daily cap like every other source).
func AdvanceStreak(p domain.UserProgress, today time.Time, rules domain.AccrualRules) (domain.UserProgress, StreakResult) {
	day := domain.DayOf(today)

	if !p.LastLogDate.IsZero() && domain.SameDay(p.LastLogDate, day) {
		// Already logged today — idempotent.
		return p, StreakResult{
			CurrentStreak: p.CurrentStreak,
			LongestStreak: p.LongestStreak,
		}
	}

	yesterday := day.AddDate(0, 0, -1)
	switch {
	case !p.LastLogDate.IsZero() && domain.SameDay(p.LastLogDate, yesterday):
		p.CurrentStreak++
	default:
		// First activity ever, or a gap of two or more days.
		p.CurrentStreak = 1
	}

	if p.CurrentStreak > p.LongestStreak {
		p.LongestStreak = p.CurrentStreak
	}
	p.LastLogDate = day

	return p, StreakResult{
		CurrentStreak: p.CurrentStreak,
		LongestStreak: p.LongestStreak,
		BonusXP:       StreakBonus(p.CurrentStreak, rules),
		Extended:      true,
	}
}
