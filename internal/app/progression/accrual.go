package progression

import (
	"github.com/tendlog/tend/internal/domain"
)

// ─── Accrual Rule Engine ────────────────────────────────────────────────────
// Decides how much XP an event is worth after anti-farming adjustments.
// Pure: the caller supplies today's occurrence count and running total,
// and is responsible for the ledger append afterwards.

// Award is the outcome of one accrual computation.
type Award struct {
	// Amount is the XP actually granted after diminishing returns and
	// the daily cap. May be 0; the caller still appends a ledger entry
	// so history and "logged" UI state stay accurate.
	Amount int64 `json:"amount"`
	// Diminished is the value after the ladder but before the cap.
	Diminished int64 `json:"diminished"`
	// Capped is true when the daily cap truncated the award.
	Capped bool `json:"capped"`
}

// ComputeAward applies the diminishing-returns ladder and the daily cap
// to a base XP value.
//
// occurrence is how many same-subskill SIGNAL awards were already
// recorded today (0 for the first, and always 0 for sources that do not
// diminish). todayTotal is the user's XP across all sources so far today.
// Negative base values are treated as 0. Fractional ladder results floor.
func ComputeAward(base int64, occurrence int, todayTotal int64, rules domain.AccrualRules) Award {
	if base < 0 {
		base = 0
	}
	if occurrence < 0 {
		occurrence = 0
	}

	pct := 0
	if occurrence < len(rules.Ladder) {
		pct = rules.Ladder[occurrence]
	}
	diminished := base * int64(pct) / 100 // Integer division = floor

	award := Award{Amount: diminished, Diminished: diminished}
	if rules.DailyCap <= 0 {
		return award // No cap configured
	}

	remaining := rules.DailyCap - todayTotal
	if remaining < 0 {
		remaining = 0
	}
	if diminished > remaining {
		award.Amount = remaining
		award.Capped = true
	}
	return award
}

// StreakBonus computes the XP bonus for a streak of the given length,
// before daily-cap truncation: min(streak × perDay, cap).
func StreakBonus(streakDays int, rules domain.AccrualRules) int64 {
	if streakDays <= 0 {
		return 0
	}
	bonus := int64(streakDays) * rules.StreakBonusPerDay
	if bonus > rules.StreakBonusCap {
		bonus = rules.StreakBonusCap
	}
	return bonus
}
