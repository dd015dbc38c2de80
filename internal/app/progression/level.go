// Package progression implements the Tend gamification engine: accrual
// rules with anti-farming limits, streak tracking, quest evaluation,
// level derivation, and time-bucketed activity views.
package progression

import (
	"github.com/tendlog/tend/internal/domain"
)

// ─── Skill Levels (threshold table) ─────────────────────────────────────────

// LevelFor maps accumulated XP onto the ordered threshold table: the
// highest level whose threshold ≤ xp, with fractional progress toward the
// next threshold. Negative XP clamps to the first level. Past the top of
// the table, progress is 1 and the next threshold equals the current one.
func LevelFor(xp int64, table []domain.LevelThreshold) (domain.SkillLevel, error) {
	if len(table) == 0 {
		return domain.SkillLevel{}, domain.ErrEmptyLevelTable
	}
	if xp < 0 {
		xp = 0
	}

	idx := 0
	for i, t := range table {
		if xp >= t.XP {
			idx = i
		} else {
			break
		}
	}

	current := table[idx]
	sl := domain.SkillLevel{Level: current.Level, Name: current.Name}

	if idx == len(table)-1 {
		sl.Progress = 1
		sl.NextThreshold = current.XP
		return sl, nil
	}

	next := table[idx+1]
	sl.NextThreshold = next.XP
	span := next.XP - current.XP
	if span > 0 {
		sl.Progress = float64(xp-current.XP) / float64(span)
	}
	return sl, nil
}

// ─── Overall Level ──────────────────────────────────────────────────────────
// The profile-wide level is a deliberately separate, coarser notion from
// the per-skill table above: floor(totalXp/divisor)+1. The two never
// unify — they feed different displays (profile header vs. skill tree).

// OverallLevel derives the profile level from lifetime XP.
func OverallLevel(totalXP, divisor int64) int {
	if divisor <= 0 {
		divisor = 1000
	}
	if totalXP < 0 {
		totalXP = 0
	}
	return int(totalXP/divisor) + 1
}

// DefaultLevelTable returns the stock skill-level ladder.
func DefaultLevelTable() []domain.LevelThreshold {
	return []domain.LevelThreshold{
		{Level: 1, XP: 0, Name: "Novice"},
		{Level: 2, XP: 50, Name: "Apprentice"},
		{Level: 3, XP: 120, Name: "Practitioner"},
		{Level: 4, XP: 250, Name: "Journeyman"},
		{Level: 5, XP: 450, Name: "Adept"},
		{Level: 6, XP: 700, Name: "Specialist"},
		{Level: 7, XP: 1000, Name: "Expert"},
		{Level: 8, XP: 1400, Name: "Veteran"},
		{Level: 9, XP: 1900, Name: "Master"},
		{Level: 10, XP: 2500, Name: "Luminary"},
	}
}
