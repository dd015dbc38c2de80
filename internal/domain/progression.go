// Package domain holds the pure types of the Tend progression engine.
// Streaks, XP ledger, levels, quests, and activity views — no
// infrastructure dependencies, so every rule stays unit-testable.
package domain

import "time"

// ─── XP Ledger Types ────────────────────────────────────────────────────────

// XPSource categorizes how XP was earned. The ledger is the source of
// truth: a user's total XP is always the sum of their entries.
type XPSource string

const (
	SourceSignal        XPSource = "SIGNAL"
	SourceReflection    XPSource = "REFLECTION"
	SourceQuest         XPSource = "QUEST"
	SourceStreak        XPSource = "STREAK"
	SourceVarietyBonus  XPSource = "VARIETY_BONUS"
	SourceArtifactBonus XPSource = "ARTIFACT_BONUS"
)

// ValidSource reports whether s is a known XP source.
func ValidSource(s XPSource) bool {
	switch s {
	case SourceSignal, SourceReflection, SourceQuest, SourceStreak,
		SourceVarietyBonus, SourceArtifactBonus:
		return true
	}
	return false
}

// LedgerEntry is one immutable XP award. Amount may be zero (a capped or
// fully diminished award still leaves a record) but never negative.
type LedgerEntry struct {
	ID         int64     `json:"id"`
	UserID     string    `json:"user_id"`
	Amount     int64     `json:"amount"`
	Source     XPSource  `json:"source"`
	SubskillID string    `json:"subskill_id,omitempty"`
	QuestKey   string    `json:"quest_key,omitempty"` // Set for QUEST entries — one per quest instance
	CreatedAt  time.Time `json:"created_at"`
}

// ─── Progression State ──────────────────────────────────────────────────────

// UserProgress is the per-user progression snapshot. TotalXP is
// monotonically non-decreasing and always equals the ledger sum.
type UserProgress struct {
	UserID        string    `json:"user_id"`
	TotalXP       int64     `json:"total_xp"`
	CurrentStreak int       `json:"current_streak"`
	LongestStreak int       `json:"longest_streak"`
	LastLogDate   time.Time `json:"last_log_date"` // Zero value = never logged
}

// SubskillProgress tracks per-(user, subskill) signal XP. Created on the
// first signal for that subskill, never deleted. XPEarned counts only
// SIGNAL-sourced entries — reflections attach to domains, not subskills.
type SubskillProgress struct {
	UserID         string    `json:"user_id"`
	SubskillID     string    `json:"subskill_id"`
	XPEarned       int64     `json:"xp_earned"`
	SignalCount    int       `json:"signal_count"`
	LastSignalDate time.Time `json:"last_signal_date"`
}

// ─── Level Types ────────────────────────────────────────────────────────────

// LevelThreshold is one row of the ordered skill-level table.
// Level 1 always has threshold 0.
type LevelThreshold struct {
	Level int    `json:"level" toml:"level"`
	XP    int64  `json:"xp" toml:"xp"`
	Name  string `json:"name" toml:"name"`
}

// SkillLevel is the threshold-table level derived for a skill's XP.
// Progress is the fraction toward the next threshold, in [0,1].
type SkillLevel struct {
	Level         int     `json:"level"`
	Name          string  `json:"name"`
	Progress      float64 `json:"progress"`
	NextThreshold int64   `json:"next_threshold"`
}

// ─── Accrual Rules ──────────────────────────────────────────────────────────

// AccrualRules are the externally supplied anti-farming knobs.
// Ladder entries are percentages of base value by same-day occurrence
// index; occurrences past the end of the ladder earn 0.
type AccrualRules struct {
	DailyCap            int64 `json:"daily_cap" toml:"daily_cap"`
	Ladder              []int `json:"diminish_ladder" toml:"diminish_ladder"`
	SignalBaseXP        int64 `json:"signal_base_xp" toml:"signal_base_xp"`
	ReflectionBaseXP    int64 `json:"reflection_base_xp" toml:"reflection_base_xp"`
	StreakBonusPerDay   int64 `json:"streak_bonus_per_day" toml:"streak_bonus_per_day"`
	StreakBonusCap      int64 `json:"streak_bonus_cap" toml:"streak_bonus_cap"`
	VarietyBonusXP      int64 `json:"variety_bonus_xp" toml:"variety_bonus_xp"`
	VarietyMinSubskills int   `json:"variety_min_subskills" toml:"variety_min_subskills"`
	ArtifactBonusXP     int64 `json:"artifact_bonus_xp" toml:"artifact_bonus_xp"`
	OverallLevelDivisor int64 `json:"overall_level_divisor" toml:"overall_level_divisor"`
}

// DefaultAccrualRules returns the stock configuration.
func DefaultAccrualRules() AccrualRules {
	return AccrualRules{
		DailyCap:            100,
		Ladder:              []int{100, 50, 25, 0},
		SignalBaseXP:        10,
		ReflectionBaseXP:    20,
		StreakBonusPerDay:   5,
		StreakBonusCap:      25,
		VarietyBonusXP:      10,
		VarietyMinSubskills: 3,
		ArtifactBonusXP:     5,
		OverallLevelDivisor: 1000,
	}
}

// ─── Day Arithmetic ─────────────────────────────────────────────────────────
// All date-bucketed rules compare at day granularity in the timestamp's
// own location; normalize before comparing.

// DayOf truncates t to the start of its calendar day.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return DayOf(a).Equal(DayOf(b))
}

// DayKey formats t's calendar day as "2006-01-02".
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// WeekStart returns the Monday 00:00 beginning t's calendar week.
func WeekStart(t time.Time) time.Time {
	d := DayOf(t)
	offset := (int(d.Weekday()) + 6) % 7 // Monday = 0
	return d.AddDate(0, 0, -offset)
}
