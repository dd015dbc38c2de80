package domain

import "time"

// ─── Event Types ────────────────────────────────────────────────────────────

// Signal is a single low-effort logged unit of evidence tied to one subskill.
type Signal struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	SubskillID  string    `json:"subskill_id"`
	Note        string    `json:"note,omitempty"`
	ArtifactURL string    `json:"artifact_url,omitempty"` // Evidence link — earns the artifact bonus
	CreatedAt   time.Time `json:"created_at"`
}

// Reflection is a longer free-text entry tagged with one or more domains.
type Reflection struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	Domains   []string  `json:"domains"`
	CreatedAt time.Time `json:"created_at"`
}

// Subskill is a fine-grained skill; Category groups several subskills.
type Subskill struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// ─── Timeline View ──────────────────────────────────────────────────────────

// XPBreakdown splits a day's XP by source kind. Variety and artifact
// bonuses display as one combined bucket.
type XPBreakdown struct {
	Signal     int64 `json:"signal"`
	Reflection int64 `json:"reflection"`
	Quest      int64 `json:"quest"`
	Streak     int64 `json:"streak"`
	Bonus      int64 `json:"bonus"`
}

// TimelineDay is one zero-fillable bucket of the XP timeline. Derived,
// never persisted.
type TimelineDay struct {
	Date    time.Time   `json:"date"`
	TotalXP int64       `json:"total_xp"`
	Sources XPBreakdown `json:"sources"`
}

// TimelineSummary aggregates a timeline range. AverageXP is per active
// day (days with TotalXP > 0); BestDay is nil when the range is all zero.
type TimelineSummary struct {
	TotalXP    int64        `json:"total_xp"`
	ActiveDays int          `json:"active_days"`
	AverageXP  float64      `json:"average_xp"`
	BestDay    *TimelineDay `json:"best_day,omitempty"`
}

// ─── Activity View ──────────────────────────────────────────────────────────

// ActivityDay is one day of the activity heatmap. Level is the derived
// intensity in 0..4.
type ActivityDay struct {
	Date        time.Time `json:"date"`
	Signals     int       `json:"signals"`
	Reflections int       `json:"reflections"`
	Total       int       `json:"total"`
	Level       int       `json:"level"`
}

// ActivitySummary aggregates an activity range, including the per-domain
// breakdown that merges reflection domains with each signal subskill's
// parent category.
type ActivitySummary struct {
	TotalSignals     int            `json:"total_signals"`
	TotalReflections int            `json:"total_reflections"`
	ActiveDays       int            `json:"active_days"`
	ByDomain         map[string]int `json:"by_domain"`
}
