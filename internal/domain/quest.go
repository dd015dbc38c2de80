package domain

import (
	"fmt"
	"time"
)

// ─── Quest Types ────────────────────────────────────────────────────────────

// QuestType determines the quest's active window.
type QuestType string

const (
	QuestDaily  QuestType = "DAILY"  // Window = current calendar day
	QuestWeekly QuestType = "WEEKLY" // Window = Monday..Sunday of current week
	QuestBoss   QuestType = "BOSS"   // Open-ended, completes once on an XP threshold
)

// MatchKind selects how qualifying events advance a quest.
type MatchKind string

const (
	// MatchCountEvents counts qualifying events.
	MatchCountEvents MatchKind = "count_events"
	// MatchCountDistinctTag counts distinct category tags among events.
	// Duplicates of a tag never advance progress.
	MatchCountDistinctTag MatchKind = "count_distinct_tag"
	// MatchThresholdCrossed sums XP amounts toward a threshold target.
	// Used by BOSS quests tied to a skill's next level threshold.
	MatchThresholdCrossed MatchKind = "threshold_crossed"
)

// QuestDef is a quest template. Defs carry no per-user state; progress is
// derived from qualifying events inside the active window instance.
type QuestDef struct {
	ID          string    `json:"id" toml:"id"`
	Type        QuestType `json:"type" toml:"type"`
	Description string    `json:"description" toml:"description"`
	Match       MatchKind `json:"match" toml:"match"`
	Target      int64     `json:"target" toml:"target"`
	RewardXP    int64     `json:"reward_xp" toml:"reward_xp"`
	// SubskillID scopes BOSS quests to one skill ("" = any).
	SubskillID string `json:"subskill_id,omitempty" toml:"subskill_id"`
	// Events filters which event kinds qualify: "signals",
	// "reflections", or "" for both.
	Events string `json:"events,omitempty" toml:"events"`
}

// Event filter values for QuestDef.Events.
const (
	EventsAny         = ""
	EventsSignals     = "signals"
	EventsReflections = "reflections"
)

// QuestWindow bounds one instance of a quest: [Start, End).
// BOSS quests have a zero End (open-ended).
type QuestWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the window.
func (w QuestWindow) Contains(t time.Time) bool {
	if t.Before(w.Start) {
		return false
	}
	return w.End.IsZero() || t.Before(w.End)
}

// WindowFor computes the active window instance of a quest at now.
// The quest type is a closed set; anything else is rejected.
func (d QuestDef) WindowFor(now time.Time) (QuestWindow, error) {
	switch d.Type {
	case QuestDaily:
		start := DayOf(now)
		return QuestWindow{Start: start, End: start.AddDate(0, 0, 1)}, nil
	case QuestWeekly:
		start := WeekStart(now)
		return QuestWindow{Start: start, End: start.AddDate(0, 0, 7)}, nil
	case QuestBoss: // Open-ended
		return QuestWindow{}, nil
	default:
		return QuestWindow{}, fmt.Errorf("%w: %q", ErrUnknownQuestType, d.Type)
	}
}

// InstanceKey identifies one window instance of this quest for a user.
// It is the idempotence key preventing double-award: a QUEST ledger entry
// or completion marker for the key means the reward was already paid.
func (d QuestDef) InstanceKey(now time.Time) (string, error) {
	switch d.Type {
	case QuestDaily:
		return fmt.Sprintf("%s:%s", d.ID, DayKey(DayOf(now))), nil
	case QuestWeekly:
		return fmt.Sprintf("%s:%s", d.ID, DayKey(WeekStart(now))), nil
	case QuestBoss:
		return d.ID, nil // BOSS completes exactly once
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownQuestType, d.Type)
	}
}

// QuestEvent is one qualifying event fed to the evaluator. Tags carry the
// category labels counted by MatchCountDistinctTag (a signal has one, a
// reflection one per tagged domain); XP is summed by MatchThresholdCrossed.
type QuestEvent struct {
	Tags       []string  `json:"tags"`
	SubskillID string    `json:"subskill_id"`
	XP         int64     `json:"xp"`
	At         time.Time `json:"at"`
}

// QuestProgress is the derived state of one quest instance. Never stored;
// recomputed from events on every read. NewlyCompleted is true only on
// the evaluation that crossed the target.
type QuestProgress struct {
	QuestID        string      `json:"quest_id"`
	InstanceKey    string      `json:"instance_key"`
	Window         QuestWindow `json:"window"`
	Progress       int64       `json:"progress"`
	Target         int64       `json:"target"`
	IsCompleted    bool        `json:"is_completed"`
	NewlyCompleted bool        `json:"newly_completed"`
}
