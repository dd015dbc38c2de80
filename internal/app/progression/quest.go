package progression

import (
	"github.com/tendlog/tend/internal/domain"
)

// ─── Quest Progress Evaluator ───────────────────────────────────────────────
// Progress is derived from qualifying events on every read. The persisted
// completion marker (see sqlite.CompleteQuestInstance) is what makes
// re-evaluating a completed instance a no-op with respect to XP.

// EvaluateQuest computes progress and completion for one quest instance
// from the qualifying events inside its window. alreadyCompleted is the
// persisted marker for this instance; when set, NewlyCompleted stays
// false no matter what the events say.
func EvaluateQuest(def domain.QuestDef, events []domain.QuestEvent, window domain.QuestWindow, alreadyCompleted bool) (domain.QuestProgress, error) {
	qp := domain.QuestProgress{
		QuestID: def.ID,
		Window:  window,
		Target:  def.Target,
	}

	var progress int64
	switch def.Match {
	case domain.MatchCountEvents:
		for _, e := range events {
			if window.Contains(e.At) {
				progress++
			}
		}

	case domain.MatchCountDistinctTag:
		seen := make(map[string]bool)
		for _, e := range events {
			if !window.Contains(e.At) {
				continue
			}
			for _, tag := range e.Tags {
				if tag != "" {
					seen[tag] = true
				}
			}
		}
		progress = int64(len(seen))

	case domain.MatchThresholdCrossed:
		for _, e := range events {
			if !window.Contains(e.At) {
				continue
			}
			if def.SubskillID != "" && e.SubskillID != def.SubskillID {
				continue
			}
			progress += e.XP
		}

	default:
		return qp, domain.ErrUnknownMatchKind
	}

	if progress > def.Target {
		progress = def.Target // Bounded
	}
	qp.Progress = progress
	qp.IsCompleted = alreadyCompleted || progress >= def.Target
	qp.NewlyCompleted = !alreadyCompleted && progress >= def.Target
	return qp, nil
}

// DefaultQuests returns the stock quest catalog.
func DefaultQuests() []domain.QuestDef {
	return []domain.QuestDef{
		{
			ID: "daily-spark", Type: domain.QuestDaily, Match: domain.MatchCountEvents,
			Events:      domain.EventsSignals,
			Description: "Log 3 signals today", Target: 3, RewardXP: 15,
		},
		{
			ID: "daily-pause", Type: domain.QuestDaily, Match: domain.MatchCountEvents,
			Events:      domain.EventsReflections,
			Description: "Write a reflection today", Target: 1, RewardXP: 10,
		},
		{
			ID: "weekly-breadth", Type: domain.QuestWeekly, Match: domain.MatchCountDistinctTag,
			Description: "Log evidence in 4 different categories this week", Target: 4, RewardXP: 50,
		},
		{
			ID: "weekly-cadence", Type: domain.QuestWeekly, Match: domain.MatchCountEvents,
			Events:      domain.EventsSignals,
			Description: "Log 10 signals this week", Target: 10, RewardXP: 40,
		},
	}
}
