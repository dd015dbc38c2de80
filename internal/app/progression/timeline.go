package progression

import (
	"time"

	"github.com/tendlog/tend/internal/domain"
)

// ─── Timeline / Activity Aggregator ─────────────────────────────────────────
// Pure reductions over already-fetched records. Every day in the
// requested range is present even when empty, sorted ascending; events
// are bucketed by the local calendar day of their timestamp, never by
// raw timestamp comparison.

// DateRange is an inclusive day range [Start, End].
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Days lists every calendar day in the range, ascending.
func (r DateRange) Days() ([]time.Time, error) {
	start, end := domain.DayOf(r.Start), domain.DayOf(r.End)
	if end.Before(start) {
		return nil, domain.ErrInvalidRange
	}
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days, nil
}

// BuildTimeline reduces ledger entries over the range into zero-filled
// daily buckets with a per-source breakdown, plus a range summary.
func BuildTimeline(entries []domain.LedgerEntry, r DateRange) ([]domain.TimelineDay, domain.TimelineSummary, error) {
	days, err := r.Days()
	if err != nil {
		return nil, domain.TimelineSummary{}, err
	}

	buckets := make([]domain.TimelineDay, len(days))
	index := make(map[string]int, len(days))
	for i, d := range days {
		buckets[i] = domain.TimelineDay{Date: d}
		index[domain.DayKey(d)] = i
	}

	for _, e := range entries {
		i, ok := index[domain.DayKey(e.CreatedAt)]
		if !ok {
			continue // Outside the requested range
		}
		b := &buckets[i]
		b.TotalXP += e.Amount
		switch e.Source {
		case domain.SourceSignal:
			b.Sources.Signal += e.Amount
		case domain.SourceReflection:
			b.Sources.Reflection += e.Amount
		case domain.SourceQuest:
			b.Sources.Quest += e.Amount
		case domain.SourceStreak:
			b.Sources.Streak += e.Amount
		case domain.SourceVarietyBonus, domain.SourceArtifactBonus:
			b.Sources.Bonus += e.Amount
		}
	}

	var summary domain.TimelineSummary
	bestIdx := -1
	for i := range buckets {
		summary.TotalXP += buckets[i].TotalXP
		if buckets[i].TotalXP > 0 {
			summary.ActiveDays++
			if bestIdx < 0 || buckets[i].TotalXP > buckets[bestIdx].TotalXP {
				bestIdx = i
			}
		}
	}
	if summary.ActiveDays > 0 {
		summary.AverageXP = float64(summary.TotalXP) / float64(summary.ActiveDays)
	}
	if bestIdx >= 0 {
		best := buckets[bestIdx]
		summary.BestDay = &best
	}
	return buckets, summary, nil
}

// ActivityLevel derives heatmap intensity from a day's activity count:
// 0 → 0, 1 → 1, 2–3 → 2, 4–5 → 3, 6+ → 4.
func ActivityLevel(total int) int {
	switch {
	case total <= 0:
		return 0
	case total == 1:
		return 1
	case total <= 3:
		return 2
	case total <= 5:
		return 3
	default:
		return 4
	}
}

// BuildActivity reduces signals and reflections over the range into
// zero-filled daily heatmap buckets. categoryOf maps each subskill to its
// parent category for the summary's domain breakdown; reflection domains
// merge into the same breakdown directly.
func BuildActivity(signals []domain.Signal, reflections []domain.Reflection, r DateRange, categoryOf map[string]string) ([]domain.ActivityDay, domain.ActivitySummary, error) {
	days, err := r.Days()
	if err != nil {
		return nil, domain.ActivitySummary{}, err
	}

	buckets := make([]domain.ActivityDay, len(days))
	index := make(map[string]int, len(days))
	for i, d := range days {
		buckets[i] = domain.ActivityDay{Date: d}
		index[domain.DayKey(d)] = i
	}

	summary := domain.ActivitySummary{ByDomain: make(map[string]int)}

	for _, s := range signals {
		i, ok := index[domain.DayKey(s.CreatedAt)]
		if !ok {
			continue
		}
		buckets[i].Signals++
		summary.TotalSignals++
		cat := categoryOf[s.SubskillID]
		if cat == "" {
			cat = "uncategorized"
		}
		summary.ByDomain[cat]++
	}

	for _, ref := range reflections {
		i, ok := index[domain.DayKey(ref.CreatedAt)]
		if !ok {
			continue
		}
		buckets[i].Reflections++
		summary.TotalReflections++
		for _, dom := range ref.Domains {
			if dom != "" {
				summary.ByDomain[dom]++
			}
		}
	}

	for i := range buckets {
		buckets[i].Total = buckets[i].Signals + buckets[i].Reflections
		buckets[i].Level = ActivityLevel(buckets[i].Total)
		if buckets[i].Total > 0 {
			summary.ActiveDays++
		}
	}
	return buckets, summary, nil
}
