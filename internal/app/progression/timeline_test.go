package progression_test

import (
	"errors"
	"testing"
	"time"

	"github.com/tendlog/tend/internal/app/progression"
	"github.com/tendlog/tend/internal/domain"
)

func TestBuildTimeline_EmptyRangeZeroFills(t *testing.T) {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	r := progression.DateRange{Start: start, End: start.AddDate(0, 0, 6)}

	days, summary, err := progression.BuildTimeline(nil, r)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(days) != 7 {
		t.Fatalf("expected 7 buckets, got %d", len(days))
	}
	for i, d := range days {
		if d.TotalXP != 0 {
			t.Errorf("day %d: expected 0 XP, got %d", i, d.TotalXP)
		}
	}
	if summary.TotalXP != 0 || summary.ActiveDays != 0 || summary.AverageXP != 0 {
		t.Errorf("expected empty summary, got %+v", summary)
	}
	if summary.BestDay != nil {
		t.Errorf("expected nil best day for an all-zero range, got %+v", summary.BestDay)
	}
}

func TestBuildTimeline_BucketsBySourceAndDay(t *testing.T) {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	r := progression.DateRange{Start: start, End: start.AddDate(0, 0, 2)}

	entries := []domain.LedgerEntry{
		{Amount: 10, Source: domain.SourceSignal, CreatedAt: start.Add(9 * time.Hour)},
		{Amount: 5, Source: domain.SourceSignal, CreatedAt: start.Add(10 * time.Hour)},
		{Amount: 20, Source: domain.SourceReflection, CreatedAt: start.Add(11 * time.Hour)},
		{Amount: 15, Source: domain.SourceStreak, CreatedAt: start.AddDate(0, 0, 1)},
		{Amount: 10, Source: domain.SourceVarietyBonus, CreatedAt: start.AddDate(0, 0, 1)},
		{Amount: 40, Source: domain.SourceQuest, CreatedAt: start.AddDate(0, 0, 5)}, // Outside range
	}

	days, summary, err := progression.BuildTimeline(entries, r)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(days) != 3 {
		t.Fatalf("expected 3 buckets, got %d", len(days))
	}
	if days[0].TotalXP != 35 {
		t.Errorf("day 0: expected 35 XP, got %d", days[0].TotalXP)
	}
	if days[0].Sources.Signal != 15 || days[0].Sources.Reflection != 20 {
		t.Errorf("day 0 breakdown wrong: %+v", days[0].Sources)
	}
	if days[1].Sources.Streak != 15 || days[1].Sources.Bonus != 10 {
		t.Errorf("day 1 breakdown wrong: %+v", days[1].Sources)
	}
	if days[2].TotalXP != 0 {
		t.Errorf("day 2: expected 0 XP, got %d", days[2].TotalXP)
	}

	if summary.TotalXP != 60 {
		t.Errorf("expected range total 60, got %d", summary.TotalXP)
	}
	if summary.ActiveDays != 2 {
		t.Errorf("expected 2 active days, got %d", summary.ActiveDays)
	}
	if summary.AverageXP != 30 {
		t.Errorf("expected average 30 per active day, got %v", summary.AverageXP)
	}
	if summary.BestDay == nil || !domain.SameDay(summary.BestDay.Date, start) {
		t.Errorf("expected best day %v, got %+v", start, summary.BestDay)
	}
}

func TestBuildTimeline_InvalidRange(t *testing.T) {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	r := progression.DateRange{Start: start, End: start.AddDate(0, 0, -1)}

	_, _, err := progression.BuildTimeline(nil, r)
	if !errors.Is(err, domain.ErrInvalidRange) {
		t.Errorf("expected ErrInvalidRange, got %v", err)
	}
}

func TestActivityLevel_Buckets(t *testing.T) {
	cases := []struct {
		total int
		want  int
	}{
		{0, 0},
		{1, 1},
		{2, 2},
		{3, 2},
		{4, 3},
		{5, 3},
		{6, 4},
		{7, 4},
		{50, 4},
	}
	for _, c := range cases {
		if got := progression.ActivityLevel(c.total); got != c.want {
			t.Errorf("total %d: expected level %d, got %d", c.total, c.want, got)
		}
	}
}

func TestBuildActivity_CountsAndDomains(t *testing.T) {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	r := progression.DateRange{Start: start, End: start.AddDate(0, 0, 1)}
	categories := map[string]string{"writing": "craft", "running": "health"}

	signals := []domain.Signal{
		{SubskillID: "writing", CreatedAt: start.Add(8 * time.Hour)},
		{SubskillID: "running", CreatedAt: start.Add(9 * time.Hour)},
		{SubskillID: "ghost", CreatedAt: start.Add(10 * time.Hour)},
	}
	reflections := []domain.Reflection{
		{Domains: []string{"craft", "mind"}, CreatedAt: start.AddDate(0, 0, 1)},
	}

	days, summary, err := progression.BuildActivity(signals, reflections, r, categories)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(days) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(days))
	}
	if days[0].Signals != 3 || days[0].Reflections != 0 || days[0].Level != 2 {
		t.Errorf("day 0 wrong: %+v", days[0])
	}
	if days[1].Signals != 0 || days[1].Reflections != 1 || days[1].Level != 1 {
		t.Errorf("day 1 wrong: %+v", days[1])
	}

	if summary.TotalSignals != 3 || summary.TotalReflections != 1 || summary.ActiveDays != 2 {
		t.Errorf("summary wrong: %+v", summary)
	}
	if summary.ByDomain["craft"] != 2 {
		t.Errorf("expected craft=2 (signal + reflection), got %d", summary.ByDomain["craft"])
	}
	if summary.ByDomain["health"] != 1 || summary.ByDomain["mind"] != 1 {
		t.Errorf("domain breakdown wrong: %+v", summary.ByDomain)
	}
	if summary.ByDomain["uncategorized"] != 1 {
		t.Errorf("signal with no category should fall back to uncategorized, got %+v", summary.ByDomain)
	}
}
