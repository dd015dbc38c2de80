package progression_test

import (
	"errors"
	"testing"

	"github.com/tendlog/tend/internal/app/progression"
	"github.com/tendlog/tend/internal/domain"
)

func TestLevelFor_TableLookup(t *testing.T) {
	table := progression.DefaultLevelTable()

	cases := []struct {
		xp        int64
		wantLevel int
		wantName  string
	}{
		{0, 1, "Novice"},
		{49, 1, "Novice"},
		{50, 2, "Apprentice"},
		{119, 2, "Apprentice"},
		{120, 3, "Practitioner"},
		{2500, 10, "Luminary"},
		{99999, 10, "Luminary"},
	}
	for _, c := range cases {
		sl, err := progression.LevelFor(c.xp, table)
		if err != nil {
			t.Fatalf("xp %d: %v", c.xp, err)
		}
		if sl.Level != c.wantLevel || sl.Name != c.wantName {
			t.Errorf("xp %d: expected level %d %q, got %d %q", c.xp, c.wantLevel, c.wantName, sl.Level, sl.Name)
		}
	}
}

func TestLevelFor_Progress(t *testing.T) {
	table := progression.DefaultLevelTable()

	// Halfway from Novice (0) to Apprentice (50).
	sl, err := progression.LevelFor(25, table)
	if err != nil {
		t.Fatalf("level: %v", err)
	}
	if sl.Progress != 0.5 {
		t.Errorf("expected progress 0.5, got %v", sl.Progress)
	}
	if sl.NextThreshold != 50 {
		t.Errorf("expected next threshold 50, got %d", sl.NextThreshold)
	}

	// Top of the table pins progress at 1.
	sl, err = progression.LevelFor(9000, table)
	if err != nil {
		t.Fatalf("level: %v", err)
	}
	if sl.Progress != 1 {
		t.Errorf("expected progress 1 at the top level, got %v", sl.Progress)
	}
}

func TestLevelFor_NegativeXPClamps(t *testing.T) {
	sl, err := progression.LevelFor(-10, progression.DefaultLevelTable())
	if err != nil {
		t.Fatalf("level: %v", err)
	}
	if sl.Level != 1 {
		t.Errorf("expected level 1 for negative XP, got %d", sl.Level)
	}
}

func TestLevelFor_EmptyTable(t *testing.T) {
	_, err := progression.LevelFor(10, nil)
	if !errors.Is(err, domain.ErrEmptyLevelTable) {
		t.Errorf("expected ErrEmptyLevelTable, got %v", err)
	}
}

func TestOverallLevel(t *testing.T) {
	cases := []struct {
		xp   int64
		want int
	}{
		{0, 1},
		{999, 1},
		{1000, 2},
		{2500, 3},
		{10000, 11},
	}
	for _, c := range cases {
		if got := progression.OverallLevel(c.xp, 1000); got != c.want {
			t.Errorf("xp %d: expected overall level %d, got %d", c.xp, c.want, got)
		}
	}
}

func TestOverallLevel_DistinctFromSkillLevel(t *testing.T) {
	// 1000 XP is overall level 2 but skill level 7 (Expert) — the two
	// scales are independent.
	overall := progression.OverallLevel(1000, 1000)
	skill, err := progression.LevelFor(1000, progression.DefaultLevelTable())
	if err != nil {
		t.Fatalf("level: %v", err)
	}
	if overall != 2 {
		t.Errorf("expected overall 2, got %d", overall)
	}
	if skill.Level != 7 {
		t.Errorf("expected skill level 7, got %d", skill.Level)
	}
}
