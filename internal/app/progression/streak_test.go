package progression_test

import (
	"testing"
	"time"

	"github.com/tendlog/tend/internal/app/progression"
	"github.com/tendlog/tend/internal/domain"
)

func TestAdvanceStreak_FirstActivity(t *testing.T) {
	rules := domain.DefaultAccrualRules()
	day := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	p, res := progression.AdvanceStreak(domain.UserProgress{UserID: "u1"}, day, rules)
	if res.CurrentStreak != 1 || res.LongestStreak != 1 {
		t.Errorf("expected streak 1/1, got %d/%d", res.CurrentStreak, res.LongestStreak)
	}
	if !res.Extended {
		t.Error("first activity should extend the streak")
	}
	if res.BonusXP != 5 {
		t.Errorf("expected bonus 5, got %d", res.BonusXP)
	}
	if !domain.SameDay(p.LastLogDate, day) {
		t.Errorf("last log date not advanced: %v", p.LastLogDate)
	}
}

func TestAdvanceStreak_ConsecutiveDayIncrements(t *testing.T) {
	rules := domain.DefaultAccrualRules()
	p := domain.UserProgress{
		UserID:        "u1",
		CurrentStreak: 3,
		LongestStreak: 3,
		LastLogDate:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	_, res := progression.AdvanceStreak(p, time.Date(2026, 3, 2, 22, 0, 0, 0, time.UTC), rules)
	if res.CurrentStreak != 4 {
		t.Errorf("expected streak 4, got %d", res.CurrentStreak)
	}
	if res.LongestStreak != 4 {
		t.Errorf("expected longest 4, got %d", res.LongestStreak)
	}
	if res.BonusXP != 20 {
		t.Errorf("expected bonus 20, got %d", res.BonusXP)
	}
}

func TestAdvanceStreak_SameDayIsNoOp(t *testing.T) {
	rules := domain.DefaultAccrualRules()
	p := domain.UserProgress{
		UserID:        "u1",
		CurrentStreak: 4,
		LongestStreak: 6,
		LastLogDate:   time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
	}

	p2, res := progression.AdvanceStreak(p, time.Date(2026, 3, 2, 18, 30, 0, 0, time.UTC), rules)
	if res.CurrentStreak != 4 || res.LongestStreak != 6 {
		t.Errorf("same-day activity changed streak: %d/%d", res.CurrentStreak, res.LongestStreak)
	}
	if res.Extended {
		t.Error("same-day activity must not extend")
	}
	if res.BonusXP != 0 {
		t.Errorf("same-day activity must not re-earn the bonus, got %d", res.BonusXP)
	}
	if p2.CurrentStreak != 4 {
		t.Errorf("progress mutated on same-day activity: %d", p2.CurrentStreak)
	}
}

func TestAdvanceStreak_GapResets(t *testing.T) {
	rules := domain.DefaultAccrualRules()
	p := domain.UserProgress{
		UserID:        "u1",
		CurrentStreak: 9,
		LongestStreak: 9,
		LastLogDate:   time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
	}

	_, res := progression.AdvanceStreak(p, time.Date(2026, 3, 7, 8, 0, 0, 0, time.UTC), rules)
	if res.CurrentStreak != 1 {
		t.Errorf("expected reset to 1 after a gap, got %d", res.CurrentStreak)
	}
	if res.LongestStreak != 9 {
		t.Errorf("longest streak must survive the reset, got %d", res.LongestStreak)
	}
	if !res.Extended {
		t.Error("day one of a new streak still extends")
	}
}

func TestAdvanceStreak_MidnightBoundary(t *testing.T) {
	rules := domain.DefaultAccrualRules()
	p := domain.UserProgress{
		UserID:        "u1",
		CurrentStreak: 1,
		LongestStreak: 1,
		LastLogDate:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	// 23:59 on March 1 vs 00:01 on March 2 are different days.
	_, res := progression.AdvanceStreak(p, time.Date(2026, 3, 2, 0, 1, 0, 0, time.UTC), rules)
	if res.CurrentStreak != 2 {
		t.Errorf("expected one minute past midnight to count as the next day, got streak %d", res.CurrentStreak)
	}
}
