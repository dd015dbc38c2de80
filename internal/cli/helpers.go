package cli

import (
	"fmt"
	"strings"

	"github.com/tendlog/tend/internal/app/progression"
	"github.com/tendlog/tend/internal/daemon"
	"github.com/tendlog/tend/internal/domain"
)

// openService builds the daemon in-process so commands work without a
// running server. Caller must Close the returned daemon.
func openService() (*daemon.Daemon, *progression.Service, error) {
	d, err := daemon.New()
	if err != nil {
		return nil, nil, err
	}
	return d, d.Service, nil
}

// printAwards renders one write receipt's XP lines.
func printAwards(award progression.Award, streakBonus, varietyBonus, artifactBonus int64, quests []domain.QuestProgress) {
	if award.Amount > 0 {
		fmt.Printf("+%d XP", award.Amount)
		if award.Capped {
			fmt.Print(" (daily cap reached)")
		}
		fmt.Println()
	} else if award.Capped {
		fmt.Println("+0 XP (daily cap reached)")
	} else {
		fmt.Println("+0 XP (diminishing returns)")
	}
	if streakBonus > 0 {
		fmt.Printf("+%d XP streak bonus\n", streakBonus)
	}
	if varietyBonus > 0 {
		fmt.Printf("+%d XP variety bonus\n", varietyBonus)
	}
	if artifactBonus > 0 {
		fmt.Printf("+%d XP artifact bonus\n", artifactBonus)
	}
	for _, q := range quests {
		fmt.Printf("Quest complete: %s\n", q.QuestID)
	}
}

// progressBarString renders a fixed-width fill bar for level progress.
func progressBarString(frac float64, width int) string {
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	filled := int(frac * float64(width))
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}
