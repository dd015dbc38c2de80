package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tendlog/tend/internal/app/insight"
)

func init() {
	rootCmd.AddCommand(insightCmd)
}

var insightCmd = &cobra.Command{
	Use:   "insight",
	Short: "Ask the coaching collaborator for an observation",
	Long: `Send your recent reflections, streak, and skill activity to the
configured chat-completions endpoint and print its short coaching note.
Requires insight.base_url in config.toml or TEND_INSIGHT_BASE_URL.`,
	RunE: runInsight,
}

func runInsight(cmd *cobra.Command, args []string) error {
	d, svc, err := openService()
	if err != nil {
		return err
	}
	defer d.Close()

	if !d.Insight.Enabled() {
		return fmt.Errorf("no insight collaborator configured")
	}

	view, err := svc.Progress(flagUser)
	if err != nil {
		return err
	}
	reflections, err := svc.RecentReflections(flagUser, 5)
	if err != nil {
		return err
	}

	var topSkills []string
	for i, sv := range view.Skills {
		if i == 3 {
			break
		}
		name := sv.Subskill.Name
		if name == "" {
			name = sv.Progress.SubskillID
		}
		topSkills = append(topSkills, name)
	}

	text, err := d.Insight.Generate(cmd.Context(), flagUser, insight.Snapshot{
		CurrentStreak: view.User.CurrentStreak,
		TotalXP:       view.User.TotalXP,
		OverallLevel:  view.OverallLevel,
		Reflections:   reflections,
		TopSkills:     topSkills,
	})
	if err != nil {
		return err
	}

	fmt.Println(text)
	return nil
}
