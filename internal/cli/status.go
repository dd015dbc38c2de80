package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show XP, streak, and per-skill levels",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	d, svc, err := openService()
	if err != nil {
		return err
	}
	defer d.Close()

	view, err := svc.Progress(flagUser)
	if err != nil {
		return err
	}

	fmt.Printf("Total XP: %d (level %d)\n", view.User.TotalXP, view.OverallLevel)
	fmt.Printf("Streak:   %d day(s) (longest %d)\n", view.User.CurrentStreak, view.User.LongestStreak)

	if len(view.Skills) == 0 {
		fmt.Println("\nNo skill activity yet. Log a signal with 'tend log <subskill>'.")
		return nil
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SKILL\tLEVEL\tXP\tPROGRESS")
	for _, sv := range view.Skills {
		name := sv.Subskill.Name
		if name == "" {
			name = sv.Progress.SubskillID
		}
		fmt.Fprintf(w, "%s\t%d %s\t%d\t%s %.0f%%\n",
			name,
			sv.Level.Level, sv.Level.Name,
			sv.Progress.XPEarned,
			progressBarString(sv.Level.Progress, 12),
			sv.Level.Progress*100,
		)
	}
	return w.Flush()
}
