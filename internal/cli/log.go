package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	logCmd.Flags().StringVarP(&logNote, "note", "n", "", "Short note about the effort")
	logCmd.Flags().StringVarP(&logArtifact, "artifact", "a", "", "Link to produced evidence (URL)")
	rootCmd.AddCommand(logCmd)
}

var (
	logNote     string
	logArtifact string
)

var logCmd = &cobra.Command{
	Use:   "log <subskill>",
	Short: "Log a practice signal against a subskill",
	Long: `Log one unit of deliberate effort. Repeated signals for the same
subskill on one day earn progressively less, and all XP counts toward
the shared daily cap.`,
	Args: cobra.ExactArgs(1),
	RunE: runLog,
}

func runLog(cmd *cobra.Command, args []string) error {
	d, svc, err := openService()
	if err != nil {
		return err
	}
	defer d.Close()

	receipt, err := svc.LogSignal(flagUser, args[0], logNote, logArtifact)
	if err != nil {
		return err
	}

	fmt.Printf("Logged %s\n", args[0])
	printAwards(receipt.Award, receipt.StreakBonus, receipt.VarietyBonus, receipt.ArtifactBonus, receipt.CompletedQuests)
	if receipt.Streak.Extended {
		fmt.Printf("Streak: %d day(s)\n", receipt.Streak.CurrentStreak)
	}
	fmt.Printf("Total: %d XP\n", receipt.TotalXP)
	return nil
}
