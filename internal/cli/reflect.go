package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	reflectCmd.Flags().StringSliceVarP(&reflectDomains, "domains", "d", nil, "Life domains this reflection touches (required)")
	rootCmd.AddCommand(reflectCmd)
}

var reflectDomains []string

var reflectCmd = &cobra.Command{
	Use:   "reflect <text>",
	Short: "Record an end-of-day reflection",
	Long: `Record a reflection tagged with the life domains it touches.
Reflections earn full XP regardless of how many signals you logged
today; only the daily cap limits them.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runReflect,
}

func runReflect(cmd *cobra.Command, args []string) error {
	if len(reflectDomains) == 0 {
		return fmt.Errorf("at least one --domains tag is required")
	}

	d, svc, err := openService()
	if err != nil {
		return err
	}
	defer d.Close()

	receipt, err := svc.SubmitReflection(flagUser, strings.Join(args, " "), reflectDomains)
	if err != nil {
		return err
	}

	fmt.Println("Reflection recorded")
	printAwards(receipt.Award, receipt.StreakBonus, 0, 0, receipt.CompletedQuests)
	if receipt.Streak.Extended {
		fmt.Printf("Streak: %d day(s)\n", receipt.Streak.CurrentStreak)
	}
	fmt.Printf("Total: %d XP\n", receipt.TotalXP)
	return nil
}
