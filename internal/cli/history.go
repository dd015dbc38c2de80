package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Entries to show")
	rootCmd.AddCommand(historyCmd)
}

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent XP ledger entries",
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	d, svc, err := openService()
	if err != nil {
		return err
	}
	defer d.Close()

	entries, err := svc.History(flagUser, historyLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No XP earned yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tXP\tSOURCE\tDETAIL")
	for _, e := range entries {
		detail := e.SubskillID
		if e.QuestKey != "" {
			detail = e.QuestKey
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n",
			e.CreatedAt.Format("2006-01-02 15:04"), e.Amount, e.Source, detail)
	}
	return w.Flush()
}
