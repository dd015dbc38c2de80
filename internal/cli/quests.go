package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(questsCmd)
}

var questsCmd = &cobra.Command{
	Use:   "quests",
	Short: "Show the current quest board",
	RunE:  runQuests,
}

func runQuests(cmd *cobra.Command, args []string) error {
	d, svc, err := openService()
	if err != nil {
		return err
	}
	defer d.Close()

	board, err := svc.QuestBoard(flagUser, time.Now())
	if err != nil {
		return err
	}
	if len(board) == 0 {
		fmt.Println("No quests configured.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "QUEST\tPROGRESS\tSTATUS")
	for _, q := range board {
		status := "open"
		switch {
		case q.NewlyCompleted:
			status = "completed just now"
		case q.IsCompleted:
			status = "done"
		}
		fmt.Fprintf(w, "%s\t%d/%d\t%s\n", q.QuestID, q.Progress, q.Target, status)
	}
	return w.Flush()
}
