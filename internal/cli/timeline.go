package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tendlog/tend/internal/app/progression"
)

func init() {
	timelineCmd.Flags().IntVar(&timelineDays, "days", 7, "Days to include, ending today")
	activityCmd.Flags().IntVar(&activityDays, "days", 30, "Days to include, ending today")
	rootCmd.AddCommand(timelineCmd)
	rootCmd.AddCommand(activityCmd)
}

var (
	timelineDays int
	activityDays int
)

var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Show daily XP over the recent past",
	RunE:  runTimeline,
}

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Show the daily activity heatmap",
	RunE:  runActivity,
}

func trailingRange(days int) progression.DateRange {
	now := time.Now()
	return progression.DateRange{Start: now.AddDate(0, 0, -(days - 1)), End: now}
}

func runTimeline(cmd *cobra.Command, args []string) error {
	d, svc, err := openService()
	if err != nil {
		return err
	}
	defer d.Close()

	days, summary, err := svc.Timeline(flagUser, trailingRange(timelineDays))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tXP\tSIGNAL\tREFLECT\tQUEST\tSTREAK\tBONUS")
	for _, day := range days {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%d\n",
			day.Date.Format("2006-01-02"),
			day.TotalXP,
			day.Sources.Signal,
			day.Sources.Reflection,
			day.Sources.Quest,
			day.Sources.Streak,
			day.Sources.Bonus,
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\n%d XP over %d active day(s)", summary.TotalXP, summary.ActiveDays)
	if summary.BestDay != nil {
		fmt.Printf(", best %s (%d XP)", summary.BestDay.Date.Format("2006-01-02"), summary.BestDay.TotalXP)
	}
	fmt.Println()
	return nil
}

// heatGlyphs maps activity levels 0..4 to terminal shades.
var heatGlyphs = []string{"·", "░", "▒", "▓", "█"}

func runActivity(cmd *cobra.Command, args []string) error {
	d, svc, err := openService()
	if err != nil {
		return err
	}
	defer d.Close()

	days, summary, err := svc.Activity(flagUser, trailingRange(activityDays))
	if err != nil {
		return err
	}

	for _, day := range days {
		glyph := heatGlyphs[0]
		if day.Level >= 0 && day.Level < len(heatGlyphs) {
			glyph = heatGlyphs[day.Level]
		}
		fmt.Print(glyph)
	}
	fmt.Println()

	fmt.Printf("%d signal(s), %d reflection(s) across %d active day(s)\n",
		summary.TotalSignals, summary.TotalReflections, summary.ActiveDays)
	for dom, n := range summary.ByDomain {
		fmt.Printf("  %s: %d\n", dom, n)
	}
	return nil
}
