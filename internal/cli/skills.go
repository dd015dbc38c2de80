package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tendlog/tend/internal/domain"
)

func init() {
	skillsCmd.AddCommand(skillsAddCmd)
	rootCmd.AddCommand(skillsCmd)
}

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "List registered subskills",
	RunE:  runSkills,
}

var skillsAddCmd = &cobra.Command{
	Use:   "add <id> <name> <category>",
	Short: "Register a subskill",
	Args:  cobra.ExactArgs(3),
	RunE:  runSkillsAdd,
}

func runSkills(cmd *cobra.Command, args []string) error {
	d, svc, err := openService()
	if err != nil {
		return err
	}
	defer d.Close()

	subs, err := svc.Subskills()
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		fmt.Println("No subskills yet. Run 'tend skills add <id> <name> <category>' to get started.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY")
	for _, s := range subs {
		fmt.Fprintf(w, "%s\t%s\t%s\n", s.ID, s.Name, s.Category)
	}
	return w.Flush()
}

func runSkillsAdd(cmd *cobra.Command, args []string) error {
	d, svc, err := openService()
	if err != nil {
		return err
	}
	defer d.Close()

	sub := domain.Subskill{ID: args[0], Name: args[1], Category: args[2]}
	if err := svc.UpsertSubskill(sub); err != nil {
		return err
	}
	fmt.Printf("Registered %s (%s)\n", sub.Name, sub.ID)
	return nil
}
