package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/goalguard/internal/output"
	"github.com/jmylchreest/goalguard/pkg/store"
)

var goalsCmd = &cobra.Command{
	Use:   "goals",
	Short: "Manage the goals pages are judged against",
}

var goalsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List goals",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		return printResult(cmd, goalList(a.svc.Goals(cmd.Context())))
	},
}

var goalsAddCmd = &cobra.Command{
	Use:   "add <text>",
	Short: "Add an active goal",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		g, err := a.svc.AddGoal(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		return printResult(cmd, goalView(g))
	},
}

var goalsEnableCmd = &cobra.Command{
	Use:   "enable <id>",
	Short: "Mark a goal active",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setGoalActive(cmd, args[0], true) },
}

var goalsDisableCmd = &cobra.Command{
	Use:   "disable <id>",
	Short: "Mark a goal inactive",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setGoalActive(cmd, args[0], false) },
}

var goalsRemoveCmd = &cobra.Command{
	Use:     "remove <id>",
	Aliases: []string{"rm", "delete"},
	Short:   "Delete a goal",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		g, err := a.svc.DeleteGoal(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		logInfo("Removed %q", g.Text)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(goalsCmd)
	goalsCmd.AddCommand(goalsListCmd, goalsAddCmd, goalsEnableCmd, goalsDisableCmd, goalsRemoveCmd)
}

func setGoalActive(cmd *cobra.Command, id string, active bool) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	g, err := a.svc.SetGoalActive(cmd.Context(), id, active)
	if err != nil {
		return err
	}
	return printResult(cmd, goalView(g))
}

// goalView renders a single goal.
type goalView store.Goal

func (g goalView) WriteText(w io.Writer) error {
	return goalList{store.Goal(g)}.WriteText(w)
}

// goalList renders goals as a table with relative creation times.
type goalList []store.Goal

func (l goalList) WriteText(w io.Writer) error {
	if len(l) == 0 {
		_, err := fmt.Fprintln(w, "No goals yet. Add one with: goalguard goals add \"...\"")
		return err
	}
	rows := [][]string{{"ID", "ACTIVE", "CREATED", "GOAL"}}
	for _, g := range l {
		active := "no"
		if g.IsActive {
			active = "yes"
		}
		rows = append(rows, []string{g.ID, active, humanize.Time(g.CreatedAt), g.Text})
	}
	return output.Table(w, rows)
}
