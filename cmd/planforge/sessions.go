package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List planning sessions",
	RunE:  runSessions,
}

func runSessions(cmd *cobra.Command, args []string) error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	sessions, err := rt.db.ListSessions()
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no sessions yet, run 'planforge chat' to start one")
		return nil
	}

	out := cmd.OutOrStdout()
	dim := color.New(color.Faint)
	for _, s := range sessions {
		phase := "done"
		if p := rt.catalog.PhaseAt(s.Context.CurrentPhaseIndex); p != nil {
			phase = p.Name
		}
		fmt.Fprintf(out, "%s", s.ID)
		dim.Fprintf(out, "  %s  %d answers  updated %s\n",
			phase, len(s.Context.Answers), s.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}
