package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/planforge/planforge/pkg/models"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the specialist agents a one-shot question",
	Long: `Runs a single orchestrated turn outside the interactive chat and
prints the synthesized answer. Pass --session to ask in the context of
an existing session's answers; otherwise a fresh session is created.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().String("session", "", "session ID to ask within")
	askCmd.Flags().Bool("verbose", false, "show per-agent results and tool calls")
}

func runAsk(cmd *cobra.Command, args []string) error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	session, err := resolveSession(cmd, rt)
	if err != nil {
		return err
	}

	message := strings.Join(args, " ")
	result, err := rt.orch.Orchestrate(cmd.Context(), message, session.Context)
	if err != nil {
		return err
	}
	if err := rt.db.AppendTurn(session.ID, message, result); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: could not record turn: %v\n", err)
	}

	fmt.Println(result.Synthesis)

	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		printTurnDetail(cmd, result)
	}
	return nil
}

func printTurnDetail(cmd *cobra.Command, result *models.OrchestrationResult) {
	out := cmd.OutOrStdout()
	dim := color.New(color.Faint)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	fmt.Fprintln(out)
	dim.Fprintf(out, "mode: %s  goal: %s  (%dms)\n",
		result.Intent.ExecutionMode, result.Intent.Goal, result.TotalDurationMs)
	for _, r := range result.AgentResults {
		if r.Success {
			green.Fprintf(out, "✓ %s", r.AgentID)
		} else {
			red.Fprintf(out, "✗ %s: %s", r.AgentID, r.Error)
		}
		dim.Fprintf(out, " (%dms)\n", r.DurationMs)
		for _, tc := range r.ToolCalls {
			if tc.Error != "" {
				red.Fprintf(out, "    tool %s failed: %s\n", tc.SkillName, tc.Error)
			} else {
				dim.Fprintf(out, "    tool %s (%dms)\n", tc.SkillName, tc.DurationMs)
			}
		}
	}
}
