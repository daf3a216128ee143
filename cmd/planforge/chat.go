package main

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/planforge/planforge/internal/flow"
	"github.com/planforge/planforge/internal/state"
	"github.com/planforge/planforge/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start or resume an interactive planning session",
	Long: `Opens the planning chat. The assistant walks through the phase
questions one at a time; prefix a message with /chat to ask the
specialist agents a free-form question at any point.

By default a new session is created. Pass --session to resume one
(see 'planforge sessions' for IDs).`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().String("session", "", "session ID to resume")
}

func runChat(cmd *cobra.Command, args []string) error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	session, err := resolveSession(cmd, rt)
	if err != nil {
		return err
	}

	app := tui.NewChatApp(rt.db, session, flow.NewNavigator(rt.catalog), rt.orch)
	program := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("chat ui: %w", err)
	}
	return nil
}

func resolveSession(cmd *cobra.Command, rt *runtime) (*state.Session, error) {
	id, _ := cmd.Flags().GetString("session")
	if id == "" {
		return rt.db.CreateSession(sessionLanguage(cmd, rt.cfg))
	}
	session, err := rt.db.GetSession(id)
	if errors.Is(err, state.ErrSessionNotFound) {
		return nil, fmt.Errorf("no session %q, run 'planforge sessions' to list known ones", id)
	}
	return session, err
}
