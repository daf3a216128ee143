package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/planforge/planforge/internal/api"
	"github.com/planforge/planforge/internal/config"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Interrupt a running orchestration turn",
	Long: `Writes a stop signal to the data directory. A running turn checks
for it between planning and execution and fails fast when set. Use
--clear to remove a previously sent signal.`,
	RunE: runStop,
}

func init() {
	stopCmd.Flags().Bool("clear", false, "clear a previously sent stop signal")
}

func runStop(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	sm, err := api.NewSignalManager(cfg.DataDir())
	if err != nil {
		return err
	}
	defer sm.Close()

	if clear, _ := cmd.Flags().GetBool("clear"); clear {
		sm.Clear()
		fmt.Fprintln(cmd.OutOrStdout(), "stop signal cleared")
		return nil
	}
	if err := sm.SendStop(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "stop signal sent")
	return nil
}
