package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/planforge/planforge/internal/catalog"
	"github.com/planforge/planforge/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the starter config and catalog files",
	Long: `Creates the user config file and copies the built-in phase and
agent catalogs next to it, so they can be edited. The config is updated
to point at the copied catalogs.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().Bool("force", false, "overwrite existing files")
}

func runInit(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	configDir := filepath.Dir(config.GetUserConfigPath())
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	phasesPath := filepath.Join(configDir, "phases.yaml")
	agentsPath := filepath.Join(configDir, "agents.yaml")
	if err := writeStarterFile(phasesPath, catalog.DefaultPhasesYAML, force); err != nil {
		return err
	}
	if err := writeStarterFile(agentsPath, catalog.DefaultAgentsYAML, force); err != nil {
		return err
	}

	cfg.Catalog.PhasesPath = phasesPath
	cfg.Catalog.AgentsPath = agentsPath
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	green := color.New(color.FgGreen)
	green.Fprintf(cmd.OutOrStdout(), "✓ wrote %s\n", config.GetUserConfigPath())
	green.Fprintf(cmd.OutOrStdout(), "✓ wrote %s\n", phasesPath)
	green.Fprintf(cmd.OutOrStdout(), "✓ wrote %s\n", agentsPath)
	if cfg.Anthropic.APIKey == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "set ANTHROPIC_API_KEY or anthropic.api_key in the config to enable the agents")
	}
	return nil
}

func writeStarterFile(path, content string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists, use --force to overwrite", path)
		}
	}
	return os.WriteFile(path, []byte(content), 0644)
}
