package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/planforge/planforge/internal/catalog"
	"github.com/planforge/planforge/internal/config"
	"github.com/planforge/planforge/internal/skills"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and validate the phase and agent catalogs",
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configured catalogs and report every violation",
	RunE:  runCatalogValidate,
}

var catalogAgentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the agents in the configured catalog",
	RunE:  runCatalogAgents,
}

func init() {
	catalogCmd.AddCommand(catalogValidateCmd)
	catalogCmd.AddCommand(catalogAgentsCmd)
}

func loadCatalogUnvalidated(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.Catalog.PhasesPath != "" && cfg.Catalog.AgentsPath != "" {
		return catalog.LoadUnvalidated(cfg.Catalog.PhasesPath, cfg.Catalog.AgentsPath)
	}
	return catalog.Default(skills.NewRegistry())
}

func runCatalogValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cat, err := loadCatalogUnvalidated(cfg)
	if err != nil {
		return err
	}

	errs := cat.Validate(skills.NewRegistry())
	if len(errs) == 0 {
		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(),
			"✓ catalog is valid (%d phases, %d agents)\n", len(cat.Phases), len(cat.Agents))
		return nil
	}

	red := color.New(color.FgRed)
	for _, e := range errs {
		red.Fprintf(cmd.ErrOrStderr(), "✗ %v\n", e)
	}
	return fmt.Errorf("catalog validation failed with %d error(s)", len(errs))
}

func runCatalogAgents(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cat, err := loadCatalogUnvalidated(cfg)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(cat.Agents))
	for id := range cat.Agents {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := cmd.OutOrStdout()
	bold := color.New(color.Bold)
	dim := color.New(color.Faint)
	for _, id := range ids {
		a := cat.Agents[id]
		bold.Fprintf(out, "%s", a.ID)
		fmt.Fprintf(out, "  %s\n", a.DisplayName)
		if len(a.AllowedSkills) > 0 {
			dim.Fprintf(out, "    skills: %s\n", strings.Join(a.AllowedSkills, ", "))
		}
	}
	return nil
}
