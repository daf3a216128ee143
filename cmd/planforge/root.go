package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/spf13/cobra"

	"github.com/planforge/planforge/internal/api"
	"github.com/planforge/planforge/internal/catalog"
	"github.com/planforge/planforge/internal/config"
	"github.com/planforge/planforge/internal/orchestrator"
	"github.com/planforge/planforge/internal/skills"
	"github.com/planforge/planforge/internal/state"
)

var rootCmd = &cobra.Command{
	Use:   "planforge",
	Short: "Multi-agent business planning assistant",
	Long: `Planforge guides a founder through a phased business planning
conversation. A catalog of specialist agents (market analyst, financial
modeler, go-to-market strategist and more) is orchestrated per turn:
intent analysis picks an execution mode, agents run with finance and
market-sizing tools, and their outputs are synthesized into one answer.

With no arguments, launches the interactive planning chat.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd, args)
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("language", "", "BCP 47 language tag for responses (e.g. en-US, de-DE)")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}

// runtime bundles the wired components the commands share.
type runtime struct {
	cfg      *config.Config
	registry *skills.Registry
	catalog  *catalog.Catalog
	client   *api.Client
	orch     *orchestrator.Orchestrator
	db       *state.DB
	signals  *api.SignalManager
	logger   *orchestrator.DebugLogger
}

// buildRuntime wires configuration, catalog, model client, store and
// orchestrator for a command invocation.
func buildRuntime() (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	registry := skills.NewRegistry()

	var cat *catalog.Catalog
	if cfg.Catalog.PhasesPath != "" && cfg.Catalog.AgentsPath != "" {
		cat, err = catalog.Load(cfg.Catalog.PhasesPath, cfg.Catalog.AgentsPath, registry)
	} else {
		cat, err = catalog.Default(registry)
	}
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	client, err := api.NewClient(api.ClientConfig{
		Model:         anthropic.Model(cfg.Anthropic.Model),
		APIKey:        cfg.Anthropic.APIKey,
		UseAWSBedrock: cfg.Anthropic.UseBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
	})
	if err != nil {
		return nil, err
	}

	dataDir := cfg.DataDir()
	logger := orchestrator.NewDebugLoggerForDataDir(dataDir)

	signals, err := api.NewSignalManager(dataDir)
	if err != nil {
		return nil, fmt.Errorf("init signals: %w", err)
	}

	orch, err := orchestrator.New(orchestrator.Config{
		Completer:         client,
		Registry:          registry,
		Catalog:           cat,
		TurnTimeout:       cfg.Orchestrator.TurnTimeout,
		TaskTimeout:       cfg.Orchestrator.TaskTimeout,
		MaxToolIterations: cfg.Orchestrator.MaxToolIterations,
		RetryBackoff:      cfg.Orchestrator.RetryBackoff,
		Logger:            logger,
		Signals:           signals,
	})
	if err != nil {
		return nil, err
	}

	db, err := state.Open(filepath.Join(dataDir, "planforge.db"))
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &runtime{
		cfg:      cfg,
		registry: registry,
		catalog:  cat,
		client:   client,
		orch:     orch,
		db:       db,
		signals:  signals,
		logger:   logger,
	}, nil
}

// Close releases the runtime's resources.
func (rt *runtime) Close() {
	rt.orch.Close()
	rt.signals.Close()
	rt.logger.Close()
	rt.db.Close()
}

// sessionLanguage resolves the language for a new session from the
// --language flag or the configured default.
func sessionLanguage(cmd *cobra.Command, cfg *config.Config) string {
	if lang, _ := cmd.Flags().GetString("language"); lang != "" {
		return lang
	}
	return cfg.Session.Language
}
