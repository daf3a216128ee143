package main

import (
	"log"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/planforge/planforge/internal/ratelimit"
	"github.com/planforge/planforge/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Serves the planning API: session lifecycle, questionnaire
navigation, and orchestrated chat turns under /v1/sessions. Chat turns
are rate limited per session.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("listen", "", "listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	handler := server.New(server.Config{
		DB:           rt.db,
		Catalog:      rt.catalog,
		Orchestrator: rt.orch,
		Limiter:      ratelimit.New(serverLimits(rt)),
	})

	addr := rt.cfg.Server.ListenAddr
	if flagAddr, _ := cmd.Flags().GetString("listen"); flagAddr != "" {
		addr = flagAddr
	}

	log.Printf("[server] listening on %s", addr)
	return http.ListenAndServe(addr, handler)
}

// serverLimits maps the configured per-session limits onto the limiter's
// categories, keeping the built-in defaults for anything unset.
func serverLimits(rt *runtime) map[string]ratelimit.Limit {
	limits := make(map[string]ratelimit.Limit, len(ratelimit.DefaultLimits))
	for category, limit := range ratelimit.DefaultLimits {
		limits[category] = limit
	}
	if n := rt.cfg.Server.ChatTurnsPerMinute; n > 0 {
		limits["chat_turn"] = ratelimit.Limit{Requests: n, Window: time.Minute}
	}
	if n := rt.cfg.Server.PlanGenerationsPer5Min; n > 0 {
		limits["plan_generation"] = ratelimit.Limit{Requests: n, Window: 5 * time.Minute}
	}
	return limits
}
