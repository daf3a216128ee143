package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/planforge/planforge/internal/api"
	"github.com/planforge/planforge/pkg/models"
)

// agentDependencies maps an agent to the agents whose output it builds
// on. When a turn selects both ends of a dependency, the tasks must run
// sequentially so the consumer sees the producer's analysis.
var agentDependencies = map[string][]string{
	"financial_modeler": {"market_analyst"},
	"gtm_strategist":    {"customer_profiler", "financial_modeler", "market_analyst"},
	"risk_assessor":     {"financial_modeler"},
}

// sequentialHints are message fragments that signal the user wants a
// built-up answer rather than independent perspectives.
var sequentialHints = []string{
	"step by step",
	"based on",
	"and then",
	"full plan",
	"complete plan",
	"roadmap",
}

// IntentAnalyzer determines the goal and execution mode for a turn.
// It is heuristic-first: agent dependencies and message phrasing decide
// the mode, and a model is consulted only to refine the goal summary
// when one is configured. Analysis never fails a turn.
type IntentAnalyzer struct {
	completer api.Completer
	logger    *DebugLogger
}

// NewIntentAnalyzer creates an analyzer. The completer may be nil, in
// which case analysis is purely heuristic.
func NewIntentAnalyzer(completer api.Completer, logger *DebugLogger) *IntentAnalyzer {
	return &IntentAnalyzer{completer: completer, logger: logger}
}

// Analyze classifies the user's message into an Intent for the given
// selected agents. It always returns a valid Intent; when nothing can
// be determined it falls back to sequential execution, the safe order
// for dependent analyses.
func (a *IntentAnalyzer) Analyze(ctx context.Context, message string, convo models.ConversationContext, agentIDs []string) models.Intent {
	intent := models.Intent{
		Goal:          summarizeGoal(message),
		ExecutionMode: models.ModeSequential,
		Rationale:     "defaulted to sequential execution",
	}
	if len(agentIDs) == 0 {
		return intent
	}

	if pair, ok := dependentPair(agentIDs); ok {
		intent.ExecutionMode = models.ModeSequential
		intent.Rationale = fmt.Sprintf("%s builds on %s output", pair[1], pair[0])
	} else if hint := sequentialHint(message); hint != "" {
		intent.ExecutionMode = models.ModeSequential
		intent.Rationale = fmt.Sprintf("message asks for a built-up answer (%q)", hint)
	} else {
		intent.ExecutionMode = models.ModeParallel
		intent.Rationale = "selected agents analyze independent aspects"
	}

	if a.completer != nil {
		if refined, err := a.refineGoal(ctx, message, convo); err == nil && refined != "" {
			intent.Goal = refined
		} else if err != nil {
			a.logger.Log("intent: goal refinement failed, keeping heuristic goal: %v", err)
		}
	}

	a.logger.Log("intent: mode=%s goal=%q rationale=%q", intent.ExecutionMode, intent.Goal, intent.Rationale)
	return intent
}

// dependentPair returns the first (producer, consumer) pair found among
// the selected agents.
func dependentPair(agentIDs []string) ([2]string, bool) {
	selected := make(map[string]bool, len(agentIDs))
	for _, id := range agentIDs {
		selected[id] = true
	}
	for _, consumer := range agentIDs {
		for _, producer := range agentDependencies[consumer] {
			if selected[producer] {
				return [2]string{producer, consumer}, true
			}
		}
	}
	return [2]string{}, false
}

func sequentialHint(message string) string {
	lower := strings.ToLower(message)
	for _, hint := range sequentialHints {
		if strings.Contains(lower, hint) {
			return hint
		}
	}
	return ""
}

// summarizeGoal produces a short goal from the raw message: the first
// sentence, capped at 160 runes.
func summarizeGoal(message string) string {
	msg := strings.TrimSpace(message)
	if msg == "" {
		return "continue the business planning conversation"
	}
	if idx := strings.IndexAny(msg, ".!?\n"); idx > 0 {
		msg = msg[:idx]
	}
	runes := []rune(msg)
	if len(runes) > 160 {
		msg = string(runes[:160])
	}
	return msg
}

// refineGoal asks the model for a one-line restatement of what the
// user wants this turn.
func (a *IntentAnalyzer) refineGoal(ctx context.Context, message string, convo models.ConversationContext) (string, error) {
	prompt := fmt.Sprintf("Restate the user's request as a single short goal sentence for a business planning assistant. Reply with JSON: {\"goal\": \"...\"}\n\nUser message: %s", message)

	resp, err := a.completer.Complete(ctx, api.CompletionRequest{
		System:    "You classify user requests for a business planning assistant. Reply only with JSON.",
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
		MaxTokens: 256,
	})
	if err != nil {
		return "", err
	}

	var parsed struct {
		Goal string `json:"goal"`
	}
	text := strings.TrimSpace(resp.Text)
	if err := json.Unmarshal([]byte(extractJSON(text)), &parsed); err != nil {
		return "", fmt.Errorf("parse intent response: %w", err)
	}
	return strings.TrimSpace(parsed.Goal), nil
}

// extractJSON pulls the first JSON object out of a response that may
// carry surrounding prose or a code fence.
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}
