package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/planforge/planforge/internal/api"
	"github.com/planforge/planforge/internal/catalog"
	"github.com/planforge/planforge/pkg/models"
)

// Synthesizer merges agent results into one user-facing response. It
// prefers a model-written merge when a completer is available and falls
// back to a deterministic concatenation when the merge call fails, so
// synthesis itself never fails a turn.
type Synthesizer struct {
	completer api.Completer
	catalog   *catalog.Catalog
	logger    *DebugLogger
}

// NewSynthesizer creates a synthesizer. The completer may be nil.
func NewSynthesizer(completer api.Completer, cat *catalog.Catalog, logger *DebugLogger) *Synthesizer {
	return &Synthesizer{completer: completer, catalog: cat, logger: logger}
}

// Synthesize produces the turn's response text in the target language.
// The result is always non-empty: partial failures are summarized as
// unavailable analyses, and a turn where every agent failed yields a
// safe fallback message. Internal error details never appear in the
// output.
func (s *Synthesizer) Synthesize(ctx context.Context, goal string, results []models.AgentResult, language string) string {
	var successes, failures []models.AgentResult
	for _, r := range results {
		if r.Success && strings.TrimSpace(r.OutputText) != "" {
			successes = append(successes, r)
		} else {
			failures = append(failures, r)
		}
	}

	if len(successes) == 0 {
		s.logger.Log("synthesis: all %d agents failed, returning fallback", len(results))
		return fallbackMessage(language)
	}

	if s.completer != nil {
		if merged, err := s.modelMerge(ctx, goal, successes, failures, language); err == nil && strings.TrimSpace(merged) != "" {
			return merged
		} else if err != nil {
			s.logger.Log("synthesis: model merge failed, using deterministic merge: %v", err)
		}
	}

	return s.deterministicMerge(successes, failures)
}

// modelMerge asks the model to weave the successful analyses into one
// coherent answer.
func (s *Synthesizer) modelMerge(ctx context.Context, goal string, successes, failures []models.AgentResult, language string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "The user's goal: %s\n\n", goal)
	b.WriteString("Merge the following specialist analyses into one coherent, well-structured answer. Do not mention the specialists, task IDs, or that multiple analyses were involved.\n")
	for _, r := range successes {
		fmt.Fprintf(&b, "\n--- %s ---\n%s\n", s.displayName(r.AgentID), r.OutputText)
	}
	if len(failures) > 0 {
		b.WriteString("\nSome perspectives are unavailable this turn. Briefly note that parts of the analysis will follow later, without technical detail.\n")
	}
	if language != "" {
		fmt.Fprintf(&b, "\nWrite the answer in the user's language: %s.\n", language)
	}

	resp, err := s.completer.Complete(ctx, api.CompletionRequest{
		System:   "You are the voice of a business planning assistant. You merge specialist analyses into a single clear response for the user.",
		Messages: []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(b.String()))},
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// deterministicMerge concatenates successful outputs under display-name
// headings and notes unavailable analyses without error detail.
func (s *Synthesizer) deterministicMerge(successes, failures []models.AgentResult) string {
	var b strings.Builder
	for i, r := range successes {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if len(successes) > 1 {
			fmt.Fprintf(&b, "## %s\n\n", s.displayName(r.AgentID))
		}
		b.WriteString(strings.TrimSpace(r.OutputText))
	}
	if len(failures) > 0 {
		names := make([]string, 0, len(failures))
		for _, r := range failures {
			names = append(names, s.displayName(r.AgentID))
		}
		fmt.Fprintf(&b, "\n\n_Note: the %s analysis could not be completed this turn._", strings.Join(names, ", "))
	}
	return b.String()
}

func (s *Synthesizer) displayName(agentID string) string {
	if s.catalog != nil {
		if agent, ok := s.catalog.Agent(agentID); ok && agent.DisplayName != "" {
			return agent.DisplayName
		}
	}
	return agentID
}

// fallbackMessage is returned when no agent produced output. It is
// localized for the languages the assistant commonly serves.
func fallbackMessage(language string) string {
	lang := strings.ToLower(language)
	switch {
	case strings.HasPrefix(lang, "es"):
		return "Lo siento, no pude completar el análisis en este momento. Por favor, inténtalo de nuevo."
	case strings.HasPrefix(lang, "fr"):
		return "Désolé, je n'ai pas pu terminer l'analyse pour le moment. Veuillez réessayer."
	case strings.HasPrefix(lang, "de"):
		return "Entschuldigung, die Analyse konnte gerade nicht abgeschlossen werden. Bitte versuchen Sie es erneut."
	case strings.HasPrefix(lang, "pt"):
		return "Desculpe, não consegui concluir a análise agora. Por favor, tente novamente."
	default:
		return "Sorry, I wasn't able to complete the analysis just now. Please try again."
	}
}
