package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/planforge/planforge/internal/api"
	"github.com/planforge/planforge/pkg/models"
)

func TestSynthesizer_AllFailedReturnsFallback(t *testing.T) {
	cat, _ := testCatalog(t)
	syn := NewSynthesizer(nil, cat, NopLogger())

	results := []models.AgentResult{
		{AgentID: "market_analyst", Success: false, Error: "Timeout"},
		{AgentID: "customer_profiler", Success: false, Error: "AgentInvocationError: boom"},
	}

	got := syn.Synthesize(context.Background(), "size the market", results, "en-US")
	if strings.TrimSpace(got) == "" {
		t.Fatal("fallback must be non-empty")
	}
	if strings.Contains(got, "Timeout") || strings.Contains(got, "AgentInvocationError") {
		t.Errorf("fallback leaks failure internals: %q", got)
	}

	es := syn.Synthesize(context.Background(), "size the market", results, "es-ES")
	if !strings.HasPrefix(es, "Lo siento") {
		t.Errorf("spanish fallback = %q", es)
	}
}

func TestSynthesizer_DeterministicMerge(t *testing.T) {
	cat, _ := testCatalog(t)
	syn := NewSynthesizer(nil, cat, NopLogger())

	results := []models.AgentResult{
		{AgentID: "market_analyst", Success: true, OutputText: "The market is large."},
		{AgentID: "customer_profiler", Success: true, OutputText: "Buyers are mid-market ops teams."},
		{AgentID: "financial_modeler", Success: false, Error: "AgentInvocationError: rate limited"},
	}

	got := syn.Synthesize(context.Background(), "assess the plan", results, "en-US")

	if !strings.Contains(got, "The market is large.") || !strings.Contains(got, "mid-market ops teams") {
		t.Errorf("merge should contain every successful output:\n%s", got)
	}
	if !strings.Contains(got, "Market Analyst") || !strings.Contains(got, "Customer Profiler") {
		t.Errorf("merge should use display names:\n%s", got)
	}
	if !strings.Contains(got, "Financial Modeler") || !strings.Contains(got, "could not be completed") {
		t.Errorf("merge should note the unavailable analysis:\n%s", got)
	}
	if strings.Contains(got, "AgentInvocationError") || strings.Contains(got, "rate limited") {
		t.Errorf("internal failure detail leaked:\n%s", got)
	}
}

func TestSynthesizer_SingleSuccessKeepsTextPlain(t *testing.T) {
	cat, _ := testCatalog(t)
	syn := NewSynthesizer(nil, cat, NopLogger())

	results := []models.AgentResult{
		{AgentID: "business_strategist", Success: true, OutputText: "Focus on one segment first."},
	}

	got := syn.Synthesize(context.Background(), "what now", results, "")
	if got != "Focus on one segment first." {
		t.Errorf("single success should pass through unchanged, got %q", got)
	}
}

func TestSynthesizer_ModelMergePreferred(t *testing.T) {
	cat, _ := testCatalog(t)
	fc := &fakeCompleter{fn: func(_ context.Context, req api.CompletionRequest) (*api.Completion, error) {
		return textCompletion("One coherent answer."), nil
	}}
	syn := NewSynthesizer(fc, cat, NopLogger())

	results := []models.AgentResult{
		{AgentID: "market_analyst", Success: true, OutputText: "A"},
		{AgentID: "customer_profiler", Success: true, OutputText: "B"},
	}

	got := syn.Synthesize(context.Background(), "assess", results, "en-US")
	if got != "One coherent answer." {
		t.Errorf("got %q, want the model merge", got)
	}
}

func TestSynthesizer_ModelFailureFallsBackToDeterministic(t *testing.T) {
	cat, _ := testCatalog(t)
	fc := &fakeCompleter{fn: func(_ context.Context, req api.CompletionRequest) (*api.Completion, error) {
		return nil, errors.New("overloaded")
	}}
	syn := NewSynthesizer(fc, cat, NopLogger())

	results := []models.AgentResult{
		{AgentID: "market_analyst", Success: true, OutputText: "Sizing details."},
	}

	got := syn.Synthesize(context.Background(), "assess", results, "en-US")
	if !strings.Contains(got, "Sizing details.") {
		t.Errorf("deterministic fallback should carry the output, got %q", got)
	}
}
