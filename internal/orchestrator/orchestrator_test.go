package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/planforge/planforge/internal/api"
	"github.com/planforge/planforge/internal/catalog"
	"github.com/planforge/planforge/internal/skills"
	"github.com/planforge/planforge/pkg/models"
)

func newTestOrchestrator(t *testing.T, fc api.Completer, mutate func(*Config)) *Orchestrator {
	t.Helper()
	cat, reg := testCatalog(t)
	cfg := Config{
		Completer:    fc,
		Registry:     reg,
		Catalog:      cat,
		RetryBackoff: time.Millisecond,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	orch, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(orch.Close)
	return orch
}

func TestNew_RequiresComponents(t *testing.T) {
	cat, reg := testCatalog(t)
	fc := &fakeCompleter{fn: func(_ context.Context, req api.CompletionRequest) (*api.Completion, error) {
		return textCompletion("ok"), nil
	}}

	if _, err := New(Config{Registry: reg, Catalog: cat}); err == nil {
		t.Error("New should reject a missing completer")
	}
	if _, err := New(Config{Completer: fc, Catalog: cat}); err == nil {
		t.Error("New should reject a missing registry")
	}
	if _, err := New(Config{Completer: fc, Registry: reg}); err == nil {
		t.Error("New should reject a missing catalog")
	}
}

func TestOrchestrate_ParallelMarketTurn(t *testing.T) {
	fc := &fakeCompleter{}
	fc.fn = func(_ context.Context, req api.CompletionRequest) (*api.Completion, error) {
		switch agentFor(req) {
		case "intent":
			return textCompletion(`{"goal": "Assess the market"}`), nil
		case "market_analyst":
			return textCompletion("The market is sizable."), nil
		case "customer_profiler":
			return textCompletion("Buyers are small retailers."), nil
		case "synthesizer":
			return textCompletion("Here is your market picture."), nil
		}
		return nil, errors.New("unexpected request")
	}
	orch := newTestOrchestrator(t, fc, nil)

	convo := models.ConversationContext{
		SessionID:            "sess-1",
		Language:             "en-US",
		Answers:              map[string]any{"business_path": "new"},
		CurrentPhaseIndex:    1, // market
		CurrentQuestionIndex: 0,
	}

	result, err := orch.Orchestrate(context.Background(), "What does my market look like?", convo)
	if err != nil {
		t.Fatalf("Orchestrate failed: %v", err)
	}

	if result.Intent.ExecutionMode != models.ModeParallel {
		t.Errorf("mode = %s, want parallel", result.Intent.ExecutionMode)
	}
	if result.Intent.Goal != "Assess the market" {
		t.Errorf("goal = %q", result.Intent.Goal)
	}
	if len(result.AgentResults) != 2 {
		t.Fatalf("got %d agent results, want 2", len(result.AgentResults))
	}
	wantAgents := []string{"market_analyst", "customer_profiler"}
	for i, res := range result.AgentResults {
		if res.AgentID != wantAgents[i] {
			t.Errorf("result %d agent = %q, want %q", i, res.AgentID, wantAgents[i])
		}
		if !res.Success {
			t.Errorf("agent %s failed: %s", res.AgentID, res.Error)
		}
	}
	if result.Synthesis != "Here is your market picture." {
		t.Errorf("synthesis = %q", result.Synthesis)
	}
	if orch.State() != StateComplete {
		t.Errorf("state = %s, want %s", orch.State(), StateComplete)
	}
	if result.TotalDurationMs < 0 {
		t.Errorf("duration = %d", result.TotalDurationMs)
	}
}

func TestOrchestrate_SequentialFailureStillSynthesizes(t *testing.T) {
	fc := &fakeCompleter{}
	fc.fn = func(_ context.Context, req api.CompletionRequest) (*api.Completion, error) {
		switch agentFor(req) {
		case "intent":
			return textCompletion(`{"goal": "Plan the go-to-market"}`), nil
		case "market_analyst":
			return nil, errors.New("rate limited")
		case "customer_profiler":
			return textCompletion("Profiles ready."), nil
		case "gtm_strategist":
			return textCompletion("Launch through partnerships."), nil
		case "synthesizer":
			return textCompletion("Partial plan with two perspectives."), nil
		}
		return nil, errors.New("unexpected request")
	}
	orch := newTestOrchestrator(t, fc, nil)

	// customer_type b2b adds gtm_strategist, whose dependencies force
	// sequential execution.
	convo := models.ConversationContext{
		SessionID:         "sess-2",
		Language:          "en-US",
		Answers:           map[string]any{"customer_type": "b2b"},
		CurrentPhaseIndex: 1,
	}

	result, err := orch.Orchestrate(context.Background(), "How should I plan this?", convo)
	if err != nil {
		t.Fatalf("Orchestrate failed: %v", err)
	}

	if result.Intent.ExecutionMode != models.ModeSequential {
		t.Fatalf("mode = %s, want sequential", result.Intent.ExecutionMode)
	}
	if len(result.AgentResults) != 3 {
		t.Fatalf("got %d agent results, want 3", len(result.AgentResults))
	}
	first := result.AgentResults[0]
	if first.Success || !strings.HasPrefix(first.Error, FailAgentInvocation) {
		t.Errorf("first result = %+v, want an %s failure", first, FailAgentInvocation)
	}
	for _, res := range result.AgentResults[1:] {
		if !res.Success {
			t.Errorf("agent %s should still run after a sibling failure: %s", res.AgentID, res.Error)
		}
	}
	if result.Synthesis == "" {
		t.Error("synthesis must be non-empty despite the partial failure")
	}
	if orch.State() != StateComplete {
		t.Errorf("state = %s, want %s", orch.State(), StateComplete)
	}
}

const timeoutPhasesYAML = `phases:
  - id: research
    name: Research
    questions:
      - id: topic
        type: text
        text: What should we research?
        required: true
`

const timeoutAgentsYAML = `agents:
  - id: alpha
    display_name: Alpha
    system_prompt: You are alpha, a generalist analyst.
    allowed_skills: []
  - id: beta
    display_name: Beta
    system_prompt: You are beta, a generalist analyst.
    allowed_skills: []
  - id: gamma
    display_name: Gamma
    system_prompt: You are gamma, a generalist analyst.
    allowed_skills: []

selection:
  default: [alpha]
  phases:
    - phase: research
      primary: [alpha, beta, gamma]
`

func TestOrchestrate_ParallelTimeoutYieldsPartialResult(t *testing.T) {
	reg := skills.NewRegistry()
	cat, err := catalog.Parse([]byte(timeoutPhasesYAML), []byte(timeoutAgentsYAML), reg)
	if err != nil {
		t.Fatalf("parse catalog: %v", err)
	}

	fc := &fakeCompleter{}
	fc.fn = func(ctx context.Context, req api.CompletionRequest) (*api.Completion, error) {
		switch {
		case strings.Contains(req.System, "You classify"):
			return textCompletion(`{"goal": "Research the topic"}`), nil
		case strings.Contains(req.System, "voice of a business planning assistant"):
			return textCompletion("Here is what two analysts found."), nil
		case strings.Contains(req.System, "beta"):
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(5 * time.Second):
				return textCompletion("too late"), nil
			}
		}
		return textCompletion("findings"), nil
	}

	orch, err := New(Config{
		Completer:    fc,
		Registry:     reg,
		Catalog:      cat,
		TaskTimeout:  50 * time.Millisecond,
		RetryBackoff: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(orch.Close)

	convo := models.ConversationContext{SessionID: "sess-3", CurrentPhaseIndex: 0}
	result, err := orch.Orchestrate(context.Background(), "Research the space", convo)
	if err != nil {
		t.Fatalf("Orchestrate failed: %v", err)
	}

	if result.Intent.ExecutionMode != models.ModeParallel {
		t.Fatalf("mode = %s, want parallel", result.Intent.ExecutionMode)
	}
	if len(result.AgentResults) != 3 {
		t.Fatalf("got %d agent results, want 3", len(result.AgentResults))
	}

	var timedOut int
	for _, res := range result.AgentResults {
		if res.AgentID == "beta" {
			if res.Success {
				t.Error("beta should have timed out")
			}
			if res.Error != FailTimeout {
				t.Errorf("beta error = %q, want %q", res.Error, FailTimeout)
			}
			timedOut++
			continue
		}
		if !res.Success {
			t.Errorf("agent %s should succeed: %s", res.AgentID, res.Error)
		}
	}
	if timedOut != 1 {
		t.Fatalf("expected exactly one timed out result, got %d", timedOut)
	}
	if result.Synthesis == "" {
		t.Error("synthesis must be non-empty despite the timeout")
	}
}

func TestOrchestrate_StopSignalFailsTurn(t *testing.T) {
	signals, err := api.NewSignalManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewSignalManager: %v", err)
	}
	t.Cleanup(signals.Close)

	fc := &fakeCompleter{fn: func(_ context.Context, req api.CompletionRequest) (*api.Completion, error) {
		return textCompletion("ok"), nil
	}}
	orch := newTestOrchestrator(t, fc, func(cfg *Config) {
		cfg.Signals = signals
	})

	if err := signals.SendStop(); err != nil {
		t.Fatalf("SendStop: %v", err)
	}

	_, err = orch.Orchestrate(context.Background(), "anything", models.ConversationContext{})
	if !errors.Is(err, ErrStopped) {
		t.Fatalf("err = %v, want ErrStopped", err)
	}
	if orch.State() != StateFailed {
		t.Errorf("state = %s, want %s", orch.State(), StateFailed)
	}
}

func TestOrchestrate_EmitsLifecycleEvents(t *testing.T) {
	fc := &fakeCompleter{fn: func(_ context.Context, req api.CompletionRequest) (*api.Completion, error) {
		if agentFor(req) == "intent" {
			return textCompletion(`{"goal": "g"}`), nil
		}
		return textCompletion("ok"), nil
	}}
	orch := newTestOrchestrator(t, fc, nil)

	if _, err := orch.Orchestrate(context.Background(), "hello", models.ConversationContext{}); err != nil {
		t.Fatalf("Orchestrate failed: %v", err)
	}

	seen := make(map[EventType]bool)
	for {
		select {
		case ev := <-orch.Events():
			seen[ev.Type] = true
		default:
			for _, want := range []EventType{EventTurnStarted, EventIntentAnalyzed, EventTurnPlanned, EventSynthesisStarted, EventTurnCompleted} {
				if !seen[want] {
					t.Errorf("missing event %s", want)
				}
			}
			return
		}
	}
}
