package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/planforge/planforge/internal/api"
	"github.com/planforge/planforge/pkg/models"
)

func TestIntentAnalyzer_ParallelForIndependentAgents(t *testing.T) {
	analyzer := NewIntentAnalyzer(nil, NopLogger())

	intent := analyzer.Analyze(context.Background(), "What does my market look like?",
		models.ConversationContext{}, []string{"market_analyst", "customer_profiler"})

	if intent.ExecutionMode != models.ModeParallel {
		t.Errorf("mode = %s, want parallel (%s)", intent.ExecutionMode, intent.Rationale)
	}
}

func TestIntentAnalyzer_SequentialForDependentAgents(t *testing.T) {
	analyzer := NewIntentAnalyzer(nil, NopLogger())

	intent := analyzer.Analyze(context.Background(), "How do my numbers look?",
		models.ConversationContext{}, []string{"market_analyst", "financial_modeler"})

	if intent.ExecutionMode != models.ModeSequential {
		t.Errorf("mode = %s, want sequential", intent.ExecutionMode)
	}
	if !strings.Contains(intent.Rationale, "financial_modeler") {
		t.Errorf("rationale %q should name the dependent agent", intent.Rationale)
	}
}

func TestIntentAnalyzer_SequentialHintInMessage(t *testing.T) {
	analyzer := NewIntentAnalyzer(nil, NopLogger())

	intent := analyzer.Analyze(context.Background(), "Walk me through this step by step, please",
		models.ConversationContext{}, []string{"market_analyst", "customer_profiler"})

	if intent.ExecutionMode != models.ModeSequential {
		t.Errorf("mode = %s, want sequential for a step-by-step request", intent.ExecutionMode)
	}
}

func TestIntentAnalyzer_DefaultsToSequential(t *testing.T) {
	analyzer := NewIntentAnalyzer(nil, NopLogger())

	intent := analyzer.Analyze(context.Background(), "hello", models.ConversationContext{}, nil)

	if intent.ExecutionMode != models.ModeSequential {
		t.Errorf("mode = %s, want the sequential default", intent.ExecutionMode)
	}
	if !intent.ExecutionMode.Valid() {
		t.Error("returned mode must always be valid")
	}
}

func TestIntentAnalyzer_ModelRefinesGoal(t *testing.T) {
	fc := &fakeCompleter{fn: func(_ context.Context, req api.CompletionRequest) (*api.Completion, error) {
		return textCompletion(`{"goal": "Size the addressable market"}`), nil
	}}
	analyzer := NewIntentAnalyzer(fc, NopLogger())

	intent := analyzer.Analyze(context.Background(), "hm, market stuff?",
		models.ConversationContext{}, []string{"market_analyst"})

	if intent.Goal != "Size the addressable market" {
		t.Errorf("goal = %q, want the refined goal", intent.Goal)
	}
}

func TestIntentAnalyzer_ModelFailureKeepsHeuristicGoal(t *testing.T) {
	fc := &fakeCompleter{fn: func(_ context.Context, req api.CompletionRequest) (*api.Completion, error) {
		return nil, errors.New("unavailable")
	}}
	analyzer := NewIntentAnalyzer(fc, NopLogger())

	intent := analyzer.Analyze(context.Background(), "Tell me about my market. And more.",
		models.ConversationContext{}, []string{"market_analyst"})

	if intent.Goal != "Tell me about my market" {
		t.Errorf("goal = %q, want the heuristic first sentence", intent.Goal)
	}
}

func TestSummarizeGoal(t *testing.T) {
	if got := summarizeGoal(""); got == "" {
		t.Error("empty message must still yield a goal")
	}
	if got := summarizeGoal("First sentence. Second sentence."); got != "First sentence" {
		t.Errorf("got %q, want the first sentence", got)
	}
	long := strings.Repeat("a", 300)
	if got := summarizeGoal(long); len([]rune(got)) != 160 {
		t.Errorf("long goal should be capped at 160 runes, got %d", len([]rune(got)))
	}
}

func TestPlanTasks_SequentialChainsDependencies(t *testing.T) {
	intent := models.Intent{Goal: "plan it", ExecutionMode: models.ModeSequential}
	tasks := PlanTasks(intent, []string{"market_analyst", "financial_modeler", "gtm_strategist"})

	if len(tasks) != 3 {
		t.Fatalf("got %d tasks, want 3", len(tasks))
	}
	if tasks[0].DependsOn != "" {
		t.Error("first task must not depend on anything")
	}
	for i := 1; i < len(tasks); i++ {
		if tasks[i].DependsOn != tasks[i-1].ID {
			t.Errorf("task %d should depend on task %d, got %q", i, i-1, tasks[i].DependsOn)
		}
	}
}

func TestPlanTasks_ParallelHasNoDependencies(t *testing.T) {
	intent := models.Intent{Goal: "plan it", ExecutionMode: models.ModeParallel}
	tasks := PlanTasks(intent, []string{"market_analyst", "customer_profiler"})

	for i, task := range tasks {
		if task.DependsOn != "" {
			t.Errorf("parallel task %d has dependency %q", i, task.DependsOn)
		}
		if task.Description != "plan it" {
			t.Errorf("task %d description = %q", i, task.Description)
		}
	}
}
