package flow

import (
	"testing"

	"github.com/planforge/planforge/internal/catalog"
	"github.com/planforge/planforge/internal/condition"
	"github.com/planforge/planforge/internal/skills"
	"github.com/planforge/planforge/pkg/models"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Default(skills.NewRegistry())
	if err != nil {
		t.Fatalf("load default catalog: %v", err)
	}
	return cat
}

func TestNavigator_FirstQuestion(t *testing.T) {
	nav := NewNavigator(testCatalog(t))

	step := nav.Next(models.ConversationContext{
		CurrentPhaseIndex:    0,
		CurrentQuestionIndex: -1,
	})
	if step.Completed {
		t.Fatal("fresh session should not be completed")
	}
	if step.PhaseIndex != 0 || step.QuestionIndex != 0 {
		t.Errorf("first step = (%d,%d), want (0,0)", step.PhaseIndex, step.QuestionIndex)
	}
	if step.Question == nil || step.Question.ID != "business_path" {
		t.Errorf("first question should be business_path, got %+v", step.Question)
	}
}

func TestNavigator_SkipsGatedQuestion(t *testing.T) {
	nav := NewNavigator(testCatalog(t))

	// current_revenue is gated on business_path == 'existing'.
	// Positioned just before it with business_path=new, it must be skipped
	// and the scan must roll into the next phase.
	ctx := models.ConversationContext{
		Answers:              map[string]any{"business_path": "new"},
		CurrentPhaseIndex:    0,
		CurrentQuestionIndex: 3, // team_size
	}

	step := nav.Next(ctx)
	if step.Completed {
		t.Fatal("should not be completed")
	}
	if step.Question.ID != "target_region" {
		t.Errorf("next question = %q, want target_region (first of market phase)", step.Question.ID)
	}
	if step.PhaseIndex != 1 || step.QuestionIndex != 0 {
		t.Errorf("step = (%d,%d), want (1,0)", step.PhaseIndex, step.QuestionIndex)
	}
}

func TestNavigator_AsksGatedQuestionWhenConditionHolds(t *testing.T) {
	nav := NewNavigator(testCatalog(t))

	ctx := models.ConversationContext{
		Answers:              map[string]any{"business_path": "existing"},
		CurrentPhaseIndex:    0,
		CurrentQuestionIndex: 3,
	}

	step := nav.Next(ctx)
	if step.Question == nil || step.Question.ID != "current_revenue" {
		t.Errorf("next question = %+v, want current_revenue", step.Question)
	}
}

func TestNavigator_Completed(t *testing.T) {
	cat := testCatalog(t)
	nav := NewNavigator(cat)

	lastPhase := len(cat.Phases) - 1
	lastQuestion := len(cat.Phases[lastPhase].Questions) - 1
	step := nav.Next(models.ConversationContext{
		CurrentPhaseIndex:    lastPhase,
		CurrentQuestionIndex: lastQuestion,
	})
	if !step.Completed {
		t.Error("advancing past the final question should yield Completed")
	}

	step = nav.Next(models.ConversationContext{
		CurrentPhaseIndex:    lastPhase + 5,
		CurrentQuestionIndex: 0,
	})
	if !step.Completed {
		t.Error("position beyond the catalog should yield Completed")
	}
}

func TestNavigator_Idempotent(t *testing.T) {
	nav := NewNavigator(testCatalog(t))

	ctx := models.ConversationContext{
		Answers:              map[string]any{"business_path": "new", "customer_type": "b2b"},
		CurrentPhaseIndex:    1,
		CurrentQuestionIndex: 1,
	}

	first := nav.Next(ctx)
	second := nav.Next(ctx)
	if first.Completed != second.Completed ||
		first.PhaseIndex != second.PhaseIndex ||
		first.QuestionIndex != second.QuestionIndex {
		t.Errorf("Next is not idempotent: %+v vs %+v", first, second)
	}
}

func TestNavigator_NeverReturnsFalseCondition(t *testing.T) {
	cat := testCatalog(t)
	nav := NewNavigator(cat)

	// Walk the whole questionnaire for a b2c founder and verify every
	// returned question's condition holds for the answers at that point.
	ctx := models.ConversationContext{
		Answers:              map[string]any{},
		CurrentPhaseIndex:    0,
		CurrentQuestionIndex: -1,
	}
	ctx.Answers["business_path"] = "new"
	ctx.Answers["customer_type"] = "b2c"

	for i := 0; i < 100; i++ {
		step := nav.Next(ctx)
		if step.Completed {
			return
		}
		if !condition.Evaluate(step.Question.Condition, ctx.Answers) {
			t.Fatalf("navigator returned question %q whose condition is false", step.Question.ID)
		}
		ctx.CurrentPhaseIndex = step.PhaseIndex
		ctx.CurrentQuestionIndex = step.QuestionIndex
	}
	t.Fatal("questionnaire did not complete within 100 steps")
}

func TestNavigator_Progress(t *testing.T) {
	nav := NewNavigator(testCatalog(t))

	ctx := models.ConversationContext{
		Answers: map[string]any{"business_path": "new", "business_idea": "coffee carts"},
	}
	answered, total := nav.Progress(ctx)
	if answered != 2 {
		t.Errorf("answered = %d, want 2", answered)
	}
	if total == 0 {
		t.Error("total should be positive")
	}

	// Answering customer_type=b2b makes sales_motion applicable.
	ctx.Answers["customer_type"] = "b2b"
	answeredB2B, totalB2B := nav.Progress(ctx)
	if answeredB2B != 3 {
		t.Errorf("answered = %d, want 3", answeredB2B)
	}
	if totalB2B != total+1 {
		t.Errorf("b2b total = %d, want %d", totalB2B, total+1)
	}
}
