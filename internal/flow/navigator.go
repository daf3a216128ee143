// Package flow implements the adaptive walk over the static
// phase/question graph: finding the next applicable question for a
// session and selecting which agents reason about a turn. Both are
// pure computations over the catalog and the answers map.
package flow

import (
	"github.com/planforge/planforge/internal/catalog"
	"github.com/planforge/planforge/internal/condition"
	"github.com/planforge/planforge/pkg/models"
)

// Navigator walks the phase/question graph to find the next applicable
// step. It is stateless: identical (position, answers) inputs always
// yield identical results, which makes retries idempotent.
type Navigator struct {
	catalog *catalog.Catalog
}

// NewNavigator creates a Navigator over the given catalog.
func NewNavigator(cat *catalog.Catalog) *Navigator {
	return &Navigator{catalog: cat}
}

// Next scans forward from the position after the current question and
// returns the first question whose condition holds for the accumulated
// answers. Advancing past the last question of a phase moves to the
// start of the next phase; exhausting all phases yields Completed.
func (n *Navigator) Next(ctx models.ConversationContext) models.NextStep {
	phaseIdx := ctx.CurrentPhaseIndex
	questionIdx := ctx.CurrentQuestionIndex + 1
	if phaseIdx < 0 {
		phaseIdx = 0
		questionIdx = 0
	}

	for ; phaseIdx < len(n.catalog.Phases); phaseIdx++ {
		phase := n.catalog.Phases[phaseIdx]
		for ; questionIdx < len(phase.Questions); questionIdx++ {
			q := phase.Questions[questionIdx]
			if condition.Evaluate(q.Condition, ctx.Answers) {
				return models.NextStep{
					PhaseIndex:    phaseIdx,
					QuestionIndex: questionIdx,
					Question:      &q,
				}
			}
		}
		questionIdx = 0
	}

	return models.NextStep{Completed: true}
}

// Progress returns the number of applicable questions answered and the
// total currently applicable, for front-end progress display. Questions
// gated out by their condition do not count toward the total.
func (n *Navigator) Progress(ctx models.ConversationContext) (answered, total int) {
	for _, phase := range n.catalog.Phases {
		for _, q := range phase.Questions {
			if !condition.Evaluate(q.Condition, ctx.Answers) {
				continue
			}
			total++
			if ctx.HasAnswer(q.ID) {
				answered++
			}
		}
	}
	return answered, total
}
