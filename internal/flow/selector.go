package flow

import (
	"log"

	"github.com/planforge/planforge/internal/catalog"
	"github.com/planforge/planforge/internal/condition"
)

// Selector resolves which agents should reason about a turn. Selection
// is table-driven: each phase declares its primary agents plus
// answer-conditional additions, all static configuration in the agent
// catalog.
type Selector struct {
	catalog *catalog.Catalog
}

// NewSelector creates a Selector over the given catalog.
func NewSelector(cat *catalog.Catalog) *Selector {
	return &Selector{catalog: cat}
}

// Select returns the deduplicated, order-preserving agent set for a
// phase: primary agents first, then rule-triggered additions in
// declaration order. An unknown phase falls back to the catalog's
// default agents, so the result is never empty.
func (s *Selector) Select(phaseID string, answers map[string]any) []string {
	entry := s.catalog.Selection.Entry(phaseID)
	if entry == nil {
		log.Printf("[selector] unknown phase %q, using default agents", phaseID)
		return dedup(s.catalog.Selection.Default)
	}

	ids := make([]string, 0, len(entry.Primary)+2)
	ids = append(ids, entry.Primary...)
	for _, rule := range entry.Rules {
		if condition.Evaluate(rule.Condition, answers) {
			ids = append(ids, rule.Add...)
		}
	}
	return dedup(ids)
}

func dedup(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
