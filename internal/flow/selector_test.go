package flow

import (
	"reflect"
	"testing"
)

func TestSelector_PrimaryOnly(t *testing.T) {
	sel := NewSelector(testCatalog(t))

	// Scenario: market phase, customer_type unset - no rule fires.
	got := sel.Select("market", map[string]any{
		"language":      "en-US",
		"business_path": "new",
	})
	want := []string{"market_analyst", "customer_profiler"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Select(market) = %v, want %v", got, want)
	}
}

func TestSelector_RuleAddition(t *testing.T) {
	sel := NewSelector(testCatalog(t))

	got := sel.Select("market", map[string]any{"customer_type": "b2b"})
	want := []string{"market_analyst", "customer_profiler", "gtm_strategist"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Select(market, b2b) = %v, want %v", got, want)
	}
}

func TestSelector_UnknownPhaseFallsBack(t *testing.T) {
	sel := NewSelector(testCatalog(t))

	got := sel.Select("no_such_phase", nil)
	if len(got) == 0 {
		t.Fatal("unknown phase must never yield an empty agent set")
	}
	want := []string{"business_strategist", "market_analyst"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Select(unknown) = %v, want default %v", got, want)
	}
}

func TestSelector_Deduplicates(t *testing.T) {
	sel := NewSelector(testCatalog(t))

	// gtm phase with subscription pricing adds financial_modeler; the
	// primaries are distinct so the set stays duplicate-free.
	got := sel.Select("gtm", map[string]any{"pricing_model": "subscription"})
	seen := make(map[string]bool)
	for _, id := range got {
		if seen[id] {
			t.Errorf("agent %q appears twice in %v", id, got)
		}
		seen[id] = true
	}
	if !seen["financial_modeler"] {
		t.Errorf("subscription rule should add financial_modeler, got %v", got)
	}
}

func TestSelector_NonEmptyForAllKnownPhases(t *testing.T) {
	cat := testCatalog(t)
	sel := NewSelector(cat)

	for _, phase := range cat.Phases {
		if got := sel.Select(phase.ID, nil); len(got) == 0 {
			t.Errorf("phase %q yielded an empty agent set", phase.ID)
		}
	}
}
