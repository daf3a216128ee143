// Package catalog loads and validates the static phase/question and
// agent catalogs. Catalogs are loaded once at process start and never
// mutated, so they may be shared across concurrent turns without locking.
// Validation failures at load time are fatal: a catalog that references
// a missing skill or an unknown agent must never reach the orchestrator.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/planforge/planforge/internal/condition"
	"github.com/planforge/planforge/internal/skills"
	"github.com/planforge/planforge/pkg/models"
)

// SelectionRule adds agents to a turn when its condition holds against
// the accumulated answers.
type SelectionRule struct {
	// Condition is an expression in the branch-condition language.
	Condition string `yaml:"condition"`
	// Add lists agent IDs appended when the condition is true.
	Add []string `yaml:"add"`
}

// SelectionEntry is the per-phase agent selection configuration.
type SelectionEntry struct {
	// Phase is the phase ID this entry applies to.
	Phase string `yaml:"phase"`
	// Primary lists the agents always selected for this phase.
	Primary []string `yaml:"primary"`
	// Rules lists answer-conditional additions, evaluated in order.
	Rules []SelectionRule `yaml:"rules,omitempty"`
}

// SelectionTable is the full phase -> agents mapping plus the fallback
// used for unknown phases. The fallback is never empty: every turn must
// receive at least baseline analysis.
type SelectionTable struct {
	// Default is the fallback agent pair for unknown phases.
	Default []string `yaml:"default"`
	// Phases lists the per-phase entries.
	Phases []SelectionEntry `yaml:"phases"`
}

// Entry returns the selection entry for a phase ID, or nil if none.
func (t SelectionTable) Entry(phaseID string) *SelectionEntry {
	for i := range t.Phases {
		if t.Phases[i].Phase == phaseID {
			return &t.Phases[i]
		}
	}
	return nil
}

// Catalog holds the validated static configuration for the engine.
type Catalog struct {
	// Phases is the ordered phase/question graph.
	Phases []models.Phase
	// Agents maps agent ID to definition.
	Agents map[string]models.AgentDefinition
	// Selection is the per-phase agent selection table.
	Selection SelectionTable
}

// Agent looks up an agent definition by ID.
func (c *Catalog) Agent(id string) (models.AgentDefinition, bool) {
	a, ok := c.Agents[id]
	return a, ok
}

// PhaseAt returns the phase at the given index, or nil if out of range.
func (c *Catalog) PhaseAt(i int) *models.Phase {
	if i < 0 || i >= len(c.Phases) {
		return nil
	}
	return &c.Phases[i]
}

type phasesFile struct {
	Phases []models.Phase `yaml:"phases"`
}

type agentsFile struct {
	Agents    []models.AgentDefinition `yaml:"agents"`
	Selection SelectionTable           `yaml:"selection"`
}

// Load reads and validates catalogs from the given YAML files using the
// skill registry to resolve allowed-skill references.
func Load(phasesPath, agentsPath string, registry *skills.Registry) (*Catalog, error) {
	phasesData, err := os.ReadFile(phasesPath)
	if err != nil {
		return nil, fmt.Errorf("read phase catalog: %w", err)
	}
	agentsData, err := os.ReadFile(agentsPath)
	if err != nil {
		return nil, fmt.Errorf("read agent catalog: %w", err)
	}
	return Parse(phasesData, agentsData, registry)
}

// Parse builds and validates a catalog from raw YAML.
func Parse(phasesYAML, agentsYAML []byte, registry *skills.Registry) (*Catalog, error) {
	cat, err := build(phasesYAML, agentsYAML)
	if err != nil {
		return nil, err
	}
	if errs := cat.Validate(registry); len(errs) > 0 {
		return nil, fmt.Errorf("catalog validation failed: %v", errs[0])
	}
	return cat, nil
}

// LoadUnvalidated reads catalogs from YAML files without running
// validation, so callers can collect every violation via Validate
// instead of stopping at the first.
func LoadUnvalidated(phasesPath, agentsPath string) (*Catalog, error) {
	phasesData, err := os.ReadFile(phasesPath)
	if err != nil {
		return nil, fmt.Errorf("read phase catalog: %w", err)
	}
	agentsData, err := os.ReadFile(agentsPath)
	if err != nil {
		return nil, fmt.Errorf("read agent catalog: %w", err)
	}
	return build(phasesData, agentsData)
}

func build(phasesYAML, agentsYAML []byte) (*Catalog, error) {
	var pf phasesFile
	if err := yaml.Unmarshal(phasesYAML, &pf); err != nil {
		return nil, fmt.Errorf("parse phase catalog: %w", err)
	}
	var af agentsFile
	if err := yaml.Unmarshal(agentsYAML, &af); err != nil {
		return nil, fmt.Errorf("parse agent catalog: %w", err)
	}

	cat := &Catalog{
		Phases:    pf.Phases,
		Agents:    make(map[string]models.AgentDefinition, len(af.Agents)),
		Selection: af.Selection,
	}
	for _, a := range af.Agents {
		if _, dup := cat.Agents[a.ID]; dup {
			return nil, fmt.Errorf("duplicate agent id %q", a.ID)
		}
		cat.Agents[a.ID] = a
	}
	return cat, nil
}

// Validate checks every load-time invariant and returns all violations,
// so `planforge catalog validate` can report them in one pass.
func (c *Catalog) Validate(registry *skills.Registry) []error {
	var errs []error

	if len(c.Phases) == 0 {
		errs = append(errs, fmt.Errorf("phase catalog is empty"))
	}
	if len(c.Agents) == 0 {
		errs = append(errs, fmt.Errorf("agent catalog is empty"))
	}

	// Questions: unique IDs, valid types, and conditions that parse and
	// reference only previously-askable questions.
	seen := make(map[string]bool)
	var askable []string
	for _, phase := range c.Phases {
		if phase.ID == "" {
			errs = append(errs, fmt.Errorf("phase with empty id"))
		}
		for _, q := range phase.Questions {
			if q.ID == "" {
				errs = append(errs, fmt.Errorf("phase %q: question with empty id", phase.ID))
				continue
			}
			if seen[q.ID] {
				errs = append(errs, fmt.Errorf("duplicate question id %q", q.ID))
			}
			seen[q.ID] = true
			if !q.Type.Valid() {
				errs = append(errs, fmt.Errorf("question %q: unknown type %q", q.ID, q.Type))
			}
			if q.SkillTrigger != "" && registry != nil && !registry.Has(q.SkillTrigger) {
				errs = append(errs, fmt.Errorf("question %q: unknown skill trigger %q", q.ID, q.SkillTrigger))
			}
			if q.Condition != "" {
				expr, err := condition.Parse(q.Condition)
				if err != nil {
					errs = append(errs, fmt.Errorf("question %q: unparsable condition: %v", q.ID, err))
				} else {
					for _, field := range condition.Fields(expr) {
						if !contains(askable, field) {
							errs = append(errs, fmt.Errorf("question %q: condition references %q which is not asked earlier", q.ID, field))
						}
					}
				}
			}
			askable = append(askable, q.ID)
		}
	}

	// Agents: allowed skills must exist in the registry.
	for _, a := range c.Agents {
		if a.SystemPrompt == "" {
			errs = append(errs, fmt.Errorf("agent %q: empty system prompt", a.ID))
		}
		if registry == nil {
			continue
		}
		for _, s := range a.AllowedSkills {
			if !registry.Has(s) {
				errs = append(errs, fmt.Errorf("agent %q: unknown skill %q", a.ID, s))
			}
		}
	}

	// Selection table: every referenced agent and phase must resolve,
	// the fallback must be non-empty, and rule conditions must parse.
	if len(c.Selection.Default) == 0 {
		errs = append(errs, fmt.Errorf("selection table has no default agents"))
	}
	for _, id := range c.Selection.Default {
		if _, ok := c.Agents[id]; !ok {
			errs = append(errs, fmt.Errorf("selection default references unknown agent %q", id))
		}
	}
	for _, entry := range c.Selection.Phases {
		if c.phaseIndex(entry.Phase) < 0 {
			errs = append(errs, fmt.Errorf("selection entry references unknown phase %q", entry.Phase))
		}
		if len(entry.Primary) == 0 {
			errs = append(errs, fmt.Errorf("selection entry for phase %q has no primary agents", entry.Phase))
		}
		for _, id := range entry.Primary {
			if _, ok := c.Agents[id]; !ok {
				errs = append(errs, fmt.Errorf("phase %q: primary references unknown agent %q", entry.Phase, id))
			}
		}
		for _, rule := range entry.Rules {
			if _, err := condition.Parse(rule.Condition); err != nil {
				errs = append(errs, fmt.Errorf("phase %q: unparsable rule condition %q: %v", entry.Phase, rule.Condition, err))
			}
			for _, id := range rule.Add {
				if _, ok := c.Agents[id]; !ok {
					errs = append(errs, fmt.Errorf("phase %q: rule references unknown agent %q", entry.Phase, id))
				}
			}
		}
	}

	return errs
}

func (c *Catalog) phaseIndex(id string) int {
	for i, p := range c.Phases {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func contains(list []string, s string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}
