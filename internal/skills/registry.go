// Package skills provides the deterministic skill registry agents may
// invoke mid-reasoning. Every skill is a pure function over typed input:
// no network calls, no hidden state. The registry is read-only after
// process start and safe to share across concurrent turns.
package skills

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/anthropics/anthropic-sdk-go"
)

// ErrSkillNotFound is returned when a skill name does not resolve.
var ErrSkillNotFound = errors.New("skill not found")

// Skill is one deterministic function an agent may invoke.
type Skill struct {
	// Name is the skill identifier used in agent allow-lists and tool calls.
	Name string
	// Description is shown to the model in the tool schema.
	Description string
	// Properties is the JSON schema property map for the input.
	Properties map[string]any
	// Required lists the mandatory input properties.
	Required []string
	// Run executes the skill over raw JSON params and returns a
	// JSON-serializable result.
	Run func(params json.RawMessage) (any, error)
}

// Registry maps skill names to implementations.
type Registry struct {
	skills map[string]Skill
}

// NewRegistry creates a registry with all built-in skills registered.
func NewRegistry() *Registry {
	r := &Registry{skills: make(map[string]Skill)}
	for _, s := range builtinSkills() {
		r.skills[s.Name] = s
	}
	return r
}

// Invoke runs the named skill and returns its marshaled result.
// An unknown name is ErrSkillNotFound, never a silent no-op.
func (r *Registry) Invoke(name string, params json.RawMessage) (json.RawMessage, error) {
	skill, ok := r.skills[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSkillNotFound, name)
	}

	result, err := skill.Run(params)
	if err != nil {
		return nil, err
	}

	out, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal %s result: %w", name, err)
	}
	return out, nil
}

// Has returns true if the named skill is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.skills[name]
	return ok
}

// Names returns all registered skill names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.skills))
	for name := range r.skills {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ToolDefinitions returns Anthropic tool schemas for the given skill
// names, preserving order and skipping unknown names. Each agent gets
// only the tools in its allow-list.
func (r *Registry) ToolDefinitions(allowed []string) []anthropic.ToolUnionParam {
	var tools []anthropic.ToolUnionParam
	for _, name := range allowed {
		skill, ok := r.skills[name]
		if !ok {
			continue
		}
		tools = append(tools, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        skill.Name,
				Description: anthropic.String(skill.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: skill.Properties,
					Required:   skill.Required,
				},
			},
		})
	}
	return tools
}
