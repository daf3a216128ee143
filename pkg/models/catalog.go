package models

// QuestionType categorizes how a question is answered.
type QuestionType string

const (
	// QuestionTypeText is a free-form text answer.
	QuestionTypeText QuestionType = "text"
	// QuestionTypeChoice is a single selection from fixed options.
	QuestionTypeChoice QuestionType = "choice"
	// QuestionTypeMultiSelect allows multiple selections.
	QuestionTypeMultiSelect QuestionType = "multiSelect"
	// QuestionTypeNumber is a numeric answer.
	QuestionTypeNumber QuestionType = "number"
	// QuestionTypeDate is a calendar date answer.
	QuestionTypeDate QuestionType = "date"
	// QuestionTypeCheckpoint is a review pause, not a data question.
	QuestionTypeCheckpoint QuestionType = "checkpoint"
)

// Valid returns true if the question type is a known value.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionTypeText, QuestionTypeChoice, QuestionTypeMultiSelect,
		QuestionTypeNumber, QuestionTypeDate, QuestionTypeCheckpoint:
		return true
	default:
		return false
	}
}

// Question is one step in a phase. Static after catalog load.
type Question struct {
	// ID is the unique identifier, referenced by answers and conditions.
	ID string `json:"id" yaml:"id"`
	// Type categorizes how the question is answered.
	Type QuestionType `json:"type" yaml:"type"`
	// Text is the question shown to the user.
	Text string `json:"text" yaml:"text"`
	// Required indicates the question cannot be skipped when applicable.
	Required bool `json:"required" yaml:"required"`
	// Options lists the allowed values for choice/multiSelect questions.
	Options []string `json:"options,omitempty" yaml:"options,omitempty"`
	// Condition is an optional boolean expression over earlier answers
	// gating whether this question applies. Empty means always applies.
	Condition string `json:"condition,omitempty" yaml:"condition,omitempty"`
	// SkillTrigger optionally names a skill this answer feeds.
	SkillTrigger string `json:"skill_trigger,omitempty" yaml:"skill_trigger,omitempty"`
}

// Phase is an ordered group of questions. Static after catalog load.
type Phase struct {
	// ID is the unique identifier, referenced by the agent selection table.
	ID string `json:"id" yaml:"id"`
	// Name is the display name of the phase.
	Name string `json:"name" yaml:"name"`
	// Questions is the ordered question sequence for this phase.
	Questions []Question `json:"questions" yaml:"questions"`
}

// AgentDefinition describes one specialized LLM persona. Immutable,
// loaded from the agent catalog at startup.
type AgentDefinition struct {
	// ID is the unique identifier used by the selection table and tasks.
	ID string `json:"id" yaml:"id"`
	// DisplayName is the human-readable agent name.
	DisplayName string `json:"display_name" yaml:"display_name"`
	// SystemPrompt is the persona prompt sent on every invocation.
	SystemPrompt string `json:"system_prompt" yaml:"system_prompt"`
	// AllowedSkills lists the skill names this agent may invoke.
	// Validated against the skill registry at load time.
	AllowedSkills []string `json:"allowed_skills" yaml:"allowed_skills"`
}

// MaySkill returns true if the agent is allowed to invoke the named skill.
func (a AgentDefinition) MaySkill(name string) bool {
	for _, s := range a.AllowedSkills {
		if s == name {
			return true
		}
	}
	return false
}
