package models

import "encoding/json"

// ExecutionMode selects how agent tasks for a turn are scheduled.
type ExecutionMode string

const (
	// ModeParallel runs all tasks concurrently.
	ModeParallel ExecutionMode = "parallel"
	// ModeSequential runs tasks in order, feeding each task's output
	// into the next task's context.
	ModeSequential ExecutionMode = "sequential"
)

// Valid returns true if the mode is a known value.
func (m ExecutionMode) Valid() bool {
	return m == ModeParallel || m == ModeSequential
}

// Intent is the per-turn classification of what the user wants and how
// the selected agents should be scheduled. Created fresh each turn.
type Intent struct {
	// Goal is a short statement of what this turn should accomplish.
	Goal string `json:"goal"`
	// ExecutionMode is the scheduling strategy for the turn's tasks.
	ExecutionMode ExecutionMode `json:"execution_mode"`
	// Rationale explains the classification, for observability only.
	Rationale string `json:"rationale"`
}

// Task is one agent invocation planned for a turn. Discarded after the
// turn completes.
type Task struct {
	// ID is the unique identifier for this task.
	ID string `json:"id"`
	// AgentID names the agent that executes this task.
	AgentID string `json:"agent_id"`
	// Description is the work statement handed to the agent.
	Description string `json:"description"`
	// DependsOn optionally names the task whose output this task builds
	// on. Only meaningful in sequential mode.
	DependsOn string `json:"depends_on,omitempty"`
}

// ToolCall records one skill invocation made on an agent's behalf.
// Immutable once produced.
type ToolCall struct {
	// SkillName is the invoked skill.
	SkillName string `json:"skill_name"`
	// Params is the raw input the agent supplied.
	Params json.RawMessage `json:"params"`
	// Result is the skill's serialized output, empty on error.
	Result json.RawMessage `json:"result,omitempty"`
	// Error holds the skill error message, if the call failed.
	Error string `json:"error,omitempty"`
	// DurationMs is the wall-clock duration of the invocation.
	DurationMs int64 `json:"duration_ms"`
}

// AgentResult is the terminal outcome of one executed task.
type AgentResult struct {
	// TaskID identifies the task this result belongs to.
	TaskID string `json:"task_id"`
	// AgentID names the agent that produced the result.
	AgentID string `json:"agent_id"`
	// OutputText is the agent's final answer, empty on failure.
	OutputText string `json:"output_text"`
	// ToolCalls lists the skill invocations made during the task.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	// DurationMs is the wall-clock duration of the task.
	DurationMs int64 `json:"duration_ms"`
	// Success indicates the task reached a final answer.
	Success bool `json:"success"`
	// Error holds the failure kind and message when Success is false.
	Error string `json:"error,omitempty"`
}

// OrchestrationResult is returned to the caller after a turn. The core
// does not store it.
type OrchestrationResult struct {
	// Synthesis is the merged user-facing response text.
	Synthesis string `json:"synthesis"`
	// AgentResults holds one entry per executed task.
	AgentResults []AgentResult `json:"agent_results"`
	// Intent is the classification that drove scheduling.
	Intent Intent `json:"intent"`
	// TotalDurationMs is the wall-clock duration of the whole turn.
	TotalDurationMs int64 `json:"total_duration_ms"`
}

// NextStep is the Navigator's answer to "what do we ask next". When
// Completed is true the questionnaire is exhausted and the index fields
// are meaningless.
type NextStep struct {
	// Completed indicates all phases are exhausted.
	Completed bool `json:"completed"`
	// PhaseIndex is the phase of the next applicable question.
	PhaseIndex int `json:"phase_index"`
	// QuestionIndex is the question index within the phase.
	QuestionIndex int `json:"question_index"`
	// Question is the next applicable question.
	Question *Question `json:"question,omitempty"`
}
