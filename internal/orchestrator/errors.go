package orchestrator

import "errors"

// Failure kinds recorded on AgentResult.Error. The executor prefixes a
// kind with ": detail" when it has more to say; the bare kind is used
// when the detail would leak internals into user-facing surfaces.
const (
	// FailAgentInvocation means the model call itself failed after one retry.
	FailAgentInvocation = "AgentInvocationError"
	// FailToolExecution means a skill invocation returned an error.
	FailToolExecution = "ToolExecutionError"
	// FailToolCallLimit means the agent exceeded the tool-call iteration cap.
	FailToolCallLimit = "ToolCallLimitExceeded"
	// FailTimeout means the task exceeded its deadline during parallel execution.
	FailTimeout = "Timeout"
	// FailAgentNotFound means a planned agent ID has no catalog definition.
	FailAgentNotFound = "AgentNotFound"
	// FailSkillNotFound means the agent requested a skill the registry lacks.
	FailSkillNotFound = "SkillNotFound"
)

// ErrAllAgentsFailed indicates every task in a turn failed. It is
// recorded on the turn-completed event and in the debug log; callers
// still receive a result carrying the synthesizer's fallback message.
var ErrAllAgentsFailed = errors.New("all agents failed")

// ErrNoAgentsSelected indicates the selector produced an empty agent
// set, which the catalog validator is supposed to make impossible.
var ErrNoAgentsSelected = errors.New("no agents selected for turn")
