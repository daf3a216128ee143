package orchestrator

import (
	"time"

	"github.com/planforge/planforge/pkg/models"
)

// EventType represents the type of orchestrator event.
type EventType string

const (
	// EventTurnStarted indicates a turn has entered the pipeline.
	EventTurnStarted EventType = "turn_started"
	// EventIntentAnalyzed indicates intent analysis finished.
	EventIntentAnalyzed EventType = "intent_analyzed"
	// EventTurnPlanned indicates tasks have been planned for the turn.
	EventTurnPlanned EventType = "turn_planned"
	// EventExecutionStarted indicates the executor picked up the plan.
	EventExecutionStarted EventType = "execution_started"
	// EventTaskStarted indicates an agent task has started execution.
	EventTaskStarted EventType = "task_started"
	// EventTaskCompleted indicates an agent task completed successfully.
	EventTaskCompleted EventType = "task_completed"
	// EventTaskFailed indicates an agent task failed.
	EventTaskFailed EventType = "task_failed"
	// EventToolInvoked indicates an agent invoked a skill.
	EventToolInvoked EventType = "tool_invoked"
	// EventSynthesisStarted indicates result synthesis has started.
	EventSynthesisStarted EventType = "synthesis_started"
	// EventTurnCompleted indicates the entire turn is complete.
	EventTurnCompleted EventType = "turn_completed"
	// EventTurnFailed indicates the turn ended in the failed state.
	EventTurnFailed EventType = "turn_failed"
)

// Event represents an event emitted while orchestrating a turn.
// These events drive the TUI and the debug log.
type Event struct {
	// Type is the kind of event.
	Type EventType
	// TaskID is the ID of the related task, if applicable.
	TaskID string
	// AgentID is the ID of the related agent, if applicable.
	AgentID string
	// SkillName is the invoked skill, for tool events.
	SkillName string
	// Mode is the chosen execution mode, for intent events.
	Mode models.ExecutionMode
	// State is the pipeline state after the transition, if applicable.
	State State
	// Message provides additional context about the event.
	Message string
	// Error contains error details for failure events.
	Error error
	// Timestamp is when the event occurred.
	Timestamp time.Time
	// Duration is the elapsed time, for completion events.
	Duration time.Duration
}
