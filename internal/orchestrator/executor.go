package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/planforge/planforge/internal/api"
	"github.com/planforge/planforge/internal/catalog"
	"github.com/planforge/planforge/internal/skills"
	"github.com/planforge/planforge/pkg/models"
)

const (
	// DefaultTaskTimeout is the per-task ceiling for parallel execution.
	DefaultTaskTimeout = 45 * time.Second
	// DefaultMaxToolIterations caps the tool loop per task.
	DefaultMaxToolIterations = 8
	// DefaultRetryBackoff is the pause before retrying a failed model call.
	DefaultRetryBackoff = 2 * time.Second
)

// ExecutorConfig configures a task executor.
type ExecutorConfig struct {
	Completer api.Completer
	Registry  *skills.Registry
	Catalog   *catalog.Catalog
	// TaskTimeout bounds each task in parallel mode. Zero uses the default.
	TaskTimeout time.Duration
	// MaxToolIterations caps model round-trips per task. Zero uses the default.
	MaxToolIterations int
	// RetryBackoff is the pause before the single model-call retry.
	RetryBackoff time.Duration
	Logger       *DebugLogger
	Emitter      *EventEmitter
}

// Executor runs planned tasks against their agents. Sequential mode
// feeds each agent the outputs of the agents before it; parallel mode
// runs every task in its own goroutine under a per-task deadline. A
// failed task never aborts its siblings in either mode.
type Executor struct {
	completer    api.Completer
	registry     *skills.Registry
	catalog      *catalog.Catalog
	taskTimeout  time.Duration
	maxToolIters int
	retryBackoff time.Duration
	logger       *DebugLogger
	emitter      *EventEmitter
}

// NewExecutor creates an executor, applying defaults for unset limits.
func NewExecutor(cfg ExecutorConfig) *Executor {
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = DefaultTaskTimeout
	}
	if cfg.MaxToolIterations <= 0 {
		cfg.MaxToolIterations = DefaultMaxToolIterations
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = DefaultRetryBackoff
	}
	return &Executor{
		completer:    cfg.Completer,
		registry:     cfg.Registry,
		catalog:      cfg.Catalog,
		taskTimeout:  cfg.TaskTimeout,
		maxToolIters: cfg.MaxToolIterations,
		retryBackoff: cfg.RetryBackoff,
		logger:       cfg.Logger,
		emitter:      cfg.Emitter,
	}
}

// Run executes all tasks in the given mode and returns one result per
// task, in task order.
func (e *Executor) Run(ctx context.Context, tasks []models.Task, convo models.ConversationContext, mode models.ExecutionMode) []models.AgentResult {
	if mode == models.ModeParallel {
		return e.runParallel(ctx, tasks, convo)
	}
	return e.runSequential(ctx, tasks, convo)
}

func (e *Executor) runSequential(ctx context.Context, tasks []models.Task, convo models.ConversationContext) []models.AgentResult {
	results := make([]models.AgentResult, 0, len(tasks))
	for _, task := range tasks {
		e.emitter.Emit(Event{Type: EventTaskStarted, TaskID: task.ID, AgentID: task.AgentID})
		res := e.runTask(ctx, task, convo, results, false)
		e.emitDone(task, res)
		results = append(results, res)
	}
	return results
}

func (e *Executor) runParallel(ctx context.Context, tasks []models.Task, convo models.ConversationContext) []models.AgentResult {
	results := make([]models.AgentResult, len(tasks))

	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func(i int, task models.Task) {
			defer wg.Done()
			e.emitter.Emit(Event{Type: EventTaskStarted, TaskID: task.ID, AgentID: task.AgentID})

			taskCtx, cancel := context.WithTimeout(ctx, e.taskTimeout)
			defer cancel()

			res := e.runTask(taskCtx, task, convo, nil, true)
			e.emitDone(task, res)
			results[i] = res
		}(i, task)
	}
	wg.Wait()

	return results
}

func (e *Executor) emitDone(task models.Task, res models.AgentResult) {
	if res.Success {
		e.emitter.Emit(Event{
			Type:     EventTaskCompleted,
			TaskID:   task.ID,
			AgentID:  task.AgentID,
			Duration: time.Duration(res.DurationMs) * time.Millisecond,
		})
		return
	}
	e.emitter.Emit(Event{
		Type:    EventTaskFailed,
		TaskID:  task.ID,
		AgentID: task.AgentID,
		Message: res.Error,
	})
}

// runTask drives one agent through its tool loop. prior holds results
// of tasks that already ran this turn (sequential mode only).
func (e *Executor) runTask(ctx context.Context, task models.Task, convo models.ConversationContext, prior []models.AgentResult, parallel bool) models.AgentResult {
	start := time.Now()
	result := models.AgentResult{
		TaskID:  task.ID,
		AgentID: task.AgentID,
	}

	agent, ok := e.catalog.Agent(task.AgentID)
	if !ok {
		return e.fail(result, start, FailAgentNotFound, fmt.Sprintf("no agent %q in catalog", task.AgentID))
	}

	tools := e.registry.ToolDefinitions(agent.AllowedSkills)
	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(taskPrompt(task, convo, prior))),
	}
	system := systemPrompt(agent, convo.Language)

	retried := false
	for iter := 0; iter < e.maxToolIters; iter++ {
		completion, err := e.completer.Complete(ctx, api.CompletionRequest{
			System:   system,
			Messages: messages,
			Tools:    tools,
		})
		if err != nil {
			if parallel && errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return e.fail(result, start, FailTimeout, "")
			}
			if ctx.Err() == nil && !retried {
				retried = true
				e.logger.Log("task %s: model call failed, retrying once: %v", task.ID, err)
				if !sleepCtx(ctx, e.retryBackoff) {
					if parallel && errors.Is(ctx.Err(), context.DeadlineExceeded) {
						return e.fail(result, start, FailTimeout, "")
					}
					return e.fail(result, start, FailAgentInvocation, ctx.Err().Error())
				}
				iter--
				continue
			}
			return e.fail(result, start, FailAgentInvocation, err.Error())
		}

		if completion.Text != "" {
			result.OutputText = completion.Text
		}

		if len(completion.ToolUses) == 0 {
			result.Success = true
			result.DurationMs = time.Since(start).Milliseconds()
			return result
		}

		var assistantBlocks []anthropic.ContentBlockParamUnion
		if completion.Text != "" {
			assistantBlocks = append(assistantBlocks, anthropic.NewTextBlock(completion.Text))
		}
		var toolResultBlocks []anthropic.ContentBlockParamUnion

		for _, use := range completion.ToolUses {
			assistantBlocks = append(assistantBlocks,
				anthropic.NewToolUseBlock(use.ID, use.Input, use.Name))

			if !agent.MaySkill(use.Name) {
				result.ToolCalls = append(result.ToolCalls, models.ToolCall{
					SkillName: use.Name,
					Params:    use.Input,
					Error:     "skill not permitted for this agent",
				})
				return e.fail(result, start, FailToolExecution,
					fmt.Sprintf("agent %q requested skill %q outside its allowed set", agent.ID, use.Name))
			}

			invokeStart := time.Now()
			out, invokeErr := e.registry.Invoke(use.Name, use.Input)
			call := models.ToolCall{
				SkillName:  use.Name,
				Params:     use.Input,
				Result:     out,
				DurationMs: time.Since(invokeStart).Milliseconds(),
			}
			if invokeErr != nil {
				call.Error = invokeErr.Error()
			}
			result.ToolCalls = append(result.ToolCalls, call)
			e.emitter.Emit(Event{Type: EventToolInvoked, TaskID: task.ID, AgentID: task.AgentID, SkillName: use.Name})

			if invokeErr != nil {
				if errors.Is(invokeErr, skills.ErrSkillNotFound) {
					return e.fail(result, start, FailSkillNotFound, invokeErr.Error())
				}
				return e.fail(result, start, FailToolExecution, invokeErr.Error())
			}

			toolResultBlocks = append(toolResultBlocks,
				anthropic.NewToolResultBlock(use.ID, string(out), false))
		}

		messages = append(messages, anthropic.NewAssistantMessage(assistantBlocks...))
		if len(toolResultBlocks) > 0 {
			messages = append(messages, anthropic.NewUserMessage(toolResultBlocks...))
		}
	}

	return e.fail(result, start, FailToolCallLimit,
		fmt.Sprintf("exceeded %d tool iterations", e.maxToolIters))
}

// fail finalizes a result with a failure kind. An empty detail keeps
// the bare kind, which is what user-facing surfaces see.
func (e *Executor) fail(result models.AgentResult, start time.Time, kind, detail string) models.AgentResult {
	result.Success = false
	result.Error = kind
	result.DurationMs = time.Since(start).Milliseconds()
	if detail != "" {
		result.Error = kind + ": " + detail
		e.logger.Log("task %s (%s) failed: %s", result.TaskID, result.AgentID, result.Error)
	} else {
		e.logger.Log("task %s (%s) failed: %s", result.TaskID, result.AgentID, kind)
	}
	return result
}

// sleepCtx sleeps for d or until ctx is done, reporting whether the
// full sleep completed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
