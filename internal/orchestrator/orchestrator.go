package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/planforge/planforge/internal/api"
	"github.com/planforge/planforge/internal/catalog"
	"github.com/planforge/planforge/internal/flow"
	"github.com/planforge/planforge/internal/skills"
	"github.com/planforge/planforge/pkg/models"
)

// DefaultTurnTimeout bounds an entire orchestrated turn.
const DefaultTurnTimeout = 120 * time.Second

// State is a stage in the turn pipeline.
type State string

const (
	// StateReceived means the turn entered the pipeline.
	StateReceived State = "received"
	// StateIntentAnalyzed means intent analysis finished.
	StateIntentAnalyzed State = "intent_analyzed"
	// StatePlanned means tasks were planned.
	StatePlanned State = "planned"
	// StateExecuting means agent tasks are running.
	StateExecuting State = "executing"
	// StateSynthesizing means results are being merged.
	StateSynthesizing State = "synthesizing"
	// StateComplete means the turn finished with a response.
	StateComplete State = "complete"
	// StateFailed means the turn could not produce a response.
	StateFailed State = "failed"
)

// ErrStopped indicates an operator stop signal interrupted the turn.
var ErrStopped = errors.New("orchestration stopped by operator")

// Config configures an Orchestrator.
type Config struct {
	// Completer is the model backend. Required.
	Completer api.Completer
	// Registry holds the skills agents may invoke. Required.
	Registry *skills.Registry
	// Catalog holds phases, agents, and the selection table. Required.
	Catalog *catalog.Catalog
	// TurnTimeout bounds a whole turn. Zero uses the default.
	TurnTimeout time.Duration
	// TaskTimeout bounds each parallel task. Zero uses the executor default.
	TaskTimeout time.Duration
	// MaxToolIterations caps each agent's tool loop. Zero uses the default.
	MaxToolIterations int
	// RetryBackoff is the pause before the single model-call retry.
	RetryBackoff time.Duration
	// Logger receives debug output. Nil disables debug logging.
	Logger *DebugLogger
	// Signals, when set, lets an operator interrupt a running turn.
	Signals *api.SignalManager
	// EventBufferSize sizes the event channel. Zero uses 64.
	EventBufferSize int
}

// Orchestrator is the façade that turns one user message into one
// synthesized response. It walks a fixed pipeline: received, intent
// analyzed, planned, executing, synthesizing, then complete or failed.
type Orchestrator struct {
	catalog     *catalog.Catalog
	selector    *flow.Selector
	analyzer    *IntentAnalyzer
	executor    *Executor
	synthesizer *Synthesizer
	turnTimeout time.Duration
	logger      *DebugLogger
	signals     *api.SignalManager
	emitter     *EventEmitter

	mu    sync.RWMutex
	state State
}

// New creates an orchestrator from the given configuration.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Completer == nil {
		return nil, fmt.Errorf("orchestrator requires a completer")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("orchestrator requires a skill registry")
	}
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("orchestrator requires a catalog")
	}
	if cfg.TurnTimeout <= 0 {
		cfg.TurnTimeout = DefaultTurnTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = NopLogger()
	}
	bufSize := cfg.EventBufferSize
	if bufSize <= 0 {
		bufSize = 64
	}
	emitter := NewEventEmitter(bufSize)

	return &Orchestrator{
		catalog:  cfg.Catalog,
		selector: flow.NewSelector(cfg.Catalog),
		analyzer: NewIntentAnalyzer(cfg.Completer, cfg.Logger),
		executor: NewExecutor(ExecutorConfig{
			Completer:         cfg.Completer,
			Registry:          cfg.Registry,
			Catalog:           cfg.Catalog,
			TaskTimeout:       cfg.TaskTimeout,
			MaxToolIterations: cfg.MaxToolIterations,
			RetryBackoff:      cfg.RetryBackoff,
			Logger:            cfg.Logger,
			Emitter:           emitter,
		}),
		synthesizer: NewSynthesizer(cfg.Completer, cfg.Catalog, cfg.Logger),
		turnTimeout: cfg.TurnTimeout,
		logger:      cfg.Logger,
		signals:     cfg.Signals,
		emitter:     emitter,
		state:       StateReceived,
	}, nil
}

// Events returns the channel of pipeline events for subscribers.
func (o *Orchestrator) Events() <-chan Event {
	return o.emitter.Events()
}

// State returns the pipeline state of the most recent turn.
func (o *Orchestrator) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// Close releases the orchestrator's event channel.
func (o *Orchestrator) Close() {
	o.emitter.Close()
}

func (o *Orchestrator) transition(s State, event Event) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
	event.State = s
	o.emitter.Emit(event)
	o.logger.Log("state -> %s", s)
}

func (o *Orchestrator) shouldStop() bool {
	return o.signals != nil && o.signals.ShouldStop()
}

// Orchestrate runs one full turn for the given user message and
// conversation context. It returns a result with a non-empty synthesis
// whenever at least the pipeline itself could run; per-agent failures
// are carried inside the result rather than returned as an error.
func (o *Orchestrator) Orchestrate(ctx context.Context, message string, convo models.ConversationContext) (*models.OrchestrationResult, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, o.turnTimeout)
	defer cancel()

	o.transition(StateReceived, Event{Type: EventTurnStarted, Message: message})

	phaseID := ""
	if phase := o.catalog.PhaseAt(convo.CurrentPhaseIndex); phase != nil {
		phaseID = phase.ID
	}

	agentIDs := o.selector.Select(phaseID, convo.Answers)
	if len(agentIDs) == 0 {
		o.transition(StateFailed, Event{Type: EventTurnFailed, Error: ErrNoAgentsSelected})
		return nil, ErrNoAgentsSelected
	}

	intent := o.analyzer.Analyze(ctx, message, convo, agentIDs)
	o.transition(StateIntentAnalyzed, Event{Type: EventIntentAnalyzed, Mode: intent.ExecutionMode, Message: intent.Rationale})

	tasks := PlanTasks(intent, agentIDs)
	o.transition(StatePlanned, Event{Type: EventTurnPlanned, Message: fmt.Sprintf("%d tasks", len(tasks))})

	if o.shouldStop() {
		o.transition(StateFailed, Event{Type: EventTurnFailed, Error: ErrStopped})
		return nil, ErrStopped
	}

	o.transition(StateExecuting, Event{Type: EventExecutionStarted})
	results := o.executor.Run(ctx, tasks, convo, intent.ExecutionMode)

	if o.shouldStop() {
		o.transition(StateFailed, Event{Type: EventTurnFailed, Error: ErrStopped})
		return nil, ErrStopped
	}

	o.transition(StateSynthesizing, Event{Type: EventSynthesisStarted})
	synthesis := o.synthesizer.Synthesize(ctx, intent.Goal, results, convo.Language)

	result := &models.OrchestrationResult{
		Synthesis:       synthesis,
		AgentResults:    results,
		Intent:          intent,
		TotalDurationMs: time.Since(start).Milliseconds(),
	}

	// A turn where every agent failed still completes; the synthesizer
	// already produced the fallback message. Record the degradation.
	completed := Event{Type: EventTurnCompleted, Duration: time.Since(start)}
	if allFailed(results) {
		completed.Error = ErrAllAgentsFailed
		o.logger.Log("turn degraded: %v", ErrAllAgentsFailed)
	}
	o.transition(StateComplete, completed)
	return result, nil
}

func allFailed(results []models.AgentResult) bool {
	for _, r := range results {
		if r.Success {
			return false
		}
	}
	return len(results) > 0
}
