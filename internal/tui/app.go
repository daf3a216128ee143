// Package tui implements the interactive planning chat for the terminal.
// It walks the guided question flow and hands free-form messages to the
// orchestrator.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/planforge/planforge/internal/flow"
	"github.com/planforge/planforge/internal/orchestrator"
	"github.com/planforge/planforge/internal/state"
	"github.com/planforge/planforge/pkg/models"
)

type role int

const (
	roleUser role = iota
	roleAssistant
	roleSystem
)

type chatMessage struct {
	role role
	text string
}

// turnDoneMsg is sent when an orchestrated turn finishes.
type turnDoneMsg struct {
	result *models.OrchestrationResult
	err    error
}

// eventMsg wraps an orchestrator event for display.
type eventMsg orchestrator.Event

// ChatApp is the bubbletea model for the planning chat.
type ChatApp struct {
	db        *state.DB
	session   *state.Session
	navigator *flow.Navigator
	orch      *orchestrator.Orchestrator

	input    textinput.Model
	spin     spinner.Model
	messages []chatMessage
	question *models.Question
	pending  bool
	activity string
	width    int
	quitting bool
}

// NewChatApp creates the chat model for an existing session.
func NewChatApp(db *state.DB, session *state.Session, navigator *flow.Navigator, orch *orchestrator.Orchestrator) *ChatApp {
	ti := textinput.New()
	ti.Placeholder = "Answer the question, or /chat <message> to ask the advisors..."
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 70

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	app := &ChatApp{
		db:        db,
		session:   session,
		navigator: navigator,
		orch:      orch,
		input:     ti,
		spin:      sp,
		width:     80,
	}
	app.advanceQuestion()
	return app
}

// Init implements tea.Model.
func (a *ChatApp) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, a.listenForEvents())
}

// listenForEvents forwards orchestrator events into the update loop.
func (a *ChatApp) listenForEvents() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-a.orch.Events()
		if !ok {
			return nil
		}
		return eventMsg(ev)
	}
}

// Update implements tea.Model.
func (a *ChatApp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.input.Width = msg.Width - 6
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			a.quitting = true
			return a, tea.Quit
		case "enter":
			if a.pending {
				return a, nil
			}
			text := strings.TrimSpace(a.input.Value())
			if text == "" {
				return a, nil
			}
			a.input.Reset()
			return a.submit(text)
		}

	case turnDoneMsg:
		a.pending = false
		a.activity = ""
		if msg.err != nil {
			a.messages = append(a.messages, chatMessage{roleSystem, "The advisors could not answer just now. Try again."})
			return a, nil
		}
		a.messages = append(a.messages, chatMessage{roleAssistant, msg.result.Synthesis})
		return a, nil

	case eventMsg:
		a.noteActivity(orchestrator.Event(msg))
		return a, a.listenForEvents()

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		return a, cmd
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *ChatApp) noteActivity(ev orchestrator.Event) {
	switch ev.Type {
	case orchestrator.EventTaskStarted:
		if ev.AgentID != "" {
			a.activity = fmt.Sprintf("%s is thinking...", ev.AgentID)
		}
	case orchestrator.EventToolInvoked:
		a.activity = fmt.Sprintf("%s is using %s...", ev.AgentID, ev.SkillName)
	case orchestrator.EventSynthesisStarted:
		a.activity = "combining the analyses..."
	}
}

// submit routes user input either to the question flow or the orchestrator.
func (a *ChatApp) submit(text string) (tea.Model, tea.Cmd) {
	if chatMsg, ok := strings.CutPrefix(text, "/chat "); ok {
		return a.startTurn(strings.TrimSpace(chatMsg))
	}
	if a.question == nil {
		// Question flow is finished; everything goes to the advisors.
		return a.startTurn(text)
	}
	return a.answerQuestion(text)
}

func (a *ChatApp) answerQuestion(text string) (tea.Model, tea.Cmd) {
	value, err := parseAnswer(a.question, text)
	if err != nil {
		a.messages = append(a.messages, chatMessage{roleSystem, err.Error()})
		return a, nil
	}

	a.messages = append(a.messages, chatMessage{roleUser, text})
	ctx := a.session.Context
	ctx.Answers[a.question.ID] = value
	if err := a.db.SaveContext(ctx); err != nil {
		a.messages = append(a.messages, chatMessage{roleSystem, "Could not save your answer."})
		return a, nil
	}
	a.session.Context = ctx
	a.advanceQuestion()
	return a, nil
}

// advanceQuestion moves the session to the next applicable question and
// shows it, or notes that the flow is complete.
func (a *ChatApp) advanceQuestion() {
	step := a.navigator.Next(a.session.Context)
	if step.Completed {
		if a.question != nil || len(a.messages) == 0 {
			a.messages = append(a.messages, chatMessage{roleSystem,
				"All questions answered. Ask the advisors anything about your plan."})
		}
		a.question = nil
		return
	}

	a.session.Context.CurrentPhaseIndex = step.PhaseIndex
	a.session.Context.CurrentQuestionIndex = step.QuestionIndex
	if err := a.db.SaveContext(a.session.Context); err == nil {
		a.question = step.Question
		a.messages = append(a.messages, chatMessage{roleAssistant, formatQuestion(step.Question)})
	}
}

func (a *ChatApp) startTurn(message string) (tea.Model, tea.Cmd) {
	a.messages = append(a.messages, chatMessage{roleUser, message})
	a.pending = true
	a.activity = "planning the turn..."

	turnCmd := func() tea.Msg {
		result, err := a.orch.Orchestrate(context.Background(), message, a.session.Context)
		if err == nil {
			// History is best-effort; the turn result still renders.
			_ = a.db.AppendTurn(a.session.ID, message, result)
		}
		return turnDoneMsg{result: result, err: err}
	}
	return a, tea.Batch(a.spin.Tick, turnCmd)
}

// formatQuestion renders a question with its options, if any.
func formatQuestion(q *models.Question) string {
	var b strings.Builder
	b.WriteString(q.Text)
	if len(q.Options) > 0 {
		b.WriteString("\n  options: ")
		b.WriteString(strings.Join(q.Options, ", "))
	}
	return b.String()
}

// parseAnswer converts free text into a typed answer for the question.
func parseAnswer(q *models.Question, text string) (any, error) {
	text = strings.TrimSpace(text)
	switch q.Type {
	case models.QuestionTypeNumber:
		n, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", ""), 64)
		if err != nil {
			return nil, fmt.Errorf("please enter a number for %q", q.Text)
		}
		return n, nil
	case models.QuestionTypeChoice:
		for _, opt := range q.Options {
			if strings.EqualFold(opt, text) {
				return opt, nil
			}
		}
		return nil, fmt.Errorf("please pick one of: %s", strings.Join(q.Options, ", "))
	case models.QuestionTypeMultiSelect:
		parts := strings.Split(text, ",")
		var picked []any
		for _, part := range parts {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			matched := ""
			for _, opt := range q.Options {
				if strings.EqualFold(opt, part) {
					matched = opt
					break
				}
			}
			if matched == "" {
				return nil, fmt.Errorf("%q is not one of: %s", part, strings.Join(q.Options, ", "))
			}
			picked = append(picked, matched)
		}
		if len(picked) == 0 {
			return nil, fmt.Errorf("pick at least one of: %s", strings.Join(q.Options, ", "))
		}
		return picked, nil
	case models.QuestionTypeCheckpoint:
		return "acknowledged", nil
	default:
		return text, nil
	}
}
