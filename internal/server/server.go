// Package server exposes the Planforge HTTP API: session lifecycle,
// guided question flow, and orchestrated conversation turns.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/planforge/planforge/internal/catalog"
	"github.com/planforge/planforge/internal/flow"
	"github.com/planforge/planforge/internal/orchestrator"
	"github.com/planforge/planforge/internal/ratelimit"
	"github.com/planforge/planforge/internal/state"
	"github.com/planforge/planforge/pkg/models"
)

// Config for the HTTP API handler.
type Config struct {
	DB           *state.DB
	Catalog      *catalog.Catalog
	Orchestrator *orchestrator.Orchestrator
	Limiter      *ratelimit.Limiter
}

// Server handles the Planforge HTTP API.
type Server struct {
	db        *state.DB
	catalog   *catalog.Catalog
	navigator *flow.Navigator
	orch      *orchestrator.Orchestrator
	limiter   *ratelimit.Limiter
}

// New returns an HTTP handler exposing the Planforge API.
func New(cfg Config) http.Handler {
	s := &Server{
		db:        cfg.DB,
		catalog:   cfg.Catalog,
		navigator: flow.NewNavigator(cfg.Catalog),
		orch:      cfg.Orchestrator,
		limiter:   cfg.Limiter,
	}

	r := chi.NewRouter()
	r.Use(requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Post("/answers", s.handleAnswer)
			r.Get("/next", s.handleNext)
			r.Post("/turns", s.handleTurn)
			r.Get("/turns", s.handleListTurns)
		})
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("[server] %s %s (%s)", r.Method, r.URL.Path, time.Since(start))
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	// An empty body is fine; anything else malformed is not.
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	sess, err := s.db.CreateSession(req.Language)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "could not create session")
		return
	}
	writeJSON(w, http.StatusCreated, s.sessionResponse(sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.sessionResponse(sess))
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}

	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if req.QuestionID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "question_id is required")
		return
	}

	phaseIdx, questionIdx, question := findQuestion(s.catalog, req.QuestionID)
	if question == nil {
		writeError(w, http.StatusNotFound, "not_found", fmt.Sprintf("unknown question %q", req.QuestionID))
		return
	}
	if err := validateAnswer(question, req.Value); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	ctx := sess.Context
	ctx.Answers[question.ID] = req.Value
	ctx.CurrentPhaseIndex = phaseIdx
	ctx.CurrentQuestionIndex = questionIdx

	if err := s.db.SaveContext(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "could not save answer")
		return
	}
	sess.Context = ctx
	writeJSON(w, http.StatusOK, s.sessionResponse(sess))
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}

	step := s.navigator.Next(sess.Context)
	answered, total := s.navigator.Progress(sess.Context)

	resp := nextResponse{
		Completed:     step.Completed,
		PhaseIndex:    step.PhaseIndex,
		QuestionIndex: step.QuestionIndex,
		Answered:      answered,
		Total:         total,
	}
	if step.Question != nil {
		resp.Question = &questionResponse{
			ID:       step.Question.ID,
			Type:     string(step.Question.Type),
			Text:     step.Question.Text,
			Required: step.Question.Required,
			Options:  step.Question.Options,
		}
		if phase := s.catalog.PhaseAt(step.PhaseIndex); phase != nil {
			resp.PhaseName = phase.Name
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}

	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "message is required")
		return
	}

	if s.limiter != nil {
		allowed, retryAfter := s.limiter.Allow(sess.ID, "chat_turn")
		if !allowed {
			seconds := int(retryAfter.Seconds())
			if seconds < 1 {
				seconds = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			writeError(w, http.StatusTooManyRequests, "rate_limited",
				fmt.Sprintf("too many turns, retry in %ds", seconds))
			return
		}
	}

	result, err := s.orch.Orchestrate(r.Context(), req.Message, sess.Context)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "turn failed")
		return
	}

	if err := s.db.AppendTurn(sess.ID, req.Message, result); err != nil {
		log.Printf("[server] failed to persist turn for session %s: %v", sess.ID, err)
	}

	writeJSON(w, http.StatusOK, turnResponse{
		Synthesis:     result.Synthesis,
		ExecutionMode: string(result.Intent.ExecutionMode),
		AgentResults:  agentResultResponses(result.AgentResults),
		DurationMs:    result.TotalDurationMs,
	})
}

func (s *Server) handleListTurns(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}

	turns, err := s.db.ListTurns(sess.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "could not list turns")
		return
	}

	resp := make([]storedTurnResponse, 0, len(turns))
	for _, turn := range turns {
		resp = append(resp, storedTurnResponse{
			UserMessage:   turn.UserMessage,
			Synthesis:     turn.Synthesis,
			ExecutionMode: string(turn.ExecutionMode),
			AgentResults:  agentResultResponses(turn.AgentResults),
			DurationMs:    turn.DurationMs,
			CreatedAt:     turn.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) loadSession(w http.ResponseWriter, r *http.Request) (*state.Session, bool) {
	id := chi.URLParam(r, "sessionID")
	sess, err := s.db.GetSession(id)
	if errors.Is(err, state.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, "not_found", fmt.Sprintf("unknown session %q", id))
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "could not load session")
		return nil, false
	}
	return sess, true
}

func (s *Server) sessionResponse(sess *state.Session) sessionResponse {
	answered, total := s.navigator.Progress(sess.Context)
	return sessionResponse{
		ID:            sess.ID,
		Language:      sess.Context.Language,
		Answers:       sess.Context.Answers,
		PhaseIndex:    sess.Context.CurrentPhaseIndex,
		QuestionIndex: sess.Context.CurrentQuestionIndex,
		Answered:      answered,
		Total:         total,
		CreatedAt:     sess.CreatedAt,
		UpdatedAt:     sess.UpdatedAt,
	}
}

// findQuestion locates a question by ID in the catalog.
func findQuestion(cat *catalog.Catalog, id string) (phaseIdx, questionIdx int, question *models.Question) {
	for pi := range cat.Phases {
		for qi := range cat.Phases[pi].Questions {
			if cat.Phases[pi].Questions[qi].ID == id {
				return pi, qi, &cat.Phases[pi].Questions[qi]
			}
		}
	}
	return 0, 0, nil
}

// validateAnswer checks a submitted value against the question type.
func validateAnswer(q *models.Question, value any) error {
	if value == nil {
		if q.Required {
			return fmt.Errorf("question %q requires an answer", q.ID)
		}
		return nil
	}

	switch q.Type {
	case models.QuestionTypeChoice:
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("question %q expects a single option", q.ID)
		}
		if !containsOption(q.Options, str) {
			return fmt.Errorf("question %q has no option %q", q.ID, str)
		}
	case models.QuestionTypeMultiSelect:
		items, ok := value.([]any)
		if !ok {
			return fmt.Errorf("question %q expects a list of options", q.ID)
		}
		for _, item := range items {
			str, ok := item.(string)
			if !ok || !containsOption(q.Options, str) {
				return fmt.Errorf("question %q has no option %v", q.ID, item)
			}
		}
	case models.QuestionTypeNumber:
		switch value.(type) {
		case float64, int, int64:
		default:
			return fmt.Errorf("question %q expects a number", q.ID)
		}
	}
	return nil
}

func containsOption(options []string, value string) bool {
	for _, opt := range options {
		if opt == value {
			return true
		}
	}
	return false
}
