package server

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/planforge/planforge/pkg/models"
)

type createSessionRequest struct {
	Language string `json:"language"`
}

type answerRequest struct {
	QuestionID string `json:"question_id"`
	Value      any    `json:"value"`
}

type turnRequest struct {
	Message string `json:"message"`
}

type sessionResponse struct {
	ID            string         `json:"id"`
	Language      string         `json:"language"`
	Answers       map[string]any `json:"answers"`
	PhaseIndex    int            `json:"phase_index"`
	QuestionIndex int            `json:"question_index"`
	Answered      int            `json:"answered"`
	Total         int            `json:"total"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type questionResponse struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Text     string   `json:"text"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
}

type nextResponse struct {
	Completed     bool              `json:"completed"`
	PhaseIndex    int               `json:"phase_index"`
	QuestionIndex int               `json:"question_index"`
	PhaseName     string            `json:"phase_name,omitempty"`
	Question      *questionResponse `json:"question,omitempty"`
	Answered      int               `json:"answered"`
	Total         int               `json:"total"`
}

type toolCallResponse struct {
	SkillName  string          `json:"skill_name"`
	Result     json.RawMessage `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
	DurationMs int64           `json:"duration_ms"`
}

type agentResultResponse struct {
	AgentID    string             `json:"agent_id"`
	Success    bool               `json:"success"`
	OutputText string             `json:"output_text,omitempty"`
	Error      string             `json:"error,omitempty"`
	ToolCalls  []toolCallResponse `json:"tool_calls,omitempty"`
	DurationMs int64              `json:"duration_ms"`
}

type turnResponse struct {
	Synthesis     string                `json:"synthesis"`
	ExecutionMode string                `json:"execution_mode"`
	AgentResults  []agentResultResponse `json:"agent_results"`
	DurationMs    int64                 `json:"duration_ms"`
}

type storedTurnResponse struct {
	UserMessage   string                `json:"user_message"`
	Synthesis     string                `json:"synthesis"`
	ExecutionMode string                `json:"execution_mode"`
	AgentResults  []agentResultResponse `json:"agent_results"`
	DurationMs    int64                 `json:"duration_ms"`
	CreatedAt     time.Time             `json:"created_at"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func agentResultResponses(results []models.AgentResult) []agentResultResponse {
	out := make([]agentResultResponse, 0, len(results))
	for _, r := range results {
		ar := agentResultResponse{
			AgentID:    r.AgentID,
			Success:    r.Success,
			OutputText: r.OutputText,
			Error:      r.Error,
			DurationMs: r.DurationMs,
		}
		for _, tc := range r.ToolCalls {
			ar.ToolCalls = append(ar.ToolCalls, toolCallResponse{
				SkillName:  tc.SkillName,
				Result:     tc.Result,
				Error:      tc.Error,
				DurationMs: tc.DurationMs,
			})
		}
		out = append(out, ar)
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[server] failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: errorBody{Code: code, Message: message}})
}
