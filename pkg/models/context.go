// Package models defines the shared domain types for Planforge.
package models

// ConversationContext is an immutable snapshot of one planning session,
// supplied by the session layer at the start of a turn. The orchestration
// core never mutates it; position advancement happens in the caller using
// the Navigator's NextStep.
type ConversationContext struct {
	// SessionID identifies the planning session.
	SessionID string `json:"session_id"`
	// Language is the BCP 47 tag for user-facing output (e.g. "en-US").
	Language string `json:"language"`
	// Answers maps question IDs to the values the user has provided.
	Answers map[string]any `json:"answers"`
	// CurrentPhaseIndex is the zero-based index of the active phase.
	CurrentPhaseIndex int `json:"current_phase_index"`
	// CurrentQuestionIndex is the zero-based index of the active question
	// within the current phase. -1 means no question has been asked yet.
	CurrentQuestionIndex int `json:"current_question_index"`
}

// Clone returns a deep copy of the context. Handed to concurrent tasks so
// no goroutine shares the answers map with the caller.
func (c ConversationContext) Clone() ConversationContext {
	out := c
	out.Answers = make(map[string]any, len(c.Answers))
	for k, v := range c.Answers {
		out.Answers[k] = v
	}
	return out
}

// AnswerString returns the answer for a question ID as a string, or ""
// if the question is unanswered or the value is not a string.
func (c ConversationContext) AnswerString(questionID string) string {
	if v, ok := c.Answers[questionID]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// HasAnswer returns true if the question has been answered.
func (c ConversationContext) HasAnswer(questionID string) bool {
	_, ok := c.Answers[questionID]
	return ok
}
