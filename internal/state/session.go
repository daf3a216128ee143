package state

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/planforge/planforge/pkg/models"
)

// ErrSessionNotFound is returned when a session ID does not exist.
var ErrSessionNotFound = errors.New("session not found")

// Session is a stored conversation with its context snapshot.
type Session struct {
	ID        string
	Context   models.ConversationContext
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Turn is one stored orchestrated exchange.
type Turn struct {
	ID            int64
	SessionID     string
	UserMessage   string
	Synthesis     string
	ExecutionMode models.ExecutionMode
	AgentResults  []models.AgentResult
	DurationMs    int64
	CreatedAt     time.Time
}

// CreateSession creates a new session with the given language and
// returns it. An empty language defaults to en-US.
func (db *DB) CreateSession(language string) (*Session, error) {
	if language == "" {
		language = "en-US"
	}
	now := time.Now()
	sess := &Session{
		ID: uuid.New().String(),
		Context: models.ConversationContext{
			Language:             language,
			Answers:              map[string]any{},
			CurrentPhaseIndex:    0,
			CurrentQuestionIndex: -1,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	sess.Context.SessionID = sess.ID

	_, err := db.Exec(`
		INSERT INTO sessions (id, language, answers, phase_index, question_index, created_at, updated_at)
		VALUES (?, ?, '{}', 0, -1, ?, ?)
	`, sess.ID, language, formatTime(now), formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

// GetSession loads a session by ID.
func (db *DB) GetSession(id string) (*Session, error) {
	row := db.QueryRow(`
		SELECT id, language, answers, phase_index, question_index, created_at, updated_at
		FROM sessions WHERE id = ?
	`, id)

	var (
		sess       Session
		answersRaw string
		createdAt  string
		updatedAt  string
	)
	err := row.Scan(&sess.ID, &sess.Context.Language, &answersRaw,
		&sess.Context.CurrentPhaseIndex, &sess.Context.CurrentQuestionIndex,
		&createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	sess.Context.SessionID = sess.ID
	if err := json.Unmarshal([]byte(answersRaw), &sess.Context.Answers); err != nil {
		return nil, fmt.Errorf("decode session answers: %w", err)
	}
	if sess.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if sess.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &sess, nil
}

// SaveContext persists an updated conversation context for a session.
func (db *DB) SaveContext(ctx models.ConversationContext) error {
	answers, err := json.Marshal(ctx.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}

	result, err := db.Exec(`
		UPDATE sessions
		SET language = ?, answers = ?, phase_index = ?, question_index = ?, updated_at = ?
		WHERE id = ?
	`, ctx.Language, string(answers), ctx.CurrentPhaseIndex, ctx.CurrentQuestionIndex,
		formatTime(time.Now()), ctx.SessionID)
	if err != nil {
		return fmt.Errorf("save context: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %q", ErrSessionNotFound, ctx.SessionID)
	}
	return nil
}

// AppendTurn stores one orchestrated exchange in the session's history.
func (db *DB) AppendTurn(sessionID, userMessage string, result *models.OrchestrationResult) error {
	agentResults, err := json.Marshal(result.AgentResults)
	if err != nil {
		return fmt.Errorf("encode agent results: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO turns (session_id, user_message, synthesis, execution_mode, agent_results, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, sessionID, userMessage, result.Synthesis, string(result.Intent.ExecutionMode),
		string(agentResults), result.TotalDurationMs, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	return nil
}

// ListTurns returns a session's turns, oldest first.
func (db *DB) ListTurns(sessionID string) ([]Turn, error) {
	rows, err := db.Query(`
		SELECT id, session_id, user_message, synthesis, execution_mode, agent_results, duration_ms, created_at
		FROM turns WHERE session_id = ? ORDER BY id ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var (
			turn       Turn
			mode       string
			resultsRaw string
			createdAt  string
		)
		if err := rows.Scan(&turn.ID, &turn.SessionID, &turn.UserMessage, &turn.Synthesis,
			&mode, &resultsRaw, &turn.DurationMs, &createdAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turn.ExecutionMode = models.ExecutionMode(mode)
		if err := json.Unmarshal([]byte(resultsRaw), &turn.AgentResults); err != nil {
			return nil, fmt.Errorf("decode agent results: %w", err)
		}
		if turn.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}

// ListSessions returns all sessions, most recently updated first.
func (db *DB) ListSessions() ([]Session, error) {
	rows, err := db.Query(`SELECT id FROM sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sessions := make([]Session, 0, len(ids))
	for _, id := range ids {
		sess, err := db.GetSession(id)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *sess)
	}
	return sessions, nil
}
