package state

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/planforge/planforge/pkg/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "planforge.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := db.Migrate(); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCreateAndGetSession(t *testing.T) {
	db := testDB(t)

	sess, err := db.CreateSession("de-DE")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if sess.ID == "" {
		t.Fatal("session ID should not be empty")
	}
	if sess.Context.CurrentQuestionIndex != -1 {
		t.Errorf("question index = %d, want -1 (nothing asked yet)", sess.Context.CurrentQuestionIndex)
	}

	loaded, err := db.GetSession(sess.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if loaded.Context.Language != "de-DE" {
		t.Errorf("language = %q, want de-DE", loaded.Context.Language)
	}
	if loaded.Context.SessionID != sess.ID {
		t.Errorf("context session ID = %q, want %q", loaded.Context.SessionID, sess.ID)
	}
	if len(loaded.Context.Answers) != 0 {
		t.Errorf("new session should have no answers, got %v", loaded.Context.Answers)
	}
}

func TestGetSession_NotFound(t *testing.T) {
	db := testDB(t)

	_, err := db.GetSession("no-such-id")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestSaveContext_RoundTrip(t *testing.T) {
	db := testDB(t)

	sess, err := db.CreateSession("en-US")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	ctx := sess.Context
	ctx.Answers["business_path"] = "new"
	ctx.Answers["team_size"] = float64(4)
	ctx.CurrentPhaseIndex = 1
	ctx.CurrentQuestionIndex = 2

	if err := db.SaveContext(ctx); err != nil {
		t.Fatalf("SaveContext failed: %v", err)
	}

	loaded, err := db.GetSession(sess.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if loaded.Context.CurrentPhaseIndex != 1 || loaded.Context.CurrentQuestionIndex != 2 {
		t.Errorf("position = (%d, %d), want (1, 2)",
			loaded.Context.CurrentPhaseIndex, loaded.Context.CurrentQuestionIndex)
	}
	if loaded.Context.Answers["business_path"] != "new" {
		t.Errorf("answers = %v", loaded.Context.Answers)
	}
	if loaded.Context.Answers["team_size"] != float64(4) {
		t.Errorf("numeric answer = %v (%T), want float64 4",
			loaded.Context.Answers["team_size"], loaded.Context.Answers["team_size"])
	}
}

func TestSaveContext_UnknownSession(t *testing.T) {
	db := testDB(t)

	err := db.SaveContext(models.ConversationContext{SessionID: "ghost"})
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestAppendAndListTurns(t *testing.T) {
	db := testDB(t)

	sess, err := db.CreateSession("en-US")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	result := &models.OrchestrationResult{
		Synthesis: "Here is the plan.",
		Intent:    models.Intent{Goal: "plan", ExecutionMode: models.ModeParallel},
		AgentResults: []models.AgentResult{
			{TaskID: "task-1", AgentID: "market_analyst", Success: true, OutputText: "sized"},
			{TaskID: "task-2", AgentID: "customer_profiler", Success: false, Error: "Timeout"},
		},
		TotalDurationMs: 1234,
	}

	if err := db.AppendTurn(sess.ID, "What is my market?", result); err != nil {
		t.Fatalf("AppendTurn failed: %v", err)
	}
	if err := db.AppendTurn(sess.ID, "And my customers?", result); err != nil {
		t.Fatalf("AppendTurn failed: %v", err)
	}

	turns, err := db.ListTurns(sess.ID)
	if err != nil {
		t.Fatalf("ListTurns failed: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("got %d turns, want 2", len(turns))
	}
	if turns[0].UserMessage != "What is my market?" {
		t.Errorf("turns should be oldest first, got %q", turns[0].UserMessage)
	}
	if turns[0].ExecutionMode != models.ModeParallel {
		t.Errorf("mode = %s", turns[0].ExecutionMode)
	}
	if len(turns[0].AgentResults) != 2 {
		t.Fatalf("got %d agent results, want 2", len(turns[0].AgentResults))
	}
	if turns[0].AgentResults[1].Error != "Timeout" {
		t.Errorf("stored failure = %q", turns[0].AgentResults[1].Error)
	}
}

func TestListSessions_MostRecentFirst(t *testing.T) {
	db := testDB(t)

	first, err := db.CreateSession("en-US")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	second, err := db.CreateSession("en-US")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	// Touch the first session so it becomes the most recent.
	time.Sleep(1100 * time.Millisecond)
	if err := db.SaveContext(first.Context); err != nil {
		t.Fatalf("SaveContext failed: %v", err)
	}

	sessions, err := db.ListSessions()
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sessions))
	}
	if sessions[0].ID != first.ID || sessions[1].ID != second.ID {
		t.Errorf("order = [%s, %s], want first touched session first", sessions[0].ID, sessions[1].ID)
	}
}

func TestPurgeOldSessions(t *testing.T) {
	db := testDB(t)

	if _, err := db.CreateSession("en-US"); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	// Nothing is older than an hour yet.
	count, err := db.PurgeOldSessions(time.Hour)
	if err != nil {
		t.Fatalf("PurgeOldSessions failed: %v", err)
	}
	if count != 0 {
		t.Errorf("purged %d sessions, want 0", count)
	}

	// Everything is older than zero.
	time.Sleep(1100 * time.Millisecond)
	count, err = db.PurgeOldSessions(0)
	if err != nil {
		t.Fatalf("PurgeOldSessions failed: %v", err)
	}
	if count != 1 {
		t.Errorf("purged %d sessions, want 1", count)
	}
}
