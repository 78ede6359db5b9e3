package interview_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/terra-clan/interview-data/internal/interview"
	"github.com/terra-clan/interview-data/internal/models"
	"github.com/terra-clan/interview-data/internal/storage"
	"github.com/terra-clan/interview-data/internal/testutil"
)

var errUnreachable = errors.New("connection refused")

// stubBackend answers every call with fixed results
type stubBackend struct {
	rows    []storage.Row
	row     storage.Row
	err     error
	selects int
	inserts int
}

func (s *stubBackend) Select(context.Context, storage.Query) ([]storage.Row, error) {
	s.selects++
	return s.rows, s.err
}

func (s *stubBackend) Insert(context.Context, string, storage.Row, ...string) (storage.Row, error) {
	s.inserts++
	return s.row, s.err
}

func (s *stubBackend) Ping(context.Context) error { return s.err }
func (s *stubBackend) Close() error               { return nil }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newClient(t *testing.T) (*interview.Client, *storage.SQLBackend) {
	t.Helper()
	b := testutil.OpenSQLite(t)
	return interview.New(b, quietLogger()), b
}

func TestListActiveJobRoles(t *testing.T) {
	c, b := newClient(t)
	ctx := context.Background()

	testutil.SeedJobRole(t, b, "Site Reliability Engineer", true)
	testutil.SeedJobRole(t, b, "Backend Engineer", true)
	testutil.SeedJobRole(t, b, "COBOL Maintainer", false)
	testutil.SeedJobRole(t, b, "Data Analyst", true)

	roles, err := c.ListActiveJobRoles(ctx)
	if err != nil {
		t.Fatalf("ListActiveJobRoles() error = %v", err)
	}

	want := []string{"Backend Engineer", "Data Analyst", "Site Reliability Engineer"}
	if len(roles) != len(want) {
		t.Fatalf("got %d roles, want %d", len(roles), len(want))
	}
	for i, role := range roles {
		if role.Title != want[i] {
			t.Errorf("roles[%d].Title = %q, want %q", i, role.Title, want[i])
		}
		if !role.IsActive {
			t.Errorf("roles[%d] is inactive", i)
		}
		if role.ID == "" {
			t.Errorf("roles[%d] has empty id", i)
		}
	}
}

func TestListActiveJobRoles_Empty(t *testing.T) {
	c, b := newClient(t)
	testutil.SeedJobRole(t, b, "Retired", false)

	roles, err := c.ListActiveJobRoles(context.Background())
	if err != nil {
		t.Fatalf("ListActiveJobRoles() error = %v", err)
	}
	if roles == nil || len(roles) != 0 {
		t.Errorf("roles = %#v, want empty non-nil slice", roles)
	}
}

func TestCreateInterviewSession_Defaults(t *testing.T) {
	c, b := newClient(t)
	roleID := testutil.SeedJobRole(t, b, "Backend Engineer", true)

	session, err := c.CreateInterviewSession(context.Background(), models.CreateSessionParams{
		UserID:    "user-1",
		JobRoleID: roleID,
	})
	if err != nil {
		t.Fatalf("CreateInterviewSession() error = %v", err)
	}

	if session.ID == "" {
		t.Error("session id is empty")
	}
	if session.UserID != "user-1" || session.JobRoleID != roleID {
		t.Errorf("session = %+v, want user-1 / %s", session, roleID)
	}
	if session.SessionName != models.DefaultSessionName {
		t.Errorf("SessionName = %q, want %q", session.SessionName, models.DefaultSessionName)
	}
	if session.TotalQuestions != 5 {
		t.Errorf("TotalQuestions = %d, want 5", session.TotalQuestions)
	}
	if session.DifficultyLevel != models.DifficultyMedium {
		t.Errorf("DifficultyLevel = %q, want medium", session.DifficultyLevel)
	}
	if session.Status != models.SessionScheduled {
		t.Errorf("Status = %q, want scheduled", session.Status)
	}
	if session.ResumeID != nil {
		t.Errorf("ResumeID = %q, want nil", *session.ResumeID)
	}
	if session.CreatedAt.IsZero() {
		t.Error("CreatedAt is zero")
	}
}

func TestCreateInterviewSession_Overrides(t *testing.T) {
	c, b := newClient(t)
	roleID := testutil.SeedJobRole(t, b, "Backend Engineer", true)
	resume := "resume-42"

	session, err := c.CreateInterviewSession(context.Background(), models.CreateSessionParams{
		UserID:          "user-2",
		JobRoleID:       roleID,
		ResumeID:        &resume,
		SessionName:     "  Mock loop #3 ",
		TotalQuestions:  8,
		DifficultyLevel: models.DifficultyHard,
	})
	if err != nil {
		t.Fatalf("CreateInterviewSession() error = %v", err)
	}

	if session.SessionName != "  Mock loop #3 " {
		t.Errorf("SessionName = %q, want exact supplied name", session.SessionName)
	}
	if session.TotalQuestions != 8 {
		t.Errorf("TotalQuestions = %d, want 8", session.TotalQuestions)
	}
	if session.DifficultyLevel != models.DifficultyHard {
		t.Errorf("DifficultyLevel = %q, want hard", session.DifficultyLevel)
	}
	if session.ResumeID == nil || *session.ResumeID != resume {
		t.Errorf("ResumeID = %v, want %q", session.ResumeID, resume)
	}
	if session.Status != models.SessionScheduled {
		t.Errorf("Status = %q, want scheduled", session.Status)
	}
}

func TestCreateInterviewSession_UnknownJobRole(t *testing.T) {
	c, _ := newClient(t)

	_, err := c.CreateInterviewSession(context.Background(), models.CreateSessionParams{
		UserID:    "user-1",
		JobRoleID: "no-such-role",
	})

	var writeErr *interview.RemoteWriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("error = %v, want RemoteWriteError", err)
	}
	if writeErr.Table != "interview_sessions" {
		t.Errorf("Table = %q, want interview_sessions", writeErr.Table)
	}
	if !storage.IsConstraintViolation(err) {
		t.Errorf("expected constraint violation to be reachable through %v", err)
	}
}

func TestListInterviewQuestions(t *testing.T) {
	c, b := newClient(t)
	ctx := context.Background()

	roleID := testutil.SeedJobRole(t, b, "Backend Engineer", true)
	otherRole := testutil.SeedJobRole(t, b, "Designer", true)
	for _, text := range []string{"q1", "q2", "q3", "q4", "q5"} {
		testutil.SeedQuestion(t, b, roleID, models.DifficultyHard, text, true)
	}
	testutil.SeedQuestion(t, b, roleID, models.DifficultyHard, "retired", false)
	testutil.SeedQuestion(t, b, roleID, models.DifficultyEasy, "easy one", true)
	testutil.SeedQuestion(t, b, otherRole, models.DifficultyHard, "other role", true)

	questions, err := c.ListInterviewQuestions(ctx, roleID, models.DifficultyHard, 3)
	if err != nil {
		t.Fatalf("ListInterviewQuestions() error = %v", err)
	}
	if len(questions) != 3 {
		t.Fatalf("got %d questions, want 3", len(questions))
	}
	for _, q := range questions {
		if q.JobRoleID != roleID || q.DifficultyLevel != models.DifficultyHard || !q.IsActive {
			t.Errorf("unexpected question %+v", q)
		}
	}

	again, err := c.ListInterviewQuestions(ctx, roleID, models.DifficultyHard, 3)
	if err != nil {
		t.Fatalf("ListInterviewQuestions() error = %v", err)
	}
	for i := range questions {
		if again[i].ID != questions[i].ID {
			t.Errorf("question order changed between calls at %d", i)
		}
	}

	all, err := c.ListInterviewQuestions(ctx, roleID, models.DifficultyHard, 50)
	if err != nil {
		t.Fatalf("ListInterviewQuestions() error = %v", err)
	}
	if len(all) != 5 {
		t.Errorf("got %d questions, want the 5 active hard ones", len(all))
	}
}

func TestListInterviewQuestions_NonPositiveLimit(t *testing.T) {
	for _, limit := range []int{0, -1} {
		stub := &stubBackend{err: errUnreachable}
		c := interview.New(stub, quietLogger())

		questions, err := c.ListInterviewQuestions(context.Background(), "role", models.DifficultyEasy, limit)
		if err != nil {
			t.Fatalf("limit %d: error = %v", limit, err)
		}
		if questions == nil || len(questions) != 0 {
			t.Errorf("limit %d: questions = %#v, want empty", limit, questions)
		}
		if stub.selects != 0 {
			t.Errorf("limit %d: backend queried %d times", limit, stub.selects)
		}
	}
}

func TestSaveAnswer_NoDeduplication(t *testing.T) {
	c, b := newClient(t)
	ctx := context.Background()

	roleID := testutil.SeedJobRole(t, b, "Backend Engineer", true)
	questionID := testutil.SeedQuestion(t, b, roleID, models.DifficultyMedium, "Explain channels", true)
	session, err := c.CreateInterviewSession(ctx, models.CreateSessionParams{UserID: "u", JobRoleID: roleID})
	if err != nil {
		t.Fatalf("CreateInterviewSession() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := c.SaveAnswer(ctx, session.ID, questionID, "They pass values between goroutines"); err != nil {
			t.Fatalf("SaveAnswer() #%d error = %v", i+1, err)
		}
	}

	transcript, err := c.GetInterviewTranscript(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetInterviewTranscript() error = %v", err)
	}
	if len(transcript) != 2 {
		t.Fatalf("got %d answers, want 2", len(transcript))
	}
	if transcript[0].ID == transcript[1].ID {
		t.Errorf("answers share id %d", transcript[0].ID)
	}
}

func TestGetInterviewTranscript(t *testing.T) {
	c, b := newClient(t)
	ctx := context.Background()

	roleID := testutil.SeedJobRole(t, b, "Backend Engineer", true)
	q1 := testutil.SeedQuestion(t, b, roleID, models.DifficultyMedium, "What is a goroutine?", true)
	q2 := testutil.SeedQuestion(t, b, roleID, models.DifficultyMedium, "What is a mutex?", true)

	session, err := c.CreateInterviewSession(ctx, models.CreateSessionParams{UserID: "u", JobRoleID: roleID})
	if err != nil {
		t.Fatalf("CreateInterviewSession() error = %v", err)
	}
	other, err := c.CreateInterviewSession(ctx, models.CreateSessionParams{UserID: "u", JobRoleID: roleID})
	if err != nil {
		t.Fatalf("CreateInterviewSession() error = %v", err)
	}

	saves := []struct{ question, answer string }{
		{q2, "a lock"},
		{q1, "a green thread"},
		{q2, "a lock, revisited"},
	}
	for _, s := range saves {
		if err := c.SaveAnswer(ctx, session.ID, s.question, s.answer); err != nil {
			t.Fatalf("SaveAnswer() error = %v", err)
		}
	}
	if err := c.SaveAnswer(ctx, other.ID, q1, "not mine"); err != nil {
		t.Fatalf("SaveAnswer() error = %v", err)
	}

	transcript, err := c.GetInterviewTranscript(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetInterviewTranscript() error = %v", err)
	}
	if len(transcript) != len(saves) {
		t.Fatalf("got %d entries, want %d", len(transcript), len(saves))
	}

	questionText := map[string]string{q1: "What is a goroutine?", q2: "What is a mutex?"}
	for i, entry := range transcript {
		if entry.SessionID != session.ID {
			t.Errorf("entry %d belongs to session %s", i, entry.SessionID)
		}
		if entry.AnswerText != saves[i].answer {
			t.Errorf("entry %d answer = %q, want %q", i, entry.AnswerText, saves[i].answer)
		}
		if entry.QuestionText != questionText[saves[i].question] {
			t.Errorf("entry %d question text = %q", i, entry.QuestionText)
		}
		if i > 0 && entry.ID <= transcript[i-1].ID {
			t.Errorf("entry %d id %d not after %d", i, entry.ID, transcript[i-1].ID)
		}
	}
}

func TestGetInterviewTranscript_NoAnswers(t *testing.T) {
	c, b := newClient(t)
	ctx := context.Background()

	roleID := testutil.SeedJobRole(t, b, "Backend Engineer", true)
	session, err := c.CreateInterviewSession(ctx, models.CreateSessionParams{UserID: "u", JobRoleID: roleID})
	if err != nil {
		t.Fatalf("CreateInterviewSession() error = %v", err)
	}

	transcript, err := c.GetInterviewTranscript(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetInterviewTranscript() error = %v", err)
	}
	if transcript == nil || len(transcript) != 0 {
		t.Errorf("transcript = %#v, want empty non-nil slice", transcript)
	}
}

func TestReadFailuresAreQueryErrors(t *testing.T) {
	stub := &stubBackend{err: errUnreachable}
	c := interview.New(stub, quietLogger())
	ctx := context.Background()

	reads := map[string]func() error{
		"ListActiveJobRoles": func() error {
			_, err := c.ListActiveJobRoles(ctx)
			return err
		},
		"ListInterviewQuestions": func() error {
			_, err := c.ListInterviewQuestions(ctx, "role", models.DifficultyHard, 3)
			return err
		},
		"GetInterviewTranscript": func() error {
			_, err := c.GetInterviewTranscript(ctx, "session")
			return err
		},
	}

	for op, read := range reads {
		t.Run(op, func(t *testing.T) {
			err := read()
			var queryErr *interview.RemoteQueryError
			if !errors.As(err, &queryErr) {
				t.Fatalf("error = %v, want RemoteQueryError", err)
			}
			if queryErr.Op != op {
				t.Errorf("Op = %q, want %q", queryErr.Op, op)
			}
			if !errors.Is(err, errUnreachable) {
				t.Errorf("cause not preserved: %v", err)
			}
		})
	}
}

func TestWriteFailuresAreWriteErrors(t *testing.T) {
	stub := &stubBackend{err: errUnreachable}
	c := interview.New(stub, quietLogger())
	ctx := context.Background()

	_, err := c.CreateInterviewSession(ctx, models.CreateSessionParams{UserID: "u", JobRoleID: "r"})
	var writeErr *interview.RemoteWriteError
	if !errors.As(err, &writeErr) || !errors.Is(err, errUnreachable) {
		t.Errorf("CreateInterviewSession error = %v, want RemoteWriteError", err)
	}

	err = c.SaveAnswer(ctx, "s", "q", "a")
	if !errors.As(err, &writeErr) || !errors.Is(err, errUnreachable) {
		t.Errorf("SaveAnswer error = %v, want RemoteWriteError", err)
	}
	if writeErr.Table != "interview_answers" {
		t.Errorf("Table = %q, want interview_answers", writeErr.Table)
	}
}

func TestSaveAnswer_FailureLeavesNoRow(t *testing.T) {
	c, b := newClient(t)
	ctx := context.Background()

	roleID := testutil.SeedJobRole(t, b, "Backend Engineer", true)
	session, err := c.CreateInterviewSession(ctx, models.CreateSessionParams{UserID: "u", JobRoleID: roleID})
	if err != nil {
		t.Fatalf("CreateInterviewSession() error = %v", err)
	}

	err = c.SaveAnswer(ctx, session.ID, "missing-question", "answer")
	var writeErr *interview.RemoteWriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("error = %v, want RemoteWriteError", err)
	}

	transcript, err := c.GetInterviewTranscript(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetInterviewTranscript() error = %v", err)
	}
	if len(transcript) != 0 {
		t.Errorf("failed write left %d rows", len(transcript))
	}
}

func TestMalformedRows(t *testing.T) {
	ctx := context.Background()

	stub := &stubBackend{rows: []storage.Row{{"id": "r1", "is_active": true}}}
	_, err := interview.New(stub, quietLogger()).ListActiveJobRoles(ctx)
	var malformed *interview.MalformedRecordError
	if !errors.As(err, &malformed) {
		t.Fatalf("error = %v, want MalformedRecordError", err)
	}
	if malformed.Table != "job_roles" || malformed.Field != "title" {
		t.Errorf("got %+v, want job_roles.title", malformed)
	}

	stub = &stubBackend{row: storage.Row{
		"id": "s1", "user_id": "u", "job_role_id": "r", "session_name": "n",
		"status": "scheduled", "total_questions": "five", "difficulty_level": "medium",
	}}
	_, err = interview.New(stub, quietLogger()).CreateInterviewSession(ctx, models.CreateSessionParams{UserID: "u", JobRoleID: "r"})
	if !errors.As(err, &malformed) || malformed.Field != "total_questions" {
		t.Errorf("error = %v, want malformed total_questions", err)
	}
}

func TestPing(t *testing.T) {
	c, _ := newClient(t)
	if err := c.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}

	down := interview.New(&stubBackend{err: errUnreachable}, nil)
	if err := down.Ping(context.Background()); !errors.Is(err, errUnreachable) {
		t.Errorf("Ping() error = %v, want %v", err, errUnreachable)
	}
}
