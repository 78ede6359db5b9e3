package interview

import (
	"context"
	"log/slog"

	"github.com/terra-clan/interview-data/internal/models"
	"github.com/terra-clan/interview-data/internal/storage"
)

const (
	tableJobRoles  = "job_roles"
	tableSessions  = "interview_sessions"
	tableQuestions = "interview_questions"
	tableAnswers   = "interview_answers"
)

var (
	jobRoleColumns  = []string{"id", "title", "is_active"}
	sessionColumns  = []string{"id", "user_id", "job_role_id", "resume_id", "session_name", "status", "total_questions", "difficulty_level", "created_at"}
	questionColumns = []string{"id", "job_role_id", "difficulty_level", "is_active", "question_text"}
	answerColumns   = []string{"id", "session_id", "question_id", "answer_text", "created_at"}
)

// Client reads and writes interview data through a storage backend.
// It holds no mutable state and is safe for concurrent use.
type Client struct {
	backend storage.Backend
	logger  *slog.Logger
}

// New creates a Client on top of backend. The backend stays owned by the
// caller, which closes it on shutdown.
func New(backend storage.Backend, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		backend: backend,
		logger:  logger,
	}
}

// Ping checks that the backend is reachable
func (c *Client) Ping(ctx context.Context) error {
	return c.backend.Ping(ctx)
}

// ListActiveJobRoles returns all active job roles ordered by title
func (c *Client) ListActiveJobRoles(ctx context.Context) ([]models.JobRole, error) {
	const op = "ListActiveJobRoles"

	q := storage.From(tableJobRoles).
		Select(jobRoleColumns...).
		Eq("is_active", true).
		Order("title", false)

	rows, err := c.backend.Select(ctx, q)
	if err != nil {
		return nil, c.queryFailed(op, tableJobRoles, err)
	}

	roles := make([]models.JobRole, 0, len(rows))
	for _, row := range rows {
		role, err := decodeJobRole(row)
		if err != nil {
			return nil, c.malformed(op, err)
		}
		roles = append(roles, role)
	}
	return roles, nil
}

// CreateInterviewSession inserts a scheduled session and returns the row
// as stored by the backend. A MalformedRecordError means the insert already
// committed and only the returned row failed to decode, so retrying would
// store a second session.
func (c *Client) CreateInterviewSession(ctx context.Context, params models.CreateSessionParams) (*models.InterviewSession, error) {
	const op = "CreateInterviewSession"

	params = params.WithDefaults()
	values := storage.Row{
		"user_id":          params.UserID,
		"job_role_id":      params.JobRoleID,
		"session_name":     params.SessionName,
		"status":           string(models.SessionScheduled),
		"total_questions":  params.TotalQuestions,
		"difficulty_level": string(params.DifficultyLevel),
	}
	if params.ResumeID != nil {
		values["resume_id"] = *params.ResumeID
	}

	row, err := c.backend.Insert(ctx, tableSessions, values, sessionColumns...)
	if err != nil {
		return nil, c.writeFailed(op, tableSessions, err)
	}

	session, err := decodeSession(row)
	if err != nil {
		return nil, c.malformed(op, err)
	}

	c.logger.Info("interview session created",
		"session_id", session.ID,
		"job_role_id", session.JobRoleID,
		"total_questions", session.TotalQuestions,
	)
	return &session, nil
}

// ListInterviewQuestions returns up to limit active questions for a job role
// and difficulty. A non-positive limit yields no questions without querying.
func (c *Client) ListInterviewQuestions(ctx context.Context, jobRoleID string, difficulty models.Difficulty, limit int) ([]models.InterviewQuestion, error) {
	const op = "ListInterviewQuestions"

	if limit <= 0 {
		return []models.InterviewQuestion{}, nil
	}

	q := storage.From(tableQuestions).
		Select(questionColumns...).
		Eq("job_role_id", jobRoleID).
		Eq("difficulty_level", string(difficulty)).
		Eq("is_active", true).
		Order("id", false).
		Limit(limit)

	rows, err := c.backend.Select(ctx, q)
	if err != nil {
		return nil, c.queryFailed(op, tableQuestions, err)
	}

	questions := make([]models.InterviewQuestion, 0, len(rows))
	for _, row := range rows {
		question, err := decodeQuestion(row)
		if err != nil {
			return nil, c.malformed(op, err)
		}
		questions = append(questions, question)
	}
	return questions, nil
}

// SaveAnswer records one answer. Repeated calls store repeated rows.
func (c *Client) SaveAnswer(ctx context.Context, sessionID, questionID, answerText string) error {
	const op = "SaveAnswer"

	values := storage.Row{
		"session_id":  sessionID,
		"question_id": questionID,
		"answer_text": answerText,
	}
	if _, err := c.backend.Insert(ctx, tableAnswers, values); err != nil {
		return c.writeFailed(op, tableAnswers, err)
	}

	c.logger.Debug("answer saved", "session_id", sessionID, "question_id", questionID)
	return nil
}

// GetInterviewTranscript returns the answers of a session with their
// question text, in the order they were saved
func (c *Client) GetInterviewTranscript(ctx context.Context, sessionID string) ([]models.TranscriptEntry, error) {
	const op = "GetInterviewTranscript"

	q := storage.From(tableAnswers).
		Select(answerColumns...).
		Embed(tableQuestions, "question_id", "question_text").
		Eq("session_id", sessionID).
		Order("id", false)

	rows, err := c.backend.Select(ctx, q)
	if err != nil {
		return nil, c.queryFailed(op, tableAnswers, err)
	}

	entries := make([]models.TranscriptEntry, 0, len(rows))
	for _, row := range rows {
		entry, err := decodeTranscriptEntry(row)
		if err != nil {
			return nil, c.malformed(op, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (c *Client) queryFailed(op, table string, err error) error {
	c.logger.Error("query failed", "op", op, "table", table, "error", err)
	return &RemoteQueryError{Op: op, Table: table, Err: err}
}

func (c *Client) writeFailed(op, table string, err error) error {
	c.logger.Error("write failed", "op", op, "table", table, "error", err)
	return &RemoteWriteError{Op: op, Table: table, Err: err}
}

func (c *Client) malformed(op string, err error) error {
	c.logger.Error("malformed record", "op", op, "error", err)
	return err
}
