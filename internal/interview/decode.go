package interview

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/terra-clan/interview-data/internal/models"
	"github.com/terra-clan/interview-data/internal/storage"
)

// record reads typed fields out of a backend row. The first failure sticks
// and every later read returns a zero value.
type record struct {
	table string
	row   storage.Row
	err   error
}

func newRecord(table string, row storage.Row) *record {
	return &record{table: table, row: row}
}

func (r *record) fail(field, reason string) {
	if r.err == nil {
		r.err = &MalformedRecordError{Table: r.table, Field: field, Reason: reason}
	}
}

func (r *record) value(field string, required bool) (any, bool) {
	if r.err != nil {
		return nil, false
	}
	v, ok := r.row[field]
	if !ok || v == nil {
		if required {
			r.fail(field, "is missing")
		}
		return nil, false
	}
	return v, true
}

func (r *record) str(field string) string {
	v, ok := r.value(field, true)
	if !ok {
		return ""
	}
	s, ok := asString(v)
	if !ok {
		r.fail(field, fmt.Sprintf("has type %T, want string", v))
	}
	return s
}

func (r *record) optStr(field string) *string {
	v, ok := r.value(field, false)
	if !ok {
		return nil
	}
	s, ok := asString(v)
	if !ok {
		r.fail(field, fmt.Sprintf("has type %T, want string", v))
		return nil
	}
	return &s
}

func (r *record) integer(field string) int64 {
	v, ok := r.value(field, true)
	if !ok {
		return 0
	}
	n, ok := asInt64(v)
	if !ok {
		r.fail(field, fmt.Sprintf("has type %T, want integer", v))
	}
	return n
}

func (r *record) boolean(field string) bool {
	v, ok := r.value(field, true)
	if !ok {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	default:
		// SQLite stores booleans as 0/1 integers
		if n, ok := asInt64(v); ok && (n == 0 || n == 1) {
			return n == 1
		}
	}
	r.fail(field, fmt.Sprintf("has type %T, want boolean", v))
	return false
}

// optTime accepts native timestamps and the text layouts emitted by
// PostgREST and SQLite
func (r *record) optTime(field string) time.Time {
	v, ok := r.value(field, false)
	if !ok {
		return time.Time{}
	}
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05"} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed
			}
		}
		r.fail(field, fmt.Sprintf("has unparseable timestamp %q", t))
	default:
		r.fail(field, fmt.Sprintf("has type %T, want timestamp", v))
	}
	return time.Time{}
}

// embedded returns a reader for a joined table nested under table
func (r *record) embedded(table string) *record {
	nested := &record{table: table}
	if v, ok := r.value(table, true); ok {
		row, ok := v.(map[string]any)
		if !ok {
			r.fail(table, fmt.Sprintf("has type %T, want embedded record", v))
		}
		nested.row = row
	}
	nested.err = r.err
	return nested
}

func asString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case []byte:
		return string(s), true
	case [16]byte:
		// pgx decodes uuid columns into raw bytes when scanning into any
		return uuid.UUID(s).String(), true
	case uuid.UUID:
		return s.String(), true
	default:
		return "", false
	}
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int:
		return int64(n), true
	case int16:
		return int64(n), true
	case float64:
		if n == math.Trunc(n) && !math.IsInf(n, 0) {
			return int64(n), true
		}
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
	}
	return 0, false
}

func decodeJobRole(row storage.Row) (models.JobRole, error) {
	r := newRecord(tableJobRoles, row)
	role := models.JobRole{
		ID:       r.str("id"),
		Title:    r.str("title"),
		IsActive: r.boolean("is_active"),
	}
	return role, r.err
}

func decodeSession(row storage.Row) (models.InterviewSession, error) {
	r := newRecord(tableSessions, row)
	s := models.InterviewSession{
		ID:              r.str("id"),
		UserID:          r.str("user_id"),
		JobRoleID:       r.str("job_role_id"),
		ResumeID:        r.optStr("resume_id"),
		SessionName:     r.str("session_name"),
		Status:          models.SessionStatus(r.str("status")),
		TotalQuestions:  int(r.integer("total_questions")),
		DifficultyLevel: models.Difficulty(r.str("difficulty_level")),
		CreatedAt:       r.optTime("created_at"),
	}
	return s, r.err
}

func decodeQuestion(row storage.Row) (models.InterviewQuestion, error) {
	r := newRecord(tableQuestions, row)
	q := models.InterviewQuestion{
		ID:              r.str("id"),
		JobRoleID:       r.str("job_role_id"),
		DifficultyLevel: models.Difficulty(r.str("difficulty_level")),
		IsActive:        r.boolean("is_active"),
		QuestionText:    r.str("question_text"),
	}
	return q, r.err
}

func decodeTranscriptEntry(row storage.Row) (models.TranscriptEntry, error) {
	r := newRecord(tableAnswers, row)
	entry := models.TranscriptEntry{
		InterviewAnswer: models.InterviewAnswer{
			ID:         r.integer("id"),
			SessionID:  r.str("session_id"),
			QuestionID: r.str("question_id"),
			AnswerText: r.str("answer_text"),
			CreatedAt:  r.optTime("created_at"),
		},
	}

	q := r.embedded(tableQuestions)
	entry.QuestionText = q.str("question_text")
	if q.err != nil {
		return models.TranscriptEntry{}, q.err
	}
	return entry, r.err
}
