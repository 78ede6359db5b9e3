package models

import "time"

// SessionStatus represents the lifecycle state of an interview session
type SessionStatus string

// SessionScheduled is the only status this service ever writes; later
// transitions are owned by whoever runs the interview.
const SessionScheduled SessionStatus = "scheduled"

// Difficulty tags questions and sessions
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

const (
	DefaultSessionName    = "Interview Session"
	DefaultTotalQuestions = 5
	DefaultDifficulty     = DifficultyMedium
)

// InterviewSession is one practice interview tied to a user and a job role.
type InterviewSession struct {
	ID              string        `json:"id"`
	UserID          string        `json:"user_id"`
	JobRoleID       string        `json:"job_role_id"`
	ResumeID        *string       `json:"resume_id,omitempty"`
	SessionName     string        `json:"session_name"`
	Status          SessionStatus `json:"status"`
	TotalQuestions  int           `json:"total_questions"`
	DifficultyLevel Difficulty    `json:"difficulty_level"`
	CreatedAt       time.Time     `json:"created_at,omitempty"`
}

// CreateSessionParams holds the inputs for a new session. Zero values of the
// optional fields fall back to DefaultSessionName, DefaultTotalQuestions and
// DefaultDifficulty.
type CreateSessionParams struct {
	UserID          string
	JobRoleID       string
	ResumeID        *string
	SessionName     string
	TotalQuestions  int
	DifficultyLevel Difficulty
}

// WithDefaults returns a copy of p with unset optional fields filled in.
func (p CreateSessionParams) WithDefaults() CreateSessionParams {
	if p.SessionName == "" {
		p.SessionName = DefaultSessionName
	}
	if p.TotalQuestions <= 0 {
		p.TotalQuestions = DefaultTotalQuestions
	}
	if p.DifficultyLevel == "" {
		p.DifficultyLevel = DefaultDifficulty
	}
	return p
}
