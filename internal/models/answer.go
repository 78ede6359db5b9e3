package models

import "time"

// InterviewAnswer is one submitted answer. Answers are append-only.
type InterviewAnswer struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session_id"`
	QuestionID string    `json:"question_id"`
	AnswerText string    `json:"answer_text"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}

// TranscriptEntry is an answer joined with the text of its question
type TranscriptEntry struct {
	InterviewAnswer
	QuestionText string `json:"question_text"`
}
