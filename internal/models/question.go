package models

// InterviewQuestion is a question bank entry for a job role.
type InterviewQuestion struct {
	ID              string     `json:"id"`
	JobRoleID       string     `json:"job_role_id"`
	DifficultyLevel Difficulty `json:"difficulty_level"`
	IsActive        bool       `json:"is_active"`
	QuestionText    string     `json:"question_text"`
}
