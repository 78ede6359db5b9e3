package models

// JobRole is an occupation category used to pick interview questions.
type JobRole struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	IsActive bool   `json:"is_active"`
}
