package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/terra-clan/interview-data/internal/models"
)

// Client is a Go SDK for the interview-data API
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new client. token is the user's bearer JWT.
func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError is an error envelope returned by the server
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (HTTP %d): %s - %s", e.Status, e.Code, e.Message)
}

// CreateSessionRequest represents a session creation request. Zero values
// fall back to the server defaults.
type CreateSessionRequest struct {
	JobRoleID       string            `json:"job_role_id"`
	ResumeID        *string           `json:"resume_id,omitempty"`
	SessionName     string            `json:"session_name,omitempty"`
	TotalQuestions  int               `json:"total_questions,omitempty"`
	DifficultyLevel models.Difficulty `json:"difficulty_level,omitempty"`
}

// ListJobRoles retrieves all active job roles
func (c *Client) ListJobRoles(ctx context.Context) ([]models.JobRole, error) {
	var data struct {
		JobRoles []models.JobRole `json:"job_roles"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/v1/job-roles", nil, &data); err != nil {
		return nil, err
	}
	return data.JobRoles, nil
}

// ListQuestions retrieves up to limit questions for a job role
func (c *Client) ListQuestions(ctx context.Context, jobRoleID string, difficulty models.Difficulty, limit int) ([]models.InterviewQuestion, error) {
	params := url.Values{}
	if difficulty != "" {
		params.Set("difficulty", string(difficulty))
	}
	params.Set("limit", strconv.Itoa(limit))

	path := "/api/v1/job-roles/" + url.PathEscape(jobRoleID) + "/questions?" + params.Encode()

	var data struct {
		Questions []models.InterviewQuestion `json:"questions"`
	}
	if err := c.call(ctx, http.MethodGet, path, nil, &data); err != nil {
		return nil, err
	}
	return data.Questions, nil
}

// CreateSession starts a scheduled interview session for the token's user
func (c *Client) CreateSession(ctx context.Context, req CreateSessionRequest) (*models.InterviewSession, error) {
	var session models.InterviewSession
	if err := c.call(ctx, http.MethodPost, "/api/v1/sessions", req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// SaveAnswer records an answer to a question within a session
func (c *Client) SaveAnswer(ctx context.Context, sessionID, questionID, answerText string) error {
	body := map[string]string{
		"question_id": questionID,
		"answer_text": answerText,
	}
	return c.call(ctx, http.MethodPost, "/api/v1/sessions/"+url.PathEscape(sessionID)+"/answers", body, nil)
}

// GetTranscript retrieves a session's answers with their question text
func (c *Client) GetTranscript(ctx context.Context, sessionID string) ([]models.TranscriptEntry, error) {
	var data struct {
		Entries []models.TranscriptEntry `json:"entries"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/v1/sessions/"+url.PathEscape(sessionID)+"/transcript", nil, &data); err != nil {
		return nil, err
	}
	return data.Entries, nil
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	return c.call(ctx, http.MethodGet, "/health", nil, nil)
}

// call performs a request and unpacks the response envelope into out
func (c *Client) call(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var result struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		if resp.StatusCode >= 400 {
			return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
		}
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success || resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		if result.Error != nil {
			apiErr.Code = result.Error.Code
			apiErr.Message = result.Error.Message
		}
		return apiErr
	}

	if out == nil || len(result.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(result.Data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
