package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/interview-data/internal/interview"
	"github.com/terra-clan/interview-data/internal/models"
	"github.com/terra-clan/interview-data/internal/storage"
)

const defaultQuestionLimit = 5

// Response helpers

type apiResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	_ = json.NewEncoder(w).Encode(resp)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: false,
		Error: &apiError{
			Code:    code,
			Message: message,
		},
	}

	_ = json.NewEncoder(w).Encode(resp)
}

// respondDataError maps interview client failures onto HTTP statuses.
// The client has already logged the underlying error.
func respondDataError(w http.ResponseWriter, err error, message string) {
	var malformed *interview.MalformedRecordError
	switch {
	case errors.As(err, &malformed):
		respondError(w, http.StatusBadGateway, "malformed_record", message)
	case storage.IsConstraintViolation(err):
		respondError(w, http.StatusUnprocessableEntity, "constraint_violation", message)
	case storage.IsDataException(err):
		respondError(w, http.StatusBadRequest, "invalid_input", message)
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", message)
	}
}

// decodeBody reads a JSON body into dst and validates it
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", validationMessage(err))
		return false
	}
	return true
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.data.Ping(r.Context()); err != nil {
		s.logger.Warn("backend not ready", "error", err)
		respondError(w, http.StatusServiceUnavailable, "not_ready", "service not ready")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

// Job role handlers

func (s *Server) handleListJobRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := s.data.ListActiveJobRoles(r.Context())
	if err != nil {
		respondDataError(w, err, "failed to list job roles")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"job_roles": roles,
		"total":     len(roles),
	})
}

type questionsQuery struct {
	Difficulty string `json:"difficulty" validate:"oneof=easy medium hard"`
	Limit      int    `json:"limit" validate:"min=1,max=100"`
}

func (s *Server) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	jobRoleID := chi.URLParam(r, "id")

	query := questionsQuery{
		Difficulty: string(models.DefaultDifficulty),
		Limit:      defaultQuestionLimit,
	}
	if d := r.URL.Query().Get("difficulty"); d != "" {
		query.Difficulty = d
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			respondError(w, http.StatusBadRequest, "validation_error", "limit must be an integer")
			return
		}
		query.Limit = limit
	}
	if err := validate.Struct(query); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", validationMessage(err))
		return
	}

	questions, err := s.data.ListInterviewQuestions(r.Context(), jobRoleID, models.Difficulty(query.Difficulty), query.Limit)
	if err != nil {
		respondDataError(w, err, "failed to list questions")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"questions": questions,
		"total":     len(questions),
	})
}

// Session handlers

type createSessionRequest struct {
	JobRoleID       string  `json:"job_role_id" validate:"required"`
	ResumeID        *string `json:"resume_id" validate:"omitempty,min=1"`
	SessionName     string  `json:"session_name" validate:"max=200"`
	TotalQuestions  int     `json:"total_questions" validate:"gte=0,max=50"`
	DifficultyLevel string  `json:"difficulty_level" validate:"omitempty,oneof=easy medium hard"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	session, err := s.data.CreateInterviewSession(r.Context(), models.CreateSessionParams{
		UserID:          UserIDFromContext(r.Context()),
		JobRoleID:       req.JobRoleID,
		ResumeID:        req.ResumeID,
		SessionName:     req.SessionName,
		TotalQuestions:  req.TotalQuestions,
		DifficultyLevel: models.Difficulty(req.DifficultyLevel),
	})
	if err != nil {
		respondDataError(w, err, "failed to create session")
		return
	}

	respondJSON(w, http.StatusCreated, session)
}

type saveAnswerRequest struct {
	QuestionID string `json:"question_id" validate:"required"`
	AnswerText string `json:"answer_text" validate:"required"`
}

func (s *Server) handleSaveAnswer(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	var req saveAnswerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := s.data.SaveAnswer(r.Context(), sessionID, req.QuestionID, req.AnswerText); err != nil {
		respondDataError(w, err, "failed to save answer")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{
		"message": "answer saved",
	})
}

func (s *Server) handleGetTranscript(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	transcript, err := s.data.GetInterviewTranscript(r.Context(), sessionID)
	if err != nil {
		respondDataError(w, err, "failed to get transcript")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"entries":    transcript,
		"total":      len(transcript),
	})
}
