package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/terra-clan/interview-data/internal/config"
	"github.com/terra-clan/interview-data/internal/models"
)

// DataClient is the interview data surface served over HTTP
type DataClient interface {
	Ping(ctx context.Context) error
	ListActiveJobRoles(ctx context.Context) ([]models.JobRole, error)
	CreateInterviewSession(ctx context.Context, params models.CreateSessionParams) (*models.InterviewSession, error)
	ListInterviewQuestions(ctx context.Context, jobRoleID string, difficulty models.Difficulty, limit int) ([]models.InterviewQuestion, error)
	SaveAnswer(ctx context.Context, sessionID, questionID, answerText string) error
	GetInterviewTranscript(ctx context.Context, sessionID string) ([]models.TranscriptEntry, error)
}

// Server represents the HTTP API server
type Server struct {
	config         config.ServerConfig
	router         *chi.Mux
	data           DataClient
	authMiddleware *AuthMiddleware
	logger         *slog.Logger
}

// NewServer creates a new API server
func NewServer(cfg config.ServerConfig, auth config.AuthConfig, data DataClient, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		config:         cfg,
		data:           data,
		authMiddleware: NewAuthMiddleware(auth, logger),
		logger:         logger,
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	origins := s.config.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	// Probes stay public
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware.Authenticate)

		r.Route("/job-roles", func(r chi.Router) {
			r.Get("/", s.handleListJobRoles)
			r.Get("/{id}/questions", s.handleListQuestions)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Post("/{id}/answers", s.handleSaveAnswer)
			r.Get("/{id}/transcript", s.handleGetTranscript)
		})
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
