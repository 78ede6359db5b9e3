package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/terra-clan/interview-data/internal/config"
)

// AuthMiddleware verifies HS256 bearer tokens issued by the auth provider
type AuthMiddleware struct {
	secret []byte
	parser *jwt.Parser
	logger *slog.Logger
}

// NewAuthMiddleware creates new auth middleware
func NewAuthMiddleware(cfg config.AuthConfig, logger *slog.Logger) *AuthMiddleware {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.JWTAudience != "" {
		opts = append(opts, jwt.WithAudience(cfg.JWTAudience))
	}
	return &AuthMiddleware{
		secret: []byte(cfg.JWTSecret),
		parser: jwt.NewParser(opts...),
		logger: logger,
	}
}

// Authenticate verifies the bearer token and stores its subject as the user id
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "unauthorized", err.Error())
			return
		}

		userID, err := m.subject(token)
		if err != nil {
			m.logger.Warn("rejected token", "error", err, "remote_addr", r.RemoteAddr)
			respondError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), userID)))
	})
}

func (m *AuthMiddleware) subject(tokenStr string) (string, error) {
	if len(m.secret) == 0 {
		return "", errors.New("jwt secret is empty")
	}

	var claims jwt.RegisteredClaims
	tok, err := m.parser.ParseWithClaims(tokenStr, &claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		return "", err
	}
	if !tok.Valid {
		return "", errors.New("invalid token")
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errors.New("missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", errors.New("authorization header must be a bearer token")
	}
	return strings.TrimSpace(parts[1]), nil
}
