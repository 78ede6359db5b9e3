package testutil

import (
	"context"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/terra-clan/interview-data/internal/models"
	"github.com/terra-clan/interview-data/internal/storage"
)

// OpenSQLite opens a private in-memory SQLite backend with the schema applied.
// The backend is closed when the test ends.
func OpenSQLite(t *testing.T) *storage.SQLBackend {
	t.Helper()
	ctx := context.Background()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	b, err := storage.NewSQLBackend(ctx, storage.SQLConfig{Driver: storage.DriverSQLite, DSN: dsn})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })

	if err := b.Migrate(ctx); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return b
}

// SeedJobRole inserts a job role and returns its id
func SeedJobRole(t *testing.T, b storage.Backend, title string, active bool) string {
	t.Helper()
	return insertID(t, b, "job_roles", storage.Row{"title": title, "is_active": active})
}

// SeedQuestion inserts a question and returns its id
func SeedQuestion(t *testing.T, b storage.Backend, jobRoleID string, difficulty models.Difficulty, text string, active bool) string {
	t.Helper()
	return insertID(t, b, "interview_questions", storage.Row{
		"job_role_id":      jobRoleID,
		"difficulty_level": string(difficulty),
		"question_text":    text,
		"is_active":        active,
	})
}

func insertID(t *testing.T, b storage.Backend, table string, values storage.Row) string {
	t.Helper()
	row, err := b.Insert(context.Background(), table, values, "id")
	if err != nil {
		t.Fatalf("seed %s: %v", table, err)
	}
	id, ok := row["id"].(string)
	if !ok {
		t.Fatalf("seed %s: unexpected id %#v", table, row["id"])
	}
	return id
}

// GenerateJWTHS256 returns a signed token for subject, with an optional audience
func GenerateJWTHS256(t *testing.T, secret, subject, audience string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	if audience != "" {
		claims["aud"] = audience
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}
