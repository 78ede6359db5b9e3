package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "SERVER_HOST", "SERVER_PORT", "BACKEND_DRIVER", "DATABASE_DSN",
		"POSTGREST_URL", "POSTGREST_API_KEY", "AUTH_JWT_SECRET", "LOG_LEVEL", "CORS_ALLOWED_ORIGINS", "SEED_DIR",
	} {
		if value, ok := os.LookupEnv(key); ok {
			os.Unsetenv(key)
			t.Cleanup(func() { os.Setenv(key, value) })
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("AUTH_JWT_SECRET", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Backend.Driver != "pgx" {
		t.Errorf("expected pgx driver, got %q", cfg.Backend.Driver)
	}
	if !cfg.Backend.AutoMigrate {
		t.Error("expected auto migrate on by default")
	}
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	clearEnv(t)

	if _, err := Load(); err == nil {
		t.Fatal("expected error when AUTH_JWT_SECRET is not set")
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9090
  read_timeout: 5s
backend:
  driver: sqlite
  dsn: file:test.db
auth:
  jwt_secret: from-file
catalog:
  seed_dir: ./catalog
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SERVER_PORT", "9191")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9191 {
		t.Errorf("env should override file port, got %d", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("expected read timeout from file, got %s", cfg.Server.ReadTimeout)
	}
	if cfg.Backend.Driver != "sqlite" || cfg.Backend.DSN != "file:test.db" {
		t.Errorf("unexpected backend config: %+v", cfg.Backend)
	}
	if cfg.Auth.JWTSecret != "from-file" {
		t.Errorf("expected secret from file, got %q", cfg.Auth.JWTSecret)
	}
	if cfg.Catalog.SeedDir != "./catalog" {
		t.Errorf("expected seed dir from file, got %q", cfg.Catalog.SeedDir)
	}
	if cfg.Log.SlogLevel().String() != "DEBUG" {
		t.Errorf("expected debug level, got %s", cfg.Log.SlogLevel())
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("AUTH_JWT_SECRET", "secret")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults with secret", func(c *Config) {}, false},
		{"unknown driver", func(c *Config) { c.Backend.Driver = "mysql" }, true},
		{"sql driver without dsn", func(c *Config) { c.Backend.DSN = "" }, true},
		{"postgrest without url", func(c *Config) { c.Backend.Driver = "postgrest" }, true},
		{"postgrest with url", func(c *Config) {
			c.Backend.Driver = "postgrest"
			c.Backend.DSN = ""
			c.Backend.PostgREST.URL = "https://example.supabase.co/rest/v1"
		}, false},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, true},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Auth.JWTSecret = "secret"
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetEnvAsList(t *testing.T) {
	t.Setenv("TEST_LIST", " https://a.example , ,https://b.example")

	got := getEnvAsList("TEST_LIST", nil)
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Fatalf("unexpected list: %v", got)
	}
}
