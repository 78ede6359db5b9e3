package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/terra-clan/interview-data/internal/models"
	"github.com/terra-clan/interview-data/internal/storage"
)

// JobRole is a job role together with its question bank, as read from YAML
type JobRole struct {
	Title     string
	Active    bool
	Questions []Question
}

// Question is one entry of a question bank
type Question struct {
	Difficulty models.Difficulty
	Text       string
	Active     bool
}

// roleFile is the on-disk YAML structure of a question bank
type roleFile struct {
	Title     string         `yaml:"title"`
	Active    *bool          `yaml:"active"`
	Questions []questionFile `yaml:"questions"`
}

type questionFile struct {
	Difficulty string `yaml:"difficulty"`
	Text       string `yaml:"text"`
	Active     *bool  `yaml:"active"`
}

// Loader reads question banks, one YAML file per job role
type Loader struct {
	mu    sync.RWMutex
	roles map[string]*JobRole
}

// NewLoader creates an empty loader
func NewLoader() *Loader {
	return &Loader{
		roles: make(map[string]*JobRole),
	}
}

// LoadFromDir loads every *.yaml / *.yml file in dir. Files that fail to
// parse are skipped with a warning.
func (l *Loader) LoadFromDir(dir string) error {
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("failed to open catalog dir: %w", err)
	}

	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return fmt.Errorf("failed to list catalog files: %w", err)
		}
		files = append(files, matches...)
	}
	sort.Strings(files)

	loaded := 0
	for _, file := range files {
		if err := l.LoadFromFile(file); err != nil {
			slog.Warn("failed to load question bank", "file", file, "error", err)
			continue
		}
		loaded++
	}

	slog.Info("question banks loaded", "count", loaded, "total_files", len(files))
	return nil
}

// LoadFromFile loads a single question bank
func (l *Loader) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var f roleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	role, err := f.toRole()
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.roles[role.Title] = role
	l.mu.Unlock()

	slog.Debug("question bank loaded", "title", role.Title, "questions", len(role.Questions))
	return nil
}

func (f roleFile) toRole() (*JobRole, error) {
	title := strings.TrimSpace(f.Title)
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}

	role := &JobRole{
		Title:     title,
		Active:    f.Active == nil || *f.Active,
		Questions: make([]Question, 0, len(f.Questions)),
	}
	for i, q := range f.Questions {
		if strings.TrimSpace(q.Text) == "" {
			return nil, fmt.Errorf("question %d: text is required", i+1)
		}
		difficulty := models.Difficulty(strings.ToLower(q.Difficulty))
		switch difficulty {
		case "":
			difficulty = models.DefaultDifficulty
		case models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard:
		default:
			return nil, fmt.Errorf("question %d: unknown difficulty %q", i+1, q.Difficulty)
		}
		role.Questions = append(role.Questions, Question{
			Difficulty: difficulty,
			Text:       q.Text,
			Active:     q.Active == nil || *q.Active,
		})
	}
	return role, nil
}

// Get returns a loaded role by title
func (l *Loader) Get(title string) *JobRole {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.roles[title]
}

// List returns all loaded roles ordered by title
func (l *Loader) List() []*JobRole {
	l.mu.RLock()
	defer l.mu.RUnlock()

	roles := make([]*JobRole, 0, len(l.roles))
	for _, r := range l.roles {
		roles = append(roles, r)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].Title < roles[j].Title })
	return roles
}

// SeedResult counts what Seed wrote
type SeedResult struct {
	RolesCreated     int
	RolesSkipped     int
	QuestionsCreated int
}

// Seed inserts every loaded role whose title is not yet stored, then any of
// its questions whose text is missing for that role. Running it again after
// a partial failure completes the question bank without duplicating rows.
func (l *Loader) Seed(ctx context.Context, backend storage.Backend) (SeedResult, error) {
	var res SeedResult

	for _, role := range l.List() {
		existing, err := backend.Select(ctx, storage.From("job_roles").Select("id").Eq("title", role.Title).Limit(1))
		if err != nil {
			return res, fmt.Errorf("failed to look up job role %q: %w", role.Title, err)
		}

		var roleID any
		stored := make(map[string]bool)
		if len(existing) > 0 {
			roleID = existing[0]["id"]
			res.RolesSkipped++

			rows, err := backend.Select(ctx, storage.From("interview_questions").Select("question_text").Eq("job_role_id", roleID))
			if err != nil {
				return res, fmt.Errorf("failed to look up questions for %q: %w", role.Title, err)
			}
			for _, row := range rows {
				if text, ok := row["question_text"].(string); ok {
					stored[text] = true
				}
			}
		} else {
			row, err := backend.Insert(ctx, "job_roles", storage.Row{
				"title":     role.Title,
				"is_active": role.Active,
			}, "id")
			if err != nil {
				return res, fmt.Errorf("failed to insert job role %q: %w", role.Title, err)
			}
			roleID = row["id"]
			res.RolesCreated++
		}

		for _, q := range role.Questions {
			if stored[q.Text] {
				continue
			}
			if _, err := backend.Insert(ctx, "interview_questions", storage.Row{
				"job_role_id":      roleID,
				"difficulty_level": string(q.Difficulty),
				"question_text":    q.Text,
				"is_active":        q.Active,
			}); err != nil {
				return res, fmt.Errorf("failed to insert question for %q: %w", role.Title, err)
			}
			stored[q.Text] = true
			res.QuestionsCreated++
		}
	}

	slog.Info("catalog seeded",
		"roles_created", res.RolesCreated,
		"roles_skipped", res.RolesSkipped,
		"questions_created", res.QuestionsCreated,
	)
	return res, nil
}
