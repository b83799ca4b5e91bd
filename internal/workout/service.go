package workout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/myrjola/fittrack/internal/sqlite"
)

const (
	maxNameLength = 100
	// historyLimit caps the unfiltered history.
	historyLimit = 50
)

// Service handles the business logic for generating, saving and logging workouts.
type Service struct {
	repo      *repository
	generator *Generator
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a new workout service.
func NewService(db *sqlite.Database, logger *slog.Logger, generator *Generator) *Service {
	return &Service{
		repo:      newRepository(db, logger),
		generator: generator,
		logger:    logger,
		now:       time.Now,
	}
}

// Generate proposes a workout for req. The workout is not stored.
func (s *Service) Generate(ctx context.Context, req Request) (GeneratedWorkout, error) {
	w, err := s.generator.Generate(ctx, req)
	if err != nil {
		return GeneratedWorkout{}, fmt.Errorf("generate workout: %w", err)
	}
	return w, nil
}

// SaveWorkout stores w for the current user under w.SuggestedName.
func (s *Service) SaveWorkout(ctx context.Context, w GeneratedWorkout) (SavedWorkout, error) {
	w.SuggestedName = strings.TrimSpace(w.SuggestedName)
	if w.Source == "" {
		w.Source = SourceCatalog
	}

	var problems []error
	switch {
	case w.SuggestedName == "":
		problems = append(problems, ErrMissingName)
	case len(w.SuggestedName) > maxNameLength:
		problems = append(problems, ErrNameTooLong)
	}
	if len(w.Exercises) == 0 {
		problems = append(problems, ErrNoExercises)
	}
	for i, e := range w.Exercises {
		if strings.TrimSpace(e.Name) == "" || e.Sets <= 0 || e.RestSeconds < 0 || e.CaloriesPerSet <= 0 {
			problems = append(problems, fmt.Errorf("%w: exercise %d", ErrInvalidExercise, i+1))
		}
	}
	if w.EstimatedCalories < 0 || w.EstimatedMinutes < 0 {
		problems = append(problems, ErrInvalidEstimate)
	}
	if w.Source != SourceCatalog && w.Source != SourceAI {
		problems = append(problems, fmt.Errorf("%w: %q", ErrUnknownSource, w.Source))
	}
	req, err := normalizeRequest(Request{
		Muscles:         w.Muscles,
		Equipment:       w.Equipment,
		Difficulty:      w.Difficulty,
		DurationMinutes: w.DurationMinutes,
	})
	var verr *ValidationError
	if errors.As(err, &verr) {
		problems = append(problems, verr.Problems...)
	}
	if len(problems) > 0 {
		return SavedWorkout{}, &ValidationError{Problems: problems}
	}
	w.Muscles, w.Equipment = req.Muscles, req.Equipment

	saved, err := s.repo.workouts.Create(ctx, w)
	if err != nil {
		return SavedWorkout{}, fmt.Errorf("save workout: %w", err)
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "saved workout",
		slog.Int64("workout_id", saved.ID), slog.String("source", string(saved.Source)))
	return saved, nil
}

// ListWorkouts returns the current user's saved workouts, newest first.
func (s *Service) ListWorkouts(ctx context.Context) ([]SavedWorkout, error) {
	workouts, err := s.repo.workouts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}
	return workouts, nil
}

// GetWorkout returns the current user's saved workout or ErrNotFound.
func (s *Service) GetWorkout(ctx context.Context, id int64) (SavedWorkout, error) {
	w, err := s.repo.workouts.Get(ctx, id)
	if err != nil {
		return SavedWorkout{}, fmt.Errorf("get workout %d: %w", id, err)
	}
	return w, nil
}

// DeleteWorkout deletes the current user's saved workout or returns ErrNotFound.
func (s *Service) DeleteWorkout(ctx context.Context, id int64) error {
	if err := s.repo.workouts.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete workout %d: %w", id, err)
	}
	return nil
}

// LogCompletion records a finished workout. A zero CompletedAt means now.
func (s *Service) LogCompletion(ctx context.Context, l WorkoutLog) (WorkoutLog, error) {
	l.Name = strings.TrimSpace(l.Name)

	var problems []error
	switch {
	case l.Name == "":
		problems = append(problems, ErrMissingName)
	case len(l.Name) > maxNameLength:
		problems = append(problems, ErrNameTooLong)
	}
	if len(l.Muscles) == 0 {
		problems = append(problems, ErrEmptyMuscles)
	}
	for _, m := range l.Muscles {
		if _, err := ParseMuscleGroup(string(m)); err != nil {
			problems = append(problems, err)
		}
	}
	if l.DurationSeconds < 0 || l.Calories < 0 {
		problems = append(problems, ErrInvalidLog)
	}
	if len(l.Progress) > 0 && !json.Valid(l.Progress) {
		problems = append(problems, ErrInvalidProgress)
	}
	if len(problems) > 0 {
		return WorkoutLog{}, &ValidationError{Problems: problems}
	}
	l.Muscles = dedupe(l.Muscles)
	if l.CompletedAt.IsZero() {
		l.CompletedAt = s.now()
	}

	saved, err := s.repo.logs.Create(ctx, l)
	if err != nil {
		return WorkoutLog{}, fmt.Errorf("log workout: %w", err)
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "logged workout",
		slog.Int64("log_id", saved.ID), slog.Int("duration_seconds", saved.DurationSeconds))
	return saved, nil
}

// History returns the current user's logs, newest first. Without a workout filter at most 50 logs are returned.
func (s *Service) History(ctx context.Context, workoutID *int64) ([]WorkoutLog, error) {
	limit := historyLimit
	if workoutID != nil {
		limit = 0
	}
	logs, err := s.repo.logs.List(ctx, workoutID, limit)
	if err != nil {
		return nil, fmt.Errorf("list workout logs: %w", err)
	}
	return logs, nil
}

// Stats aggregates the current user's logs.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	stats, err := s.repo.logs.Stats(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("workout stats: %w", err)
	}
	return stats, nil
}

// ExportData writes all of the current user's workouts and logs to a new SQLite database file in dir and returns
// its path. The caller owns the file.
func (s *Service) ExportData(ctx context.Context, dir string) (string, error) {
	path, err := s.repo.export(ctx, dir)
	if err != nil {
		return "", fmt.Errorf("export data: %w", err)
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "exported user data")
	return path, nil
}
