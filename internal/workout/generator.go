package workout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"
)

const (
	minDurationMinutes = 15
	maxDurationMinutes = 90
)

// Generator turns a [Request] into a [GeneratedWorkout].
//
// When an AI collaborator is configured it is asked first. Any failure on that path is logged and counted and the
// workout is built from the exercise catalog instead, so callers only ever see validation errors and
// [ErrNoMatchingExercises].
type Generator struct {
	logger  *slog.Logger
	catalog []ExerciseDefinition
	ai      suggester
	metrics *Metrics
}

// NewGenerator creates a generator over the built-in catalog. The AI collaborator is enabled when cfg has an API key.
func NewGenerator(logger *slog.Logger, cfg AIConfig, metrics *Metrics) (*Generator, error) {
	catalog, err := Catalog()
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	var ai suggester
	if cfg.APIKey != "" {
		if ai, err = newOpenAISuggester(cfg); err != nil {
			return nil, fmt.Errorf("new openai suggester: %w", err)
		}
	}
	return newGenerator(logger, catalog, ai, metrics), nil
}

func newGenerator(logger *slog.Logger, catalog []ExerciseDefinition, ai suggester, metrics *Metrics) *Generator {
	return &Generator{
		logger:  logger,
		catalog: catalog,
		ai:      ai,
		metrics: metrics,
	}
}

// AIEnabled reports whether an AI collaborator is configured.
func (g *Generator) AIEnabled() bool {
	return g.ai != nil
}

// Generate validates req and builds a workout for it.
func (g *Generator) Generate(ctx context.Context, req Request) (GeneratedWorkout, error) {
	req, err := normalizeRequest(req)
	if err != nil {
		return GeneratedWorkout{}, err
	}

	if w, ok := g.generateWithAI(ctx, req); ok {
		g.metrics.observeGenerated(w)
		return w, nil
	}

	w, err := g.generateFromCatalog(req)
	if err != nil {
		g.metrics.observeNoMatch()
		return GeneratedWorkout{}, err
	}
	g.metrics.observeGenerated(w)
	return w, nil
}

func (g *Generator) generateWithAI(ctx context.Context, req Request) (GeneratedWorkout, bool) {
	if g.ai == nil {
		g.metrics.observeAIFailure(aiFailureReason(errAIDisabled))
		return GeneratedWorkout{}, false
	}

	start := time.Now()
	answer, err := g.ai.suggest(ctx, req)
	g.metrics.observeAILatency(time.Since(start).Seconds())
	if err != nil {
		reason := aiFailureReason(err)
		g.metrics.observeAIFailure(reason)
		g.logger.LogAttrs(ctx, slog.LevelWarn, "ai generation failed, falling back to catalog",
			slog.String("reason", reason), slog.Any("error", err))
		return GeneratedWorkout{}, false
	}

	w := answer.toGenerated(req, g.catalog)
	g.logger.LogAttrs(ctx, slog.LevelDebug, "generated workout with ai",
		slog.String("name", w.SuggestedName), slog.Int("exercises", len(w.Exercises)))
	return w, true
}

func (g *Generator) generateFromCatalog(req Request) (GeneratedWorkout, error) {
	selected := selectExercises(g.catalog, req.Muscles, req.Equipment, req.Difficulty, req.DurationMinutes)
	if len(selected) == 0 {
		return GeneratedWorkout{}, ErrNoMatchingExercises
	}

	exercises := make([]ExerciseDefinition, len(selected))
	for i, e := range selected {
		exercises[i] = scaleSets(e, req.Difficulty)
	}

	return GeneratedWorkout{
		SuggestedName:     suggestName(req.Muscles),
		Muscles:           req.Muscles,
		Equipment:         req.Equipment,
		DurationMinutes:   req.DurationMinutes,
		Difficulty:        req.Difficulty,
		Exercises:         exercises,
		EstimatedCalories: estimateCalories(exercises),
		EstimatedMinutes:  estimateMinutes(exercises),
		Source:            SourceCatalog,
	}, nil
}

// normalizeRequest validates req and returns a copy with duplicate muscles and equipment removed.
func normalizeRequest(req Request) (Request, error) {
	var problems []error

	if len(req.Muscles) == 0 {
		problems = append(problems, ErrEmptyMuscles)
	}
	for _, m := range req.Muscles {
		if _, err := ParseMuscleGroup(string(m)); err != nil {
			problems = append(problems, err)
		}
	}
	if req.DurationMinutes < minDurationMinutes || req.DurationMinutes > maxDurationMinutes {
		problems = append(problems, ErrInvalidDuration)
	}
	if len(req.Equipment) == 0 {
		problems = append(problems, ErrEmptyEquipment)
	}
	for _, e := range req.Equipment {
		if _, err := ParseEquipment(string(e)); err != nil {
			problems = append(problems, err)
		}
	}
	if _, err := ParseDifficulty(string(req.Difficulty)); err != nil {
		problems = append(problems, err)
	}

	if len(problems) > 0 {
		return Request{}, &ValidationError{Problems: problems}
	}

	return Request{
		Muscles:         dedupe(req.Muscles),
		Equipment:       dedupe(req.Equipment),
		Difficulty:      req.Difficulty,
		DurationMinutes: req.DurationMinutes,
	}, nil
}

func dedupe[T comparable](in []T) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func aiFailureReason(err error) string {
	switch {
	case errors.Is(err, errAIDisabled):
		return "disabled"
	case errors.Is(err, errAIRateLimited):
		return "rate_limited"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, errAIMalformed):
		return "malformed"
	case errors.Is(err, errAISchema):
		return "schema_mismatch"
	default:
		return "transport"
	}
}
