package workout

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/fittrack/internal/testhelpers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeSuggester struct {
	answer aiWorkout
	err    error
	calls  int
}

func (f *fakeSuggester) suggest(_ context.Context, _ Request) (aiWorkout, error) {
	f.calls++
	return f.answer, f.err
}

func newTestGenerator(t *testing.T, ai suggester) (*Generator, *Metrics) {
	t.Helper()
	metrics := NewMetrics(prometheus.NewRegistry())
	logger := testhelpers.NewLogger(testhelpers.NewWriter(t))
	return newGenerator(logger, mustCatalog(t), ai, metrics), metrics
}

func TestGenerator_Generate_validation(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want []error
	}{
		{
			name: "everything missing",
			req:  Request{},
			want: []error{ErrEmptyMuscles, ErrInvalidDuration, ErrEmptyEquipment, ErrInvalidDifficulty},
		},
		{
			name: "duration below range",
			req: Request{
				Muscles:         []MuscleGroup{MuscleChest},
				Equipment:       []Equipment{EquipmentBodyweight},
				Difficulty:      DifficultyBeginner,
				DurationMinutes: 14,
			},
			want: []error{ErrInvalidDuration},
		},
		{
			name: "duration above range",
			req: Request{
				Muscles:         []MuscleGroup{MuscleChest},
				Equipment:       []Equipment{EquipmentBodyweight},
				Difficulty:      DifficultyBeginner,
				DurationMinutes: 91,
			},
			want: []error{ErrInvalidDuration},
		},
		{
			name: "unknown tags",
			req: Request{
				Muscles:         []MuscleGroup{"NECK"},
				Equipment:       []Equipment{"Kettlebell"},
				Difficulty:      "expert",
				DurationMinutes: 30,
			},
			want: []error{ErrUnknownMuscle, ErrUnknownEquipment, ErrInvalidDifficulty},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ai := &fakeSuggester{}
			g, _ := newTestGenerator(t, ai)
			_, err := g.Generate(t.Context(), tt.req)

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Generate() error = %v, want ValidationError", err)
			}
			if len(verr.Problems) != len(tt.want) {
				t.Errorf("got %d problems, want %d: %v", len(verr.Problems), len(tt.want), err)
			}
			for _, want := range tt.want {
				if !errors.Is(err, want) {
					t.Errorf("Generate() error = %v, want it to match %v", err, want)
				}
			}
			if ai.calls != 0 {
				t.Error("AI was called for an invalid request")
			}
		})
	}
}

func TestGenerator_Generate_catalog(t *testing.T) {
	g, metrics := newTestGenerator(t, nil)

	got, err := g.Generate(t.Context(), Request{
		Muscles:         []MuscleGroup{MuscleChest, MuscleChest},
		Equipment:       []Equipment{EquipmentBodyweight},
		Difficulty:      DifficultyBeginner,
		DurationMinutes: 30,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	pushUps, _ := LookupExercise("push-ups")
	pushUps.Sets = 2
	want := GeneratedWorkout{
		SuggestedName:     "Upper Body Strength",
		Muscles:           []MuscleGroup{MuscleChest},
		Equipment:         []Equipment{EquipmentBodyweight},
		DurationMinutes:   30,
		Difficulty:        DifficultyBeginner,
		Exercises:         []ExerciseDefinition{pushUps},
		EstimatedCalories: 16,
		EstimatedMinutes:  4,
		Source:            SourceCatalog,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Generate() mismatch (-want +got):\n%s", diff)
	}

	if v := testutil.ToFloat64(metrics.generated.WithLabelValues("catalog")); v != 1 {
		t.Errorf("catalog generations = %v, want 1", v)
	}
	if v := testutil.ToFloat64(metrics.aiFailures.WithLabelValues("disabled")); v != 1 {
		t.Errorf("disabled AI count = %v, want 1", v)
	}
}

func TestGenerator_Generate_advancedPush(t *testing.T) {
	g, _ := newTestGenerator(t, nil)

	got, err := g.Generate(t.Context(), Request{
		Muscles:         []MuscleGroup{MuscleChest, MuscleTriceps},
		Equipment:       []Equipment{EquipmentBarbell},
		Difficulty:      DifficultyAdvanced,
		DurationMinutes: 60,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got.SuggestedName != "Push Day Power" {
		t.Errorf("SuggestedName = %q, want Push Day Power", got.SuggestedName)
	}
	if len(got.Exercises) > targetExerciseCount(60) {
		t.Errorf("got %d exercises, more than %d", len(got.Exercises), targetExerciseCount(60))
	}
	if got.EstimatedCalories != estimateCalories(got.Exercises) {
		t.Errorf("EstimatedCalories = %v, want %v", got.EstimatedCalories, estimateCalories(got.Exercises))
	}
	for _, e := range got.Exercises {
		base, ok := LookupExercise(e.ID)
		if !ok {
			t.Fatalf("exercise %s not in catalog", e.ID)
		}
		if want := scaleSets(base, DifficultyAdvanced).Sets; e.Sets != want {
			t.Errorf("%s has %d sets, want %d", e.ID, e.Sets, want)
		}
	}
}

func TestGenerator_Generate_noMatchingExercises(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	logger := testhelpers.NewLogger(testhelpers.NewWriter(t))
	catalog := []ExerciseDefinition{{
		ID: "curl", Name: "Curl", Muscles: []MuscleGroup{MuscleBiceps}, Equipment: []Equipment{EquipmentCable},
		Difficulty: DifficultyAdvanced, Sets: 3, Reps: "10", RestSeconds: 60, CaloriesPerSet: 5,
	}}
	g := newGenerator(logger, catalog, nil, metrics)

	_, err := g.Generate(t.Context(), Request{
		Muscles:         []MuscleGroup{MuscleBiceps},
		Equipment:       []Equipment{EquipmentCable},
		Difficulty:      DifficultyBeginner,
		DurationMinutes: 30,
	})
	if !errors.Is(err, ErrNoMatchingExercises) {
		t.Fatalf("Generate() error = %v, want ErrNoMatchingExercises", err)
	}
	if v := testutil.ToFloat64(metrics.emptyResult); v != 1 {
		t.Errorf("no match count = %v, want 1", v)
	}
}

func TestGenerator_Generate_ai(t *testing.T) {
	rest := 45
	answer := aiWorkout{
		Name: "Chest Burner",
		Exercises: []aiExercise{
			{
				Name: "Push-Ups", Sets: 4, Reps: "10-12", RestSeconds: &rest, Muscle: "CHEST",
				Equipment: "Bodyweight", Instructions: "Keep a straight line.",
			},
			{
				Name: "Wall Push", Sets: 3, Reps: "15", Muscle: "CHEST", Equipment: "Bodyweight",
				Instructions: "Lean into the wall.",
			},
		},
	}
	req := Request{
		Muscles:         []MuscleGroup{MuscleChest},
		Equipment:       []Equipment{EquipmentBodyweight},
		Difficulty:      DifficultyIntermediate,
		DurationMinutes: 45,
	}

	t.Run("success", func(t *testing.T) {
		ai := &fakeSuggester{answer: answer}
		g, metrics := newTestGenerator(t, ai)

		got, err := g.Generate(t.Context(), req)
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		want := GeneratedWorkout{
			SuggestedName:   "Chest Burner",
			Muscles:         req.Muscles,
			Equipment:       req.Equipment,
			DurationMinutes: 45,
			Difficulty:      DifficultyIntermediate,
			Exercises: []ExerciseDefinition{
				{
					ID: "push-ups", Name: "Push-Ups", Muscles: []MuscleGroup{MuscleChest},
					Equipment: []Equipment{EquipmentBodyweight}, Difficulty: DifficultyIntermediate, Sets: 4,
					Reps: "10-12", RestSeconds: 45, Tip: "Keep a straight line.", CaloriesPerSet: 8,
				},
				{
					ID: "ai-wall-push", Name: "Wall Push", Muscles: []MuscleGroup{MuscleChest},
					Equipment: []Equipment{EquipmentBodyweight}, Difficulty: DifficultyIntermediate, Sets: 3,
					Reps: "15", RestSeconds: defaultRestSeconds, Tip: "Lean into the wall.",
					CaloriesPerSet: aiCaloriesPerSet,
				},
			},
			EstimatedCalories: 270,
			// 4 x 1.75 + 3 x 2 = 13.
			EstimatedMinutes: 13,
			Source:           SourceAI,
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Generate() mismatch (-want +got):\n%s", diff)
		}
		if v := testutil.ToFloat64(metrics.generated.WithLabelValues("ai")); v != 1 {
			t.Errorf("ai generations = %v, want 1", v)
		}
	})

	t.Run("estimated duration from the answer", func(t *testing.T) {
		duration := 40
		withDuration := answer
		withDuration.EstimatedDuration = &duration
		g, _ := newTestGenerator(t, &fakeSuggester{answer: withDuration})

		got, err := g.Generate(t.Context(), req)
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if got.EstimatedMinutes != 40 {
			t.Errorf("EstimatedMinutes = %d, want 40", got.EstimatedMinutes)
		}
	})

	failures := []struct {
		err    error
		reason string
	}{
		{err: errAIRateLimited, reason: "rate_limited"},
		{err: fmt.Errorf("chat completion: %w", context.DeadlineExceeded), reason: "timeout"},
		{err: fmt.Errorf("%w: unexpected end of JSON input", errAIMalformed), reason: "malformed"},
		{err: fmt.Errorf("%w: sets out of range", errAISchema), reason: "schema_mismatch"},
		{err: errors.New("connection refused"), reason: "transport"},
	}
	for _, f := range failures {
		t.Run("falls back on "+f.reason, func(t *testing.T) {
			ai := &fakeSuggester{err: f.err}
			g, metrics := newTestGenerator(t, ai)

			got, err := g.Generate(t.Context(), req)
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			if got.Source != SourceCatalog {
				t.Errorf("Source = %q, want catalog", got.Source)
			}
			if ai.calls != 1 {
				t.Errorf("AI called %d times, want 1", ai.calls)
			}
			if v := testutil.ToFloat64(metrics.aiFailures.WithLabelValues(f.reason)); v != 1 {
				t.Errorf("failures with reason %s = %v, want 1", f.reason, v)
			}
		})
	}
}

func TestNewGenerator(t *testing.T) {
	logger := testhelpers.NewLogger(testhelpers.NewWriter(t))

	g, err := NewGenerator(logger, AIConfig{}, nil)
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	if g.AIEnabled() {
		t.Error("AI enabled without an API key")
	}

	g, err = NewGenerator(logger, AIConfig{APIKey: "test"}, nil)
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	if !g.AIEnabled() {
		t.Error("AI disabled with an API key")
	}
}
