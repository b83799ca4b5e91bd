package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/myrjola/fittrack/internal/e2etest"
	"github.com/myrjola/fittrack/internal/logging"
	"github.com/myrjola/fittrack/internal/testhelpers"
	"github.com/myrjola/fittrack/internal/workout"
)

type generated struct {
	Workout workout.GeneratedWorkout `json:"workout"`
}

// TestWorkoutFlow generates a workout, saves it under a unique name, renders its card, logs it and deletes it.
func TestWorkoutFlow(client *e2etest.Client) error {
	ctx := context.Background()
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second) //nolint:mnd // generation may wait for the AI.
	defer cancel()

	var g generated
	req := workout.Request{
		Muscles:         []workout.MuscleGroup{workout.MuscleBack, workout.MuscleBiceps},
		Equipment:       []workout.Equipment{workout.EquipmentBodyweight, workout.EquipmentDumbbells},
		Difficulty:      workout.DifficultyBeginner,
		DurationMinutes: 30, //nolint:mnd // minutes
	}
	if err := client.JSON(ctx, http.MethodPost, "/api/workouts/generate", req, http.StatusOK, &g); err != nil {
		return fmt.Errorf("generate workout: %w", err)
	}

	name := fmt.Sprintf("Smoke %s", time.Now().UTC().Format(time.RFC3339Nano))
	var saved workout.SavedWorkout
	if err := client.JSON(ctx, http.MethodPost, "/api/workouts", map[string]any{
		"name":              name,
		"muscles":           g.Workout.Muscles,
		"equipment":         g.Workout.Equipment,
		"duration":          g.Workout.DurationMinutes,
		"difficulty":        g.Workout.Difficulty,
		"exercises":         g.Workout.Exercises,
		"estimatedCalories": g.Workout.EstimatedCalories,
		"estimatedMinutes":  g.Workout.EstimatedMinutes,
		"source":            g.Workout.Source,
	}, http.StatusCreated, &saved); err != nil {
		return fmt.Errorf("save workout: %w", err)
	}

	doc, err := client.GetDoc(ctx, fmt.Sprintf("/workouts/%d/card", saved.ID))
	if err != nil {
		return fmt.Errorf("get card: %w", err)
	}
	if rows := e2etest.TableRows(doc.Selection); len(rows) != len(saved.Exercises) {
		return fmt.Errorf("card has %d exercises, want %d", len(rows), len(saved.Exercises))
	}

	if err = client.JSON(ctx, http.MethodPost, "/api/workouts/log", map[string]any{
		"workoutId":       saved.ID,
		"name":            saved.Name,
		"durationSeconds": saved.EstimatedMinutes * 60, //nolint:mnd // seconds
		"calories":        saved.EstimatedCalories,
		"muscles":         saved.Muscles,
	}, http.StatusCreated, nil); err != nil {
		return fmt.Errorf("log workout: %w", err)
	}

	path := fmt.Sprintf("/api/workouts/%d", saved.ID)
	if err = client.JSON(ctx, http.MethodDelete, path, nil, http.StatusNoContent, nil); err != nil {
		return fmt.Errorf("delete workout: %w", err)
	}
	return nil
}

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	ctx := context.Background()

	if len(os.Args) != 2 { //nolint:mnd // we expect only hostname to be passed as argument.
		logger.LogAttrs(ctx, slog.LevelError, "usage: smoketest <hostname>")
		os.Exit(1)
	}

	var (
		hostname = os.Args[1]
		client   *e2etest.Client
		err      error
		start    = time.Now()
	)
	ctx = logging.WithAttrs(ctx, slog.String("hostname", hostname))
	url := "https://" + hostname
	if strings.Contains(hostname, "localhost") {
		url = "http://" + hostname
	}

	if client, err = e2etest.NewClient(url); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error creating client", slog.Any("error", err))
		os.Exit(1)
	}
	if err = client.WaitForReady(ctx, "/api/healthy"); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server not ready in time", slog.Any("error", err))
		os.Exit(1)
	}
	if err = TestWorkoutFlow(client); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error testing workout flow", slog.Any("error", err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Smoke test successful 🙌", slog.Duration("duration", time.Since(start)))
	os.Exit(0)
}
