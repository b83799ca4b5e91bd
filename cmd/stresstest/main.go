package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/myrjola/fittrack/internal/e2etest"
	"github.com/myrjola/fittrack/internal/logging"
	"github.com/myrjola/fittrack/internal/testhelpers"
	"github.com/myrjola/fittrack/internal/workout"
	"golang.org/x/sync/errgroup"
)

const (
	historyTimeout          = 5 * time.Minute
	scenarioTimeout         = 30 * time.Second
	maxConcurrentOperations = 20
	numUsers                = 10
	historyLogsPerUser      = 26 // half a year of weekly workouts
	successRateThreshold    = 95.0
	expectedArgsCount       = 2
	percentageMultiplier    = 100
)

// User is an anonymous user identified by the session cookie of its client.
type User struct {
	Client *e2etest.Client
	Index  int
}

// NewUsers creates numUsers clients with separate sessions. The server assigns each an identity on first request.
func NewUsers(url string, n int) ([]*User, error) {
	users := make([]*User, 0, n)
	for i := range n {
		client, err := e2etest.NewClient(url)
		if err != nil {
			return nil, fmt.Errorf("creating client for user %d: %w", i, err)
		}
		users = append(users, &User{Client: client, Index: i})
	}
	return users, nil
}

func randomRequest() workout.Request {
	muscles := workout.MuscleGroups()
	equipment := workout.AllEquipment()
	rand.Shuffle(len(muscles), func(i, j int) { muscles[i], muscles[j] = muscles[j], muscles[i] })
	rand.Shuffle(len(equipment), func(i, j int) { equipment[i], equipment[j] = equipment[j], equipment[i] })
	difficulties := []workout.Difficulty{
		workout.DifficultyBeginner, workout.DifficultyIntermediate, workout.DifficultyAdvanced,
	}
	return workout.Request{
		Muscles:         muscles[:1+rand.IntN(3)],   //nolint:mnd // one to three muscles.
		Equipment:       equipment[:1+rand.IntN(2)], //nolint:mnd // one or two kinds of equipment.
		Difficulty:      difficulties[rand.IntN(len(difficulties))],
		DurationMinutes: 15 + 5*rand.IntN(16), //nolint:mnd // 15 to 90 minutes in steps of five.
	}
}

// GenerateHistory logs historyLogsPerUser completed workouts for user, one week apart.
func GenerateHistory(ctx context.Context, user *User) error {
	now := time.Now()
	for week := range historyLogsPerUser {
		completedAt := now.AddDate(0, 0, -7*(historyLogsPerUser-week)) //nolint:mnd // days per week.
		req := randomRequest()
		if err := user.Client.JSON(ctx, http.MethodPost, "/api/workouts/log", map[string]any{
			"name":            fmt.Sprintf("Week %d", week+1),
			"durationSeconds": req.DurationMinutes * 60, //nolint:mnd // seconds
			"calories":        float64(req.DurationMinutes * 6), //nolint:mnd // rough burn rate.
			"muscles":         req.Muscles,
			"completedAt":     completedAt,
		}, http.StatusCreated, nil); err != nil {
			return fmt.Errorf("log week %d: %w", week, err)
		}
	}
	return nil
}

// WorkoutScenario generates and saves a workout, views it, logs it and checks the stats.
func WorkoutScenario(ctx context.Context, user *User, logger *slog.Logger) error {
	var g struct {
		Workout workout.GeneratedWorkout `json:"workout"`
	}
	if err := user.Client.JSON(ctx, http.MethodPost, "/api/workouts/generate", randomRequest(), http.StatusOK,
		&g); err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	var saved workout.SavedWorkout
	if err := user.Client.JSON(ctx, http.MethodPost, "/api/workouts", map[string]any{
		"name":              fmt.Sprintf("%s %d", g.Workout.SuggestedName, time.Now().UnixNano()),
		"muscles":           g.Workout.Muscles,
		"equipment":         g.Workout.Equipment,
		"duration":          g.Workout.DurationMinutes,
		"difficulty":        g.Workout.Difficulty,
		"exercises":         g.Workout.Exercises,
		"estimatedCalories": g.Workout.EstimatedCalories,
		"estimatedMinutes":  g.Workout.EstimatedMinutes,
		"source":            g.Workout.Source,
	}, http.StatusCreated, &saved); err != nil {
		return fmt.Errorf("save: %w", err)
	}

	if _, err := user.Client.GetDoc(ctx, fmt.Sprintf("/workouts/%d/card", saved.ID)); err != nil {
		return fmt.Errorf("card: %w", err)
	}
	if err := user.Client.JSON(ctx, http.MethodPost, "/api/workouts/log", map[string]any{
		"workoutId":       saved.ID,
		"name":            saved.Name,
		"durationSeconds": saved.EstimatedMinutes * 60, //nolint:mnd // seconds
		"calories":        saved.EstimatedCalories,
		"muscles":         saved.Muscles,
	}, http.StatusCreated, nil); err != nil {
		return fmt.Errorf("log: %w", err)
	}

	var stats workout.Stats
	if err := user.Client.JSON(ctx, http.MethodGet, "/api/stats", nil, http.StatusOK, &stats); err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	if stats.TotalWorkouts < historyLogsPerUser+1 {
		return fmt.Errorf("stats count %d workouts, want at least %d", stats.TotalWorkouts, historyLogsPerUser+1)
	}

	logger.LogAttrs(ctx, slog.LevelDebug, "scenario completed",
		slog.Int("user_index", user.Index), slog.String("source", string(saved.Source)))
	return nil
}

// forEachUser runs fn for every user with bounded concurrency and returns the number of failures.
func forEachUser(
	ctx context.Context,
	users []*User,
	timeout time.Duration,
	logger *slog.Logger,
	fn func(context.Context, *User) error,
) int64 {
	var failures atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentOperations)
	for _, user := range users {
		g.Go(func() error {
			userCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			if err := fn(userCtx, user); err != nil {
				failures.Add(1)
				// Other users keep going.
				logger.LogAttrs(userCtx, slog.LevelWarn, "user failed",
					slog.Int("user_index", user.Index), slog.Any("error", err))
			}
			return nil
		})
	}
	_ = g.Wait()
	return failures.Load()
}

// RunLoadTest runs WorkoutScenario for every user concurrently.
func RunLoadTest(ctx context.Context, users []*User, logger *slog.Logger) error {
	userCount := len(users)
	logger.LogAttrs(ctx, slog.LevelInfo, "Starting load test", slog.Int("num_users", userCount))

	failures := forEachUser(ctx, users, scenarioTimeout, logger, func(ctx context.Context, u *User) error {
		return WorkoutScenario(ctx, u, logger)
	})

	successCount := int64(userCount) - failures
	successRate := float64(successCount) / float64(userCount) * percentageMultiplier
	logger.LogAttrs(ctx, slog.LevelInfo, "Load test completed",
		slog.Int64("successful", successCount),
		slog.Int64("failed", failures),
		slog.Float64("success_rate", successRate))

	if successRate < successRateThreshold {
		return fmt.Errorf("load test failed: success rate %.1f%% below threshold", successRate)
	}
	return nil
}

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	ctx := context.Background()

	if len(os.Args) != expectedArgsCount {
		logger.LogAttrs(ctx, slog.LevelError, "usage: stresstest <hostname>")
		os.Exit(1)
	}

	var (
		hostname = os.Args[1]
		start    = time.Now()
	)
	ctx = logging.WithAttrs(ctx, slog.String("hostname", hostname))
	url := "https://" + hostname
	if strings.Contains(hostname, "localhost") {
		url = "http://" + hostname
	}

	users, err := NewUsers(url, numUsers)
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failed to create users", slog.Any("error", err))
		os.Exit(1)
	}
	if err = users[0].Client.WaitForReady(ctx, "/api/healthy"); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server not ready in time", slog.Any("error", err))
		os.Exit(1)
	}

	historyStart := time.Now()
	if failures := forEachUser(ctx, users, historyTimeout, logger, GenerateHistory); failures > 0 {
		logger.LogAttrs(ctx, slog.LevelWarn, "some history generation failed, continuing with load test",
			slog.Int64("failed_users", failures))
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "Workout history generation completed",
		slog.Duration("history_duration", time.Since(historyStart)))

	loadTestStart := time.Now()
	if err = RunLoadTest(ctx, users, logger); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "load test failed", slog.Any("error", err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Load test completed successfully 🙌",
		slog.Duration("total_duration", time.Since(start)),
		slog.Duration("load_test_duration", time.Since(loadTestStart)),
		slog.Int("users_tested", len(users)))
}
