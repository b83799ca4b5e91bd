package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/myrjola/fittrack/internal/envstruct"
	"github.com/myrjola/fittrack/internal/errors"
	"github.com/myrjola/fittrack/internal/flightrecorder"
	"github.com/myrjola/fittrack/internal/logging"
	"github.com/myrjola/fittrack/internal/sqlite"
	"github.com/myrjola/fittrack/internal/workout"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type application struct {
	logger         *slog.Logger
	sessionManager *scs.SessionManager
	workoutService *workout.Service
	generator      *workout.Generator
	registry       *prometheus.Registry
	httpMetrics    *httpMetrics
	flightRecorder *flightrecorder.Service
	// generateTimeout bounds workout generation, which may wait for the AI collaborator.
	generateTimeout time.Duration
}

type config struct {
	// Addr is the address to listen on. It's possible to choose the address dynamically with localhost:0.
	Addr string `env:"FITTRACK_ADDR" envDefault:"localhost:8081"`
	// SqliteURL is the URL to the SQLite database. You can use ":memory:" for an ethereal in-memory database.
	SqliteURL string `env:"FITTRACK_SQLITE_URL" envDefault:"./fittrack.sqlite3"`
	// OpenAIAPIKey enables AI workout generation. Leave empty to generate from the exercise catalog only.
	OpenAIAPIKey string `env:"OPENAI_API_KEY" envDefault:""`
	// OpenAIBaseURL points the AI client to an OpenAI compatible endpoint.
	OpenAIBaseURL string `env:"FITTRACK_OPENAI_BASE_URL" envDefault:""`
	OpenAIModel   string `env:"FITTRACK_OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	// AITimeout bounds a single AI call. The catalog is used when it runs out.
	AITimeout time.Duration `env:"FITTRACK_AI_TIMEOUT" envDefault:"8s"`
	// AICallsPerMinute caps calls to the AI provider across all users. Zero disables the cap.
	AICallsPerMinute int `env:"FITTRACK_AI_CALLS_PER_MINUTE" envDefault:"30"`
	// TracesDir enables the flight recorder, which writes an execution trace there when a request times out.
	TracesDir string `env:"FITTRACK_TRACES_DIR" envDefault:""`
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var (
		cancel context.CancelFunc
		err    error
	)

	ctx, cancel = signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	var cfg config
	if err = envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}

	db, err := sqlite.NewDatabase(ctx, cfg.SqliteURL, logger)
	if err != nil {
		return errors.Wrap(err, "open db", slog.String("url", cfg.SqliteURL))
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.LogAttrs(ctx, slog.LevelError, "close db", errors.SlogError(closeErr))
		}
	}()
	logger.LogAttrs(ctx, slog.LevelInfo, "connected to db")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	generator, err := workout.NewGenerator(logger, workout.AIConfig{
		APIKey:         cfg.OpenAIAPIKey,
		BaseURL:        cfg.OpenAIBaseURL,
		Model:          cfg.OpenAIModel,
		Timeout:        cfg.AITimeout,
		CallsPerMinute: cfg.AICallsPerMinute,
	}, workout.NewMetrics(registry))
	if err != nil {
		return errors.Wrap(err, "new generator")
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "configured workout generator", slog.Bool("ai_enabled", generator.AIEnabled()))

	generateTimeout := defaultTimeout
	if generator.AIEnabled() {
		generateTimeout = cfg.AITimeout + defaultTimeout
	}

	app := application{
		logger:          logger,
		sessionManager:  initializeSessionManager(db),
		workoutService:  workout.NewService(db, logger, generator),
		generator:       generator,
		registry:        registry,
		httpMetrics:     newHTTPMetrics(registry),
		flightRecorder:  nil,
		generateTimeout: generateTimeout,
	}

	if cfg.TracesDir != "" {
		if app.flightRecorder, err = flightrecorder.New(flightrecorder.Config{
			Logger:          logger,
			MinAge:          0,
			MaxBytes:        0,
			Cooldown:        0,
			TracesDirectory: cfg.TracesDir,
		}); err != nil {
			return errors.Wrap(err, "new flight recorder")
		}
		if err = app.flightRecorder.Start(ctx); err != nil {
			return errors.Wrap(err, "start flight recorder")
		}
		defer app.flightRecorder.Stop(ctx)
	}

	handler, err := app.routes()
	if err != nil {
		return errors.Wrap(err, "routes")
	}
	if err = app.configureAndStartServer(ctx, cfg.Addr, handler); err != nil {
		return errors.Wrap(err, "start server")
	}
	return nil
}

func initializeSessionManager(dbs *sqlite.Database) *scs.SessionManager {
	sessionManager := scs.New()
	sessionManager.Store = sqlite3store.NewWithCleanupInterval(dbs.ReadWrite, 24*time.Hour) //nolint:mnd // day
	sessionManager.Lifetime = 365 * 24 * time.Hour                                          //nolint:mnd // a year
	sessionManager.IdleTimeout = 90 * 24 * time.Hour                                        //nolint:mnd // a quarter
	sessionManager.Cookie.Name = "fittrack_session"
	sessionManager.Cookie.Persist = true
	sessionManager.Cookie.Secure = true
	sessionManager.Cookie.HttpOnly = true
	sessionManager.Cookie.SameSite = http.SameSiteStrictMode
	return sessionManager
}

func main() {
	ctx := context.Background()
	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	})))
	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failure starting application", errors.SlogError(err))
		os.Exit(1)
	}
}
