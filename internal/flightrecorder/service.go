// Package flightrecorder keeps a rolling execution trace in memory and writes it to disk when something goes wrong,
// such as a request running out of time while waiting for the AI collaborator.
package flightrecorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/trace"
	"sync"
	"time"
)

const (
	defaultMinAge   = 5 * time.Minute
	defaultMaxBytes = 64 * 1024 * 1024
	// defaultCooldown is the minimum time between two captures.
	defaultCooldown = 30 * time.Minute
)

// Service writes the flight recorder buffer to TracesDirectory on demand, at most once per cooldown.
type Service struct {
	logger          *slog.Logger
	flightRecorder  *trace.FlightRecorder
	tracesDirectory string
	cooldown        time.Duration
	now             func() time.Time

	mu          sync.Mutex
	lastCapture time.Time
}

// Config configures the flight recorder. Zero durations and sizes use the defaults.
type Config struct {
	Logger          *slog.Logger
	MinAge          time.Duration
	MaxBytes        uint64
	Cooldown        time.Duration
	TracesDirectory string
}

// New creates the service and the traces directory if it does not exist.
func New(cfg Config) (*Service, error) {
	if cfg.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if cfg.TracesDirectory == "" {
		return nil, errors.New("traces directory is required")
	}
	if err := os.MkdirAll(cfg.TracesDirectory, 0o750); err != nil { //nolint:mnd // owner and group.
		return nil, fmt.Errorf("create traces directory: %w", err)
	}
	if stat, err := os.Stat(cfg.TracesDirectory); err != nil {
		return nil, fmt.Errorf("stat traces directory: %w", err)
	} else if !stat.IsDir() {
		return nil, fmt.Errorf("traces path is not a directory: %s", cfg.TracesDirectory)
	}

	cfg.MinAge = cmpOr(cfg.MinAge, defaultMinAge)
	cfg.MaxBytes = cmpOr(cfg.MaxBytes, defaultMaxBytes)
	cfg.Cooldown = cmpOr(cfg.Cooldown, defaultCooldown)

	return &Service{
		logger: cfg.Logger,
		flightRecorder: trace.NewFlightRecorder(trace.FlightRecorderConfig{
			MinAge:   cfg.MinAge,
			MaxBytes: cfg.MaxBytes,
		}),
		tracesDirectory: cfg.TracesDirectory,
		cooldown:        cfg.Cooldown,
		now:             time.Now,
		mu:              sync.Mutex{},
		lastCapture:     time.Time{},
	}, nil
}

func cmpOr[T comparable](v, fallback T) T {
	var zero T
	if v == zero {
		return fallback
	}
	return v
}

// Start begins flight recording.
func (s *Service) Start(ctx context.Context) error {
	if err := s.flightRecorder.Start(); err != nil {
		return fmt.Errorf("start flight recorder: %w", err)
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "flight recorder started",
		slog.String("traces_directory", s.tracesDirectory), slog.Duration("cooldown", s.cooldown))
	return nil
}

// Stop ends flight recording.
func (s *Service) Stop(ctx context.Context) {
	s.flightRecorder.Stop()
	s.logger.LogAttrs(ctx, slog.LevelInfo, "flight recorder stopped")
}

// Capture writes the recorded trace to a file named after reason. Captures within the cooldown are skipped.
// It reports whether a file was written.
func (s *Service) Capture(ctx context.Context, reason string) bool {
	now := s.now()
	s.mu.Lock()
	if !s.lastCapture.IsZero() && now.Sub(s.lastCapture) < s.cooldown {
		s.mu.Unlock()
		s.logger.LogAttrs(ctx, slog.LevelDebug, "skipping trace capture due to cooldown",
			slog.String("reason", reason), slog.Time("last_capture", s.lastCapture))
		return false
	}
	s.lastCapture = now
	s.mu.Unlock()

	fPath := filepath.Join(s.tracesDirectory, fmt.Sprintf("%s-%s.trace", reason, now.UTC().Format("20060102-150405")))
	if err := s.writeTrace(fPath); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelError, "failed to capture trace",
			slog.String("file", fPath), slog.Any("error", err))
		return false
	}
	s.logger.LogAttrs(ctx, slog.LevelWarn, "captured trace", slog.String("reason", reason), slog.String("file", fPath))
	return true
}

func (s *Service) writeTrace(fPath string) (err error) {
	file, err := os.Create(fPath)
	if err != nil {
		return fmt.Errorf("create trace file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close trace file: %w", closeErr))
		}
	}()
	if _, err = s.flightRecorder.WriteTo(file); err != nil {
		return fmt.Errorf("write trace: %w", err)
	}
	return nil
}
