package errors_test

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/myrjola/fittrack/internal/errors"
	"github.com/myrjola/fittrack/internal/testhelpers"
)

var errCatalog = errors.NewSentinel("catalog is empty") //nolint:gochecknoglobals // test sentinel.

type providerError struct {
	status int
}

func (e *providerError) Error() string {
	return fmt.Sprintf("provider returned %d", e.status)
}

func TestError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "sentinel", err: errCatalog, want: "catalog is empty"},
		{name: "new", err: errors.New("no exercises", slog.Int("sets", 3)), want: "no exercises"},
		{
			name: "wrapped",
			err:  errors.Wrap(errCatalog, "new generator", slog.String("path", "catalog.yaml")),
			want: "new generator: catalog is empty",
		},
		{
			name: "wrapped twice",
			err:  errors.Wrap(fmt.Errorf("load catalog: %w", errCatalog), "new generator"),
			want: "new generator: load catalog: catalog is empty",
		},
		{name: "wrap nil", err: errors.Wrap(nil, "new generator"), want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.want == "" {
				if tt.err != nil {
					t.Errorf("got %v, want nil", tt.err)
				}
				return
			}
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrap_preservesChain(t *testing.T) {
	cause := &providerError{status: 503}
	err := errors.Wrap(fmt.Errorf("suggest workout: %w", cause), "generate", slog.String("muscle", "CHEST"))

	var target *providerError
	if !errors.As(err, &target) || target != cause {
		t.Errorf("As() did not find the provider error in %v", err)
	}
	if !errors.Is(errors.Wrap(errCatalog, "start"), errCatalog) {
		t.Error("Is() = false for a wrapped sentinel")
	}
	if errors.Is(err, errCatalog) {
		t.Error("Is() = true for an unrelated sentinel")
	}
	if errors.Unwrap(errCatalog) != nil {
		t.Error("Unwrap() of a sentinel is not nil")
	}
}

func TestSlogError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		contains    []string
		notContains []string
	}{
		{
			name: "annotations from every level",
			err: errors.Wrap(
				errors.Wrap(errCatalog, "load", slog.String("path", "catalog.yaml")),
				"new generator", slog.Bool("ai_enabled", false)),
			contains: []string{
				`error.message="new generator: load: catalog is empty"`,
				"error.annotations.path=catalog.yaml",
				"error.annotations.ai_enabled=false",
				"annotatederror_test.go:",
			},
			notContains: []string{"annotatederror.go"},
		},
		{
			name:        "plain error",
			err:         fmt.Errorf("open db: %w", errCatalog),
			contains:    []string{`error.message="open db: catalog is empty"`},
			notContains: []string{"error.source", "error.annotations"},
		},
		{
			name:     "joined errors",
			err:      errors.Join(errCatalog, errors.New("second")),
			contains: []string{"catalog is empty", "second"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			testhelpers.NewLogger(&buf).LogAttrs(t.Context(), slog.LevelError, "failed", errors.SlogError(tt.err))
			line := buf.String()
			for _, want := range tt.contains {
				if !strings.Contains(line, want) {
					t.Errorf("log line %s does not contain %s", line, want)
				}
			}
			for _, unwanted := range tt.notContains {
				if strings.Contains(line, unwanted) {
					t.Errorf("log line %s contains %s", line, unwanted)
				}
			}
		})
	}

	if attr := errors.SlogError(nil); attr.Key != "" {
		t.Errorf("SlogError(nil) = %v, want empty attribute", attr)
	}
}

func TestDecoratePanic(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{name: "string", value: "boom", want: "panic: boom"},
		{name: "error", value: errCatalog, want: "panic: catalog is empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				err := errors.DecoratePanic(recover())
				if err == nil {
					t.Fatal("expected error")
				}
				if got := err.Error(); got != tt.want {
					t.Errorf("Error() = %q, want %q", got, tt.want)
				}
				if tt.value == errCatalog && !errors.Is(err, errCatalog) {
					t.Error("panic error does not wrap the panic value")
				}
				if got := errors.SlogError(err).String(); !strings.Contains(got, "annotatederror_test.go:") {
					t.Errorf("source of %s is not the panicking line", got)
				}
			}()
			panic(tt.value)
		})
	}

	if errors.DecoratePanic(nil) != nil {
		t.Error("DecoratePanic(nil) != nil")
	}
}
