package workout

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/myrjola/fittrack/internal/contexthelpers"
	"github.com/myrjola/fittrack/internal/sqlite"
)

const timestampFormat = "2006-01-02T15:04:05.000Z"

// ErrNoUser is returned when persistence is used without a user in the context.
var ErrNoUser = errors.New("no user in context")

type baseRepository struct {
	db     *sqlite.Database
	logger *slog.Logger
}

func newBaseRepository(db *sqlite.Database, logger *slog.Logger) baseRepository {
	return baseRepository{
		db:     db,
		logger: logger,
	}
}

// userID returns the owner of the data the request operates on.
func (r baseRepository) userID(ctx context.Context) (string, error) {
	userID := contexthelpers.UserID(ctx)
	if userID == "" {
		return "", ErrNoUser
	}
	return userID, nil
}

// rollback returns a function for deferring that rolls back tx unless it was committed.
func (r baseRepository) rollback(ctx context.Context, tx *sql.Tx) func() {
	return func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			r.logger.LogAttrs(ctx, slog.LevelError, "rollback transaction", slog.Any("error", err))
		}
	}
}

// repository bundles the workout persistence.
type repository struct {
	baseRepository
	workouts *sqliteWorkoutRepository
	logs     *sqliteLogRepository
}

func newRepository(db *sqlite.Database, logger *slog.Logger) *repository {
	return &repository{
		baseRepository: newBaseRepository(db, logger),
		workouts:       newSQLiteWorkoutRepository(db, logger),
		logs:           newSQLiteLogRepository(db, logger),
	}
}

// export writes the current user's workouts and logs to a new SQLite file in dir.
func (r *repository) export(ctx context.Context, dir string) (string, error) {
	userID, err := r.userID(ctx)
	if err != nil {
		return "", err
	}
	path, err := r.db.ExportUserData(ctx, userID, dir)
	if err != nil {
		return "", fmt.Errorf("export user data: %w", err)
	}
	return path, nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampFormat)
}

// parseTimestamp parses a timestamp from a nullable database string.
func parseTimestamp(timestampStr sql.NullString) (*time.Time, error) {
	if timestampStr.Valid {
		parsedTime, err := time.Parse(timestampFormat, timestampStr.String)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp format: %w", err)
		}
		return &parsedTime, nil
	}
	return nil, nil //nolint:nilnil // nil time.Time is expected when the string is NULL.
}

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal json column: %w", err)
	}
	return string(b), nil
}

func decodeJSON(s string, v any) error {
	if err := json.Unmarshal([]byte(s), v); err != nil {
		return fmt.Errorf("unmarshal json column: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

func closeRows(rows *sql.Rows, err *error) {
	if closeErr := rows.Close(); closeErr != nil {
		*err = errors.Join(*err, fmt.Errorf("close rows: %w", closeErr))
	}
}
