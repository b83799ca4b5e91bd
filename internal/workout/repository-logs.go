package workout

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/myrjola/fittrack/internal/sqlite"
	"golang.org/x/sync/errgroup"
)

const recentLogCount = 5

// sqliteLogRepository stores completed workouts of the user in the context.
type sqliteLogRepository struct {
	baseRepository
}

func newSQLiteLogRepository(db *sqlite.Database, logger *slog.Logger) *sqliteLogRepository {
	return &sqliteLogRepository{
		baseRepository: newBaseRepository(db, logger),
	}
}

const logColumns = `id, workout_id, name, duration_seconds, calories, muscles, progress, completed_at`

// Create stores l. When l refers to a saved workout, the workout is marked completed in the same transaction and
// ErrNotFound is returned if the user has no such workout.
func (r *sqliteLogRepository) Create(ctx context.Context, l WorkoutLog) (_ WorkoutLog, err error) {
	userID, err := r.userID(ctx)
	if err != nil {
		return WorkoutLog{}, err
	}

	muscles, err := encodeJSON(l.Muscles)
	if err != nil {
		return WorkoutLog{}, err
	}
	var progress sql.NullString
	if len(l.Progress) > 0 {
		progress = sql.NullString{String: string(l.Progress), Valid: true}
	}
	completedAt := formatTimestamp(l.CompletedAt)

	tx, err := r.db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return WorkoutLog{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer r.rollback(ctx, tx)()

	if l.WorkoutID != nil {
		var result sql.Result
		if result, err = tx.ExecContext(ctx, `
			UPDATE workouts
			SET completed_at = ?
			WHERE id = ? AND user_id = ?`, completedAt, *l.WorkoutID, userID); err != nil {
			return WorkoutLog{}, fmt.Errorf("mark workout completed: %w", err)
		}
		var rows int64
		if rows, err = result.RowsAffected(); err != nil {
			return WorkoutLog{}, fmt.Errorf("get rows affected: %w", err)
		}
		if rows == 0 {
			return WorkoutLog{}, ErrNotFound
		}
	}

	row := tx.QueryRowContext(ctx, `
		INSERT INTO workout_logs (user_id, workout_id, name, duration_seconds, calories, muscles, progress, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+logColumns,
		userID, l.WorkoutID, l.Name, l.DurationSeconds, l.Calories, muscles, progress, completedAt)
	saved, err := scanLog(row)
	if err != nil {
		return WorkoutLog{}, fmt.Errorf("insert workout log: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return WorkoutLog{}, fmt.Errorf("commit transaction: %w", err)
	}
	return saved, nil
}

// List returns the user's logs, newest first. A nil workoutID lists logs of all workouts. limit <= 0 means no limit.
func (r *sqliteLogRepository) List(ctx context.Context, workoutID *int64, limit int) ([]WorkoutLog, error) {
	userID, err := r.userID(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}
	return r.query(ctx, `
		SELECT `+logColumns+`
		FROM workout_logs
		WHERE user_id = ? AND (? IS NULL OR workout_id = ?)
		ORDER BY completed_at DESC, id DESC
		LIMIT ?`, userID, workoutID, workoutID, limit)
}

// Stats aggregates the user's logs. The totals, the muscles, and the recent logs are queried concurrently.
func (r *sqliteLogRepository) Stats(ctx context.Context) (Stats, error) {
	userID, err := r.userID(ctx)
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var durationSeconds int
		if err := r.db.ReadOnly.QueryRowContext(gctx, `
			SELECT count(*), coalesce(sum(calories), 0), coalesce(sum(duration_seconds), 0)
			FROM workout_logs
			WHERE user_id = ?`, userID).Scan(&stats.TotalWorkouts, &stats.TotalCalories, &durationSeconds); err != nil {
			return fmt.Errorf("query totals: %w", err)
		}
		stats.TotalDurationMinutes = durationSeconds / int(time.Minute/time.Second)
		return nil
	})

	g.Go(func() (err error) {
		rows, err := r.db.ReadOnly.QueryContext(gctx, `
			SELECT DISTINCT m.value
			FROM workout_logs l, json_each(l.muscles) m
			WHERE l.user_id = ?
			ORDER BY m.value`, userID)
		if err != nil {
			return fmt.Errorf("query muscles trained: %w", err)
		}
		defer closeRows(rows, &err)
		muscles := []MuscleGroup{}
		for rows.Next() {
			var m MuscleGroup
			if err = rows.Scan(&m); err != nil {
				return fmt.Errorf("scan muscle: %w", err)
			}
			muscles = append(muscles, m)
		}
		if err = rows.Err(); err != nil {
			return fmt.Errorf("iterate muscle rows: %w", err)
		}
		stats.UniqueMusclesTrained = muscles
		return nil
	})

	g.Go(func() error {
		recent, err := r.query(gctx, `
			SELECT `+logColumns+`
			FROM workout_logs
			WHERE user_id = ?
			ORDER BY completed_at DESC, id DESC
			LIMIT ?`, userID, recentLogCount)
		if err != nil {
			return fmt.Errorf("query recent logs: %w", err)
		}
		stats.RecentWorkouts = recent
		return nil
	})

	if err = g.Wait(); err != nil {
		return Stats{}, err //nolint:wrapcheck // wrapped inside the goroutines.
	}
	return stats, nil
}

func (r *sqliteLogRepository) query(ctx context.Context, query string, args ...any) (_ []WorkoutLog, err error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query workout logs: %w", err)
	}
	defer closeRows(rows, &err)

	logs := []WorkoutLog{}
	for rows.Next() {
		var l WorkoutLog
		if l, err = scanLog(rows); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate workout log rows: %w", err)
	}
	return logs, nil
}

func scanLog(row rowScanner) (WorkoutLog, error) {
	var (
		l              WorkoutLog
		workoutID      sql.NullInt64
		muscles        string
		progress       sql.NullString
		completedAtStr string
	)
	if err := row.Scan(&l.ID, &workoutID, &l.Name, &l.DurationSeconds, &l.Calories, &muscles, &progress,
		&completedAtStr); err != nil {
		return WorkoutLog{}, fmt.Errorf("scan workout log row: %w", err)
	}
	if workoutID.Valid {
		l.WorkoutID = &workoutID.Int64
	}
	if err := decodeJSON(muscles, &l.Muscles); err != nil {
		return WorkoutLog{}, err
	}
	if progress.Valid {
		l.Progress = []byte(progress.String)
	}
	completedAt, err := parseTimestamp(sql.NullString{String: completedAtStr, Valid: true})
	if err != nil {
		return WorkoutLog{}, fmt.Errorf("parse completed_at: %w", err)
	}
	l.CompletedAt = *completedAt
	return l, nil
}
