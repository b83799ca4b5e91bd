package workout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/myrjola/fittrack/internal/sqlite"
)

// sqliteWorkoutRepository stores saved workouts of the user in the context.
type sqliteWorkoutRepository struct {
	baseRepository
}

func newSQLiteWorkoutRepository(db *sqlite.Database, logger *slog.Logger) *sqliteWorkoutRepository {
	return &sqliteWorkoutRepository{
		baseRepository: newBaseRepository(db, logger),
	}
}

const workoutColumns = `id, name, muscles, equipment, duration_minutes, difficulty, exercises,
	estimated_calories, estimated_minutes, source, created_at, completed_at`

// Create stores w under w.SuggestedName. Returns ErrDuplicateName when the user already has a workout with that name.
func (r *sqliteWorkoutRepository) Create(ctx context.Context, w GeneratedWorkout) (SavedWorkout, error) {
	userID, err := r.userID(ctx)
	if err != nil {
		return SavedWorkout{}, err
	}

	var muscles, equipment, exercises string
	if muscles, err = encodeJSON(w.Muscles); err != nil {
		return SavedWorkout{}, err
	}
	if equipment, err = encodeJSON(w.Equipment); err != nil {
		return SavedWorkout{}, err
	}
	if exercises, err = encodeJSON(w.Exercises); err != nil {
		return SavedWorkout{}, err
	}

	row := r.db.ReadWrite.QueryRowContext(ctx, `
		INSERT INTO workouts (user_id, name, muscles, equipment, duration_minutes, difficulty, exercises,
		                      estimated_calories, estimated_minutes, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+workoutColumns,
		userID, w.SuggestedName, muscles, equipment, w.DurationMinutes, w.Difficulty, exercises,
		w.EstimatedCalories, w.EstimatedMinutes, w.Source)
	saved, err := scanWorkout(row)
	if isUniqueViolation(err) {
		return SavedWorkout{}, ErrDuplicateName
	}
	if err != nil {
		return SavedWorkout{}, fmt.Errorf("insert workout: %w", err)
	}
	return saved, nil
}

// List returns the user's workouts, newest first.
func (r *sqliteWorkoutRepository) List(ctx context.Context) (_ []SavedWorkout, err error) {
	userID, err := r.userID(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT `+workoutColumns+`
		FROM workouts
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query workouts: %w", err)
	}
	defer closeRows(rows, &err)

	workouts := []SavedWorkout{}
	for rows.Next() {
		var w SavedWorkout
		if w, err = scanWorkout(rows); err != nil {
			return nil, err
		}
		workouts = append(workouts, w)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate workout rows: %w", err)
	}
	return workouts, nil
}

// Get returns the user's workout with the given id or ErrNotFound.
func (r *sqliteWorkoutRepository) Get(ctx context.Context, id int64) (SavedWorkout, error) {
	userID, err := r.userID(ctx)
	if err != nil {
		return SavedWorkout{}, err
	}

	row := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT `+workoutColumns+`
		FROM workouts
		WHERE id = ? AND user_id = ?`, id, userID)
	w, err := scanWorkout(row)
	if errors.Is(err, sql.ErrNoRows) {
		return SavedWorkout{}, ErrNotFound
	}
	if err != nil {
		return SavedWorkout{}, fmt.Errorf("query workout: %w", err)
	}
	return w, nil
}

// Delete removes the user's workout. Logs referring to it are kept without the reference.
func (r *sqliteWorkoutRepository) Delete(ctx context.Context, id int64) error {
	userID, err := r.userID(ctx)
	if err != nil {
		return err
	}

	result, err := r.db.ReadWrite.ExecContext(ctx, `
		DELETE FROM workouts
		WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete workout: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkout(row rowScanner) (SavedWorkout, error) {
	var (
		w                             SavedWorkout
		muscles, equipment, exercises string
		createdAtStr                  string
		completedAtStr                sql.NullString
	)
	if err := row.Scan(&w.ID, &w.Name, &muscles, &equipment, &w.DurationMinutes, &w.Difficulty, &exercises,
		&w.EstimatedCalories, &w.EstimatedMinutes, &w.Source, &createdAtStr, &completedAtStr); err != nil {
		return SavedWorkout{}, fmt.Errorf("scan workout row: %w", err)
	}
	if err := decodeJSON(muscles, &w.Muscles); err != nil {
		return SavedWorkout{}, err
	}
	if err := decodeJSON(equipment, &w.Equipment); err != nil {
		return SavedWorkout{}, err
	}
	if err := decodeJSON(exercises, &w.Exercises); err != nil {
		return SavedWorkout{}, err
	}
	createdAt, err := parseTimestamp(sql.NullString{String: createdAtStr, Valid: true})
	if err != nil {
		return SavedWorkout{}, fmt.Errorf("parse created_at: %w", err)
	}
	w.CreatedAt = *createdAt
	if w.CompletedAt, err = parseTimestamp(completedAtStr); err != nil {
		return SavedWorkout{}, fmt.Errorf("parse completed_at: %w", err)
	}
	return w, nil
}
