package workout

import (
	"errors"
	"strings"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicateName = errors.New("workout name already in use")

	ErrEmptyMuscles      = errors.New("at least one muscle group is required")
	ErrEmptyEquipment    = errors.New("at least one equipment type is required")
	ErrInvalidDuration   = errors.New("duration must be between 15 and 90 minutes")
	ErrInvalidDifficulty = errors.New("difficulty must be beginner, intermediate or advanced")
	ErrUnknownMuscle     = errors.New("unknown muscle group")
	ErrUnknownEquipment  = errors.New("unknown equipment")

	ErrMissingName     = errors.New("name is required")
	ErrNameTooLong     = errors.New("name must be at most 100 characters")
	ErrNoExercises     = errors.New("at least one exercise is required")
	ErrUnknownSource   = errors.New("source must be catalog or ai")
	ErrInvalidEstimate = errors.New("estimated calories and minutes must not be negative")
	ErrInvalidExercise = errors.New(
		"exercise needs a name, at least one set, non-negative rest and positive calories per set")
	ErrInvalidLog      = errors.New("duration and calories must not be negative")
	ErrInvalidProgress = errors.New("progress must be valid JSON")

	// ErrNoMatchingExercises is returned when the catalog has nothing for the requested constraints.
	ErrNoMatchingExercises = errors.New("no exercises match the requested muscles, equipment and difficulty")
)

// ValidationError collects every problem found in a [Request].
type ValidationError struct {
	Problems []error
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		msgs = append(msgs, p.Error())
	}
	return "invalid workout request: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() []error {
	return e.Problems
}
