package workout

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// MuscleGroup is one of the fixed anatomical targets used to filter exercises.
type MuscleGroup string

const (
	MuscleBiceps     MuscleGroup = "BICEPS"
	MuscleForearms   MuscleGroup = "FOREARMS"
	MuscleChest      MuscleGroup = "CHEST"
	MuscleTriceps    MuscleGroup = "TRICEPS"
	MuscleAbdominals MuscleGroup = "ABDOMINALS"
	MuscleObliques   MuscleGroup = "OBLIQUES"
	MuscleQuadriceps MuscleGroup = "QUADRICEPS"
	MuscleShoulders  MuscleGroup = "SHOULDERS"
	MuscleCalves     MuscleGroup = "CALVES"
	MuscleTraps      MuscleGroup = "TRAPS"
	MuscleBack       MuscleGroup = "BACK"
	MuscleHamstrings MuscleGroup = "HAMSTRINGS"
	MuscleGlutes     MuscleGroup = "GLUTES"
)

//nolint:gochecknoglobals // closed set, never mutated.
var allMuscleGroups = []MuscleGroup{
	MuscleBiceps, MuscleForearms, MuscleChest, MuscleTriceps, MuscleAbdominals, MuscleObliques, MuscleQuadriceps,
	MuscleShoulders, MuscleCalves, MuscleTraps, MuscleBack, MuscleHamstrings, MuscleGlutes,
}

// MuscleGroups returns all muscle groups.
func MuscleGroups() []MuscleGroup {
	return slices.Clone(allMuscleGroups)
}

// ParseMuscleGroup converts s to a MuscleGroup or returns ErrUnknownMuscle.
func ParseMuscleGroup(s string) (MuscleGroup, error) {
	m := MuscleGroup(s)
	if !slices.Contains(allMuscleGroups, m) {
		return "", fmt.Errorf("%w: %q", ErrUnknownMuscle, s)
	}
	return m, nil
}

// Equipment is the gear an exercise requires.
type Equipment string

const (
	EquipmentBodyweight Equipment = "Bodyweight"
	EquipmentDumbbells  Equipment = "Dumbbells"
	EquipmentBarbell    Equipment = "Barbell"
	EquipmentCable      Equipment = "Cable"
)

//nolint:gochecknoglobals // closed set, never mutated.
var allEquipment = []Equipment{EquipmentBodyweight, EquipmentDumbbells, EquipmentBarbell, EquipmentCable}

// AllEquipment returns all equipment types.
func AllEquipment() []Equipment {
	return slices.Clone(allEquipment)
}

// ParseEquipment converts s to Equipment or returns ErrUnknownEquipment.
func ParseEquipment(s string) (Equipment, error) {
	e := Equipment(s)
	if !slices.Contains(allEquipment, e) {
		return "", fmt.Errorf("%w: %q", ErrUnknownEquipment, s)
	}
	return e, nil
}

// Difficulty is an ordered skill tier: beginner < intermediate < advanced.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// ParseDifficulty converts s to a Difficulty or returns ErrInvalidDifficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(s)
	if d.rank() == 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidDifficulty, s)
	}
	return d, nil
}

// rank orders the difficulties. Unknown values rank 0.
func (d Difficulty) rank() int {
	switch d {
	case DifficultyBeginner:
		return 1
	case DifficultyIntermediate:
		return 2 //nolint:mnd // second tier.
	case DifficultyAdvanced:
		return 3 //nolint:mnd // third tier.
	default:
		return 0
	}
}

// AtMost reports whether d is at or below limit.
func (d Difficulty) AtMost(limit Difficulty) bool {
	return d.rank() <= limit.rank()
}

// ExerciseDefinition describes an exercise with its default prescription.
type ExerciseDefinition struct {
	ID             string        `json:"id"             yaml:"id"`
	Name           string        `json:"name"           yaml:"name"`
	Muscles        []MuscleGroup `json:"muscles"        yaml:"muscles"`
	Equipment      []Equipment   `json:"equipment"      yaml:"equipment"`
	Difficulty     Difficulty    `json:"difficulty"     yaml:"difficulty"`
	Sets           int           `json:"sets"           yaml:"sets"`
	Reps           string        `json:"reps"           yaml:"reps"`
	RestSeconds    int           `json:"restSeconds"    yaml:"rest_seconds"`
	Tip            string        `json:"tip"            yaml:"tip"`
	CaloriesPerSet float64       `json:"caloriesPerSet" yaml:"calories_per_set"`
}

func (e ExerciseDefinition) targets(m MuscleGroup) bool {
	return slices.Contains(e.Muscles, m)
}

func (e ExerciseDefinition) usesAny(equipment []Equipment) bool {
	return slices.ContainsFunc(e.Equipment, func(eq Equipment) bool {
		return slices.Contains(equipment, eq)
	})
}

// clone returns a copy that shares no slices with e.
func (e ExerciseDefinition) clone() ExerciseDefinition {
	e.Muscles = slices.Clone(e.Muscles)
	e.Equipment = slices.Clone(e.Equipment)
	return e
}

// Request holds the constraints for generating a workout.
type Request struct {
	Muscles         []MuscleGroup `json:"muscles"`
	Equipment       []Equipment   `json:"equipment"`
	Difficulty      Difficulty    `json:"difficulty"`
	DurationMinutes int           `json:"duration"`
}

// Source tells which generation path produced a workout.
type Source string

const (
	SourceCatalog Source = "catalog"
	SourceAI      Source = "ai"
)

// GeneratedWorkout is a proposed workout. It is not persisted unless saved with [Service.SaveWorkout].
type GeneratedWorkout struct {
	SuggestedName     string               `json:"suggestedName"`
	Muscles           []MuscleGroup        `json:"muscles"`
	Equipment         []Equipment          `json:"equipment"`
	DurationMinutes   int                  `json:"duration"`
	Difficulty        Difficulty           `json:"difficulty"`
	Exercises         []ExerciseDefinition `json:"exercises"`
	EstimatedCalories float64              `json:"estimatedCalories"`
	EstimatedMinutes  int                  `json:"estimatedMinutes"`
	Source            Source               `json:"source"`
}

// SavedWorkout is a workout stored by a user under a unique name.
type SavedWorkout struct {
	ID                int64                `json:"id"`
	Name              string               `json:"name"`
	Muscles           []MuscleGroup        `json:"muscles"`
	Equipment         []Equipment          `json:"equipment"`
	DurationMinutes   int                  `json:"duration"`
	Difficulty        Difficulty           `json:"difficulty"`
	Exercises         []ExerciseDefinition `json:"exercises"`
	EstimatedCalories float64              `json:"estimatedCalories"`
	EstimatedMinutes  int                  `json:"estimatedMinutes"`
	Source            Source               `json:"source"`
	CreatedAt         time.Time            `json:"createdAt"`
	CompletedAt       *time.Time           `json:"completedAt"`
}

// Plan returns the saved workout in the shape produced by the generator.
func (s SavedWorkout) Plan() GeneratedWorkout {
	return GeneratedWorkout{
		SuggestedName:     s.Name,
		Muscles:           s.Muscles,
		Equipment:         s.Equipment,
		DurationMinutes:   s.DurationMinutes,
		Difficulty:        s.Difficulty,
		Exercises:         s.Exercises,
		EstimatedCalories: s.EstimatedCalories,
		EstimatedMinutes:  s.EstimatedMinutes,
		Source:            s.Source,
	}
}

// WorkoutLog records one completed workout.
type WorkoutLog struct {
	ID              int64         `json:"id"`
	WorkoutID       *int64        `json:"workoutId"`
	Name            string        `json:"name"`
	DurationSeconds int           `json:"durationSeconds"`
	Calories        float64       `json:"calories"`
	Muscles         []MuscleGroup `json:"muscles"`
	// Progress is the client's per-exercise completion state, stored as is.
	Progress    json.RawMessage `json:"progress"`
	CompletedAt time.Time       `json:"completedAt"`
}

// Stats aggregates a user's workout logs.
type Stats struct {
	TotalWorkouts        int           `json:"totalWorkouts"`
	TotalCalories        float64       `json:"totalCalories"`
	TotalDurationMinutes int           `json:"totalDuration"`
	UniqueMusclesTrained []MuscleGroup `json:"uniqueMusclesList"`
	RecentWorkouts       []WorkoutLog  `json:"recentWorkouts"`
}
