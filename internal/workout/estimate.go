package workout

import (
	"math"
)

const (
	minSets = 2
	// workingMinutesPerSet approximates the time under load for one set.
	workingMinutesPerSet = 1.0
	// roughCaloriesPerMinute is the flat burn rate used when exercises come from the AI collaborator.
	roughCaloriesPerMinute = 6
)

func setMultiplier(d Difficulty) float64 {
	switch d {
	case DifficultyBeginner:
		return 0.75 //nolint:mnd // beginners do three quarters of the baseline volume.
	case DifficultyAdvanced:
		return 1.25 //nolint:mnd // advanced lifters do a quarter more.
	case DifficultyIntermediate:
		return 1
	default:
		return 1
	}
}

// scaleSets adjusts the baseline set count of e to the difficulty. Never fewer than two sets.
func scaleSets(e ExerciseDefinition, d Difficulty) ExerciseDefinition {
	e = e.clone()
	e.Sets = max(minSets, int(math.Round(float64(e.Sets)*setMultiplier(d))))
	return e
}

// estimateCalories sums calories over every set of every exercise.
func estimateCalories(exercises []ExerciseDefinition) float64 {
	var total float64
	for _, e := range exercises {
		total += e.CaloriesPerSet * float64(e.Sets)
	}
	return total
}

// estimateMinutes sums working time and rest over all sets and rounds once at the end.
func estimateMinutes(exercises []ExerciseDefinition) int {
	var total float64
	for _, e := range exercises {
		total += float64(e.Sets) * (workingMinutesPerSet + float64(e.RestSeconds)/60) //nolint:mnd // seconds.
	}
	return int(math.Round(total))
}

// roughCalories is the linear estimate applied to AI generated workouts. It disagrees with estimateCalories for the
// same exercises.
func roughCalories(durationMinutes int) float64 {
	return float64(durationMinutes * roughCaloriesPerMinute)
}
