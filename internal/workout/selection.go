package workout

import (
	"slices"
)

const (
	// minutesPerExercise is the assumed average time spent on one exercise including rest.
	minutesPerExercise = 6
	minExercises       = 3
)

// targetExerciseCount is the number of exercises that fit in durationMinutes.
func targetExerciseCount(durationMinutes int) int {
	return max(minExercises, durationMinutes/minutesPerExercise)
}

// selectExercises picks exercises from catalog that train the requested muscles with the available equipment at or
// below the requested difficulty.
//
// Every requested muscle gets at least one exercise before the remaining slots are filled with the candidates that
// cover most of the requested muscles. The result is in the order exercises were picked and is empty when nothing in
// the catalog matches.
func selectExercises(
	catalog []ExerciseDefinition,
	muscles []MuscleGroup,
	equipment []Equipment,
	difficulty Difficulty,
	durationMinutes int,
) []ExerciseDefinition {
	type candidate struct {
		exercise ExerciseDefinition
		coverage int
	}

	var candidates []candidate
	for _, e := range catalog {
		if !e.Difficulty.AtMost(difficulty) || !e.usesAny(equipment) {
			continue
		}
		coverage := 0
		for _, m := range muscles {
			if e.targets(m) {
				coverage++
			}
		}
		if coverage == 0 {
			continue
		}
		candidates = append(candidates, candidate{exercise: e, coverage: coverage})
	}
	if len(candidates) == 0 {
		return nil
	}

	slices.SortStableFunc(candidates, func(a, b candidate) int {
		return b.coverage - a.coverage
	})

	target := targetExerciseCount(durationMinutes)
	selected := make([]ExerciseDefinition, 0, min(target, len(candidates)))
	picked := make([]bool, len(candidates))

	for _, m := range muscles {
		if len(selected) >= target {
			break
		}
		for i, c := range candidates {
			if !picked[i] && c.exercise.targets(m) {
				picked[i] = true
				selected = append(selected, c.exercise.clone())
				break
			}
		}
	}

	for i, c := range candidates {
		if len(selected) >= target {
			break
		}
		if !picked[i] {
			picked[i] = true
			selected = append(selected, c.exercise.clone())
		}
	}

	return selected
}
