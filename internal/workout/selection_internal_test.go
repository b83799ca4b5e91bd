package workout

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustCatalog(t *testing.T) []ExerciseDefinition {
	t.Helper()
	exercises, err := Catalog()
	if err != nil {
		t.Fatalf("Catalog() error = %v", err)
	}
	return exercises
}

func ids(exercises []ExerciseDefinition) []string {
	out := make([]string, len(exercises))
	for i, e := range exercises {
		out[i] = e.ID
	}
	return out
}

func Test_targetExerciseCount(t *testing.T) {
	tests := []struct {
		duration int
		want     int
	}{
		{duration: 15, want: 3},
		{duration: 17, want: 3},
		{duration: 18, want: 3},
		{duration: 24, want: 4},
		{duration: 30, want: 5},
		{duration: 45, want: 7},
		{duration: 60, want: 10},
		{duration: 90, want: 15},
	}
	for _, tt := range tests {
		if got := targetExerciseCount(tt.duration); got != tt.want {
			t.Errorf("targetExerciseCount(%d) = %d, want %d", tt.duration, got, tt.want)
		}
	}
}

func Test_selectExercises_scenarios(t *testing.T) {
	catalog := mustCatalog(t)
	tests := []struct {
		name       string
		muscles    []MuscleGroup
		equipment  []Equipment
		difficulty Difficulty
		duration   int
		want       []string
	}{
		{
			name:       "bodyweight chest for beginners",
			muscles:    []MuscleGroup{MuscleChest},
			equipment:  []Equipment{EquipmentBodyweight},
			difficulty: DifficultyBeginner,
			duration:   30,
			want:       []string{"push-ups"},
		},
		{
			name:       "advanced barbell push",
			muscles:    []MuscleGroup{MuscleChest, MuscleTriceps},
			equipment:  []Equipment{EquipmentBarbell},
			difficulty: DifficultyAdvanced,
			duration:   60,
			want: []string{
				"barbell-bench-press", "close-grip-bench", "barbell-floor-press", "overhead-press", "skull-crushers",
			},
		},
		{
			name:       "short pull session is capped at three",
			muscles:    []MuscleGroup{MuscleBiceps, MuscleBack},
			equipment:  []Equipment{EquipmentDumbbells},
			difficulty: DifficultyIntermediate,
			duration:   15,
			want:       []string{"dumbbell-rows", "bicep-curls", "hammer-curls"},
		},
		{
			name:       "lower body and core with all equipment",
			muscles:    []MuscleGroup{MuscleQuadriceps, MuscleHamstrings, MuscleGlutes, MuscleCalves, MuscleAbdominals},
			equipment:  AllEquipment(),
			difficulty: DifficultyIntermediate,
			duration:   45,
			want: []string{
				"squats", "lunges", "goblet-squats", "calf-raises", "mountain-climbers", "bodyweight-squats",
				"dumbbell-lunges",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := selectExercises(catalog, tt.muscles, tt.equipment, tt.difficulty, tt.duration)
			if diff := cmp.Diff(tt.want, ids(got)); diff != "" {
				t.Errorf("selectExercises() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func Test_selectExercises_properties(t *testing.T) {
	catalog := mustCatalog(t)
	difficulties := []Difficulty{DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced}
	muscleSets := [][]MuscleGroup{
		{MuscleChest},
		{MuscleChest, MuscleTriceps},
		{MuscleBack, MuscleBiceps, MuscleForearms},
		{MuscleQuadriceps, MuscleHamstrings, MuscleGlutes, MuscleCalves, MuscleAbdominals},
		{MuscleObliques, MuscleTraps, MuscleShoulders},
		MuscleGroups(),
	}
	equipmentSets := [][]Equipment{
		{EquipmentBodyweight},
		{EquipmentDumbbells},
		{EquipmentBarbell, EquipmentCable},
		AllEquipment(),
	}

	for _, muscles := range muscleSets {
		for _, equipment := range equipmentSets {
			for _, difficulty := range difficulties {
				for _, duration := range []int{15, 30, 45, 60, 90} {
					got := selectExercises(catalog, muscles, equipment, difficulty, duration)
					target := targetExerciseCount(duration)

					if len(got) == 0 || len(got) > target {
						t.Fatalf("%v %v %s %d: got %d exercises, want 1..%d",
							muscles, equipment, difficulty, duration, len(got), target)
					}
					seen := make(map[string]bool)
					for _, e := range got {
						if seen[e.ID] {
							t.Errorf("%v %v %s %d: duplicate %s", muscles, equipment, difficulty, duration, e.ID)
						}
						seen[e.ID] = true
						if !e.usesAny(equipment) {
							t.Errorf("%s needs unavailable equipment %v", e.ID, e.Equipment)
						}
						if !e.Difficulty.AtMost(difficulty) {
							t.Errorf("%s is %s, harder than %s", e.ID, e.Difficulty, difficulty)
						}
					}
					// Every muscle has a beginner exercise for every equipment type, so the coverage pass always
					// finds one as long as there are slots left.
					for i, m := range muscles {
						if i >= target {
							break
						}
						if !slices.ContainsFunc(got, func(e ExerciseDefinition) bool { return e.targets(m) }) {
							t.Errorf("%v %v %s %d: %s not covered", muscles, equipment, difficulty, duration, m)
						}
					}

					again := selectExercises(catalog, muscles, equipment, difficulty, duration)
					if diff := cmp.Diff(ids(got), ids(again)); diff != "" {
						t.Errorf("selection is not deterministic (-first +second):\n%s", diff)
					}
				}
			}
		}
	}
}

func Test_selectExercises_ordering(t *testing.T) {
	ex := func(id string, difficulty Difficulty, muscles ...MuscleGroup) ExerciseDefinition {
		return ExerciseDefinition{
			ID:             id,
			Name:           id,
			Muscles:        muscles,
			Equipment:      []Equipment{EquipmentBodyweight},
			Difficulty:     difficulty,
			Sets:           3,
			Reps:           "10",
			RestSeconds:    60,
			CaloriesPerSet: 5,
		}
	}
	catalog := []ExerciseDefinition{
		ex("chest-1", DifficultyBeginner, MuscleChest),
		ex("chest-2", DifficultyBeginner, MuscleChest),
		ex("back-1", DifficultyBeginner, MuscleBack),
		ex("chest-back", DifficultyBeginner, MuscleChest, MuscleBack),
		ex("chest-hard", DifficultyAdvanced, MuscleChest, MuscleBack),
		ex("legs", DifficultyBeginner, MuscleQuadriceps),
	}

	tests := []struct {
		name     string
		muscles  []MuscleGroup
		duration int
		want     []string
	}{
		{
			name:     "highest coverage first then fill in catalog order",
			muscles:  []MuscleGroup{MuscleChest, MuscleBack},
			duration: 30,
			want:     []string{"chest-back", "back-1", "chest-1", "chest-2"},
		},
		{
			name:     "coverage pass follows request order",
			muscles:  []MuscleGroup{MuscleQuadriceps, MuscleChest},
			duration: 15,
			want:     []string{"legs", "chest-1", "chest-2"},
		},
		{
			name:     "no match",
			muscles:  []MuscleGroup{MuscleCalves},
			duration: 30,
			want:     []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := selectExercises(catalog, tt.muscles, []Equipment{EquipmentBodyweight}, DifficultyIntermediate,
				tt.duration)
			if diff := cmp.Diff(tt.want, ids(got)); diff != "" {
				t.Errorf("selectExercises() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
