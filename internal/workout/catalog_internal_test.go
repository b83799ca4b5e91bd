package workout

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCatalog(t *testing.T) {
	exercises, err := Catalog()
	if err != nil {
		t.Fatalf("Catalog() error = %v", err)
	}
	if len(exercises) < len(allMuscleGroups) {
		t.Fatalf("Catalog() returned %d exercises, want at least %d", len(exercises), len(allMuscleGroups))
	}

	t.Run("every muscle and equipment pair has a beginner exercise", func(t *testing.T) {
		for _, m := range allMuscleGroups {
			for _, eq := range allEquipment {
				got := selectExercises(exercises, []MuscleGroup{m}, []Equipment{eq}, DifficultyBeginner, 30)
				if len(got) == 0 {
					t.Errorf("no beginner exercise for %s with %s", m, eq)
				}
			}
		}
	})

	t.Run("returns copies", func(t *testing.T) {
		first, _ := Catalog()
		first[0].Name = "changed"
		first[0].Muscles[0] = MuscleCalves
		second, _ := Catalog()
		if second[0].Name == "changed" || second[0].Muscles[0] == MuscleCalves {
			t.Error("mutating the returned catalog changed the shared table")
		}
	})
}

func TestLookupExercise(t *testing.T) {
	got, ok := LookupExercise("push-ups")
	if !ok {
		t.Fatal("LookupExercise(push-ups) not found")
	}
	want := ExerciseDefinition{
		ID:             "push-ups",
		Name:           "Push-Ups",
		Muscles:        []MuscleGroup{MuscleChest, MuscleTriceps, MuscleShoulders},
		Equipment:      []Equipment{EquipmentBodyweight},
		Difficulty:     DifficultyBeginner,
		Sets:           3,
		Reps:           "12-15",
		RestSeconds:    60,
		Tip:            "Keep your core tight and body in a straight line.",
		CaloriesPerSet: 8,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LookupExercise() mismatch (-want +got):\n%s", diff)
	}

	if _, ok = LookupExercise("does-not-exist"); ok {
		t.Error("LookupExercise(does-not-exist) found an exercise")
	}
}

func Test_parseCatalog(t *testing.T) {
	const valid = `
- id: a
  name: "A"
  muscles: [CHEST]
  equipment: [Bodyweight]
  difficulty: beginner
  sets: 3
  reps: "10"
  rest_seconds: 60
  tip: "tip"
  calories_per_set: 5
`
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
		wantIs  error
	}{
		{name: "valid", yaml: valid},
		{name: "unknown field", yaml: valid + "  color: red\n", wantErr: true},
		{name: "duplicate id", yaml: valid + valid[1:], wantErr: true},
		{
			name: "unknown muscle",
			yaml: `
- id: a
  name: "A"
  muscles: [NECK]
  equipment: [Bodyweight]
  difficulty: beginner
  sets: 3
  reps: "10"
  rest_seconds: 60
  tip: "tip"
  calories_per_set: 5
`,
			wantErr: true,
			wantIs:  ErrUnknownMuscle,
		},
		{
			name: "no equipment and zero sets",
			yaml: `
- id: a
  name: "A"
  muscles: [CHEST]
  equipment: []
  difficulty: expert
  sets: 0
  reps: "10"
  rest_seconds: 60
  tip: "tip"
  calories_per_set: 5
`,
			wantErr: true,
			wantIs:  ErrEmptyEquipment,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseCatalog([]byte(tt.yaml))
			if tt.wantErr != (err != nil) {
				t.Fatalf("parseCatalog() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
				t.Errorf("parseCatalog() error = %v, want %v", err, tt.wantIs)
			}
		})
	}
}

func TestCatalogFor(t *testing.T) {
	got, err := CatalogFor(MuscleCalves)
	if err != nil {
		t.Fatalf("CatalogFor() error = %v", err)
	}
	if len(got) == 0 {
		t.Fatal("CatalogFor(CALVES) is empty")
	}
	for _, e := range got {
		if !e.targets(MuscleCalves) {
			t.Errorf("%s does not target calves", e.ID)
		}
	}
}
