package workout

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

//nolint:gochecknoglobals // parsed once, read-only afterwards.
var loadCatalog = sync.OnceValues(func() ([]ExerciseDefinition, error) {
	return parseCatalog(catalogYAML)
})

// Catalog returns the built-in exercises in catalog order. The returned slice is a copy.
func Catalog() ([]ExerciseDefinition, error) {
	exercises, err := loadCatalog()
	if err != nil {
		return nil, err
	}
	return cloneExercises(exercises), nil
}

// CatalogFor returns the built-in exercises that target m, in catalog order.
func CatalogFor(m MuscleGroup) ([]ExerciseDefinition, error) {
	exercises, err := Catalog()
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(exercises, func(e ExerciseDefinition) bool { return !e.targets(m) }), nil
}

// LookupExercise returns the catalog exercise with the given id.
func LookupExercise(id string) (ExerciseDefinition, bool) {
	exercises, err := loadCatalog()
	if err != nil {
		return ExerciseDefinition{}, false
	}
	i := slices.IndexFunc(exercises, func(e ExerciseDefinition) bool { return e.ID == id })
	if i < 0 {
		return ExerciseDefinition{}, false
	}
	return exercises[i].clone(), true
}

func parseCatalog(data []byte) ([]ExerciseDefinition, error) {
	var exercises []ExerciseDefinition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&exercises); err != nil {
		return nil, fmt.Errorf("decode exercise catalog: %w", err)
	}
	if err := validateCatalog(exercises); err != nil {
		return nil, fmt.Errorf("validate exercise catalog: %w", err)
	}
	return exercises, nil
}

func validateCatalog(exercises []ExerciseDefinition) error {
	var errs []error
	seen := make(map[string]bool, len(exercises))
	for _, e := range exercises {
		if e.ID == "" {
			errs = append(errs, fmt.Errorf("exercise %q: missing id", e.Name))
			continue
		}
		if seen[e.ID] {
			errs = append(errs, fmt.Errorf("exercise %s: duplicate id", e.ID))
		}
		seen[e.ID] = true
		if e.Name == "" {
			errs = append(errs, fmt.Errorf("exercise %s: missing name", e.ID))
		}
		if len(e.Muscles) == 0 {
			errs = append(errs, fmt.Errorf("exercise %s: %w", e.ID, ErrEmptyMuscles))
		}
		for _, m := range e.Muscles {
			if _, err := ParseMuscleGroup(string(m)); err != nil {
				errs = append(errs, fmt.Errorf("exercise %s: %w", e.ID, err))
			}
		}
		if len(e.Equipment) == 0 {
			errs = append(errs, fmt.Errorf("exercise %s: %w", e.ID, ErrEmptyEquipment))
		}
		for _, eq := range e.Equipment {
			if _, err := ParseEquipment(string(eq)); err != nil {
				errs = append(errs, fmt.Errorf("exercise %s: %w", e.ID, err))
			}
		}
		if _, err := ParseDifficulty(string(e.Difficulty)); err != nil {
			errs = append(errs, fmt.Errorf("exercise %s: %w", e.ID, err))
		}
		if e.Sets <= 0 {
			errs = append(errs, fmt.Errorf("exercise %s: sets must be positive", e.ID))
		}
		if e.RestSeconds < 0 {
			errs = append(errs, fmt.Errorf("exercise %s: rest must not be negative", e.ID))
		}
		if e.CaloriesPerSet <= 0 {
			errs = append(errs, fmt.Errorf("exercise %s: calories per set must be positive", e.ID))
		}
	}
	return errors.Join(errs...)
}

func cloneExercises(exercises []ExerciseDefinition) []ExerciseDefinition {
	out := make([]ExerciseDefinition, len(exercises))
	for i, e := range exercises {
		out[i] = e.clone()
	}
	return out
}
