package workout

import (
	"slices"
)

type bodyRegion int

const (
	regionUpper bodyRegion = iota
	regionLower
	regionCore
)

func (m MuscleGroup) region() bodyRegion {
	switch m {
	case MuscleQuadriceps, MuscleHamstrings, MuscleGlutes, MuscleCalves:
		return regionLower
	case MuscleAbdominals, MuscleObliques:
		return regionCore
	case MuscleChest, MuscleBack, MuscleShoulders, MuscleBiceps, MuscleTriceps, MuscleForearms, MuscleTraps:
		return regionUpper
	default:
		return regionUpper
	}
}

// suggestName names a workout after the body regions and muscles it trains. Order and duplicates in muscles do not
// matter.
func suggestName(muscles []MuscleGroup) string {
	if len(muscles) == 0 {
		return "Custom Workout"
	}

	var upper, lower, core bool
	for _, m := range muscles {
		switch m.region() {
		case regionUpper:
			upper = true
		case regionLower:
			lower = true
		case regionCore:
			core = true
		}
	}
	has := func(m MuscleGroup) bool { return slices.Contains(muscles, m) }

	switch {
	case upper && lower && core:
		return "Full Body Blast"
	case upper && lower:
		return "Total Body Workout"
	case upper && core:
		return "Upper Body & Core"
	case lower && core:
		return "Lower Body & Core"
	case upper && has(MuscleChest) && has(MuscleTriceps):
		return "Push Day Power"
	case upper && has(MuscleBack) && has(MuscleBiceps):
		return "Pull Day Power"
	case upper && has(MuscleShoulders):
		return "Shoulder Sculptor"
	case upper:
		return "Upper Body Strength"
	case lower && has(MuscleGlutes):
		return "Glute Builder"
	case lower:
		return "Leg Day Destroyer"
	default:
		return "Core Crusher"
	}
}
