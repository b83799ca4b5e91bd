package main

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/myrjola/fittrack/internal/workout"
)

type generateResponse struct {
	Success bool                     `json:"success"`
	Workout workout.GeneratedWorkout `json:"workout"`
}

func (app *application) workoutGeneratePOST(w http.ResponseWriter, r *http.Request) {
	var req workout.Request
	if err := readJSON(w, r, &req); err != nil {
		app.clientError(w, r, http.StatusBadRequest, err)
		return
	}

	generated, err := app.workoutService.Generate(r.Context(), req)
	if err != nil {
		app.workoutError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, generateResponse{Success: true, Workout: generated})
}

func (app *application) workoutsGET(w http.ResponseWriter, r *http.Request) {
	workouts, err := app.workoutService.ListWorkouts(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, workouts)
}

type saveWorkoutRequest struct {
	Name              string                       `json:"name"`
	Muscles           []workout.MuscleGroup        `json:"muscles"`
	Equipment         []workout.Equipment          `json:"equipment"`
	DurationMinutes   int                          `json:"duration"`
	Difficulty        workout.Difficulty           `json:"difficulty"`
	Exercises         []workout.ExerciseDefinition `json:"exercises"`
	EstimatedCalories float64                      `json:"estimatedCalories"`
	EstimatedMinutes  int                          `json:"estimatedMinutes"`
	Source            workout.Source               `json:"source"`
}

func (app *application) workoutsPOST(w http.ResponseWriter, r *http.Request) {
	var req saveWorkoutRequest
	if err := readJSON(w, r, &req); err != nil {
		app.clientError(w, r, http.StatusBadRequest, err)
		return
	}

	saved, err := app.workoutService.SaveWorkout(r.Context(), workout.GeneratedWorkout{
		SuggestedName:     req.Name,
		Muscles:           req.Muscles,
		Equipment:         req.Equipment,
		DurationMinutes:   req.DurationMinutes,
		Difficulty:        req.Difficulty,
		Exercises:         req.Exercises,
		EstimatedCalories: req.EstimatedCalories,
		EstimatedMinutes:  req.EstimatedMinutes,
		Source:            req.Source,
	})
	if err != nil {
		app.workoutError(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/api/workouts/%d", saved.ID))
	app.writeJSON(w, r, http.StatusCreated, saved)
}

func (app *application) workoutGET(w http.ResponseWriter, r *http.Request) {
	id, ok := app.parseIDParam(w, r)
	if !ok {
		return
	}
	saved, err := app.workoutService.GetWorkout(r.Context(), id)
	if err != nil {
		app.workoutError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, saved)
}

func (app *application) workoutDELETE(w http.ResponseWriter, r *http.Request) {
	id, ok := app.parseIDParam(w, r)
	if !ok {
		return
	}
	if err := app.workoutService.DeleteWorkout(r.Context(), id); err != nil {
		app.workoutError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// workoutCardGET renders a saved workout as a printable HTML page.
func (app *application) workoutCardGET(w http.ResponseWriter, r *http.Request) {
	id, ok := app.parseIDParam(w, r)
	if !ok {
		return
	}
	saved, err := app.workoutService.GetWorkout(r.Context(), id)
	if err != nil {
		app.workoutError(w, r, err)
		return
	}
	card, err := workout.CardHTML(saved.Plan())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.renderHTML(w, r, http.StatusOK, cardTemplate, cardTemplateData{
		ID:     saved.ID,
		Title:  saved.Name,
		Source: string(saved.Source),
		Card:   template.HTML(card), //nolint:gosec // names and tips are escaped before markdown rendering.
	})
}

// workoutError maps errors from the workout service to responses.
func (app *application) workoutError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *workout.ValidationError
	switch {
	case errors.As(err, &verr):
		app.clientError(w, r, http.StatusBadRequest, verr)
	case errors.Is(err, workout.ErrNoMatchingExercises):
		app.clientError(w, r, http.StatusUnprocessableEntity, workout.ErrNoMatchingExercises)
	case errors.Is(err, workout.ErrNotFound):
		app.notFound(w, r)
	case errors.Is(err, workout.ErrDuplicateName):
		app.clientError(w, r, http.StatusConflict, workout.ErrDuplicateName)
	default:
		app.serverError(w, r, err)
	}
}
