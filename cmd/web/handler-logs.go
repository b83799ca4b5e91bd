package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/myrjola/fittrack/internal/workout"
)

type logWorkoutRequest struct {
	WorkoutID       *int64                `json:"workoutId"`
	Name            string                `json:"name"`
	DurationSeconds int                   `json:"durationSeconds"`
	Calories        float64               `json:"calories"`
	Muscles         []workout.MuscleGroup `json:"muscles"`
	Progress        json.RawMessage       `json:"progress"`
	// CompletedAt defaults to the time the request is handled.
	CompletedAt *time.Time `json:"completedAt"`
}

func (app *application) workoutLogPOST(w http.ResponseWriter, r *http.Request) {
	var req logWorkoutRequest
	if err := readJSON(w, r, &req); err != nil {
		app.clientError(w, r, http.StatusBadRequest, err)
		return
	}

	l := workout.WorkoutLog{
		ID:              0,
		WorkoutID:       req.WorkoutID,
		Name:            req.Name,
		DurationSeconds: req.DurationSeconds,
		Calories:        req.Calories,
		Muscles:         req.Muscles,
		Progress:        req.Progress,
		CompletedAt:     time.Time{},
	}
	if string(l.Progress) == "null" {
		l.Progress = nil
	}
	if req.CompletedAt != nil {
		l.CompletedAt = *req.CompletedAt
	}

	saved, err := app.workoutService.LogCompletion(r.Context(), l)
	if err != nil {
		app.workoutError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusCreated, saved)
}

func (app *application) historyGET(w http.ResponseWriter, r *http.Request) {
	var workoutID *int64
	if s := r.URL.Query().Get("workoutId"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			app.clientError(w, r, http.StatusBadRequest, fmt.Errorf("invalid workoutId %q", s))
			return
		}
		workoutID = &id
	}

	logs, err := app.workoutService.History(r.Context(), workoutID)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, logs)
}

func (app *application) statsGET(w http.ResponseWriter, r *http.Request) {
	stats, err := app.workoutService.Stats(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, stats)
}
