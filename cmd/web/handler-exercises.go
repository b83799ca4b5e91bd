package main

import (
	"net/http"

	"github.com/myrjola/fittrack/internal/workout"
)

// exercisesGET lists the exercise catalog, optionally only the exercises targeting the muscle query parameter.
func (app *application) exercisesGET(w http.ResponseWriter, r *http.Request) {
	var (
		exercises []workout.ExerciseDefinition
		err       error
	)
	if s := r.URL.Query().Get("muscle"); s != "" {
		muscle, parseErr := workout.ParseMuscleGroup(s)
		if parseErr != nil {
			app.clientError(w, r, http.StatusBadRequest, parseErr)
			return
		}
		exercises, err = workout.CatalogFor(muscle)
	} else {
		exercises, err = workout.Catalog()
	}
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, exercises)
}
