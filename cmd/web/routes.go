package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (app *application) routes() (http.Handler, error) {
	mux := http.NewServeMux()

	var (
		shared = func(next http.Handler) http.Handler {
			return app.recoverPanic(app.logAndTraceRequest(secureHeaders(app.crossOriginProtection(next))))
		}
		noSession = func(next http.Handler) http.Handler {
			return shared(app.timeout(defaultTimeout, next))
		}
		session = func(next http.Handler) http.Handler {
			return shared(noCache(app.timeout(defaultTimeout,
				app.sessionManager.LoadAndSave(app.identifyUser(next)))))
		}
		slowSession = func(next http.Handler) http.Handler {
			return shared(noCache(app.timeout(app.generateTimeout,
				app.sessionManager.LoadAndSave(app.identifyUser(next)))))
		}
	)

	mux.Handle("GET /api/healthy", noSession(http.HandlerFunc(app.healthy)))
	mux.Handle("GET /api/test/timeout", noSession(http.HandlerFunc(app.testTimeout)))
	mux.Handle("GET /api/exercises", noSession(http.HandlerFunc(app.exercisesGET)))
	mux.Handle("POST /api/workouts/generate", slowSession(http.HandlerFunc(app.workoutGeneratePOST)))

	mux.Handle("GET /api/workouts", session(http.HandlerFunc(app.workoutsGET)))
	mux.Handle("POST /api/workouts", session(http.HandlerFunc(app.workoutsPOST)))
	mux.Handle("GET /api/workouts/{id}", session(http.HandlerFunc(app.workoutGET)))
	mux.Handle("DELETE /api/workouts/{id}", session(http.HandlerFunc(app.workoutDELETE)))
	mux.Handle("GET /workouts/{id}/card", session(http.HandlerFunc(app.workoutCardGET)))

	mux.Handle("POST /api/workouts/log", session(http.HandlerFunc(app.workoutLogPOST)))
	mux.Handle("GET /api/history", session(http.HandlerFunc(app.historyGET)))
	mux.Handle("GET /api/stats", session(http.HandlerFunc(app.statsGET)))
	mux.Handle("GET /api/export", session(http.HandlerFunc(app.exportGET)))

	mux.Handle("GET /metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{ //nolint:exhaustruct // defaults.
		ErrorLog: nil,
		Registry: app.registry,
	}))

	mux.Handle("/", noSession(http.HandlerFunc(app.notFound)))

	return mux, nil
}
