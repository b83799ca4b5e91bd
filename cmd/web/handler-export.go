package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// exportGET sends the current user's workouts and logs as a SQLite database file.
func (app *application) exportGET(w http.ResponseWriter, r *http.Request) {
	dir, err := os.MkdirTemp("", "fittrack-export-")
	if err != nil {
		app.serverError(w, r, fmt.Errorf("create export directory: %w", err))
		return
	}
	defer func() {
		if err = os.RemoveAll(dir); err != nil {
			app.logger.LogAttrs(r.Context(), slog.LevelWarn, "remove export directory", slog.Any("error", err))
		}
	}()

	path, err := app.workoutService.ExportData(r.Context(), dir)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		app.serverError(w, r, fmt.Errorf("open export: %w", err))
		return
	}
	defer func() {
		_ = f.Close()
	}()

	w.Header().Set("Content-Type", "application/vnd.sqlite3")
	w.Header().Set("Content-Disposition", `attachment; filename="fittrack-export.sqlite3"`)
	http.ServeContent(w, r, "fittrack-export.sqlite3", time.Now(), f)
}
