package main

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
)

//nolint:gochecknoglobals // parsed once at startup.
var cardTemplate = template.Must(template.New("card").Parse(`<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{ .Title }} | FitTrack</title>
</head>
<body>
<main class="workout-card" data-workout-id="{{ .ID }}" data-source="{{ .Source }}">
{{ .Card }}
</main>
</body>
</html>
`))

type cardTemplateData struct {
	ID     int64
	Title  string
	Source string
	// Card is the goldmark output. Markdown special characters and raw HTML in user supplied names are escaped
	// before rendering.
	Card template.HTML
}

// renderHTML executes tmpl into a buffer first so that template errors produce a clean 500.
func (app *application) renderHTML(w http.ResponseWriter, r *http.Request, status int, tmpl *template.Template,
	data any) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		app.serverError(w, r, fmt.Errorf("execute template %s: %w", tmpl.Name(), err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
