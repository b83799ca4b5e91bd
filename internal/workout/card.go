package workout

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//nolint:gochecknoglobals // goldmark.Markdown is safe for concurrent use.
var cardRenderer = goldmark.New(goldmark.WithExtensions(extension.Table))

// CardMarkdown renders w as a printable markdown workout card.
func CardMarkdown(w GeneratedWorkout) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", escapeMarkdown(w.SuggestedName))
	fmt.Fprintf(&b, "**%s** · %d min · ~%d min estimated · ~%.0f kcal\n\n",
		w.Difficulty, w.DurationMinutes, w.EstimatedMinutes, w.EstimatedCalories)

	muscles := make([]string, len(w.Muscles))
	for i, m := range w.Muscles {
		muscles[i] = string(m)
	}
	equipment := make([]string, len(w.Equipment))
	for i, e := range w.Equipment {
		equipment[i] = string(e)
	}
	fmt.Fprintf(&b, "Muscles: %s  \nEquipment: %s\n\n", strings.Join(muscles, ", "), strings.Join(equipment, ", "))

	b.WriteString("| # | Exercise | Sets | Reps | Rest |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for i, e := range w.Exercises {
		fmt.Fprintf(&b, "| %d | %s | %d | %s | %ds |\n",
			i+1, escapeMarkdown(e.Name), e.Sets, escapeMarkdown(e.Reps), e.RestSeconds)
	}

	var tips []string
	for _, e := range w.Exercises {
		if e.Tip != "" {
			tips = append(tips, fmt.Sprintf("- **%s:** %s", escapeMarkdown(e.Name), escapeMarkdown(e.Tip)))
		}
	}
	if len(tips) > 0 {
		b.WriteString("\n## Tips\n\n")
		b.WriteString(strings.Join(tips, "\n"))
		b.WriteString("\n")
	}
	return b.String()
}

// CardHTML renders the workout card to an HTML fragment. Raw HTML in names and tips is escaped.
func CardHTML(w GeneratedWorkout) ([]byte, error) {
	var buf bytes.Buffer
	if err := cardRenderer.Convert([]byte(CardMarkdown(w)), &buf); err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}
	return buf.Bytes(), nil
}

//nolint:gochecknoglobals // read-only replacer.
var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "|", `\|`, "*", `\*`, "_", `\_`, "`", "\\`", "[", `\[`, "]", `\]`, "#", `\#`, "<", "&lt;", ">", "&gt;",
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(strings.ReplaceAll(s, "\n", " "))
}
