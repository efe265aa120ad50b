// Package export writes a finished story out as a Markdown storybook,
// optionally rendered to a standalone HTML page.
package export

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/wonderkid/storytime/internal/journal"
)

// Exporter writes storybooks into OutputDir.
type Exporter struct {
	OutputDir string
}

// New creates an Exporter for the given directory.
func New(outputDir string) *Exporter {
	return &Exporter{OutputDir: outputDir}
}

// Markdown renders the record and writes <story_id>.md, returning the path.
func (e *Exporter) Markdown(rec *journal.Record) (string, error) {
	if err := os.MkdirAll(e.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}

	path := filepath.Join(e.OutputDir, sanitizeID(rec.StoryID)+".md")
	if err := os.WriteFile(path, []byte(renderMarkdown(rec)), 0o644); err != nil {
		return "", fmt.Errorf("writing storybook: %w", err)
	}
	return path, nil
}

// HTML renders the record through goldmark and writes <story_id>.html,
// returning the path.
func (e *Exporter) HTML(rec *journal.Record) (string, error) {
	if err := os.MkdirAll(e.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}

	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)

	var body bytes.Buffer
	if err := md.Convert([]byte(renderMarkdown(rec)), &body); err != nil {
		return "", fmt.Errorf("rendering storybook HTML: %w", err)
	}

	tmpl, err := template.New("storybook").Parse(pageTemplate)
	if err != nil {
		return "", fmt.Errorf("parsing storybook template: %w", err)
	}

	var page bytes.Buffer
	title := rec.Title
	if title == "" {
		title = "Your Adventure"
	}
	if err := tmpl.Execute(&page, map[string]any{
		"Title": title,
		"Body":  template.HTML(body.String()),
	}); err != nil {
		return "", fmt.Errorf("executing storybook template: %w", err)
	}

	path := filepath.Join(e.OutputDir, sanitizeID(rec.StoryID)+".html")
	if err := os.WriteFile(path, page.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("writing storybook HTML: %w", err)
	}
	return path, nil
}

// renderMarkdown lays the story out: title, theme, paragraphs interleaved
// with the choices that were taken, then illustration links.
func renderMarkdown(rec *journal.Record) string {
	var b strings.Builder

	title := rec.Title
	if title == "" {
		title = "Your Adventure"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	if rec.Theme != "" {
		fmt.Fprintf(&b, "*A story about %s.*\n\n", rec.Theme)
	}

	for _, p := range rec.Paragraphs {
		fmt.Fprintf(&b, "%s\n\n", p)
	}

	if len(rec.ChoicesMade) > 0 {
		b.WriteString("## The path taken\n\n")
		for i, c := range rec.ChoicesMade {
			fmt.Fprintf(&b, "%d. %s\n", i+1, c)
		}
		b.WriteString("\n")
	}

	if len(rec.ImageURLs) > 0 {
		b.WriteString("## Illustrations\n\n")
		for i, u := range rec.ImageURLs {
			fmt.Fprintf(&b, "![Scene %d](%s)\n\n", i+1, u)
		}
	}

	return b.String()
}

// sanitizeID keeps story IDs filesystem-safe.
func sanitizeID(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, id)
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: Georgia, serif; max-width: 42rem; margin: 2rem auto; padding: 0 1rem; line-height: 1.7; }
img { max-width: 100%; border-radius: 8px; }
h1 { text-align: center; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`
