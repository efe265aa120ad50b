package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wonderkid/storytime/internal/journal"
)

func sampleRecord() *journal.Record {
	return &journal.Record{
		StoryID:     "story_20260824_120000",
		Title:       "The Brave Knight",
		Theme:       "a brave knight",
		Paragraphs:  []string{"Once upon a time...", "The knight set out.", "The end."},
		ChoicesMade: []string{"Fight the dragon", "Go home"},
		ImageURLs:   []string{"https://storage.googleapis.com/wonderkid/scene1.png"},
	}
}

func TestMarkdownExport(t *testing.T) {
	dir := t.TempDir()
	path, err := New(dir).Markdown(sampleRecord())
	if err != nil {
		t.Fatalf("Markdown: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	content := string(data)

	for _, want := range []string{
		"# The Brave Knight",
		"Once upon a time...",
		"1. Fight the dragon",
		"![Scene 1](https://storage.googleapis.com/wonderkid/scene1.png)",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestHTMLExport(t *testing.T) {
	dir := t.TempDir()
	path, err := New(dir).HTML(sampleRecord())
	if err != nil {
		t.Fatalf("HTML: %v", err)
	}
	if filepath.Ext(path) != ".html" {
		t.Errorf("path = %q, want .html", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	content := string(data)

	if !strings.Contains(content, "<title>The Brave Knight</title>") {
		t.Error("HTML missing title")
	}
	if !strings.Contains(content, "<h1") {
		t.Error("HTML missing rendered heading")
	}
	if !strings.Contains(content, "<img") {
		t.Error("HTML missing rendered illustration")
	}
}

func TestUntitledFallback(t *testing.T) {
	rec := sampleRecord()
	rec.Title = ""

	dir := t.TempDir()
	path, err := New(dir).Markdown(rec)
	if err != nil {
		t.Fatalf("Markdown: %v", err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "# Your Adventure") {
		t.Error("expected default title for untitled story")
	}
}

func TestSanitizeID(t *testing.T) {
	if got := sanitizeID("story/..\\evil"); strings.ContainsAny(got, "/\\.") {
		t.Errorf("sanitizeID left unsafe characters: %q", got)
	}
}
