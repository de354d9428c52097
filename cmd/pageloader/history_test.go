package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/pageloader/internal/database"
	"github.com/nao1215/pageloader/internal/model"
	"github.com/nao1215/pageloader/internal/report"
)

func TestHistoryCmd_Empty(t *testing.T) {
	t.Parallel()

	stdout, _, err := executeRoot(t, "history", "--data-dir", t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "No runs recorded yet.") {
		t.Errorf("expected empty message, got %q", stdout)
	}
}

func TestHistoryCmd_EmptyJSON(t *testing.T) {
	t.Parallel()

	stdout, _, err := executeRoot(t, "history", "--json", "--data-dir", t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var rep report.JSONReport
	if err := json.Unmarshal([]byte(stdout), &rep); err != nil {
		t.Fatalf("expected JSON, got %q: %v", stdout, err)
	}
	if len(rep.Runs) != 0 {
		t.Errorf("expected no runs, got %d", len(rep.Runs))
	}
}

func TestHistoryCmd_Table(t *testing.T) {
	t.Parallel()

	dataDir := t.TempDir()
	db, err := database.Open(dataDir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	started := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	summaries := []*model.Summary{
		{
			PageURL: "https://ru.hexlet.io/courses", OutputDir: "/tmp/out", State: model.StateSaved,
			Started: started, Finished: started.Add(time.Second), DurationMS: 1000,
			SavedPath: "/tmp/out/ru-hexlet-io-courses.html",
		},
		{
			PageURL: "https://example.com/missing", OutputDir: "/tmp/out", State: model.StateErrored,
			Started: started.Add(time.Minute), Finished: started.Add(time.Minute), Error: "unexpected status 404",
		},
	}
	for _, s := range summaries {
		if _, err := db.Save(t.Context(), s); err != nil {
			t.Fatalf("failed to save: %v", err)
		}
	}
	_ = db.Close()

	t.Run("all runs", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := executeRoot(t, "history", "--data-dir", dataDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		lines := strings.Split(strings.TrimSpace(stdout), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected header and 2 rows, got:\n%s", stdout)
		}
		if !strings.Contains(lines[1], "https://example.com/missing") || !strings.Contains(lines[1], "unexpected status 404") {
			t.Errorf("expected newest run first, got %q", lines[1])
		}
		if !strings.Contains(lines[2], "/tmp/out/ru-hexlet-io-courses.html") {
			t.Errorf("expected saved path in second row, got %q", lines[2])
		}
	})

	t.Run("limit", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := executeRoot(t, "history", "--data-dir", dataDir, "--limit", "1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n := len(strings.Split(strings.TrimSpace(stdout), "\n")); n != 2 {
			t.Errorf("expected header and 1 row, got %d lines", n)
		}
	})

	t.Run("by url", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := executeRoot(t, "history", "--data-dir", dataDir, "https://ru.hexlet.io/courses")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(stdout, "example.com") {
			t.Errorf("expected only hexlet runs, got:\n%s", stdout)
		}
	})
}

func TestPrintHistory_Empty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := printHistory(&buf, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "No runs recorded yet.") {
		t.Errorf("expected empty message, got %q", buf.String())
	}
}
