package formatter

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/pictag/internal/models"
)

func sampleRun(t *testing.T) *models.BatchRun {
	t.Helper()

	media := []models.Media{
		{ID: "m1", Filename: "a.jpg", ContentType: "image/jpeg"},
		{ID: "m2", Filename: "b.jpg", ContentType: "image/jpeg"},
	}

	run := models.NewBatchRun("llava", media)
	run.SetID("run-1")
	run.Start()
	run.Task(0).MarkProcessing()
	run.Task(0).MarkCompleted([]byte(`{"tags":["dog"]}`))
	run.Task(1).MarkProcessing()
	run.Task(1).MarkFailed("task timed out after 10m0s")
	run.Finish()

	return run
}

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		size int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{3 * 1024 * 1024 * 1024, "3.0 GB"},
	}

	for _, tc := range cases {
		if got := FormatBytes(tc.size); got != tc.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tc.size, got, tc.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	if got := FormatDuration(90 * time.Second); got != "1m30s" {
		t.Errorf("expected 1m30s, got %q", got)
	}
	if got := FormatDuration(250 * time.Millisecond); got != "250ms" {
		t.Errorf("expected 250ms, got %q", got)
	}
}

func TestReportToCSV(t *testing.T) {
	data, err := ReportToCSV(sampleRun(t))
	if err != nil {
		t.Fatal(err)
	}

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(records))
	}
	if records[1][1] != "m1" || records[1][2] != "completed" {
		t.Errorf("unexpected first row %v", records[1])
	}
	if records[2][2] != "failed" || !strings.Contains(records[2][5], "timed out") {
		t.Errorf("unexpected second row %v", records[2])
	}
}

func TestReportToMarkdown(t *testing.T) {
	data, err := ReportToMarkdown(sampleRun(t))
	if err != nil {
		t.Fatal(err)
	}

	out := string(data)
	for _, want := range []string{"# Batch Run run-1", "**Model**: llava", "1 succeeded, 1 failed", "## Tasks"} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q:\n%s", want, out)
		}
	}
}

func TestReportToText(t *testing.T) {
	data, err := ReportToText(sampleRun(t))
	if err != nil {
		t.Fatal(err)
	}

	out := string(data)
	if !strings.Contains(out, "1. m1 [completed]") || !strings.Contains(out, "2. m2 [failed]") {
		t.Errorf("unexpected text report:\n%s", out)
	}
}

func TestWriteCSVReport(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "report")

	result, err := WriteCSVReport(sampleRun(t), base)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(result.TasksFile); err != nil {
		t.Errorf("tasks file not written: %v", err)
	}

	summary, err := os.ReadFile(result.SummaryFile)
	if err != nil {
		t.Fatalf("summary file not written: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(summary, &decoded); err != nil {
		t.Fatalf("summary is not valid JSON: %v", err)
	}
	if decoded["model"] != "llava" {
		t.Errorf("expected model in summary, got %v", decoded["model"])
	}
}

func TestWriteTextReport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.txt")

	written, err := WriteTextReport(sampleRun(t), path)
	if err != nil {
		t.Fatal(err)
	}
	if written != path {
		t.Errorf("expected %s, got %s", path, written)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("text file not written: %v", err)
	}
}
