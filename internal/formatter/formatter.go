// package formatter provides functions to export batch run reports to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/desertthunder/pictag/internal/models"
	"github.com/desertthunder/pictag/internal/shared"
)

// FormatBytes renders a byte count in human-readable units.
func FormatBytes(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}

	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGT"[exp])
}

// FormatDuration renders a duration at second precision for run reports.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}

// RunDuration returns the wall-clock span of a run, zero if it never finished.
func RunDuration(run *models.BatchRun) time.Duration {
	if run.StartedAt().IsZero() || run.FinishedAt().IsZero() {
		return 0
	}
	return run.FinishedAt().Sub(run.StartedAt())
}

// ReportToCSV converts a batch run to CSV format with columns: Position, MediaID, Status, Progress, AnalysisID, Error
func ReportToCSV(run *models.BatchRun) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "MediaID", "Status", "Progress", "AnalysisID", "Error"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, task := range run.Tasks() {
		record := []string{
			strconv.Itoa(i + 1),
			task.MediaID,
			string(task.Status),
			strconv.Itoa(task.Progress),
			task.AnalysisID,
			task.Error,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ReportToMarkdown converts a batch run to Markdown format
func ReportToMarkdown(run *models.BatchRun) ([]byte, error) {
	var buf bytes.Buffer
	counts := run.Counts()

	buf.WriteString(fmt.Sprintf("# Batch Run %s\n\n", run.ID()))
	buf.WriteString(fmt.Sprintf("**Model**: %s\n", run.Model()))
	buf.WriteString(fmt.Sprintf("**Started**: %s\n", run.StartedAt().Format(time.RFC3339)))
	if duration := RunDuration(run); duration > 0 {
		buf.WriteString(fmt.Sprintf("**Duration**: %s\n", FormatDuration(duration)))
	}
	buf.WriteString(fmt.Sprintf("**Result**: %d succeeded, %d failed (of %d)\n\n", counts.Completed, counts.Failed, counts.Total))

	buf.WriteString("## Tasks\n\n")
	for i, task := range run.Tasks() {
		line := fmt.Sprintf("%d. %s - %s", i+1, task.MediaID, task.Status)
		if task.Error != "" {
			line += fmt.Sprintf(" (%s)", task.Error)
		}
		buf.WriteString(line + "\n")
	}

	return buf.Bytes(), nil
}

// ReportToText converts a batch run to plain text format
func ReportToText(run *models.BatchRun) ([]byte, error) {
	var buf bytes.Buffer
	counts := run.Counts()

	buf.WriteString(fmt.Sprintf("Run: %s\n", run.ID()))
	buf.WriteString(fmt.Sprintf("Model: %s\n", run.Model()))
	buf.WriteString(fmt.Sprintf("Result: %d succeeded, %d failed\n\n", counts.Completed, counts.Failed))

	for i, task := range run.Tasks() {
		buf.WriteString(fmt.Sprintf("%d. %s [%s]\n", i+1, task.MediaID, task.Status))
	}

	return buf.Bytes(), nil
}

// runSummary is the JSON shape of a run report, tasks excluded.
type runSummary struct {
	ID         string           `json:"id"`
	Model      string           `json:"model"`
	Counts     models.RunCounts `json:"counts"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at,omitempty"`
}

// ToSummaryJSON generates a JSON representation of run metadata (without tasks)
func ToSummaryJSON(run *models.BatchRun) ([]byte, error) {
	return shared.MarshalJSON(runSummary{
		ID:         run.ID(),
		Model:      run.Model(),
		Counts:     run.Counts(),
		StartedAt:  run.StartedAt(),
		FinishedAt: run.FinishedAt(),
	}, true)
}

// CSVReportResult contains the paths of files created by WriteCSVReport
type CSVReportResult struct {
	TasksFile   string
	SummaryFile string
}

// WriteCSVReport exports a batch run to CSV format with an accompanying summary JSON file.
//
// Defaults to the run ID as the base filename & creates {base}_tasks.csv and {base}_summary.json
func WriteCSVReport(run *models.BatchRun, baseFilepath string) (*CSVReportResult, error) {
	if baseFilepath == "" {
		baseFilepath = run.ID()
	}

	csvData, err := ReportToCSV(run)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	tasksFile := baseFilepath + "_tasks.csv"
	if err := os.WriteFile(tasksFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	summaryJSON, err := ToSummaryJSON(run)
	if err != nil {
		return nil, fmt.Errorf("failed to generate summary JSON: %w", err)
	}

	summaryFile := baseFilepath + "_summary.json"
	if err := os.WriteFile(summaryFile, summaryJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write summary file: %w", err)
	}

	return &CSVReportResult{
		TasksFile:   tasksFile,
		SummaryFile: summaryFile,
	}, nil
}

// WriteTextReport exports a batch run to plain text format.
//
// Defaults to {run.ID}_report.txt as the filename.
func WriteTextReport(run *models.BatchRun, filepath string) (string, error) {
	if filepath == "" {
		filepath = fmt.Sprintf("%s_report.txt", run.ID())
	}

	textData, err := ReportToText(run)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(filepath, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return filepath, nil
}
