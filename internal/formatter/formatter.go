// package formatter reshapes upstream catalog payloads into gateway responses and
// exports the login run journal to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/desertthunder/hifi/internal/models"
	"github.com/desertthunder/hifi/internal/shared"
)

// Export formats accepted by [WriteRuns].
const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "text"
)

// ExportRunsCSV converts login runs to CSV with columns: ID, Source, Status, Started, Finished, Exit Code, Lines, Error
func ExportRunsCSV(runs []*models.LoginRun) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Source", "Status", "Started", "Finished", "Exit Code", "Lines", "Error"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, run := range runs {
		record := []string{
			run.ID(),
			run.Source(),
			run.Status(),
			run.StartedAt().Format(time.RFC3339),
			finishedString(run),
			exitCodeString(run),
			strconv.Itoa(run.Lines()),
			run.Error(),
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

// ExportRunsMarkdown renders login runs as a Markdown table.
func ExportRunsMarkdown(runs []*models.LoginRun) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Login runs\n\n")
	fmt.Fprintf(&buf, "**Runs**: %d\n\n", len(runs))

	buf.WriteString("| Started | Source | Status | Exit | Lines | Duration |\n")
	buf.WriteString("|---|---|---|---|---|---|\n")
	for _, run := range runs {
		fmt.Fprintf(&buf, "| %s | %s | %s | %s | %d | %s |\n",
			run.StartedAt().Format(time.RFC3339), run.Source(), run.Status(),
			exitCodeString(run), run.Lines(), durationString(run))
	}

	return buf.Bytes(), nil
}

// ExportRunsText renders one line per login run.
func ExportRunsText(runs []*models.LoginRun) ([]byte, error) {
	var buf bytes.Buffer

	for i, run := range runs {
		fmt.Fprintf(&buf, "%d. %s %-9s %-7s exit=%s lines=%d",
			i+1, run.StartedAt().Format(time.RFC3339), run.Source(), run.Status(), exitCodeString(run), run.Lines())
		if run.Error() != "" {
			fmt.Fprintf(&buf, " error=%q", run.Error())
		}
		buf.WriteByte('\n')
	}

	return buf.Bytes(), nil
}

// ExportRuns renders runs in the named format.
func ExportRuns(runs []*models.LoginRun, format string) ([]byte, error) {
	switch format {
	case FormatJSON, "":
		return shared.MarshalJSON(runs, true)
	case FormatCSV:
		return ExportRunsCSV(runs)
	case FormatMarkdown, "md":
		return ExportRunsMarkdown(runs)
	case FormatText, "txt":
		return ExportRunsText(runs)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// WriteRuns exports runs to path in the named format.
func WriteRuns(runs []*models.LoginRun, format, path string) error {
	data, err := ExportRuns(runs, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func finishedString(run *models.LoginRun) string {
	if run.FinishedAt() == nil {
		return ""
	}
	return run.FinishedAt().Format(time.RFC3339)
}

func exitCodeString(run *models.LoginRun) string {
	if run.ExitCode() == nil {
		return "-"
	}
	return strconv.Itoa(*run.ExitCode())
}

func durationString(run *models.LoginRun) string {
	if run.FinishedAt() == nil {
		return "-"
	}
	return run.Duration().Round(time.Second).String()
}
