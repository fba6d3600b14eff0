// Package report renders run results for the console and serializes them to
// JSON report files.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"mcptest/internal/executor"
	pkgstrings "mcptest/pkg/strings"
)

// Reporter writes human-readable progress and summaries. It is safe for use
// from concurrently finishing test cases.
type Reporter struct {
	out     io.Writer
	verbose bool

	mu sync.Mutex
}

// New creates a reporter writing to out.
func New(out io.Writer, verbose bool) *Reporter {
	if out == nil {
		out = os.Stdout
	}
	return &Reporter{out: out, verbose: verbose}
}

// ReportStart announces the run.
func (r *Reporter) ReportStart(total, groups, parallel int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "🧪 Running %d test cases in %d groups (parallel: %d)\n\n", total, groups, parallel)
}

// ReportResult prints one finished case. Called from the executor's OnResult
// hook, possibly from several groups at once.
func (r *Reporter) ReportResult(result *executor.TestResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintf(r.out, "%s %s (%s) [%v]\n", statusSymbol(result.Status), result.Name, result.Group, result.Duration.Round(time.Millisecond))
	if result.Error != "" {
		fmt.Fprintf(r.out, "   ↳ %s\n", result.Error)
	}
	if r.verbose || result.Status == executor.StatusFailed {
		for _, outcome := range result.Outcomes {
			mark := "✅"
			if !outcome.Passed {
				mark = "❌"
			}
			fmt.Fprintf(r.out, "   %s %s", mark, outcome.Description)
			if outcome.Message != "" {
				fmt.Fprintf(r.out, ": %s", outcome.Message)
			}
			fmt.Fprintln(r.out)
		}
	}
	for _, fault := range result.CleanupFaults {
		fmt.Fprintf(r.out, "   🧹 cleanup fault: %s: %s\n", fault.Description, fault.Error)
	}
}

// ReportSummary prints the aggregate outcome followed by a per-case table.
func (r *Reporter) ReportSummary(summary *executor.RunSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintf(r.out, "\n🏁 Run complete\n")
	fmt.Fprintf(r.out, "⏱️  Duration: %v\n", summary.Duration.Round(time.Millisecond))
	fmt.Fprintf(r.out, "   ✅ Passed: %d\n", summary.Passed)
	if summary.Failed > 0 {
		fmt.Fprintf(r.out, "   ❌ Failed: %d\n", summary.Failed)
	}
	if summary.Errored > 0 {
		fmt.Fprintf(r.out, "   💥 Errors: %d\n", summary.Errored)
	}
	if summary.Skipped > 0 {
		fmt.Fprintf(r.out, "   ⏭️  Skipped: %d\n", summary.Skipped)
	}
	fmt.Fprintf(r.out, "   📈 Total: %d\n", summary.Total)
	successRate := 0.0
	if summary.Total > 0 {
		successRate = float64(summary.Passed) / float64(summary.Total) * 100
	}
	fmt.Fprintf(r.out, "   📏 Success Rate: %.1f%%\n", successRate)

	r.renderTable(summary)

	if summary.Succeeded() {
		fmt.Fprintf(r.out, "\n🎉 All tests passed!\n")
	} else {
		fmt.Fprintf(r.out, "\n💔 Some tests failed\n")
	}
}

func (r *Reporter) renderTable(summary *executor.RunSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("CASE"),
		text.FgHiCyan.Sprint("GROUP"),
		text.FgHiCyan.Sprint("STATUS"),
		text.FgHiCyan.Sprint("DURATION"),
		text.FgHiCyan.Sprint("DETAIL"),
	})
	for _, result := range summary.Results {
		t.AppendRow(table.Row{
			result.Name,
			result.Group,
			colorStatus(result.Status),
			result.Duration.Round(time.Millisecond),
			detailFor(result),
		})
	}
	t.Render()
}

// detailFor condenses a result into one table cell: the first failed
// validator, the error, or a cleanup fault count.
func detailFor(result *executor.TestResult) string {
	if result.Error != "" {
		return pkgstrings.TruncateDetail(result.Error, pkgstrings.DefaultDetailMaxLen)
	}
	for _, outcome := range result.Outcomes {
		if !outcome.Passed {
			detail := fmt.Sprintf("%s: %s", outcome.Description, outcome.Message)
			return pkgstrings.TruncateDetail(detail, pkgstrings.DefaultDetailMaxLen)
		}
	}
	if n := len(result.CleanupFaults); n > 0 {
		return fmt.Sprintf("%d cleanup fault(s)", n)
	}
	return ""
}

func statusSymbol(status executor.Status) string {
	switch status {
	case executor.StatusPassed:
		return "✅"
	case executor.StatusFailed:
		return "❌"
	case executor.StatusSkipped:
		return "⏭️"
	case executor.StatusError:
		return "💥"
	default:
		return "❓"
	}
}

func colorStatus(status executor.Status) string {
	switch status {
	case executor.StatusPassed:
		return text.FgGreen.Sprint(status)
	case executor.StatusFailed, executor.StatusError:
		return text.FgRed.Sprint(status)
	case executor.StatusSkipped:
		return text.FgYellow.Sprint(status)
	default:
		return string(status)
	}
}

// WriteJSON saves the full summary as an indented JSON report. Path may be a
// directory, in which case a timestamped filename is generated inside it.
func WriteJSON(path string, summary *executor.RunSummary) (string, error) {
	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		path = filepath.Join(path, fmt.Sprintf("mcptest-report-%s.json", time.Now().Format("20060102-150405")))
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}
	return path, nil
}
