package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcptest/internal/executor"
	"mcptest/internal/validate"
)

func sampleSummary() *executor.RunSummary {
	return &executor.RunSummary{
		RunID:    "run-1",
		Duration: 1200 * time.Millisecond,
		Total:    3,
		Passed:   1,
		Failed:   1,
		Skipped:  1,
		Results: []*executor.TestResult{
			{Name: "create_job", Group: "glue", Status: executor.StatusPassed},
			{
				Name:   "run_job",
				Group:  "glue",
				Status: executor.StatusFailed,
				Outcomes: []validate.Outcome{
					{Description: "response contains text", Passed: false, Message: "text not found"},
				},
			},
			{Name: "check_run", Group: "glue", Status: executor.StatusSkipped, Error: `dependency "run_job" did not pass`},
		},
	}
}

func TestReportResult(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, false)

	r.ReportResult(&executor.TestResult{
		Name:   "create_job",
		Group:  "glue",
		Status: executor.StatusPassed,
	})
	assert.Contains(t, buf.String(), "✅ create_job (glue)")

	buf.Reset()
	r.ReportResult(&executor.TestResult{
		Name:   "run_job",
		Group:  "glue",
		Status: executor.StatusFailed,
		Outcomes: []validate.Outcome{
			{Description: "response contains text", Passed: false, Message: "text not found"},
		},
		CleanupFaults: []executor.CleanupFault{
			{Description: "delete job", Error: "throttled"},
		},
	})
	out := buf.String()
	assert.Contains(t, out, "❌ run_job")
	assert.Contains(t, out, "response contains text: text not found")
	assert.Contains(t, out, "cleanup fault: delete job: throttled")
}

func TestReportResultVerboseShowsPassingOutcomes(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, true).ReportResult(&executor.TestResult{
		Name:   "create_job",
		Status: executor.StatusPassed,
		Outcomes: []validate.Outcome{
			{Description: "response contains text", Passed: true},
		},
	})
	assert.Contains(t, buf.String(), "response contains text")
}

func TestReportSummary(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, false).ReportSummary(sampleSummary())

	out := buf.String()
	assert.Contains(t, out, "✅ Passed: 1")
	assert.Contains(t, out, "❌ Failed: 1")
	assert.Contains(t, out, "⏭️  Skipped: 1")
	assert.Contains(t, out, "Success Rate: 33.3%")
	assert.Contains(t, out, "💔 Some tests failed")
	// table rows
	assert.Contains(t, out, "create_job")
	assert.Contains(t, out, "text not found")
}

func TestReportSummaryAllPassed(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, false).ReportSummary(&executor.RunSummary{
		Total:  1,
		Passed: 1,
		Results: []*executor.TestResult{
			{Name: "create_job", Group: "glue", Status: executor.StatusPassed},
		},
	})
	assert.Contains(t, buf.String(), "🎉 All tests passed!")
}

func TestWriteJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	written, err := WriteJSON(path, sampleSummary())
	require.NoError(t, err)
	assert.Equal(t, path, written)

	data, err := os.ReadFile(written)
	require.NoError(t, err)

	var decoded executor.RunSummary
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "run-1", decoded.RunID)
	require.Len(t, decoded.Results, 3)
	assert.Equal(t, executor.StatusFailed, decoded.Results[1].Status)
}

func TestWriteJSONToDirectory(t *testing.T) {
	dir := t.TempDir()
	written, err := WriteJSON(dir, sampleSummary())
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(written))
	assert.Contains(t, filepath.Base(written), "mcptest-report-")
}
