package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/specialistvlad/stagegrid/internal/table"
	"github.com/stretchr/testify/require"
)

// AssertStageFinished checks the log output within a HarnessResult to confirm
// that the worker for stage ran to completion.
func AssertStageFinished(t *testing.T, result *HarnessResult, stage table.Stage) {
	t.Helper()

	msg := `msg="Producer finished."`
	if stage == table.StageC {
		msg = `msg="Consumer finished."`
	}
	tag := "stage=" + stage.String()
	for _, line := range strings.Split(result.LogOutput, "\n") {
		if strings.Contains(line, msg) && strings.Contains(line, tag) {
			return
		}
	}
	require.Fail(t, "stage did not finish", "no %s line tagged %s in logs", msg, tag)
}

// AssertReportRow checks that the table report contains the row for one record.
func AssertReportRow(t *testing.T, result *HarnessResult, x, y, a, b int, c float64) {
	t.Helper()

	row := fmt.Sprintf("(%d,%d) | %d | %d | %.2f", x, y, a, b, c)
	require.Contains(t, result.Output, row, "report row missing")
}
