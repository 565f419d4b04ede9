package testutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/specialistvlad/stagegrid/internal/app"
	"github.com/specialistvlad/stagegrid/internal/cli"
	"github.com/stretchr/testify/require"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	Output    string
	LogOutput string
	Err       error
	App       *app.App
}

// RunIntegrationTest provides a standardized harness for running integration tests
// using a default background context.
func RunIntegrationTest(t *testing.T, files map[string]string, args ...string) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithContext(context.Background(), t, files, args...)
}

// RunIntegrationTestWithContext writes files into a temporary grid directory,
// parses args the way the command line does and runs the app. When files is
// not empty the grid directory is appended to args as -grid. Logs are always
// captured at debug level.
func RunIntegrationTestWithContext(ctx context.Context, t *testing.T, files map[string]string, args ...string) *HarnessResult {
	t.Helper()

	gridDir := filepath.Join(t.TempDir(), "grid")
	require.NoError(t, os.Mkdir(gridDir, 0o755))
	for name, content := range files {
		filePath := filepath.Join(gridDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
	}

	args = append([]string{"-log-level", "debug", "-log-format", "text"}, args...)
	if len(files) > 0 {
		args = append(args, "-grid", gridDir)
	}

	out, logs := &SafeBuffer{}, &SafeBuffer{}
	cfg, shouldExit, err := cli.Parse(args, out)
	if err != nil || shouldExit {
		return &HarnessResult{Output: out.String(), Err: err}
	}

	testApp := app.NewApp(out, logs, cfg)
	var runErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				runErr = fmt.Errorf("application run panicked | %v", r)
			}
		}()
		runErr = testApp.Run(ctx)
	}()

	if os.Getenv("STAGEGRID_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
	}

	return &HarnessResult{
		Output:    out.String(),
		LogOutput: logs.String(),
		Err:       runErr,
		App:       testApp,
	}
}
