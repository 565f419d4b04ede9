package app

import (
	"bytes"
	"os"
	"sync"
	"testing"

	"github.com/specialistvlad/stagegrid/internal/report"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

func baseConfig() Config {
	return Config{
		MaxCapacity: 100,
		Modulo:      10,
		Segment:     "test-segment",
		Format:      report.FormatTable,
		LogFormat:   "text",
		LogLevel:    "debug",
	}
}

// setupAppTest creates an App writing its report to out and its logs to a
// buffer that is dumped when STAGEGRID_TEST_LOGS=true.
func setupAppTest(t *testing.T, cfg Config) (*App, *SafeBuffer, *SafeBuffer) {
	t.Helper()

	validated, err := NewConfig(cfg)
	if err != nil {
		t.Fatalf("invalid test config: %v", err)
	}
	out, logs := &SafeBuffer{}, &SafeBuffer{}
	testApp := NewApp(out, logs, validated)

	t.Cleanup(func() {
		if os.Getenv("STAGEGRID_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})
	return testApp, out, logs
}
