package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// syncBuffer is written by the async worker and read by the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newJSONLogger(w *syncBuffer) *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))}
}

func decodeLines(t *testing.T, out string) []map[string]any {
	t.Helper()
	var records []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		records = append(records, rec)
	}
	return records
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	require.Equal(t, slog.LevelError, ParseLevel("error"))
	require.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jicofo.log")
	log, err := New("debug", "json", path, false)
	require.NoError(t, err)

	log.WithComponent("test").Info("hello")
}

func TestWithContext(t *testing.T) {
	var buf syncBuffer
	log := newJSONLogger(&buf)

	ctx := context.WithValue(context.Background(), StateIDKey, "round-1")
	ctx = context.WithValue(ctx, BridgeKey, "jvb1@example.org")
	log.WithContext(ctx).Info("checked")
	log.WithContext(context.Background()).Info("plain")

	records := decodeLines(t, buf.String())
	require.Len(t, records, 2)
	require.Equal(t, "round-1", records[0]["state_id"])
	require.Equal(t, "jvb1@example.org", records[0]["bridge_jid"])
	require.NotContains(t, records[1], "state_id")
}

func TestAsyncLoggerFlushesOnStop(t *testing.T) {
	var buf syncBuffer
	async := NewAsyncLogger(newJSONLogger(&buf), 16)

	for i := range 10 {
		async.WithComponent("monitor").Info("tick", "n", i)
	}
	async.Stop()

	records := decodeLines(t, buf.String())
	require.Len(t, records, 10)
	require.Equal(t, "monitor", records[0]["component"])
	require.Zero(t, async.DroppedLogs())

	// logging after stop falls back to the base handler
	async.Info("after stop")
	require.Len(t, decodeLines(t, buf.String()), 11)

	// second stop is a no-op
	async.Stop()
}

func TestWithBridge(t *testing.T) {
	var buf syncBuffer
	log := newJSONLogger(&buf)

	log.WithBridge("jvb1@example.org").Info("applied")

	records := decodeLines(t, buf.String())
	require.Len(t, records, 1)
	require.Equal(t, "jvb1@example.org", records[0]["bridge_jid"])
}
