package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultAsyncBufferSize = 10000
	asyncBatchSize         = 100
	asyncFlushInterval     = 10 * time.Millisecond
	dropReportEvery        = 1000
)

// AsyncLogger is a Logger whose records are written by a background worker.
// Records are dropped instead of blocking the caller when the buffer is full.
type AsyncLogger struct {
	*Logger

	base         *Logger
	entries      chan logEntry
	bufferSize   int
	wg           sync.WaitGroup
	mu           sync.RWMutex // guards entries against send after close
	stopped      atomic.Bool
	droppedLogs  atomic.Uint64
	lastReported atomic.Uint64
}

type logEntry struct {
	ctx     context.Context
	record  slog.Record
	handler slog.Handler
}

// NewAsyncLogger creates a new async logger with the specified buffer size
func NewAsyncLogger(base *Logger, bufferSize int) *AsyncLogger {
	if bufferSize <= 0 {
		bufferSize = defaultAsyncBufferSize
	}

	al := &AsyncLogger{
		base:       base,
		entries:    make(chan logEntry, bufferSize),
		bufferSize: bufferSize,
	}
	al.Logger = &Logger{Logger: slog.New(&asyncHandler{async: al, next: base.Handler()})}

	al.wg.Go(al.worker)
	return al
}

func (al *AsyncLogger) worker() {
	batch := make([]logEntry, 0, asyncBatchSize)
	ticker := time.NewTicker(asyncFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case entry, ok := <-al.entries:
			if !ok {
				al.flush(batch)
				return
			}
			batch = append(batch, entry)
			if len(batch) >= asyncBatchSize {
				al.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				al.flush(batch)
				batch = batch[:0]
			}
		}
	}
}

func (al *AsyncLogger) flush(batch []logEntry) {
	for _, entry := range batch {
		if err := entry.handler.Handle(entry.ctx, entry.record); err != nil {
			al.base.Warn("Async handler failed to write log entry", "error", err.Error())
		}
	}
}

// Stop flushes queued records and switches to synchronous logging.
func (al *AsyncLogger) Stop() {
	al.mu.Lock()
	if !al.stopped.CompareAndSwap(false, true) {
		al.mu.Unlock()
		return
	}
	close(al.entries)
	al.mu.Unlock()

	al.wg.Wait()
	if dropped := al.droppedLogs.Load(); dropped > 0 {
		al.base.Warn("Async logger shutdown - final dropped log count",
			"droppedTotal", dropped,
			"bufferSize", al.bufferSize,
		)
	}
}

// DroppedLogs returns the total number of dropped log entries
func (al *AsyncLogger) DroppedLogs() uint64 {
	return al.droppedLogs.Load()
}

func (al *AsyncLogger) enqueue(entry logEntry) bool {
	al.mu.RLock()
	defer al.mu.RUnlock()

	if al.stopped.Load() {
		return false
	}
	select {
	case al.entries <- entry:
	default:
		al.droppedLogs.Add(1)
		al.reportDropped()
	}
	return true
}

func (al *AsyncLogger) reportDropped() {
	current := al.droppedLogs.Load()
	last := al.lastReported.Load()

	if current-last >= dropReportEvery || (current > 0 && last == 0) {
		if al.lastReported.CompareAndSwap(last, current) {
			al.base.Warn("Async logger buffer full, logs dropped",
				"droppedTotal", current,
				"droppedSinceLastReport", current-last,
				"bufferSize", al.bufferSize,
			)
		}
	}
}

type asyncHandler struct {
	async *AsyncLogger
	next  slog.Handler
}

func (h *asyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *asyncHandler) Handle(ctx context.Context, record slog.Record) error {
	// slog may reuse the record after Handle returns
	if h.async.enqueue(logEntry{ctx: ctx, record: record.Clone(), handler: h.next}) {
		return nil
	}
	return h.next.Handle(ctx, record)
}

func (h *asyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &asyncHandler{async: h.async, next: h.next.WithAttrs(attrs)}
}

func (h *asyncHandler) WithGroup(name string) slog.Handler {
	return &asyncHandler{async: h.async, next: h.next.WithGroup(name)}
}
