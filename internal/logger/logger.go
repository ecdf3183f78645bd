package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ContextKey type for context keys
type ContextKey string

const (
	// StateIDKey is the context key for the ID of a single health check round
	StateIDKey ContextKey = "state_id"
	// ComponentKey is the context key for component name
	ComponentKey ContextKey = "component"
	// BridgeKey is the context key for the JID of the bridge being handled
	BridgeKey ContextKey = "bridge_jid"
)

// Logger wraps slog.Logger with additional functionality
type Logger struct {
	*slog.Logger
}

// New creates a new logger instance
func New(level, format, output string, enableJSON bool) (*Logger, error) {
	writer, err := openOutput(output)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
	}

	var handler slog.Handler
	if enableJSON || format == "json" {
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		handler = slog.NewTextHandler(writer, opts)
	}

	return &Logger{Logger: slog.New(handler)}, nil
}

// ParseLevel maps a config level name to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func openOutput(output string) (io.Writer, error) {
	switch output {
	case "stdout", "":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	default:
		return os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	}
}

// WithContext creates a new logger with context values
func (l *Logger) WithContext(ctx context.Context) *slog.Logger {
	var args []any
	for _, key := range []ContextKey{StateIDKey, ComponentKey, BridgeKey} {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			args = append(args, slog.String(string(key), v))
		}
	}

	if len(args) == 0 {
		return l.Logger
	}
	return l.Logger.With(args...)
}

// WithComponent creates a new logger with component field
func (l *Logger) WithComponent(component string) *slog.Logger {
	return l.Logger.With(slog.String(string(ComponentKey), component))
}

// WithBridge creates a new logger with the bridge JID field
func (l *Logger) WithBridge(bridgeJID string) *slog.Logger {
	return l.Logger.With(slog.String(string(BridgeKey), bridgeJID))
}
