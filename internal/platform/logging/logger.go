package logging

import (
	"log/slog"
	"os"

	"github.com/tokenpulse/oracle/internal/platform/correlation"
)

// Logger is the application-wide structured logger instance.
var Logger *slog.Logger

// Init initializes the global logger with the specified level and format
// and stamps every record with this node's identity.
// level: "debug", "info", "warn", "error" (defaults to "info")
// format: "json" or "text" (defaults to "text")
func Init(level, format, nodeID string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	handler = correlation.NewHandler(handler)
	if nodeID != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String("node_id", nodeID)})
	}

	Logger = slog.New(handler)
	slog.SetDefault(Logger)
}
