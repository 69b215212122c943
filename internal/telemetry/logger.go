// Package telemetry wires structured logging for both binaries.
package telemetry

import (
	"log/slog"
	"os"
)

// InitLogger installs a JSON slog handler as the default logger. The level
// comes from LOG_LEVEL (debug|info|warn|error), defaulting to info.
func InitLogger() {
	level := slog.LevelInfo
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
