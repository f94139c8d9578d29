// Package observability holds the structured logging setup and the
// lightweight in-process metrics of the note graph server.
package observability

import (
	"log/slog"
	"os"

	"github.com/google/uuid"
)

// SetupLogger installs the process-wide slog logger. Production mode emits
// JSON for log shippers; other modes emit human-readable text with debug
// enabled.
func SetupLogger(mode string) *slog.Logger {
	var handler slog.Handler
	if mode == "prod" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// NewRequestID generates the correlation id attached to request logs.
func NewRequestID() string {
	return uuid.NewString()
}
