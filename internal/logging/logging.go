// Package logging builds the zap loggers used by the command-line tools.
package logging

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Off disables logging entirely.
const Off = "off"

// New returns a console logger writing to w at the given level
// ("debug", "info", "warn", "error" or "off"). An empty level means "warn".
func New(level string, w io.Writer) (*zap.Logger, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	switch level {
	case Off:
		return zap.NewNop(), nil
	case "":
		level = "warn"
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}

	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.AddSync(w), lvl)
	return zap.New(core), nil
}

// NewDaemon returns a JSON production logger on stderr for long-running
// processes.
func NewDaemon(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if level = strings.TrimSpace(level); level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("logging: %w", err)
		}
		cfg.Level = lvl
	}
	return cfg.Build()
}
