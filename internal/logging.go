// Package internal holds process wiring shared by the commands.
package internal

import (
	"fmt"

	"go.uber.org/zap"
)

// NewLogger builds the process logger. Development mode logs human-readable
// console lines with stack traces on warnings; otherwise output is JSON.
func NewLogger(level string, development bool) (*zap.Logger, error) {
	if level == "" {
		level = "info"
	}
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = lvl
	return cfg.Build()
}
