// Package logging builds the stderr logger shared by the executables.
package logging

import (
	"fmt"
	"log/slog"
	"os"
)

// New returns a text logger on stderr at the named level
// ("debug", "info", "warn", "error").
func New(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}
