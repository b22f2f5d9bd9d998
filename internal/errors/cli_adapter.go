package errors

import (
	std "errors"
	"fmt"
	"log/slog"
)

// CLIErrorAdapter handles error presentation and exit code determination for
// the CLI.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	var sbe *StatebusError
	if std.As(err, &sbe) {
		return a.exitCodeFromStatebus(sbe)
	}

	return 1
}

// exitCodeFromStatebus maps StatebusError categories to exit codes.
func (a *CLIErrorAdapter) exitCodeFromStatebus(err *StatebusError) int {
	switch err.Category {
	case CategoryValidation:
		return 2 // Invalid usage
	case CategoryConfig:
		return 7 // Configuration error
	case CategoryTransport:
		return 8 // External system error
	case CategoryRuntime:
		return 12 // Runtime error
	case CategoryInternal:
		return 10 // Internal error
	default:
		return 1 // General error
	}
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	var sbe *StatebusError
	if std.As(err, &sbe) {
		if a.verbose {
			return sbe.Error()
		}
		return fmt.Sprintf("Error: %s", sbe.Message)
	}

	return fmt.Sprintf("Error: %v", err)
}
