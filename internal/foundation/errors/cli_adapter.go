package errors

import (
	"context"
	"fmt"
	"log/slog"
)

// CLIErrorAdapter turns command errors into exit codes and messages.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{verbose: verbose, logger: logger}
}

// ExitCodeFor determines the process exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	classified, ok := AsClassified(err)
	if !ok {
		return 1
	}
	switch classified.Category() {
	case CategoryValidation:
		return 2
	case CategoryConfig:
		return 7
	case CategoryStore, CategoryNetwork:
		return 8
	case CategoryScheduler, CategoryRuntime:
		return 12
	case CategoryInternal:
		return 10
	default:
		return 1
	}
}

// FormatError renders an error for stderr.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	classified, ok := AsClassified(err)
	if !ok || a.verbose {
		return fmt.Sprintf("Error: %v", err)
	}
	if classified.Category() == CategoryInternal {
		return "Internal error occurred (use -v for details)"
	}
	return "Error: " + classified.Message()
}

// Log records the error at a level matching its severity.
func (a *CLIErrorAdapter) Log(err error) {
	if err == nil {
		return
	}
	level := slog.LevelError
	if classified, ok := AsClassified(err); ok && classified.Severity() == SeverityWarning {
		level = slog.LevelWarn
	}
	a.logger.Log(context.Background(), level, "command failed", slog.String("error", err.Error()))
}
