package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// CLIError represents a formatted CLI error with context
type CLIError struct {
	Type    string // "input", "signatures", "parse", "watch"
	Message string
	Details string // Additional context
	Hint    string // How to fix it
}

// Error implements the error interface
func (e *CLIError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Details != "" {
		b.WriteString("\n")
		b.WriteString(e.Details)
	}
	if e.Hint != "" {
		b.WriteString("\n")
		b.WriteString(e.Hint)
	}
	return b.String()
}

// errDiagnostics is returned once diagnostics have already been printed; it
// only sets the exit code.
var errDiagnostics = errors.New("input has errors")

// FormatError formats an error for CLI output with colors
func FormatError(w io.Writer, err error, useColor bool) {
	if err == nil || errors.Is(err, errDiagnostics) {
		return
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		formatCLIError(w, cliErr, useColor)
		return
	}
	_, _ = fmt.Fprintf(w, "%s%s\n", Colorize("Error: ", colorError, useColor), err.Error())
}

// formatCLIError formats CLI errors
func formatCLIError(w io.Writer, err *CLIError, useColor bool) {
	_, _ = fmt.Fprintf(w, "%s%s\n", Colorize("Error: ", colorError, useColor), err.Message)

	if err.Details != "" {
		_, _ = fmt.Fprintf(w, "\n%s\n", err.Details)
	}

	if err.Hint != "" {
		_, _ = fmt.Fprintf(w, "%s%s\n", Colorize("Hint: ", colorWarn, useColor), err.Hint)
	}
}

// exitCode maps an error returned by a command to the process exit status.
func exitCode(err error) int {
	var cliErr *CLIError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, errDiagnostics):
		return ExitParseError
	case errors.As(err, &cliErr) && cliErr.Type == "input":
		return ExitIOError
	case errors.As(err, &cliErr) && cliErr.Type == "signatures":
		return ExitSignatureError
	default:
		return ExitInvalidArguments
	}
}
