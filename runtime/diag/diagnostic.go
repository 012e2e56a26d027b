// Package diag holds span-tagged parse diagnostics and the host-facing rules
// for classifying a parse result.
package diag

import (
	"fmt"
	"slices"

	"github.com/aledsdavies/nuparse/core/source"
)

// Severity classifies a diagnostic.
//
// The values are not ordered by importance. Hosts decide with Triage, which
// checks Incomplete before Error.
type Severity int

const (
	// Incomplete marks a valid prefix of a larger program.
	Incomplete Severity = iota
	// Error marks text that can never be completed into valid syntax here.
	Error
	// Warning marks suspicious but usable input.
	Warning
)

func (s Severity) String() string {
	switch s {
	case Incomplete:
		return "incomplete"
	case Error:
		return "error"
	case Warning:
		return "warning"
	default:
		return "unknown"
	}
}

// Code identifies the kind of problem independent of the message text.
type Code string

const (
	CodeUnterminatedString Code = "unterminated-string"
	CodeUnclosedDelimiter  Code = "unclosed-delimiter"
	CodeMismatchedCloser   Code = "mismatched-closer"
	CodeEmptyStage         Code = "empty-stage"
	CodeTrailingPipe       Code = "trailing-pipe"
	CodeLoneDollar         Code = "lone-dollar"
	CodeBadEscape          Code = "bad-escape"
	CodeBadLiteral         Code = "bad-literal"
	CodeUnknownUnit        Code = "unknown-unit"
	CodeInexactUnit        Code = "inexact-unit"
	CodeUnknownFlag        Code = "unknown-flag"
	CodeDuplicateFlag      Code = "duplicate-flag"
	CodeMissingFlag        Code = "missing-flag"
	CodeMissingFlagValue   Code = "missing-flag-value"
	CodeMissingPositional  Code = "missing-positional"
	CodeShapeMismatch      Code = "shape-mismatch"
	CodeExcessArgument     Code = "excess-argument"
	CodeUnresolvedVariable Code = "unresolved-variable"
	CodeBadExpression      Code = "bad-expression"
	CodeBadBlockParams     Code = "bad-block-params"
	CodeUnknownCommand     Code = "unknown-command"
	CodeExpectedCommand    Code = "expected-command"
)

// Diagnostic is one problem found during a parse.
type Diagnostic struct {
	Severity   Severity
	Code       Code
	Message    string
	Span       source.Span
	Context    string // what was being parsed, e.g. "flag --depth"
	Suggestion string // replacement text or hint shown as "help:"
	Note       string
	Fatal      bool // structural error; the surrounding stage was abandoned
}

// New builds a diagnostic with a formatted message.
func New(sev Severity, code Code, span source.Span, format string, args ...any) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Span:     span,
	}
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s[%s] at %s: %s", d.Severity, d.Code, d.Span, d.Message)
}

// WithSuggestion returns a copy carrying a help line.
func (d Diagnostic) WithSuggestion(s string) Diagnostic {
	d.Suggestion = s
	return d
}

// WithNote returns a copy carrying a note line.
func (d Diagnostic) WithNote(n string) Diagnostic {
	d.Note = n
	return d
}

// WithContext returns a copy describing what was being parsed.
func (d Diagnostic) WithContext(c string) Diagnostic {
	d.Context = c
	return d
}

// AsFatal returns a copy marked as a fatal structural error.
func (d Diagnostic) AsFatal() Diagnostic {
	d.Fatal = true
	return d
}

// Shift moves the span by delta bytes.
func (d Diagnostic) Shift(delta int) Diagnostic {
	d.Span = d.Span.Shift(delta)
	return d
}

// Sort orders diagnostics by span start, keeping emission order for ties.
func Sort(diags []Diagnostic) {
	slices.SortStableFunc(diags, func(a, b Diagnostic) int {
		return a.Span.Start - b.Span.Start
	})
}

// Status is the host-level outcome of a parse.
type Status int

const (
	StatusOK Status = iota
	StatusIncomplete
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIncomplete:
		return "incomplete"
	case StatusError:
		return "error"
	default:
		return "ok"
	}
}

// Triage decides what a host should do with a set of diagnostics.
// Incomplete wins over Error so a REPL keeps prompting for more input even
// when other parts of the buffer are already broken.
func Triage(diags []Diagnostic) Status {
	status := StatusOK
	for _, d := range diags {
		switch d.Severity {
		case Incomplete:
			return StatusIncomplete
		case Error:
			status = StatusError
		}
	}
	return status
}
