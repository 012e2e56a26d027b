package parser

import (
	"github.com/aledsdavies/nuparse/core/ast"
	"github.com/aledsdavies/nuparse/runtime/diag"
	"github.com/aledsdavies/nuparse/runtime/lexer"
	"github.com/aledsdavies/nuparse/runtime/lite"
)

// ParseTree is the result of one Parse.
type ParseTree struct {
	Source        string
	Tokens        []lexer.Token     // trivia included
	Root          *ast.Pipeline     // typed tree
	Diagnostics   []diag.Diagnostic // every phase, sorted by position
	Incomplete    bool              // more input could complete the text
	Open          []lexer.Token     // unmatched openers and unterminated strings when Incomplete
	FreeVariables []FreeVariable    // references no frame bound
	Telemetry     *ParseTelemetry   // nil if disabled
	DebugEvents   []DebugEvent      // nil if disabled
}

// Status triages the diagnostics for a host: run, prompt for more, or
// report.
func (t *ParseTree) Status() diag.Status {
	if t.Incomplete {
		return diag.StatusIncomplete
	}
	return diag.Triage(t.Diagnostics)
}

// HasErrors reports whether any diagnostic is an Error or Incomplete.
func (t *ParseTree) HasErrors() bool {
	return t.Status() != diag.StatusOK
}

// Prompt is the continuation hint for an incomplete parse, e.g. "{(".
func (t *ParseTree) Prompt() string {
	return lite.Prompt(t.Open)
}

// Errors lists the error nodes left in the typed tree.
func (t *ParseTree) Errors() []*ast.Error {
	return ast.Errors(t.Root)
}
