package parser

import (
	"time"

	"github.com/aledsdavies/nuparse/core/invariant"
	"github.com/aledsdavies/nuparse/core/signature"
	"github.com/aledsdavies/nuparse/runtime/diag"
	"github.com/aledsdavies/nuparse/runtime/lexer"
	"github.com/aledsdavies/nuparse/runtime/lite"
)

// Parse runs both phases over src: tokenize and group without any command
// knowledge, then expand every stage against the signatures in lookup.
// Parse never fails; problems are reported in the tree's Diagnostics and
// the tree always covers the whole input.
func Parse(src string, lookup signature.Lookup, opts ...ParserOpt) *ParseTree {
	config := newConfig(opts)

	var telemetry *ParseTelemetry
	var startTotal time.Time
	if config.telemetry >= TelemetryBasic {
		telemetry = &ParseTelemetry{}
		if config.telemetry >= TelemetryTiming {
			startTotal = time.Now()
		}
	}

	// Lex
	var start time.Time
	if config.telemetry >= TelemetryTiming {
		start = time.Now()
	}
	tokens, lexDiags := lexer.Tokenize(src)
	if config.telemetry >= TelemetryBasic {
		telemetry.TokenCount = len(tokens)
		if config.telemetry >= TelemetryTiming {
			telemetry.LexTime = time.Since(start)
		}
	}

	// Group
	if config.telemetry >= TelemetryTiming {
		start = time.Now()
	}
	groups, groupDiags, incomplete := lite.GroupTokens(tokens)
	if config.telemetry >= TelemetryTiming {
		telemetry.GroupTime = time.Since(start)
	}

	// Expand
	if config.telemetry >= TelemetryTiming {
		start = time.Now()
	}
	scope := NewScope(config.globals...)
	e := newExpander(lookup, scope, config)
	root := e.pipeline(groups)
	invariant.Within(root.Loc.Start, root.Loc.End, len(src), "pipeline span")
	invariant.Postcondition(scope.Depth() == 1, "%d block frame(s) left open", scope.Depth()-1)
	if config.telemetry >= TelemetryTiming {
		telemetry.ExpandTime = time.Since(start)
	}

	diags := make([]diag.Diagnostic, 0, len(lexDiags)+len(groupDiags)+e.diags.Len())
	diags = append(diags, lexDiags...)
	diags = append(diags, groupDiags...)
	diags = append(diags, e.diags.Diagnostics()...)
	diag.Sort(diags)

	if config.telemetry >= TelemetryBasic {
		telemetry.StageCount = e.stages
		telemetry.CallCount = e.calls
		telemetry.DiagnosticCount = len(diags)
		if config.telemetry >= TelemetryTiming {
			telemetry.TotalTime = time.Since(startTotal)
		}
	}

	tree := &ParseTree{
		Source:        src,
		Tokens:        tokens,
		Root:          root,
		Diagnostics:   diags,
		Incomplete:    incomplete,
		FreeVariables: scope.FreeVariables(),
		Telemetry:     telemetry,
		DebugEvents:   e.debugEvents,
	}
	if incomplete {
		tree.Open = lite.OpenDelimiters(tokens)
	}

	config.logger.Debug("parsed pipeline",
		"bytes", len(src),
		"tokens", len(tokens),
		"stages", len(root.Stages),
		"diagnostics", len(diags),
		"status", tree.Status().String())
	return tree
}
