package parser

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aledsdavies/nuparse/core/ast"
	"github.com/aledsdavies/nuparse/core/signature"
	"github.com/aledsdavies/nuparse/core/source"
	"github.com/aledsdavies/nuparse/runtime/diag"
	"github.com/aledsdavies/nuparse/runtime/lexer"
	"github.com/aledsdavies/nuparse/runtime/lite"
	"github.com/aledsdavies/nuparse/runtime/literal"
)

// Expand resolves a grouped pipeline into the typed tree, reading each
// stage's arguments against the signature of its command. A nil scope gets
// a fresh one built from the WithGlobals option.
func Expand(p *lite.Pipeline, lookup signature.Lookup, scope *Scope, opts ...ParserOpt) (*ast.Pipeline, []diag.Diagnostic) {
	config := newConfig(opts)
	if scope == nil {
		scope = NewScope(config.globals...)
	}
	e := newExpander(lookup, scope, config)
	return e.pipeline(p), e.diags.Diagnostics()
}

type expander struct {
	lookup signature.Lookup
	scope  *Scope
	config *ParserConfig
	diags  *diag.Collector
	lits   *literal.Parser

	debugEvents []DebugEvent
	stages      int
	calls       int
}

var noCommands = signature.LookupFunc(func(string) (*signature.Signature, bool) { return nil, false })

func newExpander(lookup signature.Lookup, scope *Scope, config *ParserConfig) *expander {
	if lookup == nil {
		lookup = noCommands
	}
	e := &expander{
		lookup: lookup,
		scope:  scope,
		config: config,
		diags:  &diag.Collector{},
	}
	e.lits = literal.New(e.interpolate)
	if config.debug > DebugOff {
		e.debugEvents = make([]DebugEvent, 0, 32)
	}
	return e
}

func (e *expander) recordDebugEvent(level DebugLevel, event string, offset int, context string) {
	if e.config.debug < level {
		return
	}
	e.debugEvents = append(e.debugEvents, DebugEvent{
		Timestamp: time.Now(),
		Event:     event,
		Offset:    offset,
		Context:   context,
	})
}

func (e *expander) pipeline(p *lite.Pipeline) *ast.Pipeline {
	out := &ast.Pipeline{Loc: p.Span}
	for _, st := range p.Stages {
		out.Stages = append(out.Stages, e.stage(st))
	}
	return out
}

func (e *expander) stage(st *lite.Stage) *ast.Stage {
	e.stages++
	e.recordDebugEvent(DebugPaths, "enter_stage", st.Span.Start, st.Connector.String())

	out := &ast.Stage{Connector: st.Connector, Loc: st.Span}
	if !st.Broken {
		out.Expr = e.stageExpr(st.Groups, st.Span)
		return out
	}

	// The grouper already reported the structural error. Whatever can be
	// built from the rest of the stage is kept as the partial tree, without
	// piling follow-on diagnostics on top.
	saved := e.diags
	e.diags = &diag.Collector{}
	partial := e.stageExpr(st.Groups, st.Span)
	e.diags = saved
	out.Expr = &ast.Error{Message: "stage has unbalanced delimiters", Partial: partial, Loc: st.Span}
	return out
}

func (e *expander) stageExpr(groups []*lite.Group, span source.Span) ast.Expr {
	if len(groups) == 0 {
		return &ast.Error{Message: "empty stage", Loc: span}
	}
	tok, ok := groups[0].Single()
	if !ok {
		return e.expression(groups)
	}

	switch tok.Type {
	case lexer.BAREWORD:
		if name, ok := strings.CutPrefix(tok.Text, "^"); ok && name != "" {
			return e.call(signature.External(name), tok.Span, groups[1:], true)
		}
		return e.command(tok, groups)
	case lexer.NUMBER, lexer.DQ_STRING, lexer.SQ_STRING, lexer.VARIABLE:
		return e.expression(groups)
	default:
		e.diags.Add(diag.New(diag.Error, diag.CodeExpectedCommand, tok.Span,
			"expected a command or a value, found %s", describe(tok)))
		return &ast.Error{Message: "expected a command", Loc: span}
	}
}

// command resolves a bareword head. The two-word form ("str length") is
// tried before the single word.
func (e *expander) command(head lexer.Token, groups []*lite.Group) ast.Expr {
	if len(groups) > 1 {
		if next, ok := groups[1].Single(); ok && next.Type == lexer.BAREWORD {
			if sig, ok := e.lookup.Lookup(head.Text + " " + next.Text); ok {
				return e.call(sig, head.Span.Cover(next.Span), groups[2:], false)
			}
		}
	}
	if sig, ok := e.lookup.Lookup(head.Text); ok {
		return e.call(sig, head.Span, groups[1:], false)
	}

	e.recordDebugEvent(DebugPaths, "external_command", head.Span.Start, head.Text)
	if e.config.commandHints {
		e.hintCommand(head)
	}
	return e.call(signature.External(head.Text), head.Span, groups[1:], true)
}

// names is implemented by registries that can list their commands.
type names interface {
	Names() []string
}

func (e *expander) hintCommand(head lexer.Token) {
	lister, ok := e.lookup.(names)
	if !ok {
		return
	}
	if hint := didYouMean("", head.Text, lister.Names()); hint != "" {
		e.diags.Add(diag.New(diag.Warning, diag.CodeUnknownCommand, head.Span,
			"unknown command %q runs as an external program", head.Text).WithSuggestion(hint))
	}
}

// interpolate parses one "$name" or "$( ... )" segment of a double-quoted
// string. Sub-expressions go through the full lexer and grouper with spans
// moved to their place in the outer source.
func (e *expander) interpolate(text string, offset int) (ast.Expr, []diag.Diagnostic) {
	span := source.NewSpan(offset, offset+len(text))
	inner, ok := strings.CutPrefix(text, "$")
	if !ok || !strings.HasPrefix(inner, "(") {
		return e.variable(lexer.Token{Type: lexer.VARIABLE, Text: text, Span: span}), nil
	}

	base := offset + 1
	tokens, lexDiags := lexer.Tokenize(inner)
	shiftTokens(tokens, base)
	grouped, groupDiags, _ := lite.GroupTokens(tokens)

	// Lexer spans are relative to inner; the grouper saw shifted tokens.
	var diags diag.Collector
	diags.Merge(lexDiags, base)
	diags.Add(groupDiags...)

	if len(grouped.Stages) == 1 && len(grouped.Stages[0].Groups) == 1 {
		if sub, ok := only[*lite.SubExpr](grouped.Stages[0].Groups[0]); ok {
			return e.subExpr(sub), diags.Diagnostics()
		}
	}
	diags.Errorf(diag.CodeBadExpression, span, "malformed interpolation %q", text)
	return &ast.Error{Message: "malformed interpolation", Loc: span}, diags.Diagnostics()
}

func shiftTokens(tokens []lexer.Token, delta int) {
	for i := range tokens {
		tokens[i].Span = tokens[i].Span.Shift(delta)
		for j := range tokens[i].Segments {
			tokens[i].Segments[j].Span = tokens[i].Segments[j].Span.Shift(delta)
		}
	}
}

// only returns the single item of g when it has type T.
func only[T lite.Item](g *lite.Group) (T, bool) {
	var zero T
	if len(g.Items) != 1 {
		return zero, false
	}
	it, ok := g.Items[0].(T)
	return it, ok
}

func describe(tok lexer.Token) string {
	switch tok.Type {
	case lexer.EOF:
		return "end of input"
	case lexer.BAREWORD:
		return strconv.Quote(tok.Text)
	case lexer.NUMBER:
		return "number " + tok.Text
	case lexer.VARIABLE:
		return "variable " + tok.Text
	case lexer.DQ_STRING, lexer.SQ_STRING:
		return "string " + tok.Text
	case lexer.LONG_FLAG, lexer.SHORT_FLAG:
		return "flag " + tok.Text
	case lexer.OPERATOR:
		return fmt.Sprintf("operator '%s'", tok.Text)
	default:
		return fmt.Sprintf("'%s'", tok.Text)
	}
}

func describeGroup(g *lite.Group) string {
	if tok, ok := g.Single(); ok {
		return describe(tok)
	}
	if len(g.Items) == 1 {
		switch g.Items[0].(type) {
		case *lite.Block:
			return "a block"
		case *lite.List:
			return "a list"
		case *lite.SubExpr:
			return "a sub-expression"
		}
	}
	return "an expression"
}
