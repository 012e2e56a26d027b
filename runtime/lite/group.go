package lite

import (
	"slices"
	"strings"

	"github.com/aledsdavies/nuparse/core/ast"
	"github.com/aledsdavies/nuparse/core/signature"
	"github.com/aledsdavies/nuparse/core/source"
	"github.com/aledsdavies/nuparse/runtime/diag"
	"github.com/aledsdavies/nuparse/runtime/lexer"
)

// GroupTokens builds the structural tree for a token stream produced by the lexer.
// The returned bool is true when the input is a valid prefix that needs more
// text: an open delimiter, an unterminated string or a trailing pipe.
func GroupTokens(tokens []lexer.Token) (*Pipeline, []diag.Diagnostic, bool) {
	g := &grouper{tokens: tokens}
	p, _, _ := g.pipeline(level{newlineSeparates: true})

	incomplete := g.diags.HasIncomplete()
	for _, tok := range tokens {
		if tok.Unterminated {
			incomplete = true
			break
		}
	}
	return p, g.diags.Diagnostics(), incomplete
}

type grouper struct {
	tokens  []lexer.Token
	pos     int
	lastEnd int
	diags   diag.Collector
}

// level describes the bracket the grouper is currently inside.
type level struct {
	open             lexer.Token     // opener of this level, zero at top level
	closer           lexer.TokenType // expected closer, EOF at top level
	stack            []lexer.TokenType
	newlineSeparates bool
}

func (lv level) enter(open lexer.Token, closer lexer.TokenType, newlineSeparates bool) level {
	stack := slices.Clone(lv.stack)
	if lv.closer != lexer.EOF {
		stack = append(stack, lv.closer)
	}
	return level{open: open, closer: closer, stack: stack, newlineSeparates: newlineSeparates}
}

// encloses reports whether typ closes this level or one of its parents.
func (lv level) encloses(typ lexer.TokenType) bool {
	return typ == lv.closer || slices.Contains(lv.stack, typ)
}

// levelEnd says how a nested level stopped.
type levelEnd int

const (
	endEOF       levelEnd = iota // ran out of tokens
	endClosed                    // consumed its own closer
	endAbandoned                 // stopped at a closer belonging to a parent
)

func (g *grouper) peek() lexer.Token {
	if g.pos >= len(g.tokens) {
		return lexer.Token{Type: lexer.EOF, Span: source.At(g.lastEnd)}
	}
	return g.tokens[g.pos]
}

func (g *grouper) next() lexer.Token {
	tok := g.peek()
	if g.pos < len(g.tokens) {
		g.pos++
		if tok.Type != lexer.EOF {
			g.lastEnd = tok.Span.End
		}
	}
	return tok
}

// significant returns the next token that is not whitespace, a comment or
// a newline, without consuming anything.
func (g *grouper) significant() lexer.Token {
	for i := g.pos; i < len(g.tokens); i++ {
		switch g.tokens[i].Type {
		case lexer.WHITESPACE, lexer.COMMENT, lexer.NEWLINE:
			continue
		}
		return g.tokens[i]
	}
	return lexer.Token{Type: lexer.EOF, Span: source.At(g.lastEnd)}
}

type separator int

const (
	sepPipe separator = iota
	sepSequence
	sepClose
	sepEOF
)

// stageBuilder accumulates the stages of one pipeline.
type stageBuilder struct {
	g        *grouper
	p        *Pipeline
	cur      *Stage
	group    *Group
	pipe     *lexer.Token // pipe still waiting for its right-hand stage
	nextConn ast.Connector
}

func (b *stageBuilder) stage() *Stage {
	if b.cur == nil {
		conn := b.nextConn
		if len(b.p.Stages) == 0 {
			conn = ast.ConnectNone
		}
		b.cur = &Stage{Connector: conn}
	}
	return b.cur
}

func (b *stageBuilder) add(it Item) {
	st := b.stage()
	if b.group == nil {
		b.group = &Group{}
		st.Groups = append(st.Groups, b.group)
	}
	b.group.add(it)
}

func (b *stageBuilder) breakGroup() { b.group = nil }

func (b *stageBuilder) markBroken() { b.stage().Broken = true }

func (b *stageBuilder) end(sep separator, tok lexer.Token) {
	st := b.cur
	b.cur, b.group = nil, nil

	if st != nil && len(st.Groups) > 0 {
		spans := make([]source.Span, len(st.Groups))
		for i, grp := range st.Groups {
			spans[i] = grp.Span
		}
		st.Span = source.CoverAll(spans...)
		b.p.Stages = append(b.p.Stages, st)
		b.pipe = nil
	} else {
		b.emptyStage(sep, tok)
	}

	switch sep {
	case sepPipe:
		b.pipe = &tok
		b.nextConn = ast.ConnectPipe
	case sepSequence:
		b.nextConn = ast.ConnectSequence
	}
}

func (b *stageBuilder) emptyStage(sep separator, tok lexer.Token) {
	d := &b.g.diags
	if b.pipe == nil {
		if sep == sepPipe {
			d.Errorf(diag.CodeEmptyStage, tok.Span, "missing command before '|'")
		}
		return
	}
	pipe := *b.pipe
	b.pipe = nil
	switch sep {
	case sepPipe:
		d.Errorf(diag.CodeEmptyStage, tok.Span, "missing command between two '|'")
	case sepEOF:
		d.Add(diag.New(diag.Incomplete, diag.CodeTrailingPipe, pipe.Span,
			"pipeline ends with '|'").WithNote("the next stage is expected on a following line"))
	default:
		d.Errorf(diag.CodeEmptyStage, pipe.Span, "missing command after '|'")
	}
}

func (b *stageBuilder) finish() *Pipeline {
	if len(b.p.Stages) > 0 {
		b.p.Span = b.p.Stages[0].Span.Cover(b.p.Stages[len(b.p.Stages)-1].Span)
	}
	return b.p
}

// pipeline groups stages until EOF or the closer of lv and reports which of
// the two stopped it.
func (g *grouper) pipeline(lv level) (p *Pipeline, end levelEnd, closeTok lexer.Token) {
	b := &stageBuilder{g: g, p: &Pipeline{Span: source.At(g.peek().Span.Start)}}

	for {
		tok := g.peek()
		switch tok.Type {
		case lexer.EOF:
			b.end(sepEOF, tok)
			return b.finish(), endEOF, tok

		case lexer.WHITESPACE, lexer.COMMENT:
			g.next()
			b.breakGroup()

		case lexer.NEWLINE:
			g.next()
			b.breakGroup()
			if !lv.newlineSeparates {
				continue
			}
			if b.cur == nil && b.pipe != nil {
				continue
			}
			if b.cur != nil && g.significant().Type == lexer.PIPE {
				continue
			}
			b.end(sepSequence, tok)

		case lexer.SEMICOLON:
			g.next()
			b.end(sepSequence, tok)

		case lexer.PIPE:
			g.next()
			b.end(sepPipe, tok)

		case lexer.RBRACE, lexer.RSQUARE, lexer.RPAREN:
			if tok.Type == lv.closer {
				g.next()
				b.end(sepClose, tok)
				return b.finish(), endClosed, tok
			}
			if lv.encloses(tok.Type) {
				g.mismatch(lv, tok)
				b.markBroken()
				b.end(sepClose, tok)
				return b.finish(), endAbandoned, tok
			}
			g.next()
			g.stray(tok)
			b.add(&BadItem{Token: tok})
			b.markBroken()

		case lexer.LBRACE, lexer.LSQUARE, lexer.LPAREN:
			it, broken := g.nested(lv)
			b.add(it)
			if broken {
				b.markBroken()
			}

		default:
			g.next()
			b.add(&TokenItem{Token: tok})
		}
	}
}

// nested groups the bracketed item starting at the current token.
func (g *grouper) nested(lv level) (Item, bool) {
	switch g.peek().Type {
	case lexer.LBRACE:
		return g.block(lv)
	case lexer.LSQUARE:
		return g.list(lv)
	default:
		return g.subExpr(lv)
	}
}

func (g *grouper) block(lv level) (Item, bool) {
	open := g.next()
	blk := &Block{Delimited: Delimited{Open: open}}

	if g.significant().Type == lexer.PIPE {
		for g.peek().Type != lexer.PIPE {
			g.next()
		}
		blk.Params = g.params()
	}

	body, end, closeTok := g.pipeline(lv.enter(open, lexer.RBRACE, true))
	blk.Body = body
	blk.Delimited = g.close(blk.Delimited, end, closeTok)
	return blk, end == endAbandoned
}

func (g *grouper) subExpr(lv level) (Item, bool) {
	open := g.next()
	sub := &SubExpr{Delimited: Delimited{Open: open}}
	body, end, closeTok := g.pipeline(lv.enter(open, lexer.RPAREN, false))
	sub.Body = body
	sub.Delimited = g.close(sub.Delimited, end, closeTok)
	return sub, end == endAbandoned
}

func (g *grouper) list(lv level) (Item, bool) {
	open := g.next()
	l := &List{Delimited: Delimited{Open: open}}
	inner := lv.enter(open, lexer.RSQUARE, false)

	var elem *Group
	add := func(it Item) {
		if elem == nil {
			elem = &Group{}
			l.Elements = append(l.Elements, elem)
		}
		elem.add(it)
	}

	broken := false
	for {
		tok := g.peek()
		switch tok.Type {
		case lexer.EOF:
			l.Delimited = g.close(l.Delimited, endEOF, tok)
			return l, broken

		case lexer.WHITESPACE, lexer.COMMENT, lexer.NEWLINE, lexer.COMMA:
			g.next()
			elem = nil

		case lexer.RSQUARE:
			g.next()
			l.Delimited = g.close(l.Delimited, endClosed, tok)
			return l, broken

		case lexer.RBRACE, lexer.RPAREN:
			if inner.encloses(tok.Type) {
				g.mismatch(inner, tok)
				l.Delimited = g.close(l.Delimited, endAbandoned, tok)
				return l, true
			}
			g.next()
			g.stray(tok)
			add(&BadItem{Token: tok})
			broken = true

		case lexer.PIPE, lexer.SEMICOLON:
			g.next()
			g.diags.Errorf(diag.CodeBadExpression, tok.Span, "unexpected '%s' inside a list", tok.Text)
			add(&BadItem{Token: tok})
			elem = nil

		case lexer.LBRACE, lexer.LSQUARE, lexer.LPAREN:
			it, nestedBroken := g.nested(inner)
			add(it)
			broken = broken || nestedBroken

		default:
			g.next()
			add(&TokenItem{Token: tok})
		}
	}
}

// close finishes a delimited item and reports what is left open.
func (g *grouper) close(d Delimited, end levelEnd, closeTok lexer.Token) Delimited {
	switch end {
	case endClosed:
		d.Close = closeTok
		d.Closed = true
		d.Span = d.Open.Span.Cover(closeTok.Span)
	case endEOF:
		g.diags.Add(diag.New(diag.Incomplete, diag.CodeUnclosedDelimiter, d.Open.Span,
			"unclosed '%s'", d.Open.Text).WithSuggestion("add a closing '" + closerText(d.Open.Type) + "'"))
		d.Span = source.NewSpan(d.Open.Span.Start, max(g.lastEnd, d.Open.Span.End))
	default:
		d.Span = source.NewSpan(d.Open.Span.Start, max(g.lastEnd, d.Open.Span.End))
	}
	return d
}

// mismatch reports a closer that belongs to a parent of lv.
func (g *grouper) mismatch(lv level, tok lexer.Token) {
	g.diags.Add(diag.New(diag.Error, diag.CodeMismatchedCloser, tok.Span,
		"expected '%s' to close '%s', found '%s'", closerText(lv.open.Type), lv.open.Text, tok.Text).
		WithContext("closer does not match").
		WithNote("'"+lv.open.Text+"' opened at "+lv.open.Position.String()).
		AsFatal())
}

// stray reports a closer with no opener at all.
func (g *grouper) stray(tok lexer.Token) {
	g.diags.Add(diag.New(diag.Error, diag.CodeMismatchedCloser, tok.Span,
		"unexpected '%s' with no matching '%s'", tok.Text, openerText(tok.Type)).
		WithContext("unmatched closer").
		WithSuggestion("remove it or add the missing '" + openerText(tok.Type) + "'").
		AsFatal())
}

// params reads |a, b: int| at the start of a block.
func (g *grouper) params() *Params {
	open := g.next()
	ps := &Params{Delimited: Delimited{Open: open}}

	for {
		tok := g.peek()
		switch tok.Type {
		case lexer.PIPE:
			g.next()
			ps.Close = tok
			ps.Closed = true
			ps.Span = open.Span.Cover(tok.Span)
			return ps

		case lexer.EOF:
			ps.Span = source.NewSpan(open.Span.Start, max(g.lastEnd, open.Span.End))
			g.diags.Incomplete(diag.CodeUnclosedDelimiter, open.Span, "unclosed block parameter list")
			return ps

		case lexer.RBRACE:
			ps.Span = source.NewSpan(open.Span.Start, max(g.lastEnd, open.Span.End))
			g.diags.Errorf(diag.CodeBadBlockParams, open.Span, "block parameter list is missing its closing '|'")
			return ps

		case lexer.WHITESPACE, lexer.COMMENT, lexer.NEWLINE, lexer.COMMA:
			g.next()

		case lexer.BAREWORD:
			g.next()
			ps.Params = append(ps.Params, g.param(tok))

		default:
			g.next()
			g.diags.Errorf(diag.CodeBadBlockParams, tok.Span, "unexpected %s in block parameters", tok.Type)
		}
	}
}

func (g *grouper) param(tok lexer.Token) Param {
	name, typ, hasType := strings.Cut(tok.Text, ":")
	p := Param{Name: name, Type: typ, Span: tok.Span}
	if !validName(name) {
		g.diags.Errorf(diag.CodeBadBlockParams, tok.Span, "%q is not a valid parameter name", name)
	}
	if hasType && typ == "" {
		for g.peek().Type == lexer.WHITESPACE {
			g.next()
		}
		if next := g.peek(); next.Type == lexer.BAREWORD {
			g.next()
			p.Type = next.Text
			p.Span = p.Span.Cover(next.Span)
		} else {
			g.diags.Errorf(diag.CodeBadBlockParams, tok.Span, "missing type after ':'")
			return p
		}
	}
	if p.Type != "" {
		if _, ok := signature.ParseShape(p.Type); !ok {
			g.diags.Errorf(diag.CodeBadBlockParams, p.Span, "unknown parameter type %q", p.Type)
		}
	}
	return p
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r == '-' || r >= '0' && r <= '9'):
		default:
			return false
		}
	}
	return true
}

func closerText(open lexer.TokenType) string {
	switch open {
	case lexer.LBRACE:
		return "}"
	case lexer.LSQUARE:
		return "]"
	default:
		return ")"
	}
}

func openerText(closer lexer.TokenType) string {
	switch closer {
	case lexer.RBRACE:
		return "{"
	case lexer.RSQUARE:
		return "["
	default:
		return "("
	}
}
