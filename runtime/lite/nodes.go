// Package lite groups a token stream into pipelines, stages and bracketed
// items using only delimiter balance. It knows nothing about commands; the
// expander gives the groups meaning later.
package lite

import (
	"github.com/aledsdavies/nuparse/core/ast"
	"github.com/aledsdavies/nuparse/core/source"
	"github.com/aledsdavies/nuparse/runtime/lexer"
)

// Pipeline is an ordered list of stages. It may be empty.
type Pipeline struct {
	Stages []*Stage
	Span   source.Span
}

// Stage is the run of groups between stage separators.
type Stage struct {
	Connector ast.Connector
	Groups    []*Group
	Span      source.Span
	Broken    bool // a structural error was found inside this stage
}

// Group is a run of items with no whitespace between them, such as
// $it.size, 1..5, --name=value or (ls).name
type Group struct {
	Items []Item
	Span  source.Span
}

// Item is one element of a group.
type Item interface {
	ItemSpan() source.Span
	item()
}

// TokenItem wraps a single non-structural token.
type TokenItem struct {
	Token lexer.Token
}

// Delimited records the bracket tokens around a nested item. Close is only
// meaningful when Closed is true.
type Delimited struct {
	Open   lexer.Token
	Close  lexer.Token
	Closed bool
	Span   source.Span
}

// Param is one block parameter, |name| or |name: type|
type Param struct {
	Name string
	Type string
	Span source.Span
}

// Params is the |a, b: int| list at the start of a block.
type Params struct {
	Delimited
	Params []Param
}

// Block is { |params| pipeline }
type Block struct {
	Delimited
	Params *Params
	Body   *Pipeline
}

// List is [ a, b, c ]. Elements are separated by commas or whitespace.
type List struct {
	Delimited
	Elements []*Group
}

// SubExpr is ( pipeline ).
type SubExpr struct {
	Delimited
	Body *Pipeline
}

// BadItem is a closing delimiter that matched no opener.
type BadItem struct {
	Token lexer.Token
}

func (t *TokenItem) ItemSpan() source.Span { return t.Token.Span }
func (b *Block) ItemSpan() source.Span     { return b.Span }
func (l *List) ItemSpan() source.Span      { return l.Span }
func (s *SubExpr) ItemSpan() source.Span   { return s.Span }
func (b *BadItem) ItemSpan() source.Span   { return b.Token.Span }

func (*TokenItem) item() {}
func (*Block) item()     {}
func (*List) item()      {}
func (*SubExpr) item()   {}
func (*BadItem) item()   {}

// Single returns the token when the group is exactly one token.
func (g *Group) Single() (lexer.Token, bool) {
	if len(g.Items) != 1 {
		return lexer.Token{}, false
	}
	t, ok := g.Items[0].(*TokenItem)
	if !ok {
		return lexer.Token{}, false
	}
	return t.Token, true
}

// First returns the first token of the group when it starts with a token.
func (g *Group) First() (lexer.Token, bool) {
	if len(g.Items) == 0 {
		return lexer.Token{}, false
	}
	t, ok := g.Items[0].(*TokenItem)
	if !ok {
		return lexer.Token{}, false
	}
	return t.Token, true
}

func (g *Group) add(it Item) {
	if len(g.Items) == 0 {
		g.Span = it.ItemSpan()
	} else {
		g.Span = g.Span.Cover(it.ItemSpan())
	}
	g.Items = append(g.Items, it)
}
