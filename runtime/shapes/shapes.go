// Package shapes flattens a parse into a run of highlighting shapes, one per
// token, so an editor or REPL can color the input without walking the tree.
package shapes

import (
	"sort"
	"strings"

	"github.com/aledsdavies/nuparse/core/ast"
	"github.com/aledsdavies/nuparse/core/source"
	"github.com/aledsdavies/nuparse/runtime/lexer"
	"github.com/aledsdavies/nuparse/runtime/parser"
)

// Kind is the highlighting class of a stretch of input.
type Kind int

const (
	Whitespace Kind = iota
	Comment
	Separator // newline or ;
	Pipe
	OpenDelimiter
	CloseDelimiter
	Comma
	Dot
	Range
	Operator
	InternalCommand
	ExternalCommand
	Flag
	ShorthandFlag
	Int
	Decimal
	Size // number with a duration or size unit
	String
	Variable
	ItVariable
	Member
	Word
	GlobPattern
	ExternalWord
	BlockParam
	Type
	Error
)

var kindNames = [...]string{
	Whitespace:      "whitespace",
	Comment:         "comment",
	Separator:       "separator",
	Pipe:            "pipe",
	OpenDelimiter:   "open-delimiter",
	CloseDelimiter:  "close-delimiter",
	Comma:           "comma",
	Dot:             "dot",
	Range:           "range",
	Operator:        "operator",
	InternalCommand: "internal-command",
	ExternalCommand: "external-command",
	Flag:            "flag",
	ShorthandFlag:   "shorthand-flag",
	Int:             "int",
	Decimal:         "decimal",
	Size:            "size",
	String:          "string",
	Variable:        "variable",
	ItVariable:      "it-variable",
	Member:          "member",
	Word:            "word",
	GlobPattern:     "glob-pattern",
	ExternalWord:    "external-word",
	BlockParam:      "block-param",
	Type:            "type",
	Error:           "error",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Shape is one highlighted token.
type Shape struct {
	Kind Kind
	Span source.Span
}

// Compute classifies every token of tree, trivia included, so the shapes
// cover the input end to end in order.
func Compute(tree *parser.ParseTree) []Shape {
	c := &classifier{}
	for _, tok := range tree.Tokens {
		if tok.Type == lexer.EOF {
			continue
		}
		c.tokens = append(c.tokens, tok)
		c.shapes = append(c.shapes, Shape{Kind: tokenKind(tok), Span: tok.Span})
	}

	ast.Walk(tree.Root, func(n ast.Node) bool {
		c.node(n)
		return true
	})
	for _, d := range tree.Diagnostics {
		if d.Fatal {
			c.mark(d.Span, Error, significant)
		}
	}
	return c.shapes
}

func tokenKind(tok lexer.Token) Kind {
	switch tok.Type {
	case lexer.WHITESPACE:
		return Whitespace
	case lexer.COMMENT:
		return Comment
	case lexer.NEWLINE, lexer.SEMICOLON:
		return Separator
	case lexer.PIPE:
		return Pipe
	case lexer.LBRACE, lexer.LSQUARE, lexer.LPAREN:
		return OpenDelimiter
	case lexer.RBRACE, lexer.RSQUARE, lexer.RPAREN:
		return CloseDelimiter
	case lexer.COMMA:
		return Comma
	case lexer.DOT:
		return Dot
	case lexer.RANGE:
		return Range
	case lexer.OPERATOR:
		return Operator
	case lexer.LONG_FLAG:
		return Flag
	case lexer.SHORT_FLAG:
		return ShorthandFlag
	case lexer.VARIABLE:
		if tok.Text == "$it" {
			return ItVariable
		}
		return Variable
	case lexer.DQ_STRING, lexer.SQ_STRING:
		return String
	case lexer.NUMBER:
		switch {
		case tok.Unit() != "":
			return Size
		case strings.ContainsAny(tok.Mantissa(), ".eE"):
			return Decimal
		default:
			return Int
		}
	case lexer.BAREWORD:
		if tok.Glob {
			return GlobPattern
		}
		return Word
	}
	return Error
}

type classifier struct {
	tokens []lexer.Token
	shapes []Shape
}

func (c *classifier) node(n ast.Node) {
	switch n := n.(type) {
	case *ast.Call:
		kind := InternalCommand
		if n.External {
			kind = ExternalCommand
		}
		c.mark(n.NameLoc, kind, significant)
	case *ast.ExternalArg:
		c.mark(n.Loc, ExternalWord, func(s Shape) bool {
			switch s.Kind {
			case Word, Int, Decimal, Size, Flag, ShorthandFlag, Operator, GlobPattern:
				return true
			}
			return false
		})
	case *ast.Block:
		for _, p := range n.Params {
			first := true
			c.mark(p.Loc, BlockParam, func(s Shape) bool {
				if s.Kind != Word {
					return false
				}
				if first {
					first = false
					return true
				}
				return false
			})
			c.mark(p.Loc, Type, func(s Shape) bool { return s.Kind == Word })
		}
	case *ast.Path:
		for _, m := range n.Members {
			c.mark(m.Loc, Member, func(s Shape) bool { return s.Kind != String })
		}
	case *ast.Binary:
		if n.Left != nil && n.Right != nil {
			gap := source.NewSpan(n.Left.Span().End, n.Right.Span().Start)
			c.mark(gap, Operator, func(s Shape) bool { return s.Kind == Word })
		}
	case *ast.VarDecl:
		c.mark(n.Loc, Variable, significant)
	case *ast.Error:
		if n.Partial == nil {
			c.mark(n.Loc, Error, significant)
		}
	}
}

func significant(s Shape) bool {
	return s.Kind != Whitespace && s.Kind != Comment
}

// mark reclassifies the shapes inside span that pass keep.
func (c *classifier) mark(span source.Span, kind Kind, keep func(Shape) bool) {
	i := sort.Search(len(c.shapes), func(i int) bool { return c.shapes[i].Span.Start >= span.Start })
	for ; i < len(c.shapes) && c.shapes[i].Span.End <= span.End; i++ {
		if c.shapes[i].Span.IsEmpty() {
			continue
		}
		if keep(c.shapes[i]) {
			c.shapes[i].Kind = kind
		}
	}
}
