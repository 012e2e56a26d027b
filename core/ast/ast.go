// Package ast defines the typed expression tree produced by the expander.
//
// Every node records the source span it was built from. A node's span
// contains the spans of all of its children. Malformed input yields *Error
// nodes in the slot where a well-formed node would have been, so the shape
// of a Call stays stable for downstream tooling.
package ast

import (
	"github.com/aledsdavies/nuparse/core/source"
	"github.com/aledsdavies/nuparse/core/types"
)

// Node is any element of the tree.
type Node interface {
	Span() source.Span
}

// Expr is a node that produces a value.
type Expr interface {
	Node
	exprNode()
}

// Connector tells how a stage is joined to the previous one.
type Connector int

const (
	ConnectNone     Connector = iota // first stage
	ConnectPipe                      // |
	ConnectSequence                  // ; or newline
)

func (c Connector) String() string {
	switch c {
	case ConnectPipe:
		return "pipe"
	case ConnectSequence:
		return "sequence"
	default:
		return "none"
	}
}

// Pipeline is an ordered list of stages. An empty pipeline is a no-op.
type Pipeline struct {
	Stages []*Stage
	Loc    source.Span
}

func (p *Pipeline) Span() source.Span { return p.Loc }

// Stage is one command invocation or expression.
type Stage struct {
	Connector Connector
	Expr      Expr // *Call, any value expression, or *Error for a broken stage
	Loc       source.Span
}

func (s *Stage) Span() source.Span { return s.Loc }

// Literal is a fully materialized value.
type Literal struct {
	Value types.Value
	Loc   source.Span
}

// Variable is a $name reference. Frame is the id of the scope frame that
// binds the name, 0 for caller-supplied globals, -1 when unresolved.
type Variable struct {
	Name  string
	Frame int
	Loc   source.Span
}

// VarDecl introduces a variable into the frame with id Frame.
type VarDecl struct {
	Name  string
	Frame int
	Loc   source.Span
}

// Flag is a named argument. Value is nil for switches.
type Flag struct {
	Name  string
	Value Expr
	Loc   source.Span
}

func (f *Flag) Span() source.Span { return f.Loc }

// Positional is a positional argument. Name is the declared parameter name,
// or "" for pass-through arguments beyond the declared arity.
type Positional struct {
	Name  string
	Value Expr
	Loc   source.Span
}

func (p *Positional) Span() source.Span { return p.Loc }

// Member is one path accessor: .name or .0
type Member struct {
	Name    string
	Index   int
	IsIndex bool
	Loc     source.Span
}

// Path is column-path access on a value: $x.name.0, (ls).size
type Path struct {
	Base    Expr
	Members []Member
	Loc     source.Span
}

// Operator is a binary operator.
type Operator int

const (
	OpEq Operator = iota
	OpNotEq
	OpLt
	OpLtEq
	OpGt
	OpGtEq
	OpMatch
	OpNotMatch
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpAnd
	OpOr
	OpRange          // a..b
	OpRangeExclusive // a..<b
)

var operatorText = [...]string{
	OpEq:             "==",
	OpNotEq:          "!=",
	OpLt:             "<",
	OpLtEq:           "<=",
	OpGt:             ">",
	OpGtEq:           ">=",
	OpMatch:          "=~",
	OpNotMatch:       "!~",
	OpAdd:            "+",
	OpSub:            "-",
	OpMul:            "*",
	OpDiv:            "/",
	OpAnd:            "and",
	OpOr:             "or",
	OpRange:          "..",
	OpRangeExclusive: "..<",
}

func (o Operator) String() string {
	if o < 0 || int(o) >= len(operatorText) {
		return "?"
	}
	return operatorText[o]
}

// LookupOperator resolves operator text, including the word operators.
func LookupOperator(text string) (Operator, bool) {
	for op, s := range operatorText {
		if s == text {
			return Operator(op), true
		}
	}
	return 0, false
}

// Precedence orders binary operators; higher binds tighter.
func (o Operator) Precedence() int {
	switch o {
	case OpRange, OpRangeExclusive:
		return 6
	case OpMul, OpDiv:
		return 5
	case OpAdd, OpSub:
		return 4
	case OpEq, OpNotEq, OpLt, OpLtEq, OpGt, OpGtEq, OpMatch, OpNotMatch:
		return 3
	case OpAnd:
		return 2
	case OpOr:
		return 1
	default:
		return 0
	}
}

// Binary is a binary expression, including non-literal ranges.
// For open ranges the missing side is nil.
type Binary struct {
	Op    Operator
	Left  Expr
	Right Expr
	Loc   source.Span
}

// Param is a declared block parameter: |name| or |name: type|
type Param struct {
	Name string
	Type string
	Loc  source.Span
}

// Block is { |params| body }. FrameID names the scope frame the block pushed.
type Block struct {
	FrameID int
	Params  []Param
	Body    *Pipeline
	Loc     source.Span
}

// List is [a, b, c].
type List struct {
	Items []Expr
	Loc   source.Span
}

// SubExpression is ( pipeline ).
type SubExpression struct {
	Body *Pipeline
	Loc  source.Span
}

// Interpolated is a double-quoted string with $name or $( ... ) segments.
// Text runs appear as String literals between the interpolated parts.
type Interpolated struct {
	Parts []Expr
	Loc   source.Span
}

// ExternalArg is an argument passed through to an external command as
// written. Interp is set for double-quoted text with interpolation.
type ExternalArg struct {
	Raw    string
	Interp *Interpolated
	Loc    source.Span
}

// Call is a command invocation.
type Call struct {
	Name        string
	NameLoc     source.Span
	External    bool // ^name or a command missing from the registry
	Positionals []*Positional
	Flags       []*Flag
	Loc         source.Span
}

// Error stands in for a malformed expression. Partial holds whatever could
// still be built from the text, or nil.
type Error struct {
	Message string
	Partial Expr
	Loc     source.Span
}

func (n *Literal) Span() source.Span       { return n.Loc }
func (n *Variable) Span() source.Span      { return n.Loc }
func (n *VarDecl) Span() source.Span       { return n.Loc }
func (n *Path) Span() source.Span          { return n.Loc }
func (n *Binary) Span() source.Span        { return n.Loc }
func (n *Block) Span() source.Span         { return n.Loc }
func (n *List) Span() source.Span          { return n.Loc }
func (n *SubExpression) Span() source.Span { return n.Loc }
func (n *Interpolated) Span() source.Span  { return n.Loc }
func (n *ExternalArg) Span() source.Span   { return n.Loc }
func (n *Call) Span() source.Span          { return n.Loc }
func (n *Error) Span() source.Span         { return n.Loc }

func (*Literal) exprNode()       {}
func (*Variable) exprNode()      {}
func (*VarDecl) exprNode()       {}
func (*Path) exprNode()          {}
func (*Binary) exprNode()        {}
func (*Block) exprNode()         {}
func (*List) exprNode()          {}
func (*SubExpression) exprNode() {}
func (*Interpolated) exprNode()  {}
func (*ExternalArg) exprNode()   {}
func (*Call) exprNode()          {}
func (*Error) exprNode()         {}

// PositionalNamed returns the first positional bound to the named parameter.
func (c *Call) PositionalNamed(name string) *Positional {
	for _, p := range c.Positionals {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// FlagNamed returns the first flag with the given long name.
func (c *Call) FlagNamed(name string) *Flag {
	for _, f := range c.Flags {
		if f.Name == name {
			return f
		}
	}
	return nil
}
