package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aledsdavies/nuparse/core/source"
	"github.com/aledsdavies/nuparse/core/types"
)

func TestWalkOrdersCallArguments(t *testing.T) {
	// cmd --flag a b
	call := &Call{
		Name:    "cmd",
		NameLoc: source.NewSpan(0, 3),
		Positionals: []*Positional{
			{Name: "x", Value: &Literal{Value: types.String("a"), Loc: source.NewSpan(11, 12)}, Loc: source.NewSpan(11, 12)},
			{Name: "y", Value: &Error{Message: "bad", Loc: source.NewSpan(13, 14)}, Loc: source.NewSpan(13, 14)},
		},
		Flags: []*Flag{{Name: "flag", Loc: source.NewSpan(4, 10)}},
		Loc:   source.NewSpan(0, 14),
	}
	p := &Pipeline{Stages: []*Stage{{Expr: call, Loc: call.Loc}}, Loc: call.Loc}

	var visited []string
	Walk(p, func(n Node) bool {
		switch n := n.(type) {
		case *Flag:
			visited = append(visited, "--"+n.Name)
		case *Positional:
			visited = append(visited, n.Name)
		}
		return true
	})
	assert.Equal(t, []string{"--flag", "x", "y"}, visited)
	assert.Len(t, Errors(p), 1)
}

func TestWalkSkipsChildren(t *testing.T) {
	inner := &Pipeline{Stages: []*Stage{{Expr: &Error{Message: "x"}}}}
	block := &Block{Body: inner}
	count := 0
	Walk(block, func(n Node) bool {
		count++
		_, isBlock := n.(*Block)
		return !isBlock
	})
	assert.Equal(t, 1, count)
}

func TestWalkIgnoresNilChildren(t *testing.T) {
	var body *Pipeline
	Walk(&Block{Body: body}, func(n Node) bool {
		assert.NotNil(t, n)
		return true
	})
	openRange := &Binary{Op: OpRange, Left: &Literal{Value: types.NewInt(1)}}
	assert.Len(t, Children(openRange), 1)

	var missing *Literal
	assert.Empty(t, Children(&Positional{Value: missing}))
}

func TestOperators(t *testing.T) {
	op, ok := LookupOperator("and")
	assert.True(t, ok)
	assert.Equal(t, OpAnd, op)

	op, ok = LookupOperator("..<")
	assert.True(t, ok)
	assert.Equal(t, OpRangeExclusive, op)

	_, ok = LookupOperator("**")
	assert.False(t, ok)

	assert.Greater(t, OpMul.Precedence(), OpAdd.Precedence())
	assert.Greater(t, OpAdd.Precedence(), OpLt.Precedence())
	assert.Greater(t, OpLt.Precedence(), OpAnd.Precedence())
	assert.Greater(t, OpAnd.Precedence(), OpOr.Precedence())
	assert.Equal(t, "=~", OpMatch.String())
}

func TestCallLookups(t *testing.T) {
	c := &Call{
		Positionals: []*Positional{{Name: "path"}},
		Flags:       []*Flag{{Name: "all"}},
	}
	assert.NotNil(t, c.PositionalNamed("path"))
	assert.Nil(t, c.PositionalNamed("other"))
	assert.NotNil(t, c.FlagNamed("all"))
	assert.Nil(t, c.FlagNamed("none"))
}
