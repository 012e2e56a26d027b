package ast

import "slices"

// Children returns the direct children of n in source order.
func Children(n Node) []Node {
	var out []Node
	add := func(nodes ...Node) {
		for _, c := range nodes {
			if c != nil && !isNilExpr(c) {
				out = append(out, c)
			}
		}
	}

	switch n := n.(type) {
	case *Pipeline:
		for _, s := range n.Stages {
			add(s)
		}
	case *Stage:
		add(n.Expr)
	case *Call:
		// Flags and positionals interleave in the source; order by span.
		var args []Node
		for _, p := range n.Positionals {
			args = append(args, p)
		}
		for _, f := range n.Flags {
			args = append(args, f)
		}
		slices.SortStableFunc(args, func(a, b Node) int {
			return a.Span().Start - b.Span().Start
		})
		add(args...)
	case *Positional:
		add(n.Value)
	case *Flag:
		add(n.Value)
	case *Path:
		add(n.Base)
	case *Binary:
		add(n.Left, n.Right)
	case *Block:
		add(n.Body)
	case *List:
		for _, e := range n.Items {
			add(e)
		}
	case *SubExpression:
		add(n.Body)
	case *Interpolated:
		for _, e := range n.Parts {
			add(e)
		}
	case *ExternalArg:
		if n.Interp != nil {
			add(n.Interp)
		}
	case *Error:
		add(n.Partial)
	}
	return out
}

// Walk visits n and its descendants depth first. When fn returns false the
// children of that node are skipped.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || isNilExpr(n) || !fn(n) {
		return
	}
	for _, c := range Children(n) {
		Walk(c, fn)
	}
}

// Errors collects every *Error node under n.
func Errors(n Node) []*Error {
	var out []*Error
	Walk(n, func(n Node) bool {
		if e, ok := n.(*Error); ok {
			out = append(out, e)
		}
		return true
	})
	return out
}

// isNilExpr catches typed nil pointers stored in interfaces.
func isNilExpr(n Node) bool {
	switch n := n.(type) {
	case *Pipeline:
		return n == nil
	case *Stage:
		return n == nil
	case *Literal:
		return n == nil
	case *Variable:
		return n == nil
	case *VarDecl:
		return n == nil
	case *Flag:
		return n == nil
	case *Positional:
		return n == nil
	case *Path:
		return n == nil
	case *Binary:
		return n == nil
	case *Block:
		return n == nil
	case *List:
		return n == nil
	case *SubExpression:
		return n == nil
	case *Interpolated:
		return n == nil
	case *ExternalArg:
		return n == nil
	case *Call:
		return n == nil
	case *Error:
		return n == nil
	}
	return false
}
