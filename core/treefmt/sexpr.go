package treefmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/aledsdavies/nuparse/core/ast"
	"github.com/aledsdavies/nuparse/core/types"
)

// Format renders p as an indented S-expression, one node per line:
//
//	(pipeline
//	  (stage none
//	    (call echo
//	      (positional rest
//	        (int 1)))))
//
// External arguments are shell-quoted so the dump can be pasted back into a
// shell. Spans are omitted unless withSpans is set.
func Format(p *ast.Pipeline, withSpans bool) string {
	var b strings.Builder
	f := &formatter{w: &b, spans: withSpans}
	f.node(p, 0)
	return b.String()
}

// Write writes the S-expression form of p followed by a newline.
func Write(w io.Writer, p *ast.Pipeline, withSpans bool) error {
	_, err := io.WriteString(w, Format(p, withSpans)+"\n")
	return err
}

type formatter struct {
	w     *strings.Builder
	spans bool
}

func (f *formatter) open(depth int, n ast.Node, head string) {
	if depth > 0 {
		f.w.WriteByte('\n')
	}
	f.w.WriteString(strings.Repeat("  ", depth))
	f.w.WriteString("(" + head)
	if f.spans && n != nil {
		f.w.WriteString(" @" + n.Span().String())
	}
}

func (f *formatter) leaf(depth int, n ast.Node, head string) {
	f.open(depth, n, head)
	f.w.WriteByte(')')
}

func (f *formatter) node(n ast.Node, depth int) {
	switch n := n.(type) {
	case *ast.Pipeline:
		f.open(depth, n, "pipeline")
		for _, st := range n.Stages {
			f.node(st, depth+1)
		}
	case *ast.Stage:
		f.open(depth, n, "stage "+n.Connector.String())
		f.child(n.Expr, depth+1)
	case *ast.Call:
		head := "call " + quoteName(n.Name)
		if n.External {
			head = "external " + quoteName(n.Name)
		}
		f.open(depth, n, head)
		for _, c := range ast.Children(n) {
			f.node(c, depth+1)
		}
	case *ast.Flag:
		f.open(depth, n, "flag --"+n.Name)
		f.child(n.Value, depth+1)
	case *ast.Positional:
		name := n.Name
		if name == "" {
			name = "_"
		}
		f.open(depth, n, "positional "+name)
		f.child(n.Value, depth+1)
	case *ast.Literal:
		text := n.Value.String()
		if n.Value.Kind() == types.KindString {
			text = strconv.Quote(text)
		}
		f.leaf(depth, n, n.Value.Kind().String()+" "+text)
		return
	case *ast.Variable:
		f.leaf(depth, n, fmt.Sprintf("var $%s #%d", n.Name, n.Frame))
		return
	case *ast.VarDecl:
		f.leaf(depth, n, fmt.Sprintf("let %s #%d", n.Name, n.Frame))
		return
	case *ast.Path:
		var members []string
		for _, m := range n.Members {
			if m.IsIndex {
				members = append(members, strconv.Itoa(m.Index))
			} else {
				members = append(members, quoteName(m.Name))
			}
		}
		f.open(depth, n, "path ."+strings.Join(members, "."))
		f.child(n.Base, depth+1)
	case *ast.Binary:
		f.open(depth, n, n.Op.String())
		for _, side := range []ast.Expr{n.Left, n.Right} {
			if side == nil {
				f.leaf(depth+1, nil, "nothing")
				continue
			}
			f.node(side, depth+1)
		}
	case *ast.Block:
		head := fmt.Sprintf("block #%d", n.FrameID)
		for _, p := range n.Params {
			head += " |" + p.Name
			if p.Type != "" {
				head += ":" + p.Type
			}
			head += "|"
		}
		f.open(depth, n, head)
		f.node(n.Body, depth+1)
	case *ast.List:
		f.open(depth, n, "list")
		for _, it := range n.Items {
			f.node(it, depth+1)
		}
	case *ast.SubExpression:
		f.open(depth, n, "subexpr")
		f.node(n.Body, depth+1)
	case *ast.Interpolated:
		f.open(depth, n, "interpolated")
		for _, part := range n.Parts {
			f.node(part, depth+1)
		}
	case *ast.ExternalArg:
		f.open(depth, n, "arg "+shellquote.Join(n.Raw))
		if n.Interp != nil {
			f.node(n.Interp, depth+1)
		}
	case *ast.Error:
		f.open(depth, n, "error "+strconv.Quote(n.Message))
		f.child(n.Partial, depth+1)
	default:
		f.open(depth, n, fmt.Sprintf("%T", n))
	}
	f.w.WriteByte(')')
}

func (f *formatter) child(e ast.Expr, depth int) {
	if e != nil {
		f.node(e, depth)
	}
}

// quoteName leaves plain words alone and quotes anything with spaces.
func quoteName(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\"'()") {
		return s
	}
	return strconv.Quote(s)
}
