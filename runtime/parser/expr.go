package parser

import (
	"strconv"
	"strings"

	"github.com/aledsdavies/nuparse/core/ast"
	"github.com/aledsdavies/nuparse/core/signature"
	"github.com/aledsdavies/nuparse/core/source"
	"github.com/aledsdavies/nuparse/core/types"
	"github.com/aledsdavies/nuparse/runtime/diag"
	"github.com/aledsdavies/nuparse/runtime/lexer"
	"github.com/aledsdavies/nuparse/runtime/lite"
	"github.com/aledsdavies/nuparse/runtime/literal"
)

// expression reads a run of groups as one value or a binary expression.
func (e *expander) expression(groups []*lite.Group) ast.Expr {
	if len(groups) == 1 {
		return e.value(groups[0])
	}
	m := &mathParser{e: e, groups: groups}
	return m.parse(0)
}

// mathParser is a precedence climbing parser over whitespace separated
// groups: operand (operator operand)*
type mathParser struct {
	e      *expander
	groups []*lite.Group
	pos    int
}

func (m *mathParser) parse(minPrec int) ast.Expr {
	left := m.operand()
	for m.pos < len(m.groups) {
		g := m.groups[m.pos]
		op, ok := operatorOf(g)
		if !ok {
			rest := g.Span.Cover(m.groups[len(m.groups)-1].Span)
			m.e.diags.Add(diag.New(diag.Error, diag.CodeBadExpression, g.Span,
				"expected an operator, found %s", describeGroup(g)))
			m.pos = len(m.groups)
			return &ast.Error{Message: "expected an operator", Partial: left, Loc: left.Span().Cover(rest)}
		}
		if op.Precedence() < minPrec {
			break
		}
		m.pos++
		right := m.parse(op.Precedence() + 1)
		left = &ast.Binary{Op: op, Left: left, Right: right, Loc: left.Span().Cover(right.Span())}
	}
	return left
}

func (m *mathParser) operand() ast.Expr {
	if m.pos >= len(m.groups) {
		end := source.At(m.groups[len(m.groups)-1].Span.End)
		m.e.diags.Add(diag.New(diag.Error, diag.CodeBadExpression, end, "expected a value after the operator"))
		return &ast.Error{Message: "missing operand", Loc: end}
	}
	g := m.groups[m.pos]
	m.pos++
	if _, isOp := operatorOf(g); isOp {
		m.e.diags.Add(diag.New(diag.Error, diag.CodeBadExpression, g.Span,
			"expected a value, found %s", describeGroup(g)))
		return &ast.Error{Message: "unexpected operator", Loc: g.Span}
	}
	return m.e.value(g)
}

func operatorOf(g *lite.Group) (ast.Operator, bool) {
	tok, ok := g.Single()
	if !ok {
		return 0, false
	}
	switch tok.Type {
	case lexer.OPERATOR:
		return ast.LookupOperator(tok.Text)
	case lexer.BAREWORD:
		if tok.Text == "and" || tok.Text == "or" {
			return ast.LookupOperator(tok.Text)
		}
	}
	return 0, false
}

// value reads one group: a primary with optional path members, or a range.
func (e *expander) value(g *lite.Group) ast.Expr {
	for i, it := range g.Items {
		if ti, ok := it.(*lite.TokenItem); ok && ti.Token.Type == lexer.RANGE {
			return e.rangeValue(g, i, ti.Token)
		}
	}
	return e.path(g.Items)
}

func itemsSpan(items []lite.Item) source.Span {
	return items[0].ItemSpan().Cover(items[len(items)-1].ItemSpan())
}

func (e *expander) rangeValue(g *lite.Group, i int, opTok lexer.Token) ast.Expr {
	op, _ := ast.LookupOperator(opTok.Text)
	var left, right ast.Expr
	if i > 0 {
		left = e.path(g.Items[:i])
	}
	if i < len(g.Items)-1 {
		right = e.path(g.Items[i+1:])
	}
	if left == nil && right == nil {
		e.diags.Add(diag.New(diag.Error, diag.CodeBadExpression, opTok.Span, "range needs at least one bound"))
		return &ast.Error{Message: "empty range", Loc: g.Span}
	}
	if r, ok := literalRange(left, right, op); ok {
		return &ast.Literal{Value: r, Loc: g.Span}
	}
	return &ast.Binary{Op: op, Left: left, Right: right, Loc: g.Span}
}

// literalRange folds a range whose bounds are number literals into a
// single Range value.
func literalRange(left, right ast.Expr, op ast.Operator) (types.Range, bool) {
	bound := func(x ast.Expr) (types.Value, bool) {
		if x == nil {
			return types.Nothing{}, true
		}
		lit, ok := x.(*ast.Literal)
		if !ok {
			return nil, false
		}
		switch lit.Value.Kind() {
		case types.KindInt, types.KindDecimal:
			return lit.Value, true
		}
		return nil, false
	}
	start, ok := bound(left)
	if !ok {
		return types.Range{}, false
	}
	end, ok := bound(right)
	if !ok {
		return types.Range{}, false
	}
	return types.Range{Start: start, End: end, Inclusive: op == ast.OpRange}, true
}

// path reads a primary followed by .member accessors.
func (e *expander) path(items []lite.Item) ast.Expr {
	base := e.primary(items[0])
	rest := items[1:]

	var members []ast.Member
	for len(rest) > 0 {
		dot, ok := rest[0].(*lite.TokenItem)
		if !ok || dot.Token.Type != lexer.DOT {
			break
		}
		if len(rest) < 2 {
			e.diags.Add(diag.New(diag.Error, diag.CodeBadExpression, dot.Token.Span, "expected a member name after '.'"))
			return &ast.Error{Message: "incomplete path", Partial: base, Loc: itemsSpan(items)}
		}
		name, ok := rest[1].(*lite.TokenItem)
		if !ok || !name.Token.Is(lexer.BAREWORD, lexer.NUMBER, lexer.DQ_STRING, lexer.SQ_STRING) {
			e.diags.Add(diag.New(diag.Error, diag.CodeBadExpression, rest[1].ItemSpan(), "expected a member name after '.'"))
			return &ast.Error{Message: "bad path member", Partial: base, Loc: itemsSpan(items)}
		}
		members = append(members, member(name.Token))
		rest = rest[2:]
	}

	var expr ast.Expr = base
	if len(members) > 0 {
		expr = &ast.Path{Base: base, Members: members, Loc: base.Span().Cover(members[len(members)-1].Loc)}
	}
	if len(rest) > 0 {
		return e.concat(expr, rest, itemsSpan(items))
	}
	return expr
}

func member(tok lexer.Token) ast.Member {
	if tok.IsString() {
		return ast.Member{Name: tok.StringBody(), Loc: tok.Span}
	}
	if n, err := strconv.Atoi(tok.Text); err == nil && n >= 0 {
		return ast.Member{Index: n, IsIndex: true, Loc: tok.Span}
	}
	return ast.Member{Name: tok.Text, Loc: tok.Span}
}

// concat joins adjacent words, strings and variables such as foo$x or
// $dir/file into one interpolated string.
func (e *expander) concat(first ast.Expr, rest []lite.Item, span source.Span) ast.Expr {
	parts := []ast.Expr{first}
	for _, it := range rest {
		switch it := it.(type) {
		case *lite.TokenItem:
			tok := it.Token
			switch tok.Type {
			case lexer.VARIABLE:
				parts = append(parts, e.variable(tok))
			case lexer.BAREWORD, lexer.NUMBER, lexer.SQ_STRING, lexer.DQ_STRING:
				expr, ds := e.lits.Expr(tok, types.KindString)
				e.diags.Add(ds...)
				parts = append(parts, expr)
			default:
				e.diags.Add(diag.New(diag.Error, diag.CodeBadExpression, tok.Span, "unexpected %s", describe(tok)))
				return &ast.Error{Message: "unexpected " + tok.Text, Partial: first, Loc: span}
			}
		case *lite.SubExpr:
			parts = append(parts, e.subExpr(it))
		default:
			e.diags.Add(diag.New(diag.Error, diag.CodeBadExpression, it.ItemSpan(), "unexpected item after a value"))
			return &ast.Error{Message: "unexpected item", Partial: first, Loc: span}
		}
	}
	return &ast.Interpolated{Parts: parts, Loc: span}
}

func (e *expander) primary(it lite.Item) ast.Expr {
	switch it := it.(type) {
	case *lite.TokenItem:
		tok := it.Token
		switch tok.Type {
		case lexer.VARIABLE:
			return e.variable(tok)
		case lexer.NUMBER, lexer.DQ_STRING, lexer.SQ_STRING, lexer.BAREWORD:
			expr, ds := e.lits.Expr(tok, types.KindAny)
			e.diags.Add(ds...)
			return expr
		case lexer.LONG_FLAG, lexer.SHORT_FLAG:
			// only reached after "--"
			return &ast.Literal{Value: types.String(tok.Text), Loc: tok.Span}
		default:
			e.diags.Add(diag.New(diag.Error, diag.CodeBadExpression, tok.Span, "expected a value, found %s", describe(tok)))
			return &ast.Error{Message: "expected a value", Loc: tok.Span}
		}
	case *lite.Block:
		return e.block(it)
	case *lite.List:
		return e.list(it)
	case *lite.SubExpr:
		return e.subExpr(it)
	case *lite.BadItem:
		return &ast.Error{Message: "unmatched '" + it.Token.Text + "'", Loc: it.Token.Span}
	default:
		return &ast.Error{Message: "unknown item", Loc: it.ItemSpan()}
	}
}

func (e *expander) variable(tok lexer.Token) ast.Expr {
	name := strings.TrimPrefix(tok.Text, "$")
	frame, _, ok := e.scope.Resolve(name)
	if !ok {
		e.scope.recordFree(name, tok.Span)
		if e.config.strictVars {
			e.diags.Warnf(diag.CodeUnresolvedVariable, tok.Span,
				"variable $%s is not defined in any enclosing scope", name)
		}
	}
	return &ast.Variable{Name: name, Frame: frame, Loc: tok.Span}
}

// block pushes a frame binding $it and the declared parameters, expands
// the body and pops the frame again.
func (e *expander) block(b *lite.Block) *ast.Block {
	id := e.scope.Push()
	e.recordDebugEvent(DebugPaths, "push_frame", b.Span.Start, strconv.Itoa(id))
	defer func() {
		e.scope.Pop()
		e.recordDebugEvent(DebugPaths, "pop_frame", b.Span.End, strconv.Itoa(id))
	}()

	out := &ast.Block{FrameID: id, Loc: b.Span}
	e.scope.Declare("it", types.KindAny)
	if b.Params != nil {
		for _, p := range b.Params.Params {
			kind := types.KindAny
			if shape, ok := signature.ParseShape(p.Type); ok {
				kind = shape.ValueKind()
			}
			e.scope.Declare(p.Name, kind)
			out.Params = append(out.Params, ast.Param{Name: p.Name, Type: p.Type, Loc: p.Span})
		}
	}
	out.Body = e.pipeline(b.Body)
	return out
}

func (e *expander) list(l *lite.List) *ast.List {
	out := &ast.List{Loc: l.Span}
	for _, el := range l.Elements {
		out.Items = append(out.Items, e.value(el))
	}
	return out
}

func (e *expander) subExpr(s *lite.SubExpr) *ast.SubExpression {
	return &ast.SubExpression{Body: e.pipeline(s.Body), Loc: s.Span}
}

// shaped reads a group as the value a parameter of the given shape
// expects. A mismatch becomes an *ast.Error in the slot, keeping whatever
// could be read as the partial value.
func (e *expander) shaped(g *lite.Group, shape signature.Shape) ast.Expr {
	switch shape {
	case signature.ShapeBlock:
		if b, ok := only[*lite.Block](g); ok {
			return e.block(b)
		}
		return e.mismatch(g, "a block { ... }")
	case signature.ShapeList:
		if l, ok := only[*lite.List](g); ok {
			return e.list(l)
		}
		if dynamic(g) {
			return e.value(g)
		}
		return e.mismatch(g, "a list [ ... ]")
	case signature.ShapeSubExpr:
		if s, ok := only[*lite.SubExpr](g); ok {
			return e.subExpr(s)
		}
		return e.mismatch(g, "a sub-expression ( ... )")
	case signature.ShapeAny, signature.ShapeMath, signature.ShapeVarDecl:
		return e.value(g)
	case signature.ShapeRange:
		v := e.value(g)
		if lit, ok := v.(*ast.Literal); ok && lit.Value.Kind() != types.KindRange {
			return e.mismatchExpr(v, g, "a range")
		}
		return v
	case signature.ShapeNumber:
		v := e.value(g)
		if lit, ok := v.(*ast.Literal); ok {
			if k := lit.Value.Kind(); k != types.KindInt && k != types.KindDecimal {
				return e.mismatchExpr(v, g, "a number")
			}
		}
		return v
	}

	if tok, ok := g.Single(); ok && isTerminal(tok) {
		expr, ds := e.lits.Expr(tok, shape.ValueKind())
		e.diags.Add(ds...)
		for _, d := range ds {
			if d.Code == diag.CodeShapeMismatch {
				return &ast.Error{Message: d.Message, Partial: expr, Loc: g.Span}
			}
		}
		return expr
	}

	v := e.value(g)
	switch v := v.(type) {
	case *ast.List, *ast.Block:
		return e.mismatchExpr(v, g, shape.String())
	case *ast.Literal:
		if want := shape.ValueKind(); want != types.KindAny && v.Value.Kind() != want {
			return e.mismatchExpr(v, g, shape.String())
		}
	}
	return v
}

func isTerminal(tok lexer.Token) bool {
	return tok.Is(lexer.NUMBER, lexer.DQ_STRING, lexer.SQ_STRING, lexer.BAREWORD)
}

// dynamic reports whether g produces its value at run time: a variable,
// a path or a sub-expression.
func dynamic(g *lite.Group) bool {
	switch first := g.Items[0].(type) {
	case *lite.SubExpr:
		return true
	case *lite.TokenItem:
		return first.Token.Type == lexer.VARIABLE
	}
	return false
}

func (e *expander) mismatch(g *lite.Group, want string) ast.Expr {
	return e.mismatchExpr(e.value(g), g, want)
}

func (e *expander) mismatchExpr(partial ast.Expr, g *lite.Group, want string) ast.Expr {
	e.diags.Add(diag.New(diag.Error, diag.CodeShapeMismatch, g.Span,
		"expected %s, found %s", want, describeGroup(g)))
	return &ast.Error{Message: "expected " + want, Partial: partial, Loc: g.Span}
}

// externalArg keeps an argument for an external command as written.
// Variables and bracketed items stay expressions; double-quoted strings
// keep their interpolation segments.
func (e *expander) externalArg(g *lite.Group) ast.Expr {
	tokens := make([]lexer.Token, 0, len(g.Items))
	for _, it := range g.Items {
		ti, ok := it.(*lite.TokenItem)
		if !ok {
			return e.value(g)
		}
		tokens = append(tokens, ti.Token)
	}
	if tokens[0].Type == lexer.VARIABLE {
		return e.value(g)
	}

	if len(tokens) == 1 {
		tok := tokens[0]
		switch tok.Type {
		case lexer.DQ_STRING:
			body, ds := literal.Unescape(tok.StringBody(), tok.Span.Start+1)
			arg := &ast.ExternalArg{Raw: body, Loc: tok.Span}
			if len(tok.Segments) == 0 {
				e.diags.Add(ds...)
				return arg
			}
			interp, ds := e.lits.Interpolate(tok)
			e.diags.Add(ds...)
			arg.Interp = interp
			return arg
		case lexer.SQ_STRING:
			return &ast.ExternalArg{Raw: tok.StringBody(), Loc: tok.Span}
		}
	}

	var raw, text strings.Builder
	var parts []ast.Expr
	textStart := tokens[0].Span.Start
	flush := func(end int) {
		if text.Len() > 0 {
			parts = append(parts, &ast.Literal{Value: types.String(text.String()), Loc: source.NewSpan(textStart, end)})
			text.Reset()
		}
	}
	hasVar := false
	for _, tok := range tokens {
		raw.WriteString(tok.Text)
		if tok.Type == lexer.VARIABLE {
			hasVar = true
			flush(tok.Span.Start)
			parts = append(parts, e.variable(tok))
			textStart = tok.Span.End
			continue
		}
		text.WriteString(tok.Text)
	}
	flush(g.Span.End)

	arg := &ast.ExternalArg{Raw: raw.String(), Loc: g.Span}
	if hasVar {
		arg.Interp = &ast.Interpolated{Parts: parts, Loc: g.Span}
	}
	return arg
}
