package parser

import (
	"fmt"
	"strings"

	"github.com/aledsdavies/nuparse/core/ast"
	"github.com/aledsdavies/nuparse/core/signature"
	"github.com/aledsdavies/nuparse/core/source"
	"github.com/aledsdavies/nuparse/core/types"
	"github.com/aledsdavies/nuparse/runtime/diag"
	"github.com/aledsdavies/nuparse/runtime/lexer"
	"github.com/aledsdavies/nuparse/runtime/lite"
)

// callBuilder consumes the argument groups of one stage against a
// signature, left to right.
type callBuilder struct {
	e     *expander
	sig   *signature.Signature
	call  *ast.Call
	args  []*lite.Group
	pos   int // next argument group
	param int // next declared positional

	flagsDone bool
	seen      map[string]source.Span
	decls     []*ast.VarDecl
}

func (e *expander) call(sig *signature.Signature, nameLoc source.Span, args []*lite.Group, external bool) ast.Expr {
	e.calls++
	e.recordDebugEvent(DebugPaths, "call", nameLoc.Start, sig.Name)

	loc := nameLoc
	for _, g := range args {
		loc = loc.Cover(g.Span)
	}
	c := &callBuilder{
		e:         e,
		sig:       sig,
		call:      &ast.Call{Name: sig.Name, NameLoc: nameLoc, External: external, Loc: loc},
		args:      args,
		flagsDone: external,
		seen:      map[string]source.Span{},
	}
	c.run()
	c.finish()

	// Declarations take effect after the arguments, so the value of
	// `let x = $x + 1` still reads the outer x.
	for _, d := range c.decls {
		e.scope.Declare(d.Name, types.KindAny)
	}
	return c.call
}

func (c *callBuilder) run() {
	for c.pos < len(c.args) {
		g := c.args[c.pos]
		if !c.flagsDone {
			if tok, ok := g.First(); ok {
				switch {
				case tok.Type == lexer.LONG_FLAG:
					c.longFlag(g, tok)
					continue
				case tok.Type == lexer.SHORT_FLAG:
					c.shortFlags(tok)
					continue
				case tok.Type == lexer.BAREWORD && tok.Text == "--" && len(g.Items) == 1:
					c.flagsDone = true
					c.pos++
					continue
				}
			}
		}
		c.positional(g)
	}
}

func (c *callBuilder) longFlag(g *lite.Group, tok lexer.Token) {
	c.pos++
	name := tok.FlagName()
	c.e.recordDebugEvent(DebugDetailed, "flag", tok.Span.Start, name)

	f, ok := c.sig.LookupFlag(name)
	if !ok {
		c.e.diags.Add(diag.New(diag.Error, diag.CodeUnknownFlag, tok.Span,
			"unknown flag --%s for %s", name, c.sig.Name).
			WithSuggestion(didYouMean("--", name, c.sig.FlagNames())))
		c.call.Flags = append(c.call.Flags, &ast.Flag{
			Name:  name,
			Value: &ast.Error{Message: "unknown flag", Loc: g.Span},
			Loc:   g.Span,
		})
		return
	}
	c.markSeen(f.Name, tok.Span)

	flag := &ast.Flag{Name: f.Name, Loc: g.Span}
	switch {
	case tok.InlineValue:
		if len(g.Items) == 1 {
			c.e.diags.Add(diag.New(diag.Error, diag.CodeMissingFlagValue, tok.Span,
				"flag --%s has '=' but no value", f.Name))
			flag.Value = &ast.Error{Message: "missing flag value", Loc: source.At(tok.Span.End)}
			break
		}
		value := &lite.Group{Items: g.Items[1:], Span: source.NewSpan(tok.Span.End, g.Span.End)}
		shape := f.Shape
		if !f.TakesValue {
			// --switch=false
			shape = signature.ShapeBool
		}
		flag.Value = c.e.shaped(value, shape)
	case f.TakesValue:
		flag.Value = c.flagValue(f, tok)
		flag.Loc = flag.Loc.Cover(flag.Value.Span())
	}
	c.call.Flags = append(c.call.Flags, flag)
}

// shortFlags expands -abc into one flag per letter. Only the last letter
// may take a value.
func (c *callBuilder) shortFlags(tok lexer.Token) {
	c.pos++
	letters := tok.Text[1:]
	for i, r := range letters {
		span := source.NewSpan(tok.Span.Start+1+i, tok.Span.Start+2+i)
		c.e.recordDebugEvent(DebugDetailed, "flag", span.Start, string(r))

		f, ok := c.sig.LookupShort(r)
		if !ok {
			d := diag.New(diag.Error, diag.CodeUnknownFlag, span, "unknown flag -%c for %s", r, c.sig.Name)
			if shorts := c.shorthands(); shorts != "" {
				d = d.WithSuggestion("available short flags: " + shorts)
			}
			c.e.diags.Add(d)
			c.call.Flags = append(c.call.Flags, &ast.Flag{
				Name:  string(r),
				Value: &ast.Error{Message: "unknown flag", Loc: span},
				Loc:   span,
			})
			continue
		}
		c.markSeen(f.Name, span)

		flag := &ast.Flag{Name: f.Name, Loc: span}
		if f.TakesValue {
			if i == len(letters)-1 {
				flag.Value = c.flagValue(f, tok)
				flag.Loc = span.Cover(flag.Value.Span())
			} else {
				c.e.diags.Add(diag.New(diag.Error, diag.CodeMissingFlagValue, span,
					"-%c takes a value and must be the last letter of %s", r, tok.Text))
				flag.Value = &ast.Error{Message: "missing flag value", Loc: span}
			}
		}
		c.call.Flags = append(c.call.Flags, flag)
	}
}

func (c *callBuilder) shorthands() string {
	var out []string
	for _, f := range c.sig.Flags {
		if f.Short != 0 {
			out = append(out, fmt.Sprintf("-%c (--%s)", f.Short, f.Name))
		}
	}
	return strings.Join(out, ", ")
}

// flagValue consumes the group after a value-taking flag.
func (c *callBuilder) flagValue(f signature.Flag, tok lexer.Token) ast.Expr {
	if c.pos >= len(c.args) || startsWithFlag(c.args[c.pos]) {
		c.e.diags.Add(diag.New(diag.Error, diag.CodeMissingFlagValue, tok.Span,
			"flag --%s expects a %s value", f.Name, f.Shape).
			WithContext("flag --" + f.Name))
		return &ast.Error{Message: "missing flag value", Loc: source.At(tok.Span.End)}
	}
	g := c.args[c.pos]
	c.pos++
	return c.e.shaped(g, f.Shape)
}

func startsWithFlag(g *lite.Group) bool {
	tok, ok := g.First()
	return ok && (tok.Type == lexer.LONG_FLAG || tok.Type == lexer.SHORT_FLAG)
}

func (c *callBuilder) markSeen(name string, span source.Span) {
	if first, dup := c.seen[name]; dup {
		c.e.diags.Add(diag.New(diag.Warning, diag.CodeDuplicateFlag, span,
			"flag --%s is given more than once", name).
			WithNote(fmt.Sprintf("first given at %s", first)))
		return
	}
	c.seen[name] = span
}

func (c *callBuilder) positional(g *lite.Group) {
	if c.param < len(c.sig.Positional) {
		p := c.sig.Positional[c.param]
		c.param++
		switch p.Shape {
		case signature.ShapeMath:
			rest := c.args[c.pos:]
			c.pos = len(c.args)
			c.add(p.Name, c.e.expression(rest))
		case signature.ShapeVarDecl:
			c.pos++
			c.add(p.Name, c.varDecl(g))
			if c.pos < len(c.args) {
				if tok, ok := c.args[c.pos].Single(); ok && tok.Type == lexer.OPERATOR && tok.Text == "=" {
					c.pos++
				}
			}
		default:
			c.pos++
			c.add(p.Name, c.argValue(g, p.Shape))
		}
		return
	}

	c.pos++
	if rest := c.sig.RestArgs; rest != nil {
		c.add(rest.Name, c.argValue(g, rest.Shape))
		return
	}
	c.excess(g)
}

func (c *callBuilder) argValue(g *lite.Group, shape signature.Shape) ast.Expr {
	if c.call.External {
		return c.e.externalArg(g)
	}
	return c.e.shaped(loneDash(g), shape)
}

// loneDash reads a standalone "-" argument, as in `cd -`, as a bareword
// rather than a subtraction with no operands.
func loneDash(g *lite.Group) *lite.Group {
	tok, ok := g.Single()
	if !ok || tok.Type != lexer.OPERATOR || tok.Text != "-" {
		return g
	}
	tok.Type = lexer.BAREWORD
	return &lite.Group{Items: []lite.Item{&lite.TokenItem{Token: tok}}, Span: g.Span}
}

func (c *callBuilder) excess(g *lite.Group) {
	switch c.sig.Excess {
	case signature.ExcessTruncate:
		c.e.recordDebugEvent(DebugDetailed, "truncate_argument", g.Span.Start, c.sig.Name)
	case signature.ExcessError:
		c.e.diags.Add(diag.New(diag.Error, diag.CodeExcessArgument, g.Span,
			"%s takes %d positional argument(s); %s is extra", c.sig.Name, len(c.sig.Positional), describeGroup(g)))
		c.add("", &ast.Error{Message: "unexpected argument", Partial: c.e.externalArg(g), Loc: g.Span})
	default:
		c.add("", c.e.externalArg(g))
	}
}

func (c *callBuilder) add(name string, value ast.Expr) {
	c.call.Positionals = append(c.call.Positionals, &ast.Positional{Name: name, Value: value, Loc: value.Span()})
}

func (c *callBuilder) varDecl(g *lite.Group) ast.Expr {
	tok, ok := g.Single()
	if !ok || (tok.Type != lexer.BAREWORD && tok.Type != lexer.VARIABLE) {
		c.e.diags.Add(diag.New(diag.Error, diag.CodeShapeMismatch, g.Span,
			"expected a variable name, found %s", describeGroup(g)))
		return &ast.Error{Message: "expected a variable name", Loc: g.Span}
	}
	decl := &ast.VarDecl{Name: strings.TrimPrefix(tok.Text, "$"), Frame: c.e.scope.Current(), Loc: tok.Span}
	c.decls = append(c.decls, decl)
	return decl
}

// finish fills the slots of missing required arguments with error nodes so
// the shape of the call stays stable.
func (c *callBuilder) finish() {
	end := source.At(c.call.Loc.End)
	for ; c.param < len(c.sig.Positional); c.param++ {
		p := c.sig.Positional[c.param]
		if p.Optional {
			continue
		}
		c.e.diags.Add(diag.New(diag.Error, diag.CodeMissingPositional, c.call.NameLoc,
			"%s is missing required argument <%s: %s>", c.sig.Name, p.Name, p.Shape).
			WithContext("missing " + p.Name))
		c.call.Positionals = append(c.call.Positionals, &ast.Positional{
			Name:  p.Name,
			Value: &ast.Error{Message: "missing " + p.Name, Loc: end},
			Loc:   end,
		})
	}

	for _, f := range c.sig.Flags {
		if !f.Required {
			continue
		}
		if _, ok := c.seen[f.Name]; ok {
			continue
		}
		c.e.diags.Add(diag.New(diag.Error, diag.CodeMissingFlag, c.call.NameLoc,
			"%s requires flag --%s", c.sig.Name, f.Name))
		c.call.Flags = append(c.call.Flags, &ast.Flag{
			Name:  f.Name,
			Value: &ast.Error{Message: "missing flag --" + f.Name, Loc: end},
			Loc:   end,
		})
	}
}
