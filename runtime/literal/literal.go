// Package literal converts terminal tokens into fully materialized values.
//
// Numbers keep every input digit: integers become arbitrary precision Int
// values and decimals keep their unscaled digits and scale. No conversion
// goes through a binary floating point type.
package literal

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aledsdavies/nuparse/core/ast"
	"github.com/aledsdavies/nuparse/core/source"
	"github.com/aledsdavies/nuparse/core/types"
	"github.com/aledsdavies/nuparse/runtime/diag"
	"github.com/aledsdavies/nuparse/runtime/lexer"
)

// Interpolator parses the text of one interpolation segment ("$name" or
// "$( ... )") found at absolute offset into an expression. The parser
// package supplies one that re-enters the full pipeline.
type Interpolator func(text string, offset int) (ast.Expr, []diag.Diagnostic)

// Parser turns tokens into literal expressions.
type Parser struct {
	interp Interpolator
}

// New returns a Parser. A nil interpolator keeps interpolation segments as
// plain text.
func New(interp Interpolator) *Parser {
	return &Parser{interp: interp}
}

// Parse infers the value of a terminal token.
func Parse(tok lexer.Token) (types.Value, []diag.Diagnostic) {
	return ParseAs(tok, types.KindAny)
}

// ParseAs coerces a terminal token to kind. When the token cannot produce
// that kind the returned value is the best inferred value and an Error is
// reported.
func ParseAs(tok lexer.Token, kind types.Kind) (types.Value, []diag.Diagnostic) {
	switch tok.Type {
	case lexer.NUMBER:
		return parseNumber(tok, kind)
	case lexer.DQ_STRING:
		body, diags := Unescape(tok.StringBody(), tok.Span.Start+1)
		return coerceText(tok, body, kind, diags)
	case lexer.SQ_STRING:
		return coerceText(tok, tok.StringBody(), kind, nil)
	case lexer.BAREWORD:
		return parseBareword(tok, kind)
	default:
		return types.String(tok.Text), []diag.Diagnostic{
			diag.New(diag.Error, diag.CodeBadLiteral, tok.Span, "%s is not a literal value", tok.Type),
		}
	}
}

// Expr builds the expression for a terminal token. Double-quoted strings
// with interpolation segments become *ast.Interpolated; everything else is
// an *ast.Literal.
func (p *Parser) Expr(tok lexer.Token, kind types.Kind) (ast.Expr, []diag.Diagnostic) {
	if tok.Type == lexer.DQ_STRING && len(tok.Segments) > 0 && p.interp != nil {
		return p.Interpolate(tok)
	}
	v, diags := ParseAs(tok, kind)
	return &ast.Literal{Value: v, Loc: tok.Span}, diags
}

// Interpolate splits a double-quoted string into text and segment parts.
func (p *Parser) Interpolate(tok lexer.Token) (*ast.Interpolated, []diag.Diagnostic) {
	var diags []diag.Diagnostic
	node := &ast.Interpolated{Loc: tok.Span}

	bodyStart := tok.Span.Start + 1
	bodyEnd := tok.Span.End
	if !tok.Unterminated {
		bodyEnd--
	}

	addText := func(start, end int) {
		if end <= start {
			return
		}
		raw := tok.Text[start-tok.Span.Start : end-tok.Span.Start]
		text, ds := Unescape(raw, start)
		diags = append(diags, ds...)
		node.Parts = append(node.Parts, &ast.Literal{Value: types.String(text), Loc: source.NewSpan(start, end)})
	}

	cursor := bodyStart
	for _, seg := range tok.Segments {
		addText(cursor, seg.Span.Start)
		segText := tok.Text[seg.Span.Start-tok.Span.Start : seg.Span.End-tok.Span.Start]
		if p.interp == nil {
			node.Parts = append(node.Parts, &ast.Literal{Value: types.String(segText), Loc: seg.Span})
		} else {
			expr, ds := p.interp(segText, seg.Span.Start)
			diags = append(diags, ds...)
			node.Parts = append(node.Parts, expr)
		}
		cursor = seg.Span.End
	}
	addText(cursor, bodyEnd)
	return node, diags
}

func coerceText(tok lexer.Token, text string, kind types.Kind, diags []diag.Diagnostic) (types.Value, []diag.Diagnostic) {
	switch kind {
	case types.KindGlob:
		return types.Glob(text), diags
	case types.KindDate:
		d, err := types.ParseDate(text)
		if err != nil {
			return types.String(text), append(diags, mismatch(tok, kind))
		}
		return d, diags
	case types.KindAny, types.KindString:
		return types.String(text), diags
	default:
		return types.String(text), append(diags, mismatch(tok, kind))
	}
}

func parseBareword(tok lexer.Token, kind types.Kind) (types.Value, []diag.Diagnostic) {
	text := tok.Text
	switch kind {
	case types.KindString:
		return types.String(text), nil
	case types.KindGlob:
		return types.Glob(text), nil
	case types.KindBool:
		if b, ok := parseBool(text); ok {
			return b, nil
		}
		return types.String(text), []diag.Diagnostic{mismatch(tok, kind)}
	case types.KindDate:
		return coerceText(tok, text, kind, nil)
	case types.KindAny:
		if b, ok := parseBool(text); ok {
			return b, nil
		}
		if looksLikeDate(text) {
			if d, err := types.ParseDate(text); err == nil {
				return d, nil
			}
		}
		if tok.Glob {
			return types.Glob(text), nil
		}
		return types.String(text), nil
	default:
		return types.String(text), []diag.Diagnostic{mismatch(tok, kind)}
	}
}

func parseBool(text string) (types.Bool, bool) {
	switch text {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// looksLikeDate matches the YYYY-MM-DD prefix shared by every date layout.
func looksLikeDate(text string) bool {
	if len(text) < 10 {
		return false
	}
	for i := 0; i < 10; i++ {
		c := text[i]
		if i == 4 || i == 7 {
			if c != '-' {
				return false
			}
		} else if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func parseNumber(tok lexer.Token, kind types.Kind) (types.Value, []diag.Diagnostic) {
	mantissa := strings.TrimPrefix(tok.Mantissa(), "+")
	var num types.Value
	if strings.ContainsAny(mantissa, ".eE") {
		d, err := types.ParseDecimal(mantissa)
		if errors.Is(err, types.ErrExponentRange) {
			return types.String(tok.Text), []diag.Diagnostic{
				diag.New(diag.Error, diag.CodeBadLiteral, tok.Span, "exponent of %q is too large", tok.Text).
					WithSuggestion(fmt.Sprintf("exponents are limited to ±%d", types.MaxExponent)),
			}
		}
		if err != nil {
			return types.String(tok.Text), []diag.Diagnostic{
				diag.New(diag.Error, diag.CodeBadLiteral, tok.Span, "invalid number %q", tok.Text),
			}
		}
		num = d
	} else {
		i, err := types.ParseInt(mantissa)
		if err != nil {
			return types.String(tok.Text), []diag.Diagnostic{
				diag.New(diag.Error, diag.CodeBadLiteral, tok.Span, "invalid number %q", tok.Text),
			}
		}
		num = i
	}

	var diags []diag.Diagnostic
	if suffix := tok.Unit(); suffix != "" {
		unitSpan := source.NewSpan(tok.Span.Start+tok.UnitOffset, tok.Span.End)
		unit, ok := types.LookupUnit(suffix)
		if !ok {
			return types.String(tok.Text), []diag.Diagnostic{
				diag.New(diag.Error, diag.CodeUnknownUnit, unitSpan, "unknown unit %q", suffix).
					WithSuggestion("known units: " + strings.Join(types.UnitNames(), ", ")),
			}
		}
		amount, exact := unit.Apply(num)
		if !exact {
			diags = append(diags, diag.New(diag.Warning, diag.CodeInexactUnit, tok.Span,
				"%s is not a whole number of base units and was truncated", tok.Text))
		}
		if unit.Kind == types.KindDuration {
			num = types.Duration{Nanos: amount}
		} else {
			num = types.FileSize{Bytes: amount}
		}
	}

	return coerceNumber(tok, num, kind, diags)
}

func coerceNumber(tok lexer.Token, v types.Value, kind types.Kind, diags []diag.Diagnostic) (types.Value, []diag.Diagnostic) {
	if kind == types.KindAny || kind == v.Kind() {
		return v, diags
	}
	switch kind {
	case types.KindString:
		return types.String(tok.Text), diags
	case types.KindGlob:
		return types.Glob(tok.Text), diags
	case types.KindDecimal:
		if i, ok := v.(types.Int); ok {
			return types.Decimal{Unscaled: i.V, Scale: 0}, diags
		}
	case types.KindInt:
		if d, ok := v.(types.Decimal); ok && d.IsInteger() {
			r := d.Rat()
			return types.Int{V: r.Num()}, diags
		}
	}
	return v, append(diags, mismatch(tok, kind))
}

func mismatch(tok lexer.Token, kind types.Kind) diag.Diagnostic {
	d := diag.New(diag.Error, diag.CodeShapeMismatch, tok.Span, "expected %s, found %q", kind, tok.Text)
	switch kind {
	case types.KindDuration:
		d = d.WithSuggestion("add a duration unit, for example " + tok.Text + "sec")
	case types.KindFileSize:
		d = d.WithSuggestion("add a size unit, for example " + tok.Text + "kb")
	case types.KindDate:
		d = d.WithSuggestion("write dates as YYYY-MM-DD or RFC 3339")
	}
	return d
}
