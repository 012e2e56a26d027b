package literal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/nuparse/core/ast"
	"github.com/aledsdavies/nuparse/core/source"
	"github.com/aledsdavies/nuparse/core/types"
	"github.com/aledsdavies/nuparse/runtime/diag"
	"github.com/aledsdavies/nuparse/runtime/lexer"
)

func firstToken(t *testing.T, input string) lexer.Token {
	t.Helper()
	tokens, _ := lexer.Tokenize(input)
	require.NotEmpty(t, tokens)
	return tokens[0]
}

func TestParseInfersKinds(t *testing.T) {
	tests := []struct {
		input string
		kind  types.Kind
		text  string
	}{
		{"99999999999999999999", types.KindInt, "99999999999999999999"},
		{"-42", types.KindInt, "-42"},
		{"+7", types.KindInt, "7"},
		{"1.50", types.KindDecimal, "1.50"},
		{"2.5e3", types.KindDecimal, "2500"},
		{"10kb", types.KindFileSize, "10kb"},
		{"1.5mb", types.KindFileSize, "1536kb"},
		{"90sec", types.KindDuration, "90s"},
		{"2hr", types.KindDuration, "2hr"},
		{"true", types.KindBool, "true"},
		{"2020-01-31", types.KindDate, "2020-01-31"},
		{"*.go", types.KindGlob, "*.go"},
		{"hello", types.KindString, "hello"},
		{"'single $x'", types.KindString, "single $x"},
		{`"tab\there"`, types.KindString, "tab\there"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, diags := Parse(firstToken(t, tt.input))
			assert.Empty(t, diags)
			assert.Equal(t, tt.kind, v.Kind())
			assert.Equal(t, tt.text, v.String())
		})
	}
}

func TestParseAsCoerces(t *testing.T) {
	v, diags := ParseAs(firstToken(t, "42"), types.KindString)
	assert.Empty(t, diags)
	assert.Equal(t, types.String("42"), v)

	v, diags = ParseAs(firstToken(t, "3"), types.KindDecimal)
	assert.Empty(t, diags)
	assert.Equal(t, "3", v.String())
	assert.Equal(t, types.KindDecimal, v.Kind())

	v, diags = ParseAs(firstToken(t, "2.0e1"), types.KindInt)
	assert.Empty(t, diags)
	assert.Equal(t, "20", v.String())

	v, diags = ParseAs(firstToken(t, "true"), types.KindString)
	assert.Empty(t, diags)
	assert.Equal(t, types.String("true"), v)

	v, diags = ParseAs(firstToken(t, "src"), types.KindGlob)
	assert.Empty(t, diags)
	assert.Equal(t, types.Glob("src"), v)

	v, diags = ParseAs(firstToken(t, `"2021-03-04"`), types.KindDate)
	assert.Empty(t, diags)
	assert.Equal(t, types.KindDate, v.Kind())
}

func TestParseAsMismatch(t *testing.T) {
	_, diags := ParseAs(firstToken(t, "5"), types.KindDuration)
	require.Len(t, diags, 1)
	assert.Equal(t, diag.CodeShapeMismatch, diags[0].Code)
	assert.Contains(t, diags[0].Suggestion, "5sec")

	_, diags = ParseAs(firstToken(t, "1.5"), types.KindInt)
	require.Len(t, diags, 1)
	assert.Equal(t, diag.Error, diags[0].Severity)

	_, diags = ParseAs(firstToken(t, "maybe"), types.KindBool)
	require.Len(t, diags, 1)

	_, diags = ParseAs(firstToken(t, "2020-13-45"), types.KindDate)
	require.Len(t, diags, 1)
}

func TestUnknownUnitFallsBackToString(t *testing.T) {
	v, diags := Parse(firstToken(t, "10parsecs"))
	require.Len(t, diags, 1)
	assert.Equal(t, diag.CodeUnknownUnit, diags[0].Code)
	assert.Equal(t, diag.Error, diags[0].Severity)
	assert.Equal(t, source.NewSpan(2, 9), diags[0].Span)
	assert.Equal(t, types.String("10parsecs"), v)
}

func TestInexactUnitWarns(t *testing.T) {
	v, diags := Parse(firstToken(t, "0.5b"))
	require.Len(t, diags, 1)
	assert.Equal(t, diag.Warning, diags[0].Severity)
	assert.Equal(t, diag.CodeInexactUnit, diags[0].Code)
	assert.Equal(t, "0b", v.String())
}

func TestHugeExponentIsRejected(t *testing.T) {
	for _, input := range []string{"1e20000000", "1e20000000b", "2.5e-999999999"} {
		t.Run(input, func(t *testing.T) {
			v, diags := Parse(firstToken(t, input))
			require.Len(t, diags, 1)
			assert.Equal(t, diag.CodeBadLiteral, diags[0].Code)
			assert.Equal(t, diag.Error, diags[0].Severity)
			assert.Equal(t, types.String(input), v)
		})
	}

	v, diags := Parse(firstToken(t, "1e4096b"))
	assert.Empty(t, diags)
	assert.Equal(t, types.KindFileSize, v.Kind())
}

func TestEscapes(t *testing.T) {
	tests := map[string]string{
		`a\"b`:       `a"b`,
		`\\ \/`:      `\ /`,
		`\n\t\r`:     "\n\t\r",
		`\b\f\0`:     "\b\f\x00",
		`\$x \'`:     `$x '`,
		`\u{1F600}!`: "\U0001F600!",
		`\u{e9}`:     "é",
		`plain`:      "plain",
	}
	for in, want := range tests {
		got, diags := Unescape(in, 0)
		assert.Empty(t, diags, in)
		assert.Equal(t, want, got, in)
	}
}

func TestBadEscapeKeepsText(t *testing.T) {
	got, diags := Unescape(`a\qb\u{zz}`, 10)
	assert.Equal(t, `a\qb\u{zz}`, got)
	require.Len(t, diags, 2)
	assert.Equal(t, source.NewSpan(11, 13), diags[0].Span)
	assert.Equal(t, diag.CodeBadEscape, diags[0].Code)
	assert.Equal(t, source.NewSpan(14, 16), diags[1].Span)
}

func TestInterpolation(t *testing.T) {
	input := `"hi $name, you have $(count) \$x"`
	tok := firstToken(t, input)

	var calls []string
	p := New(func(text string, offset int) (ast.Expr, []diag.Diagnostic) {
		calls = append(calls, text)
		assert.Equal(t, text, input[offset:offset+len(text)])
		return &ast.Variable{Name: text, Loc: source.NewSpan(offset, offset+len(text))}, nil
	})

	expr, diags := p.Expr(tok, types.KindAny)
	assert.Empty(t, diags)
	interp, ok := expr.(*ast.Interpolated)
	require.True(t, ok)
	assert.Equal(t, []string{"$name", "$(count)"}, calls)
	require.Len(t, interp.Parts, 5)

	assert.Equal(t, types.String("hi "), interp.Parts[0].(*ast.Literal).Value)
	assert.Equal(t, types.String(", you have "), interp.Parts[2].(*ast.Literal).Value)
	assert.Equal(t, types.String(" $x"), interp.Parts[4].(*ast.Literal).Value)

	for _, part := range interp.Parts {
		assert.True(t, interp.Span().Contains(part.Span()))
	}
}

func TestNoInterpolatorKeepsLiteral(t *testing.T) {
	tok := firstToken(t, `"hello $name"`)
	expr, diags := New(nil).Expr(tok, types.KindAny)
	assert.Empty(t, diags)
	lit, ok := expr.(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, types.String("hello $name"), lit.Value)
}

func TestNonLiteralToken(t *testing.T) {
	_, diags := Parse(firstToken(t, "$x"))
	require.Len(t, diags, 1)
	assert.Equal(t, diag.CodeBadLiteral, diags[0].Code)
}
