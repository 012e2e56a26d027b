package lexer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/nuparse/core/source"
	"github.com/aledsdavies/nuparse/runtime/diag"
)

type tok struct {
	Type TokenType
	Text string
}

// significant drops trivia and EOF so tests can focus on meaningful tokens.
func significant(tokens []Token) []tok {
	var out []tok
	for _, t := range tokens {
		if t.IsTrivia() || t.Type == EOF {
			continue
		}
		out = append(out, tok{t.Type, t.Text})
	}
	return out
}

func assertTokens(t *testing.T, input string, expected []tok) {
	t.Helper()
	tokens, _ := Tokenize(input)
	if diff := cmp.Diff(expected, significant(tokens)); diff != "" {
		t.Errorf("tokens for %q mismatch (-expected +actual):\n%s", input, diff)
	}
}

func TestPipelineTokens(t *testing.T) {
	assertTokens(t, "echo 1 | str length", []tok{
		{BAREWORD, "echo"}, {NUMBER, "1"}, {PIPE, "|"}, {BAREWORD, "str"}, {BAREWORD, "length"},
	})
}

func TestStructuralPunctuation(t *testing.T) {
	assertTokens(t, "ls; {|x| [1, 2]} (pwd)\r\nx", []tok{
		{BAREWORD, "ls"}, {SEMICOLON, ";"},
		{LBRACE, "{"}, {PIPE, "|"}, {BAREWORD, "x"}, {PIPE, "|"},
		{LSQUARE, "["}, {NUMBER, "1"}, {COMMA, ","}, {NUMBER, "2"}, {RSQUARE, "]"}, {RBRACE, "}"},
		{LPAREN, "("}, {BAREWORD, "pwd"}, {RPAREN, ")"},
		{NEWLINE, "\r\n"}, {BAREWORD, "x"},
	})
}

func TestSpansCoverInput(t *testing.T) {
	inputs := []string{
		"",
		"echo 1 | str length",
		"ls -la --depth=2 # list\n\tcd ..",
		`echo "a $name $(ls | length) b" 'c' "unterminated`,
		"$x.a.0..<$y 1.5kb -3 *.go file[0-9].txt",
		"{ |a, b: int| $a + $b }\r\n[1 2] $",
		"日本語 ^ext --\n\n",
	}
	for _, input := range inputs {
		tokens, _ := Tokenize(input)
		require.NotEmpty(t, tokens)
		pos := 0
		for _, tk := range tokens {
			assert.Equal(t, pos, tk.Span.Start, "gap or overlap before %s %q in %q", tk.Type, tk.Text, input)
			assert.Equal(t, tk.Text, tk.Span.Slice(input))
			pos = tk.Span.End
		}
		assert.Equal(t, len(input), pos, "input %q not fully covered", input)
		last := tokens[len(tokens)-1]
		assert.Equal(t, EOF, last.Type)
		assert.Equal(t, source.At(len(input)), last.Span)
	}
}

func TestComments(t *testing.T) {
	tokens, _ := Tokenize("ls # all files\nx#y")
	assert.Equal(t, []tok{
		{BAREWORD, "ls"}, {WHITESPACE, " "}, {COMMENT, "# all files"}, {NEWLINE, "\n"}, {BAREWORD, "x#y"}, {EOF, ""},
	}, func() []tok {
		var out []tok
		for _, t := range tokens {
			out = append(out, tok{t.Type, t.Text})
		}
		return out
	}())
}

func TestFlags(t *testing.T) {
	assertTokens(t, "cmd --foo -la --name=value -- -5 -x1 --a.b -", []tok{
		{BAREWORD, "cmd"},
		{LONG_FLAG, "--foo"},
		{SHORT_FLAG, "-la"},
		{LONG_FLAG, "--name="}, {BAREWORD, "value"},
		{BAREWORD, "--"},
		{NUMBER, "-5"},
		{BAREWORD, "-x1"},
		{BAREWORD, "--a.b"},
		{OPERATOR, "-"},
	})

	tokens, _ := Tokenize("--name=value")
	assert.True(t, tokens[0].InlineValue)
	assert.Equal(t, "name", tokens[0].FlagName())
	assert.Equal(t, "la", Token{Type: SHORT_FLAG, Text: "-la"}.FlagName())
}

func TestNumbers(t *testing.T) {
	tests := []struct {
		input    string
		typ      TokenType
		mantissa string
		unit     string
	}{
		{"42", NUMBER, "42", ""},
		{"99999999999999999999", NUMBER, "99999999999999999999", ""},
		{"-1.5", NUMBER, "-1.5", ""},
		{".5", NUMBER, ".5", ""},
		{"2.5e-3", NUMBER, "2.5e-3", ""},
		{"10kb", NUMBER, "10", "kb"},
		{"1.5GB", NUMBER, "1.5", "GB"},
		{"3sec", NUMBER, "3", "sec"},
		{"2020-01-01", BAREWORD, "2020-01-01", ""},
		{"1.2.3", BAREWORD, "1.2.3", ""},
		{"1.", BAREWORD, "1.", ""},
		{"12ab3", BAREWORD, "12ab3", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens, diags := Tokenize(tt.input)
			assert.Empty(t, diags)
			require.Len(t, tokens, 2)
			assert.Equal(t, tt.typ, tokens[0].Type)
			assert.Equal(t, tt.mantissa, tokens[0].Mantissa())
			assert.Equal(t, tt.unit, tokens[0].Unit())
		})
	}
}

func TestRangesAndPaths(t *testing.T) {
	assertTokens(t, "1..5 $a..<$b $x.name.0 (ls).size .. ../up a.txt 3..", []tok{
		{NUMBER, "1"}, {RANGE, ".."}, {NUMBER, "5"},
		{VARIABLE, "$a"}, {RANGE, "..<"}, {VARIABLE, "$b"},
		{VARIABLE, "$x"}, {DOT, "."}, {BAREWORD, "name"}, {DOT, "."}, {BAREWORD, "0"},
		{LPAREN, "("}, {BAREWORD, "ls"}, {RPAREN, ")"}, {DOT, "."}, {BAREWORD, "size"},
		{BAREWORD, ".."},
		{BAREWORD, "../up"},
		{BAREWORD, "a.txt"},
		{NUMBER, "3"}, {RANGE, ".."},
	})

	assertTokens(t, `$rec."first name"`, []tok{
		{VARIABLE, "$rec"}, {DOT, "."}, {DQ_STRING, `"first name"`},
	})
}

func TestOperators(t *testing.T) {
	assertTokens(t, "where size >= 10 and name =~ foo == != < > <= !~ + * / = a=b x+y", []tok{
		{BAREWORD, "where"}, {BAREWORD, "size"}, {OPERATOR, ">="}, {NUMBER, "10"},
		{BAREWORD, "and"}, {BAREWORD, "name"}, {OPERATOR, "=~"}, {BAREWORD, "foo"},
		{OPERATOR, "=="}, {OPERATOR, "!="}, {OPERATOR, "<"}, {OPERATOR, ">"}, {OPERATOR, "<="},
		{OPERATOR, "!~"}, {OPERATOR, "+"}, {OPERATOR, "*"}, {OPERATOR, "/"}, {OPERATOR, "="},
		{BAREWORD, "a=b"}, {BAREWORD, "x+y"},
	})
}

func TestGlobs(t *testing.T) {
	tokens, _ := Tokenize("*.go file[0-9].txt plain a[ b]")
	var globs []bool
	var texts []string
	for _, tk := range tokens {
		if tk.Type == BAREWORD {
			globs = append(globs, tk.Glob)
			texts = append(texts, tk.Text)
		}
	}
	assert.Equal(t, []string{"*.go", "file[0-9].txt", "plain", "a", "b"}, texts)
	assert.Equal(t, []bool{true, true, false, false, false}, globs)
}

func TestVariables(t *testing.T) {
	assertTokens(t, "$it $nu $my-var $_x", []tok{
		{VARIABLE, "$it"}, {VARIABLE, "$nu"}, {VARIABLE, "$my-var"}, {VARIABLE, "$_x"},
	})

	tokens, diags := Tokenize("echo $ x")
	require.Len(t, diags, 1)
	assert.Equal(t, diag.Error, diags[0].Severity)
	assert.Equal(t, diag.CodeLoneDollar, diags[0].Code)
	assert.Equal(t, source.NewSpan(5, 6), diags[0].Span)
	assert.Equal(t, BAREWORD, tokens[2].Type)
}

func TestStrings(t *testing.T) {
	input := `"a \"q\" $name-x $(ls | get "n)") end" 'no $interp \n'`
	tokens, diags := Tokenize(input)
	assert.Empty(t, diags)

	dq := tokens[0]
	require.Equal(t, DQ_STRING, dq.Type)
	assert.False(t, dq.Unterminated)
	require.Len(t, dq.Segments, 2)
	assert.Equal(t, SegmentVariable, dq.Segments[0].Kind)
	assert.Equal(t, "$name", dq.Segments[0].Span.Slice(input))
	assert.Equal(t, SegmentSubExpr, dq.Segments[1].Kind)
	assert.Equal(t, `$(ls | get "n)")`, dq.Segments[1].Span.Slice(input))

	sq := tokens[2]
	require.Equal(t, SQ_STRING, sq.Type)
	assert.Equal(t, `no $interp \n`, sq.StringBody())
	assert.Empty(t, sq.Segments)
}

func TestUnterminatedStringIsIncomplete(t *testing.T) {
	for _, input := range []string{`"abc`, `echo 'abc`, "\"line one\nline two", `"$(ls`} {
		tokens, diags := Tokenize(input)
		require.Len(t, diags, 1, input)
		assert.Equal(t, diag.Incomplete, diags[0].Severity)
		assert.False(t, diags[0].Fatal)
		assert.Equal(t, len(input), diags[0].Span.End)

		str := tokens[len(tokens)-2]
		assert.True(t, str.Unterminated)
		assert.Equal(t, len(input), str.Span.End)
	}

	tokens, _ := Tokenize(`"abc`)
	assert.Equal(t, "abc", tokens[0].StringBody())
}

func TestPositions(t *testing.T) {
	tokens, _ := Tokenize("ls\n  é x")
	var last Token
	for _, tk := range tokens {
		if tk.Text == "x" {
			last = tk
		}
	}
	assert.Equal(t, source.Position{Line: 2, Column: 5, Offset: 8}, last.Position)
	assert.True(t, last.HasSpaceBefore)
}

func TestTelemetry(t *testing.T) {
	l := NewLexer("ls -a | length", WithTelemetryBasic())
	l.GetTokens()
	tel := l.GetTokenTelemetry()
	require.NotNil(t, tel)
	assert.Equal(t, 2, tel[BAREWORD].Count)
	assert.Equal(t, 1, tel[SHORT_FLAG].Count)
	assert.Equal(t, 1, tel[EOF].Count)
	assert.Nil(t, l.GetDebugEvents())

	off := NewLexer("ls")
	off.GetTokens()
	assert.Nil(t, off.GetTokenTelemetry())
}

func TestDebugEvents(t *testing.T) {
	l := NewLexer("ls", WithDebugPaths())
	l.GetTokens()
	events := l.GetDebugEvents()
	require.Len(t, events, 2)
	assert.Equal(t, "lex_BAREWORD", events[0].Event)
	assert.Equal(t, "lex_EOF", events[1].Event)

	detailed := NewLexer("ls", WithDebugDetailed())
	detailed.GetTokens()
	assert.Greater(t, len(detailed.GetDebugEvents()), 2)
}

func TestNextTokenAfterEOF(t *testing.T) {
	l := NewLexer("x")
	l.GetTokens()
	assert.Equal(t, EOF, l.NextToken().Type)
	assert.Equal(t, EOF, l.NextToken().Type)
}
