package parser

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"

	"github.com/aledsdavies/nuparse/core/ast"
	"github.com/aledsdavies/nuparse/core/source"
	"github.com/aledsdavies/nuparse/runtime/diag"
)

// Fuzz tests for parser determinism and robustness.
//
// 1. FuzzParserDeterminism - same input always produces identical output
// 2. FuzzParserNoPanic - the parser never panics and never returns a nil tree
// 3. FuzzParserSpans - every node and diagnostic span lies inside the input
// 4. FuzzParserIncompleteTriage - incomplete input always triages as incomplete

func addSeedCorpus(f *testing.F) {
	f.Add("")
	f.Add("echo 1 | str length")
	f.Add("ls -la --depth=2 *.go")
	f.Add("where size > 10kb and name =~ foo")
	f.Add("each { |x: int| $x + $it }")
	f.Add("let x = 5; echo $x")
	f.Add(`echo "a $name $(ls | length) b" 'c'`)
	f.Add("echo [1, 2, (ls).name.0] 1..<5 3..")
	f.Add(`^git commit -m "msg" -- --amend`)

	// Broken and unfinished input
	f.Add(`"abc`)
	f.Add("{ ")
	f.Add("ls ; ) foo ; pwd")
	f.Add("{ ( }")
	f.Add("echo 1 |")
	f.Add("| |")
	f.Add("each { |x: nope| }")
	f.Add("echo $")
	f.Add(`"$(`)
	f.Add("first 1 2 3 --rows")
}

// FuzzParserDeterminism verifies that parsing the same input twice produces
// identical tokens, diagnostics and tree shape.
func FuzzParserDeterminism(f *testing.F) {
	addSeedCorpus(f)
	reg := testRegistry()

	f.Fuzz(func(t *testing.T, input string) {
		tree1 := Parse(input, reg)
		tree2 := Parse(input, reg)

		if diff := cmp.Diff(tree1.Diagnostics, tree2.Diagnostics); diff != "" {
			t.Errorf("Non-deterministic diagnostics (-first +second):\n%s", diff)
		}
		if len(tree1.Tokens) != len(tree2.Tokens) {
			t.Fatalf("Non-deterministic token count: %d vs %d", len(tree1.Tokens), len(tree2.Tokens))
		}
		for i := range tree1.Tokens {
			a, b := tree1.Tokens[i], tree2.Tokens[i]
			if a.Type != b.Type || a.Span != b.Span || a.Text != b.Text {
				t.Fatalf("Non-deterministic token at index %d: %v vs %v", i, a, b)
			}
		}
		if s1, s2 := shape(tree1.Root), shape(tree2.Root); s1 != s2 {
			t.Errorf("Non-deterministic tree:\n%s\nvs\n%s", s1, s2)
		}
	})
}

// FuzzParserNoPanic verifies the parser never panics on any input.
func FuzzParserNoPanic(f *testing.F) {
	addSeedCorpus(f)
	f.Add("\x00\x01\x02")
	f.Add(strings.Repeat("a", 10000))
	f.Add(strings.Repeat("{", 1000))
	f.Add(strings.Repeat("(", 500) + strings.Repeat("]", 500))
	f.Add(strings.Repeat("$x.", 200))
	reg := testRegistry()

	f.Fuzz(func(t *testing.T, input string) {
		defer func() {
			if r := recover(); r != nil {
				t.Errorf("Parser panicked: %v", r)
			}
		}()
		tree := Parse(input, reg, WithTelemetryTiming(), WithDebugDetailed(), WithStrictVariables())
		if tree == nil || tree.Root == nil {
			t.Fatal("Parse returned a nil tree")
		}
	})
}

// FuzzParserSpans verifies span bounds and token coverage.
func FuzzParserSpans(f *testing.F) {
	addSeedCorpus(f)
	reg := testRegistry()

	f.Fuzz(func(t *testing.T, input string) {
		if !utf8.ValidString(input) {
			t.Skip()
		}
		tree := Parse(input, reg)
		bounds := source.NewSpan(0, len(input))

		ast.Walk(tree.Root, func(n ast.Node) bool {
			if !bounds.Contains(n.Span()) {
				t.Errorf("%T span %s outside input %s", n, n.Span(), bounds)
			}
			return true
		})
		for _, d := range tree.Diagnostics {
			if !bounds.Contains(d.Span) {
				t.Errorf("diagnostic span outside input: %s", d.Error())
			}
		}

		next := 0
		for _, tok := range tree.Tokens {
			if tok.Span.Start != next {
				t.Fatalf("token %v starts at %d, want %d", tok, tok.Span.Start, next)
			}
			next = tok.Span.End
		}
		if next != len(input) {
			t.Errorf("tokens cover %d bytes of %d", next, len(input))
		}
	})
}

// FuzzParserIncompleteTriage verifies that an incomplete parse is reported
// as incomplete whatever else is wrong with the input.
func FuzzParserIncompleteTriage(f *testing.F) {
	addSeedCorpus(f)
	reg := testRegistry()

	f.Fuzz(func(t *testing.T, input string) {
		tree := Parse(input, reg)
		if got := diag.Triage(tree.Diagnostics); tree.Incomplete && got != diag.StatusIncomplete {
			t.Errorf("incomplete parse triaged as %s", got)
		}
		if !tree.Incomplete && len(tree.Open) > 0 {
			t.Errorf("complete parse reports open delimiters %v", tree.Open)
		}
	})
}

// shape renders node types and spans in walk order.
func shape(n ast.Node) string {
	var b strings.Builder
	ast.Walk(n, func(n ast.Node) bool {
		fmt.Fprintf(&b, "%T%s ", n, n.Span())
		return true
	})
	return b.String()
}
