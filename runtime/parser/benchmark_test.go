package parser

import (
	"strings"
	"testing"

	"github.com/aledsdavies/nuparse/runtime/lexer"
	"github.com/aledsdavies/nuparse/runtime/lite"
)

// Benchmark suite for parser performance analysis.
//
// Mirrors the lexer benchmark structure:
// - BenchmarkParserCore: full parse across pipeline complexity levels
// - BenchmarkTelemetryModes: observability overhead
// - BenchmarkParserScaling: linear scaling across input sizes
// - BenchmarkExpandOnly: signature expansion without lexing or grouping

func BenchmarkParserCore(b *testing.B) {
	reg := testRegistry()
	scenarios := map[string]string{
		"empty":    "",
		"simple":   "echo 1 | str length",
		"flags":    "ls -la --depth 3 *.go | where size > 10kb",
		"complex":  generateComplexScript(),
		"external": `git commit -m "fix $name" --amend`,
	}

	for name, input := range scenarios {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = Parse(input, reg)
			}
		})
	}
}

// BenchmarkTelemetryModes measures observability overhead for production vs debugging.
func BenchmarkTelemetryModes(b *testing.B) {
	reg := testRegistry()
	input := generateComplexScript()

	modes := map[string][]ParserOpt{
		"production": {},
		"monitoring": {WithTelemetryBasic()},
		"debugging":  {WithTelemetryTiming(), WithDebugDetailed()},
	}

	for mode, opts := range modes {
		b.Run(mode, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = Parse(input, reg, opts...)
			}
		})
	}
}

// BenchmarkParserScaling should show constant per-stage cost regardless of
// total input size.
func BenchmarkParserScaling(b *testing.B) {
	reg := testRegistry()
	sizes := map[string]int{
		"small":  10,
		"medium": 100,
		"large":  1000,
	}

	for size, lines := range sizes {
		input := generateScalingInput(lines)
		b.Run(size, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(input)))
			for i := 0; i < b.N; i++ {
				_ = Parse(input, reg)
			}
		})
	}
}

func BenchmarkExpandOnly(b *testing.B) {
	reg := testRegistry()
	tokens, _ := lexer.Tokenize(generateComplexScript())
	groups, _, _ := lite.GroupTokens(tokens)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Expand(groups, reg, nil)
	}
}

func generateComplexScript() string {
	return `let limit = 10kb
ls -la --depth=2 *.go
| where size > $limit and name =~ test
| each { |f: string|
	echo "$f: $(str length)" $f.name.0 1..<5
}
^grep -rn "TODO" . ; sleep 1sec`
}

func generateScalingInput(lines int) string {
	var b strings.Builder
	for i := 0; i < lines; i++ {
		b.WriteString("ls -l | where size > 1kb | each { echo $it.name }\n")
	}
	return b.String()
}
