package diag

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/nuparse/core/source"
)

func TestTriagePrefersIncomplete(t *testing.T) {
	tests := []struct {
		name  string
		diags []Diagnostic
		want  Status
	}{
		{"empty", nil, StatusOK},
		{"warnings only", []Diagnostic{{Severity: Warning}}, StatusOK},
		{"error", []Diagnostic{{Severity: Warning}, {Severity: Error}}, StatusError},
		{"incomplete after error", []Diagnostic{{Severity: Error, Fatal: true}, {Severity: Incomplete}}, StatusIncomplete},
		{"incomplete first", []Diagnostic{{Severity: Incomplete}, {Severity: Error}}, StatusIncomplete},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Triage(tt.diags))
		})
	}
}

func TestCollector(t *testing.T) {
	var c Collector
	assert.Nil(t, c.Diagnostics())

	c.Warnf(CodeDuplicateFlag, source.NewSpan(3, 5), "flag --%s given twice", "all")
	c.Errorf(CodeUnknownFlag, source.NewSpan(6, 9), "unknown flag")
	c.Add(New(Error, CodeMismatchedCloser, source.At(10), "unexpected ')'").AsFatal())
	assert.False(t, c.HasIncomplete())
	assert.Equal(t, 3, c.Len())

	c.Merge([]Diagnostic{New(Incomplete, CodeUnclosedDelimiter, source.NewSpan(0, 1), "open")}, 20)
	assert.True(t, c.HasIncomplete())

	got := c.Diagnostics()
	require.Len(t, got, 4)
	assert.Equal(t, "flag --all given twice", got[0].Message)
	assert.Equal(t, source.NewSpan(20, 21), got[3].Span)

	got[0].Message = "mutated"
	assert.Equal(t, "flag --all given twice", c.Diagnostics()[0].Message, "Diagnostics returns a copy")
}

func TestSortIsStable(t *testing.T) {
	diags := []Diagnostic{
		{Message: "b", Span: source.At(5)},
		{Message: "a", Span: source.At(1)},
		{Message: "c", Span: source.At(5)},
	}
	Sort(diags)
	var order []string
	for _, d := range diags {
		order = append(order, d.Message)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, order); diff != "" {
		t.Errorf("sort order mismatch (-expected +actual):\n%s", diff)
	}
}

func TestRendererSnippet(t *testing.T) {
	src := "echo 1\nls --fo\n"
	r := NewRenderer(src, "script.nu", false)
	d := New(Error, CodeUnknownFlag, source.NewSpan(10, 14), "unknown flag --fo").
		WithSuggestion("did you mean --foo?")

	want := strings.Join([]string{
		"error[unknown-flag]: unknown flag --fo",
		"  --> script.nu:2:4",
		"  |",
		"2 | ls --fo",
		"  |    ^^^^",
		"  = help: did you mean --foo?",
		"",
	}, "\n")
	if diff := cmp.Diff(want, r.Format(d)); diff != "" {
		t.Errorf("snippet mismatch (-expected +actual):\n%s", diff)
	}
}

func TestRendererWideCharacters(t *testing.T) {
	src := "echo 日本 --x"
	r := NewRenderer(src, "", false)
	start := strings.Index(src, "--x")
	out := r.Format(New(Warning, CodeDuplicateFlag, source.NewSpan(start, start+3), "dup"))

	lines := strings.Split(out, "\n")
	require.GreaterOrEqual(t, len(lines), 5)
	// "echo " is 5 columns and the two ideographs are 2 columns each.
	assert.Equal(t, "  | "+strings.Repeat(" ", 10)+"~~~", lines[4])
	assert.Equal(t, "  --> 1:9", lines[1])
}

func TestRendererZeroWidthSpan(t *testing.T) {
	r := NewRenderer("{", "", false)
	out := r.Format(New(Incomplete, CodeUnclosedDelimiter, source.At(1), "unclosed '{'").WithNote("opened here"))
	assert.Contains(t, out, "incomplete[unclosed-delimiter]")
	assert.Contains(t, out, "  |  ^")
	assert.Contains(t, out, "= note: opened here")
}

func TestDiagnosticError(t *testing.T) {
	d := New(Error, CodeBadEscape, source.NewSpan(2, 4), "unknown escape %q", `\q`)
	var err error = d
	assert.Equal(t, `error[bad-escape] at 2..4: unknown escape "\\q"`, err.Error())
}
