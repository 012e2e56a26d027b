package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/nuparse/runtime/shapes"
)

func newTestRepl(t *testing.T, format string) (*repl, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	a := newApp(afero.NewMemMapFs(), nil, &stdout, &stderr)
	require.NoError(t, a.setup())
	r, err := newRepl(a, format, 16)
	require.NoError(t, err)
	return r, &stdout, &stderr
}

func TestReplContinuation(t *testing.T) {
	r, _, _ := newTestRepl(t, "sexpr")

	tests := []struct {
		src      string
		complete bool
		prompt   string
	}{
		{"ls -a", true, replPrompt},
		{"each { |x|", false, " {> "},
		{"echo [1, (ls", false, "[(> "},
		{`echo "abc`, false, " \"> "},
		{"ls |", false, "  > "},
		{"each { echo 1 }", true, replPrompt},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assert.Equal(t, tt.complete, r.complete(tt.src))
			lnum := 1
			if tt.complete {
				lnum = 0
			}
			assert.Equal(t, tt.prompt, r.prompt(lnum))
		})
	}
}

func TestReplEval(t *testing.T) {
	r, stdout, stderr := newTestRepl(t, "sexpr")

	r.eval(stdout, "pwd")
	assert.Equal(t, "(pipeline\n  (stage none\n    (call pwd)))\n", stdout.String())
	assert.Empty(t, stderr.String())

	stdout.Reset()
	r.eval(stdout, "ls --nope")
	assert.Contains(t, stderr.String(), "<repl>:1:4")

	stdout.Reset()
	r.eval(stdout, ":stats")
	assert.Equal(t, "cache: 2 entries, 0 hits, 2 misses\n", stdout.String())

	r.eval(&bytes.Buffer{}, "pwd")
	assert.Equal(t, uint64(1), r.cache.Stats().Hits)
}

func TestReplRejectsBinaryFormat(t *testing.T) {
	a := newApp(afero.NewMemMapFs(), nil, &bytes.Buffer{}, &bytes.Buffer{})
	require.NoError(t, a.setup())

	_, err := newRepl(a, "cbor", 16)
	assert.Error(t, err)
	r, err := newRepl(a, "json", 0)
	require.NoError(t, err, "a zero size falls back to the default")
	assert.Equal(t, "json", r.format)
}

func TestReplNeedsTerminal(t *testing.T) {
	r, _, _ := newTestRepl(t, "sexpr")
	err := r.run(context.Background(), false)

	var cliErr *CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Contains(t, cliErr.Message, "not a terminal")
}

func TestReplHighlights(t *testing.T) {
	r, _, _ := newTestRepl(t, "sexpr")

	cmd := r.kindPattern(shapes.InternalCommand)
	assert.Equal(t, [][]int{{0, 2}, {8, 13}}, cmd.FindAllStringIndex("ls -a | where $it > 1", -1))

	flags := r.kindPattern(shapes.ShorthandFlag)
	assert.Equal(t, [][]int{{3, 5}}, flags.FindAllStringIndex("ls -a | where $it > 1", -1))

	palette := shapes.Palette{
		shapes.Flag:            color.New(color.FgBlue),
		shapes.InternalCommand: color.New(color.FgCyan),
	}
	hl := r.highlights(palette)
	require.Len(t, hl, 2)
	assert.Equal(t, "\x1b[36m", hl[0].Sequence, "kinds are ordered")
	assert.Equal(t, "\x1b[34m", hl[1].Sequence)
}
