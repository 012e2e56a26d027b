package main

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type run struct {
	stdout string
	stderr string
	err    error
}

// execute runs the CLI against an in-memory file system.
func execute(t *testing.T, fs afero.Fs, stdin string, args ...string) run {
	t.Helper()
	if fs == nil {
		fs = afero.NewMemMapFs()
	}
	var stdout, stderr bytes.Buffer
	a := newApp(fs, strings.NewReader(stdin), &stdout, &stderr)
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return run{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func writeFiles(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, text := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(text), 0o644))
	}
	return fs
}

func TestParseCommand(t *testing.T) {
	res := execute(t, nil, "", "parse", "-c", "echo 1 | str length")
	require.NoError(t, res.err)
	assert.Empty(t, res.stderr)

	expected := heredoc.Doc(`
		(pipeline
		  (stage none
		    (call echo
		      (positional rest
		        (int 1))))
		  (stage pipe
		    (call "str length")))
	`)
	assert.Equal(t, expected, res.stdout)
}

func TestParseReadsFilesAndStdin(t *testing.T) {
	fs := writeFiles(t, map[string]string{"script.nu": "ls -a\n"})

	fromFile := execute(t, fs, "", "parse", "script.nu")
	require.NoError(t, fromFile.err)
	assert.Contains(t, fromFile.stdout, "(call ls")
	assert.Contains(t, fromFile.stdout, "(flag --all")

	fromStdin := execute(t, fs, "ls -a\n", "parse")
	require.NoError(t, fromStdin.err)
	assert.Equal(t, fromFile.stdout, fromStdin.stdout)

	dash := execute(t, fs, "ls -a\n", "parse", "-")
	require.NoError(t, dash.err)
	assert.Equal(t, fromFile.stdout, dash.stdout)
}

func TestParseMissingFile(t *testing.T) {
	res := execute(t, nil, "", "parse", "nope.nu")
	require.Error(t, res.err)

	var cliErr *CLIError
	require.ErrorAs(t, res.err, &cliErr)
	assert.Equal(t, "input", cliErr.Type)
	assert.Equal(t, ExitIOError, exitCode(res.err))
}

func TestParseReportsDiagnostics(t *testing.T) {
	fs := writeFiles(t, map[string]string{"bad.nu": "ls --dpth 2"})
	res := execute(t, fs, "", "parse", "bad.nu")

	assert.ErrorIs(t, res.err, errDiagnostics)
	assert.Equal(t, ExitParseError, exitCode(res.err))
	assert.Contains(t, res.stderr, "error[unknown-flag]")
	assert.Contains(t, res.stderr, "bad.nu:1:4")
	assert.Contains(t, res.stdout, "(call ls", "the tree is printed even when the input has errors")
}

func TestParseIncompleteInputFails(t *testing.T) {
	res := execute(t, nil, "", "parse", "-c", "each { echo 1")
	assert.ErrorIs(t, res.err, errDiagnostics)
	assert.Contains(t, res.stderr, "unclosed-delimiter")
}

func TestParseFormats(t *testing.T) {
	res := execute(t, nil, "", "parse", "-c", "echo 1", "-o", "json")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, `"pipeline"`)
	assert.Contains(t, res.stdout, `"echo"`)

	first := execute(t, nil, "", "parse", "-c", "ls | where size > 1kb", "-o", "hash")
	second := execute(t, nil, "", "parse", "-c", "ls | where size > 1kb", "-o", "hash")
	require.NoError(t, first.err)
	assert.Equal(t, first.stdout, second.stdout)
	sum, err := hex.DecodeString(strings.TrimSpace(first.stdout))
	require.NoError(t, err)
	assert.Len(t, sum, 32)

	res = execute(t, nil, "", "parse", "-c", "echo 1", "-o", "cbor")
	require.NoError(t, res.err)
	assert.NotEmpty(t, res.stdout)

	res = execute(t, nil, "", "parse", "-c", "echo 1", "-o", "pp")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Pipeline")

	res = execute(t, nil, "", "parse", "-c", "echo 1", "-o", "yaml")
	var cliErr *CLIError
	require.ErrorAs(t, res.err, &cliErr)
	assert.Contains(t, cliErr.Hint, "sexpr")
}

func TestParseSpansAndTelemetry(t *testing.T) {
	res := execute(t, nil, "", "parse", "-c", "pwd", "--spans", "--telemetry")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "(pipeline @0..3")
	assert.Contains(t, res.stderr, "1 calls")
}

func TestGlobalFlags(t *testing.T) {
	res := execute(t, nil, "", "parse", "--strict", "-c", "echo $x")
	require.NoError(t, res.err, "warnings do not fail the parse")
	assert.Contains(t, res.stderr, "unresolved-variable")

	res = execute(t, nil, "", "parse", "--strict", "--global", "x", "-c", "echo $x")
	require.NoError(t, res.err)
	assert.NotContains(t, res.stderr, "unresolved-variable")

	res = execute(t, nil, "", "parse", "--hints", "-c", "sleeep 1s")
	require.NoError(t, res.err)
	assert.Contains(t, res.stderr, "did you mean")
}

func TestCustomSignatures(t *testing.T) {
	fs := writeFiles(t, map[string]string{
		"sigs.yaml": heredoc.Doc(`
			version: v1.2.0
			commands:
			  - name: deploy
			    positional:
			      - {name: target, shape: string}
			    flags:
			      - {name: force, short: f}
		`),
		"broken.yaml": "version: v2.0.0\ncommands: []\n",
	})

	res := execute(t, fs, "", "parse", "--signatures", "sigs.yaml", "-c", "deploy prod -f")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "(call deploy")
	assert.Contains(t, res.stdout, "(flag --force")

	res = execute(t, fs, "", "parse", "--signatures", "sigs.yaml", "-c", "ls")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "(external ls", "builtin signatures are replaced")

	res = execute(t, fs, "", "parse", "--signatures", "broken.yaml", "-c", "ls")
	assert.Equal(t, ExitSignatureError, exitCode(res.err))

	res = execute(t, fs, "", "parse", "--signatures", "missing.yaml", "-c", "ls")
	assert.Equal(t, ExitSignatureError, exitCode(res.err))
}

func TestBuiltinSignaturesLoad(t *testing.T) {
	a := newApp(afero.NewMemMapFs(), nil, &bytes.Buffer{}, &bytes.Buffer{})
	require.NoError(t, a.setup())
	for _, name := range []string{"ls", "where", "each", "let", "str length"} {
		_, ok := a.registry.Lookup(name)
		assert.True(t, ok, name)
	}
}

func TestTokensCommand(t *testing.T) {
	res := execute(t, nil, "", "tokens", "-c", `ls --depth= 2 *.go "a $x"`)
	require.NoError(t, res.err)
	for _, want := range []string{"BAREWORD", "LONG_FLAG", "inline-value", "glob", "DQ_STRING", "variable@"} {
		assert.Contains(t, res.stdout, want)
	}
	assert.NotContains(t, res.stdout, "WHITESPACE")

	res = execute(t, nil, "", "tokens", "--trivia", "-c", "ls # c")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "WHITESPACE")
	assert.Contains(t, res.stdout, "COMMENT")

	res = execute(t, nil, "", "tokens", "-c", `echo "abc`)
	assert.ErrorIs(t, res.err, errDiagnostics)
	assert.Contains(t, res.stdout, "unterminated")
}

func TestCheckCommand(t *testing.T) {
	fs := writeFiles(t, map[string]string{
		"good.nu":    "ls -la | where size > 10kb\n",
		"bad.nu":     "first 1 2\n",
		"open.nu":    "each {\n",
		"warning.nu": "echo $nope\n",
	})

	res := execute(t, fs, "", "check", "good.nu", "bad.nu", "open.nu", "missing.nu", "good.nu")
	assert.ErrorIs(t, res.err, errDiagnostics)

	expected := heredoc.Doc(`
		good.nu: ok
		bad.nu: 1 error
		open.nu: incomplete
		missing.nu: unreadable
	`)
	assert.Equal(t, expected, res.stdout)
	assert.Contains(t, res.stderr, "excess-argument")
	assert.Contains(t, res.stderr, "error opening file missing.nu")

	res = execute(t, fs, "", "check", "--strict", "good.nu", "warning.nu")
	require.NoError(t, res.err)
	assert.Equal(t, "good.nu: ok\nwarning.nu: ok (1 warning)\n", res.stdout)
}

func TestShapesCommand(t *testing.T) {
	res := execute(t, nil, "", "shapes", "-c", "ls -a | git log")
	require.NoError(t, res.err)

	lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, `0..2       internal-command  "ls"`, lines[0])
	assert.Contains(t, lines[3], "external-command")
	assert.Contains(t, lines[4], "external-word")

	res = execute(t, nil, "", "shapes", "--all", "-c", "ls -a")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "whitespace")

	res = execute(t, nil, "", "shapes", "--highlight", "-c", "ls -a")
	require.NoError(t, res.err)
	assert.Equal(t, "ls -a\n", res.stdout, "no color when stdout is not a terminal")
}

func TestFormatError(t *testing.T) {
	var b bytes.Buffer
	FormatError(&b, &CLIError{Type: "input", Message: "no input", Details: "stdin is a terminal", Hint: "pipe a script"}, false)
	assert.Equal(t, "Error: no input\n\nstdin is a terminal\nHint: pipe a script\n", b.String())

	b.Reset()
	FormatError(&b, errDiagnostics, false)
	assert.Empty(t, b.String(), "diagnostics were already printed")

	b.Reset()
	FormatError(&b, assert.AnError, false)
	assert.Equal(t, "Error: "+assert.AnError.Error()+"\n", b.String())

	assert.Equal(t, "a\nb\nc", (&CLIError{Message: "a", Details: "b", Hint: "c"}).Error())
}

func TestExitCodes(t *testing.T) {
	assert.Equal(t, ExitSuccess, exitCode(nil))
	assert.Equal(t, ExitParseError, exitCode(errDiagnostics))
	assert.Equal(t, ExitIOError, exitCode(&CLIError{Type: "input"}))
	assert.Equal(t, ExitSignatureError, exitCode(&CLIError{Type: "signatures"}))
	assert.Equal(t, ExitInvalidArguments, exitCode(assert.AnError))
}
