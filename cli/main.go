package main

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/aledsdavies/nuparse/core/signature"
	"github.com/aledsdavies/nuparse/runtime/parser"
)

// Exit code constants
const (
	ExitSuccess          = 0
	ExitInvalidArguments = 1
	ExitIOError          = 2
	ExitParseError       = 3
	ExitSignatureError   = 4
)

//go:embed signatures.yaml
var builtinSignatures []byte

// app holds the streams, file system and global flags shared by every
// subcommand.
type app struct {
	fs     afero.Fs
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	signaturesFile string
	globals        []string
	debug          bool
	noColor        bool
	strict         bool
	hints          bool

	useColor bool
	logger   *slog.Logger
	registry *signature.Registry
}

func newApp(fs afero.Fs, stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{
		fs:     fs,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		logger: slog.New(slog.DiscardHandler),
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := newApp(afero.NewOsFs(), os.Stdin, os.Stdout, os.Stderr)
	err := newRootCmd(a).ExecuteContext(ctx)
	FormatError(os.Stderr, err, a.useColor)
	stop()
	os.Exit(exitCode(err))
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "nuparse",
		Short:         "Parse typed pipeline scripts and report what the parser sees",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	rootCmd.SetIn(a.stdin)
	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)

	// Add flags
	rootCmd.PersistentFlags().StringVar(&a.signaturesFile, "signatures", "", "Path to a command signature registry (YAML)")
	rootCmd.PersistentFlags().StringSliceVar(&a.globals, "global", nil, "Variable names the host defines (repeatable)")
	rootCmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging (also NUPARSE_DEBUG)")
	rootCmd.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&a.strict, "strict", false, "Warn about variables nothing declares")
	rootCmd.PersistentFlags().BoolVar(&a.hints, "hints", false, "Suggest registered commands for unknown names")

	rootCmd.AddCommand(
		newParseCmd(a),
		newTokensCmd(a),
		newCheckCmd(a),
		newShapesCmd(a),
		newReplCmd(a),
	)
	return rootCmd
}

// setup configures logging, color and the signature registry once the
// flags are parsed.
func (a *app) setup() error {
	level := slog.LevelWarn
	if a.debug || os.Getenv("NUPARSE_DEBUG") != "" {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))

	a.useColor = ShouldUseColor(a.noColor, a.stdout)
	color.NoColor = !a.useColor

	reg, err := a.loadRegistry()
	if err != nil {
		return err
	}
	a.registry = reg
	a.logger.Debug("signatures loaded", "source", a.registrySource(), "commands", reg.Len())
	return nil
}

func (a *app) registrySource() string {
	if a.signaturesFile == "" {
		return "builtin"
	}
	return a.signaturesFile
}

func (a *app) loadRegistry() (*signature.Registry, error) {
	data := builtinSignatures
	if a.signaturesFile != "" {
		var err error
		data, err = afero.ReadFile(a.fs, a.signaturesFile)
		if err != nil {
			return nil, &CLIError{
				Type:    "signatures",
				Message: fmt.Sprintf("cannot read signatures file %s", a.signaturesFile),
				Details: err.Error(),
			}
		}
	}
	reg, err := signature.ParseRegistry(data)
	if err != nil {
		return nil, &CLIError{
			Type:    "signatures",
			Message: fmt.Sprintf("invalid signatures in %s", a.registrySource()),
			Details: err.Error(),
			Hint:    "registry files need a v1.x.y version and a commands list",
		}
	}
	return reg, nil
}

// parserOptions turns the global flags into parser options.
func (a *app) parserOptions(extra ...parser.ParserOpt) []parser.ParserOpt {
	opts := []parser.ParserOpt{parser.WithLogger(a.logger)}
	if len(a.globals) > 0 {
		opts = append(opts, parser.WithGlobals(a.globals...))
	}
	if a.strict {
		opts = append(opts, parser.WithStrictVariables())
	}
	if a.hints {
		opts = append(opts, parser.WithCommandHints())
	}
	return append(opts, extra...)
}
