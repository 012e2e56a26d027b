package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/k0kubun/pp/v3"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/aledsdavies/nuparse/core/treefmt"
	"github.com/aledsdavies/nuparse/runtime/diag"
	"github.com/aledsdavies/nuparse/runtime/parser"
)

var treeFormats = []string{"sexpr", "json", "cbor", "hash", "pp"}

func newParseCmd(a *app) *cobra.Command {
	var (
		command   string
		format    string
		spans     bool
		telemetry bool
	)

	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse a script and print its expression tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !lo.Contains(treeFormats, format) {
				return &CLIError{
					Type:    "usage",
					Message: fmt.Sprintf("unknown format %q", format),
					Hint:    "use one of " + strings.Join(treeFormats, ", "),
				}
			}
			in, err := a.readInput(args, command)
			if err != nil {
				return err
			}

			var extra []parser.ParserOpt
			if telemetry {
				extra = append(extra, parser.WithTelemetryTiming())
			}
			tree := parser.Parse(in.Text, a.registry, a.parserOptions(extra...)...)

			if err := a.writeTree(a.stdout, tree, format, spans); err != nil {
				return err
			}
			if telemetry {
				writeTelemetry(a.stderr, tree.Telemetry)
			}
			return a.report(in, tree)
		},
	}

	cmd.Flags().StringVarP(&command, "command", "c", "", "Parse this text instead of a file")
	cmd.Flags().StringVarP(&format, "format", "o", "sexpr", "Output format: "+strings.Join(treeFormats, ", "))
	cmd.Flags().BoolVar(&spans, "spans", false, "Include byte spans in sexpr output")
	cmd.Flags().BoolVar(&telemetry, "telemetry", false, "Print phase timings to stderr")
	return cmd
}

func (a *app) writeTree(w io.Writer, tree *parser.ParseTree, format string, spans bool) error {
	switch format {
	case "json":
		return treefmt.WriteJSON(w, tree.Root)
	case "cbor":
		data, err := treefmt.Canonicalize(tree.Root).MarshalBinary()
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case "hash":
		sum, err := treefmt.Canonicalize(tree.Root).Hash()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, hex.EncodeToString(sum[:]))
		return err
	case "pp":
		printer := pp.New()
		printer.SetColoringEnabled(a.useColor)
		printer.SetExportedOnly(true)
		_, err := printer.Fprintln(w, tree.Root)
		return err
	default:
		return treefmt.Write(w, tree.Root, spans)
	}
}

func writeTelemetry(w io.Writer, t *parser.ParseTelemetry) {
	if t == nil {
		return
	}
	_, _ = fmt.Fprintf(w, "lex %v, group %v, expand %v, total %v\n", t.LexTime, t.GroupTime, t.ExpandTime, t.TotalTime)
	_, _ = fmt.Fprintf(w, "%d tokens, %d stages, %d calls, %d diagnostics\n", t.TokenCount, t.StageCount, t.CallCount, t.DiagnosticCount)
}

// report prints the diagnostics of tree to stderr. It returns errDiagnostics
// when the input has errors or is incomplete.
func (a *app) report(in input, tree *parser.ParseTree) error {
	if len(tree.Diagnostics) > 0 {
		r := diag.NewRenderer(in.Text, in.Name, a.useColor)
		if err := r.RenderAll(a.stderr, tree.Diagnostics); err != nil {
			return err
		}
	}
	if tree.Status() != diag.StatusOK {
		return errDiagnostics
	}
	return nil
}
