package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/aledsdavies/nuparse/runtime/diag"
	"github.com/aledsdavies/nuparse/runtime/lexer"
)

func newTokensCmd(a *app) *cobra.Command {
	var (
		command string
		trivia  bool
	)

	cmd := &cobra.Command{
		Use:   "tokens [file]",
		Short: "Print the token stream as a table",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := a.readInput(args, command)
			if err != nil {
				return err
			}
			tokens, diags := lexer.Tokenize(in.Text, lexer.WithLogger(a.logger))
			if err := writeTokenTable(a.stdout, tokens, trivia); err != nil {
				return err
			}
			if len(diags) == 0 {
				return nil
			}
			if err := diag.NewRenderer(in.Text, in.Name, a.useColor).RenderAll(a.stderr, diags); err != nil {
				return err
			}
			if diag.Triage(diags) != diag.StatusOK {
				return errDiagnostics
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&command, "command", "c", "", "Tokenize this text instead of a file")
	cmd.Flags().BoolVar(&trivia, "trivia", false, "Include whitespace and comments")
	return cmd
}

func writeTokenTable(w io.Writer, tokens []lexer.Token, trivia bool) error {
	table := tablewriter.NewTable(w,
		tablewriter.WithRenderer(
			renderer.NewBlueprint(tw.Rendition{Symbols: tw.NewSymbols(tw.StyleASCII)})),
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithTrimSpace(tw.Off),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	).Configure(func(config *tablewriter.Config) {
		config.Row.Formatting.AutoWrap = tw.WrapNone
	})

	table.Header([]string{"#", "Type", "Text", "Span", "Pos", "Notes"})
	for i, tok := range tokens {
		if tok.IsTrivia() && !trivia {
			continue
		}
		row := []string{
			strconv.Itoa(i),
			tok.Type.String(),
			displayText(tok.Text),
			tok.Span.String(),
			tok.Position.String(),
			tokenNotes(tok),
		}
		if err := table.Append(row); err != nil {
			return fmt.Errorf("failed to append row: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}

// displayText quotes text that would break the table layout.
func displayText(text string) string {
	if text == "" || strings.ContainsAny(text, " \t\r\n") {
		return strconv.Quote(text)
	}
	return text
}

func tokenNotes(tok lexer.Token) string {
	var notes []string
	if tok.Glob {
		notes = append(notes, "glob")
	}
	if tok.Unterminated {
		notes = append(notes, "unterminated")
	}
	if tok.InlineValue {
		notes = append(notes, "inline-value")
	}
	if unit := tok.Unit(); unit != "" {
		notes = append(notes, "unit="+unit)
	}
	for _, seg := range tok.Segments {
		notes = append(notes, seg.Kind.String()+"@"+seg.Span.String())
	}
	return strings.Join(notes, " ")
}
