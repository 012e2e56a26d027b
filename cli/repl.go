package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/hymkor/go-multiline-ny"
	"github.com/mattn/go-runewidth"
	"github.com/nyaosorg/go-readline-ny"
	"github.com/nyaosorg/go-readline-ny/keys"
	"github.com/nyaosorg/go-readline-ny/simplehistory"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aledsdavies/nuparse/runtime/cache"
	"github.com/aledsdavies/nuparse/runtime/shapes"
)

const replPrompt = "nu> "

func newReplCmd(a *app) *cobra.Command {
	var (
		format    string
		cacheSize int
		highlight bool
	)

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Read scripts interactively and print their trees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := newRepl(a, format, cacheSize)
			if err != nil {
				return err
			}
			return r.run(cmd.Context(), highlight && a.useColor)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "o", "sexpr", "Output format for each entry")
	cmd.Flags().IntVar(&cacheSize, "cache-size", cache.DefaultSize, "Number of parses kept for highlighting")
	cmd.Flags().BoolVar(&highlight, "highlight", true, "Color the input while typing")
	return cmd
}

// repl parses each submitted entry. An entry is submitted on Enter once it
// has no open delimiters, strings or trailing pipe.
type repl struct {
	a       *app
	cache   *cache.Cache
	format  string
	waiting string // open delimiters of the pending entry
}

func newRepl(a *app, format string, cacheSize int) (*repl, error) {
	if !slices.Contains(treeFormats, format) || format == "cbor" {
		return nil, &CLIError{Type: "usage", Message: fmt.Sprintf("format %q is not available in the repl", format)}
	}
	c, err := cache.New(cacheSize, cache.WithParserOptions(a.parserOptions()...), cache.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}
	return &repl{a: a, cache: c, format: format}, nil
}

func (r *repl) run(ctx context.Context, highlight bool) error {
	out, ok := r.a.stdout.(*os.File)
	if !ok || !term.IsTerminal(int(out.Fd())) {
		return &CLIError{
			Type:    "usage",
			Message: "cannot run the repl: stdout is not a terminal",
			Hint:    "use nuparse parse to read scripts from a pipe",
		}
	}

	ed := &multiline.Editor{}
	ed.LineEditor.Writer = out
	if err := ed.BindKey(keys.CtrlJ, readline.AnonymousCommand(ed.NewLine)); err != nil {
		return err
	}
	history := simplehistory.New()
	ed.SetHistory(history)
	ed.SetHistoryCycling(true)
	ed.SubmitOnEnterWhen(func(lines []string, _ int) bool {
		return r.complete(strings.Join(lines, "\n"))
	})
	ed.SetPrompt(func(w io.Writer, lnum int) (int, error) {
		return io.WriteString(w, r.prompt(lnum))
	})
	if highlight {
		ed.Highlight = r.highlights(shapes.DefaultPalette())
		ed.ResetColor = colorToSequence(color.Reset)
		ed.DefaultColor = colorToSequence(color.Reset)
	}

	for {
		lines, err := ed.Read(ctx)
		switch {
		case errors.Is(err, io.EOF):
			_, _ = fmt.Fprintln(r.a.stdout, "Bye")
			return nil
		case errors.Is(err, readline.CtrlC):
			r.waiting = ""
			continue
		case err != nil:
			return err
		}

		src := strings.Join(lines, "\n")
		if strings.TrimSpace(src) == "" {
			continue
		}
		history.Add(src)
		r.eval(r.a.stdout, src)
	}
}

// complete reports whether src can be submitted and remembers what is
// still open for the continuation prompt.
func (r *repl) complete(src string) bool {
	tree := r.cache.Parse(src, r.a.registry)
	r.waiting = tree.Prompt()
	return !tree.Incomplete
}

// prompt lines up continuation prompts under the primary prompt.
func (r *repl) prompt(lnum int) string {
	if lnum == 0 {
		return replPrompt
	}
	return runewidth.FillLeft(r.waiting+"> ", runewidth.StringWidth(replPrompt))
}

// eval prints the tree and diagnostics of one submitted entry. Lines
// starting with ':' are repl commands.
func (r *repl) eval(w io.Writer, src string) {
	if strings.TrimSpace(src) == ":stats" {
		s := r.cache.Stats()
		_, _ = fmt.Fprintf(w, "cache: %d entries, %d hits, %d misses\n", s.Entries, s.Hits, s.Misses)
		return
	}

	tree := r.cache.Parse(src, r.a.registry)
	if err := r.a.writeTree(w, tree, r.format, false); err != nil {
		FormatError(r.a.stderr, err, r.a.useColor)
		return
	}
	_ = r.a.report(input{Name: "<repl>", Text: src}, tree)
}

// highlighterFunc adapts a function to the pattern interface readline
// highlights use.
type highlighterFunc func(string, int) [][]int

func (f highlighterFunc) FindAllStringIndex(s string, n int) [][]int {
	return f(s, n)
}

// highlights builds one readline highlight per palette entry. Every entry
// reads the same cached parse of the line.
func (r *repl) highlights(p shapes.Palette) []readline.Highlight {
	kinds := make([]shapes.Kind, 0, len(p))
	for k := range p {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)

	out := make([]readline.Highlight, 0, len(kinds))
	for _, kind := range kinds {
		out = append(out, readline.Highlight{
			Pattern:  r.kindPattern(kind),
			Sequence: paletteSequence(p[kind]),
		})
	}
	return out
}

func (r *repl) kindPattern(kind shapes.Kind) highlighterFunc {
	return func(s string, _ int) [][]int {
		var spans [][]int
		for _, sh := range shapes.Compute(r.cache.Parse(s, r.a.registry)) {
			if sh.Kind == kind && !sh.Span.IsEmpty() {
				spans = append(spans, []int{sh.Span.Start, sh.Span.End})
			}
		}
		return spans
	}
}

func colorToSequence(attr ...color.Attribute) string {
	var sb strings.Builder
	color.New(attr...).SetWriter(&sb)
	return sb.String()
}

// paletteSequence extracts the escape sequence c starts with.
func paletteSequence(c *color.Color) string {
	var sb strings.Builder
	painted := *c
	painted.EnableColor()
	painted.SetWriter(&sb)
	return sb.String()
}
