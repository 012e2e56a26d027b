package diag

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/aledsdavies/nuparse/core/source"
)

// Renderer prints diagnostics as Rust/Clang-style source snippets:
//
//	error[unknown-flag]: unknown flag --fo
//	  --> script.nu:1:4
//	  |
//	1 | ls --fo
//	  |    ^^^^
//	  = help: did you mean --foo?
type Renderer struct {
	Filename string
	Color    bool

	index *source.LineIndex
}

// NewRenderer prepares a renderer for diagnostics over src.
func NewRenderer(src, filename string, useColor bool) *Renderer {
	return &Renderer{
		Filename: filename,
		Color:    useColor,
		index:    source.NewLineIndex(src),
	}
}

// RenderAll writes every diagnostic followed by a blank line.
func (r *Renderer) RenderAll(w io.Writer, diags []Diagnostic) error {
	for _, d := range diags {
		if _, err := io.WriteString(w, r.Format(d)+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// Format renders one diagnostic.
func (r *Renderer) Format(d Diagnostic) string {
	var b strings.Builder

	sevColor := r.paint(severityAttrs(d.Severity)...)
	bold := r.paint(color.Bold)
	blue := r.paint(color.FgBlue, color.Bold)

	header := d.Severity.String()
	if d.Fatal {
		header = "fatal " + header
	}
	fmt.Fprintf(&b, "%s%s %s\n",
		sevColor.Sprintf("%s[%s]", header, d.Code), bold.Sprint(":"), bold.Sprint(d.Message))

	pos := r.index.Position(d.Span.Start)
	location := pos.String()
	if r.Filename != "" {
		location = r.Filename + ":" + location
	}

	lineText := r.index.LineText(pos.Line)
	gutter := len(fmt.Sprint(pos.Line))
	pad := strings.Repeat(" ", gutter)

	fmt.Fprintf(&b, "%s %s %s\n", pad, blue.Sprint("-->"), location)
	fmt.Fprintf(&b, "%s %s\n", pad, blue.Sprint("|"))
	fmt.Fprintf(&b, "%s %s %s\n", blue.Sprint(pos.Line), blue.Sprint("|"), lineText)

	lineStart := r.index.LineStart(pos.Line)
	prefix := lineText[:min(max(d.Span.Start-lineStart, 0), len(lineText))]
	underlined := ""
	if end := min(d.Span.End-lineStart, len(lineText)); end > len(prefix) {
		underlined = lineText[len(prefix):end]
	}
	width := max(runewidth.StringWidth(underlined), 1)

	marker := "^"
	if d.Severity == Warning {
		marker = "~"
	}
	fmt.Fprintf(&b, "%s %s %s%s", pad, blue.Sprint("|"),
		strings.Repeat(" ", runewidth.StringWidth(prefix)),
		sevColor.Sprint(strings.Repeat(marker, width)))
	if d.Context != "" {
		fmt.Fprintf(&b, " %s", d.Context)
	}
	b.WriteString("\n")

	if d.Suggestion != "" {
		fmt.Fprintf(&b, "%s %s %s %s\n", pad, blue.Sprint("="), bold.Sprint("help:"), d.Suggestion)
	}
	if d.Note != "" {
		fmt.Fprintf(&b, "%s %s %s %s\n", pad, blue.Sprint("="), bold.Sprint("note:"), d.Note)
	}
	return b.String()
}

func (r *Renderer) paint(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if r.Color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

func severityAttrs(s Severity) []color.Attribute {
	switch s {
	case Incomplete:
		return []color.Attribute{color.FgCyan, color.Bold}
	case Warning:
		return []color.Attribute{color.FgYellow, color.Bold}
	default:
		return []color.Attribute{color.FgRed, color.Bold}
	}
}
