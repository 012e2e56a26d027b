package shapes

import (
	"strings"

	"github.com/fatih/color"
)

// Palette maps shape kinds to terminal colors. Kinds without an entry are
// printed plain.
type Palette map[Kind]*color.Color

// DefaultPalette is the REPL color scheme.
func DefaultPalette() Palette {
	return Palette{
		Comment:         color.New(color.FgHiBlack),
		Pipe:            color.New(color.FgHiMagenta),
		Separator:       color.New(color.FgHiMagenta),
		Operator:        color.New(color.FgYellow),
		Range:           color.New(color.FgYellow),
		InternalCommand: color.New(color.FgCyan, color.Bold),
		ExternalCommand: color.New(color.FgCyan),
		Flag:            color.New(color.FgBlue, color.Bold),
		ShorthandFlag:   color.New(color.FgBlue, color.Bold),
		Int:             color.New(color.FgMagenta),
		Decimal:         color.New(color.FgMagenta),
		Size:            color.New(color.FgMagenta),
		String:          color.New(color.FgGreen),
		Variable:        color.New(color.FgHiBlue),
		ItVariable:      color.New(color.FgHiBlue, color.Bold),
		Member:          color.New(color.FgHiCyan),
		GlobPattern:     color.New(color.FgHiYellow),
		BlockParam:      color.New(color.FgHiBlue),
		Type:            color.New(color.FgHiCyan),
		Error:           color.New(color.FgRed, color.Underline),
	}
}

// Highlight paints src using shapes computed for it.
func Highlight(src string, shapes []Shape, p Palette) string {
	var b strings.Builder
	b.Grow(len(src) * 2)
	last := 0
	for _, s := range shapes {
		if s.Span.Start < last || s.Span.End > len(src) {
			continue
		}
		b.WriteString(src[last:s.Span.Start])
		text := s.Span.Slice(src)
		if c, ok := p[s.Kind]; ok {
			b.WriteString(c.Sprint(text))
		} else {
			b.WriteString(text)
		}
		last = s.Span.End
	}
	b.WriteString(src[last:])
	return b.String()
}
