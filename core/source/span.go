// Package source tracks provenance of tokens and nodes: byte spans into the
// parsed text and their line/column positions.
package source

import "fmt"

// Span is a half-open byte range [Start, End) into the source text.
type Span struct {
	Start int
	End   int
}

// NewSpan returns the span [start, end). A reversed range is normalized.
func NewSpan(start, end int) Span {
	if end < start {
		start, end = end, start
	}
	return Span{Start: start, End: end}
}

// At returns the zero-width span at offset.
func At(offset int) Span {
	return Span{Start: offset, End: offset}
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// IsEmpty reports whether the span covers no bytes.
func (s Span) IsEmpty() bool {
	return s.End <= s.Start
}

// Contains reports whether other lies entirely within s.
func (s Span) Contains(other Span) bool {
	return s.Start <= other.Start && other.End <= s.End
}

// ContainsOffset reports whether offset falls inside [Start, End).
func (s Span) ContainsOffset(offset int) bool {
	return s.Start <= offset && offset < s.End
}

// Overlaps reports whether the two spans share at least one byte.
func (s Span) Overlaps(other Span) bool {
	return s.Start < other.End && other.Start < s.End
}

// Cover returns the smallest span containing both s and other.
func (s Span) Cover(other Span) Span {
	return Span{Start: min(s.Start, other.Start), End: max(s.End, other.End)}
}

// Shift moves the span by delta bytes.
func (s Span) Shift(delta int) Span {
	return Span{Start: s.Start + delta, End: s.End + delta}
}

// Slice returns the text covered by the span, clamped to src.
func (s Span) Slice(src string) string {
	start := min(max(s.Start, 0), len(src))
	end := min(max(s.End, start), len(src))
	return src[start:end]
}

// String returns the span as "start..end".
func (s Span) String() string {
	return fmt.Sprintf("%d..%d", s.Start, s.End)
}

// CoverAll returns the smallest span containing every span, or the zero span
// when none are given.
func CoverAll(spans ...Span) Span {
	if len(spans) == 0 {
		return Span{}
	}
	out := spans[0]
	for _, s := range spans[1:] {
		out = out.Cover(s)
	}
	return out
}
