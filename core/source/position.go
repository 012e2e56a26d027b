package source

import (
	"fmt"
	"sort"
	"unicode/utf8"
)

// Position represents a position in the source code
type Position struct {
	Line   int // 1-based line number
	Column int // 1-based column number (runes, a multi-byte rune is one column)
	Offset int // 0-based byte offset
}

// String returns "line:column".
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// LineIndex maps byte offsets to line/column positions.
// It is built once per source text and is safe for concurrent reads.
type LineIndex struct {
	text   string
	starts []int // byte offset of the first byte of each line
}

// NewLineIndex indexes the line starts of text.
func NewLineIndex(text string) *LineIndex {
	starts := make([]int, 1, 16)
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{text: text, starts: starts}
}

// Text returns the indexed source.
func (li *LineIndex) Text() string {
	return li.text
}

// LineCount returns the number of lines (an empty text has one line).
func (li *LineIndex) LineCount() int {
	return len(li.starts)
}

// Position converts a byte offset into a Position. Offsets outside the text
// are clamped to the nearest valid offset.
func (li *LineIndex) Position(offset int) Position {
	offset = min(max(offset, 0), len(li.text))

	// Index of the last line start <= offset
	line := sort.Search(len(li.starts), func(i int) bool {
		return li.starts[i] > offset
	}) - 1

	lineStart := li.starts[line]
	column := utf8.RuneCountInString(li.text[lineStart:offset]) + 1

	return Position{Line: line + 1, Column: column, Offset: offset}
}

// LineText returns the text of a 1-based line without its trailing newline.
func (li *LineIndex) LineText(line int) string {
	if line < 1 || line > len(li.starts) {
		return ""
	}
	start := li.starts[line-1]
	end := len(li.text)
	if line < len(li.starts) {
		end = li.starts[line] - 1
	}
	if end > start && li.text[end-1] == '\r' {
		end--
	}
	return li.text[start:end]
}

// LineStart returns the byte offset where a 1-based line begins.
func (li *LineIndex) LineStart(line int) int {
	if line < 1 {
		return 0
	}
	if line > len(li.starts) {
		return len(li.text)
	}
	return li.starts[line-1]
}
