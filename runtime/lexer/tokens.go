package lexer

import (
	"slices"

	"github.com/aledsdavies/nuparse/core/source"
)

// TokenType represents lexical tokens of the pipeline language.
type TokenType int

const (
	EOF TokenType = iota

	// Trivia
	WHITESPACE // spaces, tabs
	COMMENT    // # to end of line

	// Stage separators
	NEWLINE   // \n or \r\n
	SEMICOLON // ;
	PIPE      // |

	// Delimiters
	LBRACE  // {
	RBRACE  // }
	LSQUARE // [
	RSQUARE // ]
	LPAREN  // (
	RPAREN  // )
	COMMA   // ,

	// Path access and ranges, only directly after an operand
	DOT   // .
	RANGE // .. or ..<

	// Flags
	LONG_FLAG  // --name or --name=
	SHORT_FLAG // -n or -abc

	// Values
	VARIABLE  // $name
	DQ_STRING // "text with $interp and \escapes"
	SQ_STRING // 'verbatim text'
	BAREWORD  // anything else up to a word boundary
	NUMBER    // 42, -1.5e3, 10kb, 3sec
	OPERATOR  // == != =~ !~ <= >= < > + - * / =
)

var tokenTypeNames = [...]string{
	EOF:        "EOF",
	WHITESPACE: "WHITESPACE",
	COMMENT:    "COMMENT",
	NEWLINE:    "NEWLINE",
	SEMICOLON:  "SEMICOLON",
	PIPE:       "PIPE",
	LBRACE:     "LBRACE",
	RBRACE:     "RBRACE",
	LSQUARE:    "LSQUARE",
	RSQUARE:    "RSQUARE",
	LPAREN:     "LPAREN",
	RPAREN:     "RPAREN",
	COMMA:      "COMMA",
	DOT:        "DOT",
	RANGE:      "RANGE",
	LONG_FLAG:  "LONG_FLAG",
	SHORT_FLAG: "SHORT_FLAG",
	VARIABLE:   "VARIABLE",
	DQ_STRING:  "DQ_STRING",
	SQ_STRING:  "SQ_STRING",
	BAREWORD:   "BAREWORD",
	NUMBER:     "NUMBER",
	OPERATOR:   "OPERATOR",
}

func (t TokenType) String() string {
	if t < 0 || int(t) >= len(tokenTypeNames) {
		return "UNKNOWN"
	}
	return tokenTypeNames[t]
}

// SegmentKind tells what an interpolation segment inside a string holds.
type SegmentKind int

const (
	SegmentVariable SegmentKind = iota // $name
	SegmentSubExpr                     // $( ... )
)

func (k SegmentKind) String() string {
	if k == SegmentSubExpr {
		return "subexpr"
	}
	return "variable"
}

// Segment is an interpolation site inside a double-quoted string. The span
// is absolute and covers the whole "$name" or "$( ... )" text.
type Segment struct {
	Kind SegmentKind
	Span source.Span
}

// Token is one lexical unit. Text is always the exact source slice.
type Token struct {
	Type           TokenType
	Text           string
	Span           source.Span
	Position       source.Position
	HasSpaceBefore bool // true if whitespace or a newline preceded this token

	Glob         bool      // BAREWORD contains *, ? or a [...] class
	Unterminated bool      // string reached end of input before its closing quote
	InlineValue  bool      // LONG_FLAG written as --name=
	UnitOffset   int       // NUMBER: byte offset into Text where the unit suffix starts, -1 when absent
	Segments     []Segment // DQ_STRING interpolation sites
}

func (t Token) String() string {
	return t.Text
}

// Is reports whether the token has one of the given types.
func (t Token) Is(types ...TokenType) bool {
	return slices.Contains(types, t.Type)
}

// IsTrivia reports whitespace and comments.
func (t Token) IsTrivia() bool {
	return t.Type == WHITESPACE || t.Type == COMMENT
}

// IsString reports either quoting style.
func (t Token) IsString() bool {
	return t.Type == DQ_STRING || t.Type == SQ_STRING
}

// Mantissa returns the numeric part of a NUMBER token.
func (t Token) Mantissa() string {
	if t.Type != NUMBER || t.UnitOffset < 0 {
		return t.Text
	}
	return t.Text[:t.UnitOffset]
}

// Unit returns the unit suffix of a NUMBER token, or "".
func (t Token) Unit() string {
	if t.Type != NUMBER || t.UnitOffset < 0 {
		return ""
	}
	return t.Text[t.UnitOffset:]
}

// FlagName returns the name of a LONG_FLAG without dashes or "=".
func (t Token) FlagName() string {
	switch t.Type {
	case LONG_FLAG:
		name := t.Text[2:]
		if t.InlineValue {
			name = name[:len(name)-1]
		}
		return name
	case SHORT_FLAG:
		return t.Text[1:]
	}
	return ""
}

// StringBody returns the content between the quotes of a string token,
// without the closing quote when the string is unterminated.
func (t Token) StringBody() string {
	if !t.IsString() || len(t.Text) == 0 {
		return t.Text
	}
	body := t.Text[1:]
	if !t.Unterminated && len(body) > 0 {
		body = body[:len(body)-1]
	}
	return body
}
