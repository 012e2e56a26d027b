package literal

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/aledsdavies/nuparse/core/source"
	"github.com/aledsdavies/nuparse/runtime/diag"
)

// Escapes (double-quoted strings only)
//
//	\"  quote          \\  backslash      \/  slash
//	\n  newline        \t  tab            \r  carriage return
//	\b  backspace      \f  form feed      \0  NUL
//	\$  dollar (suppresses interpolation)
//	\'  single quote
//	\u{XXXX}  Unicode scalar value, 1 to 6 hex digits
//
// Any other escape is an error; the backslash and character are kept as
// written so the string is still usable.
var simpleEscapes = map[byte]byte{
	'"':  '"',
	'\\': '\\',
	'/':  '/',
	'n':  '\n',
	't':  '\t',
	'r':  '\r',
	'b':  '\b',
	'f':  '\f',
	'0':  0,
	'$':  '$',
	'\'': '\'',
}

// Unescape processes escapes in text, which starts at absolute offset base.
func Unescape(text string, base int) (string, []diag.Diagnostic) {
	if strings.IndexByte(text, '\\') < 0 {
		return text, nil
	}

	var b strings.Builder
	var diags []diag.Diagnostic
	b.Grow(len(text))

	for i := 0; i < len(text); i++ {
		c := text[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		if i+1 >= len(text) {
			b.WriteByte('\\')
			break
		}

		next := text[i+1]
		if r, ok := simpleEscapes[next]; ok {
			b.WriteByte(r)
			i++
			continue
		}

		if next == 'u' {
			if r, n, ok := unicodeEscape(text[i:]); ok {
				b.WriteRune(r)
				i += n - 1
				continue
			}
		}

		_, size := utf8.DecodeRuneInString(text[i+1:])
		span := source.NewSpan(base+i, base+i+1+size)
		diags = append(diags, diag.New(diag.Error, diag.CodeBadEscape, span,
			"unknown escape sequence %q", text[i:i+1+size]).
			WithNote(`supported escapes: \" \\ \/ \n \t \r \b \f \0 \$ \' \u{hex}`))
		b.WriteString(text[i : i+1+size])
		i += size
	}
	return b.String(), diags
}

// unicodeEscape decodes \u{XXXX} at the start of s and returns the rune and
// the number of bytes consumed.
func unicodeEscape(s string) (rune, int, bool) {
	if !strings.HasPrefix(s, `\u{`) {
		return 0, 0, false
	}
	end := strings.IndexByte(s, '}')
	if end < 4 || end > 9 {
		return 0, 0, false
	}
	v, err := strconv.ParseUint(s[3:end], 16, 32)
	if err != nil || !utf8.ValidRune(rune(v)) {
		return 0, 0, false
	}
	return rune(v), end + 1, true
}
