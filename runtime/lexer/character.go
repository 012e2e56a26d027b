package lexer

// ASCII character lookup tables for fast classification.
//
// Use inline bounds-checked lookups:
//
//	if ch < 128 && isDigit[ch] { ... }
//
// Bytes >= 128 belong to multi-byte runes and are always word characters.
var (
	isWhitespace  [128]bool // space, tab, carriage return, form feed, vertical tab
	isDigit       [128]bool // 0-9
	isAlpha       [128]bool // a-z, A-Z
	isIdentStart  [128]bool // letter or _
	isIdentPart   [128]bool // letter, digit, _ or -
	isInterpPart  [128]bool // identifier characters allowed in "$name" inside strings
	isWordEnd     [128]bool // characters that terminate a bareword
	isBoundaryEnd [128]bool // characters after which a flag, comment or signed number may start
)

func init() {
	for i := 0; i < 128; i++ {
		ch := byte(i)

		isWhitespace[i] = ch == ' ' || ch == '\t' || ch == '\r' || ch == '\f' || ch == '\v'
		isDigit[i] = '0' <= ch && ch <= '9'
		isAlpha[i] = ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
		isIdentStart[i] = isAlpha[i] || ch == '_'
		isIdentPart[i] = isIdentStart[i] || isDigit[i] || ch == '-'
		isInterpPart[i] = isIdentStart[i] || isDigit[i]

		switch ch {
		case '\n', '|', ';', '{', '}', '[', ']', '(', ')', ',':
			isWordEnd[i] = true
		}
		isWordEnd[i] = isWordEnd[i] || isWhitespace[i]

		switch ch {
		case '\n', '|', ';', '{', '[', '(', ',':
			isBoundaryEnd[i] = true
		}
		isBoundaryEnd[i] = isBoundaryEnd[i] || isWhitespace[i]
	}
}

func wordEndAt(input string, i int) bool {
	return i >= len(input) || (input[i] < 128 && isWordEnd[input[i]])
}

func digitAt(input string, i int) bool {
	return i < len(input) && input[i] < 128 && isDigit[input[i]]
}

func alphaAt(input string, i int) bool {
	return i < len(input) && input[i] < 128 && isAlpha[input[i]]
}

func identStartAt(input string, i int) bool {
	return i < len(input) && input[i] < 128 && isIdentStart[input[i]]
}
