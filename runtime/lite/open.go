package lite

import "github.com/aledsdavies/nuparse/runtime/lexer"

// OpenDelimiters returns the tokens still waiting to be closed at the end of
// the stream, outermost first: unmatched {, [ and ( followed by an
// unterminated string if there is one. A REPL uses it to pick a
// continuation prompt.
func OpenDelimiters(tokens []lexer.Token) []lexer.Token {
	var stack []lexer.Token
	var open []lexer.Token
	for _, tok := range tokens {
		switch tok.Type {
		case lexer.LBRACE, lexer.LSQUARE, lexer.LPAREN:
			stack = append(stack, tok)
		case lexer.RBRACE, lexer.RSQUARE, lexer.RPAREN:
			for i := len(stack) - 1; i >= 0; i-- {
				if closerText(stack[i].Type) == tok.Text {
					stack = stack[:i]
					break
				}
			}
		case lexer.DQ_STRING, lexer.SQ_STRING:
			if tok.Unterminated {
				open = append(open, tok)
			}
		}
	}
	return append(stack, open...)
}

// Prompt returns a short continuation prompt such as "{[" for the open
// delimiters, or "" when nothing is open.
func Prompt(open []lexer.Token) string {
	out := make([]byte, 0, len(open))
	for _, tok := range open {
		if tok.Text != "" {
			out = append(out, tok.Text[0])
		}
	}
	return string(out)
}
