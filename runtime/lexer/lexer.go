// Package lexer turns source text into a flat stream of spanned tokens.
//
// Every byte of the input belongs to exactly one token: whitespace and
// comments are emitted as trivia so the concatenated token spans cover the
// whole input. The lexer never fails; malformed input produces tokens plus
// diagnostics.
package lexer

import (
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aledsdavies/nuparse/core/invariant"
	"github.com/aledsdavies/nuparse/core/source"
	"github.com/aledsdavies/nuparse/runtime/diag"
)

// Lexer scans one input. It is not safe for concurrent use.
type Lexer struct {
	input  string
	pos    int
	line   int
	column int

	prev       Token // last emitted token
	prevMember bool  // last token was a path member after DOT
	afterDot   bool  // next word is a path member
	done       bool

	diags  diag.Collector
	logger *slog.Logger

	// Telemetry (nil when disabled)
	telemetryMode  TelemetryMode
	tokenTelemetry map[TokenType]*TokenTelemetry

	// Debug (nil when disabled)
	debugLevel  DebugLevel
	debugEvents []DebugEvent
}

// Tokenize scans text to the end and returns every token, EOF included,
// along with the lexical diagnostics.
func Tokenize(text string, opts ...LexerOpt) ([]Token, []diag.Diagnostic) {
	l := NewLexer(text, opts...)
	tokens := l.GetTokens()
	return tokens, l.Diagnostics()
}

// NewLexer creates a new lexer instance with optional configuration
func NewLexer(input string, opts ...LexerOpt) *Lexer {
	config := &LexerConfig{}
	for _, opt := range opts {
		opt(config)
	}

	l := &Lexer{
		telemetryMode: config.telemetry,
		debugLevel:    config.debug,
		logger:        config.logger,
	}
	if l.logger == nil {
		l.logger = slog.New(slog.DiscardHandler)
	}
	if config.telemetry > TelemetryOff {
		l.tokenTelemetry = make(map[TokenType]*TokenTelemetry)
	}
	if config.debug > DebugOff {
		l.debugEvents = make([]DebugEvent, 0, 64)
	}

	l.Init(input)
	return l
}

// Init resets the lexer with new input (following Go scanner pattern)
func (l *Lexer) Init(input string) {
	l.input = input
	l.pos = 0
	l.line = 1
	l.column = 1
	l.prev = Token{Type: NEWLINE}
	l.prevMember = false
	l.afterDot = false
	l.done = false
	l.diags = diag.Collector{}

	for k := range l.tokenTelemetry {
		delete(l.tokenTelemetry, k)
	}
	if l.debugEvents != nil {
		l.debugEvents = l.debugEvents[:0]
	}
}

// Diagnostics returns the diagnostics produced so far.
func (l *Lexer) Diagnostics() []diag.Diagnostic {
	return l.diags.Diagnostics()
}

// GetTokenTelemetry returns per-token type telemetry (production safe)
func (l *Lexer) GetTokenTelemetry() map[TokenType]*TokenTelemetry {
	if l.telemetryMode == TelemetryOff || l.tokenTelemetry == nil {
		return nil
	}
	result := make(map[TokenType]*TokenTelemetry, len(l.tokenTelemetry))
	for k, v := range l.tokenTelemetry {
		c := *v
		result[k] = &c
	}
	return result
}

// GetDebugEvents returns debug events (development only)
func (l *Lexer) GetDebugEvents() []DebugEvent {
	if l.debugLevel == DebugOff || l.debugEvents == nil {
		return nil
	}
	result := make([]DebugEvent, len(l.debugEvents))
	copy(result, l.debugEvents)
	return result
}

// GetTokens scans the remaining input and returns the tokens, ending with EOF.
func (l *Lexer) GetTokens() []Token {
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			break
		}
	}
	l.logger.Debug("tokenized",
		"bytes", len(l.input),
		"tokens", len(tokens),
		"diagnostics", l.diags.Len())
	return tokens
}

// NextToken returns the next token; after the end it keeps returning EOF.
func (l *Lexer) NextToken() Token {
	if l.done {
		return l.eofToken()
	}

	var start time.Time
	if l.telemetryMode >= TelemetryTiming {
		start = time.Now()
	}

	member := l.afterDot
	l.afterDot = false
	tok := l.lexToken(member)
	invariant.Invariant(tok.Span.Start >= l.prev.Span.End && tok.Span.End <= len(l.input),
		"token %s at %s overlaps the previous token or runs past the input", tok.Type, tok.Span)

	if l.telemetryMode > TelemetryOff {
		var elapsed time.Duration
		if l.telemetryMode >= TelemetryTiming {
			elapsed = time.Since(start)
		}
		l.recordTokenTelemetry(tok.Type, elapsed)
	}
	if l.debugLevel > DebugOff {
		l.recordDebugEvent("lex_"+tok.Type.String(), tok.Text)
	}

	l.prevMember = member && tok.Type == BAREWORD
	l.prev = tok
	if tok.Type == DOT {
		l.afterDot = true
	}
	if tok.Type == EOF {
		l.done = true
	}
	return tok
}

func (l *Lexer) recordTokenTelemetry(tokenType TokenType, elapsed time.Duration) {
	telemetry, exists := l.tokenTelemetry[tokenType]
	if !exists {
		telemetry = &TokenTelemetry{Type: tokenType, MinTime: elapsed, MaxTime: elapsed}
		l.tokenTelemetry[tokenType] = telemetry
	}
	telemetry.Count++

	if l.telemetryMode >= TelemetryTiming {
		telemetry.TotalTime += elapsed
		telemetry.AvgTime = telemetry.TotalTime / time.Duration(telemetry.Count)
		if elapsed < telemetry.MinTime {
			telemetry.MinTime = elapsed
		}
		if elapsed > telemetry.MaxTime {
			telemetry.MaxTime = elapsed
		}
	}
}

func (l *Lexer) recordDebugEvent(event, context string) {
	if l.debugEvents == nil {
		return
	}
	l.debugEvents = append(l.debugEvents, DebugEvent{
		Timestamp: time.Now(),
		Event:     event,
		Position:  source.Position{Line: l.line, Column: l.column, Offset: l.pos},
		Context:   context,
	})
}

func (l *Lexer) eofToken() Token {
	return Token{
		Type:           EOF,
		Span:           source.At(len(l.input)),
		Position:       source.Position{Line: l.line, Column: l.column, Offset: len(l.input)},
		HasSpaceBefore: len(l.input) > 0 && (l.prev.Type == WHITESPACE || l.prev.Type == NEWLINE),
		UnitOffset:     -1,
	}
}

// lexToken performs the actual tokenization work
func (l *Lexer) lexToken(member bool) Token {
	if l.pos >= len(l.input) {
		return l.eofToken()
	}

	start := l.pos
	ch := l.input[start]
	if l.debugLevel >= DebugDetailed {
		r, _ := utf8.DecodeRuneInString(l.input[start:])
		l.recordDebugEvent("current_char", string(r))
	}

	switch {
	case ch == '\n':
		return l.emit(NEWLINE, start, start+1)
	case ch == '\r' && l.peek(1) == '\n':
		return l.emit(NEWLINE, start, start+2)
	case ch < 128 && isWhitespace[ch]:
		end := start
		for end < len(l.input) && l.input[end] < 128 && isWhitespace[l.input[end]] &&
			!(l.input[end] == '\r' && end+1 < len(l.input) && l.input[end+1] == '\n') {
			end++
		}
		return l.emit(WHITESPACE, start, end)
	case ch == '#' && l.atBoundary():
		end := start
		for end < len(l.input) && l.input[end] != '\n' &&
			!(l.input[end] == '\r' && end+1 < len(l.input) && l.input[end+1] == '\n') {
			end++
		}
		return l.emit(COMMENT, start, end)
	case ch == '"':
		return l.lexDoubleQuoted(start)
	case ch == '\'':
		return l.lexSingleQuoted(start)
	case ch == '$':
		return l.lexVariable(start)
	case ch == '|':
		return l.emit(PIPE, start, start+1)
	case ch == ';':
		return l.emit(SEMICOLON, start, start+1)
	case ch == '{':
		return l.emit(LBRACE, start, start+1)
	case ch == '}':
		return l.emit(RBRACE, start, start+1)
	case ch == '[':
		return l.emit(LSQUARE, start, start+1)
	case ch == ']':
		return l.emit(RSQUARE, start, start+1)
	case ch == '(':
		return l.emit(LPAREN, start, start+1)
	case ch == ')':
		return l.emit(RPAREN, start, start+1)
	case ch == ',':
		return l.emit(COMMA, start, start+1)
	case ch == '.' && l.afterOperand():
		if strings.HasPrefix(l.input[start:], "..<") {
			return l.emit(RANGE, start, start+3)
		}
		if strings.HasPrefix(l.input[start:], "..") {
			return l.emit(RANGE, start, start+2)
		}
		return l.emit(DOT, start, start+1)
	case member && ch != '.':
		end := start
		for end < len(l.input) && l.input[end] != '.' && !wordEndAt(l.input, end) {
			end++
		}
		return l.emit(BAREWORD, start, end)
	case ch == '-' && l.atBoundary() && l.peek(1) == '-':
		return l.lexLongFlag(start)
	case ch == '-' && l.atBoundary() && alphaAt(l.input, start+1):
		return l.lexShortFlag(start)
	}

	if tok, ok := l.lexNumber(start); ok {
		return tok
	}
	if tok, ok := l.lexOperator(start); ok {
		return tok
	}
	return l.lexBareword(start)
}

func (l *Lexer) peek(offset int) byte {
	if l.pos+offset < len(l.input) {
		return l.input[l.pos+offset]
	}
	return 0
}

// atBoundary reports whether a token starting at the current position may
// be a flag, comment or signed number.
func (l *Lexer) atBoundary() bool {
	if l.pos == 0 || l.prev.Type == OPERATOR || l.prev.Type == RANGE {
		return true
	}
	b := l.input[l.pos-1]
	return b < 128 && isBoundaryEnd[b]
}

// afterOperand reports whether the previous token, with nothing between,
// can be followed by a path accessor or a range operator.
func (l *Lexer) afterOperand() bool {
	if l.prev.Span.End != l.pos {
		return false
	}
	switch l.prev.Type {
	case VARIABLE, NUMBER, RPAREN, RSQUARE, RBRACE, DQ_STRING, SQ_STRING:
		return !l.prev.Unterminated
	case BAREWORD:
		return l.prevMember
	}
	return false
}

// emit builds a token for input[start:end] and advances past it.
func (l *Lexer) emit(t TokenType, start, end int) Token {
	tok := Token{
		Type:           t,
		Text:           l.input[start:end],
		Span:           source.NewSpan(start, end),
		Position:       source.Position{Line: l.line, Column: l.column, Offset: start},
		HasSpaceBefore: start > 0 && (l.prev.Type == WHITESPACE || l.prev.Type == NEWLINE),
		UnitOffset:     -1,
	}
	l.advanceTo(end)
	return tok
}

// advanceTo moves to offset end, keeping line and rune column current.
func (l *Lexer) advanceTo(end int) {
	for l.pos < end {
		b := l.input[l.pos]
		if b == '\n' {
			l.line++
			l.column = 1
		} else if b&0xC0 != 0x80 {
			l.column++
		}
		l.pos++
	}
}

func (l *Lexer) lexVariable(start int) Token {
	if !identStartAt(l.input, start+1) {
		l.diags.Errorf(diag.CodeLoneDollar, source.NewSpan(start, start+1),
			"'$' must be followed by a variable name")
		return l.emit(BAREWORD, start, start+1)
	}
	end := start + 2
	for end < len(l.input) && l.input[end] < 128 && isIdentPart[l.input[end]] {
		end++
	}
	return l.emit(VARIABLE, start, end)
}

func (l *Lexer) lexLongFlag(start int) Token {
	if wordEndAt(l.input, start+2) {
		return l.emit(BAREWORD, start, start+2) // "--" ends flag processing
	}
	if !identStartAt(l.input, start+2) {
		return l.lexBareword(start)
	}
	end := start + 3
	for end < len(l.input) && l.input[end] < 128 && isIdentPart[l.input[end]] {
		end++
	}
	if end < len(l.input) && l.input[end] == '=' {
		tok := l.emit(LONG_FLAG, start, end+1)
		tok.InlineValue = true
		return tok
	}
	if !wordEndAt(l.input, end) {
		return l.lexBareword(start)
	}
	return l.emit(LONG_FLAG, start, end)
}

func (l *Lexer) lexShortFlag(start int) Token {
	end := start + 1
	for alphaAt(l.input, end) {
		end++
	}
	if !wordEndAt(l.input, end) {
		return l.lexBareword(start)
	}
	return l.emit(SHORT_FLAG, start, end)
}

// lexNumber matches [+-]?(digits[.digits]|.digits)([eE][+-]?digits)?[A-Za-z]*
// followed by a word boundary or a range operator.
func (l *Lexer) lexNumber(start int) (Token, bool) {
	in := l.input
	i := start
	if in[i] == '+' || in[i] == '-' {
		if !l.atBoundary() {
			return Token{}, false
		}
		i++
	}

	digits := 0
	for digitAt(in, i) {
		i++
		digits++
	}
	if i < len(in) && in[i] == '.' && digitAt(in, i+1) {
		i++
		for digitAt(in, i) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return Token{}, false
	}

	if i < len(in) && (in[i] == 'e' || in[i] == 'E') {
		j := i + 1
		if j < len(in) && (in[j] == '+' || in[j] == '-') {
			j++
		}
		if digitAt(in, j) {
			for digitAt(in, j) {
				j++
			}
			i = j
		}
	}

	unit := -1
	if alphaAt(in, i) {
		unit = i - start
		for alphaAt(in, i) {
			i++
		}
	}

	if !wordEndAt(in, i) && !strings.HasPrefix(in[i:], "..") {
		return Token{}, false
	}
	tok := l.emit(NUMBER, start, i)
	tok.UnitOffset = unit
	return tok, true
}

var comparisonOps = []string{"==", "!=", "=~", "!~", "<=", ">=", "<", ">"}

func (l *Lexer) lexOperator(start int) (Token, bool) {
	if !l.atBoundary() {
		return Token{}, false
	}
	rest := l.input[start:]
	for _, op := range comparisonOps {
		if strings.HasPrefix(rest, op) {
			return l.emit(OPERATOR, start, start+len(op)), true
		}
	}
	switch rest[0] {
	case '+', '-', '*', '/', '=':
		if wordEndAt(l.input, start+1) {
			return l.emit(OPERATOR, start, start+1), true
		}
	}
	return Token{}, false
}

func (l *Lexer) lexBareword(start int) Token {
	in := l.input
	i := start
	glob := false
	for i < len(in) {
		c := in[i]
		if c == '[' {
			if end := classEnd(in, i); end > 0 {
				i = end
				glob = true
				continue
			}
			break
		}
		if wordEndAt(in, i) {
			break
		}
		if c == '*' || c == '?' {
			glob = true
		}
		i++
	}
	if i == start {
		_, size := utf8.DecodeRuneInString(in[start:])
		i = start + size
	}
	tok := l.emit(BAREWORD, start, i)
	tok.Glob = glob
	return tok
}

// classEnd returns the offset just past the ']' closing a glob character
// class opened at open, or 0 when no such ']' exists before a word boundary.
func classEnd(in string, open int) int {
	for i := open + 1; i < len(in); i++ {
		c := in[i]
		if c == ']' {
			if i == open+1 {
				return 0
			}
			return i + 1
		}
		if c == '[' || wordEndAt(in, i) {
			return 0
		}
	}
	return 0
}

func (l *Lexer) lexSingleQuoted(start int) Token {
	end := strings.IndexByte(l.input[start+1:], '\'')
	if end < 0 {
		return l.unterminated(SQ_STRING, start, nil)
	}
	return l.emit(SQ_STRING, start, start+1+end+1)
}

func (l *Lexer) lexDoubleQuoted(start int) Token {
	in := l.input
	var segments []Segment
	i := start + 1
	for i < len(in) {
		switch in[i] {
		case '\\':
			i = min(i+2, len(in))
		case '"':
			tok := l.emit(DQ_STRING, start, i+1)
			tok.Segments = segments
			return tok
		case '$':
			switch {
			case i+1 < len(in) && in[i+1] == '(':
				end := skipInterpolatedSubExpr(in, i+1)
				segments = append(segments, Segment{Kind: SegmentSubExpr, Span: source.NewSpan(i, end)})
				i = end
			case identStartAt(in, i+1):
				end := i + 2
				for end < len(in) && in[end] < 128 && isInterpPart[in[end]] {
					end++
				}
				segments = append(segments, Segment{Kind: SegmentVariable, Span: source.NewSpan(i, end)})
				i = end
			default:
				i++
			}
		default:
			i++
		}
	}
	return l.unterminated(DQ_STRING, start, segments)
}

func (l *Lexer) unterminated(t TokenType, start int, segments []Segment) Token {
	l.diags.Incomplete(diag.CodeUnterminatedString, source.NewSpan(start, len(l.input)),
		"unterminated string starting with %c", l.input[start])
	tok := l.emit(t, start, len(l.input))
	tok.Unterminated = true
	tok.Segments = segments
	return tok
}

// skipInterpolatedSubExpr returns the offset past the ')' balancing the '('
// at open, skipping quoted strings. It returns len(in) when unbalanced.
func skipInterpolatedSubExpr(in string, open int) int {
	depth := 0
	for i := open; i < len(in); i++ {
		switch in[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i + 1
			}
		case '\'':
			end := strings.IndexByte(in[i+1:], '\'')
			if end < 0 {
				return len(in)
			}
			i += end + 1
		case '"':
			j := i + 1
			for j < len(in) && in[j] != '"' {
				if in[j] == '\\' {
					j++
				}
				j++
			}
			if j >= len(in) {
				return len(in)
			}
			i = j
		}
	}
	return len(in)
}
