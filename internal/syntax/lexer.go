package syntax

import (
	"fmt"
	"regexp"
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/paveg/odataq/internal/common"
	"github.com/paveg/odataq/internal/edm"
	qerrors "github.com/paveg/odataq/internal/errors"
	"github.com/paveg/odataq/internal/literal"
)

// maxDoubleDigits is the number of significant digits a double keeps.
const maxDoubleDigits = 15

var (
	guidPattern           = regexp.MustCompile(`^[0-9A-Fa-f]{8}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{12}`)
	dateTimeOffsetPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}(?::\d{2}(?:\.\d{1,12})?)?(?:Z|[+-]\d{2}:\d{2})`)
	datePattern           = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	timeOfDayPattern      = regexp.MustCompile(`^\d{2}:\d{2}(?::\d{2}(?:\.\d{1,12})?)?`)
)

// temporal literal shapes tried, in order, before a plain number.
var digitLiterals = []struct {
	pattern *regexp.Regexp
	kind    TokenKind
}{
	{guidPattern, TokenGuid},
	{dateTimeOffsetPattern, TokenDateTimeOffset},
	{datePattern, TokenDate},
	{timeOfDayPattern, TokenTimeOfDay},
}

// prefixTokenKinds maps the primitive kind of a typed quoted literal prefix
// to its token kind.
var prefixTokenKinds = map[edm.PrimitiveKind]TokenKind{
	edm.PrimitiveDuration:       TokenDuration,
	edm.PrimitiveBinary:         TokenBinary,
	edm.PrimitiveGeography:      TokenGeography,
	edm.PrimitiveGeometry:       TokenGeometry,
	edm.PrimitiveGuid:           TokenGuid,
	edm.PrimitiveDate:           TokenDate,
	edm.PrimitiveDateTimeOffset: TokenDateTimeOffset,
	edm.PrimitiveTimeOfDay:      TokenTimeOfDay,
}

// LexerOptions controls lexer behavior.
type LexerOptions struct {
	// MoveToFirstToken scans the first token in NewLexer.
	MoveToFirstToken bool
	// UseSemicolonDelimiter makes ';' a token instead of an invalid character.
	UseSemicolonDelimiter bool
	// CaseInsensitiveKeywords matches true, false and null ignoring case.
	CaseInsensitiveKeywords bool
}

// Lexer tokenizes query expression text.
type Lexer struct {
	input        string
	opts         LexerOptions
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           rune // current char under examination
	current      Token
}

type checkpoint struct {
	position     int
	readPosition int
	ch           rune
	current      Token
}

// NewLexer creates a new lexer for text.
func NewLexer(text string, opts LexerOptions) (*Lexer, error) {
	l := &Lexer{input: text, opts: opts, current: Token{Kind: TokenNone}}
	l.readChar()
	if opts.MoveToFirstToken {
		if _, err := l.Next(); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Tokenize returns every token of text up to and including the end token.
func Tokenize(text string, opts LexerOptions) ([]Token, error) {
	opts.MoveToFirstToken = false
	l, err := NewLexer(text, opts)
	if err != nil {
		return nil, err
	}
	var tokens []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == TokenEnd {
			return tokens, nil
		}
	}
}

// Text returns the expression text being tokenized.
func (l *Lexer) Text() string {
	return l.input
}

// Current returns the most recently scanned token.
func (l *Lexer) Current() Token {
	return l.current
}

// Next advances to the next token and returns it.
func (l *Lexer) Next() (Token, error) {
	tok, err := l.scan()
	if err != nil {
		return Token{}, err
	}
	l.current = tok
	return tok, nil
}

// Peek returns the token after the current one without consuming it.
func (l *Lexer) Peek() (Token, error) {
	cp := l.checkpoint()
	defer l.restore(cp)
	return l.scan()
}

func (l *Lexer) checkpoint() checkpoint {
	return checkpoint{
		position:     l.position,
		readPosition: l.readPosition,
		ch:           l.ch,
		current:      l.current,
	}
}

func (l *Lexer) restore(cp checkpoint) {
	l.position = cp.position
	l.readPosition = cp.readPosition
	l.ch = cp.ch
	l.current = cp.current
}

// readChar reads the next rune and advances the position in the input
func (l *Lexer) readChar() {
	l.position = l.readPosition
	if l.readPosition >= len(l.input) {
		l.ch = 0
		return
	}
	r, width := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.readPosition += width
}

// peekChar returns the next rune without advancing the position
func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

// peekByte returns the byte n positions after the next one.
func (l *Lexer) peekByte(n int) byte {
	if l.readPosition+n >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition+n]
}

// advanceTo moves the cursor to byte offset pos.
func (l *Lexer) advanceTo(pos int) {
	l.readPosition = pos
	l.readChar()
}

func (l *Lexer) atEnd() bool {
	return l.position >= len(l.input)
}

func (l *Lexer) errorf(pos int, format string, args ...interface{}) error {
	return qerrors.NewLexicalError(l.input, pos, fmt.Sprintf(format, args...))
}

// scan reads the token at the cursor.
func (l *Lexer) scan() (Token, error) {
	l.skipWhitespace()

	if l.atEnd() {
		return Token{Kind: TokenEnd, Position: len(l.input)}, nil
	}

	switch l.ch {
	case '(':
		return l.punctuation(TokenOpenParen), nil
	case ')':
		return l.punctuation(TokenCloseParen), nil
	case ',':
		return l.punctuation(TokenComma), nil
	case ':':
		return l.punctuation(TokenColon), nil
	case '/':
		return l.punctuation(TokenSlash), nil
	case '-':
		return l.punctuation(TokenMinus), nil
	case '*':
		return l.punctuation(TokenStar), nil
	case '=':
		return l.punctuation(TokenEqual), nil
	case '.':
		return l.punctuation(TokenDot), nil
	case ';':
		if l.opts.UseSemicolonDelimiter {
			return l.punctuation(TokenSemicolon), nil
		}
	case '\'':
		return l.tokenizeString()
	case '@':
		return l.tokenizeParameterAlias()
	case '{', '[':
		return l.tokenizeBracketed()
	}

	switch {
	case isDigit(l.ch):
		return l.tokenizeNumber()
	case isIdentifierStart(l.ch) || l.ch == '$':
		return l.tokenizeIdentifier()
	}
	return Token{}, l.errorf(l.position, "invalid character '%c'", l.ch)
}

func (l *Lexer) punctuation(kind TokenKind) Token {
	tok := Token{Kind: kind, Text: string(l.ch), Position: l.position}
	l.readChar()
	return tok
}

// tokenizeString handles single-quoted string literals
func (l *Lexer) tokenizeString() (Token, error) {
	start := l.position
	if err := l.readQuoted(start); err != nil {
		return Token{}, err
	}
	return Token{Kind: TokenString, Text: l.input[start:l.position], Position: start}, nil
}

// readQuoted consumes a quoted run starting at the opening quote. Doubled
// quotes are escapes.
func (l *Lexer) readQuoted(start int) error {
	l.readChar()
	for {
		if l.atEnd() {
			return l.errorf(start, "unterminated string literal")
		}
		if l.ch == '\'' {
			l.readChar()
			if l.ch != '\'' {
				return nil
			}
		}
		l.readChar()
	}
}

func (l *Lexer) tokenizeParameterAlias() (Token, error) {
	start := l.position
	l.readChar()
	if !isIdentifierStart(l.ch) {
		return Token{}, l.errorf(start, "parameter alias name expected")
	}
	l.readIdentifier()
	return Token{Kind: TokenParameterAlias, Text: l.input[start:l.position], Position: start}, nil
}

// tokenizeBracketed reads a balanced {...} or [...] run as one token.
func (l *Lexer) tokenizeBracketed() (Token, error) {
	start := l.position
	depth := 0
	for {
		switch {
		case l.atEnd():
			return Token{}, l.errorf(start, "unterminated bracketed expression")
		case l.ch == '"':
			if err := l.skipDoubleQuoted(start); err != nil {
				return Token{}, err
			}
			continue
		case l.ch == '\'':
			if err := l.readQuoted(l.position); err != nil {
				return Token{}, err
			}
			continue
		case l.ch == '{' || l.ch == '[':
			depth++
		case l.ch == '}' || l.ch == ']':
			depth--
			if depth == 0 {
				l.readChar()
				return Token{Kind: TokenBracketedExpression, Text: l.input[start:l.position], Position: start}, nil
			}
		}
		l.readChar()
	}
}

// skipDoubleQuoted consumes a JSON string inside a bracketed run.
func (l *Lexer) skipDoubleQuoted(start int) error {
	l.readChar()
	for {
		switch {
		case l.atEnd():
			return l.errorf(start, "unterminated bracketed expression")
		case l.ch == '\\':
			l.readChar()
		case l.ch == '"':
			l.readChar()
			return nil
		}
		l.readChar()
	}
}

// tokenizeNumber handles numeric, date, time and digit-led guid literals.
func (l *Lexer) tokenizeNumber() (Token, error) {
	for _, dl := range digitLiterals {
		if tok, ok := l.matchLiteral(dl.pattern, dl.kind); ok {
			return tok, nil
		}
	}

	start := l.position
	for isDigit(l.ch) {
		l.readChar()
	}

	fractional, exponent := false, false
	if l.ch == '.' && isDigit(l.peekChar()) {
		fractional = true
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if isDigit(next) || ((next == '+' || next == '-') && isDigit(rune(l.peekByte(1)))) {
			exponent = true
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}

	var kind TokenKind
	switch l.ch {
	case 'L', 'l':
		if fractional || exponent {
			return Token{}, l.malformedNumber(start)
		}
		kind = TokenInt64
		l.readChar()
	case 'M', 'm':
		kind = TokenDecimal
		l.readChar()
	case 'D', 'd':
		kind = TokenDouble
		l.readChar()
	case 'F', 'f':
		kind = TokenSingle
		l.readChar()
	}

	if isIdentifierPart(l.ch) {
		return Token{}, l.malformedNumber(start)
	}

	text := l.input[start:l.position]
	if kind == TokenNone {
		kind = classifyNumber(text, fractional, exponent)
	}
	return Token{Kind: kind, Text: text, Position: start}, nil
}

func (l *Lexer) malformedNumber(start int) error {
	for isIdentifierPart(l.ch) || l.ch == '.' {
		l.readChar()
	}
	return l.errorf(start, "malformed numeric literal '%s'", l.input[start:l.position])
}

// classifyNumber picks the kind of an unsuffixed number.
func classifyNumber(text string, fractional, exponent bool) TokenKind {
	if fractional || exponent {
		if !exponent && significantDigits(text) > maxDoubleDigits {
			return TokenDecimal
		}
		return TokenDouble
	}
	if _, err := strconv.ParseInt(text, 10, 32); err == nil {
		return TokenInteger
	}
	if _, err := strconv.ParseInt(text, 10, 64); err == nil {
		return TokenInt64
	}
	return TokenDecimal
}

func significantDigits(text string) int {
	count := 0
	leading := true
	for _, r := range text {
		if !isDigit(r) {
			continue
		}
		if leading && r == '0' {
			continue
		}
		leading = false
		count++
	}
	return count
}

// tokenizeIdentifier handles identifiers, keywords with literal meaning,
// typed quoted literals and letter-led guids.
func (l *Lexer) tokenizeIdentifier() (Token, error) {
	if isHexDigit(l.ch) {
		if tok, ok := l.matchLiteral(guidPattern, TokenGuid); ok {
			return tok, nil
		}
	}

	start := l.position
	if l.ch == '$' {
		l.readChar()
		if !isIdentifierStart(l.ch) {
			return Token{}, l.errorf(start, "invalid character '$'")
		}
	}
	l.readIdentifier()
	for l.ch == '.' && isIdentifierStart(l.peekChar()) {
		l.readChar()
		l.readIdentifier()
	}
	text := l.input[start:l.position]

	if l.ch == '\'' {
		if err := l.readQuoted(start); err != nil {
			return Token{}, err
		}
		kind := TokenQuoted
		if pk, ok := literal.PrefixKind(text); ok {
			kind = prefixTokenKinds[pk]
		}
		return Token{Kind: kind, Text: l.input[start:l.position], Position: start}, nil
	}

	kind := TokenIdentifier
	switch {
	case common.KeywordEqual(text, "true", l.opts.CaseInsensitiveKeywords),
		common.KeywordEqual(text, "false", l.opts.CaseInsensitiveKeywords):
		kind = TokenBoolean
	case common.KeywordEqual(text, "null", l.opts.CaseInsensitiveKeywords):
		kind = TokenNull
	case text == "INF" || text == "NaN":
		kind = TokenDouble
	}
	return Token{Kind: kind, Text: text, Position: start}, nil
}

// readIdentifier consumes identifier characters
func (l *Lexer) readIdentifier() {
	for isIdentifierPart(l.ch) {
		l.readChar()
	}
}

// matchLiteral consumes a pattern match at the cursor when it is not
// followed by more identifier text.
func (l *Lexer) matchLiteral(pattern *regexp.Regexp, kind TokenKind) (Token, bool) {
	rest := l.input[l.position:]
	m := pattern.FindString(rest)
	if m == "" {
		return Token{}, false
	}
	if len(m) < len(rest) {
		next, _ := utf8.DecodeRuneInString(rest[len(m):])
		if isIdentifierPart(next) || next == '-' || next == ':' || next == '.' {
			return Token{}, false
		}
	}
	start := l.position
	l.advanceTo(start + len(m))
	return Token{Kind: kind, Text: m, Position: start}, true
}

// skipWhitespace skips whitespace characters
func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

func isIdentifierStart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isIdentifierPart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch) || unicode.IsDigit(ch)
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func isHexDigit(ch rune) bool {
	return isDigit(ch) || ('a' <= ch && ch <= 'f') || ('A' <= ch && ch <= 'F')
}
