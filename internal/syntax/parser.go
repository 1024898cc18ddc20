package syntax

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/paveg/odataq/internal/common"
	"github.com/paveg/odataq/internal/config"
	qerrors "github.com/paveg/odataq/internal/errors"
	"github.com/paveg/odataq/internal/literal"
	"github.com/rs/zerolog"
)

// ParserOptions controls parsing.
type ParserOptions struct {
	// MaxDepth bounds grammar recursion. A zero limit could admit no
	// expression at all, so zero selects config.DefaultMaxDepth like an
	// unset field.
	MaxDepth int
	// CaseInsensitiveKeywords matches built-in keywords ignoring case.
	CaseInsensitiveKeywords bool
	// UseSemicolonDelimiter accepts ';' between order-by items.
	UseSemicolonDelimiter bool
	// Logger receives debug events. Nil disables logging.
	Logger *zerolog.Logger
}

// OptionsFromConfig derives parser options from cfg.
func OptionsFromConfig(cfg config.Config) ParserOptions {
	return ParserOptions{
		MaxDepth:                cfg.MaxDepth,
		CaseInsensitiveKeywords: cfg.EnableCaseInsensitiveBuiltinIdentifier,
		UseSemicolonDelimiter:   cfg.UseSemicolonDelimiter,
	}
}

// Parser parses query expressions into syntax trees.
//
// A Parser resets its state at every top-level call and must not be used by
// concurrent parses.
type Parser struct {
	opts   ParserOptions
	logger zerolog.Logger

	lexer *Lexer
	text  string
	depth int
	scope []string // lambda range variables, innermost last
}

// NewParser creates a new parser instance.
func NewParser(opts ParserOptions) *Parser {
	if opts.MaxDepth == 0 {
		opts.MaxDepth = config.DefaultMaxDepth
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Parser{opts: opts, logger: logger}
}

// Options returns the options the parser was created with.
func (p *Parser) Options() ParserOptions {
	return p.opts
}

// ParseFilter parses a filter predicate.
func (p *Parser) ParseFilter(text string) (QueryToken, error) {
	return p.parseTopLevel("ParseFilter", text)
}

// ParseExpressionText parses a single expression.
func (p *Parser) ParseExpressionText(text string) (QueryToken, error) {
	return p.parseTopLevel("ParseExpressionText", text)
}

// ParseOrderBy parses a comma separated list of expressions, each optionally
// followed by asc or desc. Items default to ascending.
func (p *Parser) ParseOrderBy(text string) ([]*OrderByToken, error) {
	const op = "ParseOrderBy"
	p.logger.Debug().Str("op", op).Str("text", text).Msg("parsing")

	if err := p.reset(text); err != nil {
		return nil, withOp(err, op)
	}

	var items []*OrderByToken
	for {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, p.fail(op, err)
		}
		item := &OrderByToken{Expression: expr, Direction: Ascending}
		if tok := p.cur(); tok.Kind == TokenIdentifier {
			if dir, ok := common.ParseOrderDirection(tok.Text, p.opts.CaseInsensitiveKeywords); ok {
				item.Direction = OrderDirection(dir)
				if err := p.next(); err != nil {
					return nil, p.fail(op, err)
				}
			}
		}
		items = append(items, item)

		if kind := p.cur().Kind; kind != TokenComma && kind != TokenSemicolon {
			break
		}
		if err := p.next(); err != nil {
			return nil, p.fail(op, err)
		}
	}

	if err := p.expectEnd(); err != nil {
		return nil, p.fail(op, err)
	}
	return items, nil
}

// ParseLevels parses a traversal depth: max or a non-negative integer.
func (p *Parser) ParseLevels(text string) (*LevelsToken, error) {
	const op = "ParseLevels"
	if err := p.reset(text); err != nil {
		return nil, withOp(err, op)
	}

	tok := p.cur()
	var levels *LevelsToken
	switch {
	case tok.IsKeyword("max", p.opts.CaseInsensitiveKeywords):
		levels = &LevelsToken{IsMax: true}
	case tok.Kind == TokenInteger || tok.Kind == TokenInt64:
		n, err := strconv.ParseInt(tok.Text, 10, 64)
		if err != nil {
			return nil, withOp(qerrors.NewSyntaxError(text, tok.Position, fmt.Sprintf("invalid levels value '%s'", tok.Text)), op)
		}
		levels = &LevelsToken{Level: n}
	default:
		return nil, withOp(qerrors.NewSyntaxError(text, tok.Position, "levels value must be 'max' or a non-negative integer"), op)
	}

	if err := p.next(); err != nil {
		return nil, withOp(err, op)
	}
	if err := p.expectEnd(); err != nil {
		return nil, withOp(err, op)
	}
	return levels, nil
}

func (p *Parser) parseTopLevel(op, text string) (QueryToken, error) {
	p.logger.Debug().Str("op", op).Str("text", text).Msg("parsing")

	if err := p.reset(text); err != nil {
		return nil, withOp(err, op)
	}
	expr, err := p.parseExpression()
	if err == nil {
		err = p.expectEnd()
	}
	if err != nil {
		return nil, p.fail(op, err)
	}

	p.logger.Debug().Str("op", op).Stringer("tree", expr).Msg("parsed")
	return expr, nil
}

// reset prepares the parser for text.
func (p *Parser) reset(text string) error {
	p.text = text
	p.depth = 0
	p.scope = p.scope[:0]

	lexer, err := NewLexer(text, LexerOptions{
		MoveToFirstToken:        true,
		UseSemicolonDelimiter:   p.opts.UseSemicolonDelimiter,
		CaseInsensitiveKeywords: p.opts.CaseInsensitiveKeywords,
	})
	if err != nil {
		return err
	}
	p.lexer = lexer
	return nil
}

func (p *Parser) fail(op string, err error) error {
	p.logger.Debug().Str("op", op).Err(err).Msg("parse failed")
	return withOp(err, op)
}

func withOp(err error, op string) error {
	var qe *qerrors.QueryError
	if errors.As(err, &qe) && qe.Op == "" {
		return qe.WithOp(op)
	}
	return err
}

// cur returns the current token.
func (p *Parser) cur() Token {
	return p.lexer.Current()
}

// next advances to the next token.
func (p *Parser) next() error {
	_, err := p.lexer.Next()
	return err
}

// peek returns the token after the current one.
func (p *Parser) peek() (Token, error) {
	return p.lexer.Peek()
}

// expect consumes a token of kind or fails.
func (p *Parser) expect(kind TokenKind) error {
	tok := p.cur()
	if tok.Kind != kind {
		return p.syntaxError(tok.Position, "%s expected", kind)
	}
	return p.next()
}

func (p *Parser) expectEnd() error {
	if tok := p.cur(); tok.Kind != TokenEnd {
		return p.syntaxError(tok.Position, "unexpected %s at end of expression", tok)
	}
	return nil
}

func (p *Parser) syntaxError(pos int, format string, args ...interface{}) error {
	return qerrors.NewSyntaxError(p.text, pos, fmt.Sprintf(format, args...))
}

// recurseEnter increments the recursion depth, failing beyond the limit.
func (p *Parser) recurseEnter() error {
	p.depth++
	if p.depth > p.opts.MaxDepth {
		p.depth--
		return qerrors.NewDepthError(p.text, p.cur().Position, p.opts.MaxDepth)
	}
	return nil
}

func (p *Parser) recurseLeave() {
	p.depth--
}

func (p *Parser) parseExpression() (QueryToken, error) {
	if err := p.recurseEnter(); err != nil {
		return nil, err
	}
	defer p.recurseLeave()

	return p.parseLogicalOr()
}

func (p *Parser) parseLogicalOr() (QueryToken, error) {
	return p.parseBinary(p.parseLogicalAnd, Or)
}

func (p *Parser) parseLogicalAnd() (QueryToken, error) {
	return p.parseBinary(p.parseComparison, And)
}

func (p *Parser) parseComparison() (QueryToken, error) {
	return p.parseBinary(p.parseAdditive,
		Equal, NotEqual, GreaterThan, GreaterThanOrEqual, LessThan, LessThanOrEqual, Has)
}

func (p *Parser) parseAdditive() (QueryToken, error) {
	return p.parseBinary(p.parseMultiplicative, Add, Subtract)
}

func (p *Parser) parseMultiplicative() (QueryToken, error) {
	return p.parseBinary(p.parseUnary, Multiply, Divide, Modulo)
}

// parseBinary parses one left-associative precedence level.
func (p *Parser) parseBinary(operand func() (QueryToken, error), ops ...BinaryOperatorKind) (QueryToken, error) {
	if err := p.recurseEnter(); err != nil {
		return nil, err
	}
	defer p.recurseLeave()

	left, err := operand()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.binaryOperator(ops)
		if !ok {
			return left, nil
		}
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := operand()
		if err != nil {
			return nil, err
		}
		left = &BinaryOperatorToken{Operator: op, Left: left, Right: right}
	}
}

// binaryOperator reports whether the current token is one of ops.
func (p *Parser) binaryOperator(ops []BinaryOperatorKind) (BinaryOperatorKind, bool) {
	tok := p.cur()
	if tok.Kind != TokenIdentifier {
		return 0, false
	}
	kind, ok := common.ParseBinaryOperator(tok.Text, p.opts.CaseInsensitiveKeywords)
	if !ok {
		return 0, false
	}
	for _, op := range ops {
		if BinaryOperatorKind(kind) == op {
			return op, true
		}
	}
	return 0, false
}

func (p *Parser) parseUnary() (QueryToken, error) {
	if err := p.recurseEnter(); err != nil {
		return nil, err
	}
	defer p.recurseLeave()

	tok := p.cur()
	switch {
	case tok.Kind == TokenMinus:
		if err := p.next(); err != nil {
			return nil, err
		}
		if num := p.cur(); num.Kind.IsNumeric() {
			return p.parseLiteral(negativeLiteral(tok, num))
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryOperatorToken{Operator: Negate, Operand: operand}, nil

	case tok.IsKeyword("not", p.opts.CaseInsensitiveKeywords):
		if err := p.next(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryOperatorToken{Operator: Not, Operand: operand}, nil
	}

	return p.parsePrimary()
}

// negativeLiteral fuses a minus with the numeric token after it.
func negativeLiteral(minus, num Token) Token {
	fused := Token{Kind: num.Kind, Text: "-" + num.Text, Position: minus.Position}
	if (num.Kind == TokenInt64 || num.Kind == TokenDecimal) && allDigits(num.Text) {
		// -2147483648 fits Int32 although its magnitude does not
		fused.Kind = classifyNumber(fused.Text, false, false)
	}
	return fused
}

func allDigits(s string) bool {
	for _, r := range s {
		if !isDigit(r) {
			return false
		}
	}
	return s != ""
}

func (p *Parser) parsePrimary() (QueryToken, error) {
	if err := p.recurseEnter(); err != nil {
		return nil, err
	}
	defer p.recurseLeave()

	var expr QueryToken
	if p.cur().Kind != TokenSlash {
		var err error
		if expr, err = p.parsePrimaryStart(); err != nil {
			return nil, err
		}
	}

	for p.cur().Kind == TokenSlash {
		if err := p.next(); err != nil {
			return nil, err
		}
		var err error
		if expr, err = p.parsePathSegment(expr); err != nil {
			return nil, err
		}
	}
	return expr, nil
}

func (p *Parser) parsePrimaryStart() (QueryToken, error) {
	if err := p.recurseEnter(); err != nil {
		return nil, err
	}
	defer p.recurseLeave()

	tok := p.cur()
	switch {
	case tok.Kind == TokenParameterAlias:
		if err := p.next(); err != nil {
			return nil, err
		}
		return &ParameterAliasToken{Name: tok.Text}, nil
	case tok.Kind == TokenIdentifier:
		return p.parseIdentifier(nil)
	case tok.Kind == TokenOpenParen:
		return p.parseParenExpression()
	case tok.Kind == TokenStar:
		if err := p.next(); err != nil {
			return nil, err
		}
		return &StarToken{}, nil
	case tok.Kind.IsLiteral():
		return p.parseLiteral(tok)
	}
	return nil, qerrors.NewExpressionExpectedError(p.text, tok.Position)
}

func (p *Parser) parseParenExpression() (QueryToken, error) {
	if err := p.recurseEnter(); err != nil {
		return nil, err
	}
	defer p.recurseLeave()

	if err := p.expect(TokenOpenParen); err != nil {
		return nil, err
	}
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenCloseParen); err != nil {
		return nil, err
	}
	return expr, nil
}

// parseLiteral converts tok to a literal and advances past the current
// token.
func (p *Parser) parseLiteral(tok Token) (QueryToken, error) {
	var (
		value interface{}
		err   error
	)
	switch tok.Kind {
	case TokenNull:
	case TokenQuoted:
		value, _, err = literal.ParseQuoted(tok.Text)
	case TokenBracketedExpression:
		value = literal.Payload{Text: tok.Text}
	default:
		kind, ok := tok.Kind.PrimitiveKind()
		if !ok {
			return nil, qerrors.NewExpressionExpectedError(p.text, tok.Position)
		}
		value, err = literal.Parse(kind, tok.Text)
	}
	if err != nil {
		qe := qerrors.NewLexicalError(p.text, tok.Position, fmt.Sprintf("invalid %s '%s'", tok.Kind, tok.Text))
		qe.Cause = err
		return nil, qe
	}

	if err := p.next(); err != nil {
		return nil, err
	}
	return NewLiteralToken(value, tok.Text, tok.Kind), nil
}
