package syntax

import (
	"strings"

	"github.com/paveg/odataq/internal/common"
)

// Implicit range variables, always in scope.
const (
	ImplicitRangeVariable = "$it"
	ThisRangeVariable     = "$this"
)

// parsePathSegment parses the segment after a '/'.
func (p *Parser) parsePathSegment(parent QueryToken) (QueryToken, error) {
	tok := p.cur()
	if tok.Kind == TokenStar {
		if err := p.next(); err != nil {
			return nil, err
		}
		return &StarToken{Parent: parent}, nil
	}
	if tok.Kind != TokenIdentifier {
		return nil, p.syntaxError(tok.Position, "identifier expected")
	}

	next, err := p.peek()
	if err != nil {
		return nil, err
	}
	if next.Kind == TokenOpenParen {
		if kind, ok := common.ParseLambdaKind(tok.Text, p.opts.CaseInsensitiveKeywords); ok {
			return p.parseLambda(parent, LambdaKind(kind))
		}
	}
	if next.Kind == TokenSlash {
		if err := p.next(); err != nil {
			return nil, err
		}
		if isDotted(tok.Text) {
			return &DottedIdentifierToken{Name: tok.Text, Parent: parent}, nil
		}
		return &InnerPathToken{Name: tok.Text, Parent: parent}, nil
	}
	return p.parseIdentifier(parent)
}

// parseIdentifier resolves the identifier at the cursor into a function
// call, a type segment, a range variable or a property path end.
func (p *Parser) parseIdentifier(parent QueryToken) (QueryToken, error) {
	tok := p.cur()

	next, err := p.peek()
	if err != nil {
		return nil, err
	}
	if next.Kind == TokenOpenParen {
		return p.parseFunctionCall(tok.Text, parent)
	}

	if err := p.next(); err != nil {
		return nil, err
	}
	switch {
	case isDotted(tok.Text):
		return &DottedIdentifierToken{Name: tok.Text, Parent: parent}, nil
	case parent == nil && p.inScope(tok.Text):
		return &RangeVariableToken{Name: tok.Text}, nil
	}
	return &EndPathToken{Name: tok.Text, Parent: parent}, nil
}

// parseFunctionCall parses name(arguments). The cursor is on name.
func (p *Parser) parseFunctionCall(name string, parent QueryToken) (QueryToken, error) {
	if err := p.next(); err != nil {
		return nil, err
	}
	args, err := p.parseArgumentList()
	if err != nil {
		return nil, err
	}
	return &FunctionCallToken{Name: name, Arguments: args, Parent: parent}, nil
}

// parseArgumentList parses a parenthesized, comma separated argument list.
func (p *Parser) parseArgumentList() ([]QueryToken, error) {
	if err := p.recurseEnter(); err != nil {
		return nil, err
	}
	defer p.recurseLeave()

	if err := p.expect(TokenOpenParen); err != nil {
		return nil, err
	}
	if p.cur().Kind == TokenCloseParen {
		return nil, p.next()
	}

	var args []QueryToken
	for {
		arg, err := p.parseArgument()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		tok := p.cur()
		switch tok.Kind {
		case TokenComma:
			if err := p.next(); err != nil {
				return nil, err
			}
		case TokenCloseParen:
			return args, p.next()
		default:
			return nil, p.syntaxError(tok.Position, "',' or ')' expected")
		}
	}
}

// parseArgument parses a positional argument or a name=value pair.
func (p *Parser) parseArgument() (QueryToken, error) {
	tok := p.cur()
	if tok.Kind == TokenIdentifier {
		next, err := p.peek()
		if err != nil {
			return nil, err
		}
		if next.Kind == TokenEqual {
			if err := p.next(); err != nil {
				return nil, err
			}
			if err := p.next(); err != nil {
				return nil, err
			}
			value, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			return &FunctionParameterToken{Name: tok.Text, Value: value}, nil
		}
	}
	return p.parseExpression()
}

// parseLambda parses any(v: body) or all(v: body). The cursor is on the
// keyword.
func (p *Parser) parseLambda(parent QueryToken, kind LambdaKind) (QueryToken, error) {
	if err := p.recurseEnter(); err != nil {
		return nil, err
	}
	defer p.recurseLeave()

	if err := p.next(); err != nil {
		return nil, err
	}
	if err := p.expect(TokenOpenParen); err != nil {
		return nil, err
	}
	if p.cur().Kind == TokenCloseParen {
		if err := p.next(); err != nil {
			return nil, err
		}
		return &LambdaToken{Lambda: kind, Predicate: trueLiteral(), Parent: parent}, nil
	}

	variable := p.cur()
	if variable.Kind != TokenIdentifier || isDotted(variable.Text) {
		return nil, p.syntaxError(variable.Position, "range variable name expected")
	}
	if p.inScope(variable.Text) {
		return nil, p.syntaxError(variable.Position, "range variable '%s' has already been declared", variable.Text)
	}
	if err := p.next(); err != nil {
		return nil, err
	}
	if err := p.expect(TokenColon); err != nil {
		return nil, err
	}

	p.pushScope(variable.Text)
	defer p.popScope()

	body, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenCloseParen); err != nil {
		return nil, err
	}
	return &LambdaToken{Lambda: kind, Predicate: body, Variable: variable.Text, Parent: parent}, nil
}

func (p *Parser) inScope(name string) bool {
	if name == ImplicitRangeVariable || name == ThisRangeVariable {
		return true
	}
	for _, v := range p.scope {
		if v == name {
			return true
		}
	}
	return false
}

func (p *Parser) pushScope(name string) {
	p.scope = append(p.scope, name)
	p.logger.Debug().Str("variable", name).Int("depth", len(p.scope)).Msg("range variable declared")
}

func (p *Parser) popScope() {
	p.scope = p.scope[:len(p.scope)-1]
}

func isDotted(name string) bool {
	return strings.Contains(name, ".")
}
