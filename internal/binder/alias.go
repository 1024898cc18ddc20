package binder

import (
	"fmt"

	qerrors "github.com/paveg/odataq/internal/errors"
	"github.com/paveg/odataq/internal/literal"
	"github.com/paveg/odataq/internal/semantic"
	"github.com/paveg/odataq/internal/syntax"
	"github.com/paveg/odataq/internal/validation"
	"github.com/rs/zerolog"
)

// AliasValueAccessor supplies raw alias value expressions and caches their
// bound nodes for the duration of one binding session.
type AliasValueAccessor interface {
	// ValueExpression returns the value expression text of alias.
	ValueExpression(alias string) (string, bool)
	// CachedNode returns a previously cached node. ok with a nil node means
	// the alias is known to have no value.
	CachedNode(alias string) (semantic.SingleValueNode, bool)
	// CacheNode caches the bound value of alias, or nil for "no value".
	CacheNode(alias string, node semantic.SingleValueNode)
}

// BindFunc binds a syntax token in the caller's scope.
type BindFunc func(syntax.QueryToken) (semantic.Node, error)

// AliasBinder binds parameter alias references, parsing and binding each
// alias value at most once per accessor.
type AliasBinder struct {
	accessor   AliasValueAccessor
	bind       BindFunc
	parserOpts syntax.ParserOptions
	logger     zerolog.Logger

	inProgress map[string]bool
}

// NewAliasBinder creates an alias binder. accessor may be nil, in which case
// every alias binds to an untyped alias node.
func NewAliasBinder(accessor AliasValueAccessor, bind BindFunc, parserOpts syntax.ParserOptions, logger zerolog.Logger) (*AliasBinder, error) {
	if err := validation.NotNil(bind, "NewAliasBinder", "bind"); err != nil {
		return nil, err
	}
	if validation.IsNil(accessor) {
		accessor = nil
	}
	return &AliasBinder{accessor: accessor, bind: bind, parserOpts: parserOpts, logger: logger}, nil
}

// BindParameterAlias binds token to an alias node typed with the type of the
// alias value, or untyped when the value is unknown.
func (a *AliasBinder) BindParameterAlias(token *syntax.ParameterAliasToken) (*semantic.ParameterAliasNode, error) {
	const op = "BindParameterAlias"
	if err := validation.NotNil(token, op, "token"); err != nil {
		return nil, err
	}
	if validation.IsNil(a.accessor) {
		return semantic.NewParameterAliasNode(token.Name, nil)
	}

	if node, ok := a.accessor.CachedNode(token.Name); ok {
		a.logger.Debug().Str("alias", token.Name).Bool("hasValue", node != nil).Msg("alias cache hit")
		return aliasNode(token.Name, node)
	}

	text, ok := a.accessor.ValueExpression(token.Name)
	if !ok {
		a.accessor.CacheNode(token.Name, nil)
		a.logger.Debug().Str("alias", token.Name).Msg("alias has no value")
		return semantic.NewParameterAliasNode(token.Name, nil)
	}

	if a.inProgress[token.Name] {
		return nil, qerrors.NewBindingError(op, fmt.Sprintf("parameter alias '%s' refers to itself", token.Name))
	}
	if a.inProgress == nil {
		a.inProgress = make(map[string]bool)
	}
	a.inProgress[token.Name] = true
	defer delete(a.inProgress, token.Name)

	node, err := a.bindValue(token, text)
	if err != nil {
		return nil, err
	}
	a.accessor.CacheNode(token.Name, node)
	a.logger.Debug().Str("alias", token.Name).Stringer("value", node).Msg("alias bound")
	return aliasNode(token.Name, node)
}

func (a *AliasBinder) bindValue(token *syntax.ParameterAliasToken, text string) (semantic.SingleValueNode, error) {
	const op = "BindParameterAlias"
	expr, err := syntax.NewParser(a.parserOpts).ParseExpressionText(text)
	if err != nil {
		return nil, fmt.Errorf("parsing value of parameter alias %s: %w", token.Name, err)
	}

	if lit, ok := expr.(*syntax.LiteralToken); ok && lit.Lexical == syntax.TokenBracketedExpression && token.ExpectedType != nil {
		if !token.ExpectedType.IsEntityOrEntityCollection() {
			payload, _ := lit.Value.(literal.Payload)
			value, err := literal.ConvertPayload(payload.Text, token.ExpectedType)
			if err != nil {
				return nil, fmt.Errorf("converting value of parameter alias %s: %w", token.Name, err)
			}
			lit = &syntax.LiteralToken{Value: value, Text: lit.Text, Lexical: lit.Lexical}
		}
		expr = lit.WithExpectedType(token.ExpectedType)
	}

	bound, err := a.bind(expr)
	if err != nil {
		return nil, err
	}
	single, ok := bound.(semantic.SingleValueNode)
	if !ok {
		return nil, qerrors.NewBindingError(op, "parameter alias value expression is not a single value")
	}
	return single, nil
}

func aliasNode(name string, value semantic.SingleValueNode) (*semantic.ParameterAliasNode, error) {
	if value == nil {
		return semantic.NewParameterAliasNode(name, nil)
	}
	return semantic.NewParameterAliasNode(name, value.TypeReference(), semantic.CollectErrors(value)...)
}
