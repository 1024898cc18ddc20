// Package binder turns syntax trees into semantic trees by resolving every
// identifier, path segment, function call and parameter alias against a
// schema model.
package binder

import (
	"fmt"

	"github.com/paveg/odataq/internal/config"
	"github.com/paveg/odataq/internal/edm"
	qerrors "github.com/paveg/odataq/internal/errors"
	"github.com/paveg/odataq/internal/semantic"
	"github.com/paveg/odataq/internal/syntax"
	"github.com/paveg/odataq/internal/validation"
	"github.com/rs/zerolog"
)

// Binder binds syntax trees against a model.
//
// A Binder keeps the range variables of the expression being bound and must
// not be shared by concurrent bind calls.
type Binder struct {
	model           edm.Model
	parserOpts      syntax.ParserOptions
	caseInsensitive bool // property names
	suggestionLimit int
	logger          zerolog.Logger

	aliases *AliasBinder
	scope   []semantic.RangeVariable // implicit $it first, innermost lambda last
}

// Option configures a Binder.
type Option func(*Binder)

// WithConfig applies the binder and parser settings of cfg.
func WithConfig(cfg config.Config) Option {
	return func(b *Binder) {
		b.parserOpts = syntax.OptionsFromConfig(cfg)
		b.caseInsensitive = cfg.EnableCaseInsensitiveProperties
		b.suggestionLimit = cfg.SuggestionLimit
	}
}

// WithAliasAccessor supplies parameter alias values. Without an accessor,
// aliases bind to untyped alias nodes.
func WithAliasAccessor(accessor AliasValueAccessor) Option {
	return func(b *Binder) {
		b.aliases.accessor = accessor
	}
}

// WithLogger sets the logger receiving debug events.
func WithLogger(logger zerolog.Logger) Option {
	return func(b *Binder) {
		b.logger = logger
	}
}

// New creates a binder for model.
func New(model edm.Model, opts ...Option) (*Binder, error) {
	if err := validation.NotNil(model, "binder.New", "model"); err != nil {
		return nil, err
	}
	b := &Binder{
		model:           model,
		suggestionLimit: config.DefaultSuggestionLimit,
		logger:          zerolog.Nop(),
	}
	b.aliases = &AliasBinder{bind: b.Bind}
	for _, opt := range opts {
		opt(b)
	}
	b.aliases.parserOpts = b.parserOpts
	b.aliases.parserOpts.Logger = &b.logger
	b.aliases.logger = b.logger
	return b, nil
}

// BindFilter binds a filter predicate evaluated for each entity of source.
func (b *Binder) BindFilter(token syntax.QueryToken, source edm.NavigationSource) (*semantic.FilterClause, error) {
	const op = "BindFilter"
	if err := validation.ValidateAll(
		validation.NewNotNilValidator(token, op, "token"),
		validation.NewNotNilValidator(source, op, "source"),
	); err != nil {
		return nil, err
	}
	b.logger.Debug().Str("op", op).Str("source", source.Name()).Stringer("tree", token).Msg("binding")

	it, err := b.enter(source)
	if err != nil {
		return nil, b.fail(op, err)
	}
	expr, err := b.bindSingle(token)
	if err != nil {
		return nil, b.fail(op, err)
	}
	if t := expr.TypeReference(); t != nil && !t.IsBoolean() {
		return nil, b.fail(op, bindingErrorf("filter expression must be boolean, got %s", t.FullName()))
	}
	clause, err := semantic.NewFilterClause(expr, it)
	if err != nil {
		return nil, b.fail(op, err)
	}
	b.logger.Debug().Str("op", op).Stringer("tree", clause).Msg("bound")
	return clause, nil
}

// BindOrderBy binds order-by items into a then-by chain.
func (b *Binder) BindOrderBy(tokens []*syntax.OrderByToken, source edm.NavigationSource) (*semantic.OrderByClause, error) {
	const op = "BindOrderBy"
	if err := validation.NotNil(source, op, "source"); err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, qerrors.NewArgumentError(op, "tokens", "must not be empty")
	}
	b.logger.Debug().Str("op", op).Str("source", source.Name()).Int("items", len(tokens)).Msg("binding")

	it, err := b.enter(source)
	if err != nil {
		return nil, b.fail(op, err)
	}
	exprs := make([]semantic.SingleValueNode, len(tokens))
	for i, tok := range tokens {
		if tok == nil {
			return nil, qerrors.NewArgumentNilError(op, fmt.Sprintf("tokens[%d]", i))
		}
		expr, err := b.bindSingle(tok.Expression)
		if err != nil {
			return nil, b.fail(op, err)
		}
		if t := expr.TypeReference(); t != nil && !t.IsPrimitive() && !t.IsEnum() {
			return nil, b.fail(op, bindingErrorf("order-by expression '%s' must be a primitive value, got %s", tok.Expression, t.FullName()))
		}
		exprs[i] = expr
	}

	var clause *semantic.OrderByClause
	for i := len(tokens) - 1; i >= 0; i-- {
		clause, err = semantic.NewOrderByClause(exprs[i], tokens[i].Direction, it, clause)
		if err != nil {
			return nil, b.fail(op, err)
		}
	}
	b.logger.Debug().Str("op", op).Stringer("tree", clause).Msg("bound")
	return clause, nil
}

// BindLevels binds a traversal depth.
func (b *Binder) BindLevels(token *syntax.LevelsToken) (*semantic.LevelsClause, error) {
	if err := validation.NotNil(token, "BindLevels", "token"); err != nil {
		return nil, err
	}
	return semantic.NewLevelsClause(token.IsMax, token.Level)
}

// BindParameterAlias binds an alias token on its own.
func (b *Binder) BindParameterAlias(token *syntax.ParameterAliasToken) (*semantic.ParameterAliasNode, error) {
	return b.aliases.BindParameterAlias(token)
}

// Bind binds any expression token in the current range variable scope. It
// is the callback the alias binder uses for alias values.
func (b *Binder) Bind(token syntax.QueryToken) (semantic.Node, error) {
	switch t := token.(type) {
	case *syntax.LiteralToken:
		return b.bindLiteral(t)
	case *syntax.BinaryOperatorToken:
		return b.bindBinary(t)
	case *syntax.UnaryOperatorToken:
		return b.bindUnary(t)
	case *syntax.FunctionCallToken:
		return b.bindFunctionCall(t)
	case *syntax.EndPathToken:
		return b.bindProperty(t.Name, t.Parent)
	case *syntax.InnerPathToken:
		return b.bindProperty(t.Name, t.Parent)
	case *syntax.DottedIdentifierToken:
		return b.bindCast(t)
	case *syntax.RangeVariableToken:
		return b.bindRangeVariable(t.Name)
	case *syntax.LambdaToken:
		return b.bindLambda(t)
	case *syntax.ParameterAliasToken:
		return b.aliases.BindParameterAlias(t)
	case *syntax.StarToken:
		return nil, bindingErrorf("'%s' cannot be used in an expression", t)
	case *syntax.FunctionParameterToken:
		return nil, bindingErrorf("named argument '%s' is only allowed in a function call", t.Name)
	case *syntax.OrderByToken, *syntax.LevelsToken:
		return nil, bindingErrorf("%s is not an expression", token.Kind())
	case nil:
		return nil, qerrors.NewArgumentNilError("Bind", "token")
	default:
		return nil, bindingErrorf("unsupported token %T", token)
	}
}

func (b *Binder) bindSingle(token syntax.QueryToken) (semantic.SingleValueNode, error) {
	node, err := b.Bind(token)
	if err != nil {
		return nil, err
	}
	single, ok := node.(semantic.SingleValueNode)
	if !ok {
		return nil, bindingErrorf("'%s' is a collection, a single value is expected", token)
	}
	return single, nil
}

func (b *Binder) bindCollection(token syntax.QueryToken) (semantic.CollectionNode, error) {
	node, err := b.Bind(token)
	if err != nil {
		return nil, err
	}
	coll, ok := node.(semantic.CollectionNode)
	if !ok {
		return nil, bindingErrorf("'%s' is not a collection", token)
	}
	return coll, nil
}

// enter resets the scope to the implicit range variable over source.
func (b *Binder) enter(source edm.NavigationSource) (*semantic.EntityRangeVariable, error) {
	set, err := semantic.NewResourceSetNode(source)
	if err != nil {
		return nil, err
	}
	it, err := semantic.NewEntityRangeVariable(syntax.ImplicitRangeVariable, set.ItemType(), set)
	if err != nil {
		return nil, err
	}
	b.scope = append(b.scope[:0], it)
	return it, nil
}

func (b *Binder) pushScope(v semantic.RangeVariable) {
	b.scope = append(b.scope, v)
	b.logger.Debug().Str("variable", v.Name()).Str("type", v.TypeReference().FullName()).Msg("range variable bound")
}

func (b *Binder) popScope() {
	b.scope = b.scope[:len(b.scope)-1]
}

func (b *Binder) fail(op string, err error) error {
	b.logger.Debug().Str("op", op).Err(err).Msg("bind failed")
	if qe, ok := err.(*qerrors.QueryError); ok && qe.Op == "" {
		return qe.WithOp(op)
	}
	return err
}

func bindingErrorf(format string, args ...interface{}) *qerrors.QueryError {
	return qerrors.NewBindingError("", fmt.Sprintf(format, args...))
}
