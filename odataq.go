// Package odataq parses OData-style query options ($filter, $orderby and
// $levels) against a schema and binds them into typed semantic trees.
// This package is the public entry point of the library.
package odataq

import (
	"fmt"
	"os"

	"github.com/paveg/odataq/internal/alias"
	"github.com/paveg/odataq/internal/binder"
	"github.com/paveg/odataq/internal/cache"
	"github.com/paveg/odataq/internal/config"
	"github.com/paveg/odataq/internal/edm"
	qerrors "github.com/paveg/odataq/internal/errors"
	"github.com/paveg/odataq/internal/logging"
	"github.com/paveg/odataq/internal/monitoring"
	"github.com/paveg/odataq/internal/semantic"
	"github.com/paveg/odataq/internal/syntax"
	"github.com/paveg/odataq/internal/validation"
	"github.com/rs/zerolog"
)

// Operation names reported to the metrics collector and the logger.
const (
	OpParseFilter  = "ParseFilter"
	OpParseOrderBy = "ParseOrderBy"
	OpParseLevels  = "ParseLevels"
	OpBindFilter   = "BindFilter"
	OpBindOrderBy  = "BindOrderBy"
)

// QueryParser parses and binds the query options of one resource.
//
// A QueryParser carries the parameter alias values of one request and must
// not be used by concurrent requests. The parse cache it holds is safe to
// share.
type QueryParser struct {
	model  edm.Model
	source edm.NavigationSource

	cfg         config.Config
	cfgSet      bool
	aliases     binder.AliasValueAccessor
	aliasValues map[string]string
	logger      *zerolog.Logger
	metrics     *monitoring.MetricsCollector
	cacheSize   int
	cache       *cache.ParseCache[interface{}]
}

// Option configures a QueryParser.
type Option func(*QueryParser)

// WithConfig replaces the global configuration for this parser.
func WithConfig(cfg config.Config) Option {
	return func(qp *QueryParser) {
		qp.cfg = cfg
		qp.cfgSet = true
	}
}

// WithParameterAliases supplies alias values such as {"@p": "5"}.
func WithParameterAliases(values map[string]string) Option {
	return func(qp *QueryParser) {
		qp.aliases = alias.NewAccessor(values)
		qp.aliasValues = values
	}
}

// WithAliasAccessor supplies a custom alias value source.
func WithAliasAccessor(accessor binder.AliasValueAccessor) Option {
	return func(qp *QueryParser) {
		qp.aliases = accessor
		qp.aliasValues = nil
	}
}

// WithLogger sets the logger. Without it a logger is built from the
// configured log level.
func WithLogger(logger zerolog.Logger) Option {
	return func(qp *QueryParser) {
		qp.logger = &logger
	}
}

// WithMetrics records parse and bind operations in collector.
func WithMetrics(collector *monitoring.MetricsCollector) Option {
	return func(qp *QueryParser) {
		qp.metrics = collector
	}
}

// WithParseCache keeps up to size parsed syntax trees. Zero disables the
// cache.
func WithParseCache(size int) Option {
	return func(qp *QueryParser) {
		qp.cacheSize = size
	}
}

// NewQueryParser creates a parser for the entity set or singleton named
// resource in model.
func NewQueryParser(model edm.Model, resource string, opts ...Option) (*QueryParser, error) {
	const op = "NewQueryParser"
	if err := validation.ValidateAll(
		validation.NewNotNilValidator(model, op, "model"),
		validation.NewNotEmptyValidator(resource, op, "resource"),
	); err != nil {
		return nil, err
	}

	qp := &QueryParser{model: model, cacheSize: -1}
	for _, opt := range opts {
		opt(qp)
	}
	if !qp.cfgSet {
		qp.cfg = config.GetGlobalConfig()
	}
	if err := qp.cfg.Validate(); err != nil {
		return nil, qerrors.NewArgumentError(op, "config", "is invalid: "+err.Error())
	}

	resolution := model.FindNavigationSource(resource)
	source, ok := resolution.Value()
	switch {
	case resolution.IsAmbiguous():
		return nil, qerrors.NewArgumentError(op, "resource", fmt.Sprintf("'%s' names more than one navigation source", resource))
	case !ok:
		return nil, qerrors.NewArgumentError(op, "resource", fmt.Sprintf("'%s' does not name an entity set or singleton", resource))
	}
	qp.source = source

	if qp.logger == nil {
		logger, err := logging.New(os.Stderr, logging.FormatConsole, qp.cfg.LogLevel)
		if err != nil {
			return nil, qerrors.NewArgumentError(op, "config", "is invalid: "+err.Error())
		}
		qp.logger = &logger
	}
	if qp.metrics == nil && qp.cfg.MetricsCollection {
		qp.metrics = monitoring.CollectorFor(nil)
		if qp.metrics == nil {
			qp.metrics = monitoring.NewMetricsCollector(true)
		}
	}
	if qp.cacheSize < 0 {
		qp.cacheSize = qp.cfg.ParseCacheSize
	}
	qp.cache = cache.New[interface{}](qp.cacheSize)

	return qp, nil
}

// Source returns the navigation source queries are bound against.
func (qp *QueryParser) Source() edm.NavigationSource { return qp.source }

// Metrics returns the collector in use, or nil.
func (qp *QueryParser) Metrics() *monitoring.MetricsCollector { return qp.metrics }

// CacheStats reports parse cache effectiveness.
func (qp *QueryParser) CacheStats() cache.Stats { return qp.cache.Stats() }

// SyntaxFilter parses a $filter value without binding it.
func (qp *QueryParser) SyntaxFilter(text string) (syntax.QueryToken, error) {
	v, err := qp.parse(OpParseFilter, text, func(p *syntax.Parser) (interface{}, error) {
		return p.ParseFilter(text)
	})
	if err != nil {
		return nil, err
	}
	return v.(syntax.QueryToken), nil
}

// SyntaxOrderBy parses an $orderby value without binding it.
func (qp *QueryParser) SyntaxOrderBy(text string) ([]*syntax.OrderByToken, error) {
	v, err := qp.parse(OpParseOrderBy, text, func(p *syntax.Parser) (interface{}, error) {
		return p.ParseOrderBy(text)
	})
	if err != nil {
		return nil, err
	}
	return v.([]*syntax.OrderByToken), nil
}

// ParseFilter parses and binds a $filter value.
func (qp *QueryParser) ParseFilter(text string) (*semantic.FilterClause, error) {
	token, err := qp.SyntaxFilter(text)
	if err != nil {
		return nil, err
	}
	return qp.bindFilter(text, token)
}

func (qp *QueryParser) bindFilter(text string, token syntax.QueryToken) (*semantic.FilterClause, error) {
	b, err := qp.binder()
	if err != nil {
		return nil, err
	}

	var clause *semantic.FilterClause
	err = qp.record(OpBindFilter, text, func() error {
		var bindErr error
		clause, bindErr = b.BindFilter(token, qp.source)
		return bindErr
	})
	if err != nil {
		return nil, err
	}
	qp.logResolutionErrors(OpBindFilter, clause.Expression())
	return clause, nil
}

// ParseOrderBy parses and binds an $orderby value.
func (qp *QueryParser) ParseOrderBy(text string) (*semantic.OrderByClause, error) {
	tokens, err := qp.SyntaxOrderBy(text)
	if err != nil {
		return nil, err
	}
	b, err := qp.binder()
	if err != nil {
		return nil, err
	}

	var clause *semantic.OrderByClause
	err = qp.record(OpBindOrderBy, text, func() error {
		var bindErr error
		clause, bindErr = b.BindOrderBy(tokens, qp.source)
		return bindErr
	})
	if err != nil {
		return nil, err
	}
	for c := clause; c != nil; c = c.ThenBy() {
		qp.logResolutionErrors(OpBindOrderBy, c.Expression())
	}
	return clause, nil
}

// ParseLevels parses a $levels value: a non-negative integer or "max".
func (qp *QueryParser) ParseLevels(text string) (*semantic.LevelsClause, error) {
	v, err := qp.parse(OpParseLevels, text, func(p *syntax.Parser) (interface{}, error) {
		return p.ParseLevels(text)
	})
	if err != nil {
		return nil, err
	}
	b, err := qp.binder()
	if err != nil {
		return nil, err
	}
	return b.BindLevels(v.(*syntax.LevelsToken))
}

func (qp *QueryParser) parserOptions() syntax.ParserOptions {
	opts := syntax.OptionsFromConfig(qp.cfg)
	opts.Logger = qp.logger
	return opts
}

func (qp *QueryParser) cacheKey(op, text string) cache.Key {
	opts := qp.parserOptions()
	return cache.Key{
		Entry:   op,
		Options: fmt.Sprintf("depth=%d;ci=%t;semicolon=%t", opts.MaxDepth, opts.CaseInsensitiveKeywords, opts.UseSemicolonDelimiter),
		Text:    text,
	}
}

// parse runs fn on a fresh parser, serving and filling the parse cache.
func (qp *QueryParser) parse(op, text string, fn func(*syntax.Parser) (interface{}, error)) (interface{}, error) {
	key := qp.cacheKey(op, text)
	if v, ok := qp.cache.Get(key); ok {
		qp.logger.Debug().Str("op", op).Msg("parse cache hit")
		if qp.metrics != nil {
			qp.metrics.RecordCacheHit(op, text)
		}
		return v, nil
	}

	var result interface{}
	err := qp.record(op, text, func() error {
		var parseErr error
		result, parseErr = fn(syntax.NewParser(qp.parserOptions()))
		return parseErr
	})
	if err != nil {
		return nil, err
	}
	qp.cache.Put(key, result)
	return result, nil
}

func (qp *QueryParser) record(op, text string, fn func() error) error {
	if qp.metrics == nil {
		return fn()
	}
	return qp.metrics.RecordOperation(op, text, fn)
}

func (qp *QueryParser) binder() (*binder.Binder, error) {
	opts := []binder.Option{
		binder.WithConfig(qp.cfg),
		binder.WithLogger(*qp.logger),
	}
	if qp.aliases != nil {
		opts = append(opts, binder.WithAliasAccessor(qp.aliases))
	}
	return binder.New(qp.model, opts...)
}

func (qp *QueryParser) logResolutionErrors(op string, n semantic.Node) {
	for _, err := range semantic.CollectErrors(n) {
		qp.logger.Debug().Str("op", op).Err(err).Msg("unresolved name")
	}
}

// Errors returns the non-fatal name resolution errors recorded in a bound
// tree, such as unknown or ambiguous property names.
func Errors(n semantic.Node) []*qerrors.QueryError {
	return semantic.CollectErrors(n)
}
