package odataq

import (
	"context"
	"sync"

	"github.com/paveg/odataq/internal/alias"
	"github.com/paveg/odataq/internal/parallel"
	"github.com/paveg/odataq/internal/semantic"
)

// FilterResult is the outcome of one expression of a batch.
type FilterResult struct {
	Text   string
	Clause *semantic.FilterClause
	Err    error
}

// ParseFilters parses and binds every text on up to workers goroutines
// (runtime.NumCPU() when workers is not positive). Results keep the order of
// texts. Each expression gets its own alias session over the values given
// with WithParameterAliases. With a custom accessor, parsing stays parallel
// but binds run one at a time, so every alias is still fetched and bound at
// most once.
func (qp *QueryParser) ParseFilters(ctx context.Context, texts []string, workers int) ([]FilterResult, error) {
	var bindMu *sync.Mutex
	if qp.aliases != nil && qp.aliasValues == nil {
		bindMu = new(sync.Mutex)
	}

	pool := parallel.NewWorkerPool(workers)
	return parallel.Process(ctx, pool, texts, func(ctx context.Context, _ int, text string) FilterResult {
		if err := ctx.Err(); err != nil {
			return FilterResult{Text: text, Err: err}
		}
		item := qp.session()
		token, err := item.SyntaxFilter(text)
		if err != nil {
			return FilterResult{Text: text, Err: err}
		}
		if bindMu != nil {
			bindMu.Lock()
			defer bindMu.Unlock()
		}
		clause, err := item.bindFilter(text, token)
		return FilterResult{Text: text, Clause: clause, Err: err}
	})
}

// session returns a shallow copy of qp. Alias values given as a map get a
// fresh accessor; the model, logger, metrics collector, parse cache and any
// custom accessor are shared.
func (qp *QueryParser) session() *QueryParser {
	c := *qp
	if qp.aliasValues != nil {
		c.aliases = alias.NewAccessor(qp.aliasValues)
	}
	return &c
}
