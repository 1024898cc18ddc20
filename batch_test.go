package odataq_test

import (
	"context"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/paveg/odataq"
	"github.com/paveg/odataq/internal/alias"
	qerrors "github.com/paveg/odataq/internal/errors"
	"github.com/paveg/odataq/internal/monitoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryParser_ParseFilters(t *testing.T) {
	collector := monitoring.NewMetricsCollector(true)
	qp := newProductsParser(t,
		odataq.WithParameterAliases(map[string]string{"@p": "5"}),
		odataq.WithMetrics(collector),
		odataq.WithParseCache(16),
	)

	texts := []string{
		"Price gt 5",
		"Stock gt @p",
		"Price eq",
		"Name eq 'x'",
		"Price gt 5",
	}
	results, err := qp.ParseFilters(context.Background(), texts, 3)
	require.NoError(t, err)
	require.Len(t, results, len(texts))

	for i, r := range results {
		assert.Equal(t, texts[i], r.Text)
	}
	require.NoError(t, results[0].Err)
	assert.Equal(t, "gt($it/Price, convert(5, Edm.Decimal))", results[0].Clause.String())
	require.NoError(t, results[1].Err)
	assert.Equal(t, "gt($it/Stock, convert(@p, Edm.Int64))", results[1].Clause.String())
	assert.ErrorIs(t, results[2].Err, qerrors.ErrSyntax)
	assert.Nil(t, results[2].Clause)
	require.NoError(t, results[3].Err)
	assert.Equal(t, results[0].Clause.String(), results[4].Clause.String())

	assert.Equal(t, 1, collector.GetSummary().Failures)
}

func TestQueryParser_ParseFilters_SharedAccessor(t *testing.T) {
	accessor := alias.NewAccessor(map[string]string{"@n": "'Milk'"})
	qp := newProductsParser(t, odataq.WithAliasAccessor(accessor))

	texts := make([]string, 8)
	for i := range texts {
		texts[i] = "Name eq @n"
	}
	results, err := qp.ParseFilters(context.Background(), texts, 4)
	require.NoError(t, err)
	for _, r := range results {
		require.NoError(t, r.Err)
		assert.Equal(t, "eq($it/Name, @n)", r.Clause.String())
	}
	node, ok := accessor.CachedNode("@n")
	require.True(t, ok)
	assert.Equal(t, "'Milk'", node.String())
}

func TestQueryParser_ParseFilters_Cancelled(t *testing.T) {
	qp := newProductsParser(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := qp.ParseFilters(ctx, []string{"Price gt 1", "Price gt 2"}, 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, results, 2)
}

type slowAccessor struct {
	*alias.Accessor
	calls atomic.Int32
}

func (a *slowAccessor) ValueExpression(name string) (string, bool) {
	a.calls.Add(1)
	time.Sleep(5 * time.Millisecond)
	return a.Accessor.ValueExpression(name)
}

func TestQueryParser_ParseFilters_SharedAccessorBindsOnce(t *testing.T) {
	defer runtime.GOMAXPROCS(runtime.GOMAXPROCS(8))

	accessor := &slowAccessor{Accessor: alias.NewAccessor(map[string]string{"@n": "'Milk'"})}
	qp := newProductsParser(t, odataq.WithAliasAccessor(accessor))

	texts := make([]string, 32)
	for i := range texts {
		texts[i] = "Name eq @n"
	}
	results, err := qp.ParseFilters(context.Background(), texts, 8)
	require.NoError(t, err)
	for _, r := range results {
		require.NoError(t, r.Err)
	}
	assert.EqualValues(t, 1, accessor.calls.Load(), "the alias value is fetched once per accessor")
}
