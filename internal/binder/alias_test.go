package binder_test

import (
	"testing"

	"github.com/paveg/odataq/internal/alias"
	"github.com/paveg/odataq/internal/binder"
	"github.com/paveg/odataq/internal/edm"
	qerrors "github.com/paveg/odataq/internal/errors"
	"github.com/paveg/odataq/internal/literal"
	"github.com/paveg/odataq/internal/semantic"
	"github.com/paveg/odataq/internal/syntax"
	"github.com/paveg/odataq/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func aliasNodes(n semantic.Node) []*semantic.ParameterAliasNode {
	var out []*semantic.ParameterAliasNode
	semantic.Walk(n, func(n semantic.Node) bool {
		if a, ok := n.(*semantic.ParameterAliasNode); ok {
			out = append(out, a)
		}
		return true
	})
	return out
}

func TestAliasBinding_ValueIsBoundOnce(t *testing.T) {
	f := newFixture(t)
	accessor := alias.NewAccessor(map[string]string{"p": "5"})

	clause, err := f.bindFilter(t, "Stock gt @p and Stock lt @p add 10", f.products, binder.WithAliasAccessor(accessor))
	require.NoError(t, err)

	assert.Equal(t, 1, accessor.Lookups(), "the value expression is fetched once")
	nodes := aliasNodes(clause.Expression())
	require.Len(t, nodes, 2)
	for _, n := range nodes {
		assert.Equal(t, "@p", n.Alias())
		assert.Equal(t, edm.PrimitiveInt32, n.TypeReference().PrimitiveKind())
	}

	cached, ok := accessor.CachedNode("@p")
	require.True(t, ok)
	assert.Equal(t, "5", cached.String())
}

func TestAliasBinding_MissingValue(t *testing.T) {
	f := newFixture(t)
	accessor := alias.NewAccessor(nil)

	clause, err := f.bindFilter(t, "Price gt @q or Price lt @q", f.products, binder.WithAliasAccessor(accessor))
	require.NoError(t, err)

	for _, n := range aliasNodes(clause.Expression()) {
		assert.Nil(t, n.TypeReference())
	}
	assert.Equal(t, 1, accessor.Lookups())
	node, ok := accessor.CachedNode("@q")
	assert.True(t, ok, "a missing value is cached as a marker")
	assert.Nil(t, node)
}

func TestAliasBinding_WithoutAccessor(t *testing.T) {
	f := newFixture(t)

	clause, err := f.bindFilter(t, "Name eq @name", f.products)
	require.NoError(t, err)
	nodes := aliasNodes(clause.Expression())
	require.Len(t, nodes, 1)
	assert.Nil(t, nodes[0].TypeReference())
}

func TestAliasBinding_Errors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name     string
		values   map[string]string
		filter   string
		kind     qerrors.Kind
		fragment string
	}{
		{"collection value", map[string]string{"@p": "Items"}, "@p eq null", qerrors.KindBinding, "parameter alias value expression is not a single value"},
		{"self reference", map[string]string{"@p": "@p add 1"}, "Stock gt @p", qerrors.KindBinding, "parameter alias '@p' refers to itself"},
		{"invalid expression", map[string]string{"@p": "5 eq"}, "Stock gt @p", qerrors.KindSyntax, "expression expected"},
		{"payload mismatch", map[string]string{"@a": `{"Town":"Oslo"}`, "@c": `["Red"]`}, "Demo.WithinArea(area=@a, colors=@c)", qerrors.KindBinding, "property \"Town\" is not defined on Demo.Address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accessor := alias.NewAccessor(tt.values)
			_, err := f.bindFilter(t, tt.filter, f.products, binder.WithAliasAccessor(accessor))
			testutil.AssertQueryError(t, err, tt.kind, tt.fragment)
		})
	}
}

func TestAliasBinding_InvalidExpressionNamesAlias(t *testing.T) {
	f := newFixture(t)
	accessor := alias.NewAccessor(map[string]string{"@p": "5 eq"})

	_, err := f.bindFilter(t, "Stock gt @p", f.products, binder.WithAliasAccessor(accessor))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing value of parameter alias @p")
	assert.ErrorIs(t, err, qerrors.ErrSyntax)
}

func TestAliasBinding_BracketedPayloads(t *testing.T) {
	f := newFixture(t)
	accessor := alias.NewAccessor(map[string]string{
		"@a": `{"City":"Oslo","Zip":"0150"}`,
		"@c": `["Red","Green"]`,
	})

	clause, err := f.bindFilter(t, "Demo.WithinArea(area=@a, colors=@c)", f.products, binder.WithAliasAccessor(accessor))
	require.NoError(t, err)

	nodes := aliasNodes(clause.Expression())
	require.Len(t, nodes, 2)
	assert.Equal(t, "Demo.Address", nodes[0].TypeReference().FullName())
	assert.Equal(t, "Collection(Edm.String)", nodes[1].TypeReference().FullName())

	area, ok := accessor.CachedNode("@a")
	require.True(t, ok)
	assert.Equal(t, map[string]interface{}{"City": "Oslo", "Zip": "0150"}, area.(*semantic.ConstantNode).Value())

	colors, ok := accessor.CachedNode("@c")
	require.True(t, ok)
	assert.Equal(t, []interface{}{"Red", "Green"}, colors.(*semantic.ConstantNode).Value())
}

func TestAliasBinding_EntityPayloadKeepsRawValue(t *testing.T) {
	f := newFixture(t)
	accessor := alias.NewAccessor(map[string]string{"@cat": `{"ID":1,"Name":"Food"}`})

	clause, err := f.bindFilter(t, "Demo.TopProduct(category=@cat)/Price gt 1", f.products, binder.WithAliasAccessor(accessor))
	require.NoError(t, err)
	assert.Equal(t, "gt(Demo.TopProduct(@cat)/Price, convert(1, Edm.Decimal))", clause.String())

	cached, ok := accessor.CachedNode("@cat")
	require.True(t, ok)
	constant := cached.(*semantic.ConstantNode)
	assert.Equal(t, "Demo.Category", constant.TypeReference().FullName())
	assert.Equal(t, literal.Payload{Text: `{"ID":1,"Name":"Food"}`}, constant.Value())
}

func TestAliasBinder_Direct(t *testing.T) {
	accessor := alias.NewAccessor(map[string]string{"@n": "42"})
	var bound []syntax.QueryToken
	bind := func(tok syntax.QueryToken) (semantic.Node, error) {
		bound = append(bound, tok)
		return semantic.NewConstantNode(int32(42), tok.String(), edm.PrimitiveReference(edm.PrimitiveInt32, false)), nil
	}

	ab, err := binder.NewAliasBinder(accessor, bind, syntax.ParserOptions{}, zerolog.Nop())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		node, err := ab.BindParameterAlias(&syntax.ParameterAliasToken{Name: "@n"})
		require.NoError(t, err)
		assert.Equal(t, "Edm.Int32", node.TypeReference().FullName())
	}
	assert.Len(t, bound, 1, "the value is bound once and then served from the cache")
	assert.Equal(t, 1, accessor.Lookups())

	_, err = binder.NewAliasBinder(accessor, nil, syntax.ParserOptions{}, zerolog.Nop())
	testutil.AssertQueryError(t, err, qerrors.KindArgument, "argument 'bind' must not be nil")

	untyped, err := binder.NewAliasBinder(nil, bind, syntax.ParserOptions{}, zerolog.Nop())
	require.NoError(t, err)
	node, err := untyped.BindParameterAlias(&syntax.ParameterAliasToken{Name: "@n"})
	require.NoError(t, err)
	assert.Nil(t, node.TypeReference())
}

func TestAliasBinding_LambdaVariableInValue(t *testing.T) {
	f := newFixture(t)
	accessor := alias.NewAccessor(map[string]string{"@p": "i/Price"})

	clause, err := f.bindFilter(t, "Items/any(i: i/Price gt 1 and @p gt 2)", f.products, binder.WithAliasAccessor(accessor))
	require.NoError(t, err)
	assert.Empty(t, semantic.CollectErrors(clause.Expression()))

	cached, ok := accessor.CachedNode("@p")
	require.True(t, ok)
	assert.Equal(t, "i/Price", cached.String())
	assert.Equal(t, "Edm.Decimal", cached.TypeReference().FullName())
}

func TestAliasBinding_ValueErrorsAreCollected(t *testing.T) {
	f := newFixture(t)
	accessor := alias.NewAccessor(map[string]string{"@p": "Nope"})

	clause, err := f.bindFilter(t, "Name eq @p or Name ne @p", f.products, binder.WithAliasAccessor(accessor))
	require.NoError(t, err)

	nodes := aliasNodes(clause.Expression())
	require.Len(t, nodes, 2)
	for _, n := range nodes {
		require.Len(t, n.Errors(), 1, "cached and fresh bindings both carry the error")
		assert.Contains(t, n.Errors()[0].Message, "could not find property 'Nope'")
	}
	assert.Len(t, semantic.CollectErrors(clause.Expression()), 2)
}
