// Package testutil provides shared fixtures for the parser and binder tests:
// a sample schema, helpers to reach its types and sources, and assertions
// over query errors.
package testutil

import (
	_ "embed"
	"testing"

	"github.com/paveg/odataq/internal/edm"
	qerrors "github.com/paveg/odataq/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//go:embed sample_schema.yaml
var sampleSchema []byte

// SampleSchemaYAML returns the YAML document behind SampleModel.
func SampleSchemaYAML() []byte {
	return append([]byte(nil), sampleSchema...)
}

// SampleModel loads the sample schema: products, categories, items and
// customers in the Demo namespace.
//
// Example usage:
//
//	model := testutil.SampleModel(t)
//	products := testutil.EntitySet(t, model, "Products")
func SampleModel(tb testing.TB) *edm.InMemoryModel {
	tb.Helper()
	model, err := edm.LoadModelYAML(sampleSchema)
	require.NoError(tb, err, "sample schema should load")
	return model
}

// EntitySet returns a named entity set of model.
func EntitySet(tb testing.TB, model edm.Model, name string) *edm.EntitySet {
	tb.Helper()
	src, ok := model.FindNavigationSource(name).Value()
	require.True(tb, ok, "navigation source %s should resolve", name)
	set, ok := src.(*edm.EntitySet)
	require.True(tb, ok, "navigation source %s should be an entity set", name)
	return set
}

// EntityType returns a qualified entity type of model.
func EntityType(tb testing.TB, model edm.Model, name string) *edm.EntityType {
	tb.Helper()
	t, ok := model.FindType(name).Value()
	require.True(tb, ok, "type %s should resolve", name)
	et, ok := t.(*edm.EntityType)
	require.True(tb, ok, "type %s should be an entity type", name)
	return et
}

// ComplexType returns a qualified complex type of model.
func ComplexType(tb testing.TB, model edm.Model, name string) *edm.ComplexType {
	tb.Helper()
	t, ok := model.FindType(name).Value()
	require.True(tb, ok, "type %s should resolve", name)
	ct, ok := t.(*edm.ComplexType)
	require.True(tb, ok, "type %s should be a complex type", name)
	return ct
}

// AssertQueryError verifies that err is a *QueryError of the given kind whose
// message contains fragment.
func AssertQueryError(t *testing.T, err error, kind qerrors.Kind, fragment string) *qerrors.QueryError {
	t.Helper()

	require.Error(t, err, "an error was expected")
	var qe *qerrors.QueryError
	require.ErrorAs(t, err, &qe, "error should be a *QueryError")
	assert.Equal(t, kind, qe.Kind, "error kind should match: %v", err)
	assert.Contains(t, qe.Error(), fragment)
	return qe
}
