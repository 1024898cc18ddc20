package common_test

import (
	"testing"

	"github.com/paveg/odataq/internal/common"
	"github.com/stretchr/testify/assert"
)

func TestStringFormatter(t *testing.T) {
	formatter := common.NewStringFormatter()

	t.Run("FormatFunction", func(t *testing.T) {
		assert.Equal(t, "now()", formatter.FormatFunction("now"))
		assert.Equal(t, "or(a, b)", formatter.FormatFunction("or", "a", "b"))
	})

	t.Run("FormatPath", func(t *testing.T) {
		assert.Equal(t, "Name", formatter.FormatPath("", "Name"))
		assert.Equal(t, "Address/City", formatter.FormatPath("Address", "City"))
	})

	t.Run("FormatLambda", func(t *testing.T) {
		assert.Equal(t, "Items/any(d: gt(d/Price, 5))", formatter.FormatLambda("Items", "any", "d", "gt(d/Price, 5)"))
		assert.Equal(t, "Items/all(true)", formatter.FormatLambda("Items", "all", "", "true"))
	})

	t.Run("FormatNamedArgument", func(t *testing.T) {
		assert.Equal(t, "p=@a", formatter.FormatNamedArgument("p", "@a"))
	})

	t.Run("FormatSort", func(t *testing.T) {
		assert.Equal(t, "Name asc", formatter.FormatSort("Name", true))
		assert.Equal(t, "Name desc", formatter.FormatSort("Name", false))
	})

	t.Run("QuoteString", func(t *testing.T) {
		assert.Equal(t, "'it''s'", formatter.QuoteString("it's"))
		assert.Equal(t, "''", formatter.QuoteString(""))
	})

	t.Run("FormatEnum", func(t *testing.T) {
		mapping := common.EnumStringMap{0: "zero"}
		assert.Equal(t, "zero", formatter.FormatEnum(0, mapping))
		assert.Equal(t, "unknown(5)", formatter.FormatEnum(5, mapping))
	})

	t.Run("FormatList", func(t *testing.T) {
		assert.Equal(t, "a, b", formatter.FormatList([]string{"a", "b"}, ", "))
	})
}

func TestDefaultFormatterFunctions(t *testing.T) {
	assert.Equal(t, "f(x)", common.FormatFunction("f", "x"))
	assert.Equal(t, "a/b", common.FormatPath("a", "b"))
	assert.Equal(t, "x/any(true)", common.FormatLambda("x", "any", "", "true"))
	assert.Equal(t, "n=1", common.FormatNamedArgument("n", "1"))
	assert.Equal(t, "x desc", common.FormatSort("x", false))
	assert.Equal(t, "'a'", common.QuoteString("a"))
	assert.Equal(t, "A, B", common.FormatList([]string{"A", "B"}))
}
