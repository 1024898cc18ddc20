package common_test

import (
	"testing"

	"github.com/paveg/odataq/internal/common"
	"github.com/stretchr/testify/assert"
)

func TestKeywordRegistry(t *testing.T) {
	registry := common.NewKeywordRegistry()

	testMapping := common.EnumStringMap{
		0: "zero",
		1: "one",
	}

	t.Run("Register and Format", func(t *testing.T) {
		registry.Register("TestEnum", testMapping)

		assert.Equal(t, "zero", registry.Format("TestEnum", 0))
		assert.Equal(t, "one", registry.Format("TestEnum", 1))
		assert.Equal(t, "unknown_TestEnum(99)", registry.Format("TestEnum", 99))
	})

	t.Run("Lookup", func(t *testing.T) {
		registry.Register("TestEnum", testMapping)

		value, ok := registry.Lookup("TestEnum", "one", false)
		assert.True(t, ok)
		assert.Equal(t, 1, value)

		_, ok = registry.Lookup("TestEnum", "ONE", false)
		assert.False(t, ok)

		value, ok = registry.Lookup("TestEnum", "ONE", true)
		assert.True(t, ok)
		assert.Equal(t, 1, value)

		_, ok = registry.Lookup("Missing", "one", true)
		assert.False(t, ok)
	})

	t.Run("Mapping", func(t *testing.T) {
		mapping, exists := registry.Mapping("TestEnum")
		assert.True(t, exists)
		assert.Equal(t, testMapping, mapping)

		_, exists = registry.Mapping("NonExistent")
		assert.False(t, exists)
	})
}

func TestGrammarKeywords(t *testing.T) {
	tests := []struct {
		name            string
		keyword         string
		caseInsensitive bool
		expected        int
		found           bool
	}{
		{"or", "or", false, 0, true},
		{"mod", "mod", false, 13, true},
		{"upper case rejected", "EQ", false, 0, false},
		{"upper case folded", "EQ", true, 2, true},
		{"mixed case folded", "HaS", true, 8, true},
		{"not a binary operator", "not", true, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, ok := common.ParseBinaryOperator(tt.keyword, tt.caseInsensitive)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.expected, value)
			}
		})
	}

	assert.Equal(t, "and", common.FormatBinaryOperator(1))
	assert.Equal(t, "not", common.FormatUnaryOperator(1))
	assert.Equal(t, "desc", common.FormatOrderDirection(1))
	assert.Equal(t, "any", common.FormatLambdaKind(0))
	assert.Equal(t, "unknown_BinaryOperator(42)", common.FormatBinaryOperator(42))

	direction, ok := common.ParseOrderDirection("DESC", true)
	assert.True(t, ok)
	assert.Equal(t, 1, direction)

	kind, ok := common.ParseLambdaKind("All", true)
	assert.True(t, ok)
	assert.Equal(t, 1, kind)
}

func TestKeywordEqual(t *testing.T) {
	assert.True(t, common.KeywordEqual("any", "any", false))
	assert.False(t, common.KeywordEqual("ANY", "any", false))
	assert.True(t, common.KeywordEqual("ANY", "any", true))
	assert.False(t, common.KeywordEqual("", "any", true))
	assert.Equal(t, common.Fold("ÄNY"), common.Fold("äny"))
}
