package common_test

import (
	"math"
	"testing"

	"github.com/goccy/go-json"
	"github.com/paveg/odataq/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeConverter(t *testing.T) {
	converter := common.NewTypeConverter()

	t.Run("SafeFloat64ToFloat32", func(t *testing.T) {
		result, err := converter.SafeFloat64ToFloat32(3.14)
		require.NoError(t, err)
		assert.InDelta(t, 3.14, result, 0.01)

		result, err = converter.SafeFloat64ToFloat32(math.Inf(1))
		require.NoError(t, err)
		assert.True(t, math.IsInf(float64(result), 1))

		_, err = converter.SafeFloat64ToFloat32(math.MaxFloat64)
		require.Error(t, err)
	})

	t.Run("ToInt64", func(t *testing.T) {
		tests := []struct {
			name     string
			input    interface{}
			expected int64
			wantErr  bool
		}{
			{"int", 42, 42, false},
			{"int32", int32(-7), -7, false},
			{"integral float", float64(12), 12, false},
			{"fractional float", 1.5, 0, true},
			{"json number", json.Number("123"), 123, false},
			{"json fractional number", json.Number("1.5"), 0, true},
			{"string", "99", 99, false},
			{"bool", true, 0, true},
			{"uint64 overflow", uint64(math.MaxUint64), 0, true},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				result, err := converter.ToInt64(tt.input)
				if tt.wantErr {
					assert.Error(t, err)
					return
				}
				require.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			})
		}
	})

	t.Run("ToFloat64", func(t *testing.T) {
		result, err := converter.ToFloat64(json.Number("2.5"))
		require.NoError(t, err)
		assert.InDelta(t, 2.5, result, 1e-9)

		result, err = converter.ToFloat64(int64(3))
		require.NoError(t, err)
		assert.InDelta(t, 3.0, result, 1e-9)

		_, err = converter.ToFloat64([]interface{}{})
		assert.EqualError(t, err, "cannot convert array to float64")
	})

	t.Run("ToBool", func(t *testing.T) {
		result, err := converter.ToBool(true)
		require.NoError(t, err)
		assert.True(t, result)

		result, err = converter.ToBool("false")
		require.NoError(t, err)
		assert.False(t, result)

		_, err = converter.ToBool(1.0)
		assert.EqualError(t, err, "cannot convert number to bool")
	})

	t.Run("ToString", func(t *testing.T) {
		assert.Equal(t, "text", converter.ToString("text"))
		assert.Equal(t, "42", converter.ToString(42))
		assert.Equal(t, "1.5", converter.ToString(1.5))
		assert.Equal(t, "true", converter.ToString(true))
		assert.Equal(t, "7", converter.ToString(json.Number("7")))
	})

	t.Run("IsNumericType", func(t *testing.T) {
		assert.True(t, converter.IsNumericType(1))
		assert.True(t, converter.IsNumericType(json.Number("1")))
		assert.False(t, converter.IsNumericType("1"))
	})

	t.Run("GetTypeName", func(t *testing.T) {
		assert.Equal(t, "null", converter.GetTypeName(nil))
		assert.Equal(t, "object", converter.GetTypeName(map[string]interface{}{}))
		assert.Equal(t, "array", converter.GetTypeName([]interface{}{}))
		assert.Equal(t, "string", converter.GetTypeName(""))
	})
}

func TestDefaultConverterFunctions(t *testing.T) {
	v, err := common.ToInt64(json.Number("5"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), v)

	f, err := common.ToFloat64(1)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, f, 1e-9)

	f32, err := common.SafeFloat64ToFloat32(0.5)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, f32, 1e-6)

	b, err := common.ToBool("true")
	require.NoError(t, err)
	assert.True(t, b)

	assert.Equal(t, "x", common.ToString("x"))
	assert.True(t, common.IsNumericType(2.0))
	assert.Equal(t, "bool", common.GetTypeName(false))
}
