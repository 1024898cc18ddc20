package common

import (
	"fmt"
	"math"
	"strconv"

	"github.com/goccy/go-json"
)

// TypeConverter provides the value conversions used when coercing decoded
// payload values to primitive kinds.
type TypeConverter struct{}

// NewTypeConverter creates a new TypeConverter instance.
func NewTypeConverter() *TypeConverter {
	return &TypeConverter{}
}

// SafeFloat64ToFloat32 converts float64 to float32, checking for overflow.
func (tc *TypeConverter) SafeFloat64ToFloat32(value float64) (float32, error) {
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return float32(value), nil // Preserve special values
	}
	if value > math.MaxFloat32 || value < -math.MaxFloat32 {
		return 0, fmt.Errorf("float64 value %g overflows float32 range", value)
	}
	return float32(value), nil
}

// ToInt64 converts numeric values to int64. Floating point values must be
// integral.
func (tc *TypeConverter) ToInt64(value interface{}) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("uint64 value %d overflows int64 range", v)
		}
		return int64(v), nil
	case float32:
		return tc.ToInt64(float64(v))
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, fmt.Errorf("float64 value %g is not integral", v)
		}
		if v > math.MaxInt64 || v < math.MinInt64 {
			return 0, fmt.Errorf("float64 value %g overflows int64 range", v)
		}
		return int64(v), nil
	case json.Number:
		if n, err := strconv.ParseInt(string(v), 10, 64); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(string(v), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number %s", string(v))
		}
		return tc.ToInt64(f)
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("cannot convert %s to int64", tc.GetTypeName(value))
	}
}

// ToFloat64 converts numeric values to float64.
func (tc *TypeConverter) ToFloat64(value interface{}) (float64, error) {
	switch v := value.(type) {
	case int:
		return float64(v), nil
	case int8:
		return float64(v), nil
	case int16:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint8:
		return float64(v), nil
	case uint16:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case json.Number:
		return strconv.ParseFloat(string(v), 64)
	case string:
		return strconv.ParseFloat(v, 64)
	default:
		return 0, fmt.Errorf("cannot convert %s to float64", tc.GetTypeName(value))
	}
}

// ToString converts scalar values to their textual form.
func (tc *TypeConverter) ToString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return string(v)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v)
	case float32, float64:
		return fmt.Sprintf("%g", v)
	case bool:
		return strconv.FormatBool(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ToBool converts a bool or its textual form.
func (tc *TypeConverter) ToBool(value interface{}) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(v)
	default:
		return false, fmt.Errorf("cannot convert %s to bool", tc.GetTypeName(value))
	}
}

// IsNumericType checks if a value is of a numeric type.
func (tc *TypeConverter) IsNumericType(value interface{}) bool {
	switch value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, json.Number:
		return true
	default:
		return false
	}
}

// GetTypeName returns the type name of a value as used in error messages.
func (tc *TypeConverter) GetTypeName(value interface{}) string {
	switch value.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case string:
		return "string"
	case json.Number, float64, float32, int, int64, int32:
		return "number"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	default:
		return fmt.Sprintf("%T", value)
	}
}

// Default converter instance for convenience.
var defaultConverter = NewTypeConverter()

// SafeFloat64ToFloat32 converts float64 to float32 using the default converter.
func SafeFloat64ToFloat32(value float64) (float32, error) {
	return defaultConverter.SafeFloat64ToFloat32(value)
}

// ToInt64 converts a value to int64 using the default converter.
func ToInt64(value interface{}) (int64, error) {
	return defaultConverter.ToInt64(value)
}

// ToFloat64 converts a value to float64 using the default converter.
func ToFloat64(value interface{}) (float64, error) {
	return defaultConverter.ToFloat64(value)
}

// ToString converts a value to string using the default converter.
func ToString(value interface{}) string {
	return defaultConverter.ToString(value)
}

// ToBool converts a value to bool using the default converter.
func ToBool(value interface{}) (bool, error) {
	return defaultConverter.ToBool(value)
}

// IsNumericType checks if a value is numeric using the default converter.
func IsNumericType(value interface{}) bool {
	return defaultConverter.IsNumericType(value)
}

// GetTypeName returns the type name using the default converter.
func GetTypeName(value interface{}) string {
	return defaultConverter.GetTypeName(value)
}
