package literal

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/paveg/odataq/internal/common"
	"github.com/paveg/odataq/internal/edm"
	qerrors "github.com/paveg/odataq/internal/errors"
	"github.com/shopspring/decimal"
)

const opConvertPayload = "ConvertPayload"

// ConvertPayload decodes a bracketed JSON payload and verifies it against
// expected, returning []interface{} for collections, map[string]interface{}
// for structured values and the Parse value types for primitives.
func ConvertPayload(text string, expected *edm.TypeReference) (interface{}, error) {
	if expected == nil {
		return nil, qerrors.NewArgumentNilError(opConvertPayload, "expected")
	}

	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		e := qerrors.NewBindingError(opConvertPayload, fmt.Sprintf("invalid payload for %s", expected.FullName()))
		e.Cause = err
		return nil, e
	}
	var extra interface{}
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, qerrors.NewBindingError(opConvertPayload, "unexpected content after payload")
	}

	v, err := coerce(raw, expected, "$")
	if err != nil {
		return nil, qerrors.NewBindingError(opConvertPayload, err.Error())
	}
	return v, nil
}

func coerce(v interface{}, ref *edm.TypeReference, path string) (interface{}, error) {
	if v == nil {
		if ref.Nullable || ref.IsCollection() {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: null is not allowed for non-nullable %s", path, ref.FullName())
	}

	switch {
	case ref.IsCollection():
		items, ok := v.([]interface{})
		if !ok {
			return nil, mismatch(path, ref, v)
		}
		out := make([]interface{}, len(items))
		for i, item := range items {
			c, err := coerce(item, ref.ElementType(), fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	case ref.IsStructured():
		return coerceStructured(v, ref, path)
	case ref.IsEnum():
		return coerceEnum(v, ref.AsEnum(), path)
	case ref.IsPrimitive():
		return coercePrimitive(v, ref, path)
	}
	return nil, fmt.Errorf("%s: cannot convert to %s", path, ref.FullName())
}

func coerceStructured(v interface{}, ref *edm.TypeReference, path string) (interface{}, error) {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil, mismatch(path, ref, v)
	}
	st := ref.AsStructured()

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]interface{}, len(obj))
	for _, key := range keys {
		if strings.HasPrefix(key, "@") {
			continue
		}
		prop, found := st.FindProperty(key, false).Value()
		if !found {
			if !st.IsOpen() {
				return nil, fmt.Errorf("%s: property %q is not defined on %s", path, key, st.FullName())
			}
			out[key] = obj[key]
			continue
		}
		c, err := coerce(obj[key], prop.PropertyType(), path+"."+key)
		if err != nil {
			return nil, err
		}
		out[key] = c
	}
	return out, nil
}

func coerceEnum(v interface{}, et *edm.EnumType, path string) (interface{}, error) {
	name := common.ToString(v)
	if m, ok := et.FindMember(name); ok {
		return EnumValue{TypeName: et.FullName(), Value: m.Name}, nil
	}
	return nil, fmt.Errorf("%s: %q is not a member of %s", path, name, et.FullName())
}

func coercePrimitive(v interface{}, ref *edm.TypeReference, path string) (interface{}, error) {
	kind := ref.PrimitiveKind()
	fail := func(err error) (interface{}, error) {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	switch kind {
	case edm.PrimitiveBoolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case edm.PrimitiveByte, edm.PrimitiveSByte, edm.PrimitiveInt16, edm.PrimitiveInt32, edm.PrimitiveInt64:
		if !common.IsNumericType(v) && !isString(v) {
			break
		}
		n, err := common.ToInt64(v)
		if err != nil {
			return fail(err)
		}
		r, err := Parse(kind, fmt.Sprint(n))
		if err != nil {
			return fail(err)
		}
		return r, nil
	case edm.PrimitiveSingle, edm.PrimitiveDouble:
		if s, ok := v.(string); ok {
			if r, err := Parse(kind, s); err == nil {
				return r, nil
			}
			break
		}
		f, err := common.ToFloat64(v)
		if err != nil {
			break
		}
		if kind == edm.PrimitiveSingle {
			f32, err := common.SafeFloat64ToFloat32(f)
			if err != nil {
				return fail(err)
			}
			return f32, nil
		}
		return f, nil
	case edm.PrimitiveDecimal:
		if !common.IsNumericType(v) && !isString(v) {
			break
		}
		d, err := decimal.NewFromString(common.ToString(v))
		if err != nil {
			return fail(err)
		}
		return d, nil
	case edm.PrimitiveString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case edm.PrimitiveGuid:
		if s, ok := v.(string); ok {
			id, err := uuid.Parse(s)
			if err != nil {
				return fail(err)
			}
			return id, nil
		}
	case edm.PrimitiveBinary:
		if s, ok := v.(string); ok {
			b, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				return fail(err)
			}
			return b, nil
		}
	case edm.PrimitiveDate, edm.PrimitiveDateTimeOffset, edm.PrimitiveDuration, edm.PrimitiveTimeOfDay:
		if s, ok := v.(string); ok {
			r, err := Parse(kind, s)
			if err != nil {
				return fail(err)
			}
			return r, nil
		}
	case edm.PrimitiveGeography, edm.PrimitiveGeometry:
		// GeoJSON stays in its decoded form.
		if obj, ok := v.(map[string]interface{}); ok {
			return obj, nil
		}
	}
	return nil, mismatch(path, ref, v)
}

func isString(v interface{}) bool {
	_, ok := v.(string)
	return ok
}

func mismatch(path string, ref *edm.TypeReference, v interface{}) error {
	return fmt.Errorf("%s: expected %s, got %s", path, ref.FullName(), common.GetTypeName(v))
}
