// Package literal converts literal token text into typed Go values.
//
// Value types by primitive kind:
//
//	Boolean         bool
//	Byte            uint8
//	SByte           int8
//	Int16/32/64     int16, int32, int64
//	Single, Double  float32, float64
//	Decimal         decimal.Decimal
//	String          string
//	Guid            uuid.UUID
//	Binary          []byte
//	Date            Date
//	DateTimeOffset  time.Time
//	Duration        time.Duration
//	TimeOfDay       TimeOfDay
//	Geography/Geometry Spatial
//
// Quoted literals with an unknown prefix become EnumValue and bracketed
// payloads become Payload until ConvertPayload types them.
package literal

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paveg/odataq/internal/edm"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/constraints"
)

// EnumValue is a quoted literal with a type prefix, e.g. Demo.Color'Red'.
type EnumValue struct {
	TypeName string
	Value    string
}

func (e EnumValue) String() string {
	return e.TypeName + "'" + e.Value + "'"
}

// Payload is the raw text of a bracketed complex or collection literal.
type Payload struct {
	Text string
}

// IsCollection reports whether the payload is a JSON array.
func (p Payload) IsCollection() bool {
	return strings.HasPrefix(strings.TrimSpace(p.Text), "[")
}

// Spatial is a geography or geometry literal in well-known text.
type Spatial struct {
	Kind edm.PrimitiveKind
	SRID int
	WKT  string
}

// Default spatial reference identifiers.
const (
	DefaultGeographySRID = 4326
	DefaultGeometrySRID  = 0
)

// typed literal prefixes, matched case-insensitively.
var prefixKinds = map[string]edm.PrimitiveKind{
	"duration":       edm.PrimitiveDuration,
	"binary":         edm.PrimitiveBinary,
	"x":              edm.PrimitiveBinary,
	"geography":      edm.PrimitiveGeography,
	"geometry":       edm.PrimitiveGeometry,
	"guid":           edm.PrimitiveGuid,
	"date":           edm.PrimitiveDate,
	"datetimeoffset": edm.PrimitiveDateTimeOffset,
	"timeofday":      edm.PrimitiveTimeOfDay,
}

// PrefixKind returns the primitive kind spelled by a typed literal prefix.
func PrefixKind(prefix string) (edm.PrimitiveKind, bool) {
	kind, ok := prefixKinds[strings.ToLower(prefix)]
	return kind, ok
}

// Parse converts text to the Go value of kind. Typed literal forms such as
// duration'PT1H' are accepted for the kinds that have them.
func Parse(kind edm.PrimitiveKind, text string) (interface{}, error) {
	switch kind {
	case edm.PrimitiveBoolean:
		return parseBool(text)
	case edm.PrimitiveByte:
		return parseUnsigned[uint8](text, math.MaxUint8)
	case edm.PrimitiveSByte:
		return parseSigned[int8](text, math.MinInt8, math.MaxInt8)
	case edm.PrimitiveInt16:
		return parseSigned[int16](text, math.MinInt16, math.MaxInt16)
	case edm.PrimitiveInt32:
		return parseSigned[int32](text, math.MinInt32, math.MaxInt32)
	case edm.PrimitiveInt64:
		return parseSigned[int64](trimSuffix(text, "L"), math.MinInt64, math.MaxInt64)
	case edm.PrimitiveSingle:
		f, err := parseFloat(text, "F", 32)
		return float32(f), err
	case edm.PrimitiveDouble:
		return parseFloat(text, "D", 64)
	case edm.PrimitiveDecimal:
		return parseDecimal(trimSuffix(text, "M"))
	case edm.PrimitiveString:
		return ParseString(text)
	case edm.PrimitiveGuid:
		return parseGuid(text)
	case edm.PrimitiveBinary:
		return parseBinary(text)
	case edm.PrimitiveDate:
		return ParseDate(unwrap(text, "date"))
	case edm.PrimitiveDateTimeOffset:
		return parseDateTimeOffset(unwrap(text, "datetimeoffset"))
	case edm.PrimitiveDuration:
		return ParseDuration(unwrap(text, "duration"))
	case edm.PrimitiveTimeOfDay:
		return ParseTimeOfDay(unwrap(text, "timeofday"))
	case edm.PrimitiveGeography, edm.PrimitiveGeometry:
		return parseSpatial(kind, text)
	default:
		return nil, fmt.Errorf("unsupported literal kind %s", kind)
	}
}

// ParseString unquotes a single-quoted string literal, collapsing doubled
// quotes.
func ParseString(text string) (string, error) {
	if len(text) < 2 || text[0] != '\'' || text[len(text)-1] != '\'' {
		return "", fmt.Errorf("string literal %s must be enclosed in single quotes", text)
	}
	body := text[1 : len(text)-1]
	var sb strings.Builder
	for i := 0; i < len(body); i++ {
		if body[i] == '\'' {
			if i+1 >= len(body) || body[i+1] != '\'' {
				return "", fmt.Errorf("unescaped quote in string literal %s", text)
			}
			i++
		}
		sb.WriteByte(body[i])
	}
	return sb.String(), nil
}

// ParseQuoted converts a prefixed quoted literal. Known prefixes produce the
// typed value, anything else an EnumValue.
func ParseQuoted(text string) (interface{}, edm.PrimitiveKind, error) {
	idx := strings.IndexByte(text, '\'')
	if idx <= 0 {
		return nil, edm.PrimitiveNone, fmt.Errorf("quoted literal %s has no type prefix", text)
	}
	prefix := text[:idx]
	if kind, ok := PrefixKind(prefix); ok {
		v, err := Parse(kind, text)
		return v, kind, err
	}
	value, err := ParseString(text[idx:])
	if err != nil {
		return nil, edm.PrimitiveNone, err
	}
	return EnumValue{TypeName: prefix, Value: value}, edm.PrimitiveNone, nil
}

func parseBool(text string) (bool, error) {
	switch strings.ToLower(text) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean literal %s", text)
}

func parseSigned[T constraints.Signed](text string, lo, hi int64) (T, error) {
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer literal %s: %w", text, err)
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("integer literal %s is out of range [%d, %d]", text, lo, hi)
	}
	return T(v), nil
}

func parseUnsigned[T constraints.Unsigned](text string, hi uint64) (T, error) {
	v, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer literal %s: %w", text, err)
	}
	if v > hi {
		return 0, fmt.Errorf("integer literal %s is out of range [0, %d]", text, hi)
	}
	return T(v), nil
}

func parseFloat(text, suffix string, bits int) (float64, error) {
	switch text {
	case "INF":
		return math.Inf(1), nil
	case "-INF":
		return math.Inf(-1), nil
	case "NaN":
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(trimSuffix(text, suffix), bits)
	if err != nil {
		return 0, fmt.Errorf("invalid floating point literal %s: %w", text, err)
	}
	return v, nil
}

func parseDecimal(text string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid decimal literal %s: %w", text, err)
	}
	return d, nil
}

func parseGuid(text string) (uuid.UUID, error) {
	body := unwrap(text, "guid")
	if len(body) != 36 {
		return uuid.UUID{}, fmt.Errorf("invalid guid literal %s", text)
	}
	id, err := uuid.Parse(body)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("invalid guid literal %s: %w", text, err)
	}
	return id, nil
}

func parseBinary(text string) ([]byte, error) {
	idx := strings.IndexByte(text, '\'')
	if idx <= 0 || !strings.HasSuffix(text, "'") || len(text) < idx+2 {
		return nil, fmt.Errorf("invalid binary literal %s", text)
	}
	prefix, body := text[:idx], text[idx+1:len(text)-1]
	if strings.EqualFold(prefix, "x") {
		b, err := hex.DecodeString(body)
		if err != nil {
			return nil, fmt.Errorf("invalid binary literal %s: %w", text, err)
		}
		return b, nil
	}
	body = strings.TrimRight(body, "=")
	b, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		if b, err = base64.RawStdEncoding.DecodeString(body); err != nil {
			return nil, fmt.Errorf("invalid binary literal %s: %w", text, err)
		}
	}
	return b, nil
}

func parseDateTimeOffset(text string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, text)
	if err != nil {
		// seconds are optional
		if t, err = time.Parse("2006-01-02T15:04Z07:00", text); err != nil {
			return time.Time{}, fmt.Errorf("invalid datetimeoffset literal %s", text)
		}
	}
	return t, nil
}

func parseSpatial(kind edm.PrimitiveKind, text string) (Spatial, error) {
	prefix := "geography"
	srid := DefaultGeographySRID
	if kind == edm.PrimitiveGeometry {
		prefix = "geometry"
		srid = DefaultGeometrySRID
	}
	body := unwrap(text, prefix)
	if body == text {
		return Spatial{}, fmt.Errorf("invalid %s literal %s", prefix, text)
	}
	if strings.HasPrefix(strings.ToUpper(body), "SRID=") {
		semi := strings.IndexByte(body, ';')
		if semi < 0 {
			return Spatial{}, fmt.Errorf("invalid %s literal %s: missing ';' after SRID", prefix, text)
		}
		v, err := strconv.Atoi(body[len("SRID="):semi])
		if err != nil {
			return Spatial{}, fmt.Errorf("invalid %s literal %s: bad SRID", prefix, text)
		}
		srid = v
		body = body[semi+1:]
	}
	if !strings.HasSuffix(body, ")") || !strings.Contains(body, "(") {
		return Spatial{}, fmt.Errorf("invalid %s literal %s", prefix, text)
	}
	return Spatial{Kind: kind, SRID: srid, WKT: body}, nil
}

// unwrap strips prefix'...' when present, returning text unchanged otherwise.
func unwrap(text, prefix string) string {
	if len(text) > len(prefix)+1 && strings.EqualFold(text[:len(prefix)], prefix) &&
		text[len(prefix)] == '\'' && strings.HasSuffix(text, "'") {
		return text[len(prefix)+1 : len(text)-1]
	}
	return text
}

func trimSuffix(text, suffix string) string {
	if len(text) > 1 && strings.EqualFold(text[len(text)-1:], suffix) {
		return text[:len(text)-1]
	}
	return text
}
