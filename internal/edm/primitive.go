package edm

import "strings"

// PrimitiveKind enumerates the primitive types the binder distinguishes.
type PrimitiveKind int

const (
	PrimitiveNone PrimitiveKind = iota
	PrimitiveBoolean
	PrimitiveByte
	PrimitiveSByte
	PrimitiveInt16
	PrimitiveInt32
	PrimitiveInt64
	PrimitiveSingle
	PrimitiveDouble
	PrimitiveDecimal
	PrimitiveString
	PrimitiveGuid
	PrimitiveBinary
	PrimitiveDate
	PrimitiveDateTimeOffset
	PrimitiveDuration
	PrimitiveTimeOfDay
	PrimitiveGeography
	PrimitiveGeometry
)

var primitiveNames = map[PrimitiveKind]string{
	PrimitiveBoolean:        "Edm.Boolean",
	PrimitiveByte:           "Edm.Byte",
	PrimitiveSByte:          "Edm.SByte",
	PrimitiveInt16:          "Edm.Int16",
	PrimitiveInt32:          "Edm.Int32",
	PrimitiveInt64:          "Edm.Int64",
	PrimitiveSingle:         "Edm.Single",
	PrimitiveDouble:         "Edm.Double",
	PrimitiveDecimal:        "Edm.Decimal",
	PrimitiveString:         "Edm.String",
	PrimitiveGuid:           "Edm.Guid",
	PrimitiveBinary:         "Edm.Binary",
	PrimitiveDate:           "Edm.Date",
	PrimitiveDateTimeOffset: "Edm.DateTimeOffset",
	PrimitiveDuration:       "Edm.Duration",
	PrimitiveTimeOfDay:      "Edm.TimeOfDay",
	PrimitiveGeography:      "Edm.Geography",
	PrimitiveGeometry:       "Edm.Geometry",
}

var primitiveByName = func() map[string]PrimitiveKind {
	m := make(map[string]PrimitiveKind, len(primitiveNames))
	for k, name := range primitiveNames {
		m[name] = k
	}
	return m
}()

func (k PrimitiveKind) String() string {
	if name, ok := primitiveNames[k]; ok {
		return name
	}
	return "Edm.None"
}

// PrimitiveKindFromName resolves a qualified primitive name like "Edm.Int32".
// Spatial sub-types ("Edm.GeographyPoint") map to their family.
func PrimitiveKindFromName(name string) (PrimitiveKind, bool) {
	if k, ok := primitiveByName[name]; ok {
		return k, true
	}
	switch {
	case strings.HasPrefix(name, "Edm.Geography"):
		return PrimitiveGeography, true
	case strings.HasPrefix(name, "Edm.Geometry"):
		return PrimitiveGeometry, true
	}
	return PrimitiveNone, false
}

// IsIntegral reports whether k is an integer kind.
func (k PrimitiveKind) IsIntegral() bool {
	switch k {
	case PrimitiveByte, PrimitiveSByte, PrimitiveInt16, PrimitiveInt32, PrimitiveInt64:
		return true
	}
	return false
}

// IsNumeric reports whether k takes part in arithmetic.
func (k PrimitiveKind) IsNumeric() bool {
	switch k {
	case PrimitiveSingle, PrimitiveDouble, PrimitiveDecimal:
		return true
	}
	return k.IsIntegral()
}

// IsSpatial reports whether k is a geography or geometry kind.
func (k PrimitiveKind) IsSpatial() bool {
	return k == PrimitiveGeography || k == PrimitiveGeometry
}

// IsTemporal reports whether k is a date or time kind.
func (k PrimitiveKind) IsTemporal() bool {
	switch k {
	case PrimitiveDate, PrimitiveDateTimeOffset, PrimitiveDuration, PrimitiveTimeOfDay:
		return true
	}
	return false
}

// numeric promotion ranks; a kind converts implicitly to any kind with a
// higher rank in the same chain.
var numericRank = map[PrimitiveKind]int{
	PrimitiveByte:    1,
	PrimitiveSByte:   1,
	PrimitiveInt16:   2,
	PrimitiveInt32:   3,
	PrimitiveInt64:   4,
	PrimitiveSingle:  5,
	PrimitiveDouble:  6,
	PrimitiveDecimal: 7,
}

// CanPromote reports whether a value of kind from converts implicitly to to.
func CanPromote(from, to PrimitiveKind) bool {
	if from == to {
		return true
	}
	fr, ok1 := numericRank[from]
	tr, ok2 := numericRank[to]
	if !ok1 || !ok2 {
		return false
	}
	// Single and Double do not widen to Decimal implicitly.
	if to == PrimitiveDecimal && (from == PrimitiveSingle || from == PrimitiveDouble) {
		return false
	}
	return fr < tr
}

// CommonNumeric returns the narrowest kind both operands promote to.
func CommonNumeric(a, b PrimitiveKind) (PrimitiveKind, bool) {
	if !a.IsNumeric() || !b.IsNumeric() {
		return PrimitiveNone, false
	}
	switch {
	case CanPromote(a, b):
		return b, true
	case CanPromote(b, a):
		return a, true
	}
	// Byte/SByte and Single/Double against Decimal meet at Double or Int16.
	if a == PrimitiveDecimal || b == PrimitiveDecimal {
		return PrimitiveDouble, true
	}
	return PrimitiveInt16, true
}
