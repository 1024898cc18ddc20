// Package edm defines the schema lookup surface the binder consumes: type
// references, structured and enum types, navigation sources and functions,
// plus an in-memory model that can be populated programmatically, from YAML
// or from an Arrow schema.
package edm

import (
	"fmt"
	"strings"
)

// TypeKind classifies schema types.
type TypeKind int

const (
	TypeKindNone TypeKind = iota
	TypeKindPrimitive
	TypeKindEntity
	TypeKindComplex
	TypeKindCollection
	TypeKindEnum
)

func (k TypeKind) String() string {
	switch k {
	case TypeKindPrimitive:
		return "primitive"
	case TypeKindEntity:
		return "entity"
	case TypeKindComplex:
		return "complex"
	case TypeKindCollection:
		return "collection"
	case TypeKindEnum:
		return "enum"
	default:
		return "none"
	}
}

// Type is implemented by every schema type.
type Type interface {
	TypeKind() TypeKind
	FullName() string
}

// PrimitiveType is a built-in scalar type.
type PrimitiveType struct {
	Kind PrimitiveKind
}

func (t *PrimitiveType) TypeKind() TypeKind { return TypeKindPrimitive }
func (t *PrimitiveType) FullName() string   { return t.Kind.String() }

var primitiveTypes = func() map[PrimitiveKind]*PrimitiveType {
	m := make(map[PrimitiveKind]*PrimitiveType, len(primitiveNames))
	for k := range primitiveNames {
		m[k] = &PrimitiveType{Kind: k}
	}
	return m
}()

// Primitive returns the shared type value for kind.
func Primitive(kind PrimitiveKind) *PrimitiveType {
	if t, ok := primitiveTypes[kind]; ok {
		return t
	}
	return &PrimitiveType{Kind: kind}
}

// Property is a member of a structured type.
type Property interface {
	PropertyName() string
	PropertyType() *TypeReference
}

// StructuralProperty is a primitive, enum, complex or collection valued member.
type StructuralProperty struct {
	Name string
	Type *TypeReference
}

func (p *StructuralProperty) PropertyName() string         { return p.Name }
func (p *StructuralProperty) PropertyType() *TypeReference { return p.Type }

// NavigationProperty relates an entity to one or many other entities.
type NavigationProperty struct {
	Name       string
	Target     *EntityType
	Collection bool
	Nullable   bool
}

func (p *NavigationProperty) PropertyName() string { return p.Name }

func (p *NavigationProperty) PropertyType() *TypeReference {
	ref := NewTypeReference(p.Target, p.Nullable)
	if p.Collection {
		return CollectionOf(ref)
	}
	return ref
}

// StructuredType is an entity or complex type.
type StructuredType interface {
	Type
	// FindProperty looks a member up by name, walking base types. With
	// caseInsensitive, names differing only in case resolve as ambiguous.
	FindProperty(name string, caseInsensitive bool) Resolution[Property]
	// PropertyNames lists every member name, base type members first.
	PropertyNames() []string
	IsOpen() bool
	BaseStructuredType() StructuredType
}

type members struct {
	order []Property
}

func (m *members) add(p Property) {
	m.order = append(m.order, p)
}

func (m *members) find(name string, caseInsensitive bool) Resolution[Property] {
	res := NewUnresolved[Property]()
	for _, p := range m.order {
		if p.PropertyName() == name {
			return NewResolved(p)
		}
	}
	if !caseInsensitive {
		return res
	}
	for _, p := range m.order {
		if strings.EqualFold(p.PropertyName(), name) {
			res = res.With(p)
		}
	}
	return res
}

func (m *members) names() []string {
	out := make([]string, 0, len(m.order))
	for _, p := range m.order {
		out = append(out, p.PropertyName())
	}
	return out
}

func qualify(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "." + name
}

// ComplexType is a keyless structured type.
type ComplexType struct {
	Namespace string
	Name      string
	BaseType  *ComplexType
	Open      bool
	members
}

// NewComplexType creates a complex type.
func NewComplexType(namespace, name string, base *ComplexType) *ComplexType {
	return &ComplexType{Namespace: namespace, Name: name, BaseType: base}
}

func (t *ComplexType) TypeKind() TypeKind { return TypeKindComplex }
func (t *ComplexType) FullName() string   { return qualify(t.Namespace, t.Name) }
func (t *ComplexType) IsOpen() bool       { return t.Open }

func (t *ComplexType) BaseStructuredType() StructuredType {
	if t.BaseType == nil {
		return nil
	}
	return t.BaseType
}

// AddProperty appends a structural property.
func (t *ComplexType) AddProperty(name string, ref *TypeReference) *StructuralProperty {
	p := &StructuralProperty{Name: name, Type: ref}
	t.add(p)
	return p
}

func (t *ComplexType) FindProperty(name string, caseInsensitive bool) Resolution[Property] {
	if res := t.find(name, caseInsensitive); res.State() != Unresolved || t.BaseType == nil {
		return res
	}
	return t.BaseType.FindProperty(name, caseInsensitive)
}

func (t *ComplexType) PropertyNames() []string {
	if t.BaseType == nil {
		return t.names()
	}
	return append(t.BaseType.PropertyNames(), t.names()...)
}

// EntityType is a keyed structured type.
type EntityType struct {
	Namespace string
	Name      string
	BaseType  *EntityType
	Key       []string
	Open      bool
	members
}

// NewEntityType creates an entity type.
func NewEntityType(namespace, name string, base *EntityType) *EntityType {
	return &EntityType{Namespace: namespace, Name: name, BaseType: base}
}

func (t *EntityType) TypeKind() TypeKind { return TypeKindEntity }
func (t *EntityType) FullName() string   { return qualify(t.Namespace, t.Name) }
func (t *EntityType) IsOpen() bool       { return t.Open }

func (t *EntityType) BaseStructuredType() StructuredType {
	if t.BaseType == nil {
		return nil
	}
	return t.BaseType
}

// AddProperty appends a structural property.
func (t *EntityType) AddProperty(name string, ref *TypeReference) *StructuralProperty {
	p := &StructuralProperty{Name: name, Type: ref}
	t.add(p)
	return p
}

// AddNavigation appends a navigation property.
func (t *EntityType) AddNavigation(name string, target *EntityType, collection bool) *NavigationProperty {
	p := &NavigationProperty{Name: name, Target: target, Collection: collection, Nullable: !collection}
	t.add(p)
	return p
}

func (t *EntityType) FindProperty(name string, caseInsensitive bool) Resolution[Property] {
	if res := t.find(name, caseInsensitive); res.State() != Unresolved || t.BaseType == nil {
		return res
	}
	return t.BaseType.FindProperty(name, caseInsensitive)
}

func (t *EntityType) PropertyNames() []string {
	if t.BaseType == nil {
		return t.names()
	}
	return append(t.BaseType.PropertyNames(), t.names()...)
}

// IsDerivedFrom reports whether t equals base or inherits from it.
func (t *EntityType) IsDerivedFrom(base *EntityType) bool {
	for cur := t; cur != nil; cur = cur.BaseType {
		if cur == base {
			return true
		}
	}
	return false
}

// EnumMember is a named enum value.
type EnumMember struct {
	Name  string
	Value int64
}

// EnumType is a named set of integral values.
type EnumType struct {
	Namespace  string
	Name       string
	Underlying PrimitiveKind
	Flags      bool
	Members    []EnumMember
}

func (t *EnumType) TypeKind() TypeKind { return TypeKindEnum }
func (t *EnumType) FullName() string   { return qualify(t.Namespace, t.Name) }

// FindMember looks a member up by name or by its numeric value text.
func (t *EnumType) FindMember(name string) (EnumMember, bool) {
	for _, m := range t.Members {
		if m.Name == name || fmt.Sprint(m.Value) == name {
			return m, true
		}
	}
	return EnumMember{}, false
}

// CollectionType wraps an element type.
type CollectionType struct {
	Element *TypeReference
}

func (t *CollectionType) TypeKind() TypeKind { return TypeKindCollection }

func (t *CollectionType) FullName() string {
	return "Collection(" + t.Element.FullName() + ")"
}

// TypeReference is a type plus its nullability.
type TypeReference struct {
	Type     Type
	Nullable bool
}

// NewTypeReference creates a reference to t.
func NewTypeReference(t Type, nullable bool) *TypeReference {
	return &TypeReference{Type: t, Nullable: nullable}
}

// PrimitiveReference creates a reference to a primitive kind.
func PrimitiveReference(kind PrimitiveKind, nullable bool) *TypeReference {
	return NewTypeReference(Primitive(kind), nullable)
}

// CollectionOf wraps element in a non-nullable collection reference.
func CollectionOf(element *TypeReference) *TypeReference {
	return NewTypeReference(&CollectionType{Element: element}, false)
}

// FullName returns the qualified name of the referenced type.
func (r *TypeReference) FullName() string {
	if r == nil || r.Type == nil {
		return ""
	}
	return r.Type.FullName()
}

func (r *TypeReference) String() string { return r.FullName() }

// Kind returns the kind of the referenced type.
func (r *TypeReference) Kind() TypeKind {
	if r == nil || r.Type == nil {
		return TypeKindNone
	}
	return r.Type.TypeKind()
}

func (r *TypeReference) IsPrimitive() bool  { return r.Kind() == TypeKindPrimitive }
func (r *TypeReference) IsEntity() bool     { return r.Kind() == TypeKindEntity }
func (r *TypeReference) IsComplex() bool    { return r.Kind() == TypeKindComplex }
func (r *TypeReference) IsEnum() bool       { return r.Kind() == TypeKindEnum }
func (r *TypeReference) IsCollection() bool { return r.Kind() == TypeKindCollection }

// IsStructured reports whether the reference is an entity or complex type.
func (r *TypeReference) IsStructured() bool {
	k := r.Kind()
	return k == TypeKindEntity || k == TypeKindComplex
}

// PrimitiveKind returns the primitive kind, or PrimitiveNone.
func (r *TypeReference) PrimitiveKind() PrimitiveKind {
	if p, ok := r.typ().(*PrimitiveType); ok {
		return p.Kind
	}
	return PrimitiveNone
}

// IsBoolean reports whether the reference is Edm.Boolean.
func (r *TypeReference) IsBoolean() bool { return r.PrimitiveKind() == PrimitiveBoolean }

// AsEntity returns the entity type, or nil.
func (r *TypeReference) AsEntity() *EntityType {
	t, _ := r.typ().(*EntityType)
	return t
}

// AsStructured returns the entity or complex type, or nil.
func (r *TypeReference) AsStructured() StructuredType {
	t, _ := r.typ().(StructuredType)
	return t
}

// AsEnum returns the enum type, or nil.
func (r *TypeReference) AsEnum() *EnumType {
	t, _ := r.typ().(*EnumType)
	return t
}

// ElementType returns the element of a collection reference, or nil.
func (r *TypeReference) ElementType() *TypeReference {
	if c, ok := r.typ().(*CollectionType); ok {
		return c.Element
	}
	return nil
}

// IsEntityOrEntityCollection reports whether r is an entity type or a
// collection of entities.
func (r *TypeReference) IsEntityOrEntityCollection() bool {
	if r.IsEntity() {
		return true
	}
	return r.ElementType().IsEntity()
}

// Equal reports whether both references name the same type with the same
// nullability.
func (r *TypeReference) Equal(other *TypeReference) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.Nullable == other.Nullable && r.FullName() == other.FullName()
}

func (r *TypeReference) typ() Type {
	if r == nil {
		return nil
	}
	return r.Type
}

// IsAssignableTo reports whether a value of type from can stand where to is
// expected: same type, numeric promotion, derived entity, or collections of
// assignable elements.
func IsAssignableTo(from, to *TypeReference) bool {
	if from == nil || to == nil {
		return false
	}
	if from.FullName() == to.FullName() {
		return true
	}
	switch {
	case from.IsPrimitive() && to.IsPrimitive():
		return CanPromote(from.PrimitiveKind(), to.PrimitiveKind())
	case from.IsEntity() && to.IsEntity():
		return from.AsEntity().IsDerivedFrom(to.AsEntity())
	case from.IsCollection() && to.IsCollection():
		return IsAssignableTo(from.ElementType(), to.ElementType())
	case from.IsComplex() && to.IsComplex():
		for cur := from.AsStructured(); cur != nil; cur = cur.BaseStructuredType() {
			if cur.FullName() == to.FullName() {
				return true
			}
		}
	}
	return false
}
