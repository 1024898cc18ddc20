package edm

import (
	"sort"
	"strings"
)

// NavigationSource is an entity set or singleton.
type NavigationSource interface {
	Name() string
	EntityType() *EntityType
	// IsCollection reports whether the source is an entity set.
	IsCollection() bool
	// FindNavigationTarget returns the source bound to nav, or nil when the
	// binding is not declared.
	FindNavigationTarget(nav *NavigationProperty) NavigationSource
}

type navigationBindings map[string]NavigationSource

func (b navigationBindings) target(nav *NavigationProperty) NavigationSource {
	if nav == nil {
		return nil
	}
	return b[nav.Name]
}

// EntitySet is a named collection of entities.
type EntitySet struct {
	name       string
	entityType *EntityType
	bindings   navigationBindings
}

// NewEntitySet creates an entity set.
func NewEntitySet(name string, entityType *EntityType) *EntitySet {
	return &EntitySet{name: name, entityType: entityType, bindings: navigationBindings{}}
}

func (s *EntitySet) Name() string            { return s.name }
func (s *EntitySet) EntityType() *EntityType { return s.entityType }
func (s *EntitySet) IsCollection() bool      { return true }

func (s *EntitySet) FindNavigationTarget(nav *NavigationProperty) NavigationSource {
	return s.bindings.target(nav)
}

// AddNavigationTarget binds a navigation property name to a target source.
func (s *EntitySet) AddNavigationTarget(property string, target NavigationSource) {
	s.bindings[property] = target
}

// Singleton is a named single entity.
type Singleton struct {
	name       string
	entityType *EntityType
	bindings   navigationBindings
}

// NewSingleton creates a singleton.
func NewSingleton(name string, entityType *EntityType) *Singleton {
	return &Singleton{name: name, entityType: entityType, bindings: navigationBindings{}}
}

func (s *Singleton) Name() string            { return s.name }
func (s *Singleton) EntityType() *EntityType { return s.entityType }
func (s *Singleton) IsCollection() bool      { return false }

func (s *Singleton) FindNavigationTarget(nav *NavigationProperty) NavigationSource {
	return s.bindings.target(nav)
}

// AddNavigationTarget binds a navigation property name to a target source.
func (s *Singleton) AddNavigationTarget(property string, target NavigationSource) {
	s.bindings[property] = target
}

// Parameter is a function parameter.
type Parameter struct {
	Name string
	Type *TypeReference
}

// Function is a side-effect free operation. A bound function takes its
// binding parameter first.
type Function struct {
	Namespace  string
	Name       string
	Bound      bool
	Parameters []*Parameter
	ReturnType *TypeReference
}

// FullName returns the qualified function name.
func (f *Function) FullName() string { return qualify(f.Namespace, f.Name) }

// FindParameter looks a parameter up by name.
func (f *Function) FindParameter(name string) *Parameter {
	for _, p := range f.Parameters {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// NonBindingParameters returns the parameters a caller supplies explicitly.
func (f *Function) NonBindingParameters() []*Parameter {
	if f.Bound && len(f.Parameters) > 0 {
		return f.Parameters[1:]
	}
	return f.Parameters
}

// Model is the schema lookup surface used by the binder.
type Model interface {
	// FindType resolves a qualified type name, including "Edm." primitives.
	FindType(qualifiedName string) Resolution[Type]
	// FindNavigationSource resolves an entity set or singleton name.
	FindNavigationSource(name string) Resolution[NavigationSource]
	// FindFunctions returns the unbound overloads of a qualified name.
	FindFunctions(qualifiedName string) []*Function
	// FindBoundFunctions returns the overloads bindable to bindingType.
	FindBoundFunctions(qualifiedName string, bindingType *TypeReference) []*Function
}

// InMemoryModel is a Model populated programmatically.
type InMemoryModel struct {
	types     map[string]Resolution[Type]
	sources   map[string]Resolution[NavigationSource]
	functions map[string][]*Function
}

// NewInMemoryModel creates an empty model.
func NewInMemoryModel() *InMemoryModel {
	return &InMemoryModel{
		types:     make(map[string]Resolution[Type]),
		sources:   make(map[string]Resolution[NavigationSource]),
		functions: make(map[string][]*Function),
	}
}

// AddType registers a type under its full name. Registering two types under
// the same name makes lookups ambiguous.
func (m *InMemoryModel) AddType(t Type) {
	m.types[t.FullName()] = m.types[t.FullName()].With(t)
}

// AddEntityType creates and registers an entity type.
func (m *InMemoryModel) AddEntityType(namespace, name string, base *EntityType) *EntityType {
	t := NewEntityType(namespace, name, base)
	m.AddType(t)
	return t
}

// AddComplexType creates and registers a complex type.
func (m *InMemoryModel) AddComplexType(namespace, name string, base *ComplexType) *ComplexType {
	t := NewComplexType(namespace, name, base)
	m.AddType(t)
	return t
}

// AddEnumType creates and registers an enum type with members valued by
// position.
func (m *InMemoryModel) AddEnumType(namespace, name string, flags bool, memberNames ...string) *EnumType {
	t := &EnumType{Namespace: namespace, Name: name, Underlying: PrimitiveInt32, Flags: flags}
	for i, member := range memberNames {
		value := int64(i)
		if flags {
			value = int64(1) << i
		}
		t.Members = append(t.Members, EnumMember{Name: member, Value: value})
	}
	m.AddType(t)
	return t
}

// AddNavigationSource registers an entity set or singleton.
func (m *InMemoryModel) AddNavigationSource(source NavigationSource) {
	m.sources[source.Name()] = m.sources[source.Name()].With(source)
}

// AddEntitySet creates and registers an entity set.
func (m *InMemoryModel) AddEntitySet(name string, entityType *EntityType) *EntitySet {
	s := NewEntitySet(name, entityType)
	m.AddNavigationSource(s)
	return s
}

// AddSingleton creates and registers a singleton.
func (m *InMemoryModel) AddSingleton(name string, entityType *EntityType) *Singleton {
	s := NewSingleton(name, entityType)
	m.AddNavigationSource(s)
	return s
}

// AddFunction registers a function overload.
func (m *InMemoryModel) AddFunction(fn *Function) {
	m.functions[fn.FullName()] = append(m.functions[fn.FullName()], fn)
}

func (m *InMemoryModel) FindType(qualifiedName string) Resolution[Type] {
	if kind, ok := PrimitiveKindFromName(qualifiedName); ok {
		return NewResolved[Type](Primitive(kind))
	}
	if strings.HasPrefix(qualifiedName, "Collection(") && strings.HasSuffix(qualifiedName, ")") {
		inner := m.FindType(qualifiedName[len("Collection(") : len(qualifiedName)-1])
		if t, ok := inner.Value(); ok {
			return NewResolved[Type](&CollectionType{Element: NewTypeReference(t, true)})
		}
		return inner
	}
	return m.types[qualifiedName]
}

func (m *InMemoryModel) FindNavigationSource(name string) Resolution[NavigationSource] {
	return m.sources[name]
}

func (m *InMemoryModel) FindFunctions(qualifiedName string) []*Function {
	var out []*Function
	for _, fn := range m.functions[qualifiedName] {
		if !fn.Bound {
			out = append(out, fn)
		}
	}
	return out
}

func (m *InMemoryModel) FindBoundFunctions(qualifiedName string, bindingType *TypeReference) []*Function {
	var out []*Function
	for _, fn := range m.functions[qualifiedName] {
		if !fn.Bound || len(fn.Parameters) == 0 {
			continue
		}
		if IsAssignableTo(bindingType, fn.Parameters[0].Type) {
			out = append(out, fn)
		}
	}
	return out
}

// TypeNames lists every registered type name in sorted order.
func (m *InMemoryModel) TypeNames() []string {
	names := make([]string, 0, len(m.types))
	for name := range m.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NavigationSourceNames lists every registered source name in sorted order.
func (m *InMemoryModel) NavigationSourceNames() []string {
	names := make([]string, 0, len(m.sources))
	for name := range m.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
