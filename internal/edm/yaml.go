package edm

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// schemaDocument is the YAML layout accepted by LoadModelYAML.
type schemaDocument struct {
	Namespace    string               `yaml:"namespace"`
	Enums        []enumDocument       `yaml:"enums"`
	ComplexTypes []structuredDocument `yaml:"complex_types"`
	EntityTypes  []structuredDocument `yaml:"entity_types"`
	EntitySets   []sourceDocument     `yaml:"entity_sets"`
	Singletons   []sourceDocument     `yaml:"singletons"`
	Functions    []functionDocument   `yaml:"functions"`
}

type enumDocument struct {
	Name    string   `yaml:"name"`
	Flags   bool     `yaml:"flags"`
	Members []string `yaml:"members"`
}

type propertyDocument struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Nullable *bool  `yaml:"nullable"`
}

type navigationDocument struct {
	Name       string `yaml:"name"`
	Target     string `yaml:"target"`
	Collection bool   `yaml:"collection"`
}

type structuredDocument struct {
	Name       string               `yaml:"name"`
	Base       string               `yaml:"base"`
	Open       bool                 `yaml:"open"`
	Key        []string             `yaml:"key"`
	Properties []propertyDocument   `yaml:"properties"`
	Navigation []navigationDocument `yaml:"navigation"`
}

type sourceDocument struct {
	Name     string            `yaml:"name"`
	Type     string            `yaml:"type"`
	Bindings map[string]string `yaml:"bindings"`
}

type functionDocument struct {
	Name       string             `yaml:"name"`
	Bound      bool               `yaml:"bound"`
	Parameters []propertyDocument `yaml:"parameters"`
	ReturnType string             `yaml:"return_type"`
}

// LoadModelFile reads a YAML schema document from path.
func LoadModelFile(path string) (*InMemoryModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file %s: %w", path, err)
	}
	model, err := LoadModelYAML(data)
	if err != nil {
		return nil, fmt.Errorf("loading schema file %s: %w", path, err)
	}
	return model, nil
}

// LoadModelYAML builds an in-memory model from a YAML schema document.
// Unqualified type names are resolved in the document namespace.
func LoadModelYAML(data []byte) (*InMemoryModel, error) {
	var doc schemaDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing YAML schema: %w", err)
	}

	l := &schemaLoader{doc: &doc, model: NewInMemoryModel(),
		entities: map[string]*EntityType{}, complexes: map[string]*ComplexType{}}
	if err := l.load(); err != nil {
		return nil, err
	}
	return l.model, nil
}

type schemaLoader struct {
	doc       *schemaDocument
	model     *InMemoryModel
	entities  map[string]*EntityType
	complexes map[string]*ComplexType
}

func (l *schemaLoader) qualified(name string) string {
	if strings.Contains(name, ".") || l.doc.Namespace == "" {
		return name
	}
	return l.doc.Namespace + "." + name
}

func (l *schemaLoader) load() error {
	ns := l.doc.Namespace

	for _, e := range l.doc.Enums {
		l.model.AddEnumType(ns, e.Name, e.Flags, e.Members...)
	}

	// Declare structured types first so members can reference them in any order.
	for _, c := range l.doc.ComplexTypes {
		t := NewComplexType(ns, c.Name, nil)
		t.Open = c.Open
		l.complexes[t.FullName()] = t
	}
	for _, e := range l.doc.EntityTypes {
		t := NewEntityType(ns, e.Name, nil)
		t.Open = e.Open
		t.Key = e.Key
		l.entities[t.FullName()] = t
	}

	for _, c := range l.doc.ComplexTypes {
		t := l.complexes[l.qualified(c.Name)]
		if c.Base != "" {
			base, ok := l.complexes[l.qualified(c.Base)]
			if !ok {
				return fmt.Errorf("complex type %s: unknown base type %s", c.Name, c.Base)
			}
			t.BaseType = base
		}
		if err := l.addProperties(t.FullName(), c.Properties, t.AddProperty); err != nil {
			return err
		}
		l.model.AddType(t)
	}

	for _, e := range l.doc.EntityTypes {
		t := l.entities[l.qualified(e.Name)]
		if e.Base != "" {
			base, ok := l.entities[l.qualified(e.Base)]
			if !ok {
				return fmt.Errorf("entity type %s: unknown base type %s", e.Name, e.Base)
			}
			t.BaseType = base
		}
		if err := l.addProperties(t.FullName(), e.Properties, t.AddProperty); err != nil {
			return err
		}
		for _, n := range e.Navigation {
			target, ok := l.entities[l.qualified(n.Target)]
			if !ok {
				return fmt.Errorf("entity type %s: navigation %s targets unknown type %s", e.Name, n.Name, n.Target)
			}
			t.AddNavigation(n.Name, target, n.Collection)
		}
		l.model.AddType(t)
	}

	if err := l.addSources(); err != nil {
		return err
	}
	return l.addFunctions()
}

func (l *schemaLoader) addProperties(owner string, props []propertyDocument, add func(string, *TypeReference) *StructuralProperty) error {
	for _, p := range props {
		ref, err := l.reference(p.Type, p.Nullable)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", owner, p.Name, err)
		}
		add(p.Name, ref)
	}
	return nil
}

func (l *schemaLoader) addSources() error {
	sets := map[string]*EntitySet{}
	singletons := map[string]*Singleton{}

	for _, s := range l.doc.EntitySets {
		et, ok := l.entities[l.qualified(s.Type)]
		if !ok {
			return fmt.Errorf("entity set %s: unknown entity type %s", s.Name, s.Type)
		}
		sets[s.Name] = l.model.AddEntitySet(s.Name, et)
	}
	for _, s := range l.doc.Singletons {
		et, ok := l.entities[l.qualified(s.Type)]
		if !ok {
			return fmt.Errorf("singleton %s: unknown entity type %s", s.Name, s.Type)
		}
		singletons[s.Name] = l.model.AddSingleton(s.Name, et)
	}

	lookup := func(name string) (NavigationSource, error) {
		if s, ok := sets[name]; ok {
			return s, nil
		}
		if s, ok := singletons[name]; ok {
			return s, nil
		}
		return nil, fmt.Errorf("unknown navigation target %s", name)
	}
	for _, s := range l.doc.EntitySets {
		for prop, target := range s.Bindings {
			src, err := lookup(target)
			if err != nil {
				return fmt.Errorf("entity set %s: %w", s.Name, err)
			}
			sets[s.Name].AddNavigationTarget(prop, src)
		}
	}
	for _, s := range l.doc.Singletons {
		for prop, target := range s.Bindings {
			src, err := lookup(target)
			if err != nil {
				return fmt.Errorf("singleton %s: %w", s.Name, err)
			}
			singletons[s.Name].AddNavigationTarget(prop, src)
		}
	}
	return nil
}

func (l *schemaLoader) addFunctions() error {
	for _, f := range l.doc.Functions {
		fn := &Function{Namespace: l.doc.Namespace, Name: f.Name, Bound: f.Bound}
		for _, p := range f.Parameters {
			ref, err := l.reference(p.Type, p.Nullable)
			if err != nil {
				return fmt.Errorf("function %s parameter %s: %w", f.Name, p.Name, err)
			}
			fn.Parameters = append(fn.Parameters, &Parameter{Name: p.Name, Type: ref})
		}
		if f.ReturnType != "" {
			ref, err := l.reference(f.ReturnType, nil)
			if err != nil {
				return fmt.Errorf("function %s return type: %w", f.Name, err)
			}
			fn.ReturnType = ref
		}
		if fn.Bound && len(fn.Parameters) == 0 {
			return fmt.Errorf("function %s: bound functions need a binding parameter", f.Name)
		}
		l.model.AddFunction(fn)
	}
	return nil
}

// reference resolves a type name such as "Edm.String", "Address" or
// "Collection(Edm.Int32)".
func (l *schemaLoader) reference(name string, nullable *bool) (*TypeReference, error) {
	isNullable := nullable == nil || *nullable
	if strings.HasPrefix(name, "Collection(") && strings.HasSuffix(name, ")") {
		elem, err := l.reference(name[len("Collection("):len(name)-1], nullable)
		if err != nil {
			return nil, err
		}
		return CollectionOf(elem), nil
	}
	if kind, ok := PrimitiveKindFromName(name); ok {
		return PrimitiveReference(kind, isNullable), nil
	}
	full := l.qualified(name)
	if t, ok := l.entities[full]; ok {
		return NewTypeReference(t, isNullable), nil
	}
	if t, ok := l.complexes[full]; ok {
		return NewTypeReference(t, isNullable), nil
	}
	if t, ok := l.model.FindType(full).Value(); ok {
		return NewTypeReference(t, isNullable), nil
	}
	return nil, fmt.Errorf("unknown type %s", name)
}
