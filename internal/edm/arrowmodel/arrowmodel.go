// Package arrowmodel derives a schema model from Apache Arrow schemas, so a
// table layout (for example a Parquet file) can be queried without writing a
// schema document by hand.
//
// Each Arrow schema becomes an entity type with an entity set. Struct fields
// become complex types, list fields become collections, and fields carrying
// the "odata.navigation" metadata key become navigation properties targeting
// the named entity set.
package arrowmodel

import (
	"bytes"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/paveg/odataq/internal/edm"
)

// Metadata keys recognized on Arrow fields.
const (
	NavigationKey = "odata.navigation"
	TypeNameKey   = "odata.type"
	KeyFieldKey   = "odata.key"
)

// Builder accumulates entity sets before resolving navigation links.
type Builder struct {
	namespace string
	model     *edm.InMemoryModel
	sets      map[string]*edm.EntitySet
	pending   []pendingNavigation
}

type pendingNavigation struct {
	owner      *edm.EntityType
	ownerSet   string
	property   string
	targetSet  string
	collection bool
}

// NewBuilder creates a builder emitting types into namespace.
func NewBuilder(namespace string) *Builder {
	return &Builder{
		namespace: namespace,
		model:     edm.NewInMemoryModel(),
		sets:      make(map[string]*edm.EntitySet),
	}
}

// AddEntitySet maps schema to an entity type named typeName and registers an
// entity set for it. Key fields come from the "odata.key" field metadata, or
// from keys when given.
func (b *Builder) AddEntitySet(setName, typeName string, schema *arrow.Schema, keys ...string) (*edm.EntitySet, error) {
	if schema == nil {
		return nil, fmt.Errorf("entity set %s: schema is nil", setName)
	}
	if _, exists := b.sets[setName]; exists {
		return nil, fmt.Errorf("entity set %s is already defined", setName)
	}

	et := b.model.AddEntityType(b.namespace, typeName, nil)
	et.Key = append(et.Key, keys...)

	for _, field := range schema.Fields() {
		if target, ok := metadataValue(field.Metadata, NavigationKey); ok {
			collection := isList(field.Type)
			b.pending = append(b.pending, pendingNavigation{
				owner: et, ownerSet: setName, property: field.Name,
				targetSet: target, collection: collection,
			})
			continue
		}
		ref, err := b.reference(typeName+"_"+field.Name, field.Type, field.Nullable, field.Metadata)
		if err != nil {
			return nil, fmt.Errorf("entity set %s field %s: %w", setName, field.Name, err)
		}
		et.AddProperty(field.Name, ref)
		if v, ok := metadataValue(field.Metadata, KeyFieldKey); ok && v == "true" {
			et.Key = append(et.Key, field.Name)
		}
	}

	set := b.model.AddEntitySet(setName, et)
	b.sets[setName] = set
	return set, nil
}

// AddParquetEntitySet reads the schema of a Parquet file and registers it as
// an entity set.
func (b *Builder) AddParquetEntitySet(setName, typeName string, r io.Reader, keys ...string) (*edm.EntitySet, error) {
	schema, err := ParquetSchema(r)
	if err != nil {
		return nil, fmt.Errorf("entity set %s: %w", setName, err)
	}
	return b.AddEntitySet(setName, typeName, schema, keys...)
}

// Build resolves navigation links and returns the model.
func (b *Builder) Build() (*edm.InMemoryModel, error) {
	for _, p := range b.pending {
		target, ok := b.sets[p.targetSet]
		if !ok {
			return nil, fmt.Errorf("entity set %s field %s: unknown navigation target %s", p.ownerSet, p.property, p.targetSet)
		}
		p.owner.AddNavigation(p.property, target.EntityType(), p.collection)
		b.sets[p.ownerSet].AddNavigationTarget(p.property, target)
	}
	b.pending = nil
	return b.model, nil
}

// ParquetSchema reads the Arrow schema stored in a Parquet file.
func ParquetSchema(r io.Reader) (*arrow.Schema, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading data: %w", err)
	}

	pqReader, err := file.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating parquet file reader: %w", err)
	}
	defer func() { _ = pqReader.Close() }()

	arrowReader, err := pqarrow.NewFileReader(pqReader, pqarrow.ArrowReadProperties{}, memory.NewGoAllocator())
	if err != nil {
		return nil, fmt.Errorf("creating arrow file reader: %w", err)
	}

	schema, err := arrowReader.Schema()
	if err != nil {
		return nil, fmt.Errorf("reading arrow schema: %w", err)
	}
	return schema, nil
}

func (b *Builder) reference(name string, dt arrow.DataType, nullable bool, md arrow.Metadata) (*edm.TypeReference, error) {
	switch t := dt.(type) {
	case *arrow.StructType:
		if typeName, ok := metadataValue(md, TypeNameKey); ok {
			name = typeName
		}
		if existing, ok := b.model.FindType(b.qualify(name)).Value(); ok {
			return edm.NewTypeReference(existing, nullable), nil
		}
		ct := b.model.AddComplexType(b.namespace, name, nil)
		for _, f := range t.Fields() {
			ref, err := b.reference(name+"_"+f.Name, f.Type, f.Nullable, f.Metadata)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", f.Name, err)
			}
			ct.AddProperty(f.Name, ref)
		}
		return edm.NewTypeReference(ct, nullable), nil
	case *arrow.ListType:
		elem, err := b.reference(name, t.Elem(), t.ElemField().Nullable, md)
		if err != nil {
			return nil, err
		}
		return edm.CollectionOf(elem), nil
	case *arrow.LargeListType:
		elem, err := b.reference(name, t.Elem(), t.ElemField().Nullable, md)
		if err != nil {
			return nil, err
		}
		return edm.CollectionOf(elem), nil
	case *arrow.FixedSizeBinaryType:
		if t.ByteWidth == 16 {
			return edm.PrimitiveReference(edm.PrimitiveGuid, nullable), nil
		}
		return edm.PrimitiveReference(edm.PrimitiveBinary, nullable), nil
	}

	kind, ok := primitiveKinds[dt.ID()]
	if !ok {
		return nil, fmt.Errorf("unsupported arrow type %s", dt)
	}
	return edm.PrimitiveReference(kind, nullable), nil
}

func (b *Builder) qualify(name string) string {
	if b.namespace == "" {
		return name
	}
	return b.namespace + "." + name
}

var primitiveKinds = map[arrow.Type]edm.PrimitiveKind{
	arrow.BOOL:         edm.PrimitiveBoolean,
	arrow.INT8:         edm.PrimitiveSByte,
	arrow.UINT8:        edm.PrimitiveByte,
	arrow.INT16:        edm.PrimitiveInt16,
	arrow.UINT16:       edm.PrimitiveInt32,
	arrow.INT32:        edm.PrimitiveInt32,
	arrow.UINT32:       edm.PrimitiveInt64,
	arrow.INT64:        edm.PrimitiveInt64,
	arrow.FLOAT16:      edm.PrimitiveSingle,
	arrow.FLOAT32:      edm.PrimitiveSingle,
	arrow.FLOAT64:      edm.PrimitiveDouble,
	arrow.DECIMAL128:   edm.PrimitiveDecimal,
	arrow.DECIMAL256:   edm.PrimitiveDecimal,
	arrow.STRING:       edm.PrimitiveString,
	arrow.LARGE_STRING: edm.PrimitiveString,
	arrow.BINARY:       edm.PrimitiveBinary,
	arrow.LARGE_BINARY: edm.PrimitiveBinary,
	arrow.DATE32:       edm.PrimitiveDate,
	arrow.DATE64:       edm.PrimitiveDate,
	arrow.TIMESTAMP:    edm.PrimitiveDateTimeOffset,
	arrow.DURATION:     edm.PrimitiveDuration,
	arrow.TIME32:       edm.PrimitiveTimeOfDay,
	arrow.TIME64:       edm.PrimitiveTimeOfDay,
}

func isList(dt arrow.DataType) bool {
	switch dt.ID() {
	case arrow.LIST, arrow.LARGE_LIST:
		return true
	}
	return false
}

func metadataValue(md arrow.Metadata, key string) (string, bool) {
	idx := md.FindKey(key)
	if idx < 0 {
		return "", false
	}
	return md.Values()[idx], true
}
