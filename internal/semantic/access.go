package semantic

import (
	"github.com/paveg/odataq/internal/common"
	"github.com/paveg/odataq/internal/edm"
	qerrors "github.com/paveg/odataq/internal/errors"
	"github.com/paveg/odataq/internal/validation"
)

// SingleValuePropertyAccessNode reads a single valued structural property.
type SingleValuePropertyAccessNode struct {
	source   SingleValueNode
	property edm.Property
}

// NewSingleValuePropertyAccessNode creates an access of property on source.
func NewSingleValuePropertyAccessNode(source SingleValueNode, property edm.Property) (*SingleValuePropertyAccessNode, error) {
	const op = "NewSingleValuePropertyAccessNode"
	if err := validation.ValidateAll(
		validation.NewNotNilValidator(source, op, "source"),
		validation.NewNotNilValidator(property, op, "property"),
	); err != nil {
		return nil, err
	}
	if property.PropertyType().IsCollection() {
		return nil, argumentError(op, "property", "'%s' is collection valued", property.PropertyName())
	}
	return &SingleValuePropertyAccessNode{source: source, property: property}, nil
}

func (n *SingleValuePropertyAccessNode) Kind() NodeKind          { return KindSingleValuePropertyAccess }
func (n *SingleValuePropertyAccessNode) Source() SingleValueNode { return n.source }
func (n *SingleValuePropertyAccessNode) Property() edm.Property  { return n.property }
func (n *SingleValuePropertyAccessNode) node()                   {}

func (n *SingleValuePropertyAccessNode) TypeReference() *edm.TypeReference {
	return n.property.PropertyType()
}

func (n *SingleValuePropertyAccessNode) String() string {
	return common.FormatPath(n.source.String(), n.property.PropertyName())
}

// CollectionPropertyAccessNode reads a collection of primitive, enum or
// complex values.
type CollectionPropertyAccessNode struct {
	source         SingleValueNode
	property       edm.Property
	collectionType *lazy[*edm.TypeReference]
}

// NewCollectionPropertyAccessNode creates an access of a collection valued
// property.
func NewCollectionPropertyAccessNode(source SingleValueNode, property edm.Property) (*CollectionPropertyAccessNode, error) {
	const op = "NewCollectionPropertyAccessNode"
	if err := validation.ValidateAll(
		validation.NewNotNilValidator(source, op, "source"),
		validation.NewNotNilValidator(property, op, "property"),
	); err != nil {
		return nil, err
	}
	if !property.PropertyType().IsCollection() {
		return nil, argumentError(op, "property", "'%s' is not collection valued", property.PropertyName())
	}
	n := &CollectionPropertyAccessNode{source: source, property: property}
	n.collectionType = newLazy(func() *edm.TypeReference {
		return edm.CollectionOf(n.ItemType())
	})
	return n, nil
}

func (n *CollectionPropertyAccessNode) Kind() NodeKind          { return KindCollectionPropertyAccess }
func (n *CollectionPropertyAccessNode) Source() SingleValueNode { return n.source }
func (n *CollectionPropertyAccessNode) Property() edm.Property  { return n.property }
func (n *CollectionPropertyAccessNode) CollectionType() *edm.TypeReference {
	return n.collectionType.Get()
}
func (n *CollectionPropertyAccessNode) node() {}

func (n *CollectionPropertyAccessNode) ItemType() *edm.TypeReference {
	return n.property.PropertyType().ElementType()
}

func (n *CollectionPropertyAccessNode) String() string {
	return common.FormatPath(n.source.String(), n.property.PropertyName())
}

// SingleValueOpenPropertyAccessNode reads a dynamic property, or stands in
// for a property that failed to resolve, in which case it carries the
// resolution errors.
type SingleValueOpenPropertyAccessNode struct {
	source SingleValueNode
	name   string
	errs   []*qerrors.QueryError
}

// NewSingleValueOpenPropertyAccessNode creates an untyped property access.
func NewSingleValueOpenPropertyAccessNode(source SingleValueNode, name string, errs ...*qerrors.QueryError) (*SingleValueOpenPropertyAccessNode, error) {
	const op = "NewSingleValueOpenPropertyAccessNode"
	if err := validation.ValidateAll(
		validation.NewNotNilValidator(source, op, "source"),
		validation.NewNotEmptyValidator(name, op, "name"),
	); err != nil {
		return nil, err
	}
	return &SingleValueOpenPropertyAccessNode{source: source, name: name, errs: errs}, nil
}

func (n *SingleValueOpenPropertyAccessNode) Kind() NodeKind                    { return KindSingleValueOpenPropertyAccess }
func (n *SingleValueOpenPropertyAccessNode) TypeReference() *edm.TypeReference { return nil }
func (n *SingleValueOpenPropertyAccessNode) Source() SingleValueNode           { return n.source }
func (n *SingleValueOpenPropertyAccessNode) Name() string                      { return n.name }
func (n *SingleValueOpenPropertyAccessNode) Errors() []*qerrors.QueryError     { return n.errs }
func (n *SingleValueOpenPropertyAccessNode) node()                             {}

func (n *SingleValueOpenPropertyAccessNode) String() string {
	return common.FormatPath(n.source.String(), n.name)
}

// SingleNavigationNode follows a single valued navigation property.
type SingleNavigationNode struct {
	source    SingleResourceNode
	nav       *edm.NavigationProperty
	navSource edm.NavigationSource
}

// NewSingleNavigationNode creates a navigation of nav from source. The
// target navigation source is looked up from the source's bindings.
func NewSingleNavigationNode(source SingleResourceNode, nav *edm.NavigationProperty) (*SingleNavigationNode, error) {
	const op = "NewSingleNavigationNode"
	if err := validation.ValidateAll(
		validation.NewNotNilValidator(source, op, "source"),
		validation.NewNotNilValidator(nav, op, "navigationProperty"),
	); err != nil {
		return nil, err
	}
	if nav.Collection {
		return nil, argumentError(op, "navigationProperty", "'%s' is collection valued", nav.Name)
	}
	return &SingleNavigationNode{source: source, nav: nav, navSource: navigationTarget(source.NavigationSource(), nav)}, nil
}

func (n *SingleNavigationNode) Kind() NodeKind                              { return KindSingleNavigation }
func (n *SingleNavigationNode) Source() SingleResourceNode                  { return n.source }
func (n *SingleNavigationNode) NavigationProperty() *edm.NavigationProperty { return n.nav }
func (n *SingleNavigationNode) NavigationSource() edm.NavigationSource      { return n.navSource }
func (n *SingleNavigationNode) EntityType() *edm.EntityType                 { return n.nav.Target }
func (n *SingleNavigationNode) TypeReference() *edm.TypeReference           { return n.nav.PropertyType() }
func (n *SingleNavigationNode) node()                                       {}

func (n *SingleNavigationNode) String() string {
	return common.FormatPath(n.source.String(), n.nav.Name)
}

// CollectionNavigationNode follows a collection valued navigation property.
type CollectionNavigationNode struct {
	source    SingleResourceNode
	nav       *edm.NavigationProperty
	navSource edm.NavigationSource
	itemType  *lazy[*edm.TypeReference]
}

// NewCollectionNavigationNode creates a navigation of nav from source.
func NewCollectionNavigationNode(source SingleResourceNode, nav *edm.NavigationProperty) (*CollectionNavigationNode, error) {
	const op = "NewCollectionNavigationNode"
	if err := validation.ValidateAll(
		validation.NewNotNilValidator(source, op, "source"),
		validation.NewNotNilValidator(nav, op, "navigationProperty"),
	); err != nil {
		return nil, err
	}
	if !nav.Collection {
		return nil, argumentError(op, "navigationProperty", "'%s' is single valued", nav.Name)
	}
	n := &CollectionNavigationNode{source: source, nav: nav, navSource: navigationTarget(source.NavigationSource(), nav)}
	n.itemType = newLazy(func() *edm.TypeReference {
		return edm.NewTypeReference(nav.Target, false)
	})
	return n, nil
}

func (n *CollectionNavigationNode) Kind() NodeKind                              { return KindCollectionNavigation }
func (n *CollectionNavigationNode) Source() SingleResourceNode                  { return n.source }
func (n *CollectionNavigationNode) NavigationProperty() *edm.NavigationProperty { return n.nav }
func (n *CollectionNavigationNode) NavigationSource() edm.NavigationSource      { return n.navSource }
func (n *CollectionNavigationNode) EntityItemType() *edm.EntityType             { return n.nav.Target }
func (n *CollectionNavigationNode) ItemType() *edm.TypeReference                { return n.itemType.Get() }
func (n *CollectionNavigationNode) CollectionType() *edm.TypeReference          { return n.nav.PropertyType() }
func (n *CollectionNavigationNode) node()                                       {}

func (n *CollectionNavigationNode) String() string {
	return common.FormatPath(n.source.String(), n.nav.Name)
}

func navigationTarget(source edm.NavigationSource, nav *edm.NavigationProperty) edm.NavigationSource {
	if validation.IsNil(source) {
		return nil
	}
	return source.FindNavigationTarget(nav)
}

// ResourceSetNode is the collection of entities of a navigation source.
type ResourceSetNode struct {
	source         edm.NavigationSource
	itemType       *edm.TypeReference
	collectionType *lazy[*edm.TypeReference]
}

// NewResourceSetNode creates the collection node of source.
func NewResourceSetNode(source edm.NavigationSource) (*ResourceSetNode, error) {
	if err := validation.NotNil(source, "NewResourceSetNode", "navigationSource"); err != nil {
		return nil, err
	}
	n := &ResourceSetNode{source: source, itemType: edm.NewTypeReference(source.EntityType(), false)}
	n.collectionType = newLazy(func() *edm.TypeReference {
		return edm.CollectionOf(n.itemType)
	})
	return n, nil
}

func (n *ResourceSetNode) Kind() NodeKind                         { return KindResourceSet }
func (n *ResourceSetNode) NavigationSource() edm.NavigationSource { return n.source }
func (n *ResourceSetNode) EntityItemType() *edm.EntityType        { return n.source.EntityType() }
func (n *ResourceSetNode) ItemType() *edm.TypeReference           { return n.itemType }
func (n *ResourceSetNode) CollectionType() *edm.TypeReference     { return n.collectionType.Get() }
func (n *ResourceSetNode) String() string                         { return n.source.Name() }
func (n *ResourceSetNode) node()                                  {}

// SingleResourceCastNode narrows a single entity to a derived type.
type SingleResourceCastNode struct {
	source  SingleResourceNode
	target  *edm.EntityType
	typeRef *lazy[*edm.TypeReference]
}

// NewSingleResourceCastNode creates a cast of source to target.
func NewSingleResourceCastNode(source SingleResourceNode, target *edm.EntityType) (*SingleResourceCastNode, error) {
	const op = "NewSingleResourceCastNode"
	if err := validation.ValidateAll(
		validation.NewNotNilValidator(source, op, "source"),
		validation.NewNotNilValidator(target, op, "target"),
	); err != nil {
		return nil, err
	}
	n := &SingleResourceCastNode{source: source, target: target}
	n.typeRef = newLazy(func() *edm.TypeReference {
		nullable := true
		if t := source.TypeReference(); t != nil {
			nullable = t.Nullable
		}
		return edm.NewTypeReference(target, nullable)
	})
	return n, nil
}

func (n *SingleResourceCastNode) Kind() NodeKind              { return KindSingleResourceCast }
func (n *SingleResourceCastNode) Source() SingleResourceNode  { return n.source }
func (n *SingleResourceCastNode) EntityType() *edm.EntityType { return n.target }
func (n *SingleResourceCastNode) NavigationSource() edm.NavigationSource {
	return n.source.NavigationSource()
}
func (n *SingleResourceCastNode) TypeReference() *edm.TypeReference { return n.typeRef.Get() }
func (n *SingleResourceCastNode) node()                             {}

func (n *SingleResourceCastNode) String() string {
	return common.FormatPath(n.source.String(), n.target.FullName())
}

// CollectionResourceCastNode narrows the items of an entity collection to a
// derived type. The item and collection types change with every cast, so
// they are fixed when the node is created.
type CollectionResourceCastNode struct {
	source         CollectionResourceNode
	target         *edm.EntityType
	itemType       *edm.TypeReference
	collectionType *edm.TypeReference
	navSource      edm.NavigationSource
}

// NewCollectionResourceCastNode creates a cast of source's items to target.
func NewCollectionResourceCastNode(source CollectionResourceNode, target *edm.EntityType) (*CollectionResourceCastNode, error) {
	const op = "NewCollectionResourceCastNode"
	if err := validation.ValidateAll(
		validation.NewNotNilValidator(source, op, "source"),
		validation.NewNotNilValidator(target, op, "target"),
	); err != nil {
		return nil, err
	}
	item := edm.NewTypeReference(target, false)
	return &CollectionResourceCastNode{
		source:         source,
		target:         target,
		itemType:       item,
		collectionType: edm.CollectionOf(item),
		navSource:      source.NavigationSource(),
	}, nil
}

func (n *CollectionResourceCastNode) Kind() NodeKind                         { return KindCollectionResourceCast }
func (n *CollectionResourceCastNode) Source() CollectionResourceNode         { return n.source }
func (n *CollectionResourceCastNode) EntityItemType() *edm.EntityType        { return n.target }
func (n *CollectionResourceCastNode) ItemType() *edm.TypeReference           { return n.itemType }
func (n *CollectionResourceCastNode) CollectionType() *edm.TypeReference     { return n.collectionType }
func (n *CollectionResourceCastNode) NavigationSource() edm.NavigationSource { return n.navSource }
func (n *CollectionResourceCastNode) node()                                  {}

func (n *CollectionResourceCastNode) String() string {
	return common.FormatPath(n.source.String(), n.target.FullName())
}
