package semantic

import (
	"github.com/paveg/odataq/internal/common"
	"github.com/paveg/odataq/internal/edm"
	"github.com/paveg/odataq/internal/syntax"
	"github.com/paveg/odataq/internal/validation"
)

// RangeVariable is a variable ranging over the items of a collection: the
// implicit $it of a query option or the variable of a lambda.
type RangeVariable interface {
	Name() string
	TypeReference() *edm.TypeReference
	rangeVariable()
}

// EntityRangeVariable ranges over entities. It remembers the collection it
// iterates and that collection's navigation source.
type EntityRangeVariable struct {
	name       string
	typeRef    *edm.TypeReference
	collection CollectionResourceNode
	navSource  edm.NavigationSource
}

// NewEntityRangeVariable creates an entity range variable over collection.
// typeRef must be an entity type.
func NewEntityRangeVariable(name string, typeRef *edm.TypeReference, collection CollectionResourceNode) (*EntityRangeVariable, error) {
	const op = "NewEntityRangeVariable"
	if err := validation.ValidateAll(
		validation.NewNotEmptyValidator(name, op, "name"),
		validation.NewNotNilValidator(typeRef, op, "typeReference"),
		validation.NewNotNilValidator(collection, op, "collection"),
	); err != nil {
		return nil, err
	}
	if !typeRef.IsEntity() {
		return nil, argumentError(op, "typeReference", "must be an entity type, got %s", typeRef.FullName())
	}
	return &EntityRangeVariable{
		name:       name,
		typeRef:    typeRef,
		collection: collection,
		navSource:  collection.NavigationSource(),
	}, nil
}

func (v *EntityRangeVariable) Name() string                           { return v.name }
func (v *EntityRangeVariable) TypeReference() *edm.TypeReference      { return v.typeRef }
func (v *EntityRangeVariable) EntityType() *edm.EntityType            { return v.typeRef.AsEntity() }
func (v *EntityRangeVariable) Collection() CollectionResourceNode     { return v.collection }
func (v *EntityRangeVariable) NavigationSource() edm.NavigationSource { return v.navSource }
func (v *EntityRangeVariable) rangeVariable()                         {}

// NonEntityRangeVariable ranges over primitive, enum or complex values.
type NonEntityRangeVariable struct {
	name       string
	typeRef    *edm.TypeReference
	collection CollectionNode
}

// NewNonEntityRangeVariable creates a range variable. collection may be nil
// for the implicit variable of a non-collection context.
func NewNonEntityRangeVariable(name string, typeRef *edm.TypeReference, collection CollectionNode) (*NonEntityRangeVariable, error) {
	const op = "NewNonEntityRangeVariable"
	if err := validation.ValidateAll(
		validation.NewNotEmptyValidator(name, op, "name"),
		validation.NewNotNilValidator(typeRef, op, "typeReference"),
	); err != nil {
		return nil, err
	}
	if typeRef.IsEntity() {
		return nil, argumentError(op, "typeReference", "must not be an entity type")
	}
	if validation.IsNil(collection) {
		collection = nil
	}
	return &NonEntityRangeVariable{name: name, typeRef: typeRef, collection: collection}, nil
}

func (v *NonEntityRangeVariable) Name() string                      { return v.name }
func (v *NonEntityRangeVariable) TypeReference() *edm.TypeReference { return v.typeRef }
func (v *NonEntityRangeVariable) Collection() CollectionNode        { return v.collection }
func (v *NonEntityRangeVariable) rangeVariable()                    {}

// ResourceRangeVariableReferenceNode refers to an entity range variable.
type ResourceRangeVariableReferenceNode struct {
	variable *EntityRangeVariable
}

// NewResourceRangeVariableReferenceNode creates a reference to variable.
func NewResourceRangeVariableReferenceNode(variable *EntityRangeVariable) (*ResourceRangeVariableReferenceNode, error) {
	if err := validation.NotNil(variable, "NewResourceRangeVariableReferenceNode", "rangeVariable"); err != nil {
		return nil, err
	}
	return &ResourceRangeVariableReferenceNode{variable: variable}, nil
}

func (n *ResourceRangeVariableReferenceNode) Kind() NodeKind {
	return KindResourceRangeVariableReference
}
func (n *ResourceRangeVariableReferenceNode) RangeVariable() *EntityRangeVariable { return n.variable }
func (n *ResourceRangeVariableReferenceNode) TypeReference() *edm.TypeReference {
	return n.variable.typeRef
}
func (n *ResourceRangeVariableReferenceNode) EntityType() *edm.EntityType {
	return n.variable.EntityType()
}
func (n *ResourceRangeVariableReferenceNode) NavigationSource() edm.NavigationSource {
	return n.variable.navSource
}
func (n *ResourceRangeVariableReferenceNode) String() string { return n.variable.name }
func (n *ResourceRangeVariableReferenceNode) node()          {}

// NonResourceRangeVariableReferenceNode refers to a non-entity range variable.
type NonResourceRangeVariableReferenceNode struct {
	variable *NonEntityRangeVariable
}

// NewNonResourceRangeVariableReferenceNode creates a reference to variable.
func NewNonResourceRangeVariableReferenceNode(variable *NonEntityRangeVariable) (*NonResourceRangeVariableReferenceNode, error) {
	if err := validation.NotNil(variable, "NewNonResourceRangeVariableReferenceNode", "rangeVariable"); err != nil {
		return nil, err
	}
	return &NonResourceRangeVariableReferenceNode{variable: variable}, nil
}

func (n *NonResourceRangeVariableReferenceNode) Kind() NodeKind {
	return KindNonResourceRangeVariableReference
}
func (n *NonResourceRangeVariableReferenceNode) RangeVariable() *NonEntityRangeVariable {
	return n.variable
}
func (n *NonResourceRangeVariableReferenceNode) TypeReference() *edm.TypeReference {
	return n.variable.typeRef
}
func (n *NonResourceRangeVariableReferenceNode) String() string { return n.variable.name }
func (n *NonResourceRangeVariableReferenceNode) node()          {}

// NewRangeVariableReference returns the reference node matching the flavor
// of variable.
func NewRangeVariableReference(variable RangeVariable) (SingleValueNode, error) {
	switch v := variable.(type) {
	case *EntityRangeVariable:
		return NewResourceRangeVariableReferenceNode(v)
	case *NonEntityRangeVariable:
		return NewNonResourceRangeVariableReferenceNode(v)
	default:
		return nil, validation.NotNil(nil, "NewRangeVariableReference", "rangeVariable")
	}
}

// lambda holds what any and all share.
type lambda struct {
	source   CollectionNode
	body     SingleValueNode
	variable RangeVariable
}

func newLambda(op string, source CollectionNode, body SingleValueNode, variable RangeVariable) (lambda, error) {
	if err := validation.ValidateAll(
		validation.NewNotNilValidator(source, op, "source"),
		validation.NewNotNilValidator(body, op, "body"),
	); err != nil {
		return lambda{}, err
	}
	if validation.IsNil(variable) {
		variable = nil
	}
	return lambda{source: source, body: body, variable: variable}, nil
}

// Source returns the collection the lambda iterates.
func (l *lambda) Source() CollectionNode { return l.source }

// Body returns the predicate.
func (l *lambda) Body() SingleValueNode { return l.body }

// RangeVariable returns the declared variable, or nil for any() and all().
func (l *lambda) RangeVariable() RangeVariable { return l.variable }

// TypeReference is always Edm.Boolean.
func (l *lambda) TypeReference() *edm.TypeReference {
	return edm.PrimitiveReference(edm.PrimitiveBoolean, false)
}

func (l *lambda) format(kind syntax.LambdaKind) string {
	name, body := "", ""
	if l.variable != nil {
		name, body = l.variable.Name(), l.body.String()
	} else if c, ok := l.body.(*ConstantNode); !ok || c.Value() != true {
		body = l.body.String()
	}
	return common.FormatLambda(l.source.String(), kind.String(), name, body)
}

// AnyNode is true when the body holds for at least one item.
type AnyNode struct {
	lambda
}

// NewAnyNode creates an any lambda. variable is nil for any().
func NewAnyNode(source CollectionNode, body SingleValueNode, variable RangeVariable) (*AnyNode, error) {
	l, err := newLambda("NewAnyNode", source, body, variable)
	if err != nil {
		return nil, err
	}
	return &AnyNode{lambda: l}, nil
}

func (n *AnyNode) Kind() NodeKind { return KindAny }
func (n *AnyNode) String() string { return n.format(syntax.LambdaAny) }
func (n *AnyNode) node()          {}

// AllNode is true when the body holds for every item.
type AllNode struct {
	lambda
}

// NewAllNode creates an all lambda.
func NewAllNode(source CollectionNode, body SingleValueNode, variable RangeVariable) (*AllNode, error) {
	l, err := newLambda("NewAllNode", source, body, variable)
	if err != nil {
		return nil, err
	}
	return &AllNode{lambda: l}, nil
}

func (n *AllNode) Kind() NodeKind { return KindAll }
func (n *AllNode) String() string { return n.format(syntax.LambdaAll) }
func (n *AllNode) node()          {}
