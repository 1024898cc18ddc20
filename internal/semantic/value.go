package semantic

import (
	"fmt"

	"github.com/paveg/odataq/internal/common"
	"github.com/paveg/odataq/internal/edm"
	qerrors "github.com/paveg/odataq/internal/errors"
	"github.com/paveg/odataq/internal/syntax"
	"github.com/paveg/odataq/internal/validation"
)

// ConstantNode is a literal value. A nil type reference denotes null.
type ConstantNode struct {
	value   interface{}
	text    string
	typeRef *edm.TypeReference
}

// NewConstantNode creates a constant. text is the literal as written and may
// be empty for synthesized values.
func NewConstantNode(value interface{}, text string, typeRef *edm.TypeReference) *ConstantNode {
	return &ConstantNode{value: value, text: text, typeRef: typeRef}
}

func (n *ConstantNode) Kind() NodeKind                    { return KindConstant }
func (n *ConstantNode) TypeReference() *edm.TypeReference { return n.typeRef }
func (n *ConstantNode) Value() interface{}                { return n.value }
func (n *ConstantNode) Text() string                      { return n.text }
func (n *ConstantNode) node()                             {}

func (n *ConstantNode) String() string {
	switch {
	case n.text != "":
		return n.text
	case n.value == nil:
		return "null"
	}
	if s, ok := n.value.(string); ok {
		return common.QuoteString(s)
	}
	return common.ToString(n.value)
}

// ConvertNode converts its source to another type, typically a numeric
// promotion inserted by the binder.
type ConvertNode struct {
	source  SingleValueNode
	typeRef *edm.TypeReference
}

// NewConvertNode creates a conversion of source to typeRef.
func NewConvertNode(source SingleValueNode, typeRef *edm.TypeReference) (*ConvertNode, error) {
	const op = "NewConvertNode"
	if err := validation.ValidateAll(
		validation.NewNotNilValidator(source, op, "source"),
		validation.NewNotNilValidator(typeRef, op, "typeReference"),
	); err != nil {
		return nil, err
	}
	return &ConvertNode{source: source, typeRef: typeRef}, nil
}

func (n *ConvertNode) Kind() NodeKind                    { return KindConvert }
func (n *ConvertNode) TypeReference() *edm.TypeReference { return n.typeRef }
func (n *ConvertNode) Source() SingleValueNode           { return n.source }
func (n *ConvertNode) node()                             {}

func (n *ConvertNode) String() string {
	return common.FormatFunction("convert", n.source.String(), n.typeRef.FullName())
}

// BinaryOperatorNode applies a binary operator.
type BinaryOperatorNode struct {
	op      syntax.BinaryOperatorKind
	left    SingleValueNode
	right   SingleValueNode
	typeRef *lazy[*edm.TypeReference]
}

// NewBinaryOperatorNode creates a binary operation. Comparison, logical and
// has operators yield Edm.Boolean; arithmetic yields the type of the first
// typed operand.
func NewBinaryOperatorNode(op syntax.BinaryOperatorKind, left, right SingleValueNode) (*BinaryOperatorNode, error) {
	const opName = "NewBinaryOperatorNode"
	if err := validation.ValidateAll(
		validation.NewNotNilValidator(left, opName, "left"),
		validation.NewNotNilValidator(right, opName, "right"),
	); err != nil {
		return nil, err
	}
	n := &BinaryOperatorNode{op: op, left: left, right: right}
	n.typeRef = newLazy(n.resultType)
	return n, nil
}

func (n *BinaryOperatorNode) resultType() *edm.TypeReference {
	if !n.op.IsArithmetic() {
		nullable := nullableOrUnknown(n.left.TypeReference()) || nullableOrUnknown(n.right.TypeReference())
		return edm.PrimitiveReference(edm.PrimitiveBoolean, nullable)
	}
	l, r := n.left.TypeReference(), n.right.TypeReference()
	if n.op == syntax.Subtract && l != nil && r != nil {
		lk, rk := l.PrimitiveKind(), r.PrimitiveKind()
		if lk == rk && (lk == edm.PrimitiveDateTimeOffset || lk == edm.PrimitiveDate) {
			return edm.PrimitiveReference(edm.PrimitiveDuration, l.Nullable || r.Nullable)
		}
	}
	if l != nil {
		return l
	}
	return r
}

func nullableOrUnknown(ref *edm.TypeReference) bool {
	return ref == nil || ref.Nullable
}

func (n *BinaryOperatorNode) Kind() NodeKind                      { return KindBinaryOperator }
func (n *BinaryOperatorNode) TypeReference() *edm.TypeReference   { return n.typeRef.Get() }
func (n *BinaryOperatorNode) Operator() syntax.BinaryOperatorKind { return n.op }
func (n *BinaryOperatorNode) Left() SingleValueNode               { return n.left }
func (n *BinaryOperatorNode) Right() SingleValueNode              { return n.right }
func (n *BinaryOperatorNode) node()                               {}

func (n *BinaryOperatorNode) String() string {
	return common.FormatFunction(n.op.String(), n.left.String(), n.right.String())
}

// UnaryOperatorNode applies negation or logical not.
type UnaryOperatorNode struct {
	op      syntax.UnaryOperatorKind
	operand SingleValueNode
	typeRef *lazy[*edm.TypeReference]
}

// NewUnaryOperatorNode creates a unary operation.
func NewUnaryOperatorNode(op syntax.UnaryOperatorKind, operand SingleValueNode) (*UnaryOperatorNode, error) {
	if err := validation.NotNil(operand, "NewUnaryOperatorNode", "operand"); err != nil {
		return nil, err
	}
	n := &UnaryOperatorNode{op: op, operand: operand}
	n.typeRef = newLazy(func() *edm.TypeReference {
		if op == syntax.Not {
			return edm.PrimitiveReference(edm.PrimitiveBoolean, nullableOrUnknown(operand.TypeReference()))
		}
		return operand.TypeReference()
	})
	return n, nil
}

func (n *UnaryOperatorNode) Kind() NodeKind                     { return KindUnaryOperator }
func (n *UnaryOperatorNode) TypeReference() *edm.TypeReference  { return n.typeRef.Get() }
func (n *UnaryOperatorNode) Operator() syntax.UnaryOperatorKind { return n.op }
func (n *UnaryOperatorNode) Operand() SingleValueNode           { return n.operand }
func (n *UnaryOperatorNode) node()                              {}

func (n *UnaryOperatorNode) String() string {
	return common.FormatFunction(n.op.String(), n.operand.String())
}

// ParameterAliasNode references an alias such as @p. The type reference is
// nil until the alias value has been bound. Resolution errors found in the
// bound value are carried on the node.
type ParameterAliasNode struct {
	alias   string
	typeRef *edm.TypeReference
	errs    []*qerrors.QueryError
}

// NewParameterAliasNode creates an alias node; typeRef may be nil.
func NewParameterAliasNode(alias string, typeRef *edm.TypeReference, errs ...*qerrors.QueryError) (*ParameterAliasNode, error) {
	if err := validation.NotEmpty(alias, "NewParameterAliasNode", "alias"); err != nil {
		return nil, err
	}
	return &ParameterAliasNode{alias: alias, typeRef: typeRef, errs: errs}, nil
}

func (n *ParameterAliasNode) Kind() NodeKind                    { return KindParameterAlias }
func (n *ParameterAliasNode) TypeReference() *edm.TypeReference { return n.typeRef }
func (n *ParameterAliasNode) Alias() string                     { return n.alias }
func (n *ParameterAliasNode) String() string                    { return n.alias }
func (n *ParameterAliasNode) node()                             {}
func (n *ParameterAliasNode) Errors() []*qerrors.QueryError     { return n.errs }

// CountNode counts the items of a collection.
type CountNode struct {
	source CollectionNode
}

// NewCountNode creates a $count over source.
func NewCountNode(source CollectionNode) (*CountNode, error) {
	if err := validation.NotNil(source, "NewCountNode", "source"); err != nil {
		return nil, err
	}
	return &CountNode{source: source}, nil
}

func (n *CountNode) Kind() NodeKind         { return KindCount }
func (n *CountNode) Source() CollectionNode { return n.source }
func (n *CountNode) node()                  {}

func (n *CountNode) TypeReference() *edm.TypeReference {
	return edm.PrimitiveReference(edm.PrimitiveInt64, false)
}

func (n *CountNode) String() string {
	return common.FormatPath(n.source.String(), "$count")
}

// SingleValueFunctionCallNode calls a built-in or model function returning a
// primitive, enum or complex value.
type SingleValueFunctionCallNode struct {
	name      string
	functions []*edm.Function
	arguments []Node
	typeRef   *edm.TypeReference
	source    Node
}

// NewSingleValueFunctionCallNode creates a function call. functions is empty
// for built-ins; source is the binding parent of a bound function, or nil.
func NewSingleValueFunctionCallNode(name string, functions []*edm.Function, arguments []Node, typeRef *edm.TypeReference, source Node) (*SingleValueFunctionCallNode, error) {
	const op = "NewSingleValueFunctionCallNode"
	if err := validation.ValidateAll(
		validation.NewNotEmptyValidator(name, op, "name"),
		validation.NewNotNilValidator(typeRef, op, "typeReference"),
	); err != nil {
		return nil, err
	}
	if err := checkArguments(op, arguments); err != nil {
		return nil, err
	}
	return &SingleValueFunctionCallNode{name: name, functions: functions, arguments: arguments, typeRef: typeRef, source: source}, nil
}

func (n *SingleValueFunctionCallNode) Kind() NodeKind                    { return KindSingleValueFunctionCall }
func (n *SingleValueFunctionCallNode) TypeReference() *edm.TypeReference { return n.typeRef }
func (n *SingleValueFunctionCallNode) Name() string                      { return n.name }
func (n *SingleValueFunctionCallNode) Functions() []*edm.Function        { return n.functions }
func (n *SingleValueFunctionCallNode) Arguments() []Node                 { return n.arguments }
func (n *SingleValueFunctionCallNode) Source() Node                      { return n.source }
func (n *SingleValueFunctionCallNode) node()                             {}

func (n *SingleValueFunctionCallNode) String() string {
	return formatCall(n.source, n.name, n.arguments)
}

// SingleResourceFunctionCallNode calls a model function returning an entity.
type SingleResourceFunctionCallNode struct {
	name      string
	functions []*edm.Function
	arguments []Node
	typeRef   *edm.TypeReference
	navSource edm.NavigationSource
	source    Node
}

// NewSingleResourceFunctionCallNode creates an entity returning call.
// navSource may be nil when the result is not contained in a known source.
func NewSingleResourceFunctionCallNode(name string, functions []*edm.Function, arguments []Node, typeRef *edm.TypeReference, navSource edm.NavigationSource, source Node) (*SingleResourceFunctionCallNode, error) {
	const op = "NewSingleResourceFunctionCallNode"
	if err := validation.ValidateAll(
		validation.NewNotEmptyValidator(name, op, "name"),
		validation.NewNotNilValidator(typeRef, op, "typeReference"),
	); err != nil {
		return nil, err
	}
	if !typeRef.IsEntity() {
		return nil, argumentError(op, "typeReference", "must be an entity type, got %s", typeRef.FullName())
	}
	if err := checkArguments(op, arguments); err != nil {
		return nil, err
	}
	return &SingleResourceFunctionCallNode{
		name:      name,
		functions: functions,
		arguments: arguments,
		typeRef:   typeRef,
		navSource: navSource,
		source:    source,
	}, nil
}

func (n *SingleResourceFunctionCallNode) Kind() NodeKind                         { return KindSingleResourceFunctionCall }
func (n *SingleResourceFunctionCallNode) TypeReference() *edm.TypeReference      { return n.typeRef }
func (n *SingleResourceFunctionCallNode) EntityType() *edm.EntityType            { return n.typeRef.AsEntity() }
func (n *SingleResourceFunctionCallNode) NavigationSource() edm.NavigationSource { return n.navSource }
func (n *SingleResourceFunctionCallNode) Name() string                           { return n.name }
func (n *SingleResourceFunctionCallNode) Functions() []*edm.Function             { return n.functions }
func (n *SingleResourceFunctionCallNode) Arguments() []Node                      { return n.arguments }
func (n *SingleResourceFunctionCallNode) Source() Node                           { return n.source }
func (n *SingleResourceFunctionCallNode) node()                                  {}

func (n *SingleResourceFunctionCallNode) String() string {
	return formatCall(n.source, n.name, n.arguments)
}

func checkArguments(op string, args []Node) error {
	for i, arg := range args {
		if validation.IsNil(arg) {
			return validation.NotNil(arg, op, fmt.Sprintf("arguments[%d]", i))
		}
	}
	return nil
}

func formatCall(source Node, name string, args []Node) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = arg.String()
	}
	parent := ""
	if source != nil {
		parent = source.String()
	}
	return common.FormatPath(parent, common.FormatFunction(name, parts...))
}
