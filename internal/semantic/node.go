// Package semantic provides the typed query tree produced by binding a
// syntax tree against a schema. Nodes are immutable after construction;
// derived attributes such as result types are computed on first use and
// cached.
package semantic

import (
	"fmt"

	"github.com/paveg/odataq/internal/edm"
	qerrors "github.com/paveg/odataq/internal/errors"
)

// NodeKind represents the kind of a semantic node
type NodeKind int

const (
	KindConstant NodeKind = iota
	KindConvert
	KindBinaryOperator
	KindUnaryOperator
	KindSingleValuePropertyAccess
	KindCollectionPropertyAccess
	KindSingleValueOpenPropertyAccess
	KindSingleNavigation
	KindCollectionNavigation
	KindNonResourceRangeVariableReference
	KindResourceRangeVariableReference
	KindAny
	KindAll
	KindSingleValueFunctionCall
	KindSingleResourceFunctionCall
	KindSingleResourceCast
	KindCollectionResourceCast
	KindResourceSet
	KindParameterAlias
	KindCount
)

var nodeKindNames = []string{
	"Constant",
	"Convert",
	"BinaryOperator",
	"UnaryOperator",
	"SingleValuePropertyAccess",
	"CollectionPropertyAccess",
	"SingleValueOpenPropertyAccess",
	"SingleNavigation",
	"CollectionNavigation",
	"NonResourceRangeVariableReference",
	"ResourceRangeVariableReference",
	"Any",
	"All",
	"SingleValueFunctionCall",
	"SingleResourceFunctionCall",
	"SingleResourceCast",
	"CollectionResourceCast",
	"ResourceSet",
	"ParameterAlias",
	"Count",
}

func (k NodeKind) String() string {
	if k >= 0 && int(k) < len(nodeKindNames) {
		return nodeKindNames[k]
	}
	return fmt.Sprintf("NodeKind(%d)", int(k))
}

// Node is a bound query node. The set of implementations is closed.
type Node interface {
	Kind() NodeKind
	String() string
	node()
}

// SingleValueNode produces one value per evaluation.
type SingleValueNode interface {
	Node
	// TypeReference returns the result type, or nil when it is unknown
	// (null constants, open properties, untyped aliases).
	TypeReference() *edm.TypeReference
}

// CollectionNode produces a collection.
type CollectionNode interface {
	Node
	ItemType() *edm.TypeReference
	CollectionType() *edm.TypeReference
}

// SingleResourceNode is a single entity valued node.
type SingleResourceNode interface {
	SingleValueNode
	// NavigationSource returns the source the entity belongs to, or nil.
	NavigationSource() edm.NavigationSource
	EntityType() *edm.EntityType
}

// CollectionResourceNode is an entity collection valued node.
type CollectionResourceNode interface {
	CollectionNode
	NavigationSource() edm.NavigationSource
	EntityItemType() *edm.EntityType
}

// ErrorCarrier is implemented by nodes that record schema resolution
// failures instead of failing the bind.
type ErrorCarrier interface {
	Errors() []*qerrors.QueryError
}

// Children returns the direct child nodes of n in source order.
func Children(n Node) []Node {
	switch v := n.(type) {
	case *ConstantNode, *ResourceSetNode, *ParameterAliasNode,
		*NonResourceRangeVariableReferenceNode, *ResourceRangeVariableReferenceNode:
		return nil
	case *ConvertNode:
		return []Node{v.source}
	case *BinaryOperatorNode:
		return []Node{v.left, v.right}
	case *UnaryOperatorNode:
		return []Node{v.operand}
	case *SingleValuePropertyAccessNode:
		return []Node{v.source}
	case *CollectionPropertyAccessNode:
		return []Node{v.source}
	case *SingleValueOpenPropertyAccessNode:
		return []Node{v.source}
	case *SingleNavigationNode:
		return []Node{v.source}
	case *CollectionNavigationNode:
		return []Node{v.source}
	case *AnyNode:
		return []Node{v.source, v.body}
	case *AllNode:
		return []Node{v.source, v.body}
	case *SingleValueFunctionCallNode:
		return functionChildren(v.source, v.arguments)
	case *SingleResourceFunctionCallNode:
		return functionChildren(v.source, v.arguments)
	case *SingleResourceCastNode:
		return []Node{v.source}
	case *CollectionResourceCastNode:
		return []Node{v.source}
	case *CountNode:
		return []Node{v.source}
	default:
		panic(fmt.Sprintf("semantic: unhandled node %T", n))
	}
}

func functionChildren(source Node, args []Node) []Node {
	out := make([]Node, 0, len(args)+1)
	if source != nil {
		out = append(out, source)
	}
	return append(out, args...)
}

// Walk visits n and its descendants depth first. Returning false from fn
// skips the children of the visited node.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, child := range Children(n) {
		Walk(child, fn)
	}
}

// CollectErrors gathers the resolution errors recorded anywhere in the tree.
func CollectErrors(n Node) []*qerrors.QueryError {
	var errs []*qerrors.QueryError
	Walk(n, func(node Node) bool {
		if c, ok := node.(ErrorCarrier); ok {
			errs = append(errs, c.Errors()...)
		}
		return true
	})
	return errs
}

func argumentError(op, argument, format string, args ...interface{}) error {
	return qerrors.NewArgumentError(op, argument, fmt.Sprintf(format, args...))
}
