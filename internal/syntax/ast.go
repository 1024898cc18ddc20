// Package syntax provides lexing and recursive-descent parsing of query
// expressions into an immutable syntax tree.
package syntax

import (
	"fmt"
	"strconv"

	"github.com/paveg/odataq/internal/common"
	"github.com/paveg/odataq/internal/edm"
)

// QueryTokenKind represents the kind of a syntax tree node.
type QueryTokenKind int

const (
	KindLiteral QueryTokenKind = iota
	KindBinaryOperator
	KindUnaryOperator
	KindFunctionCall
	KindEndPath
	KindInnerPath
	KindDottedIdentifier
	KindRangeVariable
	KindAny
	KindAll
	KindStar
	KindParameterAlias
	KindFunctionParameter
	KindOrderBy
	KindLevels
)

var queryTokenKindNames = []string{
	"Literal",
	"BinaryOperator",
	"UnaryOperator",
	"FunctionCall",
	"EndPath",
	"InnerPath",
	"DottedIdentifier",
	"RangeVariable",
	"Any",
	"All",
	"Star",
	"ParameterAlias",
	"FunctionParameter",
	"OrderBy",
	"Levels",
}

func (k QueryTokenKind) String() string {
	if k >= 0 && int(k) < len(queryTokenKindNames) {
		return queryTokenKindNames[k]
	}
	return fmt.Sprintf("QueryTokenKind(%d)", int(k))
}

// QueryToken is a node of the syntax tree. Tokens are never modified after
// the parser returns them, so trees may be shared.
type QueryToken interface {
	Kind() QueryTokenKind
	String() string
}

// BinaryOperatorKind represents a binary operator.
type BinaryOperatorKind int

const (
	Or BinaryOperatorKind = iota
	And
	Equal
	NotEqual
	GreaterThan
	GreaterThanOrEqual
	LessThan
	LessThanOrEqual
	Has
	Add
	Subtract
	Multiply
	Divide
	Modulo
)

func (op BinaryOperatorKind) String() string {
	return common.FormatBinaryOperator(int(op))
}

// IsLogical reports whether op is "and" or "or".
func (op BinaryOperatorKind) IsLogical() bool {
	return op == Or || op == And
}

// IsComparison reports whether op compares its operands.
func (op BinaryOperatorKind) IsComparison() bool {
	return op >= Equal && op <= LessThanOrEqual
}

// IsArithmetic reports whether op is add, sub, mul, div or mod.
func (op BinaryOperatorKind) IsArithmetic() bool {
	return op >= Add && op <= Modulo
}

// UnaryOperatorKind represents a unary operator.
type UnaryOperatorKind int

const (
	Negate UnaryOperatorKind = iota
	Not
)

func (op UnaryOperatorKind) String() string {
	return common.FormatUnaryOperator(int(op))
}

// OrderDirection represents sort direction.
type OrderDirection int

const (
	Ascending OrderDirection = iota
	Descending
)

func (d OrderDirection) String() string {
	return common.FormatOrderDirection(int(d))
}

// LambdaKind distinguishes any from all.
type LambdaKind int

const (
	LambdaAny LambdaKind = iota
	LambdaAll
)

func (k LambdaKind) String() string {
	return common.FormatLambdaKind(int(k))
}

// LiteralToken is a constant value.
type LiteralToken struct {
	Value   interface{}
	Text    string    // original text, empty for synthesized literals
	Lexical TokenKind // lexical kind the value was parsed from
	// ExpectedType is a type hint attached by the alias binder.
	ExpectedType *edm.TypeReference
}

// NewLiteralToken creates a literal token.
func NewLiteralToken(value interface{}, text string, lexical TokenKind) *LiteralToken {
	return &LiteralToken{Value: value, Text: text, Lexical: lexical}
}

// WithExpectedType returns a copy of the literal carrying a type hint.
func (t *LiteralToken) WithExpectedType(ref *edm.TypeReference) *LiteralToken {
	c := *t
	c.ExpectedType = ref
	return &c
}

func (t *LiteralToken) Kind() QueryTokenKind { return KindLiteral }

func (t *LiteralToken) String() string {
	if t.Text != "" {
		return t.Text
	}
	switch v := t.Value.(type) {
	case nil:
		return "null"
	case string:
		return common.QuoteString(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

// BinaryOperatorToken is a binary operation.
type BinaryOperatorToken struct {
	Operator BinaryOperatorKind
	Left     QueryToken
	Right    QueryToken
}

func (t *BinaryOperatorToken) Kind() QueryTokenKind { return KindBinaryOperator }

func (t *BinaryOperatorToken) String() string {
	return common.FormatFunction(t.Operator.String(), t.Left.String(), t.Right.String())
}

// UnaryOperatorToken is a unary operation.
type UnaryOperatorToken struct {
	Operator UnaryOperatorKind
	Operand  QueryToken
}

func (t *UnaryOperatorToken) Kind() QueryTokenKind { return KindUnaryOperator }

func (t *UnaryOperatorToken) String() string {
	return common.FormatFunction(t.Operator.String(), t.Operand.String())
}

// FunctionCallToken is a call of a built-in or schema function.
type FunctionCallToken struct {
	Name      string
	Arguments []QueryToken
	Parent    QueryToken // nil for calls at the start of a path
}

func (t *FunctionCallToken) Kind() QueryTokenKind { return KindFunctionCall }

func (t *FunctionCallToken) String() string {
	args := make([]string, len(t.Arguments))
	for i, arg := range t.Arguments {
		args[i] = arg.String()
	}
	return common.FormatPath(parentString(t.Parent), common.FormatFunction(t.Name, args...))
}

// EndPathToken is the last segment of a property path.
type EndPathToken struct {
	Name   string
	Parent QueryToken
}

func (t *EndPathToken) Kind() QueryTokenKind { return KindEndPath }

func (t *EndPathToken) String() string {
	return common.FormatPath(parentString(t.Parent), t.Name)
}

// InnerPathToken is a non-terminal segment of a property path.
type InnerPathToken struct {
	Name   string
	Parent QueryToken
}

func (t *InnerPathToken) Kind() QueryTokenKind { return KindInnerPath }

func (t *InnerPathToken) String() string {
	return common.FormatPath(parentString(t.Parent), t.Name)
}

// DottedIdentifierToken is a qualified type name segment, i.e. a cast.
type DottedIdentifierToken struct {
	Name   string
	Parent QueryToken
}

func (t *DottedIdentifierToken) Kind() QueryTokenKind { return KindDottedIdentifier }

func (t *DottedIdentifierToken) String() string {
	return common.FormatPath(parentString(t.Parent), t.Name)
}

// RangeVariableToken references a lambda variable or $it.
type RangeVariableToken struct {
	Name string
}

func (t *RangeVariableToken) Kind() QueryTokenKind { return KindRangeVariable }

func (t *RangeVariableToken) String() string { return t.Name }

// LambdaToken is an any or all predicate over its parent collection.
type LambdaToken struct {
	Lambda    LambdaKind
	Predicate QueryToken
	Variable  string // empty for any() and all()
	Parent    QueryToken
}

func (t *LambdaToken) Kind() QueryTokenKind {
	if t.Lambda == LambdaAll {
		return KindAll
	}
	return KindAny
}

func (t *LambdaToken) String() string {
	body := ""
	if t.Variable != "" || !isConstantTrue(t.Predicate) {
		body = t.Predicate.String()
	}
	return common.FormatLambda(parentString(t.Parent), t.Lambda.String(), t.Variable, body)
}

// StarToken selects all properties of its parent.
type StarToken struct {
	Parent QueryToken
}

func (t *StarToken) Kind() QueryTokenKind { return KindStar }

func (t *StarToken) String() string {
	return common.FormatPath(parentString(t.Parent), "*")
}

// ParameterAliasToken references a parameter alias such as @p.
type ParameterAliasToken struct {
	Name         string
	ExpectedType *edm.TypeReference
}

// WithExpectedType returns a copy of the alias carrying a type hint.
func (t *ParameterAliasToken) WithExpectedType(ref *edm.TypeReference) *ParameterAliasToken {
	c := *t
	c.ExpectedType = ref
	return &c
}

func (t *ParameterAliasToken) Kind() QueryTokenKind { return KindParameterAlias }

func (t *ParameterAliasToken) String() string { return t.Name }

// FunctionParameterToken is a named function argument.
type FunctionParameterToken struct {
	Name  string
	Value QueryToken
}

func (t *FunctionParameterToken) Kind() QueryTokenKind { return KindFunctionParameter }

func (t *FunctionParameterToken) String() string {
	return common.FormatNamedArgument(t.Name, t.Value.String())
}

// OrderByToken is one item of an order-by list.
type OrderByToken struct {
	Expression QueryToken
	Direction  OrderDirection
}

func (t *OrderByToken) Kind() QueryTokenKind { return KindOrderBy }

func (t *OrderByToken) String() string {
	return common.FormatSort(t.Expression.String(), t.Direction == Ascending)
}

// LevelsToken is a traversal depth, either a number or max.
type LevelsToken struct {
	IsMax bool
	Level int64
}

func (t *LevelsToken) Kind() QueryTokenKind { return KindLevels }

func (t *LevelsToken) String() string {
	if t.IsMax {
		return "max"
	}
	return strconv.FormatInt(t.Level, 10)
}

func parentString(parent QueryToken) string {
	if parent == nil {
		return ""
	}
	return parent.String()
}

// trueLiteral is the predicate of any() and all().
func trueLiteral() *LiteralToken {
	return &LiteralToken{Value: true, Lexical: TokenBoolean}
}

func isConstantTrue(t QueryToken) bool {
	lit, ok := t.(*LiteralToken)
	return ok && lit.Text == "" && lit.Value == true
}
