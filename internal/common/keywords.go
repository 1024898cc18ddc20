package common

import (
	"fmt"

	"golang.org/x/text/cases"
)

// EnumStringMap represents a mapping from enum values to string representations.
type EnumStringMap map[int]string

// KeywordRegistry maps enum values of the expression grammar to the keywords
// that spell them, in both directions.
type KeywordRegistry struct {
	mappings map[string]EnumStringMap
	reverse  map[string]map[string]int
	folded   map[string]map[string]int
}

// NewKeywordRegistry creates an empty registry.
func NewKeywordRegistry() *KeywordRegistry {
	return &KeywordRegistry{
		mappings: make(map[string]EnumStringMap),
		reverse:  make(map[string]map[string]int),
		folded:   make(map[string]map[string]int),
	}
}

// Register registers an enum type with its keyword mapping.
func (kr *KeywordRegistry) Register(typeName string, mapping EnumStringMap) {
	kr.mappings[typeName] = mapping

	exact := make(map[string]int, len(mapping))
	folded := make(map[string]int, len(mapping))
	for value, keyword := range mapping {
		exact[keyword] = value
		folded[Fold(keyword)] = value
	}
	kr.reverse[typeName] = exact
	kr.folded[typeName] = folded
}

// Format returns the keyword for value, or "unknown_<type>(<value>)".
func (kr *KeywordRegistry) Format(typeName string, value int) string {
	if mapping, exists := kr.mappings[typeName]; exists {
		if str, found := mapping[value]; found {
			return str
		}
	}
	return fmt.Sprintf("unknown_%s(%d)", typeName, value)
}

// Lookup resolves a keyword to its enum value. With caseInsensitive the
// comparison uses Unicode case folding.
func (kr *KeywordRegistry) Lookup(typeName, keyword string, caseInsensitive bool) (int, bool) {
	if value, ok := kr.reverse[typeName][keyword]; ok {
		return value, true
	}
	if !caseInsensitive {
		return 0, false
	}
	value, ok := kr.folded[typeName][Fold(keyword)]
	return value, ok
}

// Mapping returns the mapping for a registered enum type.
func (kr *KeywordRegistry) Mapping(typeName string) (EnumStringMap, bool) {
	mapping, exists := kr.mappings[typeName]
	return mapping, exists
}

var folder = cases.Fold()

// Fold returns the Unicode case-folded form of s.
func Fold(s string) string {
	return folder.String(s)
}

// KeywordEqual reports whether text spells keyword.
func KeywordEqual(text, keyword string, caseInsensitive bool) bool {
	if text == keyword {
		return true
	}
	if !caseInsensitive || len(text) == 0 {
		return false
	}
	return Fold(text) == Fold(keyword)
}

// Keyword mappings of the query grammar. The integer values follow the
// declaration order of the corresponding kinds in package syntax.

// BinaryOperatorKeywords maps binary operator kinds to their keywords.
var BinaryOperatorKeywords = EnumStringMap{
	0:  "or",  // Or
	1:  "and", // And
	2:  "eq",  // Equal
	3:  "ne",  // NotEqual
	4:  "gt",  // GreaterThan
	5:  "ge",  // GreaterThanOrEqual
	6:  "lt",  // LessThan
	7:  "le",  // LessThanOrEqual
	8:  "has", // Has
	9:  "add", // Add
	10: "sub", // Subtract
	11: "mul", // Multiply
	12: "div", // Divide
	13: "mod", // Modulo
}

// UnaryOperatorKeywords maps unary operator kinds to their keywords.
var UnaryOperatorKeywords = EnumStringMap{
	0: "-",   // Negate
	1: "not", // Not
}

// OrderDirectionKeywords maps order directions to their keywords.
var OrderDirectionKeywords = EnumStringMap{
	0: "asc",  // Ascending
	1: "desc", // Descending
}

// LambdaKeywords maps lambda kinds to their keywords.
var LambdaKeywords = EnumStringMap{
	0: "any", // Any
	1: "all", // All
}

const (
	binaryOperatorType = "BinaryOperator"
	unaryOperatorType  = "UnaryOperator"
	orderDirectionType = "OrderDirection"
	lambdaType         = "Lambda"
)

var defaultKeywords = func() *KeywordRegistry {
	registry := NewKeywordRegistry()
	registry.Register(binaryOperatorType, BinaryOperatorKeywords)
	registry.Register(unaryOperatorType, UnaryOperatorKeywords)
	registry.Register(orderDirectionType, OrderDirectionKeywords)
	registry.Register(lambdaType, LambdaKeywords)
	return registry
}()

// FormatBinaryOperator formats a binary operator kind.
func FormatBinaryOperator(op int) string {
	return defaultKeywords.Format(binaryOperatorType, op)
}

// FormatUnaryOperator formats a unary operator kind.
func FormatUnaryOperator(op int) string {
	return defaultKeywords.Format(unaryOperatorType, op)
}

// FormatOrderDirection formats an order direction.
func FormatOrderDirection(direction int) string {
	return defaultKeywords.Format(orderDirectionType, direction)
}

// FormatLambdaKind formats a lambda kind.
func FormatLambdaKind(kind int) string {
	return defaultKeywords.Format(lambdaType, kind)
}

// ParseBinaryOperator resolves a binary operator keyword.
func ParseBinaryOperator(keyword string, caseInsensitive bool) (int, bool) {
	return defaultKeywords.Lookup(binaryOperatorType, keyword, caseInsensitive)
}

// ParseOrderDirection resolves an order direction keyword.
func ParseOrderDirection(keyword string, caseInsensitive bool) (int, bool) {
	return defaultKeywords.Lookup(orderDirectionType, keyword, caseInsensitive)
}

// ParseLambdaKind resolves a lambda keyword.
func ParseLambdaKind(keyword string, caseInsensitive bool) (int, bool) {
	return defaultKeywords.Lookup(lambdaType, keyword, caseInsensitive)
}
