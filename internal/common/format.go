// Package common provides shared utilities for keyword tables, string
// representations and value conversions.
package common

import (
	"fmt"
	"strings"
)

// StringFormatter provides common string formatting utilities.
type StringFormatter struct{}

// NewStringFormatter creates a new StringFormatter instance.
func NewStringFormatter() *StringFormatter {
	return &StringFormatter{}
}

// FormatFunction formats a function-like string representation
// Pattern: functionName(arg1, arg2, ...)
func (sf *StringFormatter) FormatFunction(name string, args ...string) string {
	if len(args) == 0 {
		return fmt.Sprintf("%s()", name)
	}
	return fmt.Sprintf("%s(%s)", name, strings.Join(args, ", "))
}

// FormatPath formats a path segment under an optional parent
// Pattern: parent/segment.
func (sf *StringFormatter) FormatPath(parent, segment string) string {
	if parent == "" {
		return segment
	}
	return parent + "/" + segment
}

// FormatLambda formats a lambda expression
// Pattern: parent/any(v: body).
func (sf *StringFormatter) FormatLambda(parent, keyword, variable, body string) string {
	inner := body
	if variable != "" {
		inner = variable + ": " + body
	}
	return sf.FormatPath(parent, fmt.Sprintf("%s(%s)", keyword, inner))
}

// FormatNamedArgument formats a named function argument
// Pattern: name=value.
func (sf *StringFormatter) FormatNamedArgument(name, value string) string {
	return name + "=" + value
}

// FormatSort formats an order-by item.
func (sf *StringFormatter) FormatSort(expression string, ascending bool) string {
	direction := "asc"
	if !ascending {
		direction = "desc"
	}
	return fmt.Sprintf("%s %s", expression, direction)
}

// FormatList formats a list of items with separator.
func (sf *StringFormatter) FormatList(items []string, separator string) string {
	return strings.Join(items, separator)
}

// QuoteString renders s as a single-quoted literal, doubling embedded quotes.
func (sf *StringFormatter) QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// FormatEnum formats an enum value using the provided mapping.
func (sf *StringFormatter) FormatEnum(value int, mapping EnumStringMap) string {
	if str, exists := mapping[value]; exists {
		return str
	}
	return fmt.Sprintf("unknown(%d)", value)
}

// Default formatter instance for convenience.
var defaultFormatter = NewStringFormatter()

// FormatFunction formats a function-like string representation using the default formatter.
func FormatFunction(name string, args ...string) string {
	return defaultFormatter.FormatFunction(name, args...)
}

// FormatPath formats a path segment using the default formatter.
func FormatPath(parent, segment string) string {
	return defaultFormatter.FormatPath(parent, segment)
}

// FormatLambda formats a lambda expression using the default formatter.
func FormatLambda(parent, keyword, variable, body string) string {
	return defaultFormatter.FormatLambda(parent, keyword, variable, body)
}

// FormatNamedArgument formats a named argument using the default formatter.
func FormatNamedArgument(name, value string) string {
	return defaultFormatter.FormatNamedArgument(name, value)
}

// FormatSort formats an order-by item using the default formatter.
func FormatSort(expression string, ascending bool) string {
	return defaultFormatter.FormatSort(expression, ascending)
}

// FormatList joins items with ", " using the default formatter.
func FormatList(items []string) string {
	return defaultFormatter.FormatList(items, ", ")
}

// QuoteString quotes s using the default formatter.
func QuoteString(s string) string {
	return defaultFormatter.QuoteString(s)
}

// FormatEnum formats an enum value using the default formatter.
func FormatEnum(value int, mapping EnumStringMap) string {
	return defaultFormatter.FormatEnum(value, mapping)
}
