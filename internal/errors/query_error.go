// Package errors provides the structured error type shared by the lexer,
// the expression parser and the semantic binder. Every failure surfaced by
// the library is a *QueryError carrying its kind, the operation that failed
// and, when known, the offending text and character position.
package errors

import (
	"fmt"
	"strings"
)

// Kind classifies a QueryError.
type Kind int

const (
	// KindLexical reports malformed literal text or an unexpected character.
	KindLexical Kind = iota
	// KindSyntax reports a grammar violation.
	KindSyntax
	// KindDepth reports that the recursion limit was exceeded.
	KindDepth
	// KindBinding reports a failure while binding against the schema.
	KindBinding
	// KindArgument reports an invalid argument passed to a constructor.
	KindArgument
)

func (k Kind) String() string {
	switch k {
	case KindLexical:
		return "lexical"
	case KindSyntax:
		return "syntax"
	case KindDepth:
		return "depth"
	case KindBinding:
		return "binding"
	case KindArgument:
		return "argument"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// NoPosition marks errors that have no associated character position.
const NoPosition = -1

// QueryError represents every parse and bind failure.
type QueryError struct {
	Kind     Kind   // Error classification
	Op       string // Operation name (e.g., "ParseFilter", "BindParameterAlias")
	Message  string // Human-readable error description
	Text     string // Expression text being processed, if known
	Position int    // 0-based character position, NoPosition if unknown
	Cause    error  // Underlying error cause
}

// Error implements the error interface
func (e *QueryError) Error() string {
	var sb strings.Builder
	if e.Op != "" {
		sb.WriteString(e.Op)
		sb.WriteString(" failed: ")
	} else {
		sb.WriteString(e.Kind.String())
		sb.WriteString(" error: ")
	}
	sb.WriteString(e.Message)
	if e.Position >= 0 && e.Text != "" {
		fmt.Fprintf(&sb, " at position %d in '%s'", e.Position, e.Text)
	}
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

// Unwrap returns the underlying cause for error wrapping support
func (e *QueryError) Unwrap() error {
	return e.Cause
}

// Is implements error equality checking for errors.Is().
// A target with an empty Message matches any error of the same Kind, which
// is how the sentinel values below are meant to be used.
func (e *QueryError) Is(target error) bool {
	qe, ok := target.(*QueryError)
	if !ok {
		return false
	}
	if qe.Message == "" {
		return e.Kind == qe.Kind
	}
	return e.Kind == qe.Kind && e.Op == qe.Op && e.Message == qe.Message
}

// WithOp returns a copy of the error attributed to op.
func (e *QueryError) WithOp(op string) *QueryError {
	c := *e
	c.Op = op
	return &c
}

// NewLexicalError creates an error for malformed input text.
func NewLexicalError(text string, pos int, message string) *QueryError {
	return &QueryError{
		Kind:     KindLexical,
		Message:  message,
		Text:     text,
		Position: pos,
	}
}

// NewSyntaxError creates an error for a grammar violation.
func NewSyntaxError(text string, pos int, message string) *QueryError {
	return &QueryError{
		Kind:     KindSyntax,
		Message:  message,
		Text:     text,
		Position: pos,
	}
}

// NewExpressionExpectedError creates the error raised when a primary
// expression position holds something that cannot start an expression.
func NewExpressionExpectedError(text string, pos int) *QueryError {
	return NewSyntaxError(text, pos, "expression expected")
}

// NewDepthError creates an error for a parse that nested beyond maxDepth.
func NewDepthError(text string, pos, maxDepth int) *QueryError {
	return &QueryError{
		Kind:     KindDepth,
		Message:  fmt.Sprintf("recursion depth exceeds the limit of %d", maxDepth),
		Text:     text,
		Position: pos,
	}
}

// NewBindingError creates an error for a failure while binding.
func NewBindingError(op, message string) *QueryError {
	return &QueryError{
		Kind:     KindBinding,
		Op:       op,
		Message:  message,
		Position: NoPosition,
	}
}

// NewArgumentNilError creates an error for a required argument that was nil.
func NewArgumentNilError(op, argument string) *QueryError {
	return &QueryError{
		Kind:     KindArgument,
		Op:       op,
		Message:  fmt.Sprintf("argument '%s' must not be nil", argument),
		Position: NoPosition,
	}
}

// NewArgumentError creates an error for an invalid argument value.
func NewArgumentError(op, argument, message string) *QueryError {
	return &QueryError{
		Kind:     KindArgument,
		Op:       op,
		Message:  fmt.Sprintf("argument '%s' %s", argument, message),
		Position: NoPosition,
	}
}

// Sentinel values for errors.Is checks by kind.
var (
	ErrLexical  = &QueryError{Kind: KindLexical}
	ErrSyntax   = &QueryError{Kind: KindSyntax}
	ErrDepth    = &QueryError{Kind: KindDepth}
	ErrBinding  = &QueryError{Kind: KindBinding}
	ErrArgument = &QueryError{Kind: KindArgument}
)
