package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/paveg/odataq/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *errors.QueryError
		expected string
	}{
		{
			name:     "Syntax error with position",
			err:      errors.NewExpressionExpectedError("a eq", 4).WithOp("ParseFilter"),
			expected: "ParseFilter failed: expression expected at position 4 in 'a eq'",
		},
		{
			name:     "Error without op",
			err:      errors.NewLexicalError("a # b", 2, "invalid character '#'"),
			expected: "lexical error: invalid character '#' at position 2 in 'a # b'",
		},
		{
			name:     "Binding error has no position",
			err:      errors.NewBindingError("BindParameterAlias", "not a single value"),
			expected: "BindParameterAlias failed: not a single value",
		},
		{
			name: "Cause is appended",
			err: &errors.QueryError{
				Kind:     errors.KindBinding,
				Op:       "ConvertPayload",
				Message:  "invalid payload",
				Position: errors.NoPosition,
				Cause:    stderrors.New("unexpected end of JSON input"),
			},
			expected: "ConvertPayload failed: invalid payload: unexpected end of JSON input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestQueryError_Unwrap(t *testing.T) {
	cause := stderrors.New("underlying error")
	err := &errors.QueryError{
		Kind:    errors.KindBinding,
		Op:      "Bind",
		Message: "failed",
		Cause:   cause,
	}

	assert.Equal(t, cause, err.Unwrap())
	assert.ErrorIs(t, err, cause)
}

func TestQueryError_Is(t *testing.T) {
	depth := errors.NewDepthError("(((a)))", 3, 2)

	assert.ErrorIs(t, depth, errors.ErrDepth)
	assert.NotErrorIs(t, depth, errors.ErrSyntax)

	wrapped := fmt.Errorf("parsing $filter: %w", depth)
	assert.ErrorIs(t, wrapped, errors.ErrDepth)

	var qe *errors.QueryError
	require.ErrorAs(t, wrapped, &qe)
	assert.Equal(t, 3, qe.Position)

	same := errors.NewBindingError("Bind", "boom")
	other := errors.NewBindingError("Bind", "boom")
	different := errors.NewBindingError("BindFilter", "boom")
	assert.True(t, same.Is(other))
	assert.False(t, same.Is(different))
	assert.False(t, same.Is(stderrors.New("boom")))
}

func TestNewArgumentNilError(t *testing.T) {
	err := errors.NewArgumentNilError("NewParameterAliasNode", "alias")

	assert.Equal(t, errors.KindArgument, err.Kind)
	assert.Equal(t, "NewParameterAliasNode failed: argument 'alias' must not be nil", err.Error())
	assert.ErrorIs(t, err, errors.ErrArgument)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "lexical", errors.KindLexical.String())
	assert.Equal(t, "syntax", errors.KindSyntax.String())
	assert.Equal(t, "depth", errors.KindDepth.String())
	assert.Equal(t, "binding", errors.KindBinding.String())
	assert.Equal(t, "argument", errors.KindArgument.String())
	assert.Equal(t, "kind(42)", errors.Kind(42).String())
}
