package syntax_test

import (
	"testing"

	qerrors "github.com/paveg/odataq/internal/errors"
	"github.com/paveg/odataq/internal/syntax"
	"github.com/paveg/odataq/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize_Classification(t *testing.T) {
	tests := []struct {
		input string
		kind  syntax.TokenKind
		text  string
	}{
		{"Price", syntax.TokenIdentifier, "Price"},
		{"Demo.Product", syntax.TokenIdentifier, "Demo.Product"},
		{"$it", syntax.TokenIdentifier, "$it"},
		{"@p1", syntax.TokenParameterAlias, "@p1"},
		{"42", syntax.TokenInteger, "42"},
		{"2147483648", syntax.TokenInt64, "2147483648"},
		{"5L", syntax.TokenInt64, "5L"},
		{"99999999999999999999", syntax.TokenDecimal, "99999999999999999999"},
		{"1.5", syntax.TokenDouble, "1.5"},
		{"1e10", syntax.TokenDouble, "1e10"},
		{"2.5E-3", syntax.TokenDouble, "2.5E-3"},
		{"1.5d", syntax.TokenDouble, "1.5d"},
		{"1.5f", syntax.TokenSingle, "1.5f"},
		{"1.5M", syntax.TokenDecimal, "1.5M"},
		{"3.14159265358979323", syntax.TokenDecimal, "3.14159265358979323"},
		{"INF", syntax.TokenDouble, "INF"},
		{"NaN", syntax.TokenDouble, "NaN"},
		{"true", syntax.TokenBoolean, "true"},
		{"false", syntax.TokenBoolean, "false"},
		{"null", syntax.TokenNull, "null"},
		{"'it''s'", syntax.TokenString, "'it''s'"},
		{"''", syntax.TokenString, "''"},
		{"2024-01-15", syntax.TokenDate, "2024-01-15"},
		{"2024-01-15T10:30:00Z", syntax.TokenDateTimeOffset, "2024-01-15T10:30:00Z"},
		{"2024-01-15T10:30+02:00", syntax.TokenDateTimeOffset, "2024-01-15T10:30+02:00"},
		{"13:45:30.25", syntax.TokenTimeOfDay, "13:45:30.25"},
		{"01234567-89ab-cdef-0123-456789abcdef", syntax.TokenGuid, "01234567-89ab-cdef-0123-456789abcdef"},
		{"a1b2c3d4-0000-1111-2222-333344445555", syntax.TokenGuid, "a1b2c3d4-0000-1111-2222-333344445555"},
		{"duration'P1DT2H'", syntax.TokenDuration, "duration'P1DT2H'"},
		{"X'0AFF'", syntax.TokenBinary, "X'0AFF'"},
		{"binary'AQID'", syntax.TokenBinary, "binary'AQID'"},
		{"geography'POINT(1 2)'", syntax.TokenGeography, "geography'POINT(1 2)'"},
		{"geometry'SRID=0;POINT(1 2)'", syntax.TokenGeometry, "geometry'SRID=0;POINT(1 2)'"},
		{"Demo.Color'Red'", syntax.TokenQuoted, "Demo.Color'Red'"},
		{`{"Street":"Main","Zip":"}"}`, syntax.TokenBracketedExpression, `{"Street":"Main","Zip":"}"}`},
		{`[1,[2,3],{"a":'x]'}]`, syntax.TokenBracketedExpression, `[1,[2,3],{"a":'x]'}]`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens, err := syntax.Tokenize(tt.input, syntax.LexerOptions{})
			require.NoError(t, err)
			require.Len(t, tokens, 2)
			assert.Equal(t, tt.kind, tokens[0].Kind, "kind of %q", tt.input)
			assert.Equal(t, tt.text, tokens[0].Text)
			assert.Equal(t, 0, tokens[0].Position)
			assert.Equal(t, syntax.TokenEnd, tokens[1].Kind)
			assert.Equal(t, len(tt.input), tokens[1].Position)
		})
	}
}

func TestTokenize_Expression(t *testing.T) {
	tokens, err := syntax.Tokenize("Items/any(i: i/Price gt -5) and f(p=@a, *)", syntax.LexerOptions{})
	require.NoError(t, err)

	expected := []struct {
		kind syntax.TokenKind
		text string
		pos  int
	}{
		{syntax.TokenIdentifier, "Items", 0},
		{syntax.TokenSlash, "/", 5},
		{syntax.TokenIdentifier, "any", 6},
		{syntax.TokenOpenParen, "(", 9},
		{syntax.TokenIdentifier, "i", 10},
		{syntax.TokenColon, ":", 11},
		{syntax.TokenIdentifier, "i", 13},
		{syntax.TokenSlash, "/", 14},
		{syntax.TokenIdentifier, "Price", 15},
		{syntax.TokenIdentifier, "gt", 21},
		{syntax.TokenMinus, "-", 24},
		{syntax.TokenInteger, "5", 25},
		{syntax.TokenCloseParen, ")", 26},
		{syntax.TokenIdentifier, "and", 28},
		{syntax.TokenIdentifier, "f", 32},
		{syntax.TokenOpenParen, "(", 33},
		{syntax.TokenIdentifier, "p", 34},
		{syntax.TokenEqual, "=", 35},
		{syntax.TokenParameterAlias, "@a", 36},
		{syntax.TokenComma, ",", 38},
		{syntax.TokenStar, "*", 40},
		{syntax.TokenCloseParen, ")", 41},
		{syntax.TokenEnd, "", 42},
	}

	require.Len(t, tokens, len(expected))
	for i, want := range expected {
		assert.Equal(t, want.kind, tokens[i].Kind, "token %d", i)
		assert.Equal(t, want.text, tokens[i].Text, "token %d", i)
		assert.Equal(t, want.pos, tokens[i].Position, "token %d", i)
	}
}

func TestTokenize_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		position int
		fragment string
	}{
		{"invalid character", "a # b", 2, "invalid character '#'"},
		{"unterminated string", "Name eq 'abc", 8, "unterminated string literal"},
		{"unterminated escaped quote", "'it''", 0, "unterminated string literal"},
		{"malformed number", "12abc", 0, "malformed numeric literal '12abc'"},
		{"suffix followed by letters", "1.5mx", 0, "malformed numeric literal '1.5mx'"},
		{"long suffix on fraction", "1.5L", 0, "malformed numeric literal '1.5L'"},
		{"unterminated bracket", `{"a": [1, 2}`, 0, "unterminated bracketed expression"},
		{"unterminated json string", `{"a": "x}`, 0, "unterminated bracketed expression"},
		{"alias without name", "@ x", 0, "parameter alias name expected"},
		{"bare dollar", "$ eq 1", 0, "invalid character '$'"},
		{"semicolon not enabled", "a;b", 1, "invalid character ';'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := syntax.Tokenize(tt.input, syntax.LexerOptions{})
			qe := testutil.AssertQueryError(t, err, qerrors.KindLexical, tt.fragment)
			assert.Equal(t, tt.position, qe.Position)
			assert.Equal(t, tt.input, qe.Text)
		})
	}
}

func TestTokenize_SemicolonDelimiter(t *testing.T) {
	tokens, err := syntax.Tokenize("a;b", syntax.LexerOptions{UseSemicolonDelimiter: true})
	require.NoError(t, err)
	require.Len(t, tokens, 4)
	assert.Equal(t, syntax.TokenSemicolon, tokens[1].Kind)
}

func TestTokenize_CaseInsensitiveKeywords(t *testing.T) {
	tokens, err := syntax.Tokenize("TRUE Null", syntax.LexerOptions{})
	require.NoError(t, err)
	assert.Equal(t, syntax.TokenIdentifier, tokens[0].Kind)
	assert.Equal(t, syntax.TokenIdentifier, tokens[1].Kind)

	tokens, err = syntax.Tokenize("TRUE Null", syntax.LexerOptions{CaseInsensitiveKeywords: true})
	require.NoError(t, err)
	assert.Equal(t, syntax.TokenBoolean, tokens[0].Kind)
	assert.Equal(t, syntax.TokenNull, tokens[1].Kind)
}

func TestLexer_PeekIsNonDestructive(t *testing.T) {
	lexer, err := syntax.NewLexer("Name eq 'x'", syntax.LexerOptions{MoveToFirstToken: true})
	require.NoError(t, err)

	current := lexer.Current()
	assert.Equal(t, syntax.Token{Kind: syntax.TokenIdentifier, Text: "Name", Position: 0}, current)

	peeked, err := lexer.Peek()
	require.NoError(t, err)
	assert.Equal(t, "eq", peeked.Text)
	assert.Equal(t, current, lexer.Current())

	again, err := lexer.Peek()
	require.NoError(t, err)
	assert.Equal(t, peeked, again)

	next, err := lexer.Next()
	require.NoError(t, err)
	assert.Equal(t, peeked, next)
	assert.Equal(t, next, lexer.Current())
}

func TestLexer_StartingMode(t *testing.T) {
	lexer, err := syntax.NewLexer("a", syntax.LexerOptions{})
	require.NoError(t, err)
	assert.Equal(t, syntax.TokenNone, lexer.Current().Kind)
	assert.Equal(t, "a", lexer.Text())

	_, err = syntax.NewLexer("#", syntax.LexerOptions{MoveToFirstToken: true})
	testutil.AssertQueryError(t, err, qerrors.KindLexical, "invalid character '#'")
}

func TestLexer_EndIsSticky(t *testing.T) {
	lexer, err := syntax.NewLexer("  ", syntax.LexerOptions{MoveToFirstToken: true})
	require.NoError(t, err)
	assert.Equal(t, syntax.TokenEnd, lexer.Current().Kind)
	assert.Equal(t, 2, lexer.Current().Position)

	tok, err := lexer.Next()
	require.NoError(t, err)
	assert.Equal(t, syntax.TokenEnd, tok.Kind)
}

func TestTokenKind_Properties(t *testing.T) {
	assert.True(t, syntax.TokenDecimal.IsNumeric())
	assert.False(t, syntax.TokenString.IsNumeric())
	assert.True(t, syntax.TokenQuoted.IsLiteral())
	assert.True(t, syntax.TokenNull.IsLiteral())
	assert.False(t, syntax.TokenIdentifier.IsLiteral())
	assert.Equal(t, "'('", syntax.TokenOpenParen.String())
	assert.Equal(t, "token(99)", syntax.TokenKind(99).String())

	tok := syntax.Token{Kind: syntax.TokenIdentifier, Text: "AND"}
	assert.False(t, tok.IsKeyword("and", false))
	assert.True(t, tok.IsKeyword("and", true))
}
