package syntax

import (
	"fmt"

	"github.com/paveg/odataq/internal/common"
	"github.com/paveg/odataq/internal/edm"
)

// TokenKind represents the lexical class of a token.
type TokenKind int

const (
	// TokenNone is the current token of a lexer that has not advanced yet.
	TokenNone TokenKind = iota
	TokenEnd

	TokenIdentifier
	TokenParameterAlias // @name

	// Literals.
	TokenString
	TokenInteger // fits Int32
	TokenInt64
	TokenSingle
	TokenDouble
	TokenDecimal
	TokenBoolean
	TokenNull
	TokenDate
	TokenDateTimeOffset
	TokenDuration
	TokenTimeOfDay
	TokenGuid
	TokenBinary
	TokenGeography
	TokenGeometry
	TokenQuoted              // Ns.Type'value'
	TokenBracketedExpression // {...} or [...]

	// Punctuation.
	TokenOpenParen
	TokenCloseParen
	TokenComma
	TokenColon
	TokenSlash
	TokenMinus
	TokenStar
	TokenEqual
	TokenSemicolon
	TokenDot
)

var tokenKindNames = map[TokenKind]string{
	TokenNone:                "none",
	TokenEnd:                 "end",
	TokenIdentifier:          "identifier",
	TokenParameterAlias:      "parameter alias",
	TokenString:              "string literal",
	TokenInteger:             "integer literal",
	TokenInt64:               "int64 literal",
	TokenSingle:              "single literal",
	TokenDouble:              "double literal",
	TokenDecimal:             "decimal literal",
	TokenBoolean:             "boolean literal",
	TokenNull:                "null literal",
	TokenDate:                "date literal",
	TokenDateTimeOffset:      "datetimeoffset literal",
	TokenDuration:            "duration literal",
	TokenTimeOfDay:           "timeofday literal",
	TokenGuid:                "guid literal",
	TokenBinary:              "binary literal",
	TokenGeography:           "geography literal",
	TokenGeometry:            "geometry literal",
	TokenQuoted:              "quoted literal",
	TokenBracketedExpression: "bracketed expression",
	TokenOpenParen:           "'('",
	TokenCloseParen:          "')'",
	TokenComma:               "','",
	TokenColon:               "':'",
	TokenSlash:               "'/'",
	TokenMinus:               "'-'",
	TokenStar:                "'*'",
	TokenEqual:               "'='",
	TokenSemicolon:           "';'",
	TokenDot:                 "'.'",
}

func (k TokenKind) String() string {
	if name, ok := tokenKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("token(%d)", int(k))
}

// literalKinds maps literal token kinds to the primitive kind they parse as.
var literalKinds = map[TokenKind]edm.PrimitiveKind{
	TokenString:         edm.PrimitiveString,
	TokenInteger:        edm.PrimitiveInt32,
	TokenInt64:          edm.PrimitiveInt64,
	TokenSingle:         edm.PrimitiveSingle,
	TokenDouble:         edm.PrimitiveDouble,
	TokenDecimal:        edm.PrimitiveDecimal,
	TokenBoolean:        edm.PrimitiveBoolean,
	TokenDate:           edm.PrimitiveDate,
	TokenDateTimeOffset: edm.PrimitiveDateTimeOffset,
	TokenDuration:       edm.PrimitiveDuration,
	TokenTimeOfDay:      edm.PrimitiveTimeOfDay,
	TokenGuid:           edm.PrimitiveGuid,
	TokenBinary:         edm.PrimitiveBinary,
	TokenGeography:      edm.PrimitiveGeography,
	TokenGeometry:       edm.PrimitiveGeometry,
}

// PrimitiveKind returns the primitive kind a literal token parses as.
func (k TokenKind) PrimitiveKind() (edm.PrimitiveKind, bool) {
	kind, ok := literalKinds[k]
	return kind, ok
}

// IsLiteral reports whether the kind is any literal.
func (k TokenKind) IsLiteral() bool {
	if _, ok := literalKinds[k]; ok {
		return true
	}
	return k == TokenNull || k == TokenQuoted || k == TokenBracketedExpression
}

// IsNumeric reports whether the kind is a numeric literal.
func (k TokenKind) IsNumeric() bool {
	switch k {
	case TokenInteger, TokenInt64, TokenSingle, TokenDouble, TokenDecimal:
		return true
	}
	return false
}

// Token represents a single lexical token.
type Token struct {
	Kind     TokenKind
	Text     string
	Position int // 0-based byte offset in the expression text
}

// Is reports whether the token has the given kind.
func (t Token) Is(kind TokenKind) bool {
	return t.Kind == kind
}

// IsKeyword reports whether the token is an identifier spelling keyword.
func (t Token) IsKeyword(keyword string, caseInsensitive bool) bool {
	return t.Kind == TokenIdentifier && common.KeywordEqual(t.Text, keyword, caseInsensitive)
}

func (t Token) String() string {
	if t.Text == "" {
		return t.Kind.String()
	}
	return fmt.Sprintf("%s %q", t.Kind, t.Text)
}
