package syntax_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/paveg/odataq/internal/config"
	qerrors "github.com/paveg/odataq/internal/errors"
	"github.com/paveg/odataq/internal/literal"
	"github.com/paveg/odataq/internal/syntax"
	"github.com/paveg/odataq/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newParser() *syntax.Parser {
	return syntax.NewParser(syntax.ParserOptions{})
}

func TestParser_Precedence(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"a or b and c", "or(a, and(b, c))"},
		{"a and b or c", "or(and(a, b), c)"},
		{"a eq 1 and b ne 2", "and(eq(a, 1), ne(b, 2))"},
		{"a add b mul c", "add(a, mul(b, c))"},
		{"(a add b) mul c", "mul(add(a, b), c)"},
		{"a sub b sub c", "sub(sub(a, b), c)"},
		{"a div b mod c", "mod(div(a, b), c)"},
		{"a or b or c", "or(or(a, b), c)"},
		{"not a and b", "and(not(a), b)"},
		{"not not a", "not(not(a))"},
		{"-x add 1", "add(-(x), 1)"},
		{"a gt b add 1", "gt(a, add(b, 1))"},
		{"Color has Demo.Color'Red'", "has(Color, Demo.Color'Red')"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tree, err := newParser().ParseFilter(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, tree.String())
		})
	}
}

func TestParser_Paths(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Name eq 'Milk'", "eq(Name, 'Milk')"},
		{"Category/Name eq 'x'", "eq(Category/Name, 'x')"},
		{"/Name eq 'x'", "eq(Name, 'x')"},
		{"$it/Name", "$it/Name"},
		{"Items/$count gt 2", "gt(Items/$count, 2)"},
		{"Tags/any(t: t eq 'a')", "Tags/any(t: eq(t, 'a'))"},
		{"Tags/any()", "Tags/any()"},
		{"Items/all(i: i/Sub/any(s: s/Price gt 1))", "Items/all(i: i/Sub/any(s: gt(s/Price, 1)))"},
		{"contains(Name, 'x')", "contains(Name, 'x')"},
		{"now()", "now()"},
		{"Demo.IsCheaperThan(price=@p)", "Demo.IsCheaperThan(price=@p)"},
		{"Items/Demo.MostExpensive()/Price", "Items/Demo.MostExpensive()/Price"},
		{"Demo.DiscountedProduct/Discount gt 0.5", "gt(Demo.DiscountedProduct/Discount, 0.5)"},
		{"Origin/*", "Origin/*"},
		{"*", "*"},
		{"Origin eq @addr", "eq(Origin, @addr)"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tree, err := newParser().ParseExpressionText(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, tree.String())
		})
	}
}

func TestParser_SegmentKinds(t *testing.T) {
	tree, err := newParser().ParseExpressionText("Items/all(i: i/Sub/any(s: s/Demo.Item/Price gt 1))")
	require.NoError(t, err)

	all, ok := tree.(*syntax.LambdaToken)
	require.True(t, ok)
	assert.Equal(t, syntax.KindAll, all.Kind())
	assert.Equal(t, "i", all.Variable)
	assert.Equal(t, &syntax.EndPathToken{Name: "Items"}, all.Parent)

	anyToken, ok := all.Predicate.(*syntax.LambdaToken)
	require.True(t, ok)
	assert.Equal(t, syntax.KindAny, anyToken.Kind())
	assert.Equal(t, &syntax.InnerPathToken{Name: "Sub", Parent: &syntax.RangeVariableToken{Name: "i"}}, anyToken.Parent)

	gt, ok := anyToken.Predicate.(*syntax.BinaryOperatorToken)
	require.True(t, ok)
	want := &syntax.EndPathToken{
		Name: "Price",
		Parent: &syntax.DottedIdentifierToken{
			Name:   "Demo.Item",
			Parent: &syntax.RangeVariableToken{Name: "s"},
		},
	}
	if diff := cmp.Diff(want, gt.Left); diff != "" {
		t.Errorf("segment mismatch (-want +got):\n%s", diff)
	}
}

func TestParser_Literals(t *testing.T) {
	tests := []struct {
		input    string
		expected interface{}
		lexical  syntax.TokenKind
	}{
		{"5", int32(5), syntax.TokenInteger},
		{"-5", int32(-5), syntax.TokenInteger},
		{"- 5", int32(-5), syntax.TokenInteger},
		{"-2147483648", int32(-2147483648), syntax.TokenInteger},
		{"-9223372036854775808", int64(-9223372036854775808), syntax.TokenInt64},
		{"7L", int64(7), syntax.TokenInt64},
		{"-1.5", -1.5, syntax.TokenDouble},
		{"true", true, syntax.TokenBoolean},
		{"null", nil, syntax.TokenNull},
		{"'it''s'", "it's", syntax.TokenString},
		{"2024-01-15", literal.Date{Year: 2024, Month: 1, Day: 15}, syntax.TokenDate},
		{"01234567-89ab-cdef-0123-456789abcdef", uuid.MustParse("01234567-89ab-cdef-0123-456789abcdef"), syntax.TokenGuid},
		{"Demo.Color'Red'", literal.EnumValue{TypeName: "Demo.Color", Value: "Red"}, syntax.TokenQuoted},
		{`{"Street":"Main"}`, literal.Payload{Text: `{"Street":"Main"}`}, syntax.TokenBracketedExpression},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tree, err := newParser().ParseExpressionText(tt.input)
			require.NoError(t, err)
			lit, ok := tree.(*syntax.LiteralToken)
			require.True(t, ok, "expected a literal, got %T", tree)
			assert.Equal(t, tt.lexical, lit.Lexical)
			assert.Equal(t, tt.expected, lit.Value)
		})
	}
}

func TestParser_DecimalLiteral(t *testing.T) {
	tree, err := newParser().ParseExpressionText("Price eq 1.25M")
	require.NoError(t, err)

	bin := tree.(*syntax.BinaryOperatorToken)
	lit := bin.Right.(*syntax.LiteralToken)
	d, ok := lit.Value.(decimal.Decimal)
	require.True(t, ok)
	assert.True(t, d.Equal(decimal.RequireFromString("1.25")))
}

func TestParser_NegativeLiteralFusion(t *testing.T) {
	tree, err := newParser().ParseExpressionText("-5 add x")
	require.NoError(t, err)

	want := &syntax.BinaryOperatorToken{
		Operator: syntax.Add,
		Left:     &syntax.LiteralToken{Value: int32(-5), Text: "-5", Lexical: syntax.TokenInteger},
		Right:    &syntax.EndPathToken{Name: "x"},
	}
	if diff := cmp.Diff(want, tree); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}

	tree, err = newParser().ParseExpressionText("-INF")
	require.NoError(t, err)
	inf := tree.(*syntax.LiteralToken)
	assert.Equal(t, "-INF", inf.Text)
	assert.True(t, math.IsInf(inf.Value.(float64), -1))

	tree, err = newParser().ParseExpressionText("-x")
	require.NoError(t, err)
	unary, ok := tree.(*syntax.UnaryOperatorToken)
	require.True(t, ok)
	assert.Equal(t, syntax.Negate, unary.Operator)
	assert.Equal(t, &syntax.EndPathToken{Name: "x"}, unary.Operand)
}

func TestParser_LambdaScoping(t *testing.T) {
	t.Run("duplicate variable in nested lambda", func(t *testing.T) {
		_, err := newParser().ParseFilter("Items/any(t: t/Sub/any(t: true))")
		qe := testutil.AssertQueryError(t, err, qerrors.KindSyntax, "range variable 't' has already been declared")
		assert.Equal(t, 23, qe.Position)
	})

	t.Run("implicit variable cannot be redeclared", func(t *testing.T) {
		_, err := newParser().ParseFilter("Tags/any($it: true)")
		testutil.AssertQueryError(t, err, qerrors.KindSyntax, "range variable '$it' has already been declared")
	})

	t.Run("variable leaves scope after the lambda", func(t *testing.T) {
		tree, err := newParser().ParseFilter("Tags/any(t: t eq 'a') and t eq 'b'")
		require.NoError(t, err)
		and := tree.(*syntax.BinaryOperatorToken)
		inner := and.Left.(*syntax.LambdaToken).Predicate.(*syntax.BinaryOperatorToken)
		assert.IsType(t, &syntax.RangeVariableToken{}, inner.Left)
		right := and.Right.(*syntax.BinaryOperatorToken)
		assert.IsType(t, &syntax.EndPathToken{}, right.Left)
	})

	t.Run("sibling lambdas may reuse a name", func(t *testing.T) {
		_, err := newParser().ParseFilter("Tags/any(t: t eq 'a') or Tags/all(t: t ne 'b')")
		require.NoError(t, err)
	})

	t.Run("scope is reset after a failed parse", func(t *testing.T) {
		p := newParser()
		_, err := p.ParseFilter("Tags/any(t: t eq)")
		require.Error(t, err)

		tree, err := p.ParseFilter("t")
		require.NoError(t, err)
		assert.IsType(t, &syntax.EndPathToken{}, tree)
	})

	t.Run("outer variable visible in inner lambda", func(t *testing.T) {
		tree, err := newParser().ParseFilter("Items/any(i: i/Notes/any(n: n eq i/Name))")
		require.NoError(t, err)
		inner := tree.(*syntax.LambdaToken).Predicate.(*syntax.LambdaToken).Predicate.(*syntax.BinaryOperatorToken)
		path := inner.Right.(*syntax.EndPathToken)
		assert.Equal(t, &syntax.RangeVariableToken{Name: "i"}, path.Parent)
	})
}

func TestParser_RecursionLimit(t *testing.T) {
	_, err := syntax.NewParser(syntax.ParserOptions{MaxDepth: 39}).ParseFilter("(((a)))")
	require.NoError(t, err)

	_, err = syntax.NewParser(syntax.ParserOptions{MaxDepth: 38}).ParseFilter("(((a)))")
	require.Error(t, err)
	assert.ErrorIs(t, err, qerrors.ErrDepth)

	_, err = syntax.NewParser(syntax.ParserOptions{MaxDepth: 2}).ParseFilter("(((a)))")
	testutil.AssertQueryError(t, err, qerrors.KindDepth, "recursion depth exceeds the limit of 2")

	_, err = syntax.NewParser(syntax.ParserOptions{MaxDepth: 9}).ParseFilter("a")
	require.NoError(t, err)
	_, err = syntax.NewParser(syntax.ParserOptions{MaxDepth: 8}).ParseFilter("a")
	assert.ErrorIs(t, err, qerrors.ErrDepth)
}

func TestParser_ZeroMaxDepthSelectsDefault(t *testing.T) {
	p := syntax.NewParser(syntax.ParserOptions{})
	assert.Equal(t, config.DefaultMaxDepth, p.Options().MaxDepth)

	_, err := p.ParseFilter("(((a)))")
	require.NoError(t, err)

	fromConfig := syntax.OptionsFromConfig(config.Config{MaxDepth: 0})
	assert.Equal(t, config.DefaultMaxDepth, syntax.NewParser(fromConfig).Options().MaxDepth)
}

func TestParser_RecursionCounterResets(t *testing.T) {
	p := syntax.NewParser(syntax.ParserOptions{MaxDepth: 39})
	for i := 0; i < 3; i++ {
		_, err := p.ParseFilter("(((a)))")
		require.NoError(t, err, "iteration %d", i)
	}
	_, err := p.ParseFilter("((((a))))")
	require.Error(t, err)
	_, err = p.ParseFilter("(((a)))")
	require.NoError(t, err)
}

func TestParser_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		kind     qerrors.Kind
		position int
		fragment string
	}{
		{"missing right operand", "a eq", qerrors.KindSyntax, 4, "expression expected at position 4 in 'a eq'"},
		{"empty input", "", qerrors.KindSyntax, 0, "expression expected"},
		{"dangling operator", "eq 1", qerrors.KindSyntax, 3, `unexpected integer literal "1" at end of expression`},
		{"trailing content", "a b", qerrors.KindSyntax, 2, `unexpected identifier "b" at end of expression`},
		{"unclosed paren", "(a", qerrors.KindSyntax, 2, "')' expected"},
		{"bad argument separator", "f(a b)", qerrors.KindSyntax, 4, "',' or ')' expected"},
		{"lambda without colon", "Tags/any(t t eq 1)", qerrors.KindSyntax, 11, "':' expected"},
		{"lambda with literal variable", "Tags/any(1: true)", qerrors.KindSyntax, 9, "range variable name expected"},
		{"segment after slash", "a/1", qerrors.KindSyntax, 2, "identifier expected"},
		{"lexical error surfaces", "a eq #", qerrors.KindLexical, 5, "invalid character '#'"},
		{"invalid typed literal", "d eq duration'x'", qerrors.KindLexical, 5, "invalid duration literal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newParser().ParseFilter(tt.input)
			qe := testutil.AssertQueryError(t, err, tt.kind, tt.fragment)
			assert.Equal(t, tt.position, qe.Position)
			assert.Equal(t, "ParseFilter", qe.Op)
		})
	}
}

func TestParser_CaseInsensitiveKeywords(t *testing.T) {
	_, err := newParser().ParseFilter("a OR b")
	require.Error(t, err)

	p := syntax.NewParser(syntax.ParserOptions{CaseInsensitiveKeywords: true})
	tree, err := p.ParseFilter("NOT a OR b AND Tags/ANY(t: t Eq 'x')")
	require.NoError(t, err)
	assert.Equal(t, "or(not(a), and(b, Tags/any(t: eq(t, 'x'))))", tree.String())
}

func TestParser_OrderBy(t *testing.T) {
	items, err := newParser().ParseOrderBy("Name desc, Price")
	require.NoError(t, err)

	want := []*syntax.OrderByToken{
		{Expression: &syntax.EndPathToken{Name: "Name"}, Direction: syntax.Descending},
		{Expression: &syntax.EndPathToken{Name: "Price"}, Direction: syntax.Ascending},
	}
	if diff := cmp.Diff(want, items); diff != "" {
		t.Errorf("order-by mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "Name desc", items[0].String())
	assert.Equal(t, "Price asc", items[1].String())

	items, err = newParser().ParseOrderBy("Price mul 2 asc, Category/Name desc")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "mul(Price, 2) asc", items[0].String())
	assert.Equal(t, "Category/Name desc", items[1].String())

	_, err = newParser().ParseOrderBy("Name;Price")
	testutil.AssertQueryError(t, err, qerrors.KindLexical, "invalid character ';'")

	p := syntax.NewParser(syntax.ParserOptions{UseSemicolonDelimiter: true, CaseInsensitiveKeywords: true})
	items, err = p.ParseOrderBy("Name;Price DESC")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, syntax.Descending, items[1].Direction)

	_, err = newParser().ParseOrderBy("Name desc asc")
	testutil.AssertQueryError(t, err, qerrors.KindSyntax, "at end of expression")

	_, err = newParser().ParseOrderBy("Name,")
	testutil.AssertQueryError(t, err, qerrors.KindSyntax, "expression expected at position 5")
}

func TestParser_Levels(t *testing.T) {
	tests := []struct {
		input    string
		opts     syntax.ParserOptions
		expected *syntax.LevelsToken
		fragment string
	}{
		{input: "max", expected: &syntax.LevelsToken{IsMax: true}},
		{input: "3", expected: &syntax.LevelsToken{Level: 3}},
		{input: " 0 ", expected: &syntax.LevelsToken{Level: 0}},
		{input: "MAX", opts: syntax.ParserOptions{CaseInsensitiveKeywords: true}, expected: &syntax.LevelsToken{IsMax: true}},
		{input: "MAX", fragment: "levels value must be 'max' or a non-negative integer"},
		{input: "-1", fragment: "levels value must be 'max' or a non-negative integer"},
		{input: "2L", fragment: "invalid levels value '2L'"},
		{input: "2 3", fragment: "at end of expression"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			levels, err := syntax.NewParser(tt.opts).ParseLevels(tt.input)
			if tt.fragment != "" {
				testutil.AssertQueryError(t, err, qerrors.KindSyntax, tt.fragment)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, levels)
		})
	}
}

func TestParser_TreesAreReusable(t *testing.T) {
	p := newParser()
	first, err := p.ParseFilter("Tags/any(t: t eq 'a')")
	require.NoError(t, err)
	rendered := first.String()

	_, err = p.ParseFilter("Name eq 'b'")
	require.NoError(t, err)
	assert.Equal(t, rendered, first.String())
}
