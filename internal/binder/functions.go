package binder

import (
	"fmt"
	"sort"
	"strings"

	"github.com/paveg/odataq/internal/common"
	"github.com/paveg/odataq/internal/edm"
	"github.com/paveg/odataq/internal/semantic"
	"github.com/paveg/odataq/internal/syntax"
)

// signature is one overload of a built-in function.
type signature struct {
	params []edm.PrimitiveKind
	result edm.PrimitiveKind
}

func sig(result edm.PrimitiveKind, params ...edm.PrimitiveKind) signature {
	return signature{params: params, result: result}
}

const (
	kBool     = edm.PrimitiveBoolean
	kInt32    = edm.PrimitiveInt32
	kDouble   = edm.PrimitiveDouble
	kDecimal  = edm.PrimitiveDecimal
	kString   = edm.PrimitiveString
	kDate     = edm.PrimitiveDate
	kDTO      = edm.PrimitiveDateTimeOffset
	kDuration = edm.PrimitiveDuration
	kTime     = edm.PrimitiveTimeOfDay
	kGeo      = edm.PrimitiveGeography
	kGeom     = edm.PrimitiveGeometry
)

var builtinFunctions = map[string][]signature{
	"contains":           {sig(kBool, kString, kString)},
	"startswith":         {sig(kBool, kString, kString)},
	"endswith":           {sig(kBool, kString, kString)},
	"length":             {sig(kInt32, kString)},
	"indexof":            {sig(kInt32, kString, kString)},
	"substring":          {sig(kString, kString, kInt32), sig(kString, kString, kInt32, kInt32)},
	"tolower":            {sig(kString, kString)},
	"toupper":            {sig(kString, kString)},
	"trim":               {sig(kString, kString)},
	"concat":             {sig(kString, kString, kString)},
	"year":               {sig(kInt32, kDTO), sig(kInt32, kDate)},
	"month":              {sig(kInt32, kDTO), sig(kInt32, kDate)},
	"day":                {sig(kInt32, kDTO), sig(kInt32, kDate)},
	"hour":               {sig(kInt32, kDTO), sig(kInt32, kTime)},
	"minute":             {sig(kInt32, kDTO), sig(kInt32, kTime)},
	"second":             {sig(kInt32, kDTO), sig(kInt32, kTime)},
	"fractionalseconds":  {sig(kDecimal, kDTO), sig(kDecimal, kTime)},
	"date":               {sig(kDate, kDTO)},
	"time":               {sig(kTime, kDTO)},
	"totaloffsetminutes": {sig(kInt32, kDTO)},
	"totalseconds":       {sig(kDecimal, kDuration)},
	"now":                {sig(kDTO)},
	"maxdatetime":        {sig(kDTO)},
	"mindatetime":        {sig(kDTO)},
	"round":              {sig(kDouble, kDouble), sig(kDecimal, kDecimal)},
	"floor":              {sig(kDouble, kDouble), sig(kDecimal, kDecimal)},
	"ceiling":            {sig(kDouble, kDouble), sig(kDecimal, kDecimal)},
	"geo.distance":       {sig(kDouble, kGeo, kGeo), sig(kDouble, kGeom, kGeom)},
	"geo.length":         {sig(kDouble, kGeo), sig(kDouble, kGeom)},
	"geo.intersects":     {sig(kBool, kGeo, kGeo), sig(kBool, kGeom, kGeom)},
}

// functions whose result is never null.
var nonNullBuiltins = map[string]bool{"now": true, "maxdatetime": true, "mindatetime": true}

func builtinNames() []string {
	names := make([]string, 0, len(builtinFunctions))
	for name := range builtinFunctions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (b *Binder) builtinName(name string) (string, bool) {
	if _, ok := builtinFunctions[name]; ok {
		return name, true
	}
	if b.parserOpts.CaseInsensitiveKeywords {
		if _, ok := builtinFunctions[strings.ToLower(name)]; ok {
			return strings.ToLower(name), true
		}
	}
	return "", false
}

func (b *Binder) bindFunctionCall(t *syntax.FunctionCallToken) (semantic.Node, error) {
	if t.Parent == nil {
		if name, ok := b.builtinName(t.Name); ok {
			return b.bindBuiltin(name, t.Arguments)
		}
	}
	return b.bindModelFunction(t)
}

func (b *Binder) bindBuiltin(name string, argTokens []syntax.QueryToken) (semantic.Node, error) {
	args := make([]semantic.SingleValueNode, len(argTokens))
	for i, tok := range argTokens {
		if _, named := tok.(*syntax.FunctionParameterToken); named {
			return nil, bindingErrorf("built-in function '%s' does not take named arguments", name)
		}
		arg, err := b.bindSingle(tok)
		if err != nil {
			return nil, err
		}
		args[i] = arg
	}

	overload, ok := matchSignature(builtinFunctions[name], args)
	if !ok {
		return nil, bindingErrorf("no overload of '%s' accepts (%s)", name, argumentTypes(args))
	}

	nodes := make([]semantic.Node, len(args))
	nullable := false
	for i, arg := range args {
		converted, err := convertTo(arg, overload.params[i])
		if err != nil {
			return nil, err
		}
		nodes[i] = converted
		if ref := arg.TypeReference(); ref == nil || ref.Nullable {
			nullable = true
		}
	}
	result := edm.PrimitiveReference(overload.result, nullable && !nonNullBuiltins[name])
	return semantic.NewSingleValueFunctionCallNode(name, nil, nodes, result, nil)
}

// matchSignature picks the overload with the most exactly matching argument
// kinds among those every argument promotes to.
func matchSignature(overloads []signature, args []semantic.SingleValueNode) (signature, bool) {
	best, bestScore := signature{}, -1
	for _, s := range overloads {
		if len(s.params) != len(args) {
			continue
		}
		score := 0
		for i, arg := range args {
			ref := arg.TypeReference()
			if ref == nil {
				continue
			}
			k := ref.PrimitiveKind()
			if k == s.params[i] {
				score++
			} else if !edm.CanPromote(k, s.params[i]) {
				score = -1
				break
			}
		}
		if score > bestScore {
			best, bestScore = s, score
		}
	}
	return best, bestScore >= 0
}

func argumentTypes(args []semantic.SingleValueNode) string {
	names := make([]string, len(args))
	for i, arg := range args {
		if ref := arg.TypeReference(); ref != nil {
			names[i] = ref.FullName()
		} else {
			names[i] = "null"
		}
	}
	return common.FormatList(names)
}

// bindModelFunction binds a schema function, bound to the parent when there
// is one.
func (b *Binder) bindModelFunction(t *syntax.FunctionCallToken) (semantic.Node, error) {
	var (
		source      semantic.Node
		bindingType *edm.TypeReference
		functions   []*edm.Function
	)
	if t.Parent != nil {
		var err error
		if source, err = b.Bind(t.Parent); err != nil {
			return nil, err
		}
		switch src := source.(type) {
		case semantic.SingleValueNode:
			bindingType = src.TypeReference()
		case semantic.CollectionNode:
			bindingType = src.CollectionType()
		}
		if bindingType == nil {
			return nil, bindingErrorf("cannot bind function '%s' to untyped '%s'", t.Name, source)
		}
		functions = b.model.FindBoundFunctions(t.Name, bindingType)
	} else if functions = b.model.FindFunctions(t.Name); len(functions) == 0 && len(b.scope) > 0 {
		// a bound function at the start of a path binds to $it
		it, err := b.implicitReference()
		if err != nil {
			return nil, err
		}
		if bound := b.model.FindBoundFunctions(t.Name, it.TypeReference()); len(bound) > 0 {
			source, functions = it, bound
		}
	}
	if len(functions) == 0 {
		return nil, b.unknownFunction(t.Name, bindingType)
	}

	var lastErr error
	for _, fn := range functions {
		args, err := b.bindFunctionArguments(fn, t.Arguments)
		if err != nil {
			lastErr = err
			continue
		}
		b.logger.Debug().Str("function", fn.FullName()).Int("arguments", len(args)).Msg("function overload selected")
		return newFunctionCallNode(t.Name, fn, functions, args, source)
	}
	return nil, lastErr
}

func (b *Binder) unknownFunction(name string, bindingType *edm.TypeReference) error {
	if bindingType != nil {
		return bindingErrorf("no function '%s' is bound to %s", name, bindingType.FullName())
	}
	if !strings.Contains(name, ".") {
		hint := didYouMean(suggest(name, builtinNames(), b.suggestionLimit))
		return bindingErrorf("unknown function '%s'%s", name, hint)
	}
	return bindingErrorf("could not find function '%s'", name)
}

// bindFunctionArguments binds arguments in parameter order. Positional and
// named arguments cannot be mixed.
func (b *Binder) bindFunctionArguments(fn *edm.Function, tokens []syntax.QueryToken) ([]semantic.Node, error) {
	params := fn.NonBindingParameters()
	if len(tokens) != len(params) {
		return nil, bindingErrorf("function '%s' takes %d arguments, got %d", fn.FullName(), len(params), len(tokens))
	}

	ordered := make([]syntax.QueryToken, len(params))
	named := 0
	for i, tok := range tokens {
		fp, ok := tok.(*syntax.FunctionParameterToken)
		if !ok {
			ordered[i] = tok
			continue
		}
		named++
		idx := parameterIndex(params, fp.Name)
		if idx < 0 {
			return nil, bindingErrorf("function '%s' has no parameter '%s'", fn.FullName(), fp.Name)
		}
		if ordered[idx] != nil {
			return nil, bindingErrorf("parameter '%s' of '%s' is given twice", fp.Name, fn.FullName())
		}
		ordered[idx] = fp.Value
	}
	if named > 0 && named != len(tokens) {
		return nil, bindingErrorf("function '%s' mixes named and positional arguments", fn.FullName())
	}

	args := make([]semantic.Node, len(params))
	for i, p := range params {
		arg, err := b.bindSingle(withParameterType(ordered[i], p.Type))
		if err != nil {
			return nil, err
		}
		if ref := arg.TypeReference(); ref != nil {
			if !edm.IsAssignableTo(ref, p.Type) {
				return nil, bindingErrorf("argument '%s' of '%s' must be %s, got %s", p.Name, fn.FullName(), p.Type.FullName(), ref.FullName())
			}
			if p.Type.IsPrimitive() {
				if arg, err = convertTo(arg, p.Type.PrimitiveKind()); err != nil {
					return nil, err
				}
			}
		}
		args[i] = arg
	}
	return args, nil
}

func parameterIndex(params []*edm.Parameter, name string) int {
	for i, p := range params {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// withParameterType attaches the parameter type to aliases and bracketed
// payloads, which cannot be typed on their own.
func withParameterType(tok syntax.QueryToken, ref *edm.TypeReference) syntax.QueryToken {
	switch t := tok.(type) {
	case *syntax.ParameterAliasToken:
		return t.WithExpectedType(ref)
	case *syntax.LiteralToken:
		if t.Lexical == syntax.TokenBracketedExpression {
			return t.WithExpectedType(ref)
		}
	}
	return tok
}

func newFunctionCallNode(name string, fn *edm.Function, overloads []*edm.Function, args []semantic.Node, source semantic.Node) (semantic.Node, error) {
	ret := fn.ReturnType
	switch {
	case ret == nil:
		return nil, bindingErrorf("function '%s' has no return type", fn.FullName())
	case ret.IsCollection():
		return nil, bindingErrorf("function '%s' returns %s, collection results are not supported", fn.FullName(), ret.FullName())
	case ret.IsEntity():
		return semantic.NewSingleResourceFunctionCallNode(name, overloads, args, ret, resultSource(source, ret.AsEntity()), source)
	}
	node, err := semantic.NewSingleValueFunctionCallNode(name, overloads, args, ret, source)
	if err != nil {
		return nil, fmt.Errorf("binding function %s: %w", fn.FullName(), err)
	}
	return node, nil
}

// resultSource is the navigation source of an entity returned by a function
// bound to a resource of the same entity family.
func resultSource(source semantic.Node, result *edm.EntityType) edm.NavigationSource {
	switch src := source.(type) {
	case semantic.CollectionResourceNode:
		if ns := src.NavigationSource(); ns != nil && result.IsDerivedFrom(src.EntityItemType()) {
			return ns
		}
	case semantic.SingleResourceNode:
		if ns := src.NavigationSource(); ns != nil && result.IsDerivedFrom(src.EntityType()) {
			return ns
		}
	}
	return nil
}
