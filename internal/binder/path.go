package binder

import (
	"fmt"

	"github.com/paveg/odataq/internal/common"
	"github.com/paveg/odataq/internal/edm"
	qerrors "github.com/paveg/odataq/internal/errors"
	"github.com/paveg/odataq/internal/semantic"
	"github.com/paveg/odataq/internal/syntax"
)

const countSegment = "$count"

// bindProperty binds the path segment name on parent, or on $it when parent
// is nil.
func (b *Binder) bindProperty(name string, parent syntax.QueryToken) (semantic.Node, error) {
	var (
		source semantic.Node
		err    error
	)
	if parent == nil {
		if v, ok := b.lambdaVariable(name); ok {
			return semantic.NewRangeVariableReference(v)
		}
		source, err = b.implicitReference()
	} else {
		source, err = b.Bind(parent)
	}
	if err != nil {
		return nil, err
	}

	switch src := source.(type) {
	case semantic.CollectionNode:
		if name == countSegment {
			return semantic.NewCountNode(src)
		}
		return nil, bindingErrorf("property '%s' cannot be accessed on collection '%s'", name, src)
	case semantic.SingleValueNode:
		if name == countSegment {
			return nil, bindingErrorf("'%s' can only follow a collection, '%s' is a single value", countSegment, src)
		}
		return b.bindMember(src, name)
	default:
		return nil, bindingErrorf("unsupported path parent %s", source.Kind())
	}
}

func (b *Binder) bindMember(source semantic.SingleValueNode, name string) (semantic.Node, error) {
	typeRef := source.TypeReference()
	if typeRef == nil {
		// members of untyped values are dynamic
		return semantic.NewSingleValueOpenPropertyAccessNode(source, name)
	}
	structured := typeRef.AsStructured()
	if structured == nil {
		return nil, bindingErrorf("'%s' of type %s has no property '%s'", source, typeRef.FullName(), name)
	}

	res := structured.FindProperty(name, b.caseInsensitive)
	switch {
	case res.IsAmbiguous():
		names := make([]string, 0, len(res.Candidates()))
		for _, c := range res.Candidates() {
			names = append(names, c.PropertyName())
		}
		qe := qerrors.NewBindingError("", fmt.Sprintf("property name '%s' on %s is ambiguous between %s",
			name, typeRef.FullName(), common.FormatList(names)))
		return semantic.NewSingleValueOpenPropertyAccessNode(source, name, qe)
	case !res.IsResolved():
		if structured.IsOpen() {
			return semantic.NewSingleValueOpenPropertyAccessNode(source, name)
		}
		hint := didYouMean(suggest(name, structured.PropertyNames(), b.suggestionLimit))
		qe := qerrors.NewBindingError("", fmt.Sprintf("could not find property '%s' on type %s%s", name, typeRef.FullName(), hint))
		return semantic.NewSingleValueOpenPropertyAccessNode(source, name, qe)
	}

	property, _ := res.Value()
	if nav, ok := property.(*edm.NavigationProperty); ok {
		resource, ok := source.(semantic.SingleResourceNode)
		if !ok {
			return nil, bindingErrorf("navigation property '%s' requires an entity, got %s", name, typeRef.FullName())
		}
		if nav.Collection {
			return semantic.NewCollectionNavigationNode(resource, nav)
		}
		return semantic.NewSingleNavigationNode(resource, nav)
	}
	if property.PropertyType().IsCollection() {
		return semantic.NewCollectionPropertyAccessNode(source, property)
	}
	return semantic.NewSingleValuePropertyAccessNode(source, property)
}

// bindRangeVariable binds $it, $this or a lambda variable.
func (b *Binder) bindRangeVariable(name string) (semantic.Node, error) {
	if len(b.scope) == 0 {
		return nil, bindingErrorf("range variable '%s' used outside of a query option", name)
	}
	switch name {
	case syntax.ImplicitRangeVariable:
		return semantic.NewRangeVariableReference(b.scope[0])
	case syntax.ThisRangeVariable:
		return semantic.NewRangeVariableReference(b.scope[len(b.scope)-1])
	}
	for i := len(b.scope) - 1; i >= 0; i-- {
		if b.scope[i].Name() == name {
			return semantic.NewRangeVariableReference(b.scope[i])
		}
	}
	return nil, bindingErrorf("range variable '%s' is not in scope", name)
}

// lambdaVariable finds a lambda variable in scope, innermost first. Alias
// values are parsed without the lambda scope, so their variables arrive as
// plain path segments.
func (b *Binder) lambdaVariable(name string) (semantic.RangeVariable, bool) {
	for i := len(b.scope) - 1; i > 0; i-- {
		if b.scope[i].Name() == name {
			return b.scope[i], true
		}
	}
	return nil, false
}

func (b *Binder) implicitReference() (semantic.SingleValueNode, error) {
	if len(b.scope) == 0 {
		return nil, bindingErrorf("property paths require a resource, none is in scope")
	}
	return semantic.NewRangeVariableReference(b.scope[0])
}

// bindLambda binds any or all over the parent collection.
func (b *Binder) bindLambda(t *syntax.LambdaToken) (semantic.Node, error) {
	var (
		source semantic.CollectionNode
		err    error
	)
	if t.Parent == nil {
		return nil, bindingErrorf("%s must follow a collection", t.Lambda)
	}
	if source, err = b.bindCollection(t.Parent); err != nil {
		return nil, err
	}

	var variable semantic.RangeVariable
	if t.Variable != "" {
		if variable, err = newLambdaVariable(t.Variable, source); err != nil {
			return nil, err
		}
		b.pushScope(variable)
		defer b.popScope()
	}

	body, err := b.bindSingle(t.Predicate)
	if err != nil {
		return nil, err
	}
	if bt := body.TypeReference(); bt != nil && !bt.IsBoolean() {
		return nil, bindingErrorf("%s body must be boolean, got %s", t.Lambda, bt.FullName())
	}
	if t.Lambda == syntax.LambdaAll {
		return semantic.NewAllNode(source, body, variable)
	}
	return semantic.NewAnyNode(source, body, variable)
}

func newLambdaVariable(name string, source semantic.CollectionNode) (semantic.RangeVariable, error) {
	item := source.ItemType()
	if resources, ok := source.(semantic.CollectionResourceNode); ok && item.IsEntity() {
		return semantic.NewEntityRangeVariable(name, item, resources)
	}
	if item == nil {
		return nil, bindingErrorf("items of '%s' have no known type", source)
	}
	return semantic.NewNonEntityRangeVariable(name, item, source)
}

// bindCast binds a qualified type segment as a cast of its parent, or of $it
// when it starts the path.
func (b *Binder) bindCast(t *syntax.DottedIdentifierToken) (semantic.Node, error) {
	target, err := b.resolveEntityType(t.Name)
	if err != nil {
		return nil, err
	}

	var source semantic.Node
	if t.Parent == nil {
		source, err = b.implicitReference()
	} else {
		source, err = b.Bind(t.Parent)
	}
	if err != nil {
		return nil, err
	}

	switch src := source.(type) {
	case semantic.SingleResourceNode:
		if err := checkDerived(target, src.EntityType()); err != nil {
			return nil, err
		}
		return semantic.NewSingleResourceCastNode(src, target)
	case semantic.CollectionResourceNode:
		if err := checkDerived(target, src.EntityItemType()); err != nil {
			return nil, err
		}
		return semantic.NewCollectionResourceCastNode(src, target)
	default:
		return nil, bindingErrorf("type segment '%s' requires an entity or entity collection, got '%s'", t.Name, source)
	}
}

func (b *Binder) resolveEntityType(name string) (*edm.EntityType, error) {
	res := b.model.FindType(name)
	switch {
	case res.IsAmbiguous():
		return nil, bindingErrorf("type name '%s' is ambiguous", name)
	case !res.IsResolved():
		var hint string
		if lister, ok := b.model.(interface{ TypeNames() []string }); ok {
			hint = didYouMean(suggest(name, lister.TypeNames(), b.suggestionLimit))
		}
		return nil, bindingErrorf("could not find type '%s'%s", name, hint)
	}
	typ, _ := res.Value()
	entity, ok := typ.(*edm.EntityType)
	if !ok {
		return nil, bindingErrorf("type '%s' is not an entity type", name)
	}
	return entity, nil
}

func checkDerived(target, base *edm.EntityType) error {
	if base != nil && !target.IsDerivedFrom(base) {
		return bindingErrorf("type '%s' does not derive from '%s'", target.FullName(), base.FullName())
	}
	return nil
}
