package binder

import (
	"fmt"
	"strings"

	"github.com/paveg/odataq/internal/edm"
	"github.com/paveg/odataq/internal/literal"
	"github.com/paveg/odataq/internal/semantic"
	"github.com/paveg/odataq/internal/syntax"
)

// bindLiteral types a literal from its lexical kind, or from the hint for
// bracketed payloads.
func (b *Binder) bindLiteral(t *syntax.LiteralToken) (semantic.Node, error) {
	switch v := t.Value.(type) {
	case nil:
		return semantic.NewConstantNode(nil, t.Text, nil), nil
	case literal.EnumValue:
		ref, err := b.resolveEnumValue(v)
		if err != nil {
			return nil, err
		}
		return semantic.NewConstantNode(v, t.Text, ref), nil
	case literal.Payload:
		if t.ExpectedType == nil || t.ExpectedType.IsEntityOrEntityCollection() {
			return semantic.NewConstantNode(v, t.Text, t.ExpectedType), nil
		}
		value, err := literal.ConvertPayload(v.Text, t.ExpectedType)
		if err != nil {
			return nil, err
		}
		return semantic.NewConstantNode(value, t.Text, t.ExpectedType), nil
	}

	if t.Lexical == syntax.TokenBracketedExpression {
		return semantic.NewConstantNode(t.Value, t.Text, t.ExpectedType), nil
	}
	kind, ok := t.Lexical.PrimitiveKind()
	if !ok {
		if t.ExpectedType != nil {
			return semantic.NewConstantNode(t.Value, t.Text, t.ExpectedType), nil
		}
		return nil, bindingErrorf("cannot type literal '%s'", t)
	}
	return semantic.NewConstantNode(t.Value, t.Text, edm.PrimitiveReference(kind, false)), nil
}

// resolveEnumValue checks that a quoted literal names an enum type and that
// every comma separated member exists.
func (b *Binder) resolveEnumValue(v literal.EnumValue) (*edm.TypeReference, error) {
	res := b.model.FindType(v.TypeName)
	typ, ok := res.Value()
	if !ok {
		if res.IsAmbiguous() {
			return nil, bindingErrorf("type name '%s' is ambiguous", v.TypeName)
		}
		return nil, bindingErrorf("could not find type '%s' of literal %s", v.TypeName, v)
	}
	enum, ok := typ.(*edm.EnumType)
	if !ok {
		return nil, bindingErrorf("literal %s: '%s' is not an enum type", v, v.TypeName)
	}
	if err := checkEnumMembers(enum, v.Value); err != nil {
		return nil, err
	}
	return edm.NewTypeReference(enum, false), nil
}

func checkEnumMembers(enum *edm.EnumType, value string) error {
	members := strings.Split(value, ",")
	if len(members) > 1 && !enum.Flags {
		return bindingErrorf("enum %s is not a flags enum, '%s' names several members", enum.FullName(), value)
	}
	for _, m := range members {
		if _, ok := enum.FindMember(strings.TrimSpace(m)); !ok {
			return bindingErrorf("'%s' is not a member of enum %s", strings.TrimSpace(m), enum.FullName())
		}
	}
	return nil
}

// enumConstant re-types a string constant compared with or tested against
// an enum value.
func enumConstant(node semantic.SingleValueNode, ref *edm.TypeReference) (semantic.SingleValueNode, bool, error) {
	c, ok := node.(*semantic.ConstantNode)
	if !ok {
		return node, false, nil
	}
	s, ok := c.Value().(string)
	if !ok {
		return node, false, nil
	}
	enum := ref.AsEnum()
	if err := checkEnumMembers(enum, s); err != nil {
		return nil, false, err
	}
	value := literal.EnumValue{TypeName: enum.FullName(), Value: s}
	return semantic.NewConstantNode(value, fmt.Sprint(value), edm.NewTypeReference(enum, false)), true, nil
}
