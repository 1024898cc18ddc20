package binder

import (
	"github.com/paveg/odataq/internal/edm"
	"github.com/paveg/odataq/internal/semantic"
	"github.com/paveg/odataq/internal/syntax"
)

func (b *Binder) bindBinary(t *syntax.BinaryOperatorToken) (semantic.Node, error) {
	left, err := b.bindSingle(t.Left)
	if err != nil {
		return nil, err
	}
	right, err := b.bindSingle(t.Right)
	if err != nil {
		return nil, err
	}

	switch {
	case t.Operator.IsLogical():
		if err := requireBoolean(t.Operator.String(), left, right); err != nil {
			return nil, err
		}
	case t.Operator == syntax.Has:
		if right, err = bindHasOperands(left, right); err != nil {
			return nil, err
		}
	case t.Operator.IsComparison():
		if left, right, err = promoteComparison(t.Operator, left, right); err != nil {
			return nil, err
		}
	case t.Operator.IsArithmetic():
		if left, right, err = promoteArithmetic(t.Operator, left, right); err != nil {
			return nil, err
		}
	}
	return semantic.NewBinaryOperatorNode(t.Operator, left, right)
}

func (b *Binder) bindUnary(t *syntax.UnaryOperatorToken) (semantic.Node, error) {
	operand, err := b.bindSingle(t.Operand)
	if err != nil {
		return nil, err
	}
	if ref := operand.TypeReference(); ref != nil {
		switch t.Operator {
		case syntax.Not:
			if !ref.IsBoolean() {
				return nil, bindingErrorf("operator 'not' requires a boolean operand, got %s", ref.FullName())
			}
		case syntax.Negate:
			if k := ref.PrimitiveKind(); !k.IsNumeric() && k != edm.PrimitiveDuration {
				return nil, bindingErrorf("operator '-' requires a numeric or duration operand, got %s", ref.FullName())
			}
		}
	}
	return semantic.NewUnaryOperatorNode(t.Operator, operand)
}

func requireBoolean(op string, operands ...semantic.SingleValueNode) error {
	for _, n := range operands {
		if ref := n.TypeReference(); ref != nil && !ref.IsBoolean() {
			return bindingErrorf("operator '%s' requires boolean operands, '%s' is %s", op, n, ref.FullName())
		}
	}
	return nil
}

// bindHasOperands checks the enum operands of has; a string constant on the
// right becomes a member of the left enum.
func bindHasOperands(left, right semantic.SingleValueNode) (semantic.SingleValueNode, error) {
	lt := left.TypeReference()
	if !lt.IsEnum() {
		return nil, bindingErrorf("operator 'has' requires an enum left operand, got '%s'", left)
	}
	rt := right.TypeReference()
	switch {
	case rt == nil:
		return right, nil
	case rt.IsEnum():
		if rt.FullName() != lt.FullName() {
			return nil, bindingErrorf("operator 'has' operands differ: %s and %s", lt.FullName(), rt.FullName())
		}
		return right, nil
	}
	converted, ok, err := enumConstant(right, lt)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, bindingErrorf("operator 'has' requires an enum right operand, got %s", rt.FullName())
	}
	return converted, nil
}

func promoteComparison(op syntax.BinaryOperatorKind, left, right semantic.SingleValueNode) (semantic.SingleValueNode, semantic.SingleValueNode, error) {
	lt, rt := left.TypeReference(), right.TypeReference()
	if lt == nil || rt == nil {
		return left, right, nil
	}

	switch {
	case lt.IsEnum() && rt.PrimitiveKind() == edm.PrimitiveString:
		converted, ok, err := enumConstant(right, lt)
		if err != nil || ok {
			return left, converted, err
		}
	case rt.IsEnum() && lt.PrimitiveKind() == edm.PrimitiveString:
		converted, ok, err := enumConstant(left, rt)
		if err != nil || ok {
			return converted, right, err
		}
	}

	lk, rk := lt.PrimitiveKind(), rt.PrimitiveKind()
	if lk.IsNumeric() && rk.IsNumeric() {
		return promoteNumeric(left, right)
	}

	ordering := op != syntax.Equal && op != syntax.NotEqual
	if ordering && !(lt.IsPrimitive() || lt.IsEnum()) {
		return nil, nil, bindingErrorf("operator '%s' cannot order values of type %s", op, lt.FullName())
	}
	if !edm.IsAssignableTo(lt, rt) && !edm.IsAssignableTo(rt, lt) {
		return nil, nil, bindingErrorf("operator '%s' cannot compare %s with %s", op, lt.FullName(), rt.FullName())
	}
	return left, right, nil
}

// temporal arithmetic combinations other than number op number.
var temporalArithmetic = map[syntax.BinaryOperatorKind]map[[2]edm.PrimitiveKind]bool{
	syntax.Add: {
		{edm.PrimitiveDateTimeOffset, edm.PrimitiveDuration}: true,
		{edm.PrimitiveDate, edm.PrimitiveDuration}:           true,
		{edm.PrimitiveDuration, edm.PrimitiveDuration}:       true,
	},
	syntax.Subtract: {
		{edm.PrimitiveDateTimeOffset, edm.PrimitiveDuration}:       true,
		{edm.PrimitiveDate, edm.PrimitiveDuration}:                 true,
		{edm.PrimitiveDuration, edm.PrimitiveDuration}:             true,
		{edm.PrimitiveDateTimeOffset, edm.PrimitiveDateTimeOffset}: true,
		{edm.PrimitiveDate, edm.PrimitiveDate}:                     true,
	},
}

func promoteArithmetic(op syntax.BinaryOperatorKind, left, right semantic.SingleValueNode) (semantic.SingleValueNode, semantic.SingleValueNode, error) {
	lt, rt := left.TypeReference(), right.TypeReference()
	for _, ref := range []*edm.TypeReference{lt, rt} {
		if ref != nil && !ref.PrimitiveKind().IsNumeric() && !ref.PrimitiveKind().IsTemporal() {
			return nil, nil, bindingErrorf("operator '%s' requires numeric or temporal operands, got %s", op, ref.FullName())
		}
	}
	if lt == nil || rt == nil {
		return left, right, nil
	}

	lk, rk := lt.PrimitiveKind(), rt.PrimitiveKind()
	if lk.IsNumeric() && rk.IsNumeric() {
		return promoteNumeric(left, right)
	}
	if !temporalArithmetic[op][[2]edm.PrimitiveKind{lk, rk}] {
		return nil, nil, bindingErrorf("operator '%s' is not defined for %s and %s", op, lt.FullName(), rt.FullName())
	}
	return left, right, nil
}

// promoteNumeric converts the narrower numeric operand to the common kind.
func promoteNumeric(left, right semantic.SingleValueNode) (semantic.SingleValueNode, semantic.SingleValueNode, error) {
	lt, rt := left.TypeReference(), right.TypeReference()
	common, ok := edm.CommonNumeric(lt.PrimitiveKind(), rt.PrimitiveKind())
	if !ok {
		return nil, nil, bindingErrorf("no common numeric type for %s and %s", lt.FullName(), rt.FullName())
	}
	var err error
	if left, err = convertTo(left, common); err != nil {
		return nil, nil, err
	}
	if right, err = convertTo(right, common); err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

func convertTo(node semantic.SingleValueNode, kind edm.PrimitiveKind) (semantic.SingleValueNode, error) {
	ref := node.TypeReference()
	if ref == nil || ref.PrimitiveKind() == kind {
		return node, nil
	}
	return semantic.NewConvertNode(node, edm.PrimitiveReference(kind, ref.Nullable))
}
