package semantic

import (
	"strconv"

	"github.com/paveg/odataq/internal/common"
	"github.com/paveg/odataq/internal/syntax"
	"github.com/paveg/odataq/internal/validation"
)

// FilterClause is a bound filter predicate.
type FilterClause struct {
	expression    SingleValueNode
	rangeVariable RangeVariable
}

// NewFilterClause creates a filter clause over rangeVariable.
func NewFilterClause(expression SingleValueNode, rangeVariable RangeVariable) (*FilterClause, error) {
	const op = "NewFilterClause"
	if err := validation.ValidateAll(
		validation.NewNotNilValidator(expression, op, "expression"),
		validation.NewNotNilValidator(rangeVariable, op, "rangeVariable"),
	); err != nil {
		return nil, err
	}
	return &FilterClause{expression: expression, rangeVariable: rangeVariable}, nil
}

func (c *FilterClause) Expression() SingleValueNode  { return c.expression }
func (c *FilterClause) RangeVariable() RangeVariable { return c.rangeVariable }
func (c *FilterClause) String() string               { return c.expression.String() }

// OrderByClause is one bound sort key followed by the keys it breaks ties
// for.
type OrderByClause struct {
	expression    SingleValueNode
	direction     syntax.OrderDirection
	rangeVariable RangeVariable
	thenBy        *OrderByClause
}

// NewOrderByClause creates a sort key; thenBy may be nil.
func NewOrderByClause(expression SingleValueNode, direction syntax.OrderDirection, rangeVariable RangeVariable, thenBy *OrderByClause) (*OrderByClause, error) {
	const op = "NewOrderByClause"
	if err := validation.ValidateAll(
		validation.NewNotNilValidator(expression, op, "expression"),
		validation.NewNotNilValidator(rangeVariable, op, "rangeVariable"),
	); err != nil {
		return nil, err
	}
	return &OrderByClause{expression: expression, direction: direction, rangeVariable: rangeVariable, thenBy: thenBy}, nil
}

func (c *OrderByClause) Expression() SingleValueNode      { return c.expression }
func (c *OrderByClause) Direction() syntax.OrderDirection { return c.direction }
func (c *OrderByClause) RangeVariable() RangeVariable     { return c.rangeVariable }
func (c *OrderByClause) ThenBy() *OrderByClause           { return c.thenBy }

// Len returns the number of keys in the chain starting at c.
func (c *OrderByClause) Len() int {
	n := 0
	for cur := c; cur != nil; cur = cur.thenBy {
		n++
	}
	return n
}

func (c *OrderByClause) String() string {
	s := common.FormatSort(c.expression.String(), c.direction == syntax.Ascending)
	if c.thenBy != nil {
		s += ", " + c.thenBy.String()
	}
	return s
}

// LevelsClause is a bound traversal depth.
type LevelsClause struct {
	isMax bool
	level int64
}

// NewLevelsClause creates a levels clause. level is ignored when isMax is set.
func NewLevelsClause(isMax bool, level int64) (*LevelsClause, error) {
	if isMax {
		level = 0
	}
	if err := validation.NonNegative(level, "NewLevelsClause", "level"); err != nil {
		return nil, err
	}
	return &LevelsClause{isMax: isMax, level: level}, nil
}

// IsMaxLevel reports whether the clause requests unbounded depth.
func (c *LevelsClause) IsMaxLevel() bool { return c.isMax }

// Level returns the explicit depth, zero when IsMaxLevel is set.
func (c *LevelsClause) Level() int64 { return c.level }

func (c *LevelsClause) String() string {
	if c.isMax {
		return "max"
	}
	return strconv.FormatInt(c.level, 10)
}
