// Package alias provides the stock parameter alias accessor: the raw value
// expressions supplied with a query plus the per-session cache of bound
// alias values.
package alias

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/paveg/odataq/internal/semantic"
)

// Accessor holds alias values for one binding session. It is not safe for
// concurrent use; concurrent sessions need their own Accessor.
type Accessor struct {
	// values maps an alias name such as "@p" to its value expression text.
	values map[string]string

	// nodes caches bound values by alias name. A present key with a nil
	// node marks an alias that has no value expression.
	nodes map[string]semantic.SingleValueNode

	lookups int
}

// NewAccessor creates an accessor over values. Keys may be given with or
// without the leading '@'.
func NewAccessor(values map[string]string) *Accessor {
	a := &Accessor{
		values: make(map[string]string, len(values)),
		nodes:  make(map[string]semantic.SingleValueNode),
	}
	for name, value := range values {
		a.values[normalizeName(name)] = value
	}
	return a
}

// FromQuery collects the @-prefixed parameters of a URL query string such as
// "@p=5&$filter=Price gt @p".
func FromQuery(rawQuery string) (*Accessor, error) {
	params, err := url.ParseQuery(rawQuery)
	if err != nil {
		return nil, fmt.Errorf("parsing alias values: %w", err)
	}
	values := make(map[string]string)
	for name, v := range params {
		if strings.HasPrefix(name, "@") && len(v) > 0 {
			values[name] = v[len(v)-1]
		}
	}
	return NewAccessor(values), nil
}

// ParseAssignments builds an accessor from "@name=expression" pairs.
func ParseAssignments(assignments []string) (*Accessor, error) {
	values := make(map[string]string, len(assignments))
	for _, assignment := range assignments {
		name, value, ok := strings.Cut(assignment, "=")
		if !ok || strings.TrimPrefix(strings.TrimSpace(name), "@") == "" {
			return nil, fmt.Errorf("alias assignment %q must have the form @name=expression", assignment)
		}
		values[strings.TrimSpace(name)] = value
	}
	return NewAccessor(values), nil
}

// ValueExpression returns the raw value expression of alias.
func (a *Accessor) ValueExpression(alias string) (string, bool) {
	a.lookups++
	value, ok := a.values[normalizeName(alias)]
	return value, ok
}

// CachedNode returns the cached bound value of alias. ok is true for a
// cached "no value" marker too, in which case node is nil.
func (a *Accessor) CachedNode(alias string) (node semantic.SingleValueNode, ok bool) {
	node, ok = a.nodes[normalizeName(alias)]
	return node, ok
}

// CacheNode records the bound value of alias; nil records that the alias
// has no value expression.
func (a *Accessor) CacheNode(alias string, node semantic.SingleValueNode) {
	a.nodes[normalizeName(alias)] = node
}

// Lookups returns how many raw value expressions were requested.
func (a *Accessor) Lookups() int {
	return a.lookups
}

// Aliases lists the aliases that have a value, sorted.
func (a *Accessor) Aliases() []string {
	names := make([]string, 0, len(a.values))
	for name := range a.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reset clears the node cache and the lookup counter so the accessor can
// serve another session over the same values.
func (a *Accessor) Reset() {
	a.nodes = make(map[string]semantic.SingleValueNode)
	a.lookups = 0
}

func normalizeName(name string) string {
	if strings.HasPrefix(name, "@") {
		return name
	}
	return "@" + name
}
