package semantic

import "sync/atomic"

// lazy is a computed-once cell. Concurrent first reads may each run compute;
// the first stored result wins and every reader observes it.
type lazy[T any] struct {
	compute func() T
	value   atomic.Pointer[T]
}

func newLazy[T any](compute func() T) *lazy[T] {
	return &lazy[T]{compute: compute}
}

// Get returns the cached value, computing it on first use.
func (l *lazy[T]) Get() T {
	if v := l.value.Load(); v != nil {
		return *v
	}
	v := l.compute()
	l.value.CompareAndSwap(nil, &v)
	return *l.value.Load()
}

// Computed reports whether the value has been computed.
func (l *lazy[T]) Computed() bool {
	return l.value.Load() != nil
}
