package edm

// ResolutionState tells whether a name lookup found nothing, exactly one
// element or several same-named elements.
type ResolutionState int

const (
	Unresolved ResolutionState = iota
	Resolved
	Ambiguous
)

func (s ResolutionState) String() string {
	switch s {
	case Resolved:
		return "resolved"
	case Ambiguous:
		return "ambiguous"
	default:
		return "unresolved"
	}
}

// Resolution is the outcome of a schema lookup. Registering a second element
// under a name that already resolves collapses both into the Ambiguous state.
type Resolution[T any] struct {
	state      ResolutionState
	candidates []T
}

// NewResolved returns a resolution holding a single element.
func NewResolved[T any](v T) Resolution[T] {
	return Resolution[T]{state: Resolved, candidates: []T{v}}
}

// NewAmbiguous returns a resolution over several candidates. Fewer than two
// candidates degrade to Resolved or Unresolved.
func NewAmbiguous[T any](candidates ...T) Resolution[T] {
	switch len(candidates) {
	case 0:
		return Resolution[T]{}
	case 1:
		return NewResolved(candidates[0])
	}
	return Resolution[T]{state: Ambiguous, candidates: append([]T(nil), candidates...)}
}

// NewUnresolved returns an empty resolution.
func NewUnresolved[T any]() Resolution[T] {
	return Resolution[T]{}
}

// With returns the resolution after registering v under the same name.
func (r Resolution[T]) With(v T) Resolution[T] {
	return NewAmbiguous(append(append([]T(nil), r.candidates...), v)...)
}

// State returns the resolution state.
func (r Resolution[T]) State() ResolutionState { return r.state }

// IsResolved reports whether exactly one element matched.
func (r Resolution[T]) IsResolved() bool { return r.state == Resolved }

// IsAmbiguous reports whether several elements matched.
func (r Resolution[T]) IsAmbiguous() bool { return r.state == Ambiguous }

// Value returns the element of a Resolved resolution.
func (r Resolution[T]) Value() (T, bool) {
	if r.state != Resolved {
		var zero T
		return zero, false
	}
	return r.candidates[0], true
}

// Candidates returns every matched element.
func (r Resolution[T]) Candidates() []T {
	return append([]T(nil), r.candidates...)
}
