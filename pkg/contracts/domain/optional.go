package domain

// Optional holds a value that may be absent. Derived columns use it to carry
// per-row mapping gaps (unknown category, value outside every bin) explicitly.
type Optional[T any] struct {
	Value T
	Valid bool
}

// Some wraps a present value
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Valid: true}
}

// None returns an absent value
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is present
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Valid
}

// OrElse returns the value when present, fallback otherwise
func (o Optional[T]) OrElse(fallback T) T {
	if o.Valid {
		return o.Value
	}
	return fallback
}
