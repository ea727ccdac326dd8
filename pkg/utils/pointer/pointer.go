// Package pointer moves values into and out of pointers, mostly for the
// optional fields of update deltas and wire types.
package pointer

// Ref returns a pointer to v.
func Ref[T any](v T) *T {
	return &v
}

// Deref returns the value p points at. It panics when p is nil.
func Deref[T any](p *T) T {
	return *p
}

// SafeDeref is Deref, except that a nil pointer yields the zero value.
func SafeDeref[T any](p *T) T {
	if p == nil {
		return *new(T)
	}
	return *p
}
