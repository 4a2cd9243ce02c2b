package console

// Field is a three-valued form field: unset, or set to a value. A field
// set to its zero value is distinct from an unset one, which is what
// makes the omit-untouched-fields submission rule checkable: a draft
// field goes on the wire iff it is set, blank or not.
type Field[T any] struct {
	value T
	set   bool
}

// SetTo returns a Field holding v.
func SetTo[T any](v T) Field[T] {
	return Field[T]{value: v, set: true}
}

// Set stores v and marks the field as touched.
func (f *Field[T]) Set(v T) {
	f.value = v
	f.set = true
}

// Clear returns the field to the unset state.
func (f *Field[T]) Clear() {
	var zero T
	f.value = zero
	f.set = false
}

// IsSet reports whether the field was touched.
func (f Field[T]) IsSet() bool {
	return f.set
}

// Get returns the value and whether it was set.
func (f Field[T]) Get() (T, bool) {
	return f.value, f.set
}
