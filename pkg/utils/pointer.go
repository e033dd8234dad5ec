package utils

// Ptr returns a pointer to the given value.
// Useful for setting optional struct fields that take pointers.
func Ptr[T any](v T) *T {
	return &v
}
