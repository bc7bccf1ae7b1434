package content

// cmpOr is a copy of the standard library's cmp.Or (Go 1.22+) so the package
// builds with a Go 1.21 toolchain. It returns the first of its arguments that
// is not equal to the zero value, or the zero value if there is none.
func cmpOr[T comparable](vals ...T) T {
	var zero T
	for _, v := range vals {
		if v != zero {
			return v
		}
	}
	return zero
}
