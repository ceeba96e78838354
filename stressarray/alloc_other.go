//go:build !linux

package stressarray

// Alloc returns n zeroed uint32 slots from the Go heap.
func Alloc(n int) ([]uint32, func() error, error) {
	if n <= 0 {
		return nil, nil, ErrSize
	}
	return make([]uint32, n), func() error { return nil }, nil
}
