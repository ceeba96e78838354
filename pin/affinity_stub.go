// affinity_stub.go - no-op affinity for platforms without sched_setaffinity(2)

//go:build !linux

package pin

// Pin reports ErrUnsupported; the caller runs unpinned.
func (Affinity) Pin(unit int) error {
	if unit < 0 {
		return ErrUnit
	}
	return ErrUnsupported
}

// Save returns a no-op restore.
func Save() (func() error, error) {
	return func() error { return nil }, nil
}

// Allowed is unknown on these platforms.
func Allowed() ([]int, error) {
	return nil, ErrUnsupported
}
