// affinity_linux.go - Linux CPU affinity via sched_setaffinity(2)

//go:build linux

package pin

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// maxUnits is the width of unix.CPUSet.
const maxUnits = int(unsafe.Sizeof(unix.CPUSet{})) * 8

// Pin restricts the calling thread (tid 0) to unit.
func (Affinity) Pin(unit int) error {
	if unit < 0 || unit >= maxUnits {
		return fmt.Errorf("%w: %d", ErrUnit, unit)
	}
	var set unix.CPUSet
	set.Zero()
	set.Set(unit)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("sched_setaffinity unit %d: %w", unit, err)
	}
	return nil
}

// Save captures the calling thread's current mask; the returned func
// reapplies it.
func Save() (func() error, error) {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return nil, fmt.Errorf("sched_getaffinity: %w", err)
	}
	return func() error {
		return unix.SchedSetaffinity(0, &set)
	}, nil
}

// Allowed lists the units the calling thread may currently run on.
func Allowed() ([]int, error) {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return nil, fmt.Errorf("sched_getaffinity: %w", err)
	}
	units := make([]int, 0, set.Count())
	for u := 0; u < maxUnits; u++ {
		if set.IsSet(u) {
			units = append(units, u)
		}
	}
	return units, nil
}
