// ════════════════════════════════════════════════════════════════════════════════════════════════
// Cache-Defeating Stress Array
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: Fixed-Point-Free Index Permutation
//
// Description:
//   A uint32 array of N = 2·half entries where every low-half slot points
//   into the high half and vice versa. Each half is then shuffled in place.
//   Shuffling only moves values within a half, and every value in the low
//   half is ≥ half while every low index is < half (symmetrically for the
//   high half), so no slot can ever hold its own index.
//
// Walk Behavior:
//   value = a[value] alternates halves on every step. With N far above the
//   last-level cache and no stride to learn, each step is a dependent load
//   that misses to DRAM: full core occupancy at very low IPC.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package stressarray

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"boosttester/constants"
	"boosttester/utils"
)

var (
	// ErrSize rejects geometries outside [ArrayBitsMin, ArrayBitsMax].
	ErrSize = errors.New("stress array size out of range")
	// ErrInvariant reports a slot that breaks the cross-half permutation.
	ErrInvariant = errors.New("stress array invariant violated")
)

// Array is the shared stress workload. It is written once by Build and only
// read afterwards.
type Array struct {
	data    []uint32
	half    uint32
	release func() error
}

// New allocates an unfilled array with half = 1<<bits.
func New(bits int) (*Array, error) {
	if bits < constants.ArrayBitsMin || bits > constants.ArrayBitsMax {
		return nil, fmt.Errorf("%w: bits=%d", ErrSize, bits)
	}
	half := uint32(1) << uint(bits)
	data, release, err := Alloc(int(half) * 2)
	if err != nil {
		return nil, fmt.Errorf("allocate stress array: %w", err)
	}
	return &Array{data: data, half: half, release: release}, nil
}

// Build allocates, fills and shuffles an array with half = 1<<bits.
// The same rng seed always yields the same array.
func Build(bits int, rng *rand.Rand) (*Array, error) {
	a, err := New(bits)
	if err != nil {
		return nil, err
	}
	a.Fill()
	a.Shuffle(rng)
	return a, nil
}

// Fill writes the cross-half identity: a[i] = i+half, a[i+half] = i.
//
//go:nosplit
func (a *Array) Fill() {
	h := a.half
	for i := uint32(0); i < h; i++ {
		a.data[i] = i + h
		a.data[i+h] = i
	}
}

// Shuffle permutes each half in place with Fisher–Yates restricted to that
// half.
func (a *Array) Shuffle(rng *rand.Rand) {
	h := a.half
	shuffleRange(a.data[:h], rng)
	shuffleRange(a.data[h:], rng)
}

func shuffleRange(s []uint32, rng *rand.Rand) {
	if len(s) < 2 {
		return
	}
	for i := uint32(len(s)) - 1; i > 0; i-- {
		j := rng.Uint32N(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}

// Len returns N.
//
//go:inline
func (a *Array) Len() int { return len(a.data) }

// Half returns N/2.
//
//go:inline
func (a *Array) Half() uint32 { return a.half }

// At returns a[i].
//
//go:inline
func (a *Array) At(i uint32) uint32 { return a.data[i] }

// Bytes returns the buffer footprint.
func (a *Array) Bytes() uint64 { return uint64(len(a.data)) * 4 }

// Walk follows value = a[value] for steps steps from start and returns the
// final value. A start outside [0, N) is folded into range first.
//
//go:nosplit
func (a *Array) Walk(start uint32, steps int) uint32 {
	d := a.data
	v := start % uint32(len(d))
	for i := 0; i < steps; i++ {
		v = d[v]
	}
	return v
}

// Verify checks that each half is a permutation of the opposite half's
// index range, which implies a[i] != i everywhere.
func (a *Array) Verify() error {
	h := a.half
	n := uint32(len(a.data))
	seen := make([]uint64, (n+63)/64)
	for i, v := range a.data {
		idx := uint32(i)
		switch {
		case v == idx:
			return fmt.Errorf("%w: a[%d] points to itself", ErrInvariant, idx)
		case v >= n:
			return fmt.Errorf("%w: a[%d]=%d out of range", ErrInvariant, idx, v)
		case idx < h && v < h, idx >= h && v >= h:
			return fmt.Errorf("%w: a[%d]=%d stays in its own half", ErrInvariant, idx, v)
		}
		w, bit := v/64, uint64(1)<<(v%64)
		if seen[w]&bit != 0 {
			return fmt.Errorf("%w: value %d appears twice", ErrInvariant, v)
		}
		seen[w] |= bit
	}
	return nil
}

// Release returns the buffer to the OS. The array must not be used after.
func (a *Array) Release() error {
	if a.release == nil {
		return nil
	}
	err := a.release()
	a.release, a.data = nil, nil
	return err
}

// String summarizes the geometry for the operator.
func (a *Array) String() string {
	return utils.Itoa(a.Len()) + " entries (" + utils.Itoa(int(utils.MiB(a.Bytes()))) + " MiB)"
}
