package utils

import (
	"errors"
	"math/bits"
	"strconv"
	"strings"
	"unsafe"
)

///////////////////////////////////////////////////////////////////////////////
// Conversion Utilities — Zero-Alloc Casts
///////////////////////////////////////////////////////////////////////////////

// B2s converts a []byte to a string **without** allocation.
// ⚠️ Caller must ensure the input slice remains valid and unchanged.
// Used for sysfs reads that are parsed and dropped immediately.
//
//go:nosplit
//go:inline
func B2s(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}

///////////////////////////////////////////////////////////////////////////////
// Bit Masks — Logical Unit Membership
///////////////////////////////////////////////////////////////////////////////

// CountSetBits returns the number of logical units present in a 64-bit mask.
//
//go:nosplit
//go:inline
func CountSetBits(mask uint64) int {
	return bits.OnesCount64(mask)
}

// ErrCPUList reports a malformed kernel cpu list such as "0-3,x".
var ErrCPUList = errors.New("malformed cpu list")

// ParseCPUList expands the kernel list format ("0-3,8,10-11") into unit ids
// in ascending order of appearance. An empty or blank list yields nil.
func ParseCPUList(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var out []int
	for _, part := range strings.Split(s, ",") {
		lo, hi, isRange := strings.Cut(part, "-")
		first, err := strconv.Atoi(lo)
		if err != nil || first < 0 {
			return nil, ErrCPUList
		}
		last := first
		if isRange {
			if last, err = strconv.Atoi(hi); err != nil || last < first {
				return nil, ErrCPUList
			}
		}
		for u := first; u <= last; u++ {
			out = append(out, u)
		}
	}
	return out, nil
}

///////////////////////////////////////////////////////////////////////////////
// Human-Readable Formatting — Cold Paths Only
///////////////////////////////////////////////////////////////////////////////

// Itoa formats a signed integer without going through fmt.
//
//go:inline
func Itoa(n int) string {
	return strconv.Itoa(n)
}

// FormatHz renders a frequency in MHz or GHz; zero or negative reads "unknown".
func FormatHz(hz int64) string {
	switch {
	case hz <= 0:
		return "unknown"
	case hz < 1_000_000_000:
		return strconv.FormatInt(hz/1_000_000, 10) + " MHz"
	default:
		return strconv.FormatFloat(float64(hz)/1e9, 'f', 2, 64) + " GHz"
	}
}

// MiB converts a byte count to whole mebibytes, rounding down.
//
//go:nosplit
//go:inline
func MiB(n uint64) uint64 {
	return n >> 20
}
