package topology

import (
	"errors"
	"fmt"
	"math/bits"

	"boosttester/utils"
)

///////////////////////////////////////////////////////////////////////////////
// Relation Records — What an OS Topology Walk Yields
///////////////////////////////////////////////////////////////////////////////

// RelationKind tags a topology record.
type RelationKind uint8

const (
	RelationNUMANode RelationKind = iota
	RelationProcessorCore
	RelationCache
	RelationProcessorPackage
)

func (k RelationKind) String() string {
	switch k {
	case RelationNUMANode:
		return "numa"
	case RelationProcessorCore:
		return "core"
	case RelationCache:
		return "cache"
	case RelationProcessorPackage:
		return "package"
	}
	return "unknown"
}

// CacheType distinguishes split L1 caches from unified ones.
type CacheType uint8

const (
	CacheUnified CacheType = iota
	CacheInstruction
	CacheData
	CacheTrace
)

// ParseCacheType maps the kernel's cache type names; unknown names read as
// unified.
func ParseCacheType(s string) CacheType {
	switch s {
	case "Data":
		return CacheData
	case "Instruction":
		return CacheInstruction
	case "Trace":
		return CacheTrace
	}
	return CacheUnified
}

// CacheInfo describes one cache instance.
type CacheInfo struct {
	Level uint8
	Type  CacheType
}

// Mask is a logical-unit membership bitmap of arbitrary width.
type Mask []uint64

// MaskOf builds a mask with the given units set.
func MaskOf(units ...int) Mask {
	var m Mask
	for _, u := range units {
		m = m.Set(u)
	}
	return m
}

// Set returns m with unit u set, growing it when needed.
func (m Mask) Set(u int) Mask {
	if u < 0 {
		return m
	}
	w := u / 64
	for len(m) <= w {
		m = append(m, 0)
	}
	m[w] |= 1 << (uint(u) % 64)
	return m
}

// Has reports whether unit u is set.
func (m Mask) Has(u int) bool {
	w := u / 64
	return u >= 0 && w < len(m) && m[w]&(1<<(uint(u)%64)) != 0
}

// Count returns the number of units in the mask.
func (m Mask) Count() int {
	n := 0
	for _, w := range m {
		n += utils.CountSetBits(w)
	}
	return n
}

// First returns the lowest unit in the mask, or -1 when empty.
func (m Mask) First() int {
	for i, w := range m {
		if w != 0 {
			return i*64 + bits.TrailingZeros64(w)
		}
	}
	return -1
}

// Units lists the set units in ascending order.
func (m Mask) Units() []int {
	out := make([]int, 0, m.Count())
	for i, w := range m {
		for w != 0 {
			b := bits.TrailingZeros64(w)
			out = append(out, i*64+b)
			w &^= 1 << uint(b)
		}
	}
	return out
}

// Relation is one topology record. Cache is meaningful only for
// RelationCache.
type Relation struct {
	Kind  RelationKind
	Mask  Mask
	Cache CacheInfo
}

///////////////////////////////////////////////////////////////////////////////
// Two-Phase Enumeration Protocol
///////////////////////////////////////////////////////////////////////////////

// Status discriminates an enumeration Result.
type Status uint8

const (
	// StatusComplete: Len records were written into the buffer.
	StatusComplete Status = iota
	// StatusNeedSpace: the buffer was too small; Len records are required.
	StatusNeedSpace
)

// Result is the outcome of one Enumerate call. A too-small buffer is an
// expected outcome, not an error.
type Result struct {
	Status Status
	Len    int
}

// Enumerator fills buf with the machine's topology records.
type Enumerator interface {
	Enumerate(buf []Relation) (Result, error)
}

var (
	// ErrUnsupported means the platform offers no topology enumeration.
	ErrUnsupported = errors.New("topology enumeration is not supported")
	// ErrTopologyChanged means the record count kept growing between calls.
	ErrTopologyChanged = errors.New("topology changed while enumerating")
	// ErrBadResult rejects an enumeration Result that cannot be honored.
	ErrBadResult = errors.New("malformed enumeration result")
)

// Query drives the size-then-data protocol. It starts with an empty buffer,
// grows it on StatusNeedSpace and gives up after attempts calls. A
// StatusComplete claiming more records than the buffer holds is treated as
// a size request.
func Query(e Enumerator, attempts int) ([]Relation, error) {
	var buf []Relation
	for i := 0; i < attempts; i++ {
		res, err := e.Enumerate(buf)
		if err != nil {
			return nil, err
		}
		if res.Len < 0 {
			return nil, fmt.Errorf("%w: negative record count %d", ErrBadResult, res.Len)
		}
		switch res.Status {
		case StatusComplete:
			if res.Len <= len(buf) {
				return buf[:res.Len], nil
			}
			buf = make([]Relation, res.Len)
		case StatusNeedSpace:
			buf = make([]Relation, res.Len)
		default:
			return nil, fmt.Errorf("%w: status %d", ErrBadResult, res.Status)
		}
	}
	return nil, ErrTopologyChanged
}

// Unsupported is the enumerator for platforms without a topology source.
type Unsupported struct{}

func (Unsupported) Enumerate([]Relation) (Result, error) {
	return Result{}, ErrUnsupported
}

///////////////////////////////////////////////////////////////////////////////
// Counting Walk
///////////////////////////////////////////////////////////////////////////////

// Counts aggregates a record list. Cores holds each core's units in record
// order.
type Counts struct {
	PhysicalCores int
	LogicalCores  int
	NUMANodes     int
	Packages      int
	L1Caches      int
	L2Caches      int
	L3Caches      int
	Cores         [][]int
}

// Collect counts records by kind. L1 counts data caches only, so split
// instruction caches do not double the figure.
func Collect(records []Relation) Counts {
	var c Counts
	for _, r := range records {
		switch r.Kind {
		case RelationNUMANode:
			// Non-NUMA systems report a single record of this type.
			c.NUMANodes++
		case RelationProcessorCore:
			c.PhysicalCores++
			c.LogicalCores += r.Mask.Count()
			c.Cores = append(c.Cores, r.Mask.Units())
		case RelationCache:
			switch r.Cache.Level {
			case 1:
				if r.Cache.Type == CacheData {
					c.L1Caches++
				}
			case 2:
				c.L2Caches++
			case 3:
				c.L3Caches++
			}
		case RelationProcessorPackage:
			c.Packages++
		}
	}
	return c
}
