// ════════════════════════════════════════════════════════════════════════════════════════════════
// CPU Topology Model
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: Physical Core → Logical Unit Assignment
//
// Description:
//   Turns aggregate core counts into a per-physical-core thread count and a
//   logical unit to pin for each core. Hybrid parts (two-thread performance
//   cores next to one-thread efficiency cores) are reconstructed with the
//   contiguous-tier heuristic below.
//
// Contiguous-tier heuristic (assumption, not verified by the hardware):
//   - Exactly two tiers exist: cores with 2 threads and cores with 1.
//   - All 2-thread cores come first in enumeration order, not mixed in and
//     not at the end.
//   When enumerated per-core membership is available the assignment is
//   cross-checked against it and any disagreement becomes a Warning.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package topology

import (
	"slices"

	"boosttester/utils"
)

// Identity is the informational CPU identification.
type Identity struct {
	Vendor  string
	Brand   string
	Family  int
	BoostHz int64
}

// Selection chooses how a core index maps to the unit to pin.
type Selection string

const (
	// SelectHeuristic derives units from the counts alone.
	SelectHeuristic Selection = "heuristic"
	// SelectEnumerated uses the first unit of each core's membership mask.
	SelectEnumerated Selection = "enumerated"
)

// Model is the immutable topology snapshot the orchestrator consumes.
type Model struct {
	Identity

	PhysicalCores int
	LogicalCores  int
	NUMANodes     int
	Packages      int
	L1Caches      int
	L2Caches      int
	L3Caches      int

	HyperThreading bool
	Asymmetric     bool

	// ThreadsPerCore is index-aligned with the assumed physical-core order.
	ThreadsPerCore []int

	CoresWithExtraThread    int
	CoresWithoutExtraThread int

	// Units holds each core's enumerated logical units, when known.
	Units [][]int

	// Warnings lists recoverable anomalies found while deriving the layout.
	Warnings []string

	// tiered is set when the contiguous-tier heuristic produced the layout.
	tiered bool
	first  []int
}

// Build derives the thread assignment from id and c. It never fails;
// inconsistent counts produce Warnings and a conservative layout.
func Build(id Identity, c Counts) *Model {
	m := &Model{
		Identity:      id,
		PhysicalCores: max(c.PhysicalCores, 0),
		LogicalCores:  max(c.LogicalCores, 0),
		NUMANodes:     c.NUMANodes,
		Packages:      c.Packages,
		L1Caches:      c.L1Caches,
		L2Caches:      c.L2Caches,
		L3Caches:      c.L3Caches,
	}
	if len(c.Cores) == m.PhysicalCores {
		m.Units = c.Cores
	}

	p, l := m.PhysicalCores, m.LogicalCores
	m.HyperThreading = l > p
	m.Asymmetric = p > 0 && l > p && l%p != 0

	m.assign()

	m.first = make([]int, len(m.ThreadsPerCore))
	next := 0
	for i, t := range m.ThreadsPerCore {
		m.first[i] = next
		next += t
	}

	m.crossCheck()
	return m
}

func (m *Model) warn(msg string) {
	m.Warnings = append(m.Warnings, msg)
}

func (m *Model) fill(n int) {
	for i := range m.ThreadsPerCore {
		m.ThreadsPerCore[i] = n
	}
}

func (m *Model) assign() {
	p, l := m.PhysicalCores, m.LogicalCores
	if p == 0 {
		m.warn("no physical cores reported; nothing to test")
		return
	}
	m.ThreadsPerCore = make([]int, p)

	switch {
	case l < p:
		m.warn("fewer logical units (" + utils.Itoa(l) + ") than physical cores (" + utils.Itoa(p) + "); assuming one thread per core")
		m.fill(1)
	case l == p:
		m.fill(1)
	case !m.Asymmetric:
		m.fill(l / p)
	default:
		without := p*2 - l
		with := p - without
		if without < 0 {
			// More than two threads on some cores: spread the remainder over
			// the leading cores instead.
			m.warn("asymmetric layout with " + utils.Itoa(l) + " units on " + utils.Itoa(p) + " cores exceeds two threads per core; contiguous-tier heuristic not applicable")
			base, extra := l/p, l%p
			for i := range m.ThreadsPerCore {
				m.ThreadsPerCore[i] = base
				if i < extra {
					m.ThreadsPerCore[i]++
				}
			}
			m.CoresWithExtraThread = extra
			m.CoresWithoutExtraThread = p - extra
			return
		}
		m.tiered = true
		m.CoresWithExtraThread = with
		m.CoresWithoutExtraThread = without
		for i := range m.ThreadsPerCore {
			if i < with {
				m.ThreadsPerCore[i] = 2
			} else {
				m.ThreadsPerCore[i] = 1
			}
		}
	}
}

func (m *Model) crossCheck() {
	if m.Units == nil {
		return
	}
	for i, units := range m.Units {
		if i < len(m.ThreadsPerCore) && len(units) != m.ThreadsPerCore[i] {
			m.warn("derived layout disagrees with enumerated core " + utils.Itoa(i) +
				" (" + utils.Itoa(m.ThreadsPerCore[i]) + " vs " + utils.Itoa(len(units)) + " threads); consider selection=enumerated")
			break
		}
	}

	// Matching counts do not mean matching numbering: siblings N/2 apart
	// send the derived unit onto a core already in the sweep.
	stray, first := 0, -1
	for c, units := range m.Units {
		if !slices.Contains(units, m.LogicalUnit(c)) {
			stray++
			if first < 0 {
				first = c
			}
		}
	}
	if stray > 0 {
		m.warn("derived unit " + utils.Itoa(m.LogicalUnit(first)) + " for core " + utils.Itoa(first) +
			" is not one of its enumerated units (" + utils.Itoa(stray) + " of " + utils.Itoa(len(m.Units)) +
			" cores affected); consider selection=enumerated")
	}
}

// LogicalUnit returns the unit id to pin when testing physical core c, or
// -1 when c is out of range.
func (m *Model) LogicalUnit(c int) int {
	if c < 0 || c >= len(m.ThreadsPerCore) {
		return -1
	}
	if !m.Asymmetric {
		return c * m.ThreadsPerCore[c]
	}
	if !m.tiered {
		return m.first[c]
	}
	e := m.CoresWithExtraThread
	if c < e {
		return c * m.ThreadsPerCore[c]
	}
	// Past the two-thread tier units continue one per core.
	return (e * 2) - 1 + (c - (e - 1))
}

// EnumeratedUnit returns the first enumerated unit of core c, or -1 when
// membership is unknown.
func (m *Model) EnumeratedUnit(c int) int {
	if c < 0 || c >= len(m.Units) || len(m.Units[c]) == 0 {
		return -1
	}
	return m.Units[c][0]
}

// Unit applies sel, falling back to the heuristic rule when enumerated
// membership is unavailable.
func (m *Model) Unit(c int, sel Selection) int {
	if sel == SelectEnumerated {
		if u := m.EnumeratedUnit(c); u >= 0 {
			return u
		}
	}
	return m.LogicalUnit(c)
}
