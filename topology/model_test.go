package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// HELPERS
// ============================================================================

func sum(xs []int) int {
	n := 0
	for _, x := range xs {
		n += x
	}
	return n
}

// prefixUnit is the unit a sequential numbering would give core c.
func prefixUnit(m *Model, c int) int {
	return sum(m.ThreadsPerCore[:c])
}

// ============================================================================
// THREAD ASSIGNMENT
// ============================================================================

func TestBuild_NoSMT(t *testing.T) {
	m := Build(Identity{}, Counts{PhysicalCores: 6, LogicalCores: 6})
	assert.False(t, m.HyperThreading)
	assert.False(t, m.Asymmetric)
	assert.Equal(t, []int{1, 1, 1, 1, 1, 1}, m.ThreadsPerCore)
	for c := 0; c < 6; c++ {
		assert.Equal(t, c, m.LogicalUnit(c))
	}
	assert.Empty(t, m.Warnings)
}

func TestBuild_Symmetric(t *testing.T) {
	m := Build(Identity{Vendor: "AuthenticAMD"}, Counts{PhysicalCores: 8, LogicalCores: 16})
	assert.True(t, m.HyperThreading)
	assert.False(t, m.Asymmetric)
	require.Len(t, m.ThreadsPerCore, 8)
	for c, tpc := range m.ThreadsPerCore {
		assert.Equal(t, 2, tpc)
		assert.Equal(t, 2*c, m.LogicalUnit(c))
	}
	assert.Equal(t, 16, sum(m.ThreadsPerCore))
	assert.Equal(t, "AuthenticAMD", m.Vendor)
}

func TestBuild_SymmetricFourWay(t *testing.T) {
	m := Build(Identity{}, Counts{PhysicalCores: 4, LogicalCores: 16})
	assert.False(t, m.Asymmetric)
	assert.Equal(t, []int{4, 4, 4, 4}, m.ThreadsPerCore)
	assert.Equal(t, 12, m.LogicalUnit(3))
}

func TestBuild_AsymmetricHybrid(t *testing.T) {
	// 8 performance cores with two threads, 16 efficiency cores with one.
	m := Build(Identity{}, Counts{PhysicalCores: 24, LogicalCores: 32})
	assert.True(t, m.HyperThreading)
	assert.True(t, m.Asymmetric)
	assert.Equal(t, 16, m.CoresWithoutExtraThread)
	assert.Equal(t, 8, m.CoresWithExtraThread)

	require.Len(t, m.ThreadsPerCore, 24)
	for c := 0; c < 8; c++ {
		assert.Equal(t, 2, m.ThreadsPerCore[c], "core %d", c)
	}
	for c := 8; c < 24; c++ {
		assert.Equal(t, 1, m.ThreadsPerCore[c], "core %d", c)
	}
	assert.Equal(t, 32, sum(m.ThreadsPerCore))

	assert.Equal(t, 14, m.LogicalUnit(7))
	assert.Equal(t, 16, m.LogicalUnit(8))
	assert.Equal(t, 31, m.LogicalUnit(23))
	for c := 0; c < 24; c++ {
		assert.Equal(t, prefixUnit(m, c), m.LogicalUnit(c), "core %d", c)
	}
	assert.Empty(t, m.Warnings)
}

func TestBuild_AsymmetricBeyondTwoThreads(t *testing.T) {
	m := Build(Identity{}, Counts{PhysicalCores: 3, LogicalCores: 7})
	assert.True(t, m.Asymmetric)
	require.NotEmpty(t, m.Warnings)
	assert.Equal(t, []int{3, 2, 2}, m.ThreadsPerCore)
	assert.Equal(t, 7, sum(m.ThreadsPerCore))
	assert.Equal(t, []int{0, 3, 5}, []int{m.LogicalUnit(0), m.LogicalUnit(1), m.LogicalUnit(2)})
}

func TestBuild_FewerLogicalThanPhysical(t *testing.T) {
	m := Build(Identity{}, Counts{PhysicalCores: 4, LogicalCores: 2})
	assert.False(t, m.HyperThreading)
	assert.False(t, m.Asymmetric)
	assert.Equal(t, []int{1, 1, 1, 1}, m.ThreadsPerCore)
	assert.NotEmpty(t, m.Warnings)
}

func TestBuild_Degenerate(t *testing.T) {
	m := Build(Identity{}, Counts{})
	assert.Zero(t, m.PhysicalCores)
	assert.Empty(t, m.ThreadsPerCore)
	assert.False(t, m.Asymmetric)
	assert.Equal(t, -1, m.LogicalUnit(0))
	assert.Equal(t, -1, m.Unit(0, SelectEnumerated))
	assert.NotEmpty(t, m.Warnings)

	neg := Build(Identity{}, Counts{PhysicalCores: -2, LogicalCores: -4})
	assert.Zero(t, neg.PhysicalCores)
	assert.Empty(t, neg.ThreadsPerCore)
}

// ============================================================================
// UNIT SELECTION
// ============================================================================

func TestLogicalUnit_OutOfRange(t *testing.T) {
	m := Build(Identity{}, Counts{PhysicalCores: 2, LogicalCores: 4})
	assert.Equal(t, -1, m.LogicalUnit(-1))
	assert.Equal(t, -1, m.LogicalUnit(2))
}

func TestUnit_Enumerated(t *testing.T) {
	// Linux numbering on many Intel parts puts SMT siblings N apart.
	c := Counts{
		PhysicalCores: 4,
		LogicalCores:  8,
		Cores:         [][]int{{0, 4}, {1, 5}, {2, 6}, {3, 7}},
	}
	m := Build(Identity{}, c)
	require.Len(t, m.Warnings, 1)
	assert.Contains(t, m.Warnings[0], "selection=enumerated")
	assert.Equal(t, 2, m.LogicalUnit(1))
	assert.Equal(t, 1, m.Unit(1, SelectEnumerated))
	assert.Equal(t, 2, m.Unit(1, SelectHeuristic))
	assert.Equal(t, 3, m.EnumeratedUnit(3))
	assert.Equal(t, -1, m.EnumeratedUnit(4))
}

func TestUnit_EnumeratedFallsBack(t *testing.T) {
	m := Build(Identity{}, Counts{PhysicalCores: 2, LogicalCores: 4})
	assert.Nil(t, m.Units)
	assert.Equal(t, 2, m.Unit(1, SelectEnumerated))
}

func TestBuild_CrossCheckWarns(t *testing.T) {
	// Efficiency cores enumerated first breaks the contiguous-tier assumption.
	c := Counts{
		PhysicalCores: 3,
		LogicalCores:  4,
		Cores:         [][]int{{0}, {1, 2}, {3}},
	}
	m := Build(Identity{}, c)
	assert.Equal(t, []int{2, 1, 1}, m.ThreadsPerCore)
	require.Len(t, m.Warnings, 1)
	assert.Contains(t, m.Warnings[0], "enumerated core 0")
	assert.Equal(t, 1, m.Unit(1, SelectEnumerated))
}

func TestBuild_IgnoresMismatchedCoreList(t *testing.T) {
	m := Build(Identity{}, Counts{PhysicalCores: 2, LogicalCores: 2, Cores: [][]int{{0}}})
	assert.Nil(t, m.Units)
}

func TestBuild_CrossCheckSiblingsHalfApart(t *testing.T) {
	// Common Linux numbering: cpu c and cpu c+8 share physical core c.
	cores := make([][]int, 8)
	for c := range cores {
		cores[c] = []int{c, c + 8}
	}
	m := Build(Identity{}, Counts{PhysicalCores: 8, LogicalCores: 16, Cores: cores})

	// Thread counts agree, so only the unit membership check can notice.
	assert.Equal(t, []int{2, 2, 2, 2, 2, 2, 2, 2}, m.ThreadsPerCore)
	require.Len(t, m.Warnings, 1)
	assert.Contains(t, m.Warnings[0], "core 1 ")
	assert.Contains(t, m.Warnings[0], "7 of 8 cores")
	assert.Contains(t, m.Warnings[0], "selection=enumerated")

	owner := make(map[int]int, 16)
	for c, units := range cores {
		for _, u := range units {
			owner[u] = c
		}
	}
	hit := map[int]bool{}
	for c := range cores {
		hit[owner[m.Unit(c, SelectHeuristic)]] = true
		assert.Equal(t, c, owner[m.Unit(c, SelectEnumerated)], "core %d", c)
	}
	assert.Len(t, hit, 4, "the derived rule revisits half the cores")
}

func TestBuild_CrossCheckAdjacentSiblingsQuiet(t *testing.T) {
	m := Build(Identity{}, Counts{
		PhysicalCores: 4, LogicalCores: 8,
		Cores: [][]int{{0, 1}, {2, 3}, {4, 5}, {6, 7}},
	})
	assert.Empty(t, m.Warnings)
}
