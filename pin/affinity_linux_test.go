//go:build linux

package pin

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPin_AllowedUnit(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	restore, err := Save()
	require.NoError(t, err)
	defer func() { require.NoError(t, restore()) }()

	units, err := Allowed()
	require.NoError(t, err)
	require.NotEmpty(t, units)

	target := units[len(units)-1]
	require.NoError(t, Affinity{}.Pin(target))

	now, err := Allowed()
	require.NoError(t, err)
	assert.Equal(t, []int{target}, now)
}

func TestPin_Restore(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	before, err := Allowed()
	require.NoError(t, err)
	restore, err := Save()
	require.NoError(t, err)

	require.NoError(t, Affinity{}.Pin(before[0]))
	require.NoError(t, restore())

	after, err := Allowed()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestPin_OutOfRange(t *testing.T) {
	assert.ErrorIs(t, Affinity{}.Pin(-1), ErrUnit)
	assert.ErrorIs(t, Affinity{}.Pin(maxUnits), ErrUnit)
}
