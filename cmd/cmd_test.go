package cmd

import (
	"bytes"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sugawarayuuta/sonnet"

	"boosttester/report"
	"boosttester/topology"
)

// fakeMachine has two cores with two threads each, siblings split by 2.
func fakeMachine(t *testing.T) {
	t.Helper()
	fsys := fstest.MapFS{}
	siblings := []string{"0,2", "1,3", "0,2", "1,3"}
	for i, s := range siblings {
		base := "cpu/cpu" + string(rune('0'+i))
		fsys[base+"/topology/thread_siblings_list"] = &fstest.MapFile{Data: []byte(s + "\n")}
		fsys[base+"/topology/physical_package_id"] = &fstest.MapFile{Data: []byte("0\n")}
	}

	oldEnum, oldID := enumerator, identify
	enumerator = func() topology.Enumerator { return topology.NewSysfs(fsys) }
	identify = func() topology.Identity { return topology.Identity{Vendor: "AuthenticAMD", Family: 25} }
	t.Cleanup(func() { enumerator, identify = oldEnum, oldID })
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewCLI()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestTopology_JSON(t *testing.T) {
	fakeMachine(t)
	out, _, err := execute(t, "topology", "--json", "--selection=enumerated", "--no-color")
	require.NoError(t, err)

	var v report.View
	require.NoError(t, sonnet.Unmarshal([]byte(out), &v))
	assert.Equal(t, "AuthenticAMD", v.Vendor)
	assert.Equal(t, 2, v.PhysicalCores)
	assert.Equal(t, 4, v.LogicalCores)
	require.Len(t, v.Cores, 2)
	assert.Equal(t, 1, v.Cores[1].Unit)

	// The derived rule would pin unit 2, which is core 0's sibling.
	require.Len(t, v.Warnings, 1)
	assert.Contains(t, v.Warnings[0], "selection=enumerated")
}

func TestTopology_Table(t *testing.T) {
	fakeMachine(t)
	out, _, err := execute(t, "topology", "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, "Physical cores found:")
	assert.Contains(t, out, "ENUMERATED")
}

func TestRun_OneRound(t *testing.T) {
	fakeMachine(t)
	out, logs, err := execute(t, "run",
		"--rounds=1", "--array-bits=4", "--warmup-rounds=2", "--warmup-pause=0s",
		"--cooldown=0s", "--seed=1", "--no-color",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "CPU Max boost tester")
	assert.Contains(t, logs, "running on core 0")
	assert.Contains(t, logs, "running on core 1")
	assert.Contains(t, logs, "ORCHESTRATOR: stopped")
}

func TestRun_NoCores(t *testing.T) {
	old := enumerator
	enumerator = func() topology.Enumerator { return topology.Unsupported{} }
	t.Cleanup(func() { enumerator = old })

	_, logs, err := execute(t, "--rounds=1", "--no-color")
	require.NoError(t, err)
	assert.Contains(t, logs, "nothing to stress")
}

func TestRun_InvalidConfig(t *testing.T) {
	fakeMachine(t)
	_, _, err := execute(t, "run", "--array-bits=40")
	require.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "boosttester dev")
}
