package topology

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentify(t *testing.T) {
	var id Identity
	assert.NotPanics(t, func() { id = Identify() })
	assert.GreaterOrEqual(t, id.Family, 0)
	assert.GreaterOrEqual(t, id.BoostHz, int64(0))

	if runtime.GOARCH != "amd64" {
		t.Skip("CPUID vendor string is only guaranteed on amd64")
	}
	assert.NotEmpty(t, id.Vendor)
}
