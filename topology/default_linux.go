//go:build linux

package topology

import "os"

// SysfsRoot is where the kernel publishes cpu and node topology.
const SysfsRoot = "/sys/devices/system"

// Default returns the platform enumerator.
func Default() Enumerator {
	return NewSysfs(os.DirFS(SysfsRoot))
}
