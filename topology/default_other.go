//go:build !linux

package topology

// Default returns the platform enumerator. Only Linux exposes a topology
// source here.
func Default() Enumerator {
	return Unsupported{}
}
