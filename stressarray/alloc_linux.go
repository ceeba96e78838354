//go:build linux

package stressarray

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Alloc maps n zeroed uint32 slots outside the Go heap so the collector never
// scans or moves the buffer. The returned func unmaps it.
func Alloc(n int) ([]uint32, func() error, error) {
	if n <= 0 {
		return nil, nil, ErrSize
	}
	size := n * int(unsafe.Sizeof(uint32(0)))
	b, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, nil, fmt.Errorf("mmap %d bytes: %w", size, err)
	}
	buf := unsafe.Slice((*uint32)(unsafe.Pointer(&b[0])), n)
	return buf, func() error { return unix.Munmap(b) }, nil
}
