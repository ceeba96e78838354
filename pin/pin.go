// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: pin.go — Logical unit pinning & scheduling priority
//
// Purpose:
//   - Restricts the calling OS thread to one logical execution unit.
//   - Optionally raises process priority so background work does not steal
//     the pinned unit mid-measurement.
//
// Notes:
//   - Callers must hold runtime.LockOSThread, otherwise the Go scheduler may
//     move the goroutine off the pinned thread.
//   - Failures are reported, never fatal: the stress run proceeds unpinned.
// ─────────────────────────────────────────────────────────────────────────────

package pin

import (
	"errors"

	periphcpu "periph.io/x/host/v3/cpu"
)

var (
	// ErrUnsupported means the platform cannot pin threads.
	ErrUnsupported = errors.New("affinity pinning is not supported")
	// ErrUnit rejects a unit id the affinity mask cannot express.
	ErrUnit = errors.New("logical unit out of range")
)

// Affinity pins the calling thread with sched_setaffinity(2).
type Affinity struct{}

// RaisePriority asks the OS to schedule this process ahead of normal work.
func RaisePriority() error {
	return periphcpu.SetHighPriority()
}
