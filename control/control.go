// control.go — Stop signalling and cool-down pauses for the test loop
// ============================================================================
// SYSTEM CONTROL ORCHESTRATION
// ============================================================================
//
// Control package provides the single stop signal the orchestrator polls
// between runs, and the blocking pauses (warm-up gaps, cool-downs) that the
// signal can cut short.
//
// Architecture overview:
//   • Stop is a one-shot latch: a flag for cheap polling plus a channel that
//     wakes any pause in progress
//   • WatchSignals converts SIGINT/SIGTERM into Shutdown
//   • The zero Stop is usable
//
// Threading model:
//   • The stress goroutine polls Stopping() and blocks in Pause()
//   • The signal goroutine calls Shutdown() exactly when the operator asks

package control

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

// ============================================================================
// STOP LATCH
// ============================================================================

// Stop is a one-shot shutdown latch.
type Stop struct {
	flag uint32
	once sync.Once
	mu   sync.Mutex
	ch   chan struct{}
}

// New returns an armed latch.
func New() *Stop {
	return &Stop{}
}

func (s *Stop) done() chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ch == nil {
		s.ch = make(chan struct{})
	}
	return s.ch
}

// Shutdown raises the latch. Safe to call from any goroutine, any number of
// times.
func (s *Stop) Shutdown() {
	s.once.Do(func() {
		atomic.StoreUint32(&s.flag, 1)
		close(s.done())
	})
}

// Stopping reports whether Shutdown has been called.
//
//go:nosplit
//go:inline
func (s *Stop) Stopping() bool {
	return atomic.LoadUint32(&s.flag) != 0
}

// Done returns a channel closed on Shutdown.
func (s *Stop) Done() <-chan struct{} {
	return s.done()
}

// ============================================================================
// PAUSES
// ============================================================================

// Pause blocks for d or until Shutdown, whichever is first, and reports
// whether the full duration elapsed.
func (s *Stop) Pause(d time.Duration) bool {
	if d <= 0 {
		return !s.Stopping()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-s.done():
		return false
	}
}

// ============================================================================
// OS SIGNALS
// ============================================================================

// WatchSignals raises the latch on SIGINT or SIGTERM, or when ctx ends.
// The returned func releases the signal registration.
func (s *Stop) WatchSignals(ctx context.Context) func() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	quit := make(chan struct{})

	go func() {
		select {
		case <-sigs:
			s.Shutdown()
		case <-ctx.Done():
			s.Shutdown()
		case <-quit:
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(sigs)
			close(quit)
		})
	}
}
