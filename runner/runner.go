// ════════════════════════════════════════════════════════════════════════════════════════════════
// ⚡ CORE-PINNED STRESS RUNNER
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: Single-Unit Memory-Latency Workload
//
// Description:
//   Pins the calling thread to one logical unit and random-walks the shared
//   stress array: a warm-up of short bursts separated by pauses so clocks and
//   temperature ramp visibly, then one long uninterrupted walk of N steps
//   that is the sustained measurement window.
//
// Threading model:
//   The caller must hold runtime.LockOSThread for the whole Run, so the
//   affinity applied here stays on the thread doing the walk.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package runner

import (
	"time"

	"boosttester/constants"
	"boosttester/debug"
	"boosttester/stressarray"
)

// Pinner restricts the calling thread to a logical unit.
type Pinner interface {
	Pin(unit int) error
}

// Pauser blocks for a duration and reports false when cut short.
type Pauser interface {
	Pause(d time.Duration) bool
}

// Config shapes the warm-up phase.
type Config struct {
	WarmupRounds  int
	WarmupDivisor int
	WarmupPause   time.Duration
}

// DefaultConfig returns 100 bursts of N/8192 steps with 50 ms gaps.
func DefaultConfig() Config {
	return Config{
		WarmupRounds:  constants.WarmupRounds,
		WarmupDivisor: constants.WarmupDivisor,
		WarmupPause:   constants.WarmupPause,
	}
}

// Result is the observable outcome of one run. Value is the final walk
// position; publishing it keeps the walk from being dead code.
type Result struct {
	Unit        int
	Value       uint32
	Pinned      bool
	PinErr      error
	Warmup      time.Duration
	Sustained   time.Duration
	Steps       uint64
	Interrupted bool
}

// Runner executes the workload. It holds no per-run state and may be reused.
type Runner struct {
	pin   Pinner
	pause Pauser
	cfg   Config
}

// New builds a runner. A zero WarmupDivisor is treated as the default.
func New(p Pinner, pause Pauser, cfg Config) *Runner {
	if cfg.WarmupDivisor <= 0 {
		cfg.WarmupDivisor = constants.WarmupDivisor
	}
	if cfg.WarmupRounds < 0 {
		cfg.WarmupRounds = 0
	}
	return &Runner{pin: p, pause: pause, cfg: cfg}
}

// Run pins to unit and walks a. Pinning failure is tolerated: the walk runs
// anyway and the error is carried in the Result.
func (r *Runner) Run(unit int, a *stressarray.Array) Result {
	res := Result{Unit: unit}
	if err := r.pin.Pin(unit); err != nil {
		res.PinErr = err
		debug.DropTrace("PIN", "running unpinned", "unit", unit, "err", err)
	} else {
		res.Pinned = true
	}

	value := a.At(0)
	burst := a.Len() / r.cfg.WarmupDivisor

	start := time.Now()
	for n := 0; n < r.cfg.WarmupRounds; n++ {
		value = a.Walk(value, burst)
		res.Steps += uint64(burst)
		if !r.pause.Pause(r.cfg.WarmupPause) {
			res.Warmup = time.Since(start)
			res.Value = value
			res.Interrupted = true
			return res
		}
	}
	res.Warmup = time.Since(start)

	start = time.Now()
	value = a.Walk(value, a.Len())
	res.Sustained = time.Since(start)
	res.Steps += uint64(a.Len())

	res.Value = value
	return res
}
