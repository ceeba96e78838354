// ════════════════════════════════════════════════════════════════════════════════════════════════
// Per-Core Test Orchestrator
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: Round-Robin Boost Clock Sweep
//
// Description:
//   Walks every selected physical core in order, runs the stress workload on
//   the logical unit chosen for it, lets the core cool down, and repeats
//   round after round until the stop signal is raised.
//
// Architecture:
//   - One goroutine locked to one OS thread; only its affinity moves
//   - Stop signal polled between runs; pauses wake early on shutdown
//   - Every run's final walk value is XOR-folded into a published checksum
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package orchestrator

import (
	"runtime"
	"sync/atomic"
	"time"

	"boosttester/constants"
	"boosttester/debug"
	"boosttester/runner"
	"boosttester/stressarray"
	"boosttester/topology"
	"boosttester/utils"
)

// Runner executes one pinned stress run.
type Runner interface {
	Run(unit int, a *stressarray.Array) runner.Result
}

// Stopper is the abstract cancellation signal plus interruptible pauses.
type Stopper interface {
	Stopping() bool
	Pause(d time.Duration) bool
}

// Config tunes the sweep.
type Config struct {
	// Cooldown separates consecutive runs.
	Cooldown time.Duration
	// Rounds bounds the sweep; 0 runs until stopped.
	Rounds int
	// Cores restricts the sweep to these physical core indices; empty means all.
	Cores []int
	// Selection picks the core → unit rule.
	Selection topology.Selection
}

// DefaultConfig sweeps every core forever with a 3 s cool-down.
func DefaultConfig() Config {
	return Config{
		Cooldown:  constants.Cooldown,
		Selection: topology.SelectHeuristic,
	}
}

// Target is one step of a round.
type Target struct {
	Core int
	Unit int
}

// Report is published after every run.
type Report struct {
	Round int
	Core  int
	runner.Result
}

// Orchestrator owns the sweep. Model and array are shared read-only.
type Orchestrator struct {
	model *topology.Model
	arr   *stressarray.Array
	run   Runner
	stop  Stopper
	cfg   Config

	// OnReport, when set, receives every run's outcome.
	OnReport func(Report)

	// SaveAffinity, when set, captures the locked thread's mask before the
	// sweep; the returned func restores it before the thread is unlocked.
	SaveAffinity func() (func() error, error)

	checksum atomic.Uint32
	runs     atomic.Uint64
	rounds   atomic.Uint64
}

// New wires an orchestrator.
func New(m *topology.Model, a *stressarray.Array, r Runner, s Stopper, cfg Config) *Orchestrator {
	return &Orchestrator{model: m, arr: a, run: r, stop: s, cfg: cfg}
}

// Plan lists the (core, unit) pairs of one round. Requested cores outside
// the model are dropped with a warning.
func (o *Orchestrator) Plan() []Target {
	n := o.model.PhysicalCores
	cores := o.cfg.Cores
	if len(cores) == 0 {
		cores = make([]int, n)
		for c := range cores {
			cores[c] = c
		}
	}

	plan := make([]Target, 0, len(cores))
	for _, c := range cores {
		u := o.model.Unit(c, o.cfg.Selection)
		if u < 0 {
			debug.DropWarn("PLAN", "skipping core "+utils.Itoa(c)+": not present", "cores", n)
			continue
		}
		plan = append(plan, Target{Core: c, Unit: u})
	}
	return plan
}

// Round runs plan once and reports how many runs completed. It stops early
// when the signal is raised.
func (o *Orchestrator) Round(round int, plan []Target) int {
	done := 0
	for _, t := range plan {
		if o.stop.Stopping() {
			return done
		}

		debug.DropMessage("CORE", "running on core "+utils.Itoa(t.Core), "unit", t.Unit, "round", round)
		res := o.run.Run(t.Unit, o.arr)
		o.publish(Report{Round: round, Core: t.Core, Result: res})
		if res.Interrupted {
			return done
		}
		done++

		// Let the core cool down before the next unit is measured.
		if !o.stop.Pause(o.cfg.Cooldown) {
			return done
		}
	}
	return done
}

func (o *Orchestrator) publish(r Report) {
	o.checksum.Store(o.checksum.Load() ^ r.Value)
	o.runs.Add(1)

	attrs := []any{
		"unit", r.Unit,
		"value", r.Value,
		"warmup", r.Warmup.Round(time.Millisecond),
		"sustained", r.Sustained.Round(time.Millisecond),
	}
	if !r.Pinned {
		attrs = append(attrs, "pinned", false)
	}
	if r.Interrupted {
		debug.DropMessage("CORE", "core "+utils.Itoa(r.Core)+" interrupted", attrs...)
	} else {
		debug.DropMessage("CORE", "core "+utils.Itoa(r.Core)+" done", attrs...)
	}

	if o.OnReport != nil {
		o.OnReport(r)
	}
}

// Run sweeps until the stop signal, or until cfg.Rounds rounds when set.
// With no testable core it logs and returns at once.
func (o *Orchestrator) Run() {
	plan := o.Plan()
	if len(plan) == 0 {
		debug.DropWarn("ORCHESTRATOR", "no physical cores to test")
		return
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if o.SaveAffinity != nil {
		restore, err := o.SaveAffinity()
		if err != nil {
			debug.DropTrace("ORCHESTRATOR", "affinity not saved", "err", err)
		} else {
			defer func() {
				if err := restore(); err != nil {
					debug.DropTrace("ORCHESTRATOR", "affinity not restored", "err", err)
				}
			}()
		}
	}

	for round := 0; o.cfg.Rounds == 0 || round < o.cfg.Rounds; round++ {
		if o.stop.Stopping() {
			break
		}
		o.Round(round, plan)
		o.rounds.Add(1)
	}
	debug.DropMessage("ORCHESTRATOR", "stopped",
		"rounds", o.rounds.Load(), "runs", o.runs.Load(), "checksum", o.checksum.Load())
}

// Checksum is the XOR of every published walk value.
func (o *Orchestrator) Checksum() uint32 { return o.checksum.Load() }

// Runs counts published runs.
func (o *Orchestrator) Runs() uint64 { return o.runs.Load() }

// Rounds counts started rounds.
func (o *Orchestrator) Rounds() uint64 { return o.rounds.Load() }
