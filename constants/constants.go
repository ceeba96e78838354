// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: constants.go — Stress workload shape & pacing defaults
//
// Purpose:
//   - Defines the default stress array geometry and the warm-up/cool-down
//     pacing used by the runner and orchestrator.
//   - Every value here is a default; config can override all of them.
//
// Notes:
//   - Array size is always a power of two so N/8192 divides evenly
//   - Index arithmetic is uint32: ArrayBitsMax keeps N below 2^31
//
// ⚠️ No runtime logic here — all values must be compile-time resolvable
// ─────────────────────────────────────────────────────────────────────────────

package constants

import "time"

// ───────────────────────────── Stress Array ───────────────────────────────

const (
	// ArrayBits sets the default half size: 1 << 25 = 0x1FFFFFF + 1 entries.
	// Full array = 2 halves × 32 Mi entries × 4 B = 256 MiB, far beyond any L3.
	ArrayBits = 25

	// HalfArray is the default number of entries per half.
	HalfArray = 1 << ArrayBits

	// ArraySize is the default total number of uint32 entries.
	ArraySize = HalfArray * 2

	// ArrayBitsMin is the smallest geometry still fixed-point free (N = 4).
	ArrayBitsMin = 1

	// ArrayBitsMax bounds N to 2^31 so every index fits in uint32.
	ArrayBitsMax = 30
)

// ───────────────────────────── Warm-up Phase ──────────────────────────────

const (
	// WarmupRounds is the number of short walk bursts before the sustained phase.
	WarmupRounds = 100

	// WarmupDivisor scales a burst to N/WarmupDivisor walk steps.
	WarmupDivisor = 8192

	// WarmupPause separates consecutive warm-up bursts.
	WarmupPause = 50 * time.Millisecond
)

// ───────────────────────────── Orchestration ──────────────────────────────

const (
	// Cooldown is the pause between two per-core runs so temperature and
	// clocks settle before the next unit is measured.
	Cooldown = 3 * time.Second

	// EnumerateAttempts bounds the two-phase topology query loop.
	EnumerateAttempts = 4
)
