// ════════════════════════════════════════════════════════════════════════════════════════════════
// CPU Boost Clock Tester - Main Entry Point
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: Process Entry Point
//
// Description:
//   Stresses one logical unit at a time with a DRAM-latency-bound random
//   walk so the operator can watch each core's sustained boost clock in an
//   external monitor.
//
// Architecture:
//   - Phase 0: Topology discovery (sysfs + CPUID)
//   - Phase 1: Stress array construction
//   - Phase 2: Heap settle
//   - Phase 3: Per-core sweep until SIGINT/SIGTERM
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package main

import (
	"context"

	"github.com/spf13/cobra"

	"boosttester/cmd"
)

func main() {
	cobra.CheckErr(cmd.NewCLI().ExecuteContext(context.Background()))
}
