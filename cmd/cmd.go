package cmd

import (
	"fmt"
	"io"
	"math/rand/v2"
	"runtime"
	rtdebug "runtime/debug"

	"github.com/spf13/cobra"

	"boosttester/config"
	"boosttester/control"
	"boosttester/debug"
	"boosttester/orchestrator"
	"boosttester/pin"
	"boosttester/report"
	"boosttester/runner"
	"boosttester/stressarray"
	"boosttester/topology"
	"boosttester/utils"
)

// Version is stamped at build time with -ldflags "-X boosttester/cmd.Version=...".
var Version = "dev"

// Hooks replaced by tests.
var (
	enumerator = topology.Default
	identify   = topology.Identify
)

// NewCLI builds the command tree. The root command runs the sweep.
func NewCLI() *cobra.Command {
	root := &cobra.Command{
		Use:           "boosttester",
		Short:         "Find the boost clock each CPU core sustains under a memory-latency-bound load",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE:          runHandler,
	}
	config.RegisterFlags(root.PersistentFlags())

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Stress every physical core in turn until interrupted",
		Args:  cobra.NoArgs,
		RunE:  runHandler,
	}

	topologyCmd := &cobra.Command{
		Use:   "topology",
		Short: "Print the detected core layout and the unit each core maps to",
		Args:  cobra.NoArgs,
		RunE:  topologyHandler,
	}
	topologyCmd.Flags().Bool("json", false, "print as JSON")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "boosttester", Version, runtime.GOOS+"/"+runtime.GOARCH)
		},
	}

	root.AddCommand(runCmd, topologyCmd, versionCmd)
	return root
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	v, err := config.NewViper(cmd.Flags())
	if err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return config.Config{}, err
	}
	setupLogging(cfg, cmd.ErrOrStderr())
	return cfg, nil
}

func setupLogging(cfg config.Config, w io.Writer) {
	level, _ := debug.ParseLevel(cfg.LogLevel)
	debug.Setup(w, level, cfg.NoColor)
}

func discover() *topology.Model {
	return topology.Discover(enumerator(), identify())
}

func topologyHandler(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	m := discover()

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		return report.JSON(cmd.OutOrStdout(), m, cfg.Selection)
	}
	report.Summary(cmd.OutOrStdout(), m)
	fmt.Fprintln(cmd.OutOrStdout())
	report.Cores(cmd.OutOrStdout(), m, cfg.Selection)
	return nil
}

func runHandler(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	stop := control.New()
	release := stop.WatchSignals(cmd.Context())
	defer release()

	fmt.Fprintln(cmd.OutOrStdout(), "CPU Max boost tester")

	// PHASE 0: Topology discovery
	m := discover()
	report.Summary(cmd.OutOrStdout(), m)
	if m.PhysicalCores == 0 {
		debug.DropWarn("INIT", "no physical cores detected; nothing to stress")
		return nil
	}

	if cfg.HighPriority {
		if err := pin.RaisePriority(); err != nil {
			debug.DropWarn("INIT", "could not raise priority", "err", err)
		}
	}

	// PHASE 1: Stress array construction
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	debug.DropMessage("INIT", "memory required: "+utils.Itoa(int(utils.MiB(cfg.ArrayBytes())))+" MB")
	debug.DropMessage("INIT", "filling and shuffling stress array", "seed", seed)

	arr, err := stressarray.Build(cfg.ArrayBits, rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
	if err != nil {
		debug.DropError("ALLOC", err)
		return err
	}
	defer arr.Release()
	debug.DropMessage("INIT", "stress array ready: "+arr.String())

	// PHASE 2: Settle the heap before measurements begin
	runtime.GC()
	rtdebug.FreeOSMemory()

	// PHASE 3: Per-core sweep
	r := runner.New(pin.Affinity{}, stop, runner.Config{
		WarmupRounds:  cfg.WarmupRounds,
		WarmupPause:   cfg.WarmupPause,
		WarmupDivisor: runner.DefaultConfig().WarmupDivisor,
	})
	o := orchestrator.New(m, arr, r, stop, orchestrator.Config{
		Cooldown:  cfg.Cooldown,
		Rounds:    cfg.Rounds,
		Cores:     cfg.Cores,
		Selection: cfg.Selection,
	})
	o.SaveAffinity = pin.Save
	o.Run()
	return nil
}
