// Package config layers defaults, an optional YAML file, BOOSTTESTER_*
// environment variables and command-line flags into one Config.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"boosttester/constants"
	"boosttester/debug"
	"boosttester/topology"
	"boosttester/utils"
)

// Keys shared by flags, environment and file.
const (
	KeyConfig       = "config"
	KeyArrayBits    = "array-bits"
	KeyWarmupRounds = "warmup-rounds"
	KeyWarmupPause  = "warmup-pause"
	KeyCooldown     = "cooldown"
	KeyRounds       = "rounds"
	KeyCores        = "cores"
	KeySelection    = "selection"
	KeySeed         = "seed"
	KeyHighPriority = "high-priority"
	KeyLogLevel     = "log-level"
	KeyNoColor      = "no-color"
)

// EnvPrefix scopes environment overrides, e.g. BOOSTTESTER_COOLDOWN=5s.
const EnvPrefix = "BOOSTTESTER"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the resolved run configuration.
type Config struct {
	ArrayBits    int
	WarmupRounds int
	WarmupPause  time.Duration
	Cooldown     time.Duration
	Rounds       int
	Cores        []int
	Selection    topology.Selection
	Seed         uint64
	HighPriority bool
	LogLevel     string
	NoColor      bool
}

// Default mirrors the compile-time constants.
func Default() Config {
	return Config{
		ArrayBits:    constants.ArrayBits,
		WarmupRounds: constants.WarmupRounds,
		WarmupPause:  constants.WarmupPause,
		Cooldown:     constants.Cooldown,
		Selection:    topology.SelectHeuristic,
		LogLevel:     "info",
	}
}

// RegisterFlags declares every key on fs with its default.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String(KeyConfig, "", "YAML config file")
	fs.Int(KeyArrayBits, d.ArrayBits, "stress array half size as a power of two (N = 2<<bits entries)")
	fs.Int(KeyWarmupRounds, d.WarmupRounds, "warm-up bursts before the sustained walk")
	fs.Duration(KeyWarmupPause, d.WarmupPause, "pause between warm-up bursts")
	fs.Duration(KeyCooldown, d.Cooldown, "cool-down between per-core runs")
	fs.Int(KeyRounds, d.Rounds, "rounds to run; 0 runs until interrupted")
	fs.String(KeyCores, "", `physical cores to test, e.g. "0-3,8"; empty tests all`)
	fs.String(KeySelection, string(d.Selection), "core to unit rule: heuristic or enumerated")
	fs.Uint64(KeySeed, d.Seed, "shuffle seed; 0 picks a random one")
	fs.Bool(KeyHighPriority, d.HighPriority, "raise process scheduling priority")
	fs.String(KeyLogLevel, d.LogLevel, "log level: debug, info, warn, error")
	fs.Bool(KeyNoColor, d.NoColor, "disable colored log output")
}

// NewViper returns a viper instance with defaults, env binding and fs bound.
func NewViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	d := Default()
	v.SetDefault(KeyArrayBits, d.ArrayBits)
	v.SetDefault(KeyWarmupRounds, d.WarmupRounds)
	v.SetDefault(KeyWarmupPause, d.WarmupPause)
	v.SetDefault(KeyCooldown, d.Cooldown)
	v.SetDefault(KeyRounds, d.Rounds)
	v.SetDefault(KeyCores, "")
	v.SetDefault(KeySelection, string(d.Selection))
	v.SetDefault(KeySeed, d.Seed)
	v.SetDefault(KeyHighPriority, d.HighPriority)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyNoColor, d.NoColor)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Load reads the optional config file named by the "config" key and
// resolves every key into a validated Config.
func Load(v *viper.Viper) (Config, error) {
	if path := v.GetString(KeyConfig); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	c := Config{
		ArrayBits:    v.GetInt(KeyArrayBits),
		WarmupRounds: v.GetInt(KeyWarmupRounds),
		WarmupPause:  v.GetDuration(KeyWarmupPause),
		Cooldown:     v.GetDuration(KeyCooldown),
		Rounds:       v.GetInt(KeyRounds),
		Selection:    topology.Selection(strings.ToLower(v.GetString(KeySelection))),
		Seed:         v.GetUint64(KeySeed),
		HighPriority: v.GetBool(KeyHighPriority),
		LogLevel:     v.GetString(KeyLogLevel),
		NoColor:      v.GetBool(KeyNoColor),
	}

	cores, err := utils.ParseCPUList(v.GetString(KeyCores))
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s: %v", ErrInvalid, KeyCores, err)
	}
	c.Cores = cores

	return c, c.Validate()
}

// Validate rejects values the runner or orchestrator cannot honor.
func (c Config) Validate() error {
	var errs []error
	if c.ArrayBits < constants.ArrayBitsMin || c.ArrayBits > constants.ArrayBitsMax {
		errs = append(errs, fmt.Errorf("%s must be in [%d, %d], got %d",
			KeyArrayBits, constants.ArrayBitsMin, constants.ArrayBitsMax, c.ArrayBits))
	}
	if c.WarmupRounds < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", KeyWarmupRounds))
	}
	if c.WarmupPause < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", KeyWarmupPause))
	}
	if c.Cooldown < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", KeyCooldown))
	}
	if c.Rounds < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", KeyRounds))
	}
	switch c.Selection {
	case topology.SelectHeuristic, topology.SelectEnumerated:
	default:
		errs = append(errs, fmt.Errorf("%s must be heuristic or enumerated, got %q", KeySelection, c.Selection))
	}
	if _, ok := debug.ParseLevel(c.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("%s %q is not a level", KeyLogLevel, c.LogLevel))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

// ArrayBytes is the stress array footprint for c.
func (c Config) ArrayBytes() uint64 {
	return (uint64(2) << uint(c.ArrayBits)) * 4
}
