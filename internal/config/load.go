package config

import (
	"math"
	"time"

	"codeberg.org/mutker/cpumon/internal/errors"
	"github.com/spf13/pflag"
)

const (
	LoadName      = "cpuload"
	LoadEnvPrefix = "CPULOAD"

	DefaultLoad         = 0.5
	DefaultLoadDuration = 60
	DefaultLoadInterval = 100
)

// LoadConfig configures the load generator. A profile, when set, replaces
// load, duration and cores.
type LoadConfig struct {
	Load       float64 `mapstructure:"load"`
	Duration   int     `mapstructure:"duration"`
	Cores      []int   `mapstructure:"cores"`
	Profile    string  `mapstructure:"profile"`
	Interval   int     `mapstructure:"interval"`
	ConfigFile string  `mapstructure:"config"`
	LogLevel   string  `mapstructure:"log-level"`
	LogStyle   string  `mapstructure:"log-style"`
}

func newLoadFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet(LoadName, pflag.ContinueOnError)
	fs.SortFlags = false

	fs.Float64("load", DefaultLoad, "Target load per core, 0 to 1")
	fs.Int("duration", DefaultLoadDuration, "Load duration in seconds")
	fs.IntSlice("cores", nil, "Cores to load (all when empty)")
	fs.String("profile", "", "JSON load profile to play instead of a fixed load")
	fs.Int("interval", DefaultLoadInterval, "Measurement and control interval in milliseconds")
	addCommonFlags(fs)

	return fs
}

func LoadUsage() string {
	return usage(LoadName, newLoadFlagSet())
}

// LoadGenerator resolves the load generator configuration the same way Load
// does, reading the CPULOAD_ environment.
func LoadGenerator(args []string) (*LoadConfig, error) {
	cfg := &LoadConfig{}
	if err := resolve(newLoadFlagSet(), LoadEnvPrefix, args, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *LoadConfig) Validate() error {
	errFactory := errors.New()

	if math.IsNaN(c.Load) || c.Load < 0 || c.Load > 1 {
		return errFactory.WithData(ErrInvalidLoad, c.Load)
	}
	if err := validateDuration("duration", c.Duration); err != nil {
		return err
	}
	if err := validateInterval("interval", c.Interval); err != nil {
		return err
	}
	for _, core := range c.Cores {
		if core < 0 {
			return errFactory.WithData(ErrInvalidCore, core)
		}
	}

	return validateLogging(c.LogLevel, c.LogStyle)
}

func (c *LoadConfig) RunDuration() time.Duration {
	return time.Duration(c.Duration) * time.Second
}

func (c *LoadConfig) ControlInterval() time.Duration {
	return time.Duration(c.Interval) * time.Millisecond
}
