package config

import (
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"codeberg.org/mutker/cpumon/internal/errors"
	"codeberg.org/mutker/cpumon/internal/logger"
	"codeberg.org/mutker/cpumon/internal/monitor"
	"codeberg.org/mutker/cpumon/internal/runner"
	"codeberg.org/mutker/cpumon/internal/tabular"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	Name      = "cpumon"
	EnvPrefix = "CPUMON"

	DefaultInterval            = 1000
	DefaultTemperatureInterval = 1000
	DefaultDuration            = 60
	DefaultCPUPath             = "../data/cpu_data.csv"
	DefaultTemperaturePath     = "../data/temperature_data.csv"

	// Largest values that still fit a time.Duration
	maxSeconds      = math.MaxInt64 / int64(time.Second)
	maxMilliseconds = math.MaxInt64 / int64(time.Millisecond)
)

type Config struct {
	Interval            int      `mapstructure:"interval"`
	Duration            int      `mapstructure:"duration"`
	CPUPath             string   `mapstructure:"cpu-path"`
	TemperaturePath     string   `mapstructure:"temperature-path"`
	TemperatureInterval int      `mapstructure:"temperature-interval"`
	SensorPrefix        []string `mapstructure:"sensor-prefix"`
	WriteMode           string   `mapstructure:"write-mode"`
	OnWriteError        string   `mapstructure:"on-write-error"`
	Archive             string   `mapstructure:"archive"`
	MetricsTextfile     string   `mapstructure:"metrics-textfile"`
	Report              string   `mapstructure:"report"`
	PIDFile             string   `mapstructure:"pidfile"`
	ConfigFile          string   `mapstructure:"config"`
	LogLevel            string   `mapstructure:"log-level"`
	LogStyle            string   `mapstructure:"log-style"`
}

// DefaultPIDFile names a PID file after the pair of output files, so only
// instances writing the same CSV files exclude each other.
func DefaultPIDFile(cpuPath, temperaturePath string) string {
	h := fnv.New32a()
	for _, p := range []string{cpuPath, temperaturePath} {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("%s-%08x.pid", Name, h.Sum32()))
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet(Name, pflag.ContinueOnError)
	fs.SortFlags = false

	fs.Int("interval", DefaultInterval, "CPU sampling interval in milliseconds")
	fs.Int("duration", DefaultDuration, "Run duration in seconds")
	fs.String("cpu-path", DefaultCPUPath, "CPU samples CSV file")
	fs.String("temperature-path", DefaultTemperaturePath, "Temperature samples CSV file")
	fs.Int("temperature-interval", DefaultTemperatureInterval, "Temperature sampling interval in milliseconds")
	fs.StringSlice("sensor-prefix", []string{monitor.DefaultSensorPrefix}, "Sensor label prefixes to keep")
	fs.String("write-mode", string(tabular.ModeRewrite), "CSV write mode: rewrite or append")
	fs.String("on-write-error", string(runner.PolicyStop), "On write failure: stop or continue")
	fs.String("archive", "", "SQLite archive path (disabled when empty)")
	fs.String("metrics-textfile", "", "Prometheus textfile for run statistics (disabled when empty)")
	fs.String("report", "", "YAML run report path (disabled when empty)")
	fs.String("pidfile", "", "PID file (derived from the output paths when empty)")
	addCommonFlags(fs)

	return fs
}

func addCommonFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "TOML config file")
	fs.String("log-level", logger.DefaultLevel, "Log level: trace, debug, info, warn, error")
	fs.String("log-style", logger.StyleAuto, "Log style: auto, always, never, json")
}

func usage(name string, fs *pflag.FlagSet) string {
	var b strings.Builder
	b.WriteString("Usage: " + name + " [flags]\n\nFlags:\n")
	b.WriteString(fs.FlagUsages())
	return b.String()
}

// Usage returns the flag summary printed on configuration errors
func Usage() string {
	return usage(Name, newFlagSet())
}

// resolve parses args into fs and unmarshals defaults, an optional TOML
// file, the prefixed environment and args into out, in increasing order of
// precedence.
func resolve(fs *pflag.FlagSet, envPrefix string, args []string, out any) error {
	errFactory := errors.New()

	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return err
		}
		return errFactory.Wrap(ErrBindFlags, err)
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return errFactory.Wrap(ErrBindFlags, err)
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return errFactory.WithData(ErrReadConfig, struct {
				Path  string
				Error string
			}{
				Path:  path,
				Error: err.Error(),
			})
		}
	}

	if err := v.Unmarshal(out); err != nil {
		return errFactory.Wrap(ErrInvalidConfig, err)
	}

	return nil
}

// Load resolves the sampler configuration from defaults, an optional TOML
// file, the CPUMON_ environment and args.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	if err := resolve(newFlagSet(), EnvPrefix, args, cfg); err != nil {
		return nil, err
	}
	if cfg.PIDFile == "" {
		cfg.PIDFile = DefaultPIDFile(cfg.CPUPath, cfg.TemperaturePath)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validateInterval(field string, ms int) error {
	if ms <= 0 || int64(ms) > maxMilliseconds {
		return errors.New().WithData(ErrInvalidInterval, struct {
			Field string
			Value int
		}{field, ms})
	}
	return nil
}

func validateDuration(field string, seconds int) error {
	if seconds < 0 || int64(seconds) > maxSeconds {
		return errors.New().WithData(ErrInvalidDuration, struct {
			Field string
			Value int
		}{field, seconds})
	}
	return nil
}

func validateLogging(level, style string) error {
	errFactory := errors.New()

	if _, err := logger.ParseLevel(level); err != nil {
		return errFactory.Wrap(ErrInvalidLogLevel, err)
	}
	if !logger.ValidStyle(style) {
		return errFactory.WithData(ErrInvalidLogStyle, style)
	}
	return nil
}

func (c *Config) Validate() error {
	errFactory := errors.New()

	if err := validateInterval("interval", c.Interval); err != nil {
		return err
	}
	if err := validateInterval("temperature-interval", c.TemperatureInterval); err != nil {
		return err
	}
	if err := validateDuration("duration", c.Duration); err != nil {
		return err
	}
	if c.CPUPath == "" || c.TemperaturePath == "" {
		return errFactory.WithMessage(ErrInvalidConfig, "output paths must not be empty")
	}
	if _, err := tabular.ParseMode(c.WriteMode); err != nil {
		return errFactory.Wrap(ErrInvalidWriteMode, err)
	}
	if _, err := runner.ParsePolicy(c.OnWriteError); err != nil {
		return errFactory.Wrap(ErrInvalidPolicy, err)
	}

	return validateLogging(c.LogLevel, c.LogStyle)
}

func (c *Config) CPUInterval() time.Duration {
	return time.Duration(c.Interval) * time.Millisecond
}

func (c *Config) TemperatureEvery() time.Duration {
	return time.Duration(c.TemperatureInterval) * time.Millisecond
}

func (c *Config) RunDuration() time.Duration {
	return time.Duration(c.Duration) * time.Second
}

// Mode and Policy are only valid after Validate
func (c *Config) Mode() tabular.Mode {
	m, _ := tabular.ParseMode(c.WriteMode)
	return m
}

func (c *Config) Policy() runner.Policy {
	p, _ := runner.ParsePolicy(c.OnWriteError)
	return p
}
