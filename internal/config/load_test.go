package config_test

import (
	"testing"
	"time"

	"codeberg.org/mutker/cpumon/internal/config"
	"codeberg.org/mutker/cpumon/internal/errors"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearLoadEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CPULOAD_CONFIG", "CPULOAD_LOAD", "CPULOAD_DURATION", "CPULOAD_CORES",
		"CPULOAD_PROFILE", "CPULOAD_INTERVAL", "CPULOAD_LOG_LEVEL", "CPULOAD_LOG_STYLE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadGeneratorDefaults(t *testing.T) {
	clearLoadEnv(t)

	cfg, err := config.LoadGenerator(nil)
	require.NoError(t, err)

	assert.Equal(t, 0.5, cfg.Load)
	assert.Equal(t, time.Minute, cfg.RunDuration())
	assert.Equal(t, 100*time.Millisecond, cfg.ControlInterval())
	assert.Empty(t, cfg.Cores)
	assert.Empty(t, cfg.Profile)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadGeneratorFlags(t *testing.T) {
	clearLoadEnv(t)

	cfg, err := config.LoadGenerator([]string{
		"--load", "0.8",
		"--duration", "5",
		"--cores", "0,2",
		"--interval", "50",
	})
	require.NoError(t, err)

	assert.Equal(t, 0.8, cfg.Load)
	assert.Equal(t, 5*time.Second, cfg.RunDuration())
	assert.Equal(t, []int{0, 2}, cfg.Cores)
	assert.Equal(t, 50*time.Millisecond, cfg.ControlInterval())
}

func TestLoadGeneratorEnvironment(t *testing.T) {
	clearLoadEnv(t)
	t.Setenv("CPULOAD_LOAD", "0.25")
	t.Setenv("CPULOAD_PROFILE", "/etc/cpuload/profile.json")

	cfg, err := config.LoadGenerator(nil)
	require.NoError(t, err)
	assert.Equal(t, 0.25, cfg.Load)
	assert.Equal(t, "/etc/cpuload/profile.json", cfg.Profile)
}

func TestLoadGeneratorInvalid(t *testing.T) {
	clearLoadEnv(t)

	tests := []struct {
		name string
		args []string
		code errors.ErrorCode
	}{
		{"load above one", []string{"--load", "1.5"}, config.ErrInvalidLoad},
		{"negative load", []string{"--load=-0.1"}, config.ErrInvalidLoad},
		{"negative duration", []string{"--duration", "-1"}, config.ErrInvalidDuration},
		{"duration overflows", []string{"--duration", "10000000000"}, config.ErrInvalidDuration},
		{"zero interval", []string{"--interval", "0"}, config.ErrInvalidInterval},
		{"negative core", []string{"--cores=-1"}, config.ErrInvalidCore},
		{"unknown log level", []string{"--log-level", "loud"}, config.ErrInvalidLogLevel},
		{"non-numeric load", []string{"--load", "high"}, config.ErrBindFlags},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.LoadGenerator(tt.args)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.code), "got %v", err)
			assert.True(t, config.IsConfigError(err))
		})
	}
}

func TestLoadGeneratorHelp(t *testing.T) {
	clearLoadEnv(t)

	_, err := config.LoadGenerator([]string{"-h"})
	assert.ErrorIs(t, err, pflag.ErrHelp)
}

func TestLoadUsage(t *testing.T) {
	usage := config.LoadUsage()
	assert.Contains(t, usage, "Usage: cpuload")
	assert.Contains(t, usage, "--profile")
	assert.NotContains(t, usage, "--temperature-path")
}
