package telemetry

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"codeberg.org/mutker/cpumon/internal/errors"
	"codeberg.org/mutker/cpumon/internal/logger"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledIsNoop(t *testing.T) {
	c, err := NewService(DefaultConfig(), logger.Default())
	require.NoError(t, err)
	assert.IsType(t, &noopCollector{}, c)

	c.ObserveTick("cpu", 4, time.Millisecond, nil)
	assert.NoError(t, c.Close())
}

func TestObserveTick(t *testing.T) {
	s, err := newService(Config{TextfilePath: filepath.Join(t.TempDir(), "cpumon.prom")}, logger.Default())
	require.NoError(t, err)

	s.ObserveTick("cpu", 8, 2*time.Millisecond, nil)
	s.ObserveTick("cpu", 8, 3*time.Millisecond, stderrors.New("disk full"))
	s.ObserveTick("temperature", 2, time.Millisecond, nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(s.ticks.WithLabelValues("cpu")))
	assert.Equal(t, 16.0, testutil.ToFloat64(s.records.WithLabelValues("cpu")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.writeErrors.WithLabelValues("cpu")))
	assert.Equal(t, 0.0, testutil.ToFloat64(s.writeErrors.WithLabelValues("temperature")))
	assert.Equal(t, 2, testutil.CollectAndCount(s.tickLatency))
}

func TestCloseWritesTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cpumon.prom")
	c, err := NewService(Config{TextfilePath: path}, logger.Default())
	require.NoError(t, err)

	c.ObserveTick("temperature", 3, time.Millisecond, nil)
	require.NoError(t, c.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(raw)
	assert.Contains(t, text, `cpumon_ticks_total{loop="temperature"} 1`)
	assert.Contains(t, text, `cpumon_records_total{loop="temperature"} 3`)
	assert.True(t, strings.HasPrefix(text, "# HELP"))
}

func TestCloseUnwritablePath(t *testing.T) {
	c, err := NewService(Config{TextfilePath: filepath.Join(t.TempDir(), "missing", "cpumon.prom")}, logger.Default())
	require.NoError(t, err)

	err = c.Close()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrWriteTextfile))
}
