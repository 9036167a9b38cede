package monitor_test

import (
	"context"
	"testing"
	"time"

	"codeberg.org/mutker/cpumon/internal/monitor"
	"codeberg.org/mutker/cpumon/internal/sensor"
	"codeberg.org/mutker/cpumon/internal/sensor/sensortest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func steppingClock(start time.Time, step time.Duration) func() time.Time {
	next := start
	return func() time.Time {
		now := next
		next = next.Add(step)
		return now
	}
}

func TestCollectCPUBufferGrowsMonotonically(t *testing.T) {
	ctx := context.Background()
	src := sensortest.New(sensortest.Cores(4), nil)
	s := monitor.New(src)

	var prev []monitor.CPUMetric
	for tick := 1; tick <= 5; tick++ {
		assert.Equal(t, 4, s.CollectCPU(ctx))

		data := s.CPUData()
		require.Len(t, data, 4*tick)
		// earlier records are never removed or reordered
		assert.Equal(t, prev, data[:len(prev)])
		prev = append([]monitor.CPUMetric(nil), data...)
	}
}

func TestCollectCPURefreshesBothFacets(t *testing.T) {
	src := sensortest.New(sensortest.Cores(2), nil)
	s := monitor.New(src)

	s.CollectCPU(context.Background())
	s.CollectCPU(context.Background())

	usage, frequency, components := src.Refreshes()
	assert.Equal(t, 2, usage)
	assert.Equal(t, 2, frequency)
	assert.Equal(t, 0, components)
}

func TestCollectCPUSharesOneTimestampPerCall(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.Local)
	src := sensortest.New(sensortest.Cores(3), nil)
	s := monitor.New(src, monitor.WithClock(steppingClock(start, time.Second)))

	s.CollectCPU(context.Background())
	s.CollectCPU(context.Background())

	data := s.CPUData()
	require.Len(t, data, 6)
	first := start.Format(monitor.TimestampLayout)
	second := start.Add(time.Second).Format(monitor.TimestampLayout)
	for i, rec := range data {
		if i < 3 {
			assert.Equal(t, first, rec.Timestamp)
		} else {
			assert.Equal(t, second, rec.Timestamp)
		}
	}
	assert.Equal(t, monitor.CPUMetric{
		Timestamp:   first,
		ThreadLabel: "cpu1",
		Utilization: 20,
		Frequency:   2500,
	}, data[1])
}

func TestCollectCPUPassesReadingsThrough(t *testing.T) {
	src := sensortest.New([]sensor.CPU{
		{Label: "cpu0", Usage: 100.7, Frequency: 0},
		{Label: "cpu1", Usage: -0.1, Frequency: 5_100_000},
	}, nil)
	s := monitor.New(src)

	s.CollectCPU(context.Background())

	data := s.CPUData()
	require.Len(t, data, 2)
	assert.Equal(t, 100.7, data[0].Utilization)
	assert.Equal(t, -0.1, data[1].Utilization)
	assert.Equal(t, uint64(5_100_000), data[1].Frequency)
}

func TestCollectCPUSkipsUnavailableReadings(t *testing.T) {
	ctx := context.Background()
	src := sensortest.New(sensortest.Cores(2), nil).
		FailUsageOn(2).
		FailFrequencyOn(2)
	s := monitor.New(src)

	assert.Equal(t, 2, s.CollectCPU(ctx))
	assert.Equal(t, 0, s.CollectCPU(ctx))
	assert.Equal(t, 0, s.CollectCPU(ctx))
	assert.Equal(t, 2, s.CollectCPU(ctx))
	assert.Len(t, s.CPUData(), 4)
}

func TestCollectTemperatureFiltersNonCoreSensors(t *testing.T) {
	src := sensortest.New(nil, []sensor.Component{
		{Label: "coretemp Core 0", Temperature: 40},
		{Label: "acpitz", Temperature: 35},
		{Label: "coretemp Core 1", Temperature: 42},
	})
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.Local)
	s := monitor.New(src, monitor.WithClock(fixedClock(ts)))

	assert.Equal(t, 2, s.CollectTemperature(context.Background()))

	stamp := ts.Format(monitor.TimestampLayout)
	assert.Equal(t, []monitor.Temperature{
		{Timestamp: stamp, Label: "coretemp Core 0", Temperature: 40},
		{Timestamp: stamp, Label: "coretemp Core 1", Temperature: 42},
	}, s.TemperatureData())
}

func TestCollectTemperatureOnlyRetainsMatchingLabels(t *testing.T) {
	labels := []string{
		"coretemp_core_0", "coretemp_package_id_0", "nvme_composite",
		"iwlwifi_1", "acpitz", "BAT0", "k10temp_tctl", "Coretemp Core 3",
	}
	components := make([]sensor.Component, len(labels))
	for i, l := range labels {
		components[i] = sensor.Component{Label: l, Temperature: float64(30 + i)}
	}
	s := monitor.New(sensortest.New(nil, components))

	for i := 0; i < 3; i++ {
		s.CollectTemperature(context.Background())
	}

	data := s.TemperatureData()
	require.Len(t, data, 6)
	for _, rec := range data {
		assert.Contains(t, []string{"coretemp_core_0", "coretemp_package_id_0"}, rec.Label)
	}
}

func TestCollectTemperatureCustomPrefixes(t *testing.T) {
	src := sensortest.New(nil, []sensor.Component{
		{Label: "coretemp_core_0", Temperature: 50},
		{Label: "k10temp_tctl", Temperature: 61},
		{Label: "amdgpu_edge", Temperature: 55},
	})
	s := monitor.New(src, monitor.WithFilter(monitor.NewLabelFilter("coretemp", "k10temp")))

	assert.Equal(t, 2, s.CollectTemperature(context.Background()))
}

func TestCollectTemperatureSkipsUnavailableReadings(t *testing.T) {
	src := sensortest.New(nil, []sensor.Component{{Label: "coretemp Core 0", Temperature: 40}}).
		FailComponentsOn(1)
	s := monitor.New(src)

	assert.Equal(t, 0, s.CollectTemperature(context.Background()))
	assert.Equal(t, 1, s.CollectTemperature(context.Background()))
	assert.Len(t, s.TemperatureData(), 1)
}

func TestBufferViewCannotClobberSampler(t *testing.T) {
	src := sensortest.New(sensortest.Cores(1), nil)
	s := monitor.New(src)
	s.CollectCPU(context.Background())

	view := s.CPUData()
	_ = append(view, monitor.CPUMetric{ThreadLabel: "bogus"})
	s.CollectCPU(context.Background())

	assert.Equal(t, "cpu0", s.CPUData()[1].ThreadLabel)
}

func TestLabelFilterDefaults(t *testing.T) {
	f := monitor.NewLabelFilter(" ", "")
	assert.Equal(t, []string{monitor.DefaultSensorPrefix}, f.Prefixes())
	assert.True(t, f.Match("coretemp Core 0"))
	assert.False(t, f.Match("acpitz"))
}
