package telemetry

import (
	"time"

	"codeberg.org/mutker/cpumon/internal/errors"
	"codeberg.org/mutker/cpumon/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
)

const defaultNamespace = "cpumon"

type service struct {
	cfg      Config
	log      logger.Logger
	registry *prometheus.Registry

	ticks       *prometheus.CounterVec
	records     *prometheus.CounterVec
	writeErrors *prometheus.CounterVec
	tickLatency *prometheus.HistogramVec
	lastTick    *prometheus.GaugeVec
}

// No-op implementation
type noopCollector struct{}

func NewService(cfg Config, log logger.Logger) (Collector, error) {
	if !cfg.Enabled() {
		log.Debug().Msg("Telemetry disabled, using no-op collector")
		return &noopCollector{}, nil
	}

	s, err := newService(cfg, log)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("path", cfg.TextfilePath).
		Msg("Telemetry initialized")

	return s, nil
}

func newService(cfg Config, log logger.Logger) (*service, error) {
	if cfg.Namespace == "" {
		cfg.Namespace = defaultNamespace
	}

	s := &service{
		cfg:      cfg,
		log:      log,
		registry: prometheus.NewRegistry(),
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "ticks_total",
			Help:      "Completed sampling ticks.",
		}, []string{"loop"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "records_total",
			Help:      "Samples appended to the in-memory buffer.",
		}, []string{"loop"}),
		writeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "write_errors_total",
			Help:      "Ticks whose flush to disk failed.",
		}, []string{"loop"}),
		tickLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      "tick_duration_seconds",
			Help:      "Time spent collecting and flushing in one tick.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"loop"}),
		lastTick: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      "last_tick_timestamp_seconds",
			Help:      "Unix time of the most recent tick.",
		}, []string{"loop"}),
	}

	for _, c := range []prometheus.Collector{s.ticks, s.records, s.writeErrors, s.tickLatency, s.lastTick} {
		if err := s.registry.Register(c); err != nil {
			return nil, errors.New().Wrap(ErrRegister, err)
		}
	}

	return s, nil
}

func (s *service) ObserveTick(loop string, records int, d time.Duration, err error) {
	s.ticks.WithLabelValues(loop).Inc()
	s.records.WithLabelValues(loop).Add(float64(records))
	s.tickLatency.WithLabelValues(loop).Observe(d.Seconds())
	s.lastTick.WithLabelValues(loop).SetToCurrentTime()
	if err != nil {
		s.writeErrors.WithLabelValues(loop).Inc()
	}
}

// Close writes the collected statistics to the configured textfile
func (s *service) Close() error {
	if err := prometheus.WriteToTextfile(s.cfg.TextfilePath, s.registry); err != nil {
		return errors.New().Wrap(ErrWriteTextfile, err)
	}

	s.log.Debug().Str("path", s.cfg.TextfilePath).Msg("Telemetry written")

	return nil
}

// No-op implementation
func (*noopCollector) ObserveTick(string, int, time.Duration, error) {}

func (*noopCollector) Close() error {
	return nil
}
