package archive

import (
	"context"

	"codeberg.org/mutker/cpumon/internal/errors"
	"codeberg.org/mutker/cpumon/internal/logger"
	"codeberg.org/mutker/cpumon/internal/monitor"
)

type service struct {
	repo        Repository
	cpu         *CPUSink
	temperature *TemperatureSink
}

type noopService struct{}

func (noopService) CPUSink() *CPUSink                 { return nil }
func (noopService) TemperatureSink() *TemperatureSink { return nil }
func (noopService) Close() error                      { return nil }

// NewService opens the archive, or returns a no-op service when disabled
func NewService(cfg Config, log logger.Logger) (Service, error) {
	if !cfg.Enabled {
		log.Debug().Msg("Archive disabled")
		return noopService{}, nil
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	repo, err := NewRepository(cfg, log)
	if err != nil {
		return nil, err
	}

	return newService(repo), nil
}

func newService(repo Repository) *service {
	return &service{
		repo:        repo,
		cpu:         &CPUSink{repo: repo},
		temperature: &TemperatureSink{repo: repo},
	}
}

func (s *service) CPUSink() *CPUSink {
	return s.cpu
}

func (s *service) TemperatureSink() *TemperatureSink {
	return s.temperature
}

func (s *service) Close() error {
	return s.repo.Close()
}

// CPUSink stores the CPU records added since its last successful flush
type CPUSink struct {
	repo   Repository
	stored int
}

func (s *CPUSink) Flush(ctx context.Context, records []monitor.CPUMetric) error {
	from, err := offset(s.stored, len(records))
	if err != nil {
		return err
	}
	if err := s.repo.StoreCPU(ctx, records[from:]); err != nil {
		return errors.New().Wrap(ErrStoreSamples, err)
	}
	s.stored = len(records)
	return nil
}

// TemperatureSink stores the temperature records added since its last
// successful flush
type TemperatureSink struct {
	repo   Repository
	stored int
}

func (s *TemperatureSink) Flush(ctx context.Context, records []monitor.Temperature) error {
	from, err := offset(s.stored, len(records))
	if err != nil {
		return err
	}
	if err := s.repo.StoreTemperatures(ctx, records[from:]); err != nil {
		return errors.New().Wrap(ErrStoreSamples, err)
	}
	s.stored = len(records)
	return nil
}

// offset guards against a buffer that shrank between flushes
func offset(stored, n int) (int, error) {
	if n < stored {
		return 0, errors.New().WithData(ErrStoreSamples, struct {
			Phase  string
			Stored int
			Buffer int
		}{
			Phase:  "buffer_shrank",
			Stored: stored,
			Buffer: n,
		})
	}
	return stored, nil
}
