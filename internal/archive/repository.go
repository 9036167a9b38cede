package archive

import (
	"context"
	"database/sql"
	"math"
	"os"
	"path/filepath"
	"sync"

	"codeberg.org/mutker/cpumon/internal/errors"
	"codeberg.org/mutker/cpumon/internal/logger"
	"codeberg.org/mutker/cpumon/internal/monitor"
	_ "github.com/mattn/go-sqlite3"
)

type repository struct {
	db     *sql.DB
	logger logger.Logger
	runID  int64
	mu     sync.Mutex
}

func NewRepository(cfg Config, log logger.Logger) (Repository, error) {
	errFactory := errors.New()

	if cfg.DBPath == "" {
		return nil, errFactory.New(ErrInvalidDBPath)
	}

	// Ensure the directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), defaultDirPerm); err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Path  string
			Error string
		}{
			Phase: "create_directory",
			Path:  cfg.DBPath,
			Error: err.Error(),
		})
	}

	dsn := cfg.DBPath + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Error string
		}{
			Phase: "open_database",
			Error: err.Error(),
		})
	}
	// Both sampling loops share one connection
	db.SetMaxOpenConns(1)

	// Validate if schema is current, with backup if needed
	if err := ValidateAndUpdateSchema(db, cfg.backupDir(), log); err != nil {
		db.Close()
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Error string
		}{
			Phase: "schema_version",
			Error: err.Error(),
		})
	}

	res, err := db.Exec(insertRunSQL)
	if err != nil {
		db.Close()
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Error string
		}{
			Phase: "insert_run",
			Error: err.Error(),
		})
	}
	runID, err := res.LastInsertId()
	if err != nil {
		db.Close()
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	log.Info().
		Str("path", cfg.DBPath).
		Int("schema_version", SchemaVersion).
		Int64("run_id", runID).
		Msg("Archive repository initialized")

	return newRepository(db, runID, log), nil
}

func newRepository(db *sql.DB, runID int64, log logger.Logger) *repository {
	return &repository{
		db:     db,
		logger: log,
		runID:  runID,
	}
}

func (r *repository) StoreCPU(ctx context.Context, samples []monitor.CPUMetric) error {
	return r.store(ctx, insertCPUSQL, len(samples), func(i int) []any {
		s := samples[i]
		return []any{r.runID, s.Timestamp, s.ThreadLabel, s.Utilization, frequencyColumn(s.Frequency)}
	})
}

// frequencyColumn saturates at the largest value an INTEGER column holds
func frequencyColumn(mhz uint64) int64 {
	if mhz > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(mhz)
}

func (r *repository) StoreTemperatures(ctx context.Context, samples []monitor.Temperature) error {
	return r.store(ctx, insertTemperatureSQL, len(samples), func(i int) []any {
		s := samples[i]
		return []any{r.runID, s.Timestamp, s.Label, s.Temperature}
	})
}

func (r *repository) store(ctx context.Context, query string, n int, values func(int) []any) error {
	if n == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	errFactory := errors.New()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to begin transaction")
		return errFactory.Wrap(ErrTransactionFailed, err)
	}

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to prepare statement")
		if err := tx.Rollback(); err != nil {
			r.logger.Error().Err(err).Msg("Failed to roll back transaction")
		}
		return errFactory.Wrap(ErrTransactionFailed, err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, values(i)...); err != nil {
			r.logger.Error().Err(err).Msg("Failed to execute insert")
			if err := tx.Rollback(); err != nil {
				r.logger.Error().Err(err).Msg("Failed to roll back transaction")
			}
			return errFactory.Wrap(ErrTransactionFailed, err)
		}
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error().Err(err).Msg("Failed to commit transaction")
		return errFactory.Wrap(ErrTransactionFailed, err)
	}

	r.logger.Debug().Int("records", n).Msg("Stored samples in archive")

	return nil
}

func (r *repository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Checkpoint WAL and cleanup on close
	if _, err := r.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		r.db.Close()
		return errors.New().WithData(ErrStorageClose, struct {
			Phase string
			Error string
		}{
			Phase: "checkpoint_wal",
			Error: err.Error(),
		})
	}

	if err := r.db.Close(); err != nil {
		return errors.New().WithData(ErrStorageClose, struct {
			Phase string
			Error string
		}{
			Phase: "close_database",
			Error: err.Error(),
		})
	}

	r.logger.Info().Msg("Archive repository closed")

	return nil
}
