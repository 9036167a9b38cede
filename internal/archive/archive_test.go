package archive

import (
	"context"
	"database/sql"
	stderrors "errors"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"codeberg.org/mutker/cpumon/internal/errors"
	"codeberg.org/mutker/cpumon/internal/logger"
	"codeberg.org/mutker/cpumon/internal/monitor"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ts = "2024-01-01 12:00:00.000000000 +00:00"

func cpuSamples(n int) []monitor.CPUMetric {
	out := make([]monitor.CPUMetric, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, monitor.CPUMetric{
			Timestamp:   ts,
			ThreadLabel: "cpu" + string(rune('0'+i)),
			Utilization: float64(i) * 1.5,
			Frequency:   uint64(2400 + i),
		})
	}
	return out
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.NoError(t, Config{Enabled: true, DBPath: "/tmp/a.db"}.Validate())

	err := Config{Enabled: true}.Validate()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrInvalidDBPath))
}

func TestDisabledServiceIsNoop(t *testing.T) {
	svc, err := NewService(DefaultConfig(), logger.Default())
	require.NoError(t, err)
	assert.Nil(t, svc.CPUSink())
	assert.Nil(t, svc.TemperatureSink())
	assert.NoError(t, svc.Close())
}

func TestStoreCPUTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	samples := cpuSamples(2)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO cpu_samples"))
	prep.ExpectExec().
		WithArgs(int64(7), ts, "cpu0", 0.0, int64(2400)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().
		WithArgs(int64(7), ts, "cpu1", 1.5, int64(2401)).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	repo := newRepository(db, 7, logger.Default())
	require.NoError(t, repo.StoreCPU(context.Background(), samples))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreCPUSaturatesFrequency(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	samples := []monitor.CPUMetric{{
		Timestamp:   ts,
		ThreadLabel: "cpu0",
		Utilization: 12.5,
		Frequency:   math.MaxUint64,
	}}

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO cpu_samples"))
	prep.ExpectExec().
		WithArgs(int64(3), ts, "cpu0", 12.5, int64(math.MaxInt64)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	repo := newRepository(db, 3, logger.Default())
	require.NoError(t, repo.StoreCPU(context.Background(), samples))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFrequencyColumn(t *testing.T) {
	assert.Equal(t, int64(0), frequencyColumn(0))
	assert.Equal(t, int64(3600), frequencyColumn(3600))
	assert.Equal(t, int64(math.MaxInt64), frequencyColumn(math.MaxInt64))
	assert.Equal(t, int64(math.MaxInt64), frequencyColumn(math.MaxInt64+1))
}

func TestStoreRollsBackOnExecFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO temperature_samples"))
	prep.ExpectExec().
		WithArgs(int64(1), ts, "coretemp_core_0", 45.0).
		WillReturnError(stderrors.New("disk I/O error"))
	mock.ExpectRollback()

	repo := newRepository(db, 1, logger.Default())
	err = repo.StoreTemperatures(context.Background(), []monitor.Temperature{
		{Timestamp: ts, Label: "coretemp_core_0", Temperature: 45},
	})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrTransactionFailed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreEmptyIsNoop(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := newRepository(db, 1, logger.Default())
	require.NoError(t, repo.StoreCPU(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

type recordingRepo struct {
	cpu   [][]monitor.CPUMetric
	temps [][]monitor.Temperature
	err   error
}

func (r *recordingRepo) StoreCPU(_ context.Context, s []monitor.CPUMetric) error {
	if r.err != nil {
		return r.err
	}
	r.cpu = append(r.cpu, append([]monitor.CPUMetric(nil), s...))
	return nil
}

func (r *recordingRepo) StoreTemperatures(_ context.Context, s []monitor.Temperature) error {
	if r.err != nil {
		return r.err
	}
	r.temps = append(r.temps, append([]monitor.Temperature(nil), s...))
	return nil
}

func (*recordingRepo) Close() error { return nil }

func TestSinkStoresOnlyNewRecords(t *testing.T) {
	repo := &recordingRepo{}
	svc := newService(repo)
	sink := svc.CPUSink()
	ctx := context.Background()

	all := cpuSamples(4)
	require.NoError(t, sink.Flush(ctx, all[:2]))
	require.NoError(t, sink.Flush(ctx, all))

	require.Len(t, repo.cpu, 2)
	assert.Equal(t, all[:2], repo.cpu[0])
	assert.Equal(t, all[2:], repo.cpu[1])
}

func TestSinkRetriesAfterFailure(t *testing.T) {
	repo := &recordingRepo{err: stderrors.New("locked")}
	sink := newService(repo).TemperatureSink()
	ctx := context.Background()

	temps := []monitor.Temperature{
		{Timestamp: ts, Label: "coretemp_core_0", Temperature: 40},
		{Timestamp: ts, Label: "coretemp_core_1", Temperature: 41},
	}

	err := sink.Flush(ctx, temps[:1])
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrStoreSamples))

	repo.err = nil
	require.NoError(t, sink.Flush(ctx, temps))
	require.Len(t, repo.temps, 1)
	assert.Equal(t, temps, repo.temps[0])

	err = sink.Flush(ctx, temps[:1])
	assert.True(t, errors.HasCode(err, ErrStoreSamples))
}

func TestRepositoryRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "archive.db")
	svc, err := NewService(Config{Enabled: true, DBPath: path}, logger.Default())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, svc.CPUSink().Flush(ctx, cpuSamples(3)))
	require.NoError(t, svc.TemperatureSink().Flush(ctx, []monitor.Temperature{
		{Timestamp: ts, Label: "coretemp_package_id_0", Temperature: 52.5},
	}))
	require.NoError(t, svc.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM cpu_samples").Scan(&n))
	assert.Equal(t, 3, n)

	var label string
	var temp float64
	require.NoError(t, db.QueryRow("SELECT label, temperature FROM temperature_samples").Scan(&label, &temp))
	assert.Equal(t, "coretemp_package_id_0", label)
	assert.Equal(t, 52.5, temp)

	version, err := GetSchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, version)
}

func TestSchemaMismatchCreatesBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "archive.db")

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(`
        CREATE TABLE schema_versions (version INTEGER PRIMARY KEY, applied_at TEXT NOT NULL);
        INSERT INTO schema_versions VALUES (99, datetime('now'));
        CREATE TABLE cpu_samples (legacy TEXT);`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	repo, err := NewRepository(Config{Enabled: true, DBPath: path}, logger.Default())
	require.NoError(t, err)
	require.NoError(t, repo.StoreCPU(context.Background(), cpuSamples(1)))
	require.NoError(t, repo.Close())

	entries, err := os.ReadDir(filepath.Join(dir, backupDirName))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Regexp(t, `^archive_v99_\d{8}T\d{6}Z\.db$`, entries[0].Name())
}

func TestNewRepositoryRequiresPath(t *testing.T) {
	_, err := NewRepository(Config{Enabled: true}, logger.Default())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrInvalidDBPath))
}
