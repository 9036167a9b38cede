package archive

import (
	"database/sql"

	"codeberg.org/mutker/cpumon/internal/errors"
	"codeberg.org/mutker/cpumon/internal/logger"
)

const (
	SchemaVersion = 1

	// SQL statements derived from schema
	createTablesSQL = `
	   CREATE TABLE IF NOT EXISTS schema_versions (
	       version     INTEGER PRIMARY KEY,
	       applied_at  TEXT NOT NULL
	   );
	   CREATE TABLE IF NOT EXISTS runs (
	       id          INTEGER PRIMARY KEY AUTOINCREMENT,
	       started_at  TEXT NOT NULL
	   );
	   CREATE TABLE IF NOT EXISTS cpu_samples (
	       id           INTEGER PRIMARY KEY AUTOINCREMENT,
	       run_id       INTEGER NOT NULL REFERENCES runs(id),
	       timestamp    TEXT NOT NULL,
	       thread_label TEXT NOT NULL,
	       utilization  REAL NOT NULL,
	       frequency    INTEGER NOT NULL CHECK (frequency >= 0)
	   );
	   CREATE TABLE IF NOT EXISTS temperature_samples (
	       id           INTEGER PRIMARY KEY AUTOINCREMENT,
	       run_id       INTEGER NOT NULL REFERENCES runs(id),
	       timestamp    TEXT NOT NULL,
	       label        TEXT NOT NULL,
	       temperature  REAL NOT NULL
	   );`

	insertRunSQL = `INSERT INTO runs (started_at) VALUES (datetime('now'))`

	insertCPUSQL = `
    INSERT INTO cpu_samples (
        run_id, timestamp, thread_label, utilization, frequency
    ) VALUES (?, ?, ?, ?, ?)`

	insertTemperatureSQL = `
    INSERT INTO temperature_samples (
        run_id, timestamp, label, temperature
    ) VALUES (?, ?, ?, ?)`
)

var tables = []string{"cpu_samples", "temperature_samples", "runs", "schema_versions"}

// InitSchema creates a new database schema with the current version
func InitSchema(db *sql.DB, log logger.Logger) error {
	errFactory := errors.New()

	log.Debug().Msg("Creating database...")

	tx, err := db.Begin()
	if err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	// Track transaction state
	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil {
				// Only log if it's not the "already committed" error
				if !errors.Is(err, sql.ErrTxDone) {
					log.Debug().Err(err).Msg("Failed to rollback transaction")
				}
			}
		}
	}()

	log.Trace().Str("sql", createTablesSQL).Msg("Executing SQL statement")
	if _, err := tx.Exec(createTablesSQL); err != nil {
		return errFactory.WithData(ErrSchemaInitFailed, struct {
			Phase string
			Error string
		}{
			Phase: "create_tables",
			Error: err.Error(),
		})
	}

	if _, err := tx.Exec(`
        INSERT INTO schema_versions (version, applied_at)
        VALUES (?, datetime('now'))
    `, SchemaVersion); err != nil {
		return errFactory.WithData(ErrSchemaInitFailed, struct {
			Phase string
			Error string
		}{
			Phase: "record_version",
			Error: err.Error(),
		})
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}
	committed = true

	log.Info().
		Int("version", SchemaVersion).
		Msg("Archive schema initialized")

	return nil
}

// GetSchemaVersion returns the current schema version, or 0 for an empty
// database
func GetSchemaVersion(db *sql.DB) (int, error) {
	errFactory := errors.New()

	exists, err := TableExists(db, "schema_versions")
	if err != nil {
		return 0, errFactory.Wrap(ErrSchemaValidationFailed, err)
	}
	if !exists {
		return 0, nil
	}

	var version int
	err = db.QueryRow(`
        SELECT version
        FROM schema_versions
        ORDER BY version DESC
        LIMIT 1
    `).Scan(&version)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, errFactory.WithData(ErrSchemaValidationFailed, struct {
			Phase string
			Error string
		}{
			Phase: "get_version",
			Error: err.Error(),
		})
	}

	return version, nil
}

// TableExists checks if a table exists
func TableExists(db *sql.DB, tableName string) (bool, error) {
	errFactory := errors.New()
	var exists bool
	err := db.QueryRow(`
        SELECT EXISTS (
            SELECT 1 FROM sqlite_master
            WHERE type='table' AND name=?
        )
    `, tableName).Scan(&exists)
	if err != nil {
		return false, errFactory.WithData(ErrSchemaValidationFailed, struct {
			Phase string
			Table string
			Error string
		}{
			Phase: "check_table_exists",
			Table: tableName,
			Error: err.Error(),
		})
	}
	return exists, nil
}
