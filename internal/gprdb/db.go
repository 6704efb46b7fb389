// Package gprdb persists calibration reports to sqlite. It is the durable
// side of the persistence collaborator: the suite hands a finished report
// in, dashboards and regression runs read reports back out.
package gprdb

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB
}

// NewDB opens (creating if needed) the report database at path.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS calibration_reports (
			report_id                 TEXT PRIMARY KEY,
			mode                      TEXT,
			overall_pass              INTEGER,
			incomplete                INTEGER,
			estimated_velocity_mpns   DOUBLE,
			environment               TEXT,
			report_json               TEXT,
			created_at                TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS calibration_results (
			result_id                 INTEGER PRIMARY KEY AUTOINCREMENT,
			report_id                 TEXT,
			target_label              TEXT,
			nominal_depth_m           DOUBLE,
			measured_depth_m          DOUBLE,
			depth_error_m             DOUBLE,
			measured_snr_db           DOUBLE,
			detected                  INTEGER,
			passed                    INTEGER,
			regressed                 INTEGER,
			note                      TEXT,
			FOREIGN KEY(report_id) REFERENCES calibration_reports(report_id)
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialise report schema: %w", err)
	}

	return &DB{db}, nil
}

// PersistenceFailure reports that a calibration report could not be durably
// stored or read back. It is surfaced to the caller, never dropped.
type PersistenceFailure struct {
	Op  string
	Err error
}

func (e *PersistenceFailure) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceFailure) Unwrap() error { return e.Err }
