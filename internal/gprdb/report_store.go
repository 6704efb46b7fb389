package gprdb

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/banshee-data/subsurface.report/internal/calib"
)

// ReportStore provides persistence for calibration reports.
type ReportStore struct {
	db *DB
}

// NewReportStore creates a ReportStore backed by the given database.
func NewReportStore(db *DB) *ReportStore {
	return &ReportStore{db: db}
}

// SaveReport stores the report header, the per-target result rows, and the
// full JSON record in one transaction.
func (s *ReportStore) SaveReport(report *calib.CalibrationReport) error {
	blob, err := json.Marshal(report)
	if err != nil {
		return &PersistenceFailure{Op: "encode report", Err: err}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return &PersistenceFailure{Op: "begin transaction", Err: err}
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO calibration_reports (
			report_id, mode, overall_pass, incomplete,
			estimated_velocity_mpns, environment, report_json, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID,
		string(report.Mode),
		boolInt(report.OverallPass),
		boolInt(report.Incomplete),
		report.EstimatedVelocityMpns,
		report.Environment,
		string(blob),
		report.Timestamp.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return &PersistenceFailure{Op: fmt.Sprintf("insert report %s", report.RunID), Err: err}
	}

	for _, r := range report.Results {
		_, err = tx.Exec(`
			INSERT INTO calibration_results (
				report_id, target_label, nominal_depth_m, measured_depth_m,
				depth_error_m, measured_snr_db, detected, passed, regressed, note
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			report.RunID,
			r.Target.Label,
			r.Target.NominalDepthM,
			r.MeasuredDepthM,
			r.DepthErrorM,
			r.MeasuredSNRdB,
			boolInt(r.Detected),
			boolInt(r.Passed),
			boolInt(r.Regressed),
			r.Note,
		)
		if err != nil {
			return &PersistenceFailure{Op: fmt.Sprintf("insert result for target %s", r.Target.Label), Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &PersistenceFailure{Op: "commit report", Err: err}
	}
	return nil
}

// LoadReport reads a report back by run ID. The full JSON record is the
// source of truth; the result rows exist for SQL-side querying.
func (s *ReportStore) LoadReport(runID string) (*calib.CalibrationReport, error) {
	var blob string
	err := s.db.QueryRow(
		`SELECT report_json FROM calibration_reports WHERE report_id = ?`, runID,
	).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, &PersistenceFailure{Op: "load report", Err: fmt.Errorf("no report with run ID %s", runID)}
	}
	if err != nil {
		return nil, &PersistenceFailure{Op: "load report", Err: err}
	}

	var report calib.CalibrationReport
	if err := json.Unmarshal([]byte(blob), &report); err != nil {
		return nil, &PersistenceFailure{Op: "decode report", Err: err}
	}
	return &report, nil
}

// ReportSummary is one row of a report listing.
type ReportSummary struct {
	RunID                 string    `json:"run_id"`
	Mode                  string    `json:"mode"`
	OverallPass           bool      `json:"overall_pass"`
	Incomplete            bool      `json:"incomplete"`
	EstimatedVelocityMpns float64   `json:"estimated_velocity_mpns"`
	CreatedAt             time.Time `json:"created_at"`
}

// ListReports returns the most recent report summaries, newest first.
func (s *ReportStore) ListReports(limit int) ([]ReportSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT report_id, mode, overall_pass, incomplete, estimated_velocity_mpns, created_at
		FROM calibration_reports ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, &PersistenceFailure{Op: "list reports", Err: err}
	}
	defer rows.Close()

	var out []ReportSummary
	for rows.Next() {
		var r ReportSummary
		var pass, incomplete int
		var created string
		if err := rows.Scan(&r.RunID, &r.Mode, &pass, &incomplete, &r.EstimatedVelocityMpns, &created); err != nil {
			return nil, &PersistenceFailure{Op: "scan report row", Err: err}
		}
		r.OverallPass = pass != 0
		r.Incomplete = incomplete != 0
		if t, err := time.Parse(time.RFC3339, created); err == nil {
			r.CreatedAt = t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// TagBaseline assigns the given baseline label to a stored report so
// regression runs can pin it by name. A label names at most one report;
// re-tagging moves it.
func (s *ReportStore) TagBaseline(runID, label string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return &PersistenceFailure{Op: "begin transaction", Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`UPDATE calibration_reports SET baseline_label = '' WHERE baseline_label = ?`, label,
	); err != nil {
		return &PersistenceFailure{Op: fmt.Sprintf("clear baseline label %q", label), Err: err}
	}

	res, err := tx.Exec(
		`UPDATE calibration_reports SET baseline_label = ? WHERE report_id = ?`, label, runID,
	)
	if err != nil {
		return &PersistenceFailure{Op: fmt.Sprintf("tag report %s", runID), Err: err}
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &PersistenceFailure{Op: "tag report", Err: fmt.Errorf("no report with run ID %s", runID)}
	}

	if err := tx.Commit(); err != nil {
		return &PersistenceFailure{Op: "commit baseline tag", Err: err}
	}
	return nil
}

// ReportByBaselineLabel loads the report currently tagged with the given
// baseline label.
func (s *ReportStore) ReportByBaselineLabel(label string) (*calib.CalibrationReport, error) {
	var runID string
	err := s.db.QueryRow(
		`SELECT report_id FROM calibration_reports WHERE baseline_label = ?`, label,
	).Scan(&runID)
	if err == sql.ErrNoRows {
		return nil, &PersistenceFailure{Op: "load baseline", Err: fmt.Errorf("no report tagged %q", label)}
	}
	if err != nil {
		return nil, &PersistenceFailure{Op: "load baseline", Err: err}
	}
	return s.LoadReport(runID)
}

// LatestCompleteReport returns the most recent non-incomplete report, for
// use as a regression baseline when none is named explicitly.
func (s *ReportStore) LatestCompleteReport() (*calib.CalibrationReport, error) {
	var runID string
	err := s.db.QueryRow(`
		SELECT report_id FROM calibration_reports
		WHERE incomplete = 0 ORDER BY created_at DESC LIMIT 1`).Scan(&runID)
	if err == sql.ErrNoRows {
		return nil, &PersistenceFailure{Op: "load baseline", Err: fmt.Errorf("no complete report available")}
	}
	if err != nil {
		return nil, &PersistenceFailure{Op: "load baseline", Err: err}
	}
	return s.LoadReport(runID)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
