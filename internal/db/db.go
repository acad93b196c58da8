// Package db provides SQLite persistence for tracking sessions and their
// classified events. The live classification path never touches the
// database; events are flushed in batches at snapshot intervals and at
// session end.
package db

import (
	"database/sql"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
	_ "modernc.org/sqlite"

	"github.com/oculab-data/gaze.report/internal/gaze"
)

type DB struct {
	*sql.DB
}

// NewDB opens (creating if necessary) the SQLite database at path and runs
// any pending migrations.
func NewDB(path string) (*DB, error) {
	// Pragmas go in the DSN so every pooled connection gets them.
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// modernc sqlite allows one writer; serialise access through a single
	// connection rather than surfacing SQLITE_BUSY to callers.
	sqlDB.SetMaxOpenConns(1)

	db := &DB{sqlDB}
	if err := db.MigrateUp(); err != nil {
		return nil, err
	}
	return db, nil
}

// SessionRecord is the persisted form of a tracking session.
type SessionRecord struct {
	SessionID        string  `json:"session_id"`
	Preset           string  `json:"preset"`
	StartedAtMs      int64   `json:"started_at_ms"`
	EndedAtMs        int64   `json:"ended_at_ms"`
	SampleCount      int64   `json:"sample_count"`
	AvgPupilDiameter float64 `json:"avg_pupil_diameter"`
	CreatedAt        string  `json:"created_at"`
}

// InsertSession records the start of a tracking session.
func (db *DB) InsertSession(sessionID, preset string, startedAtMs int64) error {
	_, err := db.Exec(
		`INSERT INTO sessions (session_id, preset, started_at_ms) VALUES (?, ?, ?)`,
		sessionID, preset, startedAtMs,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// FinishSession records session teardown.
func (db *DB) FinishSession(sessionID string, endedAtMs, sampleCount int64, avgPupilDiameter float64) error {
	_, err := db.Exec(
		`UPDATE sessions SET ended_at_ms = ?, sample_count = ?, avg_pupil_diameter = ? WHERE session_id = ?`,
		endedAtMs, sampleCount, avgPupilDiameter, sessionID,
	)
	if err != nil {
		return fmt.Errorf("finish session: %w", err)
	}
	return nil
}

// InsertFixations appends a batch of fixations for a session in one
// transaction.
func (db *DB) InsertFixations(sessionID string, fixations []gaze.Fixation) error {
	if len(fixations) == 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin fixation batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO fixations (session_id, x, y, duration_ms, start_timestamp_ms) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare fixation insert: %w", err)
	}
	defer stmt.Close()

	for _, f := range fixations {
		if _, err := stmt.Exec(sessionID, f.X, f.Y, f.DurationMs, f.StartTimestampMs); err != nil {
			return fmt.Errorf("insert fixation: %w", err)
		}
	}

	return tx.Commit()
}

// InsertSaccades appends a batch of saccades for a session in one
// transaction.
func (db *DB) InsertSaccades(sessionID string, saccades []gaze.Saccade) error {
	if len(saccades) == 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin saccade batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO saccades (session_id, start_x, start_y, end_x, end_y, duration_ms, is_regression)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare saccade insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range saccades {
		if _, err := stmt.Exec(sessionID, s.StartX, s.StartY, s.EndX, s.EndY, s.DurationMs, s.IsRegression); err != nil {
			return fmt.Errorf("insert saccade: %w", err)
		}
	}

	return tx.Commit()
}

// InsertMetricsSnapshot records a point-in-time metrics snapshot for a
// session.
func (db *DB) InsertMetricsSnapshot(sessionID string, capturedAtMs int64, m gaze.Metrics) error {
	_, err := db.Exec(
		`INSERT INTO metrics_snapshots (
			session_id, captured_at_ms, total_fixations, average_fixation_duration_ms,
			regression_count, prolonged_fixations, chaos_index, fixation_intersection_coefficient
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, capturedAtMs, m.TotalFixations, m.AverageFixationDurationMs,
		m.RegressionCount, m.ProlongedFixations, m.ChaosIndex, m.FixationIntersectionCoefficient,
	)
	if err != nil {
		return fmt.Errorf("insert metrics snapshot: %w", err)
	}
	return nil
}

// ListSessions returns the most recent sessions, newest first.
func (db *DB) ListSessions(limit int) ([]SessionRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.Query(
		`SELECT session_id, preset, started_at_ms, ended_at_ms, sample_count, avg_pupil_diameter, created_at
		 FROM sessions ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		if err := rows.Scan(
			&rec.SessionID, &rec.Preset, &rec.StartedAtMs, &rec.EndedAtMs,
			&rec.SampleCount, &rec.AvgPupilDiameter, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, rec)
	}
	return sessions, rows.Err()
}

// SessionEvents returns the persisted fixation and saccade sequences for a
// session, in emission order.
func (db *DB) SessionEvents(sessionID string) ([]gaze.Fixation, []gaze.Saccade, error) {
	fixRows, err := db.Query(
		`SELECT x, y, duration_ms, start_timestamp_ms FROM fixations
		 WHERE session_id = ? ORDER BY fixation_id`, sessionID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("query fixations: %w", err)
	}
	defer fixRows.Close()

	var fixations []gaze.Fixation
	for fixRows.Next() {
		var f gaze.Fixation
		if err := fixRows.Scan(&f.X, &f.Y, &f.DurationMs, &f.StartTimestampMs); err != nil {
			return nil, nil, fmt.Errorf("scan fixation: %w", err)
		}
		fixations = append(fixations, f)
	}
	if err := fixRows.Err(); err != nil {
		return nil, nil, err
	}

	sacRows, err := db.Query(
		`SELECT start_x, start_y, end_x, end_y, duration_ms, is_regression FROM saccades
		 WHERE session_id = ? ORDER BY saccade_id`, sessionID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("query saccades: %w", err)
	}
	defer sacRows.Close()

	var saccades []gaze.Saccade
	for sacRows.Next() {
		var s gaze.Saccade
		if err := sacRows.Scan(&s.StartX, &s.StartY, &s.EndX, &s.EndY, &s.DurationMs, &s.IsRegression); err != nil {
			return nil, nil, fmt.Errorf("scan saccade: %w", err)
		}
		saccades = append(saccades, s)
	}

	return fixations, saccades, sacRows.Err()
}

// GazeRollup summarises each session recorded within the last `days` days.
// AvgSaccadeAmplitude is stored in pixels; the API layer converts it to the
// requested display units.
type GazeRollup struct {
	SessionID           string  `json:"session_id"`
	Preset              string  `json:"preset"`
	TotalFixations      int     `json:"total_fixations"`
	AvgDurationMs       float64 `json:"avg_duration_ms"`
	P50DurationMs       float64 `json:"p50_duration_ms"`
	P85DurationMs       float64 `json:"p85_duration_ms"`
	RegressionCount     int     `json:"regression_count"`
	ProlongedFixations  int     `json:"prolonged_fixations"`
	AvgSaccadeAmplitude float64 `json:"avg_saccade_amplitude"`
}

// SessionRollup computes per-session fixation statistics over the last
// `days` days. Duration percentiles are computed in Go from the raw
// durations rather than approximated in SQL.
func (db *DB) SessionRollup(days int, prolongedMs int64) ([]GazeRollup, error) {
	if days < 1 {
		days = 1
	}
	cutoff := time.Now().AddDate(0, 0, -days).UTC().Format("2006-01-02 15:04:05")

	rows, err := db.Query(
		`SELECT session_id, preset FROM sessions WHERE created_at >= ? ORDER BY created_at DESC`,
		cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("query sessions for rollup: %w", err)
	}
	defer rows.Close()

	var rollups []GazeRollup
	for rows.Next() {
		var r GazeRollup
		if err := rows.Scan(&r.SessionID, &r.Preset); err != nil {
			return nil, fmt.Errorf("scan rollup session: %w", err)
		}
		rollups = append(rollups, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range rollups {
		fixations, saccades, err := db.SessionEvents(rollups[i].SessionID)
		if err != nil {
			return nil, err
		}

		m := gaze.ComputeMetrics(fixations, saccades, nil, prolongedMs)
		rollups[i].TotalFixations = m.TotalFixations
		rollups[i].AvgDurationMs = m.AverageFixationDurationMs
		rollups[i].RegressionCount = m.RegressionCount
		rollups[i].ProlongedFixations = m.ProlongedFixations
		rollups[i].P50DurationMs, rollups[i].P85DurationMs = gaze.FixationDurationQuantiles(fixations)

		if len(saccades) > 0 {
			amplitudes := make([]float64, len(saccades))
			for j, s := range saccades {
				amplitudes[j] = math.Hypot(s.DX(), s.DY())
			}
			rollups[i].AvgSaccadeAmplitude = stat.Mean(amplitudes, nil)
		}
	}

	return rollups, nil
}
