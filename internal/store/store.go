// Package store persists the inputs and outputs around an
// internal/correlate run: dataset rows loaded from CSV before a
// Correlate call, and the resulting matches/unmatched values
// afterward. It does not persist the engine's own working state — the
// streamlined index and match-boiler recursion are rebuilt from scratch
// on every call, same as the teacher's in-memory matching passes never
// checkpointed mid-algorithm.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ehdc-llpg/correlate/internal/debug"
)

// Store wraps a *sql.DB with the run/match tables a correlation pipeline
// needs: one row per Correlate invocation (a "run"), and one row per
// resulting match or unmatched residual.
type Store struct {
	db *sql.DB
}

// New wraps an already-opened database connection. Callers typically get
// db from internal/db.Connection.DB.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Run records one Correlate invocation: which labeled datasets went in,
// and when.
type Run struct {
	ID        int64
	LabelA    string
	LabelB    string
	StartedAt time.Time
}

// StartRun inserts a new run row and returns its ID.
func (s *Store) StartRun(localDebug bool, labelA, labelB string) (int64, error) {
	debug.DebugHeader(localDebug)
	defer debug.DebugFooter(localDebug)

	var runID int64
	err := s.db.QueryRow(`
		INSERT INTO correlate_run (label_a, label_b, started_at)
		VALUES ($1, $2, $3)
		RETURNING run_id
	`, labelA, labelB, time.Now()).Scan(&runID)
	if err != nil {
		return 0, fmt.Errorf("store: start run: %w", err)
	}

	debug.DebugOutput(localDebug, "started run %d (%s <-> %s)", runID, labelA, labelB)
	return runID, nil
}

// MatchRecord is one Match from a correlate.Result, flattened for storage.
// ValueA/ValueB are stored as their JSON encoding so the store doesn't
// need to know the concrete value type the caller correlated.
type MatchRecord struct {
	RunID  int64
	ValueA any
	ValueB any
	Score  float64
}

// SaveMatches persists a batch of matches for a run in one transaction,
// the same all-or-nothing shape the teacher's audit tracker used for a
// decision and its candidate list.
func (s *Store) SaveMatches(localDebug bool, matches []MatchRecord) error {
	debug.DebugHeader(localDebug)
	defer debug.DebugFooter(localDebug)

	if len(matches) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO correlate_match (run_id, value_a, value_b, score)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (run_id, value_a, value_b) DO UPDATE SET score = EXCLUDED.score
	`)
	if err != nil {
		return fmt.Errorf("store: prepare match insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range matches {
		a, err := json.Marshal(m.ValueA)
		if err != nil {
			return fmt.Errorf("store: marshal value_a: %w", err)
		}
		b, err := json.Marshal(m.ValueB)
		if err != nil {
			return fmt.Errorf("store: marshal value_b: %w", err)
		}
		if _, err := stmt.Exec(m.RunID, a, b, m.Score); err != nil {
			return fmt.Errorf("store: insert match: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit matches: %w", err)
	}

	debug.DebugOutput(localDebug, "saved %d matches for run %d", len(matches), matches[0].RunID)
	return nil
}

// SaveUnmatched persists the residual values from one side of a run.
func (s *Store) SaveUnmatched(localDebug bool, runID int64, side string, values []any) error {
	debug.DebugHeader(localDebug)
	defer debug.DebugFooter(localDebug)

	if len(values) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO correlate_unmatched (run_id, side, value)
		VALUES ($1, $2, $3)
	`)
	if err != nil {
		return fmt.Errorf("store: prepare unmatched insert: %w", err)
	}
	defer stmt.Close()

	for _, v := range values {
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("store: marshal unmatched value: %w", err)
		}
		if _, err := stmt.Exec(runID, side, encoded); err != nil {
			return fmt.Errorf("store: insert unmatched: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit unmatched: %w", err)
	}

	debug.DebugOutput(localDebug, "saved %d unmatched values for run %d side %s", len(values), runID, side)
	return nil
}

// MatchRow is one persisted match as read back for the review server,
// with the JSON-encoded values left unparsed.
type MatchRow struct {
	ValueA json.RawMessage
	ValueB json.RawMessage
	Score  float64
}

// ListMatches returns the matches persisted for a run, highest score first.
func (s *Store) ListMatches(localDebug bool, runID int64) ([]MatchRow, error) {
	debug.DebugHeader(localDebug)
	defer debug.DebugFooter(localDebug)

	rows, err := s.db.Query(`
		SELECT value_a, value_b, score FROM correlate_match
		WHERE run_id = $1 ORDER BY score DESC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("store: list matches: %w", err)
	}
	defer rows.Close()

	var out []MatchRow
	for rows.Next() {
		var m MatchRow
		if err := rows.Scan(&m.ValueA, &m.ValueB, &m.Score); err != nil {
			return nil, fmt.Errorf("store: scan match row: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// UnmatchedRow is one persisted unmatched residual as read back for the
// review server.
type UnmatchedRow struct {
	Side  string
	Value json.RawMessage
}

// ListUnmatched returns the unmatched residuals persisted for a run,
// optionally filtered to side ("a" or "b"); an empty side returns both.
func (s *Store) ListUnmatched(localDebug bool, runID int64, side string) ([]UnmatchedRow, error) {
	debug.DebugHeader(localDebug)
	defer debug.DebugFooter(localDebug)

	query := `SELECT side, value FROM correlate_unmatched WHERE run_id = $1`
	args := []any{runID}
	if side != "" {
		query += ` AND side = $2`
		args = append(args, side)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list unmatched: %w", err)
	}
	defer rows.Close()

	var out []UnmatchedRow
	for rows.Next() {
		var u UnmatchedRow
		if err := rows.Scan(&u.Side, &u.Value); err != nil {
			return nil, fmt.Errorf("store: scan unmatched row: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Stats summarizes a completed run for the review web server.
type Stats struct {
	RunID          int64   `json:"run_id"`
	MatchCount     int     `json:"match_count"`
	UnmatchedCount int     `json:"unmatched_count"`
	AverageScore   float64 `json:"average_score"`
	MinScore       float64 `json:"min_score"`
	MaxScore       float64 `json:"max_score"`
}

// RunStats computes match/unmatched counts and score distribution for a run.
func (s *Store) RunStats(localDebug bool, runID int64) (*Stats, error) {
	debug.DebugHeader(localDebug)
	defer debug.DebugFooter(localDebug)

	stats := &Stats{RunID: runID}

	row := s.db.QueryRow(`
		SELECT COUNT(*), COALESCE(AVG(score), 0), COALESCE(MIN(score), 0), COALESCE(MAX(score), 0)
		FROM correlate_match WHERE run_id = $1
	`, runID)
	if err := row.Scan(&stats.MatchCount, &stats.AverageScore, &stats.MinScore, &stats.MaxScore); err != nil {
		return nil, fmt.Errorf("store: match stats: %w", err)
	}

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM correlate_unmatched WHERE run_id = $1`, runID).Scan(&stats.UnmatchedCount); err != nil {
		return nil, fmt.Errorf("store: unmatched stats: %w", err)
	}

	return stats, nil
}
