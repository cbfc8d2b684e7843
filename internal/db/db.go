// Package db provides the SQLite run ledger for mailbrief.
//
// The ledger records digest invocations only: when a run happened, in what
// mode, and how it ended. The scheduler guard reads it to suppress duplicate
// runs. No triage state is persisted.
package db

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/brieflab/mailbrief/internal/types"
)

// DB wraps a SQLite connection for ledger operations.
type DB struct {
	conn *sql.DB
	path string
}

// Open opens (or creates) the run ledger at the given path.
func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", dir, err)
	}

	conn, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := conn.Exec(Schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return &DB{conn: conn, path: dbPath}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	if d.conn != nil {
		return d.conn.Close()
	}
	return nil
}

// Path returns the database file path.
func (d *DB) Path() string {
	return d.path
}

// GenID generates a random 16-character hex ID.
func GenID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return hex.EncodeToString(b)
}

// Now returns the current time as an ISO 8601 string.
func Now() string {
	return time.Now().Format(time.RFC3339)
}

// InsertRun records one digest invocation.
func (d *DB) InsertRun(r *types.RunRecord) error {
	if r.ID == "" {
		r.ID = GenID()
	}
	if r.StartedAt == "" {
		r.StartedAt = Now()
	}
	_, err := d.conn.Exec(`
		INSERT INTO runs (id, mode, grouping, items, groups, sent_to, status, error, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Mode, r.Grouping, r.Items, r.Groups,
		nullStr(r.SentTo), r.Status, nullStr(r.Error), r.StartedAt,
	)
	return err
}

// LastRun returns the started_at of the most recent successful run in the
// given mode, or "" when none exists.
func (d *DB) LastRun(mode string) string {
	var started sql.NullString
	d.conn.QueryRow(`
		SELECT MAX(started_at) FROM runs
		WHERE mode = ? AND status = ?`, mode, types.RunStatusSent).Scan(&started)
	if started.Valid {
		return started.String
	}
	return ""
}

// ListRuns returns the most recent runs, newest first.
func (d *DB) ListRuns(limit int) ([]*types.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.conn.Query(`
		SELECT id, mode, grouping, items, groups, sent_to, status, error, started_at
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*types.RunRecord
	for rows.Next() {
		r := &types.RunRecord{}
		var sentTo, runErr sql.NullString
		if err := rows.Scan(&r.ID, &r.Mode, &r.Grouping, &r.Items, &r.Groups,
			&sentTo, &r.Status, &runErr, &r.StartedAt); err != nil {
			return nil, err
		}
		r.SentTo = sentTo.String
		r.Error = runErr.String
		result = append(result, r)
	}
	return result, rows.Err()
}

// RunCount returns the total number of recorded runs.
func (d *DB) RunCount() int {
	var n int
	d.conn.QueryRow("SELECT COUNT(*) FROM runs").Scan(&n)
	return n
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
