// Package citationstore persists enrichment module results with their
// source citations to a local SQLite audit ledger, so a completed job's
// provenance can be inspected after the fact even when the in-memory job
// record has been evicted.
package citationstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aristath/sentinel/internal/modules"
	_ "modernc.org/sqlite"
)

// Store wraps the audit ledger connection.
type Store struct {
	conn *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS module_results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	job_id TEXT NOT NULL,
	domain TEXT NOT NULL,
	module_id TEXT NOT NULL,
	status TEXT NOT NULL,
	data_json TEXT NOT NULL,
	primary_source_url TEXT NOT NULL,
	primary_source_type TEXT NOT NULL,
	primary_source_at DATETIME NOT NULL,
	executed_at DATETIME NOT NULL,
	duration_ms REAL NOT NULL,
	cached BOOLEAN NOT NULL,
	error_message TEXT
);
CREATE INDEX IF NOT EXISTS idx_module_results_domain ON module_results(domain);
CREATE INDEX IF NOT EXISTS idx_module_results_job ON module_results(job_id);
`

// New opens (creating if needed) the SQLite ledger at dbPath.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create citation store directory: %w", err)
	}
	conn, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open citation store: %w", err)
	}
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping citation store: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to migrate citation store: %w", err)
	}
	return &Store{conn: conn}, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error { return s.conn.Close() }

// Record persists one module's result for a job.
func (s *Store) Record(jobID string, result modules.ModuleResult) error {
	rec := result.ToPersistedRecord()
	dataJSON, err := json.Marshal(rec.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal module data: %w", err)
	}
	_, err = s.conn.Exec(
		`INSERT INTO module_results
			(job_id, domain, module_id, status, data_json, primary_source_url, primary_source_type, primary_source_at, executed_at, duration_ms, cached, error_message)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		jobID, rec.Domain, rec.ModuleID, rec.Status, string(dataJSON),
		rec.PrimarySourceURL, rec.PrimarySourceType, rec.PrimarySourceAt,
		rec.ExecutedAt, rec.DurationMs, rec.Cached, rec.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to record module result: %w", err)
	}
	return nil
}

// RecordAll persists every module result in a completed job's context.
func (s *Store) RecordAll(jobID string, ctx modules.Context) error {
	for _, r := range ctx {
		if r == nil {
			continue
		}
		if err := s.Record(jobID, *r); err != nil {
			return err
		}
	}
	return nil
}

// StoredResult is a row read back from the ledger.
type StoredResult struct {
	JobID             string
	Domain            string
	ModuleID          string
	Status            string
	Data              map[string]any
	PrimarySourceURL  string
	PrimarySourceType string
	PrimarySourceAt   time.Time
	ExecutedAt        time.Time
	DurationMs        float64
	Cached            bool
	ErrorMessage      string
}

// HistoryForDomain returns every stored module result for a domain, most
// recent execution first.
func (s *Store) HistoryForDomain(domain string, limit int) ([]StoredResult, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.conn.Query(
		`SELECT job_id, domain, module_id, status, data_json, primary_source_url, primary_source_type, primary_source_at, executed_at, duration_ms, cached, error_message
		 FROM module_results WHERE domain = ? ORDER BY executed_at DESC LIMIT ?`,
		domain, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query citation store: %w", err)
	}
	defer rows.Close()

	var out []StoredResult
	for rows.Next() {
		var r StoredResult
		var dataJSON string
		if err := rows.Scan(&r.JobID, &r.Domain, &r.ModuleID, &r.Status, &dataJSON,
			&r.PrimarySourceURL, &r.PrimarySourceType, &r.PrimarySourceAt,
			&r.ExecutedAt, &r.DurationMs, &r.Cached, &r.ErrorMessage); err != nil {
			return nil, fmt.Errorf("failed to scan citation store row: %w", err)
		}
		if err := json.Unmarshal([]byte(dataJSON), &r.Data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal module data: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
