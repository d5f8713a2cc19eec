package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"feigov/internal/domain"
)

// SQLiteHistory persists proposal check runs.
type SQLiteHistory struct {
	db *sql.DB
}

// OpenHistory creates or opens the history database at path.
func OpenHistory(path string) (*SQLiteHistory, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	// One writer; runs are appended sequentially.
	db.SetMaxOpenConns(1)

	h := &SQLiteHistory{db: db}
	if err := h.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return h, nil
}

func (h *SQLiteHistory) initSchema() error {
	_, err := h.db.Exec(`
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		proposal TEXT NOT NULL,
		mode TEXT NOT NULL,
		block INTEGER NOT NULL,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		passed INTEGER NOT NULL,
		failures_json TEXT,
		pcv_delta TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_runs_proposal ON runs(proposal, started_at);
	`)
	return err
}

// AppendRun stores rec, assigning an id when rec.ID is empty.
func (h *SQLiteHistory) AppendRun(ctx context.Context, rec domain.RunRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	failures, err := json.Marshal(rec.Failures)
	if err != nil {
		return err
	}
	_, err = h.db.ExecContext(ctx,
		`INSERT INTO runs (id, proposal, mode, block, started_at, duration_ms, passed, failures_json, pcv_delta)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Proposal, string(rec.Mode), int64(rec.Block), rec.StartedAt.UnixNano(),
		rec.Duration.Milliseconds(), rec.Passed, string(failures), rec.PCVDelta,
	)
	if err != nil {
		return fmt.Errorf("append run %s: %w", rec.Proposal, err)
	}
	return nil
}

// ListRuns returns the newest runs first. An empty proposal lists all;
// limit <= 0 means no limit.
func (h *SQLiteHistory) ListRuns(ctx context.Context, proposal string, limit int) ([]domain.RunRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := h.db.QueryContext(ctx,
		`SELECT id, proposal, mode, block, started_at, duration_ms, passed, failures_json, pcv_delta
		 FROM runs WHERE (? = '' OR proposal = ?)
		 ORDER BY started_at DESC LIMIT ?`,
		proposal, proposal, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []domain.RunRecord
	for rows.Next() {
		var (
			rec        domain.RunRecord
			mode       string
			block      int64
			startedAt  int64
			durationMs int64
			failures   sql.NullString
			delta      sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.Proposal, &mode, &block, &startedAt, &durationMs, &rec.Passed, &failures, &delta); err != nil {
			return nil, err
		}
		rec.Mode = domain.RunMode(mode)
		rec.Block = uint64(block)
		rec.StartedAt = time.Unix(0, startedAt).UTC()
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		rec.PCVDelta = delta.String
		if failures.Valid && failures.String != "" {
			if err := json.Unmarshal([]byte(failures.String), &rec.Failures); err != nil {
				return nil, fmt.Errorf("decode failures of run %s: %w", rec.ID, err)
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (h *SQLiteHistory) Close() error { return h.db.Close() }

var _ domain.HistoryStore = (*SQLiteHistory)(nil)
