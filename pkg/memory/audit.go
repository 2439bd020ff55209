package memory

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// AuditReport describes the state of the store invariant: a document row
// exists iff a matching lexical row and vector row exist.
type AuditReport struct {
	Documents     int     `json:"documents"`
	TextEntries   int     `json:"text_entries"`
	VectorEntries int     `json:"vector_entries"`
	MissingText   []int64 `json:"missing_text,omitempty"`
	MissingVector []int64 `json:"missing_vector,omitempty"`
	OrphanText    []int64 `json:"orphan_text,omitempty"`
	OrphanVector  []int64 `json:"orphan_vector,omitempty"`
}

// Clean reports whether the invariant holds for every id.
func (r AuditReport) Clean() bool {
	return len(r.MissingText) == 0 && len(r.MissingVector) == 0 &&
		len(r.OrphanText) == 0 && len(r.OrphanVector) == 0
}

// Audit checks every document against its two index entries.
func (e *Engine) Audit(ctx context.Context) (AuditReport, error) {
	var report AuditReport

	counts := []struct {
		query string
		dst   *int
	}{
		{"SELECT COUNT(*) FROM docs", &report.Documents},
		{"SELECT COUNT(*) FROM docs_fts", &report.TextEntries},
		{"SELECT COUNT(*) FROM docs_vec", &report.VectorEntries},
	}
	for _, c := range counts {
		if err := e.db.QueryRowContext(ctx, c.query).Scan(c.dst); err != nil {
			return report, fmt.Errorf("audit count failed: %w", err)
		}
	}

	diffs := []struct {
		query string
		dst   *[]int64
	}{
		{"SELECT id FROM docs WHERE id NOT IN (SELECT rowid FROM docs_fts)", &report.MissingText},
		{"SELECT id FROM docs WHERE id NOT IN (SELECT id FROM docs_vec)", &report.MissingVector},
		{"SELECT rowid FROM docs_fts WHERE rowid NOT IN (SELECT id FROM docs)", &report.OrphanText},
		{"SELECT id FROM docs_vec WHERE id NOT IN (SELECT id FROM docs)", &report.OrphanVector},
	}
	for _, d := range diffs {
		ids, err := e.collectIDs(ctx, d.query)
		if err != nil {
			return report, err
		}
		*d.dst = ids
	}

	return report, nil
}

func (e *Engine) collectIDs(ctx context.Context, query string) ([]int64, error) {
	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("audit scan failed: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Stats summarizes the store without walking the indexes.
type Stats struct {
	Documents    int       `json:"documents"`
	Dimension    int       `json:"dimension"`
	LastVerified time.Time `json:"last_verified,omitempty"`
}

// Stats returns the document count and the most recent verification time.
func (e *Engine) Stats(ctx context.Context) (Stats, error) {
	st := Stats{Dimension: e.dimension}

	if err := e.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM docs").Scan(&st.Documents); err != nil {
		return st, fmt.Errorf("stats count failed: %w", err)
	}

	var last time.Time
	err := e.db.QueryRowContext(ctx,
		"SELECT last_verified FROM docs ORDER BY last_verified DESC LIMIT 1",
	).Scan(&last)
	switch {
	case err == sql.ErrNoRows:
		// empty store
	case err != nil:
		return st, fmt.Errorf("stats last_verified failed: %w", err)
	default:
		st.LastVerified = last.UTC()
	}

	return st, nil
}

// Checkpoint flushes the WAL back into the main database file.
func (e *Engine) Checkpoint(ctx context.Context) error {
	if _, err := e.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("checkpoint failed: %w", err)
	}
	return nil
}
