package agenda

import (
	"context"
	"fmt"
)

// AuditReport describes the state of the agenda store: every agenda has a
// lexical entry, every task has an owning agenda.
type AuditReport struct {
	Agendas     int     `json:"agendas"`
	Tasks       int     `json:"tasks"`
	TextEntries int     `json:"text_entries"`
	MissingText []int64 `json:"missing_text,omitempty"`
	OrphanText  []int64 `json:"orphan_text,omitempty"`
	OrphanTasks []int64 `json:"orphan_tasks,omitempty"`
}

// Clean reports whether the store is consistent.
func (r AuditReport) Clean() bool {
	return len(r.MissingText) == 0 && len(r.OrphanText) == 0 && len(r.OrphanTasks) == 0
}

// Audit checks agendas against their lexical entries and tasks against
// their owners.
func (e *Engine) Audit(ctx context.Context) (AuditReport, error) {
	var report AuditReport

	counts := []struct {
		query string
		dst   *int
	}{
		{"SELECT COUNT(*) FROM agendas", &report.Agendas},
		{"SELECT COUNT(*) FROM tasks", &report.Tasks},
		{"SELECT COUNT(*) FROM agendas_fts", &report.TextEntries},
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
		{"SELECT id FROM agendas WHERE id NOT IN (SELECT rowid FROM agendas_fts)", &report.MissingText},
		{"SELECT rowid FROM agendas_fts WHERE rowid NOT IN (SELECT id FROM agendas)", &report.OrphanText},
		{"SELECT id FROM tasks WHERE agenda_id NOT IN (SELECT id FROM agendas)", &report.OrphanTasks},
	}
	for _, d := range diffs {
		rows, err := e.db.QueryContext(ctx, d.query)
		if err != nil {
			return report, fmt.Errorf("audit scan failed: %w", err)
		}
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return report, err
			}
			*d.dst = append(*d.dst, id)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return report, err
		}
		rows.Close()
	}

	return report, nil
}

// Checkpoint flushes the WAL back into the main database file.
func (e *Engine) Checkpoint(ctx context.Context) error {
	if _, err := e.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("checkpoint failed: %w", err)
	}
	return nil
}
