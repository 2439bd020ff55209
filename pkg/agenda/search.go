package agenda

import (
	"context"
	"fmt"

	"github.com/ctxhub/ctxhub/internal/fts"
	"github.com/ctxhub/ctxhub/pkg/model"
)

// Search finds agendas by title or description, best lexical match first,
// rank ties broken toward the most recent id. Each hit is hydrated with its
// ordered tasks. Agendas have no vector component.
func (e *Engine) Search(ctx context.Context, query string, limit int) ([]model.Agenda, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", model.ErrInvalidInput)
	}

	match := fts.MatchExpr(query)
	if match == "" {
		return []model.Agenda{}, nil
	}

	rows, err := e.db.QueryContext(ctx,
		"SELECT rowid FROM agendas_fts WHERE agendas_fts MATCH ? ORDER BY rank, rowid DESC LIMIT ?",
		match, limit)
	if err != nil {
		return nil, fmt.Errorf("agenda search failed: %w", err)
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
	if err := rows.Err(); err != nil {
		return nil, err
	}

	results := make([]model.Agenda, 0, len(ids))
	for _, id := range ids {
		a, err := e.Get(ctx, id)
		if err != nil {
			e.logger.Warn().Err(err).Int64("id", id).Msg("Search hit has no agenda row")
			continue
		}
		results = append(results, *a)
	}
	return results, nil
}
