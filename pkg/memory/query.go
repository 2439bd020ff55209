package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ctxhub/ctxhub/internal/fts"
	"github.com/ctxhub/ctxhub/pkg/model"
)

// QueryResult is a document with its fused relevance score.
type QueryResult struct {
	model.Document
	FusedScore float64 `json:"fused_score"`
}

// Query returns the best topK documents for the text by combined lexical and
// semantic relevance. Candidates are fetched from both indexes, merged with
// Reciprocal Rank Fusion, adjusted for freshness, and truncated to topK.
func (e *Engine) Query(ctx context.Context, text string, topK int) ([]QueryResult, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: top_k must be positive", model.ErrInvalidInput)
	}

	queryVec, err := e.provider.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrEmbedding, err)
	}
	blob, err := e.serialize(queryVec)
	if err != nil {
		return nil, err
	}

	fetch := e.overfetch * topK

	lexical, err := e.lexicalSearch(ctx, text, fetch)
	if err != nil {
		return nil, err
	}
	semantic, err := e.vectorSearch(ctx, blob, fetch)
	if err != nil {
		return nil, err
	}

	// Reciprocal Rank Fusion: an id absent from a list contributes nothing
	// for that list.
	scores := make(map[int64]float64)
	for rank, id := range lexical {
		scores[id] += 1.0 / float64(e.kRRF+rank+1)
	}
	for rank, id := range semantic {
		scores[id] += 1.0 / float64(e.kRRF+rank+1)
	}
	if len(scores) == 0 {
		return []QueryResult{}, nil
	}

	type candidate struct {
		id    int64
		score float64
	}
	candidates := make([]candidate, 0, len(scores))
	for id, score := range scores {
		candidates = append(candidates, candidate{id: id, score: score})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].id > candidates[j].id
	})

	// Hydrate a wider slice than topK so the freshness adjustment can
	// still promote a slightly lower-ranked but recently verified record.
	hydrate := 2 * topK
	if hydrate < 10 {
		hydrate = 10
	}
	if hydrate > len(candidates) {
		hydrate = len(candidates)
	}

	now := time.Now().UTC()
	results := make([]QueryResult, 0, hydrate)
	for _, c := range candidates[:hydrate] {
		doc, err := e.Get(ctx, c.id)
		if err != nil {
			// The index briefly outlived the record; skip rather than fail
			// the whole query.
			e.logger.Warn().Err(err).Int64("id", c.id).Msg("Candidate has no document row")
			continue
		}
		results = append(results, QueryResult{
			Document:   *doc,
			FusedScore: c.score * freshness(now, doc.LastVerified),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].FusedScore != results[j].FusedScore {
			return results[i].FusedScore > results[j].FusedScore
		}
		if !results[i].CreatedAt.Equal(results[j].CreatedAt) {
			return results[i].CreatedAt.After(results[j].CreatedAt)
		}
		return results[i].ID > results[j].ID
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// freshness decays mildly with the age of last verification:
// 0 days -> 1.0, 30 days -> ~0.83, 365 days -> ~0.70, floored at 0.5.
func freshness(now, lastVerified time.Time) float64 {
	ageDays := now.Sub(lastVerified).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	return math.Max(0.5, 1.0-math.Log(ageDays+1)*0.05)
}

// lexicalSearch returns candidate ids best match first. Ties on rank break
// toward the most recent id.
func (e *Engine) lexicalSearch(ctx context.Context, text string, limit int) ([]int64, error) {
	match := fts.MatchExpr(text)
	if match == "" {
		return nil, nil
	}

	rows, err := e.db.QueryContext(ctx,
		"SELECT rowid FROM docs_fts WHERE docs_fts MATCH ? ORDER BY rank, rowid DESC LIMIT ?",
		match, limit)
	if err != nil {
		return nil, fmt.Errorf("lexical search failed: %w", err)
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

// vectorSearch returns candidate ids nearest first by cosine distance.
func (e *Engine) vectorSearch(ctx context.Context, blob []byte, limit int) ([]int64, error) {
	rows, err := e.db.QueryContext(ctx,
		"SELECT id FROM docs_vec WHERE embedding MATCH ? AND k = ? ORDER BY distance", blob, limit)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
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

