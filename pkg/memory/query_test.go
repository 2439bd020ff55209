package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctxhub/ctxhub/pkg/model"
)

func TestQuery_InvalidTopK(t *testing.T) {
	e, _, cleanup := createTestEngine(t)
	defer cleanup()

	_, err := e.Query(context.Background(), "anything", 0)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = e.Query(context.Background(), "anything", -3)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestQuery_EmptyStore(t *testing.T) {
	e, _, cleanup := createTestEngine(t)
	defer cleanup()

	results, err := e.Query(context.Background(), "anything at all", 5)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestQuery_KeywordMatchRanksFirst(t *testing.T) {
	e, _, cleanup := createTestEngine(t)
	defer cleanup()
	ctx := context.Background()

	_, err := e.Save(ctx, "preference", "editor", "Tabs are preferred over spaces")
	require.NoError(t, err)
	want, err := e.Save(ctx, "architecture", "storage", "All state lives in a single sqlite file")
	require.NoError(t, err)
	_, err = e.Save(ctx, "bug_fix", "race", "The watcher needed a mutex around reloads")
	require.NoError(t, err)

	results, err := e.Query(ctx, "sqlite file state", 3)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, want, results[0].ID)
	assert.Greater(t, results[0].FusedScore, 0.0)
}

func TestQuery_TopKTruncates(t *testing.T) {
	e, _, cleanup := createTestEngine(t)
	defer cleanup()
	ctx := context.Background()

	for _, topic := range []string{"alpha", "beta", "gamma", "delta", "epsilon"} {
		_, err := e.Save(ctx, "notes", topic, "shared searchable phrase "+topic)
		require.NoError(t, err)
	}

	results, err := e.Query(ctx, "shared searchable phrase", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestQuery_PunctuationIsHarmless(t *testing.T) {
	e, _, cleanup := createTestEngine(t)
	defer cleanup()
	ctx := context.Background()

	_, err := e.Save(ctx, "notes", "quoting", "escaping rules for shell commands")
	require.NoError(t, err)

	for _, q := range []string{
		`"unbalanced quote`,
		`shell AND (commands OR`,
		`what's-this?!`,
		`*`,
	} {
		_, err := e.Query(ctx, q, 3)
		assert.NoError(t, err, "query %q", q)
	}
}

func TestQuery_SemanticOnlyMatch(t *testing.T) {
	e, provider, cleanup := createTestEngine(t)
	defer cleanup()
	ctx := context.Background()

	// No token overlap between the query and the target document, so only
	// the vector path can surface it.
	provider.canned = map[string][]float32{
		"Persistence uses a local sqlite file": {1, 0, 0, 0, 0, 0, 0, 0},
		"The release train leaves on Fridays":  {0, 1, 0, 0, 0, 0, 0, 0},
		"where do we keep stored records":      {0.9, 0.1, 0, 0, 0, 0, 0, 0},
	}

	want, err := e.Save(ctx, "architecture", "storage", "Persistence uses a local sqlite file")
	require.NoError(t, err)
	_, err = e.Save(ctx, "process", "release", "The release train leaves on Fridays")
	require.NoError(t, err)

	results, err := e.Query(ctx, "where do we keep stored records", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, want, results[0].ID)
}

func TestQuery_StaleIndexEntrySkipped(t *testing.T) {
	e, _, cleanup := createTestEngine(t)
	defer cleanup()
	ctx := context.Background()

	keep, err := e.Save(ctx, "notes", "kept", "searchable phrase kept")
	require.NoError(t, err)
	gone, err := e.Save(ctx, "notes", "gone", "searchable phrase gone")
	require.NoError(t, err)

	// Break the invariant on purpose: drop the document row but leave the
	// index entries behind.
	_, err = e.db.Exec("DELETE FROM docs WHERE id = ?", gone)
	require.NoError(t, err)

	results, err := e.Query(ctx, "searchable phrase", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, keep, results[0].ID)
}

func TestFreshness(t *testing.T) {
	now := time.Now().UTC()

	assert.InDelta(t, 1.0, freshness(now, now), 1e-9)

	month := freshness(now, now.Add(-30*24*time.Hour))
	year := freshness(now, now.Add(-365*24*time.Hour))
	decade := freshness(now, now.Add(-3650*24*time.Hour))

	assert.Less(t, month, 1.0)
	assert.Less(t, year, month)
	assert.GreaterOrEqual(t, decade, 0.5)

	// A clock skewed into the future must not boost the score.
	assert.InDelta(t, 1.0, freshness(now, now.Add(time.Hour)), 1e-9)
}

func TestQuery_FreshnessPrefersVerified(t *testing.T) {
	e, _, cleanup := createTestEngine(t)
	defer cleanup()
	ctx := context.Background()

	stale, err := e.Save(ctx, "notes", "old", "deploy checklist steps")
	require.NoError(t, err)
	fresh, err := e.Save(ctx, "notes", "new", "deploy checklist steps")
	require.NoError(t, err)

	// Age the first record's verification far into the past.
	_, err = e.db.Exec("UPDATE docs SET last_verified = ?, created_at = ? WHERE id = ?",
		time.Now().UTC().Add(-400*24*time.Hour), time.Now().UTC().Add(-400*24*time.Hour), stale)
	require.NoError(t, err)

	results, err := e.Query(ctx, "deploy checklist steps", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, fresh, results[0].ID)
	assert.Greater(t, results[0].FusedScore, results[1].FusedScore)
}
