package memory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/ctxhub/ctxhub/pkg/embedding"
	"github.com/ctxhub/ctxhub/pkg/model"
)

func init() {
	// Auto-register sqlite-vec extension
	sqlite_vec.Auto()
}

// Config holds memory engine configuration
type Config struct {
	DBPath   string
	Logger   zerolog.Logger
	Provider embedding.Provider

	// KRRF is the Reciprocal Rank Fusion smoothing constant (default 60).
	KRRF int
	// Overfetch is the candidate multiplier applied to top_k when fetching
	// from each index before fusion (default 4).
	Overfetch int
}

// Engine is the document store with its lexical and vector indexes. A
// document row exists iff its docs_fts and docs_vec rows exist; every
// mutation maintains all three inside one transaction.
type Engine struct {
	db        *sql.DB
	logger    zerolog.Logger
	provider  embedding.Provider
	dimension int
	kRRF      int
	overfetch int
}

// New opens (or creates) the store, initializes the schema, and backfills
// vectors for any document missing one before returning.
func New(cfg Config) (*Engine, error) {
	if cfg.DBPath == "" {
		return nil, errors.New("database path is required")
	}
	if cfg.Provider == nil {
		return nil, errors.New("embedding provider is required")
	}
	if cfg.KRRF <= 0 {
		cfg.KRRF = 60
	}
	if cfg.Overfetch <= 0 {
		cfg.Overfetch = 4
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_fts5=1")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	e := &Engine{
		db:        db,
		logger:    cfg.Logger,
		provider:  cfg.Provider,
		dimension: cfg.Provider.Dimension(),
		kRRF:      cfg.KRRF,
		overfetch: cfg.Overfetch,
	}

	if err := e.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if err := e.backfillVectors(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("vector backfill failed: %w", err)
	}

	e.logger.Info().Str("db", cfg.DBPath).Int("dimension", e.dimension).Msg("Memory engine initialized")
	return e, nil
}

func (e *Engine) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS docs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			category TEXT NOT NULL,
			topic TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			last_verified TIMESTAMP NOT NULL
		);

		CREATE VIRTUAL TABLE IF NOT EXISTS docs_fts USING fts5(
			category,
			topic,
			content,
			tokenize='porter unicode61'
		);
	`
	if _, err := e.db.Exec(schema); err != nil {
		return err
	}

	// Cosine is the one metric, fixed for the store's lifetime and shared
	// by indexing and querying.
	vectorSchema := fmt.Sprintf(`
		CREATE VIRTUAL TABLE IF NOT EXISTS docs_vec USING vec0(
			id INTEGER PRIMARY KEY,
			embedding float[%d] distance_metric=cosine
		);
	`, e.dimension)
	if _, err := e.db.Exec(vectorSchema); err != nil {
		return fmt.Errorf("failed to create vector table: %w", err)
	}

	return nil
}

// backfillVectors repairs the store invariant for documents written before
// embeddings were available: each missing vector is computed and indexed
// before the engine reports ready.
func (e *Engine) backfillVectors(ctx context.Context) error {
	rows, err := e.db.QueryContext(ctx,
		"SELECT id, content FROM docs WHERE id NOT IN (SELECT id FROM docs_vec)")
	if err != nil {
		return err
	}
	defer rows.Close()

	var ids []int64
	var contents []string
	for rows.Next() {
		var id int64
		var content string
		if err := rows.Scan(&id, &content); err != nil {
			return err
		}
		ids = append(ids, id)
		contents = append(contents, content)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	vectors, err := e.provider.EmbedBatch(ctx, contents)
	if err != nil {
		return err
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i, id := range ids {
		blob, err := e.serialize(vectors[i])
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO docs_vec (id, embedding) VALUES (?, ?)", id, blob); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	e.logger.Info().Int("documents", len(ids)).Msg("Backfilled missing vectors")
	return nil
}

// serialize checks the dimension and converts a vector to the compact
// binary format the vec0 table stores.
func (e *Engine) serialize(vec []float32) ([]byte, error) {
	if len(vec) != e.dimension {
		return nil, fmt.Errorf("%w: got %d, want %d", model.ErrDimensionMismatch, len(vec), e.dimension)
	}
	blob, err := sqlite_vec.SerializeFloat32(vec)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize vector: %w", err)
	}
	return blob, nil
}

// Save stores a new document and its two index entries in one transaction.
// The embedding is computed before the transaction begins; a commit never
// happens with a missing embedding.
func (e *Engine) Save(ctx context.Context, category, topic, content string) (int64, error) {
	if strings.TrimSpace(content) == "" {
		return 0, fmt.Errorf("%w: content is required", model.ErrInvalidInput)
	}

	vector, err := e.provider.Embed(ctx, content)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", model.ErrEmbedding, err)
	}
	blob, err := e.serialize(vector)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO docs (category, topic, content, created_at, last_verified) VALUES (?, ?, ?, ?, ?)",
		category, topic, content, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to insert document: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read document id: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO docs_fts (rowid, category, topic, content) VALUES (?, ?, ?, ?)",
		id, category, topic, content); err != nil {
		return 0, fmt.Errorf("failed to index document text: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO docs_vec (id, embedding) VALUES (?, ?)", id, blob); err != nil {
		return 0, fmt.Errorf("failed to index document vector: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}

	e.logger.Debug().Int64("id", id).Str("topic", topic).Msg("Document saved")
	return id, nil
}

// Get returns the document by id.
func (e *Engine) Get(ctx context.Context, id int64) (*model.Document, error) {
	var doc model.Document
	err := e.db.QueryRowContext(ctx,
		"SELECT id, category, topic, content, created_at, last_verified FROM docs WHERE id = ?", id).
		Scan(&doc.ID, &doc.Category, &doc.Topic, &doc.Content, &doc.CreatedAt, &doc.LastVerified)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document %d: %w", id, err)
	}
	return &doc, nil
}

// Update replaces any provided field and re-indexes accordingly: the
// lexical entry is rebuilt whenever any field changes, the vector entry
// only when content changes. Nil fields keep their current values.
func (e *Engine) Update(ctx context.Context, id int64, category, topic, content *string) error {
	current, err := e.Get(ctx, id)
	if err != nil {
		return err
	}

	newCategory := current.Category
	newTopic := current.Topic
	newContent := current.Content
	if category != nil {
		newCategory = *category
	}
	if topic != nil {
		newTopic = *topic
	}
	if content != nil {
		if strings.TrimSpace(*content) == "" {
			return fmt.Errorf("%w: content cannot be empty", model.ErrInvalidInput)
		}
		newContent = *content
	}

	// Re-embed before the transaction when content changed.
	var blob []byte
	if content != nil {
		vector, err := e.provider.Embed(ctx, newContent)
		if err != nil {
			return fmt.Errorf("%w: %v", model.ErrEmbedding, err)
		}
		if blob, err = e.serialize(vector); err != nil {
			return err
		}
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"UPDATE docs SET category = ?, topic = ?, content = ? WHERE id = ?",
		newCategory, newTopic, newContent, id); err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}

	// FTS update is a delete + insert to keep the entry consistent.
	if _, err := tx.ExecContext(ctx, "DELETE FROM docs_fts WHERE rowid = ?", id); err != nil {
		return fmt.Errorf("failed to drop stale text entry: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO docs_fts (rowid, category, topic, content) VALUES (?, ?, ?, ?)",
		id, newCategory, newTopic, newContent); err != nil {
		return fmt.Errorf("failed to re-index document text: %w", err)
	}

	if blob != nil {
		if _, err := tx.ExecContext(ctx, "DELETE FROM docs_vec WHERE id = ?", id); err != nil {
			return fmt.Errorf("failed to drop stale vector entry: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO docs_vec (id, embedding) VALUES (?, ?)", id, blob); err != nil {
			return fmt.Errorf("failed to re-index document vector: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	e.logger.Debug().Int64("id", id).Msg("Document updated")
	return nil
}

// Delete removes the document and both index entries atomically.
func (e *Engine) Delete(ctx context.Context, id int64) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM docs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("document %d: %w", id, model.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM docs_fts WHERE rowid = ?", id); err != nil {
		return fmt.Errorf("failed to delete text entry: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM docs_vec WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete vector entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	e.logger.Debug().Int64("id", id).Msg("Document deleted")
	return nil
}

// Verify refreshes last_verified to now. The value never decreases: if the
// clock reads earlier than the stored value, the stored value wins.
func (e *Engine) Verify(ctx context.Context, id int64) error {
	current, err := e.Get(ctx, id)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if now.Before(current.LastVerified) {
		now = current.LastVerified
	}

	if _, err := e.db.ExecContext(ctx,
		"UPDATE docs SET last_verified = ? WHERE id = ?", now, id); err != nil {
		return fmt.Errorf("failed to verify document %d: %w", id, err)
	}
	return nil
}

// Close closes the underlying database.
func (e *Engine) Close() error {
	return e.db.Close()
}
