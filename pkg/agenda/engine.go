package agenda

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/ctxhub/ctxhub/pkg/model"
)

// Config holds agenda engine configuration
type Config struct {
	DBPath string
	Logger zerolog.Logger
}

// Engine manages agendas and their tasks in a dedicated database file,
// with a lexical index over title and description. Agendas never touch
// the vector path.
type Engine struct {
	db     *sql.DB
	logger zerolog.Logger
}

// New opens (or creates) the agenda store.
func New(cfg Config) (*Engine, error) {
	if cfg.DBPath == "" {
		return nil, errors.New("database path is required")
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_fts5=1&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	e := &Engine{db: db, logger: cfg.Logger}
	if err := e.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	e.logger.Info().Str("db", cfg.DBPath).Msg("Agenda engine initialized")
	return e, nil
}

func (e *Engine) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS agendas (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			is_active INTEGER NOT NULL DEFAULT 1,
			title TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL
		);

		CREATE TABLE IF NOT EXISTS tasks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			agenda_id INTEGER NOT NULL,
			task_order INTEGER NOT NULL,
			is_optional INTEGER NOT NULL DEFAULT 0,
			details TEXT NOT NULL,
			acceptance_guard TEXT,
			is_completed INTEGER NOT NULL DEFAULT 0,
			FOREIGN KEY(agenda_id) REFERENCES agendas(id) ON DELETE CASCADE
		);
		CREATE INDEX IF NOT EXISTS idx_tasks_agenda ON tasks(agenda_id);

		CREATE VIRTUAL TABLE IF NOT EXISTS agendas_fts USING fts5(
			title,
			description,
			tokenize='porter unicode61'
		);
	`
	_, err := e.db.Exec(schema)
	return err
}

// Create stores a new agenda with its tasks; task_order follows the input
// sequence. The agenda starts active regardless of the task mix: vacuous
// completion only applies once a task mutation triggers recomputation.
func (e *Engine) Create(ctx context.Context, title, description string, tasks []model.TaskInput) (int64, error) {
	for _, t := range tasks {
		if strings.TrimSpace(t.Details) == "" {
			return 0, fmt.Errorf("%w: task details are required", model.ErrInvalidInput)
		}
	}

	now := time.Now().UTC()

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO agendas (title, description, created_at) VALUES (?, ?, ?)",
		title, description, now)
	if err != nil {
		return 0, fmt.Errorf("failed to insert agenda: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read agenda id: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO agendas_fts (rowid, title, description) VALUES (?, ?, ?)",
		id, title, description); err != nil {
		return 0, fmt.Errorf("failed to index agenda text: %w", err)
	}

	for i, t := range tasks {
		if err := insertTask(ctx, tx, id, i, t); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}

	e.logger.Debug().Int64("id", id).Int("tasks", len(tasks)).Msg("Agenda created")
	return id, nil
}

func insertTask(ctx context.Context, tx *sql.Tx, agendaID int64, order int, t model.TaskInput) error {
	var guard interface{}
	if t.AcceptanceGuard != "" {
		guard = t.AcceptanceGuard
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO tasks (agenda_id, task_order, is_optional, details, acceptance_guard) VALUES (?, ?, ?, ?, ?)",
		agendaID, order, t.IsOptional, t.Details, guard); err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

// Get returns the agenda and its tasks ordered by task_order.
func (e *Engine) Get(ctx context.Context, id int64) (*model.Agenda, error) {
	var a model.Agenda
	err := e.db.QueryRowContext(ctx,
		"SELECT id, is_active, title, description, created_at FROM agendas WHERE id = ?", id).
		Scan(&a.ID, &a.IsActive, &a.Title, &a.Description, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("agenda %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load agenda %d: %w", id, err)
	}

	rows, err := e.db.QueryContext(ctx,
		"SELECT id, agenda_id, task_order, is_optional, details, acceptance_guard, is_completed FROM tasks WHERE agenda_id = ? ORDER BY task_order",
		id)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t model.Task
		var guard sql.NullString
		if err := rows.Scan(&t.ID, &t.AgendaID, &t.Order, &t.IsOptional, &t.Details, &guard, &t.IsCompleted); err != nil {
			return nil, err
		}
		t.AcceptanceGuard = guard.String
		a.Tasks = append(a.Tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &a, nil
}

// List returns agenda summaries (without tasks), newest first.
func (e *Engine) List(ctx context.Context, activeOnly bool) ([]model.Agenda, error) {
	query := "SELECT id, is_active, title, description, created_at FROM agendas"
	if activeOnly {
		query += " WHERE is_active = 1"
	}
	query += " ORDER BY id DESC"

	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list agendas: %w", err)
	}
	defer rows.Close()

	agendas := []model.Agenda{}
	for rows.Next() {
		var a model.Agenda
		if err := rows.Scan(&a.ID, &a.IsActive, &a.Title, &a.Description, &a.CreatedAt); err != nil {
			return nil, err
		}
		agendas = append(agendas, a)
	}
	return agendas, rows.Err()
}

// Delete removes an agenda, its tasks, and its lexical entry in one
// transaction. An active agenda cannot be deleted.
func (e *Engine) Delete(ctx context.Context, id int64) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var isActive bool
	err = tx.QueryRowContext(ctx, "SELECT is_active FROM agendas WHERE id = ?", id).Scan(&isActive)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("agenda %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to load agenda %d: %w", id, err)
	}
	if isActive {
		return fmt.Errorf("%w: agenda %d is active, mark it inactive first", model.ErrConflict, id)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM tasks WHERE agenda_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete tasks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM agendas WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete agenda: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM agendas_fts WHERE rowid = ?", id); err != nil {
		return fmt.Errorf("failed to delete agenda text entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	e.logger.Debug().Int64("id", id).Msg("Agenda deleted")
	return nil
}

// Close closes the underlying database.
func (e *Engine) Close() error {
	return e.db.Close()
}
