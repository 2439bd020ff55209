package agenda

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ctxhub/ctxhub/pkg/model"
)

// UpdateRequest carries the optional fields of an agenda update. Nil fields
// are left untouched.
type UpdateRequest struct {
	IsActive    *bool
	Title       *string
	Description *string
	NewTasks    []model.TaskInput
}

// UpdateTask sets a task's completion flag and recomputes the owning
// agenda's auto-deactivation condition in the same transaction: the moment
// every non-optional task is completed, the agenda goes inactive.
func (e *Engine) UpdateTask(ctx context.Context, taskID int64, isCompleted bool) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var agendaID int64
	err = tx.QueryRowContext(ctx, "SELECT agenda_id FROM tasks WHERE id = ?", taskID).Scan(&agendaID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("task %d: %w", taskID, model.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to load task %d: %w", taskID, err)
	}

	var isActive bool
	if err := tx.QueryRowContext(ctx, "SELECT is_active FROM agendas WHERE id = ?", agendaID).Scan(&isActive); err != nil {
		return fmt.Errorf("failed to load agenda %d: %w", agendaID, err)
	}
	if !isActive {
		return fmt.Errorf("%w: agenda %d is already inactive", model.ErrConflict, agendaID)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE tasks SET is_completed = ? WHERE id = ?", isCompleted, taskID); err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	var remaining int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tasks WHERE agenda_id = ? AND is_optional = 0 AND is_completed = 0",
		agendaID).Scan(&remaining); err != nil {
		return fmt.Errorf("failed to recompute agenda state: %w", err)
	}
	deactivated := false
	if remaining == 0 {
		if _, err := tx.ExecContext(ctx,
			"UPDATE agendas SET is_active = 0 WHERE id = ?", agendaID); err != nil {
			return fmt.Errorf("failed to deactivate agenda: %w", err)
		}
		deactivated = true
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	e.logger.Debug().
		Int64("task", taskID).
		Int64("agenda", agendaID).
		Bool("completed", isCompleted).
		Bool("agenda_deactivated", deactivated).
		Msg("Task updated")
	return nil
}

// Update applies any provided field. Deactivation is always allowed; manual
// reactivation is not. New tasks append with task_order continuing the
// existing sequence, and appending an incomplete non-optional task to an
// inactive agenda reactivates it, since a new unmet obligation exists.
func (e *Engine) Update(ctx context.Context, id int64, req UpdateRequest) error {
	if req.IsActive != nil && *req.IsActive {
		return fmt.Errorf("%w: an agenda cannot be manually reactivated", model.ErrConflict)
	}
	for _, t := range req.NewTasks {
		if strings.TrimSpace(t.Details) == "" {
			return fmt.Errorf("%w: task details are required", model.ErrInvalidInput)
		}
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var isActive bool
	var title, description string
	err = tx.QueryRowContext(ctx,
		"SELECT is_active, title, description FROM agendas WHERE id = ?", id).
		Scan(&isActive, &title, &description)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("agenda %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to load agenda %d: %w", id, err)
	}

	if req.Title != nil {
		title = *req.Title
	}
	if req.Description != nil {
		description = *req.Description
	}
	if req.Title != nil || req.Description != nil {
		if _, err := tx.ExecContext(ctx,
			"UPDATE agendas SET title = ?, description = ? WHERE id = ?",
			title, description, id); err != nil {
			return fmt.Errorf("failed to update agenda: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM agendas_fts WHERE rowid = ?", id); err != nil {
			return fmt.Errorf("failed to drop stale agenda text entry: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO agendas_fts (rowid, title, description) VALUES (?, ?, ?)",
			id, title, description); err != nil {
			return fmt.Errorf("failed to re-index agenda text: %w", err)
		}
	}

	if req.IsActive != nil && !*req.IsActive && isActive {
		if _, err := tx.ExecContext(ctx,
			"UPDATE agendas SET is_active = 0 WHERE id = ?", id); err != nil {
			return fmt.Errorf("failed to deactivate agenda: %w", err)
		}
		isActive = false
	}

	if len(req.NewTasks) > 0 {
		var maxOrder sql.NullInt64
		if err := tx.QueryRowContext(ctx,
			"SELECT MAX(task_order) FROM tasks WHERE agenda_id = ?", id).Scan(&maxOrder); err != nil {
			return fmt.Errorf("failed to read task order: %w", err)
		}
		start := 0
		if maxOrder.Valid {
			start = int(maxOrder.Int64) + 1
		}

		reactivate := false
		for i, t := range req.NewTasks {
			if err := insertTask(ctx, tx, id, start+i, t); err != nil {
				return err
			}
			if !t.IsOptional {
				reactivate = true
			}
		}

		// A fresh non-optional task is a new unmet obligation.
		if reactivate && !isActive {
			if _, err := tx.ExecContext(ctx,
				"UPDATE agendas SET is_active = 1 WHERE id = ?", id); err != nil {
				return fmt.Errorf("failed to reactivate agenda: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	e.logger.Debug().Int64("id", id).Int("new_tasks", len(req.NewTasks)).Msg("Agenda updated")
	return nil
}
