package tools

import (
	"context"
	"fmt"

	"github.com/ctxhub/ctxhub/pkg/agenda"
	"github.com/ctxhub/ctxhub/pkg/model"
)

// CreateAgendaResult confirms a create_agenda call.
type CreateAgendaResult struct {
	AgendaID int64 `json:"agenda_id"`
}

// AgendaConfirmation is the generic result of an agenda mutation.
type AgendaConfirmation struct {
	AgendaID int64  `json:"agenda_id,omitempty"`
	TaskID   int64  `json:"task_id,omitempty"`
	Message  string `json:"message"`
}

// RegisterAgendaTools binds the agenda engine operations to the registry.
func RegisterAgendaTools(reg *Registry, eng *agenda.Engine) error {
	defs := []Definition{
		{
			Name:        "create_agenda",
			Description: "Create a new agenda (plan/todo list) with an ordered task list",
			Parameters: []Parameter{
				{Name: "tasks", Type: "array", Description: "Task list; each task has details (required), is_optional, acceptance_guard", Required: true},
				{Name: "title", Type: "string", Description: "Optional agenda title", Default: ""},
				{Name: "description", Type: "string", Description: "Optional agenda description", Default: ""},
			},
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				tasks, err := tasksArg(params, "tasks")
				if err != nil {
					return nil, err
				}
				id, err := eng.Create(ctx, strArg(params, "title"), strArg(params, "description"), tasks)
				if err != nil {
					return nil, err
				}
				return CreateAgendaResult{AgendaID: id}, nil
			},
		},
		{
			Name:        "list_agendas",
			Description: "List agendas, by default only active ones",
			Parameters: []Parameter{
				{Name: "active_only", Type: "boolean", Description: "Only include active agendas", Default: true},
			},
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				return eng.List(ctx, boolArg(params, "active_only", true))
			},
		},
		{
			Name:        "get_agenda",
			Description: "Get an agenda with its tasks in execution order",
			Parameters: []Parameter{
				{Name: "agenda_id", Type: "integer", Description: "Id of the agenda", Required: true},
			},
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				id, err := intArg(params, "agenda_id")
				if err != nil {
					return nil, err
				}
				return eng.Get(ctx, id)
			},
		},
		{
			Name:        "search_agendas",
			Description: "Search agendas by title or description",
			Parameters: []Parameter{
				{Name: "query", Type: "string", Description: "Search query", Required: true},
				{Name: "limit", Type: "integer", Description: "Maximum number of results", Default: 10},
			},
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				limit, err := intArg(params, "limit")
				if err != nil {
					return nil, err
				}
				return eng.Search(ctx, strArg(params, "query"), int(limit))
			},
		},
		{
			Name:        "update_task",
			Description: "Set a task's completion status; completing the last non-optional task deactivates the agenda",
			Parameters: []Parameter{
				{Name: "task_id", Type: "integer", Description: "Id of the task", Required: true},
				{Name: "is_completed", Type: "boolean", Description: "Whether the task is finished", Required: true},
			},
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				id, err := intArg(params, "task_id")
				if err != nil {
					return nil, err
				}
				completed, ok := params["is_completed"].(bool)
				if !ok {
					return nil, fmt.Errorf("%w: is_completed is required", model.ErrInvalidInput)
				}
				if err := eng.UpdateTask(ctx, id, completed); err != nil {
					return nil, err
				}
				return AgendaConfirmation{TaskID: id, Message: "task updated"}, nil
			},
		},
		{
			Name:        "update_agenda",
			Description: "Update an agenda's status or details, or append new tasks",
			Parameters: []Parameter{
				{Name: "agenda_id", Type: "integer", Description: "Id of the agenda", Required: true},
				{Name: "is_active", Type: "boolean", Description: "Set false to deactivate; reactivation only happens by appending non-optional tasks"},
				{Name: "new_tasks", Type: "array", Description: "Tasks to append after the existing sequence"},
				{Name: "title", Type: "string", Description: "New title"},
				{Name: "description", Type: "string", Description: "New description"},
			},
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				id, err := intArg(params, "agenda_id")
				if err != nil {
					return nil, err
				}
				newTasks, err := tasksArg(params, "new_tasks")
				if err != nil {
					return nil, err
				}
				req := agenda.UpdateRequest{
					IsActive:    optBoolArg(params, "is_active"),
					Title:       optStrArg(params, "title"),
					Description: optStrArg(params, "description"),
					NewTasks:    newTasks,
				}
				if err := eng.Update(ctx, id, req); err != nil {
					return nil, err
				}
				return AgendaConfirmation{AgendaID: id, Message: "agenda updated"}, nil
			},
		},
		{
			Name:        "delete_agenda",
			Description: "Delete an inactive agenda and all of its tasks",
			Parameters: []Parameter{
				{Name: "agenda_id", Type: "integer", Description: "Id of the agenda", Required: true},
			},
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				id, err := intArg(params, "agenda_id")
				if err != nil {
					return nil, err
				}
				if err := eng.Delete(ctx, id); err != nil {
					return nil, err
				}
				return AgendaConfirmation{AgendaID: id, Message: "agenda deleted"}, nil
			},
		},
	}

	for _, def := range defs {
		if err := reg.Register(def); err != nil {
			return err
		}
	}
	return nil
}
