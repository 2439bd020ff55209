package agenda

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctxhub/ctxhub/pkg/model"
)

func createTestEngine(t *testing.T) (*Engine, func()) {
	t.Helper()

	dir, err := os.MkdirTemp("", "agenda-test-*")
	require.NoError(t, err)

	e, err := New(Config{
		DBPath: filepath.Join(dir, "test.db"),
		Logger: zerolog.New(os.Stdout).Level(zerolog.Disabled),
	})
	require.NoError(t, err)

	cleanup := func() {
		e.Close()
		os.RemoveAll(dir)
	}
	return e, cleanup
}

func TestCreateAndGet(t *testing.T) {
	e, cleanup := createTestEngine(t)
	defer cleanup()
	ctx := context.Background()

	id, err := e.Create(ctx, "Release v2", "Ship the second release", []model.TaskInput{
		{Details: "write changelog"},
		{Details: "tag the release", AcceptanceGuard: "CI green on main"},
		{Details: "announce", IsOptional: true},
	})
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	a, err := e.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Release v2", a.Title)
	assert.True(t, a.IsActive)
	require.Len(t, a.Tasks, 3)

	assert.Equal(t, "write changelog", a.Tasks[0].Details)
	assert.Equal(t, 0, a.Tasks[0].Order)
	assert.Empty(t, a.Tasks[0].AcceptanceGuard)

	assert.Equal(t, "CI green on main", a.Tasks[1].AcceptanceGuard)
	assert.Equal(t, 1, a.Tasks[1].Order)

	assert.True(t, a.Tasks[2].IsOptional)
	assert.False(t, a.Tasks[2].IsCompleted)
}

func TestCreate_EmptyTaskDetails(t *testing.T) {
	e, cleanup := createTestEngine(t)
	defer cleanup()

	_, err := e.Create(context.Background(), "t", "d", []model.TaskInput{{Details: "  "}})
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestCreate_NoTasksStartsActive(t *testing.T) {
	e, cleanup := createTestEngine(t)
	defer cleanup()
	ctx := context.Background()

	// Vacuous completion only applies on task mutation, never at creation.
	id, err := e.Create(ctx, "empty", "", nil)
	require.NoError(t, err)

	a, err := e.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, a.IsActive)
	assert.Empty(t, a.Tasks)
}

func TestGet_NotFound(t *testing.T) {
	e, cleanup := createTestEngine(t)
	defer cleanup()

	_, err := e.Get(context.Background(), 404)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestUpdateTask_AutoDeactivation(t *testing.T) {
	e, cleanup := createTestEngine(t)
	defer cleanup()
	ctx := context.Background()

	id, err := e.Create(ctx, "work", "", []model.TaskInput{
		{Details: "first"},
		{Details: "second"},
		{Details: "nice to have", IsOptional: true},
	})
	require.NoError(t, err)

	a, err := e.Get(ctx, id)
	require.NoError(t, err)

	// One required task left incomplete: agenda stays active.
	require.NoError(t, e.UpdateTask(ctx, a.Tasks[0].ID, true))
	a, err = e.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, a.IsActive)

	// Completing the last required task deactivates, even though the
	// optional task is still open.
	require.NoError(t, e.UpdateTask(ctx, a.Tasks[1].ID, true))
	a, err = e.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, a.IsActive)
	assert.False(t, a.Tasks[2].IsCompleted)
}

func TestUpdateTask_OnInactiveAgenda(t *testing.T) {
	e, cleanup := createTestEngine(t)
	defer cleanup()
	ctx := context.Background()

	id, err := e.Create(ctx, "work", "", []model.TaskInput{{Details: "only"}})
	require.NoError(t, err)

	a, err := e.Get(ctx, id)
	require.NoError(t, err)
	require.NoError(t, e.UpdateTask(ctx, a.Tasks[0].ID, true))

	// Agenda auto-deactivated; further task mutations are rejected.
	err = e.UpdateTask(ctx, a.Tasks[0].ID, false)
	assert.ErrorIs(t, err, model.ErrConflict)
}

func TestUpdateTask_NotFound(t *testing.T) {
	e, cleanup := createTestEngine(t)
	defer cleanup()

	assert.ErrorIs(t, e.UpdateTask(context.Background(), 77, true), model.ErrNotFound)
}

func TestUpdateTask_UncompleteKeepsActive(t *testing.T) {
	e, cleanup := createTestEngine(t)
	defer cleanup()
	ctx := context.Background()

	id, err := e.Create(ctx, "work", "", []model.TaskInput{
		{Details: "a"},
		{Details: "b"},
	})
	require.NoError(t, err)

	a, err := e.Get(ctx, id)
	require.NoError(t, err)

	require.NoError(t, e.UpdateTask(ctx, a.Tasks[0].ID, true))
	require.NoError(t, e.UpdateTask(ctx, a.Tasks[0].ID, false))

	a, err = e.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, a.IsActive)
	assert.False(t, a.Tasks[0].IsCompleted)
}

func TestUpdate_ManualDeactivateAndReactivate(t *testing.T) {
	e, cleanup := createTestEngine(t)
	defer cleanup()
	ctx := context.Background()

	id, err := e.Create(ctx, "work", "", []model.TaskInput{{Details: "open task"}})
	require.NoError(t, err)

	inactive := false
	require.NoError(t, e.Update(ctx, id, UpdateRequest{IsActive: &inactive}))

	a, err := e.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, a.IsActive)

	active := true
	err = e.Update(ctx, id, UpdateRequest{IsActive: &active})
	assert.ErrorIs(t, err, model.ErrConflict)
}

func TestUpdate_AppendTasksContinuesOrder(t *testing.T) {
	e, cleanup := createTestEngine(t)
	defer cleanup()
	ctx := context.Background()

	id, err := e.Create(ctx, "work", "", []model.TaskInput{
		{Details: "one"},
		{Details: "two"},
	})
	require.NoError(t, err)

	require.NoError(t, e.Update(ctx, id, UpdateRequest{NewTasks: []model.TaskInput{
		{Details: "three"},
		{Details: "four", IsOptional: true},
	}}))

	a, err := e.Get(ctx, id)
	require.NoError(t, err)
	require.Len(t, a.Tasks, 4)
	assert.Equal(t, []int{0, 1, 2, 3}, []int{
		a.Tasks[0].Order, a.Tasks[1].Order, a.Tasks[2].Order, a.Tasks[3].Order,
	})
	assert.Equal(t, "three", a.Tasks[2].Details)
}

func TestUpdate_AppendRequiredTaskReactivates(t *testing.T) {
	e, cleanup := createTestEngine(t)
	defer cleanup()
	ctx := context.Background()

	id, err := e.Create(ctx, "work", "", []model.TaskInput{{Details: "done soon"}})
	require.NoError(t, err)

	a, err := e.Get(ctx, id)
	require.NoError(t, err)
	require.NoError(t, e.UpdateTask(ctx, a.Tasks[0].ID, true))

	// Appending a required task to the now-inactive agenda revives it.
	require.NoError(t, e.Update(ctx, id, UpdateRequest{NewTasks: []model.TaskInput{
		{Details: "follow-up"},
	}}))

	a, err = e.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, a.IsActive)
}

func TestUpdate_AppendOptionalTaskDoesNotReactivate(t *testing.T) {
	e, cleanup := createTestEngine(t)
	defer cleanup()
	ctx := context.Background()

	id, err := e.Create(ctx, "work", "", []model.TaskInput{{Details: "done soon"}})
	require.NoError(t, err)

	a, err := e.Get(ctx, id)
	require.NoError(t, err)
	require.NoError(t, e.UpdateTask(ctx, a.Tasks[0].ID, true))

	require.NoError(t, e.Update(ctx, id, UpdateRequest{NewTasks: []model.TaskInput{
		{Details: "someday", IsOptional: true},
	}}))

	a, err = e.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, a.IsActive)
}

func TestUpdate_TitleReindexes(t *testing.T) {
	e, cleanup := createTestEngine(t)
	defer cleanup()
	ctx := context.Background()

	id, err := e.Create(ctx, "Original agenda name", "", nil)
	require.NoError(t, err)

	newTitle := "Completely renamed plan"
	require.NoError(t, e.Update(ctx, id, UpdateRequest{Title: &newTitle}))

	hits, err := e.Search(ctx, "renamed plan", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, id, hits[0].ID)

	hits, err = e.Search(ctx, "original", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestUpdate_NotFound(t *testing.T) {
	e, cleanup := createTestEngine(t)
	defer cleanup()

	title := "x"
	err := e.Update(context.Background(), 9000, UpdateRequest{Title: &title})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestDelete(t *testing.T) {
	e, cleanup := createTestEngine(t)
	defer cleanup()
	ctx := context.Background()

	id, err := e.Create(ctx, "short lived", "", []model.TaskInput{{Details: "task"}})
	require.NoError(t, err)

	// Active agendas are protected.
	assert.ErrorIs(t, e.Delete(ctx, id), model.ErrConflict)

	inactive := false
	require.NoError(t, e.Update(ctx, id, UpdateRequest{IsActive: &inactive}))
	require.NoError(t, e.Delete(ctx, id))

	_, err = e.Get(ctx, id)
	assert.ErrorIs(t, err, model.ErrNotFound)

	report, err := e.Audit(ctx)
	require.NoError(t, err)
	assert.True(t, report.Clean())
	assert.Equal(t, 0, report.Tasks)
}

func TestDelete_NotFound(t *testing.T) {
	e, cleanup := createTestEngine(t)
	defer cleanup()

	assert.ErrorIs(t, e.Delete(context.Background(), 5), model.ErrNotFound)
}

func TestList(t *testing.T) {
	e, cleanup := createTestEngine(t)
	defer cleanup()
	ctx := context.Background()

	first, err := e.Create(ctx, "first", "", []model.TaskInput{{Details: "t"}})
	require.NoError(t, err)
	second, err := e.Create(ctx, "second", "", []model.TaskInput{{Details: "t"}})
	require.NoError(t, err)

	inactive := false
	require.NoError(t, e.Update(ctx, first, UpdateRequest{IsActive: &inactive}))

	active, err := e.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, second, active[0].ID)

	all, err := e.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	// Newest first.
	assert.Equal(t, second, all[0].ID)
	assert.Equal(t, first, all[1].ID)
	// Summaries carry no tasks.
	assert.Empty(t, all[0].Tasks)
}

func TestAudit_DetectsOrphanTask(t *testing.T) {
	e, cleanup := createTestEngine(t)
	defer cleanup()
	ctx := context.Background()

	_, err := e.Create(ctx, "real", "", []model.TaskInput{{Details: "t"}})
	require.NoError(t, err)

	// FK enforcement must be suspended to plant the corruption.
	conn, err := e.db.Conn(ctx)
	require.NoError(t, err)
	_, err = conn.ExecContext(ctx, "PRAGMA foreign_keys=off")
	require.NoError(t, err)
	_, err = conn.ExecContext(ctx,
		"INSERT INTO tasks (agenda_id, task_order, details) VALUES (999, 0, 'stray')")
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	report, err := e.Audit(ctx)
	require.NoError(t, err)
	assert.False(t, report.Clean())
	assert.Len(t, report.OrphanTasks, 1)
}
