package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ctxhub/ctxhub/pkg/agenda"
	"github.com/ctxhub/ctxhub/pkg/model"
)

var agendaCmd = &cobra.Command{
	Use:   "agenda",
	Short: "Manage agendas and their tasks",
	Long:  `Create and track agendas: ordered task lists with completion state.`,
}

var (
	agTitle       string
	agDescription string
	agTasksJSON   string
	agActiveOnly  bool
	agLimit       int
	agDeactivate  bool
	agCompleted   bool
)

var agendaCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new agenda",
	Long: `Create a new agenda. Tasks are given as a JSON array, e.g.
--tasks '[{"details":"write draft"},{"details":"review","is_optional":true}]'`,
	RunE: runAgendaCreate,
}

var agendaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List agendas",
	RunE:  runAgendaList,
}

var agendaGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Fetch an agenda with its tasks",
	Args:  cobra.ExactArgs(1),
	RunE:  runAgendaGet,
}

var agendaSearchCmd = &cobra.Command{
	Use:   "search <text>",
	Short: "Full-text search over agenda titles and descriptions",
	Args:  cobra.ExactArgs(1),
	RunE:  runAgendaSearch,
}

var agendaUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update an agenda",
	RunE:  runAgendaUpdate,
	Args:  cobra.ExactArgs(1),
}

var agendaTaskCmd = &cobra.Command{
	Use:   "task <task-id>",
	Short: "Set a task's completion state",
	Args:  cobra.ExactArgs(1),
	RunE:  runAgendaTask,
}

var agendaDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an inactive agenda and its tasks",
	Args:  cobra.ExactArgs(1),
	RunE:  runAgendaDelete,
}

func init() {
	agendaCreateCmd.Flags().StringVar(&agTitle, "title", "", "agenda title")
	agendaCreateCmd.Flags().StringVar(&agDescription, "description", "", "agenda description")
	agendaCreateCmd.Flags().StringVar(&agTasksJSON, "tasks", "", "tasks as a JSON array")
	_ = agendaCreateCmd.MarkFlagRequired("tasks")

	agendaListCmd.Flags().BoolVar(&agActiveOnly, "active-only", true, "only list active agendas")

	agendaSearchCmd.Flags().IntVar(&agLimit, "limit", 10, "maximum results")

	agendaUpdateCmd.Flags().StringVar(&agTitle, "title", "", "new title")
	agendaUpdateCmd.Flags().StringVar(&agDescription, "description", "", "new description")
	agendaUpdateCmd.Flags().StringVar(&agTasksJSON, "append-tasks", "", "tasks to append, as a JSON array")
	agendaUpdateCmd.Flags().BoolVar(&agDeactivate, "deactivate", false, "deactivate the agenda")

	agendaTaskCmd.Flags().BoolVar(&agCompleted, "completed", true, "completion state to set")

	agendaCmd.AddCommand(agendaCreateCmd, agendaListCmd, agendaGetCmd,
		agendaSearchCmd, agendaUpdateCmd, agendaTaskCmd, agendaDeleteCmd)
	rootCmd.AddCommand(agendaCmd)
}

func parseTasks(raw string) ([]model.TaskInput, error) {
	var tasks []model.TaskInput
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		return nil, fmt.Errorf("invalid tasks JSON: %w", err)
	}
	return tasks, nil
}

func withAgenda(fn func(cmd *cobra.Command, eng *agenda.Engine) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		eng, err := a.openAgenda()
		if err != nil {
			return err
		}
		defer eng.Close()

		return fn(cmd, eng)
	}
}

func runAgendaCreate(cmd *cobra.Command, args []string) error {
	tasks, err := parseTasks(agTasksJSON)
	if err != nil {
		return err
	}

	return withAgenda(func(cmd *cobra.Command, eng *agenda.Engine) error {
		id, err := eng.Create(cmd.Context(), agTitle, agDescription, tasks)
		if err != nil {
			return err
		}
		return printJSON(map[string]int64{"agenda_id": id})
	})(cmd, args)
}

func runAgendaList(cmd *cobra.Command, args []string) error {
	return withAgenda(func(cmd *cobra.Command, eng *agenda.Engine) error {
		agendas, err := eng.List(cmd.Context(), agActiveOnly)
		if err != nil {
			return err
		}
		return printJSON(agendas)
	})(cmd, args)
}

func runAgendaGet(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withAgenda(func(cmd *cobra.Command, eng *agenda.Engine) error {
		ag, err := eng.Get(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printJSON(ag)
	})(cmd, args)
}

func runAgendaSearch(cmd *cobra.Command, args []string) error {
	return withAgenda(func(cmd *cobra.Command, eng *agenda.Engine) error {
		agendas, err := eng.Search(cmd.Context(), args[0], agLimit)
		if err != nil {
			return err
		}
		return printJSON(agendas)
	})(cmd, args)
}

func runAgendaUpdate(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	var req agenda.UpdateRequest
	if cmd.Flags().Changed("title") {
		req.Title = &agTitle
	}
	if cmd.Flags().Changed("description") {
		req.Description = &agDescription
	}
	if agDeactivate {
		inactive := false
		req.IsActive = &inactive
	}
	if cmd.Flags().Changed("append-tasks") {
		tasks, err := parseTasks(agTasksJSON)
		if err != nil {
			return err
		}
		req.NewTasks = tasks
	}

	return withAgenda(func(cmd *cobra.Command, eng *agenda.Engine) error {
		if err := eng.Update(cmd.Context(), id, req); err != nil {
			return err
		}
		ag, err := eng.Get(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printJSON(ag)
	})(cmd, args)
}

func runAgendaTask(cmd *cobra.Command, args []string) error {
	taskID, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withAgenda(func(cmd *cobra.Command, eng *agenda.Engine) error {
		if err := eng.UpdateTask(cmd.Context(), taskID, agCompleted); err != nil {
			return err
		}
		return printJSON(map[string]interface{}{"task_id": taskID, "is_completed": agCompleted})
	})(cmd, args)
}

func runAgendaDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withAgenda(func(cmd *cobra.Command, eng *agenda.Engine) error {
		if err := eng.Delete(cmd.Context(), id); err != nil {
			return err
		}
		return printJSON(map[string]interface{}{"agenda_id": id, "deleted": true})
	})(cmd, args)
}
