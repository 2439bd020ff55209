package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ctxhub/ctxhub/internal/config"
	"github.com/ctxhub/ctxhub/internal/maintenance"
	"github.com/ctxhub/ctxhub/pkg/agenda"
	"github.com/ctxhub/ctxhub/pkg/memory"
)

var auditWatch bool

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Check index consistency for both stores",
	Long: `Audit verifies that every document has matching full-text and vector
index rows, and that every agenda has a matching full-text row and no
orphaned tasks. With --watch the audit repeats on the configured schedule
until interrupted.`,
	RunE: runAudit,
}

func init() {
	auditCmd.Flags().BoolVar(&auditWatch, "watch", false, "keep auditing on the maintenance schedule")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	memEng, err := a.openMemory()
	if err != nil {
		return err
	}
	defer memEng.Close()

	agEng, err := a.openAgenda()
	if err != nil {
		return err
	}
	defer agEng.Close()

	if auditWatch {
		return watchAudit(a, memEng, agEng)
	}

	ctx := cmd.Context()

	memReport, err := memEng.Audit(ctx)
	if err != nil {
		return err
	}
	agReport, err := agEng.Audit(ctx)
	if err != nil {
		return err
	}
	stats, err := memEng.Stats(ctx)
	if err != nil {
		return err
	}

	return printJSON(map[string]interface{}{
		"memory": memReport,
		"agenda": agReport,
		"stats":  stats,
		"clean":  memReport.Clean() && agReport.Clean(),
	})
}

func watchAudit(a *app, memEng *memory.Engine, agEng *agenda.Engine) error {
	runner, err := maintenance.New(maintenance.Config{
		Schedule: a.cfg.Maintenance.Schedule,
		Memory:   memEng,
		Agenda:   agEng,
		Logger:   a.log.GetZerolog(),
	})
	if err != nil {
		return err
	}

	runner.Run()
	runner.Start()
	defer runner.Stop()

	log := a.log.GetZerolog()
	a.loader.Watch(func(cfg *config.Config) {
		// Schedule changes need a restart; surface them instead of silently
		// ignoring the file edit.
		if cfg.Maintenance.Schedule != a.cfg.Maintenance.Schedule {
			log.Warn().
				Str("schedule", cfg.Maintenance.Schedule).
				Msg("maintenance schedule changed, restart to apply")
		}
	}, func(err error) {
		log.Error().Err(err).Msg("config reload failed")
	})

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	return nil
}
