package maintenance

import (
	"context"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/ctxhub/ctxhub/pkg/agenda"
	"github.com/ctxhub/ctxhub/pkg/memory"
)

// Runner periodically audits both stores for index drift and truncates
// their WAL files. Each run is tagged with a unique id so log lines of
// one run can be correlated.
type Runner struct {
	memory *memory.Engine
	agenda *agenda.Engine
	logger zerolog.Logger
	cron   *cron.Cron
}

// Config holds maintenance runner configuration
type Config struct {
	Schedule string // cron spec, e.g. "@every 1h"
	Memory   *memory.Engine
	Agenda   *agenda.Engine
	Logger   zerolog.Logger
}

// New creates a maintenance runner
func New(cfg Config) (*Runner, error) {
	r := &Runner{
		memory: cfg.Memory,
		agenda: cfg.Agenda,
		logger: cfg.Logger.With().Str("component", "maintenance").Logger(),
		cron:   cron.New(),
	}

	if _, err := r.cron.AddFunc(cfg.Schedule, r.Run); err != nil {
		return nil, err
	}

	return r, nil
}

// Start begins the maintenance schedule
func (r *Runner) Start() {
	r.cron.Start()
	r.logger.Info().Msg("maintenance scheduler started")
}

// Stop halts the schedule, waiting for an in-flight run to finish
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.logger.Info().Msg("maintenance scheduler stopped")
}

// Run executes a single maintenance pass immediately.
func (r *Runner) Run() {
	ctx := context.Background()
	runID := uuid.New().String()
	log := r.logger.With().Str("run_id", runID).Logger()

	memReport, err := r.memory.Audit(ctx)
	if err != nil {
		log.Error().Err(err).Msg("memory audit failed")
	} else if memReport.Clean() {
		log.Debug().Int("documents", memReport.Documents).Msg("memory indexes consistent")
	} else {
		log.Warn().
			Int("documents", memReport.Documents).
			Int("missing_text", len(memReport.MissingText)).
			Int("missing_vector", len(memReport.MissingVector)).
			Int("orphan_text", len(memReport.OrphanText)).
			Int("orphan_vector", len(memReport.OrphanVector)).
			Msg("memory index drift detected")
	}

	agReport, err := r.agenda.Audit(ctx)
	if err != nil {
		log.Error().Err(err).Msg("agenda audit failed")
	} else if agReport.Clean() {
		log.Debug().Int("agendas", agReport.Agendas).Msg("agenda indexes consistent")
	} else {
		log.Warn().
			Int("agendas", agReport.Agendas).
			Int("missing_text", len(agReport.MissingText)).
			Int("orphan_text", len(agReport.OrphanText)).
			Int("orphan_tasks", len(agReport.OrphanTasks)).
			Msg("agenda index drift detected")
	}

	if err := r.memory.Checkpoint(ctx); err != nil {
		log.Error().Err(err).Msg("memory checkpoint failed")
	}
	if err := r.agenda.Checkpoint(ctx); err != nil {
		log.Error().Err(err).Msg("agenda checkpoint failed")
	}
}
