package background

import (
	"context"
	"fmt"
	"sync"
	"time"

	"invoicedesk/internal/logger"
	"invoicedesk/internal/services"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
)

const ledgerAuditJob = "ledger-audit"

// JobScheduler runs periodic maintenance jobs
type JobScheduler struct {
	scheduler gocron.Scheduler
	auditSvc  services.LedgerAuditService
	jobs      map[string]gocron.Job
	mu        sync.RWMutex
	log       zerolog.Logger

	lastReport *services.LedgerReport
}

// NewJobScheduler creates the scheduler. A zero auditInterval leaves the
// ledger audit unscheduled.
func NewJobScheduler(auditSvc services.LedgerAuditService, auditInterval time.Duration) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	js := &JobScheduler{
		scheduler: scheduler,
		auditSvc:  auditSvc,
		jobs:      make(map[string]gocron.Job),
		log:       logger.WithComponent("scheduler"),
	}

	if auditInterval > 0 {
		if err := js.AddJob(ledgerAuditJob, auditInterval, js.runLedgerAudit); err != nil {
			_ = scheduler.Shutdown()
			return nil, err
		}
	}

	js.log.Info().Int("jobs", len(js.jobs)).Msg("Registered background jobs")
	return js, nil
}

func (js *JobScheduler) Start() {
	js.log.Info().Msg("Starting background job scheduler")
	js.scheduler.Start()
}

func (js *JobScheduler) Stop() error {
	js.log.Info().Msg("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

// AddJob schedules fn every interval. Runs never overlap.
func (js *JobScheduler) AddJob(name string, interval time.Duration, fn func(ctx context.Context) error) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	job, err := js.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if err := fn(context.Background()); err != nil {
				js.log.Error().Err(err).Str("job", name).Msg("Background job failed")
			}
		}),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule %s: %w", name, err)
	}

	js.jobs[name] = job
	return nil
}

// RemoveJob unschedules a job by name
func (js *JobScheduler) RemoveJob(name string) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	job, exists := js.jobs[name]
	if !exists {
		return nil
	}
	delete(js.jobs, name)
	return js.scheduler.RemoveJob(job.ID())
}

// JobNames lists the scheduled jobs
func (js *JobScheduler) JobNames() []string {
	js.mu.RLock()
	defer js.mu.RUnlock()

	names := make([]string, 0, len(js.jobs))
	for name := range js.jobs {
		names = append(names, name)
	}
	return names
}

// LastLedgerReport returns the outcome of the most recent scheduled audit
func (js *JobScheduler) LastLedgerReport() *services.LedgerReport {
	js.mu.RLock()
	defer js.mu.RUnlock()
	return js.lastReport
}

func (js *JobScheduler) runLedgerAudit(ctx context.Context) error {
	report, err := js.auditSvc.Audit(ctx)
	if err != nil {
		return err
	}

	js.mu.Lock()
	js.lastReport = report
	js.mu.Unlock()
	return nil
}
