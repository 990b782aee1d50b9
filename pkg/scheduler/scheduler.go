// Package scheduler runs the inactivity scan on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSchedule runs the scan once a day at midnight.
const DefaultSchedule = "@daily"

// Scanner fires the inactivity trigger and reports how many leads it fired for.
type Scanner interface {
	ScanAndFire(ctx context.Context) (int, error)
}

// InactivityJob runs a Scanner on a cron expression. Overlapping runs are
// skipped.
type InactivityJob struct {
	scanner  Scanner
	schedule string
	logger   *slog.Logger
	cron     *cron.Cron
	entryID  cron.EntryID
	mutex    sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewInactivityJob(logger *slog.Logger, scanner Scanner, schedule string) *InactivityJob {
	if schedule == "" {
		schedule = DefaultSchedule
	}

	return &InactivityJob{
		scanner:  scanner,
		schedule: schedule,
		logger:   logger.With("module", "inactivity_job"),
	}
}

func (j *InactivityJob) Validate() error {
	if _, err := cron.ParseStandard(j.schedule); err != nil {
		return fmt.Errorf("invalid cron expression '%s': %w", j.schedule, err)
	}

	return nil
}

func (j *InactivityJob) Start(ctx context.Context) error {
	err := j.Validate()
	if err != nil {
		return err
	}

	j.mutex.Lock()
	defer j.mutex.Unlock()

	j.ctx, j.cancel = context.WithCancel(ctx)

	j.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	j.entryID, err = j.cron.AddFunc(j.schedule, j.run)
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	j.cron.Start()
	j.logger.InfoContext(ctx, "Inactivity job started", "schedule", j.schedule)

	return nil
}

// Next reports when the job runs next. It is zero before Start.
func (j *InactivityJob) Next() time.Time {
	j.mutex.Lock()
	defer j.mutex.Unlock()

	if j.cron == nil {
		return time.Time{}
	}

	return j.cron.Entry(j.entryID).Next
}

func (j *InactivityJob) run() {
	started := time.Now()

	fired, err := j.scanner.ScanAndFire(j.ctx)
	if err != nil {
		j.logger.ErrorContext(j.ctx, "Inactivity scan failed", "error", err, "fired", fired)

		return
	}

	j.logger.InfoContext(j.ctx, "Inactivity scan finished", "fired", fired, "took", time.Since(started))
}

// Stop cancels a running scan and waits for it to return.
func (j *InactivityJob) Stop(ctx context.Context) error {
	j.mutex.Lock()
	defer j.mutex.Unlock()

	if j.cancel != nil {
		j.cancel()
	}

	if j.cron == nil {
		return nil
	}

	select {
	case <-j.cron.Stop().Done():
	case <-ctx.Done():
		return ctx.Err()
	}

	j.logger.InfoContext(ctx, "Inactivity job stopped")

	return nil
}
