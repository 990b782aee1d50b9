package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/leadflow/pkg/metrics"
	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/persistence"
)

const DefaultInactivityWindow = 7 * 24 * time.Hour

// InactivityScanner fires no_activity_7_days for every unconverted lead whose
// latest activity is older than the window. Leads that still match on the
// next scan fire again.
type InactivityScanner struct {
	leads   persistence.LeadRepository
	trigger Trigger
	window  time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// NewInactivityScanner uses DefaultInactivityWindow when window is not
// positive.
func NewInactivityScanner(logger *slog.Logger, leads persistence.LeadRepository, trigger Trigger, window time.Duration) *InactivityScanner {
	if window <= 0 {
		window = DefaultInactivityWindow
	}

	return &InactivityScanner{
		leads:   leads,
		trigger: trigger,
		window:  window,
		logger:  logger.With("module", "inactivity_scanner"),
		now:     time.Now,
	}
}

// ScanAndFire returns the number of leads the event was fired for. Dispatch
// errors stay inside the trigger; only the lookup or cancellation fail a scan.
func (s *InactivityScanner) ScanAndFire(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.window)

	leads, err := s.leads.ListInactive(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to list inactive leads: %w", err)
	}

	metrics.RecordInactiveLeads(len(leads))

	s.logger.InfoContext(ctx, "inactive leads found", "count", len(leads), "cutoff", cutoff)

	fired := 0

	for _, lead := range leads {
		err := ctx.Err()
		if err != nil {
			return fired, err
		}

		s.trigger.Trigger(ctx, models.TriggerNoActivity7Days, lead.Record())
		fired++
	}

	return fired, nil
}
