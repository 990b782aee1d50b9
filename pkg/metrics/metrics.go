// Package metrics holds the prometheus instruments of the workflow engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run outcomes.
const (
	OutcomeMatched = "matched"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
	OutcomeOK      = "ok"
)

var (
	workflowTriggers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadflow_workflow_triggers_total",
			Help: "Total number of trigger events dispatched",
		},
		[]string{"event"},
	)

	workflowRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadflow_workflow_runs_total",
			Help: "Workflow definitions evaluated per event, by outcome",
		},
		[]string{"event", "outcome"},
	)

	workflowActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadflow_workflow_actions_total",
			Help: "Workflow actions executed, by type and outcome",
		},
		[]string{"action", "outcome"},
	)

	actionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leadflow_workflow_action_duration_seconds",
			Help:    "Workflow action execution time in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"action"},
	)

	inactiveLeads = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "leadflow_inactive_leads_found",
			Help: "Inactive leads found by the most recent scan",
		},
	)
)

func RecordTrigger(event string) {
	workflowTriggers.WithLabelValues(event).Inc()
}

func RecordRun(event, outcome string) {
	workflowRuns.WithLabelValues(event, outcome).Inc()
}

func RecordAction(action, outcome string, took time.Duration) {
	workflowActions.WithLabelValues(action, outcome).Inc()
	actionDuration.WithLabelValues(action).Observe(took.Seconds())
}

func RecordInactiveLeads(count int) {
	inactiveLeads.Set(float64(count))
}
