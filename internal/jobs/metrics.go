// Package jobmetrics instruments the expense summary worker: one run series
// per task type plus the totals each summary publishes per tenant.
package jobmetrics

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/farmdesk/farmdesk/internal/expenses"
)

// Run outcomes recorded in the status label.
const (
	StatusSuccess = "success"
	// StatusRetry is a failure asynq will attempt again.
	StatusRetry = "retry"
	// StatusSkipped is a failure wrapped with asynq.SkipRetry.
	StatusSkipped = "skipped"
)

// Metrics holds the worker collectors.
type Metrics struct {
	runs     *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration *prometheus.HistogramVec
	tenants  prometheus.Counter
	totals   *prometheus.GaugeVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the worker collectors on registerer, or once on the
// default registerer when it is nil.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer != nil {
		return register(registerer)
	}
	defaultOnce.Do(func() { defaultMetrics = register(prometheus.DefaultRegisterer) })
	return defaultMetrics
}

// Run times one task execution.
type Run struct {
	metrics *Metrics
	task    string
	started time.Time
}

// StartRun begins timing a run of task. A nil Metrics yields a Run that
// records nothing.
func (m *Metrics) StartRun(task string) *Run {
	return &Run{metrics: m, task: task, started: time.Now()}
}

// Finish records the outcome of err and returns err unchanged.
func (r *Run) Finish(err error) error {
	if r == nil || r.metrics == nil || r.task == "" {
		return err
	}
	status := Outcome(err)
	if status != StatusSuccess {
		r.metrics.failures.WithLabelValues(r.task).Inc()
	}
	r.metrics.runs.WithLabelValues(r.task, status).Inc()
	r.metrics.duration.WithLabelValues(r.task).Observe(time.Since(r.started).Seconds())
	return err
}

// Outcome classifies a task error into a status label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, asynq.SkipRetry):
		return StatusSkipped
	default:
		return StatusRetry
	}
}

// PublishTotals exposes the latest summary of tenantID, one series per source
// plus "all".
func (m *Metrics) PublishTotals(tenantID int64, t expenses.Totals) {
	if m == nil {
		return
	}
	tenant := strconv.FormatInt(tenantID, 10)
	m.totals.WithLabelValues(tenant, "all").Set(t.Total)
	m.totals.WithLabelValues(tenant, string(expenses.SourceManual)).Set(t.Manual)
	m.totals.WithLabelValues(tenant, string(expenses.SourceMedical)).Set(t.Medical)
	m.totals.WithLabelValues(tenant, string(expenses.SourceAnimalHire)).Set(t.AnimalHire)
	m.tenants.Inc()
}

func register(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "farmdesk_jobs_total",
			Help: "Worker task executions by task type and status.",
		}, []string{"job", "status"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "farmdesk_jobs_failures_total",
			Help: "Worker task executions that returned an error.",
		}, []string{"job"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "farmdesk_job_duration_seconds",
			Help:    "Worker task execution time.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
		tenants: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "farmdesk_expense_summary_tenants_total",
			Help: "Tenant summaries published by the worker.",
		}),
		totals: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "farmdesk_expense_total_amount",
			Help: "Most recent expense total per tenant and source.",
		}, []string{"tenant", "source"}),
	}
	registerer.MustRegister(m.runs, m.failures, m.duration, m.tenants, m.totals)
	return m
}
