package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/text/language"

	"github.com/farmdesk/farmdesk/internal/expenses"
	jobmetrics "github.com/farmdesk/farmdesk/internal/jobs"
	"github.com/farmdesk/farmdesk/internal/shared"
)

// SummaryService computes expense totals for a scope.
type SummaryService interface {
	Summary(ctx context.Context, scope expenses.Scope) (expenses.Totals, error)
}

// TenantDirectory lists the tenants a fleet-wide run covers.
type TenantDirectory interface {
	ListTenantIDs(ctx context.Context) ([]int64, error)
}

// ExpenseSummaryJob recomputes and publishes per-source expense totals.
type ExpenseSummaryJob struct {
	Service SummaryService
	Tenants TenantDirectory
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	Locale  language.Tag
}

// NewExpenseSummaryJob constructs the job handler.
func NewExpenseSummaryJob(service SummaryService, tenants TenantDirectory, logger *slog.Logger, metrics *jobmetrics.Metrics) *ExpenseSummaryJob {
	return &ExpenseSummaryJob{
		Service: service,
		Tenants: tenants,
		Logger:  logger,
		Metrics: metrics,
		Locale:  language.English,
	}
}

// Handle executes one summary run.
func (j *ExpenseSummaryJob) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("expense summary: dependencies not configured")
	}
	var payload ExpenseSummaryPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		j.log().Warn("decode payload", slog.Any("error", err))
		return fmt.Errorf("expense summary: %w: %w", err, asynq.SkipRetry)
	}
	if payload.TenantID < 0 || payload.FarmID < 0 {
		return fmt.Errorf("expense summary: invalid scope %d/%d: %w", payload.TenantID, payload.FarmID, asynq.SkipRetry)
	}

	run := j.Metrics.StartRun(TaskExpenseSummary)
	return run.Finish(j.run(ctx, payload))
}

func (j *ExpenseSummaryJob) run(ctx context.Context, payload ExpenseSummaryPayload) error {
	tenants, err := j.resolveTenants(ctx, payload.TenantID)
	if err != nil {
		j.log().Error("resolve tenants", slog.Any("error", err))
		return err
	}
	start := time.Now()
	for _, tenantID := range tenants {
		scope := expenses.Scope{TenantID: tenantID, FarmID: payload.FarmID}
		totals, err := j.Service.Summary(ctx, scope)
		if err != nil {
			j.log().Error("summarise expenses", slog.Int64("tenant_id", tenantID), slog.Int64("farm_id", payload.FarmID), slog.Any("error", err))
			if errors.Is(err, shared.ErrValidation) {
				return fmt.Errorf("expense summary: tenant %d: %w: %w", tenantID, err, asynq.SkipRetry)
			}
			return err
		}
		if payload.FarmID == 0 {
			j.Metrics.PublishTotals(tenantID, totals)
		}
		j.log().Info("expense totals",
			slog.Int64("tenant_id", tenantID),
			slog.Int64("farm_id", payload.FarmID),
			slog.String("totals", totals.Format(j.locale())))
	}
	j.log().Info("expense summary complete", slog.Int("tenants", len(tenants)), slog.Duration("duration", time.Since(start)))
	return nil
}

func (j *ExpenseSummaryJob) resolveTenants(ctx context.Context, tenantID int64) ([]int64, error) {
	if tenantID > 0 {
		return []int64{tenantID}, nil
	}
	if j.Tenants == nil {
		return nil, errors.New("expense summary: tenant directory not configured")
	}
	ids, err := j.Tenants.ListTenantIDs(ctx)
	if err != nil {
		return nil, err
	}
	// Records without a tenant cannot be summarised and must not abort the run.
	return slices.DeleteFunc(slices.Clone(ids), func(id int64) bool { return id <= 0 }), nil
}

func (j *ExpenseSummaryJob) locale() language.Tag {
	if j.Locale == language.Und {
		return language.English
	}
	return j.Locale
}

func (j *ExpenseSummaryJob) log() *slog.Logger {
	if j != nil && j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskExpenseSummary))
	}
	return slog.Default().With(slog.String("job", TaskExpenseSummary))
}
