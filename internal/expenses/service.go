package expenses

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/farmdesk/farmdesk/internal/observability"
	"github.com/farmdesk/farmdesk/internal/shared"
)

// sharedLoadTimeout bounds a load shared by concurrent callers, which no
// longer follows any single caller's cancellation.
const sharedLoadTimeout = 30 * time.Second

// Service loads records for a scope and produces unified expense views.
type Service struct {
	repo        Repository
	metrics     *observability.Metrics
	group       singleflight.Group
	loadTimeout time.Duration
}

// NewService builds a Service. metrics may be nil.
func NewService(repo Repository, metrics *observability.Metrics) *Service {
	return &Service{repo: repo, metrics: metrics, loadTimeout: sharedLoadTimeout}
}

// Unified returns the aggregated expenses of scope narrowed by filter. The
// returned slice is owned by the caller.
func (s *Service) Unified(ctx context.Context, scope Scope, filter Filter) ([]UnifiedExpense, error) {
	if filter.Source != "" && !filter.Source.Valid() {
		return nil, fmt.Errorf("expenses: unknown source %q: %w", filter.Source, shared.ErrValidation)
	}
	list, err := s.aggregate(ctx, scope)
	if err != nil {
		return nil, err
	}
	return filter.Apply(list), nil
}

// Summary returns per-source totals for scope.
func (s *Service) Summary(ctx context.Context, scope Scope) (Totals, error) {
	list, err := s.aggregate(ctx, scope)
	if err != nil {
		return Totals{}, err
	}
	return TotalBySource(list), nil
}

// aggregate loads both record sources concurrently and merges them.
// Concurrent calls for the same scope share one load; the shared slice must
// not be mutated. A caller giving up does not cancel the load for the others.
func (s *Service) aggregate(ctx context.Context, scope Scope) ([]UnifiedExpense, error) {
	if scope.TenantID <= 0 {
		return nil, fmt.Errorf("expenses: tenant is required: %w", shared.ErrValidation)
	}
	if scope.FarmID < 0 {
		return nil, fmt.Errorf("expenses: invalid farm %d: %w", scope.FarmID, shared.ErrValidation)
	}
	key := strconv.FormatInt(scope.TenantID, 10) + ":" + strconv.FormatInt(scope.FarmID, 10)
	ch := s.group.DoChan(key, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.loadTimeout)
		defer cancel()
		return s.load(loadCtx, scope)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]UnifiedExpense), nil
	}
}

func (s *Service) load(ctx context.Context, scope Scope) ([]UnifiedExpense, error) {
	var (
		expenses   []Expense
		agreements []HireAgreement
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		expenses, err = s.repo.ListExpenses(gctx, scope)
		return err
	})
	g.Go(func() error {
		var err error
		agreements, err = s.repo.ListHireAgreements(gctx, scope)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	list, err := Aggregate(expenses, agreements)
	s.metrics.RecordAggregation(len(list), err)
	if err != nil {
		return nil, err
	}
	return list, nil
}
