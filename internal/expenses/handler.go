package expenses

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/farmdesk/farmdesk/internal/platform/httpx"
	"github.com/farmdesk/farmdesk/internal/rbac"
	"github.com/farmdesk/farmdesk/internal/shared"
)

// SummaryEnqueuer schedules an asynchronous totals refresh.
type SummaryEnqueuer interface {
	EnqueueExpenseSummary(ctx context.Context, tenantID, farmID int64) error
}

// Handler serves the unified expenses endpoints. Totals in list responses
// cover every filtered record, not only the requested page.
type Handler struct {
	logger  *slog.Logger
	service *Service
	jobs    SummaryEnqueuer
}

// NewHandler builds Handler instance. jobs may be nil, which disables the
// refresh endpoint.
func NewHandler(logger *slog.Logger, service *Service, jobs SummaryEnqueuer) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, jobs: jobs}
}

// MountRoutes registers expense routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/summary", h.summary)
	r.Post("/summary/refresh", h.refresh)
}

type listResponse struct {
	Expenses   []UnifiedExpense   `json:"expenses"`
	Count      int                `json:"count"`
	Totals     Totals             `json:"totals"`
	Pagination *shared.Pagination `json:"pagination,omitempty"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	scope, err := scopeFromRequest(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	filter := Filter{
		Source: Source(r.URL.Query().Get("source")),
		Type:   r.URL.Query().Get("type"),
	}
	list, err := h.service.Unified(r.Context(), scope, filter)
	if err != nil {
		h.logFailure("list expenses", scope, err)
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []UnifiedExpense{}
	}
	resp := listResponse{Expenses: list, Count: len(list), Totals: TotalBySource(list)}
	q := r.URL.Query()
	if q.Has("page") || q.Has("per_page") {
		page, err := shared.ParsePagination(q.Get("page"), q.Get("per_page"), len(list))
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		start, end := page.Bounds()
		resp.Expenses = list[start:end]
		resp.Count = end - start
		resp.Pagination = &page
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	scope, err := scopeFromRequest(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	totals, err := h.service.Summary(r.Context(), scope)
	if err != nil {
		h.logFailure("expense summary", scope, err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, totals)
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	scope, err := scopeFromRequest(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if h.jobs == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Unavailable", "background jobs are disabled")
		return
	}
	if err := h.jobs.EnqueueExpenseSummary(r.Context(), scope.TenantID, scope.FarmID); err != nil {
		h.logFailure("enqueue expense summary", scope, err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]any{"status": "queued", "tenant_id": scope.TenantID, "farm_id": scope.FarmID})
}

func (h *Handler) logFailure(msg string, scope Scope, err error) {
	h.logger.Error(msg,
		slog.Int64("tenant_id", scope.TenantID),
		slog.Int64("farm_id", scope.FarmID),
		slog.Any("error", err))
}

// scopeFromRequest derives the tenant from the principal; only the farm is
// taken from the query string.
func scopeFromRequest(r *http.Request) (Scope, error) {
	user := rbac.UserFromContext(r.Context())
	if user == nil {
		return Scope{}, shared.ErrNotAuthenticated
	}
	scope := Scope{TenantID: user.TenantID}
	if raw := r.URL.Query().Get("farm_id"); raw != "" {
		farmID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || farmID < 0 {
			return Scope{}, fmt.Errorf("expenses: invalid farm_id %q: %w", raw, shared.ErrValidation)
		}
		scope.FarmID = farmID
	}
	return scope, nil
}
