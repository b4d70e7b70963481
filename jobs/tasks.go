package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskExpenseSummary recomputes per-source expense totals.
	TaskExpenseSummary = "expenses:summary"
)

// ExpenseSummaryPayload scopes a summary run. A zero tenant means every
// tenant with records; a zero farm means every farm of the tenant.
type ExpenseSummaryPayload struct {
	TenantID int64 `json:"tenant_id"`
	FarmID   int64 `json:"farm_id"`
}

// NewExpenseSummaryTask constructs an Asynq task for the given scope.
func NewExpenseSummaryTask(tenantID, farmID int64) (*asynq.Task, error) {
	if tenantID < 0 || farmID < 0 {
		return nil, fmt.Errorf("jobs: invalid summary scope %d/%d", tenantID, farmID)
	}
	body, err := json.Marshal(ExpenseSummaryPayload{TenantID: tenantID, FarmID: farmID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskExpenseSummary, body, asynq.Queue(QueueDefault)), nil
}
