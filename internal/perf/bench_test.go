package perf

import (
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/farmdesk/farmdesk/internal/expenses"
	"github.com/farmdesk/farmdesk/internal/rbac"
	"github.com/farmdesk/farmdesk/internal/shared"
)

func syntheticRecords(n int) ([]expenses.Expense, []expenses.HireAgreement) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	records := make([]expenses.Expense, 0, n)
	for i := 1; i <= n; i++ {
		kind := "feed"
		if i%5 == 0 {
			kind = "medicine"
		}
		records = append(records, expenses.Expense{
			ExpenseID:   int64(i),
			TenantID:    1,
			ExpenseType: kind,
			Description: fmt.Sprintf("record %d", i),
			Amount:      float64(i%300) + 0.25,
			ExpenseDate: base.AddDate(0, 0, i%365),
		})
	}
	agreements := make([]expenses.HireAgreement, 0, n/10)
	for i := 1; i <= n/10; i++ {
		paid := base.AddDate(0, 0, i%365)
		agreements = append(agreements, expenses.HireAgreement{
			AgreementID: int64(i),
			TenantID:    1,
			StartDate:   base,
			PaidAmount:  float64(i % 3 * 50),
			PaymentDate: &paid,
		})
	}
	return records, agreements
}

func BenchmarkAggregate(b *testing.B) {
	records, agreements := syntheticRecords(5000)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := expenses.Aggregate(records, agreements); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkGuardDecision(b *testing.B) {
	authorizer := rbac.NewAuthorizer(rbac.DefaultPermissionMap())
	user := &rbac.AuthUser{ID: 1, Roles: []rbac.Role{{Name: "clerk", Permissions: []string{shared.PermExpensesView, shared.PermSalesView}}}}
	paths := []string{"/dashboard/expenses/new", "/dashboard/sales/2024/03", "/dashboard/users/invite", "/dashboard"}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		authorizer.Decide(user, paths[i%len(paths)])
	}
}

func TestAggregateLatencyTarget(t *testing.T) {
	records, agreements := syntheticRecords(5000)
	samples := make([]time.Duration, 0, 10)
	for i := 0; i < 10; i++ {
		start := time.Now()
		list, err := expenses.Aggregate(records, agreements)
		samples = append(samples, time.Since(start))
		if err != nil {
			t.Fatalf("aggregate: %v", err)
		}
		if len(list) == 0 {
			t.Fatal("aggregate returned nothing")
		}
	}
	if p95 := percentile95(samples); p95 > 2*time.Second {
		t.Fatalf("aggregate latency regression: p95=%s", p95)
	}
}

func percentile95(samples []time.Duration) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	index := int(float64(len(sorted)-1) * 0.95)
	return sorted[index]
}
