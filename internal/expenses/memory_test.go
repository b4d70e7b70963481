package expenses

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/farmdesk/farmdesk/internal/shared"
)

func TestDemoRepositoryScopes(t *testing.T) {
	repo, err := DemoRepository()
	require.NoError(t, err)
	ctx := context.Background()

	all, err := repo.ListExpenses(ctx, Scope{TenantID: 1})
	require.NoError(t, err)
	require.Len(t, all, 4)

	farm2, err := repo.ListExpenses(ctx, Scope{TenantID: 1, FarmID: 2})
	require.NoError(t, err)
	require.Len(t, farm2, 2)
	require.Equal(t, int64(3), farm2[0].ExpenseID)

	other, err := repo.ListExpenses(ctx, Scope{TenantID: 2})
	require.NoError(t, err)
	require.Len(t, other, 1)

	agreements, err := repo.ListHireAgreements(ctx, Scope{TenantID: 1, FarmID: 1})
	require.NoError(t, err)
	require.Len(t, agreements, 1)
	require.NotNil(t, agreements[0].PaymentDate)
	require.Equal(t, day("2024-03-01"), *agreements[0].PaymentDate)
	require.Equal(t, "Green Valley Ranch", agreements[0].ExternalFarmName)
}

func TestMemoryRepositoryAdd(t *testing.T) {
	repo := NewMemoryRepository(nil, nil)
	repo.AddExpense(Expense{ExpenseID: 1, TenantID: 3, FarmID: 1, ExpenseType: "feed", Amount: 10, ExpenseDate: day("2024-06-01")})
	repo.AddHireAgreement(HireAgreement{AgreementID: 1, TenantID: 3, FarmID: 1, StartDate: day("2024-06-02"), PaidAmount: 5})

	expenses, err := repo.ListExpenses(context.Background(), Scope{TenantID: 3})
	require.NoError(t, err)
	agreements, err := repo.ListHireAgreements(context.Background(), Scope{TenantID: 3})
	require.NoError(t, err)

	list, err := Aggregate(expenses, agreements)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, Key{Origin: OriginHireAgreement, ID: 1}, list[0].Key())
	require.Equal(t, Key{Origin: OriginExpense, ID: 1}, list[1].Key())
}

func TestLoadFixturesRejectsBadDates(t *testing.T) {
	doc := `{"expenses":[{"expense_id":9,"tenant_id":1,"expense_type":"feed","amount":1,"expense_date":"01/02/2024"}]}`
	_, err := LoadFixtures(strings.NewReader(doc))
	require.ErrorIs(t, err, shared.ErrValidation)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	require.Equal(t, "expense_date", ve.Field)
	require.Equal(t, int64(9), ve.ID)
}

func TestLoadFixturesRejectsMissingStartDate(t *testing.T) {
	doc := `{"hire_agreements":[{"agreement_id":4,"tenant_id":1,"paid_amount":10}]}`
	_, err := LoadFixtures(strings.NewReader(doc))
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	require.Equal(t, "start_date", ve.Field)
}

func TestLoadFixturesRejectsUnknownFields(t *testing.T) {
	_, err := LoadFixtures(strings.NewReader(`{"invoices":[]}`))
	require.Error(t, err)
	require.NotErrorIs(t, err, shared.ErrValidation)
}

func TestLoadFixturesAcceptsRFC3339(t *testing.T) {
	doc := `{"expenses":[{"expense_id":1,"tenant_id":1,"expense_type":"feed","amount":1,"expense_date":"2024-02-03T10:00:00Z"}]}`
	repo, err := LoadFixtures(strings.NewReader(doc))
	require.NoError(t, err)
	list, err := repo.ListExpenses(context.Background(), Scope{TenantID: 1})
	require.NoError(t, err)
	require.Equal(t, 10, list[0].ExpenseDate.Hour())
	require.True(t, list[0].CreatedAt.IsZero())
}

func TestMemoryRepositoryTenantIDs(t *testing.T) {
	repo, err := DemoRepository()
	require.NoError(t, err)
	ids, err := repo.ListTenantIDs(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2}, ids)
}

func TestMemoryRepositoryTenantIDsSkipsUntenanted(t *testing.T) {
	repo := NewMemoryRepository(
		[]Expense{{ExpenseID: 1, ExpenseType: "feed", ExpenseDate: day("2024-01-01")}},
		[]HireAgreement{{AgreementID: 1, TenantID: 5, StartDate: day("2024-01-01")}},
	)
	ids, err := repo.ListTenantIDs(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int64{5}, ids)
}
