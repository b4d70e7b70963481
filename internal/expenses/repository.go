package expenses

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository supplies the raw records the aggregator merges.
type Repository interface {
	ListExpenses(ctx context.Context, scope Scope) ([]Expense, error)
	ListHireAgreements(ctx context.Context, scope Scope) ([]HireAgreement, error)
}

// Store is a Repository that can also enumerate the tenants owning records.
type Store interface {
	Repository
	ListTenantIDs(ctx context.Context) ([]int64, error)
}

// PostgresRepository reads expenses and hire agreements from PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// ListExpenses returns the expenses of a tenant, optionally for one farm.
func (r *PostgresRepository) ListExpenses(ctx context.Context, scope Scope) ([]Expense, error) {
	const query = `
SELECT expense_id, tenant_id, farm_id, expense_type, COALESCE(description, ''), amount,
       expense_date, COALESCE(vendor_name, ''), COALESCE(payment_method, ''), COALESCE(receipt_url, ''), created_at
FROM expenses
WHERE tenant_id = $1 AND ($2::bigint = 0 OR farm_id = $2)
ORDER BY expense_id`
	rows, err := r.pool.Query(ctx, query, scope.TenantID, scope.FarmID)
	if err != nil {
		return nil, fmt.Errorf("expenses: list expenses: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Expense, error) {
		var e Expense
		err := row.Scan(&e.ExpenseID, &e.TenantID, &e.FarmID, &e.ExpenseType, &e.Description, &e.Amount,
			&e.ExpenseDate, &e.VendorName, &e.PaymentMethod, &e.ReceiptURL, &e.CreatedAt)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("expenses: scan expenses: %w", err)
	}
	return out, nil
}

// ListHireAgreements returns hire agreements with their external farm name.
func (r *PostgresRepository) ListHireAgreements(ctx context.Context, scope Scope) ([]HireAgreement, error) {
	const query = `
SELECT a.agreement_id, a.tenant_id, a.farm_id, COALESCE(a.external_farm_id, 0), COALESCE(f.name, ''),
       COALESCE(a.external_animal_tag, ''), a.start_date, a.end_date, COALESCE(a.paid_amount, 0),
       a.payment_date, COALESCE(a.payment_method, ''), COALESCE(a.payment_reference, ''), a.created_at
FROM external_animal_hire_agreements a
LEFT JOIN external_farms f ON f.id = a.external_farm_id
WHERE a.tenant_id = $1 AND ($2::bigint = 0 OR a.farm_id = $2)
ORDER BY a.agreement_id`
	rows, err := r.pool.Query(ctx, query, scope.TenantID, scope.FarmID)
	if err != nil {
		return nil, fmt.Errorf("expenses: list hire agreements: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (HireAgreement, error) {
		var a HireAgreement
		err := row.Scan(&a.AgreementID, &a.TenantID, &a.FarmID, &a.ExternalFarmID, &a.ExternalFarmName,
			&a.ExternalAnimalTag, &a.StartDate, &a.EndDate, &a.PaidAmount,
			&a.PaymentDate, &a.PaymentMethod, &a.PaymentReference, &a.CreatedAt)
		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("expenses: scan hire agreements: %w", err)
	}
	return out, nil
}

// ListTenantIDs returns every tenant owning expenses or hire agreements.
func (r *PostgresRepository) ListTenantIDs(ctx context.Context) ([]int64, error) {
	const query = `
SELECT tenant_id FROM expenses WHERE tenant_id > 0
UNION
SELECT tenant_id FROM external_animal_hire_agreements WHERE tenant_id > 0
ORDER BY tenant_id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("expenses: list tenants: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("expenses: scan tenants: %w", err)
	}
	return ids, nil
}
