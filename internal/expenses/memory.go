package expenses

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"
)

// MemoryRepository serves records from memory. It backs development mode
// and tests in place of PostgreSQL.
type MemoryRepository struct {
	mu         sync.RWMutex
	expenses   []Expense
	agreements []HireAgreement
}

// NewMemoryRepository seeds a repository with the given records.
func NewMemoryRepository(expenses []Expense, agreements []HireAgreement) *MemoryRepository {
	return &MemoryRepository{
		expenses:   append([]Expense(nil), expenses...),
		agreements: append([]HireAgreement(nil), agreements...),
	}
}

// ListExpenses returns the expenses in scope in insertion order.
func (m *MemoryRepository) ListExpenses(ctx context.Context, scope Scope) ([]Expense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Expense
	for _, e := range m.expenses {
		if inScope(scope, e.TenantID, e.FarmID) {
			out = append(out, e)
		}
	}
	return out, nil
}

// ListHireAgreements returns the hire agreements in scope in insertion order.
func (m *MemoryRepository) ListHireAgreements(ctx context.Context, scope Scope) ([]HireAgreement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []HireAgreement
	for _, a := range m.agreements {
		if inScope(scope, a.TenantID, a.FarmID) {
			out = append(out, a)
		}
	}
	return out, nil
}

// AddExpense appends a record.
func (m *MemoryRepository) AddExpense(e Expense) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expenses = append(m.expenses, e)
}

// AddHireAgreement appends a record.
func (m *MemoryRepository) AddHireAgreement(a HireAgreement) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.agreements = append(m.agreements, a)
}

// ListTenantIDs returns the tenants owning any record, ascending. Records
// without a tenant are not listed.
func (m *MemoryRepository) ListTenantIDs(ctx context.Context) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[int64]struct{})
	for _, e := range m.expenses {
		seen[e.TenantID] = struct{}{}
	}
	for _, a := range m.agreements {
		seen[a.TenantID] = struct{}{}
	}
	ids := make([]int64, 0, len(seen))
	for id := range seen {
		if id > 0 {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func inScope(scope Scope, tenantID, farmID int64) bool {
	if tenantID != scope.TenantID {
		return false
	}
	return scope.FarmID == 0 || farmID == scope.FarmID
}

type fixtureFile struct {
	Expenses       []fixtureExpense   `json:"expenses"`
	HireAgreements []fixtureAgreement `json:"hire_agreements"`
	// Directory sections are read by rbac.LoadDirectory.
	Users json.RawMessage `json:"users,omitempty"`
	Roles json.RawMessage `json:"roles,omitempty"`
}

type fixtureExpense struct {
	ExpenseID     int64   `json:"expense_id"`
	TenantID      int64   `json:"tenant_id"`
	FarmID        int64   `json:"farm_id"`
	ExpenseType   string  `json:"expense_type"`
	Description   string  `json:"description"`
	Amount        float64 `json:"amount"`
	ExpenseDate   string  `json:"expense_date"`
	VendorName    string  `json:"vendor_name"`
	PaymentMethod string  `json:"payment_method"`
	ReceiptURL    string  `json:"receipt_url"`
	CreatedAt     string  `json:"created_at"`
}

type fixtureAgreement struct {
	AgreementID       int64   `json:"agreement_id"`
	TenantID          int64   `json:"tenant_id"`
	FarmID            int64   `json:"farm_id"`
	ExternalFarmID    int64   `json:"external_farm_id"`
	ExternalFarmName  string  `json:"external_farm_name"`
	ExternalAnimalTag string  `json:"external_animal_tag"`
	StartDate         string  `json:"start_date"`
	EndDate           string  `json:"end_date"`
	PaidAmount        float64 `json:"paid_amount"`
	PaymentDate       string  `json:"payment_date"`
	PaymentMethod     string  `json:"payment_method"`
	PaymentReference  string  `json:"payment_reference"`
	CreatedAt         string  `json:"created_at"`
}

// LoadFixtures reads a JSON document with "expenses" and "hire_agreements"
// arrays. Dates may be YYYY-MM-DD or RFC3339; unparseable dates are
// reported as validation errors.
func LoadFixtures(r io.Reader) (*MemoryRepository, error) {
	var file fixtureFile
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("expenses: decode fixtures: %w", err)
	}

	expenses := make([]Expense, 0, len(file.Expenses))
	for i, fe := range file.Expenses {
		date, err := parseDate(fe.ExpenseDate)
		if err != nil {
			return nil, fixtureError("expense", fe.ExpenseID, i, "expense_date", err)
		}
		created, err := parseOptionalDate(fe.CreatedAt)
		if err != nil {
			return nil, fixtureError("expense", fe.ExpenseID, i, "created_at", err)
		}
		e := Expense{
			ExpenseID:     fe.ExpenseID,
			TenantID:      fe.TenantID,
			FarmID:        fe.FarmID,
			ExpenseType:   fe.ExpenseType,
			Description:   fe.Description,
			Amount:        fe.Amount,
			ExpenseDate:   date,
			VendorName:    fe.VendorName,
			PaymentMethod: fe.PaymentMethod,
			ReceiptURL:    fe.ReceiptURL,
		}
		if created != nil {
			e.CreatedAt = *created
		}
		expenses = append(expenses, e)
	}

	agreements := make([]HireAgreement, 0, len(file.HireAgreements))
	for i, fa := range file.HireAgreements {
		start, err := parseDate(fa.StartDate)
		if err != nil {
			return nil, fixtureError("hire agreement", fa.AgreementID, i, "start_date", err)
		}
		end, err := parseOptionalDate(fa.EndDate)
		if err != nil {
			return nil, fixtureError("hire agreement", fa.AgreementID, i, "end_date", err)
		}
		paid, err := parseOptionalDate(fa.PaymentDate)
		if err != nil {
			return nil, fixtureError("hire agreement", fa.AgreementID, i, "payment_date", err)
		}
		created, err := parseOptionalDate(fa.CreatedAt)
		if err != nil {
			return nil, fixtureError("hire agreement", fa.AgreementID, i, "created_at", err)
		}
		a := HireAgreement{
			AgreementID:       fa.AgreementID,
			TenantID:          fa.TenantID,
			FarmID:            fa.FarmID,
			ExternalFarmID:    fa.ExternalFarmID,
			ExternalFarmName:  fa.ExternalFarmName,
			ExternalAnimalTag: fa.ExternalAnimalTag,
			StartDate:         start,
			EndDate:           end,
			PaidAmount:        fa.PaidAmount,
			PaymentDate:       paid,
			PaymentMethod:     fa.PaymentMethod,
			PaymentReference:  fa.PaymentReference,
		}
		if created != nil {
			a.CreatedAt = *created
		}
		agreements = append(agreements, a)
	}
	return NewMemoryRepository(expenses, agreements), nil
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("date is required")
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("unparseable date %q", raw)
	}
	return t, nil
}

func parseOptionalDate(raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	t, err := parseDate(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func fixtureError(record string, id int64, index int, field string, err error) error {
	return &ValidationError{Record: record, ID: id, Index: index, Field: field, Reason: err.Error()}
}

var _ Repository = (*MemoryRepository)(nil)
