package expenses

import "time"

// Source tags where a unified expense came from.
type Source string

const (
	SourceManual     Source = "manual"
	SourceMedical    Source = "medical"
	SourceAnimalHire Source = "animal_hire"
)

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	switch s {
	case SourceManual, SourceMedical, SourceAnimalHire:
		return true
	}
	return false
}

// Origin names the record kind a unified expense was derived from.
type Origin string

const (
	OriginExpense       Origin = "expense"
	OriginHireAgreement Origin = "hire_agreement"
)

const (
	// ExpenseTypeMedicine marks expenses always classified as medical.
	ExpenseTypeMedicine = "medicine"
	// ExpenseTypeAnimalHire is the type given to expenses derived from hire payments.
	ExpenseTypeAnimalHire = "animal_hire"

	// HireIDOffset shifts hire agreement ids into the display id space of
	// expenses. A paid agreement whose shifted id equals a native expense id
	// is rejected; Key is the real identity.
	HireIDOffset = 10000
)

// Expense is a financial record entered on a farm.
type Expense struct {
	ExpenseID     int64     `json:"expense_id" validate:"gt=0"`
	TenantID      int64     `json:"tenant_id" validate:"gte=0"`
	FarmID        int64     `json:"farm_id" validate:"gte=0"`
	ExpenseType   string    `json:"expense_type" validate:"required"`
	Description   string    `json:"description"`
	Amount        float64   `json:"amount" validate:"finite,gte=0"`
	ExpenseDate   time.Time `json:"expense_date" validate:"required"`
	VendorName    string    `json:"vendor_name,omitempty"`
	PaymentMethod string    `json:"payment_method,omitempty"`
	ReceiptURL    string    `json:"receipt_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// HireAgreement is a contract for hiring an animal from an external farm.
type HireAgreement struct {
	AgreementID       int64      `json:"agreement_id" validate:"gt=0"`
	TenantID          int64      `json:"tenant_id" validate:"gte=0"`
	FarmID            int64      `json:"farm_id" validate:"gte=0"`
	ExternalFarmID    int64      `json:"external_farm_id"`
	ExternalFarmName  string     `json:"external_farm_name,omitempty"`
	ExternalAnimalTag string     `json:"external_animal_tag,omitempty"`
	StartDate         time.Time  `json:"start_date" validate:"required"`
	EndDate           *time.Time `json:"end_date,omitempty"`
	PaidAmount        float64    `json:"paid_amount" validate:"finite,gte=0"`
	PaymentDate       *time.Time `json:"payment_date,omitempty"`
	PaymentMethod     string     `json:"payment_method,omitempty"`
	PaymentReference  string     `json:"payment_reference,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// UnifiedExpense is an expense normalised across all sources.
type UnifiedExpense struct {
	Expense
	Source          Source `json:"source"`
	Origin          Origin `json:"origin"`
	SourceID        int64  `json:"source_id,omitempty"`
	SourceReference string `json:"source_reference,omitempty"`
}

// Key identifies a unified expense by the record it was derived from.
type Key struct {
	Origin Origin
	ID     int64
}

// Key returns the composite identity of e.
func (e UnifiedExpense) Key() Key {
	if e.Origin == OriginHireAgreement {
		return Key{Origin: OriginHireAgreement, ID: e.SourceID}
	}
	return Key{Origin: OriginExpense, ID: e.ExpenseID}
}

// Totals sums unified expense amounts per source.
type Totals struct {
	Total      float64 `json:"total"`
	Manual     float64 `json:"manual"`
	Medical    float64 `json:"medical"`
	AnimalHire float64 `json:"animal_hire"`
}

// Scope selects the records of one tenant, optionally narrowed to a farm.
type Scope struct {
	TenantID int64
	FarmID   int64
}

// Filter narrows an aggregated list. Zero values match everything.
type Filter struct {
	Source Source
	Type   string
}
