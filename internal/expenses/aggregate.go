package expenses

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var medicalKeywords = []string{"medical", "veterinary", "vet"}

const (
	fallbackAnimal = "External Animal"
	fallbackFarm   = "External Farm"
)

// Aggregate merges manual expenses and paid hire agreements into one list
// ordered by expense date, most recent first. Records with equal dates keep
// their input order, expenses before agreements. Any malformed record fails
// the whole call with a *ValidationError.
func Aggregate(expenses []Expense, agreements []HireAgreement) ([]UnifiedExpense, error) {
	if err := validateInputs(expenses, agreements); err != nil {
		return nil, err
	}
	out := make([]UnifiedExpense, 0, len(expenses)+len(agreements))
	for _, e := range expenses {
		out = append(out, fromExpense(e))
	}
	for _, a := range agreements {
		if a.PaidAmount > 0 {
			out = append(out, fromHireAgreement(a))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ExpenseDate.After(out[j].ExpenseDate)
	})
	return out, nil
}

// Classify returns the source of a manually entered expense.
func Classify(e Expense) Source {
	if e.ExpenseType == ExpenseTypeMedicine {
		return SourceMedical
	}
	desc := strings.ToLower(e.Description)
	for _, kw := range medicalKeywords {
		if strings.Contains(desc, kw) {
			return SourceMedical
		}
	}
	return SourceManual
}

func fromExpense(e Expense) UnifiedExpense {
	return UnifiedExpense{
		Expense: e,
		Source:  Classify(e),
		Origin:  OriginExpense,
	}
}

func fromHireAgreement(a HireAgreement) UnifiedExpense {
	date := a.StartDate
	createdAt := a.CreatedAt
	if a.PaymentDate != nil {
		date = *a.PaymentDate
		createdAt = *a.PaymentDate
	}
	animal := strings.TrimSpace(a.ExternalAnimalTag)
	if animal == "" {
		animal = fallbackAnimal
	}
	farm := strings.TrimSpace(a.ExternalFarmName)
	if farm == "" {
		farm = fallbackFarm
	}
	var receipt string
	if ref := strings.TrimSpace(a.PaymentReference); ref != "" {
		receipt = "Reference: " + ref
	}
	return UnifiedExpense{
		Expense: Expense{
			ExpenseID:     HireIDOffset + a.AgreementID,
			TenantID:      a.TenantID,
			FarmID:        a.FarmID,
			ExpenseType:   ExpenseTypeAnimalHire,
			Description:   fmt.Sprintf("Animal hire: %s from %s", animal, farm),
			Amount:        a.PaidAmount,
			ExpenseDate:   date,
			VendorName:    farm,
			PaymentMethod: a.PaymentMethod,
			ReceiptURL:    receipt,
			CreatedAt:     createdAt,
		},
		Source:          SourceAnimalHire,
		Origin:          OriginHireAgreement,
		SourceID:        a.AgreementID,
		SourceReference: a.PaymentReference,
	}
}

// BySource keeps the expenses tagged with source. An empty source returns a
// copy of list.
func BySource(list []UnifiedExpense, source Source) []UnifiedExpense {
	if source == "" {
		return append([]UnifiedExpense(nil), list...)
	}
	out := make([]UnifiedExpense, 0, len(list))
	for _, e := range list {
		if e.Source == source {
			out = append(out, e)
		}
	}
	return out
}

// ByType keeps the expenses whose type equals expenseType. An empty type
// returns a copy of list.
func ByType(list []UnifiedExpense, expenseType string) []UnifiedExpense {
	if expenseType == "" {
		return append([]UnifiedExpense(nil), list...)
	}
	out := make([]UnifiedExpense, 0, len(list))
	for _, e := range list {
		if e.ExpenseType == expenseType {
			out = append(out, e)
		}
	}
	return out
}

// Apply narrows list by every non-empty field of f.
func (f Filter) Apply(list []UnifiedExpense) []UnifiedExpense {
	return ByType(BySource(list, f.Source), f.Type)
}

// TotalBySource sums amounts overall and per source.
func TotalBySource(list []UnifiedExpense) Totals {
	var t Totals
	for _, e := range list {
		t.Total += e.Amount
		switch e.Source {
		case SourceManual:
			t.Manual += e.Amount
		case SourceMedical:
			t.Medical += e.Amount
		case SourceAnimalHire:
			t.AnimalHire += e.Amount
		}
	}
	return t
}

// Format renders the totals with the number grouping of tag.
func (t Totals) Format(tag language.Tag) string {
	p := message.NewPrinter(tag)
	return p.Sprintf("total=%.2f manual=%.2f medical=%.2f animal_hire=%.2f", t.Total, t.Manual, t.Medical, t.AnimalHire)
}
