package expenses

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/farmdesk/farmdesk/internal/shared"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func recordValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		err := validate.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
			f := fl.Field().Float()
			return !math.IsNaN(f) && !math.IsInf(f, 0)
		})
		if err != nil {
			panic(fmt.Sprintf("expenses: register finite validation: %v", err))
		}
	})
	return validate
}

// ValidationError describes a malformed input record. It matches
// shared.ErrValidation with errors.Is.
type ValidationError struct {
	Record string
	ID     int64
	Index  int
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("expenses: invalid %s #%d (id %d): %s %s", e.Record, e.Index, e.ID, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return shared.ErrValidation
}

// ValidateExpense checks a single expense record.
func ValidateExpense(e Expense) error {
	return fieldError("expense", e.ExpenseID, 0, recordValidator().Struct(e))
}

// ValidateHireAgreement checks a single hire agreement record.
func ValidateHireAgreement(a HireAgreement) error {
	if err := fieldError("hire agreement", a.AgreementID, 0, recordValidator().Struct(a)); err != nil {
		return err
	}
	if a.PaymentDate != nil && a.PaymentDate.IsZero() {
		return &ValidationError{Record: "hire agreement", ID: a.AgreementID, Field: "PaymentDate", Reason: "must not be zero when set"}
	}
	return nil
}

func validateInputs(expenses []Expense, agreements []HireAgreement) error {
	seenExpenses := make(map[int64]int, len(expenses))
	for i, e := range expenses {
		if err := ValidateExpense(e); err != nil {
			return withIndex(err, i)
		}
		if prev, ok := seenExpenses[e.ExpenseID]; ok {
			return &ValidationError{Record: "expense", ID: e.ExpenseID, Index: i, Field: "ExpenseID", Reason: fmt.Sprintf("duplicates record #%d", prev)}
		}
		seenExpenses[e.ExpenseID] = i
	}
	seenAgreements := make(map[int64]int, len(agreements))
	for i, a := range agreements {
		if err := ValidateHireAgreement(a); err != nil {
			return withIndex(err, i)
		}
		if prev, ok := seenAgreements[a.AgreementID]; ok {
			return &ValidationError{Record: "hire agreement", ID: a.AgreementID, Index: i, Field: "AgreementID", Reason: fmt.Sprintf("duplicates record #%d", prev)}
		}
		seenAgreements[a.AgreementID] = i
		if a.PaidAmount <= 0 {
			continue
		}
		if prev, ok := seenExpenses[HireIDOffset+a.AgreementID]; ok {
			return &ValidationError{Record: "hire agreement", ID: a.AgreementID, Index: i, Field: "AgreementID", Reason: fmt.Sprintf("display id collides with expense #%d", prev)}
		}
	}
	return nil
}

func fieldError(record string, id int64, index int, err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		reason := "failed " + fe.Tag()
		if fe.Param() != "" {
			reason += "=" + fe.Param()
		}
		return &ValidationError{Record: record, ID: id, Index: index, Field: fe.Field(), Reason: reason}
	}
	return fmt.Errorf("expenses: validate %s: %w", record, err)
}

func withIndex(err error, index int) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		ve.Index = index
	}
	return err
}
