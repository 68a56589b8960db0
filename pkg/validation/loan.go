package validation

import (
	"errors"
	"fmt"
	"math"

	"github.com/iwvelando/loan-calculator/pkg/constants"
	"github.com/iwvelando/loan-calculator/pkg/datetime"
)

// ErrInvalidInput is wrapped by every error returned from ValidateLoanInput.
var ErrInvalidInput = errors.New("invalid input")

// LoanInput holds the caller-level inputs from which a loan request is built.
type LoanInput struct {
	PropertyValue      float64
	OwnFunds           float64
	AnnualInterestRate float64
	MonthlyPayment     float64
	FixedPeriodYears   *int
	StartDate          string
}

// Principal returns the financed amount.
func (in LoanInput) Principal() float64 {
	return in.PropertyValue - in.OwnFunds
}

// ValidateLoanInput checks the inputs the amortization engine assumes valid:
// a strictly positive principal, a non-negative rate and a positive payment.
func ValidateLoanInput(in LoanInput) error {
	fields := []struct {
		name  string
		value float64
	}{
		{"property value", in.PropertyValue},
		{"own funds", in.OwnFunds},
		{"annual interest rate", in.AnnualInterestRate},
		{"monthly payment", in.MonthlyPayment},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: %s must be a finite number", ErrInvalidInput, f.name)
		}
	}

	if in.OwnFunds < 0 {
		return fmt.Errorf("%w: own funds cannot be negative", ErrInvalidInput)
	}
	principal := in.Principal()
	if principal < 0 {
		return fmt.Errorf("%w: own funds cannot exceed property value", ErrInvalidInput)
	}
	if principal == 0 {
		return fmt.Errorf("%w: loan amount cannot be zero, own funds must be less than property value", ErrInvalidInput)
	}
	if in.AnnualInterestRate < 0 {
		return fmt.Errorf("%w: annual interest rate cannot be negative", ErrInvalidInput)
	}
	if in.MonthlyPayment <= 0 {
		return fmt.Errorf("%w: monthly payment must be positive", ErrInvalidInput)
	}
	if in.FixedPeriodYears != nil && *in.FixedPeriodYears < 0 {
		return fmt.Errorf("%w: fixed period years cannot be negative", ErrInvalidInput)
	}
	if in.FixedPeriodYears != nil && *in.FixedPeriodYears > constants.MaxFixedPeriodYears {
		return fmt.Errorf("%w: fixed period years cannot exceed %d", ErrInvalidInput, constants.MaxFixedPeriodYears)
	}
	if in.StartDate != "" {
		if err := datetime.ValidateMonth(in.StartDate); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}
	return nil
}
