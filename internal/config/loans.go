package config

import (
	"github.com/iwvelando/loan-calculator/pkg/amortization"
	"github.com/iwvelando/loan-calculator/pkg/validation"
)

// Loan holds the caller-level inputs of a calculation. The financed principal
// is PropertyValue minus OwnFunds.
type Loan struct {
	PropertyValue       float64 `json:"propertyValue" yaml:"propertyValue"`
	OwnFunds            float64 `json:"ownFunds" yaml:"ownFunds"`
	AnnualInterestRate  float64 `json:"annualInterestRate" yaml:"annualInterestRate"`
	MonthlyPayment      float64 `json:"monthlyPayment" yaml:"monthlyPayment"`
	FixedPeriodYears    *int    `json:"fixedPeriodYears,omitempty" yaml:"fixedPeriodYears,omitempty"`
	IncludeExtraPayment bool    `json:"includeExtraPayment" yaml:"includeExtraPayment"`
	StartDate           string  `json:"startDate,omitempty" yaml:"startDate,omitempty"` // YYYY-MM of the first payment
}

// Input converts the loan into its validation form.
func (loan Loan) Input() validation.LoanInput {
	return validation.LoanInput{
		PropertyValue:      loan.PropertyValue,
		OwnFunds:           loan.OwnFunds,
		AnnualInterestRate: loan.AnnualInterestRate,
		MonthlyPayment:     loan.MonthlyPayment,
		FixedPeriodYears:   loan.FixedPeriodYears,
		StartDate:          loan.StartDate,
	}
}

// Request validates the loan and builds the engine request from it.
func (loan Loan) Request() (amortization.LoanRequest, error) {
	input := loan.Input()
	if err := validation.ValidateLoanInput(input); err != nil {
		return amortization.LoanRequest{}, err
	}
	return amortization.LoanRequest{
		Principal:               input.Principal(),
		AnnualRatePercent:       loan.AnnualInterestRate,
		MonthlyPayment:          loan.MonthlyPayment,
		FixedPeriodYears:        loan.FixedPeriodYears,
		ApplyAnnualExtraPayment: loan.IncludeExtraPayment,
	}, nil
}
