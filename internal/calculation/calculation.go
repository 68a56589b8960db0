// Package calculation defines the result of a loan calculation and includes
// the function that computes it from configured inputs.
package calculation

import (
	"fmt"

	"github.com/iwvelando/loan-calculator/internal/config"
	"github.com/iwvelando/loan-calculator/pkg/amortization"
	"github.com/iwvelando/loan-calculator/pkg/constants"
	"github.com/iwvelando/loan-calculator/pkg/datetime"
	"github.com/iwvelando/loan-calculator/pkg/report"
	"go.uber.org/zap"
)

// Result holds everything derived from one calculation.
type Result struct {
	PropertyValue      float64                  `json:"propertyValue"`
	OwnFunds           float64                  `json:"ownFunds"`
	StartDate          string                   `json:"startDate,omitempty"`
	Request            amortization.LoanRequest `json:"request"`
	OriginalTermMonths float64                  `json:"originalTermMonths"`
	Schedule           *amortization.Schedule   `json:"amortization"`
	Summary            report.Summary           `json:"summary"`
	Yearly             []report.YearSummary     `json:"yearly"`
	Chart              []report.ChartPoint      `json:"chart"`
}

// MonthLabel returns the calendar month of a schedule month when a start date
// was configured, or the month number otherwise.
func (r *Result) MonthLabel(month int) string {
	if r.StartDate == "" {
		return fmt.Sprintf("%d", month)
	}
	label, err := datetime.MonthLabel(r.StartDate, month)
	if err != nil {
		return fmt.Sprintf("%d", month)
	}
	return label
}

// YearLabel returns the label of a 1-based schedule year.
func (r *Result) YearLabel(year int) string {
	if r.StartDate == "" {
		return fmt.Sprintf("Year %d", year)
	}
	first := r.MonthLabel((year-1)*constants.MonthsPerYear + 1)
	return fmt.Sprintf("Year %d (from %s)", year, first)
}

// Calculate validates the loan, runs the amortization engine and builds the
// report aggregates.
func Calculate(logger *zap.Logger, loan config.Loan) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	req, err := loan.Request()
	if err != nil {
		return nil, err
	}

	originalYears, err := amortization.DeriveTermYears(req.Principal, req.AnnualRatePercent, req.MonthlyPayment)
	if err != nil {
		return nil, err
	}

	schedule, err := amortization.NewGenerator(logger).Generate(req)
	if err != nil {
		return nil, err
	}

	originalMonths := originalYears * constants.MonthsPerYear
	result := &Result{
		PropertyValue:      loan.PropertyValue,
		OwnFunds:           loan.OwnFunds,
		StartDate:          loan.StartDate,
		Request:            req,
		OriginalTermMonths: originalMonths,
		Schedule:           schedule,
		Summary:            report.Summarize(req, schedule, originalMonths),
		Yearly:             report.Yearly(schedule),
		Chart:              report.Chart(schedule),
	}

	logger.Debug(fmt.Sprintf("loan of %.2f paid off in %d months, estimated %.1f",
		req.Principal, schedule.TermMonths(), originalMonths),
		zap.String("op", "calculation.Calculate"),
	)

	return result, nil
}
