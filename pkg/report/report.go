// Package report derives presentation aggregates from an amortization
// schedule: the loan summary, yearly rollups and chart series.
package report

import (
	"github.com/iwvelando/loan-calculator/pkg/amortization"
	"github.com/iwvelando/loan-calculator/pkg/constants"
	"github.com/iwvelando/loan-calculator/pkg/mathutil"
)

// Summary holds the headline figures of a calculation.
type Summary struct {
	LoanAmount         float64 `json:"loanAmount"`
	AnnualInterestRate float64 `json:"annualInterestRate"`
	MonthlyPayment     float64 `json:"monthlyPayment"`
	// OriginalTermMonths is the closed-form estimate, before extra payments.
	OriginalTermMonths  float64 `json:"originalTermMonths"`
	ActualTermMonths    int     `json:"actualTermMonths"`
	MonthsSaved         float64 `json:"monthsSaved"`
	BasePaymentsTotal   float64 `json:"basePaymentsTotal"`
	TotalExtraPayments  float64 `json:"totalExtraPayments"`
	ActualTotalPayments float64 `json:"actualTotalPayments"`
	TotalPayment        float64 `json:"totalPayment"`
	TotalInterest       float64 `json:"totalInterest"`
	AnnualExtraPayment  float64 `json:"annualExtraPayment"`

	FixedPeriodYears            *int     `json:"fixedPeriodYears,omitempty"`
	FixedPeriodInterest         float64  `json:"fixedPeriodInterest"`
	FixedPeriodRemainingBalance *float64 `json:"fixedPeriodRemainingBalance,omitempty"`
}

// OriginalTermYears returns the estimated term in years.
func (s Summary) OriginalTermYears() float64 {
	return s.OriginalTermMonths / constants.MonthsPerYear
}

// ActualTermYears returns the simulated term in years.
func (s Summary) ActualTermYears() float64 {
	return float64(s.ActualTermMonths) / constants.MonthsPerYear
}

// YearsSaved returns the term reduction in years.
func (s Summary) YearsSaved() float64 {
	return s.MonthsSaved / constants.MonthsPerYear
}

// YearSummary rolls up twelve consecutive schedule months.
type YearSummary struct {
	Year      int     `json:"year"`
	Principal float64 `json:"principal"`
	Interest  float64 `json:"interest"`
	Extra     float64 `json:"extra"`
	// Balance is the remaining balance after the last month of the year.
	Balance float64 `json:"balance"`
}

// ChartPoint is one month of the amortization chart.
type ChartPoint struct {
	Month               int     `json:"month"`
	Balance             float64 `json:"balance"`
	CumulativePrincipal float64 `json:"cumulativePrincipal"`
	CumulativeInterest  float64 `json:"cumulativeInterest"`
	// ExtraPaymentMarker is the balance before the extra payment, present
	// only in months where one was applied.
	ExtraPaymentMarker *float64 `json:"extraPaymentMarker,omitempty"`
}

// Summarize builds the Summary of a simulated schedule. originalTermMonths is
// the closed-form estimate for the same request.
func Summarize(req amortization.LoanRequest, schedule *amortization.Schedule, originalTermMonths float64) Summary {
	months := schedule.TermMonths()
	base := req.MonthlyPayment * float64(months)
	extras := schedule.TotalExtraPayments()

	return Summary{
		LoanAmount:                  req.Principal,
		AnnualInterestRate:          req.AnnualRatePercent,
		MonthlyPayment:              req.MonthlyPayment,
		OriginalTermMonths:          originalTermMonths,
		ActualTermMonths:            months,
		MonthsSaved:                 mathutil.Max(0, originalTermMonths-float64(months)),
		BasePaymentsTotal:           base,
		TotalExtraPayments:          extras,
		ActualTotalPayments:         base + extras,
		TotalPayment:                schedule.TotalPayment,
		TotalInterest:               schedule.TotalInterest,
		AnnualExtraPayment:          schedule.AnnualExtraPaymentAmount,
		FixedPeriodYears:            req.FixedPeriodYears,
		FixedPeriodInterest:         schedule.FixedPeriodInterest,
		FixedPeriodRemainingBalance: schedule.FixedPeriodRemainingBalance,
	}
}

// Yearly groups the schedule into 1-based years of twelve months. The last
// year may be partial.
func Yearly(schedule *amortization.Schedule) []YearSummary {
	years := make([]YearSummary, 0, (schedule.TermMonths()+constants.MonthsPerYear-1)/constants.MonthsPerYear)
	for _, p := range schedule.Payments {
		year := (p.Month-1)/constants.MonthsPerYear + 1
		if len(years) == 0 || years[len(years)-1].Year != year {
			years = append(years, YearSummary{Year: year})
		}
		current := &years[len(years)-1]
		current.Principal += p.PrincipalPayment
		current.Interest += p.InterestPayment
		current.Extra += p.ExtraPayment
		current.Balance = p.RemainingBalance
	}
	return years
}

// Chart returns the balance and cumulative payment series of the schedule.
func Chart(schedule *amortization.Schedule) []ChartPoint {
	points := make([]ChartPoint, 0, schedule.TermMonths())
	principal, interest := 0.0, 0.0
	for _, p := range schedule.Payments {
		principal += p.PrincipalPayment
		interest += p.InterestPayment
		point := ChartPoint{
			Month:               p.Month,
			Balance:             p.RemainingBalance,
			CumulativePrincipal: principal,
			CumulativeInterest:  interest,
		}
		if p.ExtraPayment > 0 {
			marker := p.RemainingBalance + p.ExtraPayment
			point.ExtraPaymentMarker = &marker
		}
		points = append(points, point)
	}
	return points
}
