// Package amortization derives the payoff term of a fixed-payment loan and
// simulates its month-by-month amortization schedule.
package amortization

import (
	"fmt"
	"math"

	"github.com/iwvelando/loan-calculator/pkg/constants"
	"github.com/iwvelando/loan-calculator/pkg/mathutil"
	"go.uber.org/zap"
)

// LoanRequest holds the inputs of a single schedule calculation.
type LoanRequest struct {
	Principal         float64 `json:"principal" yaml:"principal"`
	AnnualRatePercent float64 `json:"annualRatePercent" yaml:"annualRatePercent"`
	MonthlyPayment    float64 `json:"monthlyPayment" yaml:"monthlyPayment"`
	// FixedPeriodYears is nil when no fixed period is configured. It may
	// exceed the simulated term.
	FixedPeriodYears        *int `json:"fixedPeriodYears,omitempty" yaml:"fixedPeriodYears,omitempty"`
	ApplyAnnualExtraPayment bool `json:"applyAnnualExtraPayment" yaml:"applyAnnualExtraPayment"`
}

// PaymentRecord holds the values for a given month.
type PaymentRecord struct {
	Month            int     `json:"month"`
	PrincipalPayment float64 `json:"principalPayment"`
	InterestPayment  float64 `json:"interestPayment"`
	ExtraPayment     float64 `json:"extraPayment"`
	RemainingBalance float64 `json:"remainingBalance"`
}

// Schedule is the complete result of a simulation.
type Schedule struct {
	Payments                    []PaymentRecord `json:"schedule"`
	TotalPayment                float64         `json:"totalPayment"`
	TotalInterest               float64         `json:"totalInterest"`
	FixedPeriodInterest         float64         `json:"fixedPeriodInterest"`
	FixedPeriodRemainingBalance *float64        `json:"fixedPeriodRemainingBalance,omitempty"`
	AnnualExtraPaymentAmount    float64         `json:"annualExtraPaymentAmount"`
}

// TermMonths returns the number of simulated months.
func (s *Schedule) TermMonths() int {
	return len(s.Payments)
}

// TotalPrincipal returns the sum of all principal payments, extras included.
func (s *Schedule) TotalPrincipal() float64 {
	total := 0.0
	for _, p := range s.Payments {
		total += p.PrincipalPayment
	}
	return total
}

// TotalExtraPayments returns the sum of all annual extra payments applied.
func (s *Schedule) TotalExtraPayments() float64 {
	total := 0.0
	for _, p := range s.Payments {
		total += p.ExtraPayment
	}
	return total
}

// DeriveTermYears solves the annuity formula for the number of years needed
// to repay principal at the given rate with the given monthly payment:
//
//	n = ln(PMT / (PMT - P*r)) / ln(1 + r) / 12
//
// A zero rate yields principal / payment months. The result is an upper bound
// estimate; annual extra payments shorten the simulated term.
func DeriveTermYears(principal, annualRatePercent, monthlyPayment float64) (float64, error) {
	monthlyRate := mathutil.MonthlyRate(annualRatePercent)
	if err := checkPayment(principal, annualRatePercent, monthlyPayment, monthlyRate); err != nil {
		return 0, err
	}
	return termMonths(principal, monthlyPayment, monthlyRate) / constants.MonthsPerYear, nil
}

// DeriveTermMonths returns the closed-form term rounded up to a whole number
// of months. Terms longer than constants.MaxTermMonths yield a
// *TermTooLongError.
func DeriveTermMonths(principal, annualRatePercent, monthlyPayment float64) (int, error) {
	monthlyRate := mathutil.MonthlyRate(annualRatePercent)
	if err := checkPayment(principal, annualRatePercent, monthlyPayment, monthlyRate); err != nil {
		return 0, err
	}
	months := math.Ceil(termMonths(principal, monthlyPayment, monthlyRate))
	// Compared as a float so huge or infinite terms never reach the int conversion.
	if !(months <= constants.MaxTermMonths) {
		return 0, &TermTooLongError{TermMonths: months, MaxMonths: constants.MaxTermMonths}
	}
	return int(months), nil
}

// checkPayment must run before any logarithm is evaluated.
func checkPayment(principal, annualRatePercent, monthlyPayment, monthlyRate float64) error {
	interest := principal * monthlyRate
	if monthlyPayment <= interest {
		return &InsufficientPaymentError{
			Principal:         principal,
			AnnualRatePercent: annualRatePercent,
			MonthlyPayment:    monthlyPayment,
			MinimumPayment:    interest,
		}
	}
	return nil
}

func termMonths(principal, monthlyPayment, monthlyRate float64) float64 {
	if monthlyRate == 0 {
		return principal / monthlyPayment
	}
	// ln(PMT/(PMT-P*r)) == -ln(1-P*r/PMT); Log1p keeps both logarithms
	// accurate when r is tiny.
	return -math.Log1p(-principal*monthlyRate/monthlyPayment) / math.Log1p(monthlyRate)
}

// Simulate computes the amortization schedule for req without logging.
func Simulate(req LoanRequest) (*Schedule, error) {
	return NewGenerator(nil).Generate(req)
}

// Generator produces amortization schedules. It holds no per-request state
// and is safe for concurrent use.
type Generator struct {
	logger *zap.Logger
}

// NewGenerator creates a new generator instance
func NewGenerator(logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{logger: logger}
}

// Generate simulates req month by month until the balance reaches zero.
func (g *Generator) Generate(req LoanRequest) (*Schedule, error) {
	monthlyRate := mathutil.MonthlyRate(req.AnnualRatePercent)
	bound, err := DeriveTermMonths(req.Principal, req.AnnualRatePercent, req.MonthlyPayment)
	if err != nil {
		return nil, err
	}

	fixedPeriodMonths := 0
	if req.FixedPeriodYears != nil {
		fixedPeriodMonths = *req.FixedPeriodYears * constants.MonthsPerYear
	}

	schedule := &Schedule{
		Payments: make([]PaymentRecord, 0, bound),
	}
	if req.ApplyAnnualExtraPayment {
		schedule.AnnualExtraPaymentAmount = mathutil.ApplyPercentage(req.Principal, constants.AnnualExtraPaymentPercent)
	}

	g.logger.Debug(fmt.Sprintf("simulating loan of %.2f at %.3f%% paying %.2f monthly, estimated term %d months",
		req.Principal, req.AnnualRatePercent, req.MonthlyPayment, bound),
		zap.String("op", "amortization.Generate"),
	)

	balance := req.Principal
	// The closed-form bound is only an estimate; the loop runs until the
	// balance is gone or the hard cap is hit.
	for month := 1; month <= constants.MaxTermMonths; month++ {
		interest := balance * monthlyRate
		if req.FixedPeriodYears != nil && month <= fixedPeriodMonths {
			schedule.FixedPeriodInterest += interest
		}

		principal := mathutil.Min(req.MonthlyPayment-interest, balance)

		extra := 0.0
		if req.ApplyAnnualExtraPayment && month%constants.MonthsPerYear == 0 && balance > 0 {
			extra = mathutil.Min(schedule.AnnualExtraPaymentAmount, balance-principal)
			principal += extra
			if extra > 0 {
				g.logger.Debug(fmt.Sprintf("month %d: applying extra principal payment %.2f", month, extra),
					zap.String("op", "amortization.Generate"),
				)
			}
		}

		balance = mathutil.Max(0, balance-principal)

		schedule.TotalInterest += interest
		schedule.TotalPayment += principal + interest
		schedule.Payments = append(schedule.Payments, PaymentRecord{
			Month:            month,
			PrincipalPayment: principal,
			InterestPayment:  interest,
			ExtraPayment:     extra,
			RemainingBalance: balance,
		})

		if fixedPeriodMonths > 0 && month == fixedPeriodMonths {
			remaining := balance
			schedule.FixedPeriodRemainingBalance = &remaining
		}

		if balance == 0 {
			g.logger.Debug(fmt.Sprintf("loan paid off in month %d", month),
				zap.String("op", "amortization.Generate"),
			)
			break
		}
	}

	if balance != 0 {
		g.logger.Warn("simulation reached the maximum term with an outstanding balance",
			zap.String("op", "amortization.Generate"),
			zap.Int("months", len(schedule.Payments)),
			zap.Float64("balance", balance),
		)
		return nil, &TermTooLongError{TermMonths: float64(bound), MaxMonths: constants.MaxTermMonths}
	}

	return schedule, nil
}
