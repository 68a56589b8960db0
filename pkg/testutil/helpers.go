// Package testutil provides common utility functions for testing.
package testutil

import (
	"fmt"
	"testing"

	"github.com/iwvelando/loan-calculator/internal/config"
	"github.com/iwvelando/loan-calculator/pkg/amortization"
	"github.com/iwvelando/loan-calculator/pkg/constants"
	"github.com/iwvelando/loan-calculator/pkg/mathutil"
)

// StandardLoan returns a 100,000 loan at 3% repaid with 1,000 a month. It
// runs 116 months without extras and 81 months with them.
func StandardLoan() config.Loan {
	return config.Loan{
		PropertyValue:      150000,
		OwnFunds:           50000,
		AnnualInterestRate: 3.0,
		MonthlyPayment:     1000,
	}
}

// ScheduleProblems lists the invariant violations of a simulated schedule:
// months must be contiguous from 1, balances non-increasing and non-negative,
// the final balance exactly zero, and principal payments must sum to principal.
func ScheduleProblems(schedule *amortization.Schedule, principal float64) []string {
	var problems []string
	if schedule == nil || len(schedule.Payments) == 0 {
		return []string{"schedule has no payments"}
	}

	previous := principal
	sum := 0.0
	for i, p := range schedule.Payments {
		if p.Month != i+1 {
			problems = append(problems, fmt.Sprintf("record %d has month %d", i, p.Month))
		}
		if p.RemainingBalance < 0 {
			problems = append(problems, fmt.Sprintf("month %d balance %.6f is negative", p.Month, p.RemainingBalance))
		}
		if p.RemainingBalance > previous {
			problems = append(problems, fmt.Sprintf("month %d balance %.6f exceeds previous %.6f", p.Month, p.RemainingBalance, previous))
		}
		previous = p.RemainingBalance
		sum += p.PrincipalPayment
	}

	if final := schedule.Payments[len(schedule.Payments)-1].RemainingBalance; final != 0 {
		problems = append(problems, fmt.Sprintf("final balance %.6f is not zero", final))
	}
	if !mathutil.WithinRelativeTolerance(sum, principal, constants.RelativeTolerance) {
		problems = append(problems, fmt.Sprintf("principal payments sum to %.6f, expected %.6f", sum, principal))
	}
	return problems
}

// CheckSchedule fails t for every invariant violation of schedule.
func CheckSchedule(t testing.TB, schedule *amortization.Schedule, principal float64) {
	t.Helper()
	for _, problem := range ScheduleProblems(schedule, principal) {
		t.Error(problem)
	}
}
