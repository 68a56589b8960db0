package amortization

import (
	"errors"
	"fmt"
)

// ErrInsufficientPayment is matched by errors.Is for every
// InsufficientPaymentError.
var ErrInsufficientPayment = errors.New("monthly payment too low - loan would never be paid off")

// InsufficientPaymentError reports a monthly payment that does not exceed the
// first month's interest charge, so the balance would never decrease.
type InsufficientPaymentError struct {
	Principal         float64
	AnnualRatePercent float64
	MonthlyPayment    float64
	// MinimumPayment is the first month's interest; any payment must exceed it.
	MinimumPayment float64
}

func (e *InsufficientPaymentError) Error() string {
	return fmt.Sprintf("%s: payment %.2f must exceed monthly interest %.2f (principal %.2f at %.2f%%)",
		ErrInsufficientPayment, e.MonthlyPayment, e.MinimumPayment, e.Principal, e.AnnualRatePercent)
}

// Is makes errors.Is(err, ErrInsufficientPayment) succeed.
func (e *InsufficientPaymentError) Is(target error) bool {
	return target == ErrInsufficientPayment
}

// ErrTermTooLong is matched by errors.Is for every TermTooLongError.
var ErrTermTooLong = errors.New("loan term exceeds the supported maximum")

// TermTooLongError reports a loan whose payoff would take longer than
// constants.MaxTermMonths months to simulate.
type TermTooLongError struct {
	// TermMonths is the closed-form estimate; it may be +Inf.
	TermMonths float64
	MaxMonths  int
}

func (e *TermTooLongError) Error() string {
	return fmt.Sprintf("%s: payoff needs %.0f months, limit is %d", ErrTermTooLong, e.TermMonths, e.MaxMonths)
}

// Is makes errors.Is(err, ErrTermTooLong) succeed.
func (e *TermTooLongError) Is(target error) bool {
	return target == ErrTermTooLong
}
