package amortization

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/iwvelando/loan-calculator/pkg/constants"
	"github.com/iwvelando/loan-calculator/pkg/mathutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func intPtr(v int) *int {
	return &v
}

func TestDeriveTermYears(t *testing.T) {
	tests := []struct {
		name           string
		principal      float64
		annualRate     float64
		monthlyPayment float64
		expectedMonths float64
		tolerance      float64
	}{
		{
			name:           "Standard loan",
			principal:      100000,
			annualRate:     3.0,
			monthlyPayment: 1000,
			expectedMonths: 115.2166,
			tolerance:      0.001,
		},
		{
			name:           "30-year reference mortgage",
			principal:      175000,
			annualRate:     4.5,
			monthlyPayment: 886.70,
			expectedMonths: 360,
			tolerance:      0.01,
		},
		{
			name:           "Zero interest",
			principal:      12000,
			annualRate:     0,
			monthlyPayment: 100,
			expectedMonths: 120,
			tolerance:      1e-9,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			years, err := DeriveTermYears(tt.principal, tt.annualRate, tt.monthlyPayment)
			if err != nil {
				t.Fatalf("DeriveTermYears() error = %v", err)
			}
			if math.Abs(years*12-tt.expectedMonths) > tt.tolerance {
				t.Errorf("DeriveTermYears() = %.4f months, expected %.4f", years*12, tt.expectedMonths)
			}
		})
	}
}

func TestDeriveTermMonths(t *testing.T) {
	tests := []struct {
		name           string
		principal      float64
		annualRate     float64
		monthlyPayment float64
		expected       int
	}{
		{"Rounds up partial month", 100000, 3.0, 1000, 116},
		{"Zero interest exact", 100000, 0, 1000, 100},
		{"Zero interest partial", 100000, 0, 999, 101},
		{"Reference mortgage", 175000, 4.5, 886.70, 360},
		{"Near-zero rate", 944472.0698668062, 1.331616962655031e-09, 13.338604637372757, 70808},
		{"At maximum term", constants.MaxTermMonths, 0, 1, constants.MaxTermMonths},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			months, err := DeriveTermMonths(tt.principal, tt.annualRate, tt.monthlyPayment)
			if err != nil {
				t.Fatalf("DeriveTermMonths() error = %v", err)
			}
			if months != tt.expected {
				t.Errorf("DeriveTermMonths() = %d, expected %d", months, tt.expected)
			}
		})
	}
}

func TestInsufficientPayment(t *testing.T) {
	tests := []struct {
		name           string
		principal      float64
		annualRate     float64
		monthlyPayment float64
	}{
		{"Payment equals interest", 100000, 3.0, 250},
		{"Payment below interest", 100000, 3.0, 100},
		{"Zero payment at zero rate", 100000, 0, 0},
		{"High rate", 10000, 24.0, 150},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DeriveTermYears(tt.principal, tt.annualRate, tt.monthlyPayment); !errors.Is(err, ErrInsufficientPayment) {
				t.Errorf("DeriveTermYears() error = %v, expected ErrInsufficientPayment", err)
			}

			schedule, err := Simulate(LoanRequest{
				Principal:         tt.principal,
				AnnualRatePercent: tt.annualRate,
				MonthlyPayment:    tt.monthlyPayment,
			})
			if schedule != nil {
				t.Errorf("Simulate() returned a schedule for an insufficient payment")
			}

			var paymentErr *InsufficientPaymentError
			if !errors.As(err, &paymentErr) {
				t.Fatalf("Simulate() error = %v, expected *InsufficientPaymentError", err)
			}
			if paymentErr.Principal != tt.principal || paymentErr.MonthlyPayment != tt.monthlyPayment ||
				paymentErr.AnnualRatePercent != tt.annualRate {
				t.Errorf("error context = %+v, expected inputs to be carried", paymentErr)
			}
			if paymentErr.MinimumPayment != tt.principal*mathutil.MonthlyRate(tt.annualRate) {
				t.Errorf("MinimumPayment = %.2f, expected first month interest", paymentErr.MinimumPayment)
			}
		})
	}
}

func TestTermTooLong(t *testing.T) {
	tests := []struct {
		name           string
		principal      float64
		annualRate     float64
		monthlyPayment float64
	}{
		{"One month over the maximum", constants.MaxTermMonths + 1, 0, 1},
		{"Billion at one cent", 1e9, 0, 0.01},
		{"Trillion at a fraction of a cent", 1e12, 0, 1e-9},
		{"Low rate and small payment", 100000, 0.01, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DeriveTermMonths(tt.principal, tt.annualRate, tt.monthlyPayment); !errors.Is(err, ErrTermTooLong) {
				t.Errorf("DeriveTermMonths() error = %v, expected ErrTermTooLong", err)
			}

			schedule, err := Simulate(LoanRequest{
				Principal:         tt.principal,
				AnnualRatePercent: tt.annualRate,
				MonthlyPayment:    tt.monthlyPayment,
			})
			if schedule != nil {
				t.Errorf("Simulate() returned a schedule of %d months", schedule.TermMonths())
			}

			var termErr *TermTooLongError
			if !errors.As(err, &termErr) {
				t.Fatalf("Simulate() error = %v, expected *TermTooLongError", err)
			}
			if termErr.MaxMonths != constants.MaxTermMonths {
				t.Errorf("MaxMonths = %d, expected %d", termErr.MaxMonths, constants.MaxTermMonths)
			}
			if termErr.TermMonths <= constants.MaxTermMonths {
				t.Errorf("TermMonths = %v, expected more than %d", termErr.TermMonths, constants.MaxTermMonths)
			}
		})
	}
}

func TestSimulateAtMaximumTerm(t *testing.T) {
	schedule, err := Simulate(LoanRequest{Principal: constants.MaxTermMonths, AnnualRatePercent: 0, MonthlyPayment: 1})
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}
	if schedule.TermMonths() != constants.MaxTermMonths {
		t.Errorf("TermMonths() = %d, expected %d", schedule.TermMonths(), constants.MaxTermMonths)
	}
	if final := schedule.Payments[len(schedule.Payments)-1].RemainingBalance; final != 0 {
		t.Errorf("final balance = %v, expected exactly 0", final)
	}
}

func TestSimulateStandardLoan(t *testing.T) {
	schedule, err := Simulate(LoanRequest{
		Principal:         100000,
		AnnualRatePercent: 3.0,
		MonthlyPayment:    1000,
	})
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}

	if schedule.TermMonths() != 116 {
		t.Errorf("TermMonths() = %d, expected 116", schedule.TermMonths())
	}

	first := schedule.Payments[0]
	if first.Month != 1 {
		t.Errorf("first month = %d, expected 1", first.Month)
	}
	if math.Abs(first.InterestPayment-250) > 1e-9 {
		t.Errorf("first interest = %.4f, expected 250", first.InterestPayment)
	}
	if math.Abs(first.PrincipalPayment-750) > 1e-9 {
		t.Errorf("first principal = %.4f, expected 750", first.PrincipalPayment)
	}
	if math.Abs(first.RemainingBalance-99250) > 1e-9 {
		t.Errorf("first balance = %.4f, expected 99250", first.RemainingBalance)
	}

	last := schedule.Payments[len(schedule.Payments)-1]
	if last.RemainingBalance != 0 {
		t.Errorf("final balance = %v, expected exactly 0", last.RemainingBalance)
	}
	if last.PrincipalPayment+last.InterestPayment >= 1000 {
		t.Errorf("final payment %.2f should be a partial payment", last.PrincipalPayment+last.InterestPayment)
	}

	if !mathutil.WithinRelativeTolerance(schedule.TotalInterest+schedule.TotalPrincipal(), schedule.TotalPayment, 1e-9) {
		t.Errorf("total interest %.2f + principal %.2f != total payment %.2f",
			schedule.TotalInterest, schedule.TotalPrincipal(), schedule.TotalPayment)
	}
	if schedule.AnnualExtraPaymentAmount != 0 {
		t.Errorf("AnnualExtraPaymentAmount = %.2f, expected 0", schedule.AnnualExtraPaymentAmount)
	}
	if schedule.FixedPeriodRemainingBalance != nil {
		t.Errorf("FixedPeriodRemainingBalance should be absent without a fixed period")
	}
	if schedule.FixedPeriodInterest != 0 {
		t.Errorf("FixedPeriodInterest = %.2f, expected 0", schedule.FixedPeriodInterest)
	}
}

func TestSimulateInvariants(t *testing.T) {
	requests := []struct {
		name string
		req  LoanRequest
	}{
		{"Standard", LoanRequest{Principal: 100000, AnnualRatePercent: 3.0, MonthlyPayment: 1000}},
		{"With extras", LoanRequest{Principal: 100000, AnnualRatePercent: 3.0, MonthlyPayment: 1000, ApplyAnnualExtraPayment: true}},
		{"Fixed period and extras", LoanRequest{Principal: 250000, AnnualRatePercent: 4.2, MonthlyPayment: 1500, FixedPeriodYears: intPtr(10), ApplyAnnualExtraPayment: true}},
		{"Zero rate", LoanRequest{Principal: 12000, AnnualRatePercent: 0, MonthlyPayment: 700}},
		{"Tiny rate", LoanRequest{Principal: 12000, AnnualRatePercent: 0.000001, MonthlyPayment: 100}},
		{"Payment barely above interest", LoanRequest{Principal: 50000, AnnualRatePercent: 6.0, MonthlyPayment: 251}},
		{"Payment exceeds principal", LoanRequest{Principal: 500, AnnualRatePercent: 5.0, MonthlyPayment: 1000}},
		{"Reference mortgage", LoanRequest{Principal: 175000, AnnualRatePercent: 4.5, MonthlyPayment: 886.70}},
		{"Near-zero rate over a long term", LoanRequest{Principal: 944472.0698668062, AnnualRatePercent: 1.331616962655031e-09, MonthlyPayment: 13.338604637372757}},
	}

	for _, tt := range requests {
		t.Run(tt.name, func(t *testing.T) {
			schedule, err := Simulate(tt.req)
			if err != nil {
				t.Fatalf("Simulate() error = %v", err)
			}
			if len(schedule.Payments) == 0 {
				t.Fatal("expected at least one payment")
			}

			previous := tt.req.Principal
			for i, p := range schedule.Payments {
				if p.Month != i+1 {
					t.Fatalf("payment %d has month %d, expected %d", i, p.Month, i+1)
				}
				if p.RemainingBalance < 0 {
					t.Fatalf("month %d balance %v is negative", p.Month, p.RemainingBalance)
				}
				if p.RemainingBalance > previous {
					t.Fatalf("month %d balance %v increased from %v", p.Month, p.RemainingBalance, previous)
				}
				if i < len(schedule.Payments)-1 && p.RemainingBalance == 0 {
					t.Fatalf("month %d reached zero before the final record", p.Month)
				}
				previous = p.RemainingBalance
			}

			if final := schedule.Payments[len(schedule.Payments)-1].RemainingBalance; final != 0 {
				t.Errorf("final balance = %v, expected exactly 0", final)
			}
			if !mathutil.WithinRelativeTolerance(schedule.TotalPrincipal(), tt.req.Principal, 1e-6) {
				t.Errorf("sum of principal = %.6f, expected %.6f", schedule.TotalPrincipal(), tt.req.Principal)
			}

			interest := 0.0
			for _, p := range schedule.Payments {
				interest += p.InterestPayment
			}
			if math.Abs(interest-schedule.TotalInterest) > 1e-6 {
				t.Errorf("TotalInterest = %.6f, expected %.6f", schedule.TotalInterest, interest)
			}
		})
	}
}

func TestSimulateAnnualExtraPayment(t *testing.T) {
	base := LoanRequest{Principal: 100000, AnnualRatePercent: 3.0, MonthlyPayment: 1000}
	withExtra := base
	withExtra.ApplyAnnualExtraPayment = true

	plain, err := Simulate(base)
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}
	extra, err := Simulate(withExtra)
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}

	if extra.AnnualExtraPaymentAmount != 5000 {
		t.Errorf("AnnualExtraPaymentAmount = %.2f, expected 5000", extra.AnnualExtraPaymentAmount)
	}
	if extra.TermMonths() >= plain.TermMonths() {
		t.Errorf("extra payments term %d should be shorter than %d", extra.TermMonths(), plain.TermMonths())
	}
	if extra.TermMonths() != 81 {
		t.Errorf("TermMonths() = %d, expected 81", extra.TermMonths())
	}
	if extra.TotalInterest >= plain.TotalInterest {
		t.Errorf("extra payments interest %.2f should be lower than %.2f", extra.TotalInterest, plain.TotalInterest)
	}

	for _, p := range extra.Payments {
		if p.Month%12 != 0 && p.ExtraPayment != 0 {
			t.Errorf("month %d has unexpected extra payment %.2f", p.Month, p.ExtraPayment)
		}
	}

	december := extra.Payments[11]
	if december.ExtraPayment != 5000 {
		t.Errorf("month 12 extra payment = %.2f, expected 5000", december.ExtraPayment)
	}
	regular := 1000 - december.InterestPayment
	if math.Abs(december.PrincipalPayment-(regular+5000)) > 1e-9 {
		t.Errorf("month 12 principal = %.4f, expected %.4f", december.PrincipalPayment, regular+5000)
	}
	if math.Abs(extra.TotalExtraPayments()-6*5000) > 1e-9 {
		t.Errorf("TotalExtraPayments() = %.2f, expected 30000", extra.TotalExtraPayments())
	}
}

func TestSimulateExtraPaymentClamped(t *testing.T) {
	// The balance after the regular principal in month 12 is below 5% of the
	// principal, so the extra payment only clears what remains.
	schedule, err := Simulate(LoanRequest{
		Principal:               10000,
		AnnualRatePercent:       2.0,
		MonthlyPayment:          820,
		ApplyAnnualExtraPayment: true,
	})
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}

	if schedule.TermMonths() != 12 {
		t.Fatalf("TermMonths() = %d, expected 12", schedule.TermMonths())
	}
	last := schedule.Payments[11]
	if last.ExtraPayment <= 0 || last.ExtraPayment >= schedule.AnnualExtraPaymentAmount {
		t.Errorf("month 12 extra payment = %.4f, expected a clamped amount below %.2f",
			last.ExtraPayment, schedule.AnnualExtraPaymentAmount)
	}
	if last.RemainingBalance != 0 {
		t.Errorf("final balance = %v, expected 0", last.RemainingBalance)
	}
}

func TestSimulateExtraPaymentsNeverLengthenTerm(t *testing.T) {
	payments := []float64{300, 500, 750, 1000, 2000, 5000}
	rates := []float64{0, 1.5, 3.0, 7.25}

	for _, rate := range rates {
		for _, payment := range payments {
			base := LoanRequest{Principal: 60000, AnnualRatePercent: rate, MonthlyPayment: payment}
			withExtra := base
			withExtra.ApplyAnnualExtraPayment = true

			plain, err := Simulate(base)
			if errors.Is(err, ErrInsufficientPayment) {
				continue
			}
			if err != nil {
				t.Fatalf("Simulate(%+v) error = %v", base, err)
			}
			extra, err := Simulate(withExtra)
			if err != nil {
				t.Fatalf("Simulate(%+v) error = %v", withExtra, err)
			}
			if extra.TermMonths() > plain.TermMonths() {
				t.Errorf("rate %.2f payment %.0f: extra term %d exceeds %d", rate, payment, extra.TermMonths(), plain.TermMonths())
			}
			for _, p := range extra.Payments {
				if p.RemainingBalance < 0 {
					t.Errorf("rate %.2f payment %.0f: month %d negative balance", rate, payment, p.Month)
				}
			}
		}
	}
}

func TestSimulateFixedPeriod(t *testing.T) {
	req := LoanRequest{
		Principal:         100000,
		AnnualRatePercent: 3.0,
		MonthlyPayment:    1000,
		FixedPeriodYears:  intPtr(5),
	}

	schedule, err := Simulate(req)
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}

	if schedule.FixedPeriodRemainingBalance == nil {
		t.Fatal("expected FixedPeriodRemainingBalance to be present")
	}
	if *schedule.FixedPeriodRemainingBalance != schedule.Payments[59].RemainingBalance {
		t.Errorf("FixedPeriodRemainingBalance = %.4f, expected month 60 balance %.4f",
			*schedule.FixedPeriodRemainingBalance, schedule.Payments[59].RemainingBalance)
	}
	if math.Abs(*schedule.FixedPeriodRemainingBalance-51514.9655) > 0.001 {
		t.Errorf("FixedPeriodRemainingBalance = %.4f, expected 51514.9655", *schedule.FixedPeriodRemainingBalance)
	}

	interest := 0.0
	for _, p := range schedule.Payments[:60] {
		interest += p.InterestPayment
	}
	if math.Abs(schedule.FixedPeriodInterest-interest) > 1e-9 {
		t.Errorf("FixedPeriodInterest = %.4f, expected %.4f", schedule.FixedPeriodInterest, interest)
	}
	if schedule.FixedPeriodInterest >= schedule.TotalInterest {
		t.Errorf("FixedPeriodInterest %.2f should be below TotalInterest %.2f", schedule.FixedPeriodInterest, schedule.TotalInterest)
	}
}

func TestSimulateFixedPeriodBeyondTerm(t *testing.T) {
	schedule, err := Simulate(LoanRequest{
		Principal:         100000,
		AnnualRatePercent: 3.0,
		MonthlyPayment:    1000,
		FixedPeriodYears:  intPtr(15),
	})
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}

	if schedule.FixedPeriodRemainingBalance != nil {
		t.Errorf("FixedPeriodRemainingBalance = %.2f, expected absent", *schedule.FixedPeriodRemainingBalance)
	}
	if math.Abs(schedule.FixedPeriodInterest-schedule.TotalInterest) > 1e-9 {
		t.Errorf("FixedPeriodInterest = %.4f, expected all interest %.4f", schedule.FixedPeriodInterest, schedule.TotalInterest)
	}
}

func TestSimulateFixedPeriodEndingAtPayoff(t *testing.T) {
	// Zero rate, 1000 per month: paid off in exactly 24 months.
	schedule, err := Simulate(LoanRequest{
		Principal:         24000,
		AnnualRatePercent: 0,
		MonthlyPayment:    1000,
		FixedPeriodYears:  intPtr(2),
	})
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}

	if schedule.TermMonths() != 24 {
		t.Fatalf("TermMonths() = %d, expected 24", schedule.TermMonths())
	}
	if schedule.FixedPeriodRemainingBalance == nil || *schedule.FixedPeriodRemainingBalance != 0 {
		t.Errorf("FixedPeriodRemainingBalance = %v, expected 0", schedule.FixedPeriodRemainingBalance)
	}
}

func TestSimulateZeroFixedPeriod(t *testing.T) {
	schedule, err := Simulate(LoanRequest{
		Principal:         100000,
		AnnualRatePercent: 3.0,
		MonthlyPayment:    1000,
		FixedPeriodYears:  intPtr(0),
	})
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}
	if schedule.FixedPeriodRemainingBalance != nil {
		t.Errorf("FixedPeriodRemainingBalance should be absent for a zero-length period")
	}
	if schedule.FixedPeriodInterest != 0 {
		t.Errorf("FixedPeriodInterest = %.2f, expected 0", schedule.FixedPeriodInterest)
	}
}

func TestGeneratorMatchesSimulate(t *testing.T) {
	req := LoanRequest{
		Principal:               320000,
		AnnualRatePercent:       3.75,
		MonthlyPayment:          1800,
		FixedPeriodYears:        intPtr(10),
		ApplyAnnualExtraPayment: true,
	}

	logged, err := NewGenerator(zaptest.NewLogger(t)).Generate(req)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	plain, err := Simulate(req)
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}

	if len(logged.Payments) != len(plain.Payments) {
		t.Fatalf("schedule lengths differ: %d vs %d", len(logged.Payments), len(plain.Payments))
	}
	for i := range plain.Payments {
		if logged.Payments[i] != plain.Payments[i] {
			t.Fatalf("month %d differs: %+v vs %+v", i+1, logged.Payments[i], plain.Payments[i])
		}
	}
}

func TestGeneratorConcurrentUse(t *testing.T) {
	generator := NewGenerator(zap.NewNop())
	expected, err := generator.Generate(LoanRequest{Principal: 100000, AnnualRatePercent: 3.0, MonthlyPayment: 1000})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			schedule, err := generator.Generate(LoanRequest{Principal: 100000, AnnualRatePercent: 3.0, MonthlyPayment: 1000})
			if err != nil {
				errs <- err
				return
			}
			if schedule.TermMonths() != expected.TermMonths() || schedule.TotalInterest != expected.TotalInterest {
				errs <- errors.New("concurrent result differs from sequential result")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestInsufficientPaymentErrorMessage(t *testing.T) {
	err := &InsufficientPaymentError{Principal: 100000, AnnualRatePercent: 3, MonthlyPayment: 250, MinimumPayment: 250}
	want := "monthly payment too low - loan would never be paid off: payment 250.00 must exceed monthly interest 250.00 (principal 100000.00 at 3.00%)"
	if err.Error() != want {
		t.Errorf("Error() = %q, expected %q", err.Error(), want)
	}
}

func TestTermTooLongErrorMessage(t *testing.T) {
	err := &TermTooLongError{TermMonths: 120000, MaxMonths: 100000}
	want := "loan term exceeds the supported maximum: payoff needs 120000 months, limit is 100000"
	if err.Error() != want {
		t.Errorf("Error() = %q, expected %q", err.Error(), want)
	}
}
