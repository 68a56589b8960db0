// Package output provides utilities for formatting and displaying calculation results.
package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/iwvelando/loan-calculator/internal/calculation"
	"github.com/iwvelando/loan-calculator/pkg/format"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type summaryLine struct {
	label string
	value string
}

// PrettyOptions controls the human-readable report.
type PrettyOptions struct {
	// ShowSchedule adds the monthly amortization table.
	ShowSchedule bool
	// CurrencyCode prints "EUR 1,234.56" instead of "€1,234.56".
	CurrencyCode bool
}

// PrettyFormat writes a human-readable rather than machine-readable report.
func PrettyFormat(w io.Writer, result *calculation.Result, opts PrettyOptions) error {
	p := message.NewPrinter(language.English)
	s := result.Summary
	money := format.Currency
	if opts.CurrencyCode {
		money = format.DocumentCurrency
	}

	lines := []summaryLine{
		{"Property value", money(result.PropertyValue)},
		{"Own funds", money(result.OwnFunds)},
		{"Loan amount", money(s.LoanAmount)},
		{"Annual interest rate", p.Sprintf("%.3f%%", s.AnnualInterestRate)},
		{"Monthly payment", money(s.MonthlyPayment)},
		{"Original term", p.Sprintf("%.1f months (%.2f years)", s.OriginalTermMonths, s.OriginalTermYears())},
		{"Actual term", p.Sprintf("%d months (%.2f years)", s.ActualTermMonths, s.ActualTermYears())},
		{"Time saved", p.Sprintf("%.1f months (%.2f years)", s.MonthsSaved, s.YearsSaved())},
		{"Base payments", money(s.BasePaymentsTotal)},
		{"Extra payments", money(s.TotalExtraPayments)},
		{"Total payments", money(s.ActualTotalPayments)},
		{"Total interest", money(s.TotalInterest)},
	}
	if s.AnnualExtraPayment > 0 {
		lines = append(lines, summaryLine{"Annual extra payment", money(s.AnnualExtraPayment)})
	}
	if s.FixedPeriodYears != nil {
		remaining := "n/a (loan repaid earlier)"
		if s.FixedPeriodRemainingBalance != nil {
			remaining = money(*s.FixedPeriodRemainingBalance)
		}
		lines = append(lines,
			summaryLine{p.Sprintf("Interest over %d fixed years", *s.FixedPeriodYears), money(s.FixedPeriodInterest)},
			summaryLine{"Balance after fixed period", remaining},
		)
	}

	if _, err := fmt.Fprintf(w, "--- Loan summary ---\n"); err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := fmt.Fprintf(w, "%-30s %s\n", line.label+":", line.value); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "\n--- Yearly summary ---\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Year | Principal | Interest | Extra | Balance\n"+
		"____ | _________ | ________ | _____ | _______\n"); err != nil {
		return err
	}
	for _, year := range result.Yearly {
		if _, err := fmt.Fprintf(w, "%s | %s | %s | %s | %s\n", result.YearLabel(year.Year),
			money(year.Principal), money(year.Interest),
			money(year.Extra), money(year.Balance)); err != nil {
			return err
		}
	}

	if !opts.ShowSchedule {
		return nil
	}

	if _, err := fmt.Fprintf(w, "\n--- Amortization schedule ---\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Month | Principal | Interest | Extra | Balance\n"+
		"_____ | _________ | ________ | _____ | _______\n"); err != nil {
		return err
	}
	for _, payment := range result.Schedule.Payments {
		if _, err := fmt.Fprintf(w, "%s | %s | %s | %s | %s\n", result.MonthLabel(payment.Month),
			money(payment.PrincipalPayment), money(payment.InterestPayment),
			money(payment.ExtraPayment), money(payment.RemainingBalance)); err != nil {
			return err
		}
	}
	return nil
}

// CsvHeader is the first row written by CsvFormat.
var CsvHeader = []string{"month", "date", "principal", "interest", "extra", "payment", "balance"}

// CsvFormat writes the monthly schedule in comma-separated value format.
// Amounts are rounded to cents; the date column is empty without a start date.
func CsvFormat(w io.Writer, result *calculation.Result) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(CsvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, payment := range result.Schedule.Payments {
		date := ""
		if result.StartDate != "" {
			date = result.MonthLabel(payment.Month)
		}
		record := []string{
			strconv.Itoa(payment.Month),
			date,
			format.Fixed(payment.PrincipalPayment),
			format.Fixed(payment.InterestPayment),
			format.Fixed(payment.ExtraPayment),
			format.Fixed(payment.PrincipalPayment + payment.InterestPayment),
			format.Fixed(payment.RemainingBalance),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row for month %d: %w", payment.Month, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// CsvString returns the CSV rendering of result.
func CsvString(result *calculation.Result) (string, error) {
	var buf bytes.Buffer
	if err := CsvFormat(&buf, result); err != nil {
		return "", err
	}
	return buf.String(), nil
}
