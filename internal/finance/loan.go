package finance

import (
	"github.com/shopspring/decimal"

	"financeiro/internal/core"
)

var hundred = decimal.NewFromInt(100)

// LoanValues is a loan with its sanitized inputs and derived figures.
type LoanValues struct {
	TotalValue              decimal.Decimal `json:"totalValue"`
	TotalInstallments       int             `json:"totalInstallments"`
	PaidInstallments        decimal.Decimal `json:"paidInstallments"`
	InterestRate            decimal.Decimal `json:"interestRate"`
	Origin                  core.Origin     `json:"origin"`
	Balance                 decimal.Decimal `json:"balance"`
	InstallmentValue        decimal.Decimal `json:"installmentValue"`
	SuggestedInstallment    decimal.Decimal `json:"suggestedInstallment"`
	MonthlyInterest         decimal.Decimal `json:"monthlyInterest"`
	PrincipalPerInstallment decimal.Decimal `json:"principalPerInstallment"`
}

// LoanMetrics is the subset of LoanValues the statements aggregate.
type LoanMetrics struct {
	Balance         decimal.Decimal `json:"balance"`
	MonthlyInterest decimal.Decimal `json:"monthlyInterest"`
	Origin          core.Origin     `json:"origin"`
	InterestRate    decimal.Decimal `json:"interestRate"`
}

// DeriveLoanValues computes balance, interest and installment for a loan
// using straight-line amortization and simple interest on the remaining
// balance.
//
// The installment count is floored to 1 and paid installments are clamped
// into [0, total]. A positive stored installment value wins over the
// suggested one.
func DeriveLoanValues(l core.Loan) LoanValues {
	total := l.TotalInstallments
	if total < 1 {
		total = 1
	}
	n := decimal.NewFromInt(int64(total))

	paid := l.PaidInstallments
	if paid.IsNegative() {
		paid = decimal.Zero
	}
	if paid.GreaterThan(n) {
		paid = n
	}

	perInstallment := l.TotalValue.Div(n)
	// multiply first so a fully paid loan lands on exactly zero
	principalPaid := l.TotalValue.Mul(paid).Div(n)
	balance := decimal.Max(l.TotalValue.Sub(principalPaid), decimal.Zero)

	interest := balance.Mul(l.InterestRate).Div(hundred)
	suggested := perInstallment.Add(interest)

	installment := suggested
	if l.InstallmentValue.IsPositive() {
		installment = l.InstallmentValue
	}

	return LoanValues{
		TotalValue:              l.TotalValue,
		TotalInstallments:       total,
		PaidInstallments:        paid,
		InterestRate:            l.InterestRate,
		Origin:                  core.NormalizeOrigin(string(l.Origin)),
		Balance:                 balance,
		InstallmentValue:        installment,
		SuggestedInstallment:    suggested,
		MonthlyInterest:         interest,
		PrincipalPerInstallment: perInstallment,
	}
}

// ComputeLoanMetrics recomputes the aggregation figures of a loan. It is
// cheap and deterministic, so callers call it on every pass.
func ComputeLoanMetrics(l core.Loan) LoanMetrics {
	v := DeriveLoanValues(l)
	return LoanMetrics{
		Balance:         v.Balance,
		MonthlyInterest: v.MonthlyInterest,
		Origin:          v.Origin,
		InterestRate:    v.InterestRate,
	}
}

// SanitizeLoan writes the clamped inputs and the effective installment
// value back onto the loan, the form in which loans are stored.
func SanitizeLoan(l core.Loan) core.Loan {
	v := DeriveLoanValues(l)
	l.TotalInstallments = v.TotalInstallments
	l.PaidInstallments = v.PaidInstallments
	l.Origin = v.Origin
	l.InstallmentValue = v.InstallmentValue
	return l
}
