package finance

import (
	"github.com/shopspring/decimal"

	"financeiro/internal/core"
)

type LoanView struct {
	core.Loan
	Derived LoanValues `json:"derived"`
}

// Portfolio is every loan with its derived values and the totals across
// loans.
type Portfolio struct {
	Loans                []LoanView      `json:"loans"`
	TotalBalance         decimal.Decimal `json:"totalBalance"`
	TotalMonthlyInterest decimal.Decimal `json:"totalMonthlyInterest"`
	TotalInstallments    decimal.Decimal `json:"totalInstallments"`
	ByUnit               Split           `json:"byUnit"` // outstanding balance, shared loans halved
}

func LoanPortfolio(loans []core.Loan) Portfolio {
	p := Portfolio{Loans: make([]LoanView, 0, len(loans))}
	for _, l := range loans {
		v := DeriveLoanValues(l)
		p.Loans = append(p.Loans, LoanView{Loan: l, Derived: v})
		p.TotalBalance = p.TotalBalance.Add(v.Balance)
		p.TotalMonthlyInterest = p.TotalMonthlyInterest.Add(v.MonthlyInterest)
		p.TotalInstallments = p.TotalInstallments.Add(v.InstallmentValue)
		p.ByUnit = p.ByUnit.Add(splitEvenly(v.Balance, v.Origin))
	}
	return p
}
