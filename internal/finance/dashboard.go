package finance

import (
	"time"

	"github.com/shopspring/decimal"

	"financeiro/internal/core"
)

// DashboardSummary holds the headline figures over all recorded data.
type DashboardSummary struct {
	TotalRevenue        decimal.Decimal `json:"totalRevenue"`
	NetProfit           decimal.Decimal `json:"netProfit"`
	GrossMargin         decimal.Decimal `json:"grossMargin"`
	OperatingMargin     decimal.Decimal `json:"operatingMargin"`
	NetMargin           decimal.Decimal `json:"netMargin"`
	NetCashFlow         decimal.Decimal `json:"netCashFlow"`
	PendingReceivables  decimal.Decimal `json:"pendingReceivables"`
	UnpaidPayablesCount int             `json:"unpaidPayablesCount"`
	UnpaidPayablesTotal decimal.Decimal `json:"unpaidPayablesTotal"`
	OverduePayables     int             `json:"overduePayables"`
	LoanBalance         decimal.Decimal `json:"loanBalance"`
	PendingCheques      int             `json:"pendingCheques"`
}

func Dashboard(s core.Snapshot, now time.Time) DashboardSummary {
	dre := CalculateDRE(s, AllTime)
	cf := CalculateCashFlow(s, AllTime)

	d := DashboardSummary{
		TotalRevenue:       dre.TotalRevenue,
		NetProfit:          dre.TotalNetProfit,
		GrossMargin:        dre.GrossMargin,
		OperatingMargin:    dre.OperatingMargin,
		NetMargin:          dre.NetMargin,
		NetCashFlow:        cf.NetCashFlow,
		PendingReceivables: cf.PendingReceivables,
		LoanBalance:        LoanPortfolio(s.Loans).TotalBalance,
		PendingCheques:     cf.PendingChequesCount,
		OverduePayables:    len(Overdue(s, now).Payables),
	}
	for _, a := range s.AccountsPayable {
		if !a.Paid {
			d.UnpaidPayablesCount++
			d.UnpaidPayablesTotal = d.UnpaidPayablesTotal.Add(a.Value)
		}
	}
	return d
}
