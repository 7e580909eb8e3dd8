package finance

import (
	"github.com/shopspring/decimal"

	"financeiro/internal/core"
)

// CashFlowScope holds the cash-basis figures of one scope (all, store or
// transport).
type CashFlowScope struct {
	CashInflows  decimal.Decimal `json:"cashInflows"`
	CashOutflows decimal.Decimal `json:"cashOutflows"`
	NetCashFlow  decimal.Decimal `json:"netCashFlow"`

	RevenueInflows    decimal.Decimal `json:"revenueInflows"`
	ReceivableInflows decimal.Decimal `json:"receivableInflows"`
	PayableOutflows   decimal.Decimal `json:"payableOutflows"`
	LoanPayments      decimal.Decimal `json:"loanPayments"`
	ChequeOutflow     decimal.Decimal `json:"chequeOutflow"`

	PendingPayables     decimal.Decimal `json:"pendingPayables"`
	PendingReceivables  decimal.Decimal `json:"pendingReceivables"`
	PendingChequesValue decimal.Decimal `json:"pendingChequesValue"`
	// PendingChequesCount is not additive across scopes: a shared pending
	// cheque counts once in each unit but only once in "all", so store
	// plus transport can exceed the "all" count.
	PendingChequesCount int             `json:"pendingChequesCount"`
}

type CashFlowBreakdown struct {
	All       CashFlowScope `json:"all"`
	Store     CashFlowScope `json:"store"`
	Transport CashFlowScope `json:"transport"`
}

// CashFlowSummary carries the "all" scope at the top level plus the full
// breakdown.
type CashFlowSummary struct {
	CashFlowScope
	Breakdown CashFlowBreakdown `json:"breakdown"`

	// LoansUnfiltered is always true: every loan contributes one full
	// installment to the outflows of any period.
	LoansUnfiltered bool   `json:"loansUnfiltered"`
	Period          Period `json:"period"`
}

func (c CashFlowScope) plus(o CashFlowScope) CashFlowScope {
	return CashFlowScope{
		CashInflows:         c.CashInflows.Add(o.CashInflows),
		CashOutflows:        c.CashOutflows.Add(o.CashOutflows),
		NetCashFlow:         c.NetCashFlow.Add(o.NetCashFlow),
		RevenueInflows:      c.RevenueInflows.Add(o.RevenueInflows),
		ReceivableInflows:   c.ReceivableInflows.Add(o.ReceivableInflows),
		PayableOutflows:     c.PayableOutflows.Add(o.PayableOutflows),
		LoanPayments:        c.LoanPayments.Add(o.LoanPayments),
		ChequeOutflow:       c.ChequeOutflow.Add(o.ChequeOutflow),
		PendingPayables:     c.PendingPayables.Add(o.PendingPayables),
		PendingReceivables:  c.PendingReceivables.Add(o.PendingReceivables),
		PendingChequesValue: c.PendingChequesValue.Add(o.PendingChequesValue),
	}
}

// CalculateCashFlow builds the cash-basis statement for period p.
//
// Inflows are revenues and received receivables; outflows are paid
// payables, one installment of every loan and cleared cheques (by clearing
// date, falling back to the issue date). Pending figures ignore the period.
// Each movement goes fully to its own unit, or is split by the cost
// allocation when shared. The "all" scope is store plus transport.
func CalculateCashFlow(s core.Snapshot, p Period) CashFlowSummary {
	alloc := s.Settings.CostAllocation
	var store, transport CashFlowScope

	put := func(field func(*CashFlowScope) *decimal.Decimal, amount decimal.Decimal, origin core.Origin) {
		sp := SplitByOrigin(amount, origin, alloc)
		*field(&store) = field(&store).Add(sp.Store)
		*field(&transport) = field(&transport).Add(sp.Transport)
	}
	revenueIn := func(c *CashFlowScope) *decimal.Decimal { return &c.RevenueInflows }
	receivableIn := func(c *CashFlowScope) *decimal.Decimal { return &c.ReceivableInflows }
	payableOut := func(c *CashFlowScope) *decimal.Decimal { return &c.PayableOutflows }
	loanOut := func(c *CashFlowScope) *decimal.Decimal { return &c.LoanPayments }
	chequeOut := func(c *CashFlowScope) *decimal.Decimal { return &c.ChequeOutflow }
	pendingPay := func(c *CashFlowScope) *decimal.Decimal { return &c.PendingPayables }
	pendingRecv := func(c *CashFlowScope) *decimal.Decimal { return &c.PendingReceivables }
	pendingCheque := func(c *CashFlowScope) *decimal.Decimal { return &c.PendingChequesValue }

	for _, r := range FilterByPeriod(s.Revenues, p, func(r core.Revenue) core.Date { return r.Date }) {
		put(revenueIn, r.Value, r.Origin)
	}
	for _, a := range s.AccountsReceivable {
		switch {
		case !a.Received:
			put(pendingRecv, a.Value, a.Origin)
		case p.Contains(a.Date):
			put(receivableIn, a.Value, a.Origin)
		}
	}
	for _, a := range s.AccountsPayable {
		switch {
		case !a.Paid:
			put(pendingPay, a.Value, a.Origin)
		case p.Contains(a.Date):
			put(payableOut, a.Value, a.Origin)
		}
	}
	for _, l := range s.Loans {
		v := DeriveLoanValues(l)
		put(loanOut, v.InstallmentValue, v.Origin)
	}

	pendingCount := 0
	for _, c := range s.Cheques {
		if c.Cleared() {
			if p.Contains(c.SettlementDate()) {
				put(chequeOut, c.Value, c.Origin)
			}
			continue
		}
		put(pendingCheque, c.Value, c.Origin)
		pendingCount++
		// a shared cheque is pending for both units
		if c.Origin != core.OriginTransport {
			store.PendingChequesCount++
		}
		if c.Origin != core.OriginStore {
			transport.PendingChequesCount++
		}
	}

	store.settle()
	transport.settle()

	all := store.plus(transport)
	all.PendingChequesCount = pendingCount

	return CashFlowSummary{
		CashFlowScope:   all,
		Breakdown:       CashFlowBreakdown{All: all, Store: store, Transport: transport},
		LoansUnfiltered: true,
		Period:          p,
	}
}

// settle fills in the totals from the individual movements.
func (c *CashFlowScope) settle() {
	c.CashInflows = c.RevenueInflows.Add(c.ReceivableInflows)
	c.CashOutflows = c.PayableOutflows.Add(c.LoanPayments).Add(c.ChequeOutflow)
	c.NetCashFlow = c.CashInflows.Sub(c.CashOutflows)
}
