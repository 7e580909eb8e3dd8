package finance

import (
	"github.com/shopspring/decimal"

	"financeiro/internal/core"
)

// DRESummary is the accrual-basis income statement of a period, per unit
// and in total. Margins are percentages of total revenue.
type DRESummary struct {
	StoreRevenue     decimal.Decimal `json:"storeRevenue"`
	TransportRevenue decimal.Decimal `json:"transportRevenue"`
	TotalRevenue     decimal.Decimal `json:"totalRevenue"`

	StoreDirectCosts     decimal.Decimal `json:"storeDirectCosts"`
	TransportDirectCosts decimal.Decimal `json:"transportDirectCosts"`
	TotalDirectCosts     decimal.Decimal `json:"totalDirectCosts"`

	StoreGrossProfit     decimal.Decimal `json:"storeGrossProfit"`
	TransportGrossProfit decimal.Decimal `json:"transportGrossProfit"`
	TotalGrossProfit     decimal.Decimal `json:"totalGrossProfit"`
	GrossMargin          decimal.Decimal `json:"grossMargin"`

	// Operating expenses include each unit's cheques and its share of the
	// shared expenses and shared cheques.
	StoreOpExpenses               decimal.Decimal `json:"storeOpExpenses"`
	TransportOpExpenses           decimal.Decimal `json:"transportOpExpenses"`
	SharedExpenses                decimal.Decimal `json:"sharedExpenses"`
	TotalOpExpenses               decimal.Decimal `json:"totalOpExpenses"`
	TotalOpExpensesWithoutCheques decimal.Decimal `json:"totalOpExpensesWithoutCheques"`

	StoreOperatingProfit     decimal.Decimal `json:"storeOperatingProfit"`
	TransportOperatingProfit decimal.Decimal `json:"transportOperatingProfit"`
	TotalOperatingProfit     decimal.Decimal `json:"totalOperatingProfit"`
	OperatingMargin          decimal.Decimal `json:"operatingMargin"`

	TotalInterest     decimal.Decimal `json:"totalInterest"`
	StoreInterest     decimal.Decimal `json:"storeInterest"`
	TransportInterest decimal.Decimal `json:"transportInterest"`

	StoreNetProfit     decimal.Decimal `json:"storeNetProfit"`
	TransportNetProfit decimal.Decimal `json:"transportNetProfit"`
	TotalNetProfit     decimal.Decimal `json:"totalNetProfit"`
	NetMargin          decimal.Decimal `json:"netMargin"`

	ChequeExpenses          decimal.Decimal `json:"chequeExpenses"`
	StoreChequeExpenses     decimal.Decimal `json:"storeChequeExpenses"`
	TransportChequeExpenses decimal.Decimal `json:"transportChequeExpenses"`
	SharedChequeExpenses    decimal.Decimal `json:"sharedChequeExpenses"`

	// LoansUnfiltered is always true: loan interest is the current monthly
	// figure of every stored loan, whatever the period.
	LoansUnfiltered bool   `json:"loansUnfiltered"`
	Period          Period `json:"period"`
}

// byOrigin sums amounts into the three origins exactly as recorded.
type byOrigin struct {
	store, transport, shared decimal.Decimal
}

func (b *byOrigin) add(origin core.Origin, v decimal.Decimal) {
	switch origin {
	case core.OriginStore:
		b.store = b.store.Add(v)
	case core.OriginTransport:
		b.transport = b.transport.Add(v)
	case core.OriginShared:
		b.shared = b.shared.Add(v)
	}
}

func (b byOrigin) total() decimal.Decimal {
	return b.store.Add(b.transport).Add(b.shared)
}

// CalculateDRE builds the income statement for period p.
//
// Revenues, direct costs and operational expenses are matched by their
// recorded origin; shared revenues and direct costs are not counted.
// Cheques count by issue date (falling back to the clearing date) whatever
// their status. Loan interest is never period filtered, and shared loans
// are split evenly between the units.
func CalculateDRE(s core.Snapshot, p Period) DRESummary {
	alloc := s.Settings.CostAllocation

	var revenue, direct, opex, cheques byOrigin
	for _, r := range FilterByPeriod(s.Revenues, p, func(r core.Revenue) core.Date { return r.Date }) {
		revenue.add(r.Origin, r.Value)
	}
	for _, c := range FilterByPeriod(s.DirectCosts, p, func(c core.DirectCost) core.Date { return c.Date }) {
		direct.add(c.Origin, c.Value)
	}
	for _, e := range FilterByPeriod(s.OperationalExpenses, p, func(e core.OperationalExpense) core.Date { return e.Date }) {
		opex.add(e.Origin, e.Value)
	}
	for _, c := range FilterByPeriod(s.Cheques, p, core.Cheque.AccrualDate) {
		if c.Value.IsZero() {
			continue
		}
		// cheques with an unknown origin belong to the store
		cheques.add(core.NormalizeOrigin(string(c.Origin)), c.Value)
	}

	var d DRESummary
	d.Period = p
	d.LoansUnfiltered = true

	d.StoreRevenue = revenue.store
	d.TransportRevenue = revenue.transport
	d.TotalRevenue = revenue.store.Add(revenue.transport)

	d.StoreDirectCosts = direct.store
	d.TransportDirectCosts = direct.transport
	d.TotalDirectCosts = direct.store.Add(direct.transport)

	d.StoreGrossProfit = d.StoreRevenue.Sub(d.StoreDirectCosts)
	d.TransportGrossProfit = d.TransportRevenue.Sub(d.TransportDirectCosts)
	d.TotalGrossProfit = d.StoreGrossProfit.Add(d.TransportGrossProfit)
	d.GrossMargin = core.Ratio(d.TotalGrossProfit, d.TotalRevenue)

	shared := Allocate(opex.shared.Add(cheques.shared), alloc)
	sharedCheques := Allocate(cheques.shared, alloc)

	d.SharedExpenses = opex.shared
	d.ChequeExpenses = cheques.total()
	d.SharedChequeExpenses = cheques.shared
	d.StoreChequeExpenses = cheques.store.Add(sharedCheques.Store)
	d.TransportChequeExpenses = cheques.transport.Add(sharedCheques.Transport)

	d.StoreOpExpenses = opex.store.Add(shared.Store).Add(cheques.store)
	d.TransportOpExpenses = opex.transport.Add(shared.Transport).Add(cheques.transport)
	d.TotalOpExpenses = d.StoreOpExpenses.Add(d.TransportOpExpenses)
	d.TotalOpExpensesWithoutCheques = decimal.Max(d.TotalOpExpenses.Sub(d.ChequeExpenses), decimal.Zero)

	d.StoreOperatingProfit = d.StoreGrossProfit.Sub(d.StoreOpExpenses)
	d.TransportOperatingProfit = d.TransportGrossProfit.Sub(d.TransportOpExpenses)
	d.TotalOperatingProfit = d.StoreOperatingProfit.Add(d.TransportOperatingProfit)
	d.OperatingMargin = core.Ratio(d.TotalOperatingProfit, d.TotalRevenue)

	interest := Split{Store: decimal.Zero, Transport: decimal.Zero}
	total := decimal.Zero
	for _, l := range s.Loans {
		m := ComputeLoanMetrics(l)
		total = total.Add(m.MonthlyInterest)
		interest = interest.Add(splitEvenly(m.MonthlyInterest, m.Origin))
	}
	d.TotalInterest = total
	d.StoreInterest = interest.Store
	d.TransportInterest = interest.Transport

	d.TotalNetProfit = d.TotalOperatingProfit.Sub(d.TotalInterest)
	d.StoreNetProfit = d.StoreOperatingProfit.Sub(d.StoreInterest)
	d.TransportNetProfit = d.TransportOperatingProfit.Sub(d.TransportInterest)
	d.NetMargin = core.Ratio(d.TotalNetProfit, d.TotalRevenue)

	return d
}
