// Package export lays out reports as tables and writes them as XLSX
// workbooks. The same tables feed the Google Sheets export.
package export

import (
	"github.com/shopspring/decimal"

	"financeiro/internal/core"
	"financeiro/internal/finance"
)

// Table is a sheet-shaped report: a header row followed by value rows.
// Values are strings or float64 so spreadsheet tools treat amounts as
// numbers.
type Table struct {
	Title  string
	Header []string
	Rows   [][]any
}

const (
	SheetDRE      = "DRE"
	SheetCashFlow = "Fluxo de Caixa"
	SheetMonthly  = "Resumo Mensal"
)

var monthlyHeader = []string{
	"Mês",
	"Receita",
	"Custos Diretos",
	"Lucro Bruto",
	"Despesas Operacionais",
	"Juros",
	"Lucro Líquido",
	"Margem Líquida (%)",
	"Entradas",
	"Saídas",
	"Fluxo Líquido",
	"A Receber",
	"A Pagar",
}

func num(d decimal.Decimal) float64 {
	return core.Float(d.Round(2))
}

// MonthlyResumeTable has one row per month, newest first.
func MonthlyResumeTable(months []finance.MonthSummary) Table {
	t := Table{Title: SheetMonthly, Header: monthlyHeader}
	for _, m := range months {
		t.Rows = append(t.Rows, []any{
			m.Month,
			num(m.DRE.TotalRevenue),
			num(m.DRE.TotalDirectCosts),
			num(m.DRE.TotalGrossProfit),
			num(m.DRE.TotalOpExpenses),
			num(m.DRE.TotalInterest),
			num(m.DRE.TotalNetProfit),
			num(m.DRE.NetMargin),
			num(m.CashFlow.CashInflows),
			num(m.CashFlow.CashOutflows),
			num(m.CashFlow.NetCashFlow),
			num(m.CashFlow.PendingReceivables),
			num(m.CashFlow.PendingPayables),
		})
	}
	return t
}

// DRETable is the income statement with one column per unit.
func DRETable(d finance.DRESummary) Table {
	line := func(label string, store, transport, total decimal.Decimal) []any {
		return []any{label, num(store), num(transport), num(total)}
	}
	return Table{
		Title:  SheetDRE,
		Header: []string{"Linha", "Loja", "Transportadora", "Total"},
		Rows: [][]any{
			line("Receita", d.StoreRevenue, d.TransportRevenue, d.TotalRevenue),
			line("Custos Diretos", d.StoreDirectCosts, d.TransportDirectCosts, d.TotalDirectCosts),
			line("Lucro Bruto", d.StoreGrossProfit, d.TransportGrossProfit, d.TotalGrossProfit),
			line("Despesas Operacionais", d.StoreOpExpenses, d.TransportOpExpenses, d.TotalOpExpenses),
			line("Cheques", d.StoreChequeExpenses, d.TransportChequeExpenses, d.ChequeExpenses),
			line("Lucro Operacional", d.StoreOperatingProfit, d.TransportOperatingProfit, d.TotalOperatingProfit),
			line("Juros", d.StoreInterest, d.TransportInterest, d.TotalInterest),
			line("Lucro Líquido", d.StoreNetProfit, d.TransportNetProfit, d.TotalNetProfit),
			{"Margem Bruta (%)", "", "", num(d.GrossMargin)},
			{"Margem Operacional (%)", "", "", num(d.OperatingMargin)},
			{"Margem Líquida (%)", "", "", num(d.NetMargin)},
		},
	}
}

// CashFlowTable is the cash view with one column per scope.
func CashFlowTable(c finance.CashFlowSummary) Table {
	b := c.Breakdown
	line := func(label string, pick func(finance.CashFlowScope) decimal.Decimal) []any {
		return []any{label, num(pick(b.Store)), num(pick(b.Transport)), num(pick(b.All))}
	}
	return Table{
		Title:  SheetCashFlow,
		Header: []string{"Item", "Loja", "Transportadora", "Total"},
		Rows: [][]any{
			line("Receitas Recebidas", func(s finance.CashFlowScope) decimal.Decimal { return s.RevenueInflows }),
			line("Contas Recebidas", func(s finance.CashFlowScope) decimal.Decimal { return s.ReceivableInflows }),
			line("Entradas", func(s finance.CashFlowScope) decimal.Decimal { return s.CashInflows }),
			line("Contas Pagas", func(s finance.CashFlowScope) decimal.Decimal { return s.PayableOutflows }),
			line("Parcelas de Empréstimos", func(s finance.CashFlowScope) decimal.Decimal { return s.LoanPayments }),
			line("Cheques Compensados", func(s finance.CashFlowScope) decimal.Decimal { return s.ChequeOutflow }),
			line("Saídas", func(s finance.CashFlowScope) decimal.Decimal { return s.CashOutflows }),
			line("Fluxo Líquido", func(s finance.CashFlowScope) decimal.Decimal { return s.NetCashFlow }),
			line("A Receber", func(s finance.CashFlowScope) decimal.Decimal { return s.PendingReceivables }),
			line("A Pagar", func(s finance.CashFlowScope) decimal.Decimal { return s.PendingPayables }),
			line("Cheques Pendentes", func(s finance.CashFlowScope) decimal.Decimal { return s.PendingChequesValue }),
			{"Qtd. Cheques Pendentes", b.Store.PendingChequesCount, b.Transport.PendingChequesCount, b.All.PendingChequesCount},
		},
	}
}
