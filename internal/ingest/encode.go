package ingest

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"financeiro/internal/core"
)

// Encode writes a snapshot back as a ledger document with the same keys
// Parse reads. Amounts are plain JSON numbers and empty dates are null.
func Encode(s core.Snapshot) ([]byte, error) {
	return json.MarshalIndent(ToMap(s), "", "  ")
}

// ToMap is the inverse of FromMap.
func ToMap(s core.Snapshot) map[string]any {
	doc := map[string]any{
		KeyRevenues:            each(s.Revenues, revenueTo),
		KeyDirectCosts:         each(s.DirectCosts, directCostTo),
		KeyOperationalExpenses: each(s.OperationalExpenses, opExpenseTo),
		KeyAccountsPayable:     each(s.AccountsPayable, payableTo),
		KeyAccountsReceivable:  each(s.AccountsReceivable, receivableTo),
		KeyLoans:               each(s.Loans, loanTo),
		KeyCheques:             each(s.Cheques, chequeTo),
		KeySettings: map[string]any{
			"costAllocation": map[string]any{
				"store":     num(s.Settings.CostAllocation.Store),
				"transport": num(s.Settings.CostAllocation.Transport),
			},
		},
	}
	return doc
}

func each[T any](items []T, to func(T) map[string]any) []any {
	out := make([]any, 0, len(items))
	for _, it := range items {
		out = append(out, to(it))
	}
	return out
}

func num(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func date(d core.Date) any {
	if d.IsEmpty() {
		return nil
	}
	return d.String()
}

func revenueTo(r core.Revenue) map[string]any {
	return map[string]any{
		"id":          r.ID,
		"date":        date(r.Date),
		"description": r.Description,
		"value":       num(r.Value),
		"origin":      string(r.Origin),
		"category":    string(r.Category),
	}
}

func directCostTo(c core.DirectCost) map[string]any {
	return map[string]any{
		"id":          c.ID,
		"date":        date(c.Date),
		"description": c.Description,
		"value":       num(c.Value),
		"origin":      string(c.Origin),
		"category":    c.Category,
	}
}

func opExpenseTo(e core.OperationalExpense) map[string]any {
	return map[string]any{
		"id":          e.ID,
		"date":        date(e.Date),
		"description": e.Description,
		"value":       num(e.Value),
		"origin":      string(e.Origin),
	}
}

func payableTo(a core.AccountPayable) map[string]any {
	return map[string]any{
		"id":          a.ID,
		"date":        date(a.Date),
		"dueDate":     date(a.DueDate),
		"description": a.Description,
		"value":       num(a.Value),
		"origin":      string(a.Origin),
		"paid":        a.Paid,
		"notes":       a.Notes,
	}
}

func receivableTo(a core.AccountReceivable) map[string]any {
	return map[string]any{
		"id":          a.ID,
		"date":        date(a.Date),
		"dueDate":     date(a.DueDate),
		"description": a.Description,
		"value":       num(a.Value),
		"origin":      string(a.Origin),
		"received":    a.Received,
		"notes":       a.Notes,
	}
}

func loanTo(l core.Loan) map[string]any {
	return map[string]any{
		"id":                l.ID,
		"bank":              l.Bank,
		"loanType":          l.LoanType,
		"totalValue":        num(l.TotalValue),
		"totalInstallments": l.TotalInstallments,
		"paidInstallments":  num(l.PaidInstallments),
		"installmentValue":  num(l.InstallmentValue),
		"interestRate":      num(l.InterestRate),
		"origin":            string(l.Origin),
		"nextDue":           date(l.NextDue),
	}
}

func chequeTo(c core.Cheque) map[string]any {
	return map[string]any{
		"id":           c.ID,
		"payee":        c.Payee,
		"serialNumber": c.SerialNumber,
		"issueDate":    date(c.IssueDate),
		"clearingDate": date(c.ClearingDate),
		"value":        num(c.Value),
		"status":       string(c.Status),
		"bank":         string(c.Bank),
		"origin":       string(c.Origin),
		"notes":        c.Notes,
	}
}
