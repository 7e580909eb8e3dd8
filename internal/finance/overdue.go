package finance

import (
	"time"

	"github.com/shopspring/decimal"

	"financeiro/internal/core"
)

// OverdueReport lists open accounts whose due date has passed.
type OverdueReport struct {
	Payables         []core.AccountPayable    `json:"payables"`
	Receivables      []core.AccountReceivable `json:"receivables"`
	PayablesTotal    decimal.Decimal          `json:"payablesTotal"`
	ReceivablesTotal decimal.Decimal          `json:"receivablesTotal"`
}

func isOverdue(due core.Date, now time.Time) bool {
	return !due.IsEmpty() && due.Before(now)
}

// Overdue collects unpaid payables and unreceived receivables due strictly
// before now. Accounts without a due date are never overdue.
func Overdue(s core.Snapshot, now time.Time) OverdueReport {
	r := OverdueReport{
		Payables:    []core.AccountPayable{},
		Receivables: []core.AccountReceivable{},
	}
	for _, a := range s.AccountsPayable {
		if !a.Paid && isOverdue(a.DueDate, now) {
			r.Payables = append(r.Payables, a)
			r.PayablesTotal = r.PayablesTotal.Add(a.Value)
		}
	}
	for _, a := range s.AccountsReceivable {
		if !a.Received && isOverdue(a.DueDate, now) {
			r.Receivables = append(r.Receivables, a)
			r.ReceivablesTotal = r.ReceivablesTotal.Add(a.Value)
		}
	}
	return r
}
