package finance

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"financeiro/internal/core"
)

// MonthSummary is the DRE and cash flow of one calendar month.
type MonthSummary struct {
	Month    string          `json:"month"` // YYYY-MM
	Period   Period          `json:"period"`
	DRE      DRESummary      `json:"dre"`
	CashFlow CashFlowSummary `json:"cashFlow"`
}

const monthKeyLayout = "2006-01"

// Months returns every month key with at least one dated record, newest
// first. Cheques use their issue date, falling back to the clearing date;
// payables and receivables use their date, falling back to the due date.
func Months(s core.Snapshot) []string {
	seen := make(map[string]struct{})
	capture := func(d core.Date) {
		if !d.IsEmpty() {
			seen[d.UTC().Format(monthKeyLayout)] = struct{}{}
		}
	}

	for _, r := range s.Revenues {
		capture(r.Date)
	}
	for _, c := range s.DirectCosts {
		capture(c.Date)
	}
	for _, e := range s.OperationalExpenses {
		capture(e.Date)
	}
	for _, c := range s.Cheques {
		capture(c.AccrualDate())
	}
	for _, a := range s.AccountsPayable {
		capture(a.Date.Or(a.DueDate))
	}
	for _, a := range s.AccountsReceivable {
		capture(a.Date.Or(a.DueDate))
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return keys
}

// MonthlyResume computes one MonthSummary per month returned by Months.
// Months are computed concurrently; the result keeps the newest-first
// order.
func MonthlyResume(ctx context.Context, s core.Snapshot) ([]MonthSummary, error) {
	keys := Months(s)
	out := make([]MonthSummary, len(keys))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, key := range keys {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			month, err := time.Parse(monthKeyLayout, key)
			if err != nil {
				return err
			}
			p := MonthPeriod(month.Year(), month.Month())
			out[i] = MonthSummary{
				Month:    key,
				Period:   p,
				DRE:      CalculateDRE(s, p),
				CashFlow: CalculateCashFlow(s, p),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
