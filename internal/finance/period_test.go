package finance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financeiro/internal/core"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		name    string
		start   string
		end     string
		bounded bool
		wantErr bool
	}{
		{"both empty", "", "", false, false},
		{"only start", "2025-01-01", "", false, false},
		{"only end", "", "2025-01-31", false, false},
		{"both dates", "2025-01-01", "2025-01-31", true, false},
		{"iso timestamps", "2025-01-01T00:00:00Z", "2025-01-31T23:59:59.999Z", true, false},
		{"bad start", "01/01/2025", "2025-01-31", false, true},
		{"bad end", "2025-01-01", "tomorrow", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParsePeriod(tt.start, tt.end)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidPeriod))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.bounded, p.Bounded())
		})
	}
}

func TestFilterByPeriod(t *testing.T) {
	items := []core.Revenue{
		{ID: "before", Date: core.NewDate(2024, 12, 31)},
		{ID: "start", Date: core.NewDate(2025, 1, 1)},
		{ID: "middle", Date: core.NewDate(2025, 1, 15)},
		{ID: "end", Date: core.NewDate(2025, 1, 31)},
		{ID: "after", Date: core.NewDate(2025, 2, 1)},
		{ID: "undated"},
	}
	date := func(r core.Revenue) core.Date { return r.Date }

	p, err := ParsePeriod("2025-01-01", "2025-01-31")
	require.NoError(t, err)

	var ids []string
	for _, r := range FilterByPeriod(items, p, date) {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"start", "middle", "end"}, ids)

	// one missing bound disables filtering, undated records included
	half, err := ParsePeriod("2025-01-01", "")
	require.NoError(t, err)
	assert.Len(t, FilterByPeriod(items, half, date), len(items))
	assert.Len(t, FilterByPeriod(items, AllTime, date), len(items))
}

func TestMonthPeriod(t *testing.T) {
	p := MonthPeriod(2024, time.February)
	assert.True(t, p.Contains(core.NewDate(2024, 2, 1)))
	assert.True(t, p.Contains(core.Date{Time: time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC)}))
	assert.False(t, p.Contains(core.NewDate(2024, 3, 1)))
	assert.False(t, p.Contains(core.Date{}))
	assert.NotEqual(t, AllTime.Key(), p.Key())
}

func TestMonths(t *testing.T) {
	s := core.Snapshot{
		Revenues:        []core.Revenue{{Date: core.NewDate(2025, 1, 5)}, {}},
		DirectCosts:     []core.DirectCost{{Date: core.NewDate(2024, 11, 2)}},
		Cheques:         []core.Cheque{{ClearingDate: core.NewDate(2025, 3, 1)}},
		AccountsPayable: []core.AccountPayable{{DueDate: core.NewDate(2025, 1, 30)}},
		AccountsReceivable: []core.AccountReceivable{
			{Date: core.NewDate(2024, 12, 1), DueDate: core.NewDate(2025, 6, 1)},
		},
		// loans have no date and never contribute a month
		Loans: []core.Loan{{NextDue: core.NewDate(2026, 1, 1)}},
	}
	assert.Equal(t, []string{"2025-03", "2025-01", "2024-12", "2024-11"}, Months(s))
}

func TestMonthlyResume(t *testing.T) {
	s := core.Snapshot{
		Revenues: []core.Revenue{
			{Value: dec("100"), Origin: core.OriginStore, Date: core.NewDate(2025, 1, 5)},
			{Value: dec("250"), Origin: core.OriginTransport, Date: core.NewDate(2025, 2, 28)},
		},
		AccountsReceivable: []core.AccountReceivable{
			{Value: dec("40"), Origin: core.OriginStore, Received: true, Date: core.NewDate(2025, 2, 1)},
		},
		Settings: allocation(50, 50),
	}

	months, err := MonthlyResume(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, months, 2)

	assert.Equal(t, "2025-02", months[0].Month)
	assertDec(t, "250", months[0].DRE.TotalRevenue)
	assertDec(t, "290", months[0].CashFlow.CashInflows)

	assert.Equal(t, "2025-01", months[1].Month)
	assertDec(t, "100", months[1].DRE.TotalRevenue)
	assertDec(t, "100", months[1].CashFlow.CashInflows)
}

func TestMonthlyResume_Canceled(t *testing.T) {
	s := core.Snapshot{Revenues: []core.Revenue{{Date: core.NewDate(2025, 1, 1)}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := MonthlyResume(ctx, s)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOverdue(t *testing.T) {
	now := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)
	s := core.Snapshot{
		AccountsPayable: []core.AccountPayable{
			{ID: "late", Value: dec("100"), DueDate: core.NewDate(2025, 5, 1)},
			{ID: "paid", Value: dec("100"), DueDate: core.NewDate(2025, 5, 1), Paid: true},
			{ID: "future", Value: dec("100"), DueDate: core.NewDate(2025, 6, 1)},
			{ID: "nodue", Value: dec("100")},
			{ID: "today", Value: dec("30"), DueDate: core.NewDate(2025, 5, 10)},
		},
		AccountsReceivable: []core.AccountReceivable{
			{ID: "owed", Value: dec("75"), DueDate: core.NewDate(2025, 4, 1)},
			{ID: "got", Value: dec("75"), DueDate: core.NewDate(2025, 4, 1), Received: true},
		},
	}

	r := Overdue(s, now)
	require.Len(t, r.Payables, 2)
	assert.Equal(t, "late", r.Payables[0].ID)
	assert.Equal(t, "today", r.Payables[1].ID)
	assertDec(t, "130", r.PayablesTotal)
	require.Len(t, r.Receivables, 1)
	assertDec(t, "75", r.ReceivablesTotal)
}

func TestDashboard(t *testing.T) {
	now := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)
	s := core.Snapshot{
		Revenues: []core.Revenue{{Value: dec("1000"), Origin: core.OriginStore}},
		AccountsPayable: []core.AccountPayable{
			{Value: dec("200"), DueDate: core.NewDate(2025, 1, 1)},
			{Value: dec("50"), Paid: true},
		},
		Loans:    []core.Loan{{TotalValue: dec("1200"), TotalInstallments: 12, PaidInstallments: dec("3"), InterestRate: dec("2")}},
		Cheques:  []core.Cheque{{Value: dec("10"), Status: core.ChequePending, Origin: core.OriginStore}},
		Settings: allocation(50, 50),
	}

	d := Dashboard(s, now)
	assertDec(t, "1000", d.TotalRevenue)
	assertDec(t, "972", d.NetProfit) // 1000 - 10 cheque - 18 interest
	assert.Equal(t, 1, d.UnpaidPayablesCount)
	assertDec(t, "200", d.UnpaidPayablesTotal)
	assert.Equal(t, 1, d.OverduePayables)
	assertDec(t, "900", d.LoanBalance)
	assert.Equal(t, 1, d.PendingCheques)
}
