package finance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financeiro/internal/core"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

func TestDeriveLoanValues_Scenario(t *testing.T) {
	l := core.Loan{
		TotalValue:        dec("1200"),
		TotalInstallments: 12,
		PaidInstallments:  dec("3"),
		InterestRate:      dec("2"),
	}

	v := DeriveLoanValues(l)

	assertDec(t, "100", v.PrincipalPerInstallment)
	assertDec(t, "900", v.Balance)
	assertDec(t, "18", v.MonthlyInterest)
	assertDec(t, "118", v.SuggestedInstallment)
	assertDec(t, "118", v.InstallmentValue)
	assert.Equal(t, core.OriginStore, v.Origin)
}

func TestDeriveLoanValues_StoredInstallmentWins(t *testing.T) {
	l := core.Loan{
		TotalValue:        dec("1200"),
		TotalInstallments: 12,
		InterestRate:      dec("2"),
		InstallmentValue:  dec("150"),
	}
	v := DeriveLoanValues(l)
	assertDec(t, "150", v.InstallmentValue)
	assertDec(t, "124", v.SuggestedInstallment)
}

func TestDeriveLoanValues_Clamp(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		paid      string
		wantTotal int
		wantPaid  string
	}{
		{"paid above total", 10, "15", 10, "10"},
		{"negative paid", 10, "-2", 10, "0"},
		{"zero total", 0, "3", 1, "1"},
		{"negative total", -4, "0", 1, "0"},
		{"fractional paid kept", 10, "2.5", 10, "2.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := DeriveLoanValues(core.Loan{
				TotalValue:        dec("1000"),
				TotalInstallments: tt.total,
				PaidInstallments:  dec(tt.paid),
			})
			assert.Equal(t, tt.wantTotal, v.TotalInstallments)
			assertDec(t, tt.wantPaid, v.PaidInstallments)
		})
	}
}

func TestLoanBalanceMonotonic(t *testing.T) {
	for _, total := range []int{1, 3, 7, 12, 36} {
		prev := dec("1000")
		for paid := 0; paid <= total; paid++ {
			m := ComputeLoanMetrics(core.Loan{
				TotalValue:        dec("1000"),
				TotalInstallments: total,
				PaidInstallments:  decimal.NewFromInt(int64(paid)),
				InterestRate:      dec("1.5"),
			})
			require.True(t, m.Balance.LessThanOrEqual(prev), "balance grew at %d/%d", paid, total)
			prev = m.Balance
		}
		assert.True(t, prev.IsZero(), "balance not zero when fully paid (%d installments): %s", total, prev)
	}
}

func TestComputeLoanMetrics_NormalizesOrigin(t *testing.T) {
	m := ComputeLoanMetrics(core.Loan{TotalValue: dec("100"), TotalInstallments: 1, Origin: "Compartilhado"})
	assert.Equal(t, core.OriginShared, m.Origin)
}

func TestSanitizeLoan(t *testing.T) {
	l := SanitizeLoan(core.Loan{
		TotalValue:        dec("600"),
		TotalInstallments: 0,
		PaidInstallments:  dec("4"),
		InterestRate:      dec("10"),
		Origin:            "transporte",
	})
	assert.Equal(t, 1, l.TotalInstallments)
	assertDec(t, "1", l.PaidInstallments)
	assert.Equal(t, core.OriginTransport, l.Origin)
	// fully paid: installment is the principal share with no interest
	assertDec(t, "600", l.InstallmentValue)
}

func TestLoanPortfolio(t *testing.T) {
	p := LoanPortfolio([]core.Loan{
		{TotalValue: dec("1200"), TotalInstallments: 12, PaidInstallments: dec("3"), InterestRate: dec("2"), Origin: core.OriginStore},
		{TotalValue: dec("1000"), TotalInstallments: 10, InterestRate: dec("1"), Origin: core.OriginShared},
	})

	require.Len(t, p.Loans, 2)
	assertDec(t, "1900", p.TotalBalance)
	assertDec(t, "28", p.TotalMonthlyInterest)
	assertDec(t, "228", p.TotalInstallments)
	assertDec(t, "1400", p.ByUnit.Store)
	assertDec(t, "500", p.ByUnit.Transport)
}
