package export

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"financeiro/internal/core"
	"financeiro/internal/finance"
)

func sampleReport(t *testing.T) Report {
	t.Helper()
	s := core.NewSnapshot()
	s.Revenues = []core.Revenue{
		{Value: decimal.NewFromInt(1000), Origin: core.OriginStore, Date: core.NewDate(2025, 3, 5)},
		{Value: decimal.NewFromInt(400), Origin: core.OriginTransport, Date: core.NewDate(2025, 2, 10)},
	}
	s.DirectCosts = []core.DirectCost{
		{Value: decimal.NewFromInt(250), Origin: core.OriginStore, Date: core.NewDate(2025, 3, 6)},
	}

	months, err := finance.MonthlyResume(context.Background(), s)
	require.NoError(t, err)

	return Report{
		DRE:      finance.CalculateDRE(s, finance.AllTime),
		CashFlow: finance.CalculateCashFlow(s, finance.AllTime),
		Monthly:  months,
	}
}

func TestMonthlyResumeTable(t *testing.T) {
	r := sampleReport(t)
	table := MonthlyResumeTable(r.Monthly)

	require.Len(t, table.Rows, 2)
	assert.Equal(t, "2025-03", table.Rows[0][0])
	assert.Equal(t, 1000.0, table.Rows[0][1])
	assert.Equal(t, 750.0, table.Rows[0][3])
	assert.Equal(t, "2025-02", table.Rows[1][0])
	for _, row := range table.Rows {
		assert.Len(t, row, len(table.Header))
	}
}

func TestDRETable(t *testing.T) {
	table := DRETable(sampleReport(t).DRE)

	assert.Equal(t, []any{"Receita", 1000.0, 400.0, 1400.0}, table.Rows[0])
	assert.Equal(t, []any{"Lucro Bruto", 750.0, 400.0, 1150.0}, table.Rows[2])
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleReport(t)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetDRE, SheetCashFlow, SheetMonthly}, f.GetSheetList())

	header, err := f.GetCellValue(SheetMonthly, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Mês", header)

	month, err := f.GetCellValue(SheetMonthly, "A2")
	require.NoError(t, err)
	assert.Equal(t, "2025-03", month)

	rows, err := f.GetRows(SheetDRE)
	require.NoError(t, err)
	require.Len(t, rows, 12)
	assert.Equal(t, "Receita", rows[1][0])
}

func TestSaveAs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relatorio.xlsx")
	require.NoError(t, SaveAs(path, sampleReport(t)))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Len(t, f.GetSheetList(), 3)
}
