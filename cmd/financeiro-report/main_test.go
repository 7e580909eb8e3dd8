package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const ledgerJSON = `{
	"revenues": [
		{"id": "r1", "date": "2025-03-05", "value": 1000, "origin": "store"},
		{"id": "r2", "date": "2025-02-10", "value": 400, "origin": "transport"}
	],
	"loans": [{"id": "l1", "bank": "Caixa", "totalValue": 1200, "totalInstallments": 12, "paidInstallments": 3, "origin": "store"}]
}`

func writeLedger(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.json")
	require.NoError(t, os.WriteFile(path, []byte(ledgerJSON), 0o644))
	return path
}

func TestRun_DRE(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), []string{"-file", writeLedger(t), "-report", "dre", "-start", "2025-03-01", "-end", "2025-03-31"}, &out)
	require.NoError(t, err)

	var dre map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &dre))
	assert.Equal(t, "1000", dre["totalRevenue"])
}

func TestRun_All(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-file", writeLedger(t)}, &out))

	var all map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out.Bytes(), &all))
	for _, k := range []string{"dre", "cashflow", "loans", "monthly", "overdue", "dashboard"} {
		assert.Contains(t, all, k)
	}
}

func TestRun_XLSX(t *testing.T) {
	target := filepath.Join(t.TempDir(), "out.xlsx")
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-file", writeLedger(t), "-xlsx", target}, &out))

	f, err := excelize.OpenFile(target)
	require.NoError(t, err)
	defer f.Close()
	assert.Len(t, f.GetSheetList(), 3)
}

func TestRun_Errors(t *testing.T) {
	ledger := writeLedger(t)
	tests := map[string][]string{
		"unknown report": {"-file", ledger, "-report", "balance"},
		"bad period":     {"-file", ledger, "-start", "yesterday"},
		"missing file":   {"-file", filepath.Join(t.TempDir(), "nope.json")},
		"unknown flag":   {"-bogus"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, run(context.Background(), args, &bytes.Buffer{}))
		})
	}
}
