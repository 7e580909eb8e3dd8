package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"financeiro/internal/finance"
)

// Report is everything that goes into a workbook.
type Report struct {
	DRE      finance.DRESummary
	CashFlow finance.CashFlowSummary
	Monthly  []finance.MonthSummary
}

// Tables returns the report's sheets in workbook order.
func (r Report) Tables() []Table {
	return []Table{
		DRETable(r.DRE),
		CashFlowTable(r.CashFlow),
		MonthlyResumeTable(r.Monthly),
	}
}

// Workbook builds an XLSX file with one sheet per table. The caller owns
// the returned file and must Close it.
func Workbook(tables []Table) (*excelize.File, error) {
	f := excelize.NewFile()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}
	// built-in format 4 is "#,##0.00"
	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create amount style: %w", err)
	}

	for i, t := range tables {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), t.Title); err != nil {
				f.Close()
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(t.Title); err != nil {
			f.Close()
			return nil, fmt.Errorf("create sheet %q: %w", t.Title, err)
		}

		if err := writeTable(f, t, headerStyle, amountStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("write sheet %q: %w", t.Title, err)
		}
	}
	f.SetActiveSheet(0)

	return f, nil
}

func writeTable(f *excelize.File, t Table, headerStyle, amountStyle int) error {
	header := make([]any, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(t.Title, "A1", &header); err != nil {
		return err
	}

	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(t.Title, cell, &values); err != nil {
			return err
		}
	}

	if len(t.Header) == 0 {
		return nil
	}
	lastCol, err := excelize.ColumnNumberToName(len(t.Header))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(t.Title, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}
	if len(t.Rows) > 0 && len(t.Header) > 1 {
		end := fmt.Sprintf("%s%d", lastCol, len(t.Rows)+1)
		if err := f.SetCellStyle(t.Title, "B2", end, amountStyle); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(t.Title, "A", "A", 26); err != nil {
		return err
	}
	if len(t.Header) > 1 {
		if err := f.SetColWidth(t.Title, "B", lastCol, 16); err != nil {
			return err
		}
	}
	return nil
}

// Write renders the report as XLSX into w.
func Write(w io.Writer, r Report) error {
	f, err := Workbook(r.Tables())
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// SaveAs renders the report as XLSX into the file at path.
func SaveAs(path string, r Report) error {
	f, err := Workbook(r.Tables())
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}
