package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const historySheet = "History"

// WriteWorkbook writes the price history as an XLSX workbook
func WriteWorkbook(w io.Writer, r Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", historySheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	meta := [][]interface{}{
		{"State", r.State},
		{"District", r.District},
		{"Market", r.Market},
		{"Commodity", r.Commodity},
	}
	if r.HasHistory {
		meta = append(meta, []interface{}{fmt.Sprintf("Average arrival (last %d)", TrailingWindow), r.AvgArrival})
	}
	for i, row := range meta {
		if err := f.SetSheetRow(historySheet, fmt.Sprintf("A%d", i+1), &row); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	start := len(meta) + 2
	headers := []interface{}{"Date", "Modal price (Rs/Quintal)", "Arrival (Tonnes)"}
	if err := f.SetSheetRow(historySheet, fmt.Sprintf("A%d", start), &headers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, pt := range r.Series {
		row := []interface{}{pt.Date.Format("2006-01-02"), pt.ModalPrice, pt.Arrival}
		if err := f.SetSheetRow(historySheet, fmt.Sprintf("A%d", start+1+i), &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	if err := f.SetColWidth(historySheet, "A", "C", 24); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
