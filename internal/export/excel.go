package export

import (
	"fmt"
	"io"

	"messenger/internal/models"

	"github.com/xuri/excelize/v2"
)

const reportSheet = "Report"

// WriteExcel renders the report workbook to w.
func WriteExcel(w io.Writer, rows []models.BookingWithCompany) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	headers := make([]interface{}, len(SpreadsheetHeaders))
	for i, h := range SpreadsheetHeaders {
		headers[i] = h
	}
	if err := f.SetSheetRow(reportSheet, "A1", &headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	lastCol, err := excelize.ColumnNumberToName(len(SpreadsheetHeaders))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(reportSheet, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, row := range SpreadsheetRows(rows) {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(reportSheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	_ = f.SetColWidth(reportSheet, "A", lastCol, 18)
	_ = f.SetColWidth(reportSheet, "G", "G", 40)
	_ = f.SetPanes(reportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
