// Package Reports renders payroll data as spreadsheets.
package Reports

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const PayrollSheet = "Payroll"

type PayrollLine struct {
	Employee string
	Hours    decimal.Decimal
	Pay      float64
}

var payrollHeaders = []string{"Employee", "Approved Hours", "Rate", "Total Pay"}

// WritePayroll writes one row per line plus a totals row.
func WritePayroll(w io.Writer, lines []PayrollLine, rate float64) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(PayrollSheet)
	if err != nil {
		return fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	for i, header := range payrollHeaders {
		cell := fmt.Sprintf("%c1", 'A'+i)
		if err := f.SetCellValue(PayrollSheet, cell, header); err != nil {
			return fmt.Errorf("error writing header %s: %v", header, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6E6FA"},
			Pattern: 1,
		},
	})
	if err != nil {
		return fmt.Errorf("error creating header style: %v", err)
	}
	if err := f.SetRowStyle(PayrollSheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("error styling header: %v", err)
	}

	totalHours := decimal.Zero
	totalPay := 0.0
	for rowIndex, line := range lines {
		row := rowIndex + 2
		hours, _ := line.Hours.Round(2).Float64()
		values := []interface{}{line.Employee, hours, rate, line.Pay}
		for colIndex, value := range values {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, row)
			if err := f.SetCellValue(PayrollSheet, cell, value); err != nil {
				return fmt.Errorf("error writing %s: %v", cell, err)
			}
		}
		totalHours = totalHours.Add(line.Hours)
		totalPay += line.Pay
	}

	totalRow := len(lines) + 2
	hours, _ := totalHours.Round(2).Float64()
	totals := map[string]interface{}{
		fmt.Sprintf("A%d", totalRow): "Total",
		fmt.Sprintf("B%d", totalRow): hours,
		fmt.Sprintf("D%d", totalRow): decimal.NewFromFloat(totalPay).Round(2).InexactFloat64(),
	}
	for cell, value := range totals {
		if err := f.SetCellValue(PayrollSheet, cell, value); err != nil {
			return fmt.Errorf("error writing %s: %v", cell, err)
		}
	}

	if err := f.SetColWidth(PayrollSheet, "A", "D", 18); err != nil {
		return fmt.Errorf("error setting column width: %v", err)
	}

	if f.GetSheetName(0) != PayrollSheet {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return fmt.Errorf("error removing default sheet: %v", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("error writing workbook: %v", err)
	}
	return nil
}
