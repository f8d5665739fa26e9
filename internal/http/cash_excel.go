package httpapi

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

// CashMovementsExportHeader lists the export columns in sheet order.
var CashMovementsExportHeader = []string{
	"Date",
	"Type",
	"Amount (MAD)",
	"Payment Method",
	"Reason",
	"Reference",
	"Client",
	"Recorded By",
}

// GenerateCashMovementsExport renders the ledger window as an Excel
// workbook. An empty window still produces the styled header row.
func GenerateCashMovementsExport(data []map[string]any) ([]byte, error) {
	f := excelize.NewFile()
	// Note: Don't defer Close() here, because WriteTo needs the file to be open

	sheetName := "Cash Movements"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range CashMovementsExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}

	columnWidths := []float64{
		20, // Date
		8,  // Type
		14, // Amount
		16, // Payment Method
		30, // Reason
		18, // Reference
		38, // Client
		38, // Recorded By
	}
	for i := range CashMovementsExportHeader {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if i < len(columnWidths) && columnWidths[i] > 0 {
			if err := f.SetColWidth(sheetName, col, col, columnWidths[i]); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set column width: %w", err)
			}
		}
	}

	for rowIdx, item := range data {
		row := rowIdx + 2 // row 1 is the header
		colIdx := 0

		for _, header := range CashMovementsExportHeader {
			colIdx++
			var value any

			switch header {
			case "Date":
				value = exportTimeValue(item, "created_at")
			case "Type":
				value = exportStringValue(item, "type")
			case "Amount (MAD)":
				if v, ok := item["amount"].(float64); ok {
					value = v
				}
			case "Payment Method":
				value = exportStringValue(item, "payment_method")
			case "Reason":
				value = exportStringValue(item, "reason")
			case "Reference":
				value = exportStringValue(item, "reference")
			case "Client":
				value = exportStringValue(item, "client_id")
			case "Recorded By":
				value = exportStringValue(item, "created_by")
			}

			if value != nil && value != "" {
				cell, err := excelize.CoordinatesToCellName(colIdx, row)
				if err != nil {
					f.Close()
					return nil, fmt.Errorf("failed to convert coordinates: %w", err)
				}
				if err := f.SetCellValue(sheetName, cell, value); err != nil {
					f.Close()
					return nil, fmt.Errorf("failed to set cell value at row %d, col %d: %w", row, colIdx, err)
				}
			}
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		Split:       false,
		XSplit:      0,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	// File must remain open during the write
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}

	return buf.Bytes(), nil
}

func exportStringValue(item map[string]any, key string) string {
	if val, ok := item[key].(string); ok && val != "" {
		return val
	}
	return ""
}

func exportTimeValue(item map[string]any, key string) string {
	if val, ok := item[key].(string); ok && val != "" {
		return val
	}
	if val, ok := item[key].(time.Time); ok {
		return val.Format("2006-01-02 15:04:05")
	}
	return ""
}
