// Package export renders stored receipt records as spreadsheet downloads.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/kzel/receiptwise/internal/receipt"
)

const sheetName = "Receipts"

var headers = []string{
	"Created",
	"Transaction Date",
	"Merchant",
	"Category",
	"Total Amount",
	"Tax ID",
	"Items",
}

// ReceiptsXLSX returns an XLSX workbook (as bytes) with one row per record.
func ReceiptsXLSX(records []*receipt.Record) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("removing default sheet: %w", err)
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, fmt.Errorf("writing header: %w", err)
		}
	}

	for row, rec := range records {
		values := []any{
			rec.CreatedAt.Format("2006-01-02 15:04:05"),
			rec.Date,
			rec.MerchantName,
			rec.Category,
			rec.TotalAmount,
			rec.TaxID,
			itemsSummary(rec.Items),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("writing row %d: %w", row+2, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encoding workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// itemsSummary flattens line items into a single readable cell.
func itemsSummary(items []receipt.Item) string {
	s := ""
	for i, it := range items {
		if i > 0 {
			s += "; "
		}
		s += fmt.Sprintf("%s x%d @ %.2f", it.Name, it.Quantity, it.UnitPrice)
	}
	return s
}
