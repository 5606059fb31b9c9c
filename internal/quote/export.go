package quote

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/mitsumori/internal/models"
)

var exportHeaders = []string{
	"item_no", "product_id", "product", "product_group", "supplier", "store",
	"quantity", "unit_price", "line_total", "match_confidence",
}

// WriteXLSX renders q as a spreadsheet: a header block, the line items, then the pricing summary.
func WriteXLSX(q *models.Quotation, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := f.SetSheetName(sheet, "Quotation"); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	sheet = "Quotation"

	row := 1
	setRow := func(values ...any) {
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		row++
	}

	setRow("Quotation", q.QuotationID)
	setRow("Date", q.Date)
	setRow("Customer", q.CustomerName)
	setRow("Validity", q.Validity)
	row++

	headers := make([]any, len(exportHeaders))
	for i, h := range exportHeaders {
		headers[i] = h
	}
	setRow(headers...)
	for _, it := range q.Items {
		setRow(it.ItemNo, it.ProductID, it.Product, it.ProductGroup, it.Supplier, it.Store,
			it.Quantity, it.UnitPrice, it.LineTotal, it.MatchConfidence)
	}
	row++

	p := q.Pricing
	setRow("Subtotal", p.Subtotal)
	setRow("Tax rate", p.TaxRate)
	setRow("Tax amount", p.TaxAmount)
	setRow("Discount rate", p.DiscountRate)
	setRow("Discount amount", p.DiscountAmount)
	setRow("Grand total", p.GrandTotal)
	row++

	for _, term := range q.Terms {
		setRow(term)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// ExportXLSX writes q to outputPath, creating parent directories.
func ExportXLSX(q *models.Quotation, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outputPath, err)
	}
	if err := WriteXLSX(q, out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
