package infra

// pdf.go — goods-received-note generation using go-pdf/fpdf.
// One A5 note per allocation: warehouse, product, order reference, amount,
// snapshotted total. The output file is saved to storagePath/grn_{id}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"

	"stockroom/internal/model"

	"github.com/go-pdf/fpdf"
)

// GenerateReceivedNotePDF renders the goods-received note for a committed
// allocation. storagePath is created if needed. Returns the absolute path
// to the generated file.
func GenerateReceivedNotePDF(a *model.Allocation, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("grn_%d.pdf", a.ID)
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 24

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentW, 8, "Stockroom", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 6, "Goods Received Note", "", 1, "C", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(contentW, 6, fmt.Sprintf("Note #%d", a.ID), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, a.CreatedAt.Format("02/01/2006 15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.Line(12, pdf.GetY(), pageW-12, pdf.GetY())
	pdf.Ln(3)

	// ── Detail rows ──────────────────────────────────────────────────────────
	labelW := contentW * 0.4
	valueW := contentW * 0.6

	row := func(label, value string) {
		pdf.SetFont("Helvetica", "B", 8)
		pdf.CellFormat(labelW, 6, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 8)
		pdf.CellFormat(valueW, 6, value, "", 1, "L", false, 0, "")
	}

	warehouseName := fmt.Sprintf("#%d", a.WarehouseID)
	if a.Warehouse != nil {
		warehouseName = a.Warehouse.Name
	}
	productName := fmt.Sprintf("#%d", a.ProductID)
	if a.Product != nil {
		productName = a.Product.Name
	}

	row("Warehouse:", warehouseName)
	row("Product:", productName)
	row("Fulfills order:", fmt.Sprintf("#%d", a.OrderID))
	row("Amount received:", fmt.Sprintf("%d", a.Amount))

	pdf.Ln(2)
	pdf.Line(12, pdf.GetY(), pageW-12, pdf.GetY())
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(labelW, 7, "TOTAL:", "", 0, "L", false, 0, "")
	pdf.CellFormat(valueW, 7, "$"+a.Total.StringFixed(2), "", 1, "L", false, 0, "")

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.CellFormat(contentW, 5, "Price snapshot taken at allocation time.", "", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}

	return filePath, nil
}
