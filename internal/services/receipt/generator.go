package receipt

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"
	"github.com/xelth-com/eckposgo/internal/models"
)

// ReceiptConfig holds store presentation fields printed on every receipt
type ReceiptConfig struct {
	StoreName    string `json:"storeName"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2"`
	Footer       string `json:"footer"`
}

// 80mm thermal roll width, variable height
const (
	rollWidth  = 80.0
	sideMargin = 5.0
	lineHeight = 4.5
)

// GenerateReceiptPDF renders an order as a thermal-roll receipt with a QR
// code of the order number at the bottom
func GenerateReceiptPDF(order *models.Order, cfg ReceiptConfig) ([]byte, error) {
	if cfg.StoreName == "" {
		cfg.StoreName = "POS"
	}

	// Height depends on line count: header + items + totals + payments + QR
	height := 60.0 + float64(len(order.Items)+len(order.Payments))*lineHeight + 40.0

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "mm",
		Size:    gofpdf.SizeType{Wd: rollWidth, Ht: height},
	})
	pdf.SetMargins(sideMargin, sideMargin, sideMargin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	usableW := rollWidth - 2*sideMargin

	// Header
	pdf.SetFont("Courier", "B", 11)
	pdf.CellFormat(usableW, lineHeight, cfg.StoreName, "", 1, "C", false, 0, "")
	pdf.SetFont("Courier", "", 7)
	if cfg.AddressLine1 != "" {
		pdf.CellFormat(usableW, lineHeight-1, cfg.AddressLine1, "", 1, "C", false, 0, "")
	}
	if cfg.AddressLine2 != "" {
		pdf.CellFormat(usableW, lineHeight-1, cfg.AddressLine2, "", 1, "C", false, 0, "")
	}
	pdf.Ln(2)

	placedAt := order.CreatedAt
	if order.PlacedAt != nil {
		placedAt = *order.PlacedAt
	}
	pdf.SetFont("Courier", "", 8)
	pdf.CellFormat(usableW, lineHeight, fmt.Sprintf("Order %s", order.OrderNumber), "", 1, "L", false, 0, "")
	pdf.CellFormat(usableW, lineHeight, placedAt.Format(time.DateTime), "", 1, "L", false, 0, "")
	pdf.CellFormat(usableW, lineHeight, fmt.Sprintf("Till %s", order.DeviceID), "", 1, "L", false, 0, "")
	drawSeparator(pdf, usableW)

	// Items
	for _, item := range order.Items {
		pdf.CellFormat(usableW, lineHeight, item.Name, "", 1, "L", false, 0, "")
		qty := fmt.Sprintf("%gx %.2f", item.Quantity, item.UnitPrice)
		pdf.CellFormat(usableW*0.6, lineHeight, qty, "", 0, "L", false, 0, "")
		pdf.CellFormat(usableW*0.4, lineHeight, fmt.Sprintf("%.2f", item.LineTotal), "", 1, "R", false, 0, "")
	}
	drawSeparator(pdf, usableW)

	// Totals
	drawAmountLine(pdf, usableW, "Subtotal", order.Subtotal)
	drawAmountLine(pdf, usableW, "Tax", order.TaxTotal)
	pdf.SetFont("Courier", "B", 10)
	drawAmountLine(pdf, usableW, "TOTAL", order.Total)
	pdf.SetFont("Courier", "", 8)

	// Payments
	for _, payment := range order.Payments {
		drawAmountLine(pdf, usableW, string(payment.Method), payment.Amount)
	}
	drawSeparator(pdf, usableW)

	// QR code with the order number for lookups/refunds
	qrPng, err := qrcode.Encode(order.OrderNumber, qrcode.Low, 256)
	if err != nil {
		return nil, err
	}

	imgOptions := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
	pdf.RegisterImageOptionsReader("order_qr", imgOptions, bytes.NewReader(qrPng))

	qrSize := 25.0
	pdf.ImageOptions("order_qr", (rollWidth-qrSize)/2, pdf.GetY()+2, qrSize, qrSize, false, imgOptions, 0, "")
	pdf.SetY(pdf.GetY() + qrSize + 4)

	if cfg.Footer != "" {
		pdf.SetFont("Courier", "", 7)
		pdf.CellFormat(usableW, lineHeight, cfg.Footer, "", 1, "C", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawSeparator(pdf *gofpdf.Fpdf, width float64) {
	pdf.CellFormat(width, lineHeight, "--------------------------------", "", 1, "C", false, 0, "")
}

func drawAmountLine(pdf *gofpdf.Fpdf, width float64, label string, amount float64) {
	pdf.CellFormat(width*0.6, lineHeight, label, "", 0, "L", false, 0, "")
	pdf.CellFormat(width*0.4, lineHeight, fmt.Sprintf("%.2f", amount), "", 1, "R", false, 0, "")
}
