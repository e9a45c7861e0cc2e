package receipt

import (
	"bytes"
	"testing"
	"time"

	"github.com/xelth-com/eckposgo/internal/models"
)

func TestGenerateReceiptPDF(t *testing.T) {
	now := time.Now()
	order := &models.Order{
		ID:          "order-1",
		OrderNumber: "POS-001-000042",
		DeviceID:    "pos-001",
		Status:      models.OrderStatusPaid,
		Subtotal:    10.00,
		TaxTotal:    1.90,
		Total:       11.90,
		PlacedAt:    &now,
		Items: []models.OrderItem{
			{Name: "Espresso", Quantity: 2, UnitPrice: 2.50, LineTotal: 5.00},
			{Name: "Croissant", Quantity: 1, UnitPrice: 5.00, LineTotal: 5.00},
		},
		Payments: []models.Payment{
			{Method: models.PaymentMethodCard, Amount: 11.90},
		},
	}

	pdfBytes, err := GenerateReceiptPDF(order, ReceiptConfig{
		StoreName: "Test Store",
		Footer:    "Thank you!",
	})
	if err != nil {
		t.Fatalf("Failed to generate receipt: %v", err)
	}

	if len(pdfBytes) == 0 {
		t.Fatal("Receipt PDF should not be empty")
	}
	if !bytes.HasPrefix(pdfBytes, []byte("%PDF")) {
		t.Error("Output should be a PDF document")
	}
}

func TestGenerateReceiptPDFEmptyOrder(t *testing.T) {
	order := &models.Order{
		OrderNumber: "POS-001-000001",
		DeviceID:    "pos-001",
	}

	pdfBytes, err := GenerateReceiptPDF(order, ReceiptConfig{})
	if err != nil {
		t.Fatalf("Failed to generate receipt for empty order: %v", err)
	}
	if !bytes.HasPrefix(pdfBytes, []byte("%PDF")) {
		t.Error("Output should be a PDF document")
	}
}
