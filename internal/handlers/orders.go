package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/xelth-com/eckposgo/internal/middleware"
	"github.com/xelth-com/eckposgo/internal/models"
	"github.com/xelth-com/eckposgo/internal/services/receipt"
)

// listOrders returns the tenant's orders, newest first
func (r *Router) listOrders(w http.ResponseWriter, req *http.Request) {
	tenant, ok := middleware.TenantFromContext(req.Context())
	if !ok {
		respondError(w, http.StatusBadRequest, "Tenant not resolved")
		return
	}

	q := r.db.Where("tenant_id = ? AND is_deleted = ?", tenant.ID, false)
	if status := req.URL.Query().Get("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if deviceID := req.URL.Query().Get("deviceId"); deviceID != "" {
		q = q.Where("device_id = ?", deviceID)
	}

	var orders []models.Order
	if err := q.Order("created_at DESC").Limit(200).Find(&orders).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list orders")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(orders),
		"orders": orders,
	})
}

// getOrder returns one order with its lines and payments
func (r *Router) getOrder(w http.ResponseWriter, req *http.Request) {
	tenant, ok := middleware.TenantFromContext(req.Context())
	if !ok {
		respondError(w, http.StatusBadRequest, "Tenant not resolved")
		return
	}

	var order models.Order
	err := r.db.Preload("Items").Preload("Payments").
		Where("id = ? AND tenant_id = ?", mux.Vars(req)["id"], tenant.ID).
		First(&order).Error
	if err != nil {
		respondError(w, http.StatusNotFound, "Order not found")
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// orderReceipt renders the order as a printable PDF receipt
func (r *Router) orderReceipt(w http.ResponseWriter, req *http.Request) {
	tenant, ok := middleware.TenantFromContext(req.Context())
	if !ok {
		respondError(w, http.StatusBadRequest, "Tenant not resolved")
		return
	}

	var order models.Order
	err := r.db.Preload("Items").Preload("Payments").
		Where("id = ? AND tenant_id = ?", mux.Vars(req)["id"], tenant.ID).
		First(&order).Error
	if err != nil {
		respondError(w, http.StatusNotFound, "Order not found")
		return
	}

	pdfBytes, err := receipt.GenerateReceiptPDF(&order, receipt.ReceiptConfig{
		StoreName: tenant.Name,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to generate receipt: %v", err))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=\"receipt_%s.pdf\"", order.OrderNumber))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdfBytes)))
	w.Write(pdfBytes)
}
