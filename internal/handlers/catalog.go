package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/xelth-com/eckposgo/internal/middleware"
	"github.com/xelth-com/eckposgo/internal/models"
	syncpkg "github.com/xelth-com/eckposgo/internal/sync"
)

// recordCloudChange pushes a server-originated change through the sync
// engine so it lands in the change log like any device write would.
func (r *Router) recordCloudChange(tenantID string, change syncpkg.EntityChange) error {
	_, err := r.engine.ProcessPush(&syncpkg.SyncPushRequest{
		TenantID: tenantID,
		DeviceID: syncpkg.CloudDeviceID,
		Changes:  []syncpkg.EntityChange{change},
	})
	return err
}

func productChange(p *models.Product, op syncpkg.Operation) syncpkg.EntityChange {
	data := syncpkg.Payload{
		"sku":      p.SKU,
		"barcode":  p.Barcode,
		"name":     p.Name,
		"price":    p.Price,
		"taxRate":  p.TaxRate,
		"stockQty": p.StockQty,
		"active":   p.Active,
	}
	if p.CategoryID != nil {
		data["categoryId"] = *p.CategoryID
	}

	change := syncpkg.EntityChange{
		Entity:    syncpkg.EntityTypeProduct,
		EntityID:  p.ID,
		CloudID:   p.ID,
		Operation: op,
		Data:      data,
		Version:   p.Version,
		Timestamp: p.LastModifiedAt.UTC().Format(time.RFC3339Nano),
	}
	if op == syncpkg.OperationDelete {
		change.Metadata = &syncpkg.ChangeMetadata{IsDeleted: true, TenantID: p.TenantID, CloudID: p.ID}
	}
	return change
}

// listProducts returns the tenant's catalog, tombstones excluded
func (r *Router) listProducts(w http.ResponseWriter, req *http.Request) {
	tenant, ok := middleware.TenantFromContext(req.Context())
	if !ok {
		respondError(w, http.StatusBadRequest, "Tenant not resolved")
		return
	}

	var products []models.Product
	if err := r.db.Where("tenant_id = ? AND is_deleted = ?", tenant.ID, false).
		Order("name ASC").Find(&products).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list products")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(products),
		"products": products,
	})
}

// getProduct returns a single product
func (r *Router) getProduct(w http.ResponseWriter, req *http.Request) {
	tenant, ok := middleware.TenantFromContext(req.Context())
	if !ok {
		respondError(w, http.StatusBadRequest, "Tenant not resolved")
		return
	}

	var product models.Product
	if err := r.db.Where("id = ? AND tenant_id = ?", mux.Vars(req)["id"], tenant.ID).
		First(&product).Error; err != nil {
		respondError(w, http.StatusNotFound, "Product not found")
		return
	}
	respondJSON(w, http.StatusOK, product)
}

// createProduct adds a product to the catalog and records the change for sync
func (r *Router) createProduct(w http.ResponseWriter, req *http.Request) {
	tenant, ok := middleware.TenantFromContext(req.Context())
	if !ok {
		respondError(w, http.StatusBadRequest, "Tenant not resolved")
		return
	}

	var product models.Product
	if err := json.NewDecoder(req.Body).Decode(&product); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if product.Name == "" {
		respondError(w, http.StatusBadRequest, "Product name is required")
		return
	}

	product.ID = uuid.New().String()
	product.CloudID = product.ID
	product.TenantID = tenant.ID
	product.Version = 1
	product.IsDirty = false
	product.LastModifiedAt = time.Now().UTC()

	if err := r.db.Create(&product).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create product")
		return
	}

	if err := r.recordCloudChange(tenant.ID, productChange(&product, syncpkg.OperationCreate)); err != nil {
		respondError(w, http.StatusInternalServerError, "Product stored but change log write failed")
		return
	}

	respondJSON(w, http.StatusCreated, product)
}

// updateProduct edits a product and records the change for sync
func (r *Router) updateProduct(w http.ResponseWriter, req *http.Request) {
	tenant, ok := middleware.TenantFromContext(req.Context())
	if !ok {
		respondError(w, http.StatusBadRequest, "Tenant not resolved")
		return
	}

	var product models.Product
	if err := r.db.Where("id = ? AND tenant_id = ?", mux.Vars(req)["id"], tenant.ID).
		First(&product).Error; err != nil {
		respondError(w, http.StatusNotFound, "Product not found")
		return
	}

	var patch models.Product
	if err := json.NewDecoder(req.Body).Decode(&patch); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	product.SKU = patch.SKU
	product.Barcode = patch.Barcode
	if patch.Name != "" {
		product.Name = patch.Name
	}
	product.CategoryID = patch.CategoryID
	product.Price = patch.Price
	product.TaxRate = patch.TaxRate
	product.StockQty = patch.StockQty
	product.Active = patch.Active

	product.Version = syncpkg.NextVersion(product.Version, product.Version)
	product.LastModifiedAt = time.Now().UTC()

	if err := r.db.Save(&product).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update product")
		return
	}

	if err := r.recordCloudChange(tenant.ID, productChange(&product, syncpkg.OperationUpdate)); err != nil {
		respondError(w, http.StatusInternalServerError, "Product stored but change log write failed")
		return
	}

	respondJSON(w, http.StatusOK, product)
}

// deleteProduct tombstones a product; registers drop it on their next pull
func (r *Router) deleteProduct(w http.ResponseWriter, req *http.Request) {
	tenant, ok := middleware.TenantFromContext(req.Context())
	if !ok {
		respondError(w, http.StatusBadRequest, "Tenant not resolved")
		return
	}

	var product models.Product
	if err := r.db.Where("id = ? AND tenant_id = ?", mux.Vars(req)["id"], tenant.ID).
		First(&product).Error; err != nil {
		respondError(w, http.StatusNotFound, "Product not found")
		return
	}

	product.MarkDeleted()
	product.Version = syncpkg.NextVersion(product.Version, product.Version)
	product.IsDirty = false

	if err := r.db.Save(&product).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to delete product")
		return
	}

	if err := r.recordCloudChange(tenant.ID, productChange(&product, syncpkg.OperationDelete)); err != nil {
		respondError(w, http.StatusInternalServerError, "Product deleted but change log write failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": product.ID})
}
