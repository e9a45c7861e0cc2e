package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/skip2/go-qrcode"
	"github.com/xelth-com/eckposgo/internal/middleware"
	"github.com/xelth-com/eckposgo/internal/models"
	"github.com/xelth-com/eckposgo/internal/utils"
)

// DeviceRegisterRequest represents a device registration request
type DeviceRegisterRequest struct {
	DeviceID     string `json:"deviceId"`
	DeviceName   string `json:"deviceName"`
	PairingToken string `json:"pairingToken"` // from the pairing QR
}

// registerDevice activates a new register against a tenant. The pairing
// token from the QR authenticates the request; no user login is needed on
// the till itself.
func (r *Router) registerDevice(w http.ResponseWriter, req *http.Request) {
	var body DeviceRegisterRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	if body.DeviceID == "" || body.PairingToken == "" {
		respondError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	claims, err := utils.ValidateToken(body.PairingToken, r.cfg.JWTSecret)
	if err != nil || claims["type"] != "pairing" {
		respondError(w, http.StatusUnauthorized, "Invalid or expired pairing token")
		return
	}

	tenantID, _ := claims["tenantId"].(string)
	if tenantID == "" {
		respondError(w, http.StatusUnauthorized, "Pairing token carries no tenant")
		return
	}

	device := models.RegisteredDevice{
		DeviceID:   body.DeviceID,
		TenantID:   tenantID,
		Name:       body.DeviceName,
		Status:     models.DeviceStatusActive,
		PairingKey: uuid.New().String(),
		LastSeenAt: time.Now().UTC(),
	}

	if err := r.db.Save(&device).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to register device")
		return
	}

	deviceToken, err := utils.GenerateDeviceToken(device.DeviceID, tenantID, r.cfg)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Device registered but failed to issue token")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"device":      device,
		"deviceToken": deviceToken,
	})
}

// listDevices returns the registers known to the tenant
func (r *Router) listDevices(w http.ResponseWriter, req *http.Request) {
	tenant, ok := middleware.TenantFromContext(req.Context())
	if !ok {
		respondError(w, http.StatusBadRequest, "Tenant not resolved")
		return
	}

	var devices []models.RegisteredDevice
	if err := r.db.Where("tenant_id = ?", tenant.ID).Order("created_at ASC").Find(&devices).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list devices")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(devices),
		"devices": devices,
	})
}

// generatePairingQR creates the QR code a new register scans to join the
// tenant. Protocol: POS$1$<deviceId>$<pairingToken>$<serverUrl>
func (r *Router) generatePairingQR(w http.ResponseWriter, req *http.Request) {
	tenant, ok := middleware.TenantFromContext(req.Context())
	if !ok {
		respondError(w, http.StatusBadRequest, "Tenant not resolved")
		return
	}

	deviceID := mux.Vars(req)["id"]

	token, err := utils.GeneratePairingToken(tenant.ID, r.cfg)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate pairing token")
		return
	}

	serverURL := fmt.Sprintf("https://%s.%s", tenant.Subdomain, r.cfg.BaseDomain)
	qrString := "POS$1$" + deviceID + "$" + token + "$" + serverURL

	png, err := qrcode.Encode(qrString, qrcode.Low, 256)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate QR")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}
