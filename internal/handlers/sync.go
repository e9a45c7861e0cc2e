package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/xelth-com/eckposgo/internal/middleware"
	syncpkg "github.com/xelth-com/eckposgo/internal/sync"
)

// SyncHandler handles synchronization requests
type SyncHandler struct {
	engine *syncpkg.Engine
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(engine *syncpkg.Engine) *SyncHandler {
	return &SyncHandler{engine: engine}
}

// RegisterRoutes registers sync routes on the protected API subrouter
func (sh *SyncHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/sync/push", sh.PushChanges).Methods("POST")
	r.HandleFunc("/sync/pull", sh.PullChanges).Methods("POST")
	r.HandleFunc("/sync/status", sh.GetSyncStatus).Methods("GET")
	r.HandleFunc("/sync/conflicts", sh.ListConflicts).Methods("GET")
	r.HandleFunc("/sync/conflicts/{id}/resolve", sh.ResolveConflict).Methods("POST")
}

// PushChanges accepts a pushed delta from a register
func (sh *SyncHandler) PushChanges(w http.ResponseWriter, r *http.Request) {
	tenant, ok := middleware.TenantFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusBadRequest, "Tenant not resolved")
		return
	}

	var req syncpkg.SyncPushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	// The URL's tenant scope wins over whatever the body claims.
	req.TenantID = tenant.ID

	resp, err := sh.engine.ProcessPush(&req)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	status := http.StatusOK
	if !resp.Success {
		status = http.StatusUnprocessableEntity
	}
	respondJSON(w, status, resp)
}

// PullChanges serves one delta page to a register
func (sh *SyncHandler) PullChanges(w http.ResponseWriter, r *http.Request) {
	tenant, ok := middleware.TenantFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusBadRequest, "Tenant not resolved")
		return
	}

	var req syncpkg.SyncPullRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	req.TenantID = tenant.ID

	resp, err := sh.engine.ProcessPull(&req)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetSyncStatus returns the liveness/mode probe
func (sh *SyncHandler) GetSyncStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, sh.engine.Status())
}

// ListConflicts returns the pending conflicts for the tenant
func (sh *SyncHandler) ListConflicts(w http.ResponseWriter, r *http.Request) {
	tenant, ok := middleware.TenantFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusBadRequest, "Tenant not resolved")
		return
	}

	conflicts, err := sh.engine.PendingConflicts(tenant.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":     len(conflicts),
		"conflicts": conflicts,
	})
}

// ResolveConflict settles a parked MANUAL conflict
func (sh *SyncHandler) ResolveConflict(w http.ResponseWriter, r *http.Request) {
	tenant, ok := middleware.TenantFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusBadRequest, "Tenant not resolved")
		return
	}

	var req syncpkg.ResolveConflictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	req.ConflictID = mux.Vars(r)["id"]

	conflict, err := sh.engine.ResolveManualConflict(tenant.ID, &req)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, conflict)
}
