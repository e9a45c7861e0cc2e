package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/xelth-com/eckposgo/internal/buildinfo"
	"github.com/xelth-com/eckposgo/internal/config"
	"github.com/xelth-com/eckposgo/internal/database"
	"github.com/xelth-com/eckposgo/internal/middleware"
	syncpkg "github.com/xelth-com/eckposgo/internal/sync"
	"github.com/xelth-com/eckposgo/internal/websocket"
)

// Router wraps the mux router and the shared server dependencies
type Router struct {
	*mux.Router
	db      *database.DB
	cfg     *config.Config
	engine  *syncpkg.Engine
	hub     *websocket.Hub
	tenants *middleware.TenantResolver
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(db *database.DB, cfg *config.Config, engine *syncpkg.Engine, hub *websocket.Hub) *Router {
	r := &Router{
		Router:  mux.NewRouter(),
		db:      db,
		cfg:     cfg,
		engine:  engine,
		hub:     hub,
		tenants: middleware.NewTenantResolver(db),
	}

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	// Auth routes
	auth := r.PathPrefix("/auth").Subrouter()
	auth.Use(r.tenants.Middleware)
	auth.HandleFunc("/login", r.login).Methods("POST")
	auth.HandleFunc("/register", r.register).Methods("POST")

	// Device pairing: reachable with a pairing token, not a full login
	r.HandleFunc("/api/devices/register", r.registerDevice).Methods("POST")

	// Protected API routes, tenant scoped
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.AuthMiddleware)
	api.Use(r.tenants.Middleware)

	// Sync protocol
	sh := NewSyncHandler(engine)
	sh.RegisterRoutes(api)

	// Devices
	api.HandleFunc("/devices", r.listDevices).Methods("GET")
	api.HandleFunc("/devices/{id}/pairing-qr", r.generatePairingQR).Methods("GET")

	// Catalog
	api.HandleFunc("/products", r.listProducts).Methods("GET")
	api.HandleFunc("/products", r.createProduct).Methods("POST")
	api.HandleFunc("/products/{id}", r.getProduct).Methods("GET")
	api.HandleFunc("/products/{id}", r.updateProduct).Methods("PUT")
	api.HandleFunc("/products/{id}", r.deleteProduct).Methods("DELETE")

	// Orders
	api.HandleFunc("/orders", r.listOrders).Methods("GET")
	api.HandleFunc("/orders/{id}", r.getOrder).Methods("GET")
	api.HandleFunc("/orders/{id}/receipt.pdf", r.orderReceipt).Methods("GET")

	// Websocket notify connection
	r.HandleFunc("/ws", func(w http.ResponseWriter, req *http.Request) {
		websocket.ServeWs(hub, w, req)
	})

	return r
}

// Tenants exposes the tenant resolver for cache invalidation
func (r *Router) Tenants() *middleware.TenantResolver {
	return r.tenants
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
