package websocket

import (
	"encoding/json"
	"log"
	"sync"

	syncpkg "github.com/xelth-com/eckposgo/internal/sync"
)

// Hub maintains the set of connected registers and pushes sync wake-up
// notifications to them. A register that receives one pulls immediately
// instead of waiting for its next auto-sync tick.
type Hub struct {
	// tenant ID -> device ID -> client
	tenants map[string]map[string]*Client

	// Register requests
	register chan *Client

	// Unregister requests
	unregister chan *Client

	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		tenants:    make(map[string]map[string]*Client),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if client.DeviceID != "" && client.TenantID != "" {
				devices, ok := h.tenants[client.TenantID]
				if !ok {
					devices = make(map[string]*Client)
					h.tenants[client.TenantID] = devices
				}
				// If device connects again, close old connection
				if old, ok := devices[client.DeviceID]; ok {
					close(old.send)
				}
				devices[client.DeviceID] = client
				log.Printf("📱 Device connected: %s/%s", client.TenantID, client.DeviceID)
			}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if devices, ok := h.tenants[client.TenantID]; ok {
				if current, ok := devices[client.DeviceID]; ok && current == client {
					delete(devices, client.DeviceID)
					close(client.send)
					log.Printf("📴 Device disconnected: %s/%s", client.TenantID, client.DeviceID)
				}
				if len(devices) == 0 {
					delete(h.tenants, client.TenantID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// NotifyTenant tells every connected register of a tenant that the change
// log grew. Implements the sync engine's notifier.
func (h *Hub) NotifyTenant(tenantID string, entityTypes []syncpkg.EntityType) {
	msg, err := json.Marshal(map[string]interface{}{
		"type":     "SYNC_CHANGES",
		"entities": entityTypes,
	})
	if err != nil {
		log.Printf("Error marshaling notification: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.tenants[tenantID] {
		select {
		case client.send <- msg:
		default:
			// Buffer full or client dead, it will catch up on its next pull
		}
	}
}

// SendToDevice sends a message to a specific register
func (h *Hub) SendToDevice(tenantID, deviceID string, message interface{}) bool {
	h.mu.RLock()
	client, ok := h.tenants[tenantID][deviceID]
	h.mu.RUnlock()

	if !ok {
		return false
	}

	jsonMsg, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling message: %v", err)
		return false
	}

	select {
	case client.send <- jsonMsg:
		return true
	default:
		return false
	}
}
