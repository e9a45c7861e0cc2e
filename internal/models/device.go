package models

import (
	"time"

	"gorm.io/gorm"
)

// DeviceStatus defines the authorization state of a device
type DeviceStatus string

const (
	DeviceStatusPending DeviceStatus = "pending" // Initial state, waiting for approval
	DeviceStatusActive  DeviceStatus = "active"  // Authorized to sync
	DeviceStatusBlocked DeviceStatus = "blocked" // Explicitly banned
)

// RegisteredDevice represents a POS till/terminal that has registered with
// the cloud for a tenant.
// Convention: Go PascalCase -> DB snake_case (GORM auto) -> JSON camelCase
type RegisteredDevice struct {
	DeviceID   string       `gorm:"primaryKey" json:"deviceId"`
	TenantID   string       `gorm:"index;not null" json:"tenantId"`
	Name       string       `json:"name"`
	Status     DeviceStatus `gorm:"default:'pending'" json:"status"`
	PairingKey string       `gorm:"not null" json:"-"` // secret embedded in the pairing QR
	LastSeenAt time.Time    `json:"lastSeenAt"`
	LastPushAt *time.Time   `json:"lastPushAt,omitempty"`
	LastPullAt *time.Time   `json:"lastPullAt,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for RegisteredDevice
func (RegisteredDevice) TableName() string {
	return "registered_devices"
}
