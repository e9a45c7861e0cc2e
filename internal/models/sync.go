package models

import (
	"time"

	"gorm.io/datatypes"
)

// SyncChangeLog is the server-side append-only log of accepted changes.
// Pull deltas are pages of this log; the pull cursor is the row ID of the
// last change a device has seen.
type SyncChangeLog struct {
	ID       uint64 `gorm:"primaryKey" json:"id"`
	TenantID string `gorm:"index:idx_tenant_seq,priority:1;not null" json:"tenantId"`
	DeviceID string `gorm:"index" json:"deviceId"` // device whose push produced the row

	EntityType string `gorm:"type:varchar(50);not null;index:idx_entity_head" json:"entityType"`
	CloudID    string `gorm:"type:varchar(64);not null;index:idx_entity_head" json:"cloudId"`
	LocalID    string `gorm:"type:varchar(64)" json:"localId,omitempty"`

	Operation string         `gorm:"type:varchar(20);not null" json:"operation"` // CREATE, UPDATE, DELETE
	Payload   datatypes.JSON `gorm:"type:jsonb" json:"payload"`
	Version   int64          `gorm:"not null" json:"version"`
	Timestamp string         `gorm:"type:varchar(64);not null" json:"timestamp"` // client change time, ISO-8601
	IsDeleted bool           `gorm:"default:false" json:"isDeleted"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP;index" json:"createdAt"`
}

// TableName specifies the table name
func (SyncChangeLog) TableName() string {
	return "sync_change_log"
}

// SyncConflictRecord persists a detected divergence for audit and, in MANUAL
// mode, for later resolution through the admin surface.
type SyncConflictRecord struct {
	ID         string `gorm:"primaryKey;type:uuid" json:"id"`
	TenantID   string `gorm:"index;not null" json:"tenantId"`
	DeviceID   string `gorm:"index" json:"deviceId"`
	EntityType string `gorm:"type:varchar(50);not null;index:idx_conflict_entity" json:"entityType"`
	CloudID    string `gorm:"type:varchar(64);index:idx_conflict_entity" json:"cloudId"`
	LocalID    string `gorm:"type:varchar(64)" json:"localId,omitempty"`

	ClientPayload   datatypes.JSON `gorm:"type:jsonb" json:"clientPayload"`
	ServerPayload   datatypes.JSON `gorm:"type:jsonb" json:"serverPayload"`
	ClientVersion   int64          `json:"clientVersion"`
	ServerVersion   int64          `json:"serverVersion"`
	ClientOperation string         `gorm:"type:varchar(20)" json:"clientOperation"` // CREATE, UPDATE, DELETE
	ServerOperation string         `gorm:"type:varchar(20)" json:"serverOperation"`
	ClientTimestamp string         `gorm:"type:varchar(64)" json:"clientTimestamp"` // change time, ISO-8601
	ServerTimestamp string         `gorm:"type:varchar(64)" json:"serverTimestamp"`

	Strategy   string     `gorm:"type:varchar(50)" json:"strategy"`
	Status     string     `gorm:"type:varchar(20);default:'pending';index" json:"status"` // pending, resolved
	Winner     string     `gorm:"type:varchar(20)" json:"winner,omitempty"`               // client, server, merged
	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`
	ResolvedBy string     `gorm:"type:varchar(255)" json:"resolvedBy,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
}

// TableName specifies the table name
func (SyncConflictRecord) TableName() string {
	return "sync_conflicts"
}

// SyncDeviceState tracks per-device sync bookkeeping on the server: the last
// acknowledged change-log position and the timestamps of the last push/pull.
type SyncDeviceState struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	TenantID   string     `gorm:"uniqueIndex:idx_tenant_device;not null" json:"tenantId"`
	DeviceID   string     `gorm:"uniqueIndex:idx_tenant_device;not null" json:"deviceId"`
	LastSeenID uint64     `gorm:"default:0" json:"lastSeenId"` // change-log watermark
	LastPushAt *time.Time `json:"lastPushAt,omitempty"`
	LastPullAt *time.Time `json:"lastPullAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the table name
func (SyncDeviceState) TableName() string {
	return "sync_device_states"
}
