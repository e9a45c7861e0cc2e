package models

import "time"

// SyncMetadata is embedded in every synchronizable model. The protocol and
// conflict engine depend on these fields being present on each row: the cloud
// identifier mapping, the monotonically increasing version, the dirty flag for
// the outbox, and the tombstone markers for soft deletes.
// Convention: Go PascalCase -> DB snake_case (GORM auto) -> JSON camelCase
type SyncMetadata struct {
	CloudID        string     `gorm:"index" json:"cloudId,omitempty"`
	TenantID       string     `gorm:"index;not null" json:"tenantId"`
	Version        int64      `gorm:"default:0" json:"version"`
	IsDirty        bool       `gorm:"default:false;index" json:"isDirty"`
	IsDeleted      bool       `gorm:"default:false" json:"isDeleted"`
	SyncedAt       *time.Time `json:"syncedAt,omitempty"`
	LastModifiedAt time.Time  `json:"lastModifiedAt"`
	DeletedAt      *time.Time `json:"deletedAt,omitempty"`
}

// MarkDirty flags the row for the next push and stamps the modification time
func (m *SyncMetadata) MarkDirty() {
	m.IsDirty = true
	m.LastModifiedAt = time.Now().UTC()
}

// MarkDeleted turns the row into a tombstone. The record stays visible to the
// sync protocol until every device has acknowledged the deletion.
func (m *SyncMetadata) MarkDeleted() {
	now := time.Now().UTC()
	m.IsDeleted = true
	m.DeletedAt = &now
	m.MarkDirty()
}

// MarkSynced records server acknowledgement of the current state
func (m *SyncMetadata) MarkSynced(cloudID string, version int64, syncedAt time.Time) {
	if cloudID != "" {
		m.CloudID = cloudID
	}
	m.Version = version
	m.IsDirty = false
	m.SyncedAt = &syncedAt
}

// GetSyncMetadata implements SyncableEntity
func (m *SyncMetadata) GetSyncMetadata() *SyncMetadata {
	return m
}
