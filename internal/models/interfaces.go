package models

// SyncableEntity is an interface for models that participate in cloud sync
type SyncableEntity interface {
	GetEntityID() string
	GetEntityType() string
	GetSyncMetadata() *SyncMetadata
}
