package sync

import (
	"time"

	"github.com/google/uuid"
)

// Payload is the open field-to-value mapping carried by an EntityChange.
// The sync core is entity agnostic: it never interprets the fields, it only
// moves them and merges them shallowly during field-merge resolution.
type Payload map[string]interface{}

// Clone returns a shallow copy of the payload
func (p Payload) Clone() Payload {
	if p == nil {
		return nil
	}
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// EntityChange is the canonical unit of synchronization: one entity's
// create/update/delete with payload, version and timestamp.
//
// A record created offline has a LocalID before it ever has a CloudID; the
// envelope carries both so the server can map one to the other on first push.
type EntityChange struct {
	Entity    EntityType `json:"entity"`
	EntityID  string     `json:"entityId,omitempty"`
	LocalID   string     `json:"localId,omitempty"`
	CloudID   string     `json:"cloudId,omitempty"`
	Operation Operation  `json:"operation"`
	Data      Payload    `json:"data"`

	// Version is incremented on every local or server-accepted mutation.
	// Two sides incrementing independently from the same base signals a
	// conflict candidate.
	Version int64 `json:"version"`

	// Timestamp is the ISO-8601 creation time of this specific change,
	// kept as a string on the wire. It is the tie-breaker input to
	// last-write-wins. Parsing happens in the version utilities only.
	Timestamp string `json:"timestamp"`

	// Metadata carries optional per-record sync bookkeeping
	Metadata *ChangeMetadata `json:"metadata,omitempty"`
}

// ChangeMetadata is the per-record bookkeeping every synchronizable entity
// embeds alongside its domain fields. A DELETE is a tombstone: IsDeleted and
// DeletedAt propagate the deletion instead of the record vanishing from deltas.
type ChangeMetadata struct {
	CloudID        string     `json:"cloudId,omitempty"`
	TenantID       string     `json:"tenantId,omitempty"`
	IsDirty        bool       `json:"isDirty,omitempty"`
	IsDeleted      bool       `json:"isDeleted,omitempty"`
	SyncedAt       *time.Time `json:"syncedAt,omitempty"`
	LastModifiedAt *time.Time `json:"lastModifiedAt,omitempty"`
	DeletedAt      *time.Time `json:"deletedAt,omitempty"`
}

// IsTombstone reports whether this change communicates a soft delete
func (c *EntityChange) IsTombstone() bool {
	if c.Operation == OperationDelete {
		return true
	}
	return c.Metadata != nil && c.Metadata.IsDeleted
}

// SyncDelta is an ordered batch of changes exchanged in one sync cycle.
// The core preserves the order given; producers are responsible for intra-batch
// referential consistency (parent CREATE before child CREATE).
type SyncDelta struct {
	DeltaID   string         `json:"deltaId"`
	CreatedAt time.Time      `json:"createdAt"`
	Changes   []EntityChange `json:"changes"`
}

// NewSyncDelta builds a delta around the given changes, preserving their order
func NewSyncDelta(changes []EntityChange) *SyncDelta {
	return &SyncDelta{
		DeltaID:   uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		Changes:   changes,
	}
}

// Len returns the number of changes in the delta
func (d *SyncDelta) Len() int {
	return len(d.Changes)
}
