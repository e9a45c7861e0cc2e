package sync

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"time"
)

// SyncPushRequest is the client-to-server transmission of local changes.
// TenantID is supplied by the tenant middleware; the core trusts it.
type SyncPushRequest struct {
	TenantID          string         `json:"tenantId"`
	DeviceID          string         `json:"deviceId"`
	LastSyncTimestamp string         `json:"lastSyncTimestamp,omitempty"`
	Changes           []EntityChange `json:"changes"`
}

// AcceptedChange confirms one applied change and carries the local-to-cloud
// identifier mapping a device needs after pushing an offline-created record.
type AcceptedChange struct {
	Entity   EntityType `json:"entity"`
	LocalID  string     `json:"localId,omitempty"`
	CloudID  string     `json:"cloudId"`
	Version  int64      `json:"version"`
	SyncedAt time.Time  `json:"syncedAt"`
}

// RejectedChange reports one change that failed validation or could not be
// applied, with its index in the pushed batch so the device can pinpoint it.
type RejectedChange struct {
	Index   int      `json:"index"`
	Entity  EntityType `json:"entity,omitempty"`
	LocalID string   `json:"localId,omitempty"`
	Errors  []string `json:"errors"`
}

// SyncPushResponse distinguishes the push confirmation, the list of mapped
// IDs, rejection reasons and unresolved conflicts.
type SyncPushResponse struct {
	Success   bool             `json:"success"`
	Accepted  []AcceptedChange `json:"accepted"`
	Rejected  []RejectedChange `json:"rejected"`
	Conflicts []SyncConflict   `json:"conflicts"`
	SyncedAt  time.Time        `json:"syncedAt"`
}

// SyncPullRequest asks the server for changes the device has not seen.
// Either LastSyncTimestamp (first pull) or Cursor (draining a large delta)
// positions the read; Entities optionally narrows the pull to specific types.
type SyncPullRequest struct {
	TenantID          string       `json:"tenantId"`
	DeviceID          string       `json:"deviceId"`
	LastSyncTimestamp string       `json:"lastSyncTimestamp,omitempty"`
	Cursor            string       `json:"cursor,omitempty"`
	Entities          []EntityType `json:"entities,omitempty"`
	Limit             int          `json:"limit,omitempty"`
}

// PageSize returns the effective page size for the request, clamped to the
// protocol maximum.
func (r *SyncPullRequest) PageSize() int {
	if r.Limit <= 0 {
		return DefaultPullPageSize
	}
	if r.Limit > MaxPullPageSize {
		return MaxPullPageSize
	}
	return r.Limit
}

// SyncPullResponse is one page of the server's delta. Deletions are
// tombstones: soft-delete markers, never silent disappearance. HasMore and
// NextCursor let the client drain large deltas across round trips without
// server-side session state.
type SyncPullResponse struct {
	Changes    []EntityChange `json:"changes"`
	Deletions  []EntityChange `json:"deletions"`
	SyncedAt   time.Time      `json:"syncedAt"`
	HasMore    bool           `json:"hasMore"`
	NextCursor string         `json:"nextCursor,omitempty"`
}

// SyncStatusResponse is the lightweight liveness/mode probe a device checks
// before attempting a sync cycle.
type SyncStatusResponse struct {
	Online     bool      `json:"online"`
	Mode       SyncMode  `json:"mode"`
	ServerTime time.Time `json:"serverTime"`
}

// ResolveConflictRequest settles a parked MANUAL conflict. Winner selects the
// stored client or server version; MergedData optionally supplies an
// operator-edited payload instead.
type ResolveConflictRequest struct {
	ConflictID string  `json:"conflictId"`
	Winner     string  `json:"winner"` // "client" or "server"
	MergedData Payload `json:"mergedData,omitempty"`
	ResolvedBy string  `json:"resolvedBy,omitempty"`
}

// Pull cursors are opaque to clients: base64 of the last change-log row ID.

// EncodeCursor builds the opaque pull cursor for a change-log position
func EncodeCursor(lastRowID uint64) string {
	return base64.URLEncoding.EncodeToString([]byte(strconv.FormatUint(lastRowID, 10)))
}

// DecodeCursor parses an opaque pull cursor. An empty cursor positions the
// read at the beginning.
func DecodeCursor(cursor string) (uint64, error) {
	if cursor == "" {
		return 0, nil
	}
	raw, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, fmt.Errorf("malformed cursor: %w", err)
	}
	id, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed cursor: %w", err)
	}
	return id, nil
}
