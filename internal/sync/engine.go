package sync

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xelth-com/eckposgo/internal/config"
	"github.com/xelth-com/eckposgo/internal/database"
	"github.com/xelth-com/eckposgo/internal/models"
	"gorm.io/gorm"
)

// Notifier is told when a push appended new changes for a tenant, so online
// devices can pull immediately instead of waiting for the next interval.
type Notifier interface {
	NotifyTenant(tenantID string, entityTypes []EntityType)
}

// Engine is the server-side apply logic over the sync protocol: it validates
// pushes, detects and resolves conflicts, maintains the per-tenant change log
// and serves paginated pull deltas.
type Engine struct {
	db       *database.DB
	cfg      *config.SyncConfig
	notifier Notifier

	// Pushes are serialized per tenant: the conflict engine is handed exactly
	// one client/server pair at a time, never a race of many.
	mu          sync.Mutex
	tenantLocks map[string]*sync.Mutex
}

// NewEngine creates a sync engine over the given database
func NewEngine(db *database.DB, cfg *config.SyncConfig) *Engine {
	return &Engine{
		db:          db,
		cfg:         cfg,
		tenantLocks: make(map[string]*sync.Mutex),
	}
}

// SetNotifier attaches a change notifier (e.g. the websocket hub)
func (e *Engine) SetNotifier(n Notifier) {
	e.notifier = n
}

func (e *Engine) lockTenant(tenantID string) func() {
	e.mu.Lock()
	lock, ok := e.tenantLocks[tenantID]
	if !ok {
		lock = &sync.Mutex{}
		e.tenantLocks[tenantID] = lock
	}
	e.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// resolverForTenant builds the conflict resolver from tenant configuration,
// falling back to the server-wide sync config.
func (e *Engine) resolverForTenant(tenantID string) *ConflictResolver {
	defaultStrategy := ConflictResolutionStrategy(e.cfg.ConflictResolution)
	perEntity := make(map[EntityType]ConflictResolutionStrategy)
	for entity, name := range e.cfg.EntityStrategies {
		perEntity[EntityType(entity)] = ConflictResolutionStrategy(name)
	}

	var tenant models.Tenant
	if err := e.db.Where("id = ?", tenantID).First(&tenant).Error; err == nil {
		if tenant.ConflictStrategy != "" {
			defaultStrategy = ConflictResolutionStrategy(tenant.ConflictStrategy)
		}
		for entity, v := range tenant.EntityStrategies {
			if name, ok := v.(string); ok && name != "" {
				perEntity[EntityType(entity)] = ConflictResolutionStrategy(name)
			}
		}
	}

	return NewConflictResolver(defaultStrategy, perEntity)
}

// ProcessPush validates and applies one pushed delta.
//
// Batch-level violations (missing tenant/device, changes not an array, batch
// too large) reject the whole push; individually malformed changes are
// rejected by index while the rest of the batch still applies. Validation
// never mutates state.
func (e *Engine) ProcessPush(req *SyncPushRequest) (*SyncPushResponse, error) {
	now := time.Now().UTC()
	resp := &SyncPushResponse{
		Accepted:  []AcceptedChange{},
		Rejected:  []RejectedChange{},
		Conflicts: []SyncConflict{},
		SyncedAt:  now,
	}

	if req == nil || req.TenantID == "" || req.DeviceID == "" ||
		req.Changes == nil || len(req.Changes) > MaxPushBatchSize {
		vr := ValidateSyncPushRequest(req)
		resp.Rejected = append(resp.Rejected, RejectedChange{Index: -1, Errors: vr.Errors})
		return resp, nil
	}

	unlock := e.lockTenant(req.TenantID)
	defer unlock()

	resolver := e.resolverForTenant(req.TenantID)
	touched := make(map[EntityType]bool)

	err := e.db.Transaction(func(tx *gorm.DB) error {
		for i := range req.Changes {
			change := req.Changes[i]

			if vr := ValidateEntityChange(&change); !vr.Valid {
				resp.Rejected = append(resp.Rejected, RejectedChange{
					Index:   i,
					Entity:  change.Entity,
					LocalID: change.LocalID,
					Errors:  vr.Errors,
				})
				continue
			}

			accepted, conflict, err := e.applyChange(tx, req, &change, resolver, now)
			if err != nil {
				return err
			}
			if conflict != nil {
				resp.Conflicts = append(resp.Conflicts, *conflict)
				if !conflict.Resolved {
					continue
				}
			}
			if accepted != nil {
				resp.Accepted = append(resp.Accepted, *accepted)
				touched[change.Entity] = true
			}
		}

		return e.touchDeviceState(tx, req.TenantID, req.DeviceID, now, true)
	})
	if err != nil {
		return nil, fmt.Errorf("push failed for tenant %s: %w", req.TenantID, err)
	}

	resp.Success = len(resp.Rejected) == 0
	log.Printf("🔄 Push from %s/%s: %d accepted, %d rejected, %d conflicts",
		req.TenantID, req.DeviceID, len(resp.Accepted), len(resp.Rejected), len(resp.Conflicts))

	if e.notifier != nil && len(touched) > 0 {
		entities := make([]EntityType, 0, len(touched))
		for et := range touched {
			entities = append(entities, et)
		}
		e.notifier.NotifyTenant(req.TenantID, entities)
	}

	return resp, nil
}

// applyChange applies a single validated change inside the push transaction.
// Exactly one of the returns is meaningful: an accepted confirmation, or a
// conflict (which may itself carry an accepted resolution).
func (e *Engine) applyChange(tx *gorm.DB, req *SyncPushRequest, change *EntityChange, resolver *ConflictResolver, now time.Time) (*AcceptedChange, *SyncConflict, error) {
	cloudID := change.CloudID
	if cloudID == "" {
		cloudID = change.EntityID
	}

	var head models.SyncChangeLog
	found := false
	if cloudID != "" {
		err := tx.Where("tenant_id = ? AND entity_type = ? AND cloud_id = ?",
			req.TenantID, string(change.Entity), cloudID).
			Order("id DESC").First(&head).Error
		if err == nil {
			found = true
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, err
		}
	} else if change.LocalID != "" {
		// A re-delivered offline CREATE has no cloud ID yet; match it by the
		// pushing device's local ID so it does not get a second identity.
		err := tx.Where("tenant_id = ? AND entity_type = ? AND device_id = ? AND local_id = ?",
			req.TenantID, string(change.Entity), req.DeviceID, change.LocalID).
			Order("id DESC").First(&head).Error
		if err == nil {
			found = true
			cloudID = head.CloudID
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, err
		}
	}

	if !found {
		// First time the server sees this entity: assign a cloud identity
		// for offline-created records and accept as-is.
		if cloudID == "" {
			cloudID = uuid.New().String()
		}
		if err := e.appendLog(tx, req, change, cloudID, change.Version); err != nil {
			return nil, nil, err
		}
		return &AcceptedChange{
			Entity:   change.Entity,
			LocalID:  change.LocalID,
			CloudID:  cloudID,
			Version:  change.Version,
			SyncedAt: now,
		}, nil, nil
	}

	// Re-delivery of an already-accepted version is an idempotent no-op.
	if change.Version == head.Version {
		return &AcceptedChange{
			Entity:   change.Entity,
			LocalID:  change.LocalID,
			CloudID:  cloudID,
			Version:  head.Version,
			SyncedAt: now,
		}, nil, nil
	}

	// Client built on the latest server state: fast-forward.
	if IsNewerVersion(change.Version, head.Version) {
		if err := e.appendLog(tx, req, change, cloudID, change.Version); err != nil {
			return nil, nil, err
		}
		return &AcceptedChange{
			Entity:   change.Entity,
			LocalID:  change.LocalID,
			CloudID:  cloudID,
			Version:  change.Version,
			SyncedAt: now,
		}, nil, nil
	}

	// Both sides incremented from the same base: conflict.
	serverChange, err := changeFromLog(&head)
	if err != nil {
		return nil, nil, err
	}

	// A parked change keeps coming back every sync round. Once an operator
	// has settled it, hand the device the settled head instead of parking
	// a second conflict.
	var settledRec models.SyncConflictRecord
	err = tx.Where("tenant_id = ? AND device_id = ? AND entity_type = ? AND cloud_id = ? AND client_version = ? AND status = ?",
		req.TenantID, req.DeviceID, string(change.Entity), cloudID, change.Version, string(ConflictStatusResolved)).
		Order("created_at DESC").First(&settledRec).Error
	if err == nil {
		settled, cErr := conflictFromRecord(&settledRec)
		if cErr != nil {
			return nil, nil, cErr
		}
		winner := *serverChange
		settled.Resolved = true
		settled.ResolvedChange = &winner
		settled.ResolvedAt = settledRec.ResolvedAt
		settled.ResolvedBy = settledRec.ResolvedBy
		return &AcceptedChange{
			Entity:   change.Entity,
			LocalID:  change.LocalID,
			CloudID:  cloudID,
			Version:  head.Version,
			SyncedAt: now,
		}, settled, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}

	conflict := NewSyncConflict(*change, *serverChange, resolver.StrategyForEntity(change.Entity))
	resolved := resolver.Resolve(conflict)

	if err := e.persistConflict(tx, req, conflict); err != nil {
		return nil, nil, err
	}

	if !resolved {
		// MANUAL: parked for a human decision, nothing applied.
		return nil, conflict, nil
	}

	winner := *conflict.ResolvedChange
	if err := e.appendLog(tx, req, &winner, cloudID, winner.Version); err != nil {
		return nil, nil, err
	}
	return &AcceptedChange{
		Entity:   change.Entity,
		LocalID:  change.LocalID,
		CloudID:  cloudID,
		Version:  winner.Version,
		SyncedAt: now,
	}, conflict, nil
}

func (e *Engine) appendLog(tx *gorm.DB, req *SyncPushRequest, change *EntityChange, cloudID string, version int64) error {
	payload, err := json.Marshal(change.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal change payload: %w", err)
	}

	row := models.SyncChangeLog{
		TenantID:   req.TenantID,
		DeviceID:   req.DeviceID,
		EntityType: string(change.Entity),
		CloudID:    cloudID,
		LocalID:    change.LocalID,
		Operation:  string(change.Operation),
		Payload:    payload,
		Version:    version,
		Timestamp:  change.Timestamp,
		IsDeleted:  change.IsTombstone(),
	}
	return tx.Create(&row).Error
}

func (e *Engine) persistConflict(tx *gorm.DB, req *SyncPushRequest, conflict *SyncConflict) error {
	// A parked change gets re-pushed every sync round until an operator
	// decides; one pending record per entity is enough.
	if !conflict.Resolved {
		var existing models.SyncConflictRecord
		err := tx.Where("tenant_id = ? AND entity_type = ? AND cloud_id = ? AND status = ?",
			req.TenantID, string(conflict.Entity), conflict.CloudID, string(ConflictStatusPending)).
			First(&existing).Error
		if err == nil {
			conflict.ID = existing.ID
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}

	clientPayload, err := json.Marshal(conflict.ClientVersion.Data)
	if err != nil {
		return err
	}
	serverPayload, err := json.Marshal(conflict.ServerVersion.Data)
	if err != nil {
		return err
	}

	record := models.SyncConflictRecord{
		ID:              conflict.ID,
		TenantID:        req.TenantID,
		DeviceID:        req.DeviceID,
		EntityType:      string(conflict.Entity),
		CloudID:         conflict.CloudID,
		LocalID:         conflict.LocalID,
		ClientPayload:   clientPayload,
		ServerPayload:   serverPayload,
		ClientVersion:   conflict.ClientVersion.Version,
		ServerVersion:   conflict.ServerVersion.Version,
		ClientOperation: string(conflict.ClientVersion.Operation),
		ServerOperation: string(conflict.ServerVersion.Operation),
		ClientTimestamp: conflict.ClientVersion.Timestamp,
		ServerTimestamp: conflict.ServerVersion.Timestamp,
		Strategy:        string(conflict.Strategy),
		Status:          string(conflict.Status()),
		ResolvedAt:      conflict.ResolvedAt,
		ResolvedBy:      conflict.ResolvedBy,
	}
	return tx.Create(&record).Error
}

func (e *Engine) touchDeviceState(tx *gorm.DB, tenantID, deviceID string, now time.Time, push bool) error {
	var state models.SyncDeviceState
	err := tx.Where("tenant_id = ? AND device_id = ?", tenantID, deviceID).First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		state = models.SyncDeviceState{TenantID: tenantID, DeviceID: deviceID}
	} else if err != nil {
		return err
	}
	if push {
		state.LastPushAt = &now
	} else {
		state.LastPullAt = &now
	}
	return tx.Save(&state).Error
}

// ProcessPull serves one page of the delta a device has not yet seen. The
// device's own pushed changes are excluded: it already holds them.
func (e *Engine) ProcessPull(req *SyncPullRequest) (*SyncPullResponse, error) {
	now := time.Now().UTC()

	if req == nil || req.TenantID == "" || req.DeviceID == "" {
		return nil, fmt.Errorf("pull requires tenantId and deviceId")
	}

	afterID, err := DecodeCursor(req.Cursor)
	if err != nil {
		return nil, err
	}

	limit := req.PageSize()
	q := e.db.Where("tenant_id = ? AND id > ? AND device_id <> ?", req.TenantID, afterID, req.DeviceID)

	if afterID == 0 && req.LastSyncTimestamp != "" {
		since, err := ParseTimestamp(req.LastSyncTimestamp)
		if err != nil {
			return nil, fmt.Errorf("invalid lastSyncTimestamp: %w", err)
		}
		q = q.Where("created_at > ?", since)
	}

	if len(req.Entities) > 0 {
		names := make([]string, len(req.Entities))
		for i, et := range req.Entities {
			names[i] = string(et)
		}
		q = q.Where("entity_type IN ?", names)
	}

	var rows []models.SyncChangeLog
	// Fetch one extra row to learn whether another page exists.
	if err := q.Order("id ASC").Limit(limit + 1).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("pull failed for tenant %s: %w", req.TenantID, err)
	}

	resp := &SyncPullResponse{
		Changes:   []EntityChange{},
		Deletions: []EntityChange{},
		SyncedAt:  now,
	}

	if len(rows) > limit {
		resp.HasMore = true
		rows = rows[:limit]
	}

	for i := range rows {
		change, err := changeFromLog(&rows[i])
		if err != nil {
			return nil, err
		}
		if rows[i].IsDeleted {
			resp.Deletions = append(resp.Deletions, *change)
		} else {
			resp.Changes = append(resp.Changes, *change)
		}
	}

	if len(rows) > 0 {
		resp.NextCursor = EncodeCursor(rows[len(rows)-1].ID)

		err := e.db.Transaction(func(tx *gorm.DB) error {
			if err := e.touchDeviceState(tx, req.TenantID, req.DeviceID, now, false); err != nil {
				return err
			}
			return tx.Model(&models.SyncDeviceState{}).
				Where("tenant_id = ? AND device_id = ?", req.TenantID, req.DeviceID).
				Update("last_seen_id", rows[len(rows)-1].ID).Error
		})
		if err != nil {
			return nil, err
		}
	}

	return resp, nil
}

// Status reports the liveness/mode probe a device checks before syncing
func (e *Engine) Status() *SyncStatusResponse {
	mode := SyncMode(e.cfg.Mode)
	switch mode {
	case SyncModeLocal, SyncModeCloud, SyncModeHybrid:
	default:
		mode = SyncModeHybrid
	}
	return &SyncStatusResponse{
		Online:     true,
		Mode:       mode,
		ServerTime: time.Now().UTC(),
	}
}

// PendingConflicts lists unresolved conflicts for a tenant
func (e *Engine) PendingConflicts(tenantID string) ([]models.SyncConflictRecord, error) {
	var records []models.SyncConflictRecord
	err := e.db.Where("tenant_id = ? AND status = ?", tenantID, string(ConflictStatusPending)).
		Order("created_at ASC").Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ResolveManualConflict settles a parked MANUAL conflict with an explicit
// winner ("client" or "server") or an operator-edited merged payload, and
// appends the outcome to the change log.
func (e *Engine) ResolveManualConflict(tenantID string, req *ResolveConflictRequest) (*SyncConflict, error) {
	if req == nil || req.ConflictID == "" {
		return nil, fmt.Errorf("conflictId is required")
	}

	unlock := e.lockTenant(tenantID)
	defer unlock()

	var record models.SyncConflictRecord
	err := e.db.Where("id = ? AND tenant_id = ?", req.ConflictID, tenantID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("conflict %s not found", req.ConflictID)
	}
	if err != nil {
		return nil, err
	}
	if record.Status != string(ConflictStatusPending) {
		return nil, fmt.Errorf("conflict %s is already resolved", req.ConflictID)
	}

	conflict, err := conflictFromRecord(&record)
	if err != nil {
		return nil, err
	}

	var winner EntityChange
	switch req.Winner {
	case "client":
		winner = conflict.ClientVersion
	case "server":
		winner = conflict.ServerVersion
	default:
		if req.MergedData == nil {
			return nil, fmt.Errorf("winner must be \"client\" or \"server\", or mergedData must be supplied")
		}
		winner = conflict.ServerVersion
		winner.Data = req.MergedData.Clone()
	}
	if req.MergedData != nil && req.Winner == "" {
		req.Winner = "merged"
	}

	resolver := e.resolverForTenant(tenantID)
	resolver.ManualResolve(conflict, winner, req.ResolvedBy)

	err = e.db.Transaction(func(tx *gorm.DB) error {
		// Logged under the cloud identity: the original pusher is excluded
		// from its own rows on pull, and it must receive the outcome too.
		pushReq := &SyncPushRequest{TenantID: tenantID, DeviceID: CloudDeviceID}
		if err := e.appendLog(tx, pushReq, conflict.ResolvedChange, conflict.CloudID, conflict.ResolvedChange.Version); err != nil {
			return err
		}
		return tx.Model(&record).Updates(map[string]interface{}{
			"status":      string(ConflictStatusResolved),
			"winner":      req.Winner,
			"resolved_at": conflict.ResolvedAt,
			"resolved_by": req.ResolvedBy,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Conflict %s resolved manually (%s wins)", conflict.ID, req.Winner)

	if e.notifier != nil {
		e.notifier.NotifyTenant(tenantID, []EntityType{conflict.Entity})
	}

	return conflict, nil
}

// changeFromLog reconstructs the wire shape of a change-log row
func changeFromLog(row *models.SyncChangeLog) (*EntityChange, error) {
	var data Payload
	if len(row.Payload) > 0 {
		if err := json.Unmarshal(row.Payload, &data); err != nil {
			return nil, fmt.Errorf("corrupt payload in change log row %d: %w", row.ID, err)
		}
	}

	change := &EntityChange{
		Entity:    EntityType(row.EntityType),
		EntityID:  row.CloudID,
		LocalID:   row.LocalID,
		CloudID:   row.CloudID,
		Operation: Operation(row.Operation),
		Data:      data,
		Version:   row.Version,
		Timestamp: row.Timestamp,
	}
	if row.IsDeleted {
		change.Metadata = &ChangeMetadata{IsDeleted: true, TenantID: row.TenantID, CloudID: row.CloudID}
	}
	return change, nil
}

// conflictFromRecord reconstructs the in-memory conflict from its stored row
func conflictFromRecord(record *models.SyncConflictRecord) (*SyncConflict, error) {
	var clientData, serverData Payload
	if len(record.ClientPayload) > 0 {
		if err := json.Unmarshal(record.ClientPayload, &clientData); err != nil {
			return nil, err
		}
	}
	if len(record.ServerPayload) > 0 {
		if err := json.Unmarshal(record.ServerPayload, &serverData); err != nil {
			return nil, err
		}
	}

	entity := EntityType(record.EntityType)

	// Rows written before the per-side columns existed carry no operation
	clientOp := Operation(record.ClientOperation)
	if clientOp == "" {
		clientOp = OperationUpdate
	}
	serverOp := Operation(record.ServerOperation)
	if serverOp == "" {
		serverOp = OperationUpdate
	}

	return &SyncConflict{
		ID:       record.ID,
		Entity:   entity,
		EntityID: record.CloudID,
		LocalID:  record.LocalID,
		CloudID:  record.CloudID,
		ClientVersion: EntityChange{
			Entity:    entity,
			LocalID:   record.LocalID,
			CloudID:   record.CloudID,
			Operation: clientOp,
			Data:      clientData,
			Version:   record.ClientVersion,
			Timestamp: record.ClientTimestamp,
		},
		ServerVersion: EntityChange{
			Entity:    entity,
			EntityID:  record.CloudID,
			CloudID:   record.CloudID,
			Operation: serverOp,
			Data:      serverData,
			Version:   record.ServerVersion,
			Timestamp: record.ServerTimestamp,
		},
		Strategy:  ConflictResolutionStrategy(record.Strategy),
		CreatedAt: record.CreatedAt,
	}, nil
}
