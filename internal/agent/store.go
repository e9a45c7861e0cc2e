package agent

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	syncpkg "github.com/xelth-com/eckposgo/internal/sync"
	_ "modernc.org/sqlite" // SQLite driver
)

// ErrEntityNotFound is returned when a local row does not exist
var ErrEntityNotFound = errors.New("entity not found")

// Store is the register's offline database. Every row carries the sync
// metadata columns; dirty rows form the outbox the sync service drains.
type Store struct {
	db *sql.DB
}

// OpenStore opens (and if needed creates) the local database.
// Use ":memory:" for tests.
func OpenStore(ctx context.Context, dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// SQLite with WAL supports many readers but only one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	store := &Store{db: db}
	if err := store.createSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS local_entities (
		local_id         TEXT NOT NULL,
		entity_type      TEXT NOT NULL,
		cloud_id         TEXT,
		data             TEXT NOT NULL,
		operation        TEXT NOT NULL DEFAULT 'CREATE',
		version          INTEGER NOT NULL DEFAULT 0,
		is_dirty         INTEGER NOT NULL DEFAULT 0,
		is_deleted       INTEGER NOT NULL DEFAULT 0,
		last_modified_at TEXT NOT NULL,
		synced_at        TEXT,
		PRIMARY KEY (entity_type, local_id)
	);
	CREATE INDEX IF NOT EXISTS idx_local_entities_dirty
		ON local_entities(is_dirty, last_modified_at);
	CREATE INDEX IF NOT EXISTS idx_local_entities_cloud
		ON local_entities(entity_type, cloud_id);
	CREATE TABLE IF NOT EXISTS sync_state (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// LocalEntity is one row of the offline database
type LocalEntity struct {
	LocalID        string
	EntityType     syncpkg.EntityType
	CloudID        string
	Data           syncpkg.Payload
	Operation      syncpkg.Operation
	Version        int64
	IsDirty        bool
	IsDeleted      bool
	LastModifiedAt string
	SyncedAt       string
}

// SaveEntity writes a local create/update and marks the row dirty for the
// next push. New rows get a generated local ID.
func (s *Store) SaveEntity(ctx context.Context, entityType syncpkg.EntityType, localID string, data syncpkg.Payload) (string, error) {
	if !entityType.IsSyncable() {
		return "", fmt.Errorf("entity type %q is not syncable", entityType)
	}

	op := syncpkg.OperationUpdate
	if localID == "" {
		localID = uuid.New().String()
		op = syncpkg.OperationCreate
	}

	existing, err := s.GetEntity(ctx, entityType, localID)
	if errors.Is(err, ErrEntityNotFound) {
		op = syncpkg.OperationCreate
	} else if err != nil {
		return "", err
	} else if existing.Operation == syncpkg.OperationCreate && existing.IsDirty {
		// Still unpushed: stays a CREATE with the newer payload
		op = syncpkg.OperationCreate
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	query := `
	INSERT INTO local_entities (local_id, entity_type, data, operation, version, is_dirty, last_modified_at)
	VALUES (?, ?, ?, ?, 0, 1, ?)
	ON CONFLICT(entity_type, local_id) DO UPDATE SET
		data = excluded.data,
		operation = ?,
		is_dirty = 1,
		last_modified_at = excluded.last_modified_at`
	if _, err := s.db.ExecContext(ctx, query, localID, string(entityType), string(payload), string(op), now, string(op)); err != nil {
		return "", fmt.Errorf("failed to save entity: %w", err)
	}
	return localID, nil
}

// DeleteEntity tombstones a local row; the deletion travels on the next push
func (s *Store) DeleteEntity(ctx context.Context, entityType syncpkg.EntityType, localID string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx, `
		UPDATE local_entities
		SET is_deleted = 1, is_dirty = 1, operation = ?, last_modified_at = ?
		WHERE entity_type = ? AND local_id = ?`,
		string(syncpkg.OperationDelete), now, string(entityType), localID)
	if err != nil {
		return fmt.Errorf("failed to delete entity: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrEntityNotFound
	}
	return nil
}

// GetEntity loads one local row
func (s *Store) GetEntity(ctx context.Context, entityType syncpkg.EntityType, localID string) (*LocalEntity, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT local_id, entity_type, COALESCE(cloud_id, ''), data, operation,
		       version, is_dirty, is_deleted, last_modified_at, COALESCE(synced_at, '')
		FROM local_entities WHERE entity_type = ? AND local_id = ?`,
		string(entityType), localID)
	return scanEntity(row)
}

func scanEntity(row *sql.Row) (*LocalEntity, error) {
	var e LocalEntity
	var entityType, operation, data string
	var dirty, deleted int
	err := row.Scan(&e.LocalID, &entityType, &e.CloudID, &data, &operation,
		&e.Version, &dirty, &deleted, &e.LastModifiedAt, &e.SyncedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEntityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan entity: %w", err)
	}
	e.EntityType = syncpkg.EntityType(entityType)
	e.Operation = syncpkg.Operation(operation)
	e.IsDirty = dirty != 0
	e.IsDeleted = deleted != 0
	if err := json.Unmarshal([]byte(data), &e.Data); err != nil {
		return nil, fmt.Errorf("corrupt payload for %s/%s: %w", entityType, e.LocalID, err)
	}
	return &e, nil
}

// Outbox returns up to limit dirty rows as wire changes, oldest first
func (s *Store) Outbox(ctx context.Context, limit int) ([]syncpkg.EntityChange, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT local_id, entity_type, COALESCE(cloud_id, ''), data, operation,
		       version, is_deleted, last_modified_at
		FROM local_entities WHERE is_dirty = 1
		ORDER BY last_modified_at ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read outbox: %w", err)
	}
	defer rows.Close()

	var changes []syncpkg.EntityChange
	for rows.Next() {
		var localID, entityType, cloudID, data, operation, modifiedAt string
		var version int64
		var deleted int
		if err := rows.Scan(&localID, &entityType, &cloudID, &data, &operation, &version, &deleted, &modifiedAt); err != nil {
			return nil, err
		}

		var payload syncpkg.Payload
		if err := json.Unmarshal([]byte(data), &payload); err != nil {
			return nil, fmt.Errorf("corrupt payload for %s/%s: %w", entityType, localID, err)
		}

		change := syncpkg.EntityChange{
			Entity:    syncpkg.EntityType(entityType),
			EntityID:  cloudID,
			LocalID:   localID,
			CloudID:   cloudID,
			Operation: syncpkg.Operation(operation),
			Data:      payload,
			Version:   version,
			Timestamp: modifiedAt,
		}
		if deleted != 0 {
			change.Metadata = &syncpkg.ChangeMetadata{IsDeleted: true, CloudID: cloudID}
		}
		changes = append(changes, change)
	}
	return changes, rows.Err()
}

// MarkSynced applies a push confirmation: adopt the server's cloud ID and
// version and clear the dirty flag
func (s *Store) MarkSynced(ctx context.Context, ack syncpkg.AcceptedChange) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx, `
		UPDATE local_entities
		SET cloud_id = ?, version = ?, is_dirty = 0, synced_at = ?
		WHERE entity_type = ? AND local_id = ?`,
		ack.CloudID, ack.Version, now, string(ack.Entity), ack.LocalID)
	if err != nil {
		return fmt.Errorf("failed to mark synced: %w", err)
	}
	return nil
}

// ApplyResolvedConflict installs the settled winner of a push conflict.
// Unlike ApplyRemoteChange this overwrites the row even while it is dirty:
// the dirty payload is exactly the side that lost.
func (s *Store) ApplyResolvedConflict(ctx context.Context, conflict syncpkg.SyncConflict) error {
	if conflict.ResolvedChange == nil {
		return fmt.Errorf("conflict %s carries no resolved change", conflict.ID)
	}
	winner := conflict.ResolvedChange

	cloudID := conflict.CloudID
	if cloudID == "" {
		cloudID = conflict.EntityID
	}
	localID := conflict.LocalID
	if localID == "" {
		err := s.db.QueryRowContext(ctx, `
			SELECT local_id FROM local_entities
			WHERE entity_type = ? AND cloud_id = ?`,
			string(conflict.Entity), cloudID).Scan(&localID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if winner.IsTombstone() {
		_, err := s.db.ExecContext(ctx, `
			UPDATE local_entities
			SET cloud_id = ?, version = ?, is_dirty = 0, is_deleted = 1, synced_at = ?
			WHERE entity_type = ? AND local_id = ?`,
			cloudID, winner.Version, now, string(conflict.Entity), localID)
		if err != nil {
			return fmt.Errorf("failed to apply resolved deletion: %w", err)
		}
		return nil
	}

	payload, err := json.Marshal(winner.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal resolved payload: %w", err)
	}
	modifiedAt := winner.Timestamp
	if modifiedAt == "" {
		modifiedAt = now
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE local_entities
		SET cloud_id = ?, data = ?, operation = ?, version = ?,
		    is_dirty = 0, is_deleted = 0, last_modified_at = ?, synced_at = ?
		WHERE entity_type = ? AND local_id = ?`,
		cloudID, string(payload), string(syncpkg.OperationUpdate), winner.Version,
		modifiedAt, now, string(conflict.Entity), localID)
	if err != nil {
		return fmt.Errorf("failed to apply resolved conflict: %w", err)
	}
	return nil
}

// ApplyRemoteChange merges one pulled change into the local store. An older
// or same-version change is ignored; a dirty local row is never overwritten
// (the divergence surfaces as a conflict on the next push instead).
func (s *Store) ApplyRemoteChange(ctx context.Context, change syncpkg.EntityChange) (bool, error) {
	cloudID := change.CloudID
	if cloudID == "" {
		cloudID = change.EntityID
	}

	var localID string
	var version int64
	var dirty int
	err := s.db.QueryRowContext(ctx, `
		SELECT local_id, version, is_dirty FROM local_entities
		WHERE entity_type = ? AND cloud_id = ?`,
		string(change.Entity), cloudID).Scan(&localID, &version, &dirty)

	if errors.Is(err, sql.ErrNoRows) {
		if change.IsTombstone() {
			return false, nil
		}
		payload, err := json.Marshal(change.Data)
		if err != nil {
			return false, err
		}
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO local_entities (local_id, entity_type, cloud_id, data, operation, version, is_dirty, last_modified_at, synced_at)
			VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)`,
			uuid.New().String(), string(change.Entity), cloudID, string(payload),
			string(syncpkg.OperationUpdate), change.Version, change.Timestamp,
			time.Now().UTC().Format(time.RFC3339Nano))
		if err != nil {
			return false, fmt.Errorf("failed to insert remote change: %w", err)
		}
		return true, nil
	}
	if err != nil {
		return false, err
	}

	if dirty != 0 {
		return false, nil
	}
	if !syncpkg.IsNewerVersion(change.Version, version) {
		return false, nil
	}

	if change.IsTombstone() {
		_, err = s.db.ExecContext(ctx, `
			UPDATE local_entities SET is_deleted = 1, version = ?, synced_at = ?
			WHERE entity_type = ? AND local_id = ?`,
			change.Version, time.Now().UTC().Format(time.RFC3339Nano),
			string(change.Entity), localID)
		if err != nil {
			return false, err
		}
		return true, nil
	}

	payload, err := json.Marshal(change.Data)
	if err != nil {
		return false, err
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE local_entities SET data = ?, version = ?, last_modified_at = ?, synced_at = ?
		WHERE entity_type = ? AND local_id = ?`,
		string(payload), change.Version, change.Timestamp,
		time.Now().UTC().Format(time.RFC3339Nano),
		string(change.Entity), localID)
	if err != nil {
		return false, fmt.Errorf("failed to apply remote change: %w", err)
	}
	return true, nil
}

// PendingCount returns how many rows wait in the outbox
func (s *Store) PendingCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM local_entities WHERE is_dirty = 1`).Scan(&count)
	return count, err
}

// GetState reads a sync watermark value ("" when unset)
func (s *Store) GetState(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM sync_state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// SetState stores a sync watermark value
func (s *Store) SetState(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}
