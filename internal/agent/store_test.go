package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	syncpkg "github.com/xelth-com/eckposgo/internal/sync"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_SaveEntity_MarksDirty(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	localID, err := store.SaveEntity(ctx, syncpkg.EntityTypeProduct, "", syncpkg.Payload{
		"name":  "Espresso",
		"price": 2.50,
	})
	require.NoError(t, err)
	require.NotEmpty(t, localID)

	entity, err := store.GetEntity(ctx, syncpkg.EntityTypeProduct, localID)
	require.NoError(t, err)
	assert.True(t, entity.IsDirty)
	assert.Equal(t, syncpkg.OperationCreate, entity.Operation)
	assert.Equal(t, "Espresso", entity.Data["name"])
}

func TestStore_SaveEntity_RejectsUnknownType(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	_, err := store.SaveEntity(ctx, syncpkg.EntityType("warehouse"), "", syncpkg.Payload{})
	assert.Error(t, err)
}

func TestStore_Outbox_DrainAndAck(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	localID, err := store.SaveEntity(ctx, syncpkg.EntityTypeProduct, "", syncpkg.Payload{"name": "Espresso"})
	require.NoError(t, err)

	changes, err := store.Outbox(ctx, 100)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, localID, changes[0].LocalID)
	assert.Equal(t, syncpkg.OperationCreate, changes[0].Operation)

	// Server acknowledges: cloud ID assigned, row leaves the outbox
	err = store.MarkSynced(ctx, syncpkg.AcceptedChange{
		Entity:  syncpkg.EntityTypeProduct,
		LocalID: localID,
		CloudID: "cloud-123",
		Version: 1,
	})
	require.NoError(t, err)

	changes, err = store.Outbox(ctx, 100)
	require.NoError(t, err)
	assert.Empty(t, changes)

	entity, err := store.GetEntity(ctx, syncpkg.EntityTypeProduct, localID)
	require.NoError(t, err)
	assert.Equal(t, "cloud-123", entity.CloudID)
	assert.Equal(t, int64(1), entity.Version)
	assert.False(t, entity.IsDirty)

	// Editing a synced row turns it into a pending UPDATE
	_, err = store.SaveEntity(ctx, syncpkg.EntityTypeProduct, localID, syncpkg.Payload{"name": "Double Espresso"})
	require.NoError(t, err)

	changes, err = store.Outbox(ctx, 100)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, syncpkg.OperationUpdate, changes[0].Operation)
}

func TestStore_DeleteEntity_Tombstone(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	localID, err := store.SaveEntity(ctx, syncpkg.EntityTypeProduct, "", syncpkg.Payload{"name": "Espresso"})
	require.NoError(t, err)

	require.NoError(t, store.DeleteEntity(ctx, syncpkg.EntityTypeProduct, localID))

	changes, err := store.Outbox(ctx, 100)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, syncpkg.OperationDelete, changes[0].Operation)
	assert.True(t, changes[0].IsTombstone())
}

func TestStore_ApplyRemoteChange(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	// Unknown entity: inserted as clean
	applied, err := store.ApplyRemoteChange(ctx, syncpkg.EntityChange{
		Entity:    syncpkg.EntityTypeProduct,
		CloudID:   "cloud-1",
		Operation: syncpkg.OperationCreate,
		Data:      syncpkg.Payload{"name": "Latte"},
		Version:   3,
		Timestamp: "2026-01-15T10:00:00Z",
	})
	require.NoError(t, err)
	assert.True(t, applied)

	outbox, err := store.Outbox(ctx, 100)
	require.NoError(t, err)
	assert.Empty(t, outbox, "pulled rows must not re-enter the outbox")

	// Older version is ignored
	applied, err = store.ApplyRemoteChange(ctx, syncpkg.EntityChange{
		Entity:  syncpkg.EntityTypeProduct,
		CloudID: "cloud-1",
		Data:    syncpkg.Payload{"name": "Stale Latte"},
		Version: 2,
	})
	require.NoError(t, err)
	assert.False(t, applied)

	// Newer version wins
	applied, err = store.ApplyRemoteChange(ctx, syncpkg.EntityChange{
		Entity:  syncpkg.EntityTypeProduct,
		CloudID: "cloud-1",
		Data:    syncpkg.Payload{"name": "Flat White"},
		Version: 4,
	})
	require.NoError(t, err)
	assert.True(t, applied)
}

func TestStore_ApplyRemoteChange_NeverOverwritesDirty(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	localID, err := store.SaveEntity(ctx, syncpkg.EntityTypeProduct, "", syncpkg.Payload{"name": "Local Edit"})
	require.NoError(t, err)
	require.NoError(t, store.MarkSynced(ctx, syncpkg.AcceptedChange{
		Entity: syncpkg.EntityTypeProduct, LocalID: localID, CloudID: "cloud-1", Version: 1,
	}))
	_, err = store.SaveEntity(ctx, syncpkg.EntityTypeProduct, localID, syncpkg.Payload{"name": "Dirty Edit"})
	require.NoError(t, err)

	applied, err := store.ApplyRemoteChange(ctx, syncpkg.EntityChange{
		Entity:  syncpkg.EntityTypeProduct,
		CloudID: "cloud-1",
		Data:    syncpkg.Payload{"name": "Remote Edit"},
		Version: 5,
	})
	require.NoError(t, err)
	assert.False(t, applied, "dirty local rows are left for conflict resolution on push")

	entity, err := store.GetEntity(ctx, syncpkg.EntityTypeProduct, localID)
	require.NoError(t, err)
	assert.Equal(t, "Dirty Edit", entity.Data["name"])
}

func TestStore_ApplyResolvedConflict_OverwritesDirtyRow(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	localID, err := store.SaveEntity(ctx, syncpkg.EntityTypeProduct, "", syncpkg.Payload{"price": 12.0})
	require.NoError(t, err)
	require.NoError(t, store.MarkSynced(ctx, syncpkg.AcceptedChange{
		Entity: syncpkg.EntityTypeProduct, LocalID: localID, CloudID: "cloud-1", Version: 3,
	}))
	_, err = store.SaveEntity(ctx, syncpkg.EntityTypeProduct, localID, syncpkg.Payload{"price": 12.5})
	require.NoError(t, err)

	err = store.ApplyResolvedConflict(ctx, syncpkg.SyncConflict{
		ID:       "9f0b7c2e-2222-4a7e-9f3a-000000000002",
		Entity:   syncpkg.EntityTypeProduct,
		LocalID:  localID,
		CloudID:  "cloud-1",
		Resolved: true,
		ResolvedChange: &syncpkg.EntityChange{
			Entity:    syncpkg.EntityTypeProduct,
			CloudID:   "cloud-1",
			Operation: syncpkg.OperationUpdate,
			Data:      syncpkg.Payload{"price": 11.0},
			Version:   5,
			Timestamp: "2026-01-15T10:05:00Z",
		},
	})
	require.NoError(t, err)

	entity, err := store.GetEntity(ctx, syncpkg.EntityTypeProduct, localID)
	require.NoError(t, err)
	assert.Equal(t, 11.0, entity.Data["price"])
	assert.Equal(t, int64(5), entity.Version)
	assert.False(t, entity.IsDirty)
}

func TestStore_ApplyResolvedConflict_DeletionWins(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	localID, err := store.SaveEntity(ctx, syncpkg.EntityTypeProduct, "", syncpkg.Payload{"name": "Discontinued"})
	require.NoError(t, err)
	require.NoError(t, store.MarkSynced(ctx, syncpkg.AcceptedChange{
		Entity: syncpkg.EntityTypeProduct, LocalID: localID, CloudID: "cloud-2", Version: 2,
	}))
	_, err = store.SaveEntity(ctx, syncpkg.EntityTypeProduct, localID, syncpkg.Payload{"name": "Renamed"})
	require.NoError(t, err)

	// The other side deleted the product and the deletion won
	err = store.ApplyResolvedConflict(ctx, syncpkg.SyncConflict{
		ID:       "9f0b7c2e-3333-4a7e-9f3a-000000000003",
		Entity:   syncpkg.EntityTypeProduct,
		CloudID:  "cloud-2",
		Resolved: true,
		ResolvedChange: &syncpkg.EntityChange{
			Entity:    syncpkg.EntityTypeProduct,
			CloudID:   "cloud-2",
			Operation: syncpkg.OperationDelete,
			Version:   4,
			Timestamp: "2026-01-15T10:05:00Z",
		},
	})
	require.NoError(t, err)

	entity, err := store.GetEntity(ctx, syncpkg.EntityTypeProduct, localID)
	require.NoError(t, err)
	assert.True(t, entity.IsDeleted)
	assert.Equal(t, int64(4), entity.Version)
	assert.False(t, entity.IsDirty)
}

func TestStore_SyncState(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	value, err := store.GetState(ctx, stateCursor)
	require.NoError(t, err)
	assert.Empty(t, value)

	require.NoError(t, store.SetState(ctx, stateCursor, "MTA="))
	require.NoError(t, store.SetState(ctx, stateCursor, "MjA="))

	value, err = store.GetState(ctx, stateCursor)
	require.NoError(t, err)
	assert.Equal(t, "MjA=", value)
}
