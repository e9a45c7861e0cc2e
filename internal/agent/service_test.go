package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xelth-com/eckposgo/internal/config"
	syncpkg "github.com/xelth-com/eckposgo/internal/sync"
)

func testSyncConfig() *config.SyncConfig {
	return &config.SyncConfig{
		Enabled:          true,
		AutoSyncInterval: 300,
		MaxPushBatchSize: syncpkg.MaxPushBatchSize,
		PullPageSize:     syncpkg.DefaultPullPageSize,
		MaxRetries:       1,
		RetryBaseDelayMs: 1,
	}
}

func TestSyncOnce_PushPullRound(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	localID, err := store.SaveEntity(ctx, syncpkg.EntityTypeProduct, "", syncpkg.Payload{"name": "Espresso"})
	require.NoError(t, err)

	var gotPush syncpkg.SyncPushRequest
	pulled := false

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "shop-1", r.Header.Get("X-Tenant-ID"))
		assert.Equal(t, "Bearer device-token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/sync/push":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPush))
			json.NewEncoder(w).Encode(syncpkg.SyncPushResponse{
				Success: true,
				Accepted: []syncpkg.AcceptedChange{{
					Entity:   syncpkg.EntityTypeProduct,
					LocalID:  gotPush.Changes[0].LocalID,
					CloudID:  "cloud-77",
					Version:  1,
					SyncedAt: time.Now().UTC(),
				}},
			})
		case "/api/sync/pull":
			pulled = true
			json.NewEncoder(w).Encode(syncpkg.SyncPullResponse{
				Changes: []syncpkg.EntityChange{{
					Entity:    syncpkg.EntityTypeProduct,
					CloudID:   "cloud-88",
					Operation: syncpkg.OperationCreate,
					Data:      syncpkg.Payload{"name": "Cortado"},
					Version:   2,
					Timestamp: "2026-01-15T10:00:00Z",
				}},
				SyncedAt:   time.Now().UTC(),
				NextCursor: "MQ==",
				HasMore:    false,
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "shop-1", "device-token")
	service := NewSyncService(store, client, testSyncConfig(), "pos-001")

	result, err := service.SyncOnce(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Pushed)
	assert.Equal(t, 1, result.Pulled)
	assert.True(t, pulled)
	assert.Equal(t, "pos-001", gotPush.DeviceID)

	// Local row adopted the server identity
	entity, err := store.GetEntity(ctx, syncpkg.EntityTypeProduct, localID)
	require.NoError(t, err)
	assert.Equal(t, "cloud-77", entity.CloudID)
	assert.False(t, entity.IsDirty)

	// Cursor watermark advanced
	cursor, err := store.GetState(ctx, stateCursor)
	require.NoError(t, err)
	assert.Equal(t, "MQ==", cursor)

	// Outbox is empty: a second round pushes nothing
	count, err := store.PendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSyncOnce_AppliesResolvedConflictLocally(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	localID, err := store.SaveEntity(ctx, syncpkg.EntityTypeProduct, "", syncpkg.Payload{"name": "Espresso", "price": 12.0})
	require.NoError(t, err)
	require.NoError(t, store.MarkSynced(ctx, syncpkg.AcceptedChange{
		Entity:  syncpkg.EntityTypeProduct,
		LocalID: localID,
		CloudID: "cloud-9",
		Version: 3,
	}))

	// Offline edit that loses against a newer write from another register
	_, err = store.SaveEntity(ctx, syncpkg.EntityTypeProduct, localID, syncpkg.Payload{"name": "Espresso", "price": 12.5})
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/sync/push":
			json.NewEncoder(w).Encode(syncpkg.SyncPushResponse{
				Success: true,
				Accepted: []syncpkg.AcceptedChange{{
					Entity:   syncpkg.EntityTypeProduct,
					LocalID:  localID,
					CloudID:  "cloud-9",
					Version:  5,
					SyncedAt: time.Now().UTC(),
				}},
				Conflicts: []syncpkg.SyncConflict{{
					ID:       "9f0b7c2e-1111-4a7e-9f3a-000000000001",
					Entity:   syncpkg.EntityTypeProduct,
					LocalID:  localID,
					CloudID:  "cloud-9",
					Strategy: syncpkg.ConflictLastWriteWins,
					Resolved: true,
					ResolvedChange: &syncpkg.EntityChange{
						Entity:    syncpkg.EntityTypeProduct,
						CloudID:   "cloud-9",
						Operation: syncpkg.OperationUpdate,
						Data:      syncpkg.Payload{"name": "Espresso", "price": 11.0},
						Version:   5,
						Timestamp: "2026-01-15T10:05:00Z",
					},
				}},
				SyncedAt: time.Now().UTC(),
			})
		case "/api/sync/pull":
			json.NewEncoder(w).Encode(syncpkg.SyncPullResponse{SyncedAt: time.Now().UTC()})
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "shop-1", "device-token")
	service := NewSyncService(store, client, testSyncConfig(), "pos-001")

	result, err := service.SyncOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Conflicts)

	// The losing edit is gone: the row holds the settled winner, clean
	entity, err := store.GetEntity(ctx, syncpkg.EntityTypeProduct, localID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), entity.Version)
	assert.Equal(t, 11.0, entity.Data["price"])
	assert.False(t, entity.IsDirty)
	assert.False(t, entity.IsDeleted)
}

func TestSyncOnce_RetriesTransientFailure(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	_, err := store.SaveEntity(ctx, syncpkg.EntityTypeProduct, "", syncpkg.Payload{"name": "Espresso"})
	require.NoError(t, err)

	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/api/sync/push" {
			attempts++
			if attempts == 1 {
				http.Error(w, "boom", http.StatusInternalServerError)
				return
			}
			json.NewEncoder(w).Encode(syncpkg.SyncPushResponse{Success: true, Accepted: []syncpkg.AcceptedChange{}})
			return
		}
		json.NewEncoder(w).Encode(syncpkg.SyncPullResponse{SyncedAt: time.Now().UTC()})
	}))
	defer server.Close()

	client := NewClient(server.URL, "shop-1", "device-token")
	service := NewSyncService(store, client, testSyncConfig(), "pos-001")

	_, err = service.SyncOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, attempts, "first push attempt should be retried")
}
