package agent

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/xelth-com/eckposgo/internal/config"
	syncpkg "github.com/xelth-com/eckposgo/internal/sync"
)

const (
	stateCursor        = "pull_cursor"
	stateLastSyncStamp = "last_sync_timestamp"
)

// SyncResult summarizes one sync round
type SyncResult struct {
	Pushed    int // changes accepted by the server
	Rejected  int // changes the server refused
	Conflicts int // conflicts reported (resolved or parked)
	Pulled    int // remote changes applied locally
	Deleted   int // remote tombstones applied locally
}

// SyncService drains the outbox to the cloud and merges pulled deltas back
// into the local store. One instance runs per register.
type SyncService struct {
	store    *Store
	client   *Client
	cfg      *config.SyncConfig
	deviceID string
}

// NewSyncService creates the sync loop for one register
func NewSyncService(store *Store, client *Client, cfg *config.SyncConfig, deviceID string) *SyncService {
	return &SyncService{
		store:    store,
		client:   client,
		cfg:      cfg,
		deviceID: deviceID,
	}
}

// Run syncs on the configured interval until the context is cancelled.
// Failures are logged and retried on the next tick; the register keeps
// selling offline regardless.
func (s *SyncService) Run(ctx context.Context) {
	interval := time.Duration(s.cfg.AutoSyncInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("🔁 Auto-sync every %s", interval)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if result, err := s.SyncOnce(ctx); err != nil {
				log.Printf("⚠️ Sync failed: %v", err)
			} else if result.Pushed+result.Pulled+result.Deleted > 0 {
				log.Printf("🔄 Synced: %d pushed, %d pulled, %d deleted, %d conflicts",
					result.Pushed, result.Pulled, result.Deleted, result.Conflicts)
			}
		}
	}
}

// SyncOnce performs one full push+pull round
func (s *SyncService) SyncOnce(ctx context.Context) (*SyncResult, error) {
	result := &SyncResult{}

	if err := s.pushAll(ctx, result); err != nil {
		return result, err
	}
	if err := s.pullAll(ctx, result); err != nil {
		return result, err
	}
	return result, nil
}

// pushAll drains the outbox in batches no larger than the protocol allows
func (s *SyncService) pushAll(ctx context.Context, result *SyncResult) error {
	for {
		changes, err := s.store.Outbox(ctx, s.cfg.MaxPushBatchSize)
		if err != nil {
			return fmt.Errorf("failed to read outbox: %w", err)
		}
		if len(changes) == 0 {
			return nil
		}

		lastSync, err := s.store.GetState(ctx, stateLastSyncStamp)
		if err != nil {
			return err
		}

		req := &syncpkg.SyncPushRequest{
			DeviceID:          s.deviceID,
			LastSyncTimestamp: lastSync,
			Changes:           changes,
		}

		resp, err := s.pushWithRetry(ctx, req)
		if err != nil {
			return err
		}

		for _, ack := range resp.Accepted {
			if err := s.store.MarkSynced(ctx, ack); err != nil {
				return err
			}
		}

		// A resolved conflict carries the winning change; the local row must
		// take it even when the local side lost. Parked MANUAL conflicts
		// leave the row dirty until an operator decides.
		for _, conflict := range resp.Conflicts {
			if !conflict.Resolved || conflict.ResolvedChange == nil {
				continue
			}
			if err := s.store.ApplyResolvedConflict(ctx, conflict); err != nil {
				return err
			}
		}

		result.Pushed += len(resp.Accepted)
		result.Rejected += len(resp.Rejected)
		result.Conflicts += len(resp.Conflicts)

		for _, rejected := range resp.Rejected {
			log.Printf("⚠️ Change rejected (%s/%s): %v", rejected.Entity, rejected.LocalID, rejected.Errors)
		}

		if len(resp.Accepted) == 0 && len(resp.Rejected) == 0 {
			return nil
		}
		if len(changes) < s.cfg.MaxPushBatchSize {
			return nil
		}
	}
}

// pullAll follows the cursor until the server reports no more pages
func (s *SyncService) pullAll(ctx context.Context, result *SyncResult) error {
	cursor, err := s.store.GetState(ctx, stateCursor)
	if err != nil {
		return err
	}
	lastSync, err := s.store.GetState(ctx, stateLastSyncStamp)
	if err != nil {
		return err
	}

	for {
		req := &syncpkg.SyncPullRequest{
			DeviceID:          s.deviceID,
			LastSyncTimestamp: lastSync,
			Cursor:            cursor,
			Limit:             s.cfg.PullPageSize,
		}

		resp, err := s.pullWithRetry(ctx, req)
		if err != nil {
			return err
		}

		for _, change := range resp.Changes {
			applied, err := s.store.ApplyRemoteChange(ctx, change)
			if err != nil {
				return err
			}
			if applied {
				result.Pulled++
			}
		}
		for _, tombstone := range resp.Deletions {
			applied, err := s.store.ApplyRemoteChange(ctx, tombstone)
			if err != nil {
				return err
			}
			if applied {
				result.Deleted++
			}
		}

		if resp.NextCursor != "" {
			cursor = resp.NextCursor
			if err := s.store.SetState(ctx, stateCursor, cursor); err != nil {
				return err
			}
		}

		if !resp.HasMore {
			stamp := resp.SyncedAt.UTC().Format(time.RFC3339Nano)
			return s.store.SetState(ctx, stateLastSyncStamp, stamp)
		}
	}
}

func (s *SyncService) backoff() retry.Backoff {
	base := time.Duration(s.cfg.RetryBaseDelayMs) * time.Millisecond
	return retry.WithMaxRetries(uint64(s.cfg.MaxRetries), retry.NewExponential(base))
}

func (s *SyncService) pushWithRetry(ctx context.Context, req *syncpkg.SyncPushRequest) (*syncpkg.SyncPushResponse, error) {
	var resp *syncpkg.SyncPushResponse
	err := retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		var err error
		resp, err = s.client.Push(ctx, req)
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	return resp, err
}

func (s *SyncService) pullWithRetry(ctx context.Context, req *syncpkg.SyncPullRequest) (*syncpkg.SyncPullResponse, error) {
	var resp *syncpkg.SyncPullResponse
	err := retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		var err error
		resp, err = s.client.Pull(ctx, req)
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	return resp, err
}
