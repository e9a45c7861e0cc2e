package sync

import "testing"

func TestConflictResolver_DefaultLastWriteWins(t *testing.T) {
	client, server := clientServerPair("2026-02-01T12:00:00Z", "2026-02-01T12:30:00Z")
	conflict := NewSyncConflict(client, server, "")

	resolver := NewConflictResolver("", nil)
	if !resolver.Resolve(conflict) {
		t.Fatal("Expected automatic resolution")
	}

	if !conflict.Resolved {
		t.Error("Expected conflict marked resolved")
	}
	if conflict.Status() != ConflictStatusResolved {
		t.Errorf("Expected resolved status, got %s", conflict.Status())
	}
	if conflict.ResolvedChange == nil || conflict.ResolvedChange.CloudID != server.CloudID {
		t.Errorf("Expected server data to win, got %+v", conflict.ResolvedChange)
	}

	// End-to-end version rule: client v3 vs server v4 reconciles to v5.
	if conflict.ResolvedChange.Version != 5 {
		t.Errorf("Expected reconciled version 5, got %d", conflict.ResolvedChange.Version)
	}
}

func TestConflictResolver_PerEntityOverride(t *testing.T) {
	client, server := clientServerPair("2026-02-01T12:00:00Z", "2026-02-01T12:30:00Z")
	client.Entity = EntityTypeOrder
	server.Entity = EntityTypeOrder
	conflict := NewSyncConflict(client, server, "")

	// The till is authoritative for its own orders even though the server
	// change is later.
	resolver := NewConflictResolver(ConflictServerWins, map[EntityType]ConflictResolutionStrategy{
		EntityTypeOrder: ConflictClientWins,
	})

	if !resolver.Resolve(conflict) {
		t.Fatal("Expected automatic resolution")
	}
	if conflict.Strategy != ConflictClientWins {
		t.Errorf("Expected per-entity strategy, got %s", conflict.Strategy)
	}
	if conflict.ResolvedChange.LocalID != client.LocalID {
		t.Errorf("Expected client data to win, got %+v", conflict.ResolvedChange)
	}
}

func TestConflictResolver_ManualStaysPending(t *testing.T) {
	client, server := clientServerPair("2026-02-01T12:00:00Z", "2026-02-01T12:30:00Z")
	conflict := NewSyncConflict(client, server, "")

	resolver := NewConflictResolver(ConflictManual, nil)
	if resolver.Resolve(conflict) {
		t.Fatal("MANUAL conflicts must not auto-resolve")
	}
	if conflict.Resolved {
		t.Error("Expected conflict to stay pending")
	}
	if conflict.Status() != ConflictStatusPending {
		t.Errorf("Expected pending status, got %s", conflict.Status())
	}
}

func TestConflictResolver_ManualResolve(t *testing.T) {
	client, server := clientServerPair("2026-02-01T12:00:00Z", "2026-02-01T12:30:00Z")
	conflict := NewSyncConflict(client, server, ConflictManual)

	resolver := NewConflictResolver(ConflictManual, nil)
	resolver.ManualResolve(conflict, client, "admin@demo")

	if !conflict.Resolved {
		t.Fatal("Expected conflict resolved")
	}
	if conflict.ResolvedBy != "admin@demo" {
		t.Errorf("Expected resolver identity recorded, got %q", conflict.ResolvedBy)
	}
	if conflict.ResolvedChange.LocalID != client.LocalID {
		t.Errorf("Expected chosen winner persisted, got %+v", conflict.ResolvedChange)
	}
	if conflict.ResolvedChange.Version != NextVersion(client.Version, server.Version) {
		t.Errorf("Expected reconciled version to supersede both sides, got %d", conflict.ResolvedChange.Version)
	}
}

func TestNewSyncConflict_Identifiers(t *testing.T) {
	client, server := clientServerPair("2026-02-01T12:00:00Z", "2026-02-01T12:30:00Z")
	conflict := NewSyncConflict(client, server, ConflictLastWriteWins)

	if conflict.ID == "" {
		t.Error("Expected generated conflict ID")
	}
	if conflict.CloudID != server.CloudID {
		t.Errorf("Expected server cloud ID, got %s", conflict.CloudID)
	}
	if conflict.LocalID != client.LocalID {
		t.Errorf("Expected client local ID, got %s", conflict.LocalID)
	}
}
