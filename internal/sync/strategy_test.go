package sync

import (
	"reflect"
	"testing"
)

func clientServerPair(clientTS, serverTS string) (EntityChange, EntityChange) {
	client := EntityChange{
		Entity:    EntityTypeProduct,
		LocalID:   "local-9",
		Operation: OperationUpdate,
		Data:      Payload{"price": 12.5},
		Version:   3,
		Timestamp: clientTS,
	}
	server := EntityChange{
		Entity:    EntityTypeProduct,
		CloudID:   "cloud-9",
		EntityID:  "cloud-9",
		Operation: OperationUpdate,
		Data:      Payload{"price": 11.0},
		Version:   4,
		Timestamp: serverTS,
	}
	return client, server
}

func TestLastWriteWins_ClientStrictlyLater(t *testing.T) {
	client, server := clientServerPair("2026-02-01T12:00:05Z", "2026-02-01T12:00:00Z")

	got := LastWriteWinsStrategy{}.Resolve(client, server)
	if got.LocalID != client.LocalID {
		t.Errorf("Expected client change to win, got %+v", got)
	}
}

func TestLastWriteWins_ServerStrictlyLater(t *testing.T) {
	client, server := clientServerPair("2026-02-01T12:00:00Z", "2026-02-01T12:00:05Z")

	got := LastWriteWinsStrategy{}.Resolve(client, server)
	if got.CloudID != server.CloudID {
		t.Errorf("Expected server change to win, got %+v", got)
	}
}

func TestLastWriteWins_TieResolvesToServer(t *testing.T) {
	ts := "2026-02-01T12:00:00.000Z"
	client, server := clientServerPair(ts, ts)

	got := LastWriteWinsStrategy{}.Resolve(client, server)
	if got.CloudID != server.CloudID {
		t.Errorf("Expected server bias on timestamp ties, got %+v", got)
	}
}

func TestLastWriteWins_UnparsableClientTimestampLoses(t *testing.T) {
	client, server := clientServerPair("not-a-timestamp", "2026-02-01T12:00:00Z")

	got := LastWriteWinsStrategy{}.Resolve(client, server)
	if got.CloudID != server.CloudID {
		t.Errorf("Expected server to win over unparsable client timestamp, got %+v", got)
	}
}

func TestServerWins(t *testing.T) {
	// Client is much later, server must still win unconditionally.
	client, server := clientServerPair("2026-03-01T00:00:00Z", "2026-02-01T00:00:00Z")

	got := ServerWinsStrategy{}.Resolve(client, server)
	if got.CloudID != server.CloudID {
		t.Errorf("Expected server change unconditionally, got %+v", got)
	}
}

func TestClientWins(t *testing.T) {
	client, server := clientServerPair("2026-01-01T00:00:00Z", "2026-02-01T00:00:00Z")

	got := ClientWinsStrategy{}.Resolve(client, server)
	if got.LocalID != client.LocalID {
		t.Errorf("Expected client change unconditionally, got %+v", got)
	}
}

func TestFieldMerge_ClientFieldsTakePrecedence(t *testing.T) {
	client, server := clientServerPair("2026-02-01T12:00:00Z", "2026-02-01T12:00:01Z")
	client.Data = Payload{"a": 1, "b": 2}
	server.Data = Payload{"b": 9, "c": 3}

	got := FieldMergeStrategy{}.Resolve(client, server)

	want := Payload{"a": 1, "b": 2, "c": 3}
	if !reflect.DeepEqual(got.Data, want) {
		t.Errorf("Expected merged payload %v, got %v", want, got.Data)
	}

	// Envelope fields come from the server, not the client.
	if got.Version != server.Version {
		t.Errorf("Expected server version %d, got %d", server.Version, got.Version)
	}
	if got.Timestamp != server.Timestamp {
		t.Errorf("Expected server timestamp %s, got %s", server.Timestamp, got.Timestamp)
	}
	if got.CloudID != server.CloudID {
		t.Errorf("Expected server cloud ID, got %+v", got)
	}
}

func TestFieldMerge_DoesNotMutateInputs(t *testing.T) {
	client, server := clientServerPair("2026-02-01T12:00:00Z", "2026-02-01T12:00:01Z")
	client.Data = Payload{"b": 2}
	server.Data = Payload{"b": 9, "c": 3}

	FieldMergeStrategy{}.Resolve(client, server)

	if server.Data["b"] != 9 {
		t.Error("Server payload must not be mutated by the merge")
	}
	if client.Data["b"] != 2 {
		t.Error("Client payload must not be mutated by the merge")
	}
}

func TestResolveConflict_DefaultsToLastWriteWins(t *testing.T) {
	client, server := clientServerPair("2026-02-01T12:00:05Z", "2026-02-01T12:00:00Z")

	got := ResolveConflict(client, server, nil)
	if got.LocalID != client.LocalID {
		t.Errorf("Expected default strategy to pick the later client change, got %+v", got)
	}
}

func TestStrategyFor(t *testing.T) {
	for _, name := range []ConflictResolutionStrategy{
		ConflictLastWriteWins, ConflictServerWins, ConflictClientWins, ConflictMerge,
	} {
		s, ok := StrategyFor(name)
		if !ok {
			t.Errorf("Expected strategy for %s", name)
			continue
		}
		if s.Name() != name {
			t.Errorf("Expected Name() %s, got %s", name, s.Name())
		}
	}

	if _, ok := StrategyFor(ConflictManual); ok {
		t.Error("MANUAL must not map to an automatic strategy")
	}
	if _, ok := StrategyFor("bogus"); ok {
		t.Error("Unknown names must not map to a strategy")
	}
}
