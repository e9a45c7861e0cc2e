package sync

// Strategy decides which of two competing changes for the same logical entity
// survives, or how they combine. Implementations are pure: they never mutate
// their inputs and never touch storage.
type Strategy interface {
	Name() ConflictResolutionStrategy
	Resolve(client, server EntityChange) EntityChange
}

// Compile-time checks
var (
	_ Strategy = LastWriteWinsStrategy{}
	_ Strategy = ServerWinsStrategy{}
	_ Strategy = ClientWinsStrategy{}
	_ Strategy = FieldMergeStrategy{}
)

// LastWriteWinsStrategy picks the chronologically later change. Ties resolve
// to the server (the server side is passed first to LatestTimestamp, and
// LatestTimestamp returns its first argument on equality). A client change
// with an unparsable timestamp can never win.
type LastWriteWinsStrategy struct{}

func (LastWriteWinsStrategy) Name() ConflictResolutionStrategy { return ConflictLastWriteWins }

func (LastWriteWinsStrategy) Resolve(client, server EntityChange) EntityChange {
	// Server first: server wins ties.
	if LatestTimestamp(server.Timestamp, client.Timestamp) == server.Timestamp {
		return server
	}
	return client
}

// ServerWinsStrategy always returns the server change. Used where the server
// is the authoritative source for an entity class, e.g. centrally managed
// catalog data.
type ServerWinsStrategy struct{}

func (ServerWinsStrategy) Name() ConflictResolutionStrategy { return ConflictServerWins }

func (ServerWinsStrategy) Resolve(client, server EntityChange) EntityChange {
	return server
}

// ClientWinsStrategy always returns the client change. Used where the device
// is authoritative, e.g. a till's own in-progress order.
type ClientWinsStrategy struct{}

func (ClientWinsStrategy) Name() ConflictResolutionStrategy { return ConflictClientWins }

func (ClientWinsStrategy) Resolve(client, server EntityChange) EntityChange {
	return client
}

// FieldMergeStrategy shallow-merges the two payloads field by field, client
// fields taking precedence on overlapping keys. Everything outside Data
// (version, timestamp, entity, operation, identifiers, metadata) is taken
// from the server change: only the payload is merged, the envelope is
// authoritative from the server side.
type FieldMergeStrategy struct{}

func (FieldMergeStrategy) Name() ConflictResolutionStrategy { return ConflictMerge }

func (FieldMergeStrategy) Resolve(client, server EntityChange) EntityChange {
	merged := server
	data := server.Data.Clone()
	if data == nil {
		data = make(Payload, len(client.Data))
	}
	for k, v := range client.Data {
		data[k] = v
	}
	merged.Data = data
	return merged
}

// StrategyFor maps a configured strategy name to its implementation.
// ConflictManual has no implementation: manual conflicts are parked for a
// human decision, not auto-resolved.
func StrategyFor(name ConflictResolutionStrategy) (Strategy, bool) {
	switch name {
	case ConflictLastWriteWins:
		return LastWriteWinsStrategy{}, true
	case ConflictServerWins:
		return ServerWinsStrategy{}, true
	case ConflictClientWins:
		return ClientWinsStrategy{}, true
	case ConflictMerge:
		return FieldMergeStrategy{}, true
	}
	return nil, false
}

// ResolveConflict is the entry point for automatic resolution. A nil strategy
// falls back to last-write-wins, the system-wide default exposed to tenants.
func ResolveConflict(client, server EntityChange, strategy Strategy) EntityChange {
	if strategy == nil {
		strategy = LastWriteWinsStrategy{}
	}
	return strategy.Resolve(client, server)
}
