package sync

import (
	"time"

	"github.com/google/uuid"
)

// SyncConflict records a detected divergence: client and server each hold a
// different version of the same entity since the last sync point. A conflict
// is data, not an error; it is either settled automatically by a strategy or
// parked for manual resolution.
type SyncConflict struct {
	ID       string     `json:"id"`
	Entity   EntityType `json:"entity"`
	EntityID string     `json:"entityId"`
	LocalID  string     `json:"localId,omitempty"`
	CloudID  string     `json:"cloudId,omitempty"`

	ClientVersion EntityChange `json:"clientVersion"`
	ServerVersion EntityChange `json:"serverVersion"`

	Strategy ConflictResolutionStrategy `json:"strategy"`
	Resolved bool                       `json:"resolved"`

	// ResolvedChange is the winning change once the conflict is settled
	ResolvedChange *EntityChange `json:"resolvedChange,omitempty"`

	CreatedAt  time.Time  `json:"createdAt"`
	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`
	ResolvedBy string     `json:"resolvedBy,omitempty"`
}

// NewSyncConflict builds a pending conflict from the two competing changes
func NewSyncConflict(client, server EntityChange, strategy ConflictResolutionStrategy) *SyncConflict {
	entityID := server.EntityID
	if entityID == "" {
		entityID = client.EntityID
	}
	cloudID := server.CloudID
	if cloudID == "" {
		cloudID = client.CloudID
	}
	return &SyncConflict{
		ID:            uuid.New().String(),
		Entity:        server.Entity,
		EntityID:      entityID,
		LocalID:       client.LocalID,
		CloudID:       cloudID,
		ClientVersion: client,
		ServerVersion: server,
		Strategy:      strategy,
		Resolved:      false,
		CreatedAt:     time.Now().UTC(),
	}
}

// Status returns the lifecycle state of the conflict
func (sc *SyncConflict) Status() ConflictStatus {
	if sc.Resolved {
		return ConflictStatusResolved
	}
	return ConflictStatusPending
}

// ConflictResolver applies the configured resolution policy to conflicts.
// Strategy selection (per entity type, per tenant) is external policy; the
// resolver is agnostic to why a strategy was chosen, only how it resolves.
type ConflictResolver struct {
	defaultStrategy ConflictResolutionStrategy
	perEntity       map[EntityType]ConflictResolutionStrategy
}

// NewConflictResolver creates a resolver with the given default strategy and
// optional per-entity overrides. An empty default falls back to last-write-wins.
func NewConflictResolver(defaultStrategy ConflictResolutionStrategy, perEntity map[EntityType]ConflictResolutionStrategy) *ConflictResolver {
	if defaultStrategy == "" {
		defaultStrategy = ConflictLastWriteWins
	}
	return &ConflictResolver{
		defaultStrategy: defaultStrategy,
		perEntity:       perEntity,
	}
}

// StrategyForEntity returns the strategy name configured for an entity type
func (cr *ConflictResolver) StrategyForEntity(entity EntityType) ConflictResolutionStrategy {
	if s, ok := cr.perEntity[entity]; ok && s != "" {
		return s
	}
	return cr.defaultStrategy
}

// Resolve settles the conflict with the configured strategy. When the
// configured strategy is MANUAL the conflict stays pending and false is
// returned: the surrounding system surfaces it to a human decision.
func (cr *ConflictResolver) Resolve(conflict *SyncConflict) bool {
	name := cr.StrategyForEntity(conflict.Entity)
	conflict.Strategy = name

	strategy, ok := StrategyFor(name)
	if !ok {
		return false
	}

	winner := ResolveConflict(conflict.ClientVersion, conflict.ServerVersion, strategy)
	cr.settle(conflict, winner, "")
	return true
}

// ManualResolve settles a parked conflict with an explicitly chosen winner
func (cr *ConflictResolver) ManualResolve(conflict *SyncConflict, winner EntityChange, resolvedBy string) {
	conflict.Strategy = ConflictManual
	cr.settle(conflict, winner, resolvedBy)
}

func (cr *ConflictResolver) settle(conflict *SyncConflict, winner EntityChange, resolvedBy string) {
	// The reconciled record must supersede both inputs regardless of which
	// side won the data.
	winner.Version = NextVersion(conflict.ClientVersion.Version, conflict.ServerVersion.Version)

	now := time.Now().UTC()
	// The settled record needs a change time of its own or it loses every
	// later timestamp comparison.
	if winner.Timestamp == "" {
		winner.Timestamp = now.Format(time.RFC3339Nano)
	}
	conflict.Resolved = true
	conflict.ResolvedChange = &winner
	conflict.ResolvedAt = &now
	conflict.ResolvedBy = resolvedBy
}
