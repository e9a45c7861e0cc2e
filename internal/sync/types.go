package sync

// Operation represents the kind of mutation carried by an EntityChange
type Operation string

const (
	OperationCreate Operation = "CREATE"
	OperationUpdate Operation = "UPDATE"
	OperationDelete Operation = "DELETE"
)

// IsValid reports whether the operation is one of the three sync operations
func (op Operation) IsValid() bool {
	switch op {
	case OperationCreate, OperationUpdate, OperationDelete:
		return true
	}
	return false
}

// EntityType represents the logical table an EntityChange belongs to.
// The set is closed: only these names are synchronizable.
type EntityType string

const (
	EntityTypeProduct   EntityType = "product"
	EntityTypeCategory  EntityType = "category"
	EntityTypeCustomer  EntityType = "customer"
	EntityTypeOrder     EntityType = "order"
	EntityTypeOrderItem EntityType = "order_item"
	EntityTypePayment   EntityType = "payment"
)

// SyncableEntityTypes lists every entity type the protocol accepts,
// in parent-before-child order.
var SyncableEntityTypes = []EntityType{
	EntityTypeCategory,
	EntityTypeProduct,
	EntityTypeCustomer,
	EntityTypeOrder,
	EntityTypeOrderItem,
	EntityTypePayment,
}

// IsSyncable reports whether the entity type belongs to the closed set
func (et EntityType) IsSyncable() bool {
	for _, t := range SyncableEntityTypes {
		if t == et {
			return true
		}
	}
	return false
}

// ConflictResolutionStrategy defines how to resolve conflicts
type ConflictResolutionStrategy string

const (
	ConflictLastWriteWins ConflictResolutionStrategy = "LAST_WRITE_WINS"
	ConflictServerWins    ConflictResolutionStrategy = "SERVER_WINS"
	ConflictClientWins    ConflictResolutionStrategy = "CLIENT_WINS"
	ConflictMerge         ConflictResolutionStrategy = "MERGE"
	ConflictManual        ConflictResolutionStrategy = "MANUAL"
)

// ConflictStatus represents the lifecycle state of a SyncConflict
type ConflictStatus string

const (
	ConflictStatusPending  ConflictStatus = "pending"
	ConflictStatusResolved ConflictStatus = "resolved"
)

// SyncMode reported by the status probe
type SyncMode string

const (
	SyncModeLocal  SyncMode = "local"
	SyncModeCloud  SyncMode = "cloud"
	SyncModeHybrid SyncMode = "hybrid"
)

// CloudDeviceID marks change-log rows originated by the server itself
// (cloud API writes, conflict resolutions) rather than a register. Every
// register pulls them.
const CloudDeviceID = "cloud"

// Protocol limits and timing. Clients and server must agree on these.
const (
	// MaxPushBatchSize is the maximum number of changes in one push request
	MaxPushBatchSize = 1000

	// DefaultPullPageSize is the page size used when a pull request has no limit
	DefaultPullPageSize = 500

	// MaxPullPageSize caps the limit a pull request may ask for
	MaxPullPageSize = 1000

	// AutoSyncIntervalSeconds is the standard automatic sync interval
	AutoSyncIntervalSeconds = 300

	// MaxRetryAttempts is the number of attempts for a failed sync cycle
	MaxRetryAttempts = 3

	// RetryBaseDelayMs is the starting delay for exponential back-off
	RetryBaseDelayMs = 1000
)
