package sync

import "fmt"

// ValidationResult reports the outcome of a structural validation pass.
// Failures are data, never errors: the caller decides whether to reject the
// whole batch, drop the offending changes, or report back to the device.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

func (vr *ValidationResult) addError(format string, args ...interface{}) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, fmt.Sprintf(format, args...))
}

// ValidateEntityChange checks a single change for structural validity.
// All applicable errors are accumulated so a device gets the full list in
// one round trip.
func ValidateEntityChange(change *EntityChange) ValidationResult {
	result := ValidationResult{Valid: true}

	if change == nil {
		result.addError("change must not be nil")
		return result
	}

	if change.Entity == "" {
		result.addError("entity must be a non-empty string")
	} else if !change.Entity.IsSyncable() {
		result.addError("unknown entity type: %s", change.Entity)
	}

	if !change.Operation.IsValid() {
		result.addError("Invalid operation: %s", change.Operation)
	}

	if change.Version < 0 {
		result.addError("version must be a non-negative number")
	}

	if _, err := ParseTimestamp(change.Timestamp); err != nil {
		result.addError("timestamp must be a valid ISO-8601 string")
	}

	return result
}

// ValidateSyncPushRequest gates an inbound push before it reaches conflict
// resolution or storage. Batch-level violations (missing tenant/device, batch
// too large) are reported first; a batch-size violation short-circuits the
// per-change checks since the caller must split the batch, not fix records.
func ValidateSyncPushRequest(req *SyncPushRequest) ValidationResult {
	result := ValidationResult{Valid: true}

	if req == nil {
		result.addError("request must not be nil")
		return result
	}

	if req.TenantID == "" {
		result.addError("tenantId is required")
	}
	if req.DeviceID == "" {
		result.addError("deviceId is required")
	}

	if req.Changes == nil {
		result.addError("changes must be an array")
		return result
	}

	if len(req.Changes) > MaxPushBatchSize {
		result.addError("changes exceeds maximum batch size of %d (got %d)", MaxPushBatchSize, len(req.Changes))
		return result
	}

	for i := range req.Changes {
		cr := ValidateEntityChange(&req.Changes[i])
		for _, msg := range cr.Errors {
			result.addError("changes[%d]: %s", i, msg)
		}
	}

	return result
}
