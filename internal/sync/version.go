package sync

import (
	"fmt"
	"time"
)

// timestampLayouts lists the accepted ISO-8601 shapes, most common first
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp string
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid ISO-8601 timestamp: %q", s)
}

// LatestTimestamp returns whichever of a and b is chronologically later.
// When the two instants are equal it returns a verbatim: callers choose which
// side wins ties by argument order (pass the server first for server-biased
// ties). An unparsable argument loses to a parsable one; if neither parses,
// a is returned.
func LatestTimestamp(a, b string) string {
	ta, errA := ParseTimestamp(a)
	tb, errB := ParseTimestamp(b)

	if errA != nil && errB != nil {
		return a
	}
	if errA != nil {
		return b
	}
	if errB != nil {
		return a
	}

	if tb.After(ta) {
		return b
	}
	return a
}

// IsNewerVersion reports whether incoming strictly supersedes existing.
// Equal versions are not newer: re-delivering the same version must be a
// no-op on the consuming side.
func IsNewerVersion(incoming, existing int64) bool {
	return incoming > existing
}

// NextVersion computes the version to adopt after a merge:
// max(client, server) + 1, so the post-merge version strictly exceeds both
// prior versions regardless of which side won the data.
func NextVersion(clientVersion, serverVersion int64) int64 {
	if clientVersion > serverVersion {
		return clientVersion + 1
	}
	return serverVersion + 1
}
