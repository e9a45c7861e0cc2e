package sync

import "testing"

func TestPullRequestPageSize(t *testing.T) {
	cases := []struct {
		limit, want int
	}{
		{0, DefaultPullPageSize},
		{-5, DefaultPullPageSize},
		{200, 200},
		{MaxPullPageSize, MaxPullPageSize},
		{MaxPullPageSize + 500, MaxPullPageSize},
	}

	for _, c := range cases {
		req := &SyncPullRequest{Limit: c.limit}
		if got := req.PageSize(); got != c.want {
			t.Errorf("PageSize() with limit %d = %d, want %d", c.limit, got, c.want)
		}
	}
}

func TestCursorRoundTrip(t *testing.T) {
	for _, id := range []uint64{0, 1, 42, 987654321} {
		cursor := EncodeCursor(id)
		got, err := DecodeCursor(cursor)
		if err != nil {
			t.Fatalf("DecodeCursor(%q) failed: %v", cursor, err)
		}
		if got != id {
			t.Errorf("Cursor round trip: want %d, got %d", id, got)
		}
	}
}

func TestDecodeCursor_Empty(t *testing.T) {
	got, err := DecodeCursor("")
	if err != nil {
		t.Fatalf("Empty cursor must position at the beginning, got error %v", err)
	}
	if got != 0 {
		t.Errorf("Expected 0 for empty cursor, got %d", got)
	}
}

func TestDecodeCursor_Malformed(t *testing.T) {
	for _, cursor := range []string{"%%%", "bm90LWEtbnVtYmVy"} { // second is base64("not-a-number")
		if _, err := DecodeCursor(cursor); err == nil {
			t.Errorf("Expected error for malformed cursor %q", cursor)
		}
	}
}

func TestNewSyncDelta_PreservesOrder(t *testing.T) {
	changes := []EntityChange{
		{Entity: EntityTypeCategory, LocalID: "c-1", Operation: OperationCreate, Version: 0, Timestamp: "2026-02-01T12:00:00Z"},
		{Entity: EntityTypeProduct, LocalID: "p-1", Operation: OperationCreate, Version: 0, Timestamp: "2026-02-01T12:00:01Z"},
		{Entity: EntityTypeProduct, LocalID: "p-1", Operation: OperationUpdate, Version: 1, Timestamp: "2026-02-01T12:00:02Z"},
	}

	delta := NewSyncDelta(changes)
	if delta.DeltaID == "" {
		t.Error("Expected generated delta ID")
	}
	if delta.Len() != 3 {
		t.Fatalf("Expected 3 changes, got %d", delta.Len())
	}
	for i, c := range delta.Changes {
		if c.LocalID != changes[i].LocalID || c.Operation != changes[i].Operation {
			t.Errorf("Change %d reordered: got %+v", i, c)
		}
	}
}
