package sync

import "testing"

func TestLatestTimestamp(t *testing.T) {
	earlier := "2026-01-01T10:00:00.000Z"
	later := "2026-01-01T12:00:00.000Z"

	if got := LatestTimestamp(earlier, later); got != later {
		t.Errorf("Expected later timestamp %s, got %s", later, got)
	}

	if got := LatestTimestamp(later, earlier); got != later {
		t.Errorf("Expected later timestamp %s regardless of order, got %s", later, got)
	}
}

func TestLatestTimestamp_TieReturnsFirstArgument(t *testing.T) {
	a := "2026-01-01T12:00:00.000Z"
	b := "2026-01-01T12:00:00.000Z"

	// Callers rely on the asymmetric tie-break to choose which side wins
	// ties by argument order.
	if got := LatestTimestamp(a, b); got != a {
		t.Errorf("Expected first argument verbatim on tie, got %s", got)
	}
}

func TestLatestTimestamp_EqualInstantsDifferentSpelling(t *testing.T) {
	// Same instant, different offsets: still a tie, first argument wins.
	a := "2026-01-01T12:00:00+00:00"
	b := "2026-01-01T12:00:00Z"

	if got := LatestTimestamp(a, b); got != a {
		t.Errorf("Expected first argument on equal instants, got %s", got)
	}
}

func TestLatestTimestamp_UnparsableLoses(t *testing.T) {
	valid := "2026-01-01T12:00:00Z"

	if got := LatestTimestamp("not-a-date", valid); got != valid {
		t.Errorf("Expected valid timestamp to win over garbage, got %s", got)
	}
	if got := LatestTimestamp(valid, "not-a-date"); got != valid {
		t.Errorf("Expected valid timestamp to win over garbage, got %s", got)
	}
	if got := LatestTimestamp("nope", "also-nope"); got != "nope" {
		t.Errorf("Expected first argument when neither parses, got %s", got)
	}
}

func TestIsNewerVersion(t *testing.T) {
	if IsNewerVersion(3, 3) {
		t.Error("Equal versions must not be newer")
	}
	if !IsNewerVersion(4, 3) {
		t.Error("Expected 4 to be newer than 3")
	}
	if IsNewerVersion(2, 3) {
		t.Error("Expected 2 not to be newer than 3")
	}
	if IsNewerVersion(0, 0) {
		t.Error("Equal zero versions must not be newer")
	}
}

func TestNextVersion(t *testing.T) {
	cases := []struct {
		client, server, want int64
	}{
		{2, 3, 4},
		{3, 2, 4},
		{0, 0, 1},
		{7, 7, 8},
	}

	for _, c := range cases {
		got := NextVersion(c.client, c.server)
		if got != c.want {
			t.Errorf("NextVersion(%d, %d) = %d, want %d", c.client, c.server, got, c.want)
		}
		if got <= c.client || got <= c.server {
			t.Errorf("NextVersion(%d, %d) = %d must strictly exceed both inputs", c.client, c.server, got)
		}
	}
}

func TestParseTimestamp(t *testing.T) {
	valid := []string{
		"2026-01-01T12:00:00.000Z",
		"2026-01-01T12:00:00Z",
		"2026-01-01T12:00:00+02:00",
		"2026-01-01T12:00:00",
		"2026-01-01",
	}
	for _, s := range valid {
		if _, err := ParseTimestamp(s); err != nil {
			t.Errorf("Expected %q to parse, got %v", s, err)
		}
	}

	invalid := []string{"", "yesterday", "2026-13-45T99:00:00Z"}
	for _, s := range invalid {
		if _, err := ParseTimestamp(s); err == nil {
			t.Errorf("Expected %q to fail parsing", s)
		}
	}
}
