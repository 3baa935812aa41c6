package core

import (
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

// TestIDShort tests the log-friendly suffix
func TestIDShort(t *testing.T) {
	if got := ID("abc").Short(); got != "abc" {
		t.Errorf("Expected short ID 'abc', got '%s'", got)
	}
	if got := ID("0190c3f2-7a1b-7cde-8f00-123456789abc").Short(); got != "56789abc" {
		t.Errorf("Expected short ID '56789abc', got '%s'", got)
	}
}

// TestParseDatasetID tests dataset ID parsing
func TestParseDatasetID(t *testing.T) {
	fresh := NewDatasetID()
	parsed, err := ParseDatasetID(fresh.String())
	if err != nil {
		t.Fatalf("Expected fresh ID to parse, got error: %v", err)
	}
	if parsed != fresh {
		t.Errorf("Expected %s, got %s", fresh, parsed)
	}

	for _, bad := range []string{"", "   ", "not-a-uuid"} {
		if _, err := ParseDatasetID(bad); err == nil {
			t.Errorf("Expected error for %q", bad)
		}
	}
}

func TestHash(t *testing.T) {
	a := NewHash([]byte("x,y\n1,2\n"))
	b := NewHash([]byte("x,y\n1,2\n"))
	c := NewHash([]byte("x,y\n1,3\n"))

	if !a.Equals(b) || a.Equals(c) {
		t.Fatalf("hash equality broken: %s %s %s", a, b, c)
	}
	if len(a.String()) != 64 || len(a.Short()) != 12 {
		t.Errorf("unexpected lengths %d/%d", len(a.String()), len(a.Short()))
	}
	if !Hash("").IsEmpty() {
		t.Error("empty hash should report IsEmpty")
	}
}
