package store

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/roach88/criteria/internal/ir"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestEvent creates a custom event with the given name.
func createTestEvent(name string) ir.Event {
	return ir.Event{
		ir.FieldEventType: ir.IRString(ir.EventTypeCustom),
		ir.FieldEventName: ir.IRString(name),
	}
}

func nan() float64 { return math.NaN() }
