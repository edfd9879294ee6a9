package store

import (
	"context"
	"testing"

	"github.com/roach88/criteria/internal/ir"
)

func TestReadEvents_EmptyReturnsEmptySlice(t *testing.T) {
	s := createTestStore(t)

	events, err := s.ReadEvents(context.Background())
	if err != nil {
		t.Fatalf("ReadEvents() failed: %v", err)
	}
	if events == nil {
		t.Error("ReadEvents() returned nil, want empty slice")
	}
}

func TestReadEvents_InsertionOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	names := []string{"zeta", "alpha", "mid", "alpha"}
	for _, name := range names {
		if _, err := s.AppendEvent(ctx, createTestEvent(name)); err != nil {
			t.Fatalf("AppendEvent() failed: %v", err)
		}
	}

	stored, err := s.ReadEvents(ctx)
	if err != nil {
		t.Fatalf("ReadEvents() failed: %v", err)
	}
	if len(stored) != len(names) {
		t.Fatalf("len(events) = %d, want %d", len(stored), len(names))
	}

	for i, ev := range Events(stored) {
		got, _ := ev.GetString(ir.FieldEventName)
		if got != names[i] {
			t.Errorf("events[%d] name = %q, want %q", i, got, names[i])
		}
		if stored[i].Seq != int64(i+1) {
			t.Errorf("events[%d] seq = %d, want %d", i, stored[i].Seq, i+1)
		}
	}
}

func TestReadEvents_RoundTripsValues(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	ev := ir.Event{
		ir.FieldEventType: ir.IRString(ir.EventTypePurchase),
		ir.FieldTotal:     ir.IRFloat(14.67),
		ir.FieldItems: ir.ItemsToArray([]ir.Item{
			{ID: "1", Name: "keyboard", Price: 4.67, Quantity: 3, Categories: []string{"pc"}},
		}),
		ir.FieldDataFields: ir.IRObject{"coupon": ir.IRNull{}},
	}
	if _, err := s.AppendEvent(ctx, ev); err != nil {
		t.Fatalf("AppendEvent() failed: %v", err)
	}

	stored, err := s.ReadEvents(ctx)
	if err != nil {
		t.Fatalf("ReadEvents() failed: %v", err)
	}
	got, err := ir.MarshalCanonical(stored[0].Event)
	if err != nil {
		t.Fatalf("MarshalCanonical() failed: %v", err)
	}
	want, _ := ir.MarshalCanonical(ev)
	if string(got) != string(want) {
		t.Errorf("round trip = %s, want %s", got, want)
	}
}

func TestCountEvents(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, ev := range []ir.Event{
		createTestEvent("a"),
		createTestEvent("b"),
		{ir.FieldEventType: ir.IRString(ir.EventTypePurchase)},
		{"untyped": ir.IRBool(true)},
	} {
		if _, err := s.AppendEvent(ctx, ev); err != nil {
			t.Fatalf("AppendEvent() failed: %v", err)
		}
	}

	counts, err := s.CountEvents(ctx)
	if err != nil {
		t.Fatalf("CountEvents() failed: %v", err)
	}
	want := map[string]int{ir.EventTypeCustom: 2, ir.EventTypePurchase: 1, "": 1}
	if len(counts) != len(want) {
		t.Fatalf("counts = %v, want %v", counts, want)
	}
	for k, n := range want {
		if counts[k] != n {
			t.Errorf("counts[%q] = %d, want %d", k, counts[k], n)
		}
	}
}

func TestReadUserUpdate_Missing(t *testing.T) {
	s := createTestStore(t)

	update, ok, err := s.ReadUserUpdate(context.Background())
	if err != nil {
		t.Fatalf("ReadUserUpdate() failed: %v", err)
	}
	if ok || update != nil {
		t.Errorf("ReadUserUpdate() = %v, %v, want nil, false", update, ok)
	}
}

func TestConsent_DefaultsFalse(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	consent, err := s.Consent(ctx)
	if err != nil {
		t.Fatalf("Consent() failed: %v", err)
	}
	if consent {
		t.Error("Consent() = true before SetConsent")
	}

	for _, want := range []bool{true, false, true} {
		if err := s.SetConsent(ctx, want); err != nil {
			t.Fatalf("SetConsent(%v) failed: %v", want, err)
		}
		got, err := s.Consent(ctx)
		if err != nil {
			t.Fatalf("Consent() failed: %v", err)
		}
		if got != want {
			t.Errorf("Consent() = %v, want %v", got, want)
		}
	}
}

func TestReadMatch_NoneRecorded(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, ok, err := s.ReadMatch(ctx); err != nil || ok {
		t.Errorf("ReadMatch() on fresh store = %v, %v", ok, err)
	}

	// A visitor row without a match is still no match.
	if err := s.SetConsent(ctx, true); err != nil {
		t.Fatalf("SetConsent() failed: %v", err)
	}
	if _, ok, err := s.ReadMatch(ctx); err != nil || ok {
		t.Errorf("ReadMatch() with consent only = %v, %v", ok, err)
	}
}
