package permission

import (
	"context"
	"errors"
	"testing"

	"github.com/roman-kulish/wrist-telemetry/internal/loop"
)

type memStore struct {
	saved map[string]string
}

func (m *memStore) SavePermission(_ context.Context, c, s string) error {
	if m.saved == nil {
		m.saved = make(map[string]string)
	}
	m.saved[c] = s
	return nil
}

func (m *memStore) Permissions(context.Context) (map[string]string, error) {
	return m.saved, nil
}

type change struct {
	c       Capability
	granted bool
}

func TestRegistry_DefaultsToDenied(t *testing.T) {
	r, err := NewRegistry(loop.NewQueue())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Has(Location) {
		t.Error("expected location to be denied by default")
	}
	if !r.CanAskAgain(Location) {
		t.Error("expected to be able to ask for an unset capability")
	}
}

func TestRegistry_SetAppliesOnQueue(t *testing.T) {
	q := loop.NewQueue()
	r, _ := NewRegistry(q)

	var got []change
	r.Watch(func(c Capability, granted bool) { got = append(got, change{c, granted}) })

	if err := r.Set(Location, Granted); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Has(Location) {
		t.Fatal("status changed before the queue was drained")
	}

	q.Drain()
	if !r.Has(Location) {
		t.Fatal("expected location granted")
	}
	if len(got) != 1 || got[0] != (change{Location, true}) {
		t.Fatalf("expected one grant notification, got %v", got)
	}

	// no-op when unchanged
	_ = r.Set(Location, Granted)
	q.Drain()
	if len(got) != 1 {
		t.Fatalf("expected no notification for an unchanged status, got %v", got)
	}

	_ = r.Set(Location, DeniedDoNotAskAgain)
	q.Drain()
	if len(got) != 2 || got[1] != (change{Location, false}) {
		t.Fatalf("expected a revoke notification, got %v", got)
	}
	if r.CanAskAgain(Location) {
		t.Error("expected CanAskAgain false after denied_do_not_ask_again")
	}

	// denied <-> denied_do_not_ask_again does not flip the gate
	_ = r.Set(Location, Denied)
	q.Drain()
	if len(got) != 2 {
		t.Fatalf("expected no notification between denied statuses, got %v", got)
	}
}

func TestRegistry_InvalidStatus(t *testing.T) {
	r, _ := NewRegistry(loop.NewQueue())
	if err := r.Set(Location, Status("maybe")); !errors.Is(err, ErrUnknownStatus) {
		t.Fatalf("expected ErrUnknownStatus, got %v", err)
	}
}

func TestRegistry_PersistsStatuses(t *testing.T) {
	store := &memStore{saved: map[string]string{"location": "granted", "camera": "granted", "body_sensors": "???"}}
	q := loop.NewQueue()

	r, err := NewRegistry(q, WithStore(store))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.Has(Location) {
		t.Fatal("expected saved grant to be loaded")
	}
	if r.Has(BodySensors) {
		t.Fatal("expected invalid saved status to be ignored")
	}

	_ = r.Set(BodySensors, Granted)
	q.Drain()
	if store.saved["body_sensors"] != "granted" {
		t.Errorf("expected status saved, got %v", store.saved)
	}
}
