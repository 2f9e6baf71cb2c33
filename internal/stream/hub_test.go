package stream

import (
	"errors"
	"testing"

	"github.com/roman-kulish/wrist-telemetry/internal/loop"
)

type fakeUpstream struct {
	starts, stops int
	failStart     error
	emit          func(float64)
}

func (f *fakeUpstream) Start(emit func(float64)) error {
	if f.failStart != nil {
		return f.failStart
	}
	f.starts++
	f.emit = emit
	return nil
}

func (f *fakeUpstream) Stop() error {
	f.stops++
	f.emit = nil
	return nil
}

func TestHub_StartsOnceAndStopsAfterLastListener(t *testing.T) {
	up := &fakeUpstream{}
	h := NewHub[float64]("pressure", up, loop.NewQueue())

	a, err := h.Subscribe(func(float64) {})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	b, err := h.Subscribe(func(float64) {})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if up.starts != 1 {
		t.Fatalf("expected a single upstream start, got %d", up.starts)
	}

	if !h.Unsubscribe(a) {
		t.Fatal("expected first handle to be registered")
	}
	if up.stops != 0 {
		t.Fatalf("upstream stopped while a listener remains")
	}
	if h.Unsubscribe(a) {
		t.Fatal("expected second unsubscribe of the same handle to be a no-op")
	}
	h.Unsubscribe(b)
	if up.stops != 1 || h.Running() {
		t.Fatalf("expected upstream stopped once, got stops=%d running=%v", up.stops, h.Running())
	}
}

func TestHub_DeliversOnQueueInOrder(t *testing.T) {
	q := loop.NewQueue()
	up := &fakeUpstream{}
	h := NewHub[float64]("pressure", up, q)

	var got []string
	_, _ = h.Subscribe(func(v float64) { got = append(got, "a") })
	_, _ = h.Subscribe(func(v float64) { got = append(got, "b") })

	up.emit(1)
	if len(got) != 0 {
		t.Fatal("listeners ran before the queue was drained")
	}

	q.Drain()
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("expected [a b], got %v", got)
	}
}

func TestHub_StartFailureRegistersNothing(t *testing.T) {
	up := &fakeUpstream{failStart: errors.New("sensor busy")}
	h := NewHub[float64]("pressure", up, loop.NewQueue())

	if _, err := h.Subscribe(func(float64) {}); err == nil {
		t.Fatal("expected error")
	}
	if h.Len() != 0 || h.Running() {
		t.Fatalf("expected nothing registered, got len=%d running=%v", h.Len(), h.Running())
	}
}

func TestHub_ListenerRemovedDuringDispatch(t *testing.T) {
	q := loop.NewQueue()
	up := &fakeUpstream{}
	h := NewHub[float64]("pressure", up, q)

	var second Handle
	calledSecond := false
	_, _ = h.Subscribe(func(float64) { h.Unsubscribe(second) })
	second, _ = h.Subscribe(func(float64) { calledSecond = true })

	h.Publish(1)
	q.Drain()

	if calledSecond {
		t.Error("listener removed earlier in the dispatch must not be called")
	}
}
