package grid

import (
	"fmt"
	"time"

	"github.com/roman-kulish/wrist-telemetry/internal/permission"
	"github.com/roman-kulish/wrist-telemetry/internal/stream"
	"github.com/roman-kulish/wrist-telemetry/internal/telemetry"
)

var testNow = time.Date(2025, time.June, 21, 12, 0, 0, 0, time.UTC)

type fakeGate map[permission.Capability]bool

func (g fakeGate) Has(c permission.Capability) bool {
	return g[c]
}

func testEnv(gate permission.Gate) Env {
	return Env{
		Gate:     gate,
		Now:      func() time.Time { return testNow },
		Timezone: time.UTC,
	}
}

type fakeSource[T any] struct {
	next         int
	listeners    map[stream.Handle]func(T)
	subscribes   int
	unsubscribes int
	fail         error
}

func (s *fakeSource[T]) Subscribe(fn func(T)) (stream.Handle, error) {
	if s.fail != nil {
		return "", s.fail
	}
	if s.listeners == nil {
		s.listeners = make(map[stream.Handle]func(T))
	}
	s.next++
	h := stream.Handle(fmt.Sprintf("h%d", s.next))
	s.listeners[h] = fn
	s.subscribes++
	return h, nil
}

func (s *fakeSource[T]) Unsubscribe(h stream.Handle) bool {
	if _, ok := s.listeners[h]; !ok {
		return false
	}
	delete(s.listeners, h)
	s.unsubscribes++
	return true
}

func (s *fakeSource[T]) emit(v T) {
	for _, fn := range s.listeners {
		fn(v)
	}
}

func (s *fakeSource[T]) active() int {
	return len(s.listeners)
}

type fakeLocation struct {
	fakeSource[telemetry.Fix]
	last *telemetry.Fix
}

func (l *fakeLocation) LastKnown() (telemetry.Fix, bool) {
	if l.last == nil {
		return telemetry.Fix{}, false
	}
	return *l.last, true
}

type fakeBattery struct {
	level int
	ok    bool
}

func (b fakeBattery) Level() (int, bool) {
	return b.level, b.ok
}
