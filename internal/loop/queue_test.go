package loop

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestQueue_DrainPreservesOrder(t *testing.T) {
	q := NewQueue()

	var got []int
	for i := 0; i < 10; i++ {
		if err := q.Post("n", func() { got = append(got, i) }); err != nil {
			t.Fatalf("post %d: %v", i, err)
		}
	}

	if n := q.Drain(); n != 10 {
		t.Fatalf("expected 10 events, got %d", n)
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("event %d ran out of order: %v", i, got)
		}
	}
}

func TestQueue_DrainRunsNestedEvents(t *testing.T) {
	q := NewQueue()

	var order []string
	_ = q.Post("outer", func() {
		order = append(order, "outer")
		_ = q.Post("inner", func() { order = append(order, "inner") })
	})
	_ = q.Post("second", func() { order = append(order, "second") })

	q.Drain()

	want := []string{"outer", "second", "inner"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
	if q.Len() != 0 {
		t.Errorf("expected empty queue, got %d", q.Len())
	}
}

func TestQueue_PostFromManyGoroutines(t *testing.T) {
	q := NewQueue()

	const producers, perProducer = 8, 100
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				_ = q.Post("tick", func() {})
			}
		}()
	}
	wg.Wait()

	if n := q.Drain(); n != producers*perProducer {
		t.Fatalf("expected %d events, got %d", producers*perProducer, n)
	}
}

func TestQueue_Closed(t *testing.T) {
	q := NewQueue()
	ran := false
	_ = q.Post("before", func() { ran = true })
	q.Close()

	if err := q.Post("after", func() {}); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("expected ErrQueueClosed, got %v", err)
	}
	q.Drain()
	if !ran {
		t.Error("expected pending event to run after close")
	}
}

func TestQueue_Run(t *testing.T) {
	q := NewQueue()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- q.Run(ctx) }()

	ran := make(chan struct{})
	_ = q.Post("signal", func() { close(ran) })

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("event was not drained")
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
