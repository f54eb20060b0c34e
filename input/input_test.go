package input

import (
	"sync"
	"testing"
)

type shiftMapper struct{}

func (shiftMapper) ToGrid(px, py float32) (float64, float64) {
	return float64(px) / 10, float64(py) / 10
}

func TestDragStateQueuesOnlyWhileActive(t *testing.T) {
	q := NewQueue()
	d := NewDragState(q, shiftMapper{})

	if d.Handle(PointerEvent{Kind: PointerMove, X: 10, Y: 10}) {
		t.Error("move before down should not queue")
	}
	d.Handle(PointerEvent{Kind: PointerDown})
	if !d.Active() {
		t.Fatal("expected active after down")
	}
	if !d.Handle(PointerEvent{Kind: PointerMove, X: 20, Y: 30}) {
		t.Error("move while down should queue")
	}
	d.Handle(PointerEvent{Kind: PointerUp})
	d.Handle(PointerEvent{Kind: PointerMove, X: 40, Y: 40})
	d.Handle(PointerEvent{Kind: PointerDown})
	d.Handle(PointerEvent{Kind: PointerLeave})
	d.Handle(PointerEvent{Kind: PointerMove, X: 50, Y: 50})

	evs := q.Drain()
	if len(evs) != 1 {
		t.Fatalf("got %d events, want 1", len(evs))
	}
	if evs[0].X != 2 || evs[0].Y != 3 {
		t.Errorf("event = %+v, want {2 3}", evs[0])
	}
}

func TestQueueDrainEmpties(t *testing.T) {
	q := NewQueue()
	q.Push(DamageEvent{X: 1, Y: 2})
	q.Push(DamageEvent{X: 3, Y: 4})
	if q.Len() != 2 {
		t.Fatalf("Len = %d, want 2", q.Len())
	}
	evs := q.Drain()
	if len(evs) != 2 || evs[0].X != 1 || evs[1].X != 3 {
		t.Errorf("drain returned %+v", evs)
	}
	if q.Len() != 0 || len(q.Drain()) != 0 {
		t.Error("queue not empty after drain")
	}
}

func TestQueueConcurrentPushNeverLosesOrDuplicates(t *testing.T) {
	q := NewQueue()
	const producers = 8
	const perProducer = 500

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(DamageEvent{X: float64(p), Y: float64(i)})
			}
		}(p)
	}

	seen := make(map[DamageEvent]int)
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	collect := func() {
		for _, ev := range q.Drain() {
			seen[ev]++
		}
	}
	for running := true; running; {
		select {
		case <-done:
			running = false
		default:
			collect()
		}
	}
	collect()

	if len(seen) != producers*perProducer {
		t.Fatalf("saw %d distinct events, want %d", len(seen), producers*perProducer)
	}
	for ev, n := range seen {
		if n != 1 {
			t.Fatalf("event %+v drained %d times", ev, n)
		}
	}
}

func TestPointerKindString(t *testing.T) {
	if PointerMove.String() != "move" || PointerKind(99).String() != "unknown" {
		t.Error("unexpected PointerKind names")
	}
}
