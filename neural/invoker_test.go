package neural

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gorgonia.org/tensor"

	"github.com/pthm-cable/regrow/grid"
)

func seeded(t *testing.T, h, w, c int) *grid.State {
	t.Helper()
	s, err := grid.NewSeeded(h, w, c)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func reasonOf(t *testing.T, err error) Reason {
	t.Helper()
	var ie *InvocationError
	if !errors.As(err, &ie) {
		t.Fatalf("expected *InvocationError, got %T: %v", err, err)
	}
	return ie.Reason
}

func TestInvokerIdentity(t *testing.T) {
	s := seeded(t, 6, 5, 8)
	inv := NewInvoker(Identity{})

	out, err := inv.Step(context.Background(), s, 0)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if out == s {
		t.Error("expected a new state, got the input pointer")
	}
	if !out.Equal(s) {
		t.Error("identity changed the state")
	}
	if inv.Calls() != 1 {
		t.Errorf("Calls = %d, want 1", inv.Calls())
	}
}

func TestInvokerPacksShapeAndAngle(t *testing.T) {
	s := seeded(t, 4, 7, 5)
	var gotShape tensor.Shape
	var gotAngle float64
	m := ModelFunc(func(_ context.Context, x, a *tensor.Dense) (*tensor.Dense, error) {
		gotShape = x.Shape().Clone()
		v, err := AngleValue(a)
		if err != nil {
			return nil, err
		}
		gotAngle = v
		return x, nil
	})
	if _, err := NewInvoker(m).Step(context.Background(), s, 0.25); err != nil {
		t.Fatal(err)
	}
	if !gotShape.Eq(tensor.Shape{1, 4, 7, 5}) {
		t.Errorf("input shape = %v, want (1, 4, 7, 5)", gotShape)
	}
	if gotAngle != 0.25 {
		t.Errorf("angle = %v, want 0.25", gotAngle)
	}
}

func TestInvokerDoesNotExposeInputBuffer(t *testing.T) {
	s := seeded(t, 4, 4, 4)
	before := s.Clone()
	m := ModelFunc(func(_ context.Context, x, _ *tensor.Dense) (*tensor.Dense, error) {
		data := x.Data().([]float32)
		for i := range data {
			data[i] = 9
		}
		return x, nil
	})
	out, err := NewInvoker(m).Step(context.Background(), s, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !s.Equal(before) {
		t.Error("model wrote through to the input state")
	}
	if out.Cells[0] != 9 {
		t.Error("expected model output in the result")
	}
}

func TestInvokerShapeMismatch(t *testing.T) {
	s := seeded(t, 4, 4, 4)
	cases := map[string]ModelFunc{
		"wrong dims": func(context.Context, *tensor.Dense, *tensor.Dense) (*tensor.Dense, error) {
			return tensor.New(tensor.WithShape(1, 4, 4, 3), tensor.WithBacking(make([]float32, 48))), nil
		},
		"wrong rank": func(context.Context, *tensor.Dense, *tensor.Dense) (*tensor.Dense, error) {
			return tensor.New(tensor.WithShape(4, 4, 4), tensor.WithBacking(make([]float32, 64))), nil
		},
		"wrong dtype": func(context.Context, *tensor.Dense, *tensor.Dense) (*tensor.Dense, error) {
			return tensor.New(tensor.WithShape(1, 4, 4, 4), tensor.WithBacking(make([]float64, 64))), nil
		},
		"nil output": func(context.Context, *tensor.Dense, *tensor.Dense) (*tensor.Dense, error) {
			return nil, nil
		},
	}
	for name, m := range cases {
		_, err := NewInvoker(m).Step(context.Background(), s, 0)
		if err == nil {
			t.Errorf("%s: expected error", name)
			continue
		}
		if r := reasonOf(t, err); r != ReasonShape {
			t.Errorf("%s: reason = %s, want %s", name, r, ReasonShape)
		}
	}
}

func TestInvokerRuntimeErrors(t *testing.T) {
	s := seeded(t, 3, 3, 4)
	boom := errors.New("boom")

	_, err := NewInvoker(ModelFunc(func(context.Context, *tensor.Dense, *tensor.Dense) (*tensor.Dense, error) {
		return nil, boom
	})).Step(context.Background(), s, 0)
	if reasonOf(t, err) != ReasonRuntime || !errors.Is(err, boom) {
		t.Errorf("expected runtime error wrapping boom, got %v", err)
	}

	_, err = NewInvoker(ModelFunc(func(context.Context, *tensor.Dense, *tensor.Dense) (*tensor.Dense, error) {
		panic("kaput")
	})).Step(context.Background(), s, 0)
	if reasonOf(t, err) != ReasonRuntime {
		t.Errorf("expected runtime error from panic, got %v", err)
	}
}

func TestInvokerUnavailable(t *testing.T) {
	s := seeded(t, 3, 3, 4)
	_, err := NewInvoker(nil).Step(context.Background(), s, 0)
	if reasonOf(t, err) != ReasonUnavailable || !errors.Is(err, ErrNoModel) {
		t.Errorf("expected unavailable, got %v", err)
	}

	var inv *Invoker
	if _, err := inv.Step(context.Background(), s, 0); reasonOf(t, err) != ReasonUnavailable {
		t.Errorf("nil invoker: expected unavailable, got %v", err)
	}
}

func TestInvokerRejectsConcurrentEntry(t *testing.T) {
	s := seeded(t, 3, 3, 4)
	entered := make(chan struct{})
	release := make(chan struct{})
	m := ModelFunc(func(_ context.Context, x, _ *tensor.Dense) (*tensor.Dense, error) {
		close(entered)
		<-release
		return x, nil
	})
	inv := NewInvoker(m)

	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		_, firstErr = inv.Step(context.Background(), s, 0)
	}()
	<-entered

	if !inv.Busy() {
		t.Error("expected invoker to be busy")
	}
	_, err := inv.Step(context.Background(), s, 0)
	if reasonOf(t, err) != ReasonBusy {
		t.Errorf("expected busy, got %v", err)
	}

	close(release)
	wg.Wait()
	if firstErr != nil {
		t.Errorf("first call failed: %v", firstErr)
	}
	if inv.Busy() {
		t.Error("invoker still busy after call returned")
	}
}

func TestInvokerTimeout(t *testing.T) {
	s := seeded(t, 3, 3, 4)
	release := make(chan struct{})
	var finished atomic.Bool
	m := ModelFunc(func(_ context.Context, x, _ *tensor.Dense) (*tensor.Dense, error) {
		<-release
		finished.Store(true)
		return x, nil
	})
	inv := NewInvoker(m, WithTimeout(20*time.Millisecond))

	_, err := inv.Step(context.Background(), s, 0)
	if reasonOf(t, err) != ReasonTimeout {
		t.Fatalf("expected timeout, got %v", err)
	}
	if !inv.Busy() {
		t.Error("invoker should stay busy while the abandoned call runs")
	}

	close(release)
	deadline := time.Now().Add(time.Second)
	for inv.Busy() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if inv.Busy() || !finished.Load() {
		t.Error("abandoned call did not finish")
	}
}

func TestInvokerTimeoutNotHitWhenFast(t *testing.T) {
	s := seeded(t, 3, 3, 4)
	inv := NewInvoker(Identity{}, WithTimeout(time.Second))
	out, err := inv.Step(context.Background(), s, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !out.Equal(s) {
		t.Error("unexpected output")
	}
}

func TestInvokerRejectsMalformedState(t *testing.T) {
	bad := &grid.State{Height: 2, Width: 2, Channels: 4, Cells: make([]float32, 5)}
	_, err := NewInvoker(Identity{}).Step(context.Background(), bad, 0)
	if reasonOf(t, err) != ReasonShape {
		t.Errorf("expected shape error, got %v", err)
	}
}

func TestAngleValue(t *testing.T) {
	v, err := AngleValue(PackAngle(1.5))
	if err != nil || v != 1.5 {
		t.Errorf("AngleValue = %v, %v; want 1.5", v, err)
	}
	v, err = AngleValue(tensor.New(tensor.WithShape(1), tensor.WithBacking([]float32{0.5})))
	if err != nil || v != 0.5 {
		t.Errorf("AngleValue float32 = %v, %v; want 0.5", v, err)
	}
	if _, err := AngleValue(nil); err == nil {
		t.Error("expected error for nil angle")
	}
}
