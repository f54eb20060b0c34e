package neural

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"gorgonia.org/tensor"

	"github.com/pthm-cable/regrow/grid"
)

// Invoker runs the transition model on grid states, one call at a time.
type Invoker struct {
	model   Model
	timeout time.Duration
	busy    atomic.Bool
	calls   atomic.Uint64
}

// InvokerOption configures an Invoker.
type InvokerOption func(*Invoker)

// WithTimeout bounds each call. Zero waits indefinitely.
func WithTimeout(d time.Duration) InvokerOption {
	return func(inv *Invoker) {
		inv.timeout = d
	}
}

// NewInvoker wraps a model.
func NewInvoker(m Model, opts ...InvokerOption) *Invoker {
	inv := &Invoker{model: m}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Calls returns how many invocations have been started.
func (inv *Invoker) Calls() uint64 { return inv.calls.Load() }

// Busy reports whether a call is in flight.
func (inv *Invoker) Busy() bool { return inv.busy.Load() }

// Step advances s by one transition. s is never modified. Every failure is
// an *InvocationError. A call made while another is in flight fails with
// ReasonBusy. On timeout the model call keeps running in the background and
// the invoker stays busy until it returns.
func (inv *Invoker) Step(ctx context.Context, s *grid.State, angle float64) (*grid.State, error) {
	if inv == nil || inv.model == nil {
		return nil, &InvocationError{Reason: ReasonUnavailable, Err: ErrNoModel}
	}
	if err := s.Validate(); err != nil {
		return nil, &InvocationError{Reason: ReasonShape, Err: err}
	}
	if !inv.busy.CompareAndSwap(false, true) {
		return nil, &InvocationError{Reason: ReasonBusy, Err: errors.New("another invocation is in flight")}
	}
	inv.calls.Add(1)

	x := PackState(s)
	a := PackAngle(angle)

	if inv.timeout <= 0 {
		defer inv.busy.Store(false)
		out, err := inv.call(ctx, x, a)
		if err != nil {
			return nil, err
		}
		return UnpackState(out, s.Height, s.Width, s.Channels)
	}

	type result struct {
		out *tensor.Dense
		err error
	}
	tctx, cancel := context.WithTimeout(ctx, inv.timeout)
	defer cancel()

	done := make(chan result, 1)
	go func() {
		defer inv.busy.Store(false)
		out, err := inv.call(tctx, x, a)
		done <- result{out: out, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, r.err
		}
		return UnpackState(r.out, s.Height, s.Width, s.Channels)
	case <-tctx.Done():
		if errors.Is(tctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, &InvocationError{Reason: ReasonTimeout, Err: fmt.Errorf("no result after %s", inv.timeout)}
		}
		return nil, &InvocationError{Reason: ReasonRuntime, Err: tctx.Err()}
	}
}

// call invokes the model, turning errors and panics into InvocationErrors.
func (inv *Invoker) call(ctx context.Context, x, a *tensor.Dense) (out *tensor.Dense, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = &InvocationError{Reason: ReasonRuntime, Err: fmt.Errorf("model panicked: %v", r)}
		}
	}()
	out, err = inv.model.Step(ctx, x, a)
	if err != nil {
		return nil, &InvocationError{Reason: ReasonRuntime, Err: err}
	}
	return out, nil
}

// PackState copies the cells of s into a [1, H, W, C] float32 tensor.
func PackState(s *grid.State) *tensor.Dense {
	backing := make([]float32, len(s.Cells))
	copy(backing, s.Cells)
	return tensor.New(
		tensor.WithShape(1, s.Height, s.Width, s.Channels),
		tensor.WithBacking(backing),
	)
}

// PackAngle wraps the angle parameter as a [1] float64 tensor.
func PackAngle(angle float64) *tensor.Dense {
	return tensor.New(tensor.WithShape(1), tensor.WithBacking([]float64{angle}))
}

// UnpackState checks that t is a [1, H, W, C] float32 tensor and copies it
// into a new grid state.
func UnpackState(t *tensor.Dense, height, width, channels int) (*grid.State, error) {
	if t == nil {
		return nil, &InvocationError{Reason: ReasonShape, Err: errors.New("model returned no output")}
	}
	want := tensor.Shape{1, height, width, channels}
	if !t.Shape().Eq(want) {
		return nil, &InvocationError{Reason: ReasonShape, Err: fmt.Errorf("output shape %v, want %v", t.Shape(), want)}
	}
	data, ok := t.Data().([]float32)
	if !ok {
		return nil, &InvocationError{Reason: ReasonShape, Err: fmt.Errorf("output dtype %v, want float32", t.Dtype())}
	}
	cells := make([]float32, height*width*channels)
	if len(data) != len(cells) {
		return nil, &InvocationError{Reason: ReasonShape, Err: fmt.Errorf("output holds %d values, want %d", len(data), len(cells))}
	}
	copy(cells, data)
	s, err := grid.FromCells(height, width, channels, cells)
	if err != nil {
		return nil, &InvocationError{Reason: ReasonShape, Err: err}
	}
	return s, nil
}

// AngleValue reads the scalar from an angle tensor of either float width.
func AngleValue(t *tensor.Dense) (float64, error) {
	if t == nil {
		return 0, errors.New("missing angle tensor")
	}
	switch d := t.Data().(type) {
	case []float64:
		if len(d) > 0 {
			return d[0], nil
		}
	case []float32:
		if len(d) > 0 {
			return float64(d[0]), nil
		}
	case float64:
		return d, nil
	case float32:
		return float64(d), nil
	}
	return 0, fmt.Errorf("unsupported angle tensor %v of %v", t.Shape(), t.Dtype())
}
