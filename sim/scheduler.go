// Package sim drives the automaton: it applies queued damage, invokes the
// transition model and publishes each new state.
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pthm-cable/regrow/grid"
	"github.com/pthm-cable/regrow/input"
	"github.com/pthm-cable/regrow/telemetry"
)

var (
	// ErrRunning is returned when Run is entered while another Run is active.
	ErrRunning = errors.New("scheduler already running")
	// ErrNotReady is returned by Run on a scheduler built without New.
	ErrNotReady = errors.New("scheduler not initialized")
)

// Stepper computes the next state. *neural.Invoker implements it.
type Stepper interface {
	Step(ctx context.Context, s *grid.State, angle float64) (*grid.State, error)
}

// Frame is one published state.
type Frame struct {
	Step   uint64
	State  *grid.State
	Damage int  // damage events applied before the transition
	Reset  bool // state is a fresh seed, not a transition
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithDelay sets the pause before each transition.
func WithDelay(d time.Duration) Option {
	return func(s *Scheduler) { s.delay.Store(int64(d)) }
}

// WithRadius sets the damage radius in cells.
func WithRadius(r float64) Option {
	return func(s *Scheduler) { s.radius = r }
}

// WithAngle sets the angle input passed to every transition.
func WithAngle(a float64) Option {
	return func(s *Scheduler) { s.angle = a }
}

// WithPerf records per-phase timings of every step.
func WithPerf(p *telemetry.PerfCollector) Option {
	return func(s *Scheduler) { s.perf = p }
}

// WithReseed replaces the state factory used by RequestReset.
func WithReseed(fn func() (*grid.State, error)) Option {
	return func(s *Scheduler) { s.reseed = fn }
}

// WithPaused starts the scheduler paused.
func WithPaused() Option {
	return func(s *Scheduler) { s.paused.Store(true) }
}

// Scheduler runs the step loop. Run is the only caller of the Stepper, so
// transitions never overlap. Everything else is safe to call from any
// goroutine.
type Scheduler struct {
	stepper Stepper
	queue   *input.Queue
	radius  float64
	angle   float64
	perf    *telemetry.PerfCollector
	reseed  func() (*grid.State, error)

	delay   atomic.Int64
	phase   atomic.Int32
	step    atomic.Uint64
	current atomic.Pointer[grid.State]
	running atomic.Bool
	paused  atomic.Bool
	reset   atomic.Bool
	wake    chan struct{}

	mu   sync.Mutex
	err  error
	subs []func(Frame)
}

// New builds a scheduler in the ready phase around a valid initial state.
func New(initial *grid.State, stepper Stepper, queue *input.Queue, opts ...Option) (*Scheduler, error) {
	if initial == nil {
		return nil, fmt.Errorf("new scheduler: nil initial state")
	}
	if err := initial.Validate(); err != nil {
		return nil, fmt.Errorf("new scheduler: %w", err)
	}
	if stepper == nil {
		return nil, fmt.Errorf("new scheduler: nil stepper")
	}
	if queue == nil {
		queue = input.NewQueue()
	}

	s := &Scheduler{
		stepper: stepper,
		queue:   queue,
		radius:  2,
		wake:    make(chan struct{}, 1),
	}
	h, w, c := initial.Height, initial.Width, initial.Channels
	s.reseed = func() (*grid.State, error) { return grid.NewSeeded(h, w, c) }
	for _, opt := range opts {
		opt(s)
	}

	s.current.Store(initial)
	s.phase.Store(int32(PhaseReady))
	return s, nil
}

// Run publishes the current state and then steps until ctx is cancelled or
// a transition fails. It returns nil on cancellation and the transition
// error on failure.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.current.Load() == nil {
		return ErrNotReady
	}
	if !s.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer s.running.Store(false)

	if s.Phase() == PhaseFailed {
		return s.Err()
	}
	s.phase.Store(int32(PhaseReady))
	s.notify(Frame{Step: s.step.Load(), State: s.current.Load()})

	for {
		// The delay counts as part of the step; only a held loop is ready.
		s.phase.Store(int32(PhaseStepping))
		if err := s.sleep(ctx, s.Delay()); err != nil {
			return s.stop()
		}
		if err := s.waitWhilePaused(ctx); err != nil {
			return s.stop()
		}
		if s.reset.Swap(false) {
			if err := s.doReset(); err != nil {
				return s.fail(err)
			}
			continue
		}
		if err := s.stepOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return s.stop()
			}
			return s.fail(err)
		}
	}
}

func (s *Scheduler) stepOnce(ctx context.Context) error {
	s.perf.StartStep()
	defer s.perf.EndStep()

	s.perf.StartPhase(telemetry.PhaseDrain)
	events := s.queue.Drain()

	s.perf.StartPhase(telemetry.PhaseDamage)
	damaged := grid.ApplyDamage(s.current.Load(), events, s.radius)

	s.phase.Store(int32(PhaseStepping))
	s.perf.StartPhase(telemetry.PhaseTransition)
	next, err := s.stepper.Step(ctx, damaged, s.angle)
	if err != nil {
		return err
	}

	s.perf.StartPhase(telemetry.PhasePublish)
	s.current.Store(next)
	n := s.step.Add(1)
	s.phase.Store(int32(PhaseReady))
	s.notify(Frame{Step: n, State: next, Damage: len(events)})
	return nil
}

func (s *Scheduler) doReset() error {
	fresh, err := s.reseed()
	if err != nil {
		return fmt.Errorf("reseed: %w", err)
	}
	s.queue.Drain()
	s.current.Store(fresh)
	s.phase.Store(int32(PhaseReady))
	slog.Info("reset", "step", s.step.Load())
	s.notify(Frame{Step: s.step.Load(), State: fresh, Reset: true})
	return nil
}

func (s *Scheduler) fail(err error) error {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	s.phase.Store(int32(PhaseFailed))
	slog.Error("step failed", "error", err, "step", s.step.Load())
	return err
}

func (s *Scheduler) stop() error {
	s.phase.Store(int32(PhaseStopped))
	return nil
}

func (s *Scheduler) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *Scheduler) waitWhilePaused(ctx context.Context) error {
	held := false
	for s.paused.Load() && !s.reset.Load() {
		if !held {
			s.phase.Store(int32(PhaseReady))
			held = true
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.wake:
		}
	}
	if held {
		s.phase.Store(int32(PhaseStepping))
	}
	return ctx.Err()
}

func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) notify(f Frame) {
	s.mu.Lock()
	subs := s.subs
	s.mu.Unlock()
	for _, fn := range subs {
		fn(f)
	}
}

// Subscribe registers fn to receive every published frame. fn runs on the
// Run goroutine and must return quickly.
func (s *Scheduler) Subscribe(fn func(Frame)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	subs := make([]func(Frame), len(s.subs), len(s.subs)+1)
	copy(subs, s.subs)
	s.subs = append(subs, fn)
}

// Pause holds the loop before its next transition.
func (s *Scheduler) Pause() { s.paused.Store(true) }

// Resume releases a paused loop.
func (s *Scheduler) Resume() {
	s.paused.Store(false)
	s.signal()
}

// Paused reports whether the loop is held.
func (s *Scheduler) Paused() bool { return s.paused.Load() }

// RequestReset replaces the state with a fresh seed before the next
// transition. Queued damage is dropped. Works while paused.
func (s *Scheduler) RequestReset() {
	s.reset.Store(true)
	s.signal()
}

// SetDelay changes the pause before each transition.
func (s *Scheduler) SetDelay(d time.Duration) { s.delay.Store(int64(d)) }

// Delay returns the pause before each transition.
func (s *Scheduler) Delay() time.Duration { return time.Duration(s.delay.Load()) }

// Current returns the last published state. It is never mutated.
func (s *Scheduler) Current() *grid.State { return s.current.Load() }

// Step returns the number of transitions published so far.
func (s *Scheduler) Step() uint64 { return s.step.Load() }

// Phase returns the lifecycle phase.
func (s *Scheduler) Phase() Phase {
	if s == nil {
		return PhaseUninitialized
	}
	return Phase(s.phase.Load())
}

// Angle returns the angle input passed to transitions.
func (s *Scheduler) Angle() float64 { return s.angle }

// Queue returns the damage queue the loop drains.
func (s *Scheduler) Queue() *input.Queue { return s.queue }

// Err returns the transition error that moved the scheduler to failed.
func (s *Scheduler) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
