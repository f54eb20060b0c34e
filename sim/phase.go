package sim

// Phase is the scheduler's lifecycle position.
type Phase int32

const (
	PhaseUninitialized Phase = iota
	PhaseReady
	PhaseStepping
	PhaseFailed  // a transition failed; terminal
	PhaseStopped // the host cancelled Run
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseReady:
		return "ready"
	case PhaseStepping:
		return "stepping"
	case PhaseFailed:
		return "failed"
	case PhaseStopped:
		return "stopped"
	}
	return "unknown"
}
