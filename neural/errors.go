package neural

import (
	"errors"
	"fmt"
)

// Reason classifies a failed invocation.
type Reason string

const (
	ReasonUnavailable Reason = "unavailable"
	ReasonRuntime     Reason = "runtime"
	ReasonShape       Reason = "shape"
	ReasonTimeout     Reason = "timeout"
	ReasonBusy        Reason = "busy"
)

// ErrNoModel is returned when the invoker has no model to call.
var ErrNoModel = errors.New("no transition model loaded")

// InvocationError reports a failed call to the transition model. It is fatal
// to the step that made it; nothing is retried.
type InvocationError struct {
	Reason Reason
	Err    error
}

func (e *InvocationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("model invocation failed: %s", e.Reason)
	}
	return fmt.Sprintf("model invocation failed (%s): %v", e.Reason, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }

// LoadError reports a transition artifact that could not be loaded.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading model %q: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
