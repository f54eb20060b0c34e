// Package neural invokes the transition model that advances the grid.
//
// The model is a black box behind the Model interface: it takes the grid as
// a [1, H, W, C] float32 tensor plus a [1] angle tensor and returns the next
// grid in the same shape. Invoker packs and unpacks grid states and enforces
// that contract.
package neural

import (
	"context"

	"gorgonia.org/tensor"
)

// Model is a transition function backend.
type Model interface {
	Step(ctx context.Context, x, angle *tensor.Dense) (*tensor.Dense, error)
}

// ModelFunc adapts a function to the Model interface.
type ModelFunc func(ctx context.Context, x, angle *tensor.Dense) (*tensor.Dense, error)

// Step calls f.
func (f ModelFunc) Step(ctx context.Context, x, angle *tensor.Dense) (*tensor.Dense, error) {
	return f(ctx, x, angle)
}

// Identity returns its input unchanged.
type Identity struct{}

// Step returns a copy of x.
func (Identity) Step(_ context.Context, x, _ *tensor.Dense) (*tensor.Dense, error) {
	return x.Clone().(*tensor.Dense), nil
}
