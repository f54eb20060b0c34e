package neural

import (
	"context"
	"fmt"
	"os"

	"github.com/owulveryck/onnx-go"
	"github.com/owulveryck/onnx-go/backend/x/gorgonnx"
	"gorgonia.org/tensor"
)

// ONNXConfig picks the graph inputs and output by position. The exported
// growing-automaton models take the grid as input 0 ("x.1") and the angle
// as input 1 ("angle"), and have a single output.
type ONNXConfig struct {
	StateInput int
	AngleInput int // -1 if the graph takes no angle
	Output     int
}

// DefaultONNXConfig matches the exported growing-automaton models.
func DefaultONNXConfig() ONNXConfig {
	return ONNXConfig{StateInput: 0, AngleInput: 1, Output: 0}
}

// ONNX runs a pretrained transition model from an ONNX artifact on the
// gorgonia backend. It is not safe for concurrent use; the Invoker allows
// one call at a time.
type ONNX struct {
	cfg     ONNXConfig
	backend *gorgonnx.Graph
	model   *onnx.Model
}

// NewONNX decodes an ONNX model. Unsupported operators and out-of-range
// input or output positions are reported here rather than on the first step.
func NewONNX(data []byte, cfg ONNXConfig) (*ONNX, error) {
	backend := gorgonnx.NewGraph()
	model := onnx.NewModel(backend)
	if err := model.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("decoding onnx model: %w", err)
	}

	n := len(model.Input)
	if cfg.StateInput < 0 || cfg.StateInput >= n {
		return nil, fmt.Errorf("state input %d out of range, model has %d inputs", cfg.StateInput, n)
	}
	if cfg.AngleInput >= n || cfg.AngleInput == cfg.StateInput {
		return nil, fmt.Errorf("angle input %d invalid, model has %d inputs", cfg.AngleInput, n)
	}
	if cfg.Output < 0 || cfg.Output >= len(model.Output) {
		return nil, fmt.Errorf("output %d out of range, model has %d outputs", cfg.Output, len(model.Output))
	}
	return &ONNX{cfg: cfg, backend: backend, model: model}, nil
}

// LoadONNX reads an ONNX artifact. Failures are *LoadError.
func LoadONNX(path string, cfg ONNXConfig) (*ONNX, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	m, err := NewONNX(data, cfg)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return m, nil
}

// Config returns the input and output selection.
func (m *ONNX) Config() ONNXConfig { return m.cfg }

// Inputs returns the number of graph inputs.
func (m *ONNX) Inputs() int { return len(m.model.Input) }

// Outputs returns the number of graph outputs.
func (m *ONNX) Outputs() int { return len(m.model.Output) }

// Step runs the graph once. The angle is fed as float32, as the exported
// models expect.
func (m *ONNX) Step(ctx context.Context, x, angle *tensor.Dense) (*tensor.Dense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := m.model.SetInput(m.cfg.StateInput, x); err != nil {
		return nil, fmt.Errorf("setting state input: %w", err)
	}
	if m.cfg.AngleInput >= 0 {
		v, err := AngleValue(angle)
		if err != nil {
			return nil, err
		}
		a := tensor.New(tensor.WithShape(1), tensor.WithBacking([]float32{float32(v)}))
		if err := m.model.SetInput(m.cfg.AngleInput, a); err != nil {
			return nil, fmt.Errorf("setting angle input: %w", err)
		}
	}

	if err := m.backend.Run(); err != nil {
		return nil, fmt.Errorf("running onnx graph: %w", err)
	}

	outs, err := m.model.GetOutputTensors()
	if err != nil {
		return nil, fmt.Errorf("reading outputs: %w", err)
	}
	if m.cfg.Output >= len(outs) {
		return nil, fmt.Errorf("output %d missing, graph produced %d", m.cfg.Output, len(outs))
	}
	out, ok := outs[m.cfg.Output].(*tensor.Dense)
	if !ok {
		return nil, fmt.Errorf("output %d is %T, want *tensor.Dense", m.cfg.Output, outs[m.cfg.Output])
	}
	return out, nil
}
