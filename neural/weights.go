package neural

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
)

// PerceptionKernels is the number of filters applied to each channel:
// identity, sobel-x and sobel-y.
const PerceptionKernels = 3

// Weights holds the per-cell update network in flattened form.
// W1 is [PerceptionKernels*Channels][Hidden] and W2 is [Hidden][Channels],
// both row-major with the input index outermost.
type Weights struct {
	Channels int       `json:"channels"`
	Hidden   int       `json:"hidden"`
	W1       []float32 `json:"w1"`
	B1       []float32 `json:"b1"`
	W2       []float32 `json:"w2"`
	B2       []float32 `json:"b2"`
}

// Inputs returns the width of the perception vector.
func (w *Weights) Inputs() int { return PerceptionKernels * w.Channels }

// Validate checks that every array matches the declared sizes.
func (w *Weights) Validate() error {
	if w.Channels <= 0 || w.Hidden <= 0 {
		return fmt.Errorf("invalid network size: channels=%d hidden=%d", w.Channels, w.Hidden)
	}
	checks := []struct {
		name string
		got  int
		want int
	}{
		{"w1", len(w.W1), w.Inputs() * w.Hidden},
		{"b1", len(w.B1), w.Hidden},
		{"w2", len(w.W2), w.Hidden * w.Channels},
		{"b2", len(w.B2), w.Channels},
	}
	for _, c := range checks {
		if c.got != c.want {
			return fmt.Errorf("%s has %d values, want %d", c.name, c.got, c.want)
		}
	}
	return nil
}

// NewRandomWeights creates He-initialized weights. The output layer is
// scaled down so an untrained network makes small updates.
func NewRandomWeights(rng *rand.Rand, channels, hidden int) *Weights {
	w := &Weights{
		Channels: channels,
		Hidden:   hidden,
		W1:       make([]float32, PerceptionKernels*channels*hidden),
		B1:       make([]float32, hidden),
		W2:       make([]float32, hidden*channels),
		B2:       make([]float32, channels),
	}
	scale1 := float32(math.Sqrt(2.0 / float64(PerceptionKernels*channels)))
	scale2 := float32(math.Sqrt(2.0/float64(hidden))) * 0.1

	for i := range w.W1 {
		w.W1[i] = float32(rng.NormFloat64()) * scale1
	}
	for i := range w.W2 {
		w.W2[i] = float32(rng.NormFloat64()) * scale2
	}
	return w
}

// LoadWeights reads a weights artifact. Failures are *LoadError.
func LoadWeights(path string) (*Weights, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	var w Weights
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("parsing weights: %w", err)}
	}
	if err := w.Validate(); err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return &w, nil
}

// SaveWeights writes a weights artifact as JSON.
func SaveWeights(path string, w *Weights) error {
	if err := w.Validate(); err != nil {
		return fmt.Errorf("invalid weights: %w", err)
	}
	data, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("marshaling weights: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing weights: %w", err)
	}
	return nil
}
