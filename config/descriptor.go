package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// MinChannels is the smallest usable channel count: r, g, b and alpha.
const MinChannels = 4

// Descriptor is the training configuration shipped next to a model. Only
// Channels is required by the viewer; the rest describes how the model was
// trained and is carried for logging and for the in-process backend.
type Descriptor struct {
	Name                 string    `json:"name" yaml:"name"`
	Image                string    `json:"image" yaml:"image"`
	Channels             int       `json:"CH_ALL" yaml:"ch_all"`
	ImagePad             int       `json:"image_pad" yaml:"image_pad"`
	BatchSize            int       `json:"batch_size" yaml:"batch_size"`
	Betas                []float64 `json:"betas" yaml:"betas"`
	DamageSamplesInBatch int       `json:"damage_samples_in_batch" yaml:"damage_samples_in_batch"`
	FireRate             float64   `json:"fire_rate" yaml:"fire_rate"`
	HiddenSize           int       `json:"hidden_size" yaml:"hidden_size"`
	LR                   float64   `json:"lr" yaml:"lr"`
	LRGamma              float64   `json:"lr_gamma" yaml:"lr_gamma"`
	NEpoch               int       `json:"n_epoch" yaml:"n_epoch"`
	PoolSize             int       `json:"pool_size" yaml:"pool_size"`
	StepsMax             int       `json:"steps_max" yaml:"steps_max"`
	StepsMin             int       `json:"steps_min" yaml:"steps_min"`
}

// LoadDescriptor reads a model descriptor. Failures are *LoadError.
func LoadDescriptor(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("reading descriptor: %w", err)}
	}
	var d Descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("parsing descriptor: %w", err)}
	}
	if d.Channels < MinChannels {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("CH_ALL must be at least %d, got %d", MinChannels, d.Channels)}
	}
	return &d, nil
}

// WriteDescriptor writes a model descriptor as JSON.
func WriteDescriptor(path string, d *Descriptor) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling descriptor: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing descriptor: %w", err)
	}
	return nil
}
