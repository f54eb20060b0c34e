package session

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/pthm-cable/regrow/config"
	"github.com/pthm-cable/regrow/neural"
)

// LoadModel builds the transition model named by the config. Failures of
// the nca and onnx backends are *neural.LoadError.
func LoadModel(cfg *config.Config, desc *config.Descriptor) (neural.Model, error) {
	switch cfg.Model.Backend {
	case config.BackendIdentity:
		slog.Info("using identity model", "channels", desc.Channels)
		return neural.Identity{}, nil

	case config.BackendNCA:
		seed := cfg.Model.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		m, err := neural.LoadNCA(neural.NCAConfig{
			Channels: desc.Channels,
			Hidden:   desc.HiddenSize,
			FireRate: desc.FireRate,
			Seed:     seed,
		}, cfg.Derived.WeightsPath)
		if err != nil {
			return nil, err
		}
		c := m.Config()
		slog.Info("loaded model",
			"name", desc.Name,
			"path", cfg.Derived.WeightsPath,
			"channels", c.Channels,
			"hidden", c.Hidden,
			"fire_rate", c.FireRate,
			"seed", seed,
		)
		return m, nil

	case config.BackendONNX:
		o := cfg.Model.ONNX
		m, err := neural.LoadONNX(cfg.Derived.ONNXPath, neural.ONNXConfig{
			StateInput: o.StateInput,
			AngleInput: o.AngleInput,
			Output:     o.Output,
		})
		if err != nil {
			return nil, err
		}
		slog.Info("loaded onnx model",
			"name", desc.Name,
			"path", cfg.Derived.ONNXPath,
			"inputs", m.Inputs(),
			"outputs", m.Outputs(),
			"state_input", o.StateInput,
			"angle_input", o.AngleInput,
			"output", o.Output,
		)
		return m, nil
	}
	return nil, fmt.Errorf("unknown model backend %q", cfg.Model.Backend)
}
