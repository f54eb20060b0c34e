// Package config provides configuration loading and access for the viewer.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Backend names accepted by model.backend.
const (
	BackendNCA      = "nca"
	BackendONNX     = "onnx"
	BackendIdentity = "identity"
)

// Config holds all viewer configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Grid      GridConfig      `yaml:"grid"`
	Display   DisplayConfig   `yaml:"display"`
	Damage    DamageConfig    `yaml:"damage"`
	Step      StepConfig      `yaml:"step"`
	Model     ModelConfig     `yaml:"model"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds window settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// GridConfig holds the automaton dimensions. The channel count comes from
// the model descriptor.
type GridConfig struct {
	Height int `yaml:"height"`
	Width  int `yaml:"width"`
}

// DisplayConfig holds grid placement on screen.
type DisplayConfig struct {
	CanvasRatio float64 `yaml:"canvas_ratio"` // Fraction of the shorter window side the grid spans
}

// DamageConfig holds eraser settings.
type DamageConfig struct {
	Radius float64 `yaml:"radius"` // Erase radius in cells
}

// StepConfig holds scheduler timing.
type StepConfig struct {
	DelayMS   int     `yaml:"delay_ms"`   // Pause before each transition
	TimeoutMS int     `yaml:"timeout_ms"` // Bound on one model call (0 = wait forever)
	Angle     float64 `yaml:"angle"`      // Angle input passed to the model
}

// ModelConfig locates the model artifacts.
type ModelConfig struct {
	Dir     string `yaml:"dir"`
	Name    string `yaml:"name"`
	Backend string     `yaml:"backend"` // nca | onnx | identity
	Seed    int64      `yaml:"seed"`    // RNG seed for stochastic updates (0 = time-based)
	ONNX    ONNXConfig `yaml:"onnx"`
}

// ONNXConfig selects graph inputs and output by position for the onnx
// backend.
type ONNXConfig struct {
	StateInput int `yaml:"state_input"` // Grid tensor input ("x.1")
	AngleInput int `yaml:"angle_input"` // Angle input (-1 = none)
	Output     int `yaml:"output"`      // Next-state output
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         int `yaml:"stats_window"`          // Steps per stats window
	PerfCollectorWindow int `yaml:"perf_collector_window"` // Steps averaged for perf stats
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Delay          time.Duration
	Timeout        time.Duration
	DescriptorPath string
	WeightsPath    string
	ONNXPath       string
}

// LoadError reports configuration that could not be read or is invalid.
// It is fatal at startup.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("config: %v", e.Err)
	}
	return fmt.Sprintf("config %q: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, &LoadError{Err: fmt.Errorf("parsing embedded defaults: %w", err)}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &LoadError{Path: path, Err: fmt.Errorf("reading config file: %w", err)}
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, &LoadError{Path: path, Err: fmt.Errorf("parsing config file: %w", err)}
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	cfg.computeDerived()
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.Grid.Height <= 0 || c.Grid.Width <= 0 {
		errs = append(errs, fmt.Errorf("grid must be positive, got %dx%d", c.Grid.Height, c.Grid.Width))
	}
	if c.Display.CanvasRatio <= 0 || c.Display.CanvasRatio > 1 {
		errs = append(errs, fmt.Errorf("display.canvas_ratio must be in (0, 1], got %g", c.Display.CanvasRatio))
	}
	if c.Damage.Radius < 0 {
		errs = append(errs, fmt.Errorf("damage.radius must not be negative, got %g", c.Damage.Radius))
	}
	if c.Step.DelayMS < 0 || c.Step.TimeoutMS < 0 {
		errs = append(errs, fmt.Errorf("step delays must not be negative"))
	}
	switch c.Model.Backend {
	case BackendNCA, BackendONNX, BackendIdentity:
	default:
		errs = append(errs, fmt.Errorf("unknown model.backend %q", c.Model.Backend))
	}
	if o := c.Model.ONNX; o.StateInput < 0 || o.Output < 0 || o.AngleInput < -1 || o.AngleInput == o.StateInput {
		errs = append(errs, fmt.Errorf("model.onnx inputs/output invalid: state %d, angle %d, output %d", o.StateInput, o.AngleInput, o.Output))
	}
	if c.Model.Name == "" {
		errs = append(errs, fmt.Errorf("model.name is required"))
	}
	return errors.Join(errs...)
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.Delay = time.Duration(c.Step.DelayMS) * time.Millisecond
	c.Derived.Timeout = time.Duration(c.Step.TimeoutMS) * time.Millisecond
	c.Derived.DescriptorPath = filepath.Join(c.Model.Dir, c.Model.Name+".json")
	c.Derived.WeightsPath = filepath.Join(c.Model.Dir, c.Model.Name+".weights.json")
	c.Derived.ONNXPath = filepath.Join(c.Model.Dir, c.Model.Name+".onnx")

	if c.Telemetry.StatsWindow < 1 {
		c.Telemetry.StatsWindow = 100
	}
	if c.Telemetry.PerfCollectorWindow < 1 {
		c.Telemetry.PerfCollectorWindow = 60
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
