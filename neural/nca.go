package neural

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"

	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"

	"github.com/pthm-cable/regrow/grid"
)

// Defaults for the reference backend.
const (
	DefaultFireRate       = 0.5
	DefaultAliveThreshold = 0.1
)

// NCAConfig sizes the reference backend.
type NCAConfig struct {
	Channels int
	Hidden   int

	// FireRate is the probability that a cell applies its update in a step.
	FireRate float64

	// AliveThreshold is the alpha above which a cell keeps its neighbours
	// alive.
	AliveThreshold float32

	Seed int64
}

// NCA is an in-process backend for the growing-automaton architecture:
// each cell perceives its 3x3 neighbourhood through identity and sobel
// filters (rotated by the angle input), a two-layer network turns the
// perception into a residual update, a random subset of cells applies it,
// and cells with no living neighbour are cleared.
type NCA struct {
	cfg NCAConfig

	w1 *mat.Dense // inputs x hidden
	b1 []float64
	w2 *mat.Dense // hidden x channels
	b2 []float64

	// rng is shared across calls; the invoker serializes them but tests
	// may call Step directly.
	mu  sync.Mutex
	rng *rand.Rand
}

// NewNCA builds the backend from weights.
func NewNCA(cfg NCAConfig, w *Weights) (*NCA, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if cfg.Channels == 0 {
		cfg.Channels = w.Channels
	}
	if cfg.Hidden == 0 {
		cfg.Hidden = w.Hidden
	}
	if cfg.Channels != w.Channels || cfg.Hidden != w.Hidden {
		return nil, fmt.Errorf("weights are %dx%d, descriptor wants channels=%d hidden=%d",
			w.Channels, w.Hidden, cfg.Channels, cfg.Hidden)
	}
	if cfg.Channels < grid.MinChannels {
		return nil, fmt.Errorf("need at least %d channels, have %d", grid.MinChannels, cfg.Channels)
	}
	if cfg.FireRate <= 0 || cfg.FireRate > 1 {
		cfg.FireRate = DefaultFireRate
	}
	if cfg.AliveThreshold <= 0 {
		cfg.AliveThreshold = DefaultAliveThreshold
	}

	return &NCA{
		cfg: cfg,
		w1:  mat.NewDense(w.Inputs(), w.Hidden, widen(w.W1)),
		b1:  widen(w.B1),
		w2:  mat.NewDense(w.Hidden, w.Channels, widen(w.W2)),
		b2:  widen(w.B2),
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

// LoadNCA reads a weights artifact and builds the backend. Failures are
// *LoadError.
func LoadNCA(cfg NCAConfig, path string) (*NCA, error) {
	w, err := LoadWeights(path)
	if err != nil {
		return nil, err
	}
	n, err := NewNCA(cfg, w)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return n, nil
}

// Config returns the effective configuration.
func (n *NCA) Config() NCAConfig { return n.cfg }

// Step implements Model.
func (n *NCA) Step(ctx context.Context, x, angle *tensor.Dense) (*tensor.Dense, error) {
	shape := x.Shape()
	if len(shape) != 4 || shape[0] != 1 || shape[3] != n.cfg.Channels {
		return nil, fmt.Errorf("input shape %v, want [1 H W %d]", shape, n.cfg.Channels)
	}
	cells, ok := x.Data().([]float32)
	if !ok {
		return nil, fmt.Errorf("input dtype %v, want float32", x.Dtype())
	}
	theta, err := AngleValue(angle)
	if err != nil {
		return nil, err
	}
	h, w, c := shape[1], shape[2], shape[3]

	perception := n.perceive(cells, h, w, c, theta)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// hidden = relu(P·W1 + b1)
	var hidden mat.Dense
	hidden.Mul(perception, n.w1)
	hidden.Apply(func(_, j int, v float64) float64 {
		v += n.b1[j]
		if v < 0 {
			return 0
		}
		return v
	}, &hidden)

	// dx = hidden·W2 + b2
	var dx mat.Dense
	dx.Mul(&hidden, n.w2)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	preAlive := n.aliveMask(cells, h, w, c)

	out := make([]float32, len(cells))
	copy(out, cells)
	n.mu.Lock()
	for i := 0; i < h*w; i++ {
		if n.rng.Float64() >= n.cfg.FireRate {
			continue
		}
		base := i * c
		for ch := 0; ch < c; ch++ {
			out[base+ch] += float32(dx.At(i, ch) + n.b2[ch])
		}
	}
	n.mu.Unlock()

	postAlive := n.aliveMask(out, h, w, c)
	for i := 0; i < h*w; i++ {
		if preAlive[i] && postAlive[i] {
			continue
		}
		clear(out[i*c : (i+1)*c])
	}

	return tensor.New(tensor.WithShape(1, h, w, c), tensor.WithBacking(out)), nil
}

// perceive builds the (H*W) x (3C) perception matrix: the raw channels, then
// the rotated x gradients, then the rotated y gradients. Cells beyond the
// border read as zero.
func (n *NCA) perceive(cells []float32, h, w, c int, theta float64) *mat.Dense {
	cos, sin := math.Cos(theta), math.Sin(theta)
	p := mat.NewDense(h*w, PerceptionKernels*c, nil)

	at := func(x, y, ch int) float64 {
		if x < 0 || y < 0 || x >= w || y >= h {
			return 0
		}
		return float64(cells[(y*w+x)*c+ch])
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			row := y*w + x
			for ch := 0; ch < c; ch++ {
				var sx, sy float64
				for k := -1; k <= 1; k++ {
					wk := 2.0
					if k != 0 {
						wk = 1
					}
					sx += wk * (at(x+1, y+k, ch) - at(x-1, y+k, ch))
					sy += wk * (at(x+k, y+1, ch) - at(x+k, y-1, ch))
				}
				sx /= 8
				sy /= 8
				p.Set(row, ch, at(x, y, ch))
				p.Set(row, c+ch, cos*sx-sin*sy)
				p.Set(row, 2*c+ch, sin*sx+cos*sy)
			}
		}
	}
	return p
}

// aliveMask marks cells whose 3x3 neighbourhood holds an alpha above the
// threshold.
func (n *NCA) aliveMask(cells []float32, h, w, c int) []bool {
	alive := make([]bool, h*w)
	thr := n.cfg.AliveThreshold
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			if cells[i*c+grid.ChannelAlpha] <= thr {
				continue
			}
			for dy := -1; dy <= 1; dy++ {
				ny := y + dy
				if ny < 0 || ny >= h {
					continue
				}
				for dx := -1; dx <= 1; dx++ {
					nx := x + dx
					if nx < 0 || nx >= w {
						continue
					}
					alive[ny*w+nx] = true
				}
			}
		}
	}
	return alive
}

// widen converts float32 weights for gonum.
func widen(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
