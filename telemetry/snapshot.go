package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/pthm-cable/regrow/grid"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// ErrNonFinite is returned by SaveSnapshot when the state holds NaN or
// infinite values, which JSON cannot represent.
var ErrNonFinite = errors.New("snapshot holds non-finite values")

// Snapshot holds a published grid state for later inspection or as a
// starting state for another run.
type Snapshot struct {
	Version int    `json:"version"`
	Model   string `json:"model"`
	Step    uint64 `json:"step"`

	Angle float64 `json:"angle"`

	Height   int       `json:"height"`
	Width    int       `json:"width"`
	Channels int       `json:"channels"`
	Cells    []float32 `json:"cells"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// NewSnapshot captures s. The cells are copied.
func NewSnapshot(model string, step uint64, angle float64, s *grid.State) *Snapshot {
	c := s.Clone()
	return &Snapshot{
		Version:  SnapshotVersion,
		Model:    model,
		Step:     step,
		Angle:    angle,
		Height:   c.Height,
		Width:    c.Width,
		Channels: c.Channels,
		Cells:    c.Cells,
	}
}

// State rebuilds the grid state held by the snapshot.
func (s *Snapshot) State() (*grid.State, error) {
	cells := make([]float32, len(s.Cells))
	copy(cells, s.Cells)
	st, err := grid.FromCells(s.Height, s.Width, s.Channels, cells)
	if err != nil {
		return nil, fmt.Errorf("snapshot state: %w", err)
	}
	return st, nil
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := snapshot.checkFinite(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%d", snapshot.Step)
	if snapshot.Bookmark != nil {
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Step, sanitized)
	}
	name += ".json"

	path := filepath.Join(dir, name)

	data, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

func (s *Snapshot) checkFinite() error {
	if math.IsNaN(s.Angle) || math.IsInf(s.Angle, 0) {
		return fmt.Errorf("%w: angle is %v", ErrNonFinite, s.Angle)
	}
	bad, first := 0, -1
	for i, v := range s.Cells {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			if first < 0 {
				first = i
			}
			bad++
		}
	}
	if bad > 0 {
		return fmt.Errorf("%w: %d cells, first at index %d (%v)", ErrNonFinite, bad, first, s.Cells[first])
	}
	return nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", snapshot.Version)
	}

	return &snapshot, nil
}
