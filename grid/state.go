// Package grid holds the multi-channel automaton state and the local edits
// applied to it between steps.
package grid

import "fmt"

// Channel roles. Channels at HiddenStart and above are latent state that only
// the transition model reads.
const (
	ChannelR     = 0
	ChannelG     = 1
	ChannelB     = 2
	ChannelAlpha = 3
	HiddenStart  = 4

	// MinChannels is the smallest channel count that carries color and alpha.
	MinChannels = 4
)

// State is one configuration of the automaton.
// Cells are laid out row-major, then column, then channel (channel fastest).
// A State handed to other components is treated as immutable; derive a new
// one with Clone instead of writing into it.
type State struct {
	Height   int
	Width    int
	Channels int
	Cells    []float32
}

// New allocates an all-zero state.
func New(height, width, channels int) (*State, error) {
	if height <= 0 || width <= 0 || channels <= 0 {
		return nil, fmt.Errorf("invalid grid shape %dx%dx%d", height, width, channels)
	}
	return &State{
		Height:   height,
		Width:    width,
		Channels: channels,
		Cells:    make([]float32, height*width*channels),
	}, nil
}

// NewSeeded allocates the bootstrap state: everything zero except the center
// cell, whose channels from alpha upward are set to 1. Color stays black.
func NewSeeded(height, width, channels int) (*State, error) {
	s, err := New(height, width, channels)
	if err != nil {
		return nil, err
	}
	base := s.Index(width/2, height/2)
	for ch := ChannelAlpha; ch < channels; ch++ {
		s.Cells[base+ch] = 1
	}
	return s, nil
}

// FromCells wraps an existing buffer. The buffer is not copied.
func FromCells(height, width, channels int, cells []float32) (*State, error) {
	s := &State{Height: height, Width: width, Channels: channels, Cells: cells}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the shape invariant.
func (s *State) Validate() error {
	if s == nil {
		return fmt.Errorf("nil grid state")
	}
	if s.Height <= 0 || s.Width <= 0 || s.Channels <= 0 {
		return fmt.Errorf("invalid grid shape %dx%dx%d", s.Height, s.Width, s.Channels)
	}
	if want := s.Height * s.Width * s.Channels; len(s.Cells) != want {
		return fmt.Errorf("grid has %d cells, shape %dx%dx%d needs %d",
			len(s.Cells), s.Height, s.Width, s.Channels, want)
	}
	return nil
}

// Index returns the offset of channel 0 of cell (x, y).
func (s *State) Index(x, y int) int { return (y*s.Width + x) * s.Channels }

// Cell returns the channel values of cell (x, y). The slice aliases Cells.
func (s *State) Cell(x, y int) []float32 {
	i := s.Index(x, y)
	return s.Cells[i : i+s.Channels : i+s.Channels]
}

// Alpha returns the life channel of cell (x, y).
func (s *State) Alpha(x, y int) float32 {
	if s.Channels <= ChannelAlpha {
		return 0
	}
	return s.Cells[s.Index(x, y)+ChannelAlpha]
}

// Len returns the number of float values in the state.
func (s *State) Len() int { return s.Height * s.Width * s.Channels }

// SameShape reports whether two states have identical dimensions.
func (s *State) SameShape(o *State) bool {
	return s.Height == o.Height && s.Width == o.Width && s.Channels == o.Channels
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	cells := make([]float32, len(s.Cells))
	copy(cells, s.Cells)
	return &State{Height: s.Height, Width: s.Width, Channels: s.Channels, Cells: cells}
}

// Equal reports whether both states have the same shape and bit-identical cells.
func (s *State) Equal(o *State) bool {
	if s == nil || o == nil {
		return s == o
	}
	if !s.SameShape(o) || len(s.Cells) != len(o.Cells) {
		return false
	}
	for i, v := range s.Cells {
		if v != o.Cells[i] {
			return false
		}
	}
	return true
}

// CountAlive returns the number of cells whose alpha exceeds threshold.
func (s *State) CountAlive(threshold float32) int {
	if s.Channels <= ChannelAlpha {
		return 0
	}
	n := 0
	for i := ChannelAlpha; i < len(s.Cells); i += s.Channels {
		if s.Cells[i] > threshold {
			n++
		}
	}
	return n
}
