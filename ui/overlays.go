package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// OverlayID uniquely identifies an overlay.
type OverlayID string

// Standard overlay IDs.
const (
	OverlayAlpha     OverlayID = "alpha"
	OverlayHidden    OverlayID = "hidden_channel"
	OverlayGridLines OverlayID = "grid_lines"
	OverlayBrush     OverlayID = "brush"
	OverlayStats     OverlayID = "stats"
)

// OverlayDescriptor defines an overlay that can be toggled.
type OverlayDescriptor struct {
	ID          OverlayID   // Unique identifier
	Name        string      // Display name
	Description string      // What this overlay shows
	Key         int32       // Keyboard key to toggle (0 = no key)
	KeyLabel    string      // Key label for display
	Category    string      // Grouping (e.g., "view", "debug")
	Exclusive   []OverlayID // Other overlays to disable when this is enabled
}

// OverlayRegistry manages overlay state and metadata.
type OverlayRegistry struct {
	descriptors []OverlayDescriptor
	byID        map[OverlayID]OverlayDescriptor
	enabled     map[OverlayID]bool
	order       []OverlayID
}

// NewOverlayRegistry creates a registry with default overlays.
func NewOverlayRegistry() *OverlayRegistry {
	reg := &OverlayRegistry{
		byID:    make(map[OverlayID]OverlayDescriptor),
		enabled: make(map[OverlayID]bool),
	}
	reg.registerDefaults()
	return reg
}

func (r *OverlayRegistry) registerDefaults() {
	r.Register(OverlayDescriptor{
		ID:          OverlayAlpha,
		Name:        "Alpha",
		Description: "Show the life channel as grayscale",
		Key:         rl.KeyA,
		KeyLabel:    "A",
		Category:    "view",
		Exclusive:   []OverlayID{OverlayHidden},
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayHidden,
		Name:        "Hidden Channel",
		Description: "Show the selected hidden channel as grayscale",
		Key:         rl.KeyC,
		KeyLabel:    "C",
		Category:    "view",
		Exclusive:   []OverlayID{OverlayAlpha},
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayGridLines,
		Name:        "Grid Lines",
		Description: "Outline every cell",
		Key:         rl.KeyG,
		KeyLabel:    "G",
		Category:    "debug",
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayBrush,
		Name:        "Brush",
		Description: "Show the damage radius under the cursor",
		Key:         rl.KeyB,
		KeyLabel:    "B",
		Category:    "debug",
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayStats,
		Name:        "Stats",
		Description: "Show automaton and performance stats",
		Key:         rl.KeyI,
		KeyLabel:    "I",
		Category:    "debug",
	})
}

// Register adds an overlay to the registry.
func (r *OverlayRegistry) Register(desc OverlayDescriptor) {
	r.descriptors = append(r.descriptors, desc)
	r.byID[desc.ID] = desc
	r.order = append(r.order, desc.ID)
	r.enabled[desc.ID] = false
}

// Toggle switches an overlay on/off and handles exclusivity.
func (r *OverlayRegistry) Toggle(id OverlayID) bool {
	if _, ok := r.byID[id]; !ok {
		return false
	}
	r.SetEnabled(id, !r.enabled[id])
	return r.enabled[id]
}

// SetEnabled explicitly sets an overlay's state.
func (r *OverlayRegistry) SetEnabled(id OverlayID, enabled bool) {
	desc, ok := r.byID[id]
	if !ok {
		return
	}
	r.enabled[id] = enabled
	if enabled {
		for _, excl := range desc.Exclusive {
			r.enabled[excl] = false
		}
	}
}

// IsEnabled returns whether an overlay is active.
func (r *OverlayRegistry) IsEnabled(id OverlayID) bool {
	return r.enabled[id]
}

// ByCategory returns overlays filtered by category.
func (r *OverlayRegistry) ByCategory(category string) []OverlayDescriptor {
	var result []OverlayDescriptor
	for _, desc := range r.descriptors {
		if desc.Category == category {
			result = append(result, desc)
		}
	}
	return result
}

// Categories returns all unique categories in order.
func (r *OverlayRegistry) Categories() []string {
	seen := make(map[string]bool)
	var cats []string
	for _, desc := range r.descriptors {
		if !seen[desc.Category] {
			seen[desc.Category] = true
			cats = append(cats, desc.Category)
		}
	}
	return cats
}

// HandleKeyPress checks if a key corresponds to an overlay toggle.
// Returns the overlay ID and new state if a toggle occurred.
func (r *OverlayRegistry) HandleKeyPress(key int32) (OverlayID, bool, bool) {
	for _, desc := range r.descriptors {
		if desc.Key == key {
			return desc.ID, r.Toggle(desc.ID), true
		}
	}
	return "", false, false
}

// Descriptors returns all registered overlays in registration order.
func (r *OverlayRegistry) Descriptors() []OverlayDescriptor {
	return r.descriptors
}
