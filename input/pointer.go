package input

// PointerKind enumerates pointer stream events.
type PointerKind uint8

const (
	PointerDown PointerKind = iota
	PointerUp
	PointerMove
	PointerLeave
)

// String returns the event name.
func (k PointerKind) String() string {
	switch k {
	case PointerDown:
		return "down"
	case PointerUp:
		return "up"
	case PointerMove:
		return "move"
	case PointerLeave:
		return "leave"
	}
	return "unknown"
}

// PointerEvent is one sample in device-pixel coordinates.
type PointerEvent struct {
	Kind PointerKind
	X, Y float32
}

// Mapper converts device pixels to grid coordinates.
type Mapper interface {
	ToGrid(px, py float32) (mx, my float64)
}

// DragState tracks whether the pointer is held and forwards moves made while
// it is held to a queue as damage events.
type DragState struct {
	active bool
	queue  *Queue
	mapper Mapper
}

// NewDragState creates an inactive drag tracker feeding queue.
func NewDragState(queue *Queue, mapper Mapper) *DragState {
	return &DragState{queue: queue, mapper: mapper}
}

// Active reports whether a drag is in progress.
func (d *DragState) Active() bool { return d.active }

// SetMapper replaces the coordinate mapper, e.g. after a resize.
func (d *DragState) SetMapper(m Mapper) { d.mapper = m }

// Handle applies one pointer event. It reports whether a damage event was
// queued.
func (d *DragState) Handle(ev PointerEvent) bool {
	switch ev.Kind {
	case PointerDown:
		d.active = true
	case PointerUp, PointerLeave:
		d.active = false
	case PointerMove:
		if !d.active || d.mapper == nil || d.queue == nil {
			return false
		}
		mx, my := d.mapper.ToGrid(ev.X, ev.Y)
		d.queue.Push(DamageEvent{X: mx, Y: my})
		return true
	}
	return false
}
