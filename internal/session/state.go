// Package session holds the mutable state of one tracking session: the
// committed token total and the overlay's collapse and drag state.
package session

import "sync"

// Anchor selects how the overlay position is interpreted.
type Anchor int

const (
	// AnchorBottomRight places the overlay at a margin from the bottom-right
	// corner. It is the initial anchor.
	AnchorBottomRight Anchor = iota
	// AnchorTopLeft places the overlay at an absolute top-left position.
	// The first drag switches to it.
	AnchorTopLeft
)

// String returns the string representation of the anchor.
func (a Anchor) String() string {
	switch a {
	case AnchorBottomRight:
		return "bottom-right"
	case AnchorTopLeft:
		return "top-left"
	default:
		return "unknown"
	}
}

// Point is a terminal cell coordinate.
type Point struct {
	X int
	Y int
}

// Default margins of the bottom-right anchor, in cells.
const (
	DefaultMarginRight  = 2
	DefaultMarginBottom = 1
)

// State is the session state. The zero value is not ready for use; call New.
type State struct {
	mu sync.RWMutex

	committedInputTokens int

	collapsed  bool
	anchor     Anchor
	margin     Point // bottom-right margins while anchored bottom-right
	position   Point // top-left position while anchored top-left
	dragging   bool
	dragOffset Point
}

// New returns a fresh session: nothing committed, overlay expanded and
// anchored bottom-right.
func New() *State {
	return &State{
		anchor: AnchorBottomRight,
		margin: Point{X: DefaultMarginRight, Y: DefaultMarginBottom},
	}
}

// Commit adds tokens to the committed total when tokens is positive and
// reports whether the total changed. There is no way to take a commit back.
func (s *State) Commit(tokens int) bool {
	if tokens <= 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.committedInputTokens += tokens
	return true
}

// Committed returns the committed input token total.
func (s *State) Committed() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.committedInputTokens
}

// Reset zeroes the committed total, as a page reload would.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.committedInputTokens = 0
}

// Collapsed reports whether the overlay body is hidden.
func (s *State) Collapsed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collapsed
}

// ToggleCollapsed flips the collapse flag and returns the new value.
func (s *State) ToggleCollapsed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collapsed = !s.collapsed
	return s.collapsed
}

// Anchor returns the current anchor.
func (s *State) Anchor() Anchor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.anchor
}

// Margin returns the bottom-right margins.
func (s *State) Margin() Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.margin
}

// Position returns the top-left position used by AnchorTopLeft.
func (s *State) Position() Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.position
}

// Dragging reports whether a drag is in progress.
func (s *State) Dragging() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dragging
}

// BeginDrag starts a drag. origin is where the overlay is currently drawn
// and pointer is where the header was pressed. The anchor switches to
// top-left, fixed at origin, so the overlay does not jump.
func (s *State) BeginDrag(origin, pointer Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dragging = true
	s.dragOffset = Point{X: pointer.X - origin.X, Y: pointer.Y - origin.Y}
	s.anchor = AnchorTopLeft
	s.position = origin
}

// DragTo moves the overlay so the pressed point follows the pointer. It
// does nothing unless a drag is in progress and returns whether it moved.
func (s *State) DragTo(pointer Point) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dragging {
		return false
	}
	s.position = Point{X: pointer.X - s.dragOffset.X, Y: pointer.Y - s.dragOffset.Y}
	return true
}

// EndDrag stops the drag in progress, if any.
func (s *State) EndDrag() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dragging = false
}

// SetPosition moves the overlay to an absolute top-left position.
func (s *State) SetPosition(p Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.anchor = AnchorTopLeft
	s.position = p
}
