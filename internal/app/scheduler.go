package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// DefaultFrameInterval approximates one display frame.
const DefaultFrameInterval = 16 * time.Millisecond

// Scheduler collapses refresh requests so that at most one refresh runs per
// frame. It is owned by the update loop and is not safe for concurrent use.
type Scheduler struct {
	interval  time.Duration
	pending   bool
	coalesced int
}

// NewScheduler creates a scheduler that delays refreshes by interval.
func NewScheduler(interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &Scheduler{interval: interval}
}

// Request schedules a frame unless one is already pending. It returns the
// command delivering the FrameMsg, or nil when the request was absorbed.
func (s *Scheduler) Request() tea.Cmd {
	if s.pending {
		s.coalesced++
		return nil
	}
	s.pending = true
	return tea.Tick(s.interval, func(t time.Time) tea.Msg {
		return FrameMsg{Time: t}
	})
}

// Frame marks the pending frame as delivered. Requests made after this call
// schedule a new frame.
func (s *Scheduler) Frame() {
	s.pending = false
}

// Pending reports whether a frame is scheduled.
func (s *Scheduler) Pending() bool {
	return s.pending
}

// Coalesced returns how many requests were absorbed by an already pending
// frame.
func (s *Scheduler) Coalesced() int {
	return s.coalesced
}
