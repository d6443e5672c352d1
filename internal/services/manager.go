// Package services provides service orchestration for the TUI.
package services

import (
	"fmt"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/gen2brain/beeep"

	"github.com/j-veylop/token-overlay-tui/internal/capture"
	"github.com/j-veylop/token-overlay-tui/internal/config"
	"github.com/j-veylop/token-overlay-tui/internal/logger"
	"github.com/j-veylop/token-overlay-tui/internal/models"
	"github.com/j-veylop/token-overlay-tui/internal/page"
)

type (
	// SnapshotEvent is emitted when a new page snapshot is available.
	SnapshotEvent struct {
		Document *page.Document
	}

	// InputEvent is emitted for each input event recorded on the page.
	InputEvent struct {
		Event models.InputEvent
	}

	// ErrorEvent is emitted when an error occurs in any service.
	ErrorEvent struct {
		Service string
		Error   error
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (SnapshotEvent) isServiceEvent() {}
func (InputEvent) isServiceEvent()    {}
func (ErrorEvent) isServiceEvent()    {}

// Notifier sends a desktop notification.
type Notifier func(title, body string) error

func beeepNotify(title, body string) error {
	return beeep.Notify(title, body, "")
}

// Manager orchestrates services and event routing.
type Manager struct {
	mu          sync.RWMutex
	capture     *capture.Service
	stopChan    chan struct{}
	subscribers []*subscriber
	latest      *page.Document

	alertMu        sync.Mutex
	alertThreshold int
	aboveThreshold bool
	notify         Notifier
}

// NewManager creates a new service manager.
func NewManager(cfg *config.Config) (*Manager, error) {
	m := &Manager{
		stopChan:       make(chan struct{}),
		alertThreshold: cfg.AlertThreshold,
		notify:         beeepNotify,
	}

	var err error
	m.capture, err = capture.New(cfg.CaptureDir)
	if err != nil {
		return nil, fmt.Errorf("failed to start capture service: %w", err)
	}

	go m.routeEvents()

	return m, nil
}

// routeEvents routes events from individual services to subscribers.
func (m *Manager) routeEvents() {
	for {
		select {
		case event := <-m.capture.Events():
			m.handleCaptureEvent(event)

		case <-m.stopChan:
			return
		}
	}
}

// handleCaptureEvent converts and broadcasts capture events.
func (m *Manager) handleCaptureEvent(event capture.Event) {
	switch event.Type {
	case capture.EventSnapshot:
		m.mu.Lock()
		m.latest = event.Document
		m.mu.Unlock()
		m.broadcast(SnapshotEvent{Document: event.Document})

	case capture.EventInput:
		m.broadcast(InputEvent{Event: event.Input})

	case capture.EventError:
		logger.Error("capture error", "error", event.Error)
		m.broadcast(ErrorEvent{
			Service: "capture",
			Error:   event.Error,
		})
	}
}

// CheckBudget sends a desktop notification when the reading's total first
// reaches the alert threshold. It fires once per upward crossing and re-arms
// when the total drops below the threshold again. It reports whether a
// notification was sent.
func (m *Manager) CheckBudget(r models.Reading) bool {
	m.alertMu.Lock()
	defer m.alertMu.Unlock()

	if m.alertThreshold <= 0 {
		return false
	}

	total := r.Total()
	if total < m.alertThreshold {
		m.aboveThreshold = false
		return false
	}
	if m.aboveThreshold {
		return false
	}
	m.aboveThreshold = true

	title := fmt.Sprintf("Token budget reached: %s", r.Model)
	body := fmt.Sprintf("%s tokens used (threshold %s)",
		humanize.Comma(int64(total)), humanize.Comma(int64(m.alertThreshold)))
	if err := m.notify(title, body); err != nil {
		logger.Warn("failed to send budget notification", "error", err)
	}
	return true
}

// AlertThreshold returns the configured budget threshold; zero means off.
func (m *Manager) AlertThreshold() int {
	return m.alertThreshold
}

// subscriber queues events for one consumer. Input and error events are
// never dropped; a snapshot replaces a snapshot still waiting at the tail of
// the queue, since only the newest page matters.
type subscriber struct {
	out  chan ServiceEvent
	wake chan struct{}
	done chan struct{}

	mu    sync.Mutex
	queue []ServiceEvent
}

func newSubscriber() *subscriber {
	return &subscriber{
		out:  make(chan ServiceEvent),
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

func (s *subscriber) push(event ServiceEvent) {
	s.mu.Lock()
	n := len(s.queue)
	if _, ok := event.(SnapshotEvent); ok && n > 0 {
		if _, tail := s.queue[n-1].(SnapshotEvent); tail {
			s.queue[n-1] = event
			s.mu.Unlock()
			s.signal()
			return
		}
	}
	s.queue = append(s.queue, event)
	s.mu.Unlock()
	s.signal()
}

func (s *subscriber) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscriber) pop() (ServiceEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return nil, false
	}
	event := s.queue[0]
	s.queue[0] = nil
	s.queue = s.queue[1:]
	return event, true
}

// run forwards queued events until the subscriber or the manager stops,
// then closes the output channel.
func (s *subscriber) run(stop <-chan struct{}) {
	defer close(s.out)
	for {
		event, ok := s.pop()
		if !ok {
			select {
			case <-s.wake:
				continue
			case <-s.done:
				return
			case <-stop:
				return
			}
		}
		select {
		case s.out <- event:
		case <-s.done:
			return
		case <-stop:
			return
		}
	}
}

// broadcast queues an event for every subscriber.
func (m *Manager) broadcast(event ServiceEvent) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		sub.push(event)
	}
}

// Subscribe creates a channel for receiving service events in order. A
// subscriber joining after the first snapshot receives the latest one first.
func (m *Manager) Subscribe() <-chan ServiceEvent {
	sub := newSubscriber()

	m.mu.Lock()
	if m.latest != nil {
		sub.push(SnapshotEvent{Document: m.latest})
	}
	m.subscribers = append(m.subscribers, sub)
	m.mu.Unlock()

	go sub.run(m.stopChan)
	return sub.out
}

// Unsubscribe removes a subscriber; its channel is closed.
func (m *Manager) Unsubscribe(ch <-chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if (<-chan ServiceEvent)(sub.out) == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(sub.done)
			break
		}
	}
}

// Latest returns the most recent page snapshot, or nil before the first.
func (m *Manager) Latest() *page.Document {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest
}

// Capture returns the capture service.
func (m *Manager) Capture() *capture.Service {
	return m.capture
}

// Close closes the manager and all its services.
func (m *Manager) Close() error {
	close(m.stopChan)

	m.mu.Lock()
	m.subscribers = nil
	m.mu.Unlock()

	if err := m.capture.Close(); err != nil {
		return fmt.Errorf("failed to close capture service: %w", err)
	}
	return nil
}
