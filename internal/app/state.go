// Package app provides the main Bubble Tea application model and state management.
package app

import (
	"sync"
	"time"

	"github.com/j-veylop/token-overlay-tui/internal/models"
)

// NotificationType defines the type of notification.
type NotificationType int

const (
	// NotificationSuccess represents a success notification.
	NotificationSuccess NotificationType = iota
	// NotificationError represents an error notification.
	NotificationError
	// NotificationWarning represents a warning notification.
	NotificationWarning
	// NotificationInfo represents an informational notification.
	NotificationInfo
)

// MaxSamples bounds the trend history.
const MaxSamples = 60

// String returns the string representation of a NotificationType.
func (n NotificationType) String() string {
	switch n {
	case NotificationSuccess:
		return "success"
	case NotificationError:
		return "error"
	case NotificationWarning:
		return "warning"
	case NotificationInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Notification represents a user-facing notification message.
type Notification struct {
	ID        string
	Type      NotificationType
	Message   string
	CreatedAt time.Time
	Duration  time.Duration
}

// IsExpired returns true if the notification has expired.
func (n *Notification) IsExpired() bool {
	if n.Duration <= 0 {
		return false
	}
	return time.Since(n.CreatedAt) > n.Duration
}

// PageStats summarizes the current page snapshot for the status view.
type PageStats struct {
	SnapshotAt   time.Time
	Snapshots    int
	Messages     int
	Registered   int
	InputEvents  int
	Sends        int
	LastChange   string
	LastRefresh  time.Time
	RefreshFails int
}

// State holds application state that is not part of the session: toasts,
// trend samples and page statistics.
type State struct {
	mu sync.RWMutex

	samples []models.Sample
	page    PageStats

	notifications   []Notification
	notificationSeq int
}

// NewState creates an empty application state.
func NewState() *State {
	return &State{
		samples:       make([]models.Sample, 0, MaxSamples),
		notifications: make([]Notification, 0),
	}
}

// AddSample appends a trend sample, dropping the oldest beyond MaxSamples.
// A sample equal in value to the previous one only refreshes its time.
func (s *State) AddSample(sample models.Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n := len(s.samples); n > 0 {
		last := s.samples[n-1]
		if last.InputSum == sample.InputSum && last.Output == sample.Output {
			s.samples[n-1].Time = sample.Time
			return
		}
	}

	s.samples = append(s.samples, sample)
	if len(s.samples) > MaxSamples {
		s.samples = s.samples[len(s.samples)-MaxSamples:]
	}
}

// Samples returns a copy of the trend samples, oldest first.
func (s *State) Samples() []models.Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	samples := make([]models.Sample, len(s.samples))
	copy(samples, s.samples)
	return samples
}

// ClearSamples drops the trend history.
func (s *State) ClearSamples() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = s.samples[:0]
}

// RecordSnapshot notes a new page snapshot and the change it carried.
func (s *State) RecordSnapshot(at time.Time, change string, registered int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page.SnapshotAt = at
	s.page.Snapshots++
	s.page.LastChange = change
	s.page.Registered = registered
}

// RecordInput counts an input event and whether it was a send.
func (s *State) RecordInput(sent bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page.InputEvents++
	if sent {
		s.page.Sends++
	}
}

// RecordRefresh notes a completed refresh.
func (s *State) RecordRefresh(at time.Time, messages int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page.LastRefresh = at
	s.page.Messages = messages
}

// RecordRefreshFailure counts a refresh that was abandoned.
func (s *State) RecordRefreshFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page.RefreshFails++
}

// PageStats returns a copy of the page statistics.
func (s *State) PageStats() PageStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.page
}

// AddNotification adds a new notification and returns its ID.
func (s *State) AddNotification(notifType NotificationType, message string, duration time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notificationSeq++
	id := time.Now().Format("20060102150405") + "-" + string(rune('A'+s.notificationSeq%26))

	notification := Notification{
		ID:        id,
		Type:      notifType,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  duration,
	}

	s.notifications = append(s.notifications, notification)

	// Keep only the last 5 notifications
	if len(s.notifications) > 5 {
		s.notifications = s.notifications[len(s.notifications)-5:]
	}

	return id
}

// RemoveNotification removes a notification by ID.
func (s *State) RemoveNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// ClearExpiredNotifications removes all expired notifications.
func (s *State) ClearExpiredNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	s.notifications = active
}

// GetNotifications returns a copy of all active notifications.
func (s *State) GetNotifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}

	return active
}

// ClearAllNotifications removes all notifications.
func (s *State) ClearAllNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = make([]Notification, 0)
}
