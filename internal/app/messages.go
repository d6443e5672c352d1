package app

import (
	"time"

	"github.com/j-veylop/token-overlay-tui/internal/services"
)

// TickMsg is sent periodically as the fallback refresh trigger.
type TickMsg struct {
	Time time.Time
}

// FrameMsg runs the refresh that the scheduler coalesced requests into.
type FrameMsg struct {
	Time time.Time
}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Type     NotificationType
	Message  string
	Duration time.Duration
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// ServiceEventMsg wraps a service event from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// SubscriptionEventMsg is the callback wrapper for service subscription.
type SubscriptionEventMsg struct {
	Channel <-chan services.ServiceEvent
}

// ErrorMsg reports a failure to the user as a notification.
type ErrorMsg struct {
	Error   error
	Context string
}
