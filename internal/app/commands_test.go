package app

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/token-overlay-tui/internal/services"
)

func TestTickCmd(t *testing.T) {
	msg := tickCmd(time.Millisecond)()
	if _, ok := msg.(TickMsg); !ok {
		t.Errorf("Expected TickMsg, got %T", msg)
	}
}

func TestNotifyCmds(t *testing.T) {
	tests := []struct {
		name     string
		fn       func(string) tea.Cmd
		want     NotificationType
		duration time.Duration
	}{
		{"Success", notifySuccessCmd, NotificationSuccess, DefaultNotificationDuration},
		{"Error", notifyErrorCmd, NotificationError, LongNotificationDuration},
		{"Warning", notifyWarningCmd, NotificationWarning, DefaultNotificationDuration},
		{"Info", notifyInfoCmd, NotificationInfo, QuickNotificationDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.fn("msg")()

			addMsg, ok := msg.(AddNotificationMsg)
			if !ok {
				t.Fatalf("Expected AddNotificationMsg, got %T", msg)
			}
			if addMsg.Type != tt.want {
				t.Errorf("Type = %v, want %v", addMsg.Type, tt.want)
			}
			if addMsg.Message != "msg" {
				t.Errorf("Message = %q, want msg", addMsg.Message)
			}
			if addMsg.Duration != tt.duration {
				t.Errorf("Duration = %v, want %v", addMsg.Duration, tt.duration)
			}
		})
	}
}

func TestClearNotificationCmd(t *testing.T) {
	msg := clearNotificationCmd("id", time.Millisecond)()
	rm, ok := msg.(RemoveNotificationMsg)
	if !ok || rm.ID != "id" {
		t.Errorf("Expected RemoveNotificationMsg{id}, got %#v", msg)
	}
}

func TestWaitForServiceEventCmd(t *testing.T) {
	ch := make(chan services.ServiceEvent, 1)
	ch <- services.ErrorEvent{Service: "capture"}

	msg := waitForServiceEventCmd(ch)()
	if _, ok := msg.(ServiceEventMsg); !ok {
		t.Errorf("Expected ServiceEventMsg, got %T", msg)
	}

	close(ch)
	if msg := waitForServiceEventCmd(ch)(); msg != nil {
		t.Errorf("closed channel should yield nil, got %T", msg)
	}
}

func TestScheduler_CoalescesRequests(t *testing.T) {
	s := NewScheduler(time.Millisecond)

	first := s.Request()
	if first == nil {
		t.Fatal("first Request() should schedule a frame")
	}
	for i := 0; i < 5; i++ {
		if cmd := s.Request(); cmd != nil {
			t.Errorf("Request() %d while pending should be absorbed", i)
		}
	}
	if !s.Pending() || s.Coalesced() != 5 {
		t.Errorf("Pending() = %v, Coalesced() = %d; want true, 5", s.Pending(), s.Coalesced())
	}

	if _, ok := first().(FrameMsg); !ok {
		t.Error("scheduled command should deliver a FrameMsg")
	}

	s.Frame()
	if s.Pending() {
		t.Error("Frame() should clear pending")
	}
	if s.Request() == nil {
		t.Error("Request() after a frame should schedule again")
	}
}

func TestNewScheduler_DefaultInterval(t *testing.T) {
	if s := NewScheduler(0); s.interval != DefaultFrameInterval {
		t.Errorf("interval = %v, want %v", s.interval, DefaultFrameInterval)
	}
}
