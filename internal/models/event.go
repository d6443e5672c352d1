// Package models defines data structures and domain types.
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// InputEventType is the DOM event type recorded by the exporter.
type InputEventType string

const (
	// InputKeyDown is a key press.
	InputKeyDown InputEventType = "keydown"
	// InputClick is a mouse click.
	InputClick InputEventType = "click"
)

// InputEvent is one line of the capture's event log.
type InputEvent struct {
	Time     time.Time      `json:"time"`
	Type     InputEventType `json:"type"`
	Key      string         `json:"key,omitempty"`
	Target   string         `json:"target"`
	ShiftKey bool           `json:"shiftKey,omitempty"`
}

// IsEnterWithoutShift reports whether the event is a plain Enter key press.
func (e InputEvent) IsEnterWithoutShift() bool {
	return e.Type == InputKeyDown && e.Key == "Enter" && !e.ShiftKey
}

// ParseInputEvent decodes one event log line.
func ParseInputEvent(line []byte) (InputEvent, error) {
	var ev InputEvent
	if err := json.Unmarshal(line, &ev); err != nil {
		return InputEvent{}, fmt.Errorf("failed to decode input event: %w", err)
	}

	switch ev.Type {
	case InputKeyDown, InputClick:
	default:
		return InputEvent{}, fmt.Errorf("unsupported input event type %q", ev.Type)
	}
	if ev.Target == "" {
		return InputEvent{}, fmt.Errorf("input event %q has no target", ev.Type)
	}
	return ev, nil
}
