package models

import (
	"testing"
	"time"
)

func TestReading_InputSum(t *testing.T) {
	r := Reading{CommittedInputTokens: 40, CurrentInputTokens: 2, OutputTokens: 100}
	if r.InputSum() != 42 {
		t.Errorf("InputSum() = %d, want 42", r.InputSum())
	}
	if r.Total() != 142 {
		t.Errorf("Total() = %d, want 142", r.Total())
	}
}

func TestReading_IsZero(t *testing.T) {
	if !(Reading{}).IsZero() {
		t.Error("zero reading should report IsZero")
	}
	if (Reading{RefreshedAt: time.Now()}).IsZero() {
		t.Error("refreshed reading should not report IsZero")
	}
}

func TestSampleFromReading(t *testing.T) {
	now := time.Now()
	s := SampleFromReading(Reading{
		RefreshedAt:          now,
		CommittedInputTokens: 10,
		CurrentInputTokens:   5,
		OutputTokens:         30,
	})
	if s.InputSum != 15 || s.Output != 30 || !s.Time.Equal(now) {
		t.Errorf("SampleFromReading() = %+v", s)
	}
}

func TestParseInputEvent(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantErr   bool
		wantEnter bool
	}{
		{"Enter", `{"type":"keydown","key":"Enter","target":"#prompt-textarea"}`, false, true},
		{"ShiftEnter", `{"type":"keydown","key":"Enter","shiftKey":true,"target":"#prompt-textarea"}`, false, false},
		{"OtherKey", `{"type":"keydown","key":"a","target":"#prompt-textarea"}`, false, false},
		{"Click", `{"type":"click","target":"button[data-testid='send-button']","time":"2025-01-01T10:00:00Z"}`, false, false},
		{"UnknownType", `{"type":"scroll","target":"main"}`, true, false},
		{"NoTarget", `{"type":"click"}`, true, false},
		{"Malformed", `{"type":`, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := ParseInputEvent([]byte(tt.line))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseInputEvent() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && ev.IsEnterWithoutShift() != tt.wantEnter {
				t.Errorf("IsEnterWithoutShift() = %v, want %v", ev.IsEnterWithoutShift(), tt.wantEnter)
			}
		})
	}
}
