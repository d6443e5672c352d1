package models

import (
	"math"
	"testing"
	"time"
)

func TestProjectionStatus_Constants(t *testing.T) {
	statuses := []ProjectionStatus{
		ProjectionSafe,
		ProjectionWarning,
		ProjectionCritical,
		ProjectionUnknown,
	}

	seen := make(map[ProjectionStatus]bool)
	for _, s := range statuses {
		if seen[s] {
			t.Errorf("Duplicate status constant: %s", s)
		}
		seen[s] = true
	}
}

func TestProjection_TimeLeft(t *testing.T) {
	tests := []struct {
		name        string
		proj        Projection
		wantReached bool
		wantGrowing bool
		wantLeft    time.Duration
	}{
		{
			name:        "Growing",
			proj:        Projection{Total: 500, Threshold: 1000, Rate: 100, MinutesLeft: 5},
			wantGrowing: true,
			wantLeft:    5 * time.Minute,
		},
		{
			name:     "Idle",
			proj:     Projection{Total: 500, Threshold: 1000, MinutesLeft: math.Inf(1)},
			wantLeft: 0,
		},
		{
			name:        "Reached",
			proj:        Projection{Total: 1200, Threshold: 1000, Rate: 50},
			wantReached: true,
			wantGrowing: true,
		},
		{
			name: "NoThreshold",
			proj: Projection{Total: 1200},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.proj.Reached(); got != tt.wantReached {
				t.Errorf("Reached() = %v, want %v", got, tt.wantReached)
			}
			if got := tt.proj.Growing(); got != tt.wantGrowing {
				t.Errorf("Growing() = %v, want %v", got, tt.wantGrowing)
			}
			if got := tt.proj.TimeLeft(); got != tt.wantLeft {
				t.Errorf("TimeLeft() = %v, want %v", got, tt.wantLeft)
			}
		})
	}
}

func TestSample_Total(t *testing.T) {
	s := SampleFromReading(Reading{CommittedInputTokens: 3, CurrentInputTokens: 4, OutputTokens: 5})
	if s.Total() != 12 {
		t.Errorf("Total() = %d, want 12", s.Total())
	}
}
