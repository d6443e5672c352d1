package models

import (
	"math"
	"time"
)

// ProjectionStatus indicates how close the session is to its token budget.
type ProjectionStatus string

const (
	ProjectionSafe     ProjectionStatus = "SAFE"
	ProjectionWarning  ProjectionStatus = "WARNING"
	ProjectionCritical ProjectionStatus = "CRITICAL"
	ProjectionUnknown  ProjectionStatus = "UNKNOWN"
)

// Projection estimates when the token total reaches the budget threshold at
// the pace seen in the recent samples.
type Projection struct {
	Total        int
	Threshold    int
	Rate         float64       // tokens per minute
	MinutesLeft  float64       // +Inf when the total is not growing
	ReachAt      time.Time     // zero when the total is not growing
	Window       time.Duration // time span the rate was measured over
	Status       ProjectionStatus
	Confidence   string // "low", "medium", "high"
	DataPoints   int
	CalculatedAt time.Time
}

// Reached reports whether the total is at or above the threshold.
func (p *Projection) Reached() bool {
	return p.Threshold > 0 && p.Total >= p.Threshold
}

// Growing reports whether the total grew over the measured window.
func (p *Projection) Growing() bool {
	return p.Rate > 0 && !math.IsInf(p.MinutesLeft, 1)
}

// TimeLeft returns the projected time until the threshold, or 0 when it
// is reached or the total is not growing.
func (p *Projection) TimeLeft() time.Duration {
	if p.Reached() || !p.Growing() {
		return 0
	}
	return time.Duration(p.MinutesLeft * float64(time.Minute))
}
