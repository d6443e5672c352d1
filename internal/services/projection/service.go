// Package projection estimates when the session's token total reaches the
// alert threshold from the recent trend samples.
package projection

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/j-veylop/token-overlay-tui/internal/models"
)

const (
	lowConfThreshold = 6
	medConfThreshold = 24

	// Remaining time below which the status escalates.
	criticalWithin = 5 * time.Minute
	warningWithin  = 30 * time.Minute

	// rateWindow bounds how far back the rate is measured.
	rateWindow = 10 * time.Minute
)

// Service computes and caches the latest projection.
type Service struct {
	mu     sync.RWMutex
	latest *models.Projection
}

// New creates a projection service.
func New() *Service {
	return &Service{}
}

// Calculate projects the samples against threshold. Samples must be ordered
// oldest first. A non-positive threshold yields an UNKNOWN projection.
func (s *Service) Calculate(samples []models.Sample, threshold int, now time.Time) *models.Projection {
	proj := &models.Projection{
		Threshold:    threshold,
		MinutesLeft:  math.Inf(1),
		Status:       models.ProjectionUnknown,
		Confidence:   confidence(len(samples)),
		DataPoints:   len(samples),
		CalculatedAt: now,
	}

	if len(samples) > 0 {
		proj.Total = samples[len(samples)-1].Total()
	}

	proj.Rate, proj.Window = rate(samples)

	switch {
	case threshold <= 0:
	case proj.Total >= threshold:
		proj.MinutesLeft = 0
		proj.Status = models.ProjectionCritical
	case proj.Rate > 0:
		proj.MinutesLeft = float64(threshold-proj.Total) / proj.Rate
		left := time.Duration(proj.MinutesLeft * float64(time.Minute))
		proj.ReachAt = now.Add(left)
		switch {
		case left < criticalWithin:
			proj.Status = models.ProjectionCritical
		case left < warningWithin:
			proj.Status = models.ProjectionWarning
		default:
			proj.Status = models.ProjectionSafe
		}
	default:
		proj.Status = models.ProjectionSafe
	}

	s.mu.Lock()
	s.latest = proj
	s.mu.Unlock()

	return proj
}

// rate returns the growth in tokens per minute between the oldest sample
// inside rateWindow and the newest one. Shrinking totals count as zero.
func rate(samples []models.Sample) (float64, time.Duration) {
	if len(samples) < 2 {
		return 0, 0
	}

	last := samples[len(samples)-1]
	first := samples[0]
	for _, sm := range samples {
		if last.Time.Sub(sm.Time) <= rateWindow {
			first = sm
			break
		}
	}

	elapsed := last.Time.Sub(first.Time)
	if elapsed <= 0 {
		return 0, 0
	}
	grown := last.Total() - first.Total()
	if grown <= 0 {
		return 0, elapsed
	}
	return float64(grown) / elapsed.Minutes(), elapsed
}

func confidence(dataPoints int) string {
	switch {
	case dataPoints < lowConfThreshold:
		return "low"
	case dataPoints < medConfThreshold:
		return "medium"
	default:
		return "high"
	}
}

// Latest returns the most recent projection, or nil before the first.
func (s *Service) Latest() *models.Projection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Reset drops the cached projection.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = nil
}

// Describe renders a projection as a short pace line, for example
// "1,200/min, ~4m left".
func Describe(p *models.Projection) string {
	if p == nil || p.Status == models.ProjectionUnknown {
		return "n/a"
	}
	if p.Reached() {
		return "reached"
	}
	if !p.Growing() {
		return "idle"
	}

	pace := humanize.Comma(int64(math.Round(p.Rate))) + "/min"
	left := p.TimeLeft()
	if left < time.Minute {
		return pace + ", <1m left"
	}
	return fmt.Sprintf("%s, ~%s left", pace, formatDuration(left))
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	if d >= time.Hour {
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	}
	return fmt.Sprintf("%dm", int(d.Minutes()))
}
