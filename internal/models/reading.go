// Package models defines data structures and domain types.
package models

import "time"

// Reading is the result of one refresh pass. It is recomputed from the page
// on every refresh and never stored beyond the display.
type Reading struct {
	RefreshedAt          time.Time
	Model                string
	CommittedInputTokens int
	CurrentInputTokens   int
	OutputTokens         int
}

// InputSum returns committed plus current input tokens.
func (r Reading) InputSum() int {
	return r.CommittedInputTokens + r.CurrentInputTokens
}

// Total returns all tokens shown by the reading, input and output.
func (r Reading) Total() int {
	return r.InputSum() + r.OutputTokens
}

// IsZero reports whether no refresh has produced this reading yet.
func (r Reading) IsZero() bool {
	return r.RefreshedAt.IsZero()
}

// Sample is one point of the in-memory token trend.
type Sample struct {
	Time     time.Time
	InputSum int
	Output   int
}

// Total returns the sample's input sum plus output.
func (s Sample) Total() int {
	return s.InputSum + s.Output
}

// SampleFromReading converts a reading into a trend sample.
func SampleFromReading(r Reading) Sample {
	return Sample{
		Time:     r.RefreshedAt,
		InputSum: r.InputSum(),
		Output:   r.OutputTokens,
	}
}
