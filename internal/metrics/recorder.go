// Package metrics records build observability. Components take a Recorder;
// NoopRecorder is the default when metrics are disabled.
package metrics

import "time"

// Build outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomePartial  = "partial"
	OutcomeFailed   = "failed"
	OutcomeCanceled = "canceled"
)

// Recorder defines build observability hooks.
type Recorder interface {
	ObserveBuild(d time.Duration, outcome string)
	PageRendered(template string)
	ItemSkipped(reason string)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveBuild(time.Duration, string) {}
func (NoopRecorder) PageRendered(string)                {}
func (NoopRecorder) ItemSkipped(string)                 {}
