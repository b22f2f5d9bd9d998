// Package metrics defines observability hooks for dispatch, notification,
// and bridge traffic. Implementations may forward to Prometheus; the noop
// recorder is the default when metrics are not configured.
package metrics

import "time"

// ResultLabel enumerates result categories for counters.
type ResultLabel string

const (
	ResultApplied ResultLabel = "applied"
	ResultIgnored ResultLabel = "ignored"
	ResultError   ResultLabel = "error"
)

// Recorder defines the hooks the engine and the bridge report through.
type Recorder interface {
	IncDispatch(action string, result ResultLabel)
	ObserveNotifyDuration(d time.Duration)
	SetActiveSubscriptions(field string, n int)
	IncBridgeRequest(op string, result ResultLabel)
	IncPushDelivered(field string)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) IncDispatch(string, ResultLabel)      {}
func (NoopRecorder) ObserveNotifyDuration(time.Duration)  {}
func (NoopRecorder) SetActiveSubscriptions(string, int)   {}
func (NoopRecorder) IncBridgeRequest(string, ResultLabel) {}
func (NoopRecorder) IncPushDelivered(string)              {}
