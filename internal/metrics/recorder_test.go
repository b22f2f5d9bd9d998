package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNoopRecorderIsSafe(t *testing.T) {
	var r Recorder = NoopRecorder{}
	require.NotPanics(t, func() {
		r.IncDispatch("incrementCounter", ResultApplied)
		r.ObserveNotifyDuration(time.Millisecond)
		r.SetActiveSubscriptions("counter", 3)
		r.IncBridgeRequest("dispatch", ResultError)
		r.IncPushDelivered("counter")
	})
}

func TestPrometheusRecorderCounts(t *testing.T) {
	reg := prom.NewRegistry()
	r := NewPrometheusRecorder(reg)

	r.IncDispatch("incrementCounter", ResultApplied)
	r.IncDispatch("incrementCounter", ResultApplied)
	r.IncDispatch("bogus", ResultIgnored)
	r.SetActiveSubscriptions("counter", 2)
	r.IncBridgeRequest("subscribe", ResultApplied)
	r.IncPushDelivered("counter")
	r.ObserveNotifyDuration(5 * time.Millisecond)

	require.Equal(t, float64(2),
		testutil.ToFloat64(r.dispatches.WithLabelValues("incrementCounter", string(ResultApplied))))
	require.Equal(t, float64(1),
		testutil.ToFloat64(r.dispatches.WithLabelValues("bogus", string(ResultIgnored))))
	require.Equal(t, float64(2),
		testutil.ToFloat64(r.activeSubs.WithLabelValues("counter")))
	require.Equal(t, float64(1),
		testutil.ToFloat64(r.bridgeRequests.WithLabelValues("subscribe", string(ResultApplied))))
	require.Equal(t, float64(1),
		testutil.ToFloat64(r.pushDelivered.WithLabelValues("counter")))

	families, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)
}
