package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once           sync.Once
	dispatches     *prom.CounterVec
	notifyLatency  prom.Histogram
	activeSubs     *prom.GaugeVec
	bridgeRequests *prom.CounterVec
	pushDelivered  *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.dispatches = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "statebus",
			Name:      "dispatches_total",
			Help:      "Dispatched actions by type and result",
		}, []string{"action", "result"})
		pr.notifyLatency = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "statebus",
			Name:      "notify_duration_seconds",
			Help:      "Duration of subscriber notification passes",
			Buckets:   prom.DefBuckets,
		})
		pr.activeSubs = prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "statebus",
			Name:      "active_subscriptions",
			Help:      "Registered subscription slots per field",
		}, []string{"field"})
		pr.bridgeRequests = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "statebus",
			Name:      "bridge_requests_total",
			Help:      "Bridge request handler invocations by operation and result",
		}, []string{"op", "result"})
		pr.pushDelivered = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "statebus",
			Name:      "push_updates_total",
			Help:      "Field update pushes published to remote subscribers",
		}, []string{"field"})
		reg.MustRegister(pr.dispatches, pr.notifyLatency, pr.activeSubs, pr.bridgeRequests, pr.pushDelivered)
	})
	return pr
}

func (pr *PrometheusRecorder) IncDispatch(action string, result ResultLabel) {
	pr.dispatches.WithLabelValues(action, string(result)).Inc()
}

func (pr *PrometheusRecorder) ObserveNotifyDuration(d time.Duration) {
	pr.notifyLatency.Observe(d.Seconds())
}

func (pr *PrometheusRecorder) SetActiveSubscriptions(field string, n int) {
	pr.activeSubs.WithLabelValues(field).Set(float64(n))
}

func (pr *PrometheusRecorder) IncBridgeRequest(op string, result ResultLabel) {
	pr.bridgeRequests.WithLabelValues(op, string(result)).Inc()
}

func (pr *PrometheusRecorder) IncPushDelivered(field string) {
	pr.pushDelivered.WithLabelValues(field).Inc()
}

var _ Recorder = (*PrometheusRecorder)(nil)
