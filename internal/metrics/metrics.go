// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var histogramBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}

// Group events counted by GroupEvent.
const (
	EventCreated         = "created"
	EventUpdated         = "updated"
	EventDeleted         = "deleted"
	EventJoined          = "joined"
	EventLeft            = "left"
	EventInvited         = "invited"
	EventRemoved         = "removed"
	EventCodeRegenerated = "code_regenerated"
	EventRoleChanged     = "role_changed"
)

// Metrics records RPC and domain activity. A nil *Metrics records nothing.
type Metrics struct {
	rpcRequests *prometheus.CounterVec
	rpcLatency  *prometheus.HistogramVec
	groupEvents *prometheus.CounterVec
	lockWait    prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		rpcRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stepsquad",
			Subsystem: "rpc",
			Name:      "requests_total",
			Help:      "Count of handled RPCs by procedure and code",
		}, []string{"procedure", "code"}),
		rpcLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "stepsquad",
			Subsystem: "rpc",
			Name:      "request_duration_seconds",
			Help:      "Latency distribution of RPC handlers",
			Buckets:   histogramBuckets,
		}, []string{"procedure"}),
		groupEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stepsquad",
			Subsystem: "groups",
			Name:      "events_total",
			Help:      "Successful group mutations by kind",
		}, []string{"event"}),
		lockWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "stepsquad",
			Subsystem: "groups",
			Name:      "lock_wait_seconds",
			Help:      "Time spent waiting for a group lock",
			Buckets:   histogramBuckets,
		}),
	}

	collectors := []prometheus.Collector{m.rpcRequests, m.rpcLatency, m.groupEvents, m.lockWait}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveRPC records one finished RPC. code is "ok" for success.
func (m *Metrics) ObserveRPC(procedure, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.rpcRequests.WithLabelValues(procedure, code).Inc()
	m.rpcLatency.WithLabelValues(procedure).Observe(d.Seconds())
}

// GroupEvent counts one successful group mutation.
func (m *Metrics) GroupEvent(event string) {
	if m == nil {
		return
	}
	m.groupEvents.WithLabelValues(event).Inc()
}

// ObserveLockWait records how long a caller waited for a group lock.
func (m *Metrics) ObserveLockWait(d time.Duration) {
	if m == nil {
		return
	}
	m.lockWait.Observe(d.Seconds())
}
