package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	m.ObserveRPC("/stepsquad.v1.GroupService/GetGroup", "ok", 10*time.Millisecond)
	m.ObserveRPC("/stepsquad.v1.GroupService/GetGroup", "ok", 20*time.Millisecond)
	m.ObserveRPC("/stepsquad.v1.GroupService/GetGroup", "not_found", time.Millisecond)
	m.GroupEvent(EventJoined)
	m.ObserveLockWait(time.Millisecond)

	if got := testutil.ToFloat64(m.rpcRequests.WithLabelValues("/stepsquad.v1.GroupService/GetGroup", "ok")); got != 2 {
		t.Errorf("ok requests = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.groupEvents.WithLabelValues(EventJoined)); got != 1 {
		t.Errorf("joined events = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.lockWait); got != 1 {
		t.Errorf("lock wait series = %d, want 1", got)
	}
}

func TestMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := New(reg); err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := New(reg); err == nil {
		t.Error("expected error registering twice")
	}
}

func TestMetrics_Nil(t *testing.T) {
	var m *Metrics
	m.ObserveRPC("p", "ok", time.Second)
	m.GroupEvent(EventCreated)
	m.ObserveLockWait(time.Second)
}
