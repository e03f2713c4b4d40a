package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNilSafeWithoutRegisterer(t *testing.T) {
	m := NewCronJobMetrics(nil)
	// Must not panic when metrics are disabled.
	m.ObserveDuration("monthly-payouts", time.Second)
	m.IncSuccess("monthly-payouts")
	m.IncFailure("monthly-payouts")

	var zero *CronJobMetrics
	zero.IncSuccess("monthly-payouts")
}

func TestRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)

	m.ObserveDuration("monthly-payouts", 250*time.Millisecond)
	m.IncSuccess("monthly-payouts")
	m.IncFailure("")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(families) != 3 {
		t.Fatalf("expected 3 metric families, got %d", len(families))
	}
}
