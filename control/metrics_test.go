// Author: momentics <momentics@gmail.com>
//
// metrics_test.go — collector registration and nil-receiver safety.

package control_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/momentics/hioload-mux/control"
)

func TestMetrics_RecordsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := control.NewMetrics(reg)

	m.KeyRegistered()
	m.KeyRegistered()
	m.KeysPurged(1)
	m.CycleDone(5 * time.Millisecond)
	m.Wakeup()
	m.ProviderError()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	if len(families) != 6 {
		t.Fatalf("registered %d metric families, want 6", len(families))
	}

	counters := map[string]float64{
		"hioload_mux_selection_cycles_total": 1,
		"hioload_mux_keys_purged_total":      1,
		"hioload_mux_wakeups_total":          1,
		"hioload_mux_provider_errors_total":  1,
	}
	for _, mf := range families {
		want, ok := counters[mf.GetName()]
		if !ok {
			continue
		}
		if got := mf.GetMetric()[0].GetCounter().GetValue(); got != want {
			t.Errorf("%s = %v, want %v", mf.GetName(), got, want)
		}
		delete(counters, mf.GetName())
	}
	if len(counters) != 0 {
		t.Errorf("counters not gathered: %v", counters)
	}
}

func TestMetrics_GaugeTracksRegistrations(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := control.NewMetrics(reg)

	m.KeyRegistered()
	m.KeyRegistered()
	m.KeyRegistered()
	m.KeysPurged(2)

	const name = "hioload_mux_keys_registered"
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		if got := mf.GetMetric()[0].GetGauge().GetValue(); got != 1 {
			t.Errorf("%s = %v, want 1", name, got)
		}
		return
	}
	t.Fatalf("metric %s not found", name)
}

// The selector runs without metrics attached; every record method must
// tolerate a nil receiver.
func TestMetrics_NilReceiverSafe(t *testing.T) {
	var m *control.Metrics
	m.KeyRegistered()
	m.KeysPurged(3)
	m.CycleDone(time.Millisecond)
	m.Wakeup()
	m.ProviderError()
}
