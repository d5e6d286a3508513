package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	Register(reg)

	ProbeFallbacksTotal.WithLabelValues("width").Inc()
	JobsFinishedTotal.WithLabelValues("succeeded").Inc()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	names := make(map[string]bool, len(families))
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	for _, want := range []string{"videomixer_probe_fallbacks_total", "videomixer_jobs_finished_total"} {
		if !names[want] {
			t.Fatalf("missing metric family %s", want)
		}
	}
	if got := testutil.ToFloat64(ProbeFallbacksTotal.WithLabelValues("width")); got < 1 {
		t.Fatalf("probe fallback counter = %v", got)
	}
}
