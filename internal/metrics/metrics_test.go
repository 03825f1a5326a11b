package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_RecordsRunsAndAttempts(t *testing.T) {
	m := New()
	m.RecordRunStarted()
	m.RecordRunFinished("done", "", 2*time.Second)
	m.RecordRunFinished("synthesizing", "no_backend_available", time.Second)
	m.RecordSynthesisAttempt("google", "skipped")
	m.RecordSynthesisAttempt("google", "skipped")

	if got := testutil.ToFloat64(m.RunsStarted); got != 1 {
		t.Fatalf("runs started = %v", got)
	}
	if got := testutil.ToFloat64(m.RunsFinished.WithLabelValues("synthesizing", "no_backend_available")); got != 1 {
		t.Fatalf("failed runs = %v", got)
	}
	if got := testutil.ToFloat64(m.SynthesisAttempts.WithLabelValues("google", "skipped")); got != 2 {
		t.Fatalf("skipped attempts = %v", got)
	}
}

func TestMetrics_InstancesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.RecordRunRejected()
	if got := testutil.ToFloat64(b.RunsRejected); got != 0 {
		t.Fatalf("expected independent registries, got %v", got)
	}
}

func TestHandler_ServesMetricsAndHealth(t *testing.T) {
	m := New()
	m.RecordRunStarted()
	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "hatsuon_runs_started_total 1") {
		t.Fatalf("metrics output missing counter:\n%s", body)
	}

	resp, err = http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected health status: %d", resp.StatusCode)
	}
}
