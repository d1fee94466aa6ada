package observability

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestMetricsWritePrometheusIncludesDeletionSeries(t *testing.T) {
	m := NewMetrics()
	m.ObserveAssetDelete("document", "deleted", 120*time.Millisecond)
	m.ObserveAssetDelete("document", "deleted", 80*time.Millisecond)
	m.IncAssetStepFailure("vector_delete", "index_delete_failed")
	m.AddScrubbedMessages(3)
	m.ObserveVectorOperation("qdrant", "delete", "ok", 500, 20*time.Millisecond)

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`asset_delete_total{kind="document",outcome="deleted"} 2.000000`,
		`asset_delete_step_failures_total{step="vector_delete",code="index_delete_failed"} 1.000000`,
		`asset_scrub_messages_total 3.000000`,
		`vector_delete_ids_total{provider="qdrant"} 500.000000`,
		`asset_delete_duration_seconds_count{kind="document"} 2`,
		`vector_store_operation_seconds_bucket{provider="qdrant",operation="delete",status="ok",le="+Inf"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("WritePrometheus: missing %q in:\n%s", want, out)
		}
	}
	if got := m.AssetDeletes("document", "deleted"); got != 2 {
		t.Fatalf("AssetDeletes: want=2 got=%v", got)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAssetDelete("document", "deleted", time.Second)
	m.IncAssetStepFailure("x", "y")
	m.AddScrubbedMessages(1)
	m.ObserveVectorOperation("p", "delete", "ok", 1, time.Second)
	m.ObserveAPI("GET", "/", "200", time.Second)
	if err := m.WritePrometheus(&bytes.Buffer{}); err != nil {
		t.Fatalf("WritePrometheus(nil): %v", err)
	}
}

func TestHistogramBucketsAreCumulative(t *testing.T) {
	h := NewHistogramVec("h", "help", []string{"k"}, []float64{1, 2})
	h.Observe(0.5, "a")
	h.Observe(1.5, "a")
	h.Observe(3, "a")
	var buf bytes.Buffer
	_ = h.WritePrometheus(&buf)
	out := buf.String()
	for _, want := range []string{`h_bucket{k="a",le="1"} 1`, `h_bucket{k="a",le="2"} 2`, `h_bucket{k="a",le="+Inf"} 3`} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	if h.Count("a") != 3 {
		t.Fatalf("Count: want=3 got=%d", h.Count("a"))
	}
}

func TestEscapeLabelAndStatusLabel(t *testing.T) {
	if got := labelString([]string{"a"}, []string{"x\"y"}); got != `{a="x\"y"}` {
		t.Fatalf("labelString: got=%s", got)
	}
	if StatusLabel(nil) != "ok" || StatusLabel(errors.New("x")) != "error" {
		t.Fatalf("StatusLabel mismatch")
	}
}
