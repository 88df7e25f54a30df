package observability_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"bizreviews/internal/adapters/observability"
)

func scrape(t *testing.T, h http.Handler) map[string]*dto.MetricFamily {
	t.Helper()
	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	var p expfmt.TextParser
	mfs, err := p.TextToMetricFamilies(rr.Body)
	if err != nil {
		t.Fatalf("parse exposition: %v", err)
	}
	return mfs
}

func counterWith(mf *dto.MetricFamily, labels map[string]string) float64 {
	for _, m := range mf.GetMetric() {
		match := true
		for _, lp := range m.GetLabel() {
			if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
				match = false
			}
		}
		if match {
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := observability.InitRegistry()

	observability.ObserveHTTP("/test", "GET", 200, 12*time.Millisecond)
	observability.ObserveDatastore("memory", "get", "not_found", time.Millisecond)
	observability.ObserveClaim("held")

	mfs := scrape(t, observability.MetricsHandler(reg))

	for _, name := range []string{
		"bizreviews_http_requests_total",
		"bizreviews_datastore_ops_total",
		"bizreviews_review_claims_total",
	} {
		if _, ok := mfs[name]; !ok {
			t.Fatalf("expected %s in output", name)
		}
	}
	if v := counterWith(mfs["bizreviews_datastore_ops_total"], map[string]string{"backend": "memory", "op": "get", "result": "not_found"}); v < 1 {
		t.Fatalf("datastore counter = %v", v)
	}
	if v := counterWith(mfs["bizreviews_review_claims_total"], map[string]string{"event": "held"}); v < 1 {
		t.Fatalf("claims counter = %v", v)
	}
}
