package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func TestMetricsHandler_Smoke(t *testing.T) {
	ExposeBuildInfo("test")
	ObserveHTTP("POST", "/v1/evaluate", 200, 0.001)
	ObserveEvaluation("amenagement", "soumis", 25*time.Millisecond)
	ObserveCriterion("loi_sur_leau", "zone_humide", time.Millisecond)
	IncCriterionFailure("sage", "interdiction_impact_zh", "evaluation_error")
	ObserveReload("import", 50*time.Millisecond, nil)
	IncHedgeStore("get", "hit")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, name := range []string{
		"app_build_info",
		"moulinette_evaluations_total",
		"moulinette_criterion_duration_seconds",
		"refdata_reloads_total",
	} {
		if !strings.Contains(body, name) {
			t.Fatalf("metrics payload missing %s; got:\n%s", name, body)
		}
	}
}
