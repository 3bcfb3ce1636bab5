package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRegistry(t *testing.T) {
	if Registry == nil {
		t.Error("Registry should not be nil")
	}

	if Registry != prometheus.DefaultRegisterer {
		t.Error("Registry should be the default Prometheus registerer")
	}
}

func TestHandler(t *testing.T) {
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "minicrm_metrics_handler_test_total",
		Help: "Counter registered by the handler test",
	})
	if err := Registry.Register(counter); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	defer Registry.Unregister(counter)
	counter.Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "minicrm_metrics_handler_test_total 1") {
		t.Errorf("Expected test counter in output, got %q", string(body))
	}
}
