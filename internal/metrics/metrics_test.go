package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.IncCreated()
	m.IncTransition("SUBMITTED", "CONFIRMED")
	m.IncRejected("invalid_transition")
	m.IncOtpVerification("ok")
	m.ObserveTransition(0)
}

func TestTransitionCounter(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.IncTransition("PICKED_UP", "DELIVERED")
	m.IncTransition("PICKED_UP", "DELIVERED")
	got := testutil.ToFloat64(m.StatusTransitions.WithLabelValues("PICKED_UP", "DELIVERED"))
	if got != 2 {
		t.Fatalf("counter want 2 got %v", got)
	}
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New(nil)
	m.IncCreated()
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "donatehub_donations_created_total 1") {
		t.Fatalf("missing counter in output: %s", w.Body.String())
	}
}
