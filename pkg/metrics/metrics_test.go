package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/weles/pkg/metrics"
)

func TestHandlerExposesRegisteredCollectors(t *testing.T) {
	reg := metrics.NewRegistry()
	c := metrics.MustRegisterCounterVec(reg, "test", "events_total", "events seen", "kind")
	c.WithLabelValues("hit").Inc()

	h := metrics.MustRegisterHistogramVec(reg, "test", "duration_seconds", "durations", nil, "kind")
	h.WithLabelValues("build").Observe(1.5)

	g := metrics.MustRegisterGaugeVec(reg, "test", "queue_depth", "queued items", "pool")
	g.WithLabelValues("tasks").Set(2)

	rec := httptest.NewRecorder()
	metrics.Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, _ := io.ReadAll(rec.Result().Body)
	for _, want := range []string{
		`weles_test_events_total{kind="hit"} 1`,
		`weles_test_duration_seconds_count{kind="build"} 1`,
		`weles_test_queue_depth{pool="tasks"} 2`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	reg := metrics.NewRegistry()
	metrics.MustRegisterCounterVec(reg, "test", "dup_total", "dup")

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	metrics.MustRegisterCounterVec(reg, "test", "dup_total", "dup")
}
