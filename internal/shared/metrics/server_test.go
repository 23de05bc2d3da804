package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHealthz(t *testing.T) {
	healthy := true
	mux := NewMux(func(ctx context.Context) error {
		if !healthy {
			return errors.New("feed down")
		}
		return nil
	})

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("code=%d want 200", w.Code)
	}

	healthy = false
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("code=%d want 503", w.Code)
	}
	if !strings.Contains(w.Body.String(), "feed down") {
		t.Fatalf("body=%q", w.Body.String())
	}
}

func TestMetricsExposesCollectors(t *testing.T) {
	FeedConnects.Inc()
	w := httptest.NewRecorder()
	NewMux(nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(w.Body.String(), "toto_feed_connects_total") {
		t.Fatalf("metrics output missing toto_feed_connects_total")
	}
}
