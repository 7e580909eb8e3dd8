package trace

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMiddleware_CountsByOutcome(t *testing.T) {
	m := NewMiddleware()
	status := http.StatusOK
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
		}
	}))

	for _, code := range []int{http.StatusOK, http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError} {
		status = code
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}

	got := m.GetMetrics()
	if got.TotalRequests != 4 || got.ClientErrors != 2 || got.ServerErrors != 1 {
		t.Fatalf("unexpected metrics %+v", got)
	}
	if got.InFlight != 0 {
		t.Fatalf("expected no requests in flight, got %d", got.InFlight)
	}
}

func TestGetMetrics_Empty(t *testing.T) {
	if got := NewMiddleware().GetMetrics(); got.AverageResponseTime != 0 || got.TotalRequests != 0 {
		t.Fatalf("unexpected metrics %+v", got)
	}
}
