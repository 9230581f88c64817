package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"bluerate/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type stateStub struct{ state domain.RefreshState }

func (s stateStub) State() domain.RefreshState { return s.state }

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	h := &Handler{tracer: trace.NewNoopTracerProvider().Tracer("test")}
	r.GET("/health", h.Health)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	body := w.Body.String()
	if body != "{\"status\":\"healthy\"}\n" && body != "{\"status\":\"healthy\"}" {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestHealthReportsRefreshState(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		state  domain.RefreshState
		status string
	}{
		{"starting", domain.RefreshState{}, "starting"},
		{"healthy", domain.RefreshState{Sample: &domain.RateSample{ID: 1}, Healthy: true}, "healthy"},
		{"degraded", domain.RefreshState{Sample: &domain.RateSample{ID: 1}, LastError: "anchor down"}, "degraded"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := &Handler{tracer: trace.NewNoopTracerProvider().Tracer("test")}
			h.SetStateReporter(stateStub{state: tc.state})
			r := gin.New()
			r.GET("/health", h.Health)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			var body struct {
				Status string              `json:"status"`
				Rates  domain.RefreshState `json:"rates"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("parse error: %v", err)
			}
			if body.Status != tc.status {
				t.Fatalf("expected %s, got %s", tc.status, body.Status)
			}
			if body.Rates.LastError != tc.state.LastError {
				t.Fatalf("expected last error %q, got %q", tc.state.LastError, body.Rates.LastError)
			}
		})
	}
}
