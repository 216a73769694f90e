package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareCountsByRoute(t *testing.T) {
	m := New()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, path := range []string{"/users/1", "/users/2"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusTeapot, rec.Code)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("/users/{id}", http.MethodGet, "418")))
}

func TestAuthOutcome(t *testing.T) {
	m := New()
	m.AuthOutcome("login", "success")
	m.AuthOutcome("login", "success")
	m.AuthOutcome("login", "wrong_password")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.auth.WithLabelValues("login", "success")))

	var nilMetrics *Metrics
	assert.NotPanics(t, func() { nilMetrics.AuthOutcome("login", "success") })
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.AuthOutcome("signup", "success")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `postboard_auth_outcomes_total{operation="signup",outcome="success"} 1`)
}
