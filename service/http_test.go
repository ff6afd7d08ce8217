package service

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.ule.co/platform/core"
	"go.uber.org/fx/fxtest"
)

type panicAPI struct{}

func (panicAPI) Name() string { return "panic" }

func (panicAPI) Configure(router *mux.Router) error {
	router.HandleFunc("/boom", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
	return nil
}

func newTestHTTPService(t *testing.T) *HTTPServiceDefault {
	t.Helper()

	h, err := NewHTTPService(fxtest.NewLifecycle(t), HTTPServiceParams{
		Config:  newStaticConfig(1),
		Logger:  core.NewNopLogger(),
		Metrics: NewMetrics(),
		APIs:    []core.API{panicAPI{}},
	})
	require.NoError(t, err)

	return h
}

func TestHTTPServiceMetrics(t *testing.T) {
	h := newTestHTTPService(t)

	rec := httptest.NewRecorder()
	h.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestHTTPServiceRecoversPanics(t *testing.T) {
	h := newTestHTTPService(t)

	rec := httptest.NewRecorder()
	h.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHTTPServiceCors(t *testing.T) {
	h := newTestHTTPService(t)

	tests := []struct {
		origin  string
		allowed bool
	}{
		{"https://ule.test", true},
		{"https://app.ule.test", true},
		{"https://evil.test", false},
		{"https://ule.test.evil.test", false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/privacy/delete-account", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)

			rec := httptest.NewRecorder()
			h.Handler().ServeHTTP(rec, req)

			if tt.allowed {
				assert.Equal(t, tt.origin, rec.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}
