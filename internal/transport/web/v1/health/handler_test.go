package health

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

var ok = pingFunc(func(context.Context) error { return nil })

func TestLiveness(t *testing.T) {
	h := &Handler{Log: log.New(io.Discard, "", 0)}
	rec := httptest.NewRecorder()
	h.Liveness(rec, httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":"ok"}`, rec.Body.String())
}

func TestReadiness(t *testing.T) {
	down := pingFunc(func(context.Context) error { return errors.New("down") })

	cases := []struct {
		name   string
		h      Handler
		status int
	}{
		{"all up, no cache", Handler{DB: ok, Storage: ok}, http.StatusOK},
		{"all up", Handler{DB: ok, Storage: ok, Cache: ok}, http.StatusOK},
		{"db down", Handler{DB: down, Storage: ok}, http.StatusServiceUnavailable},
		{"storage down", Handler{DB: ok, Storage: down}, http.StatusServiceUnavailable},
		{"cache down", Handler{DB: ok, Storage: ok, Cache: down}, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := tc.h
			h.Log = log.New(io.Discard, "", 0)
			rec := httptest.NewRecorder()
			h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/v1/readyz", nil))
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}
