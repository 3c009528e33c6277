package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowedOrigins(t *testing.T) {
	assert.Equal(t, []string{"*"}, AllowedOrigins(""))
	assert.Equal(t, []string{"*"}, AllowedOrigins(" , "))
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, AllowedOrigins("https://a.example, https://b.example"))
}

func TestWrapRecoversPanic(t *testing.T) {
	l := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}), l)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/density", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestWrapPassesThrough(t *testing.T) {
	l := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}), l)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}
