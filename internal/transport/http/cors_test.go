package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORS(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("allowed origin is echoed", func(t *testing.T) {
		h := CORS([]string{"https://app.example.com"}, next)
		req := httptest.NewRequest(http.MethodGet, "/actions", nil)
		req.Header.Set("Origin", "https://app.example.com")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
			t.Fatalf("unexpected allow origin %q", got)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("wildcard allows any origin", func(t *testing.T) {
		h := CORS([]string{"*"}, next)
		req := httptest.NewRequest(http.MethodGet, "/actions", nil)
		req.Header.Set("Origin", "https://whatever.example.com")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Fatalf("unexpected allow origin %q", got)
		}
	})

	t.Run("preflight from allowed origin", func(t *testing.T) {
		h := CORS([]string{"https://app.example.com"}, next)
		req := httptest.NewRequest(http.MethodOptions, "/actions", nil)
		req.Header.Set("Origin", "https://app.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
		if got := rec.Header().Get("Access-Control-Allow-Headers"); got == "" {
			t.Fatal("expected allow headers on preflight")
		}
	})

	t.Run("preflight from disallowed origin is forbidden", func(t *testing.T) {
		h := CORS([]string{"https://app.example.com"}, next)
		req := httptest.NewRequest(http.MethodOptions, "/actions", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("request without origin passes through untouched", func(t *testing.T) {
		h := CORS([]string{"https://app.example.com"}, next)
		req := httptest.NewRequest(http.MethodGet, "/actions", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Fatalf("unexpected allow origin %q", got)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})
}
