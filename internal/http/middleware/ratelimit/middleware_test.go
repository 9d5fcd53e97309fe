package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestMiddleware(t *testing.T) {
	handler := Middleware(time.Hour, 2, 10, time.Hour)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	request := func(remoteAddr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/authenticate", nil)
		req.RemoteAddr = remoteAddr

		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)

		return res
	}

	for range 2 {
		if res := request("10.0.0.1:1234"); res.Code != http.StatusNoContent {
			t.Fatalf("res.Code: expected %d, got %d", http.StatusNoContent, res.Code)
		}
	}

	res := request("10.0.0.1:4321")
	if e, g := http.StatusTooManyRequests, res.Code; e != g {
		t.Errorf("res.Code: expected %d, got %d", e, g)
	}

	if res.Header().Get("Retry-After") == "" {
		t.Errorf("expected a Retry-After header")
	}

	if res := request("10.0.0.2:1234"); res.Code != http.StatusNoContent {
		t.Errorf("res.Code: expected %d for another client, got %d", http.StatusNoContent, res.Code)
	}
}
