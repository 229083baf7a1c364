package handler

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/patlas/patlas/internal/metrics"
	"github.com/patlas/patlas/internal/platform"
)

func TestSearch_PassThrough(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/search" {
			t.Errorf("upstream path = %s, want /v1/search", r.URL.Path)
		}
		if r.Header.Get("Authorization") == "" {
			t.Error("upstream request missing platform credential")
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "solar") {
			t.Errorf("upstream body = %s, want forwarded query", body)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":"quota exhausted"}`))
	}))
	defer upstream.Close()

	client := platform.New(upstream.URL, "platform-key")
	recorder := metrics.NewInMemory()
	h := NewPatentHandler(nil, client, testLogger(), recorder)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/patents/search",
		strings.NewReader(`{"query":"solar panels"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.Search(rec, req)

	// Upstream status and content-type survive untouched.
	if rec.Code != http.StatusPaymentRequired {
		t.Errorf("status = %d, want upstream 402 passed through", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %q, want upstream value", ct)
	}
	if !strings.Contains(rec.Body.String(), "quota exhausted") {
		t.Errorf("body = %s, want upstream body passed through", rec.Body.String())
	}
	if got := recorder.Snapshot().SearchDurationCount; got != 1 {
		t.Errorf("search duration observations = %d, want 1", got)
	}
}

func TestSearch_UpstreamUnreachable(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	upstream.Close()

	client := platform.New(upstream.URL, "platform-key")
	h := NewPatentHandler(nil, client, testLogger(), metrics.NewNoop())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/patents/search",
		strings.NewReader(`{"query":"x"}`))
	rec := httptest.NewRecorder()

	h.Search(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}
