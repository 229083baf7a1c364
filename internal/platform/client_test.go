package platform

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchPatent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/patents/US123" {
			t.Errorf("path = %s, want /v1/patents/US123", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key-1" {
			t.Errorf("Authorization = %q, want bearer credential", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"US123","title":"Widget"}`))
	}))
	defer server.Close()

	client := New(server.URL, "key-1")

	payload, err := client.FetchPatent(context.Background(), "US123")
	if err != nil {
		t.Fatalf("FetchPatent: %v", err)
	}
	if string(payload) != `{"id":"US123","title":"Widget"}` {
		t.Errorf("payload = %s", payload)
	}
}

func TestFetchPatent_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := New(server.URL, "key-1")

	_, err := client.FetchPatent(context.Background(), "US999")
	if !errors.Is(err, ErrPatentNotFound) {
		t.Errorf("err = %v, want ErrPatentNotFound", err)
	}
}

func TestFetchPatent_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := New(server.URL, "key-1")

	_, err := client.FetchPatent(context.Background(), "US123")
	if !errors.Is(err, ErrUpstream) {
		t.Errorf("err = %v, want ErrUpstream", err)
	}
}

func TestFetchPatent_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	client := New(server.URL, "key-1")

	_, err := client.FetchPatent(context.Background(), "US123")
	if !errors.Is(err, ErrUpstream) {
		t.Errorf("err = %v, want ErrUpstream", err)
	}
}
