package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PentesterFlow/workshopgraph/internal/errors"
)

func testClient(maxRetries int) *Client {
	cfg := DefaultClientConfig()
	cfg.Timeout = 2 * time.Second
	cfg.MaxRetries = maxRetries
	cfg.RetryDelay = time.Millisecond
	cfg.MaxRetryDelay = 2 * time.Millisecond
	cfg.Headers = map[string]string{"X-Test": "yes"}
	return NewClient(cfg)
}

func TestDefaultClientConfig(t *testing.T) {
	config := DefaultClientConfig()

	if config.Timeout != 15*time.Second {
		t.Errorf("Timeout = %v, want 15s", config.Timeout)
	}
	if config.UserAgent == "" {
		t.Error("UserAgent should not be empty")
	}
	if config.MaxRetries != 2 {
		t.Errorf("MaxRetries = %d, want 2", config.MaxRetries)
	}
}

func TestClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("User-Agent header missing")
		}
		if r.Header.Get("X-Test") != "yes" {
			t.Error("custom header missing")
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer server.Close()

	c := testClient(0)
	defer c.Close()

	page, err := c.Get(context.Background(), server.URL+"/?id=1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if page.StatusCode != 200 {
		t.Errorf("StatusCode = %d, want 200", page.StatusCode)
	}
	if string(page.Body) != "<html><body>ok</body></html>" {
		t.Errorf("Body = %q", page.Body)
	}
}

func TestClient_Get_NonSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := testClient(0)
	page, err := c.Get(context.Background(), server.URL)
	if err == nil {
		t.Fatal("expected error for 404")
	}
	if !errors.IsType(err, errors.FetchFailed) {
		t.Errorf("error type = %v, want FetchFailed", errors.GetErrorType(err))
	}
	if page.StatusCode != 404 {
		t.Errorf("StatusCode = %d, want 404", page.StatusCode)
	}
	if errors.Describe(err) != "404 Not Found" {
		t.Errorf("Describe() = %q", errors.Describe(err))
	}
}

func TestClient_Fetch_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer server.Close()

	c := testClient(3)
	page, err := c.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(page.Body) != "recovered" {
		t.Errorf("Body = %q", page.Body)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestClient_Fetch_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	c := testClient(3)
	if _, err := c.Fetch(context.Background(), server.URL); err == nil {
		t.Fatal("expected error for 403")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestClient_Fetch_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := server.URL
	server.Close()

	c := testClient(1)
	_, err := c.Fetch(context.Background(), addr)
	if !errors.IsType(err, errors.FetchFailed) {
		t.Errorf("error = %v, want FetchFailed", err)
	}
}

func TestClient_Get_InvalidURL(t *testing.T) {
	c := testClient(0)
	_, err := c.Get(context.Background(), "://bad")
	if !errors.IsType(err, errors.FetchFailed) {
		t.Errorf("error = %v, want FetchFailed", err)
	}
}

func TestClient_Fetch_Cancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	c := testClient(2)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := c.Fetch(ctx, server.URL); err == nil {
		t.Fatal("expected error for cancelled fetch")
	}
}

func TestClient_Fetch_RetryDelayFromConfig(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := DefaultClientConfig()
	cfg.MaxRetries = 1
	cfg.RetryDelay = 50 * time.Millisecond
	cfg.MaxRetryDelay = 50 * time.Millisecond
	c := NewClient(cfg)
	defer c.Close()

	start := time.Now()
	if _, err := c.Fetch(context.Background(), server.URL); err == nil {
		t.Fatal("expected error for 503")
	}
	if elapsed := time.Since(start); elapsed < 35*time.Millisecond {
		t.Errorf("elapsed = %v, want at least the configured retry delay", elapsed)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}
