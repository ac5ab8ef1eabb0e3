//go:build integration

package curlew_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/curlew-dev/curlew"
)

// These tests drive a real native engine against a local server. Run
// them with the integration tag on a machine where the shared library
// is installed, optionally pointing CURLEW_LIBCURL at it.

func buildClient(t *testing.T, opts ...curlew.ClientOption) *curlew.Client {
	t.Helper()

	client, err := curlew.Build(opts...)
	if err != nil {
		t.Skipf("engine unavailable: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return client
}

func TestIntegration_GetAndPost(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("pong"))
	})
	mux.HandleFunc("/echo", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			w.WriteHeader(http.StatusUnsupportedMediaType)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"ok":true}`)); err != nil {
			t.Error(err)
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := buildClient(t, curlew.WithTimeout(10*time.Second))
	ctx := context.Background()

	resp, err := client.Get(ctx, srv.URL+"/ping")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if resp.StatusCode != http.StatusOK || resp.Text() != "pong" {
		t.Errorf("get: status=%d body=%q", resp.StatusCode, resp.Text())
	}
	if resp.Timing.Total <= 0 {
		t.Error("expected a positive total timing")
	}

	resp, err = client.Post(ctx, srv.URL+"/echo", map[string]string{"name": "curlew"})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	var out struct {
		OK bool `json:"ok"`
	}
	if err := resp.JSON(&out); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if !out.OK {
		t.Error("echo handler rejected the request")
	}
}

func TestIntegration_RedirectsAndCookies(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc"})
		http.Redirect(w, r, "/finish", http.StatusFound)
	})
	mux.HandleFunc("/finish", func(w http.ResponseWriter, r *http.Request) {
		ck, err := r.Cookie("session")
		if err != nil || ck.Value != "abc" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte("done"))
	})
	mux.HandleFunc("/loop", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop", http.StatusFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := buildClient(t)
	ctx := context.Background()

	resp, err := client.Get(ctx, srv.URL+"/start")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if resp.StatusCode != http.StatusOK || resp.Text() != "done" {
		t.Errorf("redirect chain: status=%d body=%q", resp.StatusCode, resp.Text())
	}
	if len(resp.Redirects) != 1 {
		t.Errorf("expected 1 recorded redirect, got %v", resp.Redirects)
	}

	if _, err := client.Get(ctx, srv.URL+"/loop"); !errors.Is(err, curlew.ErrTooManyRedirects) {
		t.Errorf("expected ErrTooManyRedirects, got %v", err)
	}

	resp, err = client.Get(ctx, srv.URL+"/start", curlew.WithNoRedirects())
	if err != nil {
		t.Fatalf("get without redirects: %v", err)
	}
	if resp.StatusCode != http.StatusFound {
		t.Errorf("expected the raw 302, got %d", resp.StatusCode)
	}
}

func TestIntegration_Download(t *testing.T) {
	payload := make([]byte, 1<<20)
	for i := range payload {
		payload[i] = byte(i)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/blob", func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("not here"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := buildClient(t)
	ctx := context.Background()

	dest := filepath.Join(t.TempDir(), "blob.bin")
	req, err := curlew.NewRequest(http.MethodGet, mustParse(t, srv.URL+"/blob"))
	if err != nil {
		t.Fatal(err)
	}
	if err := client.Download(ctx, req, http.StatusOK, dest); err != nil {
		t.Fatalf("download: %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("reading download: %v", err)
	}
	if len(got) != len(payload) {
		t.Errorf("size mismatch: got %d want %d", len(got), len(payload))
	}

	dest = filepath.Join(t.TempDir(), "missing.bin")
	req, err = curlew.NewRequest(http.MethodGet, mustParse(t, srv.URL+"/missing"))
	if err != nil {
		t.Fatal(err)
	}
	err = client.Download(ctx, req, http.StatusOK, dest)
	var statusErr *curlew.UnexpectedStatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected a 404 status error, got %v", err)
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Error("error page must not land on disk")
	}
}

func TestIntegration_ThrottleAndCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client := buildClient(t, curlew.WithThrottle(2, 1))
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := client.Get(ctx, srv.URL); err != nil {
			t.Fatalf("get %d: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed < 500*time.Millisecond {
		t.Errorf("three requests at 2 rps finished too fast: %v", elapsed)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := client.Get(cancelled, srv.URL); err == nil {
		t.Error("expected an error on a cancelled context")
	}
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	return u
}
