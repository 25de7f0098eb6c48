package fetch_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wheat4714/downgraderr/internal/fetch"
	"github.com/wheat4714/downgraderr/internal/services"
)

func newTestClient(attempts int, opts ...fetch.Option) *fetch.Client {
	return fetch.New(fetch.Config{
		Attempts:       attempts,
		RetryDelay:     time.Millisecond,
		RequestTimeout: time.Second,
	}, nil, opts...)
}

func TestGetJSONRecoversAfterTransientFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"value":7}`))
	}))
	t.Cleanup(server.Close)

	client := newTestClient(3)
	var out struct {
		Value int `json:"value"`
	}
	if err := client.GetJSON(context.Background(), server.URL, nil, nil, &out); err != nil {
		t.Fatalf("GetJSON returned error: %v", err)
	}
	if out.Value != 7 {
		t.Errorf("unexpected payload: %+v", out)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", got)
	}
}

func TestGetJSONExhaustsRetryBudget(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	client := newTestClient(3)
	err := client.GetJSON(context.Background(), server.URL, nil, nil, nil)
	if err == nil {
		t.Fatal("expected exhaustion error")
	}

	var exhausted *fetch.ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected ExhaustedError, got %T: %v", err, err)
	}
	if exhausted.Attempts != 3 {
		t.Errorf("attempt count mismatch: got %d, want 3", exhausted.Attempts)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected exactly 3 requests, got %d", got)
	}
	if !errors.Is(err, services.ErrTransient) {
		t.Error("exhaustion should unwrap to the transient marker")
	}
}

func TestGetJSONDoesNotRetryRemoteRejection(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	client := newTestClient(3)
	err := client.GetJSON(context.Background(), server.URL, nil, nil, nil)
	if !errors.Is(err, services.ErrRemote) {
		t.Fatalf("expected remote rejection, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("4xx must not be retried, got %d requests", got)
	}
}

func TestGetJSONHonorsCancellationBetweenAttempts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	client := fetch.New(fetch.Config{
		Attempts:       5,
		RetryDelay:     time.Minute,
		RequestTimeout: time.Second,
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := client.GetJSON(ctx, server.URL, nil, nil, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}

func TestPutJSONSendsBodyAndHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method mismatch: %s", r.Method)
		}
		if r.Header.Get("X-Api-Key") != "secret" {
			t.Errorf("missing api key header")
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type mismatch: %s", ct)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(server.Close)

	client := newTestClient(1)
	headers := http.Header{}
	headers.Set("X-Api-Key", "secret")

	var out struct {
		OK bool `json:"ok"`
	}
	body := map[string]any{"id": 1}
	if err := client.PutJSON(context.Background(), server.URL, headers, body, &out); err != nil {
		t.Fatalf("PutJSON returned error: %v", err)
	}
	if !out.OK {
		t.Error("response not decoded")
	}
}
