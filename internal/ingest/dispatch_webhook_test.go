package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"io.winapps.sitefollowup/internal/errs"
)

func samplePayload() *Payload {
	return &Payload{
		Name:      "Alice",
		Date:      "2024-01-15",
		Timestamp: "09:30:00",
		PhotoURLs: []string{"https://store.test/public/photos/a.jpg"},
		PhotoKeys: []string{"a.jpg"},
		PhotoURL:  "https://store.test/public/photos/a.jpg",
	}
}

func TestWebhookDispatchSuccess(t *testing.T) {
	var got Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewWebhookDispatcher(srv.URL, zap.NewNop().Sugar())
	if err := d.Dispatch(context.Background(), samplePayload()); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if got.Name != "Alice" || got.PhotoURL == "" {
		t.Errorf("forwarded payload = %+v", got)
	}
}

func TestWebhookDispatchErrorStatusExtractsMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":"generic","message":"workflow node 7 rejected payload"}`))
	}))
	defer srv.Close()

	d := NewWebhookDispatcher(srv.URL, zap.NewNop().Sugar())
	err := d.Dispatch(context.Background(), samplePayload())
	var workflow *errs.WorkflowError
	if !errors.As(err, &workflow) {
		t.Fatalf("expected WorkflowError, got %v", err)
	}
	if workflow.Message != "workflow node 7 rejected payload" {
		t.Errorf("message = %q, want the most specific field", workflow.Message)
	}
	if workflow.Status != http.StatusBadGateway {
		t.Errorf("status = %d", workflow.Status)
	}
}

func TestWebhookDispatchErrorFallsBackToErrorField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"node crashed"}`))
	}))
	defer srv.Close()

	d := NewWebhookDispatcher(srv.URL, zap.NewNop().Sugar())
	err := d.Dispatch(context.Background(), samplePayload())
	var workflow *errs.WorkflowError
	if !errors.As(err, &workflow) {
		t.Fatalf("expected WorkflowError, got %v", err)
	}
	if workflow.Message != "node crashed" {
		t.Errorf("message = %q", workflow.Message)
	}
}

func TestWebhookDispatchUnreachableIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	d := NewWebhookDispatcher(srv.URL, zap.NewNop().Sugar())
	err := d.Dispatch(context.Background(), samplePayload())
	var unavailable *errs.UnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected UnavailableError, got %v", err)
	}
}

func TestWebhookDispatchTimeoutIsUnconfirmed(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer func() {
		close(block)
		srv.Close()
	}()

	d := NewWebhookDispatcher(srv.URL, zap.NewNop().Sugar())
	d.client.Timeout = 50 * time.Millisecond

	err := d.Dispatch(context.Background(), samplePayload())
	if !errors.Is(err, errs.ErrUnconfirmed) {
		t.Fatalf("expected ErrUnconfirmed, got %v", err)
	}
}

func TestWebhookDispatchContextDeadlineIsUnconfirmed(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer func() {
		close(block)
		srv.Close()
	}()

	d := NewWebhookDispatcher(srv.URL, zap.NewNop().Sugar())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := d.Dispatch(ctx, samplePayload())
	if !errors.Is(err, errs.ErrUnconfirmed) {
		t.Fatalf("expected ErrUnconfirmed, got %v", err)
	}
}
