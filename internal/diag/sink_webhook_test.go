package diag

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestWebhookSinkDelivers(t *testing.T) {
	var got atomic.Value
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ev Event
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			t.Errorf("decode: %v", err)
		}
		got.Store(ev.AuditID)
		if r.Header.Get("X-Token") != "secret" {
			t.Errorf("missing configured header")
		}
		if v := r.Header.Get("X-Listinglens-Event-Version"); v != EventVersion {
			t.Errorf("event version header = %q, want %q", v, EventVersion)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	sink, err := NewWebhookSink(ts.URL, map[string]string{"X-Token": "secret"}, time.Second)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}

	if err := sink.Deliver(context.Background(), &Event{AuditID: "a-1"}); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if got.Load() != "a-1" {
		t.Fatalf("server saw %v", got.Load())
	}
}

func TestWebhookSinkRetriesOnServerError(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	sink, err := NewWebhookSink(ts.URL, nil, time.Second)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}

	if err := sink.Deliver(context.Background(), &Event{AuditID: "a-1"}); err != nil {
		t.Fatalf("deliver should succeed on the final attempt: %v", err)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("calls = %d, want 3 (two retries)", calls)
	}
}

func TestWebhookSinkGivesUpAfterRetries(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	sink, err := NewWebhookSink(ts.URL, nil, time.Second)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	if err := sink.Deliver(context.Background(), &Event{AuditID: "a-1"}); err == nil {
		t.Fatalf("expected delivery error after exhausted retries")
	}
}

func TestWebhookSinkRequiresURL(t *testing.T) {
	if _, err := NewWebhookSink("", nil, time.Second); err == nil {
		t.Fatalf("empty url must be rejected")
	}
}
