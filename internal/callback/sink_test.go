package callback

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Aayushmaan-24/Agentic-Honey-Pot-for-Scam-Detection-Intelligence-Extraction/internal/intel"
)

func TestHTTPSinkSendsWireFormat(t *testing.T) {
	var got map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	sink := NewHTTPSink(ts.URL, time.Second)
	err := sink.Send(context.Background(), Report{
		SessionID:              "abc-123",
		ScamDetected:           true,
		TotalMessagesExchanged: 9,
		ExtractedIntelligence: map[intel.Category][]string{
			intel.CategoryPhoneNumbers: {"9876543210"},
		},
		AgentNotes: "notes",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if got["sessionId"] != "abc-123" {
		t.Fatalf("sessionId = %v, want abc-123", got["sessionId"])
	}
	if got["scamDetected"] != true {
		t.Fatalf("scamDetected = %v, want true", got["scamDetected"])
	}
	if got["totalMessagesExchanged"] != float64(9) {
		t.Fatalf("totalMessagesExchanged = %v, want 9", got["totalMessagesExchanged"])
	}
	if _, ok := got["extractedIntelligence"]; !ok {
		t.Fatalf("payload missing extractedIntelligence: %v", got)
	}
}

func TestHTTPSinkNon2xxIsError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer ts.Close()

	sink := NewHTTPSink(ts.URL, time.Second)
	if err := sink.Send(context.Background(), Report{SessionID: "s"}); err == nil {
		t.Fatalf("Send() error = nil, want failure on 502")
	}
}

func TestHTTPSinkTimeoutBounded(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer ts.Close()

	sink := NewHTTPSink(ts.URL, 50*time.Millisecond)
	start := time.Now()
	err := sink.Send(context.Background(), Report{SessionID: "s"})
	if err == nil {
		t.Fatalf("Send() error = nil, want timeout")
	}
	if elapsed := time.Since(start); elapsed > 300*time.Millisecond {
		t.Fatalf("Send() took %v, want bounded by the sink timeout", elapsed)
	}
}

func TestCaptureSink(t *testing.T) {
	sink := &CaptureSink{}
	_ = sink.Send(context.Background(), Report{SessionID: "a"})
	_ = sink.Send(context.Background(), Report{SessionID: "b"})

	got := sink.Reports()
	if len(got) != 2 || got[0].SessionID != "a" || got[1].SessionID != "b" {
		t.Fatalf("Reports() = %+v, want a then b", got)
	}
}
