package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Aayushmaan-24/Agentic-Honey-Pot-for-Scam-Detection-Intelligence-Extraction/internal/intel"
)

// Report is the one-time payload delivered to the external collector. Field
// names are the collector's wire format.
type Report struct {
	SessionID              string                      `json:"sessionId"`
	ScamDetected           bool                        `json:"scamDetected"`
	TotalMessagesExchanged int                         `json:"totalMessagesExchanged"`
	ExtractedIntelligence  map[intel.Category][]string `json:"extractedIntelligence"`
	AgentNotes             string                      `json:"agentNotes"`
}

// Sink delivers a finalized report. Delivery is fire-and-forget: the caller
// never retries, whatever Send returns.
type Sink interface {
	Send(ctx context.Context, report Report) error
}

const defaultTimeout = 5 * time.Second

// HTTPSink posts the report as JSON. The response body is ignored; any
// non-2xx status is an error so the caller can at least count the loss.
type HTTPSink struct {
	url    string
	client *http.Client
}

func NewHTTPSink(url string, timeout time.Duration) *HTTPSink {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPSink{
		url: strings.TrimSpace(url),
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (s *HTTPSink) Send(ctx context.Context, report Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send report: %w", err)
	}
	defer res.Body.Close()
	// Drain so the connection can be reused; the collector's body is not
	// part of the contract.
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 4<<10))

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("callback http status %d", res.StatusCode)
	}
	return nil
}

// CaptureSink records reports for tests.
type CaptureSink struct {
	mu      sync.Mutex
	Err     error
	reports []Report
}

func (s *CaptureSink) Send(_ context.Context, report Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, report)
	return s.Err
}

func (s *CaptureSink) Reports() []Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Report, len(s.reports))
	copy(out, s.reports)
	return out
}
