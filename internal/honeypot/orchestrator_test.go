package honeypot

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/Aayushmaan-24/Agentic-Honey-Pot-for-Scam-Detection-Intelligence-Extraction/internal/archive"
	"github.com/Aayushmaan-24/Agentic-Honey-Pot-for-Scam-Detection-Intelligence-Extraction/internal/callback"
	"github.com/Aayushmaan-24/Agentic-Honey-Pot-for-Scam-Detection-Intelligence-Extraction/internal/detector"
	"github.com/Aayushmaan-24/Agentic-Honey-Pot-for-Scam-Detection-Intelligence-Extraction/internal/events"
	"github.com/Aayushmaan-24/Agentic-Honey-Pot-for-Scam-Detection-Intelligence-Extraction/internal/intel"
	"github.com/Aayushmaan-24/Agentic-Honey-Pot-for-Scam-Detection-Intelligence-Extraction/internal/persona"
	"github.com/Aayushmaan-24/Agentic-Honey-Pot-for-Scam-Detection-Intelligence-Extraction/internal/session"
)

type failingGenerator struct{}

func (failingGenerator) Reply(context.Context, string, string) (string, error) {
	return "", errors.New("model unavailable")
}

type testEnv struct {
	orch     *Orchestrator
	sessions *session.Manager
	mem      *persona.Memory
	sink     *callback.CaptureSink
	reports  *archive.InMemoryStore
	hub      *events.Hub
}

func newTestEnv(t *testing.T, cfg Config, det detector.Detector, ext intel.Extractor) *testEnv {
	t.Helper()
	env := &testEnv{
		sessions: session.NewManager(),
		mem:      persona.NewMemory(),
		sink:     &callback.CaptureSink{},
		reports:  archive.NewInMemoryStore(),
		hub:      events.NewHub(),
	}
	if cfg.SessionIdleTimeout == 0 {
		cfg.SessionIdleTimeout = time.Hour
	}
	env.orch = New(
		cfg,
		env.sessions,
		det,
		persona.NewMockGenerator(env.mem),
		env.mem,
		ext,
		env.sink,
		env.reports,
		env.hub,
		nil,
	)
	return env
}

func scammerMsg(text string) Message {
	return Message{Sender: RoleScammer, Text: text, Timestamp: "2026-08-31T10:00:00Z"}
}

func TestNonScammerMessageIgnored(t *testing.T) {
	env := newTestEnv(t, Config{}, &detector.StubDetector{}, &intel.StubExtractor{})

	res := env.orch.HandleMessage(context.Background(), Inbound{
		SessionID: "s1",
		Message:   Message{Sender: "user", Text: "hello?"},
	})

	if res.Status != StatusIgnored || res.Reply != "" {
		t.Fatalf("result = %+v, want ignored with empty reply", res)
	}
	if env.sessions.Count() != 0 {
		t.Fatalf("session created for ignored message")
	}
}

func TestFirstScamMessageStaysDormant(t *testing.T) {
	env := newTestEnv(t, Config{},
		&detector.StubDetector{Verdict: detector.Verdict{IsScam: true, Confidence: 0.9}},
		&intel.StubExtractor{})

	res := env.orch.HandleMessage(context.Background(), Inbound{
		SessionID: "s1",
		Message:   scammerMsg("Your account is blocked, verify urgently"),
	})

	if res.Status != StatusSuccess {
		t.Fatalf("status = %q, want success", res.Status)
	}
	if res.Reply != DormantReply {
		t.Fatalf("reply = %q, want the dormant clarification sentence", res.Reply)
	}

	s, _ := env.sessions.Snapshot("s1")
	if math.Abs(s.Confidence-0.36) > 1e-9 {
		t.Fatalf("confidence = %v, want 0.36 (0.9 damped by 0.4)", s.Confidence)
	}
	if s.AgentActive {
		t.Fatalf("agent active after a single message")
	}
	if s.TotalMessages != 1 {
		t.Fatalf("totalMessages = %d, want 1", s.TotalMessages)
	}
}

func TestAgentActivatesWhenThresholdCrossed(t *testing.T) {
	env := newTestEnv(t, Config{},
		&detector.StubDetector{Verdict: detector.Verdict{IsScam: true, Confidence: 0.9}},
		&intel.StubExtractor{})

	first := env.orch.HandleMessage(context.Background(), Inbound{
		SessionID: "s1", Message: scammerMsg("verify your account"),
	})
	if first.Reply != DormantReply {
		t.Fatalf("first reply = %q, want dormant", first.Reply)
	}

	second := env.orch.HandleMessage(context.Background(), Inbound{
		SessionID: "s1", Message: scammerMsg("your account is suspended, act now"),
	})
	if second.Reply == DormantReply {
		t.Fatalf("second reply still dormant after threshold crossed")
	}

	s, _ := env.sessions.Snapshot("s1")
	if !s.AgentActive {
		t.Fatalf("agent not active at confidence %v", s.Confidence)
	}
	if s.Phase() != session.PhaseEngaged {
		t.Fatalf("phase = %q, want engaged", s.Phase())
	}
}

func TestActivationNeverReverts(t *testing.T) {
	det := &detector.StubDetector{Verdict: detector.Verdict{IsScam: true, Confidence: 1.0}}
	env := newTestEnv(t, Config{}, det, &intel.StubExtractor{})

	env.orch.HandleMessage(context.Background(), Inbound{SessionID: "s", Message: scammerMsg("otp now")})
	env.orch.HandleMessage(context.Background(), Inbound{SessionID: "s", Message: scammerMsg("otp now")})

	// Later messages look benign; the agent must stay engaged.
	det.Verdict = detector.Verdict{IsScam: false, Confidence: 0.1}
	env.orch.HandleMessage(context.Background(), Inbound{SessionID: "s", Message: scammerMsg("thanks, talk soon")})

	s, _ := env.sessions.Snapshot("s")
	if !s.AgentActive {
		t.Fatalf("agent deactivated by benign traffic")
	}
}

func TestConfidenceBoundedUnderAdversarialInput(t *testing.T) {
	env := newTestEnv(t, Config{},
		&detector.StubDetector{Verdict: detector.Verdict{IsScam: true, Confidence: 1.0}},
		&intel.StubExtractor{})

	for i := 0; i < 20; i++ {
		env.orch.HandleMessage(context.Background(), Inbound{
			SessionID: "s", Message: scammerMsg("send otp"),
		})
	}

	s, _ := env.sessions.Snapshot("s")
	if s.Confidence != 1.0 {
		t.Fatalf("confidence = %v, want clamped at 1.0", s.Confidence)
	}
	if s.TotalMessages != 20 {
		t.Fatalf("totalMessages = %d, want 20", s.TotalMessages)
	}
}

func TestCallbackFiresOnEighthMessageExactlyOnce(t *testing.T) {
	env := newTestEnv(t, Config{},
		&detector.StubDetector{Verdict: detector.Verdict{IsScam: true, Confidence: 0.9}},
		&intel.StubExtractor{Result: map[intel.Category][]string{
			intel.CategoryPhoneNumbers: {"9999999999"},
		}})

	for i := 1; i <= 7; i++ {
		env.orch.HandleMessage(context.Background(), Inbound{
			SessionID: "s", Message: scammerMsg(fmt.Sprintf("scam turn %d", i)),
		})
	}
	if got := len(env.sink.Reports()); got != 0 {
		t.Fatalf("callback fired after 7 messages (%d reports)", got)
	}

	env.orch.HandleMessage(context.Background(), Inbound{
		SessionID: "s", Message: scammerMsg("scam turn 8"),
	})
	reports := env.sink.Reports()
	if len(reports) != 1 {
		t.Fatalf("reports after 8th message = %d, want 1", len(reports))
	}
	r := reports[0]
	if r.SessionID != "s" || !r.ScamDetected || r.TotalMessagesExchanged != 8 {
		t.Fatalf("report = %+v, want session s, scamDetected, 8 messages", r)
	}
	if got := r.ExtractedIntelligence[intel.CategoryPhoneNumbers]; len(got) != 1 || got[0] != "9999999999" {
		t.Fatalf("report phoneNumbers = %v, want the deduplicated number", got)
	}

	// Finalize conditions keep holding; the callback must not repeat.
	for i := 9; i <= 12; i++ {
		env.orch.HandleMessage(context.Background(), Inbound{
			SessionID: "s", Message: scammerMsg(fmt.Sprintf("scam turn %d", i)),
		})
	}
	if got := len(env.sink.Reports()); got != 1 {
		t.Fatalf("reports after replay = %d, want still 1", got)
	}

	s, _ := env.sessions.Snapshot("s")
	if s.Phase() != session.PhaseReported {
		t.Fatalf("phase = %q, want reported", s.Phase())
	}

	archived, err := env.reports.RecentReports(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentReports() error = %v", err)
	}
	if len(archived) != 1 || !archived[0].Delivered {
		t.Fatalf("archived = %+v, want one delivered record", archived)
	}
}

func TestNoCallbackWithoutCoreIntelligence(t *testing.T) {
	env := newTestEnv(t, Config{},
		&detector.StubDetector{Verdict: detector.Verdict{IsScam: true, Confidence: 0.9}},
		&intel.StubExtractor{Result: map[intel.Category][]string{
			intel.CategorySuspiciousKeywords: {"urgent", "otp"},
		}})

	for i := 1; i <= 10; i++ {
		env.orch.HandleMessage(context.Background(), Inbound{
			SessionID: "s", Message: scammerMsg("scam text"),
		})
	}
	if got := len(env.sink.Reports()); got != 0 {
		t.Fatalf("callback fired on keywords alone (%d reports)", got)
	}
}

func TestNoCallbackWhileDormant(t *testing.T) {
	env := newTestEnv(t, Config{},
		&detector.StubDetector{Verdict: detector.Verdict{IsScam: false, Confidence: 0.2}},
		&intel.StubExtractor{Result: map[intel.Category][]string{
			intel.CategoryPhoneNumbers: {"9999999999"},
		}})

	for i := 1; i <= 10; i++ {
		env.orch.HandleMessage(context.Background(), Inbound{
			SessionID: "s", Message: scammerMsg("hello again"),
		})
	}
	if got := len(env.sink.Reports()); got != 0 {
		t.Fatalf("callback fired for a dormant session (%d reports)", got)
	}
}

func TestCallbackFailureStillMarksReported(t *testing.T) {
	env := newTestEnv(t, Config{},
		&detector.StubDetector{Verdict: detector.Verdict{IsScam: true, Confidence: 0.9}},
		&intel.StubExtractor{Result: map[intel.Category][]string{
			intel.CategoryUPIIDs: {"fraud@upi"},
		}})
	env.sink.Err = errors.New("collector unreachable")

	for i := 1; i <= 9; i++ {
		env.orch.HandleMessage(context.Background(), Inbound{
			SessionID: "s", Message: scammerMsg("scam text"),
		})
	}

	// One attempt was issued, never retried.
	if got := len(env.sink.Reports()); got != 1 {
		t.Fatalf("send attempts = %d, want exactly 1", got)
	}
	s, _ := env.sessions.Snapshot("s")
	if !s.CallbackSent {
		t.Fatalf("callbackSent = false after failed delivery, want permanently marked")
	}

	archived, _ := env.reports.RecentReports(context.Background(), 10)
	if len(archived) != 1 || archived[0].Delivered {
		t.Fatalf("archived = %+v, want one undelivered record", archived)
	}
}

func TestClassifierFailureDegradesToNoSignal(t *testing.T) {
	env := newTestEnv(t, Config{},
		&detector.StubDetector{Err: errors.New("inference timeout")},
		&intel.StubExtractor{})

	res := env.orch.HandleMessage(context.Background(), Inbound{
		SessionID: "s", Message: scammerMsg("your account is blocked"),
	})
	if res.Status != StatusSuccess || res.Reply != DormantReply {
		t.Fatalf("result = %+v, want graceful dormant reply", res)
	}

	s, _ := env.sessions.Snapshot("s")
	if s.Confidence != 0 {
		t.Fatalf("confidence = %v, want 0 on classifier failure", s.Confidence)
	}
	if s.TotalMessages != 1 {
		t.Fatalf("totalMessages = %d, want 1 (message still counted)", s.TotalMessages)
	}
}

func TestGeneratorFailureFallsBackToDormantReply(t *testing.T) {
	sessions := session.NewManager()
	mem := persona.NewMemory()
	sink := &callback.CaptureSink{}
	orch := New(Config{SessionIdleTimeout: time.Hour},
		sessions,
		&detector.StubDetector{Verdict: detector.Verdict{IsScam: true, Confidence: 1.0}},
		failingGenerator{},
		mem,
		&intel.StubExtractor{},
		sink,
		archive.NewInMemoryStore(),
		events.NewHub(),
		nil,
	)

	orch.HandleMessage(context.Background(), Inbound{SessionID: "s", Message: scammerMsg("otp")})
	res := orch.HandleMessage(context.Background(), Inbound{SessionID: "s", Message: scammerMsg("otp")})

	s, _ := sessions.Snapshot("s")
	if !s.AgentActive {
		t.Fatalf("agent not active, test setup broken")
	}
	if res.Status != StatusSuccess || res.Reply != DormantReply {
		t.Fatalf("result = %+v, want fallback reply on generator failure", res)
	}
}

func TestHistoryFeedsExtraction(t *testing.T) {
	env := newTestEnv(t, Config{},
		&detector.StubDetector{Verdict: detector.Verdict{IsScam: true, Confidence: 0.9}},
		intel.NewRegexExtractor())

	env.orch.HandleMessage(context.Background(), Inbound{
		SessionID: "s",
		Message:   scammerMsg("call me back please"),
		History: []Message{
			{Sender: "scammer", Text: "my number is 9876543210"},
		},
	})

	s, _ := env.sessions.Snapshot("s")
	if got := s.Intelligence.Get(intel.CategoryPhoneNumbers); len(got) != 1 || got[0] != "9876543210" {
		t.Fatalf("phoneNumbers = %v, want the number carried in history", got)
	}
}

func TestEvictionDropsPersonaMemory(t *testing.T) {
	env := newTestEnv(t, Config{SessionIdleTimeout: 20 * time.Millisecond},
		&detector.StubDetector{Verdict: detector.Verdict{IsScam: false, Confidence: 0.1}},
		&intel.StubExtractor{})

	env.orch.HandleMessage(context.Background(), Inbound{SessionID: "old", Message: scammerMsg("hello")})
	env.mem.Append("old", "scammer", "hello")

	time.Sleep(40 * time.Millisecond)

	// Processing any other session sweeps idle ones.
	env.orch.HandleMessage(context.Background(), Inbound{SessionID: "new", Message: scammerMsg("hi")})

	if _, ok := env.sessions.Snapshot("old"); ok {
		t.Fatalf("idle session still resident")
	}
	if h := env.mem.History("old"); h != nil {
		t.Fatalf("persona memory survived eviction: %v", h)
	}
	if _, ok := env.sessions.Snapshot("new"); !ok {
		t.Fatalf("in-flight session was evicted")
	}
}

func TestConcurrentMessagesSameSessionLinearize(t *testing.T) {
	env := newTestEnv(t, Config{},
		&detector.StubDetector{Verdict: detector.Verdict{IsScam: true, Confidence: 0.5}},
		&intel.StubExtractor{})

	const workers = 4
	const perWorker = 10

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				env.orch.HandleMessage(context.Background(), Inbound{
					SessionID: "shared", Message: scammerMsg("verify account now"),
				})
			}
		}()
	}
	wg.Wait()

	s, _ := env.sessions.Snapshot("shared")
	if s.TotalMessages != workers*perWorker {
		t.Fatalf("totalMessages = %d, want %d", s.TotalMessages, workers*perWorker)
	}
}
