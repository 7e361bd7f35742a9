package honeypot

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/Aayushmaan-24/Agentic-Honey-Pot-for-Scam-Detection-Intelligence-Extraction/internal/archive"
	"github.com/Aayushmaan-24/Agentic-Honey-Pot-for-Scam-Detection-Intelligence-Extraction/internal/callback"
	"github.com/Aayushmaan-24/Agentic-Honey-Pot-for-Scam-Detection-Intelligence-Extraction/internal/detector"
	"github.com/Aayushmaan-24/Agentic-Honey-Pot-for-Scam-Detection-Intelligence-Extraction/internal/events"
	"github.com/Aayushmaan-24/Agentic-Honey-Pot-for-Scam-Detection-Intelligence-Extraction/internal/intel"
	"github.com/Aayushmaan-24/Agentic-Honey-Pot-for-Scam-Detection-Intelligence-Extraction/internal/observability"
	"github.com/Aayushmaan-24/Agentic-Honey-Pot-for-Scam-Detection-Intelligence-Extraction/internal/persona"
	"github.com/Aayushmaan-24/Agentic-Honey-Pot-for-Scam-Detection-Intelligence-Extraction/internal/session"
)

// RoleScammer is the only sender role the honeypot reasons about.
const RoleScammer = "scammer"

const (
	StatusSuccess = "success"
	StatusIgnored = "ignored"
)

// DormantReply is the fixed clarification sentence used before the persona
// activates, and the safe fallback when the generator fails. It never leaks
// suspicion.
const DormantReply = "I am not very sure what this means. Can you please explain?"

const agentNotes = "Scammer used urgency and verification tactics to solicit sensitive details."

// Message is one conversational turn as submitted by the caller.
type Message struct {
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// Inbound is one observed message plus the caller-supplied context.
type Inbound struct {
	SessionID string
	Message   Message
	History   []Message
	Metadata  map[string]any
}

// Result is the caller-visible outcome.
type Result struct {
	Status string `json:"status"`
	Reply  string `json:"reply"`
}

// Config holds the decision policy knobs.
type Config struct {
	// ActivationThreshold is the cumulative confidence at which the
	// persona takes over.
	ActivationThreshold float64
	// ConfidenceDamping scales each per-message classifier score before it
	// accumulates, so a single confident message cannot saturate trust.
	ConfidenceDamping float64
	// FinalizeMinMessages is the conversation-length floor for reporting.
	FinalizeMinMessages int
	CallbackTimeout     time.Duration
	SessionIdleTimeout  time.Duration
}

// Orchestrator is the per-message decision engine. It owns no session state
// itself; every mutation goes through the registry, and all collaborators
// are swappable interfaces.
type Orchestrator struct {
	cfg       Config
	sessions  *session.Manager
	detector  detector.Detector
	generator persona.Generator
	extractor intel.Extractor
	sink      callback.Sink
	reports   archive.Store
	hub       *events.Hub
	metrics   *observability.Metrics
	locks     *sessionLocks
}

func New(
	cfg Config,
	sessions *session.Manager,
	det detector.Detector,
	gen persona.Generator,
	mem *persona.Memory,
	ext intel.Extractor,
	sink callback.Sink,
	reports archive.Store,
	hub *events.Hub,
	metrics *observability.Metrics,
) *Orchestrator {
	if cfg.ActivationThreshold <= 0 {
		cfg.ActivationThreshold = 0.6
	}
	if cfg.ConfidenceDamping <= 0 {
		cfg.ConfidenceDamping = 0.4
	}
	if cfg.FinalizeMinMessages <= 0 {
		cfg.FinalizeMinMessages = 8
	}
	if cfg.CallbackTimeout <= 0 {
		cfg.CallbackTimeout = 5 * time.Second
	}
	if cfg.SessionIdleTimeout <= 0 {
		cfg.SessionIdleTimeout = 30 * time.Minute
	}

	o := &Orchestrator{
		cfg:       cfg,
		sessions:  sessions,
		detector:  det,
		generator: gen,
		extractor: ext,
		sink:      sink,
		reports:   reports,
		hub:       hub,
		metrics:   metrics,
		locks:     newSessionLocks(),
	}

	// Eviction drops everything keyed by the session: registry entry,
	// persona memory, and the processing lock.
	sessions.SetEvictHook(func(ids []string) {
		o.locks.forget(ids)
		if mem != nil {
			for _, id := range ids {
				mem.Forget(id)
			}
		}
		if o.metrics != nil {
			o.metrics.SessionEvents.WithLabelValues("evicted").Add(float64(len(ids)))
			o.metrics.ActiveSessions.Set(float64(sessions.Count()))
		}
		if o.hub != nil {
			o.hub.Publish(events.Event{Kind: events.KindSessionsEvicted, SessionIDs: ids})
		}
	})

	return o
}

// HandleMessage runs one inbound message through the decision policy and
// returns the reply. Collaborator failures degrade to safe defaults; the
// only error a caller ever sees is upstream authorization, which never
// reaches this layer.
func (o *Orchestrator) HandleMessage(ctx context.Context, in Inbound) Result {
	if in.Message.Sender != RoleScammer {
		o.countMessage(StatusIgnored)
		return Result{Status: StatusIgnored, Reply: ""}
	}

	release := o.locks.acquire(in.SessionID)
	reply := o.process(ctx, in)
	release()

	// Opportunistic sweep; the in-flight session is never a candidate.
	o.sessions.EvictIdle(o.cfg.SessionIdleTimeout, in.SessionID)

	o.countMessage(StatusSuccess)
	return Result{Status: StatusSuccess, Reply: reply}
}

func (o *Orchestrator) process(ctx context.Context, in Inbound) string {
	id := in.SessionID
	text := in.Message.Text

	_, created := o.sessions.GetOrCreate(id)
	if created {
		if o.metrics != nil {
			o.metrics.SessionEvents.WithLabelValues("created").Inc()
			o.metrics.ActiveSessions.Set(float64(o.sessions.Count()))
		}
		if o.hub != nil {
			o.hub.Publish(events.Event{Kind: events.KindSessionCreated, SessionID: id})
		}
	}

	o.sessions.IncrementMessageCount(id)

	verdict, err := o.detector.Classify(ctx, text)
	if err != nil {
		// No signal: the conversation continues on whatever confidence
		// has already accumulated.
		log.Printf("session %s: classifier error: %v", id, err)
		verdict = detector.Verdict{}
	}
	if verdict.IsScam {
		o.sessions.UpdateConfidence(id, verdict.Confidence*o.cfg.ConfidenceDamping)
		if o.metrics != nil {
			o.metrics.ScamConfidence.Observe(verdict.Confidence)
		}
	}

	state, _ := o.sessions.Snapshot(id)
	if state.Confidence >= o.cfg.ActivationThreshold && !state.AgentActive {
		o.sessions.ActivateAgent(id)
		state.AgentActive = true
		log.Printf("session %s: persona activated at confidence %.2f", id, state.Confidence)
		if o.metrics != nil {
			o.metrics.AgentActivations.Inc()
		}
		if o.hub != nil {
			o.hub.Publish(events.Event{Kind: events.KindAgentActivated, SessionID: id})
		}
	}

	reply := DormantReply
	if state.AgentActive {
		generated, err := o.generator.Reply(ctx, id, text)
		if err != nil {
			log.Printf("session %s: generator error: %v", id, err)
		} else if trimmed := strings.TrimSpace(generated); trimmed != "" {
			reply = trimmed
		}
	}

	// Extraction runs over everything seen so far plus both sides of this
	// turn; the store deduplicates re-reported values.
	blob := cumulativeText(in.History, text, reply)
	for category, values := range o.extractor.Extract(blob) {
		if len(values) == 0 {
			continue
		}
		o.sessions.AddIntelligence(id, category, values)
	}

	final, _ := o.sessions.Snapshot(id)
	if o.shouldFinalize(final) {
		o.finalize(ctx, final)
	}

	return reply
}

func (o *Orchestrator) shouldFinalize(s *session.Session) bool {
	return s.AgentActive &&
		!s.CallbackSent &&
		s.TotalMessages >= o.cfg.FinalizeMinMessages &&
		s.Intelligence.HasCoreIntelligence()
}

// finalize issues the one-time report. The send runs on a snapshot with no
// registry lock held and a bounded wait. The session is marked reported as
// soon as the attempt is issued, whatever the delivery outcome: a failed
// delivery is logged and counted, never retried.
func (o *Orchestrator) finalize(ctx context.Context, s *session.Session) {
	report := callback.Report{
		SessionID:              s.ID,
		ScamDetected:           true,
		TotalMessagesExchanged: s.TotalMessages,
		ExtractedIntelligence:  s.Intelligence.Snapshot(),
		AgentNotes:             agentNotes,
	}

	sendCtx, cancel := context.WithTimeout(ctx, o.cfg.CallbackTimeout)
	defer cancel()
	sendErr := o.sink.Send(sendCtx, report)

	if !o.sessions.MarkCallbackSent(s.ID) {
		// Lost the transition race; the other attempt owns the report.
		return
	}

	outcome := "delivered"
	if sendErr != nil {
		outcome = "failed"
		log.Printf("session %s: callback delivery failed (not retried): %v", s.ID, sendErr)
	} else {
		log.Printf("session %s: callback delivered after %d messages", s.ID, s.TotalMessages)
	}
	if o.metrics != nil {
		o.metrics.Callbacks.WithLabelValues(outcome).Inc()
	}
	if o.hub != nil {
		o.hub.Publish(events.Event{Kind: events.KindCallbackSent, SessionID: s.ID, Detail: outcome})
	}

	if o.reports != nil {
		record := archive.ReportRecord{
			SessionID: s.ID,
			Report:    report,
			Delivered: sendErr == nil,
		}
		if err := o.reports.SaveReport(ctx, record); err != nil {
			log.Printf("session %s: report archive failed: %v", s.ID, err)
		}
	}
}

func (o *Orchestrator) countMessage(status string) {
	if o.metrics != nil {
		o.metrics.Messages.WithLabelValues(status).Inc()
	}
}

func cumulativeText(history []Message, current, reply string) string {
	parts := make([]string, 0, len(history)+2)
	for _, m := range history {
		if m.Text != "" {
			parts = append(parts, m.Text)
		}
	}
	parts = append(parts, current, reply)
	return strings.Join(parts, " ")
}
