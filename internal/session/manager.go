package session

import (
	"context"
	"sync"
	"time"

	"github.com/Aayushmaan-24/Agentic-Honey-Pot-for-Scam-Detection-Intelligence-Extraction/internal/intel"
)

// Phase is derived from the session's monotone flags. Transitions only run
// forward: Dormant -> Engaged -> Reported.
type Phase string

const (
	PhaseDormant  Phase = "dormant"
	PhaseEngaged  Phase = "engaged"
	PhaseReported Phase = "reported"
)

// Session is one conversation with a single counterparty. All mutation goes
// through the Manager; callers only ever hold clones.
type Session struct {
	ID            string       `json:"sessionId"`
	Confidence    float64      `json:"confidence"`
	AgentActive   bool         `json:"agentActive"`
	TotalMessages int          `json:"totalMessages"`
	Intelligence  *intel.Store `json:"-"`
	CallbackSent  bool         `json:"callbackSent"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

func (s *Session) Phase() Phase {
	switch {
	case s.CallbackSent:
		return PhaseReported
	case s.AgentActive:
		return PhaseEngaged
	default:
		return PhaseDormant
	}
}

// Manager owns the process-wide session map. Sessions are created lazily on
// first reference and removed only by idle eviction; a reported session stays
// resident and keeps accepting messages.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	onEvict  func(ids []string)
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// SetEvictHook registers a callback invoked (outside the lock) with the IDs
// removed by each sweep, so dependent per-session state (persona memory,
// processing locks) can be dropped in step with the registry.
func (m *Manager) SetEvictHook(hook func(ids []string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onEvict = hook
}

// GetOrCreate returns a snapshot of the session, creating a zero-valued one
// on first reference, and reports whether this call created it. Safe to call
// concurrently for the same ID; only one state is ever created per ID.
func (m *Manager) GetOrCreate(id string) (*Session, bool) {
	m.mu.RLock()
	if s, ok := m.sessions[id]; ok {
		c := clone(s)
		m.mu.RUnlock()
		return c, false
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return clone(s), false
	}
	return clone(m.getOrCreateLocked(id)), true
}

// Snapshot returns a copy of the session without creating one.
func (m *Manager) Snapshot(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	return clone(s), true
}

// All returns snapshots of every resident session.
func (m *Manager) All() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, clone(s))
	}
	return out
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// IncrementMessageCount counts one accepted scammer message.
func (m *Manager) IncrementMessageCount(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.getOrCreateLocked(id)
	s.TotalMessages++
	s.UpdatedAt = time.Now().UTC()
}

// UpdateConfidence raises confidence by delta, clamped to 1.0. Confidence is
// monotone: non-positive deltas are ignored.
func (m *Manager) UpdateConfidence(id string, delta float64) {
	if delta <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.getOrCreateLocked(id)
	s.Confidence += delta
	if s.Confidence > 1.0 {
		s.Confidence = 1.0
	}
	s.UpdatedAt = time.Now().UTC()
}

// ActivateAgent flips the one-way activation flag. Redundant calls are no-ops.
func (m *Manager) ActivateAgent(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.getOrCreateLocked(id)
	s.AgentActive = true
	s.UpdatedAt = time.Now().UTC()
}

// AddIntelligence merges values into one category, deduplicated against
// everything already recorded for this session.
func (m *Manager) AddIntelligence(id string, category intel.Category, values []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.getOrCreateLocked(id)
	if s.Intelligence.Merge(category, values) > 0 {
		s.UpdatedAt = time.Now().UTC()
	}
}

// MarkCallbackSent records the one-time report. It returns true only for the
// call that performed the transition, and refuses the transition while the
// agent is dormant (a report without prior engagement is an illegal state).
func (m *Manager) MarkCallbackSent(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || !s.AgentActive || s.CallbackSent {
		return false
	}
	s.CallbackSent = true
	s.UpdatedAt = time.Now().UTC()
	return true
}

// EvictIdle removes every session whose UpdatedAt is older than now-maxIdle,
// except excludeID (the session currently mid-flight for the caller).
// Returns the evicted IDs; the evict hook fires outside the lock.
func (m *Manager) EvictIdle(maxIdle time.Duration, excludeID string) []string {
	now := time.Now().UTC()
	var evicted []string

	m.mu.Lock()
	for id, s := range m.sessions {
		if id == excludeID {
			continue
		}
		if now.Sub(s.UpdatedAt) < maxIdle {
			continue
		}
		delete(m.sessions, id)
		evicted = append(evicted, id)
	}
	hook := m.onEvict
	m.mu.Unlock()

	if hook != nil && len(evicted) > 0 {
		hook(evicted)
	}
	return evicted
}

// StartJanitor sweeps idle sessions in the background until ctx is done.
// The janitor excludes nothing; in-flight sessions are protected by the
// opportunistic sweep's exclusion plus processing refreshing UpdatedAt.
func (m *Manager) StartJanitor(ctx context.Context, interval, maxIdle time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.EvictIdle(maxIdle, "")
			}
		}
	}()
}

func (m *Manager) getOrCreateLocked(id string) *Session {
	if s, ok := m.sessions[id]; ok {
		return s
	}
	now := time.Now().UTC()
	s := &Session{
		ID:           id,
		Intelligence: intel.NewStore(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.sessions[id] = s
	return s
}

func clone(s *Session) *Session {
	c := *s
	c.Intelligence = s.Intelligence.Clone()
	return &c
}
