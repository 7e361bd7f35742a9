package persona

import "sync"

// Turn is one remembered exchange line.
type Turn struct {
	Role string
	Text string
}

const defaultMaxTurns = 40

// Memory keeps a bounded per-session turn buffer so replies stay coherent
// across turns. It shares the registry's lifecycle: the session manager's
// evict hook calls Forget for every evicted ID.
type Memory struct {
	mu       sync.RWMutex
	turns    map[string][]Turn
	maxTurns int
}

func NewMemory() *Memory {
	return &Memory{
		turns:    make(map[string][]Turn),
		maxTurns: defaultMaxTurns,
	}
}

func (m *Memory) Append(sessionID, role, text string) {
	if text == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	arr := append(m.turns[sessionID], Turn{Role: role, Text: text})
	if len(arr) > m.maxTurns {
		arr = arr[len(arr)-m.maxTurns:]
	}
	m.turns[sessionID] = arr
}

func (m *Memory) History(sessionID string) []Turn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	arr := m.turns[sessionID]
	if len(arr) == 0 {
		return nil
	}
	out := make([]Turn, len(arr))
	copy(out, arr)
	return out
}

func (m *Memory) Forget(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.turns, sessionID)
}

func (m *Memory) Sessions() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.turns)
}
