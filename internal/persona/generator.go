package persona

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// SystemPrompt defines the engagement persona: an older, polite, slightly
// worried person who is bad with technology and believes they are talking to
// a bank or support representative. The persona rules (never admit
// suspicion, never claim to be automated, never accuse the sender, single
// paragraph, no line breaks or quoted technical terms) live here, not in the
// orchestrator.
const SystemPrompt = `You are an older person who is not very good with technology.
You are polite, cautious, and slightly worried.
You believe you are talking to a bank or customer support representative.

Rules you must follow:
- NEVER say you think this is a scam
- NEVER say you are an AI
- NEVER accuse the other person
- Ask simple clarification questions
- Respond in clear, simple English
- Sound realistic and human
- Keep messages short and natural
- Write responses as a single paragraph only
- Do NOT use line breaks, bullet points, or lists
- Do NOT put technical words in quotation marks
- Avoid repeating the same sentence structure across turns`

// Generator produces the persona's reply to one scammer message,
// conditioned on the session's remembered history.
type Generator interface {
	Reply(ctx context.Context, sessionID, message string) (string, error)
}

// Config controls generator construction.
type Config struct {
	Mode        string
	OllamaURL   string
	Model       string
	Temperature float64
}

// New builds a generator for the configured mode. "auto" uses Ollama when a
// URL is configured and the deterministic mock otherwise.
func New(cfg Config, mem *Memory) (Generator, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		if strings.TrimSpace(cfg.OllamaURL) != "" {
			return NewOllamaGenerator(cfg, mem), nil
		}
		return NewMockGenerator(mem), nil
	case "ollama":
		if strings.TrimSpace(cfg.OllamaURL) == "" {
			return nil, errors.New("ollama URL is required for ollama mode")
		}
		return NewOllamaGenerator(cfg, mem), nil
	case "mock":
		return NewMockGenerator(mem), nil
	default:
		return nil, fmt.Errorf("unsupported persona mode %q", cfg.Mode)
	}
}

// mockReplies vary sentence structure turn over turn so the engagement does
// not read as templated.
var mockReplies = []string{
	"Oh dear, I am sorry but I do not fully understand, could you tell me again what I need to do?",
	"My grandson usually helps me with these things, what exactly do you need from me?",
	"I see, and is this about my account at the bank, I want to make sure I do this right.",
	"Please bear with me, I am slow with the phone, where should I look for that?",
	"Alright, I wrote that down, can you explain the next step once more please?",
}

// MockGenerator is the deterministic generator used in tests and when no
// model endpoint is configured. It still records turns into Memory so the
// buffer behaves like production.
type MockGenerator struct {
	mem *Memory
}

func NewMockGenerator(mem *Memory) *MockGenerator { return &MockGenerator{mem: mem} }

func (g *MockGenerator) Reply(ctx context.Context, sessionID, message string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	turn := 0
	if g.mem != nil {
		turn = len(g.mem.History(sessionID)) / 2
	}
	reply := mockReplies[turn%len(mockReplies)]

	if g.mem != nil {
		g.mem.Append(sessionID, "scammer", message)
		g.mem.Append(sessionID, "agent", reply)
	}
	return reply, nil
}
