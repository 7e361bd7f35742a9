package persona

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultModel       = "llama3.2:3b-instruct-q4_K_M"
	defaultTemperature = 0.6
)

// OllamaGenerator produces replies from an Ollama-compatible /api/chat
// endpoint, replaying the session's remembered turns so the model keeps the
// thread of the conversation.
type OllamaGenerator struct {
	url         string
	model       string
	temperature float64
	mem         *Memory
	client      *http.Client
}

func NewOllamaGenerator(cfg Config, mem *Memory) *OllamaGenerator {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	temp := cfg.Temperature
	if temp <= 0 {
		temp = defaultTemperature
	}
	return &OllamaGenerator{
		url:         strings.TrimRight(strings.TrimSpace(cfg.OllamaURL), "/"),
		model:       model,
		temperature: temp,
		mem:         mem,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
}

func (g *OllamaGenerator) Reply(ctx context.Context, sessionID, message string) (string, error) {
	messages := []chatMessage{{Role: "system", Content: SystemPrompt}}
	for _, t := range g.mem.History(sessionID) {
		role := "user"
		if t.Role == "agent" {
			role = "assistant"
		}
		messages = append(messages, chatMessage{Role: role, Content: t.Text})
	}
	messages = append(messages, chatMessage{Role: "user", Content: message})

	payload, err := json.Marshal(chatRequest{
		Model:    g.model,
		Messages: messages,
		Stream:   false,
		Options:  map[string]any{"temperature": g.temperature},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return "", fmt.Errorf("ollama http status %d: %s", res.StatusCode, string(body))
	}

	var parsed chatResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	reply := strings.TrimSpace(parsed.Message.Content)
	if reply == "" {
		return "", fmt.Errorf("ollama returned an empty reply")
	}

	g.mem.Append(sessionID, "scammer", message)
	g.mem.Append(sessionID, "agent", reply)
	return reply, nil
}
