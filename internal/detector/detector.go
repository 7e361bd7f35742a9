package detector

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Verdict is the classifier's view of one message.
type Verdict struct {
	IsScam     bool    `json:"is_scam"`
	Confidence float64 `json:"confidence"`
}

// Detector classifies a single message text. Implementations may be slow
// (model inference, network) and must honor ctx.
type Detector interface {
	Classify(ctx context.Context, text string) (Verdict, error)
}

// Config controls detector construction.
type Config struct {
	Mode     string
	ModelURL string
}

// New builds a detector for the configured mode. "auto" prefers the HTTP
// model endpoint when one is configured, with the keyword detector as
// fallback so classification keeps working when the model is down.
func New(cfg Config) (Detector, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		kw := NewKeywordDetector()
		if strings.TrimSpace(cfg.ModelURL) != "" {
			return NewFallbackDetector(NewHTTPDetector(cfg.ModelURL), kw), nil
		}
		return kw, nil
	case "http":
		if strings.TrimSpace(cfg.ModelURL) == "" {
			return nil, errors.New("detector model URL is required for http mode")
		}
		return NewHTTPDetector(cfg.ModelURL), nil
	case "keyword":
		return NewKeywordDetector(), nil
	case "mock":
		return &StubDetector{}, nil
	default:
		return nil, fmt.Errorf("unsupported detector mode %q", cfg.Mode)
	}
}

// General indicators: two or more hits make the message a scam.
var suspiciousKeywords = []string{
	"urgent", "verify", "account", "blocked", "suspended", "kyc",
	"refund", "debit", "credit", "bank", "upi",
}

// Strong indicators: a single hit is enough.
var strongKeywords = []string{
	"otp", "upi pin", "one time password", "pin",
}

// KeywordDetector scores messages from keyword tiers alone. It is fully
// deterministic and serves both as the fallback behind a model endpoint and
// as the default standalone classifier.
type KeywordDetector struct{}

func NewKeywordDetector() *KeywordDetector { return &KeywordDetector{} }

func (d *KeywordDetector) Classify(ctx context.Context, text string) (Verdict, error) {
	select {
	case <-ctx.Done():
		return Verdict{}, ctx.Err()
	default:
	}

	lower := strings.ToLower(text)

	hits := 0
	for _, kw := range suspiciousKeywords {
		if strings.Contains(lower, kw) {
			hits++
		}
	}

	strong := false
	for _, kw := range strongKeywords {
		if strings.Contains(lower, kw) {
			strong = true
			break
		}
	}

	v := Verdict{}
	switch {
	case strong:
		v.IsScam = true
		v.Confidence = 0.85
		if hits >= 2 {
			v.Confidence = 0.9
		}
	case hits >= 2:
		v.IsScam = true
		v.Confidence = 0.6 + 0.05*float64(hits-2)
		if v.Confidence > 0.9 {
			v.Confidence = 0.9
		}
	case hits == 1:
		v.Confidence = 0.3
	default:
		v.Confidence = 0.1
	}
	return v, nil
}

// FallbackDetector tries the primary and falls back on error. Context
// cancellation is never masked by a fallback attempt.
type FallbackDetector struct {
	primary  Detector
	fallback Detector
}

func NewFallbackDetector(primary, fallback Detector) *FallbackDetector {
	return &FallbackDetector{primary: primary, fallback: fallback}
}

func (d *FallbackDetector) Classify(ctx context.Context, text string) (Verdict, error) {
	v, err := d.primary.Classify(ctx, text)
	if err == nil {
		return v, nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Verdict{}, err
	}
	if d.fallback == nil {
		return Verdict{}, err
	}
	fv, ferr := d.fallback.Classify(ctx, text)
	if ferr != nil {
		return Verdict{}, fmt.Errorf("primary detector error: %w; fallback detector error: %v", err, ferr)
	}
	return fv, nil
}

// StubDetector returns a fixed verdict; a test double.
type StubDetector struct {
	Verdict Verdict
	Err     error
}

func (d *StubDetector) Classify(context.Context, string) (Verdict, error) {
	return d.Verdict, d.Err
}
