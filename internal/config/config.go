package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultCallbackURL = "https://hackathon.guvi.in/api/updateHoneyPotFinalResult"

// Config contains all runtime settings for the honeypot service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string
	AllowAnyOrigin   bool

	// APIKey is the shared secret callers must present on honeypot routes.
	APIKey string

	SessionIdleTimeout time.Duration
	JanitorInterval    time.Duration

	ActivationThreshold float64
	ConfidenceDamping   float64
	FinalizeMinMessages int

	CallbackURL     string
	CallbackTimeout time.Duration

	DetectorMode     string
	DetectorModelURL string

	PersonaMode       string
	OllamaURL         string
	OllamaModel       string
	OllamaTemperature float64

	DatabaseURL string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:            envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace:    envOrDefault("APP_METRICS_NAMESPACE", "honeypot"),
		AllowAnyOrigin:      false,
		APIKey:              stringsTrimSpace("HONEYPOT_API_KEY"),
		SessionIdleTimeout:  30 * time.Minute,
		JanitorInterval:     30 * time.Second,
		ActivationThreshold: 0.6,
		ConfidenceDamping:   0.4,
		FinalizeMinMessages: 8,
		CallbackURL:         envOrDefault("CALLBACK_URL", defaultCallbackURL),
		CallbackTimeout:     5 * time.Second,
		DetectorMode:        envOrDefault("DETECTOR_MODE", "auto"),
		DetectorModelURL:    stringsTrimSpace("DETECTOR_MODEL_URL"),
		PersonaMode:         envOrDefault("PERSONA_MODE", "auto"),
		OllamaURL:           stringsTrimSpace("OLLAMA_URL"),
		OllamaModel:         envOrDefault("OLLAMA_MODEL", "llama3.2:3b-instruct-q4_K_M"),
		OllamaTemperature:   0.6,
		DatabaseURL:         stringsTrimSpace("DATABASE_URL"),
		ShutdownTimeout:     15 * time.Second,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionIdleTimeout, err = durationFromEnv("APP_SESSION_IDLE_TIMEOUT", cfg.SessionIdleTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.JanitorInterval, err = durationFromEnv("APP_JANITOR_INTERVAL", cfg.JanitorInterval)
	if err != nil {
		return Config{}, err
	}
	cfg.CallbackTimeout, err = durationFromEnv("CALLBACK_TIMEOUT", cfg.CallbackTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}
	cfg.ActivationThreshold, err = floatFromEnv("ACTIVATION_THRESHOLD", cfg.ActivationThreshold)
	if err != nil {
		return Config{}, err
	}
	cfg.ConfidenceDamping, err = floatFromEnv("CONFIDENCE_DAMPING", cfg.ConfidenceDamping)
	if err != nil {
		return Config{}, err
	}
	cfg.FinalizeMinMessages, err = intFromEnv("FINALIZE_MIN_MESSAGES", cfg.FinalizeMinMessages)
	if err != nil {
		return Config{}, err
	}
	cfg.OllamaTemperature, err = floatFromEnv("OLLAMA_TEMPERATURE", cfg.OllamaTemperature)
	if err != nil {
		return Config{}, err
	}

	if cfg.APIKey == "" {
		return Config{}, fmt.Errorf("HONEYPOT_API_KEY is required")
	}
	if cfg.ActivationThreshold <= 0 || cfg.ActivationThreshold > 1 {
		return Config{}, fmt.Errorf("ACTIVATION_THRESHOLD must be in (0, 1]")
	}
	if cfg.ConfidenceDamping <= 0 || cfg.ConfidenceDamping > 1 {
		return Config{}, fmt.Errorf("CONFIDENCE_DAMPING must be in (0, 1]")
	}
	if cfg.FinalizeMinMessages < 1 {
		return Config{}, fmt.Errorf("FINALIZE_MIN_MESSAGES must be positive")
	}
	if cfg.SessionIdleTimeout < 5*time.Second {
		return Config{}, fmt.Errorf("APP_SESSION_IDLE_TIMEOUT must be at least 5s")
	}
	if cfg.CallbackTimeout <= 0 {
		return Config{}, fmt.Errorf("CALLBACK_TIMEOUT must be positive")
	}
	if strings.TrimSpace(cfg.CallbackURL) == "" {
		return Config{}, fmt.Errorf("CALLBACK_URL must not be empty")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func floatFromEnv(key string, fallback float64) (float64, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return f, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
