package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the persona chat service.
type Config struct {
	BindAddr                 string
	ShutdownTimeout          time.Duration
	SessionInactivityTimeout time.Duration
	MetricsNamespace         string

	AllowAnyOrigin bool

	LLMMode       string
	OpenAIAPIKey  string
	OpenAIBaseURL string

	ChatModel       string
	ChatTemperature float64
	ChatMaxTokens   int

	ValidatorModel       string
	ValidatorTemperature float64
	ValidatorMaxTokens   int
	ValidatorTimeout     time.Duration

	EmbedModel string
	EmbedDim   int

	DatabaseURL        string
	CorpusPath         string
	PersonaCatalogPath string

	RetrievalK          int
	HistoryMaxExchanges int
	AuditAppendTimeout  time.Duration
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "headmasterd"),
		AllowAnyOrigin:   false,
		LLMMode:          envOrDefault("LLM_MODE", "auto"),
		OpenAIAPIKey:     stringsTrimSpace("OPENAI_API_KEY"),
		OpenAIBaseURL:    stringsTrimSpace("OPENAI_BASE_URL"),
		ChatModel:        envOrDefault("CHAT_MODEL", "gpt-4o-mini"),
		// Favor consistency over creativity; the persona voice comes from the
		// prompt, not from sampling.
		ChatTemperature: 0.7,
		ChatMaxTokens:   300,
		// Period validation should be deterministic-leaning.
		ValidatorModel:           stringsTrimSpace("VALIDATOR_MODEL"),
		ValidatorTemperature:     0.2,
		ValidatorMaxTokens:       400,
		ValidatorTimeout:         20 * time.Second,
		EmbedModel:               envOrDefault("EMBED_MODEL", "text-embedding-3-small"),
		EmbedDim:                 1536,
		DatabaseURL:              stringsTrimSpace("DATABASE_URL"),
		CorpusPath:               stringsTrimSpace("ARCHIVE_CORPUS_PATH"),
		PersonaCatalogPath:       stringsTrimSpace("PERSONA_CATALOG_PATH"),
		RetrievalK:               4,
		HistoryMaxExchanges:      20,
		AuditAppendTimeout:       2 * time.Second,
		ShutdownTimeout:          15 * time.Second,
		SessionInactivityTimeout: 10 * time.Minute,
	}
	if cfg.ValidatorModel == "" {
		cfg.ValidatorModel = cfg.ChatModel
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionInactivityTimeout, err = durationFromEnv("APP_SESSION_INACTIVITY_TIMEOUT", cfg.SessionInactivityTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.ValidatorTimeout, err = durationFromEnv("VALIDATOR_TIMEOUT", cfg.ValidatorTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AuditAppendTimeout, err = durationFromEnv("AUDIT_APPEND_TIMEOUT", cfg.AuditAppendTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}
	cfg.ChatTemperature, err = floatFromEnv("CHAT_TEMPERATURE", cfg.ChatTemperature)
	if err != nil {
		return Config{}, err
	}
	cfg.ValidatorTemperature, err = floatFromEnv("VALIDATOR_TEMPERATURE", cfg.ValidatorTemperature)
	if err != nil {
		return Config{}, err
	}
	cfg.ChatMaxTokens, err = intFromEnv("CHAT_MAX_TOKENS", cfg.ChatMaxTokens)
	if err != nil {
		return Config{}, err
	}
	cfg.ValidatorMaxTokens, err = intFromEnv("VALIDATOR_MAX_TOKENS", cfg.ValidatorMaxTokens)
	if err != nil {
		return Config{}, err
	}
	cfg.EmbedDim, err = intFromEnv("EMBED_DIM", cfg.EmbedDim)
	if err != nil {
		return Config{}, err
	}
	cfg.RetrievalK, err = intFromEnv("ARCHIVE_RETRIEVAL_K", cfg.RetrievalK)
	if err != nil {
		return Config{}, err
	}
	cfg.HistoryMaxExchanges, err = intFromEnv("HISTORY_MAX_EXCHANGES", cfg.HistoryMaxExchanges)
	if err != nil {
		return Config{}, err
	}

	if cfg.SessionInactivityTimeout < 5*time.Second {
		return Config{}, fmt.Errorf("APP_SESSION_INACTIVITY_TIMEOUT must be at least 5s")
	}
	if cfg.ChatTemperature < 0 || cfg.ChatTemperature > 2 {
		return Config{}, fmt.Errorf("CHAT_TEMPERATURE must be between 0 and 2")
	}
	if cfg.ValidatorTemperature < 0 || cfg.ValidatorTemperature > 2 {
		return Config{}, fmt.Errorf("VALIDATOR_TEMPERATURE must be between 0 and 2")
	}
	if cfg.ChatMaxTokens <= 0 {
		return Config{}, fmt.Errorf("CHAT_MAX_TOKENS must be positive")
	}
	if cfg.ValidatorMaxTokens <= 0 {
		return Config{}, fmt.Errorf("VALIDATOR_MAX_TOKENS must be positive")
	}
	if cfg.EmbedDim <= 0 {
		return Config{}, fmt.Errorf("EMBED_DIM must be positive")
	}
	if cfg.RetrievalK <= 0 {
		return Config{}, fmt.Errorf("ARCHIVE_RETRIEVAL_K must be positive")
	}
	if cfg.HistoryMaxExchanges <= 0 {
		return Config{}, fmt.Errorf("HISTORY_MAX_EXCHANGES must be positive")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.LLMMode)) {
	case "auto", "openai", "mock":
	default:
		return Config{}, fmt.Errorf("LLM_MODE must be auto, openai or mock, got %q", cfg.LLMMode)
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
