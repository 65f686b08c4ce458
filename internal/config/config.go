package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	TransportPolling = "polling"
	TransportWebhook = "webhook"
)

const defaultPersona = `أنت "عبقرينو"، مساعد شخصي ذكي على تيليجرام.
تتكلم بالعامية السعودية بشكل ودود وطبيعي، ردودك مختصرة ومباشرة، وتستخدم الإيموجي باعتدال.
تتذكر سياق المحادثة وتساعد في أي شي يطلبه المستخدم.

اسم المستخدم: {user_name}

`

// Config contains all runtime settings for the bot process.
type Config struct {
	Port             int
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	LogLevel     string
	LogFormat    string
	LogRedactPII bool

	Transport     string
	TelegramToken string
	WebhookURL    string

	LLMProvider       string
	LLMAPIKey         string
	LLMBaseURL        string
	LLMModel          string
	LLMTemperature    float64
	LLMMaxTokens      int
	LLMTopP           float64
	CompletionTimeout time.Duration

	MemoryWindowSize int
	PersonaPrompt    string

	DatabaseURL string
}

// ErrConfiguration matches any *ConfigurationError.
var ErrConfiguration = errors.New("configuration error")

// ConfigurationError reports a missing or invalid setting. It is fatal at startup.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s %s", e.Key, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// Overrides are command-line values that take precedence over the environment.
// Empty fields are ignored.
type Overrides struct {
	Transport   string
	LLMProvider string
	LogLevel    string
	LogFormat   string
}

func (o Overrides) apply(cfg *Config) {
	if v := strings.TrimSpace(o.Transport); v != "" {
		cfg.Transport = strings.ToLower(v)
	}
	if v := strings.TrimSpace(o.LLMProvider); v != "" {
		cfg.LLMProvider = strings.ToLower(v)
	}
	if v := strings.TrimSpace(o.LogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(o.LogFormat); v != "" {
		cfg.LogFormat = v
	}
}

// Load reads an optional .env file, then environment variables, applies
// defaults and overrides, and validates the result.
func Load(o Overrides) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return fromEnv(o)
}

// FromEnv builds the config from the current environment only.
func FromEnv() (Config, error) {
	return fromEnv(Overrides{})
}

func fromEnv(o Overrides) (Config, error) {
	cfg := Config{
		Port:              8000,
		ShutdownTimeout:   15 * time.Second,
		MetricsNamespace:  envOrDefault("APP_METRICS_NAMESPACE", "abqarino"),
		LogLevel:          envOrDefault("LOG_LEVEL", "info"),
		LogFormat:         envOrDefault("LOG_FORMAT", "text"),
		LogRedactPII:      true,
		Transport:         strings.ToLower(envOrDefault("TRANSPORT", TransportPolling)),
		TelegramToken:     firstNonEmpty(stringsTrimSpace("TELEGRAM_TOKEN"), stringsTrimSpace("BOT_TOKEN")),
		WebhookURL:        stringsTrimSpace("WEBHOOK_URL"),
		LLMProvider:       strings.ToLower(envOrDefault("LLM_PROVIDER", "groq")),
		LLMBaseURL:        stringsTrimSpace("LLM_BASE_URL"),
		LLMModel:          stringsTrimSpace("LLM_MODEL"),
		LLMTemperature:    0.8,
		LLMMaxTokens:      1024,
		LLMTopP:           0.9,
		CompletionTimeout: 30 * time.Second,
		MemoryWindowSize:  20,
		PersonaPrompt:     envOrDefault("PERSONA_PROMPT", defaultPersona),
		DatabaseURL:       stringsTrimSpace("DATABASE_URL"),
	}

	var err error
	if cfg.Port, err = intFromEnv("PORT", cfg.Port); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout); err != nil {
		return Config{}, err
	}
	if cfg.CompletionTimeout, err = durationFromEnv("COMPLETION_TIMEOUT", cfg.CompletionTimeout); err != nil {
		return Config{}, err
	}
	if cfg.LLMTemperature, err = floatFromEnv("LLM_TEMPERATURE", cfg.LLMTemperature); err != nil {
		return Config{}, err
	}
	if cfg.LLMTopP, err = floatFromEnv("LLM_TOP_P", cfg.LLMTopP); err != nil {
		return Config{}, err
	}
	if cfg.LLMMaxTokens, err = intFromEnv("LLM_MAX_TOKENS", cfg.LLMMaxTokens); err != nil {
		return Config{}, err
	}
	if cfg.MemoryWindowSize, err = intFromEnv("MEMORY_WINDOW_SIZE", cfg.MemoryWindowSize); err != nil {
		return Config{}, err
	}
	if cfg.LogRedactPII, err = boolFromEnv("LOG_REDACT_PII", cfg.LogRedactPII); err != nil {
		return Config{}, err
	}
	o.apply(&cfg)
	cfg.LLMAPIKey = apiKeyFor(cfg.LLMProvider)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks required credentials and value ranges.
func (c *Config) Validate() error {
	if c.TelegramToken == "" {
		return &ConfigurationError{Key: "TELEGRAM_TOKEN", Reason: "is required"}
	}
	switch c.LLMProvider {
	case "gemini":
		if c.LLMAPIKey == "" {
			return &ConfigurationError{Key: "GEMINI_API_KEY", Reason: "is required when LLM_PROVIDER=gemini"}
		}
	case "groq":
		if c.LLMAPIKey == "" {
			return &ConfigurationError{Key: "GROQ_API_KEY", Reason: "is required when LLM_PROVIDER=groq"}
		}
	case "mock":
	default:
		return &ConfigurationError{Key: "LLM_PROVIDER", Reason: fmt.Sprintf("invalid value %q (expected gemini|groq|mock)", c.LLMProvider)}
	}
	switch c.Transport {
	case TransportPolling:
	case TransportWebhook:
		if c.WebhookURL == "" {
			return &ConfigurationError{Key: "WEBHOOK_URL", Reason: "is required when TRANSPORT=webhook"}
		}
	default:
		return &ConfigurationError{Key: "TRANSPORT", Reason: fmt.Sprintf("invalid value %q (expected polling|webhook)", c.Transport)}
	}
	if c.Port <= 0 || c.Port > 65535 {
		return &ConfigurationError{Key: "PORT", Reason: "must be between 1 and 65535"}
	}
	if c.MemoryWindowSize <= 0 {
		return &ConfigurationError{Key: "MEMORY_WINDOW_SIZE", Reason: "must be positive"}
	}
	if c.LLMTemperature < 0 || c.LLMTemperature > 1 {
		return &ConfigurationError{Key: "LLM_TEMPERATURE", Reason: "must be within [0,1]"}
	}
	if c.LLMTopP < 0 || c.LLMTopP > 1 {
		return &ConfigurationError{Key: "LLM_TOP_P", Reason: "must be within [0,1]"}
	}
	if c.LLMMaxTokens <= 0 {
		return &ConfigurationError{Key: "LLM_MAX_TOKENS", Reason: "must be positive"}
	}
	if c.CompletionTimeout <= 0 {
		return &ConfigurationError{Key: "COMPLETION_TIMEOUT", Reason: "must be positive"}
	}
	return nil
}

// BindAddr is the listen address for the HTTP server.
func (c Config) BindAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func apiKeyFor(provider string) string {
	switch provider {
	case "gemini":
		return firstNonEmpty(stringsTrimSpace("GEMINI_API_KEY"), stringsTrimSpace("GOOGLE_API_KEY"))
	case "groq":
		return stringsTrimSpace("GROQ_API_KEY")
	default:
		return ""
	}
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

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, &ConfigurationError{Key: key, Reason: fmt.Sprintf("parse error: %v", err)}
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
		return 0, &ConfigurationError{Key: key, Reason: fmt.Sprintf("parse error: %v", err)}
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
		return 0, &ConfigurationError{Key: key, Reason: fmt.Sprintf("parse error: %v", err)}
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
		return false, &ConfigurationError{Key: key, Reason: "parse error: expected bool"}
	}
}
