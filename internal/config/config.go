// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - Config is built once at startup and treated as read-only afterwards.
//   - New(ctx) returns the defaults; Load(ctx) layers file and env on top.
//   - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Storage backends.
const (
	StorageSupabase   = "supabase"
	StorageFilesystem = "filesystem"
)

// Idempotency backends.
const (
	IdempotencyMemory = "memory"
	IdempotencyRedis  = "redis"
)

// Event publisher backends.
const (
	EventsLog  = "log"
	EventsAMQP = "amqp"
)

// Credential names reported by Credentials. Provider adapters use the same keys.
const (
	CredVision = "vision_api_key"
	CredGemini = "gemini_api_key"
	CredOpenAI = "openai_api_key"
	CredOllama = "ollama_url"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ProviderTimeoutMS bounds a single provider attempt.
	ProviderTimeoutMS int `koanf:"provider_timeout_ms"`

	VisionAPIKey   string `koanf:"vision_api_key"`
	VisionEndpoint string `koanf:"vision_endpoint"`

	GeminiAPIKey          string  `koanf:"gemini_api_key"`
	GeminiModel           string  `koanf:"gemini_model"`
	GeminiBaseURL         string  `koanf:"gemini_base_url"`
	GeminiTemperature     float64 `koanf:"gemini_temperature"`
	GeminiTopK            float64 `koanf:"gemini_top_k"`
	GeminiTopP            float64 `koanf:"gemini_top_p"`
	GeminiMaxOutputTokens int     `koanf:"gemini_max_output_tokens"`
	GeminiSafetyThreshold string  `koanf:"gemini_safety_threshold"`

	OpenAIAPIKey  string `koanf:"openai_api_key"`
	OpenAIModel   string `koanf:"openai_model"`
	OpenAIBaseURL string `koanf:"openai_base_url"`

	OllamaURL   string `koanf:"ollama_url"`
	OllamaModel string `koanf:"ollama_model"`

	// FallbackDelayMS simulates work before the fallback vector is returned.
	FallbackDelayMS int `koanf:"fallback_delay_ms"`

	// MaxImageBytes caps the decoded image size.
	MaxImageBytes int `koanf:"max_image_bytes"`
	// MaxImageDimension bounds the longest edge sent to providers. 0 disables resizing.
	MaxImageDimension int `koanf:"max_image_dimension"`
	// MaxImagePixels caps width*height read from the image header.
	MaxImagePixels int `koanf:"max_image_pixels"`

	StorageBackend         string `koanf:"storage_backend"`
	SupabaseURL            string `koanf:"supabase_url"`
	SupabaseServiceRoleKey string `koanf:"supabase_service_role_key"`
	StorageBucket          string `koanf:"storage_bucket"`
	StorageDir             string `koanf:"storage_dir"`
	PublicBaseURL          string `koanf:"public_base_url"`

	// DatabaseURL selects the Postgres history store. Empty keeps history in memory.
	DatabaseURL string `koanf:"database_url"`

	IdempotencyBackend string `koanf:"idempotency_backend"`
	IdempotencySize    int    `koanf:"idempotency_size"`
	IdempotencyTTLSec  int    `koanf:"idempotency_ttl_s"`
	RedisAddr          string `koanf:"redis_addr"`
	RedisPassword      string `koanf:"redis_password"`
	RedisDB            int    `koanf:"redis_db"`

	EventsBackend    string `koanf:"events_backend"`
	AMQPURL          string `koanf:"amqp_url"`
	AMQPExchange     string `koanf:"amqp_exchange"`
	AMQPRoutingKey   string `koanf:"amqp_routing_key"`
	EventQueueSize   int    `koanf:"event_queue_size"`
	EventWorkerCount int    `koanf:"event_worker_count"`

	CORSAllowOrigin string `koanf:"cors_allow_origin"`
}

// New creates a Config populated with defaults. Context is accepted first to
// satisfy the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		Addr:                  ":9080",
		ProviderTimeoutMS:     20_000,
		VisionEndpoint:        "https://vision.googleapis.com",
		GeminiModel:           "gemini-1.5-flash",
		GeminiTemperature:     0.4,
		GeminiTopK:            32,
		GeminiTopP:            1,
		GeminiMaxOutputTokens: 4096,
		GeminiSafetyThreshold: "BLOCK_MEDIUM_AND_ABOVE",
		OpenAIModel:           "gpt-4o-mini",
		OllamaModel:           "llava",
		FallbackDelayMS:       0,
		MaxImageBytes:         10 << 20,
		MaxImageDimension:     1600,
		MaxImagePixels:        40_000_000,
		StorageBackend:        StorageFilesystem,
		StorageBucket:         "images",
		StorageDir:            "./data/images",
		PublicBaseURL:         "http://localhost:9080/images",
		IdempotencyBackend:    IdempotencyMemory,
		IdempotencySize:       10_000,
		IdempotencyTTLSec:     86_400,
		RedisAddr:             "localhost:6379",
		EventsBackend:         EventsLog,
		AMQPExchange:          "petemotion",
		AMQPRoutingKey:        "emotion.analyzed",
		EventQueueSize:        1_000,
		EventWorkerCount:      runtime.NumCPU(),
		CORSAllowOrigin:       "*",
	}
}

// ProviderTimeout returns the per-attempt provider deadline.
func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.ProviderTimeoutMS) * time.Millisecond
}

// FallbackDelay returns the simulated fallback latency.
func (c *Config) FallbackDelay() time.Duration {
	return time.Duration(c.FallbackDelayMS) * time.Millisecond
}

// IdempotencyTTL returns how long replay records are kept.
func (c *Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.IdempotencyTTLSec) * time.Second
}

// Credentials reports which provider credentials are configured. Values are never exposed.
func (c *Config) Credentials() map[string]bool {
	return map[string]bool{
		CredVision: strings.TrimSpace(c.VisionAPIKey) != "",
		CredGemini: strings.TrimSpace(c.GeminiAPIKey) != "",
		CredOpenAI: strings.TrimSpace(c.OpenAIAPIKey) != "",
		CredOllama: strings.TrimSpace(c.OllamaURL) != "",
	}
}

// Validate checks invariants that defaults and overrides must keep.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.ProviderTimeoutMS <= 0:
		return fmt.Errorf("%w: provider_timeout_ms must be positive", ErrInvalidConfig)
	case c.FallbackDelayMS < 0:
		return fmt.Errorf("%w: fallback_delay_ms must not be negative", ErrInvalidConfig)
	case c.MaxImageBytes <= 0:
		return fmt.Errorf("%w: max_image_bytes must be positive", ErrInvalidConfig)
	case c.MaxImageDimension < 0:
		return fmt.Errorf("%w: max_image_dimension must not be negative", ErrInvalidConfig)
	case c.MaxImagePixels <= 0:
		return fmt.Errorf("%w: max_image_pixels must be positive", ErrInvalidConfig)
	case c.EventQueueSize <= 0:
		return fmt.Errorf("%w: event_queue_size must be positive", ErrInvalidConfig)
	case c.EventWorkerCount <= 0:
		return fmt.Errorf("%w: event_worker_count must be positive", ErrInvalidConfig)
	}

	switch c.StorageBackend {
	case StorageSupabase:
		if c.SupabaseURL == "" || c.SupabaseServiceRoleKey == "" {
			return fmt.Errorf("%w: supabase storage needs supabase_url and supabase_service_role_key", ErrInvalidConfig)
		}
	case StorageFilesystem:
		if c.StorageDir == "" {
			return fmt.Errorf("%w: filesystem storage needs storage_dir", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage_backend %q", ErrInvalidConfig, c.StorageBackend)
	}

	switch c.IdempotencyBackend {
	case IdempotencyMemory:
		if c.IdempotencySize <= 0 {
			return fmt.Errorf("%w: idempotency_size must be positive", ErrInvalidConfig)
		}
	case IdempotencyRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("%w: redis idempotency needs redis_addr", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown idempotency_backend %q", ErrInvalidConfig, c.IdempotencyBackend)
	}

	switch c.EventsBackend {
	case EventsLog:
	case EventsAMQP:
		if c.AMQPURL == "" {
			return fmt.Errorf("%w: amqp events need amqp_url", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown events_backend %q", ErrInvalidConfig, c.EventsBackend)
	}
	return nil
}
