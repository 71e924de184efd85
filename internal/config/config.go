package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Embedding providers.
const (
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
)

var defaultEmbeddingModels = map[string]string{
	ProviderOllama: "all-minilm",
	ProviderGemini: "gemini-embedding-001",
}

type Config struct {
	Server struct {
		Port string
	}
	Data struct {
		FlightsPath string
		PolicyPath  string
	}
	LLM struct {
		APIKey    string
		Model     string
		BaseURL   string
		MaxTokens int
	}
	Embedding struct {
		Provider string
		APIKey   string
		Model    string
		BaseURL  string
	}
	Policy struct {
		ChunkSize    int
		ChunkOverlap int
		TopK         int
	}
	Redis struct {
		URL string
	}
	Cache struct {
		TTL time.Duration
	}
	RateLimit struct {
		PerMinute int
	}
	LogLevel string
}

// Load reads config.yaml (optional) from the working directory or from
// configFile when given. Environment variables always win.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Credentials keep their conventional names
	_ = v.BindEnv("llm.api_key", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("embedding.api_key", "GEMINI_API_KEY", "GOOGLE_API_KEY")
	_ = v.BindEnv("log_level", "LOG_LEVEL")

	// Set defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("data.flights_path", "data/flights.json")
	v.SetDefault("data.policy_path", "data/visa_rules.md")
	v.SetDefault("llm.model", "claude-3-5-haiku-latest")
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("embedding.provider", ProviderOllama)
	v.SetDefault("embedding.base_url", "http://localhost:11434")
	v.SetDefault("policy.chunk_size", 500)
	v.SetDefault("policy.chunk_overlap", 50)
	v.SetDefault("policy.top_k", 4)
	v.SetDefault("redis.url", "")
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("ratelimit.per_minute", 30)
	v.SetDefault("log_level", "info")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configFile != "" {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config

	config.Server.Port = v.GetString("server.port")
	config.Data.FlightsPath = v.GetString("data.flights_path")
	config.Data.PolicyPath = v.GetString("data.policy_path")
	config.LLM.APIKey = v.GetString("llm.api_key")
	config.LLM.Model = v.GetString("llm.model")
	config.LLM.BaseURL = v.GetString("llm.base_url")
	config.LLM.MaxTokens = v.GetInt("llm.max_tokens")
	config.Embedding.Provider = strings.ToLower(v.GetString("embedding.provider"))
	config.Embedding.APIKey = v.GetString("embedding.api_key")
	config.Embedding.Model = v.GetString("embedding.model")
	config.Embedding.BaseURL = v.GetString("embedding.base_url")
	if config.Embedding.Model == "" {
		config.Embedding.Model = defaultEmbeddingModels[config.Embedding.Provider]
	}
	config.Policy.ChunkSize = v.GetInt("policy.chunk_size")
	config.Policy.ChunkOverlap = v.GetInt("policy.chunk_overlap")
	config.Policy.TopK = v.GetInt("policy.top_k")
	config.Redis.URL = v.GetString("redis.url")
	config.Cache.TTL = v.GetDuration("cache.ttl")
	config.RateLimit.PerMinute = v.GetInt("ratelimit.per_minute")
	config.LogLevel = v.GetString("log_level")

	return &config, nil
}

// ValidateModels checks what is needed to reach the chat and embedding models.
func (c *Config) ValidateModels() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	switch c.Embedding.Provider {
	case ProviderOllama:
		if c.Embedding.BaseURL == "" {
			return fmt.Errorf("embedding.base_url is required for the %s provider", ProviderOllama)
		}
	case ProviderGemini:
		if c.Embedding.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for the %s provider", ProviderGemini)
		}
	default:
		return fmt.Errorf("unknown embedding provider %q", c.Embedding.Provider)
	}
	return nil
}

// Validate checks the values that would otherwise fail deep inside startup.
func (c *Config) Validate() error {
	if c.Policy.ChunkSize <= 0 {
		return fmt.Errorf("policy.chunk_size must be positive, got %d", c.Policy.ChunkSize)
	}
	if c.Policy.ChunkOverlap < 0 || c.Policy.ChunkOverlap >= c.Policy.ChunkSize {
		return fmt.Errorf("policy.chunk_overlap must be in [0, %d), got %d", c.Policy.ChunkSize, c.Policy.ChunkOverlap)
	}
	if c.Policy.TopK <= 0 {
		return fmt.Errorf("policy.top_k must be positive, got %d", c.Policy.TopK)
	}
	if c.RateLimit.PerMinute <= 0 {
		return fmt.Errorf("ratelimit.per_minute must be positive, got %d", c.RateLimit.PerMinute)
	}
	return c.ValidateModels()
}
