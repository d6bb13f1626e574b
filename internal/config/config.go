package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultAddr           = ":8003"
	defaultMaxUploadMB    = 20
	defaultLLMBaseURL     = "https://api.groq.com/openai/v1"
	defaultLLMModel       = "gemma2-9b-it"
	defaultEmbedProvider  = EmbedProviderOllama
	defaultOllamaURL      = "http://localhost:11434"
	defaultOllamaModel    = "nomic-embed-text"
	defaultOpenAIURL      = "https://api.openai.com/v1"
	defaultOpenAIModel    = "text-embedding-3-small"
	defaultEmbedBatchSize = 16
	defaultChunkSize      = 1000
	defaultChunkOverlap   = 200
	defaultTopK           = 3
	defaultLogLevel       = "debug"

	EmbedProviderOllama = "ollama"
	EmbedProviderOpenAI = "openai"

	// environment overrides, loaded from .env when present
	EnvLLMKey   = "GROQ_API_KEY"
	EnvEmbedKey = "OPENAI_API_KEY"
)

type Config struct {
	Server   ServerConfig `yaml:"server"`
	LLM      LLMConfig    `yaml:"llm"`
	EmbedLLM LLMConfig    `yaml:"embed_llm"`
	RAG      RAGConfig    `yaml:"rag"`
	Log      LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	MaxUploadMB    int64    `yaml:"max_upload_mb"`
}

// LLMConfig describes one hosted model endpoint. It is used both for the
// generation model and for the embedding model.
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	BaseURL     string  `yaml:"base_url"`
	Key         string  `yaml:"key"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	BatchSize   int     `yaml:"batch_size"`
}

type RAGConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	TopK         int `yaml:"top_k"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// LoadConfig reads the yaml file at path, applies defaults and environment
// overrides. A missing file is not an error: defaults are used instead.
func LoadConfig(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	applyDefaults(cfg)
	applyEnv(cfg)
	return cfg, nil
}

func DefaultConfig() *Config {
	cfg := &Config{Log: LogConfig{Pretty: true}}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultAddr
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
	if cfg.Server.MaxUploadMB <= 0 {
		cfg.Server.MaxUploadMB = defaultMaxUploadMB
	}

	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = defaultLLMBaseURL
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = defaultLLMModel
	}

	if cfg.EmbedLLM.Provider == "" {
		cfg.EmbedLLM.Provider = defaultEmbedProvider
	}
	switch cfg.EmbedLLM.Provider {
	case EmbedProviderOllama:
		if cfg.EmbedLLM.BaseURL == "" {
			cfg.EmbedLLM.BaseURL = defaultOllamaURL
		}
		if cfg.EmbedLLM.Model == "" {
			cfg.EmbedLLM.Model = defaultOllamaModel
		}
	case EmbedProviderOpenAI:
		if cfg.EmbedLLM.BaseURL == "" {
			cfg.EmbedLLM.BaseURL = defaultOpenAIURL
		}
		if cfg.EmbedLLM.Model == "" {
			cfg.EmbedLLM.Model = defaultOpenAIModel
		}
	}
	if cfg.EmbedLLM.BatchSize <= 0 {
		cfg.EmbedLLM.BatchSize = defaultEmbedBatchSize
	}

	if cfg.RAG.ChunkSize <= 0 {
		cfg.RAG.ChunkSize = defaultChunkSize
	}
	if cfg.RAG.ChunkOverlap <= 0 {
		cfg.RAG.ChunkOverlap = defaultChunkOverlap
	}
	if cfg.RAG.TopK <= 0 {
		cfg.RAG.TopK = defaultTopK
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = defaultLogLevel
	}
}

func applyEnv(cfg *Config) {
	if key := os.Getenv(EnvLLMKey); key != "" {
		cfg.LLM.Key = key
	}
	if cfg.EmbedLLM.Provider == EmbedProviderOpenAI {
		if key := os.Getenv(EnvEmbedKey); key != "" {
			cfg.EmbedLLM.Key = key
		}
	}
}

// Validate reports configuration the service cannot start with.
func (c *Config) Validate() error {
	if c.LLM.Key == "" {
		return fmt.Errorf("%s not found, set it in the environment or .env file", EnvLLMKey)
	}
	switch c.EmbedLLM.Provider {
	case EmbedProviderOllama:
	case EmbedProviderOpenAI:
		if c.EmbedLLM.Key == "" {
			return fmt.Errorf("%s is required for the %s embedding provider", EnvEmbedKey, EmbedProviderOpenAI)
		}
	default:
		return fmt.Errorf("unknown embedding provider: %s", c.EmbedLLM.Provider)
	}
	if c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		return fmt.Errorf("chunk overlap (%d) must be smaller than chunk size (%d)", c.RAG.ChunkOverlap, c.RAG.ChunkSize)
	}
	return nil
}
