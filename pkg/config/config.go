package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
)

const (
	DefaultEndpoint = "http://localhost:8080"
	DefaultChatPath = "/api/chat"
)

// Config represents the application configuration
type Config struct {
	Client      ClientConfig    `json:"client"`
	Server      ServerConfig    `json:"server"`
	LLMProvider string          `json:"llm_provider" env:"LLM_PROVIDER"`
	Providers   ProvidersConfig `json:"providers"`
	Retrieval   RetrievalConfig `json:"retrieval"`
	LogLevel    string          `json:"log_level" env:"CAMARA_CHAT_LOG_LEVEL"`
	LogFormat   string          `json:"log_format" env:"CAMARA_CHAT_LOG_FORMAT"`
	LogFile     string          `json:"log_file" env:"CAMARA_CHAT_LOG_FILE"`
}

// ClientConfig holds the chat widget's endpoint settings
type ClientConfig struct {
	Endpoint string `json:"endpoint" env:"CAMARA_CHAT_ENDPOINT"`
	ChatPath string `json:"chat_path"`
	Title    string `json:"title"`
	// RequestTimeoutSeconds of 0 waits for the transport to give up on its own.
	RequestTimeoutSeconds int `json:"request_timeout_seconds"`
}

// ServerConfig holds the /api/chat backend settings
type ServerConfig struct {
	Host           string   `json:"host" env:"CAMARA_CHAT_HOST"`
	Port           int      `json:"port" env:"PORT"`
	AllowedOrigins []string `json:"allowed_origins"`
	Temperature    float64  `json:"temperature"`
}

// ProvidersConfig holds per-provider LLM settings
type ProvidersConfig struct {
	OpenAI OpenAIConfig `json:"openai"`
	Google GoogleConfig `json:"google"`
}

// OpenAIConfig holds the OpenAI API configuration
type OpenAIConfig struct {
	APIKey            string  `json:"api_key" env:"OPENAI_API_KEY"`
	APIURL            string  `json:"api_url" env:"OPENAI_BASE_URL"`
	Model             string  `json:"model" env:"OPENAI_MODEL"`
	EmbeddingModel    string  `json:"embedding_model"`
	Temperature       float64 `json:"temperature"`
	MaxTokens         int     `json:"max_tokens"`
	APITimeoutSeconds int     `json:"api_timeout_seconds"`
}

// GoogleConfig holds the Google AI (Gemini) configuration
type GoogleConfig struct {
	APIKey            string  `json:"api_key" env:"GOOGLE_API_KEY"`
	Model             string  `json:"model" env:"GOOGLE_MODEL"`
	EmbeddingModel    string  `json:"embedding_model"`
	Temperature       float64 `json:"temperature"`
	MaxTokens         int     `json:"max_tokens"`
	APITimeoutSeconds int     `json:"api_timeout_seconds"`
}

// RetrievalConfig holds the document store and chunking settings
type RetrievalConfig struct {
	DBPath       string `json:"db_path" env:"CAMARA_CHAT_DB"`
	TopK         int    `json:"top_k"`
	ChunkSize    int    `json:"chunk_size"`
	ChunkOverlap int    `json:"chunk_overlap"`
	BatchSize    int    `json:"batch_size"`
	CacheSize    int    `json:"cache_size"`
}

// Default returns a configuration with default values
func Default() Config {
	return Config{
		Client: ClientConfig{
			Endpoint: DefaultEndpoint,
			ChatPath: DefaultChatPath,
			Title:    "Câmara Espanhola",
		},
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			AllowedOrigins: []string{"*"},
			Temperature:    0.2,
		},
		LLMProvider: "openai",
		Providers: ProvidersConfig{
			OpenAI: OpenAIConfig{
				APIURL:            "https://api.openai.com/v1",
				Model:             "gpt-4o",
				EmbeddingModel:    "text-embedding-3-large",
				Temperature:       0.2,
				MaxTokens:         2000,
				APITimeoutSeconds: 60,
			},
			Google: GoogleConfig{
				Model:             "gemini-2.5-flash",
				EmbeddingModel:    "text-embedding-004",
				Temperature:       0.2,
				MaxTokens:         2000,
				APITimeoutSeconds: 60,
			},
		},
		Retrieval: RetrievalConfig{
			DBPath:       defaultDataPath("documents.db"),
			TopK:         5,
			ChunkSize:    1000,
			ChunkOverlap: 200,
			BatchSize:    100,
			CacheSize:    256,
		},
		LogLevel:  "info",
		LogFormat: "json",
	}
}

// Load loads configuration from the specified path
// If the file doesn't exist, creates one with default values
func Load(configPath string) (Config, error) {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return Config{}, fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			if err := Save(configPath, cfg); err != nil {
				return Config{}, fmt.Errorf("failed to create default config: %w", err)
			}
			return cfg, nil
		}
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	// Start from defaults so keys missing from older files keep sane values.
	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overlays environment variables on top of cfg.
// Variables that are unset leave the file values untouched.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	return nil
}

// Save saves the configuration to the specified path
func Save(configPath string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Validate checks the settings every command depends on.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Client.Endpoint) == "" {
		return fmt.Errorf("client endpoint is required")
	}
	if !strings.HasPrefix(c.Client.ChatPath, "/") {
		return fmt.Errorf("client chat_path must start with '/', got: %q", c.Client.ChatPath)
	}
	if c.Client.RequestTimeoutSeconds < 0 {
		return fmt.Errorf("request_timeout_seconds must not be negative, got: %d", c.Client.RequestTimeoutSeconds)
	}

	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("top_k must be positive, got: %d", c.Retrieval.TopK)
	}
	if c.Retrieval.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got: %d", c.Retrieval.ChunkSize)
	}
	if c.Retrieval.ChunkOverlap < 0 || c.Retrieval.ChunkOverlap >= c.Retrieval.ChunkSize {
		return fmt.Errorf("chunk_overlap must be in [0, chunk_size), got: %d", c.Retrieval.ChunkOverlap)
	}
	if c.Retrieval.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got: %d", c.Retrieval.BatchSize)
	}

	return nil
}

// ValidateServer checks the settings needed to run the backend and the indexer.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got: %d", c.Server.Port)
	}
	if c.Server.Temperature < 0 || c.Server.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got: %f", c.Server.Temperature)
	}

	switch c.LLMProvider {
	case "openai":
		if strings.TrimSpace(c.Providers.OpenAI.APIKey) == "" {
			return fmt.Errorf("OpenAI API key is required (set OPENAI_API_KEY or providers.openai.api_key)")
		}
	case "google":
		if strings.TrimSpace(c.Providers.Google.APIKey) == "" {
			return fmt.Errorf("Google API key is required (set GOOGLE_API_KEY or providers.google.api_key)")
		}
	default:
		return fmt.Errorf("unsupported LLM provider: %s", c.LLMProvider)
	}

	return nil
}

// Addr returns the listen address for the backend.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".camara_chat/config.json"
	}
	return filepath.Join(homeDir, ".camara_chat", "config.json")
}

func defaultDataPath(name string) string {
	homeDir, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(homeDir) == "" {
		return filepath.Join(".camara_chat", name)
	}
	return filepath.Join(homeDir, ".camara_chat", name)
}
