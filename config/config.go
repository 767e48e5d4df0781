package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the chat service
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Search    SearchConfig    `mapstructure:"search"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Index     IndexConfig     `mapstructure:"index"`
	Memory    MemoryConfig    `mapstructure:"memory"`
	Guardrail GuardrailConfig `mapstructure:"guardrail"`
	Chat      ChatConfig      `mapstructure:"chat"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig contains HTTP server and auth settings. When JWTSecret
// is set, every /api route requires a bearer token signed with it.
type ServerConfig struct {
	Listen    string `mapstructure:"listen"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

// ProvidersConfig contains LLM provider configurations
type ProvidersConfig struct {
	OpenAI OpenAIConfig `mapstructure:"openai"`
}

type OpenAIConfig struct {
	APIKey          string        `mapstructure:"api_key"`
	BaseURL         string        `mapstructure:"base_url"`
	CompletionModel string        `mapstructure:"completion_model"`
	EmbeddingModel  string        `mapstructure:"embedding_model"`
	ModerationModel string        `mapstructure:"moderation_model"`
	Temperature     float64       `mapstructure:"temperature"`
	MaxTokens       int           `mapstructure:"max_tokens"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// SearchConfig configures the web-search capability used by the hybrid
// retrieval strategy.
type SearchConfig struct {
	Provider        string        `mapstructure:"provider"` // serper or brave
	APIKey          string        `mapstructure:"api_key"`
	MaxResults      int           `mapstructure:"max_results"`
	FetchPages      bool          `mapstructure:"fetch_pages"`
	MinSnippetChars int           `mapstructure:"min_snippet_chars"`
	FetchTimeout    time.Duration `mapstructure:"fetch_timeout"`
}

// StorageConfig selects and configures the document store backend.
type StorageConfig struct {
	Driver         string         `mapstructure:"driver"` // memory or postgres
	MaxUploadBytes int64          `mapstructure:"max_upload_bytes"`
	Postgres       PostgresConfig `mapstructure:"postgres"`
	Redis          RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (p PostgresConfig) Validate() error {
	if strings.TrimSpace(p.URL) != "" {
		return nil
	}
	if strings.TrimSpace(p.Host) == "" {
		return fmt.Errorf("storage.postgres.host required when url is not provided")
	}
	if strings.TrimSpace(p.DBName) == "" {
		return fmt.Errorf("storage.postgres.dbname required when url is not provided")
	}
	return nil
}

// DSN builds a postgres connection string from the configured parts.
func (p PostgresConfig) DSN() string {
	if p.URL != "" {
		return p.URL
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// IndexConfig configures the vector index snapshot location and the
// autosave schedule.
type IndexConfig struct {
	Path         string `mapstructure:"path"`
	AutosaveCron string `mapstructure:"autosave_cron"`
}

// MemoryConfig configures conversation memory. SessionTTL and
// SweepCron bound the otherwise unbounded session map.
type MemoryConfig struct {
	Driver      string        `mapstructure:"driver"` // inmemory or redis
	MaxMessages int           `mapstructure:"max_messages"`
	SessionTTL  time.Duration `mapstructure:"session_ttl"`
	SweepCron   string        `mapstructure:"sweep_cron"`
}

func (m MemoryConfig) Validate() error {
	if m.MaxMessages <= 0 {
		return fmt.Errorf("memory.max_messages must be > 0")
	}
	if m.Driver != "inmemory" && m.Driver != "redis" {
		return fmt.Errorf("memory.driver must be inmemory or redis")
	}
	return nil
}

// GuardrailConfig toggles the model-backed checks. Keyword checks are
// always on; classifier unavailability fails open.
type GuardrailConfig struct {
	UseModeration bool `mapstructure:"use_moderation"`
}

// ChatConfig provides the initial runtime configuration served before
// any config-update call.
type ChatConfig struct {
	AvailableLLMs        []string `mapstructure:"available_llms"`
	DefaultLLM           string   `mapstructure:"default_llm"`
	DefaultRAGVariant    string   `mapstructure:"default_rag_variant"`
	EnableInternetSearch bool     `mapstructure:"enable_internet_search"`
}

// LoadConfig loads config from file plus RAGCHAT_* env overrides.
// A missing config file is not fatal; defaults and env carry the day.
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.SetDefault("server.listen", ":8080")
	viper.SetDefault("providers.openai.completion_model", "gpt-4o-mini")
	viper.SetDefault("providers.openai.embedding_model", "text-embedding-3-small")
	viper.SetDefault("providers.openai.moderation_model", "omni-moderation-latest")
	viper.SetDefault("providers.openai.temperature", 0.2)
	viper.SetDefault("providers.openai.max_tokens", 4096)
	viper.SetDefault("providers.openai.timeout", "30s")
	viper.SetDefault("search.provider", "serper")
	viper.SetDefault("search.max_results", 5)
	viper.SetDefault("search.min_snippet_chars", 80)
	viper.SetDefault("search.fetch_timeout", "15s")
	viper.SetDefault("storage.driver", "memory")
	viper.SetDefault("storage.max_upload_bytes", 10<<20)
	viper.SetDefault("index.path", "data/vector_index.gob")
	viper.SetDefault("index.autosave_cron", "@hourly")
	viper.SetDefault("memory.driver", "inmemory")
	viper.SetDefault("memory.max_messages", 10)
	viper.SetDefault("memory.session_ttl", "24h")
	viper.SetDefault("memory.sweep_cron", "@hourly")
	viper.SetDefault("guardrail.use_moderation", true)
	viper.SetDefault("chat.available_llms", []string{"openai:gpt-4o-mini"})
	viper.SetDefault("chat.default_rag_variant", "basic")

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("RAGCHAT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	if err := config.Memory.Validate(); err != nil {
		panic(err)
	}
	if config.Storage.Driver == "postgres" {
		if err := config.Storage.Postgres.Validate(); err != nil {
			panic(err)
		}
	}
	if config.Chat.DefaultLLM == "" && len(config.Chat.AvailableLLMs) > 0 {
		config.Chat.DefaultLLM = config.Chat.AvailableLLMs[0]
	}
	return &config
}
