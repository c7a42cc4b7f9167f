// Package config builds the run configuration once at process start.
// All collaborators (store, transport, providers) are named here; no
// component reads the environment on its own.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Store backends selectable via STORE_BACKEND.
const (
	StoreAppwrite = "appwrite"
	StorePostgres = "postgres"
	StoreFile     = "file"
)

// Transform providers selectable via TRANSFORM_PROVIDER.
const (
	ProviderGemini   = "gemini"
	ProviderMyMemory = "mymemory"
)

// AppwriteConfig names the document store collaborator.
type AppwriteConfig struct {
	Endpoint     string
	ProjectID    string
	APIKey       string
	DatabaseID   string
	CollectionID string
}

type Config struct {
	// Telegram transport
	TelegramToken  string
	TelegramChatID string

	// Transform providers
	TransformProvider string
	TargetLang        string
	GeminiAPIKey      string
	GeminiModel       string
	OpenAIAPIKey      string // optional translation fallback
	MaxProviderCalls  int    // per-run budget across providers (0 = unlimited)

	// Dedup store
	StoreBackend  string
	Appwrite      AppwriteConfig
	PostgresDSN   string
	FileStorePath string

	// Sources
	SourcesPath   string
	MaxCandidates int

	// Orchestration policy
	PublishTarget  int
	TimeBudget     time.Duration
	PublishDelay   time.Duration
	MinTextLen     int
	MaxTextLen     int
	RequestTimeout time.Duration

	Debug bool
}

// Load reads the configuration from environment variables and applies
// defaults. Validation is left to the caller so entry points can shape
// the error response themselves.
func Load() *Config {
	cfg := &Config{
		TransformProvider: getEnvOrDefault("TRANSFORM_PROVIDER", ProviderGemini),
		TargetLang:        getEnvOrDefault("TARGET_LANG", "uk"),
		GeminiModel:       getEnvOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),
		StoreBackend:      getEnvOrDefault("STORE_BACKEND", StoreAppwrite),
		FileStorePath:     getEnvOrDefault("FILE_STORE_PATH", "published_news.json"),
		SourcesPath:       getEnvOrDefault("SOURCES_CONFIG", "configs/sources.yaml"),
		MaxCandidates:     getEnvIntOrDefault("MAX_CANDIDATES", 10),
		PublishTarget:     getEnvIntOrDefault("PUBLISH_TARGET", 3),
		TimeBudget:        getEnvDurationOrDefault("TIME_BUDGET_SECONDS", 100*time.Second),
		PublishDelay:      getEnvDurationOrDefault("PUBLISH_DELAY_SECONDS", 3*time.Second),
		MinTextLen:        getEnvIntOrDefault("MIN_TEXT_LEN", 150),
		MaxTextLen:        getEnvIntOrDefault("MAX_TEXT_LEN", 3500),
		RequestTimeout:    getEnvDurationOrDefault("REQUEST_TIMEOUT_SECONDS", 15*time.Second),
		MaxProviderCalls:  getEnvIntOrDefault("MAX_PROVIDER_CALLS", 20),
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	cfg.TelegramChatID = os.Getenv("TELEGRAM_CHAT_ID")
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.PostgresDSN = os.Getenv("DATABASE_DSN")

	cfg.Appwrite = AppwriteConfig{
		Endpoint:     getEnvOrDefault("APPWRITE_ENDPOINT", "https://cloud.appwrite.io/v1"),
		ProjectID:    os.Getenv("APPWRITE_PROJECT_ID"),
		APIKey:       os.Getenv("APPWRITE_API_KEY"),
		DatabaseID:   os.Getenv("APPWRITE_DATABASE_ID"),
		CollectionID: os.Getenv("APPWRITE_COLLECTION_ID"),
	}

	if os.Getenv("DEBUG") == "true" {
		cfg.Debug = true
	}

	return cfg
}

// Validate checks the configuration needed before any processing starts.
// A failure here is the only fatal startup condition.
func (c *Config) Validate() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	if c.TelegramChatID == "" {
		return fmt.Errorf("TELEGRAM_CHAT_ID is required")
	}

	switch c.TransformProvider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for TRANSFORM_PROVIDER=gemini")
		}
	case ProviderMyMemory:
		// no credentials needed
	default:
		return fmt.Errorf("unknown TRANSFORM_PROVIDER %q", c.TransformProvider)
	}

	switch c.StoreBackend {
	case StoreAppwrite:
		aw := c.Appwrite
		if aw.ProjectID == "" || aw.APIKey == "" || aw.DatabaseID == "" || aw.CollectionID == "" {
			return fmt.Errorf("APPWRITE_PROJECT_ID, APPWRITE_API_KEY, APPWRITE_DATABASE_ID and APPWRITE_COLLECTION_ID are required for STORE_BACKEND=appwrite")
		}
	case StorePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("DATABASE_DSN is required for STORE_BACKEND=postgres")
		}
	case StoreFile:
		// path always has a default
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}
