// Package config loads process configuration from the environment, with
// optional .env file support.
package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every knob the agent process reads.
type Config struct {
	// Completion endpoint (Groq's OpenAI-compatible API).
	GroqAPIKey  string
	GroqAPIBase string
	GroqModel   string

	// Tool capabilities.
	WeatherAPIKey string
	SearchEnabled bool

	// Storage.
	ChromaPath string
	ReminderDB string

	// Optional OpenAI-compatible embedding endpoint. When unset the
	// deterministic local embedder is used instead.
	EmbedAPIBase string
	EmbedAPIKey  string
	EmbedModel   string

	// Serving.
	ListenAddr string
}

// Load reads configuration from a .env file (when present) and the
// environment.
func Load() (*Config, error) {
	// Missing .env is fine; system env vars still apply.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("GROQ_API_BASE", "https://api.groq.com/openai/v1")
	v.SetDefault("GROQ_MODEL", "mixtral-8x7b-32768")
	v.SetDefault("DUCKDUCKGO_SEARCH_ENABLED", false)
	v.SetDefault("CHROMA_DB_PATH", "./data/chroma")
	v.SetDefault("REMINDER_DB", "./data/reminders.db")
	v.SetDefault("EMBED_MODEL", "text-embedding-3-small")
	v.SetDefault("LISTEN_ADDR", ":8080")

	cfg := &Config{
		GroqAPIKey:    v.GetString("GROQ_API_KEY"),
		GroqAPIBase:   v.GetString("GROQ_API_BASE"),
		GroqModel:     v.GetString("GROQ_MODEL"),
		WeatherAPIKey: v.GetString("WEATHER_API_KEY"),
		SearchEnabled: v.GetBool("DUCKDUCKGO_SEARCH_ENABLED"),
		ChromaPath:    v.GetString("CHROMA_DB_PATH"),
		ReminderDB:    v.GetString("REMINDER_DB"),
		EmbedAPIBase:  v.GetString("EMBED_API_BASE"),
		EmbedAPIKey:   v.GetString("EMBED_API_KEY"),
		EmbedModel:    v.GetString("EMBED_MODEL"),
		ListenAddr:    v.GetString("LISTEN_ADDR"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks the required variables up front so a misconfigured
// process fails at startup, not mid-conversation.
func (c *Config) validate() error {
	var missing []string
	if c.GroqAPIKey == "" {
		missing = append(missing, "GROQ_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}
