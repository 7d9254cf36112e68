package config

import (
	"os"
	"strconv"
)

// Config holds application configuration.
type Config struct {
	// DatabaseURL is the Postgres connection string. Required for every
	// command that touches the database.
	DatabaseURL string

	// EmbeddingAPIKey authorizes calls to the embedding provider.
	// Its absence is a configuration error at first use, not per request.
	EmbeddingAPIKey string

	// EmbeddingAPIURL is the OpenAI-compatible embeddings endpoint.
	EmbeddingAPIURL string

	// EmbeddingModel is the provider model identifier.
	EmbeddingModel string

	// Bind is the HTTP listen address.
	Bind string

	// Port is the HTTP listen port.
	Port int

	// DBMaxConns limits the pgx pool size. 0 means the pool default.
	DBMaxConns int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		EmbeddingAPIURL: "https://api.venice.ai/v1/embeddings",
		EmbeddingModel:  "text-embedding-bge-m3",
		Bind:            "127.0.0.1",
		Port:            8080,
	}
}

// FromEnv loads configuration from environment variables, applied over
// defaults. Unset variables keep their defaults; required settings are
// validated by the components that need them so that commands which never
// touch a dependency do not demand its credentials.
func FromEnv() *Config {
	cfg := DefaultConfig()

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	} else if v := os.Getenv("POSTGRES_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("EMBEDDING_API_KEY"); v != "" {
		cfg.EmbeddingAPIKey = v
	}
	if v := os.Getenv("EMBEDDING_API_URL"); v != "" {
		cfg.EmbeddingAPIURL = v
	}
	if v := os.Getenv("EMBEDDING_MODEL"); v != "" {
		cfg.EmbeddingModel = v
	}
	if v := os.Getenv("BIND"); v != "" {
		cfg.Bind = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			cfg.Port = port
		}
	}
	if v := os.Getenv("DB_MAX_CONNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.DBMaxConns = n
		}
	}

	return cfg
}
