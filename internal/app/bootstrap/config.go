// Package bootstrap wires configuration, adapters and servers into a
// runnable service.
package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration for the contract exchange.
// It merges file defaults and environment overrides to support both local
// and deployed runs.
type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	DatabaseURL string
	RedisURL    string

	BlobRoot string

	TokenPublicKeyPEM string
	TokenSharedSecret string
	TokenIssuer       string

	KafkaBrokers    []string
	KafkaTopic      string
	KafkaTopicByKey map[string]string

	IdempotencyTTL  time.Duration
	UpstreamTimeout time.Duration

	MaxDBConns         int32
	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxClaimTTL     time.Duration
	OutboxMaxRetries   int
}

// configFile mirrors the YAML schema used by configs/default.yaml.
// It is intentionally separate from Config so runtime-only fields stay
// internal.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL     string `yaml:"postgres_url"`
		RedisURL        string `yaml:"redis_url"`
		BlobRoot        string `yaml:"blob_root"`
		UpstreamTimeout int    `yaml:"upstream_timeout_seconds"`
	} `yaml:"dependencies"`
	Auth struct {
		PublicKeyPEM string `yaml:"public_key_pem"`
		SharedSecret string `yaml:"shared_secret"`
		Issuer       string `yaml:"issuer"`
	} `yaml:"auth"`
	Kafka struct {
		Brokers      []string          `yaml:"brokers"`
		Topic        string            `yaml:"topic"`
		TopicByEvent map[string]string `yaml:"topic_by_event"`
	} `yaml:"kafka"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
// This order keeps local bootstrap simple while allowing environment-specific
// overrides.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:          "contract-exchange",
		HTTPPort:           8080,
		GRPCPort:           9090,
		BlobRoot:           "data/blobs",
		TokenIssuer:        "pactline",
		KafkaTopic:         "contract-events",
		IdempotencyTTL:     24 * time.Hour,
		UpstreamTimeout:    5 * time.Second,
		MaxDBConns:         20,
		OutboxPollInterval: 2 * time.Second,
		OutboxBatchSize:    100,
		OutboxClaimTTL:     30 * time.Second,
		OutboxMaxRetries:   5,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Service.GRPCPort > 0 {
			cfg.GRPCPort = f.Service.GRPCPort
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if f.Dependencies.BlobRoot != "" {
			cfg.BlobRoot = f.Dependencies.BlobRoot
		}
		if f.Dependencies.UpstreamTimeout > 0 {
			cfg.UpstreamTimeout = time.Duration(f.Dependencies.UpstreamTimeout) * time.Second
		}
		if f.Auth.PublicKeyPEM != "" {
			cfg.TokenPublicKeyPEM = f.Auth.PublicKeyPEM
		}
		if f.Auth.SharedSecret != "" {
			cfg.TokenSharedSecret = f.Auth.SharedSecret
		}
		if f.Auth.Issuer != "" {
			cfg.TokenIssuer = f.Auth.Issuer
		}
		if len(f.Kafka.Brokers) > 0 {
			cfg.KafkaBrokers = f.Kafka.Brokers
		}
		if f.Kafka.Topic != "" {
			cfg.KafkaTopic = f.Kafka.Topic
		}
		if len(f.Kafka.TopicByEvent) > 0 {
			cfg.KafkaTopicByKey = f.Kafka.TopicByEvent
		}
	}

	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.BlobRoot = envOrDefault("BLOB_ROOT", cfg.BlobRoot)
	cfg.TokenPublicKeyPEM = envOrDefault("TOKEN_PUBLIC_KEY_PEM", cfg.TokenPublicKeyPEM)
	cfg.TokenSharedSecret = envOrDefault("TOKEN_SHARED_SECRET", cfg.TokenSharedSecret)
	cfg.TokenIssuer = envOrDefault("TOKEN_ISSUER", cfg.TokenIssuer)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaTopic = envOrDefault("KAFKA_TOPIC", cfg.KafkaTopic)

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))

	cfg.IdempotencyTTL = time.Duration(envInt("IDEMPOTENCY_TTL_HOURS", int(cfg.IdempotencyTTL.Hours()))) * time.Hour
	cfg.UpstreamTimeout = time.Duration(envInt("UPSTREAM_TIMEOUT_SECONDS", int(cfg.UpstreamTimeout.Seconds()))) * time.Second
	cfg.OutboxPollInterval = time.Duration(envInt("OUTBOX_POLL_SECONDS", int(cfg.OutboxPollInterval.Seconds()))) * time.Second
	cfg.OutboxBatchSize = envInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	cfg.OutboxClaimTTL = time.Duration(envInt("OUTBOX_CLAIM_TTL_SECONDS", int(cfg.OutboxClaimTTL.Seconds()))) * time.Second
	cfg.OutboxMaxRetries = envInt("OUTBOX_MAX_RETRIES", cfg.OutboxMaxRetries)

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL/POSTGRES_URL")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("missing REDIS_URL")
	}
	if cfg.TokenPublicKeyPEM == "" && cfg.TokenSharedSecret == "" {
		return Config{}, fmt.Errorf("missing TOKEN_PUBLIC_KEY_PEM or TOKEN_SHARED_SECRET")
	}

	return cfg, nil
}

// envOrDefault returns an env var when present, otherwise the provided fallback.
func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt parses integer env vars with safe fallback on empty/invalid values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// envCSV parses comma-separated env vars and removes empty segments.
func envCSV(name string, fallback []string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	parts := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		parts = append(parts, trimmed)
	}
	if len(parts) == 0 {
		return fallback
	}
	return parts
}
