package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	postgres "github.com/modster/pickforge/internal/storage/postgres"
)

// Config aggregates runtime configuration grouped by concern.
type Config struct {
	ServiceName string
	HTTP        HTTPConfig
	Database    postgres.DatabaseConfig
	Stripe      StripeConfig
	ImageGen    ImageGenConfig
	Kafka       KafkaConfig
	Email       EmailConfig
}

type HTTPConfig struct {
	Addr string
}

type StripeConfig struct {
	SecretKey      string
	PublishableKey string
	WebhookSecret  string
}

type ImageGenConfig struct {
	BaseURL   string
	AccountID string
	APIToken  string
	Model     string
}

type KafkaConfig struct {
	Brokers      []string
	OrdersTopic  string
	ReceiptGroup string
}

type EmailConfig struct {
	DemoRecipient string
}

// Load reads configuration from environment variables, applying sensible defaults.
func Load() (Config, error) {
	cfg := Config{
		ServiceName: getEnv("SERVICE_NAME", "pickforge"),
		HTTP: HTTPConfig{
			Addr: getEnv("HTTP_LISTEN_ADDR", ":3000"),
		},
		Stripe: StripeConfig{
			SecretKey:      os.Getenv("STRIPE_SECRET_KEY"),
			PublishableKey: os.Getenv("STRIPE_PUBLISHABLE_KEY"),
			WebhookSecret:  os.Getenv("STRIPE_WEBHOOK_SECRET"),
		},
		ImageGen: ImageGenConfig{
			BaseURL:   getEnv("WORKERS_AI_BASE_URL", "https://api.cloudflare.com/client/v4"),
			AccountID: os.Getenv("CF_ACCOUNT_ID"),
			APIToken:  os.Getenv("CF_API_TOKEN"),
			Model:     getEnv("WORKERS_AI_MODEL", "@cf/stabilityai/stable-diffusion-xl-base-1.0"),
		},
		Kafka: KafkaConfig{
			Brokers:      splitAndTrim(getEnv("KAFKA_BROKERS", "localhost:9092")),
			OrdersTopic:  getEnv("KAFKA_ORDERS_TOPIC", "orders.v1"),
			ReceiptGroup: getEnv("KAFKA_RECEIPT_GROUP_ID", "receipt-workers"),
		},
		Email: EmailConfig{
			DemoRecipient: getEnv("DEMO_TO_EMAIL", "test@example.local"),
		},
	}

	portStr := getEnv("PICKS_DB_PORT", "5432")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return Config{}, fmt.Errorf("parse PICKS_DB_PORT: %w", err)
	}

	cfg.Database = postgres.DatabaseConfig{
		Host:     getEnv("PICKS_DB_HOST", "localhost"),
		Port:     port,
		Database: getEnv("PICKS_DB_NAME", "pickforge"),
		User:     getEnv("PICKS_DB_USER", "pickforgeadmin"),
		Password: getEnv("PICKS_DB_PASSWORD", ""),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
