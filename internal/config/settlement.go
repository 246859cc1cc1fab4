package config

import (
	"os"
	"strconv"
	"time"
)

// SettlementConfig carries the settlement knobs that are not connection
// settings: who the platform payee is, which queue carries order events and
// how the worker polls it.
type SettlementConfig struct {
	HQUserEmail       string
	OrderEventQueue   string
	DefaultCountry    string
	WorkerPollTimeout time.Duration
	WorkerConcurrency int
}

// LoadSettlementConfig reads the settlement settings from the environment
// with production defaults.
func LoadSettlementConfig() *SettlementConfig {
	return &SettlementConfig{
		HQUserEmail:       getEnv("SETTLEMENT_HQ_EMAIL", "hq@rendasua.com"),
		OrderEventQueue:   getEnv("SETTLEMENT_ORDER_EVENT_QUEUE", "order_events"),
		DefaultCountry:    getEnv("SETTLEMENT_DEFAULT_COUNTRY", "GA"),
		WorkerPollTimeout: getEnvDuration("SETTLEMENT_WORKER_POLL_TIMEOUT", 5*time.Second),
		WorkerConcurrency: getEnvInt("SETTLEMENT_WORKER_CONCURRENCY", 1),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
