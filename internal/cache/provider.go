package cache

// Package cache provides short-lived shared state: webhook delivery
// deduplication and OAuth state nonces.

import (
	"context"
	"fmt"
	"time"
)

// Provider defines the interface for TTL-bound key/value storage.
type Provider interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

type Config struct {
	Provider              string
	RedisConnectionString string
}

func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "memory", "":
		return NewMemoryProvider()
	case "redis":
		return NewRedisProvider(cfg.RedisConnectionString)
	default:
		return nil, fmt.Errorf("unsupported cache provider: %s", cfg.Provider)
	}
}

// WebhookKey keys a processed webhook delivery for idempotency checks.
func WebhookKey(source, deliveryID string) string {
	return fmt.Sprintf("webhook:%s:%s", source, deliveryID)
}

// OAuthStateKey keys a pending OAuth state nonce.
func OAuthStateKey(state string) string {
	return fmt.Sprintf("oauth:state:%s", state)
}
