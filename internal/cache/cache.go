// Package cache memoizes calculation results by a fingerprint of their inputs.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/iwvelando/loan-calculator/internal/config"
	"github.com/iwvelando/loan-calculator/pkg/constants"
	"go.uber.org/zap"
)

// Cache stores serialized results under a fingerprint key.
type Cache interface {
	// Get returns the value stored under key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key for the cache's TTL.
	Set(ctx context.Context, key string, value []byte) error

	Close() error
}

// Config selects and tunes a cache backend.
type Config struct {
	Backend    string        `yaml:"backend"`
	Address    string        `yaml:"address"`
	Password   string        `yaml:"password"`
	DB         int           `yaml:"db"`
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"maxEntries"`
}

// DefaultMaxEntries bounds the memory backend when MaxEntries is unset.
const DefaultMaxEntries = 1024

// New builds the backend named by cfg.Backend. It returns a nil Cache for the
// "none" backend.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (Cache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = constants.DefaultCacheTTLSeconds * time.Second
	}

	switch cfg.Backend {
	case "", constants.CacheBackendNone:
		return nil, nil
	case constants.CacheBackendMemory:
		maxEntries := cfg.MaxEntries
		if maxEntries <= 0 {
			maxEntries = DefaultMaxEntries
		}
		logger.Info("using in-memory result cache",
			zap.String("op", "cache.New"),
			zap.Int("maxEntries", maxEntries),
			zap.Duration("ttl", ttl),
		)
		return NewMemoryCache(maxEntries, ttl), nil
	case constants.CacheBackendRedis:
		if cfg.Address == "" {
			return nil, fmt.Errorf("redis cache requires an address")
		}
		redisCache := NewRedisCache(cfg.Address, cfg.Password, cfg.DB, ttl)
		if err := redisCache.Ping(ctx); err != nil {
			_ = redisCache.Close()
			return nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Address, err)
		}
		logger.Info("using redis result cache",
			zap.String("op", "cache.New"),
			zap.String("address", cfg.Address),
			zap.Duration("ttl", ttl),
		)
		return redisCache, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// Key returns the fingerprint of a loan's inputs.
func Key(loan config.Loan) (string, error) {
	payload, err := json.Marshal(loan)
	if err != nil {
		return "", fmt.Errorf("failed to fingerprint loan: %w", err)
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
