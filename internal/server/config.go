package server

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/iwvelando/loan-calculator/internal/cache"
	"github.com/iwvelando/loan-calculator/internal/config"
	"github.com/iwvelando/loan-calculator/pkg/constants"
	"github.com/iwvelando/loan-calculator/pkg/validation"
	"gopkg.in/yaml.v3"
)

// Config holds the settings of the calculation HTTP server. MaxBodySize is
// the human-readable request body limit, e.g. "256K"; BodySizeBytes holds the
// parsed value.
type Config struct {
	Address         string               `yaml:"address"`
	MaxBodySize     string               `yaml:"maxBodySize"`
	ShutdownTimeout time.Duration        `yaml:"shutdownTimeout"`
	Logging         config.LoggingConfig `yaml:"logging"`
	Cache           cache.Config         `yaml:"cache"`

	bodySizeBytes int64
}

// DefaultConfig listens on the default address with caching disabled.
func DefaultConfig() *Config {
	return &Config{
		Address:         constants.DefaultServerAddress,
		MaxBodySize:     strconv.FormatInt(constants.DefaultMaxBodySizeBytes, 10),
		bodySizeBytes:   constants.DefaultMaxBodySizeBytes,
		ShutdownTimeout: constants.DefaultShutdownTimeoutSeconds * time.Second,
		Cache: cache.Config{
			Backend: constants.CacheBackendNone,
			TTL:     constants.DefaultCacheTTLSeconds * time.Second,
		},
	}
}

// LoadConfig reads the server configuration from a YAML file. An empty path
// or a missing file yields DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return cfg, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read server config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse server config %s: %w", path, err)
	}
	if err := cfg.resolve(); err != nil {
		return nil, fmt.Errorf("invalid server config %s: %w", path, err)
	}
	return cfg, nil
}

// BodySizeBytes returns the request body limit in bytes.
func (c *Config) BodySizeBytes() int64 {
	return c.bodySizeBytes
}

// SetMaxBodySize replaces the request body limit. A blank or zero size
// restores the default. On error the current limit is kept.
func (c *Config) SetMaxBodySize(size string) error {
	n, err := ParseSize(size)
	if err != nil {
		return fmt.Errorf("invalid maxBodySize: %w", err)
	}
	if n == 0 {
		n = constants.DefaultMaxBodySizeBytes
	}
	c.bodySizeBytes = n
	c.MaxBodySize = strconv.FormatInt(n, 10)
	return nil
}

// resolve fills the fields a file may leave unset and rejects cache
// settings the server cannot start with.
func (c *Config) resolve() error {
	defaults := DefaultConfig()
	if c.Address == "" {
		c.Address = defaults.Address
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = defaults.Cache.Backend
	}

	if err := validation.ValidateCacheBackend(c.Cache.Backend); err != nil {
		return err
	}
	if c.Cache.Backend == constants.CacheBackendRedis && c.Cache.Address == "" {
		return fmt.Errorf("cache.address is required for the redis backend")
	}
	return c.SetMaxBodySize(c.MaxBodySize)
}

// sizeUnits maps the accepted size suffixes to bytes.
var sizeUnits = map[string]int64{
	"":   1,
	"B":  1,
	"K":  1 << 10,
	"KB": 1 << 10,
	"M":  1 << 20,
	"MB": 1 << 20,
}

// ParseSize reads a byte count with an optional B, K(B) or M(B) suffix,
// case-insensitive, e.g. "4096", "256K" or "2mb". Blank input yields the
// default body limit.
func ParseSize(value string) (int64, error) {
	size := strings.ToUpper(strings.TrimSpace(value))
	if size == "" {
		return constants.DefaultMaxBodySizeBytes, nil
	}

	digits := strings.TrimRightFunc(size, func(r rune) bool { return r < '0' || r > '9' })
	multiplier, ok := sizeUnits[strings.TrimSpace(size[len(digits):])]
	if digits == "" || !ok {
		return 0, fmt.Errorf("invalid size %q, expected a byte count with an optional K or M suffix", value)
	}

	n, err := strconv.ParseInt(strings.TrimSpace(digits), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", value, err)
	}
	if n < 0 || n > math.MaxInt64/multiplier {
		return 0, fmt.Errorf("size %q is out of range", value)
	}
	return n * multiplier, nil
}
