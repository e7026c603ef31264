// Package config loads server configuration from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/netip"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Storage backends
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

// Archive drivers
const (
	ArchiveNone     = "none"
	ArchiveSQLite   = "sqlite"
	ArchivePostgres = "postgres"
)

// Config is the full server configuration
type Config struct {
	Host string `env:"HOST" envDefault:""`
	Port int    `env:"PORT" envDefault:"8000"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	StorageType string `env:"STORAGE_TYPE" envDefault:"memory"`
	RedisURL    string `env:"REDIS_URL" envDefault:"redis://localhost:6379"`

	JWTSecret     string        `env:"JWT_SECRET,required"`
	TokenTTL      time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	AdminPassword string        `env:"ADMIN_PASSWORD,required"`

	RoundTimeout      time.Duration `env:"ROUND_TIMEOUT" envDefault:"60s"`
	PauseTimeout      time.Duration `env:"PAUSE_TIMEOUT" envDefault:"10m"`
	LobbyTTL          time.Duration `env:"LOBBY_TTL" envDefault:"10m"`
	FinishedRetention time.Duration `env:"FINISHED_RETENTION" envDefault:"1h"`
	CleanupInterval   time.Duration `env:"CLEANUP_INTERVAL" envDefault:"0s"`

	ArchiveDriver string `env:"ARCHIVE_DRIVER" envDefault:"none"`
	ArchiveDSN    string `env:"ARCHIVE_DSN" envDefault:""`

	RateLimit  int           `env:"RATE_LIMIT" envDefault:"30"`
	RateWindow time.Duration `env:"RATE_WINDOW" envDefault:"1m"`
	// TrustedProxies lists the IPs or CIDRs whose X-Forwarded-For is believed
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	AllowedOrigin string `env:"ALLOWED_ORIGIN" envDefault:""`
}

// Load reads path into the environment if it exists, then parses and validates Config.
// Variables already set take precedence over the file.
func Load(path string) (Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", path, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerated and ranged values
func (c Config) Validate() error {
	switch c.StorageType {
	case StorageMemory, StorageRedis:
	default:
		return fmt.Errorf("STORAGE_TYPE must be %s or %s, got %q", StorageMemory, StorageRedis, c.StorageType)
	}

	switch c.ArchiveDriver {
	case ArchiveNone:
	case ArchiveSQLite, ArchivePostgres:
		if c.ArchiveDSN == "" {
			return fmt.Errorf("ARCHIVE_DSN is required when ARCHIVE_DRIVER=%s", c.ArchiveDriver)
		}
	default:
		return fmt.Errorf("ARCHIVE_DRIVER must be none, sqlite or postgres, got %q", c.ArchiveDriver)
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}
	if c.RoundTimeout <= 0 || c.PauseTimeout <= 0 || c.LobbyTTL <= 0 {
		return errors.New("ROUND_TIMEOUT, PAUSE_TIMEOUT and LOBBY_TTL must be positive")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("RATE_LIMIT must not be negative, got %d", c.RateLimit)
	}
	if _, err := c.TrustedProxyPrefixes(); err != nil {
		return err
	}
	return nil
}

// TrustedProxyPrefixes parses TrustedProxies. A bare IP trusts that single address.
func (c Config) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(c.TrustedProxies))
	for _, raw := range c.TrustedProxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.Contains(raw, "/") {
			p, err := netip.ParsePrefix(raw)
			if err != nil {
				return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

// Addr returns the listen address
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
