package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port            int             `yaml:"port"`
	Auth            AuthConfig      `yaml:"auth"`
	RateLimit       RateLimitConfig `yaml:"rate_limit"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout"`

	// TrustedProxies lists the proxy IPs or CIDRs whose X-Forwarded-For
	// header is believed. Empty means the peer address is the client.
	TrustedProxies []string `yaml:"trusted_proxies"`
}

// AuthConfig holds the administrator credentials checked with HTTP basic auth.
type AuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// RateLimitConfig limits requests per client on the protected routes.
// A zero RequestsPerSecond disables limiting. Clients idle longer than
// ClientTTL are forgotten.
type RateLimitConfig struct {
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	ClientTTL         time.Duration `yaml:"client_ttl"`
}

type DatabaseConfig struct {
	Driver          string            `yaml:"driver"` // "mysql", "sqlite3"
	Host            string            `yaml:"host"`
	Port            int               `yaml:"port"`
	User            string            `yaml:"user"`
	Password        string            `yaml:"password"`
	Name            string            `yaml:"name"`
	Path            string            `yaml:"path"` // sqlite only
	ConnectionLimit int               `yaml:"connection_limit"`
	Params          map[string]string `yaml:"params,omitempty"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

const (
	defaultUsername = "admin"
	defaultPassword = "password"
)

// Load reads the YAML file at path. A missing file is not an error: the
// configuration is then built from environment variables alone.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		// Expand environment variables
		dataStr := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(dataStr), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		if err := cfg.fromEnv(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) fromEnv() error {
	c.Server.Auth.Username = os.Getenv("API_USERNAME")
	c.Server.Auth.Password = os.Getenv("API_PASSWORD")
	c.Database.Driver = os.Getenv("DB_DRIVER")
	c.Database.Host = os.Getenv("DB_HOST")
	c.Database.User = os.Getenv("DB_USER")
	c.Database.Password = os.Getenv("DB_PASSWORD")
	c.Database.Name = os.Getenv("DB_NAME")
	c.Database.Path = os.Getenv("DB_PATH")
	c.Logging.Level = os.Getenv("LOG_LEVEL")
	c.Logging.Format = os.Getenv("LOG_FORMAT")

	if v := os.Getenv("TRUSTED_PROXIES"); v != "" {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				c.Server.TrustedProxies = append(c.Server.TrustedProxies, p)
			}
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"PORT", &c.Server.Port},
		{"DB_PORT", &c.Database.Port},
		{"DB_CONNECTION_LIMIT", &c.Database.ConnectionLimit},
	}
	for _, i := range ints {
		v := os.Getenv(i.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", i.key, v, err)
		}
		*i.dst = n
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if c.Server.Auth.Username == "" {
		c.Server.Auth.Username = defaultUsername
	}
	if c.Server.Auth.Password == "" {
		c.Server.Auth.Password = defaultPassword
	}
	if c.Server.RateLimit.RequestsPerSecond > 0 && c.Server.RateLimit.Burst == 0 {
		c.Server.RateLimit.Burst = int(c.Server.RateLimit.RequestsPerSecond)
		if c.Server.RateLimit.Burst < 1 {
			c.Server.RateLimit.Burst = 1
		}
	}
	if c.Server.RateLimit.ClientTTL == 0 {
		c.Server.RateLimit.ClientTTL = 10 * time.Minute
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}

	if c.Database.Driver == "" {
		c.Database.Driver = DriverMySQL
	}
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.User == "" {
		c.Database.User = "root"
	}
	if c.Database.Name == "" {
		c.Database.Name = "soketi"
	}
	if c.Database.Path == "" {
		c.Database.Path = "./data/soketi.db"
	}
	if c.Database.ConnectionLimit == 0 {
		c.Database.ConnectionLimit = 10
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}

// Validate reports configuration values the service cannot run with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverMySQL, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	if c.Database.ConnectionLimit < 0 {
		return fmt.Errorf("database connection_limit must be positive, got %d", c.Database.ConnectionLimit)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.RateLimit.RequestsPerSecond < 0 {
		return fmt.Errorf("rate_limit requests_per_second must not be negative")
	}
	for _, p := range c.Server.TrustedProxies {
		if net.ParseIP(p) != nil {
			continue
		}
		if _, _, err := net.ParseCIDR(p); err != nil {
			return fmt.Errorf("invalid trusted proxy %q: must be an IP or CIDR", p)
		}
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unsupported logging format: %s", c.Logging.Format)
	}
	return nil
}

// UsesDefaultCredentials reports whether the built-in admin credentials are active.
func (c *Config) UsesDefaultCredentials() bool {
	return c.Server.Auth.Username == defaultUsername && c.Server.Auth.Password == defaultPassword
}
