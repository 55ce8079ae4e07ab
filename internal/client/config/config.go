package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds runtime settings for the authsim CLI.
type Config struct {
	// StoreDSN selects the persistent store: "sqlite:<path>", "redis://..."
	// or "memory:".
	StoreDSN string `env:"AUTHSIM_STORE_DSN"`

	TokenTTL time.Duration `env:"AUTHSIM_TOKEN_TTL"`

	// SigningKey switches tokens to HS256 when set.
	SigningKey string `env:"AUTHSIM_SIGNING_KEY"`

	// Hasher is one of legacy, argon2, bcrypt.
	Hasher string `env:"AUTHSIM_HASHER"`

	// DemoMode accepts the built-in demo credentials.
	DemoMode bool `env:"AUTHSIM_DEMO_MODE"`

	LoginDelay  time.Duration `env:"AUTHSIM_LOGIN_DELAY"`
	SignupDelay time.Duration `env:"AUTHSIM_SIGNUP_DELAY"`

	LogLevel  string `env:"AUTHSIM_LOG_LEVEL"`
	LogFormat string `env:"AUTHSIM_LOG_FORMAT"`

	// MetricsAddr enables the Prometheus endpoint when not empty.
	MetricsAddr string `env:"AUTHSIM_METRICS_ADDR"`

	// ExpiryCheckInterval is how often the CLI rechecks session liveness.
	ExpiryCheckInterval time.Duration `env:"AUTHSIM_EXPIRY_CHECK_INTERVAL"`
}

// LoadDefaults populates c with defaults.
func (c *Config) LoadDefaults() {
	c.StoreDSN = "sqlite:authsim.db"
	c.TokenTTL = 24 * time.Hour
	c.SigningKey = ""
	c.Hasher = "legacy"
	c.DemoMode = true
	c.LoginDelay = 1500 * time.Millisecond
	c.SignupDelay = 2000 * time.Millisecond
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.MetricsAddr = ""
	c.ExpiryCheckInterval = 5 * time.Second
}

// LoadConfig builds a Config from os.Args and the environment.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load applies defaults, then the config file named in args, then the
// environment, then the flags in args.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseFile(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var ErrInvalidConfig = errors.New("invalid config")

// Validate rejects values no component can run with.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.StoreDSN) == "" {
		errs = append(errs, errors.New("store dsn is empty"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("token ttl must be positive, got %s", c.TokenTTL))
	}
	if c.LoginDelay < 0 || c.SignupDelay < 0 {
		errs = append(errs, errors.New("delays must not be negative"))
	}
	if c.ExpiryCheckInterval <= 0 {
		errs = append(errs, fmt.Errorf("expiry check interval must be positive, got %s", c.ExpiryCheckInterval))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
