package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dmitrijs2005/authsim/internal/flagx"
	"github.com/dmitrijs2005/authsim/internal/timex"
)

// fileConfig is the on-disk form. Absent keys leave the current setting
// alone; pointer fields tell an explicit zero from an absent key.
type fileConfig struct {
	StoreDSN            string          `json:"store_dsn" yaml:"store_dsn"`
	TokenTTL            timex.Duration  `json:"token_ttl" yaml:"token_ttl"`
	SigningKey          string          `json:"signing_key" yaml:"signing_key"`
	Hasher              string          `json:"hasher" yaml:"hasher"`
	DemoMode            *bool           `json:"demo_mode" yaml:"demo_mode"`
	LoginDelay          *timex.Duration `json:"login_delay" yaml:"login_delay"`
	SignupDelay         *timex.Duration `json:"signup_delay" yaml:"signup_delay"`
	LogLevel            string          `json:"log_level" yaml:"log_level"`
	LogFormat           string          `json:"log_format" yaml:"log_format"`
	MetricsAddr         string          `json:"metrics_addr" yaml:"metrics_addr"`
	ExpiryCheckInterval timex.Duration  `json:"expiry_check_interval" yaml:"expiry_check_interval"`
}

// parseFile overlays cfg with the file named by -c/-config, if any.
func parseFile(cfg *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	fc.apply(cfg)
	return nil
}

func (fc *fileConfig) apply(cfg *Config) {
	setString(&cfg.StoreDSN, fc.StoreDSN)
	setString(&cfg.SigningKey, fc.SigningKey)
	setString(&cfg.Hasher, fc.Hasher)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.LogFormat, fc.LogFormat)
	setString(&cfg.MetricsAddr, fc.MetricsAddr)

	if fc.TokenTTL.Duration != 0 {
		cfg.TokenTTL = fc.TokenTTL.Duration
	}
	if fc.ExpiryCheckInterval.Duration != 0 {
		cfg.ExpiryCheckInterval = fc.ExpiryCheckInterval.Duration
	}
	// zero is a meaningful delay
	if fc.LoginDelay != nil {
		cfg.LoginDelay = fc.LoginDelay.Duration
	}
	if fc.SignupDelay != nil {
		cfg.SignupDelay = fc.SignupDelay.Duration
	}
	if fc.DemoMode != nil {
		cfg.DemoMode = *fc.DemoMode
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
