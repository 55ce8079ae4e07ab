// Package config loads runtime configuration for the authsim CLI.
//
// Sources, later ones overriding earlier ones:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file given with -c or -config. Files ending in .yaml
//     or .yml are read as YAML, anything else as JSON.
//  3. Environment variables prefixed AUTHSIM_.
//  4. Command-line flags.
//
// File keys and the matching variables and flags:
//
//	store_dsn              AUTHSIM_STORE_DSN              -d
//	token_ttl              AUTHSIM_TOKEN_TTL              -ttl
//	signing_key            AUTHSIM_SIGNING_KEY            -signing-key
//	hasher                 AUTHSIM_HASHER                 -hasher
//	demo_mode              AUTHSIM_DEMO_MODE              -demo
//	login_delay            AUTHSIM_LOGIN_DELAY            -login-delay
//	signup_delay           AUTHSIM_SIGNUP_DELAY           -signup-delay
//	log_level              AUTHSIM_LOG_LEVEL              -log-level
//	log_format             AUTHSIM_LOG_FORMAT             -log-format
//	metrics_addr           AUTHSIM_METRICS_ADDR           -metrics
//	expiry_check_interval  AUTHSIM_EXPIRY_CHECK_INTERVAL  -expiry-check
//
// Durations in files may be strings such as "1500ms" or integer
// nanoseconds:
//
//	store_dsn: sqlite:authsim.db
//	token_ttl: 24h
//	login_delay: 1500ms
package config
