package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/authsim/internal/flagx"
)

var knownFlags = []string{
	"-d", "-ttl", "-signing-key", "-hasher", "-demo",
	"-login-delay", "-signup-delay", "-log-level", "-log-format",
	"-metrics", "-expiry-check",
}

// parseFlags overlays cfg with command-line flags. Arguments that belong to
// other flag sets (such as -c) are filtered out first. Bool flags must use
// the -demo=false form.
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("authsim", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.StoreDSN, "d", cfg.StoreDSN, "store dsn: sqlite:<path>, redis://host:port/db or memory:")
	fs.DurationVar(&cfg.TokenTTL, "ttl", cfg.TokenTTL, "session token lifetime")
	fs.StringVar(&cfg.SigningKey, "signing-key", cfg.SigningKey, "HS256 key; empty keeps placeholder signatures")
	fs.StringVar(&cfg.Hasher, "hasher", cfg.Hasher, "password digest: legacy, argon2 or bcrypt")
	fs.BoolVar(&cfg.DemoMode, "demo", cfg.DemoMode, "accept built-in demo credentials")
	fs.DurationVar(&cfg.LoginDelay, "login-delay", cfg.LoginDelay, "simulated login latency")
	fs.DurationVar(&cfg.SignupDelay, "signup-delay", cfg.SignupDelay, "simulated signup latency")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "text or json")
	fs.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "address for the /metrics endpoint; empty disables it")
	fs.DurationVar(&cfg.ExpiryCheckInterval, "expiry-check", cfg.ExpiryCheckInterval, "session liveness check interval")

	return fs.Parse(flagx.FilterArgs(args, knownFlags))
}
