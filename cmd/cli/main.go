package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrijs2005/authsim/internal/buildinfo"
	"github.com/dmitrijs2005/authsim/internal/client/cli"
	"github.com/dmitrijs2005/authsim/internal/client/config"
	"github.com/dmitrijs2005/authsim/internal/client/credentials"
	"github.com/dmitrijs2005/authsim/internal/client/metrics"
	"github.com/dmitrijs2005/authsim/internal/client/services"
	"github.com/dmitrijs2005/authsim/internal/client/store"
	"github.com/dmitrijs2005/authsim/internal/client/token"
	"github.com/dmitrijs2005/authsim/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "authsim stopped", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log logging.Logger) error {
	digester, err := credentials.NewDigester(cfg.Hasher)
	if err != nil {
		return err
	}

	kv, err := store.Open(ctx, cfg.StoreDSN)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()

	opts := []services.Option{
		services.WithLogger(log),
		services.WithMetrics(metrics.New(reg)),
		services.WithDelays(cfg.LoginDelay, cfg.SignupDelay),
		services.WithTokenTTL(cfg.TokenTTL),
		services.WithDigester(digester),
		services.WithDemoMode(cfg.DemoMode),
	}
	if cfg.SigningKey != "" {
		opts = append(opts, services.WithSigner(token.NewHMACSigner([]byte(cfg.SigningKey))))
	}

	svc := services.NewAuthService(kv, opts...)
	defer func() {
		if err := svc.Close(); err != nil {
			log.Error(ctx, "closing store failed", "error", err)
		}
	}()

	if cfg.MetricsAddr != "" {
		srv := serveMetrics(ctx, cfg.MetricsAddr, reg, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if _, err := svc.Init(ctx); err != nil {
		return err
	}

	cli.NewApp(svc, cfg.ExpiryCheckInterval, cli.WithLogger(log)).Run(ctx)
	return nil
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, log logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info(ctx, "metrics server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "metrics server failed", "error", err)
		}
	}()
	return srv
}
