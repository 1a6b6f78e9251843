// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// capspa-api is a resource server which accepts access tokens issued to
// capspa clients.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hashicorp/capspa/api"
	"github.com/hashicorp/capspa/internal/config"
	"github.com/hashicorp/capspa/jwt"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"
)

// apiConfig is read from the environment (or a .env file).
type apiConfig struct {
	Issuer         string   `env:"CAPSPA_ISSUER,required"`
	Addr           string   `env:"CAPSPA_API_ADDR" envDefault:"localhost:8081"`
	Audiences      []string `env:"CAPSPA_AUDIENCE"`
	JWKSURL        string   `env:"CAPSPA_JWKS_URL"`
	JWKSCA         string   `env:"CAPSPA_JWKS_CA_FILE,file"`
	SigningAlgs    []string `env:"CAPSPA_SIGNING_ALGS" envDefault:"RS256,ES256"`
	AllowedOrigins []string `env:"CAPSPA_ALLOWED_ORIGINS" envDefault:"*"`
	LogLevel       string   `env:"CAPSPA_LOG_LEVEL" envDefault:"info"`
}

// keySet returns a key set for the configured JWKS URL. Without one, the
// JWKS is found through the issuer's discovery document.
func (c apiConfig) keySet(ctx context.Context) (jwt.KeySet, error) {
	if c.JWKSURL != "" {
		return jwt.NewJSONWebKeySet(ctx, c.JWKSURL, c.JWKSCA)
	}
	return jwt.NewOIDCDiscoveryKeySet(ctx, c.Issuer, c.JWKSCA)
}

// keySource names where keys come from, for logging.
func (c apiConfig) keySource() string {
	if c.JWKSURL != "" {
		return c.JWKSURL
	}
	return "discovery"
}

const shutdownTimeout = 10 * time.Second

func main() {
	envFile := flag.String("env", ".env", "dotenv file to load")
	flag.Parse()

	var cfg apiConfig
	if err := config.Load(&cfg, *envFile); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
	logger := config.NewLogger("capspa-api", cfg.LogLevel, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, logger, nil); err != nil {
		logger.Error("server failed", "error", err)
		stop()
		os.Exit(1)
	}
}

// newHandler wires the resource server for cfg.
func newHandler(ctx context.Context, cfg apiConfig, logger hclog.Logger) (http.Handler, error) {
	const op = "newHandler"
	algs := make([]jwt.Alg, 0, len(cfg.SigningAlgs))
	for _, a := range cfg.SigningAlgs {
		algs = append(algs, jwt.Alg(strings.TrimSpace(a)))
	}
	if err := jwt.SupportedSigningAlgorithm(algs...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ks, err := cfg.keySet(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	v, err := jwt.NewValidator(cfg.Issuer, ks,
		jwt.WithAudiences(cfg.Audiences...),
		jwt.WithSupportedSigningAlgs(algs...),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	h, err := api.NewHandler(v,
		api.WithLogger(logger.Named("api")),
		api.WithAllowedOrigins(cfg.AllowedOrigins...),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return h, nil
}

// serve runs the resource server until ctx is done. When ready isn't nil,
// the listener's address is sent on it once the server is accepting
// connections.
func serve(ctx context.Context, cfg apiConfig, logger hclog.Logger, ready chan<- string) error {
	const op = "serve"
	h, err := newHandler(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	l, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          logger.StandardLogger(&hclog.StandardLoggerOptions{InferLevels: true}),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", "addr", l.Addr().String(), "issuer", cfg.Issuer, "keys", cfg.keySource())
		if ready != nil {
			ready <- l.Addr().String()
		}
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
