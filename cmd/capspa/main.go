// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// capspa is a command line host for an oidc implicit flow session. The
// browser's durable and tab-scoped storage are both kept in a SQLite
// database, and the "page location" is the configured redirect URL (or the
// URL pasted into the callback command).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/hashicorp/capspa/internal/config"
)

// cliConfig is read from the environment (or a .env file).
type cliConfig struct {
	Issuer      string   `env:"CAPSPA_ISSUER,required"`
	ClientId    string   `env:"CAPSPA_CLIENT_ID,required"`
	Scopes      []string `env:"CAPSPA_SCOPES" envSeparator:" " envDefault:"openid"`
	RedirectUrl string   `env:"CAPSPA_REDIRECT_URL" envDefault:"http://localhost:8080/"`
	DB          string   `env:"CAPSPA_DB" envDefault:"capspa.db"`
	ProviderCA  string   `env:"CAPSPA_PROVIDER_CA_FILE,file"`
	LogLevel    string   `env:"CAPSPA_LOG_LEVEL" envDefault:"warn"`
}

const usage = `usage: capspa [-env file] <command> [args]

commands:
  login [-prompt value]  print the provider's login URL
  callback <url>         complete a login with the URL the provider redirected to
  whoami                 print the session's claims
  call <url>             GET url with the session's access token
  refresh                silently re-authenticate (prompt=none)
  logout                 print the provider's logout URL and end the session
`

func main() {
	envFile := flag.String("env", ".env", "dotenv file to load")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()

	var cfg cliConfig
	if err := config.Load(&cfg, *envFile); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}

	// handle ctrl-c while waiting on the provider
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := config.NewLogger("capspa", cfg.LogLevel, os.Stderr)
	if err := run(ctx, cfg, logger, flag.Args(), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		stop()
		os.Exit(1)
	}
}
