// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"

	"github.com/hashicorp/capspa/session"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/oauth2"
)

var errUsage = errors.New("invalid usage")

// cli holds what every command needs.
type cli struct {
	cfg     cliConfig
	logger  hclog.Logger
	out     io.Writer
	tab     *session.SQLiteStorage
	durable *session.SQLiteStorage
}

// run executes the command named by args[0].
func run(ctx context.Context, cfg cliConfig, logger hclog.Logger, args []string, out io.Writer) error {
	const op = "run"
	if len(args) == 0 {
		return fmt.Errorf("%s: missing command: %w\n\n%s", op, errUsage, usage)
	}
	db, err := session.OpenSQLite(cfg.DB)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer db.Close()

	c, err := newCli(cfg, logger, db, out)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	cmd, cmdArgs := args[0], args[1:]
	switch cmd {
	case "login":
		return c.login(cmdArgs)
	case "callback":
		return c.callback(cmdArgs)
	case "whoami":
		return c.whoami()
	case "call":
		return c.call(ctx, cmdArgs)
	case "refresh":
		return c.refresh(ctx)
	case "logout":
		return c.logout()
	default:
		return fmt.Errorf("%s: unknown command %q: %w\n\n%s", op, cmd, errUsage, usage)
	}
}

func newCli(cfg cliConfig, logger hclog.Logger, db *sql.DB, out io.Writer) (*cli, error) {
	const op = "newCli"
	tab, err := session.NewSQLiteStorage(db, session.SessionNamespace)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	durable, err := session.NewSQLiteStorage(db, session.LocalNamespace)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cli{cfg: cfg, logger: logger, out: out, tab: tab, durable: durable}, nil
}

// manager creates a Manager whose location is rawLocation, or the redirect
// URL when it's empty.
func (c *cli) manager(rawLocation string) (*session.Manager, error) {
	const op = "cli.manager"
	if rawLocation == "" {
		rawLocation = c.cfg.RedirectUrl
	}
	loc, err := session.NewStaticLocation(rawLocation)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sc, err := session.NewConfig(
		c.cfg.Issuer,
		c.cfg.ClientId,
		session.WithScopes(c.cfg.Scopes...),
		session.WithRedirectUrl(c.cfg.RedirectUrl),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	m, err := session.NewManager(sc, c.tab, c.durable, loc,
		session.WithLogger(c.logger.Named("session")),
		session.WithProviderCA(c.cfg.ProviderCA),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return m, nil
}

func (c *cli) login(args []string) error {
	const op = "cli.login"
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	prompt := fs.String("prompt", "", "prompt value forwarded to the provider (none, login, consent)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%s: %w: %w", op, errUsage, err)
	}
	m, err := c.manager("")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	u, err := m.LoginURL(session.WithPrompt(*prompt))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	fmt.Fprintf(c.out, "open this URL in your browser, then run \"capspa callback <url>\" with the URL you're redirected to:\n\n%s\n", u)
	return nil
}

func (c *cli) callback(args []string) error {
	const op = "cli.callback"
	if len(args) != 1 {
		return fmt.Errorf("%s: expected a single redirect URL: %w", op, errUsage)
	}
	m, err := c.manager(args[0])
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !m.Authenticated() {
		if err := m.ResolveError(); err != nil {
			return fmt.Errorf("%s: login failed: %w", op, err)
		}
		return fmt.Errorf("%s: login failed: no tokens in %s: %w", op, args[0], session.ErrMissingToken)
	}
	sub, _ := m.UserClaims()["sub"].(string)
	fmt.Fprintf(c.out, "logged in as %s\n", sub)
	return nil
}

func (c *cli) whoami() error {
	const op = "cli.whoami"
	m, err := c.manager("")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !m.Authenticated() {
		return fmt.Errorf("%s: %w", op, session.ErrNotAuthenticated)
	}
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "    ")
	if err := enc.Encode(m.UserClaims()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (c *cli) call(ctx context.Context, args []string) error {
	const op = "cli.call"
	if len(args) != 1 {
		return fmt.Errorf("%s: expected a single URL: %w", op, errUsage)
	}
	m, err := c.manager("")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !m.Authenticated() {
		return fmt.Errorf("%s: %w", op, session.ErrNotAuthenticated)
	}
	client := oauth2.NewClient(ctx, m)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, args[0], nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()
	fmt.Fprintf(c.out, "%s\n", resp.Status)
	if _, err := io.Copy(c.out, resp.Body); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (c *cli) refresh(ctx context.Context) error {
	const op = "cli.refresh"
	m, err := c.manager("")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := m.Refresh(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	sub, _ := m.UserClaims()["sub"].(string)
	fmt.Fprintf(c.out, "refreshed session for %s\n", sub)
	return nil
}

func (c *cli) logout() error {
	const op = "cli.logout"
	m, err := c.manager("")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	u := m.LogoutURL()
	if err := m.Logout(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	fmt.Fprintf(c.out, "logged out, to end the provider's session open:\n\n%s\n", u)
	return nil
}
