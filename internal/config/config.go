// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package config loads the capspa binaries' configuration from the
// environment and builds their loggers.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/hashicorp/go-hclog"
	"github.com/joho/godotenv"
)

// Load reads the optional dotenv files (".env" when none are given) and then
// parses the environment into target, a pointer to a struct with env tags.
// Variables already set in the environment take precedence over dotenv
// files. Missing dotenv files are ignored.
func Load(target interface{}, dotenvFiles ...string) error {
	const op = "config.Load"
	if err := godotenv.Load(dotenvFiles...); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return fmt.Errorf("%s: unable to load dotenv: %w", op, err)
		}
	}
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("%s: unable to parse environment: %w", op, err)
	}
	return nil
}

// NewLogger returns a named logger writing to w at the given level ("trace",
// "debug", "info", "warn", "error" or "off"). An unknown level is info.
func NewLogger(name, level string, w io.Writer) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:   name,
		Level:  hclog.LevelFromString(level),
		Output: w,
	})
}
