// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Espimg builds flash images for the ESP32 family microcontrollers booted by
// MCUboot.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/embeddedgo/esptools/espimg/internal/cmd/chips"
	"github.com/embeddedgo/esptools/espimg/internal/cmd/info"
	"github.com/embeddedgo/esptools/espimg/internal/cmd/saveimage"
	"github.com/embeddedgo/esptools/espimg/internal/cmd/serveota"
	"github.com/embeddedgo/esptools/espimg/internal/config"
	"github.com/embeddedgo/esptools/espimg/internal/logger"
	"github.com/embeddedgo/esptools/espimg/internal/util"
	"github.com/urfave/cli/v3"
)

func newApp(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "espimg",
		Usage:     "ESP32 MCUboot flash image builder",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "configuration `FILE` (default " + config.Path() + ")",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level: debug, info, warn, error",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format: text, json",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			path := cmd.String("config")
			if path == "" {
				path = config.Path()
			}
			cfg, err := config.Load(path)
			if err != nil {
				return ctx, err
			}
			if cmd.IsSet("log-level") {
				cfg.LogLevel = cmd.String("log-level")
			}
			if cmd.IsSet("log-format") {
				cfg.LogFormat = cmd.String("log-format")
			}
			ctx = logger.WithContext(ctx, logger.Open(stderr, cfg.LogFormat, cfg.LogLevel))
			return util.WithConfig(ctx, cfg), nil
		},
		Commands: []*cli.Command{
			saveimage.Command(),
			info.Command(),
			serveota.Command(),
			chips.Command(),
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newApp(os.Stdout, os.Stderr).Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "espimg:", err)
		stop()
		os.Exit(1)
	}
}
