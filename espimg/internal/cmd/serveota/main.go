// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package serveota

import (
	"context"
	"errors"

	"github.com/embeddedgo/esptools/espimg/internal/logger"
	"github.com/embeddedgo/esptools/espimg/internal/otaserve"
	"github.com/embeddedgo/esptools/espimg/internal/util"
	"github.com/urfave/cli/v3"
)

const Descr = "serve the OTA update image over HTTP"

func Command() *cli.Command {
	return &cli.Command{
		Name:      "serve-ota",
		Usage:     Descr,
		ArgsUsage: "[APP]",
		Flags: append(util.ImageFlags(),
			&cli.StringFlag{
				Name:  "addr",
				Usage: "listen `ADDRESS`",
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() > 1 {
				return errors.New("too many arguments")
			}
			cfg := util.ConfigFrom(ctx)
			addr := cfg.OTAAddr
			if cmd.IsSet("addr") {
				addr = cmd.String("addr")
			}
			app, _ := util.InOutFiles(cmd.Args().First(), ".elf", "-", "")
			img, err := util.LoadImage(ctx, util.SourceFromFlags(cmd, app))
			if err != nil {
				return err
			}
			srv, err := otaserve.New(img, logger.FromContext(ctx))
			if err != nil {
				return err
			}
			return otaserve.Serve(ctx, addr, srv)
		},
	}
}
