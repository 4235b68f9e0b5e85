// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package saveimage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/embeddedgo/esptools/espimg/internal/logger"
	"github.com/embeddedgo/esptools/espimg/internal/output"
	"github.com/embeddedgo/esptools/espimg/internal/util"
	"github.com/urfave/cli/v3"
)

const Descr = "build the MCUboot flash image and save it to a file"

func Command() *cli.Command {
	return &cli.Command{
		Name:      "save-image",
		Usage:     Descr,
		ArgsUsage: "[APP [OUT]]",
		Flags: append(util.ImageFlags(),
			&cli.BoolFlag{
				Name:  "ota",
				Usage: "save only the application (OTA update) instead of the full flash image",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "output format: " + strings.Join(output.Formats(), ", "),
			},
			&cli.StringFlag{
				Name:  "pad",
				Usage: "pad `byte` used to fill gaps between segments",
			},
		),
		Action: run,
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() > 2 {
		return errors.New("too many arguments")
	}
	cfg := util.ConfigFrom(ctx)
	log := logger.FromContext(ctx)

	formatName := cfg.Format
	if cmd.IsSet("format") {
		formatName = cmd.String("format")
	}
	format, err := output.ParseFormat(formatName)
	if err != nil {
		return err
	}
	opts := output.Options{OTA: cmd.Bool("ota"), Pad: cfg.Pad}
	if cmd.IsSet("pad") {
		if opts.Pad, err = util.ParseByte(cmd.String("pad")); err != nil {
			return fmt.Errorf("bad pad byte: %w", err)
		}
	}
	suffix := format.Ext()
	if opts.OTA {
		suffix = ".ota" + suffix
	}
	app, out := util.InOutFiles(cmd.Args().Get(0), ".elf", cmd.Args().Get(1), suffix)

	img, err := util.LoadImage(ctx, util.SourceFromFlags(cmd, app))
	if err != nil {
		return err
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err = output.Write(f, img, format, opts); err != nil {
		f.Close()
		os.Remove(out)
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	log.Info(
		"image saved",
		"file", out, "chip", img.Params().Name, "format", format, "ota", opts.OTA,
	)
	return nil
}
