// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package util

import (
	"context"
	"fmt"
	"os"

	"github.com/embeddedgo/esptools/espimg/internal/chip"
	"github.com/embeddedgo/esptools/espimg/internal/config"
	"github.com/embeddedgo/esptools/espimg/internal/firmware"
	"github.com/embeddedgo/esptools/espimg/internal/imgfmt"
	"github.com/embeddedgo/esptools/espimg/internal/logger"
	"github.com/urfave/cli/v3"
)

type configKey struct{}

// WithConfig returns a copy of ctx carrying cfg.
func WithConfig(ctx context.Context, cfg config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// ConfigFrom returns the configuration stored in ctx or config.Default.
func ConfigFrom(ctx context.Context) config.Config {
	if cfg, ok := ctx.Value(configKey{}).(config.Config); ok {
		return cfg
	}
	return config.Default()
}

// ImageFlags returns the flags used by the commands that build an image.
func ImageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "chip",
			Aliases: []string{"c"},
			Usage:   "target chip (see the chips command)",
		},
		&cli.StringFlag{
			Name:    "bootloader",
			Aliases: []string{"b"},
			Usage:   "MCUboot bootloader `BIN` to use instead of the default one",
		},
	}
}

// ImageSource describes where the image parts come from.
type ImageSource struct {
	App        string // ELF, Intel HEX or BIN1:ADDR1[,BIN2:ADDR2[,...]]
	Chip       string // empty means the configured chip
	Bootloader string // empty means the configured or default bootloader
}

// SourceFromFlags fills ImageSource using the flags defined by ImageFlags.
func SourceFromFlags(cmd *cli.Command, app string) ImageSource {
	return ImageSource{
		App:        app,
		Chip:       cmd.String("chip"),
		Bootloader: cmd.String("bootloader"),
	}
}

// LoadImage reads the application and the bootloader and builds the MCUboot
// flash image.
func LoadImage(ctx context.Context, src ImageSource) (*imgfmt.Esp32McuBootFormat, error) {
	cfg := ConfigFrom(ctx)
	log := logger.FromContext(ctx)

	name := src.Chip
	if name == "" {
		name = cfg.Chip
	}
	params, err := chip.Lookup(name)
	if err != nil {
		return nil, err
	}
	params, err = chip.LoadDefaultMCUboot(cfg.BootloaderDir, params)
	if err != nil {
		return nil, fmt.Errorf("default bootloader: %w", err)
	}
	blPath := src.Bootloader
	if blPath == "" {
		blPath = cfg.Bootloader(params.Name)
	}
	var bootloader []byte
	if blPath != "" {
		if bootloader, err = os.ReadFile(blPath); err != nil {
			return nil, fmt.Errorf("bootloader: %w", err)
		}
	}
	sections, err := firmware.Read(src.App, log)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", src.App, err)
	}
	log.Debug(
		"application loaded",
		"file", src.App, "sections", len(sections), "size", sections.Size(),
	)
	return imgfmt.NewEsp32McuBootFormat(sections, params, bootloader)
}
