// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package info

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/embeddedgo/esptools/espimg/internal/imgfmt"
	"github.com/embeddedgo/esptools/espimg/internal/segment"
	"github.com/embeddedgo/esptools/espimg/internal/util"
	"github.com/urfave/cli/v3"
)

const Descr = "print the flash and OTA segments of the image"

func Command() *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     Descr,
		ArgsUsage: "[APP]",
		Flags:     util.ImageFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() > 1 {
				return errors.New("too many arguments")
			}
			app, _ := util.InOutFiles(cmd.Args().First(), ".elf", "-", "")
			img, err := util.LoadImage(ctx, util.SourceFromFlags(cmd, app))
			if err != nil {
				return err
			}
			return Print(cmd.Root().Writer, img)
		},
	}
}

// Print writes a human readable description of img to w.
func Print(w io.Writer, img imgfmt.ImageFormat) error {
	p := img.Params()
	fmt.Fprintf(w, "Chip: %s (ID %d)\n", p.Name, p.ChipID)
	if err := printSegments(w, "Flash", img.FlashSegments()); err != nil {
		return err
	}
	return printSegments(w, "OTA", img.OTASegments())
}

func printSegments(w io.Writer, title string, segs iter.Seq[segment.RomSegment]) error {
	if _, err := fmt.Fprintf(w, "%s segments:\n", title); err != nil {
		return err
	}
	i := 0
	for s := range segs {
		_, err := fmt.Fprintf(
			w, "%3d: Addr: 0x%08x End: 0x%08x Size: %d\n",
			i, s.Addr, s.Addr+uint32(len(s.Data)), len(s.Data),
		)
		if err != nil {
			return err
		}
		i++
	}
	return nil
}
