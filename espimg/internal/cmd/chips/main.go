// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chips

import (
	"context"
	"fmt"
	"io"

	"github.com/embeddedgo/esptools/espimg/internal/chip"
	"github.com/urfave/cli/v3"
)

const Descr = "list the supported chips and their flash layout"

func Command() *cli.Command {
	return &cli.Command{
		Name:  "chips",
		Usage: Descr,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return List(cmd.Root().Writer)
		},
	}
}

func List(w io.Writer) error {
	fmt.Fprintf(w, "%-8s  %-9s  %-9s  %-9s\n", "CHIP", "BOOT", "APP", "APP SIZE")
	for _, name := range chip.Names() {
		p, err := chip.Lookup(name)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(
			w, "%-8s  %#-9x  %#-9x  %#-9x\n",
			p.Name, p.BootAddr, p.AppAddr, p.AppSize,
		)
		if err != nil {
			return err
		}
	}
	return nil
}
