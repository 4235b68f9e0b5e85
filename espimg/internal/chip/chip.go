// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package chip describes the flash layout of the supported ESP32 family
// microcontrollers.
package chip

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Esp32Params describes where the MCUboot bootloader and the application are
// placed in the flash of a given chip.
type Esp32Params struct {
	Name          string
	ChipID        uint16 // chip ID stored in the extended image header
	BootAddr      uint32 // flash address of the 2nd stage bootloader
	PartitionAddr uint32
	AppAddr       uint32 // flash address of the primary application slot
	AppSize       uint32
	UF2Family     uint32

	// DefaultMCUboot is used when no bootloader is provided by the user.
	// It may be nil.
	DefaultMCUboot []byte
}

var params = map[string]Esp32Params{
	"esp32": {
		Name: "esp32", ChipID: 0,
		BootAddr: 0x1000, PartitionAddr: 0x8000,
		AppAddr: 0x10000, AppSize: 0x3f0000,
		UF2Family: 0x1c5f21b0,
	},
	"esp32s2": {
		Name: "esp32s2", ChipID: 2,
		BootAddr: 0x1000, PartitionAddr: 0x8000,
		AppAddr: 0x10000, AppSize: 0x100000,
		UF2Family: 0xbfdd4eee,
	},
	"esp32c3": {
		Name: "esp32c3", ChipID: 5,
		BootAddr: 0x0, PartitionAddr: 0x8000,
		AppAddr: 0x10000, AppSize: 0x3f0000,
		UF2Family: 0xd42ba06c,
	},
	"esp32s3": {
		Name: "esp32s3", ChipID: 9,
		BootAddr: 0x0, PartitionAddr: 0x8000,
		AppAddr: 0x10000, AppSize: 0x100000,
		UF2Family: 0xc47e5767,
	},
	"esp32c2": {
		Name: "esp32c2", ChipID: 12,
		BootAddr: 0x0, PartitionAddr: 0x8000,
		AppAddr: 0x10000, AppSize: 0x1f0000,
		UF2Family: 0x2b88d29c,
	},
	"esp32c6": {
		Name: "esp32c6", ChipID: 13,
		BootAddr: 0x0, PartitionAddr: 0x8000,
		AppAddr: 0x10000, AppSize: 0x3f0000,
		UF2Family: 0x540ddf62,
	},
	"esp32h2": {
		Name: "esp32h2", ChipID: 16,
		BootAddr: 0x0, PartitionAddr: 0x8000,
		AppAddr: 0x10000, AppSize: 0x3f0000,
		UF2Family: 0x332726f6,
	},
}

// Lookup returns the parameters of the named chip. The name is case
// insensitive and may contain dashes (esp32-c3).
func Lookup(name string) (Esp32Params, error) {
	key := strings.ReplaceAll(strings.ToLower(name), "-", "")
	p, ok := params[key]
	if !ok {
		return Esp32Params{}, fmt.Errorf("unknown chip: %s", name)
	}
	return p, nil
}

// Names returns the sorted list of the known chips.
func Names() []string {
	return slices.Sorted(maps.Keys(params))
}

// WithDefaultMCUboot returns a copy of p that uses b as the default
// bootloader.
func (p Esp32Params) WithDefaultMCUboot(b []byte) Esp32Params {
	p.DefaultMCUboot = b
	return p
}

// DefaultMCUbootName returns the file name of the default bootloader image
// of the chip in the bootloader directory.
func (p Esp32Params) DefaultMCUbootName() string {
	return "mcuboot-" + p.Name + ".bin"
}

// LoadDefaultMCUboot reads the default bootloader for p from dir. A missing
// file isn't an error: p is returned unchanged.
func LoadDefaultMCUboot(dir string, p Esp32Params) (Esp32Params, error) {
	if dir == "" {
		return p, nil
	}
	b, err := os.ReadFile(filepath.Join(dir, p.DefaultMCUbootName()))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return p, nil
		}
		return p, err
	}
	return p.WithDefaultMCUboot(b), nil
}
