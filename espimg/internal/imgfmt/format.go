// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package imgfmt builds the list of flash regions that make up a bootable
// ESP32 family flash image.
package imgfmt

import (
	"iter"

	"github.com/embeddedgo/esptools/espimg/internal/chip"
	"github.com/embeddedgo/esptools/espimg/internal/segment"
)

// ImageFormat is a complete, validated flash image.
type ImageFormat interface {
	// Params returns the parameters of the target chip.
	Params() chip.Esp32Params

	// FlashSegments yields everything that must be written to an erased
	// flash, in the write order.
	FlashSegments() iter.Seq[segment.RomSegment]

	// OTASegments yields only the regions updated over the air. It never
	// includes the bootloader.
	OTASegments() iter.Seq[segment.RomSegment]
}

// Segments returns f.OTASegments if ota is true, f.FlashSegments otherwise.
func Segments(f ImageFormat, ota bool) iter.Seq[segment.RomSegment] {
	if ota {
		return f.OTASegments()
	}
	return f.FlashSegments()
}
