// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package imgfmt

import (
	"bytes"
	"fmt"
	"iter"
	"slices"

	"github.com/embeddedgo/esptools/espimg/internal/chip"
	"github.com/embeddedgo/esptools/espimg/internal/firmware"
	"github.com/embeddedgo/esptools/espimg/internal/segment"
)

const (
	mcubootAlign       = 4
	mcubootMagicOffset = 32
)

// mcubootMagic starts the Espressif load header that follows the 32 byte
// MCUboot image header (0xace637d3 little-endian).
var mcubootMagic = []byte{0xd3, 0x37, 0xe6, 0xac}

// Esp32McuBootFormat is the image format for the ESP32 family chips booted
// by MCUboot. It consists of the bootloader and a single application
// segment that already contains the MCUboot image header.
type Esp32McuBootFormat struct {
	params     chip.Esp32Params
	bootloader []byte
	app        segment.RomSegment
}

// NewEsp32McuBootFormat validates the bootloader and the application and
// merges the application segments into one flash region. If bootloader is
// nil params.DefaultMCUboot is used.
func NewEsp32McuBootFormat(img firmware.Image, params chip.Esp32Params, bootloader []byte) (f *Esp32McuBootFormat, err error) {
	defer wrapErr("mcuboot", &err)
	if bootloader == nil {
		if params.DefaultMCUboot == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingDefaultBootloader, params.Name)
		}
		bootloader = params.DefaultMCUboot
	}
	if _, err := ParseEspCommonHeader(bootloader); err != nil {
		return nil, err
	}
	limit := uint64(params.AppSize)
	if limit == 0 {
		limit = 1 << 32
	}
	app, err := mergeSegments(img.SegmentsWithLoadAddresses(), limit)
	if err != nil {
		return nil, err
	}
	if err := checkMcuBootBinary(&app); err != nil {
		return nil, err
	}
	f = &Esp32McuBootFormat{
		params:     params,
		bootloader: slices.Clone(bootloader),
		app:        segment.RomSegment{Addr: params.AppAddr, Data: app.Data()},
	}
	return f, nil
}

// mergeSegments concatenates segs in the order they are yielded and pads the
// result to mcubootAlign. Every segment must end at or below limit.
func mergeSegments(segs iter.Seq[segment.CodeSegment], limit uint64) (segment.CodeSegment, error) {
	var acc segment.CodeSegment
	for s := range segs {
		if s.Addr() > limit || uint64(s.Len()) > limit-s.Addr() {
			return acc, fmt.Errorf(
				"%w: segment %#x+%#x exceeds the %#x byte application slot",
				ErrInvalidMcuBootBinary, s.Addr(), s.Len(), limit,
			)
		}
		if err := acc.Append(s); err != nil {
			return acc, fmt.Errorf("%w: %w", ErrInvalidMcuBootBinary, err)
		}
	}
	acc.PadAlign(mcubootAlign)
	return acc, nil
}

func checkMcuBootBinary(app *segment.CodeSegment) error {
	if app.Addr() != 0 {
		return fmt.Errorf(
			"%w: image starts at %#x instead of 0", ErrInvalidMcuBootBinary, app.Addr(),
		)
	}
	data := app.Data()
	end := mcubootMagicOffset + len(mcubootMagic)
	if len(data) < end {
		return fmt.Errorf(
			"%w: %w", ErrInvalidMcuBootBinary,
			&MagicError{mcubootMagicOffset, mcubootMagic, nil},
		)
	}
	if got := data[mcubootMagicOffset:end]; !bytes.Equal(got, mcubootMagic) {
		return fmt.Errorf(
			"%w: %w", ErrInvalidMcuBootBinary,
			&MagicError{mcubootMagicOffset, mcubootMagic, got},
		)
	}
	return nil
}

func (f *Esp32McuBootFormat) Params() chip.Esp32Params {
	return f.params
}

// Bootloader returns the bootloader segment.
func (f *Esp32McuBootFormat) Bootloader() segment.RomSegment {
	return segment.RomSegment{Addr: f.params.BootAddr, Data: f.bootloader}
}

// App returns the application segment.
func (f *Esp32McuBootFormat) App() segment.RomSegment {
	return f.app.Borrow()
}

func (f *Esp32McuBootFormat) FlashSegments() iter.Seq[segment.RomSegment] {
	return func(yield func(segment.RomSegment) bool) {
		if !yield(f.Bootloader()) {
			return
		}
		yield(f.App())
	}
}

func (f *Esp32McuBootFormat) OTASegments() iter.Seq[segment.RomSegment] {
	return func(yield func(segment.RomSegment) bool) {
		yield(f.App())
	}
}
