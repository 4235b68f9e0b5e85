// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package imgfmt

import (
	"encoding/binary"
	"fmt"
)

// ESPMagic is the first byte of every ESP32 family boot image.
const ESPMagic = 0xe9

// EspCommonHeaderSize is the size of EspCommonHeader in bytes.
const EspCommonHeaderSize = 8

// EspCommonHeader is the header that starts every ESP32 family boot image.
type EspCommonHeader struct {
	Magic        uint8
	SegmentCount uint8
	FlashMode    uint8
	FlashConfig  uint8 // flash size (high nibble) and frequency (low nibble)
	Entry        uint32
}

// ParseEspCommonHeader decodes the header at the beginning of b. It returns
// ErrInvalidBootloader if b is too short or doesn't start with ESPMagic.
func ParseEspCommonHeader(b []byte) (h EspCommonHeader, err error) {
	if len(b) < EspCommonHeaderSize {
		return h, fmt.Errorf(
			"%w: header needs %d bytes, got %d",
			ErrInvalidBootloader, EspCommonHeaderSize, len(b),
		)
	}
	h = EspCommonHeader{
		Magic:        b[0],
		SegmentCount: b[1],
		FlashMode:    b[2],
		FlashConfig:  b[3],
		Entry:        binary.LittleEndian.Uint32(b[4:8]),
	}
	if h.Magic != ESPMagic {
		return h, fmt.Errorf(
			"%w: %w", ErrInvalidBootloader, &MagicError{0, []byte{ESPMagic}, b[:1]},
		)
	}
	return h, nil
}
