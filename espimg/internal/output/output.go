// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package output writes flash images in the formats understood by the
// flashing tools.
package output

import (
	"cmp"
	"fmt"
	"io"
	"iter"
	"slices"
	"strings"

	"github.com/embeddedgo/esptools/espimg/internal/imgfmt"
	"github.com/embeddedgo/esptools/espimg/internal/segment"
)

type Format string

const (
	Bin  Format = "bin"  // flat binary, starts at the address of the first segment
	Hex  Format = "hex"  // Intel HEX
	UF2  Format = "uf2"  // USB Flashing Format with the chip family ID
	JSON Format = "json" // manifest describing the segments
)

var formats = []Format{Bin, Hex, UF2, JSON}

// Formats returns the names of the supported formats.
func Formats() []string {
	s := make([]string, len(formats))
	for i, f := range formats {
		s[i] = string(f)
	}
	return s
}

func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(s))
	if !slices.Contains(formats, f) {
		return "", fmt.Errorf("unknown output format: %s", s)
	}
	return f, nil
}

// Ext returns the file name extension used for f.
func (f Format) Ext() string {
	return "." + string(f)
}

type Options struct {
	OTA bool // write the OTA view instead of the full flash one
	Pad byte // used by Bin to fill the gaps between segments
}

// Write writes img to w in the given format.
func Write(w io.Writer, img imgfmt.ImageFormat, format Format, opts Options) error {
	segs := imgfmt.Segments(img, opts.OTA)
	switch format {
	case Bin:
		_, err := Flatten(w, segs, opts.Pad)
		return err
	case Hex:
		return WriteHex(w, segs)
	case UF2:
		return WriteUF2(w, segs, img.Params().UF2Family)
	case JSON:
		return WriteManifest(w, NewManifest(img, opts.OTA))
	}
	return fmt.Errorf("unknown output format: %s", format)
}

// sorted returns the segments sorted by address.
func sorted(segs iter.Seq[segment.RomSegment]) []segment.RomSegment {
	return slices.SortedStableFunc(segs, func(a, b segment.RomSegment) int {
		return cmp.Compare(a.Addr, b.Addr)
	})
}
