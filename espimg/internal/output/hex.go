// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package output

import (
	"io"
	"iter"

	"github.com/embeddedgo/esptools/espimg/internal/segment"
	"github.com/marcinbor85/gohex"
)

// WriteHex writes the segments to w in the Intel HEX format.
func WriteHex(w io.Writer, segs iter.Seq[segment.RomSegment]) error {
	mem := gohex.NewMemory()
	for _, s := range sorted(segs) {
		if err := mem.AddBinary(s.Addr, s.Data); err != nil {
			return err
		}
	}
	return mem.DumpIntelHex(w, 16)
}
