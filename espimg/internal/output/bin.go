// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package output

import (
	"errors"
	"io"
	"iter"

	"github.com/embeddedgo/esptools/espimg/internal/segment"
)

// Flatten writes the segments to w according to their addresses (before
// writting the segments are sorted by address). The gaps between segments
// are filled using the pad byte.
func Flatten(w io.Writer, segs iter.Seq[segment.RomSegment], pad byte) (n int, err error) {
	ss := sorted(segs)
	if len(ss) == 0 {
		return
	}
	pa := uint64(ss[0].Addr)
	n, err = w.Write(ss[0].Data)
	if err != nil {
		return
	}
	pa += uint64(n)
	var padCache []byte
	for _, s := range ss[1:] {
		if uint64(s.Addr) < pa {
			err = errors.New("flatten: overlaping segments")
			return
		}
		m := int(uint64(s.Addr) - pa)
		if m != 0 {
			m, err = w.Write(PadBytes(&padCache, m, pad))
			n += m
			if err != nil {
				return
			}
			pa += uint64(m)
		}
		m, err = w.Write(s.Data)
		n += m
		if err != nil {
			return
		}
		pa += uint64(m)
	}
	return
}

// PadBytes returns the slice containing n byte equal b.
func PadBytes(cache *[]byte, n int, b byte) []byte {
	if cache == nil {
		cache = new([]byte)
	}
	if len(*cache) < n || (n > 0 && (*cache)[0] != b) {
		*cache = make([]byte, n)
		for i := range *cache {
			(*cache)[i] = b
		}
	}
	return (*cache)[:n]
}
