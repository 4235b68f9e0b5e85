// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package segment provides the addressed byte regions used to build flash
// images.
package segment

import (
	"errors"
	"fmt"
)

var ErrOverlap = errors.New("segment: overlapping or descending segments")

// CodeSegment is a contiguous region of program data placed at addr.
// The zero value is an empty segment that takes the address of the first
// segment appended to it.
type CodeSegment struct {
	addr uint64
	data []byte
}

// New returns a segment at addr. The data is not copied.
func New(addr uint64, data []byte) CodeSegment {
	return CodeSegment{addr, data}
}

func (s *CodeSegment) Addr() uint64 { return s.addr }
func (s *CodeSegment) Data() []byte { return s.data }
func (s *CodeSegment) Len() int     { return len(s.data) }

// End returns the address of the first byte after the segment.
func (s *CodeSegment) End() uint64 { return s.addr + uint64(len(s.data)) }

// Append appends o to s. The gap between the end of s and the start of o is
// filled with zeros. Segments must be appended in ascending address order.
func (s *CodeSegment) Append(o CodeSegment) error {
	if s.data == nil {
		s.addr = o.addr
		s.data = append(make([]byte, 0, len(o.data)), o.data...)
		return nil
	}
	end := s.End()
	if o.addr < end {
		return fmt.Errorf(
			"%w: %#x..%#x starts before %#x", ErrOverlap, o.addr, o.End(), end,
		)
	}
	if gap := o.addr - end; gap != 0 {
		s.data = append(s.data, make([]byte, gap)...)
	}
	s.data = append(s.data, o.data...)
	return nil
}

// PadAlign extends the segment data with zeros so its length is a multiple
// of align.
func (s *CodeSegment) PadAlign(align int) {
	if align <= 1 {
		return
	}
	if n := (align - len(s.data)%align) % align; n != 0 {
		s.data = append(s.data, make([]byte, n)...)
	}
}

// RomSegment is a payload to be written to the flash at Addr.
type RomSegment struct {
	Addr uint32
	Data []byte
}

// Borrow returns a RomSegment that shares the payload of s.
func (s RomSegment) Borrow() RomSegment {
	return RomSegment{s.Addr, s.Data}
}

func (s RomSegment) String() string {
	return fmt.Sprintf("%#x: %d bytes", s.Addr, len(s.Data))
}
