// Copyright 2024 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package output

import (
	"encoding/binary"
	"io"
	"iter"

	"github.com/embeddedgo/esptools/espimg/internal/segment"
)

const (
	uf2NotMainFlash         = 0x00000001
	uf2FileContainer        = 0x00001000
	uf2FamilyIDPresent      = 0x00002000
	uf2MD5ChecksumPresent   = 0x00004000
	uf2ExtensionTagsPresent = 0x00008000
)

const uf2PayloadSize = 256

type uf2block struct {
	Magic0 uint32
	Magic1 uint32
	Flags  uint32
	Addr   uint32
	Len    uint32
	Seq    uint32
	Total  uint32
	Family uint32
	Data   [uf2PayloadSize]byte
	_      [476 - uf2PayloadSize]byte
	Magic2 uint32
}

type uf2Writer struct {
	w io.Writer
	b uf2block
}

func newUF2Writer(w io.Writer, flags, family uint32, total int) *uf2Writer {
	u := new(uf2Writer)
	u.w = w
	u.b.Magic0 = 0x0a324655
	u.b.Magic1 = 0x9e5d5157
	u.b.Flags = flags
	u.b.Total = uint32(total)
	u.b.Family = family
	u.b.Magic2 = 0x0ab16f30
	return u
}

// Seek flushes the current block and moves the writer to addr.
func (u *uf2Writer) Seek(addr uint32) error {
	if err := u.Flush(); err != nil {
		return err
	}
	u.b.Addr = addr
	return nil
}

func (u *uf2Writer) Write(p []byte) (n int, err error) {
	b := &u.b
	for len(p) != 0 {
		m := copy(b.Data[b.Len:], p)
		n += m
		p = p[m:]
		b.Len += uint32(m)
		if b.Len == uf2PayloadSize {
			err = binary.Write(u.w, binary.LittleEndian, b)
			if err != nil {
				return
			}
			b.Addr += b.Len
			b.Seq++
			b.Len = 0
		}
	}
	return
}

func (u *uf2Writer) Flush() (err error) {
	b := &u.b
	if b.Len == 0 {
		return
	}
	clear(b.Data[b.Len:])
	b.Len = uf2PayloadSize
	err = binary.Write(u.w, binary.LittleEndian, b)
	b.Addr += b.Len
	b.Seq++
	b.Len = 0
	return
}

func uf2Blocks(n int) int {
	return (n + uf2PayloadSize - 1) / uf2PayloadSize
}

// WriteUF2 writes the segments to w as UF2 blocks tagged with the family ID.
// Every segment starts in a new block.
func WriteUF2(w io.Writer, segs iter.Seq[segment.RomSegment], family uint32) error {
	ss := sorted(segs)
	total := 0
	for _, s := range ss {
		total += uf2Blocks(len(s.Data))
	}
	u := newUF2Writer(w, uf2FamilyIDPresent, family, total)
	for _, s := range ss {
		if err := u.Seek(s.Addr); err != nil {
			return err
		}
		if _, err := u.Write(s.Data); err != nil {
			return err
		}
	}
	return u.Flush()
}
