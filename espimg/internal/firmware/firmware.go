// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package firmware reads application programs from ELF, Intel HEX and raw
// binary files.
package firmware

import (
	"cmp"
	"debug/elf"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/embeddedgo/esptools/espimg/internal/logger"
	"github.com/embeddedgo/esptools/espimg/internal/segment"
	"github.com/marcinbor85/gohex"
)

// NoLoadAddr is the Paddr of a section that has no place in the flash.
const NoLoadAddr = ^uint64(0)

// Image is an application program as seen by the image builders.
type Image interface {
	// SegmentsWithLoadAddresses yields the segments that have a load
	// address in ascending address order.
	SegmentsWithLoadAddresses() iter.Seq[segment.CodeSegment]
}

type Section struct {
	Name   string
	Vaddr  uint64 // address in the memory during execution
	Paddr  uint64 // phisical location of the section in the Flash/ROM
	Offset uint64 // offset in the source file to the beggining of the section data
	Data   []byte // section data
}

// Sections implements Image.
type Sections []*Section

func (ss Sections) SegmentsWithLoadAddresses() iter.Seq[segment.CodeSegment] {
	return func(yield func(segment.CodeSegment) bool) {
		for _, s := range ss {
			if s.Paddr == NoLoadAddr {
				continue
			}
			if !yield(segment.New(s.Paddr, s.Data)) {
				return
			}
		}
	}
}

// SortByPaddr sorts sections according to the Paddr field. Sections without
// a load address end up at the end.
func (ss Sections) SortByPaddr() {
	slices.SortStableFunc(ss, func(a, b *Section) int {
		return cmp.Compare(a.Paddr, b.Paddr)
	})
}

// Size returns the sum of the section sizes.
func (ss Sections) Size() (n int) {
	for _, s := range ss {
		n += len(s.Data)
	}
	return
}

// Read reads the application from name. Existing files ending with .hex or
// .ihex are read as Intel HEX, other existing files as ELF. Anything else is
// treated as a BIN1:ADDR1[,BIN2:ADDR2[,...]] description.
func Read(name string, log logger.Logger) (Sections, error) {
	if _, err := os.Stat(name); err != nil {
		if strings.IndexByte(name, ':') > 0 {
			return ReadBins(name)
		}
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".hex", ".ihex":
		return ReadHex(name)
	}
	return ReadELF(name, log)
}

// ReadELF reads the loadable sections of the program and returns them
// sorted by the load address. Sections that aren't covered by any PT_LOAD
// segment get NoLoadAddr.
func ReadELF(name string, log logger.Logger) (Sections, error) {
	r, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	f, err := elf.NewFile(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ss := make(Sections, 0, 16)
	for i, s := range f.Sections {
		if s.Type != elf.SHT_PROGBITS || s.Flags&elf.SHF_ALLOC == 0 {
			if k := i + 1; k < len(f.Sections) && len(ss) != 0 {
				ns := f.Sections[k]
				if ns.Type == elf.SHT_PROGBITS && ns.Flags&elf.SHF_ALLOC != 0 {
					// Log the non-loadable sections between loadable ones.
					log.Warn(
						"readelf: skipping section",
						"name", s.Name, "size", s.Size,
					)
				}
			}
			continue
		}
		data, err := s.Data()
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			continue
		}
		paddr := NoLoadAddr
		for _, p := range f.Progs {
			if p.Type != elf.PT_LOAD {
				continue
			}
			if p.Off <= s.Offset && s.Offset < p.Off+p.Filesz {
				paddr = p.Paddr + s.Offset - p.Off
				break
			}
		}
		ss = append(ss, &Section{s.Name, s.Addr, paddr, s.Offset, data})
	}
	ss.SortByPaddr()
	return ss, nil
}

// ReadHex reads an Intel HEX file. Every contiguous data block becomes
// a section.
func ReadHex(name string) (Sections, error) {
	r, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(r); err != nil {
		return nil, err
	}
	segs := mem.GetDataSegments()
	ss := make(Sections, len(segs))
	for i, s := range segs {
		ss[i] = &Section{
			Vaddr: uint64(s.Address),
			Paddr: uint64(s.Address),
			Data:  s.Data,
		}
	}
	ss.SortByPaddr()
	return ss, nil
}

// ReadBins reads binary files acording to the description and returns them
// as a slice of sections.
func ReadBins(descr string) (Sections, error) {
	bins := strings.Split(descr, ",")
	ss := make(Sections, len(bins))
	for k, ba := range bins {
		i := strings.LastIndexByte(ba, ':')
		if i <= 0 {
			return nil, fmt.Errorf("bad '%s' in the binary list", ba)
		}
		bin, addr := ba[:i], ba[i+1:]
		s := &Section{Name: bin}
		var err error
		s.Paddr, err = strconv.ParseUint(addr, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("bad address in '%s': %s", addr, err)
		}
		s.Vaddr = s.Paddr
		s.Data, err = os.ReadFile(bin)
		if err != nil {
			return nil, err
		}
		ss[k] = s
	}
	ss.SortByPaddr()
	return ss, nil
}
