// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package firmware

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/embeddedgo/esptools/espimg/internal/logger"
	"github.com/embeddedgo/esptools/espimg/internal/segment"
	"github.com/marcinbor85/gohex"
)

type elfSection struct {
	name         string
	vaddr, paddr uint32
	data         []byte
	load         bool // covered by a PT_LOAD program header
}

// writeELF writes a minimal 32-bit little-endian RISC-V executable.
func writeELF(t *testing.T, path string, secs []elfSection) {
	t.Helper()
	const (
		ehsize = 52
		phsize = 32
		shsize = 40
	)
	var nload int
	for _, s := range secs {
		if s.load {
			nload++
		}
	}
	shstr := []byte{0}
	names := make([]uint32, len(secs))
	for i, s := range secs {
		names[i] = uint32(len(shstr))
		shstr = append(append(shstr, s.name...), 0)
	}
	shstrName := uint32(len(shstr))
	shstr = append(append(shstr, ".shstrtab"...), 0)

	off := uint32(ehsize + phsize*nload)
	offs := make([]uint32, len(secs))
	var body []byte
	for i, s := range secs {
		offs[i] = off + uint32(len(body))
		body = append(body, s.data...)
	}
	shstrOff := off + uint32(len(body))
	shoff := (shstrOff + uint32(len(shstr)) + 3) &^ 3

	var buf bytes.Buffer
	hdr := elf.Header32{
		Type:      uint16(elf.ET_EXEC),
		Machine:   uint16(elf.EM_RISCV),
		Version:   uint32(elf.EV_CURRENT),
		Phoff:     ehsize,
		Shoff:     shoff,
		Ehsize:    ehsize,
		Phentsize: phsize,
		Phnum:     uint16(nload),
		Shentsize: shsize,
		Shnum:     uint16(len(secs) + 2),
		Shstrndx:  uint16(len(secs) + 1),
	}
	copy(hdr.Ident[:], elf.ELFMAG)
	hdr.Ident[elf.EI_CLASS] = byte(elf.ELFCLASS32)
	hdr.Ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	hdr.Ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)
	binary.Write(&buf, binary.LittleEndian, &hdr)
	for i, s := range secs {
		if !s.load {
			continue
		}
		binary.Write(&buf, binary.LittleEndian, &elf.Prog32{
			Type:   uint32(elf.PT_LOAD),
			Off:    offs[i],
			Vaddr:  s.vaddr,
			Paddr:  s.paddr,
			Filesz: uint32(len(s.data)),
			Memsz:  uint32(len(s.data)),
			Flags:  uint32(elf.PF_R | elf.PF_X),
			Align:  4,
		})
	}
	buf.Write(body)
	buf.Write(shstr)
	for uint32(buf.Len()) < shoff {
		buf.WriteByte(0)
	}
	binary.Write(&buf, binary.LittleEndian, &elf.Section32{})
	for i, s := range secs {
		binary.Write(&buf, binary.LittleEndian, &elf.Section32{
			Name:      names[i],
			Type:      uint32(elf.SHT_PROGBITS),
			Flags:     uint32(elf.SHF_ALLOC | elf.SHF_EXECINSTR),
			Addr:      s.vaddr,
			Off:       offs[i],
			Size:      uint32(len(s.data)),
			Addralign: 4,
		})
	}
	binary.Write(&buf, binary.LittleEndian, &elf.Section32{
		Name:      shstrName,
		Type:      uint32(elf.SHT_STRTAB),
		Off:       shstrOff,
		Size:      uint32(len(shstr)),
		Addralign: 1,
	})
	if err := os.WriteFile(path, buf.Bytes(), 0o666); err != nil {
		t.Fatal(err)
	}
}

func collect(img Image) []segment.CodeSegment {
	return slices.Collect(img.SegmentsWithLoadAddresses())
}

func TestReadELF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.elf")
	writeELF(t, path, []elfSection{
		{".rodata", 0x3c000020, 0x20, []byte{5, 6, 7, 8}, true},
		{".header", 0x42000000, 0x0, []byte{1, 2, 3, 4}, true},
		{".noload", 0x40800000, 0, []byte{9, 9}, false},
	})
	ss, err := ReadELF(path, logger.Discard())
	if err != nil {
		t.Fatalf("ReadELF() error: %v", err)
	}
	if len(ss) != 3 {
		t.Fatalf("got %d sections, want 3", len(ss))
	}
	if ss[0].Name != ".header" || ss[1].Name != ".rodata" {
		t.Errorf("sections not sorted by load address: %s, %s", ss[0].Name, ss[1].Name)
	}
	if ss[2].Paddr != NoLoadAddr {
		t.Errorf("section outside PT_LOAD got Paddr %#x", ss[2].Paddr)
	}
	segs := collect(ss)
	if len(segs) != 2 {
		t.Fatalf("got %d segments with load addresses, want 2", len(segs))
	}
	if segs[0].Addr() != 0 || segs[1].Addr() != 0x20 {
		t.Errorf("segment addresses %#x, %#x", segs[0].Addr(), segs[1].Addr())
	}
	if !bytes.Equal(segs[1].Data(), []byte{5, 6, 7, 8}) {
		t.Errorf("segment data %x", segs[1].Data())
	}
}

func TestReadELFNotELF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.elf")
	os.WriteFile(path, []byte("not an elf"), 0o666)
	if _, err := ReadELF(path, logger.Discard()); err == nil {
		t.Fatal("ReadELF() accepted a non-ELF file")
	}
}

func TestReadHex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.hex")
	mem := gohex.NewMemory()
	mem.AddBinary(0x100, []byte{0xaa, 0xbb})
	mem.AddBinary(0x0, []byte{1, 2, 3, 4})
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := mem.DumpIntelHex(f, 16); err != nil {
		t.Fatal(err)
	}
	f.Close()

	ss, err := Read(path, logger.Discard())
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	segs := collect(ss)
	if len(segs) != 2 {
		t.Fatalf("got %d segments, want 2", len(segs))
	}
	if segs[0].Addr() != 0 || !bytes.Equal(segs[0].Data(), []byte{1, 2, 3, 4}) {
		t.Errorf("first segment %#x %x", segs[0].Addr(), segs[0].Data())
	}
	if segs[1].Addr() != 0x100 {
		t.Errorf("second segment at %#x", segs[1].Addr())
	}
}

func TestReadBins(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.bin")
	b := filepath.Join(dir, "b.bin")
	os.WriteFile(a, []byte{1, 2}, 0o666)
	os.WriteFile(b, []byte{3, 4}, 0o666)

	ss, err := Read(b+":0x20,"+a+":0", logger.Discard())
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if len(ss) != 2 || ss[0].Paddr != 0 || ss[1].Paddr != 0x20 {
		t.Fatalf("unexpected sections: %+v %+v", ss[0], ss[1])
	}
	if ss.Size() != 4 {
		t.Errorf("Size() = %d, want 4", ss.Size())
	}

	for _, bad := range []string{a + ":zz", "nocolon", b + ":0," + filepath.Join(dir, "missing") + ":4"} {
		if _, err := ReadBins(bad); err == nil {
			t.Errorf("ReadBins(%q) succeeded", bad)
		}
	}
}

func TestSegmentsWithLoadAddressesStops(t *testing.T) {
	ss := Sections{
		{Paddr: 0, Data: []byte{1}},
		{Paddr: NoLoadAddr, Data: []byte{2}},
		{Paddr: 4, Data: []byte{3}},
	}
	n := 0
	for range ss.SegmentsWithLoadAddresses() {
		n++
		break
	}
	if n != 1 {
		t.Fatalf("iteration did not stop")
	}
	if got := len(collect(ss)); got != 2 {
		t.Fatalf("got %d segments, want 2", got)
	}
}
