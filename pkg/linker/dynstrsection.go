package linker

import "debug/elf"

// DynstrSection is .dynstr, the string table backing .dynsym,
// .gnu.version_d/_r names and DT_SONAME/DT_NEEDED entries. Strings are
// interned so a name requested twice (once for a dynsym entry, once
// for a DT_NEEDED) reuses the same offset, the same pattern
// MergedSection uses to intern section-fragment content.
type DynstrSection struct {
	Chunk
	buf     []byte
	offsets map[string]uint32
}

func NewDynstrSection() *DynstrSection {
	d := &DynstrSection{Chunk: NewChunk(), offsets: make(map[string]uint32)}
	d.Name = ".dynstr"
	d.Shdr.Type = uint32(elf.SHT_STRTAB)
	d.Shdr.Flags = uint64(elf.SHF_ALLOC)
	d.Shdr.AddrAlign = 1
	d.buf = []byte{0}
	return d
}

// Add interns s, returning its offset into the eventual .dynstr bytes.
func (d *DynstrSection) Add(s string) uint32 {
	if s == "" {
		return 0
	}
	if off, ok := d.offsets[s]; ok {
		return off
	}
	off := uint32(len(d.buf))
	d.offsets[s] = off
	d.buf = append(d.buf, []byte(s)...)
	d.buf = append(d.buf, 0)
	return off
}

func (d *DynstrSection) UpdateShdr(ctx *Context) {
	d.Shdr.Size = uint64(len(d.buf))
}

func (d *DynstrSection) CopyBuf(ctx *Context) {
	copy(ctx.Buf[d.Shdr.Offset:], d.buf)
}
