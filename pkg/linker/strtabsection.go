package linker

import "debug/elf"

// StrtabSection is .strtab, the string table for the (non-dynamic)
// output symbol table mold calls .symtab. It interns exactly like
// DynstrSection; kept as a separate type because .strtab and .dynstr
// have different section flags (not SHF_ALLOC) and serve a different
// symbol table.
type StrtabSection struct {
	Chunk
	buf     []byte
	offsets map[string]uint32
}

func NewStrtabSection() *StrtabSection {
	s := &StrtabSection{Chunk: NewChunk(), offsets: make(map[string]uint32)}
	s.Name = ".strtab"
	s.Shdr.Type = uint32(elf.SHT_STRTAB)
	s.Shdr.AddrAlign = 1
	s.buf = []byte{0}
	return s
}

func (s *StrtabSection) Add(name string) uint32 {
	if name == "" {
		return 0
	}
	if off, ok := s.offsets[name]; ok {
		return off
	}
	off := uint32(len(s.buf))
	s.offsets[name] = off
	s.buf = append(s.buf, []byte(name)...)
	s.buf = append(s.buf, 0)
	return off
}

func (s *StrtabSection) UpdateShdr(ctx *Context) {
	s.Shdr.Size = uint64(len(s.buf))
}

func (s *StrtabSection) CopyBuf(ctx *Context) {
	copy(ctx.Buf[s.Shdr.Offset:], s.buf)
}
