package linker

import "debug/elf"

// ShstrtabSection is .shstrtab, the section-header-table's own name
// strings. Every live chunk's name is interned here exactly once, by
// main right after section indices are assigned, before the final
// UpdateShdr pass runs for this chunk.
type ShstrtabSection struct {
	Chunk
	buf     []byte
	offsets map[string]uint32
}

func NewShstrtabSection() *ShstrtabSection {
	s := &ShstrtabSection{Chunk: NewChunk(), offsets: make(map[string]uint32)}
	s.Name = ".shstrtab"
	s.Shdr.Type = uint32(elf.SHT_STRTAB)
	s.Shdr.AddrAlign = 1
	s.buf = []byte{0}
	return s
}

func (s *ShstrtabSection) Add(name string) uint32 {
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

func (s *ShstrtabSection) UpdateShdr(ctx *Context) {
	s.Shdr.Size = uint64(len(s.buf))
}

func (s *ShstrtabSection) CopyBuf(ctx *Context) {
	copy(ctx.Buf[s.Shdr.Offset:], s.buf)
}
