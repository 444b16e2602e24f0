package linker

import "debug/elf"

// InterpSection is .interp: the dynamic linker path string embedded
// in a dynamically linked executable's PT_INTERP segment.
type InterpSection struct {
	Chunk
	Path string
}

func NewInterpSection(path string) *InterpSection {
	i := &InterpSection{Chunk: NewChunk(), Path: path}
	i.Name = ".interp"
	i.Shdr.Type = uint32(elf.SHT_PROGBITS)
	i.Shdr.Flags = uint64(elf.SHF_ALLOC)
	i.Shdr.AddrAlign = 1
	return i
}

func (i *InterpSection) UpdateShdr(ctx *Context) {
	i.Shdr.Size = uint64(len(i.Path)) + 1
}

func (i *InterpSection) CopyBuf(ctx *Context) {
	writeString(ctx.Buf[i.Shdr.Offset:], i.Path)
}
