package linker

import "debug/elf"

// GotPltSection is .got.plt, the x86 family's PLT-private GOT used as
// the indirection target for each PLT stub's jump. The first three
// slots are reserved for the dynamic linker (link map pointer, resolve
// stub) per the x86-64 psABI; AArch64 has no .got.plt (PltEntry reads
// straight out of .got instead), so this chunk is simply left empty
// for that arch.
type GotPltSection struct {
	Chunk
	Syms []*Symbol
}

const gotPltReservedSlots = 3

func NewGotPltSection() *GotPltSection {
	g := &GotPltSection{Chunk: NewChunk()}
	g.Name = ".got.plt"
	g.Shdr.Type = uint32(elf.SHT_PROGBITS)
	g.Shdr.Flags = uint64(elf.SHF_ALLOC | elf.SHF_WRITE)
	g.Shdr.AddrAlign = 8
	return g
}

func (g *GotPltSection) Add(sym *Symbol) {
	g.Syms = append(g.Syms, sym)
}

func (g *GotPltSection) UpdateShdr(ctx *Context) {
	if ctx.Arg.Emulation.GotSectionForGotPc() != ".got.plt" {
		g.Shdr.Size = 0
		return
	}
	g.Shdr.Size = uint64(gotPltReservedSlots+len(g.Syms)) * 8
}

func (g *GotPltSection) CopyBuf(ctx *Context) {
	if g.Shdr.Size == 0 {
		return
	}
	buf := ctx.Buf[g.Shdr.Offset:]
	for i := range buf[:g.Shdr.Size] {
		buf[i] = 0
	}
	putU64(buf, ctx.Dynamic.Shdr.Addr)
}
