package linker

import "debug/elf"

// PltSection is .plt: one stub per imported function symbol that
// needs lazy (or, for AArch64, eager) binding. Actually emitting the
// stub's machine code is the writer's job, architecture-specific code
// generation being out of scope here; this pass only decides which symbols get
// a slot and at what index, which is what RelPlt and the dynamic
// symbol's eventual st_value both key off.
type PltSection struct {
	Chunk
	Syms []*Symbol
}

func NewPltSection() *PltSection {
	p := &PltSection{Chunk: NewChunk()}
	p.Name = ".plt"
	p.Shdr.Type = uint32(elf.SHT_PROGBITS)
	p.Shdr.Flags = uint64(elf.SHF_ALLOC | elf.SHF_EXECINSTR)
	p.Shdr.AddrAlign = 16
	return p
}

func (p *PltSection) Add(ctx *Context, sym *Symbol) {
	if sym.GetPltIdx(ctx) != -1 {
		return
	}
	sym.SetPltIdx(ctx, int32(len(p.Syms)))
	p.Syms = append(p.Syms, sym)
	ctx.GotPlt.Add(sym)
}

func (p *PltSection) UpdateShdr(ctx *Context) {
	if len(p.Syms) == 0 {
		p.Shdr.Size = 0
		return
	}
	entSize := uint64(ctx.Arg.Emulation.PltEntrySize())
	// Entry 0 is the PLT0 stub that jumps into the dynamic linker's
	// resolver; every symbol gets one entry after it.
	p.Shdr.Size = entSize * uint64(len(p.Syms)+1)
}

func (p *PltSection) CopyBuf(ctx *Context) {
	buf := ctx.Buf[p.Shdr.Offset : p.Shdr.Offset+p.Shdr.Size]
	for i := range buf {
		buf[i] = 0
	}
}
