package linker

import "debug/elf"

// PltGotSection is .plt.got: a PLT stub for a function symbol that also
// has a GOT slot and does not need a canonical address (a PIC/PIE link,
// or any reference that is not the one canonical definition an
// executable exports). Because the GOT slot already gets a dynamic
// relocation, the stub itself just loads through the GOT rather than
// going through the lazy-binding path .plt uses. A symbol that does
// need a canonical address always goes to .plt instead, even when it
// also has a GOT slot.
type PltGotSection struct {
	Chunk
	Syms []*Symbol
}

func NewPltGotSection() *PltGotSection {
	p := &PltGotSection{Chunk: NewChunk()}
	p.Name = ".plt.got"
	p.Shdr.Type = uint32(elf.SHT_PROGBITS)
	p.Shdr.Flags = uint64(elf.SHF_ALLOC | elf.SHF_EXECINSTR)
	p.Shdr.AddrAlign = 16
	return p
}

func (p *PltGotSection) Add(ctx *Context, sym *Symbol) {
	if !ctx.Arg.Emulation.CanonicalPltOK() {
		return
	}
	if sym.GetPltGotIdx(ctx) != -1 {
		return
	}
	sym.SetPltGotIdx(ctx, int32(len(p.Syms)))
	p.Syms = append(p.Syms, sym)
}

func (p *PltGotSection) UpdateShdr(ctx *Context) {
	p.Shdr.Size = uint64(ctx.Arg.Emulation.PltEntrySize()) * uint64(len(p.Syms))
}

func (p *PltGotSection) CopyBuf(ctx *Context) {
	buf := ctx.Buf[p.Shdr.Offset : p.Shdr.Offset+p.Shdr.Size]
	for i := range buf {
		buf[i] = 0
	}
}
