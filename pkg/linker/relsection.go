package linker

import "debug/elf"

// DynRel is one dynamic relocation record ScanRels decided is needed:
// a GOT/COPYREL/IRELATIVE fixup the dynamic linker (or, for
// R_*_RELATIVE, the loader applying the load bias) must perform at
// load time. Emitting the actual relocation record bytes is the
// writer's job; this pipeline only decides how many there are, which
// is what sizes .rela.dyn/.rela.plt and therefore the whole layout
// downstream of them.
type DynRel struct {
	Offset uint64
	Type   uint32
	Sym    *Symbol
	Addend int64
}

// RelDynSection is .rela.dyn: every non-PLT dynamic relocation
// (GLOB_DAT, COPY, TPOFF, DTPMOD/DTPOFF, IRELATIVE, RELATIVE).
type RelDynSection struct {
	Chunk
	Rels []DynRel
}

func NewRelDynSection() *RelDynSection {
	r := &RelDynSection{Chunk: NewChunk()}
	r.Name = ".rela.dyn"
	r.Shdr.Type = uint32(elf.SHT_RELA)
	r.Shdr.Flags = uint64(elf.SHF_ALLOC)
	r.Shdr.AddrAlign = 8
	r.Shdr.EntSize = 24
	return r
}

func (r *RelDynSection) Add(rel DynRel) {
	r.Rels = append(r.Rels, rel)
}

func (r *RelDynSection) UpdateShdr(ctx *Context) {
	r.Shdr.Size = uint64(len(r.Rels)) * r.Shdr.EntSize
	r.Shdr.Link = uint32(ctx.Dynsym.Shndx)
}

func (r *RelDynSection) CopyBuf(ctx *Context) {
	buf := ctx.Buf[r.Shdr.Offset:]
	for i, rel := range r.Rels {
		off := i * 24
		putU64(buf[off:], rel.Offset)
		symIdx := uint64(0)
		if rel.Sym != nil {
			symIdx = uint64(rel.Sym.GetDynsymIdx(ctx))
		}
		putU64(buf[off+8:], symIdx<<32|uint64(rel.Type))
		putU64(buf[off+16:], uint64(rel.Addend))
	}
}

// RelPltSection is .rela.plt: one JUMP_SLOT relocation per PLT entry,
// in the same order as PltSection.Syms so the dynamic linker's lazy
// resolver can index both tables identically.
type RelPltSection struct {
	Chunk
}

func NewRelPltSection() *RelPltSection {
	r := &RelPltSection{Chunk: NewChunk()}
	r.Name = ".rela.plt"
	r.Shdr.Type = uint32(elf.SHT_RELA)
	r.Shdr.Flags = uint64(elf.SHF_ALLOC)
	r.Shdr.AddrAlign = 8
	r.Shdr.EntSize = 24
	return r
}

func (r *RelPltSection) UpdateShdr(ctx *Context) {
	r.Shdr.Size = uint64(len(ctx.Plt.Syms)) * r.Shdr.EntSize
	r.Shdr.Link = uint32(ctx.Dynsym.Shndx)
	r.Shdr.Info = uint32(ctx.GotPlt.Shndx)
}

func (r *RelPltSection) CopyBuf(ctx *Context) {
	buf := ctx.Buf[r.Shdr.Offset:]
	for i, sym := range ctx.Plt.Syms {
		off := i * 24
		gotPltOffset := uint64(gotPltReservedSlots+i) * 8
		putU64(buf[off:], ctx.GotPlt.Shdr.Addr+gotPltOffset)
		putU64(buf[off+8:], uint64(sym.GetDynsymIdx(ctx))<<32|uint64(jumpSlotRelType(ctx)))
		putU64(buf[off+16:], 0)
	}
}

func jumpSlotRelType(ctx *Context) uint32 {
	switch ctx.Arg.Emulation.Name() {
	case "x86_64":
		return uint32(elf.R_X86_64_JMP_SLOT)
	case "arm64":
		return uint32(elf.R_AARCH64_JUMP_SLOT)
	}
	return 0
}
