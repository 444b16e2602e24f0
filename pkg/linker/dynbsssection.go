package linker

import "debug/elf"

// DynbssSection backs COPYREL: a defined-in-a-DSO data symbol that an
// executable references directly (not through the GOT) needs a local
// copy in the executable's own .bss-like segment, which the dynamic
// linker populates by copying the DSO's initial bytes at load time
// (R_*_COPY). ctx.Dynbss holds writable copies, ctx.DynbssRelro holds
// ones whose defining DSO places them in a read-only (RELRO-eligible)
// segment, mirroring mold's split between the two.
type DynbssSection struct {
	Chunk
	Syms []*Symbol
}

func NewDynbssSection(relro bool) *DynbssSection {
	d := &DynbssSection{Chunk: NewChunk()}
	if relro {
		d.Name = ".dynbss.rel.ro"
	} else {
		d.Name = ".dynbss"
	}
	d.Shdr.Type = uint32(elf.SHT_NOBITS)
	d.Shdr.Flags = uint64(elf.SHF_ALLOC | elf.SHF_WRITE)
	d.Shdr.AddrAlign = 32
	return d
}

// Add reserves space for sym's copy, sized and aligned to its ELF
// symbol's st_size/natural alignment, and rewrites sym's address to
// point at the new local copy instead of the DSO's definition.
func (d *DynbssSection) Add(ctx *Context, sym *Symbol, size uint64, align uint64) {
	if align == 0 {
		align = 1
	}
	off := alignUp(d.Shdr.Size, align)
	d.Shdr.Size = off + size
	if d.Shdr.AddrAlign < align {
		d.Shdr.AddrAlign = align
	}
	sym.SetOutputSection(d)
	sym.Value = off
	d.Syms = append(d.Syms, sym)
}

func alignUp(v, a uint64) uint64 {
	if a == 0 {
		return v
	}
	return (v + a - 1) &^ (a - 1)
}
