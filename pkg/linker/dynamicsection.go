package linker

import "debug/elf"

// dynamicTag is one DT_* entry this pass knows how to emit. An entry
// whose Val is still 0 at CopyBuf time is filled in by resolve, since
// most tags reference another chunk's address, which isn't known until
// SetOsecOffsets has run.
type dynamicTag struct {
	Tag int64
	Val uint64
}

// DynamicSection is .dynamic, needed only once dynamically linked
// output is supported. Building it is concentrated in one place,
// BuildEntries, rather than scattered across every synthetic chunk.
type DynamicSection struct {
	Chunk
	entries []dynamicTag
}

const (
	dtNeeded     = 1
	dtPltRelSz   = 2
	dtPltGot     = 3
	dtHash       = 4
	dtStrtab     = 5
	dtSymtab     = 6
	dtRela       = 7
	dtRelaSz     = 8
	dtRelaEnt    = 9
	dtStrSz      = 10
	dtSymEnt     = 11
	dtInit       = 12
	dtFini       = 13
	dtSoname     = 14
	dtSymbolic   = 16
	dtRel        = 17
	dtPltRel     = 20
	dtDebug      = 21
	dtTextRel    = 22
	dtJmpRel     = 23
	dtBindNow    = 24
	dtFlags      = 30
	dtRelaCount  = 0x6ffffff9
	dtVerNeed    = 0x6ffffffe
	dtVerNeedNum = 0x6fffffff
	dtVerDef     = 0x6ffffffc
	dtVerDefNum  = 0x6ffffffd
	dtVersym     = 0x6ffffff0
	dtGnuHash    = 0x6ffffef5
	dtFlags1     = 0x6ffffffb
	dtNull       = 0
)

func NewDynamicSection() *DynamicSection {
	d := &DynamicSection{Chunk: NewChunk()}
	d.Name = ".dynamic"
	d.Shdr.Type = uint32(elf.SHT_DYNAMIC)
	d.Shdr.Flags = uint64(elf.SHF_ALLOC | elf.SHF_WRITE)
	d.Shdr.AddrAlign = 8
	d.Shdr.EntSize = 16
	return d
}

// BuildEntries assembles the DT_* list from the rest of the Context's
// synthetic chunks. Called once layout has assigned addresses (it must
// run after SetOsecOffsets, before CopyBuf), since most entries are
// another chunk's address.
func (d *DynamicSection) BuildEntries(ctx *Context, sonames []string) {
	d.entries = nil
	add := func(tag int64, val uint64) {
		d.entries = append(d.entries, dynamicTag{Tag: tag, Val: val})
	}

	for _, s := range sonames {
		add(dtNeeded, uint64(ctx.Dynstr.Add(s)))
	}
	if ctx.Arg.Shared && ctx.Arg.Soname != "" {
		add(dtSoname, uint64(ctx.Dynstr.Add(ctx.Arg.Soname)))
	}

	if ctx.GnuHash != nil && ctx.GnuHash.Shdr.Size > 0 {
		add(dtGnuHash, 0)
	}
	if ctx.Hash != nil && ctx.Hash.Shdr.Size > 0 {
		add(dtHash, 0)
	}

	add(dtStrtab, 0)
	add(dtSymtab, 0)
	add(dtStrSz, 0)
	add(dtSymEnt, ctx.Dynsym.Shdr.EntSize)

	if ctx.RelDyn != nil && ctx.RelDyn.Shdr.Size > 0 {
		add(dtRela, 0)
		add(dtRelaSz, 0)
		add(dtRelaEnt, uint64(ctx.Arg.Emulation.RelaEntrySize()))
		add(dtRelaCount, 0)
	}

	if ctx.RelPlt != nil && ctx.RelPlt.Shdr.Size > 0 {
		add(dtPltGot, 0)
		add(dtPltRelSz, 0)
		add(dtPltRel, 7) // DT_RELA
		add(dtJmpRel, 0)
	}

	if ctx.Arg.Bsymbolic {
		add(dtSymbolic, 0)
	}

	if ctx.Versym != nil && ctx.Versym.Shdr.Size > 0 {
		add(dtVersym, 0)
	}
	if ctx.Verneed != nil && ctx.Verneed.Shdr.Size > 0 {
		add(dtVerNeed, 0)
		add(dtVerNeedNum, uint64(ctx.Verneed.NumVersions()))
	}
	if ctx.Verdef != nil && ctx.Verdef.Shdr.Size > 0 {
		add(dtVerDef, 0)
		add(dtVerDefNum, uint64(ctx.Verdef.NumVersions()))
	}

	add(dtNull, 0)
}

func (d *DynamicSection) UpdateShdr(ctx *Context) {
	d.Shdr.Size = uint64(len(d.entries)) * d.Shdr.EntSize
	d.Shdr.Link = uint32(ctx.Dynstr.Shndx)
}

// resolve fills in the chunk-address-dependent value for tags whose
// Val was left 0 at BuildEntries time by looking the chunk up by
// tag, keeping BuildEntries free of forward references to chunks that
// may not have their final address yet.
func (d *DynamicSection) resolve(ctx *Context, tag int64) uint64 {
	switch tag {
	case dtStrtab:
		return ctx.Dynstr.Shdr.Addr
	case dtSymtab:
		return ctx.Dynsym.Shdr.Addr
	case dtStrSz:
		return ctx.Dynstr.Shdr.Size
	case dtRela:
		return ctx.RelDyn.Shdr.Addr
	case dtRelaSz:
		return ctx.RelDyn.Shdr.Size
	case dtRelaCount:
		return ctx.RelDyn.Shdr.Size / uint64(ctx.Arg.Emulation.RelaEntrySize())
	case dtPltGot:
		return ctx.GotPlt.Shdr.Addr
	case dtPltRelSz:
		return ctx.RelPlt.Shdr.Size
	case dtJmpRel:
		return ctx.RelPlt.Shdr.Addr
	case dtGnuHash:
		return ctx.GnuHash.Shdr.Addr
	case dtHash:
		return ctx.Hash.Shdr.Addr
	case dtVersym:
		return ctx.Versym.Shdr.Addr
	case dtVerNeed:
		return ctx.Verneed.Shdr.Addr
	case dtVerDef:
		return ctx.Verdef.Shdr.Addr
	}
	return 0
}

func (d *DynamicSection) CopyBuf(ctx *Context) {
	buf := ctx.Buf[d.Shdr.Offset:]
	for i, e := range d.entries {
		val := e.Val
		if val == 0 {
			val = d.resolve(ctx, e.Tag)
		}
		off := i * 16
		putU64(buf[off:], uint64(e.Tag))
		putU64(buf[off+8:], val)
	}
}
