package linker

import (
	"debug/elf"

	"github.com/akawashiro/mold/pkg/utils"
)

// GotSection lays out .got: single-word GOT/GOTTP slots plus the
// two-word TLSGD and TLSDESC slot pairs TLSGD/TLSDESC relocations
// need. Entry size comes from
// ctx.Arg.Emulation rather than a hardcoded 8, so the same code lays
// out both x86_64 and arm64 tables.
type GotSection struct {
	Chunk
	GotSyms     []*Symbol
	GotTpSyms   []*Symbol
	TlsGdSyms   []*Symbol
	TlsDescSyms []*Symbol
}

func NewGotSection() *GotSection {
	g := &GotSection{Chunk: NewChunk()}
	g.Name = ".got"
	g.Shdr.Type = uint32(elf.SHT_PROGBITS)
	g.Shdr.Flags = uint64(elf.SHF_ALLOC | elf.SHF_WRITE)
	g.Shdr.AddrAlign = 8
	return g
}

func (g *GotSection) entrySize(ctx *Context) uint64 {
	return uint64(ctx.Arg.Emulation.GotEntrySize())
}

func (g *GotSection) AddGotSymbol(ctx *Context, sym *Symbol) {
	if sym.GetGotIdx(ctx) != -1 {
		return
	}
	sz := g.entrySize(ctx)
	sym.SetGotIdx(ctx, int32(g.Shdr.Size/sz))
	g.Shdr.Size += sz
	g.GotSyms = append(g.GotSyms, sym)
}

func (g *GotSection) AddGotTpSymbol(ctx *Context, sym *Symbol) {
	if sym.GetGotTpIdx(ctx) != -1 {
		return
	}
	sz := g.entrySize(ctx)
	sym.SetGotTpIdx(ctx, int32(g.Shdr.Size/sz))
	g.Shdr.Size += sz
	g.GotTpSyms = append(g.GotTpSyms, sym)
}

func (g *GotSection) AddTlsGdSymbol(ctx *Context, sym *Symbol) {
	if sym.GetTlsGdIdx(ctx) != -1 {
		return
	}
	sz := g.entrySize(ctx)
	sym.SetTlsGdIdx(ctx, int32(g.Shdr.Size/sz))
	g.Shdr.Size += sz * 2
	g.TlsGdSyms = append(g.TlsGdSyms, sym)
}

func (g *GotSection) AddTlsDescSymbol(ctx *Context, sym *Symbol) {
	if sym.GetTlsDescIdx(ctx) != -1 {
		return
	}
	sz := g.entrySize(ctx)
	sym.SetTlsDescIdx(ctx, int32(g.Shdr.Size/sz))
	g.Shdr.Size += sz * 2
	g.TlsDescSyms = append(g.TlsDescSyms, sym)
}

// GetEntries enumerates every slot this table owns along with how its
// final value is produced. A slot backed by an imported symbol yields
// a GotEntryGlobDat/GotEntryTlsGd/GotEntryTlsDesc entry whose value is
// only meaningful once ScanRels' matching RelDyn record is applied by
// the writer; this pass computes offsets and ownership, not bytes.
func (g *GotSection) GetEntries(ctx *Context) []GotEntry {
	var entries []GotEntry
	for _, sym := range g.GotSyms {
		idx := sym.GetGotIdx(ctx)
		switch {
		case sym.IsIfunc():
			entries = append(entries, NewGotEntry(int64(idx), 0, GotEntryIRelative))
		case sym.IsImported():
			entries = append(entries, NewGotEntry(int64(idx), 0, GotEntryGlobDat))
		default:
			entries = append(entries, NewGotEntry(int64(idx), sym.GetAddr(ctx), GotEntryConst))
		}
	}

	for _, sym := range g.GotTpSyms {
		idx := sym.GetGotTpIdx(ctx)
		entries = append(entries,
			NewGotEntry(int64(idx), sym.GetAddr(ctx)-ctx.TpAddr, GotEntryTpOff))
	}

	for _, sym := range g.TlsGdSyms {
		idx := sym.GetTlsGdIdx(ctx)
		entries = append(entries, NewGotEntry(int64(idx), 0, GotEntryTlsGd))
	}

	for _, sym := range g.TlsDescSyms {
		idx := sym.GetTlsDescIdx(ctx)
		entries = append(entries, NewGotEntry(int64(idx), 0, GotEntryTlsDesc))
	}

	return entries
}

func (g *GotSection) UpdateShdr(ctx *Context) {
	if g.Shdr.Size == 0 {
		g.Shdr.Size = g.entrySize(ctx)
	}
}

func (g *GotSection) CopyBuf(ctx *Context) {
	buf := ctx.Buf[g.Shdr.Offset:]
	for i := uint64(0); i < g.Shdr.Size; i++ {
		buf[i] = 0
	}

	sz := g.entrySize(ctx)
	for _, ent := range g.GetEntries(ctx) {
		if !ent.IsDynamic() {
			utils.Write[uint64](buf[uint64(ent.Idx)*sz:], ent.Val)
		}
	}
}
