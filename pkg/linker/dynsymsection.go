package linker

import "debug/elf"

// DynsymSection is .dynsym: the subset of global symbols visible to
// the dynamic linker, needed only once dynamic linking is supported.
// Entry 0 is the mandatory null symbol; every other entry backs one
// exported definition or one imported reference, assigned a slot by
// ComputeImportExport / ScanRels via Symbol.SetDynsymIdx.
type DynsymSection struct {
	Chunk
	Symbols     []*Symbol
	// names[i], when non-empty, overrides Symbols[i].Name for that row.
	// A DSO can export several versioned dynsym rows (e.g. "stdout" and
	// "stdout@@GLIBC_2.0") that all bind to the one globally unique
	// *Symbol our resolver keeps for the version-stripped name; AddAlias
	// is how a second row for the same Symbol gets its own decorated
	// name.
	names       []string
	nameOffsets []uint32
}

func NewDynsymSection() *DynsymSection {
	d := &DynsymSection{Chunk: NewChunk()}
	d.Name = ".dynsym"
	d.Shdr.Type = uint32(elf.SHT_DYNSYM)
	d.Shdr.Flags = uint64(elf.SHF_ALLOC)
	d.Shdr.EntSize = 24
	d.Shdr.AddrAlign = 8
	d.Symbols = []*Symbol{nil}
	d.names = []string{""}
	return d
}

// Add appends sym as the next dynamic symbol table entry, unless it
// already owns a slot.
func (d *DynsymSection) Add(ctx *Context, sym *Symbol) {
	ctx.EnsureAux(sym)
	if sym.GetDynsymIdx(ctx) != -1 {
		return
	}
	sym.SetDynsymIdx(ctx, int32(len(d.Symbols)))
	d.Symbols = append(d.Symbols, sym)
	d.names = append(d.names, "")
}

// AddAlias appends an extra dynsym row for sym under name, unconditionally:
// unlike Add, it never checks or sets sym's own (singular) dynsym slot, so
// the same Symbol can back any number of differently named rows.
func (d *DynsymSection) AddAlias(ctx *Context, sym *Symbol, name string) {
	d.Symbols = append(d.Symbols, sym)
	d.names = append(d.names, name)
}

// RowName returns the name row i of .dynsym is written under: an
// AddAlias override if one was given, otherwise the backing Symbol's
// own name.
func (d *DynsymSection) RowName(i int) string {
	if d.names[i] != "" {
		return d.names[i]
	}
	return d.Symbols[i].Name
}

// Finalize interns every symbol's name into .dynstr and must run
// before UpdateShdr sizes .dynstr, since .dynstr's final size depends
// on every string any chunk has interned by that point (mirroring how
// RegisterSectionPieces must finish before a MergedSection's own
// AssignOffsets runs).
func (d *DynsymSection) Finalize(ctx *Context) {
	d.nameOffsets = make([]uint32, len(d.Symbols))
	for i, sym := range d.Symbols {
		if sym == nil {
			continue
		}
		d.nameOffsets[i] = ctx.Dynstr.Add(d.RowName(i))
	}
}

func (d *DynsymSection) UpdateShdr(ctx *Context) {
	d.Shdr.Size = uint64(len(d.Symbols)) * d.Shdr.EntSize
	d.Shdr.Link = uint32(ctx.Dynstr.Shndx)
	// One local symbol (the null entry) precedes every global.
	d.Shdr.Info = 1
}

func (d *DynsymSection) CopyBuf(ctx *Context) {
	buf := ctx.Buf[d.Shdr.Offset:]
	for i, sym := range d.Symbols {
		if sym == nil {
			continue
		}
		off := uint64(i) * d.Shdr.EntSize
		esym := &Sym{}
		if i < len(d.nameOffsets) {
			esym.Name = d.nameOffsets[i]
		}
		esym.Val = sym.GetAddr(ctx)
		if sym.IsImported() {
			esym.Val = 0
		}
		esym.SetBind(uint8(elf.STB_GLOBAL))
		if sym.IsWeak() {
			esym.SetBind(uint8(elf.STB_WEAK))
		}
		esym.SetVisibility(sym.Visibility)
		writeSymEntry(buf[off:], esym)
	}
}

// writeSymEntry encodes one Elf64_Sym record field-by-field instead of
// relying on struct layout matching the wire format exactly, since Sym
// here is a Go struct rather than bytes cast directly over the wire
// layout.
func writeSymEntry(buf []byte, s *Sym) {
	putU32(buf[0:], s.Name)
	buf[4] = s.Info
	buf[5] = s.Other
	putU16(buf[6:], s.Shndx)
	putU64(buf[8:], s.Val)
	putU64(buf[16:], s.Size)
}

func putU16(b []byte, v uint16) { b[0] = byte(v); b[1] = byte(v >> 8) }
func putU32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
func putU64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

// putU64BE writes v big-endian, the byte order the legacy GNU
// compressed-debug-section header ("ZLIB" + size) uses, unlike every
// other wire field in this package.
func putU64BE(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[7-i] = byte(v >> (8 * i))
	}
}
