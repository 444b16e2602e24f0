package linker

import "debug/elf"

// VersymSection is .gnu.version, one Elf64_Half per .dynsym entry
// giving that symbol's version index (VER_NDX_LOCAL/VER_NDX_GLOBAL or
// an index into .gnu.version_d/.gnu.version_r), mirroring the
// per-Symbol VerIdx field computed during version-script application.
type VersymSection struct {
	Chunk
}

func NewVersymSection() *VersymSection {
	v := &VersymSection{Chunk: NewChunk()}
	v.Name = ".gnu.version"
	v.Shdr.Type = uint32(elf.SHT_GNU_VERSYM)
	v.Shdr.Flags = uint64(elf.SHF_ALLOC)
	v.Shdr.EntSize = 2
	v.Shdr.AddrAlign = 2
	return v
}

func (v *VersymSection) UpdateShdr(ctx *Context) {
	v.Shdr.Size = uint64(len(ctx.Dynsym.Symbols)) * 2
	v.Shdr.Link = uint32(ctx.Dynsym.Shndx)
}

func (v *VersymSection) CopyBuf(ctx *Context) {
	buf := ctx.Buf[v.Shdr.Offset:]
	for i, sym := range ctx.Dynsym.Symbols {
		idx := uint16(VER_NDX_GLOBAL)
		if sym != nil {
			idx = sym.VerIdx
		}
		putU16(buf[i*2:], idx)
	}
}

// verneedAux is one version name a needed DSO exports that at least
// one undefined symbol in this link binds against (one Elf64_Vernaux
// per distinct SONAME/version pair).
type verneedAux struct {
	name string
	idx  uint16
}

type verneedEntry struct {
	soname string
	auxes  []verneedAux
}

// VerneedSection is .gnu.version_r, recording which versioned symbols
// this output imports from its needed shared objects so the dynamic
// loader can refuse to bind against an incompatible library version.
type VerneedSection struct {
	Chunk
	entries []verneedEntry
}

func NewVerneedSection() *VerneedSection {
	v := &VerneedSection{Chunk: NewChunk()}
	v.Name = ".gnu.version_r"
	v.Shdr.Type = uint32(elf.SHT_GNU_VERNEED)
	v.Shdr.Flags = uint64(elf.SHF_ALLOC)
	v.Shdr.AddrAlign = 8
	return v
}

// NumVersions is DT_VERNEEDNUM: the count of needed-file entries, not
// the count of version names within them.
func (v *VerneedSection) NumVersions() int {
	return len(v.entries)
}

// Add records that a symbol imported from soname under the given
// version name needs a version entry, reusing an existing entry for
// the same pair, and returns the version index to store in VerIdx.
func (v *VerneedSection) Add(ctx *Context, soname, version string) uint16 {
	nextIdx := uint16(VER_NDX_LAST_RESERVED + 1)
	for _, e := range v.entries {
		for _, a := range e.auxes {
			if a.idx >= nextIdx {
				nextIdx = a.idx + 1
			}
		}
	}

	for i := range v.entries {
		if v.entries[i].soname != soname {
			continue
		}
		for _, a := range v.entries[i].auxes {
			if a.name == version {
				return a.idx
			}
		}
		v.entries[i].auxes = append(v.entries[i].auxes, verneedAux{name: version, idx: nextIdx})
		return nextIdx
	}

	v.entries = append(v.entries, verneedEntry{
		soname: soname,
		auxes:  []verneedAux{{name: version, idx: nextIdx}},
	})
	return nextIdx
}

func (v *VerneedSection) UpdateShdr(ctx *Context) {
	if len(v.entries) == 0 {
		v.Shdr.Size = 0
		return
	}
	var size uint64
	for _, e := range v.entries {
		size += 16 // Elf64_Verneed
		size += uint64(len(e.auxes)) * 16
	}
	v.Shdr.Size = size
	v.Shdr.Link = uint32(ctx.Dynstr.Shndx)
	v.Shdr.Info = uint32(len(v.entries))
}

func (v *VerneedSection) CopyBuf(ctx *Context) {
	if v.Shdr.Size == 0 {
		return
	}
	buf := ctx.Buf[v.Shdr.Offset:]
	off := 0
	for i, e := range v.entries {
		base := off
		putU16(buf[base:], 1) // vn_version
		putU16(buf[base+2:], uint16(len(e.auxes)))
		putU32(buf[base+4:], ctx.Dynstr.Add(e.soname))
		putU32(buf[base+8:], 16) // vn_aux
		if i == len(v.entries)-1 {
			putU32(buf[base+12:], 0)
		} else {
			putU32(buf[base+12:], 16+uint32(len(e.auxes))*16)
		}
		off = base + 16
		for j, a := range e.auxes {
			ab := off
			putU32(buf[ab:], gnuHash(a.name))
			putU16(buf[ab+4:], a.idx|VERSYM_HIDDEN)
			putU16(buf[ab+6:], 0)
			putU32(buf[ab+8:], ctx.Dynstr.Add(a.name))
			if j == len(e.auxes)-1 {
				putU32(buf[ab+12:], 0)
			} else {
				putU32(buf[ab+12:], 16)
			}
			off = ab + 16
		}
	}
}

// verdefEntry is one version this output defines; CopyBuf writes it
// as an Elf64_Verdef with a single Elf64_Verdaux naming it.
type verdefEntry struct {
	name   string
	idx    uint16
	isBase bool
}

// VerdefSection is .gnu.version_d, the table of versions this output
// itself defines when linking with a version script (used for shared
// objects that export versioned symbols, e.g. libc-style symbol
// versioning). Only meaningful once shared-object output is supported.
type VerdefSection struct {
	Chunk
	entries []verdefEntry
}

func NewVerdefSection() *VerdefSection {
	v := &VerdefSection{Chunk: NewChunk()}
	v.Name = ".gnu.version_d"
	v.Shdr.Type = uint32(elf.SHT_GNU_VERDEF)
	v.Shdr.Flags = uint64(elf.SHF_ALLOC)
	v.Shdr.AddrAlign = 8
	return v
}

func (v *VerdefSection) NumVersions() int {
	return len(v.entries)
}

func (v *VerdefSection) Add(name string) uint16 {
	idx := VER_NDX_LAST_RESERVED + 1 + uint16(len(v.entries))
	v.entries = append(v.entries, verdefEntry{name: name, idx: idx})
	return idx
}

func (v *VerdefSection) UpdateShdr(ctx *Context) {
	if len(v.entries) == 0 {
		v.Shdr.Size = 0
		return
	}
	v.Shdr.Size = uint64(len(v.entries)) * (20 + 16)
	v.Shdr.Link = uint32(ctx.Dynstr.Shndx)
	v.Shdr.Info = uint32(len(v.entries))
}

func (v *VerdefSection) CopyBuf(ctx *Context) {
	if v.Shdr.Size == 0 {
		return
	}
	buf := ctx.Buf[v.Shdr.Offset:]
	off := 0
	for i, e := range v.entries {
		base := off
		putU16(buf[base:], 1) // vd_version
		flags := uint16(0)
		if i == 0 {
			flags = 1 // VER_FLG_BASE
		}
		putU16(buf[base+2:], flags)
		putU16(buf[base+4:], e.idx)
		putU16(buf[base+6:], 1) // vd_cnt
		putU32(buf[base+8:], gnuHash(e.name))
		putU32(buf[base+12:], 20) // vd_aux
		if i == len(v.entries)-1 {
			putU32(buf[base+16:], 0)
		} else {
			putU32(buf[base+16:], 20+16)
		}
		aux := base + 20
		putU32(buf[aux:], ctx.Dynstr.Add(e.name))
		putU32(buf[aux+4:], 0)
		off = base + 20 + 16
	}
}
