package linker

import (
	"debug/elf"
	"strings"
	"sync/atomic"

	"github.com/akawashiro/mold/pkg/utils"
)

// SharedFile is the shared-object (.so) variant of InputFile, for
// which there was previously no support: linking only ever
// links relocatable objects into a statically linked executable.
// A SharedFile contributes definitions a linked ObjectFile may bind
// against (possibly needing a PLT stub or a COPYREL), but it
// contributes no sections of its own to the output image.
type SharedFile struct {
	ElfFileBase

	Soname     string
	Versions   []string // one version name per dynamic symbol, parallel to ElfSyms
	VersionIdx []uint16
	IsNeeded   bool // DT_NEEDED should be emitted for this file even if nothing referenced it directly (--as-needed is off)

	// aliveFlag means "this DSO's DT_NEEDED entry will be emitted", a
	// weaker notion than an ObjectFile's liveness: a DSO is alive the
	// moment any of its symbols resolves a reference, regardless of
	// whether the defining section itself is reachable.
	aliveFlag atomic.Bool
}

func NewSharedFile(ctx *Context, file *File) *SharedFile {
	f := &SharedFile{ElfFileBase: *NewElfFileBase(file)}
	f.parse(ctx)
	return f
}

func (f *SharedFile) GetPriority() uint32 { return f.Priority }
func (f *SharedFile) IsDso() bool         { return true }
func (f *SharedFile) Alive() bool         { return f.aliveFlag.Load() }
func (f *SharedFile) SetAlive(v bool)     { f.aliveFlag.Store(v) }
func (f *SharedFile) SwapAlive(v bool) bool {
	return f.aliveFlag.Swap(v)
}

func (f *SharedFile) InputName() string {
	if f.Soname != "" {
		return f.Soname
	}
	return f.File.Name
}

// parse reads the dynamic symbol table, the SONAME from .dynamic (if
// present, falling back to the file's basename), and any "@VERSION"
// suffix on each dynamic symbol's name, stored in Versions. The
// .gnu.version and .gnu.version_r sections are not read.
func (f *SharedFile) parse(ctx *Context) {
	dynsym := f.FindSection(uint32(elf.SHT_DYNSYM))
	if dynsym == nil {
		return
	}

	f.FillUpElfSyms(dynsym)
	f.SymbolStrtab = f.GetBytesFromIdx(int64(dynsym.Link))
	f.FirstGlobal = int64(dynsym.Info)

	f.Soname = f.readSoname()

	f.Symbols = make([]*Symbol, len(f.ElfSyms))
	f.Versions = make([]string, len(f.ElfSyms))
	for i := 0; i < len(f.ElfSyms); i++ {
		esym := &f.ElfSyms[i]
		name, ver, _ := splitVersionSuffix(getName(f.SymbolStrtab, esym.Name))
		f.Versions[i] = ver
		if name == "" {
			continue
		}
		f.Symbols[i] = GetSymbolByName(ctx, name)
	}
}

// readSoname scans .dynamic for a DT_SONAME entry, falling back to
// the archive member's own filename when a
// shared object carries none, matching how a real dynamic linker
// resolves an unnamed DSO.
func (f *SharedFile) readSoname() string {
	dyn := f.FindSection(uint32(elf.SHT_DYNAMIC))
	if dyn == nil {
		return f.basename()
	}
	strtabShdr := &f.ElfSections[dyn.Link]
	strtab := f.GetBytesFromShdr(strtabShdr)

	bs := f.GetBytesFromShdr(dyn)
	const dynEntSize = 16 // d_tag (8) + d_val/d_ptr (8), ELFCLASS64
	const dtSoname = 14
	const dtNull = 0
	for len(bs) >= dynEntSize {
		tag := utils.Read[int64](bs)
		val := utils.Read[uint64](bs[8:])
		if tag == dtNull {
			break
		}
		if tag == dtSoname {
			return getName(strtab, uint32(val))
		}
		bs = bs[dynEntSize:]
	}
	return f.basename()
}

func (f *SharedFile) basename() string {
	name := f.File.Name
	if idx := strings.LastIndexByte(name, '/'); idx != -1 {
		name = name[idx+1:]
	}
	return name
}

// ResolveSymbols registers this DSO's defined symbols exactly like an
// ObjectFile would, except a DSO definition always ranks weakest (see
// GetDsoRank) and is never itself subject to COMDAT or
// mergeable-section handling.
func (f *SharedFile) ResolveSymbols(ctx *Context) {
	for i := f.FirstGlobal; i < int64(len(f.ElfSyms)); i++ {
		esym := &f.ElfSyms[i]
		if esym.IsUndef() {
			continue
		}
		sym := f.Symbols[i]
		if sym == nil {
			continue
		}
		rank := GetDsoRank(f)
		if rank < sym.GetRank() {
			sym.File = f
			sym.SetInputSection(nil)
			sym.Value = esym.Val
			sym.SymIdx = int32(i)
			sym.VerIdx = ctx.DefaultVersion
			sym.SetWeak(false)
			sym.SetExported(false)
		}
	}
}

// ClearSymbols resets every symbol this DSO still owns back to its
// empty state, mirroring ObjectFile.ClearSymbols for the dead-file case.
func (f *SharedFile) ClearSymbols() {
	for _, sym := range f.GetGlobalSyms() {
		if sym != nil && sym.File == InputFile(f) {
			sym.Clear()
		}
	}
}

// GetGlobalSymsForVersioning returns this DSO's global symbols, the
// same slice as GetGlobalSyms. The raw version suffix parsed off each
// dynamic symbol's name is kept separately in Versions, parallel to
// ElfSyms.
func (f *SharedFile) GetGlobalSymsForVersioning() []*Symbol {
	return f.GetGlobalSyms()
}

// ComputeImportExport applies the DSO-side rules: every definition
// this file owns is imported (the dynamic linker, not us, resolves
// it), and, when linking an executable, every default-visibility
// symbol this DSO references is flagged exported so the dynamic
// linker can bind the DSO's undefined reference back to our
// definition.
func (f *SharedFile) ComputeImportExport(ctx *Context) {
	for i := f.FirstGlobal; i < int64(len(f.ElfSyms)); i++ {
		esym := &f.ElfSyms[i]
		sym := f.Symbols[i]
		if sym == nil {
			continue
		}

		if esym.IsUndef() {
			if !ctx.Arg.Shared && sym.Visibility == uint8(elf.STV_DEFAULT) &&
				sym.File != nil && !sym.File.IsDso() {
				sym.SetExported(true)
			}
			continue
		}

		if sym.File == InputFile(f) {
			sym.SetImported(true)
		}
	}
}

// IsInReadonlySegment reports whether sym, a symbol this DSO defines,
// sits in a section with SHF_WRITE clear: a proxy for "mapped by a
// read-only PT_LOAD segment" ScanRels uses to decide between dynbss
// and dynbss_relro placement for a COPYREL.
func (f *SharedFile) IsInReadonlySegment(sym *Symbol) bool {
	if sym.SymIdx < 0 || int(sym.SymIdx) >= len(f.ElfSyms) {
		return false
	}
	esym := &f.ElfSyms[sym.SymIdx]
	if int(esym.Shndx) >= len(f.ElfSections) {
		return false
	}
	return f.ElfSections[esym.Shndx].Flags&uint64(elf.SHF_WRITE) == 0
}
