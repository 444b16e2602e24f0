package linker

import (
	"debug/elf"
	"sync"
)

// Flags bits scanned and consumed by ScanRels; cleared after
// each symbol is processed.
const (
	NEEDS_GOT uint32 = 1 << iota
	NEEDS_PLT
	NEEDS_COPYREL
	NEEDS_GOTTP
	NEEDS_TLSGD
	NEEDS_TLSDESC
	NEEDS_TLSLD
)

// Symbol is globally unique by name. The handful of fields that
// can legitimately be written from more than one goroutine during
// registration (isWeak, isExported, isImported, the copyrel bits)
// are guarded by mu; everything else is written only while the owning
// pass holds exclusive access.
type Symbol struct {
	mu sync.Mutex

	File InputFile

	InputSection    *InputSection
	OutputSection   Chunker
	SectionFragment *SectionFragment

	Value uint64
	Name  string

	SymIdx int32
	AuxIdx int32
	VerIdx uint16

	Flags      uint32
	Visibility uint8

	isWeak          bool
	isExported      bool
	isImported      bool
	hasCopyrel      bool
	copyrelReadonly bool
}

func NewSymbol(name string) *Symbol {
	return &Symbol{
		Name:       name,
		SymIdx:     -1,
		AuxIdx:     -1,
		Visibility: uint8(elf.STV_DEFAULT),
	}
}

// GetSymbolByName returns the unique Symbol for name, creating an
// empty one on first lookup.
func GetSymbolByName(ctx *Context, name string) *Symbol {
	ctx.symbolMu.RLock()
	if sym, ok := ctx.SymbolMap[name]; ok {
		ctx.symbolMu.RUnlock()
		return sym
	}
	ctx.symbolMu.RUnlock()

	ctx.symbolMu.Lock()
	defer ctx.symbolMu.Unlock()
	if sym, ok := ctx.SymbolMap[name]; ok {
		return sym
	}
	sym := NewSymbol(name)
	ctx.SymbolMap[name] = sym
	return sym
}

func (s *Symbol) SetInputSection(isec *InputSection) {
	s.InputSection = isec
	s.OutputSection = nil
	s.SectionFragment = nil
}

func (s *Symbol) SetOutputSection(osec Chunker) {
	s.InputSection = nil
	s.OutputSection = osec
	s.SectionFragment = nil
}

func (s *Symbol) SetSectionFragment(frag *SectionFragment) {
	s.InputSection = nil
	s.OutputSection = nil
	s.SectionFragment = frag
}

func (s *Symbol) IsWeak() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isWeak
}

func (s *Symbol) SetWeak(v bool) {
	s.mu.Lock()
	s.isWeak = v
	s.mu.Unlock()
}

// OrFlags sets bits on s.Flags, safe to call from the concurrent
// per-object relocation scan in InputSection.ScanRelocations: two
// objects relocating against the same global symbol race on this
// field, so it goes through the same mutex that guards isWeak/
// isExported/isImported rather than a bare |=.
func (s *Symbol) OrFlags(bits uint32) {
	s.mu.Lock()
	s.Flags |= bits
	s.mu.Unlock()
}

func (s *Symbol) IsExported() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isExported
}

func (s *Symbol) SetExported(v bool) {
	s.mu.Lock()
	s.isExported = v
	s.mu.Unlock()
}

func (s *Symbol) IsImported() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isImported
}

func (s *Symbol) SetImported(v bool) {
	s.mu.Lock()
	s.isImported = v
	s.mu.Unlock()
}

func (s *Symbol) HasCopyrel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasCopyrel
}

func (s *Symbol) SetCopyrel(readonly bool) {
	s.mu.Lock()
	s.hasCopyrel = true
	s.copyrelReadonly = readonly
	s.mu.Unlock()
}

func (s *Symbol) CopyrelReadonly() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyrelReadonly
}

// GetGotIdx and friends return -1 when the symbol has no aux slot at
// all, or when the particular slot kind was never allocated for it.
func (s *Symbol) GetGotIdx(ctx *Context) int32 {
	if s.AuxIdx == -1 {
		return -1
	}
	return ctx.SymbolsAux[s.AuxIdx].GotIdx
}

func (s *Symbol) GetGotTpIdx(ctx *Context) int32 {
	if s.AuxIdx == -1 {
		return -1
	}
	return ctx.SymbolsAux[s.AuxIdx].GotTpIdx
}

func (s *Symbol) GetTlsGdIdx(ctx *Context) int32 {
	if s.AuxIdx == -1 {
		return -1
	}
	return ctx.SymbolsAux[s.AuxIdx].TlsGdIdx
}

func (s *Symbol) GetTlsDescIdx(ctx *Context) int32 {
	if s.AuxIdx == -1 {
		return -1
	}
	return ctx.SymbolsAux[s.AuxIdx].TlsDescIdx
}

func (s *Symbol) GetPltIdx(ctx *Context) int32 {
	if s.AuxIdx == -1 {
		return -1
	}
	return ctx.SymbolsAux[s.AuxIdx].PltIdx
}

func (s *Symbol) GetPltGotIdx(ctx *Context) int32 {
	if s.AuxIdx == -1 {
		return -1
	}
	return ctx.SymbolsAux[s.AuxIdx].PltGotIdx
}

func (s *Symbol) GetDynsymIdx(ctx *Context) int32 {
	if s.AuxIdx == -1 {
		return -1
	}
	return ctx.SymbolsAux[s.AuxIdx].DynsymIdx
}

func (s *Symbol) SetGotIdx(ctx *Context, idx int32)     { ctx.SymbolsAux[s.AuxIdx].GotIdx = idx }
func (s *Symbol) SetGotTpIdx(ctx *Context, idx int32)   { ctx.SymbolsAux[s.AuxIdx].GotTpIdx = idx }
func (s *Symbol) SetTlsGdIdx(ctx *Context, idx int32)   { ctx.SymbolsAux[s.AuxIdx].TlsGdIdx = idx }
func (s *Symbol) SetTlsDescIdx(ctx *Context, idx int32) { ctx.SymbolsAux[s.AuxIdx].TlsDescIdx = idx }
func (s *Symbol) SetPltIdx(ctx *Context, idx int32)     { ctx.SymbolsAux[s.AuxIdx].PltIdx = idx }
func (s *Symbol) SetPltGotIdx(ctx *Context, idx int32)  { ctx.SymbolsAux[s.AuxIdx].PltGotIdx = idx }
func (s *Symbol) SetDynsymIdx(ctx *Context, idx int32)  { ctx.SymbolsAux[s.AuxIdx].DynsymIdx = idx }

// ElfSym returns the owning ObjectFile's raw ELF symbol-table entry,
// or nil for a symbol currently owned by a SharedFile or by nothing.
func (s *Symbol) ElfSym() *Sym {
	obj, ok := s.File.(*ObjectFile)
	if !ok || s.SymIdx < 0 {
		return nil
	}
	return &obj.ElfSyms[s.SymIdx]
}

// IsIfunc reports whether this symbol is a GNU indirect function: its
// GOT/PLT slots are fixed up by calling its definition as a resolver
// at load time (an IRELATIVE relocation) instead of the usual
// GLOB_DAT/JUMP_SLOT binding.
func (s *Symbol) IsIfunc() bool {
	esym := s.ElfSym()
	return esym != nil && esym.IsIfunc()
}

func (s *Symbol) GetAddr(ctx *Context) uint64 {
	if s.SectionFragment != nil {
		if !s.SectionFragment.IsAlive {
			return 0
		}
		return s.SectionFragment.GetAddr() + s.Value
	}

	if s.InputSection == nil {
		return s.Value
	}

	if !s.InputSection.IsAlive {
		return 0
	}

	return s.InputSection.GetAddr() + s.Value
}

func (s *Symbol) GetGotTpAddr(ctx *Context) uint64 {
	return ctx.Got.Shdr.Addr + uint64(s.GetGotTpIdx(ctx))*8
}

func (s *Symbol) GetGotAddr(ctx *Context) uint64 {
	return ctx.Got.Shdr.Addr + uint64(s.GetGotIdx(ctx))*8
}

func (s *Symbol) GetPltAddr(ctx *Context, pltEntrySize uint64) uint64 {
	if idx := s.GetPltIdx(ctx); idx != -1 {
		return ctx.Plt.Shdr.Addr + uint64(idx)*pltEntrySize
	}
	return ctx.PltGot.Shdr.Addr + uint64(s.GetPltGotIdx(ctx))*pltEntrySize
}

// Clear re-initializes the symbol to its empty state in place,
// preserving pointer identity for any other file that still holds
// this *Symbol. Name is left untouched: the map key doesn't change,
// only what the symbol currently resolves to.
func (s *Symbol) Clear() {
	s.File = nil
	s.SectionFragment = nil
	s.OutputSection = nil
	s.InputSection = nil
	s.SymIdx = -1
	s.VerIdx = 0
	s.Flags = 0
	s.mu.Lock()
	s.isWeak = false
	s.isExported = false
	s.isImported = false
	s.hasCopyrel = false
	s.copyrelReadonly = false
	s.mu.Unlock()
}

// GetRank computes this symbol's current collision-resolution rank
// (lower wins). A symbol with no owner ranks last.
func (s *Symbol) GetRank() uint64 {
	if s.File == nil {
		return (dsoRankBucket + 1) << 24
	}
	if obj, ok := s.File.(*ObjectFile); ok {
		return GetRank(obj, s.ElfSym(), !obj.Alive())
	}
	if dso, ok := s.File.(*SharedFile); ok {
		return GetDsoRank(dso)
	}
	return 7 << 24
}
