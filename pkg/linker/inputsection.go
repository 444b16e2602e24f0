package linker

import (
	"debug/elf"
	"fmt"
	"math"
	"unsafe"

	"github.com/akawashiro/mold/pkg/utils"
)

type InputSection struct {
	File          *ObjectFile
	OutputSection *OutputSection
	Contents      []byte
	Deltas        []int32
	Offset        uint32
	Shndx         uint32
	RelsecIdx     uint32
	ShSize        uint32
	IsAlive       bool
	P2Align       uint8
	Rels          []Rela

	// IsEhFrame marks a .eh_frame input section: BinSections diverts
	// these into the merged EhFrameSection instead of an ordinary
	// OutputSection.
	IsEhFrame bool
}

func NewInputSection(
	ctx *Context, file *ObjectFile, name string, shndx int64,
) *InputSection {
	s := &InputSection{
		Offset:    math.MaxUint32,
		Shndx:     math.MaxUint32,
		RelsecIdx: math.MaxUint32,
		ShSize:    math.MaxUint32,
		IsAlive:   true,
	}
	s.File = file
	s.Shndx = uint32(shndx)

	shdr := s.Shdr()
	if shndx < int64(len(file.ElfSections)) {
		s.Contents = file.File.Contents[shdr.Offset : shdr.Offset+shdr.Size]
	}

	toP2Align := func(alignment uint64) int64 {
		if alignment == 0 {
			return 0
		}
		return int64(utils.CountrZero[uint64](alignment))
	}

	if shdr.Flags&uint64(elf.SHF_COMPRESSED) != 0 {
		chdr := s.Chdr()
		s.ShSize = uint32(chdr.Size)
		s.P2Align = uint8(toP2Align(chdr.AddrAlign))
	} else {
		s.ShSize = uint32(shdr.Size)
		s.P2Align = uint8(toP2Align(shdr.AddrAlign))
	}

	s.OutputSection =
		GetOutputSectionInstance(ctx, name, uint64(shdr.Type), shdr.Flags)

	return s
}

func (s *InputSection) Shdr() *Shdr {
	if s.Shndx < uint32(len(s.File.ElfSections)) {
		return &s.File.ElfSections[s.Shndx]
	}

	utils.Fatal("unreachable")
	return nil
}

func (s *InputSection) Chdr() Chdr {
	return utils.Read[Chdr](s.Contents)
}

func (s *InputSection) GetAddr() uint64 {
	return s.OutputSection.Shdr.Addr + uint64(s.Offset)
}

func (s *InputSection) Name() string {
	if uint32(len(s.File.ElfSections)) <= s.Shndx {
		return ".common"
	}
	return getName(s.File.ShStrtab, s.File.ElfSections[s.Shndx].Name)
}

func (s *InputSection) GetRels() []Rela {
	if s.RelsecIdx == math.MaxUint32 || s.Rels != nil {
		return s.Rels
	}

	bs := s.File.GetBytesFromShdr(&s.File.ElfSections[s.RelsecIdx])
	nums := len(bs) / int(unsafe.Sizeof(Rela{}))
	s.Rels = make([]Rela, 0, nums)
	for nums > 0 {
		s.Rels = append(s.Rels, utils.Read[Rela](bs))
		bs = bs[unsafe.Sizeof(Rela{}):]
		nums--
	}

	return s.Rels
}

// ScanRelocations tags every symbol this section relocates against
// with the NEEDS_* flags ScanRels' aux-slot allocation pass later
// consumes. Classification is driven entirely by ctx.Arg.Emulation so
// the same pass runs unmodified for every supported machine; actually
// patching bytes into this section's contents is out of scope here;
// emitting machine code is the writer stage's job, not this
// pipeline's.
func (s *InputSection) ScanRelocations(ctx *Context) {
	utils.Assert(s.Shdr().Flags&uint64(elf.SHF_ALLOC) != 0)
	a := ctx.Arg.Emulation

	rels := s.GetRels()
	for i := 0; i < len(rels); i++ {
		rel := &rels[i]
		if rel.Type == 0 {
			continue
		}

		sym := s.File.Symbols[rel.Sym]
		if sym.File == nil {
			utils.Fatal(fmt.Sprintf("undefined symbol: %s", sym.Name))
		}

		switch {
		case a.IsTlsGdRelType(rel.Type):
			sym.OrFlags(NEEDS_TLSGD)
		case a.IsTlsLdRelType(rel.Type):
			sym.OrFlags(NEEDS_TLSLD)
		case a.IsTlsDescRelType(rel.Type):
			sym.OrFlags(NEEDS_TLSDESC)
		case a.IsGotTpRelType(rel.Type):
			sym.OrFlags(NEEDS_GOTTP)
		case a.IsGotRelType(rel.Type):
			sym.OrFlags(NEEDS_GOT)
		case a.IsPltRelType(rel.Type):
			if sym.File != InputFile(s.File) {
				sym.OrFlags(NEEDS_PLT)
			}
		case a.IsCopyRelType(rel.Type):
			sym.OrFlags(NEEDS_COPYREL)
		}
	}
}

func (s *InputSection) GetPriority() int64 {
	return (int64(s.File.Priority) << 32) | int64(s.Shndx)
}

// WriteTo copies this section's already-relocated-at-compile-time
// bytes into the output image. Applying the relocations this pass
// scanned is the writer's job, out of scope here; a section's final
// contents are whatever the compiler emitted, since the only output
// this pipeline produces is the layout description consumed by that
// writer.
func (s *InputSection) WriteTo(ctx *Context, buf []byte) {
	if s.Shdr().Type == uint32(elf.SHT_NOBITS) || s.ShSize == 0 {
		return
	}
	s.CopyContents(ctx, buf)
}

func (s *InputSection) CopyContents(ctx *Context, buf []byte) {
	if len(s.Deltas) == 0 {
		copy(buf, s.Contents)
		return
	}

	rels := s.GetRels()
	pos := uint64(0)
	for i := 0; i < len(rels); i++ {
		delta := s.Deltas[i+1] - s.Deltas[i]
		if delta == 0 {
			continue
		}
		utils.Assert(delta > 0)

		r := rels[i]
		copy(buf, s.Contents[pos:r.Offset])
		buf = buf[r.Offset-pos:]
		pos = r.Offset + uint64(delta)
	}

	copy(buf, s.Contents[pos:])
}

func (s *InputSection) GetFragment(rel *Rela) (*SectionFragment, uint32) {
	esym := &s.File.ElfSyms[rel.Sym]
	if esym.Type() == uint8(elf.STT_SECTION) {
		m := s.File.MergeableSections[s.File.GetShndx(esym, int64(rel.Sym))]
		return m.GetFragment(uint32(esym.Val) + uint32(rel.Addend))
	}
	return nil, 0
}
