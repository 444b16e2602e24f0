package linker

import (
	"debug/elf"
	"math"

	"github.com/akawashiro/mold/pkg/utils"
)

// newCommonInputSection materializes space for one SHN_COMMON symbol
// as a plain .bss-bound InputSection owned by the internal object, so
// the rest of the pipeline (BinSections, ComputeSectionSizes,
// SetOsecOffsets) treats it exactly like any other input section: no
// contents, zero-filled by the loader.
func newCommonInputSection(ctx *Context, size, align uint64) *InputSection {
	if align == 0 {
		align = 1
	}

	obj := ctx.InternalObj
	obj.ElfSections = append(obj.ElfSections, Shdr{
		Type:      uint32(elf.SHT_NOBITS),
		Flags:     uint64(elf.SHF_ALLOC | elf.SHF_WRITE),
		Size:      size,
		AddrAlign: align,
	})
	shndx := int64(len(obj.ElfSections) - 1)

	isec := &InputSection{
		File:      obj,
		Offset:    math.MaxUint32,
		Shndx:     uint32(shndx),
		RelsecIdx: math.MaxUint32,
		ShSize:    uint32(size),
		IsAlive:   true,
		P2Align:   uint8(utils.CountrZero[uint64](align)),
	}
	isec.OutputSection = GetOutputSectionInstance(
		ctx, ".bss", uint64(elf.SHT_NOBITS), uint64(elf.SHF_ALLOC|elf.SHF_WRITE))

	obj.Sections = append(obj.Sections, isec)
	return isec
}

// ConvertCommonSymbols is pass 5 of the pipeline: common symbols are
// turned into real definitions.
// ResolveSymbols has already picked, for every tentative definition,
// the single ObjectFile that owns it; here that ownership is turned
// into a real .bss contribution sized and aligned per the winning
// SHN_COMMON symbol-table entry (st_size bytes, st_value alignment).
func ConvertCommonSymbols(ctx *Context) {
	for _, file := range ctx.Objs {
		if file == ctx.InternalObj || !file.Alive() {
			continue
		}
		for _, sym := range file.GetGlobalSyms() {
			if sym.File != InputFile(file) {
				continue
			}
			esym := sym.ElfSym()
			if esym == nil || !esym.IsCommon() {
				continue
			}

			isec := newCommonInputSection(ctx, esym.Size, esym.Val)
			sym.SetInputSection(isec)
			sym.Value = 0
		}
	}
}
