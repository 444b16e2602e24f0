package linker

import (
	"debug/elf"
	"testing"
)

func TestConvertCommonSymbolsMaterializesBss(t *testing.T) {
	ctx := NewContext()
	CreateInternalFile(ctx)

	obj := &ObjectFile{}
	obj.SetAlive(true)
	obj.Priority = 2
	ctx.Objs = append(ctx.Objs, obj)

	sym := GetSymbolByName(ctx, "common_var")
	sym.File = obj
	sym.SymIdx = 1
	esym := Sym{Shndx: uint16(elf.SHN_COMMON), Size: 16, Val: 8}
	obj.ElfSyms = []Sym{{}, esym}
	obj.Symbols = []*Symbol{nil, sym}
	obj.FirstGlobal = 1

	ConvertCommonSymbols(ctx)

	isec := sym.InputSection
	if isec == nil {
		t.Fatalf("expected ConvertCommonSymbols to attach a .bss input section")
	}
	if isec.ShSize != 16 {
		t.Errorf("got ShSize=%d, want 16", isec.ShSize)
	}
	if isec.OutputSection == nil || isec.OutputSection.Name != ".bss" {
		t.Errorf("expected the common symbol to land in .bss")
	}
	if sym.Value != 0 {
		t.Errorf("expected the symbol's value to be reset to the section-relative 0")
	}
}

func TestConvertCommonSymbolsSkipsDeadFiles(t *testing.T) {
	ctx := NewContext()
	CreateInternalFile(ctx)

	obj := &ObjectFile{}
	obj.SetAlive(false)
	ctx.Objs = append(ctx.Objs, obj)

	sym := GetSymbolByName(ctx, "dead_common")
	sym.File = obj
	esym := Sym{Shndx: uint16(elf.SHN_COMMON), Size: 4, Val: 4}
	obj.ElfSyms = []Sym{{}, esym}
	obj.Symbols = []*Symbol{nil, sym}
	obj.FirstGlobal = 1

	ConvertCommonSymbols(ctx)

	if sym.InputSection != nil {
		t.Errorf("expected a dead file's common symbols to be left untouched")
	}
}
