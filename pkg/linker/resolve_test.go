package linker

import (
	"debug/elf"
	"testing"
)

// A loose object referencing g pulls in exactly the archive member
// that defines g, not the member that merely sits alongside it in the
// same archive.
func TestResolveSymbolsArchiveSelectionDropsUnreferencedMember(t *testing.T) {
	ctx := NewContext()

	a := &ObjectFile{ElfFileBase: ElfFileBase{Priority: 1}}
	a.SetAlive(true)
	symG := GetSymbolByName(ctx, "g")
	a.ElfSyms = []Sym{{}, {}} // null entry + undefined reference to g
	a.Symbols = []*Symbol{nil, symG}
	a.FirstGlobal = 1

	x1 := &ObjectFile{ElfFileBase: ElfFileBase{Priority: 2}} // libx.a(x1.o): defines g
	x1.SetAlive(false)
	x1.ElfSyms = []Sym{{}, {Shndx: uint16(elf.SHN_ABS)}}
	x1.Symbols = []*Symbol{nil, symG}
	x1.FirstGlobal = 1

	symH := GetSymbolByName(ctx, "h")
	x2 := &ObjectFile{ElfFileBase: ElfFileBase{Priority: 3}} // libx.a(x2.o): defines h, unreferenced
	x2.SetAlive(false)
	x2.ElfSyms = []Sym{{}, {Shndx: uint16(elf.SHN_ABS)}}
	x2.Symbols = []*Symbol{nil, symH}
	x2.FirstGlobal = 1

	ctx.Objs = []*ObjectFile{a, x1, x2}

	ResolveSymbols(ctx)

	if len(ctx.Objs) != 2 || ctx.Objs[0] != a || ctx.Objs[1] != x1 {
		t.Fatalf("got objs %v, want [a, x1] (x2 dropped, unreferenced)", ctx.Objs)
	}
	if symG.File != InputFile(x1) {
		t.Errorf("expected g to resolve to x1.o")
	}
}
