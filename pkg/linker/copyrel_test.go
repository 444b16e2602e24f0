package linker

import (
	"debug/elf"
	"testing"

	"github.com/akawashiro/mold/pkg/linker/arch"
)

// buildStrtab concatenates names null-terminated, returning the table
// and each name's starting offset.
func buildStrtab(names ...string) ([]byte, []uint32) {
	tab := []byte{0}
	offs := make([]uint32, len(names))
	for i, n := range names {
		offs[i] = uint32(len(tab))
		tab = append(tab, n...)
		tab = append(tab, 0)
	}
	return tab, offs
}

// COPYREL with aliases: libc.so exports stdout and the versioned alias
// stdout@@GLIBC_2.0, both defined at the same offset of .bss. Linking
// non-PIC with a reference to stdout must give both names one shared
// copy in dynbss, with is_imported, is_exported, a dynsym slot, and an
// alias row each.
func TestAssignCopyrelSharesOneSlotAcrossVersionedAliases(t *testing.T) {
	ctx := NewContext()
	ctx.Arg.Emulation = arch.X86_64
	ctx.Dynbss = NewDynbssSection(false)
	ctx.DynbssRelro = NewDynbssSection(true)
	ctx.Dynsym = NewDynsymSection()
	ctx.Dynstr = NewDynstrSection()
	ctx.RelDyn = NewRelDynSection()

	strtab, offs := buildStrtab("stdout", "stdout@@GLIBC_2.0")

	dso := &SharedFile{}
	dso.SymbolStrtab = strtab
	dso.ElfSections = []Shdr{
		{}, // null
		{Flags: uint64(elf.SHF_ALLOC | elf.SHF_WRITE), Type: uint32(elf.SHT_NOBITS)}, // .bss
	}
	dso.ElfSyms = []Sym{
		{},                                              // null entry
		{Name: offs[0], Shndx: 1, Val: 0x40, Size: 8}, // stdout
		{Name: offs[1], Shndx: 1, Val: 0x40, Size: 8}, // stdout@@GLIBC_2.0
	}
	dso.FirstGlobal = 1

	sym := GetSymbolByName(ctx, "stdout")
	sym.File = dso
	sym.SymIdx = 1
	sym.SetImported(true)
	dso.Symbols = []*Symbol{nil, sym, sym}

	assignCopyrel(ctx, sym)

	if !sym.HasCopyrel() {
		t.Fatalf("expected stdout to have a copyrel slot")
	}
	if sym.CopyrelReadonly() {
		t.Errorf("a writable .bss definition must not route to dynbss_relro")
	}
	if !sym.IsImported() || !sym.IsExported() {
		t.Errorf("a copyrel symbol must be both imported and exported, got imported=%v exported=%v",
			sym.IsImported(), sym.IsExported())
	}
	if sym.GetDynsymIdx(ctx) == -1 {
		t.Errorf("expected stdout to get a .dynsym slot")
	}
	if len(ctx.Dynbss.Syms) != 1 || ctx.Dynbss.Syms[0] != sym {
		t.Fatalf("expected exactly one dynbss slot backing stdout, got %v", ctx.Dynbss.Syms)
	}

	foundAlias := false
	for i := 0; i < len(ctx.Dynsym.Symbols); i++ {
		if ctx.Dynsym.Symbols[i] == sym && ctx.Dynsym.RowName(i) == "stdout@@GLIBC_2.0" {
			foundAlias = true
		}
	}
	if !foundAlias {
		t.Errorf("expected a .dynsym alias row named stdout@@GLIBC_2.0 backed by the same symbol")
	}

	// A second call for the same symbol (as happens when another
	// relocation also needs copyrel against it) must not allocate twice.
	assignCopyrel(ctx, sym)
	if len(ctx.Dynbss.Syms) != 1 {
		t.Errorf("re-running assignCopyrel must not add a second dynbss slot, got %d", len(ctx.Dynbss.Syms))
	}
}
