package linker

import (
	"testing"

	"github.com/akawashiro/mold/pkg/linker/arch"
)

func setupScanRelsContext(t *testing.T, em arch.Arch, pic bool) *Context {
	t.Helper()
	ctx := NewContext()
	ctx.Arg.Emulation = em
	ctx.Arg.Pic = pic
	ctx.Got = NewGotSection()
	ctx.GotPlt = NewGotPltSection()
	ctx.Plt = NewPltSection()
	ctx.PltGot = NewPltGotSection()
	ctx.RelDyn = NewRelDynSection()
	return ctx
}

func scanRelsSymbol(ctx *Context, name string, flags uint32, imported bool) *Symbol {
	obj := &ObjectFile{}
	obj.SetAlive(true)
	sym := NewSymbol(name)
	sym.File = obj
	sym.SymIdx = 0
	sym.Flags = flags
	sym.SetImported(imported)
	obj.ElfSyms = []Sym{{}}
	obj.Symbols = []*Symbol{sym}
	ctx.Objs = append(ctx.Objs, obj)
	return sym
}

// A non-PIC/PIE link gives an imported function a single canonical
// address: its stub belongs in .plt, and it is forced into .dynsym so
// other objects can bind against that one address.
func TestScanRelsNonPicImportedGetsCanonicalPlt(t *testing.T) {
	ctx := setupScanRelsContext(t, arch.X86_64, false)
	sym := scanRelsSymbol(ctx, "f", NEEDS_PLT, true)

	ScanRels(ctx)

	if sym.GetPltIdx(ctx) == -1 {
		t.Errorf("expected f to get a .plt slot")
	}
	if sym.GetPltGotIdx(ctx) != -1 {
		t.Errorf("a canonical symbol must not also get a .plt.got slot")
	}
	if !sym.IsExported() {
		t.Errorf("expected a canonical PLT symbol to be forced into .dynsym")
	}
}

// A PIC/shared build has no canonical addresses: an imported function
// that also needs a GOT slot routes through .plt.got instead, and is
// not forced into .dynsym.
func TestScanRelsPicImportedWithGotUsesPltGot(t *testing.T) {
	ctx := setupScanRelsContext(t, arch.X86_64, true)
	sym := scanRelsSymbol(ctx, "f", NEEDS_PLT|NEEDS_GOT, true)

	ScanRels(ctx)

	if sym.GetPltGotIdx(ctx) == -1 {
		t.Errorf("expected f to get a .plt.got slot under PIC")
	}
	if sym.GetPltIdx(ctx) != -1 {
		t.Errorf("a non-canonical symbol must not also get a .plt slot")
	}
	if sym.IsExported() {
		t.Errorf("a non-canonical PLT symbol must not be forced exported")
	}
}

// AArch64 has no .plt.got-style stub at all: a NEEDS_PLT symbol must
// still land in .plt even though CanonicalPltOK() is false, rather
// than getting no slot.
func TestScanRelsArm64NonCanonicalStillGetsPlt(t *testing.T) {
	ctx := setupScanRelsContext(t, arch.ARM64, true)
	sym := scanRelsSymbol(ctx, "f", NEEDS_PLT|NEEDS_GOT, true)

	ScanRels(ctx)

	if sym.GetPltIdx(ctx) == -1 {
		t.Errorf("expected f to fall back to .plt on arm64")
	}
	if sym.GetPltGotIdx(ctx) != -1 {
		t.Errorf("arm64 has no .plt.got stub in this implementation")
	}
}

// 3 IFUNC symbols in the GOT each add an IRELATIVE record to
// .rela.dyn; with reldyn.sh_addr = 0x2000 and relsize = 24,
// __rel_iplt_end.value must be 0x2000 + 72.
func TestScanRelsIfuncRelocsDriveRelIpltEnd(t *testing.T) {
	ctx := setupScanRelsContext(t, arch.X86_64, false)
	CreateInternalFile(ctx)
	AddSyntheticSymbols(ctx)

	for i, name := range []string{"f1", "f2", "f3"} {
		sym := scanRelsSymbol(ctx, name, NEEDS_GOT, false)
		sym.File.(*ObjectFile).ElfSyms[0].SetType(SttGnuIfunc)
		sym.Value = uint64(0x4000 + i*0x10) // resolver address
	}

	ScanRels(ctx)

	if len(ctx.RelDyn.Rels) != 3 {
		t.Fatalf("got %d dynamic relocations, want 3", len(ctx.RelDyn.Rels))
	}
	for _, rel := range ctx.RelDyn.Rels {
		if rel.Type != ctx.Arg.Emulation.IfuncRelType() {
			t.Errorf("got reloc type %d, want IfuncRelType", rel.Type)
		}
	}
	if n := NumIrelativeRelocs(ctx); n != 3 {
		t.Fatalf("NumIrelativeRelocs = %d, want 3", n)
	}

	ctx.RelDyn.Shdr.Addr = 0x2000
	ctx.Chunks = []Chunker{ctx.RelDyn}
	FixSyntheticSymbols(ctx)

	want := uint64(0x2000 + 72)
	if ctx.__RelIpltEnd.Value != want {
		t.Errorf("__rel_iplt_end.value = %#x, want %#x", ctx.__RelIpltEnd.Value, want)
	}
}
