package linker

import (
	"debug/elf"
	"testing"

	"github.com/akawashiro/mold/pkg/utils"
)

func TestIsValidCIdentifier(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"_foo", true},
		{"foo_bar9", true},
		{"9foo", false},
		{".text", false},
		{"", false},
		{"foo.bar", false},
	}
	for _, c := range cases {
		if got := isValidCIdentifier(c.name); got != c.want {
			t.Errorf("isValidCIdentifier(%q) = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestIsTbss(t *testing.T) {
	c := &Chunk{Shdr: Shdr{Type: uint32(elf.SHT_NOBITS), Flags: uint64(elf.SHF_TLS)}}
	if !isTbss(c) {
		t.Errorf("expected a NOBITS+TLS chunk to be classified as tbss")
	}
	c2 := &Chunk{Shdr: Shdr{Type: uint32(elf.SHT_NOBITS)}}
	if isTbss(c2) {
		t.Errorf("a NOBITS chunk without SHF_TLS is not tbss")
	}
}

func TestIsRelroGotButNotPlainWritable(t *testing.T) {
	ctx := NewContext()
	ctx.Got = &GotSection{}
	ctx.Got.Shdr.Flags = uint64(elf.SHF_WRITE)
	if !isRelro(ctx, ctx.Got) {
		t.Errorf("expected .got to be relro")
	}

	writable := &Chunk{Shdr: Shdr{Flags: uint64(elf.SHF_WRITE)}}
	if isRelro(ctx, writable) {
		t.Errorf("an ordinary writable section is not relro")
	}
}

func TestSortInitFiniOrdersByPriority(t *testing.T) {
	mk := func(name string) *InputSection {
		f := &ObjectFile{}
		f.ElfSections = []Shdr{{Name: 0}}
		f.ShStrtab = append([]byte(name), 0)
		return &InputSection{File: f, Shndx: 0}
	}

	hundred := mk(".init_array.100")
	five := mk(".init_array.5")
	none := mk(".init_array")

	osec := &OutputSection{Chunk: Chunk{Name: ".init_array"}}
	osec.Members = []*InputSection{hundred, five, none}

	ctx := &Context{OutputSections: []*OutputSection{osec}}
	SortInitFini(ctx)

	got := []*InputSection{five, hundred, none}
	for i, want := range got {
		if osec.Members[i] != want {
			t.Fatalf("members[%d] = %v, want %v", i, osec.Members[i], want)
		}
	}
}

func TestOutputSectionStartStopCandidatesFiltersInvalidNames(t *testing.T) {
	ctx := NewContext()
	ctx.OutputSections = []*OutputSection{
		{Chunk: Chunk{Name: "valid_name"}},
		{Chunk: Chunk{Name: ".text"}},
		{Chunk: Chunk{Name: "9bad"}},
	}
	got := outputSectionStartStopCandidates(ctx)
	if len(got) != 1 || got[0] != "valid_name" {
		t.Errorf("got %v, want only [valid_name]", got)
	}
}

// A .text-only image with no .bss has __bss_start == _end, and _etext
// tracks the end of the executable chunk rather than the end of the
// last non-NOBITS allocated chunk.
func TestFixSyntheticSymbolsNoBssMeansBssStartEqualsEnd(t *testing.T) {
	ctx := NewContext()
	CreateInternalFile(ctx)
	AddSyntheticSymbols(ctx)

	text := &OutputSection{Chunk: Chunk{Name: ".text", Shdr: Shdr{
		Type: uint32(elf.SHT_PROGBITS), Flags: uint64(elf.SHF_ALLOC | elf.SHF_EXECINSTR),
		Addr: 0x1000, Size: 0x100,
	}}}
	ctx.Chunks = []Chunker{text}

	FixSyntheticSymbols(ctx)

	if ctx.__End.Value != 0x1100 {
		t.Errorf("_end = %#x, want 0x1100", ctx.__End.Value)
	}
	if ctx.__Etext.Value != 0x1100 {
		t.Errorf("etext = %#x, want 0x1100", ctx.__Etext.Value)
	}
	if ctx.__BssStart.Value != ctx.__End.Value {
		t.Errorf("__bss_start = %#x, want _end (%#x) with no .bss chunk", ctx.__BssStart.Value, ctx.__End.Value)
	}
}

// A non-executable allocated section following .text (the common
// case) must not drag _etext along with _edata/_end: each of the
// three marks a distinct chunk boundary.
func TestFixSyntheticSymbolsEtextTracksLastExecutableChunk(t *testing.T) {
	ctx := NewContext()
	CreateInternalFile(ctx)
	AddSyntheticSymbols(ctx)

	text := &OutputSection{Chunk: Chunk{Name: ".text", Shdr: Shdr{
		Type: uint32(elf.SHT_PROGBITS), Flags: uint64(elf.SHF_ALLOC | elf.SHF_EXECINSTR),
		Addr: 0x1000, Size: 0x100,
	}}}
	rodata := &OutputSection{Chunk: Chunk{Name: ".rodata", Shdr: Shdr{
		Type: uint32(elf.SHT_PROGBITS), Flags: uint64(elf.SHF_ALLOC),
		Addr: 0x1100, Size: 0x50,
	}}}
	data := &OutputSection{Chunk: Chunk{Name: ".data", Shdr: Shdr{
		Type: uint32(elf.SHT_PROGBITS), Flags: uint64(elf.SHF_ALLOC | elf.SHF_WRITE),
		Addr: 0x1200, Size: 0x40,
	}}}
	bss := &OutputSection{Chunk: Chunk{Name: ".bss", Shdr: Shdr{
		Type: uint32(elf.SHT_NOBITS), Flags: uint64(elf.SHF_ALLOC | elf.SHF_WRITE),
		Addr: 0x1300, Size: 0x60,
	}}}
	ctx.Chunks = []Chunker{text, rodata, data, bss}

	FixSyntheticSymbols(ctx)

	if ctx.__Etext.Value != 0x1100 {
		t.Errorf("etext = %#x, want 0x1100 (end of .text, not .data)", ctx.__Etext.Value)
	}
	if ctx.__Edata.Value != 0x1240 {
		t.Errorf("edata = %#x, want 0x1240 (end of .data)", ctx.__Edata.Value)
	}
	if ctx.__End.Value != 0x1360 {
		t.Errorf("_end = %#x, want 0x1360 (end of .bss)", ctx.__End.Value)
	}
	if ctx.__BssStart.Value != 0x1300 {
		t.Errorf("__bss_start = %#x, want 0x1300 (start of .bss)", ctx.__BssStart.Value)
	}
}

func TestBinSectionsSkipsDeadAndEhFrameSections(t *testing.T) {
	ctx := NewContext()
	text := &OutputSection{Chunk: Chunk{Name: ".text"}, Idx: 0}
	ctx.OutputSections = []*OutputSection{text}

	obj := &ObjectFile{}
	live := &InputSection{IsAlive: true, OutputSection: text}
	dead := &InputSection{IsAlive: false, OutputSection: text}
	ehframe := &InputSection{IsAlive: true, OutputSection: text, IsEhFrame: true}
	obj.Sections = []*InputSection{live, dead, ehframe, nil}
	ctx.Objs = []*ObjectFile{obj}

	BinSections(ctx)

	if len(text.Members) != 1 || text.Members[0] != live {
		t.Fatalf("got %d members, want exactly [live]", len(text.Members))
	}
}

func TestComputeSectionSizesOffsetsAreMonotonicAndAligned(t *testing.T) {
	ctx := NewContext()
	a := &InputSection{ShSize: 5, P2Align: 0}
	b := &InputSection{ShSize: 3, P2Align: 3} // needs 8-byte alignment
	osec := &OutputSection{Members: []*InputSection{a, b}}
	ctx.OutputSections = []*OutputSection{osec}

	ComputeSectionSizes(ctx)

	if a.Offset != 0 {
		t.Errorf("a.Offset = %d, want 0", a.Offset)
	}
	if b.Offset%8 != 0 {
		t.Errorf("b.Offset = %d, not 8-byte aligned", b.Offset)
	}
	if uint64(b.Offset) < uint64(a.Offset)+uint64(a.ShSize) {
		t.Errorf("b.Offset = %d overlaps a (ends at %d)", b.Offset, a.Offset+a.ShSize)
	}
	if osec.Shdr.Size != uint64(b.Offset)+3 {
		t.Errorf("osec.Shdr.Size = %d, want %d", osec.Shdr.Size, uint64(b.Offset)+3)
	}
}

func TestSetOsecOffsetsAssignsSequentialAddresses(t *testing.T) {
	ctx := NewContext()
	ctx.Arg.ImageBase = 0x1000
	ctx.Arg.PageSize = 0x1000

	headers := &Chunk{Shdr: Shdr{
		Type: uint32(elf.SHT_PROGBITS), Flags: uint64(elf.SHF_ALLOC),
		Size: 0x78, AddrAlign: 1,
	}}
	text := &OutputSection{Chunk: Chunk{Name: ".text", Shdr: Shdr{
		Type: uint32(elf.SHT_PROGBITS), Flags: uint64(elf.SHF_ALLOC | elf.SHF_EXECINSTR),
		Size: 0x20, AddrAlign: 16,
	}}}
	ctx.Chunks = []Chunker{headers, text}

	SetOsecOffsets(ctx)

	if headers.Shdr.Addr != 0x1000 {
		t.Errorf("headers.Addr = %#x, want 0x1000", headers.Shdr.Addr)
	}
	wantTextAddr := utils.AlignTo(0x1000+0x78, 16)
	if text.Shdr.Addr != wantTextAddr {
		t.Errorf("text.Addr = %#x, want %#x", text.Shdr.Addr, wantTextAddr)
	}
	if text.Shdr.Offset != text.Shdr.Addr-headers.Shdr.Addr {
		t.Errorf("text.Offset = %#x, want %#x (file offset tracks address delta from the first chunk)",
			text.Shdr.Offset, text.Shdr.Addr-headers.Shdr.Addr)
	}
}
