package linker

import (
	"debug/elf"
	"fmt"
	"unsafe"

	"github.com/akawashiro/mold/pkg/utils"
)

// InputFile is the polymorphism point of the data model: every
// Symbol.File and every rank/liveness computation goes through this
// interface instead of a concrete *ObjectFile, so ObjectFile and
// SharedFile can share the resolution and liveness-propagation code.
type InputFile interface {
	GetPriority() uint32
	IsDso() bool
	Alive() bool
	SetAlive(bool)
	// SwapAlive atomically sets the alive flag and returns the previous
	// value, giving MarkLiveObjects' feeder its at-most-once-enqueue
	// guarantee without a global lock.
	SwapAlive(bool) bool
	InputName() string
}

// ElfFileBase is the raw-ELF-parsing half of an input file: section
// header table, symbol table, string tables, kept under its own name
// so the polymorphic InputFile name above is free for the
// ObjectFile/SharedFile sum type, and embedded by both concrete
// variants.
type ElfFileBase struct {
	File         *File
	Symbols      []*Symbol
	ElfSections  []Shdr
	FirstGlobal  int64
	ShStrtab     []byte
	SymbolStrtab []byte

	ElfSyms     []Sym
	IsAliveFlag bool
	Priority    uint32

	LocalSyms []Symbol
	FragSyms  []Symbol
}

func NewElfFileBase(file *File) *ElfFileBase {
	f := &ElfFileBase{File: file}
	if len(file.Contents) < int(unsafe.Sizeof(Ehdr{})) {
		utils.Fatal("file too small")
	}
	if !CheckMagic(file.Contents) {
		utils.Fatal("not an ELF file")
	}

	ehdr := utils.Read[Ehdr](file.Contents)

	contents := file.Contents[ehdr.ShOff:]
	shdr := utils.Read[Shdr](contents)

	numSections := int64(ehdr.ShNum)
	if numSections == 0 {
		numSections = int64(shdr.Size)
	}

	f.ElfSections = []Shdr{shdr}
	for numSections > 1 {
		contents = contents[unsafe.Sizeof(Shdr{}):]
		f.ElfSections = append(f.ElfSections, utils.Read[Shdr](contents))
		numSections--
	}

	shstrtabIdx := int64(ehdr.ShStrndx)
	if ehdr.ShStrndx == uint16(elf.SHN_XINDEX) {
		shstrtabIdx = int64(shdr.Link)
	}

	f.ShStrtab = f.GetBytesFromIdx(shstrtabIdx)
	return f
}

func (f *ElfFileBase) GetBytesFromShdr(s *Shdr) []byte {
	end := s.Offset + s.Size
	if uint64(len(f.File.Contents)) < end {
		utils.Fatal(fmt.Sprintf("section header is out of range: %d", s.Offset))
	}

	return f.File.Contents[s.Offset:end]
}

func (f *ElfFileBase) GetBytesFromIdx(idx int64) []byte {
	utils.Assert(idx < int64(len(f.ElfSections)))
	return f.GetBytesFromShdr(&f.ElfSections[idx])
}

func (f *ElfFileBase) FillUpElfSyms(s *Shdr) {
	bs := f.GetBytesFromShdr(s)
	nums := len(bs) / int(unsafe.Sizeof(Sym{}))
	elfSyms := make([]Sym, 0, nums)
	for nums > 0 {
		elfSyms = append(elfSyms, utils.Read[Sym](bs))
		bs = bs[unsafe.Sizeof(Sym{}):]
		nums--
	}

	f.ElfSyms = elfSyms
}

func (f *ElfFileBase) FindSection(ty uint32) *Shdr {
	for i := 0; i < len(f.ElfSections); i++ {
		sec := &f.ElfSections[i]
		if sec.Type == ty {
			return sec
		}
	}
	return nil
}

// SwapIsAlive sets IsAliveFlag and returns the previous value. The
// at-most-once-enqueue guarantee that callers need is provided by
// the atomic.Bool each concrete file additionally carries (see
// ObjectFile.SwapAlive / SharedFile.SwapAlive); this plain version
// backs the single-threaded call sites.
func (f *ElfFileBase) SwapIsAlive(isAlive bool) bool {
	old := f.IsAliveFlag
	f.IsAliveFlag = isAlive
	return old
}

func (f *ElfFileBase) GetGlobalSyms() []*Symbol {
	return f.Symbols[f.FirstGlobal:]
}

func (f *ElfFileBase) GetEhdr() Ehdr {
	return utils.Read[Ehdr](f.File.Contents)
}
