package linker

import (
	"bytes"
	"debug/elf"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync/atomic"
	"unsafe"

	"github.com/akawashiro/mold/pkg/utils"
)

// ComdatGroupRef records one SHT_GROUP section this object file parsed:
// the interned ComdatGroup it contends for ownership of, and the
// section indices that get killed if another file already owns it.
// Group stays nil until resolveComdatGroups interns it by the group's
// signature symbol name; only the signature's symbol index is recorded
// while initializeSections reads the SHT_GROUP section.
type ComdatGroupRef struct {
	Group          *ComdatGroup
	SigSym         uint32
	SectionIndices []int64
}

// MergeableSection holds a SHF_MERGE input section after it has been
// split into its constituent fragments. Strs and FragOffsets are
// parallel slices produced by splitSection; Fragments is filled in
// afterward once each string has been interned into Parent.
type MergeableSection struct {
	Parent      *MergedSection
	P2Align     uint8
	Strs        []string
	FragOffsets []uint32
	Fragments   []*SectionFragment
}

// GetFragment finds the fragment containing offset (a byte offset
// into the original, unsplit section) and returns it along with the
// offset relative to that fragment's start.
func (m *MergeableSection) GetFragment(offset uint32) (*SectionFragment, uint32) {
	pos := sort.Search(len(m.FragOffsets), func(i int) bool {
		return offset < m.FragOffsets[i]
	})

	if pos == 0 {
		return nil, 0
	}

	idx := pos - 1
	return m.Fragments[idx], offset - m.FragOffsets[idx]
}

// ObjectFile is the relocatable (.o) variant of InputFile. The raw
// ELF parsing state lives in the embedded ElfFileBase, and this
// type adds everything specific to a relocatable object (COMDAT
// groups, mergeable-section splitting, and symbol-version suffixes),
// while SharedFile (sharedfile.go) covers the .so variant.
type ObjectFile struct {
	ElfFileBase

	Sections          []*InputSection
	MergeableSections []*MergeableSection
	ComdatGroups      []ComdatGroupRef

	SymtabSec      *Shdr
	SymtabShndxSec []uint32

	// ArchiveName is non-empty when this object was pulled out of a
	// static library, e.g. "libfoo.a" for a member named "foo.o".
	ArchiveName string
	// IsInLib marks a file that was not linked unconditionally: it
	// starts out dead and is only pulled in by MarkLiveObjects when one
	// of its global definitions is actually needed.
	IsInLib bool
	// ExcludeLibs marks an archive member pulled from a library named
	// in arg.exclude_libs (or every library, under exclude_libs=ALL):
	// ComputeImportExport must not re-export its definitions into the
	// dynamic symbol table even though the object itself is alive.
	ExcludeLibs bool

	aliveFlag atomic.Bool

	// SymVers holds, for each global symbol (parallel to
	// GetGlobalSyms()), the "@VERSION" or "@@VERSION" suffix split off
	// its ELF symbol name by splitSymbolVersions, or "" if none.
	SymVers []string

	// Features is the GNU_PROPERTY_X86_FEATURE_1_* bitset recorded in
	// this file's .note.gnu.property, used by ComputeCetStatus to warn
	// or error when one input lacks IBT/SHSTK support that others
	// require.
	Features uint32
}

// GNU property feature bits (elf_gnu_property_note, x86 psABI),
// scanned out of .note.gnu.property by parseGnuProperty.
const (
	FeatureIbt   uint32 = 1 << 0
	FeatureShstk uint32 = 1 << 1
)

func NewObjectFile(file *File, isInLib bool) *ObjectFile {
	o := &ObjectFile{ElfFileBase: *NewElfFileBase(file)}
	o.IsInLib = isInLib
	o.aliveFlag.Store(!isInLib)
	o.IsAliveFlag = !isInLib
	return o
}

func (o *ObjectFile) GetPriority() uint32 { return o.Priority }
func (o *ObjectFile) IsDso() bool         { return false }
func (o *ObjectFile) Alive() bool         { return o.aliveFlag.Load() }
func (o *ObjectFile) SetAlive(v bool) {
	o.aliveFlag.Store(v)
	o.IsAliveFlag = v
}
func (o *ObjectFile) SwapAlive(v bool) bool {
	old := o.aliveFlag.Swap(v)
	o.IsAliveFlag = v
	return old
}

func (o *ObjectFile) InputName() string {
	if o.ArchiveName != "" {
		return fmt.Sprintf("%s(%s)", o.ArchiveName, o.File.Name)
	}
	return o.File.Name
}

func (o *ObjectFile) parse(ctx *Context) {
	o.SymtabSec = o.FindSection(uint32(elf.SHT_SYMTAB))
	if o.SymtabSec != nil {
		o.FirstGlobal = int64(o.SymtabSec.Info)

		o.FillUpElfSyms(o.SymtabSec)
		o.SymbolStrtab = o.GetBytesFromIdx(int64(o.SymtabSec.Link))
	}

	o.initializeSections(ctx)
	o.initializeSymbols(ctx)
	o.resolveComdatGroups(ctx)
	o.sortRelocations()
	o.initializeMergeableSections(ctx)
	o.skipEhframeSections(ctx)
	o.splitSymbolVersions(ctx)
}

func (o *ObjectFile) initializeSections(ctx *Context) {
	o.Sections = make([]*InputSection, len(o.ElfSections))
	for i := 0; i < len(o.ElfSections); i++ {
		shdr := &o.ElfSections[i]
		if (shdr.Flags&uint64(SHF_EXCLUDE) != 0) &&
			(shdr.Flags&uint64(elf.SHF_ALLOC) == 0) &&
			(shdr.Type != SHT_LLVM_ADDRSIG) {
			continue
		}

		switch elf.SectionType(shdr.Type) {
		case elf.SHT_GROUP:
			o.parseComdatGroup(ctx, int64(i), shdr)
		case elf.SHT_SYMTAB_SHNDX:
			o.FillUpSymtabShndxSec(shdr)
		case elf.SHT_NOTE:
			name := getName(o.ShStrtab, shdr.Name)
			if name == ".note.gnu.property" {
				o.parseGnuProperty(shdr)
			}
		case elf.SHT_SYMTAB, elf.SHT_STRTAB, elf.SHT_REL, elf.SHT_RELA,
			elf.SHT_NULL:
			break
		default:
			name := getName(o.ShStrtab, shdr.Name)

			if name == ".note.GNU-stack" {
				continue
			}
			if strings.HasPrefix(name, ".gnu.warning.") {
				continue
			}

			o.Sections[i] = NewInputSection(ctx, o, name, int64(i))
		}
	}

	for i := 0; i < len(o.ElfSections); i++ {
		shdr := &o.ElfSections[i]
		if shdr.Type != uint32(elf.SHT_RELA) {
			continue
		}

		if shdr.Info >= uint32(len(o.Sections)) {
			utils.Fatal("invalid relocated section index")
		}

		if target := o.Sections[shdr.Info]; target != nil {
			utils.Assert(target.RelsecIdx == math.MaxUint32)
			target.RelsecIdx = uint32(i)
		}
	}
}

// parseComdatGroup reads one SHT_GROUP section: a GRP_COMDAT flag word
// followed by a list of member section indices, keyed by the group's
// signature symbol (sh_info indexes the symbol table, sh_link the
// string table it names through). Ownership is resolved later, in
// EliminateComdats, once every object file in the link has registered.
func (o *ObjectFile) parseComdatGroup(ctx *Context, idx int64, shdr *Shdr) {
	bs := o.GetBytesFromShdr(shdr)
	if len(bs) < 4 {
		return
	}
	flags := utils.Read[uint32](bs)
	const GRP_COMDAT = 0x1
	if flags&GRP_COMDAT == 0 {
		return
	}

	bs = bs[4:]
	var members []int64
	for len(bs) >= 4 {
		members = append(members, int64(utils.Read[uint32](bs)))
		bs = bs[4:]
	}

	// The signature is the name of the symbol at sh_info in the symbol
	// table; only that index is recorded here, and resolveComdatGroups
	// interns the real cross-file group by name later.
	o.ComdatGroups = append(o.ComdatGroups, ComdatGroupRef{SigSym: shdr.Info, SectionIndices: members})
}

// resolveComdatGroups interns each pending ComdatGroupRef by its
// signature symbol's name, so that two object files whose SHT_GROUP
// sections name the same signature (e.g. two TUs instantiating the
// same template) contend for the same ComdatGroup instance in
// EliminateComdats rather than each keeping a private, never-shared
// one.
func (o *ObjectFile) resolveComdatGroups(ctx *Context) {
	for i := range o.ComdatGroups {
		ref := &o.ComdatGroups[i]
		name := fmt.Sprintf("%s:%d", o.File.Name, ref.SigSym)
		if ref.SigSym < uint32(len(o.ElfSyms)) {
			name = getName(o.SymbolStrtab, o.ElfSyms[ref.SigSym].Name)
		}
		ref.Group = GetComdatGroupInstance(ctx, name)
	}
}

// parseGnuProperty reads the subset of .note.gnu.property this linker
// understands: the x86 ISA feature-usage word CET relies on. Anything
// else in the note is skipped rather than rejected, since an unknown
// property type is not an error; only structural note corruption is
// treated as fatal.
func (o *ObjectFile) parseGnuProperty(shdr *Shdr) {
	bs := o.GetBytesFromShdr(shdr)
	const noteHeaderSize = 12
	for len(bs) >= noteHeaderSize {
		nameSz := utils.Read[uint32](bs)
		descSz := utils.Read[uint32](bs[4:])
		typ := utils.Read[uint32](bs[8:])
		off := noteHeaderSize + utils.AlignTo(uint64(nameSz), 4)
		if uint64(len(bs)) < off+utils.AlignTo(uint64(descSz), 4) {
			return
		}
		desc := bs[off : off+uint64(descSz)]
		const noteGnuPropertyType0 = 5
		if typ == noteGnuPropertyType0 {
			o.parseGnuPropertyDesc(desc)
		}
		bs = bs[off+utils.AlignTo(uint64(descSz), 4):]
	}
}

func (o *ObjectFile) parseGnuPropertyDesc(desc []byte) {
	const x86FeatureType = 0xc0000002
	for len(desc) >= 8 {
		pr_type := utils.Read[uint32](desc)
		pr_datasz := utils.Read[uint32](desc[4:])
		desc = desc[8:]
		if uint64(len(desc)) < uint64(pr_datasz) {
			return
		}
		if pr_type == x86FeatureType && pr_datasz >= 4 {
			o.Features |= utils.Read[uint32](desc)
		}
		desc = desc[utils.AlignTo(uint64(pr_datasz), 8):]
	}
}

func (o *ObjectFile) initializeSymbols(ctx *Context) {
	if o.SymtabSec == nil {
		return
	}

	o.LocalSyms = make([]Symbol, o.FirstGlobal)
	for i := 0; i < len(o.LocalSyms); i++ {
		o.LocalSyms[i] = *NewSymbol("")
	}
	o.LocalSyms[0].File = o
	o.LocalSyms[0].SymIdx = 0

	for i := int64(1); i < o.FirstGlobal; i++ {
		esym := &o.ElfSyms[i]
		if esym.IsCommon() {
			utils.Fatal("common local symbol?")
		}

		name := getName(o.SymbolStrtab, esym.Name)
		if name == "" && esym.Type() == uint8(elf.STT_SECTION) {
			if sec := o.GetSection(esym, i); sec != nil {
				name = sec.Name()
			}
		}

		sym := &o.LocalSyms[i]
		sym.Name = name
		sym.File = o
		sym.Value = esym.Val
		sym.SymIdx = int32(i)

		if !esym.IsAbs() {
			sym.SetInputSection(o.Sections[o.GetShndx(esym, i)])
		}
	}

	o.Symbols = make([]*Symbol, len(o.ElfSyms))

	for i := int64(0); i < o.FirstGlobal; i++ {
		o.Symbols[i] = &o.LocalSyms[i]
	}

	for i := o.FirstGlobal; i < int64(len(o.ElfSyms)); i++ {
		esym := &o.ElfSyms[i]
		name, _, _ := splitVersionSuffix(getName(o.SymbolStrtab, esym.Name))
		o.Symbols[i] = GetSymbolByName(ctx, name)
	}
}

// splitVersionSuffix splits "name@VERSION" or "name@@VERSION" into the
// base symbol name and the version tag, matching mold's
// parse_symbol_version. A "@@" suffix marks VERSION as the default
// version for name; a single "@" marks a non-default, hidden version.
func splitVersionSuffix(name string) (string, string, bool) {
	idx := strings.Index(name, "@")
	if idx == -1 {
		return name, "", false
	}
	ver := name[idx:]
	isDefault := strings.HasPrefix(ver, "@@")
	ver = strings.TrimPrefix(ver, "@@")
	ver = strings.TrimPrefix(ver, "@")
	return name[:idx], ver, isDefault
}

// splitSymbolVersions records each global symbol's raw "@version" or
// "@@version" suffix (if any) in SymVers, parallel to
// GetGlobalSyms(), for later use by ApplyVersionScript /
// ParseSymbolVersion.
// The marker is kept intact so ParseSymbolVersion can tell a default
// version from a non-default, hidden one.
func (o *ObjectFile) splitSymbolVersions(ctx *Context) {
	if o.SymtabSec == nil {
		return
	}
	o.SymVers = make([]string, len(o.ElfSyms)-int(o.FirstGlobal))
	for i := o.FirstGlobal; i < int64(len(o.ElfSyms)); i++ {
		esym := &o.ElfSyms[i]
		_, ver, isDefault := splitVersionSuffix(getName(o.SymbolStrtab, esym.Name))
		if ver == "" {
			continue
		}
		if isDefault {
			o.SymVers[i-o.FirstGlobal] = "@@" + ver
		} else {
			o.SymVers[i-o.FirstGlobal] = "@" + ver
		}
	}
}

func (o *ObjectFile) sortRelocations() {
	for i := 1; i < len(o.Sections); i++ {
		isec := o.Sections[i]
		if isec == nil || !isec.IsAlive || isec.Shdr().Flags&uint64(elf.SHF_ALLOC) == 0 {
			continue
		}

		rels := isec.GetRels()
		sort.SliceStable(rels, func(i, j int) bool {
			return rels[i].Offset < rels[j].Offset
		})
	}
}

func findNull(data []byte, entSize int) int {
	if entSize == 1 {
		return bytes.Index(data, []byte{0})
	}

	for i := 0; i <= len(data)-entSize; i += entSize {
		bs := data[i : i+entSize]
		if utils.AllZeros(bs) {
			return i
		}
	}
	return -1
}

func splitSection(ctx *Context, isec *InputSection) *MergeableSection {
	rec := &MergeableSection{}
	shdr := isec.Shdr()
	rec.Parent = GetMergedSectionInstance(ctx, isec.Name(), shdr.Type, shdr.Flags)
	rec.P2Align = isec.P2Align

	data := isec.Contents
	offset := uint64(0)
	if shdr.Flags&uint64(elf.SHF_STRINGS) != 0 {
		for len(data) > 0 {
			end := findNull(data, int(shdr.EntSize))
			if end == -1 {
				utils.Fatal("string is not null terminated")
			}

			substr := data[:uint64(end)+shdr.EntSize]
			data = data[uint64(end)+shdr.EntSize:]
			rec.Strs = append(rec.Strs, string(substr))
			rec.FragOffsets = append(rec.FragOffsets, uint32(offset))
			offset += uint64(end) + shdr.EntSize
		}
	} else {
		if uint64(len(data))%shdr.EntSize != 0 {
			utils.Fatal("section size is not multiple of entsize")
		}
		for len(data) > 0 {
			substr := data[:shdr.EntSize]
			data = data[shdr.EntSize:]
			rec.Strs = append(rec.Strs, string(substr))
			rec.FragOffsets = append(rec.FragOffsets, uint32(offset))
			offset += shdr.EntSize
		}
	}

	return rec
}

func (o *ObjectFile) initializeMergeableSections(ctx *Context) {
	o.MergeableSections = make([]*MergeableSection, len(o.Sections))
	for i := 0; i < len(o.Sections); i++ {
		isec := o.Sections[i]
		if isec != nil && isec.IsAlive && isec.Shdr().Flags&uint64(elf.SHF_MERGE) != 0 &&
			isec.ShSize > 0 && isec.Shdr().EntSize > 0 &&
			isec.RelsecIdx == math.MaxUint32 {
			o.MergeableSections[i] = splitSection(ctx, isec)
			isec.IsAlive = false
		}
	}
}

// skipEhframeSections leaves every .eh_frame input section out of the
// ordinary output-section grouping: BinSections recognizes them by
// name and feeds them to the merged EhFrameSection instead, since
// unwind records need to sit behind .eh_frame_hdr rather than wherever
// they'd otherwise land alongside .text.
func (o *ObjectFile) skipEhframeSections(ctx *Context) {
	for i := 0; i < len(o.Sections); i++ {
		isec := o.Sections[i]
		if isec != nil && isec.IsAlive && isec.Name() == ".eh_frame" {
			isec.IsEhFrame = true
		}
	}
}

func (o *ObjectFile) FillUpSymtabShndxSec(s *Shdr) {
	bs := o.GetBytesFromShdr(s)
	nums := len(bs) / int(unsafe.Sizeof(uint32(1)))
	o.SymtabShndxSec = make([]uint32, 0, nums)
	for nums > 0 {
		o.SymtabShndxSec = append(o.SymtabShndxSec, utils.Read[uint32](bs))
		bs = bs[4:]
		nums--
	}
}

func (o *ObjectFile) GetSection(esym *Sym, idx int64) *InputSection {
	return o.Sections[o.GetShndx(esym, idx)]
}

func (o *ObjectFile) GetShndx(esym *Sym, idx int64) int64 {
	utils.Assert(idx >= 0 && idx < int64(len(o.ElfSyms)))
	if esym.Shndx == uint16(elf.SHN_XINDEX) {
		return int64(o.SymtabShndxSec[idx])
	}
	return int64(esym.Shndx)
}

func (o *ObjectFile) ResolveSymbols(ctx *Context) {
	for i := o.FirstGlobal; i < int64(len(o.ElfSyms)); i++ {
		sym := o.Symbols[i]
		esym := &o.ElfSyms[i]

		if esym.IsUndef() {
			continue
		}

		var isec *InputSection
		if !esym.IsAbs() && !esym.IsCommon() {
			isec = o.GetSection(esym, i)
			if isec == nil {
				continue
			}
		}

		if GetRank(o, esym, !o.Alive()) < sym.GetRank() {
			sym.File = o
			sym.SetInputSection(isec)
			sym.Value = esym.Val
			sym.SymIdx = int32(i)
			sym.VerIdx = ctx.DefaultVersion
			sym.SetWeak(esym.IsWeak())
			sym.SetExported(false)
		}
	}
}

func (o *ObjectFile) MarkLiveObjects(ctx *Context, feeder func(InputFile)) {
	utils.Assert(o.Alive())

	for i := o.FirstGlobal; i < int64(len(o.ElfSyms)); i++ {
		esym := &o.ElfSyms[i]
		sym := o.Symbols[i]

		o.MergeVisibility(ctx, sym, esym.StVisibility())

		if esym.IsWeak() {
			continue
		}

		if sym.File == nil {
			continue
		}

		keep := esym.IsUndef() || (esym.IsCommon() && !isSymCommon(sym))
		if keep && !sym.File.SwapAlive(true) {
			feeder(sym.File)
		}
	}
}

// isSymCommon reports whether sym's current definition is itself a
// tentative (common) definition; a symbol owned by a DSO is never
// common in this model.
func isSymCommon(sym *Symbol) bool {
	esym := sym.ElfSym()
	return esym != nil && esym.IsCommon()
}

func (o *ObjectFile) MergeVisibility(ctx *Context, sym *Symbol, visibility uint8) {
	if visibility == uint8(elf.STV_INTERNAL) {
		visibility = uint8(elf.STV_HIDDEN)
	}

	priority := func(visibility uint8) int {
		switch visibility {
		case uint8(elf.STV_HIDDEN):
			return 1
		case uint8(elf.STV_PROTECTED):
			return 2
		case uint8(elf.STV_DEFAULT):
			return 3
		}
		utils.Fatal("unknown symbol visibility")
		return 0
	}

	if priority(sym.Visibility) > priority(visibility) {
		sym.Visibility = visibility
	}
}

func (o *ObjectFile) ClearSymbols() {
	for _, sym := range o.GetGlobalSyms() {
		if sym.File == InputFile(o) {
			sym.Clear()
		}
	}
}

func (o *ObjectFile) RegisterSectionPieces() {
	for _, m := range o.MergeableSections {
		if m == nil {
			continue
		}
		m.Fragments = make([]*SectionFragment, 0, len(m.Strs))
		for i := 0; i < len(m.Strs); i++ {
			m.Fragments = append(m.Fragments, m.Parent.Insert(m.Strs[i], uint32(m.P2Align)))
		}
	}

	for i := int64(1); i < int64(len(o.ElfSyms)); i++ {
		sym := o.Symbols[i]
		esym := &o.ElfSyms[i]

		if esym.IsAbs() || esym.IsCommon() || esym.IsUndef() {
			continue
		}

		m := o.MergeableSections[o.GetShndx(esym, i)]
		if m == nil {
			continue
		}

		frag, fragOffset := m.GetFragment(uint32(esym.Val))
		if frag == nil {
			utils.Fatal("bad symbol value")
		}
		sym.SetSectionFragment(frag)
		sym.Value = uint64(fragOffset)
	}

	nFragSyms := 0
	for _, isec := range o.Sections {
		if isec == nil || !isec.IsAlive || isec.Shdr().Flags&uint64(elf.SHF_ALLOC) == 0 {
			continue
		}
		for _, r := range isec.GetRels() {
			if esym := &o.ElfSyms[r.Sym]; esym.Type() == uint8(elf.STT_SECTION) &&
				o.MergeableSections[o.GetShndx(esym, int64(r.Sym))] != nil {
				nFragSyms++
			}
		}
	}

	for i := 0; i < nFragSyms; i++ {
		o.FragSyms = append(o.FragSyms, *NewSymbol(""))
	}

	idx := 0
	for _, isec := range o.Sections {
		if isec == nil || !isec.IsAlive || isec.Shdr().Flags&uint64(elf.SHF_ALLOC) == 0 {
			continue
		}

		for i := 0; i < len(isec.GetRels()); i++ {
			r := &isec.GetRels()[i]
			esym := &o.ElfSyms[r.Sym]
			if esym.Type() != uint8(elf.STT_SECTION) {
				continue
			}

			m := o.MergeableSections[o.GetShndx(esym, int64(r.Sym))]
			if m == nil {
				continue
			}

			frag, fragOffset := m.GetFragment(uint32(esym.Val) + uint32(r.Addend))
			if frag == nil {
				utils.Fatal("bad relocation")
			}

			sym := &o.FragSyms[idx]
			sym.File = o
			sym.Name = "<fragment>"
			sym.SymIdx = int32(r.Sym)
			sym.Visibility = uint8(elf.STV_HIDDEN)
			sym.SetSectionFragment(frag)
			sym.Value = uint64(fragOffset) - uint64(r.Addend)

			r.Sym = uint32(len(o.ElfSyms)) + uint32(idx)
			idx++
		}
	}

	utils.Assert(idx == len(o.FragSyms))

	for i := 0; i < len(o.FragSyms); i++ {
		o.Symbols = append(o.Symbols, &o.FragSyms[i])
	}
}

// ComputeImportExport applies the object-file-side rules: a
// definition this file owns is exported into .dynsym (unless it came
// from an arg.exclude_libs archive), and, when producing a shared
// library, is also imported so references to it route through the
// PLT, unless it is protected or -Bsymbolic(-functions) suppresses
// that.
func (o *ObjectFile) ComputeImportExport(ctx *Context) {
	for _, sym := range o.GetGlobalSyms() {
		if sym.File != InputFile(o) || sym.Visibility == uint8(elf.STV_HIDDEN) ||
			sym.VerIdx == VER_NDX_LOCAL {
			continue
		}

		if !o.ExcludeLibs {
			sym.SetExported(true)
		}

		if ctx.Arg.Shared {
			protected := sym.Visibility == uint8(elf.STV_PROTECTED)
			isFunc := false
			if esym := sym.ElfSym(); esym != nil {
				isFunc = esym.Type() == uint8(elf.STT_FUNC)
			}
			if !protected && !ctx.Arg.Bsymbolic &&
				!(ctx.Arg.BsymbolicFunctions && isFunc) {
				sym.SetImported(true)
			}
		}
	}
}

// ClaimUnresolvedSymbols is pass 11: a still-
// undefined weak reference is materialized as a defined, non-weak,
// zero-valued stub this file now owns (so later passes see a
// definition, not a dangling reference); a still-undefined strong
// reference is disposed of per arg.unresolved_symbols. The default
// is a hard error, matching a real linker's default behavior, with
// --warn-unresolved-symbols/--unresolved-symbols=ignore-all available
// to downgrade it.
func (o *ObjectFile) ClaimUnresolvedSymbols(ctx *Context) {
	if !o.Alive() {
		return
	}

	for i := o.FirstGlobal; i < int64(len(o.ElfSyms)); i++ {
		esym := &o.ElfSyms[i]
		if !esym.IsUndef() {
			continue
		}

		sym := o.Symbols[i]
		if sym.File != nil && (sym.ElfSym() == nil || !sym.ElfSym().IsUndef() || sym.File.GetPriority() <= o.Priority) {
			continue
		}

		// A weak-undef stub is always materialized so later passes
		// never see a nil-File symbol. A strong-undef stub is only
		// materialized when the policy lets the link proceed anyway
		// (Warn/Ignore); under the default Error policy the symbol is
		// left dangling on purpose, since checkpoint() aborts before
		// ScanRels would otherwise trip over it.
		if esym.IsUndefWeak() || ctx.Arg.UnresolvedSymbols != UnresolvedError {
			if !esym.IsUndefWeak() {
				name := getName(o.SymbolStrtab, esym.Name)
				if ctx.Arg.UnresolvedSymbols == UnresolvedWarn {
					utils.Warn(fmt.Sprintf("undefined symbol: %s: %s", o.InputName(), name))
				}
			}
			sym.File = o
			sym.InputSection = nil
			sym.OutputSection = nil
			sym.SectionFragment = nil
			sym.Value = 0
			sym.SymIdx = int32(i)
			sym.SetWeak(false)
			sym.SetExported(false)
			sym.VerIdx = ctx.DefaultVersion
			continue
		}

		name := getName(o.SymbolStrtab, esym.Name)
		ctx.Errors.Addf("undefined symbol: %s: %s", o.InputName(), name)
	}
}

func (o *ObjectFile) ScanRelocations(ctx *Context) {
	for _, isec := range o.Sections {
		if isec != nil && isec.IsAlive && isec.Shdr().Flags&uint64(elf.SHF_ALLOC) != 0 {
			isec.ScanRelocations(ctx)
		}
	}
}
