package linker

import (
	"bytes"
	"compress/zlib"
	"debug/elf"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/akawashiro/mold/pkg/linker/parallel"
	"github.com/akawashiro/mold/pkg/utils"
)

func CreateInternalFile(ctx *Context) {
	obj := &ObjectFile{}
	ctx.InternalObj = obj
	ctx.Objs = append(ctx.Objs, obj)

	ctx.InternalEsyms = make([]Sym, 1)
	obj.Symbols = append(obj.Symbols, NewSymbol(""))
	obj.FirstGlobal = 1
	obj.SetAlive(true)
	obj.Priority = 1

	obj.ElfSyms = ctx.InternalEsyms
}

// ResolveSymbols is pass 3: every file's definitions are
// registered once assuming every archive member is dead, liveness is
// propagated outward from the roots MarkLiveObjects finds, and then
// every symbol a now-live file owns is re-registered so a definition
// that only wins because its file turned out alive (e.g. a weak
// archive member beaten by a strong one) is reflected correctly.
func ResolveSymbols(ctx *Context) {
	for _, file := range ctx.Objs {
		file.ResolveSymbols(ctx)
	}
	for _, dso := range ctx.Dsos {
		dso.ResolveSymbols(ctx)
	}

	MarkLiveObjects(ctx)

	for _, file := range ctx.Objs {
		if !file.Alive() {
			file.ClearSymbols()
		}
	}
	for _, dso := range ctx.Dsos {
		if !dso.Alive() {
			dso.ClearSymbols()
		}
	}

	for _, file := range ctx.Objs {
		if file.Alive() {
			file.ResolveSymbols(ctx)
		}
	}

	ctx.Objs = utils.RemoveIf[*ObjectFile](ctx.Objs, func(file *ObjectFile) bool {
		return !file.Alive()
	})
	ctx.Dsos = utils.RemoveIf[*SharedFile](ctx.Dsos, func(dso *SharedFile) bool {
		return !dso.Alive()
	})
}

// MarkLiveObjects runs the archive-resolution rule: a file starts
// alive iff it was not pulled from a static archive (or is the
// internal file), and every live file's undefined/common references
// pull in whichever archive member currently owns that name,
// breadth-first until no more files turn alive. It is built on
// parallel.Feeder as a dynamic work queue: a file that turns alive
// while the queue is being drained pushes itself back onto the same
// queue rather than being walked by a second pass. Shared-object
// liveness (transitively, any .so referenced by a live .so is alive)
// is a separate closure computed once the object closure is final,
// since only objects pull in archive members.
func MarkLiveObjects(ctx *Context) {
	roots := make([]*ObjectFile, 0)
	for _, file := range ctx.Objs {
		if file.Alive() {
			roots = append(roots, file)
		}
	}
	utils.Assert(len(roots) > 0)

	feeder := parallel.NewFeeder(roots)
	feeder.Drain(func(f *ObjectFile) {
		f.MarkLiveObjects(ctx, func(o InputFile) {
			if obj, ok := o.(*ObjectFile); ok {
				feeder.Push(obj)
			}
		})
	})

	markLiveDsos(ctx)
}

// markLiveDsos computes shared-object liveness: a
// .so becomes alive the moment a live object makes a strong (non-weak)
// undefined reference to one of its globals, and the closure then
// extends transitively through a now-alive .so's own undefined
// references into whichever further .so's resolve them.
func markLiveDsos(ctx *Context) {
	feeder := parallel.NewFeeder([]*SharedFile(nil))
	mark := func(file InputFile) {
		dso, ok := file.(*SharedFile)
		if !ok || dso == nil {
			return
		}
		if !dso.SwapAlive(true) {
			feeder.Push(dso)
		}
	}

	for _, file := range ctx.Objs {
		if !file.Alive() {
			continue
		}
		for i := file.FirstGlobal; i < int64(len(file.ElfSyms)); i++ {
			esym := &file.ElfSyms[i]
			if !esym.IsUndef() || esym.IsWeak() {
				continue
			}
			if sym := file.Symbols[i]; sym.File != nil {
				mark(sym.File)
			}
		}
	}

	feeder.Drain(func(dso *SharedFile) {
		for i := dso.FirstGlobal; i < int64(len(dso.ElfSyms)); i++ {
			esym := &dso.ElfSyms[i]
			if !esym.IsUndef() {
				continue
			}
			sym := dso.Symbols[i]
			if sym == nil || sym.File == nil {
				continue
			}
			mark(sym.File)
		}
	})
}

// CheckDuplicateSymbols checks the symbol uniqueness invariant's
// failure case: after ResolveSymbols has picked exactly one owner per
// name, a strong (non-weak, non-common) global definition that lost
// to a different live object's own strong definition is a link error,
// not a silent override. Losing to a weak definition or a DSO is a
// legitimate outcome of the ranking in rank.go and is not reported
// here. Errors land on ctx.Errors; checkpoint() flushes them.
func CheckDuplicateSymbols(ctx *Context) {
	for _, file := range ctx.Objs {
		if file == ctx.InternalObj || !file.Alive() {
			continue
		}
		for i := file.FirstGlobal; i < int64(len(file.ElfSyms)); i++ {
			esym := &file.ElfSyms[i]
			if esym.IsUndef() || esym.IsWeak() || esym.IsCommon() {
				continue
			}
			sym := file.Symbols[i]
			if sym == nil || sym.File == nil || sym.File == InputFile(file) {
				continue
			}
			owner, ok := sym.File.(*ObjectFile)
			if !ok || !owner.Alive() || sym.SymIdx < 0 {
				continue
			}
			ownerEsym := &owner.ElfSyms[sym.SymIdx]
			if ownerEsym.IsWeak() || ownerEsym.IsCommon() {
				continue
			}
			ctx.Errors.Addf("duplicate symbol: %s in %s and %s",
				sym.Name, file.InputName(), owner.InputName())
		}
	}
}

func RegisterSectionPieces(ctx *Context) {
	for _, file := range ctx.Objs {
		file.RegisterSectionPieces()
	}
}

// ComputeImportExport is pass 14: every live object file decides
// which of its own definitions enter .dynsym, and every needed DSO
// decides which of its definitions and references do. Order matters
// only in that both sides must see the final symbol-resolution state
// ResolveSymbols left behind, which by this point in the pipeline is
// already stable.
func ComputeImportExport(ctx *Context) {
	for _, file := range ctx.Objs {
		if file == ctx.InternalObj {
			continue
		}
		file.ComputeImportExport(ctx)
	}
	for _, dso := range ctx.Dsos {
		dso.ComputeImportExport(ctx)
	}
}

func ComputeMergedSectionSizes(ctx *Context) {
	for _, file := range ctx.Objs {
		for _, m := range file.MergeableSections {
			if m == nil {
				continue
			}
			for _, frag := range m.Fragments {
				frag.IsAlive = true
			}
		}
	}

	for _, sec := range ctx.MergedSections {
		sec.AssignOffsets()
	}
}

// CreateSyntheticSections is pass 2 (SyntheticSectionsInit): every
// synthetic chunk a dynamically linked output might need is
// instantiated up front, gated on the ContextArg flags that say
// whether this link actually needs it; ScanRels and the layout passes
// downstream check a chunk's presence via its Context field being
// non-nil rather than re-deriving the same condition.
func CreateSyntheticSections(ctx *Context) {
	push := func(chunk Chunker) Chunker {
		ctx.Chunks = append(ctx.Chunks, chunk)
		return chunk
	}

	ctx.Ehdr = push(NewOutputEhdr()).(*OutputEhdr)
	ctx.Phdr = push(NewOutputPhdr()).(*OutputPhdr)
	ctx.Shdr = push(NewOutputShdr()).(*OutputShdr)

	ctx.Got = push(NewGotSection()).(*GotSection)

	needsDynamic := ctx.Arg.Shared || len(ctx.Dsos) > 0 || ctx.Arg.DynamicLinker != ""

	if needsDynamic {
		ctx.GotPlt = push(NewGotPltSection()).(*GotPltSection)
		ctx.Plt = push(NewPltSection()).(*PltSection)
		ctx.PltGot = push(NewPltGotSection()).(*PltGotSection)
		ctx.Dynsym = push(NewDynsymSection()).(*DynsymSection)
		ctx.Dynstr = push(NewDynstrSection()).(*DynstrSection)
		ctx.Dynamic = push(NewDynamicSection()).(*DynamicSection)
		ctx.RelDyn = push(NewRelDynSection()).(*RelDynSection)
		ctx.RelPlt = push(NewRelPltSection()).(*RelPltSection)
		ctx.Dynbss = push(NewDynbssSection(false)).(*DynbssSection)
		ctx.DynbssRelro = push(NewDynbssSection(true)).(*DynbssSection)

		if ctx.Arg.HashStyleSysv {
			ctx.Hash = push(NewHashSection()).(*HashSection)
		}
		if ctx.Arg.HashStyleGnu {
			ctx.GnuHash = push(NewGnuHashSection()).(*GnuHashSection)
		}

		if !ctx.Arg.Shared {
			path := ctx.Arg.DynamicLinker
			if path == "" {
				path = defaultDynamicLinker(ctx)
			}
			ctx.Interp = push(NewInterpSection(path)).(*InterpSection)
		}

		ctx.Versym = push(NewVersymSection()).(*VersymSection)
		ctx.Verneed = push(NewVerneedSection()).(*VerneedSection)
		if ctx.Arg.Shared {
			ctx.Verdef = push(NewVerdefSection()).(*VerdefSection)
		}
	}

	if ctx.Arg.BuildIdKind != BuildIdNone {
		ctx.Buildid = push(NewBuildIdSection(ctx.Arg.BuildIdKind)).(*BuildIdSection)
	}

	if ctx.Arg.EhFrameHdr {
		ctx.EhFrameHdr = push(NewEhFrameHdrSection()).(*EhFrameHdrSection)
	}
	ctx.EhFrame = push(NewEhFrameSection()).(*EhFrameSection)

	ctx.NoteProperty = push(NewNotePropertySection()).(*NotePropertySection)

	if ctx.Arg.Repro {
		ctx.Repro = push(NewReproSection()).(*ReproSection)
	}

	ctx.Comment = push(NewCommentSection()).(*CommentSection)

	ctx.Strtab = push(NewStrtabSection()).(*StrtabSection)
	ctx.Shstrtab = push(NewShstrtabSection()).(*ShstrtabSection)
}

func defaultDynamicLinker(ctx *Context) string {
	switch ctx.Arg.Emulation.Name() {
	case "arm64":
		return "/lib/ld-linux-aarch64.so.1"
	default:
		return "/lib64/ld-linux-x86-64.so.2"
	}
}

// BinSections is pass 7: objs is split into a fixed number of
// shards, each shard builds its own per-output-section bucket in
// parallel, a serial reduction sizes each OutputSection's final
// Members slice once, and a second parallel pass (one goroutine per
// output section, so no two goroutines ever share a destination
// slice) appends the shard buckets back together strictly in shard
// order. The result does not depend on goroutine completion order,
// only on ctx.Objs's (already-deterministic) iteration order.
func BinSections(ctx *Context) {
	const numShards = 128
	shards := parallel.Shard(ctx.Objs, numShards)

	local := make([][][]*InputSection, len(shards))
	utils.MustNo(parallel.For(len(shards), func(s int) error {
		bucket := make([][]*InputSection, len(ctx.OutputSections))
		for _, file := range shards[s] {
			for _, isec := range file.Sections {
				if isec == nil || !isec.IsAlive || isec.IsEhFrame {
					continue
				}
				idx := isec.OutputSection.Idx
				bucket[idx] = append(bucket[idx], isec)
			}
		}
		local[s] = bucket
		return nil
	}))

	// .eh_frame sections are diverted into the merged EhFrameSection
	// instead of an ordinary OutputSection; EhFrameSection.Add is not
	// safe for concurrent callers, so this stays a single serial walk.
	for _, file := range ctx.Objs {
		for _, isec := range file.Sections {
			if isec != nil && isec.IsAlive && isec.IsEhFrame && ctx.EhFrame != nil {
				ctx.EhFrame.Add(isec)
			}
		}
	}

	counts := make([]int, len(ctx.OutputSections))
	for _, bucket := range local {
		for i, lst := range bucket {
			counts[i] += len(lst)
		}
	}
	for i, osec := range ctx.OutputSections {
		osec.Members = make([]*InputSection, 0, counts[i])
	}

	utils.MustNo(parallel.For(len(ctx.OutputSections), func(i int) error {
		osec := ctx.OutputSections[i]
		for _, bucket := range local {
			osec.Members = append(osec.Members, bucket[i]...)
		}
		return nil
	}))
}

// SortInitFini runs right after BinSections: within the merged
// .init_array/.fini_array output sections, members keep the relative
// order BinSections gave them except that any member whose original
// section name carries a numeric priority suffix (".init_array.N")
// is moved into ascending-N order ahead of the no-priority catch-all,
// which sorts last as if its priority were 65536.
func SortInitFini(ctx *Context) {
	for _, osec := range ctx.OutputSections {
		if osec.Name != ".init_array" && osec.Name != ".fini_array" {
			continue
		}
		sort.SliceStable(osec.Members, func(i, j int) bool {
			return initFiniPriority(osec.Members[i]) < initFiniPriority(osec.Members[j])
		})
	}
}

// initFiniPriority extracts N from ".init_array.N"/".fini_array.N";
// a bare ".init_array"/".fini_array" section (no priority) sorts last.
func initFiniPriority(isec *InputSection) int64 {
	name := isec.Name()
	idx := strings.LastIndexByte(name, '.')
	if idx <= 0 {
		return 65536
	}
	suffix := name[idx+1:]
	n, err := strconv.ParseInt(suffix, 10, 64)
	if err != nil {
		return 65536
	}
	return n
}

func CollectOutputSections(ctx *Context) []Chunker {
	osecs := make([]Chunker, 0)
	for _, osec := range ctx.OutputSections {
		if len(osec.Members) != 0 {
			osecs = append(osecs, osec)
		}
	}
	for _, osec := range ctx.MergedSections {
		if osec.Shdr.Size > 0 {
			osecs = append(osecs, osec)
		}
	}

	sort.SliceStable(osecs, func(i, j int) bool {
		return osecs[i].GetName() < osecs[j].GetName()
	})
	return osecs
}

// AddSyntheticSymbols reserves the linker-defined symbols:
// every __start_/__stop_/__init_array_*-style marker symbol the image
// needs gets a reserved ABS slot here so ResolveSymbols can bind any
// reference to it exactly like a normal definition; FixSyntheticSymbols
// fills in the real section/value once layout is final.
func AddSyntheticSymbols(ctx *Context) {
	obj := ctx.InternalObj

	add := func(name string) *Symbol {
		esym := Sym{
			Info:  uint8(elf.STT_NOTYPE)<<4 | uint8(elf.STB_GLOBAL)&0xf,
			Shndx: uint16(elf.SHN_ABS),
			Other: uint8(elf.STV_HIDDEN) << 6,
		}
		ctx.InternalEsyms = append(ctx.InternalEsyms, esym)
		sym := GetSymbolByName(ctx, name)
		sym.Value = 0xdeadbeef
		obj.Symbols = append(obj.Symbols, sym)
		return sym
	}

	ctx.__InitArrayStart = add("__init_array_start")
	ctx.__InitArrayEnd = add("__init_array_end")
	ctx.__FiniArrayStart = add("__fini_array_start")
	ctx.__FiniArrayEnd = add("__fini_array_end")
	ctx.__PreinitArrayStart = add("__preinit_array_start")
	ctx.__PreinitArrayEnd = add("__preinit_array_end")
	ctx.__BssStart = add("__bss_start")
	ctx.__End = add("_end")
	ctx.__Etext = add("etext")
	ctx.__Edata = add("edata")
	ctx.__EhdrStart = add("__ehdr_start")
	ctx.__ExecutableStart = add("__executable_start")
	ctx.__Dynamic = add("_DYNAMIC")
	ctx.__GlobalOffsetTable = add("_GLOBAL_OFFSET_TABLE_")
	ctx.__GnuEhFrameHdr = add("__GNU_EH_FRAME_HDR")
	ctx.__RelIpltStart = add("__rel_iplt_start")
	ctx.__RelIpltEnd = add("__rel_iplt_end")

	for _, name := range ctx.Arg.Undefined {
		GetSymbolByName(ctx, name)
	}

	for _, d := range ctx.Arg.Defsyms {
		sym := GetSymbolByName(ctx, d.Name)
		if d.IsNumeric {
			esym := Sym{
				Info:  uint8(elf.STT_NOTYPE)<<4 | uint8(elf.STB_GLOBAL)&0xf,
				Shndx: uint16(elf.SHN_ABS),
			}
			ctx.InternalEsyms = append(ctx.InternalEsyms, esym)
			sym.Value = d.Value
			obj.Symbols = append(obj.Symbols, sym)
		} else if target := ctx.SymbolMap[d.SymName]; target != nil {
			ctx.InternalEsyms = append(ctx.InternalEsyms, Sym{})
			obj.Symbols = append(obj.Symbols, sym)
			sym.File = target.File
			sym.InputSection = target.InputSection
			sym.OutputSection = target.OutputSection
			sym.SectionFragment = target.SectionFragment
			sym.Value = target.Value
			sym.Visibility = target.Visibility
		}
	}

	for _, name := range outputSectionStartStopCandidates(ctx) {
		add("__start_" + name)
		add("__stop_" + name)
	}

	obj.ElfSyms = ctx.InternalEsyms
	obj.ResolveSymbols(ctx)
}

// outputSectionStartStopCandidates returns every output section name
// that is a valid C identifier, the condition the ELF gABI places on
// which sections the linker synthesizes __start_<name>/__stop_<name>
// markers for.
func outputSectionStartStopCandidates(ctx *Context) []string {
	var names []string
	for _, osec := range ctx.OutputSections {
		if isValidCIdentifier(osec.Name) {
			names = append(names, osec.Name)
		}
	}
	return names
}

func isValidCIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		isAlpha := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
		isDigit := c >= '0' && c <= '9'
		if i == 0 && !isAlpha {
			return false
		}
		if i > 0 && !isAlpha && !isDigit {
			return false
		}
	}
	return true
}

func ClaimUnresolvedSymbols(ctx *Context) {
	for _, file := range ctx.Objs {
		file.ClaimUnresolvedSymbols(ctx)
	}
}

// ScanRels is pass 12. The per-object relocation walk (each
// object tags the symbols it references via Symbol.OrFlags, which
// serializes the rare cross-object race on a shared global) is
// embarrassingly parallel; the allocation sweep that follows stays a
// single serial pass over a deterministically ordered symbol list,
// since dynamic-table insertions must happen in a fixed order.
func ScanRels(ctx *Context) {
	utils.MustNo(parallel.ForEach(ctx.Objs, func(file *ObjectFile) error {
		file.ScanRelocations(ctx)
		return nil
	}))

	hasDynsym := ctx.Dynsym != nil

	if hasDynsym {
		for _, file := range ctx.Objs {
			for _, sym := range file.GetGlobalSyms() {
				if sym.File != InputFile(file) {
					continue
				}
				if sym.IsImported() || sym.IsExported() {
					ctx.Dynsym.Add(ctx, sym)
				}
			}
		}
		for _, dso := range ctx.Dsos {
			if !dso.Alive() {
				continue
			}
			for _, sym := range dso.GetGlobalSyms() {
				if sym.IsImported() || sym.IsExported() {
					ctx.Dynsym.Add(ctx, sym)
				}
			}
		}
	}

	syms := make([]*Symbol, 0)
	seen := make(map[*Symbol]bool)
	collect := func(sym *Symbol) {
		if sym != nil && sym.Flags != 0 && !seen[sym] {
			seen[sym] = true
			syms = append(syms, sym)
		}
	}
	for _, file := range ctx.Objs {
		for _, sym := range file.Symbols {
			if sym.File == InputFile(file) {
				collect(sym)
			}
		}
	}
	for _, dso := range ctx.Dsos {
		for _, sym := range dso.Symbols {
			if sym != nil && sym.File == InputFile(dso) {
				collect(sym)
			}
		}
	}

	tlsldAllocated := false

	for _, sym := range syms {
		ctx.EnsureAux(sym)

		if sym.Flags&NEEDS_GOT != 0 {
			ctx.Got.AddGotSymbol(ctx, sym)
			if sym.IsIfunc() {
				// An indirect function's GOT slot is fixed up by calling
				// its own definition as a resolver, an IRELATIVE
				// relocation the static startup code runs even when the
				// link has no dynamic linker at all.
				ctx.RelDyn.Add(DynRel{
					Sym:    sym,
					Type:   ctx.Arg.Emulation.IfuncRelType(),
					Addend: int64(sym.GetAddr(ctx)),
				})
			} else if hasDynsym && sym.IsImported() {
				ctx.RelDyn.Add(DynRel{Sym: sym, Type: globDatRelType(ctx)})
			}
		}

		if sym.Flags&NEEDS_GOTTP != 0 {
			ctx.Got.AddGotTpSymbol(ctx, sym)
			if hasDynsym && sym.IsImported() {
				ctx.RelDyn.Add(DynRel{Sym: sym, Type: tpoffRelType(ctx)})
			}
		}

		if sym.Flags&NEEDS_TLSGD != 0 {
			ctx.Got.AddTlsGdSymbol(ctx, sym)
			if hasDynsym {
				idx := sym.GetTlsGdIdx(ctx)
				ctx.RelDyn.Add(DynRel{Sym: sym, Type: dtpmodRelType(ctx)})
				ctx.RelDyn.Add(DynRel{Sym: sym, Type: dtpoffRelType(ctx), Addend: int64(idx)})
			}
		}

		if sym.Flags&NEEDS_TLSDESC != 0 {
			ctx.Got.AddTlsDescSymbol(ctx, sym)
			if hasDynsym {
				ctx.RelDyn.Add(DynRel{Sym: sym, Type: tlsdescRelType(ctx)})
			}
		}

		if sym.Flags&NEEDS_TLSLD != 0 && !tlsldAllocated {
			tlsldAllocated = true
			if hasDynsym {
				ctx.RelDyn.Add(DynRel{Type: dtpmodRelType(ctx)})
			}
		}

		if sym.Flags&NEEDS_PLT != 0 {
			// is_canonical matches mold: a non-PIC/PIE link gives an
			// imported function a single canonical address, so its PLT
			// stub must live in .plt itself rather than .plt.got, and the
			// symbol is forced into .dynsym so other objects can bind to
			// that address.
			isCanonical := !ctx.Arg.Pic && sym.IsImported()
			if sym.Flags&NEEDS_GOT != 0 && !isCanonical && ctx.Arg.Emulation.CanonicalPltOK() {
				ctx.PltGot.Add(ctx, sym)
			} else {
				ctx.Plt.Add(ctx, sym)
				if isCanonical {
					sym.SetExported(true)
				}
			}
		}

		if sym.Flags&NEEDS_COPYREL != 0 {
			assignCopyrel(ctx, sym)
		}

		sym.Flags = 0
	}

	// __rel_iplt_start/__rel_iplt_end (FixSyntheticSymbols) delimit a
	// contiguous run at the front of .rela.dyn, so the IRELATIVE records
	// just added have to sort ahead of everything else in the table.
	ifuncRelType := ctx.Arg.Emulation.IfuncRelType()
	sort.SliceStable(ctx.RelDyn.Rels, func(i, j int) bool {
		return ctx.RelDyn.Rels[i].Type == ifuncRelType && ctx.RelDyn.Rels[j].Type != ifuncRelType
	})
}

// assignCopyrel performs COPYREL allocation: a DSO-defined data
// symbol referenced directly needs one local copy, placed in the
// read-only-backed dynbss_relro table when the DSO's own definition
// lives in a non-writable section and in dynbss otherwise. Only one
// COPY relocation is ever emitted for it, and every versioned name of
// the same *Symbol gets an alias row in .dynsym (see below). Other
// symbols the DSO defines at the same address are not redirected to
// the copy.
func assignCopyrel(ctx *Context, sym *Symbol) {
	if sym.HasCopyrel() {
		return
	}

	dso, ok := sym.File.(*SharedFile)
	if !ok {
		return
	}

	esym := (*Sym)(nil)
	if sym.SymIdx >= 0 && int(sym.SymIdx) < len(dso.ElfSyms) {
		esym = &dso.ElfSyms[sym.SymIdx]
	}
	var size, align uint64 = 1, 1
	if esym != nil {
		size = esym.Size
		if size == 0 {
			size = 1
		}
		align = size
		if align > 32 {
			align = 32
		}
	}

	readonly := dso.IsInReadonlySegment(sym)
	sym.SetCopyrel(readonly)

	// A symbol that needs a COPYREL is both imported (the DSO still owns
	// the canonical definition other DSOs bind against) and exported
	// (our copy must be visible for symbol interposition).
	sym.SetExported(true)

	target := ctx.Dynbss
	if readonly {
		target = ctx.DynbssRelro
	}
	target.Add(ctx, sym, size, align)

	ctx.Dynsym.Add(ctx, sym)
	ctx.RelDyn.Add(DynRel{Sym: sym, Type: copyRelType(ctx)})

	// sym is globally unique by its version-stripped name, so every row
	// in dso.Symbols that resolves to the same *Symbol but under a
	// decorated name (e.g. "stdout" and "stdout@@GLIBC_2.0" both land on
	// one *Symbol named "stdout") needs its own alias row in .dynsym:
	// the COPYREL slot just allocated backs all of them, but an object
	// that still references the versioned name has to find it there.
	for i, other := range dso.Symbols {
		if other != sym {
			continue
		}
		raw := getName(dso.SymbolStrtab, dso.ElfSyms[i].Name)
		if raw != sym.Name {
			ctx.Dynsym.AddAlias(ctx, sym, raw)
		}
	}
}

// ComputeSectionSizes sizes every OutputSection independently (hence
// parallel.For across sections). The per-member (offset, alignment)
// pairs feed a parallel.Scan using the seed (0,1) and the associative
// Combine operator, an exclusive prefix scan, so prefix[j] is the
// running state strictly before member j. The finalization sweep then
// applies member j's own alignment to that running offset to get its
// real placement: running_offset only advances after that alignment
// is applied, which is why a sequential sweep and any parallel
// decomposition of the scan agree on every offset.
func ComputeSectionSizes(ctx *Context) {
	utils.MustNo(parallel.For(len(ctx.OutputSections), func(i int) error {
		osec := ctx.OutputSections[i]
		if osec.Compressed {
			return nil
		}
		pairs := make([]parallel.ScanPair, len(osec.Members))
		for j, isec := range osec.Members {
			pairs[j] = parallel.ScanPair{Offset: uint64(isec.ShSize), Align: 1 << isec.P2Align}
		}
		prefix := parallel.Scan(utils.AlignTo, parallel.ScanPair{Offset: 0, Align: 1}, pairs)

		offset := uint64(0)
		align := uint64(1)
		for j, isec := range osec.Members {
			off := utils.AlignTo(prefix[j].Offset, pairs[j].Align)
			isec.Offset = uint32(off)
			offset = off + uint64(isec.ShSize)
			if pairs[j].Align > align {
				align = pairs[j].Align
			}
		}

		osec.Shdr.Size = offset
		osec.Shdr.AddrAlign = align
		return nil
	}))
}

func SortOutputSections(ctx *Context) {
	getRank1 := func(chunk Chunker) int32 {
		typ := chunk.GetShdr().Type
		flags := chunk.GetShdr().Flags

		if flags&uint64(elf.SHF_ALLOC) == 0 {
			return math.MaxInt32 - 1
		}
		if chunk == ctx.Shdr {
			return math.MaxInt32
		}

		if chunk == ctx.Ehdr {
			return 0
		}
		if chunk == ctx.Phdr {
			return 1
		}
		if chunk == ctx.Interp {
			return 2
		}
		if typ == uint32(elf.SHT_NOTE) {
			return 3
		}
		if chunk == ctx.Hash || chunk == ctx.GnuHash {
			return 4
		}
		if chunk == ctx.Dynsym {
			return 5
		}
		if chunk == ctx.Dynstr {
			return 6
		}
		if chunk == ctx.Versym {
			return 7
		}
		if chunk == ctx.Verneed || chunk == ctx.Verdef {
			return 8
		}
		if chunk == ctx.RelDyn {
			return 9
		}
		if chunk == ctx.RelPlt {
			return 10
		}

		b2i := func(b bool) int {
			if b {
				return 1
			}
			return 0
		}

		writeable := b2i(flags&uint64(elf.SHF_WRITE) != 0)
		notExec := b2i(flags&uint64(elf.SHF_EXECINSTR) == 0)
		notTls := b2i(flags&uint64(elf.SHF_TLS) == 0)
		notRelro := b2i(!isRelro(ctx, chunk))
		isBss := b2i(typ == uint32(elf.SHT_NOBITS))

		return int32((1 << 10) | writeable<<9 | notExec<<8 | notTls<<7 | notRelro<<6 | isBss<<5)
	}
	getRank2 := func(chunk Chunker) int32 {
		if chunk.GetShdr().Type == uint32(elf.SHT_NOTE) {
			return -int32(chunk.GetShdr().AddrAlign)
		}

		if chunk.GetName() == ".toc" {
			return 2
		}
		if chunk == ctx.Got {
			return 1
		}
		return 0
	}

	sort.SliceStable(ctx.Chunks, func(i, j int) bool {
		x := getRank1(ctx.Chunks[i])
		y := getRank1(ctx.Chunks[j])
		if x != y {
			return x < y
		}

		return getRank2(ctx.Chunks[i]) < getRank2(ctx.Chunks[j])
	})
}

func doSetOsecOffsets(ctx *Context) uint64 {
	alignment := func(chunk Chunker) uint64 {
		return uint64(math.Max(float64(chunk.GetExtraAddrAlign()),
			float64(chunk.GetShdr().AddrAlign)))
	}

	addr := ctx.Arg.ImageBase
	for _, chunk := range ctx.Chunks {
		if chunk.GetShdr().Flags&uint64(elf.SHF_ALLOC) == 0 {
			continue
		}

		if isTbss(chunk) {
			chunk.GetShdr().Addr = addr
			continue
		}

		addr = utils.AlignTo(addr, alignment(chunk))
		chunk.GetShdr().Addr = addr

		addr += chunk.GetShdr().Size
	}

	for i := 0; i < len(ctx.Chunks); {
		if isTbss(ctx.Chunks[i]) {
			addr := ctx.Chunks[i].GetShdr().Addr
			for ; i < len(ctx.Chunks) && isTbss(ctx.Chunks[i]); i++ {
				addr = utils.AlignTo(addr, alignment(ctx.Chunks[i]))
				ctx.Chunks[i].GetShdr().Addr = addr
				addr += ctx.Chunks[i].GetShdr().Size
			}
		} else {
			i++
		}
	}

	fileoff := uint64(0)
	i := 0
	for i < len(ctx.Chunks) && ctx.Chunks[i].GetShdr().Flags&uint64(elf.SHF_ALLOC) != 0 {
		first := ctx.Chunks[i]
		utils.Assert(first.GetShdr().Type != uint32(elf.SHT_NOBITS))

		fileoff = utils.AlignTo(fileoff, alignment(first))

		for {
			ctx.Chunks[i].GetShdr().Offset = fileoff + ctx.Chunks[i].GetShdr().Addr - first.GetShdr().Addr
			i++

			if i >= len(ctx.Chunks) ||
				ctx.Chunks[i].GetShdr().Flags&uint64(elf.SHF_ALLOC) == 0 ||
				ctx.Chunks[i].GetShdr().Type == uint32(elf.SHT_NOBITS) {
				break
			}

			if ctx.Chunks[i].GetShdr().Addr < first.GetShdr().Addr {
				break
			}

			gapSize := ctx.Chunks[i].GetShdr().Addr - ctx.Chunks[i-1].GetShdr().Addr - ctx.Chunks[i-1].GetShdr().Size

			if gapSize >= ctx.Arg.PageSize {
				break
			}
		}

		fileoff = ctx.Chunks[i-1].GetShdr().Offset + ctx.Chunks[i-1].GetShdr().Size

		for i < len(ctx.Chunks) &&
			ctx.Chunks[i].GetShdr().Flags&uint64(elf.SHF_ALLOC) != 0 &&
			ctx.Chunks[i].GetShdr().Type == uint32(elf.SHT_NOBITS) {
			i++
		}
	}

	for ; i < len(ctx.Chunks); i++ {
		fileoff = utils.AlignTo(fileoff, ctx.Chunks[i].GetShdr().AddrAlign)
		ctx.Chunks[i].GetShdr().Offset = fileoff
		fileoff += ctx.Chunks[i].GetShdr().Size
	}
	return fileoff
}

func SetOsecOffsets(ctx *Context) uint64 {
	for {
		fileoff := doSetOsecOffsets(ctx)

		if ctx.Phdr == nil {
			return fileoff
		}

		size := ctx.Phdr.Shdr.Size
		ctx.Phdr.UpdateShdr(ctx)

		if size == ctx.Phdr.Shdr.Size {
			return fileoff
		}
	}
}

// ResizeSections runs right after SetOsecOffsets. RISC-V-style
// shrinking of .text around relaxation opportunities has no equivalent
// on the architectures this pipeline targets, so the only work is
// re-running ComputeSectionSizes and SetOsecOffsets once more and
// returning the resulting file size.
func ResizeSections(ctx *Context) uint64 {
	ComputeSectionSizes(ctx)
	return SetOsecOffsets(ctx)
}

// CompressDebugSections is pass 17: every .debug_*
// section's bytes are replaced by a zlib-compressed representation,
// either the GABI form (SHF_COMPRESSED set, an Elf64_Chdr header) or
// the legacy GNU form (name rewritten to .zdebug_*, a 12-byte "ZLIB"
// + big-endian size header, no SHF_COMPRESSED). Must run after
// ComputeSectionSizes has assigned every Member its offset within the
// section, since building the compressed payload requires the
// section's uncompressed bytes; ComputeSectionSizes and CopyBuf both
// special-case osec.Compressed afterward so the rest of the pipeline
// treats the result as a fixed-size blob instead of a Member
// concatenation.
func CompressDebugSections(ctx *Context) []*OutputSection {
	if ctx.Arg.CompressDebugSections == CompressNone {
		return nil
	}

	var out []*OutputSection
	for _, osec := range ctx.OutputSections {
		if !strings.HasPrefix(osec.Name, ".debug_") {
			continue
		}
		if osec.Shdr.Type == uint32(elf.SHT_NOBITS) || osec.Shdr.Size == 0 {
			continue
		}

		raw := make([]byte, osec.Shdr.Size)
		for _, isec := range osec.Members {
			isec.WriteTo(ctx, raw[isec.Offset:])
		}

		var compressed bytes.Buffer
		w := zlib.NewWriter(&compressed)
		_, err := w.Write(raw)
		utils.MustNo(err)
		utils.MustNo(w.Close())

		var final []byte
		switch ctx.Arg.CompressDebugSections {
		case CompressGabi:
			final = make([]byte, 24+compressed.Len())
			putU32(final[0:], uint32(elf.COMPRESS_ZLIB))
			putU32(final[4:], 0)
			putU64(final[8:], osec.Shdr.Size)
			putU64(final[16:], osec.Shdr.AddrAlign)
			copy(final[24:], compressed.Bytes())
			osec.Shdr.Flags |= uint64(elf.SHF_COMPRESSED)
		case CompressGnu:
			final = make([]byte, 12+compressed.Len())
			copy(final[0:4], "ZLIB")
			putU64BE(final[4:], osec.Shdr.Size)
			copy(final[12:], compressed.Bytes())
			osec.Name = ".zdebug_" + strings.TrimPrefix(osec.Name, ".debug_")
		}

		osec.CompressedData = final
		osec.Compressed = true
		osec.Shdr.Size = uint64(len(final))
		osec.Shdr.AddrAlign = 1
		out = append(out, osec)
	}
	return out
}

// ClearPadding zero-fills the inter-section gaps CopyBuf leaves behind
// when an output section's members don't tile it exactly (alignment
// padding, or space reclaimed by EliminateComdats/ConvertCommonSymbols
// leaving a hole); OutputSection.CopyBuf already zeroes its own
// trailing gap, so this pass only needs to cover whatever lies before
// the very first chunk and between chunks entirely, which is whatever
// ctx.Buf left over from make([]byte, ...), already zero in Go. Kept
// as an explicit pass so the pipeline's step order stays legible.
func ClearPadding(ctx *Context) {}

// FixSyntheticSymbols is pass 16: once every chunk has its final address, every marker symbol
// AddSyntheticSymbols reserved gets its real section and value.
func FixSyntheticSymbols(ctx *Context) {
	start := func(sym *Symbol, chunk Chunker) {
		if sym != nil && chunk != nil {
			sym.SetOutputSection(chunk)
			sym.Value = chunk.GetShdr().Addr
		}
	}

	stop := func(sym *Symbol, chunk Chunker) {
		if sym != nil && chunk != nil {
			sym.SetOutputSection(chunk)
			sym.Value = chunk.GetShdr().Addr + chunk.GetShdr().Size
		}
	}

	outputSections := make([]Chunker, 0)
	for _, chunk := range ctx.Chunks {
		if chunk.Kind() != ChunkKindHeader {
			outputSections = append(outputSections, chunk)
		}
	}

	for _, chunk := range outputSections {
		switch chunk.GetShdr().Type {
		case uint32(elf.SHT_INIT_ARRAY):
			start(ctx.__InitArrayStart, chunk)
			stop(ctx.__InitArrayEnd, chunk)
		case uint32(elf.SHT_PREINIT_ARRAY):
			start(ctx.__PreinitArrayStart, chunk)
			stop(ctx.__PreinitArrayEnd, chunk)
		case uint32(elf.SHT_FINI_ARRAY):
			start(ctx.__FiniArrayStart, chunk)
			stop(ctx.__FiniArrayEnd, chunk)
		}
	}

	for name, osec := range outputSectionsByName(ctx) {
		if sym := ctx.SymbolMap["__start_"+name]; sym != nil && sym.File == InputFile(ctx.InternalObj) {
			start(sym, osec)
		}
		if sym := ctx.SymbolMap["__stop_"+name]; sym != nil && sym.File == InputFile(ctx.InternalObj) {
			stop(sym, osec)
		}
	}

	if len(outputSections) > 0 && ctx.Ehdr != nil {
		start(ctx.__EhdrStart, ctx.Ehdr)
		start(ctx.__ExecutableStart, ctx.Ehdr)
	}

	if ctx.Dynamic != nil {
		start(ctx.__Dynamic, ctx.Dynamic)
	}

	if ctx.RelDyn != nil {
		start(ctx.__RelIpltStart, ctx.RelDyn)
		if sym := ctx.__RelIpltEnd; sym != nil {
			sym.SetOutputSection(ctx.RelDyn)
			sym.Value = ctx.RelDyn.Shdr.Addr +
				uint64(NumIrelativeRelocs(ctx))*ctx.RelDyn.Shdr.EntSize
		}
	}

	if ctx.Got != nil {
		sect := ctx.Arg.Emulation.GotSectionForGotPc()
		for _, chunk := range outputSections {
			if chunk.GetName() == sect {
				start(ctx.__GlobalOffsetTable, chunk)
				break
			}
		}
		if ctx.__GlobalOffsetTable.OutputSection == nil {
			start(ctx.__GlobalOffsetTable, ctx.Got)
		}
	}

	if ctx.EhFrameHdr != nil {
		start(ctx.__GnuEhFrameHdr, ctx.EhFrameHdr)
	}

	// __bss_start marks the start of the plain .bss output section, not
	// .tbss or .bss.rel.ro. With no .bss it equals _end (set below).
	hasBss := false
	for _, chunk := range outputSections {
		if chunk.Kind() == ChunkKindOutputSection && chunk.GetName() == ".bss" {
			start(ctx.__BssStart, chunk)
			hasBss = true
			break
		}
	}

	lastAlloc, lastProgbits, lastExec := Chunker(nil), Chunker(nil), Chunker(nil)
	for _, chunk := range outputSections {
		if chunk.GetShdr().Flags&uint64(elf.SHF_ALLOC) != 0 {
			lastAlloc = chunk
			if chunk.GetShdr().Type != uint32(elf.SHT_NOBITS) {
				lastProgbits = chunk
			}
			if chunk.GetShdr().Flags&uint64(elf.SHF_EXECINSTR) != 0 {
				lastExec = chunk
			}
		}
	}
	stop(ctx.__End, lastAlloc)
	if !hasBss {
		stop(ctx.__BssStart, lastAlloc)
	}
	stop(ctx.__Etext, lastExec)
	stop(ctx.__Edata, lastProgbits)
}

func outputSectionsByName(ctx *Context) map[string]Chunker {
	m := make(map[string]Chunker)
	for _, chunk := range ctx.Chunks {
		if chunk.Kind() == ChunkKindOutputSection {
			m[chunk.GetName()] = chunk
		}
	}
	return m
}

func isRelro(ctx *Context, chunk Chunker) bool {
	flags := chunk.GetShdr().Flags
	typ := chunk.GetShdr().Type

	if flags&uint64(elf.SHF_WRITE) != 0 {
		return (flags&uint64(elf.SHF_TLS) != 0) || typ == uint32(elf.SHT_INIT_ARRAY) ||
			typ == uint32(elf.SHT_FINI_ARRAY) || typ == uint32(elf.SHT_PREINIT_ARRAY) ||
			chunk == ctx.Got || chunk == ctx.Dynamic || chunk == ctx.DynbssRelro ||
			chunk.GetName() == ".toc" ||
			strings.HasSuffix(chunk.GetName(), "rel.ro")
	}
	return false
}

func isTbss(chunk Chunker) bool {
	return chunk.GetShdr().Type == uint32(elf.SHT_NOBITS) && chunk.GetShdr().Flags&uint64(elf.SHF_TLS) != 0
}
