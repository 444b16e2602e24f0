package linker

import (
	"sync"
	"sync/atomic"

	"github.com/akawashiro/mold/pkg/linker/arch"
	"github.com/akawashiro/mold/pkg/utils"
)

// CetReportLevel is arg.z_cet_report.
type CetReportLevel int

const (
	CetReportNone CetReportLevel = iota
	CetReportWarning
	CetReportError
)

// UnresolvedPolicy is ClaimUnresolvedSymbols' disposition policy:
// what to do with a strong (non-weak) reference nothing defines.
type UnresolvedPolicy int

const (
	UnresolvedError UnresolvedPolicy = iota
	UnresolvedWarn
	UnresolvedIgnore
)

// CompressKind is arg.compress_debug_sections.
type CompressKind int

const (
	CompressNone CompressKind = iota
	CompressGabi
	CompressGnu
)

// BuildIdKind selects how (or whether) .note.gnu.build-id is sized;
// the checksum itself is computed by the writer, but the core needs
// to know the note's size up front to lay it out.
type BuildIdKind int

const (
	BuildIdNone BuildIdKind = iota
	BuildIdFast
	BuildIdMd5
	BuildIdSha1
	BuildIdSha256
	BuildIdUuid
	BuildIdHexString
)

// Defsym is one --defsym=NAME=VALUE entry. The value is either a
// parsed absolute integer (IsNumeric) or the name of another symbol
// to alias (value/visibility/section index are copied from it).
type Defsym struct {
	Name      string
	IsNumeric bool
	Value     uint64
	SymName   string
}

// VersionPatternGroup is one version-script "name { ... }" stanza,
// pre-parsed upstream (the grammar itself is out of scope). Each
// group carries literal symbol names plus glob patterns, matched by
// concatenating the globs of a group into a single regex.
type VersionPatternGroup struct {
	VersionName string
	VerNdx      uint16
	Literals    []string
	Globs       []string
	CppGlobs    []string
	IsLocal     bool
}

// VersionDefinition is one entry of arg.version_definitions: a shared
// library's own VERSION { ... } map, used by ParseSymbolVersion to
// resolve a "name@VERSION" symbol suffix to a version table index.
type VersionDefinition struct {
	Name string
}

// ContextArg is the full `arg` surface threaded through every pass.
type ContextArg struct {
	Output    string
	Emulation arch.Arch

	LibraryPaths []string

	ExcludeLibs    utils.MapSet[string]
	ExcludeLibsAll bool

	Undefined      []string
	RequireDefined []string
	Defsyms        []Defsym

	VersionPatterns    []VersionPatternGroup
	VersionDefinitions []VersionDefinition
	CppVersionPatterns []VersionPatternGroup

	BuildIdKind BuildIdKind
	EhFrameHdr  bool

	HashStyleSysv bool
	HashStyleGnu  bool

	DynamicLinker string
	Repro         bool
	GcSections    bool

	Shared             bool
	Pic                bool
	Bsymbolic          bool
	BsymbolicFunctions bool

	ZCetReport            CetReportLevel
	CompressDebugSections CompressKind

	ImageBase uint64
	PageSize  uint64

	Entry  string
	Soname string

	UnresolvedSymbols UnresolvedPolicy
}

// SymbolAux is the per-dynamic-symbol auxiliary row:
// the GOT/GOTTP/TLSGD/TLSDESC/PLT/dynsym offsets a symbol owns, once
// it owns any of them.
type SymbolAux struct {
	GotIdx     int32
	GotTpIdx   int32
	TlsGdIdx   int32
	TlsDescIdx int32
	PltIdx     int32
	PltGotIdx  int32
	DynsymIdx  int32
}

// NewSymbolAux returns an aux row with every slot set to the "absent"
// sentinel, mirroring how InputSection/Symbol use -1 for "no slot".
func NewSymbolAux() SymbolAux {
	return SymbolAux{GotIdx: -1, GotTpIdx: -1, TlsGdIdx: -1, TlsDescIdx: -1, PltIdx: -1, PltGotIdx: -1, DynsymIdx: -1}
}

// Context is the process-wide coordinator, threaded explicitly
// through every pass as an explicit argument, never an ambient
// singleton.
type Context struct {
	Arg ContextArg

	symbolMu  sync.RWMutex
	SymbolMap map[string]*Symbol

	comdatMu     sync.Mutex
	ComdatGroups map[string]*ComdatGroup

	SymbolsAux []SymbolAux

	// Fixed synthetic chunks, populated by SyntheticSectionsInit.
	Ehdr         *OutputEhdr
	Phdr         *OutputPhdr
	Shdr         *OutputShdr
	Got          *GotSection
	GotPlt       *GotPltSection
	Plt          *PltSection
	PltGot       *PltGotSection
	Dynsym       *DynsymSection
	Dynstr       *DynstrSection
	Dynamic      *DynamicSection
	Strtab       *StrtabSection
	Shstrtab     *ShstrtabSection
	RelDyn       *RelDynSection
	RelPlt       *RelPltSection
	EhFrame      *EhFrameSection
	EhFrameHdr   *EhFrameHdrSection
	Interp       *InterpSection
	Buildid      *BuildIdSection
	Hash         *HashSection
	GnuHash      *GnuHashSection
	Verdef       *VerdefSection
	Versym       *VersymSection
	Verneed      *VerneedSection
	Dynbss       *DynbssSection
	DynbssRelro  *DynbssSection
	NoteProperty *NotePropertySection
	Repro        *ReproSection
	Comment      *CommentSection

	Buf []byte

	FilePriority int64
	Visited      utils.MapSet[string]

	Objs []*ObjectFile
	Dsos []*SharedFile

	InternalObj   *ObjectFile
	InternalEsyms []Sym

	Chunks []Chunker

	MergedSections []*MergedSection
	OutputSections []*OutputSection

	DefaultVersion uint16

	TpAddr uint64

	// SawLtoSymbol is set when any input carries the LTO slim-bitcode
	// marker symbol __gnu_lto_slim; a warning is emitted and
	// downstream code may act on the flag.
	SawLtoSymbol atomic.Bool

	Errors ErrorList

	// deferredTeardown batches file destruction until the pipeline
	// finishes running, so a pointer held by a symbol from a now-dead
	// file stays valid for the lifetime of the run.
	deferredTeardown []func()

	__InitArrayStart    *Symbol
	__InitArrayEnd      *Symbol
	__FiniArrayStart    *Symbol
	__FiniArrayEnd      *Symbol
	__PreinitArrayStart *Symbol
	__PreinitArrayEnd   *Symbol
	__BssStart          *Symbol
	__End               *Symbol
	__Etext             *Symbol
	__Edata             *Symbol
	__EhdrStart         *Symbol
	__ExecutableStart   *Symbol
	__Dynamic           *Symbol
	__GlobalOffsetTable *Symbol
	__GnuEhFrameHdr     *Symbol
	__RelIpltStart      *Symbol
	__RelIpltEnd        *Symbol
}

// NewContext returns a Context seeded with sensible defaults:
// no emulation picked yet, the
// default page size/image base, and the default symbol version set
// to VER_NDX_GLOBAL (a freshly linked executable exports by default;
// VER_NDX_LOCAL is reserved for the "hidden forever" case).
func NewContext() *Context {
	return &Context{
		Arg: ContextArg{
			Output:      "a.out",
			ExcludeLibs: utils.NewMapSet[string](),
			ImageBase:   DefaultImageBase,
			PageSize:    DefaultPageSize,
		},
		SymbolMap:      make(map[string]*Symbol),
		ComdatGroups:   make(map[string]*ComdatGroup),
		Visited:        utils.NewMapSet[string](),
		FilePriority:   10000,
		DefaultVersion: VER_NDX_GLOBAL,
	}
}

// EnsureAux allocates sym's SymbolAux row if it doesn't already have
// one, the precondition every SetGotIdx/SetDynsymIdx/etc. setter
// assumes (they index ctx.SymbolsAux[sym.AuxIdx] directly).
func (ctx *Context) EnsureAux(sym *Symbol) {
	if sym.AuxIdx == -1 {
		sym.AuxIdx = int32(len(ctx.SymbolsAux))
		ctx.SymbolsAux = append(ctx.SymbolsAux, NewSymbolAux())
	}
}

// DeferTeardown registers a cleanup to run once the pipeline has
// finished consuming the Context.
func (ctx *Context) DeferTeardown(fn func()) {
	ctx.deferredTeardown = append(ctx.deferredTeardown, fn)
}

// RunDeferredTeardown executes and clears the deferred-teardown list.
func (ctx *Context) RunDeferredTeardown() {
	for _, fn := range ctx.deferredTeardown {
		fn()
	}
	ctx.deferredTeardown = nil
}
