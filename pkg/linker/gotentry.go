package linker

// GotEntryKind classifies a GOT slot by how it gets its final value:
// a link-time constant the writer can fill in directly, or a value
// that only exists once a dynamic relocation against it runs at load
// time. A raw relocation constant would only ever need to distinguish
// "none" (statically known) from "anything else" (dynamic), never the
// specific relocation type, so this enum names the distinction
// directly instead of overloading a relocation type field.
type GotEntryKind int

const (
	// GotEntryConst is a slot whose value is known without help from
	// the dynamic linker (a local symbol's address, or a TLS offset
	// relative to the static TLS block).
	GotEntryConst GotEntryKind = iota
	// GotEntryGlobDat needs an R_*_GLOB_DAT/R_*_JUMP_SLOT-class dynamic
	// relocation, recorded in RelDyn by ScanRels.
	GotEntryGlobDat
	// GotEntryTpOff is an initial-exec TLS slot, always link-time
	// constant once the static TLS layout is fixed.
	GotEntryTpOff
	// GotEntryTlsGd is the two-word (module-id, offset) pair a TLSGD
	// access reads; needs DTPMOD/DTPOFF dynamic relocations when the
	// referenced symbol is imported.
	GotEntryTlsGd
	// GotEntryTlsDesc is the two-word TLS descriptor a TLSDESC access
	// calls through.
	GotEntryTlsDesc
	// GotEntryIRelative is a GNU_IFUNC's GOT slot: fixed up by an
	// IRELATIVE relocation whose addend is the resolver's address,
	// rather than by a symbol lookup.
	GotEntryIRelative
)

type GotEntry struct {
	Idx  int64
	Val  uint64
	Kind GotEntryKind
}

func NewGotEntry(idx int64, val uint64, kind GotEntryKind) GotEntry {
	return GotEntry{Idx: idx, Val: val, Kind: kind}
}

// IsDynamic reports whether this slot's final value depends on a
// dynamic relocation rather than being a plain link-time constant.
func (e *GotEntry) IsDynamic() bool {
	return e.Kind != GotEntryConst && e.Kind != GotEntryTpOff
}

// NumIrelativeRelocs counts the IFUNC GOT slots, the value
// FixSyntheticSymbols needs to place __rel_iplt_end: those entries are
// sorted to the front of RelDyn.Rels, so this many RELA records at its
// start are the IRELATIVE ones.
func NumIrelativeRelocs(ctx *Context) int {
	n := 0
	for _, sym := range ctx.Got.GotSyms {
		if sym.IsIfunc() {
			n++
		}
	}
	return n
}
