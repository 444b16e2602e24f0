// Package arch supplies the small set of capabilities the core needs
// to stay polymorphic over ELF machine type: a descriptor interface
// with one implementation per supported machine, in place of a single
// hardcoded MachineType/GetMachineTypeFromContents pair.
package arch

import "debug/elf"

// R_AARCH64_TLSLD_ADD_LO12_NC is defined by the AArch64 ELF ABI but is
// missing from the standard library's debug/elf package.
const R_AARCH64_TLSLD_ADD_LO12_NC elf.R_AARCH64 = 519

// Arch is the per-architecture capability set: ELF class/endianness, the GOT/PLT entry size and
// relocation-record layout, the IFUNC relocation type, and which
// output section backs _GLOBAL_OFFSET_TABLE_.
type Arch interface {
	// Name is the short identifier used in diagnostics, e.g. "x86_64".
	Name() string
	// Machine is the e_machine value this architecture writes.
	Machine() elf.Machine
	// Class is ELFCLASS32 or ELFCLASS64.
	Class() elf.Class
	// Data is the byte order, always little-endian for the machines
	// this linker supports.
	Data() elf.Data
	// WordSize is 4 or 8, derived from Class.
	WordSize() int
	// GotEntrySize is the size in bytes of one .got/.got.plt slot.
	GotEntrySize() int
	// PltEntrySize is the size in bytes of one .plt slot.
	PltEntrySize() int
	// RelaEntrySize is sizeof(Elf64_Rela) for this machine (the
	// linker always emits RELA, never REL, matching mold).
	RelaEntrySize() int
	// IfuncRelType is the relocation type used for a GNU_IFUNC's
	// IRELATIVE dynamic relocation.
	IfuncRelType() uint32
	// GotSectionForGotPc names the section _GLOBAL_OFFSET_TABLE_
	// points at: ".got.plt" on the x86 family, ".got" on AArch64.
	GotSectionForGotPc() string
	// IsGotRelType reports whether a relocation type reads a symbol's
	// GOT slot (used by ScanRels to set NEEDS_GOT).
	IsGotRelType(relType uint32) bool
	// IsPltRelType reports whether a relocation type branches through
	// the PLT for an imported function (used by ScanRels to set
	// NEEDS_PLT).
	IsPltRelType(relType uint32) bool
	// IsTlsGdRelType / IsTlsLdRelType / IsTlsDescRelType /
	// IsGotTpRelType classify TLS-model-specific relocations for
	// ScanRels.
	IsTlsGdRelType(relType uint32) bool
	IsTlsLdRelType(relType uint32) bool
	IsTlsDescRelType(relType uint32) bool
	IsGotTpRelType(relType uint32) bool
	// IsCopyRelType reports whether a relocation type requires a
	// COPYREL (e.g. R_X86_64_COPY).
	IsCopyRelType(relType uint32) bool
	// CanonicalPltOK reports whether this machine's ABI supports a
	// .plt.got-style stub (a PLT entry that loads through an
	// already-relocated GOT slot instead of the lazy-binding path).
	// AArch64 has no such stub in this implementation, so symbols that
	// would otherwise route there go to .plt instead.
	CanonicalPltOK() bool
}

type x86_64 struct{}

// X86_64 is the x86-64 System V ABI descriptor.
var X86_64 Arch = x86_64{}

func (x86_64) Name() string         { return "x86_64" }
func (x86_64) Machine() elf.Machine { return elf.EM_X86_64 }
func (x86_64) Class() elf.Class     { return elf.ELFCLASS64 }
func (x86_64) Data() elf.Data       { return elf.ELFDATA2LSB }
func (x86_64) WordSize() int        { return 8 }
func (x86_64) GotEntrySize() int    { return 8 }
func (x86_64) PltEntrySize() int    { return 16 }
func (x86_64) RelaEntrySize() int   { return 24 }
func (x86_64) IfuncRelType() uint32 { return uint32(elf.R_X86_64_IRELATIVE) }
func (x86_64) GotSectionForGotPc() string {
	return ".got.plt"
}

func (x86_64) IsGotRelType(t uint32) bool {
	switch elf.R_X86_64(t) {
	case elf.R_X86_64_GOT32, elf.R_X86_64_GOTPCREL, elf.R_X86_64_GOTPCRELX,
		elf.R_X86_64_REX_GOTPCRELX, elf.R_X86_64_GOTOFF64, elf.R_X86_64_GOT64,
		elf.R_X86_64_GOTPC64:
		return true
	}
	return false
}

func (x86_64) IsPltRelType(t uint32) bool {
	switch elf.R_X86_64(t) {
	case elf.R_X86_64_PLT32, elf.R_X86_64_PLTOFF64:
		return true
	}
	return false
}

func (x86_64) IsTlsGdRelType(t uint32) bool {
	return elf.R_X86_64(t) == elf.R_X86_64_TLSGD
}

func (x86_64) IsTlsLdRelType(t uint32) bool {
	return elf.R_X86_64(t) == elf.R_X86_64_TLSLD
}

func (x86_64) IsTlsDescRelType(t uint32) bool {
	return elf.R_X86_64(t) == elf.R_X86_64_GOTPC32_TLSDESC ||
		elf.R_X86_64(t) == elf.R_X86_64_TLSDESC_CALL
}

func (x86_64) IsGotTpRelType(t uint32) bool {
	return elf.R_X86_64(t) == elf.R_X86_64_GOTTPOFF
}

func (x86_64) IsCopyRelType(t uint32) bool {
	return elf.R_X86_64(t) == elf.R_X86_64_COPY
}

func (x86_64) CanonicalPltOK() bool { return true }

type arm64 struct{}

// ARM64 is the AArch64 (ELF) descriptor.
var ARM64 Arch = arm64{}

func (arm64) Name() string         { return "arm64" }
func (arm64) Machine() elf.Machine { return elf.EM_AARCH64 }
func (arm64) Class() elf.Class     { return elf.ELFCLASS64 }
func (arm64) Data() elf.Data       { return elf.ELFDATA2LSB }
func (arm64) WordSize() int        { return 8 }
func (arm64) GotEntrySize() int    { return 8 }
func (arm64) PltEntrySize() int    { return 16 }
func (arm64) RelaEntrySize() int   { return 24 }
func (arm64) IfuncRelType() uint32 { return uint32(elf.R_AARCH64_IRELATIVE) }
func (arm64) GotSectionForGotPc() string {
	return ".got"
}

func (arm64) IsGotRelType(t uint32) bool {
	switch elf.R_AARCH64(t) {
	case elf.R_AARCH64_ADR_GOT_PAGE, elf.R_AARCH64_LD64_GOT_LO12_NC,
		elf.R_AARCH64_GOT_LD_PREL19:
		return true
	}
	return false
}

func (arm64) IsPltRelType(t uint32) bool {
	return elf.R_AARCH64(t) == elf.R_AARCH64_JUMP26 || elf.R_AARCH64(t) == elf.R_AARCH64_CALL26
}

func (arm64) IsTlsGdRelType(t uint32) bool {
	switch elf.R_AARCH64(t) {
	case elf.R_AARCH64_TLSGD_ADR_PAGE21, elf.R_AARCH64_TLSGD_ADD_LO12_NC:
		return true
	}
	return false
}

func (arm64) IsTlsLdRelType(t uint32) bool {
	switch elf.R_AARCH64(t) {
	case elf.R_AARCH64_TLSLD_ADR_PAGE21, R_AARCH64_TLSLD_ADD_LO12_NC:
		return true
	}
	return false
}

func (arm64) IsTlsDescRelType(t uint32) bool {
	switch elf.R_AARCH64(t) {
	case elf.R_AARCH64_TLSDESC_ADR_PAGE21, elf.R_AARCH64_TLSDESC_LD64_LO12_NC,
		elf.R_AARCH64_TLSDESC_ADD_LO12_NC, elf.R_AARCH64_TLSDESC_CALL:
		return true
	}
	return false
}

func (arm64) IsGotTpRelType(t uint32) bool {
	switch elf.R_AARCH64(t) {
	case elf.R_AARCH64_TLSIE_ADR_GOTTPREL_PAGE21, elf.R_AARCH64_TLSIE_LD64_GOTTPREL_LO12_NC:
		return true
	}
	return false
}

func (arm64) IsCopyRelType(t uint32) bool {
	return elf.R_AARCH64(t) == elf.R_AARCH64_COPY
}

func (arm64) CanonicalPltOK() bool { return false }

// ByMachine looks up the descriptor for an ELF e_machine value.
func ByMachine(m elf.Machine) (Arch, bool) {
	switch m {
	case elf.EM_X86_64:
		return X86_64, true
	case elf.EM_AARCH64:
		return ARM64, true
	}
	return nil, false
}
