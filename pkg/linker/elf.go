package linker

import (
	"bytes"
	"debug/elf"
)

const SHF_EXCLUDE uint32 = 0x80000000
const SHT_LLVM_ADDRSIG uint32 = 0x6fff4c03

// Version-table indices reserved by the gABI; real version indices
// for a shared library's .gnu.version_d start right after these.
const (
	VER_NDX_LOCAL       uint16 = 0
	VER_NDX_GLOBAL      uint16 = 1
	VER_NDX_LAST_RESERVED uint16 = 1
)

const VERSYM_HIDDEN uint16 = 0x8000
const VERSYM_VERSION uint16 = 0x7fff

// DefaultPageSize and DefaultImageBase are the fallbacks ContextArg
// is seeded with; both are overridable via arg.page_size /
// arg.image_base.
const DefaultPageSize uint64 = 4096
const DefaultImageBase uint64 = 0x200000

type Ehdr struct {
	Ident     [16]uint8
	Type      uint16
	Machine   uint16
	Version   uint32
	Entry     uint64
	PhOff     uint64
	ShOff     uint64
	Flags     uint32
	EhSize    uint16
	PhEntSize uint16
	PhNum     uint16
	ShEntSize uint16
	ShNum     uint16
	ShStrndx  uint16
}

type Shdr struct {
	Name      uint32
	Type      uint32
	Flags     uint64
	Addr      uint64
	Offset    uint64
	Size      uint64
	Link      uint32
	Info      uint32
	AddrAlign uint64
	EntSize   uint64
}

type Phdr struct {
	Type     uint32
	Flags    uint32
	Offset   uint64
	VAddr    uint64
	PAddr    uint64
	FileSize uint64
	MemSize  uint64
	Align    uint64
}

type Sym struct {
	Name  uint32
	Info  uint8
	Other uint8
	Shndx uint16
	Val   uint64
	Size  uint64
}

func (s *Sym) IsUndef() bool {
	return s.Shndx == uint16(elf.SHN_UNDEF)
}

func (s *Sym) IsDefined() bool {
	return !s.IsUndef()
}

func (s *Sym) IsCommon() bool {
	return s.Shndx == uint16(elf.SHN_COMMON)
}

func (s *Sym) IsAbs() bool {
	return s.Shndx == uint16(elf.SHN_ABS)
}

func (s *Sym) IsWeak() bool {
	return s.Bind() == uint8(elf.STB_WEAK)
}

func (s *Sym) IsUndefWeak() bool {
	return s.IsUndef() && s.IsWeak()
}

// SttGnuIfunc is STT_GNU_IFUNC, the GNU extension symbol type for an
// indirect function whose real address is produced by calling a
// resolver at load time. debug/elf has no constant for it since it's
// not in the generic ELF gABI.
const SttGnuIfunc uint8 = 10

func (s *Sym) Type() uint8 {
	return s.Info & 0xf
}

func (s *Sym) IsIfunc() bool {
	return s.Type() == SttGnuIfunc
}

func (s *Sym) SetType(typ uint8) {
	s.Info = (s.Info & 0xf0) | (typ & 0xf)
}

func (s *Sym) Bind() uint8 {
	return s.Info >> 4
}
func (s *Sym) SetBind(bind uint8) {
	s.Info = (s.Info & 0xf) | (bind << 4)
}

func (s *Sym) StVisibility() uint8 {
	return s.Other & 0b11
}

func (s *Sym) SetVisibility(v uint8) {
	s.Other = (s.Other & 0b11111100) | (v & 0b11)
}

type Rela struct {
	Offset uint64
	Type   uint32
	Sym    uint32
	Addend int64
}

type Chdr struct {
	Type      uint32
	Reserved  uint32
	Size      uint64
	AddrAlign uint64
}

// elfMagic is the four-byte ELFMAGIC string every object, shared
// object and executable starts with (e_ident[EI_MAG0..EI_MAG3]).
var elfMagic = []byte{0x7f, 'E', 'L', 'F'}

// CheckMagic reports whether contents opens with the ELF magic bytes,
// the fast-path test GetFileType and NewElfFileBase use before
// attempting to parse a header.
func CheckMagic(contents []byte) bool {
	return len(contents) >= 4 && bytes.Equal(contents[:4], elfMagic)
}

// WriteMagic stamps the ELF magic bytes into the first four bytes of
// ident, the start of OutputEhdr.CopyBuf's e_ident construction.
func WriteMagic(ident []byte) {
	copy(ident, elfMagic)
}

func getName(strTab []byte, offset uint32) string {
	length := bytes.Index(strTab[offset:], []byte{0})
	return string(strTab[offset : offset+uint32(length)])
}

func writeString(buf []byte, str string) int64 {
	copy(buf, str)
	buf[len(str)] = 0
	return int64(len(str)) + 1
}
