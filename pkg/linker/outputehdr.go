package linker

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"unsafe"

	"github.com/akawashiro/mold/pkg/utils"
)

type OutputEhdr struct {
	Chunk
}

func NewOutputEhdr() *OutputEhdr {
	return &OutputEhdr{
		Chunk: Chunk{
			Shdr: Shdr{
				Flags:     uint64(elf.SHF_ALLOC),
				Size:      uint64(unsafe.Sizeof(Ehdr{})),
				AddrAlign: 8,
			},
		},
	}
}

func (o *OutputEhdr) Kind() int {
	return ChunkKindHeader
}

func GetEntryAddr(ctx *Context) uint64 {
	if ctx.Arg.Entry != "" {
		if sym := GetSymbolByName(ctx, ctx.Arg.Entry); sym != nil && sym.File != nil {
			return sym.GetAddr(ctx)
		}
	}
	for _, osec := range ctx.OutputSections {
		if osec.Name == ".text" {
			return osec.Shdr.Addr
		}
	}
	return 0
}

// GetOutputType picks ET_DYN for shared objects and position
// independent executables, ET_EXEC otherwise.
func GetOutputType(ctx *Context) elf.Type {
	if ctx.Arg.Shared || ctx.Arg.Pic {
		return elf.ET_DYN
	}
	return elf.ET_EXEC
}

func (o *OutputEhdr) CopyBuf(ctx *Context) {
	var err error
	ehdr := &Ehdr{}
	WriteMagic(ehdr.Ident[:])
	ehdr.Ident[elf.EI_CLASS] = uint8(ctx.Arg.Emulation.Class())
	ehdr.Ident[elf.EI_DATA] = uint8(ctx.Arg.Emulation.Data())
	ehdr.Ident[elf.EI_VERSION] = uint8(elf.EV_CURRENT)
	ehdr.Ident[elf.EI_OSABI] = 0
	ehdr.Ident[elf.EI_ABIVERSION] = 0
	ehdr.Type = uint16(GetOutputType(ctx))
	ehdr.Machine = uint16(ctx.Arg.Emulation.Machine())
	ehdr.Version = uint32(elf.EV_CURRENT)
	ehdr.Entry = GetEntryAddr(ctx)
	ehdr.PhOff = ctx.Phdr.Shdr.Offset
	ehdr.ShOff = ctx.Shdr.Shdr.Offset
	ehdr.EhSize = uint16(unsafe.Sizeof(Ehdr{}))
	ehdr.PhEntSize = uint16(unsafe.Sizeof(Phdr{}))
	ehdr.PhNum = uint16(ctx.Phdr.Shdr.Size) / uint16(unsafe.Sizeof(Phdr{}))
	ehdr.ShEntSize = uint16(unsafe.Sizeof(Shdr{}))
	ehdr.ShNum = uint16(ctx.Shdr.Shdr.Size) / uint16(unsafe.Sizeof(Shdr{}))

	buf := &bytes.Buffer{}
	err = binary.Write(buf, binary.LittleEndian, ehdr)
	utils.MustNo(err)
	copy(ctx.Buf[o.Shdr.Offset:], buf.Bytes())
}
